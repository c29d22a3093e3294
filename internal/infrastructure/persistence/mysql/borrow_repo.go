package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/library/internal/domain/borrow"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// borrowRepository 借阅记录仓储实现
type borrowRepository struct {
	db *gorm.DB
}

// NewBorrowRepository 创建借阅记录仓储
func NewBorrowRepository(db *gorm.DB) borrow.Repository {
	return &borrowRepository{db: db}
}

// Create 创建借阅记录
// 同一（user_id, book_id）最多一条未还记录，写入前再确认一次
func (r *borrowRepository) Create(ctx context.Context, b *borrow.Borrow) error {
	db := dbFrom(ctx, r.db)

	var open int64
	err := db.Model(&BorrowModel{}).
		Where("user_id = ? AND book_id = ? AND is_return = ?", b.UserID, b.BookID, false).
		Count(&open).Error
	if err != nil {
		return apperrors.Wrap(err, "查询借阅记录失败")
	}
	if open > 0 {
		return borrow.ErrInvalidState
	}

	model := toBorrowModel(b)
	if err := db.Omit(clause.Associations).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建借阅记录失败")
	}
	b.ID = model.ID
	return nil
}

// FindByID 查询借阅记录，附带图书与读者摘要
func (r *borrowRepository) FindByID(ctx context.Context, id uint) (*borrow.Borrow, error) {
	var model BorrowModel
	err := withRefs(dbFrom(ctx, r.db)).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, borrow.ErrBorrowNotFound
		}
		return nil, apperrors.Wrap(err, "查询借阅记录失败")
	}
	return toBorrowEntity(&model), nil
}

// LockByID SELECT * FROM borrows WHERE id = ? FOR UPDATE
func (r *borrowRepository) LockByID(ctx context.Context, id uint) (*borrow.Borrow, error) {
	var model BorrowModel
	err := dbFrom(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, borrow.ErrBorrowNotFound
		}
		return nil, apperrors.Wrap(err, "锁定借阅记录失败")
	}
	return toBorrowEntity(&model), nil
}

// FindOpen 读者对某本书的未还记录
func (r *borrowRepository) FindOpen(ctx context.Context, userID, bookID uint) (*borrow.Borrow, error) {
	var model BorrowModel
	err := dbFrom(ctx, r.db).
		Where("user_id = ? AND book_id = ? AND is_return = ?", userID, bookID, false).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, "查询借阅记录失败")
	}
	return toBorrowEntity(&model), nil
}

// CountOpenByUser 读者当前未还数量
func (r *borrowRepository) CountOpenByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := dbFrom(ctx, r.db).Model(&BorrowModel{}).
		Where("user_id = ? AND is_return = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(err, "统计未还数量失败")
	}
	return count, nil
}

// CountOpenByBook 某本书当前未还数量
func (r *borrowRepository) CountOpenByBook(ctx context.Context, bookID uint) (int64, error) {
	var count int64
	err := dbFrom(ctx, r.db).Model(&BorrowModel{}).
		Where("book_id = ? AND is_return = ?", bookID, false).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(err, "统计未还数量失败")
	}
	return count, nil
}

// MarkReturned UPDATE borrows SET is_return = true, returned_at = ? WHERE id = ? AND is_return = false
func (r *borrowRepository) MarkReturned(ctx context.Context, id uint, returnedAt time.Time) error {
	db := dbFrom(ctx, r.db)
	result := db.Model(&BorrowModel{}).
		Where("id = ? AND is_return = ?", id, false).
		Updates(map[string]interface{}{
			"is_return":   true,
			"returned_at": returnedAt,
		})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新借阅记录失败")
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&BorrowModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return apperrors.Wrap(err, "查询借阅记录失败")
	}
	if count == 0 {
		return borrow.ErrBorrowNotFound
	}
	return borrow.ErrAlreadyReturned
}

// List 分页查询，按借出时间倒序
func (r *borrowRepository) List(ctx context.Context, params borrow.ListParams) ([]*borrow.Borrow, int64, error) {
	var (
		models []BorrowModel
		total  int64
	)
	page, pageSize := normalizePage(params.Page, params.PageSize)

	query := dbFrom(ctx, r.db).Model(&BorrowModel{})
	if params.UserID != 0 {
		query = query.Where("user_id = ?", params.UserID)
	}
	if params.IsReturn != nil {
		query = query.Where("is_return = ?", *params.IsReturn)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询借阅总数失败")
	}

	err := withRefs(query).
		Order("borrow_date DESC, id DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询借阅列表失败")
	}

	list := make([]*borrow.Borrow, len(models))
	for i := range models {
		list[i] = toBorrowEntity(&models[i])
	}
	return list, total, nil
}

// ListOpenByUser 未还记录数受borrow_limit约束，直接全部取出
func (r *borrowRepository) ListOpenByUser(ctx context.Context, userID uint) ([]*borrow.Borrow, error) {
	var models []BorrowModel
	err := withRefs(dbFrom(ctx, r.db)).
		Where("user_id = ? AND is_return = ?", userID, false).
		Order("borrow_date DESC, id DESC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询未还记录失败")
	}

	list := make([]*borrow.Borrow, len(models))
	for i := range models {
		list[i] = toBorrowEntity(&models[i])
	}
	return list, nil
}

// withRefs 预加载图书与读者，已软删除的图书也要带出书名
func withRefs(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Book", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("User")
}

func toBorrowModel(b *borrow.Borrow) *BorrowModel {
	return &BorrowModel{
		ID:         b.ID,
		UserID:     b.UserID,
		BookID:     b.BookID,
		IsReturn:   b.IsReturn,
		BorrowDate: b.BorrowDate,
		ReturnDate: b.ReturnDate,
		ReturnedAt: b.ReturnedAt,
	}
}

func toBorrowEntity(model *BorrowModel) *borrow.Borrow {
	b := &borrow.Borrow{
		ID:         model.ID,
		UserID:     model.UserID,
		BookID:     model.BookID,
		BorrowDate: model.BorrowDate,
		ReturnDate: model.ReturnDate,
		IsReturn:   model.IsReturn,
		ReturnedAt: model.ReturnedAt,
	}
	if model.Book != nil {
		b.Book = &borrow.BookRef{ID: model.Book.ID, Name: model.Book.Name, ISBN: model.Book.ISBN}
	}
	if model.User != nil {
		b.User = &borrow.UserRef{ID: model.User.ID, Username: model.User.Username, Email: model.User.Email}
	}
	return b
}
