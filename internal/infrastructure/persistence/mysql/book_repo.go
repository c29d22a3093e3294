package mysql

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/library/internal/domain/book"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// bookRepository 图书仓储实现，同时是库存台账（book.Inventory）
// 设计说明：
// 1. available_copy只通过条件UPDATE修改，不做"读-改-写"
// 2. ISBN唯一索引冲突转换为ErrISBNDuplicate
// 3. 分类关系随图书一起写入，列表查询批量加载
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository 创建图书仓储
func NewBookRepository(db *gorm.DB) book.Repository {
	return &bookRepository{db: db}
}

// Create 创建图书及其分类关联
func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	model := toBookModel(b)

	err := dbFrom(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		return replaceBookCategories(tx, model.ID, b.CategoryIDs)
	})
	if err != nil {
		if isDuplicateError(err) {
			return book.ErrISBNDuplicate
		}
		return apperrors.Wrap(err, "创建图书失败")
	}

	b.ID = model.ID
	b.CreatedAt = model.CreatedAt
	b.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找图书
func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	var model BookModel
	db := dbFrom(ctx, r.db)
	if err := db.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrBookNotFound
		}
		return nil, apperrors.Wrap(err, "查询图书失败")
	}

	b := toBookEntity(&model)
	if err := r.attachCategories(db, []*book.Book{b}); err != nil {
		return nil, err
	}
	return b, nil
}

// FindByISBN 根据ISBN查找图书
func (r *bookRepository) FindByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	var model BookModel
	if err := dbFrom(ctx, r.db).Where("isbn = ?", isbn).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrBookNotFound
		}
		return nil, apperrors.Wrap(err, "查询图书失败")
	}
	return toBookEntity(&model), nil
}

// Update 更新图书信息与分类
func (r *bookRepository) Update(ctx context.Context, b *book.Book) error {
	err := dbFrom(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&BookModel{}).Where("id = ?", b.ID).Updates(map[string]interface{}{
			"name":           b.Name,
			"isbn":           b.ISBN,
			"price":          b.Price,
			"sell":           b.Sell,
			"date":           b.Date,
			"available_copy": b.AvailableCopy,
			"cover_image":    b.CoverImage,
			"description":    b.Description,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return book.ErrBookNotFound
		}
		return replaceBookCategories(tx, b.ID, b.CategoryIDs)
	})
	if err != nil {
		if errors.Is(err, book.ErrBookNotFound) {
			return err
		}
		if isDuplicateError(err) {
			return book.ErrISBNDuplicate
		}
		return apperrors.Wrap(err, "更新图书失败")
	}
	return nil
}

// Delete 删除图书（软删除），分类关联一并清除
func (r *bookRepository) Delete(ctx context.Context, id uint) error {
	err := dbFrom(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&BookModel{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return book.ErrBookNotFound
		}
		return tx.Where("book_id = ?", id).Delete(&BookCategoryModel{}).Error
	})
	if err != nil {
		if errors.Is(err, book.ErrBookNotFound) {
			return err
		}
		return apperrors.Wrap(err, "删除图书失败")
	}
	return nil
}

// List 分页查询图书列表
func (r *bookRepository) List(ctx context.Context, params book.ListParams) ([]*book.Book, int64, error) {
	var (
		models []BookModel
		total  int64
	)
	page, pageSize := normalizePage(params.Page, params.PageSize)
	db := dbFrom(ctx, r.db)

	query := db.Model(&BookModel{})
	if params.Search != "" {
		query = query.Where("name LIKE ?", "%"+params.Search+"%")
	}
	if params.CategoryID != 0 {
		query = query.Where("id IN (?)",
			db.Model(&BookCategoryModel{}).Select("book_id").Where("category_id = ?", params.CategoryID))
	}
	if params.Sell != nil {
		query = query.Where("sell = ?", *params.Sell)
	}
	if params.Available != nil {
		if *params.Available {
			query = query.Where("available_copy > 0")
		} else {
			query = query.Where("available_copy = 0")
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询图书总数失败")
	}

	err := query.Order(bookOrder(params.OrderBy)).
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询图书列表失败")
	}

	books := make([]*book.Book, len(models))
	for i := range models {
		books[i] = toBookEntity(&models[i])
	}
	if err := r.attachCategories(db, books); err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// LockByID SELECT * FROM books WHERE id = ? FOR UPDATE
func (r *bookRepository) LockByID(ctx context.Context, id uint) (*book.Book, error) {
	var model BookModel
	err := dbFrom(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrBookNotFound
		}
		return nil, apperrors.Wrap(err, "锁定图书失败")
	}
	return toBookEntity(&model), nil
}

// ReserveCopy UPDATE books SET available_copy = available_copy - 1 WHERE id = ? AND available_copy > 0
// 没有命中行时再查一次，区分图书不存在与副本不足
func (r *bookRepository) ReserveCopy(ctx context.Context, id uint) error {
	db := dbFrom(ctx, r.db)
	result := db.Model(&BookModel{}).
		Where("id = ?", id).
		Where("available_copy > ?", 0).
		Update("available_copy", gorm.Expr("available_copy - ?", 1))
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "扣减可借副本失败")
	}
	if result.RowsAffected == 0 {
		return r.missReason(db, id, book.ErrOutOfStock)
	}
	return nil
}

// ReleaseCopy UPDATE books SET available_copy = available_copy + 1 WHERE id = ?
// 已软删除的图书同样可以归还
func (r *bookRepository) ReleaseCopy(ctx context.Context, id uint) error {
	result := dbFrom(ctx, r.db).Unscoped().Model(&BookModel{}).
		Where("id = ?", id).
		Update("available_copy", gorm.Expr("available_copy + ?", 1))
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "归还副本失败")
	}
	if result.RowsAffected == 0 {
		return book.ErrBookNotFound
	}
	return nil
}

// CountByCategory 分类下未删除的图书数
func (r *bookRepository) CountByCategory(ctx context.Context, categoryID uint) (int64, error) {
	var count int64
	db := dbFrom(ctx, r.db)
	err := db.Model(&BookModel{}).
		Where("id IN (?)", db.Model(&BookCategoryModel{}).Select("book_id").Where("category_id = ?", categoryID)).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(err, "统计分类图书失败")
	}
	return count, nil
}

func (r *bookRepository) missReason(db *gorm.DB, id uint, otherwise error) error {
	var count int64
	if err := db.Model(&BookModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return apperrors.Wrap(err, "查询图书失败")
	}
	if count == 0 {
		return book.ErrBookNotFound
	}
	return otherwise
}

// attachCategories 一次查询加载多本书的分类，避免N+1
func (r *bookRepository) attachCategories(db *gorm.DB, books []*book.Book) error {
	if len(books) == 0 {
		return nil
	}
	ids := make([]uint, len(books))
	byID := make(map[uint]*book.Book, len(books))
	for i, b := range books {
		ids[i] = b.ID
		byID[b.ID] = b
	}

	var rows []struct {
		BookID uint
		ID     uint
		Name   string
	}
	err := db.Table("book_categories").
		Select("book_categories.book_id, categories.id, categories.name").
		Joins("JOIN categories ON categories.id = book_categories.category_id").
		Where("book_categories.book_id IN ?", ids).
		Order("categories.name ASC").
		Scan(&rows).Error
	if err != nil {
		return apperrors.Wrap(err, "查询图书分类失败")
	}

	for _, row := range rows {
		b := byID[row.BookID]
		b.CategoryIDs = append(b.CategoryIDs, row.ID)
		b.Categories = append(b.Categories, book.CategoryRef{ID: row.ID, Name: row.Name})
	}
	return nil
}

func replaceBookCategories(tx *gorm.DB, bookID uint, categoryIDs []uint) error {
	if err := tx.Where("book_id = ?", bookID).Delete(&BookCategoryModel{}).Error; err != nil {
		return err
	}
	seen := make(map[uint]struct{}, len(categoryIDs))
	links := make([]BookCategoryModel, 0, len(categoryIDs))
	for _, cid := range categoryIDs {
		if _, ok := seen[cid]; ok {
			continue
		}
		seen[cid] = struct{}{}
		links = append(links, BookCategoryModel{BookID: bookID, CategoryID: cid})
	}
	if len(links) == 0 {
		return nil
	}
	return tx.Create(&links).Error
}

// bookOrder 排序字段白名单，"-"前缀表示降序
func bookOrder(orderBy string) string {
	desc := strings.HasPrefix(orderBy, "-")
	field := strings.TrimPrefix(orderBy, "-")

	switch field {
	case book.OrderByName, book.OrderByPrice, book.OrderByDate, book.OrderByAvailableCopy:
	default:
		return "id DESC"
	}
	if desc {
		return field + " DESC, id DESC"
	}
	return field + " ASC, id ASC"
}

// toBookModel 领域实体 → GORM模型
func toBookModel(b *book.Book) *BookModel {
	return &BookModel{
		ID:            b.ID,
		Name:          b.Name,
		ISBN:          b.ISBN,
		Price:         b.Price,
		Sell:          b.Sell,
		Date:          b.Date,
		AvailableCopy: b.AvailableCopy,
		CoverImage:    b.CoverImage,
		Description:   b.Description,
	}
}

// toBookEntity GORM模型 → 领域实体
func toBookEntity(model *BookModel) *book.Book {
	return &book.Book{
		ID:            model.ID,
		Name:          model.Name,
		ISBN:          model.ISBN,
		Price:         model.Price,
		Sell:          model.Sell,
		Date:          model.Date,
		AvailableCopy: model.AvailableCopy,
		CoverImage:    model.CoverImage,
		Description:   model.Description,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}
