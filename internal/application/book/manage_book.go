package book

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/application"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/domain/category"
)

// ManageBookUseCase 图书的新增、修改、删除（管理员）
type ManageBookUseCase struct {
	tx           application.Transactor
	bookRepo     book.Repository
	categoryRepo category.Repository
	borrowRepo   borrow.Repository
}

// NewManageBookUseCase 创建图书管理用例
func NewManageBookUseCase(tx application.Transactor, bookRepo book.Repository, categoryRepo category.Repository, borrowRepo borrow.Repository) *ManageBookUseCase {
	return &ManageBookUseCase{
		tx:           tx,
		bookRepo:     bookRepo,
		categoryRepo: categoryRepo,
		borrowRepo:   borrowRepo,
	}
}

// BookRequest 新增/修改图书
// AvailableCopy为nil时：新增取默认值1，修改保持不变
type BookRequest struct {
	Name          string
	ISBN          string
	Price         int64
	Sell          bool
	Date          time.Time
	AvailableCopy *int
	CoverImage    string
	Description   string
	CategoryIDs   []uint
}

// Create 新增图书
func (uc *ManageBookUseCase) Create(ctx context.Context, req BookRequest) (*BookDTO, error) {
	copies := book.DefaultAvailableCopy
	if req.AvailableCopy != nil {
		copies = *req.AvailableCopy
	}

	b, err := book.NewBook(req.Name, req.ISBN, req.Price, req.Sell, req.Date, copies, req.CoverImage, req.Description, req.CategoryIDs)
	if err != nil {
		return nil, err
	}
	if err := uc.checkCategories(ctx, req.CategoryIDs); err != nil {
		return nil, err
	}
	if err := uc.bookRepo.Create(ctx, b); err != nil {
		return nil, err
	}

	zap.L().Info("新增图书", zap.Uint("book_id", b.ID), zap.String("isbn", b.ISBN))
	return uc.reload(ctx, b.ID)
}

// Update 修改图书
// 在图书行锁内读取并写回，不会覆盖并发借还对available_copy的修改
func (uc *ManageBookUseCase) Update(ctx context.Context, id uint, req BookRequest) (*BookDTO, error) {
	if err := uc.checkCategories(ctx, req.CategoryIDs); err != nil {
		return nil, err
	}

	err := uc.tx.Transaction(ctx, func(ctx context.Context) error {
		current, err := uc.bookRepo.LockByID(ctx, id)
		if err != nil {
			return err
		}

		copies := current.AvailableCopy
		if req.AvailableCopy != nil {
			copies = *req.AvailableCopy
		}
		updated, err := book.NewBook(req.Name, req.ISBN, req.Price, req.Sell, req.Date, copies, req.CoverImage, req.Description, req.CategoryIDs)
		if err != nil {
			return err
		}
		updated.ID = id
		return uc.bookRepo.Update(ctx, updated)
	})
	if err != nil {
		return nil, err
	}
	return uc.reload(ctx, id)
}

// Delete 删除图书，仍有未归还借阅时拒绝
func (uc *ManageBookUseCase) Delete(ctx context.Context, id uint) error {
	err := uc.tx.Transaction(ctx, func(ctx context.Context) error {
		if _, err := uc.bookRepo.LockByID(ctx, id); err != nil {
			return err
		}
		open, err := uc.borrowRepo.CountOpenByBook(ctx, id)
		if err != nil {
			return err
		}
		if open > 0 {
			return book.ErrBookInUse
		}
		return uc.bookRepo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	zap.L().Info("删除图书", zap.Uint("book_id", id))
	return nil
}

func (uc *ManageBookUseCase) checkCategories(ctx context.Context, ids []uint) error {
	ok, err := uc.categoryRepo.ExistAll(ctx, ids)
	if err != nil {
		return err
	}
	if !ok {
		return category.ErrCategoryNotFound
	}
	return nil
}

func (uc *ManageBookUseCase) reload(ctx context.Context, id uint) (*BookDTO, error) {
	b, err := uc.bookRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToDTO(b, true)
	return &dto, nil
}
