package category

import (
	"context"
	"time"

	"go.uber.org/zap"

	appbook "github.com/xiebiao/library/internal/application/book"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/category"
)

// CategoryDTO 分类响应
type CategoryDTO struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toDTO(c *category.Category) CategoryDTO {
	return CategoryDTO{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

// CategoryUseCase 分类管理与查询
type CategoryUseCase struct {
	categoryRepo category.Repository
	bookRepo     book.Repository
	books        *appbook.ListBooksUseCase
}

// NewCategoryUseCase 创建分类用例
func NewCategoryUseCase(categoryRepo category.Repository, bookRepo book.Repository, books *appbook.ListBooksUseCase) *CategoryUseCase {
	return &CategoryUseCase{categoryRepo: categoryRepo, bookRepo: bookRepo, books: books}
}

// List 全部分类，按名称排序
func (uc *CategoryUseCase) List(ctx context.Context) ([]CategoryDTO, error) {
	list, err := uc.categoryRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]CategoryDTO, len(list))
	for i, c := range list {
		dtos[i] = toDTO(c)
	}
	return dtos, nil
}

// Get 分类详情
func (uc *CategoryUseCase) Get(ctx context.Context, id uint) (*CategoryDTO, error) {
	c, err := uc.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toDTO(c)
	return &dto, nil
}

// Create 新增分类
func (uc *CategoryUseCase) Create(ctx context.Context, name string) (*CategoryDTO, error) {
	c, err := category.NewCategory(name)
	if err != nil {
		return nil, err
	}
	if err := uc.categoryRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	zap.L().Info("新增分类", zap.Uint("category_id", c.ID), zap.String("name", c.Name))
	dto := toDTO(c)
	return &dto, nil
}

// Rename 修改分类名称
func (uc *CategoryUseCase) Rename(ctx context.Context, id uint, name string) (*CategoryDTO, error) {
	c, err := uc.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.Rename(name); err != nil {
		return nil, err
	}
	if err := uc.categoryRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	dto := toDTO(c)
	return &dto, nil
}

// Delete 删除分类，仍有图书引用时拒绝
func (uc *CategoryUseCase) Delete(ctx context.Context, id uint) error {
	if _, err := uc.categoryRepo.FindByID(ctx, id); err != nil {
		return err
	}
	count, err := uc.bookRepo.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return category.ErrCategoryInUse
	}
	if err := uc.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}
	zap.L().Info("删除分类", zap.Uint("category_id", id))
	return nil
}

// Books 分类下的图书（分页）
func (uc *CategoryUseCase) Books(ctx context.Context, id uint, req appbook.ListBooksRequest) (*appbook.ListBooksResponse, error) {
	if _, err := uc.categoryRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	req.CategoryID = id
	return uc.books.Execute(ctx, req)
}
