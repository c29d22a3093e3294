package category

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

// Category 图书分类
type Category struct {
	ID        uint
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCategory 创建分类，名称去除首尾空白后不能为空
func NewCategory(name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return nil, ErrInvalidName
	}
	now := time.Now()
	return &Category{Name: name, CreatedAt: now, UpdatedAt: now}, nil
}

// Rename 修改名称
func (c *Category) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return ErrInvalidName
	}
	c.Name = name
	c.UpdatedAt = time.Now()
	return nil
}

var (
	ErrCategoryNotFound  = apperrors.New(apperrors.ErrCodeCategoryNotFound, "分类不存在")
	ErrCategoryInUse     = apperrors.New(apperrors.ErrCodeCategoryInUse, "该分类下仍有图书,无法删除")
	ErrCategoryDuplicate = apperrors.New(apperrors.ErrCodeDuplicateEntry, "分类名称已存在")
	ErrInvalidName       = apperrors.New(apperrors.ErrCodeInvalidParams, "分类名称长度应为1-100个字符")
)

// Repository 分类仓储接口
type Repository interface {
	Create(ctx context.Context, c *Category) error
	FindByID(ctx context.Context, id uint) (*Category, error)
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id uint) error
	// List 按名称升序返回全部分类
	List(ctx context.Context) ([]*Category, error)
	// ExistAll 校验一组分类ID是否全部存在
	ExistAll(ctx context.Context, ids []uint) (bool, error)
}
