package book

import (
	"context"
)

// Inventory 库存台账
// 唯一允许修改available_copy的入口，所有方法必须在事务内通过ctx调用
type Inventory interface {
	// ReserveCopy 借出一本：available_copy减1
	// 条件更新保证不会减到负数，没有副本时返回ErrOutOfStock
	ReserveCopy(ctx context.Context, id uint) error

	// ReleaseCopy 归还一本：available_copy加1，不检查上限
	ReleaseCopy(ctx context.Context, id uint) error
}

// Repository 图书仓储接口
// 由domain层定义，infrastructure层实现
type Repository interface {
	Inventory

	Create(ctx context.Context, book *Book) error

	// FindByID 不存在时返回ErrBookNotFound
	FindByID(ctx context.Context, id uint) (*Book, error)

	FindByISBN(ctx context.Context, isbn string) (*Book, error)

	// Update 更新基本信息与分类，available_copy同样以实体为准
	Update(ctx context.Context, book *Book) error

	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, params ListParams) ([]*Book, int64, error)

	// LockByID 悲观锁查询（SELECT ... FOR UPDATE）
	LockByID(ctx context.Context, id uint) (*Book, error)

	// CountByCategory 统计分类下的图书数
	CountByCategory(ctx context.Context, categoryID uint) (int64, error)
}

// 排序字段白名单
const (
	OrderByName          = "name"
	OrderByPrice         = "price"
	OrderByDate          = "date"
	OrderByAvailableCopy = "available_copy"
)

// ListParams 列表查询参数
type ListParams struct {
	Page       int    // 页码（从1开始）
	PageSize   int    // 每页数量
	Search     string // 书名关键词
	CategoryID uint   // 分类过滤，0表示不过滤
	Sell       *bool  // 是否在售
	Available  *bool  // 是否有可借副本
	OrderBy    string // name | price | date | available_copy，前缀"-"表示降序
}
