package borrow

import (
	"context"
	"time"
)

// Repository 借阅记录仓储
// 写操作必须在事务内调用（通过ctx传递事务DB）
type Repository interface {
	// Create 创建借阅记录
	// 同一读者同一本书已有未还记录时返回ErrInvalidState
	Create(ctx context.Context, b *Borrow) error

	// FindByID 查询记录（含图书、读者摘要），不存在返回ErrBorrowNotFound
	FindByID(ctx context.Context, id uint) (*Borrow, error)

	// LockByID 加行锁查询（SELECT ... FOR UPDATE）
	LockByID(ctx context.Context, id uint) (*Borrow, error)

	// FindOpen 查询读者对某本书的未还记录，没有时返回（nil, nil）
	FindOpen(ctx context.Context, userID, bookID uint) (*Borrow, error)

	// CountOpenByUser 读者当前未还数量
	CountOpenByUser(ctx context.Context, userID uint) (int64, error)

	// CountOpenByBook 某本书当前未还数量
	CountOpenByBook(ctx context.Context, bookID uint) (int64, error)

	// MarkReturned 条件更新 is_return=false → true
	// 记录已归还时返回ErrAlreadyReturned
	MarkReturned(ctx context.Context, id uint, returnedAt time.Time) error

	// List 分页查询，按借出时间倒序
	List(ctx context.Context, params ListParams) ([]*Borrow, int64, error)

	// ListOpenByUser 读者的全部未还记录，不分页
	ListOpenByUser(ctx context.Context, userID uint) ([]*Borrow, error)
}

// ListParams 借阅列表查询参数
type ListParams struct {
	UserID   uint  // 0表示全部读者（仅管理员）
	IsReturn *bool // 按归还状态过滤
	Page     int
	PageSize int
}
