package profile

import (
	"context"
	"time"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

// DefaultBorrowLimit 新档案默认借阅上限
const DefaultBorrowLimit = 2

// Profile 读者借阅档案，与用户一对一
// 1. BorrowLimit>=0，为0时不能借任何书
// 2. Warning>=0，只在逾期归还时加1，从不减少，不影响借阅资格
type Profile struct {
	ID          uint
	UserID      uint
	BorrowLimit int
	Warning     int
	Address     string
	Phone       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// New 按默认值创建档案
func New(userID uint, borrowLimit int) *Profile {
	now := time.Now()
	return &Profile{
		UserID:      userID,
		BorrowLimit: borrowLimit,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// CanBorrow 当前未还数量严格小于上限时才允许再借
func (p *Profile) CanBorrow(openCount int64) bool {
	return openCount < int64(p.BorrowLimit)
}

// Remaining 剩余可借数量
func (p *Profile) Remaining(openCount int64) int {
	r := p.BorrowLimit - int(openCount)
	if r < 0 {
		return 0
	}
	return r
}

// UpdateContact 更新联系方式（读者可自行修改的字段）
func (p *Profile) UpdateContact(address, phone string) {
	p.Address = address
	p.Phone = phone
	p.UpdatedAt = time.Now()
}

// SetBorrowLimit 调整借阅上限（管理操作）
func (p *Profile) SetBorrowLimit(limit int) error {
	if limit < 0 {
		return ErrInvalidLimit
	}
	p.BorrowLimit = limit
	p.UpdatedAt = time.Now()
	return nil
}

var (
	ErrProfileNotFound = apperrors.New(apperrors.ErrCodeNotFound, "借阅档案不存在")
	ErrLimitExceeded   = apperrors.New(apperrors.ErrCodeLimitExceeded, "已达到借阅上限,请先归还图书")
	ErrInvalidLimit    = apperrors.New(apperrors.ErrCodeInvalidParams, "借阅上限不能为负数")
)

// Repository 借阅档案仓储
type Repository interface {
	// CreateIfAbsent 插入默认档案，已存在时什么也不做（INSERT ... ON CONFLICT DO NOTHING）
	CreateIfAbsent(ctx context.Context, p *Profile) error

	// LockByUserID 加行锁读取（SELECT ... FOR UPDATE）
	LockByUserID(ctx context.Context, userID uint) (*Profile, error)

	FindByUserID(ctx context.Context, userID uint) (*Profile, error)

	// Update 保存联系方式与借阅上限
	Update(ctx context.Context, p *Profile) error

	// IncrWarning 原子地将warning加1
	IncrWarning(ctx context.Context, userID uint) error

	// SumWarnings 所有读者警告总数（统计用）
	SumWarnings(ctx context.Context) (int64, error)
}
