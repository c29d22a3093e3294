package borrow

import (
	"time"
)

// Status 借阅状态
// OPEN → RETURNED,RETURNED是终态
type Status int

const (
	StatusOpen     Status = 1 // 借阅中
	StatusReturned Status = 2 // 已归还
)

// String 实现Stringer接口
func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "借阅中"
	case StatusReturned:
		return "已归还"
	default:
		return "未知状态"
	}
}

// Borrow 借阅记录（聚合根）
// 1. UserID、BookID、BorrowDate、ReturnDate创建后不可变
// 2. IsReturn只能从false变为true一次
// 3. 记录永不删除，历史借阅即审计轨迹
type Borrow struct {
	ID         uint
	UserID     uint
	BookID     uint
	BorrowDate time.Time  // 借出时间
	ReturnDate time.Time  // 应还日期（由读者借书时指定）
	IsReturn   bool       // 是否已归还
	ReturnedAt *time.Time // 实际归还时间

	// 列表/详情展示用的只读投影，可能为nil
	Book *BookRef
	User *UserRef
}

// BookRef 借阅记录关联图书的摘要
type BookRef struct {
	ID   uint
	Name string
	ISBN string
}

// UserRef 借阅记录关联读者的摘要
type UserRef struct {
	ID       uint
	Username string
	Email    string
}

// NewBorrow 创建借阅记录（工厂方法）
func NewBorrow(userID, bookID uint, dueDate, now time.Time) *Borrow {
	return &Borrow{
		UserID:     userID,
		BookID:     bookID,
		BorrowDate: now,
		ReturnDate: dueDate,
		IsReturn:   false,
	}
}

// Status 当前状态
func (b *Borrow) Status() Status {
	if b.IsReturn {
		return StatusReturned
	}
	return StatusOpen
}

// MarkReturned OPEN → RETURNED
func (b *Borrow) MarkReturned(now time.Time) error {
	if b.IsReturn {
		return ErrAlreadyReturned
	}
	b.IsReturn = true
	b.ReturnedAt = &now
	return nil
}

// IsLateAt 在now时刻归还是否逾期
// 严格大于应还日期才算逾期，恰好在应还时刻归还不算
func (b *Borrow) IsLateAt(now time.Time) bool {
	return now.After(b.ReturnDate)
}

// IsOverdueAt 未归还且已过应还日期
func (b *Borrow) IsOverdueAt(now time.Time) bool {
	return !b.IsReturn && b.IsLateAt(now)
}

// IsOwnedBy 是否属于指定读者
func (b *Borrow) IsOwnedBy(userID uint) bool {
	return b.UserID == userID
}
