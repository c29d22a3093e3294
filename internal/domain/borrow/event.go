package borrow

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// 事件类型，同时作为消息路由键
const (
	EventBorrowed = "borrow.created"
	EventReturned = "borrow.returned"
)

// Event 借阅领域事件，事务提交后发布
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	BorrowID   uint      `json:"borrow_id"`
	UserID     uint      `json:"user_id"`
	BookID     uint      `json:"book_id"`
	DueDate    time.Time `json:"due_date"`
	Late       bool      `json:"late,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewBorrowedEvent 借出事件
func NewBorrowedEvent(b *Borrow) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       EventBorrowed,
		BorrowID:   b.ID,
		UserID:     b.UserID,
		BookID:     b.BookID,
		DueDate:    b.ReturnDate,
		OccurredAt: b.BorrowDate,
	}
}

// NewReturnedEvent 归还事件
func NewReturnedEvent(b *Borrow, late bool, now time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       EventReturned,
		BorrowID:   b.ID,
		UserID:     b.UserID,
		BookID:     b.BookID,
		DueDate:    b.ReturnDate,
		Late:       late,
		OccurredAt: now,
	}
}

// EventPublisher 事件发布
// 发布失败不影响已提交的借还结果
type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}
