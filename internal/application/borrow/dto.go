package borrow

import (
	"time"

	"github.com/xiebiao/library/internal/domain/borrow"
)

// BorrowDTO 借阅记录响应
type BorrowDTO struct {
	ID         uint       `json:"id"`
	UserID     uint       `json:"user_id"`
	BookID     uint       `json:"book_id"`
	Book       *BookRef   `json:"book,omitempty"`
	User       *UserRef   `json:"user,omitempty"`
	BorrowDate time.Time  `json:"borrow_date"`
	ReturnDate time.Time  `json:"return_date"`
	IsReturn   bool       `json:"is_return"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	Status     string     `json:"status"`
	Overdue    bool       `json:"overdue"`
}

// BookRef 图书摘要
type BookRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	ISBN string `json:"isbn"`
}

// UserRef 读者摘要
type UserRef struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ToDTO 领域实体 → 响应DTO,overdue按now计算
func ToDTO(b *borrow.Borrow, now time.Time) BorrowDTO {
	dto := BorrowDTO{
		ID:         b.ID,
		UserID:     b.UserID,
		BookID:     b.BookID,
		BorrowDate: b.BorrowDate,
		ReturnDate: b.ReturnDate,
		IsReturn:   b.IsReturn,
		ReturnedAt: b.ReturnedAt,
		Status:     b.Status().String(),
		Overdue:    b.IsOverdueAt(now),
	}
	if b.Book != nil {
		dto.Book = &BookRef{ID: b.Book.ID, Name: b.Book.Name, ISBN: b.Book.ISBN}
	}
	if b.User != nil {
		dto.User = &UserRef{ID: b.User.ID, Username: b.User.Username, Email: b.User.Email}
	}
	return dto
}
