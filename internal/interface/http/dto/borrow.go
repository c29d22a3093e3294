package dto

import "time"

// BorrowRequest 借书请求，return_date为应还日期
type BorrowRequest struct {
	BookID     uint      `json:"book_id" binding:"required,min=1" example:"1"`
	ReturnDate time.Time `json:"return_date" binding:"required" example:"2026-02-01T00:00:00Z"`
}

// ListBorrowsQuery 借阅列表查询参数
// user_id只对管理员生效
type ListBorrowsQuery struct {
	Page     int   `form:"page" binding:"omitempty,min=1"`
	Limit    int   `form:"limit" binding:"omitempty,min=1,max=100"`
	UserID   uint  `form:"user_id"`
	IsReturn *bool `form:"is_return"`
}
