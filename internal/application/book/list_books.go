package book

import (
	"context"

	"github.com/xiebiao/library/internal/domain/book"
)

// ListBooksUseCase 图书列表与详情查询
type ListBooksUseCase struct {
	bookRepo book.Repository
}

// NewListBooksUseCase 创建查询用例
func NewListBooksUseCase(bookRepo book.Repository) *ListBooksUseCase {
	return &ListBooksUseCase{bookRepo: bookRepo}
}

// ListBooksRequest 列表查询请求
type ListBooksRequest struct {
	Page       int
	PageSize   int
	Search     string
	CategoryID uint
	Sell       *bool
	Available  *bool
	OrderBy    string
}

// ListBooksResponse 列表查询响应
type ListBooksResponse struct {
	List     []BookDTO
	Total    int64
	Page     int
	PageSize int
}

// Execute 分页查询
// page默认1,pageSize默认10，最大100
func (uc *ListBooksUseCase) Execute(ctx context.Context, req ListBooksRequest) (*ListBooksResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 10
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	books, total, err := uc.bookRepo.List(ctx, book.ListParams{
		Page:       req.Page,
		PageSize:   req.PageSize,
		Search:     req.Search,
		CategoryID: req.CategoryID,
		Sell:       req.Sell,
		Available:  req.Available,
		OrderBy:    req.OrderBy,
	})
	if err != nil {
		return nil, err
	}

	list := make([]BookDTO, len(books))
	for i, b := range books {
		list[i] = ToDTO(b, false)
	}
	return &ListBooksResponse{List: list, Total: total, Page: req.Page, PageSize: req.PageSize}, nil
}

// Get 图书详情
func (uc *ListBooksUseCase) Get(ctx context.Context, id uint) (*BookDTO, error) {
	b, err := uc.bookRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToDTO(b, true)
	return &dto, nil
}
