package borrow

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/borrow"
)

// QueryUseCase 借阅记录查询
// 管理员可以查看全部记录，普通读者只能查看自己的
type QueryUseCase struct {
	borrowRepo borrow.Repository
	now        func() time.Time
}

// NewQueryUseCase 创建查询用例
func NewQueryUseCase(borrowRepo borrow.Repository) *QueryUseCase {
	return &QueryUseCase{borrowRepo: borrowRepo, now: time.Now}
}

// ListRequest 借阅列表请求
type ListRequest struct {
	Actor    borrow.Actor
	UserID   uint  // 仅管理员有效，0表示全部读者
	IsReturn *bool // nil表示全部
	Page     int
	PageSize int
}

// ListResponse 借阅列表响应
type ListResponse struct {
	List     []BorrowDTO `json:"list"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// List 分页查询借阅记录
func (uc *QueryUseCase) List(ctx context.Context, req ListRequest) (*ListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 10
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	userID := req.Actor.UserID
	if req.Actor.IsAdmin {
		userID = req.UserID
	}

	records, total, err := uc.borrowRepo.List(ctx, borrow.ListParams{
		UserID:   userID,
		IsReturn: req.IsReturn,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return nil, err
	}

	now := uc.now()
	list := make([]BorrowDTO, len(records))
	for i, r := range records {
		list[i] = ToDTO(r, now)
	}
	return &ListResponse{
		List:     list,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}, nil
}

// Get 借阅详情，非本人且非管理员返回ErrForbidden
func (uc *QueryUseCase) Get(ctx context.Context, actor borrow.Actor, id uint) (*BorrowDTO, error) {
	r, err := uc.borrowRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(r) {
		return nil, borrow.ErrForbidden
	}
	dto := ToDTO(r, uc.now())
	return &dto, nil
}

// MyActive 当前读者的全部未还记录
func (uc *QueryUseCase) MyActive(ctx context.Context, userID uint) ([]BorrowDTO, error) {
	records, err := uc.borrowRepo.ListOpenByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	list := make([]BorrowDTO, len(records))
	for i, r := range records {
		list[i] = ToDTO(r, now)
	}
	return list, nil
}
