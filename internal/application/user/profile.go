package user

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/domain/profile"
	"github.com/xiebiao/library/internal/domain/user"
)

// ProfileResponse 读者档案
type ProfileResponse struct {
	User                 UserInfo  `json:"user"`
	BorrowLimit          int       `json:"borrow_limit"`
	Warning              int       `json:"warning"`
	Address              string    `json:"address"`
	Phone                string    `json:"phone"`
	ActiveBorrows        int64     `json:"active_borrows"`
	RemainingBorrowLimit int       `json:"remaining_borrow_limit"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// ProfileUseCase 查看与修改个人档案
// 借阅上限与警告次数只能由管理操作修改，读者只能改联系方式
type ProfileUseCase struct {
	userRepo    user.Repository
	profileRepo profile.Repository
	borrowRepo  borrow.Repository
	policy      *profile.Policy
}

// NewProfileUseCase 创建档案用例
func NewProfileUseCase(userRepo user.Repository, profileRepo profile.Repository, borrowRepo borrow.Repository, policy *profile.Policy) *ProfileUseCase {
	return &ProfileUseCase{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		borrowRepo:  borrowRepo,
		policy:      policy,
	}
}

// Me 当前登录用户
func (uc *ProfileUseCase) Me(ctx context.Context, userID uint) (*UserInfo, error) {
	u, err := uc.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := toUserInfo(u)
	return &info, nil
}

// Get 读取档案，首次访问时按默认值创建
func (uc *ProfileUseCase) Get(ctx context.Context, userID uint) (*ProfileResponse, error) {
	u, err := uc.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, err := uc.policy.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return uc.toResponse(ctx, u, p)
}

// UpdateProfileRequest 修改联系方式
type UpdateProfileRequest struct {
	UserID  uint
	Address string
	Phone   string
}

// Update 修改联系方式
func (uc *ProfileUseCase) Update(ctx context.Context, req UpdateProfileRequest) (*ProfileResponse, error) {
	u, err := uc.userRepo.FindByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	p, err := uc.policy.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	p.UpdateContact(req.Address, req.Phone)
	if err := uc.profileRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	return uc.toResponse(ctx, u, p)
}

func (uc *ProfileUseCase) toResponse(ctx context.Context, u *user.User, p *profile.Profile) (*ProfileResponse, error) {
	open, err := uc.borrowRepo.CountOpenByUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &ProfileResponse{
		User:                 toUserInfo(u),
		BorrowLimit:          p.BorrowLimit,
		Warning:              p.Warning,
		Address:              p.Address,
		Phone:                p.Phone,
		ActiveBorrows:        open,
		RemainingBorrowLimit: p.Remaining(open),
		UpdatedAt:            p.UpdatedAt,
	}, nil
}
