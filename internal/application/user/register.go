package user

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/application"
	"github.com/xiebiao/library/internal/domain/profile"
	"github.com/xiebiao/library/internal/domain/user"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// ErrPasswordMismatch 两次输入的密码不一致
var ErrPasswordMismatch = apperrors.New(apperrors.ErrCodeInvalidParams, "两次输入的密码不一致")

// RegisterUseCase 用户注册
// 用户与默认借阅档案在同一事务中创建
type RegisterUseCase struct {
	tx          application.Transactor
	userService user.Service
	policy      *profile.Policy
}

// NewRegisterUseCase 创建注册用例
func NewRegisterUseCase(tx application.Transactor, userService user.Service, policy *profile.Policy) *RegisterUseCase {
	return &RegisterUseCase{
		tx:          tx,
		userService: userService,
		policy:      policy,
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username  string
	Email     string
	Password  string
	Password2 string
}

// RegisterResponse 注册响应，不含密码
type RegisterResponse struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	BorrowLimit int       `json:"borrow_limit"`
	CreatedAt   time.Time `json:"created_at"`
}

// Execute 执行注册
func (uc *RegisterUseCase) Execute(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	if req.Password != req.Password2 {
		return nil, ErrPasswordMismatch
	}

	var u *user.User
	err := uc.tx.Transaction(ctx, func(ctx context.Context) error {
		var err error
		if u, err = uc.userService.Register(ctx, req.Username, req.Email, req.Password); err != nil {
			return err
		}
		return uc.policy.Provision(ctx, u.ID)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("用户注册成功", zap.Uint("user_id", u.ID), zap.String("username", u.Username))

	return &RegisterResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		BorrowLimit: uc.policy.DefaultLimit(),
		CreatedAt:   u.CreatedAt,
	}, nil
}
