package user

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/application"
	"github.com/xiebiao/library/internal/domain/profile"
	"github.com/xiebiao/library/internal/domain/user"
)

// AdminUseCase 运维操作：授予管理员、调整借阅上限
type AdminUseCase struct {
	tx          application.Transactor
	userRepo    user.Repository
	profileRepo profile.Repository
	policy      *profile.Policy
}

// NewAdminUseCase 创建运维用例
func NewAdminUseCase(tx application.Transactor, userRepo user.Repository, profileRepo profile.Repository, policy *profile.Policy) *AdminUseCase {
	return &AdminUseCase{tx: tx, userRepo: userRepo, profileRepo: profileRepo, policy: policy}
}

// Promote 授予管理员权限，已是管理员时直接返回
func (uc *AdminUseCase) Promote(ctx context.Context, username string) (*UserInfo, error) {
	u, err := uc.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin {
		u.Promote()
		if err := uc.userRepo.Update(ctx, u); err != nil {
			return nil, err
		}
		zap.L().Info("已授予管理员权限", zap.Uint("user_id", u.ID), zap.String("username", u.Username))
	}
	info := toUserInfo(u)
	return &info, nil
}

// SetBorrowLimit 调整借阅上限
// 锁定档案后修改，与并发借书互斥；调低上限不影响已借出的记录
func (uc *AdminUseCase) SetBorrowLimit(ctx context.Context, username string, limit int) (*profile.Profile, error) {
	u, err := uc.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	var p *profile.Profile
	err = uc.tx.Transaction(ctx, func(ctx context.Context) error {
		locked, err := uc.policy.Ensure(ctx, u.ID)
		if err != nil {
			return err
		}
		if err := locked.SetBorrowLimit(limit); err != nil {
			return err
		}
		p = locked
		return uc.profileRepo.Update(ctx, locked)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("借阅上限已调整", zap.Uint("user_id", u.ID), zap.Int("borrow_limit", limit))
	return p, nil
}
