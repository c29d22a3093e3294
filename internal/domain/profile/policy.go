package profile

import (
	"context"
)

// Policy 借阅上限与逾期警告策略
// 档案的创建、上限判断和警告记录都经由这里
type Policy struct {
	repo         Repository
	defaultLimit int
}

// NewPolicy 创建策略，defaultLimit用于首次访问时自动创建的档案
func NewPolicy(repo Repository, defaultLimit int) *Policy {
	if defaultLimit < 0 {
		defaultLimit = DefaultBorrowLimit
	}
	return &Policy{repo: repo, defaultLimit: defaultLimit}
}

// DefaultLimit 默认借阅上限
func (p *Policy) DefaultLimit() int {
	return p.defaultLimit
}

// Provision 注册时创建默认档案，已存在时不做任何修改
func (p *Policy) Provision(ctx context.Context, userID uint) error {
	return p.repo.CreateIfAbsent(ctx, New(userID, p.defaultLimit))
}

// Ensure 显式的"不存在则按默认值创建"
// 返回的档案已加行锁，同一读者的借阅请求在此串行
func (p *Policy) Ensure(ctx context.Context, userID uint) (*Profile, error) {
	if err := p.repo.CreateIfAbsent(ctx, New(userID, p.defaultLimit)); err != nil {
		return nil, err
	}
	return p.repo.LockByUserID(ctx, userID)
}

// Get 读取档案，不存在时按默认值创建，不加锁
func (p *Policy) Get(ctx context.Context, userID uint) (*Profile, error) {
	if err := p.repo.CreateIfAbsent(ctx, New(userID, p.defaultLimit)); err != nil {
		return nil, err
	}
	return p.repo.FindByUserID(ctx, userID)
}

// CanBorrow openCount < borrow_limit
func (p *Policy) CanBorrow(pr *Profile, openCount int64) bool {
	return pr.CanBorrow(openCount)
}

// RecordLateReturn 记录一次逾期归还，返回更新后的档案
// 档案缺失时先按默认值创建，再把warning加1
func (p *Policy) RecordLateReturn(ctx context.Context, userID uint) (*Profile, error) {
	if err := p.Provision(ctx, userID); err != nil {
		return nil, err
	}
	if err := p.repo.IncrWarning(ctx, userID); err != nil {
		return nil, err
	}
	return p.repo.FindByUserID(ctx, userID)
}
