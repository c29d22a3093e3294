package user

import (
	"context"
)

// Repository 用户仓储接口
// DDD设计说明：
// 1. 接口定义在domain层
// 2. 具体实现在infrastructure/persistence/mysql层
// 3. 用例测试可以用内存实现替换
type Repository interface {
	// Create 创建用户
	// 用户名或邮箱重复时返回ErrUsernameDuplicate/ErrEmailDuplicate
	Create(ctx context.Context, user *User) error

	// FindByID 不存在时返回errors.ErrUserNotFound
	FindByID(ctx context.Context, id uint) (*User, error)

	FindByUsername(ctx context.Context, username string) (*User, error)

	FindByEmail(ctx context.Context, email string) (*User, error)

	// Update 更新用户信息（含管理员标记）
	Update(ctx context.Context, user *User) error

	// Count 用户总数（统计用）
	Count(ctx context.Context) (int64, error)
}
