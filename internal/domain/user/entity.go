package user

import (
	"time"
)

// User 用户实体（聚合根）
// 设计说明：
// 1. 密码只保存bcrypt哈希值
// 2. IsAdmin是管理员能力标记，借阅流程据此判断能否代他人归还
// 3. 领域实体不依赖GORM tag（由Repository负责映射）
type User struct {
	ID        uint
	Username  string
	Email     string
	Password  string // bcrypt哈希值
	IsActive  bool
	IsAdmin   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser 创建新用户（工厂方法）
// hashedPassword必须是bcrypt加密后的密码
func NewUser(username, email, hashedPassword string) *User {
	now := time.Now()
	return &User{
		Username:  username,
		Email:     email,
		Password:  hashedPassword,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Promote 授予管理员权限
func (u *User) Promote() {
	u.IsAdmin = true
	u.UpdatedAt = time.Now()
}
