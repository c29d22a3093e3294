package user

import (
	"context"
	"time"
)

// Session 登录会话
type Session struct {
	UserID    uint
	Username  string
	IsAdmin   bool
	LoginAt   time.Time
	LoginFrom string // 客户端IP
}

// SessionStore 会话与Token黑名单存储
type SessionStore interface {
	SaveSession(ctx context.Context, sess *Session, ttl time.Duration) error
	GetSession(ctx context.Context, userID uint) (*Session, error)
	DeleteSession(ctx context.Context, userID uint) error
	AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error
	IsInBlacklist(ctx context.Context, token string) (bool, error)
}
