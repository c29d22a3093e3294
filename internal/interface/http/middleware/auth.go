package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/domain/user"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/jwt"
	"github.com/xiebiao/library/pkg/response"
)

// Context键
const (
	ctxUserID   = "user_id"
	ctxUsername = "username"
	ctxIsAdmin  = "is_admin"
	ctxToken    = "access_token"
)

// Blacklist 已登出Token的查询
type Blacklist interface {
	IsInBlacklist(ctx context.Context, token string) (bool, error)
}

// AccountReader 读取账号的当前状态
type AccountReader interface {
	FindByID(ctx context.Context, id uint) (*user.User, error)
}

// AuthMiddleware JWT认证中间件
// 设计说明：
// 1. 从Header提取Bearer Token
// 2. 检查黑名单（已登出）
// 3. 校验Access Token
// 4. 管理员标记以数据库为准，Token里的is_admin只是签发时的快照
type AuthMiddleware struct {
	jwtManager *jwt.Manager
	blacklist  Blacklist
	accounts   AccountReader
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(jwtManager *jwt.Manager, blacklist Blacklist, accounts AccountReader) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		blacklist:  blacklist,
		accounts:   accounts,
	}
}

// RequireAuth 要求登录
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Authorization: Bearer <token>
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.ErrorWithCode(c, apperrors.ErrCodeInvalidToken, "Token格式错误")
			c.Abort()
			return
		}
		tokenString := parts[1]

		blocked, err := m.blacklist.IsInBlacklist(c.Request.Context(), tokenString)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if blocked {
			response.ErrorWithCode(c, apperrors.ErrCodeTokenExpired, "Token已失效,请重新登录")
			c.Abort()
			return
		}

		claims, err := m.jwtManager.ParseAccessToken(tokenString)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		// 提升或撤销管理员后无需重新登录
		account, err := m.accounts.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, apperrors.ErrUserNotFound) {
				err = apperrors.ErrUnauthorized
			}
			response.Error(c, err)
			c.Abort()
			return
		}
		if !account.IsActive {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(ctxUserID, account.ID)
		c.Set(ctxUsername, account.Username)
		c.Set(ctxIsAdmin, account.IsAdmin)
		c.Set(ctxToken, tokenString)
		c.Next()
	}
}

// RequireAdmin 要求管理员，必须放在RequireAuth之后
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			response.Error(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID 当前登录用户ID，未登录返回0
func GetUserID(c *gin.Context) uint {
	if v, ok := c.Get(ctxUserID); ok {
		if uid, ok := v.(uint); ok {
			return uid
		}
	}
	return 0
}

// MustGetUserID 用于已经过RequireAuth的Handler
func MustGetUserID(c *gin.Context) uint {
	userID := GetUserID(c)
	if userID == 0 {
		panic("user_id not found in context")
	}
	return userID
}

// IsAdmin 当前用户是否为管理员
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(ctxIsAdmin)
}

// AccessToken 当前请求携带的Access Token
func AccessToken(c *gin.Context) string {
	return c.GetString(ctxToken)
}

// Actor 当前请求的借阅操作身份
func Actor(c *gin.Context) borrow.Actor {
	return borrow.Actor{UserID: MustGetUserID(c), IsAdmin: IsAdmin(c)}
}
