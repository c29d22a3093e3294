package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	appuser "github.com/xiebiao/library/internal/application/user"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// SessionStore 登录会话与Token黑名单
// 设计说明：
// 1. 登录时写入会话，登出时删除会话并拉黑Access Token
// 2. 黑名单条目随Token剩余有效期一起过期，不需要清理任务
// 3. 键：
//   - library:session:{user_id}  Hash，登录信息，过期时间与Refresh Token一致
//   - library:blacklist:{token}  String，登出后的Access Token，过期时间为Token剩余有效期
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore 创建会话存储
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

var _ appuser.SessionStore = (*SessionStore)(nil)

func sessionKey(userID uint) string {
	return fmt.Sprintf("%ssession:%d", keyPrefix, userID)
}

func blacklistKey(token string) string {
	return keyPrefix + "blacklist:" + token
}

// SaveSession 保存会话，HSet与Expire在同一个MULTI中提交
func (s *SessionStore) SaveSession(ctx context.Context, sess *appuser.Session, ttl time.Duration) error {
	key := sessionKey(sess.UserID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]interface{}{
			"user_id":    sess.UserID,
			"username":   sess.Username,
			"is_admin":   sess.IsAdmin,
			"login_at":   sess.LoginAt.Unix(),
			"login_from": sess.LoginFrom,
		})
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return apperrors.Wrap(err, "保存会话失败")
	}
	return nil
}

// GetSession 读取会话，不存在时返回ErrUnauthorized
func (s *SessionStore) GetSession(ctx context.Context, userID uint) (*appuser.Session, error) {
	fields, err := s.client.HGetAll(ctx, sessionKey(userID)).Result()
	if err != nil {
		return nil, apperrors.Wrap(err, "获取会话失败")
	}
	if len(fields) == 0 {
		return nil, apperrors.ErrUnauthorized
	}

	loginAt, _ := strconv.ParseInt(fields["login_at"], 10, 64)
	isAdmin, _ := strconv.ParseBool(fields["is_admin"])
	return &appuser.Session{
		UserID:    userID,
		Username:  fields["username"],
		IsAdmin:   isAdmin,
		LoginAt:   time.Unix(loginAt, 0),
		LoginFrom: fields["login_from"],
	}, nil
}

// DeleteSession 删除会话
func (s *SessionStore) DeleteSession(ctx context.Context, userID uint) error {
	if err := s.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return apperrors.Wrap(err, "删除会话失败")
	}
	return nil
}

// AddToBlacklist Token加入黑名单，ttl<=0时不写入（Token已过期）
func (s *SessionStore) AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, blacklistKey(token), "revoked", ttl).Err(); err != nil {
		return apperrors.Wrap(err, "添加Token到黑名单失败")
	}
	return nil
}

// IsInBlacklist Token是否已被注销
func (s *SessionStore) IsInBlacklist(ctx context.Context, token string) (bool, error) {
	exists, err := s.client.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		return false, apperrors.Wrap(err, "检查黑名单失败")
	}
	return exists > 0, nil
}
