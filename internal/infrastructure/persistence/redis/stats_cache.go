package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/library/internal/domain/stats"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

const libraryStatsKey = keyPrefix + "stats:library"

// StatsCache 全馆统计缓存，JSON序列化
// 借书、还书成功后调用Invalidate，其余变更等待TTL过期
type StatsCache struct {
	client *redis.Client
}

// NewStatsCache 创建统计缓存
func NewStatsCache(client *redis.Client) stats.Cache {
	return &StatsCache{client: client}
}

// GetLibrary 未命中返回（nil, nil）
func (c *StatsCache) GetLibrary(ctx context.Context) (*stats.LibraryStats, error) {
	data, err := c.client.Get(ctx, libraryStatsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, "读取统计缓存失败")
	}

	var s stats.LibraryStats
	if err := json.Unmarshal(data, &s); err != nil {
		// 结构变更后的旧数据按未命中处理
		return nil, nil
	}
	return &s, nil
}

// SetLibrary 写入缓存
func (c *StatsCache) SetLibrary(ctx context.Context, s *stats.LibraryStats, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return apperrors.Wrap(err, "序列化统计数据失败")
	}
	if err := c.client.Set(ctx, libraryStatsKey, data, ttl).Err(); err != nil {
		return apperrors.Wrap(err, "写入统计缓存失败")
	}
	return nil
}

// Invalidate 删除缓存
func (c *StatsCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, libraryStatsKey).Err(); err != nil {
		return apperrors.Wrap(err, "清除统计缓存失败")
	}
	return nil
}
