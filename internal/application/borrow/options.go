package borrow

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/domain/stats"
)

// Option 借还用例的可选依赖
type Option func(*options)

type options struct {
	now       func() time.Time
	publisher borrow.EventPublisher
	cache     stats.Cache
}

func defaultOptions() options {
	return options{now: time.Now}
}

// WithClock 注入时钟（测试逾期判断时使用）
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithPublisher 事务提交后发布借阅事件
func WithPublisher(p borrow.EventPublisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithStatsCache 借还成功后清除全馆统计缓存
func WithStatsCache(c stats.Cache) Option {
	return func(o *options) { o.cache = c }
}

// afterCommit 提交后的附带动作，失败只记日志
func (o *options) afterCommit(ctx context.Context, e borrow.Event) {
	if o.publisher != nil {
		if err := o.publisher.Publish(ctx, e); err != nil {
			zap.L().Warn("借阅事件发布失败",
				zap.String("type", e.Type),
				zap.Uint("borrow_id", e.BorrowID),
				zap.Error(err),
			)
		}
	}
	if o.cache != nil {
		if err := o.cache.Invalidate(ctx); err != nil {
			zap.L().Warn("清除统计缓存失败", zap.Error(err))
		}
	}
}
