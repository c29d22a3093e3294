// Package event 借阅事件的发布与解码
package event

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/pkg/circuitbreaker"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/mq"
)

// broker 发布能力，*mq.Publisher实现了它
type broker interface {
	Publish(ctx context.Context, routingKey, messageID string, message interface{}) error
	Close() error
}

// RabbitPublisher 把借阅事件发布到RabbitMQ topic交换机，路由键即事件类型
type RabbitPublisher struct {
	broker  broker
	breaker *circuitbreaker.Breaker
}

// NewRabbitPublisher 包装已建立连接的发布者
// breaker为nil时不熔断
func NewRabbitPublisher(b broker, breaker *circuitbreaker.Breaker) *RabbitPublisher {
	return &RabbitPublisher{broker: b, breaker: breaker}
}

// Publish 发布事件，熔断中直接返回circuitbreaker.ErrOpen
func (p *RabbitPublisher) Publish(ctx context.Context, e borrow.Event) error {
	publish := func() error {
		return p.broker.Publish(ctx, e.Type, e.ID, e)
	}

	var err error
	if p.breaker != nil {
		err = p.breaker.Execute(publish)
	} else {
		err = publish()
	}
	metrics.ObservePublish(e.Type, err)
	if err != nil {
		return fmt.Errorf("发布借阅事件失败: %w", err)
	}
	return nil
}

// Close 关闭底层连接
func (p *RabbitPublisher) Close() error {
	return p.broker.Close()
}

// NoopPublisher 未启用消息队列时使用，只写调试日志
type NoopPublisher struct{}

// Publish 丢弃事件
func (NoopPublisher) Publish(_ context.Context, e borrow.Event) error {
	zap.L().Debug("消息队列未启用,丢弃借阅事件",
		zap.String("type", e.Type),
		zap.Uint("borrow_id", e.BorrowID),
	)
	return nil
}

// Close 无操作
func (NoopPublisher) Close() error { return nil }

// Publisher 可关闭的事件发布者
type Publisher interface {
	borrow.EventPublisher
	Close() error
}

// NewPublisher 按配置选择RabbitMQ或Noop
func NewPublisher(cfg *config.Config) (Publisher, error) {
	if !cfg.MQ.Enabled {
		return NoopPublisher{}, nil
	}
	p, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, mq.ExchangeTopic)
	if err != nil {
		return nil, err
	}
	return NewRabbitPublisher(p, newBreaker(cfg.MQ)), nil
}

func newBreaker(cfg config.MQConfig) *circuitbreaker.Breaker {
	failures := uint32(cfg.BreakerFailures)
	if cfg.BreakerFailures <= 0 {
		return nil
	}
	return circuitbreaker.New("rabbitmq", circuitbreaker.Config{
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(c circuitbreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			zap.L().Warn("熔断器状态变化",
				zap.String("name", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
			metrics.SetBreakerState(name, to)
		},
	})
}

// Decode 解析消费到的借阅事件
func Decode(msg mq.Message) (borrow.Event, error) {
	var e borrow.Event
	if err := json.Unmarshal(msg.Body, &e); err != nil {
		return e, fmt.Errorf("解析借阅事件失败: %w", err)
	}
	if e.Type == "" {
		e.Type = msg.RoutingKey
	}
	return e, nil
}
