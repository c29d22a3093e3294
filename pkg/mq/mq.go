// Package mq RabbitMQ发布与订阅
//
// 发布者使用topic交换机、持久化消息；消费者手动ACK，处理失败时重新入队。
package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ExchangeTopic topic交换机，支持borrow.*这类通配符路由
const ExchangeTopic = "topic"

// ErrClosed 发布者已关闭
var ErrClosed = errors.New("mq: publisher closed")

// Publisher 消息发布者
// amqp.Channel不是并发安全的，发布时串行化
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	closed   bool
}

// NewPublisher 连接RabbitMQ并声明持久化交换机
func NewPublisher(url, exchange, exchangeType string) (*Publisher, error) {
	conn, channel, err := open(url, exchange, exchangeType)
	if err != nil {
		return nil, err
	}

	zap.L().Info("消息发布者已创建",
		zap.String("exchange", exchange),
		zap.String("type", exchangeType),
	)
	return &Publisher{conn: conn, channel: channel, exchange: exchange}, nil
}

func open(url, exchange, exchangeType string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("连接RabbitMQ失败: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("创建Channel失败: %w", err)
	}

	// durable=true, autoDelete=false, internal=false, noWait=false
	if err := channel.ExchangeDeclare(exchange, exchangeType, true, false, false, false, nil); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("声明Exchange失败: %w", err)
	}
	return conn, channel, nil
}

// Publish 发布JSON消息
func (p *Publisher) Publish(ctx context.Context, routingKey, messageID string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("消息序列化失败: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	msg := newPublishing(messageID, body, time.Now())
	if err := p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("发布消息失败: %w", err)
	}

	zap.L().Debug("消息已发布",
		zap.String("routing_key", routingKey),
		zap.String("message_id", messageID),
	)
	return nil
}

func newPublishing(messageID string, body []byte, now time.Time) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    messageID,
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
	}
}

// Close 关闭Channel与连接，可重复调用
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return closeAll(p.channel, p.conn)
}

func closeAll(channel *amqp.Channel, conn *amqp.Connection) error {
	var errs []error
	if channel != nil {
		errs = append(errs, channel.Close())
	}
	if conn != nil {
		errs = append(errs, conn.Close())
	}
	return errors.Join(errs...)
}

// Message 消费到的消息
type Message struct {
	ID         string
	RoutingKey string
	Body       []byte
	Timestamp  time.Time
}

// Handler 消息处理函数，返回error时消息重新入队
type Handler func(ctx context.Context, msg Message) error

// Consumer 消息消费者
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

// NewConsumer 声明队列并按routingKeys绑定到交换机
// queue为空时创建服务端命名的临时队列（独占、断开即删除）
func NewConsumer(url, exchange, exchangeType, queue string, routingKeys []string) (*Consumer, error) {
	conn, channel, err := open(url, exchange, exchangeType)
	if err != nil {
		return nil, err
	}

	durable, autoDelete, exclusive := true, false, false
	if queue == "" {
		durable, autoDelete, exclusive = false, true, true
	}
	q, err := channel.QueueDeclare(queue, durable, autoDelete, exclusive, false, nil)
	if err != nil {
		_ = closeAll(channel, conn)
		return nil, fmt.Errorf("声明Queue失败: %w", err)
	}

	for _, key := range routingKeys {
		if err := channel.QueueBind(q.Name, key, exchange, false, nil); err != nil {
			_ = closeAll(channel, conn)
			return nil, fmt.Errorf("绑定Queue失败: %w", err)
		}
	}

	zap.L().Info("消息消费者已创建",
		zap.String("queue", q.Name),
		zap.Strings("routing_keys", routingKeys),
	)
	return &Consumer{conn: conn, channel: channel, queue: q.Name}, nil
}

// Queue 实际队列名
func (c *Consumer) Queue() string {
	return c.queue
}

// Consume 阻塞消费，直到ctx取消或连接断开
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	// 每次只预取一条，处理完再取下一条
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("设置Qos失败: %w", err)
	}

	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("开始消费失败: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case d, ok := <-deliveries:
			if !ok {
				return errors.New("消息Channel已关闭")
			}

			msg := Message{ID: d.MessageId, RoutingKey: d.RoutingKey, Body: d.Body, Timestamp: d.Timestamp}
			if err := handler(ctx, msg); err != nil {
				zap.L().Warn("消息处理失败,重新入队",
					zap.String("routing_key", d.RoutingKey),
					zap.String("message_id", d.MessageId),
					zap.Error(err),
				)
				_ = d.Nack(false, true)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Close 关闭Channel与连接
func (c *Consumer) Close() error {
	return closeAll(c.channel, c.conn)
}
