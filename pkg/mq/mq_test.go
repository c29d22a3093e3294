package mq

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	BorrowID uint   `json:"borrow_id"`
	Action   string `json:"action"`
}

func TestNewPublishing(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	msg := newPublishing("evt-1", []byte(`{"a":1}`), now)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, "evt-1", msg.MessageId)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, now, msg.Timestamp)
}

func TestPublisher_ClosedRejectsPublish(t *testing.T) {
	p := &Publisher{exchange: "library.test", closed: true}
	err := p.Publish(context.Background(), "borrow.created", "evt-1", testEvent{BorrowID: 1})
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, p.Close())
}

// 需要真实的RabbitMQ，设置LIBRARY_TEST_AMQP_URL后运行
func TestPublishConsume_RoundTrip(t *testing.T) {
	url := os.Getenv("LIBRARY_TEST_AMQP_URL")
	if url == "" {
		t.Skip("未设置LIBRARY_TEST_AMQP_URL")
	}

	const exchange = "library.test.events"
	consumer, err := NewConsumer(url, exchange, ExchangeTopic, "", []string{"borrow.*"})
	require.NoError(t, err)
	defer consumer.Close()

	publisher, err := NewPublisher(url, exchange, ExchangeTopic)
	require.NoError(t, err)
	defer publisher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := make(chan Message, 1)
	go func() {
		_ = consumer.Consume(ctx, func(_ context.Context, msg Message) error {
			received <- msg
			return nil
		})
	}()

	require.NoError(t, publisher.Publish(ctx, "borrow.returned", "evt-42", testEvent{BorrowID: 42, Action: "returned"}))

	select {
	case msg := <-received:
		assert.Equal(t, "borrow.returned", msg.RoutingKey)
		assert.Equal(t, "evt-42", msg.ID)
		var got testEvent
		require.NoError(t, json.Unmarshal(msg.Body, &got))
		assert.Equal(t, uint(42), got.BorrowID)
	case <-ctx.Done():
		t.Fatal("超时未收到消息")
	}
}
