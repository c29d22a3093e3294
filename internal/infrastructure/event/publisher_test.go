package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/pkg/circuitbreaker"
	"github.com/xiebiao/library/pkg/mq"
)

type fakeBroker struct {
	routingKey string
	messageID  string
	body       []byte
	err        error
	closed     bool
}

func (f *fakeBroker) Publish(_ context.Context, routingKey, messageID string, message interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.routingKey = routingKey
	f.messageID = messageID
	f.body, _ = json.Marshal(message)
	return nil
}

func (f *fakeBroker) Close() error {
	f.closed = true
	return nil
}

func sampleBorrow() *borrow.Borrow {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	b := borrow.NewBorrow(3, 9, now.AddDate(0, 0, 14), now)
	b.ID = 21
	return b
}

func TestRabbitPublisher_PublishAndDecode(t *testing.T) {
	fb := &fakeBroker{}
	p := NewRabbitPublisher(fb, nil)

	e := borrow.NewBorrowedEvent(sampleBorrow())
	require.NoError(t, p.Publish(context.Background(), e))
	assert.Equal(t, borrow.EventBorrowed, fb.routingKey)
	assert.Equal(t, e.ID, fb.messageID)

	got, err := Decode(mq.Message{RoutingKey: fb.routingKey, Body: fb.body})
	require.NoError(t, err)
	assert.Equal(t, uint(21), got.BorrowID)
	assert.Equal(t, uint(3), got.UserID)
	assert.Equal(t, uint(9), got.BookID)
	assert.True(t, e.DueDate.Equal(got.DueDate))

	require.NoError(t, p.Close())
	assert.True(t, fb.closed)
}

func TestRabbitPublisher_PublishError(t *testing.T) {
	boom := errors.New("channel closed")
	p := NewRabbitPublisher(&fakeBroker{err: boom}, nil)

	err := p.Publish(context.Background(), borrow.NewReturnedEvent(sampleBorrow(), true, time.Now()))
	assert.ErrorIs(t, err, boom)
}

func TestRabbitPublisher_BreakerOpens(t *testing.T) {
	fb := &fakeBroker{err: errors.New("connection reset")}
	breaker := newBreaker(config.MQConfig{BreakerFailures: 2, BreakerTimeout: time.Minute})
	require.NotNil(t, breaker)
	p := NewRabbitPublisher(fb, breaker)

	e := borrow.NewBorrowedEvent(sampleBorrow())
	assert.NotErrorIs(t, p.Publish(context.Background(), e), circuitbreaker.ErrOpen)
	assert.NotErrorIs(t, p.Publish(context.Background(), e), circuitbreaker.ErrOpen)
	assert.Equal(t, circuitbreaker.StateOpen, breaker.State())

	// 熔断后不再访问broker
	fb.err = nil
	assert.ErrorIs(t, p.Publish(context.Background(), e), circuitbreaker.ErrOpen)
	assert.Empty(t, fb.routingKey)
}

func TestNewBreaker_Disabled(t *testing.T) {
	assert.Nil(t, newBreaker(config.MQConfig{}))
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode(mq.Message{Body: []byte("{")})
	assert.Error(t, err)
}

func TestNewPublisher_DisabledIsNoop(t *testing.T) {
	p, err := NewPublisher(&config.Config{})
	require.NoError(t, err)
	assert.IsType(t, NoopPublisher{}, p)
	assert.NoError(t, p.Publish(context.Background(), borrow.NewBorrowedEvent(sampleBorrow())))
	assert.NoError(t, p.Close())
}
