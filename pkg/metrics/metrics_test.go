package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

func TestInit_Idempotent(t *testing.T) {
	Init()
	first := BorrowsTotal
	Init()
	assert.Same(t, first, BorrowsTotal)
	assert.NotNil(t, HTTPRequestsTotal)
	assert.NotNil(t, HTTPRequestDuration)
	assert.NotNil(t, HTTPRequestsInProgress)
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "success", ResultLabel(nil))
	assert.Equal(t, "40001", ResultLabel(apperrors.New(apperrors.ErrCodeOutOfStock, "x")))
	assert.Equal(t, "50000", ResultLabel(errors.New("boom")))
}

func TestObserveBorrowAndReturn(t *testing.T) {
	Init()
	okBefore := testutil.ToFloat64(BorrowsTotal.WithLabelValues("success"))
	limitBefore := testutil.ToFloat64(BorrowsTotal.WithLabelValues("40006"))
	lateBefore := testutil.ToFloat64(LateReturnsTotal)
	borrowCountBefore := histogramCount(t, WorkflowDuration.WithLabelValues("borrow"))

	ObserveBorrow(nil, 0.01)
	ObserveBorrow(apperrors.New(apperrors.ErrCodeLimitExceeded, "limit"), 0.002)
	ObserveReturn(nil, true, 0.01)
	ObserveReturn(nil, false, 0.01)
	ObserveReturn(apperrors.New(apperrors.ErrCodeAlreadyReturned, "again"), true, 0.01)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(BorrowsTotal.WithLabelValues("success")))
	assert.Equal(t, limitBefore+1, testutil.ToFloat64(BorrowsTotal.WithLabelValues("40006")))
	assert.Equal(t, lateBefore+1, testutil.ToFloat64(LateReturnsTotal))
	assert.Equal(t, borrowCountBefore+2, histogramCount(t, WorkflowDuration.WithLabelValues("borrow")))
}

func TestObservePublish(t *testing.T) {
	Init()
	before := testutil.ToFloat64(EventsPublishedTotal.WithLabelValues("borrow.created", "failure"))

	ObservePublish("borrow.created", errors.New("channel closed"))

	assert.Equal(t, before+1, testutil.ToFloat64(EventsPublishedTotal.WithLabelValues("borrow.created", "failure")))

	rejected := testutil.ToFloat64(EventsPublishedTotal.WithLabelValues("borrow.returned", "rejected"))
	ObservePublish("borrow.returned", fmt.Errorf("发布借阅事件失败: %w", circuitbreaker.ErrOpen))
	assert.Equal(t, rejected+1, testutil.ToFloat64(EventsPublishedTotal.WithLabelValues("borrow.returned", "rejected")))
}

func TestSetBreakerState(t *testing.T) {
	SetBreakerState("rabbitmq", circuitbreaker.StateOpen)
	assert.Equal(t, float64(1), testutil.ToFloat64(BreakerState.WithLabelValues("rabbitmq")))
	SetBreakerState("rabbitmq", circuitbreaker.StateClosed)
	assert.Equal(t, float64(0), testutil.ToFloat64(BreakerState.WithLabelValues("rabbitmq")))
}

func histogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	h, ok := o.(prometheus.Histogram)
	require.True(t, ok)
	var m dto.Metric
	require.NoError(t, h.Write(&m))
	return m.GetHistogram().GetSampleCount()
}
