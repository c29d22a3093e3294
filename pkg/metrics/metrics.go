// Package metrics 借阅服务的Prometheus指标
//
// 指标命名：
//   - Counter以_total结尾
//   - Histogram以单位结尾（_seconds）
//   - 标签只使用有限取值（method、path模板、结果码），不使用user_id这类高基数字段
package metrics

import (
	"errors"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/xiebiao/library/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

var (
	once sync.Once

	// HTTPRequestsTotal HTTP请求总数
	// 标签：method、path（路由模板）、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// BorrowsTotal 借书请求数，result为success或业务错误码
	BorrowsTotal *prometheus.CounterVec

	// ReturnsTotal 还书请求数，result同上
	ReturnsTotal *prometheus.CounterVec

	// LateReturnsTotal 逾期归还次数
	LateReturnsTotal prometheus.Counter

	// WorkflowDuration 借还事务耗时，operation为borrow或return
	WorkflowDuration *prometheus.HistogramVec

	// EventsPublishedTotal 借阅事件发布数
	// 标签：routing_key、result（success/failure/rejected）
	EventsPublishedTotal *prometheus.CounterVec

	// BreakerState 熔断器状态，0关闭 1打开 2半开
	BreakerState *prometheus.GaugeVec
)

// Init 注册全部指标到默认Registry，重复调用无副作用
func Init() {
	once.Do(func() {
		HTTPRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP请求总数",
			},
			[]string{"method", "path", "status"},
		)

		HTTPRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP请求耗时(秒)",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"method", "path"},
		)

		HTTPRequestsInProgress = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_progress",
				Help: "正在处理的HTTP请求数",
			},
		)

		BorrowsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "library_borrows_total",
				Help: "借书请求总数",
			},
			[]string{"result"},
		)

		ReturnsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "library_returns_total",
				Help: "还书请求总数",
			},
			[]string{"result"},
		)

		LateReturnsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "library_late_returns_total",
				Help: "逾期归还总数",
			},
		)

		// 借还都是单个数据库事务，桶比HTTP更细
		WorkflowDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "library_workflow_duration_seconds",
				Help:    "借还事务耗时(秒)",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"operation"},
		)

		EventsPublishedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "library_events_published_total",
				Help: "借阅事件发布总数",
			},
			[]string{"routing_key", "result"},
		)

		BreakerState = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "library_circuit_breaker_state",
				Help: "熔断器状态(0关闭 1打开 2半开)",
			},
			[]string{"name"},
		)
	})
}

// ResultLabel 把用例返回的错误转换为标签值
// 成功为success，其余为业务错误码
func ResultLabel(err error) string {
	if err == nil {
		return "success"
	}
	return strconv.Itoa(apperrors.GetAppError(err).Code)
}

// ObserveBorrow 记录一次借书
func ObserveBorrow(err error, seconds float64) {
	Init()
	BorrowsTotal.WithLabelValues(ResultLabel(err)).Inc()
	WorkflowDuration.WithLabelValues("borrow").Observe(seconds)
}

// ObserveReturn 记录一次还书
func ObserveReturn(err error, late bool, seconds float64) {
	Init()
	ReturnsTotal.WithLabelValues(ResultLabel(err)).Inc()
	WorkflowDuration.WithLabelValues("return").Observe(seconds)
	if err == nil && late {
		LateReturnsTotal.Inc()
	}
}

// ObservePublish 记录一次事件发布
func ObservePublish(routingKey string, err error) {
	Init()
	result := "success"
	switch {
	case errors.Is(err, circuitbreaker.ErrOpen):
		result = "rejected"
	case err != nil:
		result = "failure"
	}
	EventsPublishedTotal.WithLabelValues(routingKey, result).Inc()
}

// SetBreakerState 记录熔断器状态切换
func SetBreakerState(name string, state circuitbreaker.State) {
	Init()
	BreakerState.WithLabelValues(name).Set(float64(state))
}
