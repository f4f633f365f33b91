// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/BaSui01/composekit/types"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器。nil *Collector 的所有 Record 方法都是空操作。
type Collector struct {
	// 生成调用指标
	llmRequestsTotal   *prometheus.CounterVec
	llmRequestDuration *prometheus.HistogramVec
	llmTokensUsed      *prometheus.CounterVec

	// compose 指标
	composeAttempts       *prometheus.CounterVec
	composeRetries        *prometheus.CounterVec
	composeExhausted      *prometheus.CounterVec
	validationIssuesTotal *prometheus.CounterVec

	// 流式扫描指标
	streamSignals     *prometheus.CounterVec
	streamTruncations prometheus.Counter

	// flow 指标
	flowStepsTotal   *prometheus.CounterVec
	flowStepDuration *prometheus.HistogramVec

	// 审计存储指标
	auditWrites        *prometheus.CounterVec
	auditWriteDuration *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器，注册到默认 Registerer。
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	return NewCollectorWith(prometheus.DefaultRegisterer, namespace, logger)
}

// NewCollectorWith 创建注册到 reg 的指标收集器。
func NewCollectorWith(reg prometheus.Registerer, namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.llmRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of generation requests",
		},
		[]string{"provider", "model", "status"},
	)

	c.llmRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Generation request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	c.llmTokensUsed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_used_total",
			Help:      "Total number of tokens used",
		},
		[]string{"provider", "model", "type"}, // type: prompt, completion
	)

	c.composeAttempts = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compose_attempts_total",
			Help:      "Total number of compose attempts by outcome",
		},
		[]string{"provider", "outcome"}, // outcome: success, invalid, error
	)

	c.composeRetries = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compose_retries_total",
			Help:      "Total number of hint-guided re-prompts",
		},
		[]string{"provider"},
	)

	c.composeExhausted = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compose_budget_exhausted_total",
			Help:      "Total number of compose calls that ran out of retries",
		},
		[]string{"provider"},
	)

	c.validationIssuesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Total number of failed validations by error code",
		},
		[]string{"code"},
	)

	c.streamSignals = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_signals_total",
			Help:      "Total number of scanner signals by kind",
		},
		[]string{"kind"},
	)

	c.streamTruncations = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_buffer_truncations_total",
			Help:      "Total number of times the scan buffer dropped its oldest content",
		},
	)

	c.flowStepsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flow_steps_total",
			Help:      "Total number of executed flow steps",
		},
		[]string{"status"},
	)

	c.flowStepDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flow_step_duration_seconds",
			Help:      "Flow step duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"status"},
	)

	c.auditWrites = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_writes_total",
			Help:      "Total number of audit record writes",
		},
		[]string{"store", "status"},
	)

	c.auditWriteDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "audit_write_duration_seconds",
			Help:      "Audit record write duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"store"},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🤖 生成调用
// =============================================================================

// RecordLLMRequest 记录一次生成调用
func (c *Collector) RecordLLMRequest(provider, model, status string, duration time.Duration, promptTokens, completionTokens int) {
	if c == nil {
		return
	}
	c.llmRequestsTotal.WithLabelValues(provider, model, status).Inc()
	c.llmRequestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
	c.llmTokensUsed.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	c.llmTokensUsed.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
}

// =============================================================================
// 🔁 compose
// =============================================================================

// RecordAttempt 记录一次 compose 尝试；code 为空表示成功。
func (c *Collector) RecordAttempt(provider string, code types.ErrorCode) {
	if c == nil {
		return
	}
	switch code {
	case "":
		c.composeAttempts.WithLabelValues(provider, "success").Inc()
	case types.ErrNoBlockFound, types.ErrSchemaMismatch:
		c.composeAttempts.WithLabelValues(provider, "invalid").Inc()
		c.validationIssuesTotal.WithLabelValues(string(code)).Inc()
	default:
		c.composeAttempts.WithLabelValues(provider, "error").Inc()
	}
}

// RecordRetry 记录一次带提示的重试
func (c *Collector) RecordRetry(provider string) {
	if c == nil {
		return
	}
	c.composeRetries.WithLabelValues(provider).Inc()
}

// RecordBudgetExhausted 记录重试预算耗尽
func (c *Collector) RecordBudgetExhausted(provider string) {
	if c == nil {
		return
	}
	c.composeExhausted.WithLabelValues(provider).Inc()
}

// =============================================================================
// 🌊 流式扫描
// =============================================================================

// RecordStreamSignal 记录扫描器发出的信号
func (c *Collector) RecordStreamSignal(kind string) {
	if c == nil {
		return
	}
	c.streamSignals.WithLabelValues(kind).Inc()
}

// RecordStreamTruncation 记录缓冲区截断
func (c *Collector) RecordStreamTruncation() {
	if c == nil {
		return
	}
	c.streamTruncations.Inc()
}

// =============================================================================
// 🧩 flow
// =============================================================================

// RecordFlowStep 记录 flow 步骤执行
func (c *Collector) RecordFlowStep(status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.flowStepsTotal.WithLabelValues(status).Inc()
	c.flowStepDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// =============================================================================
// 🗄️ 审计
// =============================================================================

// RecordAuditWrite 记录审计写入
func (c *Collector) RecordAuditWrite(store string, err error, duration time.Duration) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.auditWrites.WithLabelValues(store, status).Inc()
	c.auditWriteDuration.WithLabelValues(store).Observe(duration.Seconds())
}
