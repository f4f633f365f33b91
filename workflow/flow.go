package workflow

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/composekit/compose"
	"github.com/BaSui01/composekit/internal/metrics"
	"github.com/BaSui01/composekit/internal/telemetry"
	"github.com/BaSui01/composekit/llm"
	"github.com/BaSui01/composekit/structured"
	"github.com/BaSui01/composekit/types"
)

// ResultsVar 是注入到每个步骤模板作用域中的保留变量名
const ResultsVar = "results"

// StepKey 返回第 n 个步骤（从 1 开始）的结果键
func StepKey(n int) string { return "step" + strconv.Itoa(n) }

// Step 是 flow 中的一个 compose 步骤
type Step struct {
	// Name 仅用于日志，结果键始终是位置 stepN
	Name      string
	Prompt    string
	Variables map[string]any
	Schema    structured.Descriptor
	// Retries 为 nil 时使用 flow 的默认预算
	Retries *int
}

// Flow 按插入顺序串行执行步骤，并把已完成步骤的结果
// 通过 results 变量提供给后续步骤的模板。
//
// Flow 不是并发安全的，一次只能有一个 Execute 在运行。
type Flow struct {
	composer *compose.Composer
	defaults llm.CompletionOptions

	steps   []Step
	results map[string]any
	cursor  int
	runID   string

	logger  *zap.Logger
	metrics *metrics.Collector
	tracer  trace.Tracer
}

// Option 配置 Flow
type Option func(*Flow)

// WithLogger 设置日志记录器
func WithLogger(logger *zap.Logger) Option {
	return func(f *Flow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithMetrics 设置指标收集器
func WithMetrics(m *metrics.Collector) Option {
	return func(f *Flow) { f.metrics = m }
}

// WithTracer 设置 tracer
func WithTracer(t trace.Tracer) Option {
	return func(f *Flow) {
		if t != nil {
			f.tracer = t
		}
	}
}

// WithDefaults 设置步骤的默认生成选项
func WithDefaults(opts llm.CompletionOptions) Option {
	return func(f *Flow) { f.defaults = opts }
}

// WithComposer 使用外部配置好的 Composer
func WithComposer(c *compose.Composer) Option {
	return func(f *Flow) {
		if c != nil {
			f.composer = c
		}
	}
}

// New 创建 flow。未提供 WithComposer 时用 provider 构造默认 Composer。
func New(provider llm.Provider, opts ...Option) *Flow {
	f := &Flow{
		defaults: llm.DefaultCompletionOptions(),
		results:  make(map[string]any),
		logger:   zap.NewNop(),
		tracer:   otel.Tracer(telemetry.TracerName),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.composer == nil {
		f.composer = compose.New(provider,
			compose.WithLogger(f.logger),
			compose.WithMetrics(f.metrics),
			compose.WithTracer(f.tracer),
		)
	}
	f.logger = f.logger.With(zap.String("component", "flow"))
	return f
}

// AddStep 追加一个步骤
func (f *Flow) AddStep(step Step) *Flow {
	f.steps = append(f.steps, step)
	return f
}

// AddSteps 依次追加多个步骤
func (f *Flow) AddSteps(steps ...Step) *Flow {
	f.steps = append(f.steps, steps...)
	return f
}

// Execute 以新的运行 ID 从第 1 步开始依次执行全部步骤，
// 上一次运行的结果先被清空。
// 任一步骤失败时返回 FLOW_STEP_FAILED（携带从 1 开始的步骤序号），
// 整个 flow 终止。已完成步骤的结果仍可通过 Results 查看，
// 直到下一次 Execute 或 Reset。
func (f *Flow) Execute(ctx context.Context) (map[string]any, error) {
	f.Reset()
	f.runID = uuid.NewString()
	ctx = types.WithRunID(ctx, f.runID)

	for f.cursor < len(f.steps) {
		n := f.cursor + 1
		value, err := f.runStep(ctx, n, f.steps[f.cursor])
		if err != nil {
			wrapped := types.NewError(types.ErrFlowStepFailed, fmt.Sprintf("Error in step %d", n)).
				WithStep(n).
				WithCause(err)
			if te, ok := types.AsError(err); ok {
				wrapped.Provider = te.Provider
				wrapped.Raw = te.Raw
				wrapped.Issues = te.Issues
			}
			return nil, wrapped
		}
		f.results[StepKey(n)] = value
		f.cursor++
	}

	return maps.Clone(f.results), nil
}

func (f *Flow) runStep(ctx context.Context, n int, step Step) (any, error) {
	ctx = types.WithFlowStep(ctx, n)
	ctx, span := f.tracer.Start(ctx, "flow.step", trace.WithAttributes(
		telemetry.AttrRunID.String(f.runID),
		telemetry.AttrStep.Int(n),
	))
	defer span.End()

	vars := maps.Clone(step.Variables)
	if vars == nil {
		vars = make(map[string]any, 1)
	}
	vars[ResultsVar] = maps.Clone(f.results)

	opts := f.defaults
	opts.Schema = step.Schema
	if step.Retries != nil {
		opts.Retries = *step.Retries
	}

	f.logger.Info("executing step",
		zap.String("run_id", f.runID),
		zap.Int("step", n),
		zap.String("name", step.Name),
	)

	start := time.Now()
	res, err := f.composer.Compose(ctx, compose.NewRequest(step.Prompt, vars, opts))
	duration := time.Since(start)
	if err != nil {
		f.metrics.RecordFlowStep("failed", duration)
		span.RecordError(err)
		span.SetStatus(codes.Error, "step failed")
		f.logger.Error("step failed",
			zap.String("run_id", f.runID),
			zap.Int("step", n),
			zap.String("code", string(types.GetErrorCode(err))),
		)
		return nil, err
	}

	f.metrics.RecordFlowStep("completed", duration)
	span.SetAttributes(telemetry.AttrAttempt.Int(res.Attempts))
	f.logger.Info("step completed",
		zap.String("run_id", f.runID),
		zap.Int("step", n),
		zap.Int("attempts", res.Attempts),
		zap.Duration("duration", duration),
	)
	return res.Value, nil
}

// Reset 清空结果、游标与运行 ID，保留已配置的步骤
func (f *Flow) Reset() {
	f.results = make(map[string]any)
	f.cursor = 0
	f.runID = ""
}

// CurrentStep 返回正在执行或下一个待执行步骤的下标（从 0 开始）
func (f *Flow) CurrentStep() int { return f.cursor }

// Results 返回已完成步骤结果的副本
func (f *Flow) Results() map[string]any { return maps.Clone(f.results) }

// Steps 返回步骤副本
func (f *Flow) Steps() []Step { return append([]Step(nil), f.steps...) }

// RunID 返回当前运行 ID；尚未执行时为空
func (f *Flow) RunID() string { return f.runID }
