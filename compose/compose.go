package compose

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/composekit/audit"
	"github.com/BaSui01/composekit/internal/metrics"
	"github.com/BaSui01/composekit/internal/telemetry"
	"github.com/BaSui01/composekit/llm"
	"github.com/BaSui01/composekit/prompt"
	"github.com/BaSui01/composekit/redact"
	"github.com/BaSui01/composekit/structured"
	"github.com/BaSui01/composekit/types"
)

// Result 是 compose 的终态结果。
// 无 Schema 时 Value 为原始文本；有 Schema 时为校验通过的值。
type Result struct {
	Value    any    `json:"value"`
	Raw      string `json:"raw"`
	Attempts int    `json:"attempts"`
	TraceID  string `json:"trace_id"`
}

// Composer 驱动 生成 → 提取 → 校验 → 带提示重试 的循环。
type Composer struct {
	provider llm.Provider
	model    string
	logger   *zap.Logger
	redactor redact.Redactor
	metrics  *metrics.Collector
	tracer   trace.Tracer
	audit    audit.Store
}

// Option 配置 Composer
type Option func(*Composer)

// WithLogger 设置日志记录器
func WithLogger(logger *zap.Logger) Option {
	return func(c *Composer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRedactor 设置写入日志与审计前的脱敏函数；redact.None 关闭脱敏。
func WithRedactor(r redact.Redactor) Option {
	return func(c *Composer) {
		if r != nil {
			c.redactor = r
		}
	}
}

// WithMetrics 设置指标收集器
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Composer) { c.metrics = m }
}

// WithTracer 设置 tracer
func WithTracer(t trace.Tracer) Option {
	return func(c *Composer) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithAudit 设置审计存储
func WithAudit(s audit.Store) Option {
	return func(c *Composer) {
		if s != nil {
			c.audit = s
		}
	}
}

// WithModel 设置请求中的模型名
func WithModel(model string) Option {
	return func(c *Composer) { c.model = model }
}

// New 创建 Composer。provider 为 nil 时每次调用都返回 GENERATION_UNAVAILABLE。
func New(provider llm.Provider, opts ...Option) *Composer {
	c := &Composer{
		provider: provider,
		logger:   zap.NewNop(),
		redactor: redact.PII,
		tracer:   otel.Tracer(telemetry.TracerName),
		audit:    audit.NopStore{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("component", "compose"))
	return c
}

// Provider 返回底层生成能力
func (c *Composer) Provider() llm.Provider { return c.provider }

// Compose 执行一次 compose：
//  1. 模板安全检查（失败不重试）
//  2. 插值并调用生成能力（生成失败不重试）
//  3. 无 Schema 直接返回文本；否则校验
//  4. 校验失败且仍有预算时追加 Schema 提示重新生成
//
// 预算耗尽返回 RETRY_BUDGET_EXHAUSTED，只携带最后一次尝试的原文与问题。
func (c *Composer) Compose(ctx context.Context, req Request) (*Result, error) {
	if req.Schema == nil {
		req.Schema = req.Options.Schema
	}
	req.Options.Schema = req.Schema
	opts, err := llm.NormalizeOptions(req.Options)
	if err != nil {
		return nil, err
	}
	req.Options = opts

	if err := prompt.CheckTemplate(req.Text); err != nil {
		c.logger.Warn("template rejected", c.redactor.String("template", req.Text))
		return nil, err
	}
	if c.provider == nil {
		return nil, types.NewError(types.ErrGenerationUnavailable, "generation capability is not configured")
	}

	traceID, ok := types.TraceID(ctx)
	if !ok {
		traceID = uuid.NewString()
		ctx = types.WithTraceID(ctx, traceID)
	}
	providerName := c.provider.Name()

	ctx, span := c.tracer.Start(ctx, "compose", trace.WithAttributes(
		telemetry.AttrProvider.String(providerName),
		telemetry.AttrTraceID.String(traceID),
		telemetry.AttrRetries.Int(req.Retries()),
	))
	defer span.End()

	text := prompt.Interpolate(req.Text, req.Variables)
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		raw, err := c.generate(ctx, traceID, text, req.Options, attempt)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "generation unavailable")
			return nil, err
		}

		if req.Schema == nil {
			c.record(ctx, providerName, attempt, text, raw, structured.Success(raw, raw))
			span.SetAttributes(telemetry.AttrAttempt.Int(attempt), telemetry.AttrOutcome.String(string(audit.OutcomeSuccess)))
			return &Result{Value: raw, Raw: raw, Attempts: attempt, TraceID: traceID}, nil
		}

		res := structured.Validate(raw, req.Schema)
		c.record(ctx, providerName, attempt, text, raw, res)
		if res.OK() {
			span.SetAttributes(telemetry.AttrAttempt.Int(attempt), telemetry.AttrOutcome.String(string(audit.OutcomeSuccess)))
			return &Result{Value: res.Value, Raw: raw, Attempts: attempt, TraceID: traceID}, nil
		}

		c.logger.Warn("output failed validation",
			zap.String("trace_id", traceID),
			zap.Int("attempt", attempt),
			zap.Int("retries_left", req.Retries()),
			zap.String("code", string(res.Code)),
			zap.Int("issues", len(res.Issues)),
			c.redactor.String("raw", raw),
		)

		if req.Retries() <= 0 {
			c.metrics.RecordBudgetExhausted(providerName)
			span.SetAttributes(telemetry.AttrAttempt.Int(attempt), telemetry.AttrOutcome.String(string(audit.OutcomeInvalid)))
			span.SetStatus(codes.Error, "retry budget exhausted")
			return nil, types.NewError(types.ErrRetryBudgetExhausted,
				fmt.Sprintf("output did not match schema after %d attempt(s)", attempt)).
				WithProvider(providerName).
				WithRaw(raw, res.Issues).
				WithCause(res.Err())
		}

		c.metrics.RecordRetry(providerName)
		req = req.withHint(text, structured.RenderHint(req.Schema))
		text = req.Text
	}
}

// generate 调用一次生成能力，错误统一包装为 GENERATION_UNAVAILABLE。
func (c *Composer) generate(ctx context.Context, traceID, text string, opts llm.CompletionOptions, attempt int) (string, error) {
	ctx, span := c.tracer.Start(ctx, "compose.attempt", trace.WithAttributes(
		telemetry.AttrAttempt.Int(attempt),
		telemetry.AttrRetries.Int(opts.Retries),
	))
	defer span.End()

	chatReq := llm.NewRequest(traceID, text, opts)
	chatReq.Model = c.model

	c.logger.Debug("generating",
		zap.String("trace_id", traceID),
		zap.Int("attempt", attempt),
		c.redactor.String("prompt", text),
	)

	start := time.Now()
	resp, err := c.provider.Completion(ctx, chatReq)
	duration := time.Since(start)
	if err == nil {
		var raw string
		raw, err = llm.Text(resp)
		if err == nil {
			c.metrics.RecordLLMRequest(c.provider.Name(), resp.Model, "success", duration,
				resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
			span.SetAttributes(attribute.Int("composekit.raw_length", len(raw)))
			return raw, nil
		}
	}

	c.metrics.RecordLLMRequest(c.provider.Name(), c.model, "error", duration, 0, 0)
	c.metrics.RecordAttempt(c.provider.Name(), types.ErrGenerationUnavailable)
	span.RecordError(err)
	span.SetStatus(codes.Error, "generation failed")
	c.logger.Error("generation failed",
		zap.String("trace_id", traceID),
		zap.Int("attempt", attempt),
		zap.Error(redact.Error(err)),
	)
	return "", types.NewError(types.ErrGenerationUnavailable, "generation failed").
		WithProvider(c.provider.Name()).
		WithCause(err)
}

// record 更新指标并写入审计；审计失败只记日志。
func (c *Composer) record(ctx context.Context, provider string, attempt int, promptText, raw string, res structured.Result) {
	c.metrics.RecordAttempt(provider, res.Code)

	rec := audit.Record{
		Attempt:  attempt,
		Provider: provider,
		Prompt:   c.redactor.Apply(promptText),
		Raw:      c.redactor.Apply(raw),
		Outcome:  audit.OutcomeFor(res.Code),
		Issues:   res.Issues,
	}
	rec.RunID, _ = types.RunID(ctx)
	rec.Step, _ = types.FlowStep(ctx)
	if err := c.audit.Save(ctx, rec); err != nil {
		c.logger.Warn("audit write failed", zap.Int("attempt", attempt), zap.Error(err))
	}
}

// Into 执行 compose 并把结果经 JSON 解码为 T。
func Into[T any](ctx context.Context, c *Composer, req Request) (T, error) {
	var out T
	res, err := c.Compose(ctx, req)
	if err != nil {
		return out, err
	}
	data, err := json.Marshal(res.Value)
	if err != nil {
		return out, fmt.Errorf("encode composed value: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode composed value into %T: %w", out, err)
	}
	return out, nil
}
