package types

import "context"

// contextKey is used for storing values in context.Context.
type contextKey string

const (
	keyTraceID  contextKey = "trace_id"
	keyRunID    contextKey = "run_id"
	keyFlowStep contextKey = "flow_step"
)

// WithTraceID adds trace ID to context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, keyTraceID, traceID)
}

// TraceID extracts trace ID from context.
func TraceID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyTraceID).(string)
	return v, ok && v != ""
}

// WithRunID adds the flow run ID to context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, keyRunID, runID)
}

// RunID extracts the flow run ID from context.
func RunID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyRunID).(string)
	return v, ok && v != ""
}

// WithFlowStep adds the 1-based flow step index to context.
func WithFlowStep(ctx context.Context, step int) context.Context {
	return context.WithValue(ctx, keyFlowStep, step)
}

// FlowStep extracts the 1-based flow step index from context.
func FlowStep(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(keyFlowStep).(int)
	return v, ok && v > 0
}
