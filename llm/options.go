package llm

import (
	"fmt"

	"github.com/BaSui01/composekit/structured"
	"github.com/BaSui01/composekit/types"
)

const (
	DefaultTemperature = 0.7
	MaxRetries         = 3
)

// CompletionOptions 是调用方可见的生成选项。
type CompletionOptions struct {
	Temperature float64               `json:"temperature" yaml:"temperature"`
	MaxTokens   int                   `json:"max_tokens,omitempty" yaml:"max_tokens"`
	Schema      structured.Descriptor `json:"-" yaml:"-"`
	Retries     int                   `json:"retries" yaml:"retries"`
}

// DefaultCompletionOptions 返回默认选项：temperature 0.7，不重试。
func DefaultCompletionOptions() CompletionOptions {
	return CompletionOptions{Temperature: DefaultTemperature}
}

// NormalizeOptions 校验选项范围，违规时返回 INVALID_REQUEST。
func NormalizeOptions(opts CompletionOptions) (CompletionOptions, error) {
	if opts.Temperature < 0 || opts.Temperature > 1 {
		return opts, types.NewError(types.ErrInvalidRequest,
			fmt.Sprintf("temperature must be between 0 and 1, got %v", opts.Temperature))
	}
	if opts.MaxTokens < 0 {
		return opts, types.NewError(types.ErrInvalidRequest,
			fmt.Sprintf("max tokens must be positive, got %d", opts.MaxTokens))
	}
	if opts.Retries < 0 || opts.Retries > MaxRetries {
		return opts, types.NewError(types.ErrInvalidRequest,
			fmt.Sprintf("retries must be between 0 and %d, got %d", MaxRetries, opts.Retries))
	}
	if opts.Schema != nil {
		if err := structured.Check(opts.Schema); err != nil {
			return opts, types.NewError(types.ErrInvalidRequest, "invalid schema").WithCause(err)
		}
	}
	return opts, nil
}

// NewRequest 构造单条 user 消息的请求。
func NewRequest(traceID, prompt string, opts CompletionOptions) *ChatRequest {
	return &ChatRequest{
		TraceID:     traceID,
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		MaxTokens:   opts.MaxTokens,
		Temperature: float32(opts.Temperature),
		Schema:      opts.Schema,
		Retries:     opts.Retries,
	}
}
