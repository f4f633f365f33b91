// MockProvider 是 llm.Provider 的测试模拟实现。
//
// 支持脚本化响应、流式输出、错误注入以及按 Schema 生成数据。
package mocks

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/BaSui01/composekit/llm"
	"github.com/BaSui01/composekit/structured"
)

// ErrMockFailure 是 WithFailAfter 触发时返回的错误
var ErrMockFailure = errors.New("mock provider: configured to fail after N calls")

// --- MockProvider 结构 ---

// MockProvider 是 LLM Provider 的模拟实现
type MockProvider struct {
	mu sync.RWMutex

	name string

	// 响应配置
	response     string
	script       []string
	streamChunks []string
	err          error
	schemaEcho   bool

	// Token 使用统计
	promptTokens     int
	completionTokens int

	// 调用记录
	calls          []MockProviderCall
	completionFunc func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)
	streamFunc     func(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error)

	// 行为控制
	delay     time.Duration
	failAfter int // 在第 N 次调用后失败
	callCount int
}

// MockProviderCall 记录单次调用
type MockProviderCall struct {
	Request  *llm.ChatRequest
	Response *llm.ChatResponse
	Error    error
}

// --- 构造函数和 Builder 方法 ---

// NewMockProvider 创建新的 MockProvider
func NewMockProvider() *MockProvider {
	return &MockProvider{
		name:             "mock",
		response:         "Mock response",
		promptTokens:     10,
		completionTokens: 20,
	}
}

// WithName 设置 Provider 名称
func (m *MockProvider) WithName(name string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.name = name
	return m
}

// WithResponse 设置固定响应内容
func (m *MockProvider) WithResponse(response string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = response
	return m
}

// WithResponses 按调用顺序返回脚本中的响应，脚本用完后重复最后一条
func (m *MockProvider) WithResponses(responses ...string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append([]string(nil), responses...)
	return m
}

// WithSchemaEcho 请求带 Schema 时返回符合 Schema 的 JSON 代码块，否则回显提示词
func (m *MockProvider) WithSchemaEcho() *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemaEcho = true
	return m
}

// WithError 设置返回错误
func (m *MockProvider) WithError(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithStreamChunks 设置流式响应块
func (m *MockProvider) WithStreamChunks(chunks ...string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamChunks = append([]string(nil), chunks...)
	return m
}

// WithTokenUsage 设置 Token 使用量
func (m *MockProvider) WithTokenUsage(prompt, completion int) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.promptTokens = prompt
	m.completionTokens = completion
	return m
}

// WithDelay 设置响应延迟
func (m *MockProvider) WithDelay(d time.Duration) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// WithFailAfter 设置在第 N 次调用后失败
func (m *MockProvider) WithFailAfter(n int) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
	return m
}

// WithCompletionFunc 设置自定义 Completion 函数
func (m *MockProvider) WithCompletionFunc(fn func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completionFunc = fn
	return m
}

// WithStreamFunc 设置自定义 Stream 函数
func (m *MockProvider) WithStreamFunc(fn func(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error)) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamFunc = fn
	return m
}

// --- Provider 接口实现 ---

// Name 返回 Provider 名称
func (m *MockProvider) Name() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.name
}

// HealthCheck 执行健康检查
func (m *MockProvider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	if err := ctx.Err(); err != nil {
		return &llm.HealthStatus{Healthy: false}, err
	}
	return &llm.HealthStatus{Healthy: true, Latency: time.Millisecond}, nil
}

// Completion 生成响应
func (m *MockProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++

	if err := m.sleep(ctx); err != nil {
		m.calls = append(m.calls, MockProviderCall{Request: req, Error: err})
		return nil, err
	}

	// 检查是否应该失败
	if m.failAfter > 0 && m.callCount > m.failAfter {
		m.calls = append(m.calls, MockProviderCall{Request: req, Error: ErrMockFailure})
		return nil, ErrMockFailure
	}

	// 检查是否有预设错误
	if m.err != nil {
		m.calls = append(m.calls, MockProviderCall{Request: req, Error: m.err})
		return nil, m.err
	}

	// 使用自定义函数
	if m.completionFunc != nil {
		resp, err := m.completionFunc(ctx, req)
		m.calls = append(m.calls, MockProviderCall{Request: req, Response: resp, Error: err})
		return resp, err
	}

	resp := &llm.ChatResponse{
		ID:       "mock-response-id",
		Provider: m.name,
		Model:    req.Model,
		Choices: []llm.ChatChoice{
			{
				Index:        0,
				FinishReason: "stop",
				Message:      llm.Message{Role: llm.RoleAssistant, Content: m.contentFor(req)},
			},
		},
		Usage: llm.ChatUsage{
			PromptTokens:     m.promptTokens,
			CompletionTokens: m.completionTokens,
			TotalTokens:      m.promptTokens + m.completionTokens,
		},
		CreatedAt: time.Now(),
	}

	m.calls = append(m.calls, MockProviderCall{Request: req, Response: resp})
	return resp, nil
}

// Stream 流式生成响应；未设置流式块时把完整响应作为单个块发送
func (m *MockProvider) Stream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++

	if m.err != nil {
		m.calls = append(m.calls, MockProviderCall{Request: req, Error: m.err})
		return nil, m.err
	}
	if m.streamFunc != nil {
		m.calls = append(m.calls, MockProviderCall{Request: req})
		return m.streamFunc(ctx, req)
	}

	chunks := m.streamChunks
	if len(chunks) == 0 {
		chunks = []string{m.contentFor(req)}
	}
	m.calls = append(m.calls, MockProviderCall{Request: req})

	ch := make(chan llm.StreamChunk, len(chunks))
	name := m.name
	go func() {
		defer close(ch)
		for i, chunk := range chunks {
			sc := llm.StreamChunk{
				ID:       "mock-chunk-id",
				Provider: name,
				Model:    req.Model,
				Index:    i,
				Delta:    llm.Message{Role: llm.RoleAssistant, Content: chunk},
			}
			if i == len(chunks)-1 {
				sc.FinishReason = "stop"
			}
			select {
			case <-ctx.Done():
				return
			case ch <- sc:
			}
		}
	}()

	return ch, nil
}

// contentFor 按优先级选择响应：脚本、Schema 回显、固定响应。调用方持有锁。
func (m *MockProvider) contentFor(req *llm.ChatRequest) string {
	if len(m.script) > 0 {
		idx := m.callCount - 1
		if idx >= len(m.script) {
			idx = len(m.script) - 1
		}
		return m.script[idx]
	}
	if m.schemaEcho {
		if req.Schema == nil {
			return req.Prompt()
		}
		data, err := json.MarshalIndent(structured.MockValue(req.Schema), "", "  ")
		if err != nil {
			return m.response
		}
		return "```json\n" + string(data) + "\n```"
	}
	return m.response
}

func (m *MockProvider) sleep(ctx context.Context) error {
	if m.delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.delay):
		return nil
	}
}

// --- 调用记录查询 ---

// CallCount 返回调用次数
func (m *MockProvider) CallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.callCount
}

// Calls 返回调用记录副本
func (m *MockProvider) Calls() []MockProviderCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]MockProviderCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Prompts 按调用顺序返回每次请求的提示词
func (m *MockProvider) Prompts() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.calls))
	for _, c := range m.calls {
		out = append(out, c.Request.Prompt())
	}
	return out
}

// LastRequest 返回最后一次请求
func (m *MockProvider) LastRequest() *llm.ChatRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1].Request
}

// Reset 清空调用记录
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.callCount = 0
}

var _ llm.Provider = (*MockProvider)(nil)
