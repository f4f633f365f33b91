// =============================================================================
// 📦 测试数据工厂 - 生成端响应
// =============================================================================
// 提供预定义的 ChatResponse / StreamChunk，用于 Provider 与流式测试
// =============================================================================
package fixtures

import (
	"time"

	"github.com/BaSui01/composekit/llm"
)

// =============================================================================
// 🎯 ChatResponse 工厂
// =============================================================================

// SimpleResponse 返回简单的文本响应
func SimpleResponse(content string) *llm.ChatResponse {
	return &llm.ChatResponse{
		ID:       "resp-001",
		Provider: "mock",
		Model:    "mock-model",
		Choices: []llm.ChatChoice{
			{
				Index:        0,
				FinishReason: "stop",
				Message: llm.Message{
					Role:    llm.RoleAssistant,
					Content: content,
				},
			},
		},
		Usage: llm.ChatUsage{
			PromptTokens:     10,
			CompletionTokens: 20,
			TotalTokens:      30,
		},
		CreatedAt: time.Now(),
	}
}

// EmptyResponse 返回没有 choice 的响应
func EmptyResponse() *llm.ChatResponse {
	resp := SimpleResponse("")
	resp.Choices = nil
	return resp
}

// =============================================================================
// 🌊 StreamChunk 工厂
// =============================================================================

// TextChunk 创建文本流式块
func TextChunk(content string, finishReason string) llm.StreamChunk {
	return llm.StreamChunk{
		ID:       "chunk-001",
		Provider: "mock",
		Model:    "mock-model",
		Delta: llm.Message{
			Role:    llm.RoleAssistant,
			Content: content,
		},
		FinishReason: finishReason,
	}
}

// ErrorChunk 创建错误流式块
func ErrorChunk(err *llm.Error) llm.StreamChunk {
	return llm.StreamChunk{
		ID:           "chunk-error-001",
		Provider:     "mock",
		Model:        "mock-model",
		FinishReason: "error",
		Err:          err,
	}
}

// SplitText 按字节切分文本，最后一段可能更短
func SplitText(content string, size int) []string {
	if size <= 0 || len(content) <= size {
		return []string{content}
	}
	parts := make([]string, 0, len(content)/size+1)
	for i := 0; i < len(content); i += size {
		end := min(i+size, len(content))
		parts = append(parts, content[i:end])
	}
	return parts
}

// SimpleStreamChunks 把文本切成流式块序列，最后一块带 stop
func SimpleStreamChunks(content string, chunkSize int) []llm.StreamChunk {
	parts := SplitText(content, chunkSize)
	chunks := make([]llm.StreamChunk, len(parts))
	for i, part := range parts {
		finish := ""
		if i == len(parts)-1 {
			finish = "stop"
		}
		chunks[i] = TextChunk(part, finish)
	}
	return chunks
}
