package compose

import (
	"maps"

	"github.com/BaSui01/composekit/llm"
	"github.com/BaSui01/composekit/structured"
)

// Request 是一次 compose 调用的输入，按值传递。
// 每次重试都派生新的 Request，原始请求保持不变。
type Request struct {
	Text      string
	Variables map[string]any
	Schema    structured.Descriptor
	Options   llm.CompletionOptions
}

// NewRequest 构造请求，Schema 取自 opts.Schema，变量表做浅拷贝。
func NewRequest(text string, vars map[string]any, opts llm.CompletionOptions) Request {
	return Request{
		Text:      text,
		Variables: maps.Clone(vars),
		Schema:    opts.Schema,
		Options:   opts,
	}
}

// Retries 剩余的重试预算
func (r Request) Retries() int { return r.Options.Retries }

// withHint 返回追加了 Schema 提示、预算减一的新请求。
// 提示文本由系统生成，不再经过模板安全检查。
func (r Request) withHint(prompt, hint string) Request {
	next := r
	next.Text = prompt + "\n\n" + hint
	next.Options.Retries--
	return next
}
