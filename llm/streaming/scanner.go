package streaming

import (
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/BaSui01/composekit/internal/metrics"
	"github.com/BaSui01/composekit/structured"
)

// DefaultBufferSize 是扫描缓冲区的默认上限（字节）
const DefaultBufferSize = 4096

// SignalKind 标识扫描器发出的信号类型
type SignalKind string

const (
	SignalToken      SignalKind = "token"
	SignalStructured SignalKind = "structured"
	SignalError      SignalKind = "error"
	SignalEnd        SignalKind = "end"
)

// Signal 是扫描器的输出单元。
//   - Token：Text 为原样转发的 chunk
//   - Structured：Value 为解析（及校验）后的值，Text 为代码块内部文本
//   - Error：Err 为解析、校验或上游错误
//   - End：流结束
type Signal struct {
	Kind  SignalKind `json:"kind"`
	Text  string     `json:"text,omitempty"`
	Value any        `json:"value,omitempty"`
	Err   error      `json:"-"`
}

// Config 扫描器配置
type Config struct {
	// BufferSize 缓冲区上限，超出时只保留末尾内容
	BufferSize int
	// DetectJSON 无 Schema 时是否检测代码块
	DetectJSON bool
	// Schema 非空时总是检测，并校验检测到的值
	Schema structured.Descriptor
}

// Scanner 在增量文本中检测完整的 fenced JSON 代码块。
//
// 缓冲区有界：超出 BufferSize 时丢弃最旧的内容，跨越丢弃边界的代码块
// 不会被检测到。每次扫描只取第一个完整代码块，同一缓冲区中的后续代码块
// 要等下一次 Push 或 Finish 才会发出。
//
// Scanner 不是并发安全的，一个流会话独占一个实例。
type Scanner struct {
	cfg     Config
	buf     string
	logger  *zap.Logger
	metrics *metrics.Collector
}

// Option 配置 Scanner
type Option func(*Scanner)

// WithLogger 设置日志记录器
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics 设置指标收集器
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Scanner) { s.metrics = m }
}

// NewScanner 创建扫描器
func NewScanner(cfg Config, opts ...Option) *Scanner {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	s := &Scanner{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("component", "stream_scanner"))
	return s
}

// Detecting 报告是否启用代码块检测
func (s *Scanner) Detecting() bool {
	return s.cfg.DetectJSON || s.cfg.Schema != nil
}

// Buffered 返回尚未匹配的缓冲内容
func (s *Scanner) Buffered() string { return s.buf }

// Push 处理一个 chunk：先原样发出 Token，检测开启时再追加到缓冲区、
// 施加上限并扫描一次。
func (s *Scanner) Push(chunk string) []Signal {
	out := []Signal{s.emit(Signal{Kind: SignalToken, Text: chunk})}
	if !s.Detecting() {
		return out
	}

	s.buf += chunk
	s.bound()
	return s.scan(out)
}

// Finish 对剩余缓冲做最后一次扫描，发出 End 并清空缓冲区。
// 流提前中止时调用方也必须调用 Finish。
func (s *Scanner) Finish() []Signal {
	var out []Signal
	if s.Detecting() {
		out = s.scan(out)
	}
	if s.buf != "" {
		s.logger.Debug("discarding unmatched buffer", zap.Int("bytes", len(s.buf)))
	}
	s.buf = ""
	return append(out, s.emit(Signal{Kind: SignalEnd}))
}

// bound 把缓冲区截断为末尾 BufferSize 字节，截断点对齐到 UTF-8 字符边界。
func (s *Scanner) bound() {
	if len(s.buf) <= s.cfg.BufferSize {
		return
	}
	cut := len(s.buf) - s.cfg.BufferSize
	for cut < len(s.buf) && !utf8.RuneStart(s.buf[cut]) {
		cut++
	}
	s.buf = s.buf[cut:]
	s.metrics.RecordStreamTruncation()
}

// scan 检测第一个完整代码块，发出 Structured 或 Error，并移除匹配区间。
func (s *Scanner) scan(out []Signal) []Signal {
	block, ok := structured.FindFencedBlock(s.buf)
	if !ok {
		return out
	}
	s.buf = s.buf[:block.Start] + s.buf[block.End:]

	res := structured.ParseBlock(block.Interior, s.cfg.Schema)
	if !res.OK() {
		s.logger.Debug("fenced block rejected",
			zap.String("code", string(res.Code)),
			zap.Int("issues", len(res.Issues)),
		)
		return append(out, s.emit(Signal{Kind: SignalError, Text: block.Interior, Err: res.Err()}))
	}
	return append(out, s.emit(Signal{Kind: SignalStructured, Text: block.Interior, Value: res.Value}))
}

func (s *Scanner) emit(sig Signal) Signal {
	s.metrics.RecordStreamSignal(string(sig.Kind))
	return sig
}
