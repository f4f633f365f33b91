package streaming

import (
	"context"
	"errors"
	"iter"
	"strings"

	"go.uber.org/zap"
)

// Scan 把 chunk 序列转换为信号序列，信号顺序与 chunk 顺序一致。
//
// 上游错误或 ctx 取消时发出一个 Error，随后执行 Finish。
// 消费方提前停止迭代时不会自动 Finish，需由调用方显式调用。
func Scan(ctx context.Context, s *Scanner, chunks iter.Seq2[string, error]) iter.Seq[Signal] {
	return func(yield func(Signal) bool) {
		emitAll := func(sigs []Signal) bool {
			for _, sig := range sigs {
				if !yield(sig) {
					return false
				}
			}
			return true
		}

		for chunk, err := range chunks {
			if err == nil {
				err = ctx.Err()
			}
			if err != nil {
				if !yield(s.emit(Signal{Kind: SignalError, Err: err})) {
					s.abandoned()
					return
				}
				break
			}
			if !emitAll(s.Push(chunk)) {
				s.abandoned()
				return
			}
		}
		emitAll(s.Finish())
	}
}

func (s *Scanner) abandoned() {
	if s.buf != "" {
		s.logger.Warn("stream abandoned before finish", zap.Int("pending_bytes", len(s.buf)))
	}
}

// Collected 汇总一次流式会话
type Collected struct {
	Text   string
	Values []any
	Errors []error
}

// Collect 消费整个 chunk 序列，返回拼接后的文本、检测到的值与
// 扫描错误。返回的 error 只表示上游失败或取消。
func Collect(ctx context.Context, s *Scanner, chunks iter.Seq2[string, error]) (*Collected, error) {
	var sourceErr error
	tracked := func(yield func(string, error) bool) {
		for chunk, err := range chunks {
			if err != nil && sourceErr == nil {
				sourceErr = err
			}
			if !yield(chunk, err) {
				return
			}
		}
	}

	var sb strings.Builder
	out := &Collected{}
	for sig := range Scan(ctx, s, tracked) {
		switch sig.Kind {
		case SignalToken:
			sb.WriteString(sig.Text)
		case SignalStructured:
			out.Values = append(out.Values, sig.Value)
		case SignalError:
			if errors.Is(sig.Err, sourceErr) || (ctx.Err() != nil && errors.Is(sig.Err, ctx.Err())) {
				continue
			}
			out.Errors = append(out.Errors, sig.Err)
		}
	}
	out.Text = sb.String()

	if sourceErr == nil {
		sourceErr = ctx.Err()
	}
	return out, sourceErr
}
