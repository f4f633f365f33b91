package streaming

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/BaSui01/composekit/internal/metrics"
	"github.com/BaSui01/composekit/llm"
	"github.com/BaSui01/composekit/structured"
	"github.com/BaSui01/composekit/testutil/fixtures"
	"github.com/BaSui01/composekit/types"
)

func kinds(sigs []Signal) []SignalKind {
	out := make([]SignalKind, 0, len(sigs))
	for _, s := range sigs {
		out = append(out, s.Kind)
	}
	return out
}

func TestScanner_TokenOnlyWhenDetectionOff(t *testing.T) {
	s := NewScanner(Config{})
	sigs := s.Push("```json\n{\"a\":1}\n```")
	assert.Equal(t, []SignalKind{SignalToken}, kinds(sigs))
	assert.Empty(t, s.Buffered())
	assert.Equal(t, []SignalKind{SignalEnd}, kinds(s.Finish()))
}

func TestScanner_DetectsBlockAcrossChunks(t *testing.T) {
	s := NewScanner(Config{DetectJSON: true})

	var all []Signal
	for _, c := range []string{"Here: ```js", "on\n{\"name\":", "\"Widget\"}\n``", "` done"} {
		all = append(all, s.Push(c)...)
	}
	all = append(all, s.Finish()...)

	assert.Equal(t, []SignalKind{
		SignalToken, SignalToken, SignalToken, SignalToken, SignalStructured, SignalEnd,
	}, kinds(all))
	assert.Equal(t, map[string]any{"name": "Widget"}, all[4].Value)
	assert.Empty(t, s.Buffered())
}

func TestScanner_FenceInsideStringWaitsForRealClose(t *testing.T) {
	s := NewScanner(Config{DetectJSON: true})

	sigs := s.Push("```json\n{\"md\":\"use ``` fences {}")
	assert.Equal(t, []SignalKind{SignalToken}, kinds(sigs))

	sigs = s.Push("\"}\n``` ok")
	require.Equal(t, []SignalKind{SignalToken, SignalStructured}, kinds(sigs))
	assert.Equal(t, map[string]any{"md": "use ``` fences {}"}, sigs[1].Value)
	assert.Equal(t, " ok", s.Buffered())
}

func TestScanner_MatchedSpanRemoved(t *testing.T) {
	s := NewScanner(Config{DetectJSON: true})
	sigs := s.Push("before ```json\n[1,2]\n``` after")
	require.Equal(t, []SignalKind{SignalToken, SignalStructured}, kinds(sigs))
	assert.Equal(t, "before  after", s.Buffered())

	// 同一代码块不会再次发出
	assert.Equal(t, []SignalKind{SignalToken}, kinds(s.Push("!")))
}

func TestScanner_SchemaMismatchEmitsError(t *testing.T) {
	schema := structured.Object(structured.F("price", structured.Number()))
	s := NewScanner(Config{Schema: schema})
	assert.True(t, s.Detecting())

	sigs := s.Push("```json\n{\"price\":\"free\"}\n```")
	require.Equal(t, []SignalKind{SignalToken, SignalError}, kinds(sigs))
	assert.True(t, types.IsErrorCode(sigs[1].Err, types.ErrSchemaMismatch))
	assert.Empty(t, s.Buffered())
}

// 一次扫描只取第一个代码块；第二个代码块要等下一次扫描才会发出。
func TestScanner_FirstMatchPerPass(t *testing.T) {
	s := NewScanner(Config{DetectJSON: true})
	sigs := s.Push("```json\n{\"n\":1}\n``` and ```json\n{\"n\":2}\n```")
	require.Equal(t, []SignalKind{SignalToken, SignalStructured}, kinds(sigs))
	assert.Equal(t, map[string]any{"n": float64(1)}, sigs[1].Value)
	assert.Contains(t, s.Buffered(), `{"n":2}`)

	final := s.Finish()
	require.Equal(t, []SignalKind{SignalStructured, SignalEnd}, kinds(final))
	assert.Equal(t, map[string]any{"n": float64(2)}, final[0].Value)
}

func TestScanner_TruncationLosesOldContent(t *testing.T) {
	s := NewScanner(Config{DetectJSON: true, BufferSize: 16})
	s.Push("```json\n{\"a\":")
	s.Push(strings.Repeat("x", 20))
	assert.Len(t, s.Buffered(), 16)
	assert.Equal(t, strings.Repeat("x", 16), s.Buffered())

	// 开头的 fence 已被丢弃，后续内容无法组成完整代码块
	sigs := s.Push("1}\n```")
	assert.Equal(t, []SignalKind{SignalToken}, kinds(sigs))
}

func TestScanner_TruncationKeepsRuneBoundary(t *testing.T) {
	s := NewScanner(Config{DetectJSON: true, BufferSize: 5})
	s.Push("aé€")
	assert.LessOrEqual(t, len(s.Buffered()), 5)
	assert.True(t, strings.HasSuffix("aé€", s.Buffered()))
	assert.Equal(t, "é€", s.Buffered())
}

func TestScanner_FinishClearsAndAllowsReuse(t *testing.T) {
	s := NewScanner(Config{DetectJSON: true})
	s.Push("partial ```json\n{")
	assert.Equal(t, []SignalKind{SignalEnd}, kinds(s.Finish()))
	assert.Empty(t, s.Buffered())

	sigs := s.Push("```json\ntrue\n```")
	assert.Equal(t, []SignalKind{SignalToken, SignalStructured}, kinds(sigs))
}

func TestScanner_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollectorWith(reg, "scanner_test", zap.NewNop())
	s := NewScanner(Config{DetectJSON: true, BufferSize: 4}, WithMetrics(collector))
	s.Push("abcdefgh")
	s.Finish()

	n, err := testutil.GatherAndCount(reg, "scanner_test_stream_signals_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n) // token + end
	n, err = testutil.GatherAndCount(reg, "scanner_test_stream_buffer_truncations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// =============================================================================
// 🌊 Scan / Collect
// =============================================================================

func TestScan_OrderAndEnd(t *testing.T) {
	s := NewScanner(Config{DetectJSON: true})
	chunks := llm.TextChunks("a", "```json\n{\"k\":true}\n```", "b")

	var got []SignalKind
	for sig := range Scan(context.Background(), s, chunks) {
		got = append(got, sig.Kind)
	}
	assert.Equal(t, []SignalKind{SignalToken, SignalToken, SignalStructured, SignalToken, SignalEnd}, got)
}

func TestScan_SourceErrorThenFinish(t *testing.T) {
	boom := errors.New("upstream reset")
	chunks := func(yield func(string, error) bool) {
		if !yield("```json\n[1]\n```", nil) {
			return
		}
		yield("", boom)
	}

	var sigs []Signal
	for sig := range Scan(context.Background(), NewScanner(Config{DetectJSON: true}), chunks) {
		sigs = append(sigs, sig)
	}
	require.Equal(t, []SignalKind{SignalToken, SignalStructured, SignalError, SignalEnd}, kinds(sigs))
	assert.ErrorIs(t, sigs[2].Err, boom)
}

func TestScan_AbandonmentLeavesBufferForFinish(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	s := NewScanner(Config{DetectJSON: true}, WithLogger(zap.New(core)))
	chunks := llm.TextChunks("```json\n{\"a\":1}", "\n```", "tail")

	for sig := range Scan(context.Background(), s, chunks) {
		if sig.Kind == SignalToken {
			break
		}
	}
	assert.Equal(t, 1, logs.FilterMessage("stream abandoned before finish").Len())

	// 调用方显式 Finish 后，未完成的代码块仍被丢弃而不是静默泄漏
	assert.NotEmpty(t, s.Buffered())
	assert.Equal(t, []SignalKind{SignalEnd}, kinds(s.Finish()))
	assert.Empty(t, s.Buffered())
}

func TestCollect(t *testing.T) {
	schema := structured.Object(structured.F("ok", structured.Boolean()))
	s := NewScanner(Config{Schema: schema})
	chunks := llm.TextChunks(
		"x ```json\n{\"ok\":true}\n```",
		" y ```json\n{\"ok\":1}\n```",
	)

	got, err := Collect(context.Background(), s, chunks)
	require.NoError(t, err)
	assert.Equal(t, "x ```json\n{\"ok\":true}\n``` y ```json\n{\"ok\":1}\n```", got.Text)
	assert.Equal(t, []any{map[string]any{"ok": true}}, got.Values)
	require.Len(t, got.Errors, 1)
	assert.True(t, types.IsErrorCode(got.Errors[0], types.ErrSchemaMismatch))
}

func TestCollect_WidgetAcrossSmallChunks(t *testing.T) {
	text := "Here you go: " + fixtures.FencedWidget + " done"
	s := NewScanner(Config{Schema: fixtures.WidgetSchema()})

	got, err := Collect(context.Background(), s, llm.TextChunks(fixtures.SplitText(text, 5)...))
	require.NoError(t, err)
	assert.Equal(t, text, got.Text)
	assert.Equal(t, []any{fixtures.WidgetValue()}, got.Values)
	assert.Empty(t, got.Errors)
}

func TestCollect_SourceError(t *testing.T) {
	boom := errors.New("boom")
	chunks := func(yield func(string, error) bool) {
		if yield("partial", nil) {
			yield("", boom)
		}
	}
	got, err := Collect(context.Background(), NewScanner(Config{}), chunks)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "partial", got.Text)
	assert.Empty(t, got.Errors)
}

func TestCollect_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got, err := Collect(ctx, NewScanner(Config{}), llm.TextChunks("a", "b"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, got.Text)
	assert.Empty(t, got.Errors)
}
