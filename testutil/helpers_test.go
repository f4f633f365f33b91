package testutil

import (
	"context"
	"errors"
	"iter"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/composekit/llm"
	"github.com/BaSui01/composekit/testutil/fixtures"
)

func TestContexts(t *testing.T) {
	ctx := TestContext(t)
	_, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.NoError(t, ctx.Err())

	assert.ErrorIs(t, CancelledContext().Err(), context.Canceled)
}

func TestJSONHelpers(t *testing.T) {
	v := MustParseJSON[map[string]any](fixtures.WidgetJSON)
	AssertJSONEqual(t, fixtures.WidgetValue(), v)
	assert.Panics(t, func() { MustParseJSON[map[string]any]("{") })
	assert.Panics(t, func() { MustJSON(make(chan int)) })
}

func TestAssertEventuallyTrue(t *testing.T) {
	var n atomic.Int32
	go func() {
		time.Sleep(20 * time.Millisecond)
		n.Store(1)
	}()
	AssertEventuallyTrue(t, func() bool { return n.Load() == 1 }, time.Second)
}

func TestStreamHelpers(t *testing.T) {
	ch := SendChunksToChannel(fixtures.SimpleStreamChunks(fixtures.FencedWidget, 7))
	assert.Equal(t, fixtures.FencedWidget, RequireText(t, llm.Chunks(TestContext(t), ch)))

	boom := errors.New("boom")
	var seq iter.Seq2[string, error] = func(yield func(string, error) bool) {
		if !yield("ab", nil) {
			return
		}
		yield("", boom)
	}
	text, err := CollectText(t, seq)
	assert.Equal(t, "ab", text)
	require.ErrorIs(t, err, boom)
}

func TestFixtures(t *testing.T) {
	assert.Equal(t, []string{"abc", "de"}, fixtures.SplitText("abcde", 3))
	assert.Equal(t, []string{""}, fixtures.SplitText("", 3))

	chunks := fixtures.SimpleStreamChunks("abcde", 2)
	require.Len(t, chunks, 3)
	assert.Equal(t, "stop", chunks[2].FinishReason)
	assert.Empty(t, chunks[0].FinishReason)

	text, err := llm.Text(fixtures.SimpleResponse("hi"))
	require.NoError(t, err)
	assert.Equal(t, "hi", text)

	_, err = llm.Text(fixtures.EmptyResponse())
	assert.Error(t, err)

	assert.Equal(t, fixtures.Fenced(fixtures.WidgetJSON), fixtures.FencedWidget)
}
