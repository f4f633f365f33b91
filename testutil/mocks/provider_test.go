package mocks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/composekit/llm"
	"github.com/BaSui01/composekit/structured"
)

func request(prompt string) *llm.ChatRequest {
	return llm.NewRequest("trace", prompt, llm.DefaultCompletionOptions())
}

func text(t *testing.T, resp *llm.ChatResponse) string {
	t.Helper()
	s, err := llm.Text(resp)
	require.NoError(t, err)
	return s
}

func TestMockProvider_Script(t *testing.T) {
	p := NewMockProvider().WithResponses("a", "b")
	ctx := context.Background()

	var got []string
	for i := 0; i < 3; i++ {
		resp, err := p.Completion(ctx, request("q"))
		require.NoError(t, err)
		got = append(got, text(t, resp))
	}
	assert.Equal(t, []string{"a", "b", "b"}, got)
	assert.Equal(t, 3, p.CallCount())
	assert.Equal(t, []string{"q", "q", "q"}, p.Prompts())

	p.Reset()
	assert.Zero(t, p.CallCount())
	assert.Nil(t, p.LastRequest())
}

func TestMockProvider_SchemaEcho(t *testing.T) {
	p := NewMockProvider().WithSchemaEcho()
	schema := structured.Object(
		structured.F("name", structured.String()),
		structured.F("price", structured.Number().WithMin(0).WithMax(10)),
	)
	opts := llm.DefaultCompletionOptions()
	opts.Schema = schema

	resp, err := p.Completion(context.Background(), llm.NewRequest("t", "make one", opts))
	require.NoError(t, err)
	res := structured.Validate(text(t, resp), schema)
	require.True(t, res.OK(), res.Issues)

	resp, err = p.Completion(context.Background(), request("echo me"))
	require.NoError(t, err)
	assert.Equal(t, "echo me", text(t, resp))
}

func TestMockProvider_Errors(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewMockProvider().WithError(boom).Completion(context.Background(), request("q"))
	assert.ErrorIs(t, err, boom)

	p := NewMockProvider().WithFailAfter(1)
	_, err = p.Completion(context.Background(), request("q"))
	require.NoError(t, err)
	_, err = p.Completion(context.Background(), request("q"))
	assert.ErrorIs(t, err, ErrMockFailure)
	assert.Len(t, p.Calls(), 2)
}

func TestMockProvider_DelayHonoursContext(t *testing.T) {
	p := NewMockProvider().WithDelay(time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.Completion(ctx, request("q"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMockProvider_Stream(t *testing.T) {
	p := NewMockProvider().WithStreamChunks("he", "llo")
	ch, err := p.Stream(context.Background(), request("q"))
	require.NoError(t, err)

	var joined string
	var last llm.StreamChunk
	for chunk := range ch {
		joined += chunk.Delta.Content
		last = chunk
	}
	assert.Equal(t, "hello", joined)
	assert.Equal(t, "stop", last.FinishReason)

	ch, err = NewMockProvider().WithResponse("whole").Stream(context.Background(), request("q"))
	require.NoError(t, err)
	chunk := <-ch
	assert.Equal(t, "whole", chunk.Delta.Content)
}
