package llm

import (
	"context"
	"fmt"
	"iter"
)

// FirstChoice safely returns the first choice from a ChatResponse.
// Returns an error if the response is nil or has no choices.
func FirstChoice(resp *ChatResponse) (ChatChoice, error) {
	if resp == nil {
		return ChatChoice{}, fmt.Errorf("nil ChatResponse")
	}
	if len(resp.Choices) == 0 {
		return ChatChoice{}, fmt.Errorf("empty choices in ChatResponse (model returned no choices)")
	}
	return resp.Choices[0], nil
}

// Text returns the content of the first choice.
func Text(resp *ChatResponse) (string, error) {
	choice, err := FirstChoice(resp)
	if err != nil {
		return "", err
	}
	return choice.Message.Content, nil
}

// Chunks adapts a stream channel into a pull sequence of text deltas.
// A chunk carrying Err is yielded once as an error and ends the sequence.
// Stopping iteration early stops reading; the producer observes ctx.
func Chunks(ctx context.Context, ch <-chan StreamChunk) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			select {
			case <-ctx.Done():
				yield("", ctx.Err())
				return
			case chunk, ok := <-ch:
				if !ok {
					return
				}
				if chunk.Err != nil {
					yield("", chunk.Err)
					return
				}
				if chunk.Delta.Content == "" {
					continue
				}
				if !yield(chunk.Delta.Content, nil) {
					return
				}
			}
		}
	}
}

// TextChunks yields each string as one chunk.
func TextChunks(chunks ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
	}
}
