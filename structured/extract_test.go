package structured

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEmbeddedBlock(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"fenced json", "Sure:\n```json\n{\"a\":1}\n```\nDone", `{"a":1}`},
		{"fenced without tag", "```\n[1,2]\n```", `[1,2]`},
		{"fenced other tag", "```jsonc\n{\"a\":1}\n```", `{"a":1}`},
		{"first fenced wins", "```json\n{\"a\":1}\n```\n```json\n{\"b\":2}\n```", `{"a":1}`},
		{"code block skipped", "```python\nprint(1)\n```\n```json\n{\"ok\":true}\n```", `{"ok":true}`},
		{"fenced scalar", "```json\n42\n```", `42`},
		{"fenced scalar without newline", "```true```", `true`},
		{"fence inside string", "```json\n{\"code\":\"if x {} ``` y\"}\n```", "{\"code\":\"if x {} ``` y\"}"},
		{"closing brace then fence inside string", "```json\n{\"s\":\"a}\n```\"}\n```", "{\"s\":\"a}\n```\"}"},
		{"fenced string with quote", "```json\n\"say \\\"hi\\\"\"\n```", `"say \"hi\""`},
		{"bare object", `The answer is {"name": "Widget"} as requested`, `{"name": "Widget"}`},
		{"bare nested object", `x {"a":{"b":[1,{"c":2}]}} y`, `{"a":{"b":[1,{"c":2}]}}`},
		{"bare array first", `list: [1, 2] and {"a": 1}`, `[1, 2]`},
		{"braces inside strings", `{"s":"}{]["}`, `{"s":"}{]["}`},
		{"escaped quote in string", `{"s":"a\"}"}`, `{"s":"a\"}"}`},
		{"unterminated then valid", `{ broken [1]`, `[1]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractEmbeddedBlock(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractEmbeddedBlock_NoBlock(t *testing.T) {
	for _, text := range []string{"", "invalid json", "only a closer }", "{ never closed"} {
		_, err := ExtractEmbeddedBlock(text)
		assert.ErrorIs(t, err, ErrNoBlockFound, "text=%q", text)
	}
}

func TestFindFencedBlock_Span(t *testing.T) {
	text := "pre ```json\n{\"a\":1}\n``` post"
	b, ok := FindFencedBlock(text)
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, b.Interior)
	assert.Equal(t, "```json\n{\"a\":1}\n```", text[b.Start:b.End])

	_, ok = FindFencedBlock("```json\n{\"a\":1}")
	assert.False(t, ok, "incomplete fence must not match")
}

func TestFindFencedBlock_StringsHideFences(t *testing.T) {
	inner := "{\"md\":\"```json\\n{}\\n```\",\"n\":1}"
	text := "x ```json\n" + inner + "\n``` tail"

	b, ok := FindFencedBlock(text)
	require.True(t, ok)
	assert.Equal(t, inner, b.Interior)
	assert.Equal(t, " tail", text[b.End:])

	// 字符串未闭合时不能提前匹配
	_, ok = FindFencedBlock("```json\n{\"code\":\"if x {} ``` y")
	assert.False(t, ok)
}
