package structured

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNoBlockFound is returned when text holds neither a fenced block nor a
// brace or bracket delimited region.
var ErrNoBlockFound = errors.New("no JSON found in response")

const fence = "```"

// fenceTag is the optional language tag right after an opening fence.
var fenceTag = regexp.MustCompile(`^[A-Za-z0-9_+-]*`)

// fencedScalar matches a bare JSON number or literal at the start of the text.
var fencedScalar = regexp.MustCompile(`^(?:-?[0-9][0-9.eE+-]*|true|false|null)`)

// Block is a fenced block located inside a larger text.
type Block struct {
	// Interior is the captured JSON value text.
	Interior string
	// Start and End delimit the whole fenced span, fences included.
	Start int
	End   int
}

// FindFencedBlock returns the first triple-backtick block, with an optional
// language tag, whose interior is a single JSON value followed only by
// whitespace and the closing fence. Strings inside the value may contain
// braces, quotes and fences. Blocks holding other content, such as source
// code, are skipped.
func FindFencedBlock(text string) (Block, bool) {
	for from := 0; ; {
		idx := strings.Index(text[from:], fence)
		if idx < 0 {
			return Block{}, false
		}
		start := from + idx
		if b, ok := fencedAt(text, start); ok {
			return b, true
		}
		from = start + 1
	}
}

// fencedAt tries to read a complete fenced block opening at start.
func fencedAt(text string, start int) (Block, bool) {
	open := start + len(fence)
	tagEnd := open + len(fenceTag.FindString(text[open:]))
	// 标签可能吞掉形如 ```true``` 的标量，回退为无标签再试一次
	for _, at := range []int{tagEnd, open} {
		i := skipSpace(text, at)
		end, ok := valueEnd(text, i)
		if !ok {
			continue
		}
		closing := skipSpace(text, end)
		if strings.HasPrefix(text[closing:], fence) {
			return Block{Interior: text[i:end], Start: start, End: closing + len(fence)}, true
		}
	}
	return Block{}, false
}

// valueEnd returns the index just past the JSON value starting at i.
func valueEnd(text string, i int) (int, bool) {
	if i >= len(text) {
		return 0, false
	}
	switch text[i] {
	case '{', '[':
		end, ok := matchClose(text, i)
		return end + 1, ok
	case '"':
		return stringEnd(text, i)
	}
	if m := fencedScalar.FindString(text[i:]); m != "" {
		return i + len(m), true
	}
	return 0, false
}

// stringEnd returns the index just past the JSON string opening at i.
func stringEnd(text string, i int) (int, bool) {
	escaped := false
	for j := i + 1; j < len(text); j++ {
		switch c := text[j]; {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			return j + 1, true
		}
	}
	return 0, false
}

func skipSpace(text string, i int) int {
	for i < len(text) {
		switch text[i] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			i++
		default:
			return i
		}
	}
	return i
}

// ExtractEmbeddedBlock locates the structured block inside text.
// A fenced block wins; otherwise the first balanced top-level {} or []
// region is returned.
func ExtractEmbeddedBlock(text string) (string, error) {
	if b, ok := FindFencedBlock(text); ok {
		return b.Interior, nil
	}
	if region, ok := firstBalancedRegion(text); ok {
		return region, nil
	}
	return "", ErrNoBlockFound
}

// firstBalancedRegion scans for the first '{' or '[' and returns the text up
// to its matching closer. Brackets inside JSON strings are skipped. When the
// first opener never closes, scanning resumes at the next opener.
func firstBalancedRegion(text string) (string, bool) {
	for start := 0; start < len(text); start++ {
		c := text[start]
		if c != '{' && c != '[' {
			continue
		}
		if end, ok := matchClose(text, start); ok {
			return text[start : end+1], true
		}
	}
	return "", false
}

func matchClose(text string, start int) (int, bool) {
	stack := make([]byte, 0, 8)
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
