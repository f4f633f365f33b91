// Package prompt provides safe {{path}} interpolation for prompt templates.
//
// Only mustache-style references with dot-separated paths are supported.
// Nothing in a template is ever evaluated.
package prompt

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/BaSui01/composekit/types"
)

// variablePattern matches a {{path}} reference; group 1 is the path.
var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// unsafePattern is one entry of the template denylist.
type unsafePattern struct {
	name string
	re   *regexp.Regexp
}

// The denylist is plain pattern matching, not a parser. It can reject
// harmless prose (for example "a function (f) of x") and it cannot catch
// every construct a downstream renderer might evaluate.
var unsafePatterns = []unsafePattern{
	{"interpolation marker", regexp.MustCompile(`\$\{.*\}`)},
	{"eval call", regexp.MustCompile(`eval\(.*\)`)},
	{"function constructor", regexp.MustCompile(`new Function`)},
	{"arrow function", regexp.MustCompile(`\(\).*=>`)},
	{"function declaration", regexp.MustCompile(`function.*\(.*\)`)},
}

// Interpolate replaces every {{path}} in template with the value found by
// walking path through variables. Missing keys resolve to the empty string.
func Interpolate(template string, variables map[string]any) string {
	return variablePattern.ReplaceAllStringFunc(template, func(match string) string {
		path := strings.TrimSpace(match[2 : len(match)-2])
		value, ok := lookup(variables, strings.Split(path, "."))
		if !ok {
			return ""
		}
		return stringify(value)
	})
}

// ValidateTemplate reports whether template passes the safety denylist.
func ValidateTemplate(template string) bool {
	return CheckTemplate(template) == nil
}

// CheckTemplate returns an UNSAFE_TEMPLATE error naming the first denylisted
// construct found in template.
func CheckTemplate(template string) error {
	for _, p := range unsafePatterns {
		if p.re.MatchString(template) {
			return types.NewError(types.ErrUnsafeTemplate,
				fmt.Sprintf("invalid template: contains unsafe pattern (%s)", p.name))
		}
	}
	return nil
}

// ExtractVariables returns each distinct {{path}} reference in first-seen order.
func ExtractVariables(template string) []string {
	matches := variablePattern.FindAllStringSubmatch(template, -1)
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimSpace(m[1])
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func lookup(variables map[string]any, keys []string) (any, bool) {
	var current any = variables
	for _, key := range keys {
		next, ok := step(current, key)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// step descends one path segment into maps (string keys) and slices
// (numeric segments).
func step(value any, key string) (any, bool) {
	switch v := value.(type) {
	case map[string]any:
		next, ok := v[key]
		return next, ok
	case map[string]string:
		next, ok := v[key]
		return next, ok
	case []any:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(v) {
			return nil, false
		}
		return v[i], true
	case nil:
		return nil, false
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		next := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !next.IsValid() {
			return nil, false
		}
		return next.Interface(), true
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	}
	return nil, false
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case fmt.Stringer:
		return v.String()
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return ""
		}
		fallthrough
	case reflect.Array, reflect.Struct:
		data, err := json.Marshal(value)
		if err != nil {
			return "[Object]"
		}
		return string(data)
	case reflect.Pointer:
		if rv.IsNil() {
			return ""
		}
		return stringify(rv.Elem().Interface())
	}
	return fmt.Sprint(value)
}
