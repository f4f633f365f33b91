package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/composekit/types"
)

func TestInterpolate(t *testing.T) {
	vars := map[string]any{
		"name":    "Ada",
		"count":   float64(3),
		"ratio":   0.25,
		"age":     42,
		"active":  true,
		"nothing": nil,
		"user": map[string]any{
			"profile": map[string]any{"city": "Paris"},
			"tags":    []any{"a", "b"},
		},
		"labels": map[string]string{"env": "prod"},
		"items":  []any{map[string]any{"id": "x1"}},
	}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"plain", "Hello {{name}}!", "Hello Ada!"},
		{"spaces trimmed", "Hello {{ name }}!", "Hello Ada!"},
		{"nested path", "City: {{user.profile.city}}", "City: Paris"},
		{"missing key", "x{{missing}}y", "xy"},
		{"missing nested", "x{{user.profile.zip.code}}y", "xy"},
		{"through scalar", "x{{name.first}}y", "xy"},
		{"integral float", "{{count}} items", "3 items"},
		{"fraction", "{{ratio}}", "0.25"},
		{"int", "{{age}}", "42"},
		{"bool", "{{active}}", "true"},
		{"null", "[{{nothing}}]", "[]"},
		{"object as json", "{{user.profile}}", `{"city":"Paris"}`},
		{"array as json", "{{user.tags}}", `["a","b"]`},
		{"string map", "{{labels.env}}", "prod"},
		{"array index", "{{items.0.id}}", "x1"},
		{"index out of range", "[{{items.5.id}}]", "[]"},
		{"repeated", "{{name}} and {{name}}", "Ada and Ada"},
		{"no placeholders", "static text", "static text"},
		{"empty braces untouched", "a {{}} b", "a {{}} b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Interpolate(tt.template, vars))
		})
	}
}

func TestInterpolate_NilVariables(t *testing.T) {
	assert.Equal(t, "Hi !", Interpolate("Hi {{name}}!", nil))
}

func TestInterpolate_ValuesAreNotReinterpolated(t *testing.T) {
	got := Interpolate("{{a}}", map[string]any{"a": "{{b}}", "b": "nope"})
	assert.Equal(t, "{{b}}", got)
}

func TestValidateTemplate(t *testing.T) {
	safe := []string{
		"Hello {{name}}!",
		"Describe {{product}} in one sentence.",
		"",
		"price is $5 {not an expression}",
	}
	for _, tpl := range safe {
		assert.True(t, ValidateTemplate(tpl), "template=%q", tpl)
	}

	unsafe := []string{
		"eval(x)",
		"run ${process.env.KEY}",
		"new Function('return 1')",
		"() => 1",
		"function f(a) { return a }",
	}
	for _, tpl := range unsafe {
		assert.False(t, ValidateTemplate(tpl), "template=%q", tpl)
	}
}

func TestCheckTemplate_Error(t *testing.T) {
	err := CheckTemplate("eval(payload)")
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrUnsafeTemplate))
	assert.False(t, types.IsRetryable(err))
	assert.Contains(t, err.Error(), "eval call")

	assert.NoError(t, CheckTemplate("Hello {{name}}"))
}

func TestExtractVariables(t *testing.T) {
	got := ExtractVariables("{{ b }} then {{a.x}} then {{b}} and {{c}}")
	assert.Equal(t, []string{"b", "a.x", "c"}, got)
	assert.Empty(t, ExtractVariables("no vars"))
}

func TestProperty_MissingPathIsEmpty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		segments := rapid.SliceOfN(rapid.StringMatching(`[a-z][a-z0-9_]{0,6}`), 1, 4).Draw(t, "segments")
		path := segments[0]
		for _, s := range segments[1:] {
			path += "." + s
		}
		assert.Equal(t, "", Interpolate("{{"+path+"}}", map[string]any{}))
	})
}

func TestProperty_InterpolateNeverPanics(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tpl := rapid.String().Draw(t, "template")
		vars := map[string]any{
			"k": rapid.OneOf(
				rapid.Just[any](nil),
				rapid.Map(rapid.String(), func(s string) any { return s }),
				rapid.Map(rapid.Float64(), func(f float64) any { return f }),
			).Draw(t, "value"),
		}
		_ = Interpolate(tpl, vars)
		_ = ExtractVariables(tpl)
		_ = ValidateTemplate(tpl)
	})
}
