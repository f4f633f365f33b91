package structured

import "math"

// MockValue builds a value that satisfies d: the first enum option,
// "mock string", 42 clamped into the declared bounds, true, and
// one-element arrays.
func MockValue(d Descriptor) any {
	switch s := d.(type) {
	case *ObjectDescriptor:
		out := make(map[string]any, len(s.Fields))
		for _, f := range s.Fields {
			out[f.Name] = MockValue(f.Schema)
		}
		return out
	case *ArrayDescriptor:
		return []any{MockValue(s.Element)}
	case *StringDescriptor:
		return "mock string"
	case *NumberDescriptor:
		return mockNumber(s)
	case *BooleanDescriptor:
		return true
	case *EnumDescriptor:
		if len(s.Options) == 0 {
			return ""
		}
		return s.Options[0]
	default:
		return nil
	}
}

func mockNumber(s *NumberDescriptor) float64 {
	v := 42.0
	if s.Max != nil {
		v = math.Min(v, *s.Max)
	}
	if s.Min != nil {
		v = math.Max(v, *s.Min)
	}
	// Prefer a non-boundary value when the range is a fraction, e.g. [0,1].
	if s.Min != nil && s.Max != nil && *s.Max-*s.Min <= 1 && v == *s.Max {
		v = *s.Min + (*s.Max-*s.Min)*0.95
	}
	return v
}
