package structured

import (
	"errors"
	"fmt"
)

// Kind identifies the variant of a Descriptor.
type Kind string

const (
	KindObject  Kind = "object"
	KindArray   Kind = "array"
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindEnum    Kind = "enum"
)

// Descriptor describes the expected shape of a structured value.
// The set of implementations is closed; every use site switches over
// the concrete types below.
type Descriptor interface {
	Kind() Kind
	descriptor()
}

// Field is one named entry of an ObjectDescriptor.
type Field struct {
	Name   string
	Schema Descriptor
}

// ObjectDescriptor describes an object with an ordered list of fields.
type ObjectDescriptor struct {
	Fields []Field
}

// ArrayDescriptor describes a homogeneous array.
type ArrayDescriptor struct {
	Element Descriptor
}

// StringDescriptor describes a string.
type StringDescriptor struct{}

// NumberDescriptor describes a number with optional inclusive bounds.
type NumberDescriptor struct {
	Min *float64
	Max *float64
}

// BooleanDescriptor describes a boolean.
type BooleanDescriptor struct{}

// EnumDescriptor describes a string restricted to a fixed option list.
type EnumDescriptor struct {
	Options []string
}

func (*ObjectDescriptor) Kind() Kind  { return KindObject }
func (*ArrayDescriptor) Kind() Kind   { return KindArray }
func (*StringDescriptor) Kind() Kind  { return KindString }
func (*NumberDescriptor) Kind() Kind  { return KindNumber }
func (*BooleanDescriptor) Kind() Kind { return KindBoolean }
func (*EnumDescriptor) Kind() Kind    { return KindEnum }

func (*ObjectDescriptor) descriptor()  {}
func (*ArrayDescriptor) descriptor()   {}
func (*StringDescriptor) descriptor()  {}
func (*NumberDescriptor) descriptor()  {}
func (*BooleanDescriptor) descriptor() {}
func (*EnumDescriptor) descriptor()    {}

// Object creates an object descriptor. Field order is preserved.
func Object(fields ...Field) *ObjectDescriptor {
	return &ObjectDescriptor{Fields: fields}
}

// F is shorthand for a Field.
func F(name string, schema Descriptor) Field {
	return Field{Name: name, Schema: schema}
}

// Array creates an array descriptor.
func Array(element Descriptor) *ArrayDescriptor {
	return &ArrayDescriptor{Element: element}
}

// String creates a string descriptor.
func String() *StringDescriptor {
	return &StringDescriptor{}
}

// Number creates an unbounded number descriptor.
func Number() *NumberDescriptor {
	return &NumberDescriptor{}
}

// Boolean creates a boolean descriptor.
func Boolean() *BooleanDescriptor {
	return &BooleanDescriptor{}
}

// Enum creates an enum descriptor.
func Enum(options ...string) *EnumDescriptor {
	return &EnumDescriptor{Options: options}
}

// WithMin returns a copy of n with an inclusive lower bound.
func (n *NumberDescriptor) WithMin(min float64) *NumberDescriptor {
	c := *n
	c.Min = &min
	return &c
}

// WithMax returns a copy of n with an inclusive upper bound.
func (n *NumberDescriptor) WithMax(max float64) *NumberDescriptor {
	c := *n
	c.Max = &max
	return &c
}

// Field returns the named field's descriptor, or nil.
func (o *ObjectDescriptor) Field(name string) Descriptor {
	for _, f := range o.Fields {
		if f.Name == name {
			return f.Schema
		}
	}
	return nil
}

// InRange reports whether v satisfies the declared bounds.
func (n *NumberDescriptor) InRange(v float64) bool {
	if n.Min != nil && v < *n.Min {
		return false
	}
	if n.Max != nil && v > *n.Max {
		return false
	}
	return true
}

// Allows reports whether s is one of the options.
func (e *EnumDescriptor) Allows(s string) bool {
	for _, o := range e.Options {
		if o == s {
			return true
		}
	}
	return false
}

// ErrCyclicDescriptor is returned by Check when a descriptor contains itself.
var ErrCyclicDescriptor = errors.New("descriptor is cyclic")

// Check verifies that d is well formed: acyclic, no nil nodes, unique
// non-empty field names, non-empty enums and consistent number bounds.
func Check(d Descriptor) error {
	return check(d, "", map[Descriptor]bool{})
}

func check(d Descriptor, path string, onPath map[Descriptor]bool) error {
	if d == nil {
		return fmt.Errorf("%s: descriptor is nil", pathOrRoot(path))
	}
	switch s := d.(type) {
	case *ObjectDescriptor:
		if onPath[d] {
			return fmt.Errorf("%s: %w", pathOrRoot(path), ErrCyclicDescriptor)
		}
		onPath[d] = true
		defer delete(onPath, d)
		seen := make(map[string]bool, len(s.Fields))
		for _, f := range s.Fields {
			if f.Name == "" {
				return fmt.Errorf("%s: field name is empty", pathOrRoot(path))
			}
			if seen[f.Name] {
				return fmt.Errorf("%s: duplicate field %q", pathOrRoot(path), f.Name)
			}
			seen[f.Name] = true
			if err := check(f.Schema, joinPath(path, f.Name), onPath); err != nil {
				return err
			}
		}
	case *ArrayDescriptor:
		if onPath[d] {
			return fmt.Errorf("%s: %w", pathOrRoot(path), ErrCyclicDescriptor)
		}
		onPath[d] = true
		defer delete(onPath, d)
		return check(s.Element, path+"[]", onPath)
	case *NumberDescriptor:
		if s.Min != nil && s.Max != nil && *s.Min > *s.Max {
			return fmt.Errorf("%s: min %v exceeds max %v", pathOrRoot(path), *s.Min, *s.Max)
		}
	case *EnumDescriptor:
		if len(s.Options) == 0 {
			return fmt.Errorf("%s: enum has no options", pathOrRoot(path))
		}
	case *StringDescriptor, *BooleanDescriptor:
	default:
		return fmt.Errorf("%s: unknown descriptor %T", pathOrRoot(path), d)
	}
	return nil
}

func joinPath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}

func indexPath(base string, i int) string {
	return fmt.Sprintf("%s[%d]", base, i)
}

func pathOrRoot(path string) string {
	if path == "" {
		return "$"
	}
	return path
}
