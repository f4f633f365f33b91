package structured

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Definition is the document form of a Descriptor. It decodes from YAML or
// JSON. A bare scalar is shorthand for {type: <scalar>}, and object fields
// keep their document order:
//
//	type: object
//	fields:
//	  name: string
//	  price: {type: number, min: 0}
//	  tags: {type: array, element: string}
type Definition struct {
	Type    Kind        `yaml:"type" json:"type"`
	Fields  FieldList   `yaml:"fields,omitempty" json:"fields,omitempty"`
	Element *Definition `yaml:"element,omitempty" json:"element,omitempty"`
	Options []string    `yaml:"options,omitempty" json:"options,omitempty"`
	Min     *float64    `yaml:"min,omitempty" json:"min,omitempty"`
	Max     *float64    `yaml:"max,omitempty" json:"max,omitempty"`
}

// FieldDefinition is one ordered object field.
type FieldDefinition struct {
	Name   string
	Schema *Definition
}

// FieldList is an ordered list of fields decoded from a mapping.
type FieldList []FieldDefinition

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Definition) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		d.Type = Kind(node.Value)
		return nil
	}
	type plain Definition
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*d = Definition(p)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler, preserving key order.
func (l *FieldList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: fields must be a mapping", node.Line)
	}
	out := make(FieldList, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var def Definition
		if err := node.Content[i+1].Decode(&def); err != nil {
			return fmt.Errorf("field %q: %w", node.Content[i].Value, err)
		}
		out = append(out, FieldDefinition{Name: node.Content[i].Value, Schema: &def})
	}
	*l = out
	return nil
}

// MarshalYAML implements yaml.Marshaler, emitting fields as an ordered mapping.
func (l FieldList) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range l {
		var value yaml.Node
		if err := value.Encode(f.Schema); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: f.Name},
			&value,
		)
	}
	return node, nil
}

// ParseDefinition decodes a YAML or JSON document into a checked Descriptor.
func ParseDefinition(data []byte) (Descriptor, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse descriptor: %w", err)
	}
	return def.Build()
}

// Build converts the definition into a checked Descriptor.
func (d *Definition) Build() (Descriptor, error) {
	desc, err := d.build("")
	if err != nil {
		return nil, err
	}
	if err := Check(desc); err != nil {
		return nil, err
	}
	return desc, nil
}

func (d *Definition) build(path string) (Descriptor, error) {
	if d == nil {
		return nil, fmt.Errorf("%s: missing definition", pathOrRoot(path))
	}
	switch d.Type {
	case KindObject:
		fields := make([]Field, 0, len(d.Fields))
		for _, f := range d.Fields {
			child, err := f.Schema.build(joinPath(path, f.Name))
			if err != nil {
				return nil, err
			}
			fields = append(fields, F(f.Name, child))
		}
		return Object(fields...), nil
	case KindArray:
		elem, err := d.Element.build(path + "[]")
		if err != nil {
			return nil, err
		}
		return Array(elem), nil
	case KindString:
		return String(), nil
	case KindNumber:
		return &NumberDescriptor{Min: d.Min, Max: d.Max}, nil
	case KindBoolean:
		return Boolean(), nil
	case KindEnum:
		if len(d.Options) == 0 {
			return nil, fmt.Errorf("%s: enum has no options", pathOrRoot(path))
		}
		return Enum(d.Options...), nil
	case "":
		return nil, fmt.Errorf("%s: type is required", pathOrRoot(path))
	default:
		return nil, fmt.Errorf("%s: unknown type %q", pathOrRoot(path), d.Type)
	}
}

// DefinitionOf converts a Descriptor back into its document form.
func DefinitionOf(d Descriptor) *Definition {
	switch s := d.(type) {
	case *ObjectDescriptor:
		def := &Definition{Type: KindObject, Fields: make(FieldList, 0, len(s.Fields))}
		for _, f := range s.Fields {
			def.Fields = append(def.Fields, FieldDefinition{Name: f.Name, Schema: DefinitionOf(f.Schema)})
		}
		return def
	case *ArrayDescriptor:
		return &Definition{Type: KindArray, Element: DefinitionOf(s.Element)}
	case *NumberDescriptor:
		return &Definition{Type: KindNumber, Min: s.Min, Max: s.Max}
	case *EnumDescriptor:
		return &Definition{Type: KindEnum, Options: append([]string(nil), s.Options...)}
	case nil:
		return nil
	default:
		return &Definition{Type: d.Kind()}
	}
}
