package structured

import (
	"strconv"
	"strings"
)

const hintInstruction = "Format the response as a JSON code block like:\n" +
	"```json\n" +
	"{\n" +
	"  // your response here\n" +
	"}\n" +
	"```\n"

// Describe renders a human-readable description of d. The output is
// deterministic for a given descriptor.
func Describe(d Descriptor) string {
	var sb strings.Builder
	describe(&sb, d)
	return sb.String()
}

func describe(sb *strings.Builder, d Descriptor) {
	switch s := d.(type) {
	case *ObjectDescriptor:
		sb.WriteString("{\n")
		for _, f := range s.Fields {
			sb.WriteString(f.Name)
			sb.WriteString(": ")
			describe(sb, f.Schema)
			sb.WriteString("\n")
		}
		sb.WriteString("}")
	case *ArrayDescriptor:
		sb.WriteString("array of ")
		describe(sb, s.Element)
	case *StringDescriptor:
		sb.WriteString("string")
	case *NumberDescriptor:
		sb.WriteString("number")
		switch {
		case s.Min != nil && s.Max != nil:
			sb.WriteString(" between " + formatFloat(*s.Min) + " and " + formatFloat(*s.Max))
		case s.Min != nil:
			sb.WriteString(" >= " + formatFloat(*s.Min))
		case s.Max != nil:
			sb.WriteString(" <= " + formatFloat(*s.Max))
		}
	case *BooleanDescriptor:
		sb.WriteString("boolean")
	case *EnumDescriptor:
		sb.WriteString("one of [")
		sb.WriteString(strings.Join(s.Options, ", "))
		sb.WriteString("]")
	default:
		sb.WriteString("any")
	}
}

// RenderHint renders the re-prompt hint for d: the shape description
// followed by the instruction to answer with a single fenced JSON block.
func RenderHint(d Descriptor) string {
	var sb strings.Builder
	sb.WriteString("Please provide a valid JSON response matching this schema:\n")
	describe(&sb, d)
	sb.WriteString("\n\n")
	sb.WriteString(hintInstruction)
	return sb.String()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
