package structured

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/BaSui01/composekit/types"
)

// Result is the outcome of Validate: either a value matching the
// descriptor or a failure carrying the untouched input text.
type Result struct {
	// Value is set on success. Objects are map[string]any, arrays []any,
	// numbers float64.
	Value any `json:"value,omitempty"`
	// Raw is the original text handed to Validate.
	Raw    string        `json:"raw"`
	Issues []types.Issue `json:"issues,omitempty"`
	// Code classifies a failure: ErrNoBlockFound or ErrSchemaMismatch.
	Code types.ErrorCode `json:"code,omitempty"`
	ok   bool
}

// Success builds a successful Result.
func Success(raw string, value any) Result {
	return Result{Value: value, Raw: raw, ok: true}
}

// Failure builds a failed Result.
func Failure(raw string, code types.ErrorCode, issues ...types.Issue) Result {
	return Result{Raw: raw, Code: code, Issues: issues}
}

// OK reports whether validation succeeded.
func (r Result) OK() bool {
	return r.ok
}

// Err converts a failed Result into a retryable *types.Error. It returns nil
// on success.
func (r Result) Err() error {
	if r.ok {
		return nil
	}
	return types.NewError(r.Code, "output validation failed").
		WithRaw(r.Raw, r.Issues).
		WithRetryable(true)
}

// Validate extracts the structured block from text, parses it and checks it
// against d. A nil descriptor accepts any parsed value.
func Validate(text string, d Descriptor) Result {
	block, err := ExtractEmbeddedBlock(text)
	if err != nil {
		return Failure(text, types.ErrNoBlockFound, types.Issue{Message: err.Error()})
	}

	var value any
	if err := json.Unmarshal([]byte(block), &value); err != nil {
		return Failure(text, types.ErrSchemaMismatch, types.Issue{Message: fmt.Sprintf("JSON parse error: %v", err)})
	}

	if d == nil {
		return Success(text, value)
	}
	if issues := CheckValue(value, d); len(issues) > 0 {
		return Failure(text, types.ErrSchemaMismatch, issues...)
	}
	return Success(text, value)
}

// ParseBlock parses an already extracted block and checks it against d.
// Raw on the returned Result is the block itself.
func ParseBlock(block string, d Descriptor) Result {
	var value any
	if err := json.Unmarshal([]byte(block), &value); err != nil {
		return Failure(block, types.ErrSchemaMismatch, types.Issue{Message: fmt.Sprintf("JSON parse error: %v", err)})
	}
	if d != nil {
		if issues := CheckValue(value, d); len(issues) > 0 {
			return Failure(block, types.ErrSchemaMismatch, issues...)
		}
	}
	return Success(block, value)
}

// CheckValue validates a decoded JSON value against d and returns one issue
// per problem found. Extra object fields are ignored.
func CheckValue(value any, d Descriptor) []types.Issue {
	var issues []types.Issue
	validateValue(value, d, "", &issues)
	return issues
}

func validateValue(value any, d Descriptor, path string, issues *[]types.Issue) {
	switch s := d.(type) {
	case *ObjectDescriptor:
		validateObject(value, s, path, issues)
	case *ArrayDescriptor:
		validateArray(value, s, path, issues)
	case *StringDescriptor:
		if _, ok := value.(string); !ok {
			*issues = append(*issues, typeIssue(path, "string", value))
		}
	case *NumberDescriptor:
		validateNumber(value, s, path, issues)
	case *BooleanDescriptor:
		if _, ok := value.(bool); !ok {
			*issues = append(*issues, typeIssue(path, "boolean", value))
		}
	case *EnumDescriptor:
		validateEnum(value, s, path, issues)
	default:
		*issues = append(*issues, types.Issue{Path: path, Message: fmt.Sprintf("unsupported descriptor %T", d)})
	}
}

func validateObject(value any, s *ObjectDescriptor, path string, issues *[]types.Issue) {
	obj, ok := value.(map[string]any)
	if !ok {
		*issues = append(*issues, typeIssue(path, "object", value))
		return
	}
	for _, f := range s.Fields {
		fieldPath := joinPath(path, f.Name)
		v, exists := obj[f.Name]
		if !exists {
			*issues = append(*issues, types.Issue{Path: fieldPath, Message: "required field is missing"})
			continue
		}
		validateValue(v, f.Schema, fieldPath, issues)
	}
}

func validateArray(value any, s *ArrayDescriptor, path string, issues *[]types.Issue) {
	arr, ok := value.([]any)
	if !ok {
		*issues = append(*issues, typeIssue(path, "array", value))
		return
	}
	for i, item := range arr {
		validateValue(item, s.Element, indexPath(path, i), issues)
	}
}

func validateNumber(value any, s *NumberDescriptor, path string, issues *[]types.Issue) {
	num, ok := value.(float64)
	if !ok {
		*issues = append(*issues, typeIssue(path, "number", value))
		return
	}
	if s.Min != nil && num < *s.Min {
		*issues = append(*issues, types.Issue{
			Path:    path,
			Message: fmt.Sprintf("value %v is less than minimum %v", num, *s.Min),
		})
	}
	if s.Max != nil && num > *s.Max {
		*issues = append(*issues, types.Issue{
			Path:    path,
			Message: fmt.Sprintf("value %v exceeds maximum %v", num, *s.Max),
		})
	}
}

func validateEnum(value any, s *EnumDescriptor, path string, issues *[]types.Issue) {
	str, ok := value.(string)
	if !ok {
		*issues = append(*issues, typeIssue(path, "string", value))
		return
	}
	if !s.Allows(str) {
		*issues = append(*issues, types.Issue{
			Path:    path,
			Message: fmt.Sprintf("value %q must be one of: %v", str, s.Options),
		})
	}
}

func typeIssue(path, want string, got any) types.Issue {
	return types.Issue{Path: path, Message: fmt.Sprintf("expected %s, got %s", want, jsonTypeName(got))}
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// IsNoBlockFound reports whether err stems from a missing structured block.
func IsNoBlockFound(err error) bool {
	return errors.Is(err, ErrNoBlockFound) || types.IsErrorCode(err, types.ErrNoBlockFound)
}
