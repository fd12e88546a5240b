// Package mcp implements an in-process tool server the claude CLI can
// reach through mcp_message control requests. A Server answers a small
// fixed JSON-RPC method set (initialize, tools/list, tools/call, and
// the initialized notification) entirely in memory, executing
// host-registered tool handlers.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
)

// ToolErrorKind classifies a tool-level failure.
type ToolErrorKind string

const (
	KindMissingParameter      ToolErrorKind = "missing_parameter"
	KindInvalidParameter      ToolErrorKind = "invalid_parameter"
	KindExecutionFailed       ToolErrorKind = "execution_failed"
	KindNotFound              ToolErrorKind = "not_found"
	KindPermissionDenied      ToolErrorKind = "permission_denied"
	KindDeserializationFailed ToolErrorKind = "deserialization_failed"
)

// ToolError is a failure inside a tool handler. It is recovered by the
// server and surfaced to the agent as a tool-level error result, never
// as a transport fault.
type ToolError struct {
	Kind    ToolErrorKind
	Message string
	Err     error
}

func (e *ToolError) Error() string {
	return e.Message
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// MissingParameter reports a required parameter that was not supplied.
func MissingParameter(name string) *ToolError {
	return &ToolError{
		Kind:    KindMissingParameter,
		Message: fmt.Sprintf("missing required parameter: %s", name),
	}
}

// InvalidParameter reports a parameter that was supplied but unusable.
func InvalidParameter(name, reason string) *ToolError {
	return &ToolError{
		Kind:    KindInvalidParameter,
		Message: fmt.Sprintf("invalid parameter '%s': %s", name, reason),
	}
}

// ExecutionFailed reports a handler that ran but could not complete.
func ExecutionFailed(msg string) *ToolError {
	return &ToolError{
		Kind:    KindExecutionFailed,
		Message: fmt.Sprintf("execution failed: %s", msg),
	}
}

// NotFound reports a resource the handler could not locate.
func NotFound(msg string) *ToolError {
	return &ToolError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("not found: %s", msg),
	}
}

// PermissionDenied reports an operation the handler refused.
func PermissionDenied(msg string) *ToolError {
	return &ToolError{
		Kind:    KindPermissionDenied,
		Message: fmt.Sprintf("permission denied: %s", msg),
	}
}

// WrapError wraps an arbitrary error as an execution failure.
func WrapError(err error) *ToolError {
	return &ToolError{
		Kind:    KindExecutionFailed,
		Message: fmt.Sprintf("execution failed: %s", err),
		Err:     err,
	}
}

// ToolInput holds a tool call's arguments as a generic JSON object
// with typed accessors.
type ToolInput struct {
	values map[string]any
}

// NewToolInput wraps an argument map. A nil map yields an empty input.
func NewToolInput(values map[string]any) ToolInput {
	if values == nil {
		values = map[string]any{}
	}
	return ToolInput{values: values}
}

// EmptyToolInput returns an input with no arguments.
func EmptyToolInput() ToolInput {
	return NewToolInput(nil)
}

// ToolInputFromJSON decodes a JSON object into a ToolInput.
func ToolInputFromJSON(raw json.RawMessage) (ToolInput, error) {
	values := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &values); err != nil {
			return ToolInput{}, err
		}
	}
	return NewToolInput(values), nil
}

// FromPairs builds an input from string key/value pairs.
func FromPairs(pairs map[string]string) ToolInput {
	values := make(map[string]any, len(pairs))
	for k, v := range pairs {
		values[k] = v
	}
	return NewToolInput(values)
}

// Get returns the raw value for key.
func (in ToolInput) Get(key string) (any, bool) {
	v, ok := in.values[key]
	return v, ok
}

// GetString returns the string value for key.
func (in ToolInput) GetString(key string) (string, bool) {
	s, ok := in.values[key].(string)
	return s, ok
}

// GetInt returns the integer value for key. JSON numbers decode as
// float64; values with a fractional part do not match.
func (in ToolInput) GetInt(key string) (int64, bool) {
	f, ok := in.values[key].(float64)
	if !ok || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}

// GetFloat returns the numeric value for key.
func (in ToolInput) GetFloat(key string) (float64, bool) {
	f, ok := in.values[key].(float64)
	return f, ok
}

// GetBool returns the boolean value for key.
func (in ToolInput) GetBool(key string) (bool, bool) {
	b, ok := in.values[key].(bool)
	return b, ok
}

// GetStringList returns the value for key as a string slice. Every
// element must be a string.
func (in ToolInput) GetStringList(key string) ([]string, bool) {
	arr, ok := in.values[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, len(arr))
	for i, v := range arr {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}

// Keys returns the argument names.
func (in ToolInput) Keys() []string {
	keys := make([]string, 0, len(in.values))
	for k := range in.values {
		keys = append(keys, k)
	}
	return keys
}

// IsEmpty reports whether the input has no arguments.
func (in ToolInput) IsEmpty() bool {
	return len(in.values) == 0
}

// Set returns a copy of the input with key set to value.
func (in ToolInput) Set(key string, value any) ToolInput {
	values := make(map[string]any, len(in.values)+1)
	for k, v := range in.values {
		values[k] = v
	}
	values[key] = value
	return ToolInput{values: values}
}

// SetString sets a string argument.
func (in ToolInput) SetString(key, value string) ToolInput {
	return in.Set(key, value)
}

// SetInt sets an integer argument.
func (in ToolInput) SetInt(key string, value int64) ToolInput {
	return in.Set(key, float64(value))
}

// SetBool sets a boolean argument.
func (in ToolInput) SetBool(key string, value bool) ToolInput {
	return in.Set(key, value)
}

// Values returns the underlying argument map.
func (in ToolInput) Values() map[string]any {
	return in.values
}

// MarshalJSON encodes the argument map.
func (in ToolInput) MarshalJSON() ([]byte, error) {
	if in.values == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(in.values)
}

// UnmarshalJSON decodes a JSON object into the input.
func (in *ToolInput) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &in.values)
}

// Handler executes one tool call. The returned value becomes the
// call's content; a returned error is surfaced to the agent as a
// recoverable tool failure.
type Handler func(ctx context.Context, input ToolInput) (any, error)

// Tool describes one registered tool.
type Tool struct {
	Name         string
	Description  string
	InputSchema  json.RawMessage
	OutputSchema json.RawMessage
	Handler      Handler
}

// NewTool builds a tool descriptor.
func NewTool(name, description string, inputSchema json.RawMessage, handler Handler) Tool {
	return Tool{
		Name:        name,
		Description: description,
		InputSchema: inputSchema,
		Handler:     handler,
	}
}

// WithOutputSchema attaches an output schema to the tool.
func (t Tool) WithOutputSchema(schema json.RawMessage) Tool {
	t.OutputSchema = schema
	return t
}
