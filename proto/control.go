package proto

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Control request subtypes.
const (
	SubtypeInterrupt         = "interrupt"
	SubtypeCanUseTool        = "can_use_tool"
	SubtypeInitialize        = "initialize"
	SubtypeSetPermissionMode = "set_permission_mode"
	SubtypeHookCallback      = "hook_callback"
	SubtypeMcpMessage        = "mcp_message"
	SubtypeSetModel          = "set_model"
	SubtypeGetServerInfo     = "get_server_info"
)

// JSON-RPC error codes used in control error responses and nested MCP
// errors.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// PermissionMode selects how the CLI gates tool use. Values are
// camelCase on the wire.
type PermissionMode string

const (
	PermissionDefault           PermissionMode = "default"
	PermissionAcceptEdits       PermissionMode = "acceptEdits"
	PermissionPlan              PermissionMode = "plan"
	PermissionBypassPermissions PermissionMode = "bypassPermissions"
)

// ControlRequest is a control command, tagged by Subtype. Only the
// fields for the tagged variant are populated.
type ControlRequest struct {
	Subtype string `json:"subtype"`

	// can_use_tool fields
	ToolName string `json:"tool_name,omitempty"`

	// can_use_tool and hook_callback both carry an input payload
	Input json.RawMessage `json:"input,omitempty"`

	// initialize fields
	Hooks map[string]any `json:"hooks,omitempty"`

	// set_permission_mode fields
	Mode PermissionMode `json:"mode,omitempty"`

	// hook_callback fields
	CallbackID string `json:"callback_id,omitempty"`
	ToolUseID  string `json:"tool_use_id,omitempty"`

	// mcp_message fields
	ServerName string          `json:"server_name,omitempty"`
	Message    json.RawMessage `json:"message,omitempty"`

	// set_model fields
	Model string `json:"model,omitempty"`
}

// InterruptRequest builds an interrupt control request.
func InterruptRequest() ControlRequest {
	return ControlRequest{Subtype: SubtypeInterrupt}
}

// InitializeRequest builds an initialize control request. A nil hooks
// map omits the hooks field.
func InitializeRequest(hooks map[string]any) ControlRequest {
	return ControlRequest{Subtype: SubtypeInitialize, Hooks: hooks}
}

// SetPermissionModeRequest builds a set_permission_mode control request.
func SetPermissionModeRequest(mode PermissionMode) ControlRequest {
	return ControlRequest{Subtype: SubtypeSetPermissionMode, Mode: mode}
}

// SetModelRequest builds a set_model control request.
func SetModelRequest(model string) ControlRequest {
	return ControlRequest{Subtype: SubtypeSetModel, Model: model}
}

// GetServerInfoRequest builds a get_server_info control request.
func GetServerInfoRequest() ControlRequest {
	return ControlRequest{Subtype: SubtypeGetServerInfo}
}

// RequestEnvelope frames a control request:
// {"type":"control_request","request_id":...,"request":{...}}.
// Used outbound with generated ids and decoded inbound from the CLI.
type RequestEnvelope struct {
	Type      string         `json:"type"`
	RequestID string         `json:"request_id"`
	Request   ControlRequest `json:"request"`
}

// NewRequestEnvelope wraps a request with a fresh time-ordered
// correlation id.
func NewRequestEnvelope(req ControlRequest) RequestEnvelope {
	return NewRequestEnvelopeWithID(uuid.Must(uuid.NewV7()).String(), req)
}

// NewRequestEnvelopeWithID wraps a request with an explicit id. An
// empty id marks a fire-and-forget request.
func NewRequestEnvelopeWithID(requestID string, req ControlRequest) RequestEnvelope {
	return RequestEnvelope{
		Type:      TypeControlRequest,
		RequestID: requestID,
		Request:   req,
	}
}

// Control response outcome subtypes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// ControlResponse is the body of a control response envelope: success
// with an optional payload, or error with a detail.
type ControlResponse struct {
	Subtype   string          `json:"subtype"`
	RequestID string          `json:"request_id"`
	Response  json.RawMessage `json:"response,omitempty"`
	Error     *ErrorDetail    `json:"error,omitempty"`
}

// IsSuccess reports whether the response carries a success outcome.
func (r ControlResponse) IsSuccess() bool {
	return r.Subtype == OutcomeSuccess
}

// ErrorDetail is a JSON-RPC style error: code, message, optional data.
type ErrorDetail struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ResponseEnvelope frames a control response:
// {"type":"control_response","response":{...}}.
type ResponseEnvelope struct {
	Type     string          `json:"type"`
	Response ControlResponse `json:"response"`
}

// NewSuccessResponse builds a success envelope. A nil payload omits
// the response field.
func NewSuccessResponse(requestID string, payload json.RawMessage) ResponseEnvelope {
	return ResponseEnvelope{
		Type: TypeControlResponse,
		Response: ControlResponse{
			Subtype:   OutcomeSuccess,
			RequestID: requestID,
			Response:  payload,
		},
	}
}

// NewErrorResponse builds an error envelope.
func NewErrorResponse(requestID string, code int, message string) ResponseEnvelope {
	return ResponseEnvelope{
		Type: TypeControlResponse,
		Response: ControlResponse{
			Subtype:   OutcomeError,
			RequestID: requestID,
			Error:     &ErrorDetail{Code: code, Message: message},
		},
	}
}

// ServerInfo describes the CLI's capabilities as reported by
// get_server_info. Field names are camelCase on the wire.
type ServerInfo struct {
	Version      string   `json:"version"`
	Capabilities []string `json:"capabilities,omitempty"`
	Commands     []string `json:"commands,omitempty"`
	OutputStyles []string `json:"outputStyles,omitempty"`
}
