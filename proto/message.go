package proto

import "encoding/json"

// UserContent is a user message body: either a plain string or a list
// of content blocks. It marshals to whichever form is populated.
type UserContent struct {
	Text   string
	Blocks []ContentBlock
}

// TextContent wraps a plain string as user content.
func TextContent(text string) UserContent {
	return UserContent{Text: text}
}

// BlocksContent wraps content blocks as user content.
func BlocksContent(blocks []ContentBlock) UserContent {
	return UserContent{Blocks: blocks}
}

// MarshalJSON encodes the blocks form when present, the string form
// otherwise.
func (c UserContent) MarshalJSON() ([]byte, error) {
	if c.Blocks != nil {
		return json.Marshal(c.Blocks)
	}
	return json.Marshal(c.Text)
}

// UnmarshalJSON decodes either a JSON string or a block array.
func (c *UserContent) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &c.Blocks)
	}
	return json.Unmarshal(data, &c.Text)
}

// UserEnvelope is an inbound user echo message.
type UserEnvelope struct {
	Message UserMessage `json:"message"`
}

// UserMessage is the body of a user envelope.
type UserMessage struct {
	Content UserContent `json:"content"`
}

// AssistantEnvelope is an inbound assistant message.
type AssistantEnvelope struct {
	Message AssistantMessage `json:"message"`
}

// AssistantMessage carries the assistant's content blocks.
type AssistantMessage struct {
	Content []ContentBlock `json:"content"`
	Model   string         `json:"model,omitempty"`
	Error   AssistantError `json:"error,omitempty"`
}

// AssistantError classifies an assistant-level failure reported in
// place of content.
type AssistantError string

const (
	ErrAuthenticationFailed AssistantError = "authentication_failed"
	ErrBillingError         AssistantError = "billing_error"
	ErrRateLimit            AssistantError = "rate_limit"
	ErrInvalidRequest       AssistantError = "invalid_request"
	ErrServerError          AssistantError = "server_error"
	ErrUnknown              AssistantError = "unknown"
)

func (e AssistantError) String() string {
	switch e {
	case ErrAuthenticationFailed:
		return "authentication failed"
	case ErrBillingError:
		return "billing error"
	case ErrRateLimit:
		return "rate limit exceeded"
	case ErrInvalidRequest:
		return "invalid request"
	case ErrServerError:
		return "server error"
	default:
		return "unknown error"
	}
}

// System message subtypes.
const (
	SystemInit  = "init"
	SystemError = "error"
)

// SystemMessage is an inbound system message: subtype init carries
// session details, subtype error carries an error string.
type SystemMessage struct {
	Subtype string `json:"subtype"`

	// Init fields (Subtype == "init")
	SessionID string `json:"session_id,omitempty"`
	Model     string `json:"model,omitempty"`
	WorkDir   string `json:"cwd,omitempty"`

	// Error fields (Subtype == "error")
	Error string `json:"error,omitempty"`
}

// ResultMessage is the terminal message of a session run.
type ResultMessage struct {
	Subtype          string          `json:"subtype"`
	DurationMs       int64           `json:"duration_ms"`
	DurationAPIMs    int64           `json:"duration_api_ms"`
	IsError          bool            `json:"is_error"`
	NumTurns         int             `json:"num_turns"`
	SessionID        string          `json:"session_id"`
	TotalCostUSD     *float64        `json:"total_cost_usd,omitempty"`
	Usage            *Usage          `json:"usage,omitempty"`
	Result           string          `json:"result,omitempty"`
	StructuredOutput json.RawMessage `json:"structured_output,omitempty"`
}

// Usage holds token accounting from a result message.
type Usage struct {
	InputTokens              int64 `json:"input_tokens,omitempty"`
	OutputTokens             int64 `json:"output_tokens,omitempty"`
	TotalTokens              int64 `json:"total_tokens,omitempty"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens,omitempty"`
}

// OutgoingUserMessage is the host-to-CLI content message:
// {"type":"user","message":{"role":"user","content":...}}.
type OutgoingUserMessage struct {
	Type    string           `json:"type"`
	Message OutgoingUserBody `json:"message"`
}

// OutgoingUserBody is the body of an outgoing user message.
type OutgoingUserBody struct {
	Role    string      `json:"role"`
	Content UserContent `json:"content"`
}

// NewUserMessage wraps content into the outgoing user message shape.
func NewUserMessage(content UserContent) OutgoingUserMessage {
	return OutgoingUserMessage{
		Type:    TypeUser,
		Message: OutgoingUserBody{Role: "user", Content: content},
	}
}
