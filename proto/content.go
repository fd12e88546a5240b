// Package proto defines the wire shapes exchanged with the claude CLI
// over its stream-json protocol: content blocks, streaming messages,
// and the control request/response envelopes. One JSON value per line,
// both directions, tagged by a "type" discriminator.
package proto

import "encoding/json"

// Content block type tags.
const (
	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
	BlockThinking   = "thinking"
)

// ContentBlock is a single unit of message content, tagged by Type.
// Only the fields for the tagged variant are populated.
type ContentBlock struct {
	Type string `json:"type"`

	// Text fields (Type == "text")
	Text string `json:"text,omitempty"`

	// Tool use fields (Type == "tool_use")
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// Tool result fields (Type == "tool_result")
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	IsError   *bool           `json:"is_error,omitempty"`

	// Thinking fields (Type == "thinking")
	Thinking  string `json:"thinking,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// TextBlock builds a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// ToolUseBlock builds a tool_use content block.
func ToolUseBlock(id, name string, input json.RawMessage) ContentBlock {
	return ContentBlock{Type: BlockToolUse, ID: id, Name: name, Input: input}
}

// ToolResultBlock builds a tool_result content block.
func ToolResultBlock(toolUseID string, content json.RawMessage, isError bool) ContentBlock {
	return ContentBlock{Type: BlockToolResult, ToolUseID: toolUseID, Content: content, IsError: &isError}
}

// ThinkingBlock builds a thinking content block.
func ThinkingBlock(thinking, signature string) ContentBlock {
	return ContentBlock{Type: BlockThinking, Thinking: thinking, Signature: signature}
}

// IsToolError reports whether a tool_result block is marked as an error.
func (b ContentBlock) IsToolError() bool {
	return b.IsError != nil && *b.IsError
}
