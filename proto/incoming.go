package proto

import (
	"encoding/json"
	"fmt"
)

// Top-level message type tags.
const (
	TypeUser            = "user"
	TypeAssistant       = "assistant"
	TypeSystem          = "system"
	TypeResult          = "result"
	TypeControlRequest  = "control_request"
	TypeControlResponse = "control_response"
)

// Incoming is one decoded line from the CLI, tagged by Type. Exactly
// one of the payload pointers is set.
type Incoming struct {
	Type string

	User            *UserEnvelope
	Assistant       *AssistantEnvelope
	System          *SystemMessage
	Result          *ResultMessage
	ControlRequest  *RequestEnvelope
	ControlResponse *ResponseEnvelope
}

// UnmarshalJSON decodes a line into the variant named by its type tag.
func (in *Incoming) UnmarshalJSON(data []byte) error {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}

	in.Type = tag.Type
	switch tag.Type {
	case TypeUser:
		in.User = &UserEnvelope{}
		return json.Unmarshal(data, in.User)
	case TypeAssistant:
		in.Assistant = &AssistantEnvelope{}
		return json.Unmarshal(data, in.Assistant)
	case TypeSystem:
		in.System = &SystemMessage{}
		return json.Unmarshal(data, in.System)
	case TypeResult:
		in.Result = &ResultMessage{}
		return json.Unmarshal(data, in.Result)
	case TypeControlRequest:
		in.ControlRequest = &RequestEnvelope{}
		return json.Unmarshal(data, in.ControlRequest)
	case TypeControlResponse:
		in.ControlResponse = &ResponseEnvelope{}
		return json.Unmarshal(data, in.ControlResponse)
	default:
		return fmt.Errorf("unknown message type %q", tag.Type)
	}
}

// ParseIncoming decodes one wire line.
func ParseIncoming(line []byte) (*Incoming, error) {
	var in Incoming
	if err := json.Unmarshal(line, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// AsControlRequest returns the control request envelope, or nil.
func (in *Incoming) AsControlRequest() *RequestEnvelope {
	if in.Type != TypeControlRequest {
		return nil
	}
	return in.ControlRequest
}

// AsControlResponse returns the control response envelope, or nil.
func (in *Incoming) AsControlResponse() *ResponseEnvelope {
	if in.Type != TypeControlResponse {
		return nil
	}
	return in.ControlResponse
}

// Message returns the assistant message body, or nil for other types.
func (in *Incoming) Message() *AssistantMessage {
	if in.Type != TypeAssistant {
		return nil
	}
	return &in.Assistant.Message
}

// IsStreaming reports whether the line is a data-channel message
// rather than control traffic.
func (in *Incoming) IsStreaming() bool {
	switch in.Type {
	case TypeUser, TypeAssistant, TypeSystem, TypeResult:
		return true
	default:
		return false
	}
}
