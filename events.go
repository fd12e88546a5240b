package claudepipe

import (
	"claudepipe/proto"
)

// EventKind tags what an Event carries.
type EventKind string

const (
	KindText       EventKind = "text"
	KindToolUse    EventKind = "tool_use"
	KindToolResult EventKind = "tool_result"
	KindThinking   EventKind = "thinking"
	KindInit       EventKind = "init"
	KindError      EventKind = "error"
	KindComplete   EventKind = "complete"
)

// Event is one item of streamed session output. Exactly one of the
// payload fields matching Kind is set.
type Event struct {
	Kind EventKind

	// Block is set for text, tool_use, tool_result and thinking.
	Block *proto.ContentBlock

	// Init is set for init.
	Init *proto.SystemMessage

	// Err is set for error.
	Err *EventError

	// Result is set for complete.
	Result *proto.ResultMessage
}

// EventError is a session-level failure reported in the stream. At
// most one of System and Assistant is set.
type EventError struct {
	System    string
	Assistant proto.AssistantError
}

func (e *EventError) Message() string {
	if e.System != "" {
		return e.System
	}
	return e.Assistant.String()
}

// EventsFromIncoming converts one streamed message into its events.
// Control messages and unrecognized assistant blocks yield nothing.
func EventsFromIncoming(msg *proto.Incoming) []Event {
	switch msg.Type {
	case proto.TypeAssistant:
		am := msg.Assistant.Message
		if am.Error != "" {
			return []Event{{Kind: KindError, Err: &EventError{Assistant: am.Error}}}
		}
		var events []Event
		for i := range am.Content {
			block := &am.Content[i]
			switch block.Type {
			case proto.BlockText:
				events = append(events, Event{Kind: KindText, Block: block})
			case proto.BlockToolUse:
				events = append(events, Event{Kind: KindToolUse, Block: block})
			case proto.BlockToolResult:
				events = append(events, Event{Kind: KindToolResult, Block: block})
			case proto.BlockThinking:
				events = append(events, Event{Kind: KindThinking, Block: block})
			}
		}
		return events

	case proto.TypeSystem:
		sys := msg.System
		switch sys.Subtype {
		case proto.SystemInit:
			return []Event{{Kind: KindInit, Init: sys}}
		case proto.SystemError:
			return []Event{{Kind: KindError, Err: &EventError{System: sys.Error}}}
		}
		return nil

	case proto.TypeResult:
		return []Event{{Kind: KindComplete, Result: msg.Result}}
	}
	return nil
}

// Events is a collected sequence of session events with accessors
// over the common shapes.
type Events []Event

// TextContent concatenates all text blocks in order.
func (evs Events) TextContent() string {
	var out string
	for _, ev := range evs {
		if ev.Kind == KindText {
			out += ev.Block.Text
		}
	}
	return out
}

// ThinkingContent concatenates all thinking blocks in order.
func (evs Events) ThinkingContent() string {
	var out string
	for _, ev := range evs {
		if ev.Kind == KindThinking {
			out += ev.Block.Thinking
		}
	}
	return out
}

// ToolUses returns the tool use blocks in order.
func (evs Events) ToolUses() []*proto.ContentBlock {
	var uses []*proto.ContentBlock
	for _, ev := range evs {
		if ev.Kind == KindToolUse {
			uses = append(uses, ev.Block)
		}
	}
	return uses
}

// Completion returns the final result message, or nil if the
// sequence has none.
func (evs Events) Completion() *proto.ResultMessage {
	for _, ev := range evs {
		if ev.Kind == KindComplete {
			return ev.Result
		}
	}
	return nil
}

// Init returns the session init message, or nil.
func (evs Events) Init() *proto.SystemMessage {
	for _, ev := range evs {
		if ev.Kind == KindInit {
			return ev.Init
		}
	}
	return nil
}

// HasError reports whether any error event occurred.
func (evs Events) HasError() bool {
	return evs.FirstError() != nil
}

// FirstError returns the first error event's payload, or nil.
func (evs Events) FirstError() *EventError {
	for _, ev := range evs {
		if ev.Kind == KindError {
			return ev.Err
		}
	}
	return nil
}
