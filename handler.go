package claudepipe

import (
	"claudepipe/proto"
)

// Handler receives session events by kind. Embed BaseHandler and
// override the methods you care about.
type Handler interface {
	OnText(text string)
	OnThinking(text string)
	OnToolUse(block *proto.ContentBlock)
	OnToolResult(block *proto.ContentBlock)
	OnInit(msg *proto.SystemMessage)
	OnError(err *EventError)
	OnComplete(result *proto.ResultMessage)
}

// BaseHandler implements Handler with no-ops.
type BaseHandler struct{}

func (BaseHandler) OnText(string)                    {}
func (BaseHandler) OnThinking(string)                {}
func (BaseHandler) OnToolUse(*proto.ContentBlock)    {}
func (BaseHandler) OnToolResult(*proto.ContentBlock) {}
func (BaseHandler) OnInit(*proto.SystemMessage)      {}
func (BaseHandler) OnError(*EventError)              {}
func (BaseHandler) OnComplete(*proto.ResultMessage)  {}

// Dispatch routes one event to the matching handler method.
func Dispatch(h Handler, ev Event) {
	switch ev.Kind {
	case KindText:
		h.OnText(ev.Block.Text)
	case KindThinking:
		h.OnThinking(ev.Block.Thinking)
	case KindToolUse:
		h.OnToolUse(ev.Block)
	case KindToolResult:
		h.OnToolResult(ev.Block)
	case KindInit:
		h.OnInit(ev.Init)
	case KindError:
		h.OnError(ev.Err)
	case KindComplete:
		h.OnComplete(ev.Result)
	}
}
