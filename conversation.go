package claudepipe

import (
	"context"
	"encoding/json"

	"claudepipe/internal/log"
	"claudepipe/proto"
)

// Turn is one prompt and the events it produced.
type Turn struct {
	Prompt string
	Events Events
}

// Conversation wraps a client with per-turn history. It is not safe
// for concurrent use; run one turn at a time.
type Conversation struct {
	client  *Client
	history []Turn
}

// NewConversation wraps a client.
func NewConversation(c *Client) *Conversation {
	return &Conversation{client: c}
}

// Client returns the underlying client.
func (cv *Conversation) Client() *Client {
	return cv.client
}

// TurnBuilder configures one turn before sending. Callbacks fire as
// events arrive; Collect controls whether the turn retains them.
type TurnBuilder struct {
	cv         *Conversation
	prompt     string
	onText     func(text string)
	onThinking func(text string)
	onToolUse  func(block *proto.ContentBlock)
	collect    bool
}

// Turn starts building a turn for the given prompt. Events are
// collected unless Collect(false) is called.
func (cv *Conversation) Turn(prompt string) *TurnBuilder {
	return &TurnBuilder{cv: cv, prompt: prompt, collect: true}
}

// OnText registers a callback for streamed text.
func (tb *TurnBuilder) OnText(fn func(text string)) *TurnBuilder {
	tb.onText = fn
	return tb
}

// OnThinking registers a callback for streamed reasoning.
func (tb *TurnBuilder) OnThinking(fn func(text string)) *TurnBuilder {
	tb.onThinking = fn
	return tb
}

// OnToolUse registers a callback for tool use blocks.
func (tb *TurnBuilder) OnToolUse(fn func(block *proto.ContentBlock)) *TurnBuilder {
	tb.onToolUse = fn
	return tb
}

// Collect controls whether events are retained on the recorded turn.
func (tb *TurnBuilder) Collect(collect bool) *TurnBuilder {
	tb.collect = collect
	return tb
}

// Send emits the prompt and drives the stream to completion,
// firing callbacks in arrival order. The turn is recorded in history
// even when collection is off.
func (tb *TurnBuilder) Send(ctx context.Context) (Events, error) {
	cv := tb.cv
	if err := cv.client.Query(tb.prompt); err != nil {
		return nil, err
	}

	log.Debug(log.CatConv, "turn started", "prompt_len", len(tb.prompt))

	turn := Turn{Prompt: tb.prompt}
	completed := false

	for ev, err := range cv.client.Receive(ctx) {
		if err != nil {
			return nil, err
		}

		switch ev.Kind {
		case KindText:
			if tb.onText != nil {
				tb.onText(ev.Block.Text)
			}
		case KindThinking:
			if tb.onThinking != nil {
				tb.onThinking(ev.Block.Thinking)
			}
		case KindToolUse:
			if tb.onToolUse != nil {
				tb.onToolUse(ev.Block)
			}
		case KindComplete:
			completed = true
		}

		if tb.collect {
			turn.Events = append(turn.Events, ev)
		}
	}

	if !completed {
		return nil, &ProtocolError{Msg: "no completion response"}
	}

	cv.history = append(cv.history, turn)
	return turn.Events, nil
}

// Send runs one full turn and returns its events.
func (cv *Conversation) Send(ctx context.Context, prompt string) (Events, error) {
	return cv.Turn(prompt).Send(ctx)
}

// SendText runs a turn and returns the concatenated text reply.
func (cv *Conversation) SendText(ctx context.Context, prompt string) (string, error) {
	events, err := cv.Send(ctx, prompt)
	if err != nil {
		return "", err
	}
	return events.TextContent(), nil
}

// Say is shorthand for SendText.
func (cv *Conversation) Say(ctx context.Context, prompt string) (string, error) {
	return cv.SendText(ctx, prompt)
}

// SendInto runs a turn and decodes its structured output into out.
// The session must be configured with a JSON schema.
func (cv *Conversation) SendInto(ctx context.Context, prompt string, out any) error {
	events, err := cv.Send(ctx, prompt)
	if err != nil {
		return err
	}

	completion := events.Completion()
	if completion == nil || len(completion.StructuredOutput) == 0 {
		return &ProtocolError{Msg: "no structured output in response"}
	}
	if err := json.Unmarshal(completion.StructuredOutput, out); err != nil {
		return &ProtocolError{Msg: "decoding structured output", Err: err}
	}
	return nil
}

// History returns the recorded turns, oldest first.
func (cv *Conversation) History() []Turn {
	return cv.history
}

// Last returns the most recent turn, or nil.
func (cv *Conversation) Last() *Turn {
	if len(cv.history) == 0 {
		return nil
	}
	return &cv.history[len(cv.history)-1]
}

// ClearHistory drops recorded turns. The CLI session keeps its own
// context regardless.
func (cv *Conversation) ClearHistory() {
	cv.history = nil
}
