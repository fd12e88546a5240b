// Package hooks lets host code intercept lifecycle events of the
// claude CLI: before and after a tool runs, on prompt submission, and
// on session stop. Registered callbacks are assigned stable synthetic
// ids communicated to the CLI at session start; inbound hook_callback
// requests are routed back to the matching callback and its decision
// is shaped into the response JSON the event expects.
package hooks

import (
	"encoding/json"

	"claudepipe/mcp"
)

// Hook event names as sent to the CLI.
const (
	EventPreToolUse       = "PreToolUse"
	EventPostToolUse      = "PostToolUse"
	EventUserPromptSubmit = "UserPromptSubmit"
	EventStop             = "Stop"
)

// Decision is a hook callback's verdict. The zero value passes.
type Decision string

const (
	DecisionAllow    Decision = "allow"
	DecisionDeny     Decision = "deny"
	DecisionAsk      Decision = "ask"
	DecisionBlock    Decision = "block"
	DecisionContinue Decision = "continue"
)

// PreToolUseInput is delivered before a tool runs.
type PreToolUseInput struct {
	SessionID      string        `json:"session_id"`
	TranscriptPath string        `json:"transcript_path"`
	ToolName       string        `json:"tool_name"`
	ToolInput      mcp.ToolInput `json:"tool_input"`
}

// PreToolUseOutput decides whether the tool may run. The zero value
// defers to the CLI's own permission flow.
type PreToolUseOutput struct {
	Decision     Decision
	Reason       string
	UpdatedInput *mcp.ToolInput
}

// Allow permits the tool call.
func Allow() PreToolUseOutput {
	return PreToolUseOutput{Decision: DecisionAllow}
}

// Deny rejects the tool call.
func Deny(reason string) PreToolUseOutput {
	return PreToolUseOutput{Decision: DecisionDeny, Reason: reason}
}

// Ask defers the tool call to the user.
func Ask(reason string) PreToolUseOutput {
	return PreToolUseOutput{Decision: DecisionAsk, Reason: reason}
}

// WithUpdatedInput replaces the tool's input before it runs.
func (o PreToolUseOutput) WithUpdatedInput(input mcp.ToolInput) PreToolUseOutput {
	o.UpdatedInput = &input
	return o
}

// HookResponse shapes the decision into the PreToolUse response JSON.
func (o PreToolUseOutput) HookResponse() map[string]any {
	specific := map[string]any{"hookEventName": EventPreToolUse}
	if o.Decision != "" {
		specific["permissionDecision"] = string(o.Decision)
	}
	if o.Reason != "" {
		specific["permissionDecisionReason"] = o.Reason
	}
	if o.UpdatedInput != nil {
		specific["updatedInput"] = o.UpdatedInput.Values()
	}
	return map[string]any{"hookSpecificOutput": specific}
}

// PostToolUseInput is delivered after a tool has run.
type PostToolUseInput struct {
	SessionID      string          `json:"session_id"`
	TranscriptPath string          `json:"transcript_path"`
	ToolName       string          `json:"tool_name"`
	ToolInput      mcp.ToolInput   `json:"tool_input"`
	ToolResponse   json.RawMessage `json:"tool_response"`
}

// PostToolUseOutput reacts to a finished tool call. The zero value
// passes.
type PostToolUseOutput struct {
	Decision          Decision
	Reason            string
	AdditionalContext string
}

// PostBlock tells the agent the tool result must not be used.
func PostBlock(reason string) PostToolUseOutput {
	return PostToolUseOutput{Decision: DecisionBlock, Reason: reason}
}

// ContinueWithContext lets the run continue with extra context
// injected for the agent.
func ContinueWithContext(context string) PostToolUseOutput {
	return PostToolUseOutput{Decision: DecisionContinue, AdditionalContext: context}
}

// HookResponse shapes the decision into the PostToolUse response JSON.
func (o PostToolUseOutput) HookResponse() map[string]any {
	out := map[string]any{}
	if o.Decision == DecisionBlock {
		out["decision"] = "block"
	}
	if o.Reason != "" {
		out["reason"] = o.Reason
	}
	specific := map[string]any{"hookEventName": EventPostToolUse}
	if o.AdditionalContext != "" {
		specific["additionalContext"] = o.AdditionalContext
	}
	out["hookSpecificOutput"] = specific
	return out
}

// UserPromptSubmitInput is delivered when the user submits a prompt.
type UserPromptSubmitInput struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	Prompt         string `json:"prompt"`
}

// UserPromptSubmitOutput reacts to a submitted prompt. The zero value
// passes.
type UserPromptSubmitOutput struct {
	Decision          Decision
	Reason            string
	AdditionalContext string
}

// PromptBlock rejects the submitted prompt.
func PromptBlock(reason string) UserPromptSubmitOutput {
	return UserPromptSubmitOutput{Decision: DecisionBlock, Reason: reason}
}

// PromptContext passes the prompt through with extra context for the
// agent.
func PromptContext(context string) UserPromptSubmitOutput {
	return UserPromptSubmitOutput{AdditionalContext: context}
}

// HookResponse shapes the decision into the UserPromptSubmit response
// JSON.
func (o UserPromptSubmitOutput) HookResponse() map[string]any {
	out := map[string]any{}
	if o.Decision == DecisionBlock {
		out["decision"] = "block"
	}
	if o.Reason != "" {
		out["reason"] = o.Reason
	}
	specific := map[string]any{"hookEventName": EventUserPromptSubmit}
	if o.AdditionalContext != "" {
		specific["additionalContext"] = o.AdditionalContext
	}
	out["hookSpecificOutput"] = specific
	return out
}

// StopInput is delivered when the agent is about to stop.
type StopInput struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	StopHookActive bool   `json:"stop_hook_active"`
}

// StopOutput reacts to the agent stopping. The zero value passes.
type StopOutput struct {
	Decision Decision
	Reason   string
}

// StopBlock keeps the agent working instead of stopping.
func StopBlock(reason string) StopOutput {
	return StopOutput{Decision: DecisionBlock, Reason: reason}
}

// HookResponse shapes the decision into the Stop response JSON.
func (o StopOutput) HookResponse() map[string]any {
	out := map[string]any{}
	if o.Decision == DecisionBlock {
		out["decision"] = "block"
	}
	if o.Reason != "" {
		out["reason"] = o.Reason
	}
	out["hookSpecificOutput"] = map[string]any{"hookEventName": EventStop}
	return out
}

// Callback signatures, one per hook kind.
type (
	PreToolUseFunc       func(PreToolUseInput) PreToolUseOutput
	PostToolUseFunc      func(PostToolUseInput) PostToolUseOutput
	UserPromptSubmitFunc func(UserPromptSubmitInput) UserPromptSubmitOutput
	StopFunc             func(StopInput) StopOutput
)

type preEntry struct {
	pattern string
	fn      PreToolUseFunc
}

type postEntry struct {
	pattern string
	fn      PostToolUseFunc
}

// Hooks collects callback registrations. Registration order is
// significant: it determines the synthetic ids assigned at session
// start.
type Hooks struct {
	pre          []preEntry
	post         []postEntry
	promptSubmit []UserPromptSubmitFunc
	stop         []StopFunc
}

// New creates an empty registration table.
func New() *Hooks {
	return &Hooks{}
}

// OnPreToolUse registers a callback invoked before tools whose name
// matches pattern run. An empty pattern matches every tool.
func (h *Hooks) OnPreToolUse(pattern string, fn PreToolUseFunc) *Hooks {
	h.pre = append(h.pre, preEntry{pattern: pattern, fn: fn})
	return h
}

// OnPostToolUse registers a callback invoked after tools whose name
// matches pattern have run. An empty pattern matches every tool.
func (h *Hooks) OnPostToolUse(pattern string, fn PostToolUseFunc) *Hooks {
	h.post = append(h.post, postEntry{pattern: pattern, fn: fn})
	return h
}

// OnUserPromptSubmit registers a callback invoked on prompt
// submission.
func (h *Hooks) OnUserPromptSubmit(fn UserPromptSubmitFunc) *Hooks {
	h.promptSubmit = append(h.promptSubmit, fn)
	return h
}

// OnStop registers a callback invoked when the agent stops.
func (h *Hooks) OnStop(fn StopFunc) *Hooks {
	h.stop = append(h.stop, fn)
	return h
}

// IsEmpty reports whether no callbacks are registered.
func (h *Hooks) IsEmpty() bool {
	return h == nil ||
		len(h.pre) == 0 && len(h.post) == 0 && len(h.promptSubmit) == 0 && len(h.stop) == 0
}
