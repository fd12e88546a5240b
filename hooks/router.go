package hooks

import (
	"encoding/json"
	"strconv"

	"claudepipe/internal/log"
)

// Router resolves inbound hook callbacks. Ids are assigned by
// flattening the registration lists in a fixed order (pre, post,
// prompt-submit, stop) and numbering from zero; the mapping is frozen
// at construction and stays valid for the session's lifetime.
type Router struct {
	pre          []preEntry
	post         []postEntry
	promptSubmit []UserPromptSubmitFunc
	stop         []StopFunc
}

// NewRouter freezes a registration table into a router. A nil table
// yields an empty router.
func NewRouter(h *Hooks) *Router {
	r := &Router{}
	if h == nil {
		return r
	}
	r.pre = append(r.pre, h.pre...)
	r.post = append(r.post, h.post...)
	r.promptSubmit = append(r.promptSubmit, h.promptSubmit...)
	r.stop = append(r.stop, h.stop...)
	return r
}

// HasHooks reports whether any callback is registered.
func (r *Router) HasHooks() bool {
	return len(r.pre) > 0 || len(r.post) > 0 || len(r.promptSubmit) > 0 || len(r.stop) > 0
}

// InitPayload builds the hooks map for the initialize control request:
// event name to matcher entries carrying the synthetic callback ids.
// Returns nil when no callbacks are registered.
func (r *Router) InitPayload() map[string]any {
	if !r.HasHooks() {
		return nil
	}

	payload := map[string]any{}
	id := 0

	if len(r.pre) > 0 {
		entries := make([]map[string]any, len(r.pre))
		for i, e := range r.pre {
			entries[i] = matcherEntry(e.pattern, id)
			id++
		}
		payload[EventPreToolUse] = entries
	}

	if len(r.post) > 0 {
		entries := make([]map[string]any, len(r.post))
		for i, e := range r.post {
			entries[i] = matcherEntry(e.pattern, id)
			id++
		}
		payload[EventPostToolUse] = entries
	}

	if len(r.promptSubmit) > 0 {
		entries := make([]map[string]any, len(r.promptSubmit))
		for i := range r.promptSubmit {
			entries[i] = matcherEntry("", id)
			id++
		}
		payload[EventUserPromptSubmit] = entries
	}

	if len(r.stop) > 0 {
		entries := make([]map[string]any, len(r.stop))
		for i := range r.stop {
			entries[i] = matcherEntry("", id)
			id++
		}
		payload[EventStop] = entries
	}

	return payload
}

func matcherEntry(pattern string, id int) map[string]any {
	entry := map[string]any{
		"hookCallbackIds": []string{strconv.Itoa(id)},
	}
	if pattern != "" {
		entry["matcher"] = pattern
	}
	return entry
}

// Dispatch resolves callbackID to its registered callback, invokes it
// with the decoded input, and returns the shaped response payload. An
// unknown id or an undecodable input yields an empty success payload,
// never an error: a stray lifecycle request must not take down the
// session.
func (r *Router) Dispatch(callbackID string, input json.RawMessage) map[string]any {
	idx, err := strconv.Atoi(callbackID)
	if err != nil || idx < 0 {
		log.Warn(log.CatHooks, "unknown callback id", "callback_id", callbackID)
		return map[string]any{}
	}

	p, q, s := len(r.pre), len(r.post), len(r.promptSubmit)
	switch {
	case idx < p:
		var in PreToolUseInput
		if !decodeInput(callbackID, input, &in) {
			return map[string]any{}
		}
		return r.pre[idx].fn(in).HookResponse()

	case idx < p+q:
		var in PostToolUseInput
		if !decodeInput(callbackID, input, &in) {
			return map[string]any{}
		}
		return r.post[idx-p].fn(in).HookResponse()

	case idx < p+q+s:
		var in UserPromptSubmitInput
		if !decodeInput(callbackID, input, &in) {
			return map[string]any{}
		}
		return r.promptSubmit[idx-p-q](in).HookResponse()

	case idx < p+q+s+len(r.stop):
		var in StopInput
		if !decodeInput(callbackID, input, &in) {
			return map[string]any{}
		}
		return r.stop[idx-p-q-s](in).HookResponse()

	default:
		log.Warn(log.CatHooks, "callback id out of range", "callback_id", callbackID)
		return map[string]any{}
	}
}

func decodeInput(callbackID string, input json.RawMessage, v any) bool {
	if len(input) == 0 {
		return true
	}
	if err := json.Unmarshal(input, v); err != nil {
		log.ErrorErr(log.CatHooks, "undecodable hook input", err, "callback_id", callbackID)
		return false
	}
	return true
}
