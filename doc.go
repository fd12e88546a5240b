// Package claudepipe drives the claude CLI as a subprocess over
// newline-delimited JSON. A Client owns the process and its two
// logical channels: streamed content (text, thinking, tool use,
// results) and control traffic (interrupts, mode changes, in-process
// MCP tool calls, lifecycle hooks). Conversation layers turn
// tracking on top; the mcp and hooks packages supply in-process tool
// endpoints and lifecycle callbacks.
package claudepipe
