package claudepipe

import (
	"claudepipe/mcp"
	"claudepipe/proto"
)

// PermissionMode selects how the CLI gates tool use.
type PermissionMode = proto.PermissionMode

// PermissionRule is a persistent permission suggestion the CLI may
// offer alongside a tool use.
type PermissionRule struct {
	ToolName string `json:"tool_name"`
	Rule     string `json:"rule,omitempty"`
}

// PermissionContext describes a tool use awaiting a permission
// decision.
type PermissionContext struct {
	ToolName       string           `json:"tool_name"`
	Input          mcp.ToolInput    `json:"input"`
	SuggestedRules []PermissionRule `json:"suggested_rules,omitempty"`
}

// PermissionBehavior is the outcome of a permission decision.
type PermissionBehavior string

const (
	PermissionAllow PermissionBehavior = "allow"
	PermissionDeny  PermissionBehavior = "deny"
)

// PermissionDecision resolves a PermissionContext. Allow may amend
// the tool input; Deny carries a message for the model.
type PermissionDecision struct {
	Behavior     PermissionBehavior `json:"behavior"`
	UpdatedInput *mcp.ToolInput     `json:"updatedInput,omitempty"`
	Message      string             `json:"message,omitempty"`
}

// AllowTool permits the tool use unchanged.
func AllowTool() PermissionDecision {
	return PermissionDecision{Behavior: PermissionAllow}
}

// AllowToolWithInput permits the tool use with amended input.
func AllowToolWithInput(input mcp.ToolInput) PermissionDecision {
	return PermissionDecision{Behavior: PermissionAllow, UpdatedInput: &input}
}

// DenyTool rejects the tool use with an explanation.
func DenyTool(message string) PermissionDecision {
	return PermissionDecision{Behavior: PermissionDeny, Message: message}
}
