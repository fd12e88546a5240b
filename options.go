package claudepipe

import (
	"fmt"
	"sort"

	"claudepipe/hooks"
	"claudepipe/mcp"
	"claudepipe/proto"
)

const defaultMaxThinkingTokens = 8000

// Options configures a client session.
type Options struct {
	// AllowedTools and DisallowedTools gate which tools the CLI may
	// use. Tools served by registered endpoints are allowed
	// automatically.
	AllowedTools    []string
	DisallowedTools []string

	// SystemPrompt replaces the CLI's system prompt;
	// AppendSystemPrompt extends it.
	SystemPrompt       string
	AppendSystemPrompt string

	// PermissionMode selects the CLI's tool permission flow.
	PermissionMode proto.PermissionMode

	// Model and FallbackModel select the models for the session.
	Model         Model
	FallbackModel Model

	// MaxThinkingTokens caps the reasoning budget per turn.
	MaxThinkingTokens int

	// Debug enables the CLI's --debug output.
	Debug bool

	// WorkDir is the CLI's working directory.
	WorkDir string

	// Env holds extra environment variables for the CLI process.
	Env map[string]string

	// MaxBudgetUSD caps the session's spend. Zero means no cap.
	MaxBudgetUSD float64

	// JSONSchema is a raw JSON schema string for structured output.
	JSONSchema string

	// McpServers are in-process tool endpoints, by name.
	McpServers map[string]*mcp.Server

	// Agents are subagent definitions, by name.
	Agents map[string]Agent

	// Hooks are lifecycle callback registrations.
	Hooks *hooks.Hooks
}

// NewOptions returns options with defaults applied.
func NewOptions() Options {
	return Options{MaxThinkingTokens: defaultMaxThinkingTokens}
}

// WithAllowedTools sets the tool allow list.
func (o Options) WithAllowedTools(tools ...string) Options {
	o.AllowedTools = tools
	return o
}

// WithDisallowedTools sets the tool deny list.
func (o Options) WithDisallowedTools(tools ...string) Options {
	o.DisallowedTools = tools
	return o
}

// WithSystemPrompt replaces the system prompt.
func (o Options) WithSystemPrompt(prompt string) Options {
	o.SystemPrompt = prompt
	return o
}

// WithAppendSystemPrompt extends the system prompt.
func (o Options) WithAppendSystemPrompt(prompt string) Options {
	o.AppendSystemPrompt = prompt
	return o
}

// WithPermissionMode sets the permission mode.
func (o Options) WithPermissionMode(mode proto.PermissionMode) Options {
	o.PermissionMode = mode
	return o
}

// WithModel sets the model.
func (o Options) WithModel(model Model) Options {
	o.Model = model
	return o
}

// WithFallbackModel sets the fallback model.
func (o Options) WithFallbackModel(model Model) Options {
	o.FallbackModel = model
	return o
}

// WithMaxThinkingTokens caps the reasoning budget. Values below one
// are clamped.
func (o Options) WithMaxThinkingTokens(tokens int) Options {
	if tokens < 1 {
		tokens = 1
	}
	o.MaxThinkingTokens = tokens
	return o
}

// WithDebug toggles CLI debug output.
func (o Options) WithDebug(enabled bool) Options {
	o.Debug = enabled
	return o
}

// WithWorkDir sets the CLI's working directory.
func (o Options) WithWorkDir(dir string) Options {
	o.WorkDir = dir
	return o
}

// WithEnv adds an environment variable for the CLI process.
func (o Options) WithEnv(key, value string) Options {
	env := make(map[string]string, len(o.Env)+1)
	for k, v := range o.Env {
		env[k] = v
	}
	env[key] = value
	o.Env = env
	return o
}

// WithMaxBudgetUSD caps the session's spend.
func (o Options) WithMaxBudgetUSD(budget float64) Options {
	o.MaxBudgetUSD = budget
	return o
}

// WithJSONSchema sets the raw JSON schema for structured output.
func (o Options) WithJSONSchema(schema string) Options {
	o.JSONSchema = schema
	return o
}

// WithMcpServer registers an in-process tool endpoint under name.
func (o Options) WithMcpServer(name string, server *mcp.Server) Options {
	servers := make(map[string]*mcp.Server, len(o.McpServers)+1)
	for k, v := range o.McpServers {
		servers[k] = v
	}
	servers[name] = server
	o.McpServers = servers
	return o
}

// WithAgent registers a subagent definition under name.
func (o Options) WithAgent(name string, agent Agent) Options {
	agents := make(map[string]Agent, len(o.Agents)+1)
	for k, v := range o.Agents {
		agents[k] = v
	}
	agents[name] = agent
	o.Agents = agents
	return o
}

// WithHooks sets the lifecycle callback registrations.
func (o Options) WithHooks(h *hooks.Hooks) Options {
	o.Hooks = h
	return o
}

// transportOptions derives the process configuration: the explicit
// allow list plus one mcp__<server>__<tool> entry per endpoint tool,
// and the registered endpoint names.
func (o Options) transportOptions() TransportOptions {
	allowed := append([]string(nil), o.AllowedTools...)

	serverNames := make([]string, 0, len(o.McpServers))
	for name := range o.McpServers {
		serverNames = append(serverNames, name)
	}
	sort.Strings(serverNames)

	for _, name := range serverNames {
		for _, tool := range o.McpServers[name].Tools() {
			allowed = append(allowed, fmt.Sprintf("mcp__%s__%s", name, tool.Name))
		}
	}

	return TransportOptions{
		Debug:              o.Debug,
		SystemPrompt:       o.SystemPrompt,
		AppendSystemPrompt: o.AppendSystemPrompt,
		AllowedTools:       allowed,
		DisallowedTools:    append([]string(nil), o.DisallowedTools...),
		Model:              o.Model.String(),
		FallbackModel:      o.FallbackModel.String(),
		PermissionMode:     string(o.PermissionMode),
		MaxBudgetUSD:       o.MaxBudgetUSD,
		JSONSchema:         o.JSONSchema,
		Agents:             o.Agents,
		McpServerNames:     serverNames,
		WorkDir:            o.WorkDir,
		Env:                o.Env,
	}
}
