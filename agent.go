package claudepipe

// Agent configures a custom subagent: a specialised assistant with its
// own prompt, optional model, and tool access. Agents are passed to
// the CLI via the --agents flag.
type Agent struct {
	Description string   `json:"description"`
	Prompt      string   `json:"prompt"`
	Model       string   `json:"model,omitempty"`
	Tools       []string `json:"tools,omitempty"`
}

// NewAgent creates an agent with the given description and system
// prompt.
func NewAgent(description, prompt string) Agent {
	return Agent{Description: description, Prompt: prompt}
}

// WithModel sets the model for this agent.
func (a Agent) WithModel(model Model) Agent {
	a.Model = model.String()
	return a
}

// WithTools sets the tools this agent can use.
func (a Agent) WithTools(tools ...string) Agent {
	a.Tools = tools
	return a
}
