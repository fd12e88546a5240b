package claudepipe

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildArgs_Defaults(t *testing.T) {
	args, err := buildArgs(TransportOptions{})
	require.NoError(t, err)

	require.Equal(t, []string{
		"--output-format", "stream-json", "--verbose",
		"--input-format", "stream-json",
	}, args)
}

func TestBuildArgs_FlagOrdering(t *testing.T) {
	args, err := buildArgs(TransportOptions{
		Debug:              true,
		SystemPrompt:       "be terse",
		AppendSystemPrompt: "and polite",
		AllowedTools:       []string{"Read", "Grep"},
		DisallowedTools:    []string{"Bash"},
		Model:              "claude-sonnet-4-5-20250929",
		FallbackModel:      "claude-haiku-4-5-20251001",
		PermissionMode:     "acceptEdits",
		MaxBudgetUSD:       1.5,
		JSONSchema:         `{"type":"object"}`,
		McpServerNames:     []string{"calc"},
	})
	require.NoError(t, err)

	require.Equal(t, []string{"--output-format", "stream-json", "--verbose"}, args[:3])
	require.Equal(t, []string{"--input-format", "stream-json"}, args[len(args)-2:])

	joined := strings.Join(args, " ")
	require.Contains(t, joined, "--debug")
	require.Contains(t, joined, "--system-prompt be terse")
	require.Contains(t, joined, "--append-system-prompt and polite")
	require.Contains(t, joined, "--allowedTools Read,Grep")
	require.Contains(t, joined, "--disallowedTools Bash")
	require.Contains(t, joined, "--model claude-sonnet-4-5-20250929")
	require.Contains(t, joined, "--fallback-model claude-haiku-4-5-20251001")
	require.Contains(t, joined, "--permission-mode acceptEdits")
	require.Contains(t, joined, "--max-budget-usd 1.5")
	require.Contains(t, joined, `--json-schema {"type":"object"}`)

	require.Less(t, indexOf(t, args, "--debug"), indexOf(t, args, "--system-prompt"))
	require.Less(t, indexOf(t, args, "--json-schema"), indexOf(t, args, "--mcp-config"))
}

func indexOf(t *testing.T, args []string, flag string) int {
	t.Helper()
	for i, a := range args {
		if a == flag {
			return i
		}
	}
	t.Fatalf("flag %s not present in %v", flag, args)
	return -1
}

func TestBuildArgs_BudgetFormatting(t *testing.T) {
	args, err := buildArgs(TransportOptions{MaxBudgetUSD: 0.25})
	require.NoError(t, err)
	require.Equal(t, "0.25", args[indexOf(t, args, "--max-budget-usd")+1])

	args, err = buildArgs(TransportOptions{MaxBudgetUSD: 10})
	require.NoError(t, err)
	require.Equal(t, "10", args[indexOf(t, args, "--max-budget-usd")+1])
}

func TestBuildArgs_ZeroBudgetOmitted(t *testing.T) {
	args, err := buildArgs(TransportOptions{})
	require.NoError(t, err)
	require.NotContains(t, args, "--max-budget-usd")
}

func TestBuildArgs_McpConfig(t *testing.T) {
	args, err := buildArgs(TransportOptions{McpServerNames: []string{"calc", "files"}})
	require.NoError(t, err)

	value := args[indexOf(t, args, "--mcp-config")+1]

	var config struct {
		McpServers map[string]struct {
			Type string `json:"type"`
			Name string `json:"name"`
		} `json:"mcpServers"`
	}
	require.NoError(t, json.Unmarshal([]byte(value), &config))
	require.Len(t, config.McpServers, 2)
	require.Equal(t, "sdk", config.McpServers["calc"].Type)
	require.Equal(t, "calc", config.McpServers["calc"].Name)
	require.Equal(t, "files", config.McpServers["files"].Name)
}

func TestBuildArgs_Agents(t *testing.T) {
	agent := NewAgent("reviews diffs", "You review code.").
		WithModel(ModelHaiku).
		WithTools("Read", "Grep")

	args, err := buildArgs(TransportOptions{Agents: map[string]Agent{"reviewer": agent}})
	require.NoError(t, err)

	value := args[indexOf(t, args, "--agents")+1]

	var decoded map[string]Agent
	require.NoError(t, json.Unmarshal([]byte(value), &decoded))
	require.Equal(t, "reviews diffs", decoded["reviewer"].Description)
	require.Equal(t, string(ModelHaiku), decoded["reviewer"].Model)
	require.Equal(t, []string{"Read", "Grep"}, decoded["reviewer"].Tools)
}

func TestBuildEnv(t *testing.T) {
	env := buildEnv(map[string]string{"ZED": "2", "ALPHA": "1"})

	require.Contains(t, env, "CLAUDE_CODE_ENTRYPOINT=sdk-go")

	// caller variables follow the entrypoint marker in key order
	n := len(env)
	require.Equal(t, "ALPHA=1", env[n-2])
	require.Equal(t, "ZED=2", env[n-1])
}

func readerTransport(input string, maxLine int) *Transport {
	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Buffer(make([]byte, 16), maxLine)
	return &Transport{scanner: scanner}
}

func TestTransportReceive_Line(t *testing.T) {
	tr := readerTransport(`{"type":"system","subtype":"init","session_id":"s1"}`+"\n", maxLineSize)

	msg, err := tr.Receive()
	require.NoError(t, err)
	require.Equal(t, "s1", msg.System.SessionID)

	_, err = tr.Receive()
	require.ErrorIs(t, err, io.EOF)
}

func TestTransportReceive_OversizedLine(t *testing.T) {
	tr := readerTransport(strings.Repeat("a", 256)+"\n", 64)

	_, err := tr.Receive()
	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	require.True(t, errors.Is(err, bufio.ErrTooLong))
}

func TestTransportReceive_UndecodableLine(t *testing.T) {
	tr := readerTransport("not json\n", maxLineSize)

	_, err := tr.Receive()
	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
}

func TestTransportOptions_DerivedAllowedTools(t *testing.T) {
	opts := NewOptions().
		WithAllowedTools("Read").
		WithMcpServer("calc", newCalcServer(t)).
		WithMcpServer("alpha", newCalcServer(t))

	topts := opts.transportOptions()

	require.Equal(t,
		[]string{"Read", "mcp__alpha__add", "mcp__calc__add"},
		topts.AllowedTools)
	require.Equal(t, []string{"alpha", "calc"}, topts.McpServerNames)
}
