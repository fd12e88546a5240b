package claudepipe

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"

	"claudepipe/internal/log"
	"claudepipe/proto"
)

const (
	cliBinary     = "claude"
	entrypointEnv = "CLAUDE_CODE_ENTRYPOINT=sdk-go"

	scanBufferSize = 64 * 1024
	maxLineSize    = 1024 * 1024
)

// TransportOptions is the process-level configuration derived from
// Options. It carries only what the CLI invocation needs.
type TransportOptions struct {
	Debug              bool
	SystemPrompt       string
	AppendSystemPrompt string
	AllowedTools       []string
	DisallowedTools    []string
	Model              string
	FallbackModel      string
	PermissionMode     string
	MaxBudgetUSD       float64
	JSONSchema         string
	Agents             map[string]Agent
	McpServerNames     []string
	WorkDir            string
	Env                map[string]string
}

// Transport owns the CLI child process and its newline-delimited JSON
// streams. Writes are serialized; Receive is single-consumer.
type Transport struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	scanner *bufio.Scanner

	writeMu sync.Mutex
	readMu  sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// NewTransport spawns the CLI in streaming mode and wires its pipes.
func NewTransport(opts TransportOptions) (*Transport, error) {
	args, err := buildArgs(opts)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(cliBinary, args...)
	cmd.Dir = opts.WorkDir
	cmd.Env = buildEnv(opts.Env)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &ProcessError{Msg: "opening stdin pipe", Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &ProcessError{Msg: "opening stdout pipe", Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &ProcessError{Msg: "opening stderr pipe", Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &CLINotFoundError{Path: cliBinary, Err: err}
	}

	log.Debug(log.CatTransport, "spawned CLI", "pid", cmd.Process.Pid, "args", fmt.Sprintf("%v", args))

	go drainStderr(stderr)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, scanBufferSize), maxLineSize)

	return &Transport{
		cmd:     cmd,
		stdin:   stdin,
		scanner: scanner,
	}, nil
}

// buildArgs assembles the CLI argument list. Flag order is stable:
// the stream-json output flags lead, --input-format stream-json is
// always last.
func buildArgs(opts TransportOptions) ([]string, error) {
	args := []string{"--output-format", "stream-json", "--verbose"}

	if opts.Debug {
		args = append(args, "--debug")
	}
	if opts.SystemPrompt != "" {
		args = append(args, "--system-prompt", opts.SystemPrompt)
	}
	if opts.AppendSystemPrompt != "" {
		args = append(args, "--append-system-prompt", opts.AppendSystemPrompt)
	}
	if len(opts.AllowedTools) > 0 {
		args = append(args, "--allowedTools", strings.Join(opts.AllowedTools, ","))
	}
	if len(opts.DisallowedTools) > 0 {
		args = append(args, "--disallowedTools", strings.Join(opts.DisallowedTools, ","))
	}
	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}
	if opts.FallbackModel != "" {
		args = append(args, "--fallback-model", opts.FallbackModel)
	}
	if opts.PermissionMode != "" {
		args = append(args, "--permission-mode", opts.PermissionMode)
	}
	if opts.MaxBudgetUSD > 0 {
		args = append(args, "--max-budget-usd", strconv.FormatFloat(opts.MaxBudgetUSD, 'f', -1, 64))
	}
	if opts.JSONSchema != "" {
		args = append(args, "--json-schema", opts.JSONSchema)
	}
	if len(opts.Agents) > 0 {
		encoded, err := json.Marshal(opts.Agents)
		if err != nil {
			return nil, &ProtocolError{Msg: "encoding agents", Err: err}
		}
		args = append(args, "--agents", string(encoded))
	}
	if len(opts.McpServerNames) > 0 {
		config, err := mcpConfig(opts.McpServerNames)
		if err != nil {
			return nil, &ProtocolError{Msg: "encoding mcp config", Err: err}
		}
		args = append(args, "--mcp-config", config)
	}

	args = append(args, "--input-format", "stream-json")
	return args, nil
}

// mcpConfig builds the {"mcpServers":{name:{type,name}}} flag value.
// Every entry is type "sdk": the process hosts the endpoint and the
// CLI routes calls back over the control channel.
func mcpConfig(names []string) (string, error) {
	type sdkServer struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	servers := make(map[string]sdkServer, len(names))
	for _, name := range names {
		servers[name] = sdkServer{Type: "sdk", Name: name}
	}
	encoded, err := json.Marshal(map[string]any{"mcpServers": servers})
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// buildEnv extends the inherited environment with the SDK entrypoint
// marker and any caller-supplied variables, in sorted key order.
func buildEnv(extra map[string]string) []string {
	env := append(os.Environ(), entrypointEnv)

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return env
}

func drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, scanBufferSize), maxLineSize)
	for scanner.Scan() {
		log.Debug(log.CatTransport, "cli stderr", "line", scanner.Text())
	}
}

// Send writes a user message to the CLI.
func (t *Transport) Send(msg proto.OutgoingUserMessage) error {
	return t.writeLine(msg)
}

// SendRequest writes a control request to the CLI.
func (t *Transport) SendRequest(env proto.RequestEnvelope) error {
	return t.writeLine(env)
}

// SendResponse writes a control response to the CLI.
func (t *Transport) SendResponse(env proto.ResponseEnvelope) error {
	return t.writeLine(env)
}

// Interrupt sends a fire-and-forget interrupt control request. The
// empty id marks that no reply is awaited.
func (t *Transport) Interrupt() error {
	return t.SendRequest(proto.NewRequestEnvelopeWithID("", proto.InterruptRequest()))
}

func (t *Transport) writeLine(v any) error {
	encoded, err := json.Marshal(v)
	if err != nil {
		return &ProtocolError{Msg: "encoding outgoing message", Err: err}
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if _, err := t.stdin.Write(append(encoded, '\n')); err != nil {
		return &ProcessError{Msg: "writing to CLI stdin", Err: err}
	}
	return nil
}

// Receive reads and parses the next line from the CLI. It returns
// io.EOF when the stream ends cleanly.
func (t *Transport) Receive() (*proto.Incoming, error) {
	t.readMu.Lock()
	defer t.readMu.Unlock()

	if !t.scanner.Scan() {
		err := t.scanner.Err()
		switch {
		case err == nil:
			return nil, io.EOF
		case errors.Is(err, bufio.ErrTooLong):
			// the pipe is still healthy, the line is just malformed
			return nil, &ProtocolError{Msg: "line exceeds maximum size", Err: err}
		default:
			return nil, &ProcessError{Msg: "reading from CLI stdout", Err: err}
		}
	}

	line := t.scanner.Bytes()
	msg, err := proto.ParseIncoming(line)
	if err != nil {
		return nil, &ProtocolError{Msg: fmt.Sprintf("parsing line %q", line), Err: err}
	}
	return msg, nil
}

// Close shuts the session down: stdin is closed so the CLI sees EOF,
// then the process is waited on. Safe to call more than once.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		if err := t.stdin.Close(); err != nil {
			log.Warn(log.CatTransport, "closing CLI stdin", "error", err.Error())
		}
		if err := t.cmd.Wait(); err != nil {
			t.closeErr = &ProcessError{Msg: "waiting for CLI exit", Err: err}
		}
	})
	return t.closeErr
}

// Kill terminates the CLI process without waiting for a clean exit.
func (t *Transport) Kill() error {
	if err := t.cmd.Process.Kill(); err != nil {
		return &ProcessError{Msg: "killing CLI process", Err: err}
	}
	return nil
}
