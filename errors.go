package claudepipe

import "fmt"

// CLINotFoundError reports that the claude CLI executable could not be
// located or started.
type CLINotFoundError struct {
	Path string
	Err  error
}

func (e *CLINotFoundError) Error() string {
	return fmt.Sprintf("claude CLI not found: %s: %v; make sure 'claude' is installed and authenticated", e.Path, e.Err)
}

func (e *CLINotFoundError) Unwrap() error {
	return e.Err
}

// ProcessError reports a pipe that closed unexpectedly or the CLI
// exiting mid-exchange. Fatal for subsequent sends.
type ProcessError struct {
	Msg string
	Err error
}

func (e *ProcessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("process error: %s: %v", e.Msg, e.Err)
	}
	return "process error: " + e.Msg
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a line that did not decode as a known shape,
// or a control success payload missing expected fields. Terminates the
// receive loop.
type ProtocolError struct {
	Msg string
	Err error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Msg, e.Err)
	}
	return "protocol error: " + e.Msg
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// ControlError reports an error outcome the CLI returned for a
// host-initiated control request. Not fatal to the session.
type ControlError struct {
	RequestID string
	Message   string
}

func (e *ControlError) Error() string {
	return fmt.Sprintf("control error (request_id=%s): %s", e.RequestID, e.Message)
}
