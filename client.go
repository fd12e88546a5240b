package claudepipe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"sync"

	cache "github.com/patrickmn/go-cache"

	"claudepipe/hooks"
	"claudepipe/internal/log"
	"claudepipe/mcp"
	"claudepipe/proto"
)

// transport is the wire boundary the client drives. *Transport is the
// production implementation; tests substitute their own.
type transport interface {
	Send(msg proto.OutgoingUserMessage) error
	SendRequest(env proto.RequestEnvelope) error
	SendResponse(env proto.ResponseEnvelope) error
	Receive() (*proto.Incoming, error)
	Interrupt() error
	Close() error
	Kill() error
}

// Client is a session with the claude CLI. Messages go out over
// stdin; Receive consumes the response stream, servicing control
// traffic inline. Receive is single-consumer; the send methods are
// safe for concurrent use.
type Client struct {
	tr transport

	sessionMu sync.RWMutex
	sessionID string

	// responded tracks tool use ids already answered so a retry does
	// not produce a duplicate result block.
	responded *cache.Cache

	servers map[string]*mcp.Server
	router  *hooks.Router
}

// NewClient spawns the CLI and performs the session handshake.
func NewClient(opts Options) (*Client, error) {
	tr, err := NewTransport(opts.transportOptions())
	if err != nil {
		return nil, err
	}

	c, err := newClient(tr, opts)
	if err != nil {
		tr.Kill()
		return nil, err
	}
	return c, nil
}

func newClient(tr transport, opts Options) (*Client, error) {
	c := &Client{
		tr:        tr,
		responded: cache.New(cache.NoExpiration, cache.NoExpiration),
		servers:   opts.McpServers,
		router:    hooks.NewRouter(opts.Hooks),
	}

	// Always the first request after spawn; the hooks payload is nil
	// (and omitted on the wire) when no callbacks are registered.
	env := proto.NewRequestEnvelope(proto.InitializeRequest(c.router.InitPayload()))
	if err := tr.SendRequest(env); err != nil {
		return nil, err
	}
	log.Debug(log.CatClient, "sent initialize", "request_id", env.RequestID)
	return c, nil
}

// SessionID returns the session id reported by the CLI's init
// message, or empty before one arrives.
func (c *Client) SessionID() string {
	c.sessionMu.RLock()
	defer c.sessionMu.RUnlock()
	return c.sessionID
}

func (c *Client) setSessionID(id string) {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	if id != "" && id != c.sessionID {
		log.Info(log.CatClient, "session established", "session_id", id)
		c.sessionID = id
	}
}

// Query sends a plain text prompt.
func (c *Client) Query(text string) error {
	return c.SendMessage(proto.TextContent(text))
}

// SendMessage sends user content, text or blocks.
func (c *Client) SendMessage(content proto.UserContent) error {
	return c.tr.Send(proto.NewUserMessage(content))
}

// RespondToTool answers a pending tool use with a result block. A
// second response for the same tool use id is dropped.
func (c *Client) RespondToTool(toolUseID string, content json.RawMessage, isError bool) error {
	if _, seen := c.responded.Get(toolUseID); seen {
		log.Debug(log.CatClient, "duplicate tool response dropped", "tool_use_id", toolUseID)
		return nil
	}

	block := proto.ToolResultBlock(toolUseID, content, isError)
	if err := c.SendMessage(proto.BlocksContent([]proto.ContentBlock{block})); err != nil {
		return err
	}
	c.responded.Set(toolUseID, true, cache.NoExpiration)
	return nil
}

// ClearToolResponses forgets which tool uses have been answered,
// allowing responses to repeated ids in a fresh exchange.
func (c *Client) ClearToolResponses() {
	c.responded.Flush()
}

// Interrupt asks the CLI to stop the in-flight turn.
func (c *Client) Interrupt() error {
	return c.tr.Interrupt()
}

// SetPermissionMode switches the CLI's tool permission flow.
func (c *Client) SetPermissionMode(mode proto.PermissionMode) error {
	return c.tr.SendRequest(proto.NewRequestEnvelope(proto.SetPermissionModeRequest(mode)))
}

// SetModel switches the session's model.
func (c *Client) SetModel(model Model) error {
	return c.tr.SendRequest(proto.NewRequestEnvelope(proto.SetModelRequest(model.String())))
}

// GetServerInfo queries the CLI for its version and capabilities.
// The stream is read until the matching response arrives, so call it
// only between turns.
func (c *Client) GetServerInfo(ctx context.Context) (*proto.ServerInfo, error) {
	env := proto.NewRequestEnvelope(proto.GetServerInfoRequest())
	if err := c.tr.SendRequest(env); err != nil {
		return nil, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		msg, err := c.tr.Receive()
		if errors.Is(err, io.EOF) {
			return nil, &ProcessError{Msg: "stream ended before server info response"}
		}
		if err != nil {
			return nil, err
		}

		resp := msg.AsControlResponse()
		if resp == nil || resp.Response.RequestID != env.RequestID {
			continue
		}

		body := resp.Response
		if !body.IsSuccess() {
			message := "unknown error"
			if body.Error != nil {
				message = body.Error.Message
			}
			return nil, &ControlError{RequestID: body.RequestID, Message: message}
		}
		if len(body.Response) == 0 {
			return nil, &ProtocolError{Msg: "empty response to get_server_info"}
		}

		var info proto.ServerInfo
		if err := json.Unmarshal(body.Response, &info); err != nil {
			return nil, &ProtocolError{Msg: "decoding server info", Err: err}
		}
		return &info, nil
	}
}

// Receive yields events from the CLI until the turn completes, the
// stream ends, or ctx is done. Control requests arriving interleaved
// with content are serviced inline and do not surface as events.
func (c *Client) Receive(ctx context.Context) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for {
			if err := ctx.Err(); err != nil {
				yield(Event{}, err)
				return
			}

			msg, err := c.tr.Receive()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Event{}, err)
				return
			}

			if req := msg.AsControlRequest(); req != nil {
				c.serviceControl(ctx, req)
				continue
			}
			if msg.Type == proto.TypeControlResponse {
				continue
			}

			if msg.Type == proto.TypeSystem && msg.System.Subtype == proto.SystemInit {
				c.setSessionID(msg.System.SessionID)
			}

			for _, ev := range EventsFromIncoming(msg) {
				if !yield(ev, nil) {
					return
				}
				if ev.Kind == KindComplete {
					return
				}
			}
		}
	}
}

// ReceiveAll collects one full turn of events.
func (c *Client) ReceiveAll(ctx context.Context) (Events, error) {
	var events Events
	for ev, err := range c.Receive(ctx) {
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// serviceControl answers an inbound control request. Unrecognized
// subtypes are logged and skipped.
func (c *Client) serviceControl(ctx context.Context, req *proto.RequestEnvelope) {
	switch req.Request.Subtype {
	case proto.SubtypeMcpMessage:
		c.serviceMcpMessage(ctx, req)
	case proto.SubtypeHookCallback:
		c.serviceHookCallback(req)
	default:
		log.Debug(log.CatClient, "ignoring control request", "subtype", req.Request.Subtype)
	}
}

// serviceMcpMessage routes a jsonrpc message to the named endpoint
// and wraps its reply as {"mcp_response":...} in a success response.
// An unknown endpoint still succeeds at the control layer; the error
// travels inside the nested jsonrpc payload.
func (c *Client) serviceMcpMessage(ctx context.Context, req *proto.RequestEnvelope) {
	var reply json.RawMessage

	server, ok := c.servers[req.Request.ServerName]
	if ok {
		reply = server.HandleMessage(ctx, req.Request.Message)
	} else {
		log.Warn(log.CatClient, "mcp message for unknown server", "server", req.Request.ServerName)
		reply = unknownServerError(req.Request.ServerName)
	}

	payload, err := json.Marshal(map[string]json.RawMessage{"mcp_response": reply})
	if err != nil {
		c.sendControlResponse(proto.NewErrorResponse(req.RequestID, proto.CodeInternalError, err.Error()))
		return
	}
	c.sendControlResponse(proto.NewSuccessResponse(req.RequestID, payload))
}

func unknownServerError(name string) json.RawMessage {
	detail := map[string]any{
		"jsonrpc": "2.0",
		"id":      nil,
		"error": map[string]any{
			"code":    proto.CodeMethodNotFound,
			"message": fmt.Sprintf("MCP server '%s' not found", name),
		},
	}
	encoded, _ := json.Marshal(detail)
	return encoded
}

// serviceHookCallback runs the registered callback and returns its
// response map. Unknown ids produce an empty success.
func (c *Client) serviceHookCallback(req *proto.RequestEnvelope) {
	output := c.router.Dispatch(req.Request.CallbackID, req.Request.Input)

	payload, err := json.Marshal(output)
	if err != nil {
		c.sendControlResponse(proto.NewErrorResponse(req.RequestID, proto.CodeInternalError, err.Error()))
		return
	}
	c.sendControlResponse(proto.NewSuccessResponse(req.RequestID, payload))
}

func (c *Client) sendControlResponse(env proto.ResponseEnvelope) {
	if err := c.tr.SendResponse(env); err != nil {
		log.ErrorErr(log.CatClient, "sending control response", err,
			"request_id", env.Response.RequestID)
	}
}

// Conversation starts a turn-tracking wrapper over this client.
func (c *Client) Conversation() *Conversation {
	return NewConversation(c)
}

// Close ends the session and waits for the CLI to exit.
func (c *Client) Close() error {
	return c.tr.Close()
}

// Kill terminates the CLI immediately.
func (c *Client) Kill() error {
	return c.tr.Kill()
}
