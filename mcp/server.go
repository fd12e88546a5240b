package mcp

import (
	"context"
	"encoding/json"

	"claudepipe/internal/log"
)

const (
	defaultVersion  = "1.0.0"
	protocolVersion = "2024-11-05"
)

// Server answers the tool endpoint protocol for one named endpoint.
// Tools keep their registration order; lookup by name is constant-time.
type Server struct {
	name    string
	version string
	tools   []Tool
	byName  map[string]int
}

// NewServer creates a server with the default version.
func NewServer(name string, tools ...Tool) *Server {
	return NewServerWithVersion(name, defaultVersion, tools...)
}

// NewServerWithVersion creates a server with an explicit version.
func NewServerWithVersion(name, version string, tools ...Tool) *Server {
	byName := make(map[string]int, len(tools))
	for i, t := range tools {
		byName[t.Name] = i
	}
	return &Server{
		name:    name,
		version: version,
		tools:   tools,
		byName:  byName,
	}
}

// Name returns the endpoint name.
func (s *Server) Name() string {
	return s.name
}

// Version returns the server version.
func (s *Server) Version() string {
	return s.version
}

// Tools returns the registered tools in registration order.
func (s *Server) Tools() []Tool {
	return s.tools
}

type rpcMessage struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params rpcParams       `json:"params"`
}

type rpcParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// JSON-RPC error codes mirrored from the control protocol.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// HandleMessage services one JSON-RPC message and returns the reply.
// Handler failures never escape as errors; they become success replies
// whose payload is marked as a tool error.
func (s *Server) HandleMessage(ctx context.Context, msg json.RawMessage) json.RawMessage {
	var req rpcMessage
	if err := json.Unmarshal(msg, &req); err != nil {
		return rpcError(nil, codeParseError, "parse error: "+err.Error())
	}

	log.Debug(log.CatMCP, "dispatch", "server", s.name, "method", req.Method)

	switch req.Method {
	case "initialize":
		return rpcSuccess(req.ID, map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo": map[string]any{
				"name":    s.name,
				"version": s.version,
			},
		})
	case "tools/list":
		return s.handleToolsList(req.ID)
	case "tools/call":
		return s.handleToolsCall(ctx, req.ID, req.Params)
	case "notifications/initialized":
		// Acknowledge the notification, no side effect.
		return json.RawMessage(`{"jsonrpc":"2.0","result":{}}`)
	default:
		return rpcError(req.ID, codeMethodNotFound, "method '"+req.Method+"' not found")
	}
}

func (s *Server) handleToolsList(id json.RawMessage) json.RawMessage {
	list := make([]map[string]any, len(s.tools))
	for i, t := range s.tools {
		list[i] = map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"inputSchema": t.InputSchema,
		}
	}
	return rpcSuccess(id, map[string]any{"tools": list})
}

func (s *Server) handleToolsCall(ctx context.Context, id json.RawMessage, params rpcParams) json.RawMessage {
	if params.Name == "" {
		return rpcError(id, codeInvalidParams, "missing 'name' parameter")
	}

	idx, ok := s.byName[params.Name]
	if !ok {
		return rpcError(id, codeMethodNotFound, "tool '"+params.Name+"' not found")
	}

	input, err := ToolInputFromJSON(params.Arguments)
	if err != nil {
		return rpcError(id, codeInvalidParams, "invalid 'arguments': "+err.Error())
	}

	content, err := s.tools[idx].Handler(ctx, input)
	if err != nil {
		log.Warn(log.CatMCP, "tool failed", "server", s.name, "tool", params.Name, "error", err)
		return rpcSuccess(id, map[string]any{
			"content": []map[string]any{{"type": "text", "text": err.Error()}},
			"isError": true,
		})
	}

	return rpcSuccess(id, map[string]any{"content": content})
}

func rpcSuccess(id json.RawMessage, result any) json.RawMessage {
	return mustMarshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      rpcID(id),
		"result":  result,
	})
}

func rpcError(id json.RawMessage, code int, message string) json.RawMessage {
	return mustMarshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      rpcID(id),
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}

func rpcID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}

func mustMarshal(v map[string]any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		// Only reachable with an unmarshalable handler result.
		fallback := map[string]any{
			"jsonrpc": "2.0",
			"id":      nil,
			"error": map[string]any{
				"code":    -32603,
				"message": "internal error: " + err.Error(),
			},
		}
		data, _ = json.Marshal(fallback)
	}
	return data
}
