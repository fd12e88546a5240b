package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func echoTool(t *testing.T) Tool {
	t.Helper()
	return NewTool("echo", "echoes its text argument",
		json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}}}`),
		func(_ context.Context, input ToolInput) (any, error) {
			text, ok := input.GetString("text")
			if !ok {
				return nil, MissingParameter("text")
			}
			return []map[string]any{{"type": "text", "text": text}}, nil
		})
}

func decode(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestServer_Initialize(t *testing.T) {
	srv := NewServer("tools", echoTool(t))

	reply := srv.HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"initialize"}`))

	out := decode(t, reply)
	require.Equal(t, "2.0", out["jsonrpc"])
	require.Equal(t, float64(1), out["id"])

	result := out["result"].(map[string]any)
	require.Equal(t, "2024-11-05", result["protocolVersion"])
	require.Contains(t, result["capabilities"], "tools")

	info := result["serverInfo"].(map[string]any)
	require.Equal(t, "tools", info["name"])
	require.Equal(t, "1.0.0", info["version"])
}

func TestServer_CustomVersion(t *testing.T) {
	srv := NewServerWithVersion("tools", "2.3.4")
	require.Equal(t, "2.3.4", srv.Version())
}

func TestServer_ToolsList(t *testing.T) {
	srv := NewServer("tools",
		echoTool(t),
		NewTool("add", "adds two numbers",
			json.RawMessage(`{"type":"object"}`),
			func(_ context.Context, _ ToolInput) (any, error) { return nil, nil }),
	)

	reply := srv.HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`))

	out := decode(t, reply)
	list := out["result"].(map[string]any)["tools"].([]any)
	require.Len(t, list, 2)

	first := list[0].(map[string]any)
	require.Equal(t, "echo", first["name"])
	require.Equal(t, "echoes its text argument", first["description"])
	require.Contains(t, first, "inputSchema")

	second := list[1].(map[string]any)
	require.Equal(t, "add", second["name"])
}

func TestServer_ToolsCall_Success(t *testing.T) {
	srv := NewServer("tools", echoTool(t))

	reply := srv.HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"echo","arguments":{"text":"hi"}}}`))

	out := decode(t, reply)
	require.NotContains(t, out, "error")

	result := out["result"].(map[string]any)
	require.Nil(t, result["isError"])
	content := result["content"].([]any)
	require.Len(t, content, 1)
	require.Equal(t, "hi", content[0].(map[string]any)["text"])
}

func TestServer_ToolsCall_MissingName(t *testing.T) {
	srv := NewServer("tools", echoTool(t))

	reply := srv.HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"arguments":{}}}`))

	out := decode(t, reply)
	errObj := out["error"].(map[string]any)
	require.Equal(t, float64(-32602), errObj["code"])
	require.Contains(t, errObj["message"], "missing 'name'")
}

func TestServer_ToolsCall_UnknownTool(t *testing.T) {
	called := false
	srv := NewServer("tools", NewTool("real", "",
		json.RawMessage(`{}`),
		func(_ context.Context, _ ToolInput) (any, error) {
			called = true
			return nil, nil
		}))

	reply := srv.HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"ghost"}}`))

	out := decode(t, reply)
	errObj := out["error"].(map[string]any)
	require.Equal(t, float64(-32601), errObj["code"])
	require.Contains(t, errObj["message"], "tool 'ghost' not found")
	require.False(t, called, "no registered handler may run for an unknown tool")
}

func TestServer_ToolsCall_HandlerFailureIsToolError(t *testing.T) {
	srv := NewServer("tools", NewTool("boom", "",
		json.RawMessage(`{}`),
		func(_ context.Context, _ ToolInput) (any, error) {
			return nil, ExecutionFailed("disk on fire")
		}))

	reply := srv.HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{"name":"boom"}}`))

	out := decode(t, reply)
	// A failing handler still yields a success envelope, marked as a
	// tool error so the agent can recover.
	require.NotContains(t, out, "error")

	result := out["result"].(map[string]any)
	require.Equal(t, true, result["isError"])
	content := result["content"].([]any)
	require.Contains(t, content[0].(map[string]any)["text"], "disk on fire")
}

func TestServer_ToolsCall_NoArguments(t *testing.T) {
	srv := NewServer("tools", NewTool("noop", "",
		json.RawMessage(`{}`),
		func(_ context.Context, input ToolInput) (any, error) {
			require.True(t, input.IsEmpty())
			return "ok", nil
		}))

	reply := srv.HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"noop"}}`))

	out := decode(t, reply)
	require.Equal(t, "ok", out["result"].(map[string]any)["content"])
}

func TestServer_InitializedNotification(t *testing.T) {
	srv := NewServer("tools")

	reply := srv.HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))

	require.JSONEq(t, `{"jsonrpc":"2.0","result":{}}`, string(reply))
}

func TestServer_UnknownMethod(t *testing.T) {
	srv := NewServer("tools")

	reply := srv.HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":8,"method":"resources/list"}`))

	out := decode(t, reply)
	errObj := out["error"].(map[string]any)
	require.Equal(t, float64(-32601), errObj["code"])
	require.Contains(t, errObj["message"], "resources/list")
}

func TestServer_UnparseableMessage(t *testing.T) {
	srv := NewServer("tools")

	reply := srv.HandleMessage(context.Background(), json.RawMessage(`{broken`))

	out := decode(t, reply)
	errObj := out["error"].(map[string]any)
	require.Equal(t, float64(-32700), errObj["code"])
}

func TestToolError_Taxonomy(t *testing.T) {
	require.Equal(t, "missing required parameter: text", MissingParameter("text").Error())
	require.Equal(t, "invalid parameter 'n': not a number", InvalidParameter("n", "not a number").Error())
	require.Equal(t, "execution failed: oops", ExecutionFailed("oops").Error())
	require.Equal(t, "not found: row 7", NotFound("row 7").Error())
	require.Equal(t, "permission denied: nope", PermissionDenied("nope").Error())

	cause := errors.New("root cause")
	wrapped := WrapError(cause)
	require.Equal(t, KindExecutionFailed, wrapped.Kind)
	require.ErrorIs(t, wrapped, cause)
}

func TestToolInput_Getters(t *testing.T) {
	input, err := ToolInputFromJSON(json.RawMessage(
		`{"s":"str","n":3,"f":1.5,"b":true,"list":["a","b"],"mixed":["a",1]}`))
	require.NoError(t, err)

	s, ok := input.GetString("s")
	require.True(t, ok)
	require.Equal(t, "str", s)

	n, ok := input.GetInt("n")
	require.True(t, ok)
	require.Equal(t, int64(3), n)

	_, ok = input.GetInt("f")
	require.False(t, ok, "fractional value is not an int")

	f, ok := input.GetFloat("f")
	require.True(t, ok)
	require.InEpsilon(t, 1.5, f, 1e-9)

	b, ok := input.GetBool("b")
	require.True(t, ok)
	require.True(t, b)

	list, ok := input.GetStringList("list")
	require.True(t, ok)
	require.Equal(t, []string{"a", "b"}, list)

	_, ok = input.GetStringList("mixed")
	require.False(t, ok)

	_, ok = input.GetString("absent")
	require.False(t, ok)
}

func TestToolInput_SettersDoNotMutate(t *testing.T) {
	base := EmptyToolInput()
	derived := base.SetString("k", "v").SetInt("n", 7).SetBool("b", true)

	require.True(t, base.IsEmpty())
	require.False(t, derived.IsEmpty())

	n, ok := derived.GetInt("n")
	require.True(t, ok)
	require.Equal(t, int64(7), n)
}

func TestToolInput_FromPairs(t *testing.T) {
	input := FromPairs(map[string]string{"a": "1", "b": "2"})
	require.ElementsMatch(t, []string{"a", "b"}, input.Keys())

	v, ok := input.GetString("a")
	require.True(t, ok)
	require.Equal(t, "1", v)
}
