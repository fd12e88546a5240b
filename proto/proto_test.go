package proto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseIncoming_SystemInit(t *testing.T) {
	line := `{"type":"system","subtype":"init","session_id":"abc","model":"claude-sonnet-4-5","cwd":"/tmp/work"}`

	in, err := ParseIncoming([]byte(line))
	require.NoError(t, err)
	require.Equal(t, TypeSystem, in.Type)
	require.NotNil(t, in.System)
	require.Equal(t, SystemInit, in.System.Subtype)
	require.Equal(t, "abc", in.System.SessionID)
	require.Equal(t, "claude-sonnet-4-5", in.System.Model)
	require.Equal(t, "/tmp/work", in.System.WorkDir)
	require.True(t, in.IsStreaming())
}

func TestParseIncoming_SystemError(t *testing.T) {
	line := `{"type":"system","subtype":"error","error":"something broke"}`

	in, err := ParseIncoming([]byte(line))
	require.NoError(t, err)
	require.Equal(t, SystemError, in.System.Subtype)
	require.Equal(t, "something broke", in.System.Error)
}

func TestParseIncoming_AssistantBlocks(t *testing.T) {
	line := `{"type":"assistant","message":{"model":"claude-opus-4-1","content":[` +
		`{"type":"text","text":"hi"},` +
		`{"type":"tool_use","id":"tu_1","name":"search","input":{"query":"go"}},` +
		`{"type":"tool_result","tool_use_id":"tu_1","content":"found","is_error":false},` +
		`{"type":"thinking","thinking":"hmm","signature":"sig"}]}}`

	in, err := ParseIncoming([]byte(line))
	require.NoError(t, err)
	require.Equal(t, TypeAssistant, in.Type)

	blocks := in.Assistant.Message.Content
	require.Len(t, blocks, 4)

	require.Equal(t, BlockText, blocks[0].Type)
	require.Equal(t, "hi", blocks[0].Text)

	require.Equal(t, BlockToolUse, blocks[1].Type)
	require.Equal(t, "tu_1", blocks[1].ID)
	require.Equal(t, "search", blocks[1].Name)
	require.JSONEq(t, `{"query":"go"}`, string(blocks[1].Input))

	require.Equal(t, BlockToolResult, blocks[2].Type)
	require.Equal(t, "tu_1", blocks[2].ToolUseID)
	require.False(t, blocks[2].IsToolError())

	require.Equal(t, BlockThinking, blocks[3].Type)
	require.Equal(t, "hmm", blocks[3].Thinking)
	require.Equal(t, "sig", blocks[3].Signature)
}

func TestParseIncoming_AssistantError(t *testing.T) {
	line := `{"type":"assistant","message":{"model":"m","content":[],"error":"rate_limit"}}`

	in, err := ParseIncoming([]byte(line))
	require.NoError(t, err)
	require.Equal(t, ErrRateLimit, in.Assistant.Message.Error)
	require.Equal(t, "rate limit exceeded", in.Assistant.Message.Error.String())
}

func TestParseIncoming_Result(t *testing.T) {
	line := `{"type":"result","subtype":"success","duration_ms":1200,"duration_api_ms":900,` +
		`"is_error":false,"num_turns":2,"session_id":"abc","total_cost_usd":0.05,` +
		`"usage":{"input_tokens":10,"output_tokens":20},"result":"done",` +
		`"structured_output":{"answer":42}}`

	in, err := ParseIncoming([]byte(line))
	require.NoError(t, err)

	res := in.Result
	require.Equal(t, "success", res.Subtype)
	require.Equal(t, int64(1200), res.DurationMs)
	require.Equal(t, int64(900), res.DurationAPIMs)
	require.False(t, res.IsError)
	require.Equal(t, 2, res.NumTurns)
	require.Equal(t, "abc", res.SessionID)
	require.NotNil(t, res.TotalCostUSD)
	require.InEpsilon(t, 0.05, *res.TotalCostUSD, 1e-9)
	require.Equal(t, int64(10), res.Usage.InputTokens)
	require.Equal(t, int64(20), res.Usage.OutputTokens)
	require.Equal(t, "done", res.Result)
	require.JSONEq(t, `{"answer":42}`, string(res.StructuredOutput))
}

func TestParseIncoming_ControlRequest(t *testing.T) {
	line := `{"type":"control_request","request_id":"req_7","request":` +
		`{"subtype":"mcp_message","server_name":"tools","message":{"jsonrpc":"2.0","id":1,"method":"tools/list"}}}`

	in, err := ParseIncoming([]byte(line))
	require.NoError(t, err)
	require.False(t, in.IsStreaming())

	env := in.AsControlRequest()
	require.NotNil(t, env)
	require.Equal(t, "req_7", env.RequestID)
	require.Equal(t, SubtypeMcpMessage, env.Request.Subtype)
	require.Equal(t, "tools", env.Request.ServerName)
	require.JSONEq(t, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`, string(env.Request.Message))
}

func TestParseIncoming_ControlResponse(t *testing.T) {
	line := `{"type":"control_response","response":{"subtype":"error","request_id":"req_3",` +
		`"error":{"code":-32601,"message":"not found"}}}`

	in, err := ParseIncoming([]byte(line))
	require.NoError(t, err)

	env := in.AsControlResponse()
	require.NotNil(t, env)
	require.False(t, env.Response.IsSuccess())
	require.Equal(t, "req_3", env.Response.RequestID)
	require.Equal(t, CodeMethodNotFound, env.Response.Error.Code)
	require.Equal(t, "not found", env.Response.Error.Message)
}

func TestParseIncoming_UnknownType(t *testing.T) {
	_, err := ParseIncoming([]byte(`{"type":"mystery"}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "mystery")
}

func TestParseIncoming_NotJSON(t *testing.T) {
	_, err := ParseIncoming([]byte(`not json`))
	require.Error(t, err)
}

func TestUserContent_MarshalText(t *testing.T) {
	msg := NewUserMessage(TextContent("hello"))

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"user","message":{"role":"user","content":"hello"}}`, string(data))
}

func TestUserContent_MarshalBlocks(t *testing.T) {
	msg := NewUserMessage(BlocksContent([]ContentBlock{
		ToolResultBlock("tu_1", json.RawMessage(`"ok"`), false),
	}))

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	require.JSONEq(t,
		`{"type":"user","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"tu_1","content":"ok","is_error":false}]}}`,
		string(data))
}

func TestUserContent_UnmarshalBothForms(t *testing.T) {
	var text UserContent
	require.NoError(t, json.Unmarshal([]byte(`"plain"`), &text))
	require.Equal(t, "plain", text.Text)
	require.Nil(t, text.Blocks)

	var blocks UserContent
	require.NoError(t, json.Unmarshal([]byte(`[{"type":"text","text":"x"}]`), &blocks))
	require.Len(t, blocks.Blocks, 1)
}

func TestRequestEnvelope_FreshIDs(t *testing.T) {
	a := NewRequestEnvelope(InterruptRequest())
	b := NewRequestEnvelope(InterruptRequest())

	require.Equal(t, TypeControlRequest, a.Type)
	require.NotEmpty(t, a.RequestID)
	require.NotEqual(t, a.RequestID, b.RequestID)
}

func TestRequestEnvelope_MarshalShape(t *testing.T) {
	env := NewRequestEnvelopeWithID("req_1", SetModelRequest("claude-opus-4-1"))

	data, err := json.Marshal(env)
	require.NoError(t, err)
	require.JSONEq(t,
		`{"type":"control_request","request_id":"req_1","request":{"subtype":"set_model","model":"claude-opus-4-1"}}`,
		string(data))
}

func TestResponseEnvelope_Success(t *testing.T) {
	env := NewSuccessResponse("req_1", json.RawMessage(`{"ok":true}`))

	data, err := json.Marshal(env)
	require.NoError(t, err)
	require.JSONEq(t,
		`{"type":"control_response","response":{"subtype":"success","request_id":"req_1","response":{"ok":true}}}`,
		string(data))
}

func TestResponseEnvelope_SuccessNilPayload(t *testing.T) {
	env := NewSuccessResponse("req_1", nil)

	data, err := json.Marshal(env)
	require.NoError(t, err)
	require.JSONEq(t,
		`{"type":"control_response","response":{"subtype":"success","request_id":"req_1"}}`,
		string(data))
}

func TestResponseEnvelope_Error(t *testing.T) {
	env := NewErrorResponse("req_2", CodeInternalError, "boom")

	data, err := json.Marshal(env)
	require.NoError(t, err)
	require.JSONEq(t,
		`{"type":"control_response","response":{"subtype":"error","request_id":"req_2","error":{"code":-32603,"message":"boom"}}}`,
		string(data))
}

func TestServerInfo_CamelCase(t *testing.T) {
	raw := `{"version":"2.1.0","capabilities":["hooks"],"commands":["/compact"],"outputStyles":["default"]}`

	var info ServerInfo
	require.NoError(t, json.Unmarshal([]byte(raw), &info))
	require.Equal(t, "2.1.0", info.Version)
	require.Equal(t, []string{"hooks"}, info.Capabilities)
	require.Equal(t, []string{"/compact"}, info.Commands)
	require.Equal(t, []string{"default"}, info.OutputStyles)
}

func TestPermissionMode_WireValues(t *testing.T) {
	require.Equal(t, PermissionMode("default"), PermissionDefault)
	require.Equal(t, PermissionMode("acceptEdits"), PermissionAcceptEdits)
	require.Equal(t, PermissionMode("plan"), PermissionPlan)
	require.Equal(t, PermissionMode("bypassPermissions"), PermissionBypassPermissions)
}
