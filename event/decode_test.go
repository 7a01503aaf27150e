package event

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecode_MalformedBecomesRaw(t *testing.T) {
	for _, payload := range []string{`{"type":`, `not json`, ``, `[1,2]`, `"text"`} {
		ev := Decode(payload)
		raw, ok := ev.(Raw)
		require.True(t, ok, "payload %q should decode to Raw, got %T", payload, ev)
		require.Equal(t, TypeRaw, raw.Type())
		require.Equal(t, payload, raw.Payload())
	}
}

func TestDecode_MissingTypeIsUnknown(t *testing.T) {
	ev := Decode(`{"delta":"x"}`)
	unknown, ok := ev.(Unknown)
	require.True(t, ok)
	require.Equal(t, "", unknown.Type())
	require.Equal(t, "x", Field(ev, "delta").String())
}

func TestDecode_UnrecognizedTypeKeepsFields(t *testing.T) {
	ev := Decode(`{"type":"response.reasoning_text.delta","delta":"think","sequence_number":4}`)
	require.IsType(t, Unknown{}, ev)
	require.Equal(t, "response.reasoning_text.delta", ev.Type())
	require.Equal(t, int64(4), Field(ev, "sequence_number").Int())
}

func TestDecode_ToolCallEvents(t *testing.T) {
	begin := Decode(`{"type":"response.output_tool_call.begin","item_id":"fc_1","call_id":"call_1","name":"get_weather"}`)
	require.Equal(t, ToolCallBegin{
		envelope: begin.(ToolCallBegin).envelope,
		ItemID:   "fc_1",
		CallID:   "call_1",
		Name:     "get_weather",
	}, begin)

	delta := Decode(`{"type":"response.output_tool_call.delta","item_id":"fc_1","delta":"{\"loc"}`).(ToolCallDelta)
	require.Equal(t, "fc_1", delta.ItemID)
	require.Equal(t, `{"loc`, delta.Delta)

	end := Decode(`{"type":"response.output_tool_call.end","item_id":"fc_1","arguments":"{}"}`).(ToolCallEnd)
	require.True(t, end.HasArguments)
	require.Equal(t, "{}", end.Arguments)

	bare := Decode(`{"type":"response.output_tool_call.end","item_id":"fc_1"}`).(ToolCallEnd)
	require.False(t, bare.HasArguments)

	null := Decode(`{"type":"response.output_tool_call.end","item_id":"fc_1","arguments":null}`).(ToolCallEnd)
	require.False(t, null.HasArguments)
}

func TestDecode_ArgumentsAsObject(t *testing.T) {
	done := Decode(`{"type":"response.function_call_arguments.done","item_id":"fc_1","name":"get_weather","arguments":{"location":"SF"}}`).(ArgumentsDone)
	require.True(t, done.HasArguments)
	require.JSONEq(t, `{"location":"SF"}`, done.Arguments)
	require.Equal(t, "get_weather", done.Name)
}

func TestDecode_OutputItemDone(t *testing.T) {
	ev := Decode(`{"type":"response.output_item.done","item":{"type":"function_call","id":"fc_9","call_id":"call_9","name":"get_weather","arguments":"{}"}}`)
	item, ok := ev.(OutputItemDone)
	require.True(t, ok)
	require.True(t, item.IsFunctionCall())
	require.Equal(t, "fc_9", item.ItemID)
	require.Equal(t, "call_9", item.CallID)

	msg := Decode(`{"type":"response.output_item.done","item":{"type":"message","id":"msg_1"}}`).(OutputItemDone)
	require.False(t, msg.IsFunctionCall())
}

func TestDecode_CompletedAndDone(t *testing.T) {
	completed := Decode(`{"type":"response.completed","response":{"id":"resp_1","status":"completed"}}`).(Completed)
	require.Equal(t, TypeCompleted, completed.Type())
	require.Equal(t, "completed", completed.Status)

	done := Decode(`{"type":"response.done"}`).(Completed)
	require.Equal(t, TypeDone, done.Type())
	require.Empty(t, done.Status)
}

func TestDecode_TextDeltaNonStringDeltaIsEmpty(t *testing.T) {
	ev := Decode(`{"type":"response.output_text.delta","delta":{"text":"x"}}`).(TextDelta)
	require.Empty(t, ev.Delta)
}
