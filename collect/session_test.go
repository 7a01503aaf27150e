package collect

import (
	"fmt"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"

	"github.com/LubyRuffy/rtprobe/event"
)

func decodeAll(payloads ...string) []event.Event {
	out := make([]event.Event, 0, len(payloads))
	for _, p := range payloads {
		out = append(out, event.Decode(p))
	}
	return out
}

func TestSession_EndArgumentsOverrideDeltas(t *testing.T) {
	events := decodeAll(
		`{"type":"response.output_tool_call.begin","item_id":"fc_1","call_id":"call_1","name":"get_weather"}`,
		`{"type":"response.output_tool_call.delta","item_id":"fc_1","delta":"{\"location\":"}`,
		`{"type":"response.output_tool_call.delta","item_id":"fc_1","delta":"\"San Fran"}`,
		`{"type":"response.output_tool_call.delta","item_id":"fc_1","delta":"cisco\"}"}`,
		`{"type":"response.output_tool_call.end","item_id":"fc_1","arguments":"{\"location\":\"San Francisco, CA\"}"}`,
	)

	res := Replay(PreferTerminal, events)
	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	require.Equal(t, Finalized, rec.State)
	require.Equal(t, `{"location":"San Francisco, CA"}`, rec.Arguments)
	require.Equal(t, "call_1", rec.CallID)
	require.Equal(t, "get_weather", rec.Name)
	require.Equal(t, 1, res.Counts.Begin)
	require.Equal(t, 3, res.Counts.Delta)
	require.Equal(t, 1, res.Counts.End)
}

func TestSession_EndWithoutArgumentsKeepsDeltas(t *testing.T) {
	events := decodeAll(
		`{"type":"response.output_tool_call.begin","item_id":"fc_1","call_id":"call_1","name":"get_weather"}`,
		`{"type":"response.output_tool_call.delta","item_id":"fc_1","delta":"{\"location\":"}`,
		`{"type":"response.output_tool_call.delta","item_id":"fc_1","delta":"\"SF\"}"}`,
		`{"type":"response.output_tool_call.end","item_id":"fc_1"}`,
	)

	res := Replay(PreferTerminal, events)
	require.Equal(t, `{"location":"SF"}`, res.Records[0].Arguments)
	require.Equal(t, Finalized, res.Records[0].State)
}

func TestSession_PreferAccumulatedPolicy(t *testing.T) {
	events := decodeAll(
		`{"type":"response.output_tool_call.delta","item_id":"fc_1","delta":"{\"a\":1}"}`,
		`{"type":"response.output_tool_call.end","item_id":"fc_1","arguments":"{\"a\":2}"}`,
	)
	res := Replay(PreferAccumulated, events)
	require.Equal(t, `{"a":1}`, res.Records[0].Arguments)
}

func TestSession_NoMutationAfterFinalized(t *testing.T) {
	events := decodeAll(
		`{"type":"response.output_tool_call.begin","item_id":"fc_1","call_id":"call_1","name":"get_weather"}`,
		`{"type":"response.output_tool_call.end","item_id":"fc_1","arguments":"{}"}`,
		`{"type":"response.output_tool_call.delta","item_id":"fc_1","delta":"late"}`,
		`{"type":"response.output_tool_call.end","item_id":"fc_1","arguments":"{\"x\":1}"}`,
		`{"type":"response.output_tool_call.begin","item_id":"fc_1","name":"other"}`,
		`{"type":"response.function_call_arguments.done","item_id":"fc_1","name":"legacy","arguments":"{\"y\":1}"}`,
	)
	res := Replay(PreferTerminal, events)
	require.Len(t, res.Records, 1)
	require.Equal(t, "{}", res.Records[0].Arguments)
	require.Equal(t, "get_weather", res.Records[0].Name)
	require.Equal(t, 2, res.Counts.End)
}

func TestSession_CallIDNeverOverwritten(t *testing.T) {
	events := decodeAll(
		`{"type":"response.output_tool_call.begin","item_id":"fc_1","call_id":"call_begin","name":"get_weather"}`,
		`{"type":"response.output_tool_call.end","item_id":"fc_1","arguments":"{}"}`,
		`{"type":"response.output_item.done","item":{"type":"function_call","id":"fc_1","call_id":"call_other"}}`,
	)
	res := Replay(PreferTerminal, events)
	require.Equal(t, "call_begin", res.Records[0].CallID)
}

func TestSession_CallIDBackfilledOnce(t *testing.T) {
	events := decodeAll(
		`{"type":"response.output_tool_call.begin","item_id":"fc_1","name":"get_weather"}`,
		`{"type":"response.output_tool_call.end","item_id":"fc_1","arguments":"{}"}`,
		`{"type":"response.output_item.done","item":{"type":"function_call","id":"fc_1","call_id":"call_late"}}`,
		`{"type":"response.output_item.done","item":{"type":"function_call","id":"fc_1","call_id":"call_later"}}`,
	)
	res := Replay(PreferTerminal, events)
	require.Equal(t, "call_late", res.Records[0].CallID)
	require.Equal(t, 2, res.Counts.OutputItemDone)
}

func TestSession_OutputItemDoneDoesNotCreateRecords(t *testing.T) {
	events := decodeAll(
		`{"type":"response.output_item.done","item":{"type":"function_call","id":"fc_x","call_id":"call_x"}}`,
		`{"type":"response.output_item.done","item":{"type":"message","id":"msg_1"}}`,
	)
	res := Replay(PreferTerminal, events)
	require.Empty(t, res.Records)
}

func TestSession_DeltaBeforeBeginCreatesRecord(t *testing.T) {
	events := decodeAll(
		`{"type":"response.output_tool_call.delta","item_id":"fc_1","delta":"{\"a\""}`,
		`{"type":"response.output_tool_call.begin","item_id":"fc_1","call_id":"call_1","name":"f"}`,
		`{"type":"response.output_tool_call.delta","item_id":"fc_1","delta":":1}"}`,
		`{"type":"response.output_tool_call.end","item_id":"fc_1"}`,
	)
	res := Replay(PreferTerminal, events)
	require.Len(t, res.Records, 1)
	require.Equal(t, `{"a":1}`, res.Records[0].Arguments)
	require.Equal(t, "call_1", res.Records[0].CallID)
}

func TestSession_MissingIdentifiersAreSkipped(t *testing.T) {
	events := decodeAll(
		`{"type":"response.output_tool_call.delta","delta":"x"}`,
		`{"type":"response.output_tool_call.end"}`,
		`{"type":"response.function_call_arguments.delta","delta":"x"}`,
	)
	res := Replay(PreferTerminal, events)
	require.Empty(t, res.Records)
	require.Equal(t, 3, res.Counts.Skipped)
	require.Equal(t, 1, res.Counts.Delta)
	require.Equal(t, 1, res.Counts.LegacyDelta)
}

func TestSession_BeginFallsBackToCallIDKey(t *testing.T) {
	events := decodeAll(
		`{"type":"response.output_tool_call.begin","call_id":"call_1","name":"f"}`,
		`{"type":"response.output_tool_call.delta","item_id":"call_1","delta":"{}"}`,
		`{"type":"response.output_tool_call.end","item_id":"call_1"}`,
	)
	res := Replay(PreferTerminal, events)
	require.Len(t, res.Records, 1)
	require.Equal(t, "call_1", res.Records[0].ItemID)
	require.Equal(t, "{}", res.Records[0].Arguments)
}

func TestSession_LegacyOnlyStream(t *testing.T) {
	events := decodeAll(
		`{"type":"response.function_call_arguments.delta","item_id":"fc_1","delta":"{\"location\":\"Boston\"}"}`,
		`{"type":"response.function_call_arguments.delta","item_id":"fc_2","delta":"{\"location\":"}`,
		`{"type":"response.function_call_arguments.delta","item_id":"fc_2","delta":"\"Seattle\"}"}`,
		`{"type":"response.function_call_arguments.done","item_id":"fc_1","name":"get_weather","arguments":"{\"location\":\"Boston, MA\"}"}`,
		`{"type":"response.function_call_arguments.done","item_id":"fc_2","name":"get_weather"}`,
		`{"type":"response.output_item.done","item":{"type":"function_call","id":"fc_1","call_id":"call_a"}}`,
		`{"type":"response.output_item.done","item":{"type":"function_call","id":"fc_2","call_id":"call_b"}}`,
	)
	res := Replay(PreferTerminal, events)
	finalized := res.Finalized()
	require.Len(t, finalized, 2)
	require.Equal(t, Record{ItemID: "fc_1", CallID: "call_a", Name: "get_weather", Arguments: `{"location":"Boston, MA"}`, State: Finalized}, finalized[0])
	require.Equal(t, Record{ItemID: "fc_2", CallID: "call_b", Name: "get_weather", Arguments: `{"location":"Seattle"}`, State: Finalized}, finalized[1])
	require.Equal(t, 3, res.Counts.LegacyDelta)
	require.Equal(t, 2, res.Counts.LegacyDone)
	require.Zero(t, res.Counts.Begin)
}

func TestSession_LegacyDoneDoesNotOverrideModernPath(t *testing.T) {
	events := decodeAll(
		`{"type":"response.output_tool_call.begin","item_id":"fc_1","call_id":"call_1","name":"get_weather"}`,
		`{"type":"response.output_tool_call.delta","item_id":"fc_1","delta":"{\"location\":\"SF\"}"}`,
		`{"type":"response.function_call_arguments.delta","item_id":"fc_1","delta":"{\"location\":\"SF\"}"}`,
		`{"type":"response.function_call_arguments.done","item_id":"fc_1","name":"legacy_name","arguments":"{\"location\":\"legacy\"}"}`,
		`{"type":"response.output_tool_call.end","item_id":"fc_1"}`,
	)
	res := Replay(PreferTerminal, events)
	rec := res.Records[0]
	require.Equal(t, "get_weather", rec.Name)
	require.Equal(t, `{"location":"SF"}`, rec.Arguments)
	require.Equal(t, Finalized, rec.State)
}

func TestSession_LegacyDoneFillsModernGaps(t *testing.T) {
	events := decodeAll(
		`{"type":"response.output_tool_call.begin","item_id":"fc_1"}`,
		`{"type":"response.function_call_arguments.done","item_id":"fc_1","call_id":"call_1","name":"get_weather","arguments":"{\"location\":\"SF\"}"}`,
		`{"type":"response.output_tool_call.end","item_id":"fc_1"}`,
	)
	res := Replay(PreferTerminal, events)
	rec := res.Records[0]
	require.Equal(t, "get_weather", rec.Name)
	require.Equal(t, "call_1", rec.CallID)
	require.Equal(t, `{"location":"SF"}`, rec.Arguments)
}

func TestSession_OpenRecordsAreNotFinalized(t *testing.T) {
	events := decodeAll(
		`{"type":"response.output_tool_call.begin","item_id":"fc_1","call_id":"call_1","name":"get_weather"}`,
		`{"type":"response.output_tool_call.delta","item_id":"fc_1","delta":"{\"loc"}`,
	)
	res := Replay(PreferTerminal, events)
	require.Len(t, res.Records, 1)
	require.Equal(t, Open, res.Records[0].State)
	require.Empty(t, res.Finalized())
	require.Nil(t, res.ToolCalls())
}

func TestSession_TranscriptAndTolerance(t *testing.T) {
	events := decodeAll(
		`{"type":"response.created","response":{"id":"resp_1"}}`,
		`{"type":"response.output_text.delta","delta":"It is "}`,
		`{not json`,
		`{"type":"response.output_text.delta","delta":"68"}`,
		`{"type":"response.output_text.delta","delta":""}`,
		`{"type":"response.output_text.delta","delta":"°F and foggy."}`,
		`{"type":"response.completed","response":{"status":"completed"}}`,
	)
	res := Replay(PreferTerminal, events)
	require.Equal(t, "It is 68°F and foggy.", res.Text)
	require.Equal(t, 4, res.Fragments)
	require.Equal(t, 1, res.Counts.Raw)
	require.Equal(t, 1, res.Counts.Unknown)
	require.Equal(t, event.TypeCompleted, res.Terminal)
	require.Equal(t, "completed", res.Status)
}

func TestReplay_Idempotent(t *testing.T) {
	var payloads []string
	for i := 0; i < 3; i++ {
		item := fmt.Sprintf("fc_%d", i)
		payloads = append(payloads,
			fmt.Sprintf(`{"type":"response.output_tool_call.begin","item_id":%q,"call_id":"call_%d","name":"f%d"}`, item, i, i),
			fmt.Sprintf(`{"type":"response.output_text.delta","delta":"t%d"}`, i),
			fmt.Sprintf(`{"type":"response.output_tool_call.delta","item_id":%q,"delta":"{\"i\":%d}"}`, item, i),
		)
	}
	payloads = append(payloads, `{"type":"response.output_tool_call.end","item_id":"fc_1"}`)
	events := decodeAll(payloads...)

	first := Replay(PreferTerminal, events)
	second := Replay(PreferTerminal, events)
	require.Equal(t, first, second)
	require.Equal(t, []string{"fc_0", "fc_1", "fc_2"}, []string{first.Records[0].ItemID, first.Records[1].ItemID, first.Records[2].ItemID})
}

func TestResult_MessageCarriesFinalizedToolCalls(t *testing.T) {
	events := decodeAll(
		`{"type":"response.output_tool_call.begin","item_id":"fc_1","name":"get_weather"}`,
		`{"type":"response.output_tool_call.end","item_id":"fc_1","arguments":"{}"}`,
		`{"type":"response.output_tool_call.begin","item_id":"fc_2","call_id":"call_2","name":"get_time"}`,
	)
	msg := Replay(PreferTerminal, events).Message()
	require.Equal(t, schema.Assistant, msg.Role)
	require.Len(t, msg.ToolCalls, 1)
	require.Equal(t, "fc_1", msg.ToolCalls[0].ID)
	require.Equal(t, "get_weather", msg.ToolCalls[0].Function.Name)
	require.Equal(t, "{}", msg.ToolCalls[0].Function.Arguments)
}

func TestPreview(t *testing.T) {
	require.Equal(t, "héll...", Preview("héllo", 4))
	require.Equal(t, "hi", Preview("hi", 10))
	require.Equal(t, "", Preview("hi", 0))
}
