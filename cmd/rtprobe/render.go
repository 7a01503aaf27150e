package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/LubyRuffy/rtprobe/collect"
	"github.com/LubyRuffy/rtprobe/history"
	"github.com/LubyRuffy/rtprobe/roundtrip"
)

const textPreviewLimit = 300

type roundTripView struct {
	*roundtrip.Result
	Error string `json:"error,omitempty"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderRoundTrip(w io.Writer, format string, res *roundtrip.Result) error {
	if res == nil {
		return nil
	}
	if format == outputJSON {
		view := roundTripView{Result: res}
		if res.Err != nil {
			view.Error = res.Err.Error()
		}
		return writeJSON(w, view)
	}

	trace := make([]string, 0, len(res.Trace))
	for _, s := range res.Trace {
		trace = append(trace, string(s))
	}
	fmt.Fprintf(w, "state:   %s\n", res.State)
	fmt.Fprintf(w, "trace:   %s\n", strings.Join(trace, " -> "))
	if res.Turn1 != nil {
		fmt.Fprintln(w, "turn 1:")
		writeTurnSummary(w, res.Turn1)
	}
	for i, call := range res.Calls {
		fmt.Fprintf(w, "call %d:  %s call_id=%s arguments=%s\n", i+1, call.Name, call.CallID, call.Arguments)
	}
	for _, tr := range res.ToolResults {
		fmt.Fprintf(w, "result:  %s %s\n", tr.CallID, tr.Body)
	}
	if res.Turn2 != nil {
		fmt.Fprintln(w, "turn 2:")
		writeTurnSummary(w, res.Turn2)
	}
	if res.Matched != "" {
		fmt.Fprintf(w, "matched: %q\n", res.Matched)
	}
	if res.Err != nil {
		fmt.Fprintf(w, "error:   %v\n", res.Err)
	}
	return nil
}

func renderTurn(w io.Writer, format string, turn *roundtrip.TurnResult) error {
	if format == outputJSON {
		return writeJSON(w, turn)
	}
	writeTurnSummary(w, turn)
	for i, rec := range turn.Records {
		fmt.Fprintf(w, "call %d:  %s call_id=%s state=%s arguments=%s\n", i+1, rec.Name, rec.CallID, rec.State, rec.Arguments)
	}
	return nil
}

func writeTurnSummary(w io.Writer, turn *roundtrip.TurnResult) {
	c := turn.Counts
	fmt.Fprintf(w, "  request_id: %s\n", turn.RequestID)
	fmt.Fprintf(w, "  frames:     %d (graceful=%t)\n", turn.Frames, turn.Graceful)
	fmt.Fprintf(w, "  events:     text=%d begin=%d delta=%d end=%d legacy_delta=%d legacy_done=%d item_done=%d unknown=%d raw=%d skipped=%d\n",
		c.TextDeltas, c.Begin, c.Delta, c.End, c.LegacyDelta, c.LegacyDone, c.OutputItemDone, c.Unknown, c.Raw, c.Skipped)
	if turn.Status != "" {
		fmt.Fprintf(w, "  status:     %s\n", turn.Status)
	}
	if turn.Text != "" {
		fmt.Fprintf(w, "  text:       %s\n", collect.Preview(turn.Text, textPreviewLimit))
	}
}

func renderHistory(w io.Writer, format string, runs []history.Run) error {
	if format == outputJSON {
		return writeJSON(w, runs)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tSCENARIO\tMODEL\tSTATE\tCALLS\tDURATION\tERROR")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID,
			r.CreatedAt.Local().Format(time.DateTime),
			r.Scenario,
			r.Model,
			r.State,
			r.ToolCalls,
			time.Duration(r.DurationMS)*time.Millisecond,
			collect.Preview(r.Error, 60),
		)
	}
	return tw.Flush()
}
