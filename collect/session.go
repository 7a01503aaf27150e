// Package collect 把解码后的事件聚合为单轮结果：工具调用记录、文本 transcript 与各类事件计数。
//
// Session 只修改自身状态，不做任何 I/O；同一事件序列重放到新的 Session 上总能得到相同结果。
package collect

import (
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/LubyRuffy/rtprobe/event"
)

// Counters 记录各类事件的到达数量，是协议兼容性校验的依据。
type Counters struct {
	TextDeltas     int `json:"text_deltas"`
	Begin          int `json:"begin"`
	Delta          int `json:"delta"`
	End            int `json:"end"`
	LegacyDelta    int `json:"legacy_delta"`
	LegacyDone     int `json:"legacy_done"`
	OutputItemDone int `json:"output_item_done"`
	Terminal       int `json:"terminal"`
	Unknown        int `json:"unknown"`
	Raw            int `json:"raw"`
	// Skipped 是缺少 item_id/call_id 而无法归属记录的工具调用事件。
	Skipped int `json:"skipped"`
}

// Session 是单轮流的聚合状态，不跨轮共享。
type Session struct {
	calls      *ToolCalls
	transcript Transcript
	counts     Counters
	terminal   string
	status     string
}

func NewSession(policy ArgumentsPolicy) *Session {
	return &Session{calls: NewToolCalls(policy)}
}

// Apply 按事件变体分发到对应的聚合器；未识别的事件只计数。
func (s *Session) Apply(ev event.Event) {
	switch e := ev.(type) {
	case event.TextDelta:
		s.counts.TextDeltas++
		s.transcript.Append(e.Delta)
	case event.Completed:
		s.counts.Terminal++
		s.terminal = e.Type()
		if e.Status != "" {
			s.status = e.Status
		}
	case event.ToolCallBegin:
		s.counts.Begin++
		entry := s.modernEntry(e.ItemID, e.CallID)
		if entry == nil {
			return
		}
		entry.SetName(e.Name)
		entry.SetCallID(e.CallID)
	case event.ToolCallDelta:
		s.counts.Delta++
		entry := s.modernEntry(e.ItemID, e.CallID)
		if entry == nil {
			return
		}
		entry.AppendArguments(e.Delta)
	case event.ToolCallEnd:
		s.counts.End++
		key := recordKey(e.ItemID, e.CallID)
		if key == "" {
			s.counts.Skipped++
			return
		}
		s.calls.GetOrCreate(key).modern = true
		s.calls.Finalize(key, e.Arguments, e.HasArguments)
	case event.ArgumentsDelta:
		s.counts.LegacyDelta++
		key := recordKey(e.ItemID, e.CallID)
		if key == "" {
			s.counts.Skipped++
			return
		}
		entry := s.calls.GetOrCreate(key)
		if entry.rec.State == Open {
			entry.legacy += e.Delta
		}
	case event.ArgumentsDone:
		s.counts.LegacyDone++
		s.applyLegacyDone(e)
	case event.OutputItemDone:
		s.counts.OutputItemDone++
		if !e.IsFunctionCall() {
			return
		}
		if entry, ok := s.calls.Lookup(recordKey(e.ItemID, e.CallID)); ok {
			entry.SetCallID(e.CallID)
		}
	case event.Unknown:
		s.counts.Unknown++
	case event.Raw:
		s.counts.Raw++
	}
}

func (s *Session) modernEntry(itemID, callID string) *Entry {
	key := recordKey(itemID, callID)
	if key == "" {
		s.counts.Skipped++
		return nil
	}
	entry := s.calls.GetOrCreate(key)
	entry.modern = true
	return entry
}

// applyLegacyDone 只补全新版路径尚未给出的字段；对从未收到新版事件的记录，done 即终止事件。
func (s *Session) applyLegacyDone(e event.ArgumentsDone) {
	key := recordKey(e.ItemID, e.CallID)
	if key == "" {
		s.counts.Skipped++
		return
	}
	entry := s.calls.GetOrCreate(key)
	if entry.rec.State == Finalized {
		return
	}
	if entry.rec.Name == "" {
		entry.SetName(e.Name)
	}
	entry.SetCallID(e.CallID)

	if entry.modern {
		if e.HasArguments {
			entry.fallback = e.Arguments
		}
		return
	}
	if e.HasArguments {
		s.calls.Finalize(key, e.Arguments, true)
		return
	}
	s.calls.Finalize(key, entry.legacy, true)
}

func recordKey(itemID, callID string) string {
	if id := strings.TrimSpace(itemID); id != "" {
		return id
	}
	return strings.TrimSpace(callID)
}

// Result 汇总当前状态，返回的数据均为副本。
func (s *Session) Result() Result {
	return Result{
		Text:      s.transcript.String(),
		Fragments: s.transcript.Len(),
		Records:   s.calls.Records(),
		Counts:    s.counts,
		Terminal:  s.terminal,
		Status:    s.status,
	}
}

// Result 是一轮流结束后不可变的聚合结果。
type Result struct {
	Text      string   `json:"text"`
	Fragments int      `json:"fragments"`
	Records   []Record `json:"records"`
	Counts    Counters `json:"counts"`
	// Terminal 是最后一个终止事件的 type（response.completed / response.done），未收到时为空。
	Terminal string `json:"terminal,omitempty"`
	Status   string `json:"status,omitempty"`
}

// Finalized 返回已完成的工具调用，调用方只应信任这些记录的 arguments。
func (r Result) Finalized() []Record {
	return finalizedOnly(r.Records)
}

// ToolCalls 把已完成的记录转换为 eino 的 ToolCall，call_id 缺失时退回 item_id。
func (r Result) ToolCalls() []schema.ToolCall {
	finalized := r.Finalized()
	if len(finalized) == 0 {
		return nil
	}
	out := make([]schema.ToolCall, 0, len(finalized))
	for i, rec := range finalized {
		index := i
		id := rec.CallID
		if id == "" {
			id = rec.ItemID
		}
		out = append(out, schema.ToolCall{
			Index: &index,
			ID:    id,
			Type:  "function",
			Function: schema.FunctionCall{
				Name:      rec.Name,
				Arguments: rec.Arguments,
			},
		})
	}
	return out
}

// Message 把本轮结果表示为一条 assistant 消息（文本 + 已完成的工具调用）。
func (r Result) Message() *schema.Message {
	return schema.AssistantMessage(r.Text, r.ToolCalls())
}

// Replay 把事件序列重放到一个新的 Session 上。
func Replay(policy ArgumentsPolicy, events []event.Event) Result {
	s := NewSession(policy)
	for _, ev := range events {
		s.Apply(ev)
	}
	return s.Result()
}
