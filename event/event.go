// Package event 把 SSE 负载解码为封闭的事件变体集合。
//
// 解码永不失败：无法解析的负载变为 Raw，类型未识别（含缺失 type）的对象变为 Unknown。
// 所有变体都保留原始负载，其他字段可以通过 Field 按路径取出。
package event

import "github.com/tidwall/gjson"

const (
	TypeOutputTextDelta = "response.output_text.delta"
	TypeCompleted       = "response.completed"
	TypeDone            = "response.done"
	TypeToolCallBegin   = "response.output_tool_call.begin"
	TypeToolCallDelta   = "response.output_tool_call.delta"
	TypeToolCallEnd     = "response.output_tool_call.end"
	// 旧版兼容事件：与新版事件并行下发，按数量校验而非内容。
	TypeArgumentsDelta = "response.function_call_arguments.delta"
	TypeArgumentsDone  = "response.function_call_arguments.done"
	TypeOutputItemDone = "response.output_item.done"
	// TypeRaw 标记无法解析的负载。
	TypeRaw = "raw"

	ItemTypeFunctionCall = "function_call"
)

// Event 是封闭的事件变体接口，只能由本包实现。
type Event interface {
	Type() string
	Payload() string
	isEvent()
}

type envelope struct {
	kind    string
	payload string
}

func (e envelope) Type() string    { return e.kind }
func (e envelope) Payload() string { return e.payload }
func (envelope) isEvent()          {}

type TextDelta struct {
	envelope
	Delta string
}

// Completed 对应 response.completed 与 response.done，Type() 可区分二者。
type Completed struct {
	envelope
	Status string
}

type ToolCallBegin struct {
	envelope
	ItemID string
	CallID string
	Name   string
}

type ToolCallDelta struct {
	envelope
	ItemID string
	CallID string
	Delta  string
}

// ToolCallEnd 的 Arguments 只有在 HasArguments 为 true 时才具有权威性。
type ToolCallEnd struct {
	envelope
	ItemID       string
	CallID       string
	Arguments    string
	HasArguments bool
}

type ArgumentsDelta struct {
	envelope
	ItemID string
	CallID string
	Delta  string
}

type ArgumentsDone struct {
	envelope
	ItemID       string
	CallID       string
	Name         string
	Arguments    string
	HasArguments bool
}

// OutputItemDone 携带 response.output_item.done 的内层 item。
type OutputItemDone struct {
	envelope
	ItemType  string
	ItemID    string
	CallID    string
	Name      string
	Arguments string
}

// IsFunctionCall 报告内层 item 是否为 function_call。
func (e OutputItemDone) IsFunctionCall() bool {
	return e.ItemType == ItemTypeFunctionCall
}

// Unknown 是合法 JSON 但 type 未被识别（或缺失）的事件。
type Unknown struct {
	envelope
}

// Raw 是无法解析的负载，Payload() 返回原文。
type Raw struct {
	envelope
}

// Field 按 gjson 路径从事件原始负载中取字段，例如 "response.status"、"item.call_id"。
func Field(ev Event, path string) gjson.Result {
	if ev == nil {
		return gjson.Result{}
	}
	return gjson.Get(ev.Payload(), path)
}
