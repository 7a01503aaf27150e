package roundtrip

import (
	"errors"
	"fmt"

	"github.com/LubyRuffy/rtprobe/toolkit"
)

// State 是往返状态机的状态。
type State string

const (
	StateInit                 State = "init"
	StateStreamingTurn1       State = "streaming_turn1"
	StateNoToolCall           State = "no_tool_call"
	StateToolCallReady        State = "tool_call_ready"
	StateBuildingContinuation State = "building_continuation"
	StateStreamingTurn2       State = "streaming_turn2"
	StateVerified             State = "verified"
	StateFailed               State = "failed"
)

// Terminal 报告状态是否为终态。
func (s State) Terminal() bool {
	switch s {
	case StateNoToolCall, StateVerified, StateFailed:
		return true
	default:
		return false
	}
}

// 协议不变量：被违反时以具名错误暴露，而不是被吞掉。
var (
	ErrDeltaWithoutBegin   = errors.New("output_tool_call.delta observed without any output_tool_call.begin")
	ErrNoBeginEvents       = errors.New("expected at least one output_tool_call.begin event")
	ErrNoDeltaEvents       = errors.New("expected at least one output_tool_call.delta event")
	ErrNoEndEvents         = errors.New("expected at least one output_tool_call.end event")
	ErrNoLegacyDeltaEvents = errors.New("expected legacy function_call_arguments.delta for compatibility")
	ErrResultNotPropagated = errors.New("continuation transcript does not reflect the tool result")
	ErrToolNotRegistered   = toolkit.ErrNotRegistered
	ErrToolFailed          = errors.New("tool execution failed")
)

// InvariantError 记录失败发生时所处的状态，Unwrap 返回具体原因（具名不变量或传输错误）。
type InvariantError struct {
	State State
	Err   error
}

func (e *InvariantError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", e.State, e.Err)
}

func (e *InvariantError) Unwrap() error { return e.Err }
