package roundtrip

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/LubyRuffy/rtprobe/collect"
	"github.com/LubyRuffy/rtprobe/responsesapi"
	"github.com/LubyRuffy/rtprobe/toolkit"
)

// DefaultPrompt 会诱导模型调用天气工具。
const DefaultPrompt = "What's the weather in San Francisco?"

// Config 是一次往返所需的全部参数，显式传入，不读取任何全局状态。
type Config struct {
	Model        string
	Prompt       string
	Instructions string
	// Tools 为空时使用内置的天气工具。
	Tools *toolkit.Registry
	// Expect 是续写文本中应出现的标记，任一命中即视为工具结果已传递；为空时取 toolkit.WeatherMarkers。
	Expect []string
	Policy collect.ArgumentsPolicy
	Logger *zerolog.Logger
}

// Result 汇总一次往返。State 为终态，Trace 记录经过的所有状态。
type Result struct {
	State        State                 `json:"state"`
	Trace        []State               `json:"trace"`
	Turn1        *TurnResult           `json:"turn1,omitempty"`
	Calls        []collect.Record      `json:"calls,omitempty"`
	ToolResults  []toolkit.Result      `json:"tool_results,omitempty"`
	Continuation *responsesapi.Request `json:"continuation,omitempty"`
	Turn2        *TurnResult           `json:"turn2,omitempty"`
	// Matched 是续写文本中命中的第一个标记。
	Matched string `json:"matched,omitempty"`
	Err     error  `json:"-"`
}

// Orchestrator 驱动 发起 → 聚合 → 执行工具 → 续写 → 校验 的往返流程。
type Orchestrator struct {
	streamer Streamer
	cfg      Config
	tools    *toolkit.Registry
	expect   []string
	log      zerolog.Logger
}

func New(streamer Streamer, cfg Config) (*Orchestrator, error) {
	if streamer == nil {
		return nil, errors.New("streamer is nil")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("model is required")
	}
	if strings.TrimSpace(cfg.Prompt) == "" {
		cfg.Prompt = DefaultPrompt
	}
	tools := cfg.Tools
	if tools == nil {
		var err error
		tools, err = toolkit.NewRegistry(toolkit.NewWeather())
		if err != nil {
			return nil, err
		}
	}
	expect := cfg.Expect
	if len(expect) == 0 {
		expect = toolkit.WeatherMarkers
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	return &Orchestrator{
		streamer: streamer,
		cfg:      cfg,
		tools:    tools,
		expect:   expect,
		log:      log.With().Str("component", "roundtrip").Logger(),
	}, nil
}

// Run 执行一次完整往返。返回的 Result 永不为 nil；仅在 State 为 StateFailed 时 error 非空，
// 且 error 为 *InvariantError。
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	res := &Result{State: StateInit, Trace: []State{StateInit}}
	opts := TurnOptions{Policy: o.cfg.Policy, Logger: &o.log}
	defs := o.tools.Definitions()

	o.enter(res, StateStreamingTurn1)
	req := responsesapi.NewRequest(o.cfg.Model, o.cfg.Prompt, defs)
	req.Instructions = o.cfg.Instructions
	turn1, err := RunTurn(ctx, o.streamer, req, opts)
	if err != nil {
		return o.fail(res, err)
	}
	res.Turn1 = turn1
	o.log.Info().
		Int("text_deltas", turn1.Counts.TextDeltas).
		Int("records", len(turn1.Records)).
		Bool("graceful", turn1.Graceful).
		Msg("turn 1 finished")

	calls := turn1.Finalized()
	if len(calls) == 0 {
		o.enter(res, StateNoToolCall)
		return res, nil
	}
	res.Calls = calls
	if err := checkToolCallEvents(turn1.Counts); err != nil {
		return o.fail(res, err)
	}
	o.enter(res, StateToolCallReady)

	o.enter(res, StateBuildingContinuation)
	cont, results, err := o.buildContinuation(ctx, turn1.Result)
	res.ToolResults = results
	if err != nil {
		return o.fail(res, err)
	}
	res.Continuation = &cont

	o.enter(res, StateStreamingTurn2)
	turn2, err := RunTurn(ctx, o.streamer, cont, opts)
	if err != nil {
		return o.fail(res, err)
	}
	res.Turn2 = turn2

	marker, ok := findMarker(turn2.Text, o.expect)
	if !ok {
		o.log.Warn().Str("text", collect.Preview(turn2.Text, 200)).Strs("expect", o.expect).Msg("tool result not reflected")
		return o.fail(res, ErrResultNotPropagated)
	}
	res.Matched = marker
	o.enter(res, StateVerified)
	return res, nil
}

func (o *Orchestrator) enter(res *Result, next State) {
	o.log.Info().Str("from", string(res.State)).Str("to", string(next)).Msg("state")
	res.State = next
	res.Trace = append(res.Trace, next)
}

func (o *Orchestrator) fail(res *Result, err error) (*Result, error) {
	failure := &InvariantError{State: res.State, Err: err}
	o.log.Error().Err(err).Str("state", string(res.State)).Msg("round trip failed")
	res.Err = failure
	o.enter(res, StateFailed)
	return res, failure
}

// buildContinuation 执行每个已完成的调用，并按 用户消息 → 助手占位 + function_call → 工具结果 的顺序
// 组装第二轮请求。
func (o *Orchestrator) buildContinuation(ctx context.Context, turn1 collect.Result) (responsesapi.Request, []toolkit.Result, error) {
	calls := turn1.ToolCalls()
	history := make([]*schema.Message, 0, len(calls)+2)
	history = append(history,
		schema.UserMessage(o.cfg.Prompt),
		schema.AssistantMessage("", calls),
	)

	results := make([]toolkit.Result, 0, len(calls))
	for _, call := range calls {
		out, err := o.tools.Run(ctx, call)
		if err != nil {
			if errors.Is(err, toolkit.ErrNotRegistered) {
				return responsesapi.Request{}, results, err
			}
			return responsesapi.Request{}, results, fmt.Errorf("%w: %v", ErrToolFailed, err)
		}
		o.log.Info().
			Str("call_id", out.CallID).
			Str("name", out.Name).
			Str("arguments", collect.Preview(call.Function.Arguments, 120)).
			Msg("tool executed")
		results = append(results, out)
		history = append(history, out.Message())
	}

	input, instructions, err := responsesapi.InputFromMessages(history)
	if err != nil {
		return responsesapi.Request{}, results, fmt.Errorf("failed to build continuation input: %w", err)
	}
	req := responsesapi.NewRequest(o.cfg.Model, input, o.tools.Definitions())
	req.Instructions = responsesapi.MergeInstructions(o.cfg.Instructions, instructions)
	return req, results, nil
}

// checkToolCallEvents 校验第一轮的事件计数。只在至少一个调用完成后才调用。
func checkToolCallEvents(c collect.Counters) error {
	switch {
	case c.Delta > 0 && c.Begin == 0:
		return ErrDeltaWithoutBegin
	case c.Begin == 0:
		return ErrNoBeginEvents
	case c.Delta == 0:
		return ErrNoDeltaEvents
	case c.End == 0:
		return ErrNoEndEvents
	case c.LegacyDelta == 0:
		return ErrNoLegacyDeltaEvents
	}
	return nil
}

func findMarker(text string, markers []string) (string, bool) {
	lower := strings.ToLower(text)
	for _, m := range markers {
		if m == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(m)) {
			return m, true
		}
	}
	return "", false
}
