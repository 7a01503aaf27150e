package roundtrip

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/LubyRuffy/rtprobe/collect"
	"github.com/LubyRuffy/rtprobe/event"
	"github.com/LubyRuffy/rtprobe/proxyclient"
	"github.com/LubyRuffy/rtprobe/responsesapi"
)

// Streamer 打开一条流式响应，*proxyclient.Client 是默认实现。
type Streamer interface {
	Stream(ctx context.Context, req responsesapi.Request) (*proxyclient.Stream, error)
}

// TurnResult 是一轮流的聚合结果。
type TurnResult struct {
	collect.Result
	RequestID string `json:"request_id"`
	// Graceful 表示流以 [DONE] 结束，而不是连接被提前关闭。
	Graceful bool `json:"graceful"`
	Frames   int  `json:"frames"`
}

// TurnOptions 控制单轮流的聚合策略与日志。
type TurnOptions struct {
	Policy collect.ArgumentsPolicy
	Logger *zerolog.Logger
	// OnEvent 在每个事件被聚合之后调用，可用于边读边转发文本。
	OnEvent func(event.Event)
}

func (o TurnOptions) logger() zerolog.Logger {
	if o.Logger == nil {
		return zerolog.Nop()
	}
	return *o.Logger
}

// RunTurn 发出请求并顺序消费整条流：帧读取 → 解码 → 分发，每轮使用全新的 Session。
// 传输错误（含读流中途失败）直接返回，不重试。
func RunTurn(ctx context.Context, streamer Streamer, req responsesapi.Request, opts TurnOptions) (*TurnResult, error) {
	stream, err := streamer.Stream(ctx, req)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	log := opts.logger().With().Str("request_id", stream.RequestID).Logger()
	session := collect.NewSession(opts.Policy)
	for {
		payload, ok, err := stream.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("stream interrupted after %d frames: %w", stream.Frames(), err)
		}
		if !ok {
			break
		}
		ev := event.Decode(payload)
		logEvent(log, ev)
		session.Apply(ev)
		if opts.OnEvent != nil {
			opts.OnEvent(ev)
		}
	}

	if !stream.Done() {
		log.Warn().Int("frames", stream.Frames()).Msg("stream closed without [DONE]")
	}
	return &TurnResult{
		Result:    session.Result(),
		RequestID: stream.RequestID,
		Graceful:  stream.Done(),
		Frames:    stream.Frames(),
	}, nil
}

func logEvent(log zerolog.Logger, ev event.Event) {
	if log.GetLevel() > zerolog.DebugLevel {
		return
	}
	e := log.Debug().Str("type", ev.Type())
	switch v := ev.(type) {
	case event.ToolCallBegin:
		e = e.Str("item_id", v.ItemID).Str("call_id", v.CallID).Str("name", v.Name)
	case event.ToolCallDelta:
		e = e.Str("item_id", v.ItemID).Str("delta", collect.Preview(v.Delta, 30))
	case event.ToolCallEnd:
		e = e.Str("item_id", v.ItemID).Bool("has_arguments", v.HasArguments)
	case event.Completed:
		e = e.Str("status", v.Status)
	case event.Raw:
		e = e.Str("payload", collect.Preview(v.Payload(), 80))
	}
	e.Msg("event")
}
