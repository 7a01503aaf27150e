// Package chatmodel 把代理的流式 Responses 端点包装成 eino 的 ToolCallingChatModel，
// 使 eino 的 agent/graph 可以直接驱动往返。
package chatmodel

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/LubyRuffy/rtprobe/collect"
	"github.com/LubyRuffy/rtprobe/event"
	"github.com/LubyRuffy/rtprobe/responsesapi"
	"github.com/LubyRuffy/rtprobe/roundtrip"
)

const (
	FinishReasonToolCalls = "tool_calls"
	FinishReasonStop      = "stop"
)

type Config struct {
	Model    string
	Streamer roundtrip.Streamer
	// Instructions 会与 system 消息合并后作为 instructions 发送。
	Instructions    string
	MaxOutputTokens *int
	Temperature     *float32
	TopP            *float32
	Policy          collect.ArgumentsPolicy
	// Logger 可选，nil 时不输出日志。
	Logger *zerolog.Logger
}

// ChatModel 每次 Generate/Stream 都是一轮独立的流，不保留会话状态。
type ChatModel struct {
	config Config
	tools  []responsesapi.Tool
}

var _ einoModel.ToolCallingChatModel = (*ChatModel)(nil)

func New(config Config) (*ChatModel, error) {
	if strings.TrimSpace(config.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if config.Streamer == nil {
		return nil, fmt.Errorf("streamer is required")
	}
	return &ChatModel{config: config}, nil
}

func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einoModel.Option) (*schema.Message, error) {
	req, err := m.buildRequest(input, opts...)
	if err != nil {
		return nil, err
	}
	turn, err := roundtrip.RunTurn(ctx, m.config.Streamer, req, m.turnOptions(nil))
	if err != nil {
		return nil, err
	}
	msg := turn.Message()
	msg.ResponseMeta = &schema.ResponseMeta{FinishReason: finishReason(turn)}
	return msg, nil
}

// Stream 边读边转发文本分片；工具调用只在流结束后作为最后一个分片发出，保证 arguments 已完成。
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einoModel.Option) (*schema.StreamReader[*schema.Message], error) {
	req, err := m.buildRequest(input, opts...)
	if err != nil {
		return nil, err
	}
	sr, sw := schema.Pipe[*schema.Message](64)
	go func() {
		defer sw.Close()
		turn, err := roundtrip.RunTurn(ctx, m.config.Streamer, req, m.turnOptions(func(ev event.Event) {
			if delta, ok := ev.(event.TextDelta); ok && delta.Delta != "" {
				sw.Send(&schema.Message{Role: schema.Assistant, Content: delta.Delta}, nil)
			}
		}))
		if err != nil {
			sw.Send(nil, err)
			return
		}
		sw.Send(&schema.Message{
			Role:         schema.Assistant,
			ToolCalls:    turn.ToolCalls(),
			ResponseMeta: &schema.ResponseMeta{FinishReason: finishReason(turn)},
		}, nil)
	}()
	return sr, nil
}

func (m *ChatModel) WithTools(tools []*schema.ToolInfo) (einoModel.ToolCallingChatModel, error) {
	converted, err := toolsFromInfos(tools)
	if err != nil {
		return nil, err
	}
	cloned := *m
	cloned.tools = converted
	return &cloned, nil
}

func (m *ChatModel) turnOptions(onEvent func(event.Event)) roundtrip.TurnOptions {
	return roundtrip.TurnOptions{Policy: m.config.Policy, Logger: m.config.Logger, OnEvent: onEvent}
}

func (m *ChatModel) buildRequest(input []*schema.Message, opts ...einoModel.Option) (responsesapi.Request, error) {
	options := einoModel.GetCommonOptions(&einoModel.Options{
		MaxTokens:   m.config.MaxOutputTokens,
		Temperature: m.config.Temperature,
		TopP:        m.config.TopP,
	}, opts...)

	items, systemInstructions, err := responsesapi.InputFromMessages(input)
	if err != nil {
		return responsesapi.Request{}, err
	}

	tools := m.tools
	if len(options.Tools) > 0 {
		tools, err = toolsFromInfos(options.Tools)
		if err != nil {
			return responsesapi.Request{}, err
		}
	}

	model := m.config.Model
	if options.Model != nil && strings.TrimSpace(*options.Model) != "" {
		model = *options.Model
	}

	req := responsesapi.NewRequest(model, items, tools)
	req.Instructions = responsesapi.MergeInstructions(m.config.Instructions, systemInstructions)
	req.MaxOutputTokens = options.MaxTokens
	req.Temperature = options.Temperature
	req.TopP = options.TopP
	return req, nil
}

// toolsFromInfos 把 eino 的工具描述转为 function 工具声明，参数经 JSON Schema 序列化后原样透传。
func toolsFromInfos(infos []*schema.ToolInfo) ([]responsesapi.Tool, error) {
	out := make([]responsesapi.Tool, 0, len(infos))
	for _, info := range infos {
		if info == nil || strings.TrimSpace(info.Name) == "" {
			continue
		}
		var params map[string]interface{}
		if info.ParamsOneOf != nil {
			js, err := info.ParamsOneOf.ToJSONSchema()
			if err != nil {
				return nil, fmt.Errorf("failed to convert parameters of tool %s: %w", info.Name, err)
			}
			if js != nil {
				data, err := json.Marshal(js)
				if err != nil {
					return nil, fmt.Errorf("failed to encode parameters of tool %s: %w", info.Name, err)
				}
				if err := json.Unmarshal(data, &params); err != nil {
					return nil, fmt.Errorf("failed to decode parameters of tool %s: %w", info.Name, err)
				}
			}
		}
		out = append(out, responsesapi.FunctionTool(info.Name, info.Desc, params))
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func finishReason(turn *roundtrip.TurnResult) string {
	if len(turn.Finalized()) > 0 {
		return FinishReasonToolCalls
	}
	return FinishReasonStop
}
