package roundtrip

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/LubyRuffy/rtprobe/responsesapi"
	"github.com/LubyRuffy/rtprobe/toolkit"
)

const (
	SimplePrompt    = "Tell me a short joke"
	ParallelPrompt  = "What's the weather in Boston and Seattle? I need both."
	SimpleMaxTokens = 100
	// ConversationMaxTokens 是多轮对话场景的输出上限。
	ConversationMaxTokens = 200
)

// DefaultConversation 返回多轮对话场景使用的历史。
func DefaultConversation() []*schema.Message {
	return []*schema.Message{
		schema.SystemMessage("You are a helpful assistant."),
		schema.UserMessage("What is the capital of France?"),
		schema.AssistantMessage("The capital of France is Paris.", nil),
		schema.UserMessage("What is its population?"),
	}
}

// Simple 发送单条提示词，不声明工具。maxTokens <= 0 时不限制输出。
func Simple(ctx context.Context, streamer Streamer, model, prompt string, maxTokens int, opts TurnOptions) (*TurnResult, error) {
	if prompt == "" {
		prompt = SimplePrompt
	}
	req := responsesapi.NewRequest(model, prompt, nil)
	if maxTokens > 0 {
		req.MaxOutputTokens = responsesapi.Int(maxTokens)
	}
	return RunTurn(ctx, streamer, req, opts)
}

// Conversation 把多轮历史作为 input 发送，system 消息转换为 instructions。
func Conversation(ctx context.Context, streamer Streamer, model string, history []*schema.Message, maxTokens int, opts TurnOptions) (*TurnResult, error) {
	if len(history) == 0 {
		history = DefaultConversation()
	}
	input, instructions, err := responsesapi.InputFromMessages(history)
	if err != nil {
		return nil, fmt.Errorf("failed to convert conversation: %w", err)
	}
	req := responsesapi.NewRequest(model, input, nil)
	req.Instructions = instructions
	if maxTokens > 0 {
		req.MaxOutputTokens = responsesapi.Int(maxTokens)
	}
	return RunTurn(ctx, streamer, req, opts)
}

// ToolCalls 声明工具并允许并行调用，只跑一轮，不执行工具；结果中的 Finalized() 即模型发起的调用。
func ToolCalls(ctx context.Context, streamer Streamer, model, prompt string, tools *toolkit.Registry, parallel bool, opts TurnOptions) (*TurnResult, error) {
	if prompt == "" {
		prompt = ParallelPrompt
	}
	if tools == nil {
		var err error
		tools, err = toolkit.NewRegistry(toolkit.NewWeather())
		if err != nil {
			return nil, err
		}
	}
	req := responsesapi.NewRequest(model, prompt, tools.Definitions())
	req.ToolChoice = "auto"
	req.ParallelToolCalls = responsesapi.Bool(parallel)
	return RunTurn(ctx, streamer, req, opts)
}
