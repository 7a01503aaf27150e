package mockproxy

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/LubyRuffy/rtprobe/responsesapi"
)

type Config struct {
	// BasePath 仅用于 Gin 注册路由时拼接路径，默认 "/v1"。
	BasePath string
	// Token 非空时要求 Authorization: Bearer <Token>；为空时只要求存在 Bearer 凭据。
	Token string
	// Arguments 是单个工具调用的参数；为空时使用 DefaultArguments。
	Arguments string
	// ParallelArguments 在请求允许并行调用时使用，每个元素对应一个调用；为空时使用 DefaultParallelArguments。
	ParallelArguments []string
	// ChunkSize 是参数分片长度，<= 0 时为 8。
	ChunkSize int
	// DisableLegacyEvents 关闭 function_call_arguments.* 兼容事件，模拟只发新版事件的代理。
	DisableLegacyEvents bool
	// DisableToolCallEvents 关闭 output_tool_call.* 事件，模拟只发旧版事件的代理。
	DisableToolCallEvents bool
	// IgnoreToolResults 为 true 时续写文本不引用工具结果。
	IgnoreToolResults bool
	// Logger 可选，nil 时不输出日志。
	Logger *zerolog.Logger
}

const (
	DefaultArguments = `{"location":"San Francisco, CA"}`
	defaultChunkSize = 8

	maxInputItems       = 1000
	maxOutputTokens     = 100_000
	maxInstructionBytes = 100 << 10
)

var DefaultParallelArguments = []string{
	`{"location":"Boston, MA"}`,
	`{"location":"Seattle, WA"}`,
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code,omitempty"`
	} `json:"error"`
}

type responsesRequest struct {
	Model             string              `json:"model"`
	Input             json.RawMessage     `json:"input"`
	Instructions      string              `json:"instructions,omitempty"`
	Tools             []responsesapi.Tool `json:"tools,omitempty"`
	ToolChoice        string              `json:"tool_choice,omitempty"`
	ParallelToolCalls *bool               `json:"parallel_tool_calls,omitempty"`
	MaxOutputTokens   *int                `json:"max_output_tokens,omitempty"`
	Stream            bool                `json:"stream"`
	Background        bool                `json:"background,omitempty"`
	Store             *bool               `json:"store,omitempty"`
}

type resolvedConfig struct {
	Config
	chunkSize int
	log       zerolog.Logger
}

func resolveConfig(cfg Config) resolvedConfig {
	out := resolvedConfig{Config: cfg, chunkSize: cfg.ChunkSize, log: zerolog.Nop()}
	if out.chunkSize <= 0 {
		out.chunkSize = defaultChunkSize
	}
	if out.Arguments == "" {
		out.Arguments = DefaultArguments
	}
	if len(out.ParallelArguments) == 0 {
		out.ParallelArguments = DefaultParallelArguments
	}
	if cfg.Logger != nil {
		out.log = *cfg.Logger
	}
	return out
}
