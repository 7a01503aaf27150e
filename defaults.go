package rtprobe

import "strings"

const (
	// DefaultProxyURL 是被测代理的默认地址。
	DefaultProxyURL = "http://localhost:8282"
	// DefaultModel 是首轮与续写请求默认使用的模型。
	DefaultModel = "gpt-4o-mini"
	// ResponsesPath 是代理暴露的 Responses 端点。
	ResponsesPath = "/v1/responses"

	EnvProxyURL = "PROXY_URL"
	EnvAPIKey   = "CHUTES_API_KEY"
	EnvModel    = "RTPROBE_MODEL"
	EnvTimeout  = "RTPROBE_TIMEOUT"
	EnvConfig   = "RTPROBE_CONFIG"
	EnvLogLevel = "RTPROBE_LOG_LEVEL"
	EnvHistory  = "RTPROBE_HISTORY"
)

// ResponsesURL 拼接代理的 Responses 端点地址，容忍 base 末尾的 "/" 以及已经带上 /v1 的写法。
func ResponsesURL(base string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(base), "/")
	if trimmed == "" {
		trimmed = DefaultProxyURL
	}
	switch {
	case strings.HasSuffix(trimmed, ResponsesPath):
		return trimmed
	case strings.HasSuffix(trimmed, "/v1"):
		return trimmed + "/responses"
	default:
		return trimmed + ResponsesPath
	}
}
