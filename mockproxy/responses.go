package mockproxy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// toolResult 是 input 中携带的一条工具结果。
type toolResult struct {
	CallID string
	Body   string
}

type inputSummary struct {
	Prompt      string
	ToolResults []toolResult
}

func newResponsesHandler(cfg resolvedConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeOpenAIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}

		token := bearerToken(r)
		if token == "" || (cfg.Token != "" && token != cfg.Token) {
			writeOpenAIError(w, http.StatusUnauthorized, "invalid_api_key", "missing or invalid bearer token")
			return
		}

		var req responsesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeOpenAIError(w, http.StatusUnprocessableEntity, "invalid_request_format", "invalid request body")
			return
		}
		if code, msg := validateRequest(&req); code != "" {
			writeOpenAIError(w, http.StatusBadRequest, code, msg)
			return
		}

		summary, err := summarizeInput(req.Input)
		if err != nil {
			writeOpenAIError(w, http.StatusBadRequest, "invalid_input", err.Error())
			return
		}

		sw, err := newStreamWriter(w, req.Model)
		if err != nil {
			writeOpenAIError(w, http.StatusInternalServerError, "streaming_unsupported", err.Error())
			return
		}

		log := cfg.log.With().Str("request_id", r.Header.Get("X-Request-Id")).Str("model", req.Model).Logger()
		if req.Store != nil && *req.Store {
			log.Warn().Msg("store requested but persistence is not supported; ignoring")
		}
		switch {
		case len(summary.ToolResults) > 0:
			log.Info().Int("tool_results", len(summary.ToolResults)).Msg("replaying continuation")
			sw.text(r.Context(), cfg.chunkSize, continuationText(summary.ToolResults, cfg.IgnoreToolResults))
		case len(req.Tools) > 0 && req.ToolChoice != "none":
			args := []string{cfg.Arguments}
			if req.ParallelToolCalls != nil && *req.ParallelToolCalls {
				args = cfg.ParallelArguments
			}
			log.Info().Str("tool", req.Tools[0].Function.Name).Int("calls", len(args)).Msg("replaying tool calls")
			sw.toolCalls(r.Context(), cfg, req.Tools[0].Function.Name, args)
		default:
			log.Info().Msg("replaying echo")
			sw.text(r.Context(), cfg.chunkSize, echoText(summary.Prompt, req.MaxOutputTokens))
		}
	}
}

func validateRequest(req *responsesRequest) (code, message string) {
	req.Model = strings.TrimSpace(req.Model)
	switch {
	case req.Model == "":
		return "model_required", "model is required"
	case !req.Stream:
		return "stream_required", "only streaming responses are supported"
	case req.Background:
		return "background_not_supported", "background responses are not supported"
	case req.MaxOutputTokens != nil && (*req.MaxOutputTokens < 1 || *req.MaxOutputTokens > maxOutputTokens):
		return "invalid_max_tokens", fmt.Sprintf("max_output_tokens out of range (%d)", *req.MaxOutputTokens)
	case len(req.Instructions) > maxInstructionBytes:
		return "instructions_too_large", fmt.Sprintf("instructions too large (%d bytes)", len(req.Instructions))
	}
	return "", ""
}

// summarizeInput 取出最后一条用户消息与全部工具结果。input 可以是字符串或 item 数组。
func summarizeInput(raw json.RawMessage) (inputSummary, error) {
	var out inputSummary
	input := gjson.ParseBytes(raw)
	switch {
	case input.Type == gjson.String:
		out.Prompt = input.String()
	case input.IsArray():
		items := input.Array()
		if len(items) > maxInputItems {
			return out, fmt.Errorf("too many input items (%d)", len(items))
		}
		for _, item := range items {
			role := item.Get("role").String()
			switch {
			case role == "tool" || item.Get("type").String() == "function_call_output":
				out.ToolResults = append(out.ToolResults, toolResult{
					CallID: firstNonEmpty(item.Get("tool_call_id").String(), item.Get("call_id").String()),
					Body:   toolResultBody(item),
				})
			case role == "user":
				out.Prompt = contentText(item.Get("content"))
			}
		}
	default:
		return out, fmt.Errorf("input is required")
	}
	return out, nil
}

func toolResultBody(item gjson.Result) string {
	if output := item.Get("output"); output.Exists() {
		return output.String()
	}
	content := item.Get("content")
	if content.IsArray() {
		var parts []string
		for _, block := range content.Array() {
			if body := block.Get("body"); body.Exists() {
				parts = append(parts, body.String())
			}
		}
		return strings.Join(parts, "\n")
	}
	return content.String()
}

func contentText(content gjson.Result) string {
	if !content.IsArray() {
		return content.String()
	}
	var parts []string
	for _, block := range content.Array() {
		if text := block.Get("text"); text.Exists() {
			parts = append(parts, text.String())
		}
	}
	return strings.Join(parts, "")
}

// continuationText 把工具结果中的字段逐个写进回复文本。
func continuationText(results []toolResult, ignore bool) string {
	if ignore {
		return "I was unable to read the tool output."
	}
	var sentences []string
	for _, res := range results {
		body := gjson.Parse(res.Body)
		if !body.IsObject() {
			sentences = append(sentences, fmt.Sprintf("The tool returned: %s.", strings.TrimSpace(res.Body)))
			continue
		}
		var fields []string
		body.ForEach(func(key, value gjson.Result) bool {
			fields = append(fields, fmt.Sprintf("%s %s", key.String(), value.String()))
			return true
		})
		sentences = append(sentences, fmt.Sprintf("The tool reported %s.", strings.Join(fields, ", ")))
	}
	return strings.Join(sentences, " ")
}

func echoText(prompt string, maxTokens *int) string {
	text := "Echo: " + strings.TrimSpace(prompt)
	if maxTokens == nil {
		return text
	}
	words := strings.Fields(text)
	if len(words) > *maxTokens {
		words = words[:*maxTokens]
	}
	return strings.Join(words, " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
