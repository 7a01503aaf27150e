package mockproxy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

const sseContentTypeValue = "text/event-stream"

// streamWriter 按 SSE 格式写事件：每个事件前带 event: 行，开头写一条注释保活，
// 这些非 data 行对客户端都是噪声。
type streamWriter struct {
	w          http.ResponseWriter
	flusher    http.Flusher
	responseID string
	model      string
}

func newStreamWriter(w http.ResponseWriter, model string) (*streamWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}
	w.Header().Set("Content-Type", sseContentTypeValue)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, ": keepalive\n\n")
	flusher.Flush()
	return &streamWriter{
		w:          w,
		flusher:    flusher,
		responseID: "resp_" + uuid.NewString(),
		model:      model,
	}, nil
}

func (s *streamWriter) emit(eventType string, payload map[string]any) {
	payload["type"] = eventType
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(s.w, "event: %s\n", eventType)
	_, _ = fmt.Fprintf(s.w, "data: %s\n\n", data)
	s.flusher.Flush()
}

func (s *streamWriter) done() {
	_, _ = fmt.Fprint(s.w, "data: [DONE]\n\n")
	s.flusher.Flush()
}

func (s *streamWriter) response(status string) map[string]any {
	return map[string]any{"id": s.responseID, "object": "response", "status": status, "model": s.model}
}

func (s *streamWriter) text(ctx context.Context, chunkSize int, text string) {
	itemID := "msg_" + uuid.NewString()
	s.emit("response.created", map[string]any{"response": s.response("in_progress")})
	s.emit("response.output_item.added", map[string]any{
		"output_index": 0,
		"item":         map[string]any{"type": "message", "id": itemID, "role": "assistant", "status": "in_progress"},
	})
	for _, chunk := range splitChunks(text, chunkSize) {
		if ctx.Err() != nil {
			return
		}
		s.emit("response.output_text.delta", map[string]any{"item_id": itemID, "output_index": 0, "delta": chunk})
	}
	s.emit("response.output_item.done", map[string]any{
		"output_index": 0,
		"item": map[string]any{
			"type": "message", "id": itemID, "role": "assistant", "status": "completed",
			"content": []map[string]any{{"type": "output_text", "text": text}},
		},
	})
	s.emit("response.completed", map[string]any{"response": s.response("completed")})
	s.done()
}

// toolCalls 为每组参数下发一个完整的工具调用。参数分片时新版 delta 与旧版 delta 交错出现。
func (s *streamWriter) toolCalls(ctx context.Context, cfg resolvedConfig, name string, arguments []string) {
	s.emit("response.created", map[string]any{"response": s.response("in_progress")})
	for index, args := range arguments {
		if ctx.Err() != nil {
			return
		}
		itemID := "fc_" + uuid.NewString()
		callID := "call_" + uuid.NewString()
		s.emit("response.output_item.added", map[string]any{
			"output_index": index,
			"item":         map[string]any{"type": "function_call", "id": itemID, "call_id": callID, "name": name, "arguments": ""},
		})
		if !cfg.DisableToolCallEvents {
			s.emit("response.output_tool_call.begin", map[string]any{
				"output_index": index, "item_id": itemID, "call_id": callID, "name": name,
			})
		}
		for _, chunk := range splitChunks(args, cfg.chunkSize) {
			if !cfg.DisableToolCallEvents {
				s.emit("response.output_tool_call.delta", map[string]any{
					"output_index": index, "item_id": itemID, "call_id": callID, "delta": chunk,
				})
			}
			if !cfg.DisableLegacyEvents {
				s.emit("response.function_call_arguments.delta", map[string]any{
					"output_index": index, "item_id": itemID, "delta": chunk,
				})
			}
		}
		if !cfg.DisableLegacyEvents {
			s.emit("response.function_call_arguments.done", map[string]any{
				"output_index": index, "item_id": itemID, "name": name, "arguments": args,
			})
		}
		if !cfg.DisableToolCallEvents {
			s.emit("response.output_tool_call.end", map[string]any{
				"output_index": index, "item_id": itemID, "call_id": callID, "arguments": args,
			})
		}
		s.emit("response.output_item.done", map[string]any{
			"output_index": index,
			"item": map[string]any{
				"type": "function_call", "id": itemID, "call_id": callID, "name": name,
				"arguments": args, "status": "completed",
			},
		})
	}
	s.emit("response.completed", map[string]any{"response": s.response("completed")})
	s.done()
}
