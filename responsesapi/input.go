package responsesapi

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// ExtraContentType 是 tool 消息 Extra 中指定结果 content_type 的键。
const ExtraContentType = "content_type"

// InputFromMessages 把 eino 消息历史转换为 input item 列表。
//   - system 消息合并为 instructions 返回
//   - 带 ToolCalls 的 assistant 消息先输出一条（可能为空的）占位 message，再逐个输出 function_call
//   - tool 消息输出为以 call_id 关联的工具结果消息
func InputFromMessages(input []*schema.Message) ([]InputItem, string, error) {
	var (
		items        []InputItem
		instructions string
	)

	for _, msg := range input {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			instructions = MergeInstructions(instructions, msg.Content)
		case schema.Tool:
			callID := strings.TrimSpace(msg.ToolCallID)
			if callID == "" {
				return nil, "", fmt.Errorf("tool message without tool_call_id")
			}
			items = append(items, ToolResultItem(callID, toolContentType(msg), msg.Content))
		case schema.Assistant:
			content := resolveMessageContent(msg)
			if content != "" || len(msg.ToolCalls) > 0 {
				items = append(items, MessageItem(RoleAssistant, content))
			}
			for _, toolCall := range msg.ToolCalls {
				callID := strings.TrimSpace(toolCall.ID)
				if callID == "" {
					continue
				}
				items = append(items, FunctionCallItem(callID, strings.TrimSpace(toolCall.Function.Name), toolCall.Function.Arguments))
			}
		default:
			content := resolveMessageContent(msg)
			if content == "" {
				continue
			}
			items = append(items, MessageItem(string(msg.Role), content))
		}
	}

	if len(items) == 0 {
		return nil, "", fmt.Errorf("no valid messages to send")
	}
	return items, instructions, nil
}

func resolveMessageContent(msg *schema.Message) string {
	if msg.Content != "" {
		return msg.Content
	}
	if len(msg.UserInputMultiContent) > 0 {
		var builder strings.Builder
		for _, part := range msg.UserInputMultiContent {
			if part.Type == schema.ChatMessagePartTypeText {
				builder.WriteString(part.Text)
			}
		}
		return builder.String()
	}
	return ""
}

func toolContentType(msg *schema.Message) string {
	if msg.Extra != nil {
		if ct, ok := msg.Extra[ExtraContentType].(string); ok && strings.TrimSpace(ct) != "" {
			return strings.TrimSpace(ct)
		}
	}
	if json.Valid([]byte(msg.Content)) {
		return ContentTypeJSON
	}
	return ContentTypeText
}

// MergeInstructions 用空行连接两段 instructions，忽略空段。
func MergeInstructions(a, b string) string {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + "\n\n" + b
}
