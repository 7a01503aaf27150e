package responsesapi

const (
	ItemTypeMessage      = "message"
	ItemTypeFunctionCall = "function_call"
	BlockTypeOutput      = "output"

	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
	RoleSystem    = "system"

	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain"
)

// Request 是 POST /v1/responses 的请求体。Input 为字符串或 []InputItem。
type Request struct {
	Model             string   `json:"model"`
	Input             any      `json:"input"`
	Instructions      string   `json:"instructions,omitempty"`
	Tools             []Tool   `json:"tools,omitempty"`
	ToolChoice        string   `json:"tool_choice,omitempty"`
	ParallelToolCalls *bool    `json:"parallel_tool_calls,omitempty"`
	MaxOutputTokens   *int     `json:"max_output_tokens,omitempty"`
	Temperature       *float32 `json:"temperature,omitempty"`
	TopP              *float32 `json:"top_p,omitempty"`
	Stream            bool     `json:"stream"`
}

// InputItem 覆盖三种出站形态：message、function_call 与 role=tool 的工具结果消息。
// Content 为字符串或 []OutputBlock；function_call 的 arguments 即使为空也要序列化，因此用指针。
type InputItem struct {
	Type       string  `json:"type"`
	Role       string  `json:"role,omitempty"`
	Content    any     `json:"content,omitempty"`
	ToolCallID string  `json:"tool_call_id,omitempty"`
	CallID     string  `json:"call_id,omitempty"`
	Name       string  `json:"name,omitempty"`
	Arguments  *string `json:"arguments,omitempty"`
}

// OutputBlock 是 MCP 风格的类型化工具结果块。
type OutputBlock struct {
	Type        string `json:"type"`
	ContentType string `json:"content_type"`
	Body        string `json:"body"`
}

// Tool 工具声明（function 嵌套形态）。
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction 工具函数定义。
type ToolFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

func MessageItem(role, content string) InputItem {
	return InputItem{Type: ItemTypeMessage, Role: role, Content: content}
}

func FunctionCallItem(callID, name, arguments string) InputItem {
	args := arguments
	return InputItem{Type: ItemTypeFunctionCall, CallID: callID, Name: name, Arguments: &args}
}

// ToolResultItem 构造以 call_id 关联的工具结果消息，content 为单个 output 块。
func ToolResultItem(callID, contentType, body string) InputItem {
	return InputItem{
		Type:       ItemTypeMessage,
		Role:       RoleTool,
		ToolCallID: callID,
		Content: []OutputBlock{{
			Type:        BlockTypeOutput,
			ContentType: contentType,
			Body:        body,
		}},
	}
}

// NewRequest 构造流式请求；tools 会先经过 NormalizeTools。
func NewRequest(model string, input any, tools []Tool) Request {
	return Request{
		Model:  model,
		Input:  input,
		Tools:  NormalizeTools(tools),
		Stream: true,
	}
}

func Bool(v bool) *bool { return &v }

func Int(v int) *int { return &v }
