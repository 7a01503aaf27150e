// Package responsesapi 定义发往 Responses 代理的请求结构：请求体、input item、工具声明与
// MCP 风格的工具结果块，以及从 eino 消息历史到 input item 的转换。
//
// 该包只关注协议层，不做任何 I/O。
//
// 示例：构造一个携带工具结果的续写 input
//
//	items := []responsesapi.InputItem{
//		responsesapi.MessageItem(responsesapi.RoleUser, "What is the weather in San Francisco?"),
//		responsesapi.MessageItem(responsesapi.RoleAssistant, ""),
//		responsesapi.FunctionCallItem("call_1", "get_weather", `{"location":"San Francisco"}`),
//		responsesapi.ToolResultItem("call_1", responsesapi.ContentTypeJSON, `{"temperature":68}`),
//	}
package responsesapi
