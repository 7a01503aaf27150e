package responsesapi

import "strings"

// FunctionTool 构造一个 function 类型的工具声明。
func FunctionTool(name, description string, parameters map[string]interface{}) Tool {
	return Tool{
		Type: "function",
		Function: ToolFunction{
			Name:        strings.TrimSpace(name),
			Description: description,
			Parameters:  parameters,
		},
	}
}

// NormalizeTools 只保留有名字的 function 工具，并按名字（大小写不敏感）去重，保持原顺序。
func NormalizeTools(tools []Tool) []Tool {
	if len(tools) == 0 {
		return nil
	}

	result := make([]Tool, 0, len(tools))
	nameSet := make(map[string]struct{})
	for _, tool := range tools {
		toolType := strings.ToLower(strings.TrimSpace(tool.Type))
		if toolType == "" {
			toolType = "function"
		}
		if toolType != "function" {
			continue
		}
		name := strings.TrimSpace(tool.Function.Name)
		if name == "" {
			continue
		}
		normalized := strings.ToLower(name)
		if _, exists := nameSet[normalized]; exists {
			continue
		}
		nameSet[normalized] = struct{}{}

		tool.Type = toolType
		tool.Function.Name = name
		result = append(result, tool)
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// ToolNames 返回声明中的工具名，顺序与输入一致。
func ToolNames(tools []Tool) []string {
	out := make([]string, 0, len(tools))
	for _, tool := range tools {
		out = append(out, tool.Function.Name)
	}
	return out
}
