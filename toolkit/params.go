package toolkit

import "github.com/cloudwego/eino/schema"

// paramsFromSchema 把 {"type":"object","properties":{...},"required":[...]} 形态的参数声明
// 转为 eino 的参数描述；没有 properties 时返回 nil。
func paramsFromSchema(params map[string]interface{}) *schema.ParamsOneOf {
	props := propertiesOf(params)
	if len(props) == 0 {
		return nil
	}
	return schema.NewParamsOneOfByParams(props)
}

func propertiesOf(obj map[string]interface{}) map[string]*schema.ParameterInfo {
	props, _ := obj["properties"].(map[string]interface{})
	if len(props) == 0 {
		return nil
	}
	required := requiredSet(obj["required"])
	out := make(map[string]*schema.ParameterInfo, len(props))
	for name, raw := range props {
		out[name] = parameterInfo(raw, required[name])
	}
	return out
}

func parameterInfo(raw interface{}, required bool) *schema.ParameterInfo {
	info := &schema.ParameterInfo{Required: required}
	prop, ok := raw.(map[string]interface{})
	if !ok {
		return info
	}
	if t, ok := prop["type"].(string); ok {
		info.Type = schema.DataType(t)
	}
	if d, ok := prop["description"].(string); ok {
		info.Desc = d
	}
	switch enum := prop["enum"].(type) {
	case []string:
		info.Enum = append(info.Enum, enum...)
	case []interface{}:
		for _, e := range enum {
			if s, ok := e.(string); ok {
				info.Enum = append(info.Enum, s)
			}
		}
	}
	if sub := propertiesOf(prop); len(sub) > 0 {
		info.SubParams = sub
	}
	if items, ok := prop["items"]; ok {
		info.ElemInfo = parameterInfo(items, false)
	}
	return info
}

// requiredSet 兼容 Go 字面量（[]string）与 JSON 解码结果（[]interface{}）。
func requiredSet(raw interface{}) map[string]bool {
	out := make(map[string]bool)
	switch names := raw.(type) {
	case []string:
		for _, n := range names {
			out[n] = true
		}
	case []interface{}:
		for _, n := range names {
			if s, ok := n.(string); ok {
				out[s] = true
			}
		}
	}
	return out
}
