package event

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Decode 把一个负载解码为事件。解析失败不会返回错误，而是产出 Raw，保证畸形帧不会中断整条流。
func Decode(payload string) Event {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" || !gjson.Valid(trimmed) {
		return Raw{envelope{kind: TypeRaw, payload: payload}}
	}
	root := gjson.Parse(trimmed)
	if !root.IsObject() {
		return Raw{envelope{kind: TypeRaw, payload: payload}}
	}

	env := envelope{kind: stringField(root, "type"), payload: payload}
	switch env.kind {
	case TypeOutputTextDelta:
		return TextDelta{envelope: env, Delta: stringField(root, "delta")}
	case TypeCompleted, TypeDone:
		return Completed{envelope: env, Status: stringField(root, "response.status")}
	case TypeToolCallBegin:
		return ToolCallBegin{
			envelope: env,
			ItemID:   stringField(root, "item_id"),
			CallID:   stringField(root, "call_id"),
			Name:     stringField(root, "name"),
		}
	case TypeToolCallDelta:
		return ToolCallDelta{
			envelope: env,
			ItemID:   stringField(root, "item_id"),
			CallID:   stringField(root, "call_id"),
			Delta:    stringField(root, "delta"),
		}
	case TypeToolCallEnd:
		args, ok := argumentsField(root)
		return ToolCallEnd{
			envelope:     env,
			ItemID:       stringField(root, "item_id"),
			CallID:       stringField(root, "call_id"),
			Arguments:    args,
			HasArguments: ok,
		}
	case TypeArgumentsDelta:
		return ArgumentsDelta{
			envelope: env,
			ItemID:   stringField(root, "item_id"),
			CallID:   stringField(root, "call_id"),
			Delta:    stringField(root, "delta"),
		}
	case TypeArgumentsDone:
		args, ok := argumentsField(root)
		return ArgumentsDone{
			envelope:     env,
			ItemID:       stringField(root, "item_id"),
			CallID:       stringField(root, "call_id"),
			Name:         stringField(root, "name"),
			Arguments:    args,
			HasArguments: ok,
		}
	case TypeOutputItemDone:
		item := root.Get("item")
		args, _ := argumentsField(item)
		return OutputItemDone{
			envelope:  env,
			ItemType:  stringField(item, "type"),
			ItemID:    stringField(item, "id"),
			CallID:    stringField(item, "call_id"),
			Name:      stringField(item, "name"),
			Arguments: args,
		}
	default:
		return Unknown{env}
	}
}

func stringField(v gjson.Result, path string) string {
	r := v.Get(path)
	if r.Type != gjson.String {
		return ""
	}
	return r.String()
}

// argumentsField 兼容 arguments 为字符串或已展开 JSON 对象两种写法；null 视为缺失。
func argumentsField(v gjson.Result) (string, bool) {
	r := v.Get("arguments")
	switch r.Type {
	case gjson.String:
		return r.String(), true
	case gjson.Null:
		return "", false
	default:
		return r.Raw, true
	}
}
