// Package toolkit 在两轮之间执行模型请求的工具调用。
//
// 工具以 eino 的 tool.InvokableTool 表示，同时携带发往代理的声明（responsesapi.Tool）。
package toolkit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/LubyRuffy/rtprobe/responsesapi"
)

// Tool 是可声明、可执行的工具。
type Tool interface {
	tool.InvokableTool
	Definition() responsesapi.Tool
}

// ContentTyper 可选：声明工具结果的 content_type，未实现时由结果内容推断。
type ContentTyper interface {
	ContentType() string
}

// StaticTool 总是返回固定结果，用于模拟真实工具执行。
type StaticTool struct {
	Decl     responsesapi.Tool
	Body     string
	BodyType string
}

func (t *StaticTool) Definition() responsesapi.Tool {
	return t.Decl
}

func (t *StaticTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name:        t.Decl.Function.Name,
		Desc:        t.Decl.Function.Description,
		ParamsOneOf: paramsFromSchema(t.Decl.Function.Parameters),
	}, nil
}

// InvokableRun 校验 arguments 为 JSON（空串视为 {}）后返回固定结果。
func (t *StaticTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	args := strings.TrimSpace(argumentsInJSON)
	if args != "" && !json.Valid([]byte(args)) {
		return "", fmt.Errorf("invalid arguments for %s: %q", t.Decl.Function.Name, argumentsInJSON)
	}
	return t.Body, nil
}

func (t *StaticTool) ContentType() string {
	if strings.TrimSpace(t.BodyType) == "" {
		return responsesapi.ContentTypeJSON
	}
	return t.BodyType
}

// Registry 按名字索引工具，保持注册顺序。
type Registry struct {
	order  []Tool
	byName map[string]Tool
}

func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{byName: make(map[string]Tool)}
	for _, t := range tools {
		if t == nil {
			continue
		}
		name := strings.TrimSpace(t.Definition().Function.Name)
		if name == "" {
			return nil, fmt.Errorf("tool without name")
		}
		key := strings.ToLower(name)
		if _, exists := r.byName[key]; exists {
			return nil, fmt.Errorf("duplicate tool: %s", name)
		}
		r.byName[key] = t
		r.order = append(r.order, t)
	}
	return r, nil
}

// Definitions 返回发往代理的工具声明。
func (r *Registry) Definitions() []responsesapi.Tool {
	if r == nil {
		return nil
	}
	out := make([]responsesapi.Tool, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, t.Definition())
	}
	return out
}

func (r *Registry) Lookup(name string) (Tool, bool) {
	if r == nil {
		return nil, false
	}
	t, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// Result 是一次工具执行的输出。
type Result struct {
	CallID      string `json:"call_id"`
	Name        string `json:"name"`
	Body        string `json:"body"`
	ContentType string `json:"content_type,omitempty"`
}

// Message 把结果表示为 eino 的 tool 消息，content_type 放在 Extra 中。
func (r Result) Message() *schema.Message {
	msg := schema.ToolMessage(r.Body, r.CallID)
	if r.ContentType != "" {
		msg.Extra = map[string]any{responsesapi.ExtraContentType: r.ContentType}
	}
	return msg
}

// ErrNotRegistered 表示模型调用了未注册的工具。
var ErrNotRegistered = errors.New("tool not registered")

// Run 执行单个工具调用。
func (r *Registry) Run(ctx context.Context, call schema.ToolCall) (Result, error) {
	t, ok := r.Lookup(call.Function.Name)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrNotRegistered, call.Function.Name)
	}
	body, err := t.InvokableRun(ctx, call.Function.Arguments)
	if err != nil {
		return Result{}, fmt.Errorf("tool %s failed: %w", call.Function.Name, err)
	}
	res := Result{CallID: call.ID, Name: call.Function.Name, Body: body}
	if typer, ok := t.(ContentTyper); ok {
		res.ContentType = typer.ContentType()
	}
	return res, nil
}
