package chatmodel

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/LubyRuffy/rtprobe/auth"
	"github.com/LubyRuffy/rtprobe/mockproxy"
	"github.com/LubyRuffy/rtprobe/proxyclient"
	"github.com/LubyRuffy/rtprobe/toolkit"
)

func newMockModel(t *testing.T) einoModel.ToolCallingChatModel {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	require.NoError(t, mockproxy.RegisterGinRoutes(r, mockproxy.Config{}))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	client, err := proxyclient.New(proxyclient.Config{BaseURL: srv.URL, Auth: auth.Static("k")})
	require.NoError(t, err)
	m, err := New(Config{Model: "gpt-4o-mini", Streamer: client})
	require.NoError(t, err)

	info, err := toolkit.NewWeather().Info(context.Background())
	require.NoError(t, err)
	withTools, err := m.WithTools([]*schema.ToolInfo{info})
	require.NoError(t, err)
	return withTools
}

func TestChatModel_GenerateToolCallThenAnswer(t *testing.T) {
	m := newMockModel(t)
	ctx := context.Background()
	history := []*schema.Message{schema.UserMessage("What's the weather in San Francisco?")}

	first, err := m.Generate(ctx, history)
	require.NoError(t, err)
	require.Equal(t, schema.Assistant, first.Role)
	require.Len(t, first.ToolCalls, 1)
	require.Equal(t, toolkit.WeatherToolName, first.ToolCalls[0].Function.Name)
	require.Equal(t, mockproxy.DefaultArguments, first.ToolCalls[0].Function.Arguments)
	require.Equal(t, FinishReasonToolCalls, first.ResponseMeta.FinishReason)

	history = append(history, first, schema.ToolMessage(toolkit.WeatherResultBody, first.ToolCalls[0].ID))
	second, err := m.Generate(ctx, history)
	require.NoError(t, err)
	require.Empty(t, second.ToolCalls)
	require.Contains(t, second.Content, "68")
	require.Equal(t, FinishReasonStop, second.ResponseMeta.FinishReason)
}

func TestChatModel_StreamForwardsTextThenToolCalls(t *testing.T) {
	m := newMockModel(t)
	ctx := context.Background()

	sr, err := m.Stream(ctx, []*schema.Message{
		schema.UserMessage("weather?"),
		schema.AssistantMessage("", []schema.ToolCall{{ID: "call_1", Function: schema.FunctionCall{Name: toolkit.WeatherToolName, Arguments: "{}"}}}),
		schema.ToolMessage(toolkit.WeatherResultBody, "call_1"),
	})
	require.NoError(t, err)
	defer sr.Close()

	var (
		text   strings.Builder
		chunks int
		last   *schema.Message
	)
	for {
		msg, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		chunks++
		text.WriteString(msg.Content)
		last = msg
	}
	require.Greater(t, chunks, 2)
	require.Contains(t, text.String(), "foggy")
	require.NotNil(t, last)
	require.Equal(t, FinishReasonStop, last.ResponseMeta.FinishReason)
}

func TestChatModel_RequestOptions(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: {\"type\":\"response.output_text.delta\",\"delta\":\"ok\"}\n\ndata: [DONE]\n\n")
	}))
	t.Cleanup(srv.Close)
	client, err := proxyclient.New(proxyclient.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	m, err := New(Config{Model: "base-model", Streamer: client, Instructions: "Be brief."})
	require.NoError(t, err)

	msg, err := m.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("Answer in English."),
		schema.UserMessage("hi"),
	}, einoModel.WithModel("override-model"), einoModel.WithMaxTokens(50), einoModel.WithTemperature(0.2))
	require.NoError(t, err)
	require.Equal(t, "ok", msg.Content)

	require.Equal(t, "override-model", payload["model"])
	require.Equal(t, "Be brief.\n\nAnswer in English.", payload["instructions"])
	require.EqualValues(t, 50, payload["max_output_tokens"])
	require.InDelta(t, 0.2, payload["temperature"], 1e-6)
	require.Equal(t, true, payload["stream"])
	require.Nil(t, payload["tools"])
}

func TestChatModel_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	client, err := proxyclient.New(proxyclient.Config{BaseURL: srv.URL})
	require.NoError(t, err)
	m, err := New(Config{Model: "m", Streamer: client})
	require.NoError(t, err)

	_, err = m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	var statusErr *proxyclient.StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)

	_, err = m.Generate(context.Background(), nil)
	require.Error(t, err)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	_, err = New(Config{Model: "m"})
	require.Error(t, err)
}

func TestToolsFromInfos(t *testing.T) {
	info, err := toolkit.NewWeather().Info(context.Background())
	require.NoError(t, err)

	tools, err := toolsFromInfos([]*schema.ToolInfo{nil, info, {Name: "ping", Desc: "no params"}})
	require.NoError(t, err)
	require.Len(t, tools, 2)
	require.Equal(t, "function", tools[0].Type)
	require.Equal(t, toolkit.WeatherToolName, tools[0].Function.Name)
	require.Equal(t, "object", tools[0].Function.Parameters["type"])
	require.Contains(t, tools[0].Function.Parameters["properties"], "location")
	require.Nil(t, tools[1].Function.Parameters)

	none, err := toolsFromInfos(nil)
	require.NoError(t, err)
	require.Nil(t, none)
}
