// Package proxyclient 向 Responses 代理发起流式请求，并把响应体包装为 SSE 帧序列。
//
// 本包不做任何重试：非 2xx 状态直接返回 *StatusError。
package proxyclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/LubyRuffy/rtprobe"
	"github.com/LubyRuffy/rtprobe/auth"
	"github.com/LubyRuffy/rtprobe/responsesapi"
)

const (
	maxErrBodyBytes     = 8 << 10
	sseContentTypeValue = "text/event-stream"
	// HeaderRequestID 用于把一轮请求与代理侧日志关联起来。
	HeaderRequestID     = "X-Request-Id"
	defaultUserAgent    = "rtprobe"
)

type Config struct {
	// BaseURL 代理地址，默认 rtprobe.DefaultProxyURL；可以带或不带 /v1。
	BaseURL string
	// HTTPClient 可选，nil 时使用 &http.Client{}。超时由它负责。
	HTTPClient *http.Client
	// Auth 可选；nil 时不发送 Authorization 头。
	Auth      auth.Provider
	UserAgent string
	// Logger 可选，nil 时不输出日志。
	Logger *zerolog.Logger
}

type Client struct {
	url        string
	httpClient *http.Client
	auth       auth.Provider
	userAgent  string
	log        zerolog.Logger
}

func New(cfg Config) (*Client, error) {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	ua := strings.TrimSpace(cfg.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	endpoint := rtprobe.ResponsesURL(cfg.BaseURL)
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return nil, fmt.Errorf("invalid proxy url: %s", cfg.BaseURL)
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Client{
		url:        endpoint,
		httpClient: client,
		auth:       cfg.Auth,
		userAgent:  ua,
		log:        logger,
	}, nil
}

// URL 返回实际请求的 Responses 端点。
func (c *Client) URL() string {
	return c.url
}

// Stream 发出请求并在收到 2xx 后返回打开的流；调用方负责 Close。
func (c *Client) Stream(ctx context.Context, payload responsesapi.Request) (*Stream, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode responses request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to build responses request: %w", err)
	}

	requestID := uuid.NewString()
	if c.auth != nil {
		token, err := c.auth.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve api key: %w", err)
		}
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", sseContentTypeValue)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(HeaderRequestID, requestID)
	injectTraceparent(ctx, req)

	c.log.Debug().Str("request_id", requestID).Str("url", c.url).Str("model", payload.Model).Msg("sending responses request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("responses request failed: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBodyBytes))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			RequestID:  requestID,
		}
	}
	return NewStream(resp.Body, requestID), nil
}

// StatusError 表示代理返回了非 2xx 状态。
type StatusError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *StatusError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Message) != "" {
		return fmt.Sprintf("responses request failed with status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("responses request failed with status %d", e.StatusCode)
}
