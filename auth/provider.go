package auth

import (
	"context"
	"fmt"
	"strings"
)

// NewProvider 根据来源创建 Provider。
// source 允许：env/codex/static/auto；空值按 env 处理。static 使用 value 作为 token。
func NewProvider(source string, value string) (Provider, error) {
	s := strings.ToLower(strings.TrimSpace(source))
	if s == "" {
		s = string(SourceEnv)
	}
	switch Source(s) {
	case SourceEnv:
		return &envProvider{}, nil
	case SourceCodex:
		return &codexProvider{}, nil
	case SourceStatic:
		return Static(value), nil
	case SourceAuto:
		providers := []Provider{}
		if strings.TrimSpace(value) != "" {
			providers = append(providers, Static(value))
		}
		providers = append(providers, &envProvider{}, &codexProvider{})
		return &autoProvider{providers: providers}, nil
	default:
		return nil, fmt.Errorf("unsupported auth source: %s", source)
	}
}

type autoProvider struct {
	providers []Provider
}

func (p *autoProvider) Token(ctx context.Context) (string, error) {
	var lastErr error
	for _, provider := range p.providers {
		token, err := provider.Token(ctx)
		if err == nil && strings.TrimSpace(token) != "" {
			return token, nil
		}
		if err != nil {
			lastErr = err
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", fmt.Errorf("no api key available")
}
