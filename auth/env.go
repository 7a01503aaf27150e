package auth

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvAPIKey 是代理 bearer token 的环境变量。
const EnvAPIKey = "CHUTES_API_KEY"

type envProvider struct {
	name string
}

func (p *envProvider) Token(ctx context.Context) (string, error) {
	name := p.name
	if name == "" {
		name = EnvAPIKey
	}
	token := strings.TrimSpace(os.Getenv(name))
	if token == "" {
		return "", fmt.Errorf("%s is not set", name)
	}
	return token, nil
}

type staticProvider struct {
	token string
}

func (p *staticProvider) Token(ctx context.Context) (string, error) {
	if strings.TrimSpace(p.token) == "" {
		return "", fmt.Errorf("static api key is empty")
	}
	return strings.TrimSpace(p.token), nil
}

// Static 返回固定 token 的 Provider。
func Static(token string) Provider {
	return &staticProvider{token: token}
}
