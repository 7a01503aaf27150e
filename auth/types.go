package auth

import "context"

// Provider 提供访问代理所需的 bearer token，token 对本模块而言是不透明字符串。
type Provider interface {
	Token(ctx context.Context) (string, error)
}

type Source string

const (
	SourceEnv    Source = "env"
	SourceCodex  Source = "codex"
	SourceStatic Source = "static"
	SourceAuto   Source = "auto"
)
