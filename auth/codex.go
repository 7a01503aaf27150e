package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type codexAuthFile struct {
	OpenAIAPIKey string `json:"OPENAI_API_KEY"`
	Tokens       struct {
		AccessToken string `json:"access_token"`
	} `json:"tokens"`
}

// ReadCodexTokenFromPath 读取 codex 的 auth.json：优先 OPENAI_API_KEY，其次 tokens.access_token。
func ReadCodexTokenFromPath(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read codex auth file: %w", err)
	}

	var auth codexAuthFile
	if err := json.Unmarshal(data, &auth); err != nil {
		return "", fmt.Errorf("failed to parse codex auth file: %w", err)
	}

	token := strings.TrimSpace(auth.OpenAIAPIKey)
	if token == "" {
		token = strings.TrimSpace(auth.Tokens.AccessToken)
	}
	if token == "" {
		return "", fmt.Errorf("codex auth missing OPENAI_API_KEY and tokens.access_token")
	}
	return token, nil
}

func codexDefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".codex", "auth.json"), nil
}

type codexProvider struct{}

func (p *codexProvider) Token(ctx context.Context) (string, error) {
	path, err := codexDefaultPath()
	if err != nil {
		return "", err
	}
	return ReadCodexTokenFromPath(path)
}
