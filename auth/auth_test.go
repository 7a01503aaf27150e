package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadCodexTokenFromPath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "auth.json")
	require.NoError(t, os.WriteFile(p, []byte(`{
  "OPENAI_API_KEY": "",
  "tokens": {
    "access_token": "k_access"
  }
}`), 0o600))

	token, err := ReadCodexTokenFromPath(p)
	require.NoError(t, err)
	require.Equal(t, "k_access", token)
}

func TestReadCodexTokenFromPath_PrefersAPIKey(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "auth.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"OPENAI_API_KEY":"k_key","tokens":{"access_token":"k_access"}}`), 0o600))

	token, err := ReadCodexTokenFromPath(p)
	require.NoError(t, err)
	require.Equal(t, "k_key", token)
}

func TestEnvProvider(t *testing.T) {
	t.Setenv(EnvAPIKey, " cpk_test ")

	p, err := NewProvider("env", "")
	require.NoError(t, err)
	token, err := p.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "cpk_test", token)
}

func TestEnvProvider_Missing(t *testing.T) {
	t.Setenv(EnvAPIKey, "")

	p, err := NewProvider("", "")
	require.NoError(t, err)
	_, err = p.Token(context.Background())
	require.ErrorContains(t, err, EnvAPIKey)
}

func TestNewProvider_Auto(t *testing.T) {
	// 隔离真实 HOME，避免读取到开发机上的 ~/.codex/auth.json。
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvAPIKey, "k_env")

	p, err := NewProvider("auto", "")
	require.NoError(t, err)
	token, err := p.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "k_env", token)

	p, err = NewProvider("auto", "k_flag")
	require.NoError(t, err)
	token, err = p.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "k_flag", token)
}

func TestNewProvider_Unsupported(t *testing.T) {
	_, err := NewProvider("opencode", "")
	require.Error(t, err)
}
