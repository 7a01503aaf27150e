// Package config 汇总探测所需的配置：默认值 ← YAML 文件 ← 环境变量，命令行参数由 cmd 层最后覆盖。
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	rtprobe "github.com/LubyRuffy/rtprobe"
	"github.com/LubyRuffy/rtprobe/auth"
	"github.com/LubyRuffy/rtprobe/collect"
)

const (
	DefaultTimeout  = 60 * time.Second
	DefaultLogLevel = "info"

	PolicyTerminal    = "terminal"
	PolicyAccumulated = "accumulated"
)

type Config struct {
	ProxyURL   string        `yaml:"proxy_url"`
	Model      string        `yaml:"model"`
	AuthSource string        `yaml:"auth_source"`
	APIKey     string        `yaml:"api_key,omitempty"`
	Timeout    time.Duration `yaml:"timeout"`
	LogLevel   string        `yaml:"log_level"`
	// Expect 是续写文本中应出现的标记，为空时使用天气工具的默认标记。
	Expect []string `yaml:"expect,omitempty"`
	// Policy 决定终止事件与累积分片冲突时取哪一个：terminal（默认）或 accumulated。
	Policy string `yaml:"arguments_policy"`
	// History 是探测历史数据库路径，为空时不记录。
	History string `yaml:"history,omitempty"`
}

func Default() Config {
	return Config{
		ProxyURL:   rtprobe.DefaultProxyURL,
		Model:      rtprobe.DefaultModel,
		AuthSource: string(auth.SourceEnv),
		Timeout:    DefaultTimeout,
		LogLevel:   DefaultLogLevel,
		Policy:     PolicyTerminal,
	}
}

// Load 依次应用默认值、path 指向的 YAML 文件（path 为空时跳过）与环境变量。
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := cfg.merge(data); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// merge 把 YAML 中出现的字段覆盖到 c 上，字符串字段支持 ${VAR} 与 ${VAR:default} 展开。
func (c *Config) merge(data []byte) error {
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	file.expandEnv(os.LookupEnv)

	if file.ProxyURL != "" {
		c.ProxyURL = file.ProxyURL
	}
	if file.Model != "" {
		c.Model = file.Model
	}
	if file.AuthSource != "" {
		c.AuthSource = file.AuthSource
	}
	if file.APIKey != "" {
		c.APIKey = file.APIKey
	}
	if file.Timeout > 0 {
		c.Timeout = file.Timeout
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
	}
	if len(file.Expect) > 0 {
		c.Expect = file.Expect
	}
	if file.Policy != "" {
		c.Policy = file.Policy
	}
	if file.History != "" {
		c.History = file.History
	}
	return nil
}

var envVarRegex = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

func (c *Config) expandEnv(lookup func(string) (string, bool)) {
	expand := func(s string) string {
		return envVarRegex.ReplaceAllStringFunc(s, func(match string) string {
			sub := envVarRegex.FindStringSubmatch(match)
			if v, ok := lookup(sub[1]); ok {
				return v
			}
			return sub[2]
		})
	}
	c.ProxyURL = expand(c.ProxyURL)
	c.Model = expand(c.Model)
	c.APIKey = expand(c.APIKey)
	c.History = expand(c.History)
}

// ApplyEnv 用环境变量覆盖配置。CHUTES_API_KEY 由 auth 包直接读取，不在这里处理。
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookupNonEmpty(lookup, rtprobe.EnvProxyURL); ok {
		c.ProxyURL = v
	}
	if v, ok := lookupNonEmpty(lookup, rtprobe.EnvModel); ok {
		c.Model = v
	}
	if v, ok := lookupNonEmpty(lookup, rtprobe.EnvTimeout); ok {
		d, err := ParseTimeout(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", rtprobe.EnvTimeout, err)
		}
		c.Timeout = d
	}
	if v, ok := lookupNonEmpty(lookup, rtprobe.EnvLogLevel); ok {
		c.LogLevel = v
	}
	if v, ok := lookupNonEmpty(lookup, rtprobe.EnvHistory); ok {
		c.History = v
	}
	return nil
}

func lookupNonEmpty(lookup func(string) (string, bool), key string) (string, bool) {
	v, ok := lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// ParseTimeout 接受 time.ParseDuration 的格式，也接受表示秒数的纯整数。
func ParseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(s)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("model is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if _, err := c.ArgumentsPolicy(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch auth.Source(strings.ToLower(strings.TrimSpace(c.AuthSource))) {
	case "", auth.SourceEnv, auth.SourceCodex, auth.SourceStatic, auth.SourceAuto:
	default:
		return fmt.Errorf("unsupported auth source: %s", c.AuthSource)
	}
	return nil
}

func (c Config) ArgumentsPolicy() (collect.ArgumentsPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(c.Policy)) {
	case "", PolicyTerminal:
		return collect.PreferTerminal, nil
	case PolicyAccumulated:
		return collect.PreferAccumulated, nil
	default:
		return collect.PreferTerminal, fmt.Errorf("unsupported arguments policy: %s", c.Policy)
	}
}

func (c Config) Level() (zerolog.Level, error) {
	if strings.TrimSpace(c.LogLevel) == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(c.LogLevel)))
}

// Redacted 返回可安全打印、也可以直接作为配置文件读回的 YAML。APIKey 被遮盖，timeout 写成 "60s" 形式。
func (c Config) Redacted() (string, error) {
	if c.APIKey != "" {
		c.APIKey = "***"
	}
	var node yaml.Node
	if err := node.Encode(c); err != nil {
		return "", err
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "timeout" {
			node.Content[i+1].Tag = "!!str"
			node.Content[i+1].Value = c.Timeout.String()
		}
	}
	data, err := yaml.Marshal(&node)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
