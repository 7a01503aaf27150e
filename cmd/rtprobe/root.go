package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	rtprobe "github.com/LubyRuffy/rtprobe"
	"github.com/LubyRuffy/rtprobe/auth"
	"github.com/LubyRuffy/rtprobe/collect"
	"github.com/LubyRuffy/rtprobe/config"
	"github.com/LubyRuffy/rtprobe/history"
	"github.com/LubyRuffy/rtprobe/proxyclient"
)

const (
	outputText = "text"
	outputJSON = "json"
)

// options 保存全局参数以及由它们解析出的配置、日志。
type options struct {
	configPath string
	proxyURL   string
	model      string
	authSource string
	apiKey     string
	timeout    time.Duration
	logLevel   string
	policy     string
	history    string
	output     string

	cfg config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "rtprobe",
		Short: "Probe a Responses-style proxy for streaming tool-call round trips",
		Long: `rtprobe talks to a proxy that exposes POST /v1/responses over SSE.

Commands:
  roundtrip     Tool call → tool result → continuation, verified end to end
  simple        Single prompt with max_output_tokens
  conversation  Instructions plus multi-message history
  tools         Parallel tool calls, listed without execution
  agent         An eino agent drives the round trip and runs the tool itself
  mock          Serve a scripted proxy for local runs
  history       Show recorded probe runs
  config        Print the effective configuration`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (default: $"+rtprobe.EnvConfig+")")
	pf.StringVar(&opts.proxyURL, "proxy-url", "", "proxy base url (default: $"+rtprobe.EnvProxyURL+" or "+rtprobe.DefaultProxyURL+")")
	pf.StringVar(&opts.model, "model", "", "model id (default: "+rtprobe.DefaultModel+")")
	pf.StringVar(&opts.authSource, "auth-source", "", "auth source: env|codex|static|auto")
	pf.StringVar(&opts.apiKey, "api-key", "", "api key for auth source static/auto")
	pf.DurationVar(&opts.timeout, "timeout", 0, "per-request timeout (default: 60s)")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug|info|warn|error")
	pf.StringVar(&opts.policy, "arguments-policy", "", "which arguments win on conflict: terminal|accumulated")
	pf.StringVar(&opts.history, "history", "", "record runs into this sqlite file")
	pf.StringVarP(&opts.output, "output", "o", outputText, "output format: text|json")

	root.AddCommand(
		newRoundTripCmd(opts),
		newSimpleCmd(opts),
		newConversationCmd(opts),
		newToolsCmd(opts),
		newAgentCmd(opts),
		newMockCmd(opts),
		newHistoryCmd(opts),
		newConfigCmd(opts),
	)
	return root
}

// load 按 默认值 ← 配置文件 ← 环境变量 ← 命令行 的顺序得到最终配置。
func (o *options) load(cmd *cobra.Command) error {
	path := strings.TrimSpace(o.configPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(rtprobe.EnvConfig))
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("proxy-url") {
		cfg.ProxyURL = o.proxyURL
	}
	if flags.Changed("model") {
		cfg.Model = o.model
	}
	if flags.Changed("auth-source") {
		cfg.AuthSource = o.authSource
	}
	if flags.Changed("api-key") {
		cfg.APIKey = o.apiKey
	}
	if flags.Changed("timeout") {
		cfg.Timeout = o.timeout
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("arguments-policy") {
		cfg.Policy = o.policy
	}
	if flags.Changed("history") {
		cfg.History = o.history
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if o.output != outputText && o.output != outputJSON {
		return fmt.Errorf("unsupported output format: %s", o.output)
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.log = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
	return nil
}

func (o *options) client() (*proxyclient.Client, error) {
	provider, err := auth.NewProvider(o.cfg.AuthSource, o.cfg.APIKey)
	if err != nil {
		return nil, err
	}
	return proxyclient.New(proxyclient.Config{
		BaseURL:    o.cfg.ProxyURL,
		HTTPClient: &http.Client{Timeout: o.cfg.Timeout},
		Auth:       provider,
		Logger:     &o.log,
	})
}

func (o *options) argumentsPolicy() collect.ArgumentsPolicy {
	policy, _ := o.cfg.ArgumentsPolicy()
	return policy
}

// record 把一次探测写入历史库；未配置历史库时什么也不做，写入失败只记录日志。
func (o *options) record(cmd *cobra.Command, run *history.Run) {
	if o.cfg.History == "" || run == nil {
		return
	}
	store, err := history.Open(o.cfg.History)
	if err != nil {
		o.log.Warn().Err(err).Msg("history unavailable")
		return
	}
	defer store.Close()
	if err := store.Save(cmd.Context(), run); err != nil {
		o.log.Warn().Err(err).Msg("failed to record run")
	}
}
