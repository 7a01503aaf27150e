package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/LubyRuffy/rtprobe/history"
	"github.com/LubyRuffy/rtprobe/roundtrip"
)

// ErrNoToolCall 在要求必须发生工具调用、但模型直接给出文本时返回。
var ErrNoToolCall = errors.New("model answered without calling a tool")

func newRoundTripCmd(opts *options) *cobra.Command {
	var (
		prompt          string
		instructions    string
		requireToolCall bool
	)
	cmd := &cobra.Command{
		Use:   "roundtrip",
		Short: "Run the tool-call round trip and verify the tool result reaches the continuation",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			o, err := roundtrip.New(client, roundtrip.Config{
				Model:        opts.cfg.Model,
				Prompt:       prompt,
				Instructions: instructions,
				Expect:       opts.cfg.Expect,
				Policy:       opts.argumentsPolicy(),
				Logger:       &opts.log,
			})
			if err != nil {
				return err
			}

			opts.log.Info().Str("url", client.URL()).Str("model", opts.cfg.Model).Msg("starting round trip")
			start := time.Now()
			res, runErr := o.Run(cmd.Context())
			opts.record(cmd, history.FromRoundTrip(opts.cfg.Model, client.URL(), res, time.Since(start)))

			if err := renderRoundTrip(cmd.OutOrStdout(), opts.output, res); err != nil {
				return err
			}
			if runErr != nil {
				return runErr
			}
			if requireToolCall && res.State == roundtrip.StateNoToolCall {
				return ErrNoToolCall
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&prompt, "prompt", roundtrip.DefaultPrompt, "first-turn prompt")
	cmd.Flags().StringVar(&instructions, "instructions", "", "instructions sent with both turns")
	cmd.Flags().BoolVar(&requireToolCall, "require-tool-call", false, "fail when the model answers without a tool call")
	return cmd
}

func newSimpleCmd(opts *options) *cobra.Command {
	var (
		prompt    string
		maxTokens int
	)
	cmd := &cobra.Command{
		Use:   "simple",
		Short: "Send one prompt and print the streamed text",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			start := time.Now()
			turn, err := roundtrip.Simple(cmd.Context(), client, opts.cfg.Model, prompt, maxTokens, opts.turnOptions())
			opts.record(cmd, history.FromTurn(history.ScenarioSimple, opts.cfg.Model, client.URL(), turn, err, time.Since(start)))
			if err != nil {
				return err
			}
			return renderTurn(cmd.OutOrStdout(), opts.output, turn)
		},
	}
	cmd.Flags().StringVar(&prompt, "prompt", roundtrip.SimplePrompt, "prompt")
	cmd.Flags().IntVar(&maxTokens, "max-output-tokens", roundtrip.SimpleMaxTokens, "max_output_tokens, 0 for unlimited")
	return cmd
}

func newConversationCmd(opts *options) *cobra.Command {
	var maxTokens int
	cmd := &cobra.Command{
		Use:   "conversation",
		Short: "Send instructions plus a multi-message history",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			start := time.Now()
			turn, err := roundtrip.Conversation(cmd.Context(), client, opts.cfg.Model, roundtrip.DefaultConversation(), maxTokens, opts.turnOptions())
			opts.record(cmd, history.FromTurn(history.ScenarioConversation, opts.cfg.Model, client.URL(), turn, err, time.Since(start)))
			if err != nil {
				return err
			}
			return renderTurn(cmd.OutOrStdout(), opts.output, turn)
		},
	}
	cmd.Flags().IntVar(&maxTokens, "max-output-tokens", roundtrip.ConversationMaxTokens, "max_output_tokens, 0 for unlimited")
	return cmd
}

func newToolsCmd(opts *options) *cobra.Command {
	var (
		prompt   string
		parallel bool
	)
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Request (parallel) tool calls and list what the model asked for",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			start := time.Now()
			turn, err := roundtrip.ToolCalls(cmd.Context(), client, opts.cfg.Model, prompt, nil, parallel, opts.turnOptions())
			opts.record(cmd, history.FromTurn(history.ScenarioToolCalls, opts.cfg.Model, client.URL(), turn, err, time.Since(start)))
			if err != nil {
				return err
			}
			if len(turn.Finalized()) == 0 {
				opts.log.Warn().Msg("no tool calls were completed")
			}
			return renderTurn(cmd.OutOrStdout(), opts.output, turn)
		},
	}
	cmd.Flags().StringVar(&prompt, "prompt", roundtrip.ParallelPrompt, "prompt")
	cmd.Flags().BoolVar(&parallel, "parallel", true, "set parallel_tool_calls")
	return cmd
}

func (o *options) turnOptions() roundtrip.TurnOptions {
	return roundtrip.TurnOptions{Policy: o.argumentsPolicy(), Logger: &o.log}
}

func newHistoryCmd(opts *options) *cobra.Command {
	var (
		limit      int
		failedOnly bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded probe runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.cfg.History == "" {
				return fmt.Errorf("no history database configured (use --history)")
			}
			store, err := history.Open(opts.cfg.History)
			if err != nil {
				return err
			}
			defer store.Close()
			runs, err := store.Recent(cmd.Context(), limit, failedOnly)
			if err != nil {
				return err
			}
			return renderHistory(cmd.OutOrStdout(), opts.output, runs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "only show failed runs")
	return cmd
}

func newConfigCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := opts.cfg.Redacted()
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
}
