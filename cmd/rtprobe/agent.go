package main

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/spf13/cobra"

	"github.com/LubyRuffy/rtprobe/chatmodel"
	"github.com/LubyRuffy/rtprobe/roundtrip"
	"github.com/LubyRuffy/rtprobe/toolkit"
)

const (
	agentName        = "rtprobe"
	agentDescription = "Answers questions using the tools exposed through the proxy"
)

// newAgentCmd 让 eino 的 ChatModelAgent 通过代理完成工具调用往返，工具执行由 eino 负责。
func newAgentCmd(opts *options) *cobra.Command {
	var (
		input     string
		streaming bool
	)
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Let an eino agent drive the tool-call round trip through the proxy",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			m, err := chatmodel.New(chatmodel.Config{
				Model:    opts.cfg.Model,
				Streamer: client,
				Policy:   opts.argumentsPolicy(),
				Logger:   &opts.log,
			})
			if err != nil {
				return err
			}
			return runAgent(cmd.Context(), cmd.OutOrStdout(), m, input, streaming)
		},
	}
	cmd.Flags().StringVar(&input, "input", roundtrip.DefaultPrompt, "user input")
	cmd.Flags().BoolVar(&streaming, "stream", false, "use the streaming chat model path")
	return cmd
}

func runAgent(ctx context.Context, w io.Writer, m *chatmodel.ChatModel, input string, streaming bool) error {
	agent, err := adk.NewChatModelAgent(ctx, &adk.ChatModelAgentConfig{
		Name:        agentName,
		Description: agentDescription,
		Model:       m,
		ToolsConfig: adk.ToolsConfig{
			ToolsNodeConfig: compose.ToolsNodeConfig{
				Tools: []tool.BaseTool{toolkit.NewWeather()},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create agent failed: %w", err)
	}

	runner := adk.NewRunner(ctx, adk.RunnerConfig{
		Agent:           agent,
		EnableStreaming: streaming,
	})

	iter := runner.Run(ctx, []adk.Message{schema.UserMessage(input)})
	for {
		ev, ok := iter.Next()
		if !ok {
			break
		}
		if ev.Err != nil {
			return fmt.Errorf("agent run failed: %w", ev.Err)
		}
		if ev.Output == nil || ev.Output.MessageOutput == nil {
			continue
		}
		msg, err := ev.Output.MessageOutput.GetMessage()
		if err != nil {
			return fmt.Errorf("agent run failed: %w", err)
		}
		if msg == nil {
			continue
		}
		for _, call := range msg.ToolCalls {
			fmt.Fprintf(w, "[tool call] %s %s\n", call.Function.Name, call.Function.Arguments)
		}
		if msg.Role == schema.Tool {
			fmt.Fprintf(w, "[tool result] %s\n", msg.Content)
			continue
		}
		if msg.Content != "" {
			fmt.Fprintln(w, msg.Content)
		}
	}
	return nil
}
