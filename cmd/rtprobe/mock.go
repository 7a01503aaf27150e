package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/LubyRuffy/rtprobe/mockproxy"
)

func newMockCmd(opts *options) *cobra.Command {
	var (
		listen string
		mock   mockproxy.Config
	)
	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Serve a scripted /v1/responses endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			mock.Logger = &opts.log

			r := gin.New()
			r.Use(gin.Logger(), gin.Recovery())
			if err := mockproxy.RegisterGinRoutes(r, mock); err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              listen,
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(ctx)
			}()

			opts.log.Info().Str("listen", listen).Msgf("mock proxy listening on http://%s%s/responses", listen, mock.BasePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&listen, "listen", "127.0.0.1:8282", "listen address")
	f.StringVar(&mock.BasePath, "base-path", "/v1", "base path prefix")
	f.StringVar(&mock.Token, "token", "", "required bearer token (empty: any)")
	f.IntVar(&mock.ChunkSize, "chunk-size", 0, "argument/text fragment size")
	f.BoolVar(&mock.DisableLegacyEvents, "no-legacy", false, "omit function_call_arguments.* events")
	f.BoolVar(&mock.DisableToolCallEvents, "legacy-only", false, "omit output_tool_call.* events")
	f.BoolVar(&mock.IgnoreToolResults, "ignore-tool-results", false, "answer continuations without the tool result")
	return cmd
}
