package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hurttlocker/chartmerge/internal/httpapi"
	"github.com/hurttlocker/chartmerge/internal/mcp"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline over HTTP",
		Long: `Start the HTTP API.

Endpoints:
  POST /v1/normalize   normalize a chart (JSON {"text","mode"} or text/plain)
  POST /v1/sections    section extraction report
  POST /v1/classify    note classification
  GET  /v1/registry    active pattern registry
  GET  /healthz        liveness
  GET  /metrics        Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, cleanup, err := a.pipeline()
			if err != nil {
				return err
			}
			defer cleanup()

			srv, err := httpapi.NewServer(p, httpapi.Config{
				MaxBodyBytes: a.cfg.Input.MaxBytes,
				Gatherer:     a.promReg,
				Logger:       a.log,
				Version:      version,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(a.cfg.HTTP.Addr) }()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8086)")
	return cmd
}

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the pipeline as MCP tools over stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout.

Tools: chart_normalize, chart_sections, chart_classify, chart_registry.
Resource: chartmerge://registry.

Logs go to stderr so that stdout carries only JSON-RPC.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, cleanup, err := a.pipeline()
			if err != nil {
				return err
			}
			defer cleanup()

			s, err := mcp.NewServer(mcp.ServerConfig{Pipeline: p, Version: version})
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.log.Info().Msg("mcp server listening on stdio")
			return mcp.ServeStdio(ctx, s)
		},
	}
}
