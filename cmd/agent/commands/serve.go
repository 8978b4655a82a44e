package commands

import (
	"os"
	"os/signal"
	"syscall"

	"web-agent/internal/infrastructure/httpapi"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API.

Endpoints:
  POST /api/agent   {"goal": "...", "steps": 6} streams NDJSON display events
  GET  /healthz     liveness probe

The listen address comes from HTTP_ADDR (default :3000).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		container, err := newContainer(ctx)
		if err != nil {
			return err
		}
		defer container.Close()

		routerCfg := httpapi.DefaultConfig()
		routerCfg.JSONAccessLog = container.Config.Log.Format != "console"
		router := httpapi.NewRouter(container.RunExecutor, container.Logger, routerCfg)

		server := httpapi.NewServer(container.Config.HTTPAddr, router, container.Logger, container.Config.ShutdownTimeout)
		return server.Run(ctx)
	},
}
