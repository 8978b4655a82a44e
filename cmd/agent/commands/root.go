package commands

import (
	"context"

	"web-agent/internal/di"
	"web-agent/internal/infrastructure/env"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "agent",
	Short:         "Web research agent",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
}

func Execute() error {
	return rootCmd.Execute()
}

func newContainer(ctx context.Context) (*di.Container, error) {
	cfg := di.ConfigFromEnv(env.NewEnvService())
	return di.NewContainer(ctx, cfg)
}
