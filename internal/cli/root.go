// Package cli defines the uptime-dashboard command line.
package cli

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/bissquit/uptime-dashboard/internal/app"
	"github.com/bissquit/uptime-dashboard/internal/config"
	"github.com/bissquit/uptime-dashboard/internal/version"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the command tree. Running the root command serves
// the API until SIGINT or SIGTERM.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "uptime-dashboard",
		Short: "Uptime dashboard API and health prober",
		Long: `Serves the uptime dashboard API and probes every registered
service on a schedule. Configuration comes from an optional YAML file
and UPTIME_ environment variables.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), configPath)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// Execute runs the root command with process arguments.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return NewRootCommand().ExecuteContext(ctx)
}

func serve(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	application, err := app.New(cfg)
	if err != nil {
		return err
	}

	slog.Info("uptime dashboard starting",
		"version", version.Version,
		"commit", version.GitCommit,
		"monitor_enabled", cfg.Monitor.Enabled,
		"demo_enabled", cfg.Demo.Enabled,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Run()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()

	return errors.Join(runErr, application.Shutdown(shutdownCtx))
}
