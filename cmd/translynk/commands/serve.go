package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nadzzz/translynk/internal/app"
)

func serveCmd(e *env, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC daemon",
		Long: `Run the translation daemon.

Serves the HTTP API (with Swagger UI), the gRPC health service and the
health/readiness endpoints until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			slog.Info("translynk starting", "version", version)

			a, err := app.New(ctx, e.cfg, e.opts...)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					slog.Error("shutdown error", "error", err)
				}
			}()
			return a.Serve(ctx)
		},
	}
}
