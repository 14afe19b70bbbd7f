package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/localrivet/aisummarizer/internal/server"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio",
		Long: `Run the summarizer as an MCP server on stdin and stdout.

With --metrics-addr (or metrics.addr in the config) Prometheus metrics and
a health check are served over HTTP at /metrics and /healthz.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := root.newService(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()
			logger := svc.Logger()

			if metricsAddr == "" {
				metricsAddr = svc.Config().Metrics.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if metricsAddr != "" {
				handler := server.NewHTTPHandler(svc, svc.MetricsHandler())
				go func() {
					if err := server.ServeHTTP(ctx, metricsAddr, handler, logger); err != nil {
						logger.Error("Metrics server stopped", "error", err)
					}
				}()
			}

			toolServer, err := svc.NewToolServer()
			if err != nil {
				return err
			}

			logger.Info("Starting MCP server", "engine", svc.Config().Summarizer.Engine)
			errCh := make(chan error, 1)
			go func() { errCh <- toolServer.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				logger.Info("Shutting down")
				return toolServer.Stop()
			}
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve /metrics and /healthz on this address, e.g. :9090")
	return cmd
}
