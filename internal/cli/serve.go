package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ppiankov/crosscheck/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve registry checks over HTTP",
	Long: `Serve starts an HTTP API:
  POST /api/v1/check    multipart upload (file, kind) -> JSON report
  GET  /api/v1/rules    rule catalog (?kind=case|clue)
  GET  /api/v1/lookup   reference table (?category=...)
  GET  /healthz

Uploads are rate limited per client address. A registry missing required
columns is answered with 422 and the column names.

Example:
  crosscheck serve --addr :8080 --lookup sqlite:lookup.db`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	addEvaluationFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, catalog, table, err := newPipeline(ctx, cfg)
	if err != nil {
		return err
	}

	opts := []server.Option{server.WithLogger(logger)}
	if table != nil {
		opts = append(opts, server.WithLookup(table))
	}
	srv := server.New(p, catalog, cfg.Server, cfg.Input.MaxUploadBytes, opts...)

	fmt.Fprintf(os.Stderr, "Listening on %s\n", cfg.Server.Addr)
	return srv.Run(ctx)
}
