package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ghaudit/internal/config"
	"ghaudit/internal/logging"
	"ghaudit/internal/server"
)

var cfg = config.New()

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the organization audit API",
	Long: `Serve the organization audit API.

Endpoints:
	GET /api/stats/basic            Repository inventory counts (headers: gh-token, gh-org)
	GET /api/audit/repos/stream     Per-repository security audit (SSE)
	GET /api/audit/branches/stream  Per-repository branch detail (SSE)
	GET /api/audit/access/stream    Per-repository collaborator access (SSE)
	GET /api/audit/members/stream   Per-member audit (SSE)
	GET /api/audit/teams/stream     Per-team audit (SSE)
	GET /health                     Liveness probe
	GET /metrics                    Prometheus metrics

The SSE endpoints take gh_token and gh_org query parameters and emit one
JSON event per frame: a start event with the total count, then per entity a
progress event and (when the entity produced data) a data event, and finally
a done event. A failure before fan-out yields a single error event.

Audits fan out across entities up to --concurrency at a time. GitHub
rate-limit responses are waited out per request; a rate-limited entity slows
only itself.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		logging.Setup(logging.Config{
			Level:  cfg.Logging.Level,
			Pretty: cfg.Logging.Pretty,
		})

		srv, err := server.New(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := srv.ListenAndServe(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&cfg.Server.Addr, "addr", cfg.Server.Addr,
		"Listen address")
	serveCmd.Flags().StringSliceVar(&cfg.Server.CORSOrigins, "cors-origin", cfg.Server.CORSOrigins,
		"Allowed CORS origin (repeatable)")
	serveCmd.Flags().DurationVar(&cfg.Server.ShutdownTimeout, "shutdown-timeout", cfg.Server.ShutdownTimeout,
		"Graceful shutdown timeout")
	serveCmd.Flags().IntVar(&cfg.Runtime.Concurrency, "concurrency", cfg.Runtime.Concurrency,
		"Maximum number of audit units executing concurrently per run")
	serveCmd.Flags().StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level,
		"Log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&cfg.Logging.Pretty, "log-pretty", cfg.Logging.Pretty,
		"Human-readable console logs instead of JSON")

	rootCmd.AddCommand(serveCmd)
}
