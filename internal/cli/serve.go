package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/ytverify/internal/server"
	"github.com/ppiankov/ytverify/internal/worker"
)

// shutdownGrace bounds how long in-flight requests may drain on shutdown
const shutdownGrace = 10 * time.Second

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes the fact-check pipeline over HTTP:

  POST /api/check-claims   {"video_url": "...", "languages": ["en"]}
  GET  /api/health

Example:
  ytverify serve
  ytverify serve --addr :8080`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{"addr": "server.addr"})
	},
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":5000", "listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.closeLog() }()

	cfg := a.config
	if err := a.pipeline.Ready(); err != nil {
		a.logger.Warn("GEMINI_API_KEY not set; /api/check-claims will return 500 until it is configured")
	}

	srv := server.New(server.Options{
		Config:  cfg,
		Checker: a.pipeline,
		Limiter: worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
		Logger:  a.logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
