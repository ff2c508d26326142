package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"conduit/internal/bootstrap"
	"conduit/internal/middleware"
	"conduit/internal/observability"
	"conduit/internal/server"

	"github.com/spf13/cobra"
)

var (
	serveSeedDemo bool

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
)

func init() {
	serveCmd.Flags().BoolVar(&serveSeedDemo, "seed-demo", false,
		"Load the demo fixtures when the database has no users")
}

func runServe(cmd *cobra.Command, _ []string) error {
	shutdownTracing, err := observability.InitTracing(cmd.Context(), observability.TracingConfig{
		ServiceName:    "conduit-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	db, rdb, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SeedDemo: serveSeedDemo})
	if err != nil {
		return err
	}

	srv, err := server.NewServerWithDeps(cfg, db, rdb)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		middleware.Logger.Info("shutting down server", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		middleware.Logger.Error("server shutdown error", "error", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		middleware.Logger.Error("tracing shutdown error", "error", err)
	}
	return nil
}
