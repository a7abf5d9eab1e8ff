package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/henrybloomingdale/biofan/internal/server"
)

var serveFlagAddr string

func init() {
	serveCmd.Flags().StringVar(&serveFlagAddr, "addr", "", "Listen address (default BIOFAN_LISTEN_ADDR)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve research runs and answer cards over HTTP",
	Long: `Start the HTTP API:

  POST /v1/research   run a research spec (JSON body)
  POST /v1/answer     build an answer card {"question": ..., "slots": {...}}
  GET  /v1/runs       recent saved runs (requires BIOFAN_POSTGRES_DSN)
  GET  /v1/runs/:id   one saved run
  GET  /healthz
  GET  /metrics       Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []server.Option{
		server.WithLogger(a.logger),
		server.WithMetrics(a.metrics.Handler(), a.metrics),
	}
	st, err := a.store()
	if err != nil {
		return err
	}
	if st != nil {
		opts = append(opts, server.WithStore(st))
	}

	if a.cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	addr := serveFlagAddr
	if addr == "" {
		addr = a.cfg.ListenAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(a.pipeline(ctx), a.engine(), opts...).Router(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting server", zap.String("addr", addr), zap.Bool("store", st != nil))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
