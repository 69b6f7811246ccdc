package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/callbill/internal/metrics"
	"github.com/ogulcanaydogan/callbill/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the billing HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "Listen address (default from config)")
	serveCmd.Flags().Bool("notify", false, "Send a summary of every API run to configured notifiers")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	listen, _ := cmd.Flags().GetString("listen")
	if listen != "" {
		cfg.Server.Listen = listen
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewWithRegistry(reg)

	a, err := initApp(cfg, collector)
	if err != nil {
		return err
	}

	ingestOpts, err := cfg.IngestOptions()
	if err != nil {
		return err
	}

	opts := server.Options{
		Ingest:        ingestOpts,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		Metrics:       collector,
		Gatherer:      reg,
	}
	if notify, _ := cmd.Flags().GetBool("notify"); notify {
		opts.Notifiers = a.notifiers
	}
	apiServer := server.NewServer(a.engine, a.plans, opts, a.logger)

	readTimeout, _ := time.ParseDuration(cfg.Server.ReadTimeout)
	if readTimeout == 0 {
		readTimeout = 30 * time.Second
	}
	writeTimeout, _ := time.ParseDuration(cfg.Server.WriteTimeout)
	if writeTimeout == 0 {
		writeTimeout = 60 * time.Second
	}

	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      apiServer.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server started", "listen", cfg.Server.Listen, "tariff", a.engine.Tariff().Name)
		fmt.Fprintf(os.Stderr, "callbill API listening on %s\n", cfg.Server.Listen)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-quit:
		a.logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	a.logger.Info("server stopped")
	return nil
}
