// Package main runs the scholar rank HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/helixir/scholar-rank-service/internal/config"
	"github.com/helixir/scholar-rank-service/internal/insights"
	"github.com/helixir/scholar-rank-service/internal/observability"
	"github.com/helixir/scholar-rank-service/internal/papersources/scopus"
	httpserver "github.com/helixir/scholar-rank-service/internal/server/http"
)

const (
	metricsNamespace = "scholar_rank"
	idleTimeout      = 2 * time.Minute
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	base := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger := base.With().Str("component", "server").Logger()

	if !cfg.Scopus.HasAPIKey() {
		logger.Warn().
			Str("env", config.EnvScopusAPIKey).
			Str("fallback_env", config.EnvLegacyAPIKey).
			Msg("no Scopus API key configured; upstream calls will be rejected")
	}

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(metricsNamespace)
	}

	source := scopus.New(scopus.Config{
		BaseURL:     cfg.Scopus.BaseURL,
		APIKey:      cfg.Scopus.APIKey,
		Timeout:     cfg.Scopus.Timeout,
		RateLimit:   cfg.Scopus.RateLimit,
		BurstSize:   cfg.Scopus.BurstSize,
		ResultCount: cfg.Scopus.ResultCount,
		Sort:        cfg.Scopus.Sort,
		UserAgent:   cfg.Scopus.UserAgent,
	})
	if metrics != nil {
		source.WithMetrics(metrics)
	}

	api := httpserver.NewServer(
		httpserver.Config{
			Address:      cfg.Server.HTTPAddress(),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  idleTimeout,
		},
		insights.NewService(source, cfg.Scopus.EnrichmentWorkers, metrics, base),
		source.HasAPIKey,
		metrics,
		base,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ignoreClosed("HTTP server", api.Start())
	})
	shutdowns := []func(context.Context) error{api.Shutdown}

	if cfg.Metrics.Enabled {
		metricsSrv := newMetricsServer(cfg)
		g.Go(func() error {
			logger.Info().Str("address", metricsSrv.Addr).Str("path", cfg.Metrics.Path).Msg("metrics server listening")
			return ignoreClosed("metrics server", metricsSrv.ListenAndServe())
		})
		shutdowns = append(shutdowns, metricsSrv.Shutdown)
	}

	logger.Info().
		Int("result_count", cfg.Scopus.ResultCount).
		Int("enrichment_workers", cfg.Scopus.EnrichmentWorkers).
		Float64("rate_limit", cfg.Scopus.RateLimit).
		Msg("scholar-rank-service started")

	// A signal or the first server failure ends the group context.
	g.Go(func() error {
		<-gctx.Done()
		shutdown(logger, cfg.Server.ShutdownTimeout, shutdowns)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		return err
	}
	logger.Info().Msg("scholar-rank-service stopped")
	return nil
}

// newMetricsServer exposes the Prometheus registry at the configured path
// with the same timeouts as the API listener.
func newMetricsServer(cfg *config.Config) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.Handler())
	return &http.Server{
		Addr:         cfg.Server.MetricsAddress(),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

func ignoreClosed(name string, err error) error {
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

func shutdown(logger zerolog.Logger, timeout time.Duration, fns []func(context.Context) error) {
	logger.Info().Dur("timeout", timeout).Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for _, fn := range fns {
		if err := fn(ctx); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
		}
	}
}
