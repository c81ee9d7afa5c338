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

	"github.com/fradiumofficial/fradium-sub002/internal/app"
	appconfig "github.com/fradiumofficial/fradium-sub002/internal/config"
	"github.com/fradiumofficial/fradium-sub002/internal/logger"
	"github.com/fradiumofficial/fradium-sub002/internal/metrics"
	"github.com/fradiumofficial/fradium-sub002/internal/transport/httpapi"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type config struct {
	ConfigPath      string        `long:"config" env:"FRADIUM_CONFIG" description:"path to the pipeline YAML config"`
	Addr            string        `long:"addr" env:"FRADIUM_ADDR" description:"API listen address" default:":8080"`
	MetricsAddr     string        `long:"metrics-addr" env:"FRADIUM_METRICS_ADDR" description:"address for metrics server" default:":2112"`
	LogLevel        string        `long:"log-level" env:"FRADIUM_LOG_LEVEL" description:"overrides logging.level of the config file"`
	AllowedOrigins  []string      `long:"allowed-origin" env:"FRADIUM_ALLOWED_ORIGINS" env-delim:"," description:"CORS origin allowed to call the API, repeatable"`
	ShutdownTimeout time.Duration `long:"shutdown-timeout" env:"FRADIUM_SHUTDOWN_TIMEOUT" description:"time allowed for in-flight analyses on shutdown" default:"30s"`
}

func main() {
	cfg := config{}
	if _, err := flags.ParseArgs(&cfg, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		fmt.Fprintf(os.Stderr, "failed to parse flags: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, err := appconfig.Load(cfg.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.LogLevel != "" {
		pipeline.Logging.Level = cfg.LogLevel
	}

	log, err := logger.New(pipeline.Logging.Level, pipeline.Logging.Format)
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	if err := run(ctx, cfg, pipeline, log); err != nil {
		log.Fatal("api server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config, pipeline *appconfig.Config, logger *zap.Logger) error {
	startMetricsServer(ctx, cfg.MetricsAddr, logger)

	a, err := app.New(pipeline, logger)
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}

	handler, err := httpapi.NewHandler(a.Controller, a.History, metrics.NewHTTPServer(), cfg.AllowedOrigins, logger)
	if err != nil {
		_ = a.Close(context.Background())
		return fmt.Errorf("init api handler: %w", err)
	}

	// Synchronous analyses hold the connection for the whole run.
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      pipeline.Workflow.OverallTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting api server", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			_ = a.Close(context.Background())
			return fmt.Errorf("listen and serve: %w", err)
		}
	}

	logger.Info("shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// Cancelling runs first lets blocked synchronous requests return.
	var errs []error
	if err := a.Controller.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown controller: %w", err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown api server: %w", err))
	}
	if err := a.Close(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("close pipeline: %w", err))
	}
	return errors.Join(errs...)
}

func startMetricsServer(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting metrics server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics server", zap.Error(err))
		}
	}()
}
