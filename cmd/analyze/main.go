package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fradiumofficial/fradium-sub002/internal/app"
	appconfig "github.com/fradiumofficial/fradium-sub002/internal/config"
	"github.com/fradiumofficial/fradium-sub002/internal/logger"
	"github.com/fradiumofficial/fradium-sub002/internal/model"
	"github.com/fradiumofficial/fradium-sub002/internal/workflow"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"
)

type config struct {
	ConfigPath string `long:"config" env:"FRADIUM_CONFIG" description:"path to the pipeline YAML config"`
	LogLevel   string `long:"log-level" env:"FRADIUM_LOG_LEVEL" description:"log level" default:"warn"`
	Args       struct {
		Addresses []string `positional-arg-name:"ADDRESS" required:"1"`
	} `positional-args:"yes"`
}

// line is one JSON output line per analyzed address.
type line struct {
	Address string                     `json:"address"`
	Item    *model.AnalysisHistoryItem `json:"item,omitempty"`
	Error   string                     `json:"error,omitempty"`
}

func main() {
	cfg := config{}
	if _, err := flags.Parse(&cfg); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, err := appconfig.Load(cfg.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogLevel, "console")
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	failed, err := run(ctx, pipeline, cfg.Args.Addresses, os.Stdout, log)
	if err != nil {
		log.Fatal("analyze failed", zap.Error(err))
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// run prints one JSON line per address and returns how many did not complete.
func run(ctx context.Context, pipeline *appconfig.Config, addresses []string, out io.Writer, logger *zap.Logger) (int, error) {
	a, err := app.New(pipeline, logger)
	if err != nil {
		return 0, fmt.Errorf("init pipeline: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			logger.Error("close pipeline", zap.Error(err))
		}
	}()

	results, err := a.Controller.AnalyzeBatch(ctx, addresses)
	if err != nil && !errors.Is(err, context.Canceled) {
		return 0, err
	}

	enc := json.NewEncoder(out)
	failed := 0
	for _, res := range results {
		l := line{Address: res.Address}
		var runErr *workflow.Error
		switch {
		case res.Err == nil:
			item := res.Item
			l.Item = &item
		case errors.As(res.Err, &runErr):
			item := res.Item
			l.Item = &item
			failed++
		default:
			l.Error = res.Err.Error()
			failed++
		}
		if err := enc.Encode(l); err != nil {
			return failed, fmt.Errorf("write result: %w", err)
		}
	}
	return failed, nil
}
