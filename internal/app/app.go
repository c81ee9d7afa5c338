// Package app wires a configuration into a ready analysis controller.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fradiumofficial/fradium-sub002/internal/classifier"
	"github.com/fradiumofficial/fradium-sub002/internal/clock"
	"github.com/fradiumofficial/fradium-sub002/internal/community"
	"github.com/fradiumofficial/fradium-sub002/internal/config"
	"github.com/fradiumofficial/fradium-sub002/internal/features"
	"github.com/fradiumofficial/fradium-sub002/internal/history"
	"github.com/fradiumofficial/fradium-sub002/internal/metrics"
	"github.com/fradiumofficial/fradium-sub002/internal/model"
	"github.com/fradiumofficial/fradium-sub002/internal/provider/btcnode"
	"github.com/fradiumofficial/fradium-sub002/internal/provider/etherscan"
	"github.com/fradiumofficial/fradium-sub002/internal/provider/mempool"
	"github.com/fradiumofficial/fradium-sub002/internal/store"
	"github.com/fradiumofficial/fradium-sub002/internal/store/clickhouse"
	"github.com/fradiumofficial/fradium-sub002/internal/txcache"
	"github.com/fradiumofficial/fradium-sub002/internal/workflow"
	"go.uber.org/zap"
)

// App holds the long-lived components of the pipeline.
type App struct {
	Controller *workflow.Controller
	History    *history.Store
	Cache      *txcache.Manager

	// EthereumCache is nil when Ethereum analysis is disabled.
	EthereumCache *txcache.Manager

	closers []func() error
	logger  *zap.Logger
}

// New builds every component described by cfg. Close releases them.
func New(cfg *config.Config, logger *zap.Logger) (_ *App, err error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	a := &App{logger: logger}
	defer func() {
		if err != nil {
			_ = a.closeResources()
		}
	}()

	kv, err := a.openStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	provider, err := a.newProvider(cfg.Provider, logger)
	if err != nil {
		return nil, err
	}

	clk := clock.Real{}
	a.Cache, err = txcache.NewManager(provider, kv, metrics.NewTxCache(), clk, txcache.Options{
		TTL:             cfg.Cache.TTL,
		MaxTransactions: cfg.Cache.MaxTransactions,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init transaction cache: %w", err)
	}

	cls, err := classifier.NewClient(
		cfg.Classifier.BaseURL,
		cfg.Classifier.APIKey,
		&http.Client{Timeout: cfg.Classifier.Timeout},
		metrics.NewHTTPClient("classifier"),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("init classifier client: %w", err)
	}

	// A nil interface, not a typed nil, keeps the controller classifier-only.
	var reports workflow.ReportFetcher
	if cfg.Community.BaseURL != "" {
		registry, err := community.NewClient(
			cfg.Community.BaseURL,
			&http.Client{Timeout: cfg.Community.Timeout},
			metrics.NewHTTPClient("community"),
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("init community client: %w", err)
		}
		reports = registry
	}

	a.History, err = history.New(kv, clk, cfg.History.MaxItems, logger)
	if err != nil {
		return nil, fmt.Errorf("init history: %w", err)
	}

	chains := map[model.ChainKind]workflow.Chain{
		model.Bitcoin: {Fetcher: a.Cache, Extract: features.Extract, Classifier: cls},
	}
	if cfg.Ethereum.Enabled() {
		chain, err := a.newEthereumChain(cfg.Ethereum, kv, cls, clk, cfg.Cache.TTL, logger)
		if err != nil {
			return nil, err
		}
		chains[model.Ethereum] = chain
	}

	a.Controller, err = workflow.NewController(chains, reports, a.History, metrics.NewWorkflow(), clk, workflow.Policy{
		CallTimeout:    cfg.Workflow.CallTimeout,
		MaxRetries:     cfg.Workflow.MaxRetries,
		RetryBaseDelay: cfg.Workflow.RetryBaseDelay,
		RetryMaxDelay:  cfg.Workflow.RetryMaxDelay,
		OverallTimeout: cfg.Workflow.OverallTimeout,
		BatchWorkers:   cfg.Workflow.BatchWorkers,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init workflow controller: %w", err)
	}

	logger.Info("pipeline ready",
		zap.String("provider", cfg.Provider.Kind),
		zap.String("store", cfg.Store.Backend),
		zap.Bool("community", reports != nil),
		zap.Bool("ethereum", a.EthereumCache != nil))
	return a, nil
}

// Close stops active runs, then releases the store and node connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Controller != nil {
		if err := a.Controller.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown controller: %w", err))
		}
	}
	if err := a.closeResources(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) closeResources() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) openStore(cfg config.StoreConfig) (store.KV, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return store.NewObserved(store.NewMemory(), metrics.NewKVStore(cfg.Backend)), nil
	case config.BackendFile:
		f, err := store.OpenFile(cfg.FilePath)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		return store.NewObserved(f, metrics.NewKVStore(cfg.Backend)), nil
	case config.BackendClickhouse:
		// The repository observes its own queries.
		repo, err := clickhouse.NewRepository(cfg.ClickhouseDSN, metrics.NewKVStore(cfg.Backend))
		if err != nil {
			return nil, fmt.Errorf("open clickhouse store: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func (a *App) newEthereumChain(
	cfg config.EthereumConfig,
	kv store.KV,
	cls *classifier.Client,
	clk clock.Clock,
	ttl time.Duration,
	logger *zap.Logger,
) (workflow.Chain, error) {
	oracle, err := etherscan.NewOracle(
		cfg.Prices.CryptoCompareURL,
		cfg.Prices.DefiLlamaURL,
		cfg.Prices.CryptoCompareAPIKey,
		&http.Client{Timeout: cfg.Prices.Timeout},
		cfg.Prices.RequestsPerSecond,
		metrics.NewHTTPClient("prices"),
		logger,
	)
	if err != nil {
		return workflow.Chain{}, fmt.Errorf("init price oracle: %w", err)
	}
	client, err := etherscan.NewClient(
		cfg.EtherscanURL,
		cfg.APIKey,
		&http.Client{Timeout: cfg.Timeout},
		cfg.RequestsPerSecond,
		oracle,
		metrics.NewHTTPClient("etherscan"),
		logger,
	)
	if err != nil {
		return workflow.Chain{}, fmt.Errorf("init etherscan client: %w", err)
	}

	a.EthereumCache, err = txcache.NewManager(client, kv, metrics.NewTxCache(), clk, txcache.Options{
		TTL:             ttl,
		MaxTransactions: cfg.MaxTransactions,
	}, logger.Named("ethereum"))
	if err != nil {
		return workflow.Chain{}, fmt.Errorf("init ethereum transaction cache: %w", err)
	}

	ethClassifier, err := cls.ForChain(model.Ethereum)
	if err != nil {
		return workflow.Chain{}, fmt.Errorf("init ethereum classifier: %w", err)
	}
	return workflow.Chain{Fetcher: a.EthereumCache, Extract: features.ExtractEthereum, Classifier: ethClassifier}, nil
}

func (a *App) newProvider(cfg config.ProviderConfig, logger *zap.Logger) (txcache.Provider, error) {
	switch cfg.Kind {
	case config.ProviderMempool:
		client, err := mempool.NewClient(
			cfg.Mempool.BaseURL,
			&http.Client{Timeout: cfg.Mempool.Timeout},
			cfg.Mempool.RequestsPerSecond,
			metrics.NewHTTPClient("mempool"),
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("init mempool client: %w", err)
		}
		return client, nil
	case config.ProviderBTCNode:
		conn, err := btcnode.Dial(cfg.BTCNode.URL, cfg.BTCNode.User, cfg.BTCNode.Password)
		if err != nil {
			return nil, fmt.Errorf("dial btc node: %w", err)
		}
		a.closers = append(a.closers, func() error {
			conn.Shutdown()
			conn.WaitForShutdown()
			return nil
		})
		network := model.Network(cfg.BTCNode.Network)
		rpc := btcnode.NewRPCClient(conn, metrics.NewRPCClient(string(network)), cfg.BTCNode.RequestsPerSecond)
		source, err := btcnode.NewSource(rpc, network, cfg.BTCNode.PageSize, logger)
		if err != nil {
			return nil, fmt.Errorf("init btc node source: %w", err)
		}
		return source, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Kind)
	}
}
