// Package config loads the pipeline configuration from a YAML file and the
// environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fradiumofficial/fradium-sub002/internal/txcache"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const envPrefix = "FRADIUM"

const (
	ProviderMempool = "mempool"
	ProviderBTCNode = "btcnode"

	BackendMemory     = "memory"
	BackendFile       = "file"
	BackendClickhouse = "clickhouse"
)

// Config is the complete pipeline configuration.
type Config struct {
	Provider   ProviderConfig   `mapstructure:"provider"`
	Ethereum   EthereumConfig   `mapstructure:"ethereum"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Community  CommunityConfig  `mapstructure:"community"`
	Workflow   WorkflowConfig   `mapstructure:"workflow"`
	Store      StoreConfig      `mapstructure:"store"`
	History    HistoryConfig    `mapstructure:"history"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ProviderConfig struct {
	Kind    string        `mapstructure:"kind"`
	Mempool MempoolConfig `mapstructure:"mempool"`
	BTCNode BTCNodeConfig `mapstructure:"btcnode"`
}

type MempoolConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond int           `mapstructure:"requests_per_second"`
}

// BTCNodeConfig points at a btcd node running with --addrindex.
type BTCNodeConfig struct {
	URL               string `mapstructure:"url"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	Network           string `mapstructure:"network"`
	RequestsPerSecond int    `mapstructure:"requests_per_second"`
	PageSize          int    `mapstructure:"page_size"`
}

// EthereumConfig enables Ethereum analysis when APIKey is set.
type EthereumConfig struct {
	EtherscanURL      string        `mapstructure:"etherscan_url"`
	APIKey            string        `mapstructure:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond int           `mapstructure:"requests_per_second"`
	MaxTransactions   int           `mapstructure:"max_transactions"`
	Prices            PricesConfig  `mapstructure:"prices"`
}

func (c EthereumConfig) Enabled() bool {
	return c.APIKey != ""
}

// PricesConfig points at the historical price sources used to express Ether
// and token amounts in BTC.
type PricesConfig struct {
	CryptoCompareURL    string        `mapstructure:"cryptocompare_url"`
	CryptoCompareAPIKey string        `mapstructure:"cryptocompare_api_key"`
	DefiLlamaURL        string        `mapstructure:"defillama_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	RequestsPerSecond   int           `mapstructure:"requests_per_second"`
}

type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	MaxTransactions int           `mapstructure:"max_transactions"`
}

type ClassifierConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CommunityConfig leaves BaseURL empty to run without community reports.
type CommunityConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type WorkflowConfig struct {
	CallTimeout    time.Duration `mapstructure:"call_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
	RetryMaxDelay  time.Duration `mapstructure:"retry_max_delay"`
	OverallTimeout time.Duration `mapstructure:"overall_timeout"`
	BatchWorkers   int           `mapstructure:"batch_workers"`
}

type StoreConfig struct {
	Backend       string `mapstructure:"backend"`
	FilePath      string `mapstructure:"file_path"`
	ClickhouseDSN string `mapstructure:"clickhouse_dsn"`
}

type HistoryConfig struct {
	MaxItems int `mapstructure:"max_items"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads the file at path, when given, and applies FRADIUM_* environment
// overrides, e.g. FRADIUM_CLASSIFIER_API_KEY for classifier.api_key.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// Every key needs a default, AutomaticEnv only overrides keys viper knows about.
func setDefaults(v *viper.Viper) {
	v.SetDefault("provider.kind", ProviderMempool)
	v.SetDefault("provider.mempool.base_url", "https://mempool.space/api")
	v.SetDefault("provider.mempool.timeout", "30s")
	v.SetDefault("provider.mempool.requests_per_second", 5)
	v.SetDefault("provider.btcnode.url", "http://127.0.0.1:8334")
	v.SetDefault("provider.btcnode.user", "")
	v.SetDefault("provider.btcnode.password", "")
	v.SetDefault("provider.btcnode.network", "mainnet")
	v.SetDefault("provider.btcnode.requests_per_second", 0)
	v.SetDefault("provider.btcnode.page_size", 100)

	v.SetDefault("ethereum.etherscan_url", "https://api.etherscan.io/v2/api")
	v.SetDefault("ethereum.api_key", "")
	v.SetDefault("ethereum.timeout", "30s")
	v.SetDefault("ethereum.requests_per_second", 5)
	v.SetDefault("ethereum.max_transactions", 100)
	v.SetDefault("ethereum.prices.cryptocompare_url", "https://min-api.cryptocompare.com/data/pricehistorical")
	v.SetDefault("ethereum.prices.cryptocompare_api_key", "")
	v.SetDefault("ethereum.prices.defillama_url", "https://coins.llama.fi/prices/historical")
	v.SetDefault("ethereum.prices.timeout", "15s")
	v.SetDefault("ethereum.prices.requests_per_second", 10)

	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.max_transactions", 500)

	v.SetDefault("classifier.base_url", "")
	v.SetDefault("classifier.api_key", "")
	v.SetDefault("classifier.timeout", "30s")

	v.SetDefault("community.base_url", "")
	v.SetDefault("community.timeout", "15s")

	v.SetDefault("workflow.call_timeout", "30s")
	v.SetDefault("workflow.max_retries", 2)
	v.SetDefault("workflow.retry_base_delay", "500ms")
	v.SetDefault("workflow.retry_max_delay", "5s")
	v.SetDefault("workflow.overall_timeout", "5m")
	v.SetDefault("workflow.batch_workers", 4)

	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("store.file_path", "./data/fradium.json")
	v.SetDefault("store.clickhouse_dsn", "")

	v.SetDefault("history.max_items", 100)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that the configuration can be wired.
func (c *Config) Validate() error {
	switch c.Provider.Kind {
	case ProviderMempool:
		if c.Provider.Mempool.BaseURL == "" {
			return fmt.Errorf("provider.mempool.base_url is required")
		}
	case ProviderBTCNode:
		if c.Provider.BTCNode.URL == "" {
			return fmt.Errorf("provider.btcnode.url is required")
		}
		if c.Provider.BTCNode.PageSize < 1 {
			return fmt.Errorf("provider.btcnode.page_size must be at least 1")
		}
	default:
		return fmt.Errorf("provider.kind must be one of: %s, %s", ProviderMempool, ProviderBTCNode)
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Cache.MaxTransactions < 1 || c.Cache.MaxTransactions > txcache.MaxTransactionsLimit {
		return fmt.Errorf("cache.max_transactions must be between 1 and %d", txcache.MaxTransactionsLimit)
	}

	if c.Ethereum.Enabled() {
		if c.Ethereum.EtherscanURL == "" {
			return fmt.Errorf("ethereum.etherscan_url is required")
		}
		if c.Ethereum.MaxTransactions < 1 || c.Ethereum.MaxTransactions > txcache.MaxTransactionsLimit {
			return fmt.Errorf("ethereum.max_transactions must be between 1 and %d", txcache.MaxTransactionsLimit)
		}
		if c.Ethereum.Prices.CryptoCompareURL == "" {
			return fmt.Errorf("ethereum.prices.cryptocompare_url is required")
		}
	}

	if c.Classifier.BaseURL == "" {
		return fmt.Errorf("classifier.base_url is required")
	}

	if c.Workflow.MaxRetries < 0 {
		return fmt.Errorf("workflow.max_retries must not be negative")
	}
	if c.Workflow.CallTimeout <= 0 || c.Workflow.OverallTimeout <= 0 {
		return fmt.Errorf("workflow timeouts must be positive")
	}
	if c.Workflow.RetryBaseDelay > c.Workflow.RetryMaxDelay {
		return fmt.Errorf("workflow.retry_base_delay must not exceed workflow.retry_max_delay")
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Store.FilePath == "" {
			return fmt.Errorf("store.file_path is required for the file backend")
		}
	case BackendClickhouse:
		if c.Store.ClickhouseDSN == "" {
			return fmt.Errorf("store.clickhouse_dsn is required for the clickhouse backend")
		}
	default:
		return fmt.Errorf("store.backend must be one of: %s, %s, %s", BackendMemory, BackendFile, BackendClickhouse)
	}

	if c.History.MaxItems < 1 {
		return fmt.Errorf("history.max_items must be at least 1")
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, console")
	}
	return nil
}
