package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL                 string
	Storage                string
	IndexerVersion         string
	IndexerIdentifier      string
	From                   string
	To                     string
	Force                  bool
	Pending                bool
	BatchSize              uint64
	ChunkSize              int
	Addresses              []string
	EventWorkers           int
	RegisterMemecoinEvents bool
	KnownContractsOnly     bool
	MaxRetries             int
	RetryBackoff           time.Duration
	PollInterval           time.Duration
	MetricsAddr            string
	LogLevel               string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetDefault("storage", "memory")
	v.SetDefault("indexer-version", "0.1.0")
	v.SetDefault("indexer-identifier", "main")
	v.SetDefault("from", "0")
	v.SetDefault("to", "latest")
	v.SetDefault("batch-size", uint64(100))
	v.SetDefault("chunk-size", 1000)
	v.SetDefault("event-workers", 1)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("poll-interval", 10*time.Second)
	v.SetDefault("log-level", "info")

	if err := read(v, cfgFile, flags); err != nil {
		return Config{}, err
	}

	cfg := Config{
		RPCURL:                 v.GetString("rpc"),
		Storage:                v.GetString("storage"),
		IndexerVersion:         v.GetString("indexer-version"),
		IndexerIdentifier:      v.GetString("indexer-identifier"),
		From:                   v.GetString("from"),
		To:                     v.GetString("to"),
		Force:                  v.GetBool("force"),
		Pending:                v.GetBool("pending"),
		BatchSize:              v.GetUint64("batch-size"),
		ChunkSize:              v.GetInt("chunk-size"),
		Addresses:              getStringSlice(v, "address"),
		EventWorkers:           v.GetInt("event-workers"),
		RegisterMemecoinEvents: v.GetBool("register-memecoin-events"),
		KnownContractsOnly:     v.GetBool("known-contracts-only"),
		MaxRetries:             v.GetInt("max-retries"),
		RetryBackoff:           v.GetDuration("retry-backoff"),
		PollInterval:           v.GetDuration("poll-interval"),
		MetricsAddr:            v.GetString("metrics-addr"),
		LogLevel:               v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate checks the values needed to index from chain.
func (c Config) Validate() error {
	var errs []error
	if c.RPCURL == "" {
		errs = append(errs, errors.New("rpc url is required"))
	}
	if c.Storage == "" {
		errs = append(errs, errors.New("storage is required"))
	}
	if c.IndexerIdentifier == "" {
		errs = append(errs, errors.New("indexer identifier is required"))
	}
	if c.BatchSize == 0 {
		errs = append(errs, errors.New("batch size must be greater than zero"))
	}
	if c.ChunkSize <= 0 {
		errs = append(errs, errors.New("chunk size must be greater than zero"))
	}
	if c.EventWorkers <= 0 {
		errs = append(errs, errors.New("event workers must be greater than zero"))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries must not be negative"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("poll interval must be positive"))
	}
	return errors.Join(errs...)
}

// read wires env, flags and the optional config file into v. rpc and storage
// also accept the STARKNET_API_URL and DATABASE_URL variables.
func read(v *viper.Viper, cfgFile string, flags *pflag.FlagSet) error {
	v.SetEnvPrefix("INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("rpc", "INDEXER_RPC", "STARKNET_API_URL"); err != nil {
		return fmt.Errorf("bind env: %w", err)
	}
	if err := v.BindEnv("storage", "INDEXER_STORAGE", "DATABASE_URL"); err != nil {
		return fmt.Errorf("bind env: %w", err)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
