package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"starkScope/internal/chain"
	"starkScope/internal/config"
	"starkScope/internal/events"
	"starkScope/internal/handler"
	"starkScope/internal/indexer"
	"starkScope/internal/metrics"
)

func main() {
	root := &cobra.Command{
		Use:          "indexer",
		Short:        "Starknet token event indexer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Index a block range",
		RunE:  runIndexer,
	}
	addIndexerFlags(runCmd)
	runCmd.Flags().String("from", "0", "start block (inclusive): number or latest")
	runCmd.Flags().String("to", "latest", "end block (inclusive): number or latest")
	runCmd.Flags().Bool("force", false, "reindex blocks already terminated by this version")
	runCmd.Flags().Bool("pending", false, "also index the pending block after the range")
	root.AddCommand(runCmd)

	followCmd := &cobra.Command{
		Use:   "follow",
		Short: "Follow the chain head and the pending block",
		RunE:  runFollow,
	}
	addIndexerFlags(followCmd)
	followCmd.Flags().String("from", "latest", "first block to index: number, or latest for the current head")
	followCmd.Flags().Duration("poll-interval", 10*time.Second, "head polling interval")
	root.AddCommand(followCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode raw emitted events into token events",
		RunE:  runDecode,
	}
	decodeCmd.Flags().String("in", "", "input emitted events JSONL")
	decodeCmd.Flags().String("out", "./data/token_events.jsonl", "output token events JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().String("contract-type", "other", "contract type stamped on decoded events")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(decodeCmd)

	selectorsCmd := &cobra.Command{
		Use:   "selectors",
		Short: "Print the event selectors the indexer listens to",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printSelectors(cmd)
		},
	}
	root.AddCommand(selectorsCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addIndexerFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "Starknet JSON-RPC URL")
	cmd.Flags().String("storage", "memory", "storage DSN: memory, postgres://..., sqlite://path, jsonl://path")
	cmd.Flags().String("indexer-version", "0.1.0", "indexer version recorded per block")
	cmd.Flags().String("indexer-identifier", "main", "indexer identifier recorded per block")
	cmd.Flags().Uint64("batch-size", 100, "blocks per events query")
	cmd.Flags().Int("chunk-size", 1000, "events per page")
	cmd.Flags().StringSlice("address", nil, "emitting contract addresses (comma-separated)")
	cmd.Flags().Int("event-workers", 1, "events processed concurrently per block")
	cmd.Flags().Bool("register-memecoin-events", false, "persist MemecoinCreated events")
	cmd.Flags().Bool("known-contracts-only", false, "skip transfers from contracts without a stored type")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("metrics-addr", "", "Prometheus metrics listen address, empty disables")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

// app holds what run and follow share.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	indexer *indexer.Indexer
	close   func()
}

func setup(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	addresses, err := indexer.ParseAddresses(cfg.Addresses)
	if err != nil {
		return nil, err
	}

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL, cfg.ChunkSize)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	store, closeStore, err := openStorage(ctx, cfg.Storage, logger)
	if err != nil {
		chainClient.Close()
		return nil, err
	}

	notifier := handler.NewAsync(handler.NewLogging(logger), 0)

	idx, err := indexer.New(indexer.Config{
		IndexerVersion:         cfg.IndexerVersion,
		IndexerIdentifier:      cfg.IndexerIdentifier,
		BatchSize:              cfg.BatchSize,
		EventWorkers:           cfg.EventWorkers,
		KnownContractsOnly:     cfg.KnownContractsOnly,
		RegisterMemecoinEvents: cfg.RegisterMemecoinEvents,
		MaxRetries:             cfg.MaxRetries,
		RetryBackoff:           cfg.RetryBackoff,
		Addresses:              addresses,
	}, chainClient, store, notifier, logger)
	if err != nil {
		notifier.Close()
		closeStore()
		chainClient.Close()
		return nil, err
	}

	metricsServer := metrics.NewServer(cfg.MetricsAddr, logger)
	metricsServer.Start()

	logger.Info("indexer start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("indexer_version", cfg.IndexerVersion),
		zap.String("indexer_identifier", cfg.IndexerIdentifier),
		zap.Int("addresses", len(addresses)),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Int("event_workers", cfg.EventWorkers),
		zap.Bool("known_contracts_only", cfg.KnownContractsOnly),
	)

	return &app{
		cfg:     cfg,
		logger:  logger,
		indexer: idx,
		close: func() {
			notifier.Close()
			if dropped := notifier.Dropped(); dropped > 0 {
				logger.Warn("handler notifications dropped", zap.Uint64("dropped", dropped))
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Stop(shutdownCtx); err != nil {
				logger.Warn("metrics server stop failed", zap.Error(err))
			}
			closeStore()
			chainClient.Close()
			_ = logger.Sync()
		},
	}, nil
}

func runIndexer(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	from, err := indexer.ParseBlockID(a.cfg.From)
	if err != nil {
		return err
	}
	to, err := indexer.ParseBlockID(a.cfg.To)
	if err != nil {
		return err
	}

	if err := a.indexer.IndexBlockRange(ctx, from, to, a.cfg.Force); err != nil {
		return err
	}

	if a.cfg.Pending {
		return a.indexer.IndexPending(ctx)
	}
	return nil
}

func runFollow(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	from, err := followStart(a.cfg.From)
	if err != nil {
		return err
	}
	err = a.indexer.Follow(ctx, from, a.cfg.PollInterval)
	if ctx.Err() != nil {
		a.logger.Info("follow stopped")
		return nil
	}
	return err
}

// followStart maps the from setting to Follow's first block. latest, or 0,
// starts at the current head.
func followStart(input string) (uint64, error) {
	id, err := indexer.ParseBlockID(input)
	if err != nil {
		return 0, err
	}
	if id.IsPending() {
		return 0, fmt.Errorf("follow cannot start at the pending block")
	}
	if id.Number == nil {
		return 0, nil
	}
	return *id.Number, nil
}

func printSelectors(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Transfer\t%s\n", events.TransferSelector.Hex()); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "MemecoinCreated\t%s\n", events.MemecoinCreatedSelector.Hex())
	return err
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
