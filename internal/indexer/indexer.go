package indexer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"starkScope/internal/chain"
	"starkScope/internal/events"
	"starkScope/internal/felt"
	"starkScope/internal/handler"
	"starkScope/internal/storage"
	"starkScope/internal/tokens"
)

// Config holds runtime settings for the indexer.
type Config struct {
	IndexerVersion         string
	IndexerIdentifier      string
	BatchSize              uint64
	EventWorkers           int
	KnownContractsOnly     bool
	RegisterMemecoinEvents bool
	MaxRetries             int
	RetryBackoff           time.Duration
	// Addresses restricts indexing to events emitted by these contracts.
	Addresses []felt.Felt
}

// Indexer drives block ranges through event classification and token resolution.
type Indexer struct {
	cfg       Config
	chain     chain.Provider
	storage   storage.Storage
	handler   handler.EventHandler
	events    *events.Manager
	tokens    *tokens.Manager
	contracts *contractTypeCache
	logger    *zap.Logger
}

// New builds an Indexer with its dependencies. A nil handler or logger is
// replaced by a no-op.
func New(cfg Config, provider chain.Provider, store storage.Storage, h handler.EventHandler, logger *zap.Logger) (*Indexer, error) {
	if provider == nil {
		return nil, fmt.Errorf("chain provider is nil")
	}
	if store == nil {
		return nil, fmt.Errorf("storage is nil")
	}
	if cfg.BatchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if cfg.IndexerIdentifier == "" {
		return nil, fmt.Errorf("indexer identifier is required")
	}
	if cfg.EventWorkers <= 0 {
		cfg.EventWorkers = 1
	}
	if h == nil {
		h = handler.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		cfg:       cfg,
		chain:     provider,
		storage:   store,
		handler:   h,
		events:    events.NewManager(store, events.Options{RegisterMemecoinEvents: cfg.RegisterMemecoinEvents}),
		tokens:    tokens.NewManager(store, provider),
		contracts: newContractTypeCache(),
		logger:    logger.With(zap.String("indexer", cfg.IndexerIdentifier)),
	}, nil
}

func (i *Indexer) retry(ctx context.Context, op string, fn func(context.Context) error) error {
	return withRetry(ctx, retryPolicy{maxRetries: i.cfg.MaxRetries, baseDelay: i.cfg.RetryBackoff}, i.logger, op, fn)
}

// IndexBlockRange indexes every block in [from, to]. Blocks already
// terminated by this indexer version, or being processed by another
// identifier, are skipped unless force is set.
func (i *Indexer) IndexBlockRange(ctx context.Context, from, to chain.BlockID, force bool) error {
	fromN, err := i.blockNumber(ctx, from)
	if err != nil {
		return fmt.Errorf("resolve from block: %w", err)
	}
	toN, err := i.blockNumber(ctx, to)
	if err != nil {
		return fmt.Errorf("resolve to block: %w", err)
	}
	if fromN > toN {
		return fmt.Errorf("from block %d is after to block %d", fromN, toN)
	}

	full := BlockRange{From: fromN, To: toN}
	ranges, err := SplitRange(fromN, toN, i.cfg.BatchSize)
	if err != nil {
		return err
	}

	i.logger.Info("index range", zap.Uint64("from", fromN), zap.Uint64("to", toN), zap.Bool("force", force))
	for _, batch := range ranges {
		if err := ctx.Err(); err != nil {
			return err
		}

		evs, err := i.fetchEvents(ctx, chain.BlockNumber(batch.From), chain.BlockNumber(batch.To))
		if err != nil {
			return fmt.Errorf("fetch events %d-%d: %w", batch.From, batch.To, err)
		}
		byBlock := groupByBlock(evs)
		i.logger.Debug("batch fetched", zap.Uint64("from", batch.From), zap.Uint64("to", batch.To), zap.Int("events", len(evs)))

		for n := batch.From; ; n++ {
			if err := i.indexBlock(ctx, n, byBlock[n], force, Progress(full, n)); err != nil {
				return fmt.Errorf("block %d: %w", n, err)
			}
			if n == batch.To {
				break
			}
		}
	}

	i.handler.OnIndexationRangeCompleted()
	return nil
}

// IndexPending indexes the pending block. Its records carry no block number
// and are replaced on every call through CleanBlock on the pending timestamp.
func (i *Indexer) IndexPending(ctx context.Context) error {
	var ts uint64
	err := i.retry(ctx, "pending_block_time", func(ctx context.Context) error {
		var err error
		ts, err = i.chain.BlockTime(ctx, chain.BlockPending)
		return err
	})
	if err != nil {
		return fmt.Errorf("pending block time: %w", err)
	}

	i.handler.OnBlockProcessing(ts, nil)
	if err := i.retry(ctx, "clean_pending_block", func(ctx context.Context) error {
		return i.storage.CleanBlock(ctx, ts, nil)
	}); err != nil {
		return fmt.Errorf("clean pending block: %w", err)
	}

	evs, err := i.fetchEvents(ctx, chain.BlockPending, chain.BlockPending)
	if err != nil {
		return fmt.Errorf("fetch pending events: %w", err)
	}
	if err := i.processEvents(ctx, evs, ts, nil); err != nil {
		return fmt.Errorf("pending block: %w", err)
	}
	i.logger.Debug("pending block indexed", zap.Uint64("block_timestamp", ts), zap.Int("events", len(evs)))
	return nil
}

// Follow indexes new blocks as the chain head advances, then the pending
// block, every pollInterval. from is the first block to index; zero starts
// at the current head. It returns when ctx is done.
func (i *Indexer) Follow(ctx context.Context, from uint64, pollInterval time.Duration) error {
	if pollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}

	next := from
	started := from != 0
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		latest, err := i.latestBlock(ctx)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			i.logger.Warn("latest block fetch failed", zap.Error(err))
		default:
			if !started {
				next, started = latest, true
			}
			if latest >= next {
				i.handler.OnNewLatestBlock(latest)
				if err := i.IndexBlockRange(ctx, chain.BlockNumber(next), chain.BlockNumber(latest), false); err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					i.logger.Warn("index range failed", zap.Uint64("from", next), zap.Uint64("to", latest), zap.Error(err))
				} else {
					next = latest + 1
				}
			}
			if err := i.IndexPending(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				i.logger.Warn("index pending failed", zap.Error(err))
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (i *Indexer) latestBlock(ctx context.Context) (uint64, error) {
	var n uint64
	err := i.retry(ctx, "block_number", func(ctx context.Context) error {
		var err error
		n, err = i.chain.BlockNumber(ctx)
		return err
	})
	return n, err
}

func (i *Indexer) blockNumber(ctx context.Context, id chain.BlockID) (uint64, error) {
	if id.IsPending() {
		return 0, chain.ErrPendingBlock
	}
	var n uint64
	err := i.retry(ctx, "block_id_to_number", func(ctx context.Context) error {
		var err error
		n, err = i.chain.BlockIDToNumber(ctx, id)
		return err
	})
	return n, err
}

// fetchEvents runs one query per configured address, or a single unfiltered
// query, and merges the results in block order.
func (i *Indexer) fetchEvents(ctx context.Context, from, to chain.BlockID) ([]chain.EmittedEvent, error) {
	keys := i.events.KeysSelector()
	query := func(address *felt.Felt) ([]chain.EmittedEvent, error) {
		var out []chain.EmittedEvent
		err := i.retry(ctx, "get_events", func(ctx context.Context) error {
			var err error
			out, err = i.chain.FetchEvents(ctx, chain.EventQuery{From: from, To: to, Keys: keys, Address: address})
			return err
		})
		return out, err
	}

	if len(i.cfg.Addresses) == 0 {
		return query(nil)
	}

	var merged []chain.EmittedEvent
	for idx := range i.cfg.Addresses {
		evs, err := query(&i.cfg.Addresses[idx])
		if err != nil {
			return nil, err
		}
		merged = append(merged, evs...)
	}
	if len(i.cfg.Addresses) > 1 {
		sortByBlock(merged)
	}
	return merged, nil
}
