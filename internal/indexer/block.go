package indexer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"starkScope/internal/chain"
	"starkScope/internal/metrics"
	"starkScope/internal/model"
	"starkScope/internal/storage"
)

// checkCandidateBlock decides whether block n must be (re)indexed.
func (i *Indexer) checkCandidateBlock(ctx context.Context, n uint64, force bool) (bool, error) {
	if force {
		return true, nil
	}

	var (
		info  model.BlockInfo
		found bool
	)
	err := i.retry(ctx, "get_block_info", func(ctx context.Context) error {
		var err error
		info, err = i.storage.GetBlockInfo(ctx, n)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		found = err == nil
		return err
	})
	if err != nil {
		return false, fmt.Errorf("get block info: %w", err)
	}
	if !found {
		return true, nil
	}

	switch {
	case info.Status == model.BlockIndexingStatusTerminated && info.IndexerVersion == i.cfg.IndexerVersion:
		return false, nil
	case info.Status == model.BlockIndexingStatusProcessing && info.IndexerIdentifier != i.cfg.IndexerIdentifier:
		return false, nil
	default:
		return true, nil
	}
}

func (i *Indexer) indexBlock(ctx context.Context, n uint64, evs []chain.EmittedEvent, force bool, progress float64) error {
	candidate, err := i.checkCandidateBlock(ctx, n, force)
	if err != nil {
		metrics.BlockProcessed(i.cfg.IndexerIdentifier, "failed")
		return err
	}
	if !candidate {
		i.logger.Debug("block skipped", zap.Uint64("block_number", n))
		metrics.BlockProcessed(i.cfg.IndexerIdentifier, "skipped")
		return nil
	}

	if err := i.processBlock(ctx, n, evs); err != nil {
		metrics.BlockProcessed(i.cfg.IndexerIdentifier, "failed")
		return err
	}

	metrics.BlockProcessed(i.cfg.IndexerIdentifier, "indexed")
	metrics.LastIndexedBlock.WithLabelValues(i.cfg.IndexerIdentifier).Set(float64(n))
	i.handler.OnBlockProcessed(n, progress)
	return nil
}

func (i *Indexer) processBlock(ctx context.Context, n uint64, evs []chain.EmittedEvent) error {
	var ts uint64
	err := i.retry(ctx, "block_time", func(ctx context.Context) error {
		var err error
		ts, err = i.chain.BlockTime(ctx, chain.BlockNumber(n))
		return err
	})
	if err != nil {
		return fmt.Errorf("block time: %w", err)
	}

	i.handler.OnBlockProcessing(ts, &n)

	if err := i.retry(ctx, "clean_block", func(ctx context.Context) error {
		return i.storage.CleanBlock(ctx, ts, &n)
	}); err != nil {
		return fmt.Errorf("clean block: %w", err)
	}
	if err := i.setBlockStatus(ctx, n, ts, model.BlockIndexingStatusProcessing); err != nil {
		return err
	}

	if err := i.processEvents(ctx, evs, ts, &n); err != nil {
		return err
	}

	return i.setBlockStatus(ctx, n, ts, model.BlockIndexingStatusTerminated)
}

func (i *Indexer) setBlockStatus(ctx context.Context, n, ts uint64, status model.BlockIndexingStatus) error {
	info := model.BlockInfo{
		IndexerVersion:    i.cfg.IndexerVersion,
		IndexerIdentifier: i.cfg.IndexerIdentifier,
		Status:            status,
		BlockNumber:       n,
	}
	err := i.retry(ctx, "set_block_info", func(ctx context.Context) error {
		return i.storage.SetBlockInfo(ctx, n, ts, info)
	})
	if err != nil {
		return fmt.Errorf("set block info %s: %w", status, err)
	}
	return nil
}
