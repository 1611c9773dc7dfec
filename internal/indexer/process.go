package indexer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"starkScope/internal/chain"
	"starkScope/internal/events"
	"starkScope/internal/felt"
	"starkScope/internal/metrics"
	"starkScope/internal/model"
	"starkScope/internal/storage"
)

// processEvents runs the events of one block. With more than one worker,
// events are processed concurrently and source order is not kept.
func (i *Indexer) processEvents(ctx context.Context, evs []chain.EmittedEvent, blockTimestamp uint64, blockNumber *uint64) error {
	if i.cfg.EventWorkers <= 1 || len(evs) <= 1 {
		for _, ev := range evs {
			if err := i.processEvent(ctx, ev, blockTimestamp, blockNumber); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.cfg.EventWorkers)
	for _, ev := range evs {
		g.Go(func() error {
			return i.processEvent(gctx, ev, blockTimestamp, blockNumber)
		})
	}
	return g.Wait()
}

func (i *Indexer) processEvent(ctx context.Context, ev chain.EmittedEvent, blockTimestamp uint64, blockNumber *uint64) error {
	kind := events.Classify(ev)
	switch kind {
	case events.KindMemecoinCreated:
		return i.processMemecoinCreated(ctx, ev, blockTimestamp)
	case events.KindTransfer:
		return i.processTransfer(ctx, ev, blockTimestamp, blockNumber)
	default:
		metrics.EventSkipped("unknown_selector")
		return nil
	}
}

func (i *Indexer) processMemecoinCreated(ctx context.Context, ev chain.EmittedEvent, blockTimestamp uint64) error {
	err := i.retry(ctx, "register_memecoin", func(ctx context.Context) error {
		return i.events.FormatAndRegisterEvent(ctx, ev, blockTimestamp)
	})
	if errors.Is(err, events.ErrInvalidEventData) {
		i.skip(ev, "invalid_memecoin_created", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("memecoin created (tx %s): %w", ev.TransactionHash.Hex(), err)
	}

	if created, err := events.DecodeMemecoinCreated(ev.Data); err == nil {
		i.contracts.Set(created.MemecoinAddress.Hex(), model.ContractTypeUnruggable)
	}
	metrics.EventProcessed(events.KindMemecoinCreated.String())
	return nil
}

func (i *Indexer) processTransfer(ctx context.Context, ev chain.EmittedEvent, blockTimestamp uint64, blockNumber *uint64) error {
	transfer, err := events.DecodeTransfer(ev.Data)
	if err != nil {
		reason := "invalid_transfer"
		switch {
		case errors.Is(err, events.ErrShortPayload):
			reason = "short_payload"
		case errors.Is(err, felt.ErrLimbOverflow):
			reason = "limb_overflow"
		}
		i.skip(ev, reason, err)
		return nil
	}

	contractType, known, err := i.contractType(ctx, ev.FromAddress.Hex())
	if err != nil {
		return fmt.Errorf("contract type %s: %w", ev.FromAddress.Hex(), err)
	}
	if !known {
		if i.cfg.KnownContractsOnly {
			metrics.EventSkipped("unknown_contract")
			return nil
		}
		contractType = model.ContractTypeOther
	}

	tokenEvent := events.BuildTokenEvent(ev, transfer, contractType, blockTimestamp)
	if tokenEvent.BlockNumber == nil && blockNumber != nil {
		n := *blockNumber
		tokenEvent.BlockNumber = &n
	}

	if err := i.retry(ctx, "register_event", func(ctx context.Context) error {
		return i.storage.RegisterEvent(ctx, tokenEvent, blockTimestamp)
	}); err != nil {
		return fmt.Errorf("register event %s: %w", tokenEvent.EventID, err)
	}
	i.handler.OnEventRegistered(tokenEvent)

	var token model.TokenInfo
	if err := i.retry(ctx, "register_token", func(ctx context.Context) error {
		var err error
		token, err = i.tokens.FormatAndRegisterToken(ctx, transfer.TokenID, tokenEvent, blockTimestamp, tokenEvent.BlockNumber)
		return err
	}); err != nil {
		return fmt.Errorf("register token %s/%s: %w", tokenEvent.ContractAddress, tokenEvent.TokenID, err)
	}
	i.handler.OnTokenRegistered(token)

	metrics.EventProcessed(string(tokenEvent.EventType))
	return nil
}

// contractType returns the stored type of a contract. known is false when
// the contract was never registered.
func (i *Indexer) contractType(ctx context.Context, address string) (model.ContractType, bool, error) {
	if ct, ok := i.contracts.Get(address); ok {
		return ct, true, nil
	}

	var (
		ct    model.ContractType
		found bool
	)
	err := i.retry(ctx, "get_contract_type", func(ctx context.Context) error {
		var err error
		ct, err = i.storage.GetContractType(ctx, address)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		found = err == nil
		return err
	})
	if err != nil {
		return "", false, err
	}
	if !found {
		return "", false, nil
	}
	i.contracts.Set(address, ct)
	return ct, true, nil
}

func (i *Indexer) skip(ev chain.EmittedEvent, reason string, err error) {
	metrics.EventSkipped(reason)
	fields := []zap.Field{
		zap.String("reason", reason),
		zap.String("contract", ev.FromAddress.Hex()),
		zap.String("tx_hash", ev.TransactionHash.Hex()),
		zap.Error(err),
	}
	if ev.BlockNumber != nil {
		fields = append(fields, zap.Uint64("block_number", *ev.BlockNumber))
	}
	i.logger.Warn("event skipped", fields...)
}
