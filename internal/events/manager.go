package events

import (
	"context"
	"fmt"

	"starkScope/internal/chain"
	"starkScope/internal/felt"
	"starkScope/internal/storage"
)

// Options tunes what the Manager persists.
type Options struct {
	// RegisterMemecoinEvents also stores the raw MemecoinCreated payload.
	RegisterMemecoinEvents bool
}

// Manager classifies events and persists contract metadata. It holds no
// mutable state and is safe for concurrent use on distinct events.
type Manager struct {
	storage storage.Storage
	opts    Options
}

func NewManager(store storage.Storage, opts Options) *Manager {
	return &Manager{storage: store, opts: opts}
}

// KeysSelector is the getEvents key filter: one key position matching
// either Transfer or MemecoinCreated.
func (m *Manager) KeysSelector() [][]felt.Felt {
	return [][]felt.Felt{{TransferSelector, MemecoinCreatedSelector}}
}

// FormatAndRegisterEvent handles the contract-level side of an event.
// MemecoinCreated registers the new contract. Transfers are decoded by the
// caller through DecodeTransfer and produce no writes here.
func (m *Manager) FormatAndRegisterEvent(ctx context.Context, ev chain.EmittedEvent, blockTimestamp uint64) error {
	if Classify(ev) != KindMemecoinCreated {
		return nil
	}

	created, err := DecodeMemecoinCreated(ev.Data)
	if err != nil {
		return err
	}
	if err := m.storage.RegisterContractInfo(ctx, created.ContractInfo(), blockTimestamp); err != nil {
		return fmt.Errorf("register memecoin contract: %w", err)
	}
	if m.opts.RegisterMemecoinEvents {
		if err := m.storage.RegisterMemecoinCreatedEvent(ctx, created.Event(), blockTimestamp); err != nil {
			return fmt.Errorf("register memecoin created event: %w", err)
		}
	}
	return nil
}
