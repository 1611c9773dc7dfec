// Package tokens resolves token ownership and persists token state.
package tokens

import (
	"context"
	"errors"
	"fmt"

	"starkScope/internal/chain"
	"starkScope/internal/felt"
	"starkScope/internal/model"
	"starkScope/internal/storage"
)

// ErrOwnerNotResolved is returned when every owner selector failed.
var ErrOwnerNotResolved = errors.New("token owner not resolved")

// ownerSelectors are tried in order; contracts disagree on the entrypoint name.
var ownerSelectors = []struct {
	name     string
	selector felt.Felt
}{
	{"owner_of", felt.Selector("owner_of")},
	{"ownerOf", felt.Selector("ownerOf")},
}

// Manager resolves owners through a chain.Caller and writes tokens and mints.
// It holds no mutable state.
type Manager struct {
	storage storage.Storage
	caller  chain.Caller
}

func NewManager(store storage.Storage, caller chain.Caller) *Manager {
	return &Manager{storage: store, caller: caller}
}

// FormatAndRegisterToken stores the token state carried by ev and, for
// mints, the mint record. Owner lookup failures leave Owner empty; only
// storage failures are returned.
func (m *Manager) FormatAndRegisterToken(ctx context.Context, tokenID felt.U256, ev model.TokenEvent, blockTimestamp uint64, blockNumber *uint64) (model.TokenInfo, error) {
	token := model.TokenInfo{
		ContractAddress: ev.ContractAddress,
		TokenID:         ev.TokenID,
		TokenIDHex:      ev.TokenIDHex,
	}

	contract, err := felt.FromHex(ev.ContractAddress)
	if err != nil {
		return token, fmt.Errorf("contract address %q: %w", ev.ContractAddress, err)
	}

	owner, err := m.TokenOwner(ctx, contract, tokenID.Low.Felt(), tokenID.High.Felt())
	if err == nil && len(owner) > 0 {
		token.Owner = owner[0].Hex()
	}

	if err := m.storage.RegisterToken(ctx, token, blockTimestamp); err != nil {
		return token, fmt.Errorf("register token: %w", err)
	}

	if ev.EventType == model.EventTypeMint {
		info := model.TokenMintInfo{
			Address:         ev.ToAddress,
			Timestamp:       ev.Timestamp,
			TransactionHash: ev.TransactionHash,
			BlockNumber:     blockNumber,
		}
		if err := m.storage.RegisterMint(ctx, token.ContractAddress, token.TokenIDHex, info); err != nil {
			return token, fmt.Errorf("register mint: %w", err)
		}
	}

	return token, nil
}

// TokenOwner calls the owner entrypoints of contract at the pending block
// with calldata [low, high] and returns the first successful result.
func (m *Manager) TokenOwner(ctx context.Context, contract, low, high felt.Felt) ([]felt.Felt, error) {
	calldata := []felt.Felt{low, high}
	errs := make([]error, 0, len(ownerSelectors)+1)
	errs = append(errs, ErrOwnerNotResolved)
	for _, candidate := range ownerSelectors {
		out, err := m.caller.CallContract(ctx, contract, candidate.selector, calldata, chain.BlockPending)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return nil, errors.Join(ErrOwnerNotResolved, ctx.Err())
		}
		errs = append(errs, fmt.Errorf("%s: %w", candidate.name, err))
	}
	return nil, errors.Join(errs...)
}
