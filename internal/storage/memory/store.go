// Package memory provides an in-memory Storage for tests and dry runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"starkScope/internal/model"
	"starkScope/internal/storage"
)

type tokenKey struct {
	contract string
	tokenID  string
}

type tokenRecord struct {
	info      model.TokenInfo
	updatedAt uint64
}

type contractRecord struct {
	info      model.ContractInfo
	createdAt uint64
}

// Store keeps every record in maps guarded by a RWMutex. Returned values are copies.
type Store struct {
	mu        sync.RWMutex
	events    map[string]model.TokenEvent
	tokens    map[tokenKey]tokenRecord
	mints     map[tokenKey]model.TokenMintInfo
	contracts map[string]contractRecord
	memecoins map[string]model.MemecoinCreatedEvent
	blocks    map[uint64]model.BlockInfo
}

var _ storage.Storage = (*Store)(nil)

func New() *Store {
	return &Store{
		events:    make(map[string]model.TokenEvent),
		tokens:    make(map[tokenKey]tokenRecord),
		mints:     make(map[tokenKey]model.TokenMintInfo),
		contracts: make(map[string]contractRecord),
		memecoins: make(map[string]model.MemecoinCreatedEvent),
		blocks:    make(map[uint64]model.BlockInfo),
	}
}

func (s *Store) RegisterMint(ctx context.Context, contractAddress, tokenIDHex string, info model.TokenMintInfo) error {
	if err := storage.ValidateToken(contractAddress, tokenIDHex); err != nil {
		return storage.Wrap("register_mint", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	info.BlockNumber = copyUint64(info.BlockNumber)
	s.mints[tokenKey{contractAddress, tokenIDHex}] = info
	return nil
}

func (s *Store) RegisterToken(ctx context.Context, token model.TokenInfo, blockTimestamp uint64) error {
	if err := storage.ValidateToken(token.ContractAddress, token.TokenIDHex); err != nil {
		return storage.Wrap("register_token", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tokenKey{token.ContractAddress, token.TokenIDHex}
	// Older blocks never overwrite a newer owner.
	if existing, ok := s.tokens[key]; ok && existing.updatedAt > blockTimestamp {
		return nil
	}
	s.tokens[key] = tokenRecord{info: token, updatedAt: blockTimestamp}
	return nil
}

func (s *Store) RegisterEvent(ctx context.Context, event model.TokenEvent, blockTimestamp uint64) error {
	if err := storage.ValidateEvent(event); err != nil {
		return storage.Wrap("register_event", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	event.BlockNumber = copyUint64(event.BlockNumber)
	s.events[event.EventID] = event
	return nil
}

func (s *Store) GetContractType(ctx context.Context, contractAddress string) (model.ContractType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.contracts[contractAddress]
	if !ok {
		return "", storage.Wrap("get_contract_type", storage.ErrNotFound)
	}
	return rec.info.ContractType, nil
}

func (s *Store) RegisterContractInfo(ctx context.Context, info model.ContractInfo, blockTimestamp uint64) error {
	if err := storage.ValidateContract(info.ContractAddress); err != nil {
		return storage.Wrap("register_contract_info", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	createdAt := blockTimestamp
	if existing, ok := s.contracts[info.ContractAddress]; ok && existing.createdAt < createdAt {
		createdAt = existing.createdAt
	}
	s.contracts[info.ContractAddress] = contractRecord{info: copyContractInfo(info), createdAt: createdAt}
	return nil
}

func (s *Store) RegisterMemecoinCreatedEvent(ctx context.Context, event model.MemecoinCreatedEvent, blockTimestamp uint64) error {
	if err := storage.ValidateContract(event.MemecoinAddress); err != nil {
		return storage.Wrap("register_memecoin_created_event", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memecoins[event.MemecoinAddress] = event
	return nil
}

func (s *Store) SetBlockInfo(ctx context.Context, blockNumber, blockTimestamp uint64, info model.BlockInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	info.BlockNumber = blockNumber
	s.blocks[blockNumber] = info
	return nil
}

func (s *Store) GetBlockInfo(ctx context.Context, blockNumber uint64) (model.BlockInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.blocks[blockNumber]
	if !ok {
		return model.BlockInfo{}, storage.Wrap("get_block_info", storage.ErrNotFound)
	}
	return info, nil
}

func (s *Store) CleanBlock(ctx context.Context, blockTimestamp uint64, blockNumber *uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ev := range s.events {
		if inBlock(ev.BlockNumber, ev.Timestamp, blockTimestamp, blockNumber) {
			delete(s.events, id)
		}
	}
	for key, mint := range s.mints {
		if inBlock(mint.BlockNumber, mint.Timestamp, blockTimestamp, blockNumber) {
			delete(s.mints, key)
		}
	}
	return nil
}

// Events returns the stored events ordered by block number then event id.
// Pending events sort last.
func (s *Store) Events() []model.TokenEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.TokenEvent, 0, len(s.events))
	for _, ev := range s.events {
		ev.BlockNumber = copyUint64(ev.BlockNumber)
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool {
		bi, bj := blockOrder(out[i].BlockNumber), blockOrder(out[j].BlockNumber)
		if bi != bj {
			return bi < bj
		}
		return out[i].EventID < out[j].EventID
	})
	return out
}

// Token returns the stored token state.
func (s *Store) Token(contractAddress, tokenIDHex string) (model.TokenInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.tokens[tokenKey{contractAddress, tokenIDHex}]
	return rec.info, ok
}

// Mint returns the stored mint record of a token.
func (s *Store) Mint(contractAddress, tokenIDHex string) (model.TokenMintInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mint, ok := s.mints[tokenKey{contractAddress, tokenIDHex}]
	mint.BlockNumber = copyUint64(mint.BlockNumber)
	return mint, ok
}

// ContractInfo returns the stored contract metadata.
func (s *Store) ContractInfo(contractAddress string) (model.ContractInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.contracts[contractAddress]
	if !ok {
		return model.ContractInfo{}, false
	}
	return copyContractInfo(rec.info), true
}

// MemecoinCreatedEvent returns the stored creation event of a memecoin.
func (s *Store) MemecoinCreatedEvent(memecoinAddress string) (model.MemecoinCreatedEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.memecoins[memecoinAddress]
	return ev, ok
}

func inBlock(recordBlock *uint64, recordTimestamp, blockTimestamp uint64, blockNumber *uint64) bool {
	if blockNumber == nil {
		return recordBlock == nil && recordTimestamp == blockTimestamp
	}
	return recordBlock != nil && *recordBlock == *blockNumber
}

func blockOrder(n *uint64) uint64 {
	if n == nil {
		return ^uint64(0)
	}
	return *n
}

func copyUint64(v *uint64) *uint64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyContractInfo(info model.ContractInfo) model.ContractInfo {
	info.Name = copyString(info.Name)
	info.Symbol = copyString(info.Symbol)
	info.Image = copyString(info.Image)
	return info
}
