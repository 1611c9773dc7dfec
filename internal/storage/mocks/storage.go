// Package mocks provides a testify mock of storage.Storage.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"starkScope/internal/model"
	"starkScope/internal/storage"
)

type Storage struct {
	mock.Mock
}

var _ storage.Storage = (*Storage)(nil)

func (m *Storage) RegisterMint(ctx context.Context, contractAddress, tokenIDHex string, info model.TokenMintInfo) error {
	args := m.Called(ctx, contractAddress, tokenIDHex, info)
	return args.Error(0)
}

func (m *Storage) RegisterToken(ctx context.Context, token model.TokenInfo, blockTimestamp uint64) error {
	args := m.Called(ctx, token, blockTimestamp)
	return args.Error(0)
}

func (m *Storage) RegisterEvent(ctx context.Context, event model.TokenEvent, blockTimestamp uint64) error {
	args := m.Called(ctx, event, blockTimestamp)
	return args.Error(0)
}

func (m *Storage) GetContractType(ctx context.Context, contractAddress string) (model.ContractType, error) {
	args := m.Called(ctx, contractAddress)
	return args.Get(0).(model.ContractType), args.Error(1)
}

func (m *Storage) RegisterContractInfo(ctx context.Context, info model.ContractInfo, blockTimestamp uint64) error {
	args := m.Called(ctx, info, blockTimestamp)
	return args.Error(0)
}

func (m *Storage) RegisterMemecoinCreatedEvent(ctx context.Context, event model.MemecoinCreatedEvent, blockTimestamp uint64) error {
	args := m.Called(ctx, event, blockTimestamp)
	return args.Error(0)
}

func (m *Storage) SetBlockInfo(ctx context.Context, blockNumber, blockTimestamp uint64, info model.BlockInfo) error {
	args := m.Called(ctx, blockNumber, blockTimestamp, info)
	return args.Error(0)
}

func (m *Storage) GetBlockInfo(ctx context.Context, blockNumber uint64) (model.BlockInfo, error) {
	args := m.Called(ctx, blockNumber)
	return args.Get(0).(model.BlockInfo), args.Error(1)
}

func (m *Storage) CleanBlock(ctx context.Context, blockTimestamp uint64, blockNumber *uint64) error {
	args := m.Called(ctx, blockTimestamp, blockNumber)
	return args.Error(0)
}
