// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starkScope/internal/model"
	"starkScope/internal/storage"
)

// Factory opens an empty store for one subtest.
type Factory func(t *testing.T) storage.Storage

const (
	contractA = "0x0000000000000000000000000000000000000000000000000000000000000aaa"
	contractB = "0x0000000000000000000000000000000000000000000000000000000000000bbb"
	tokenHex  = "0x0000000000000000000000000000000000000000000000000000000000000007"
)

func u64(v uint64) *uint64 { return &v }

func strPtr(s string) *string { return &s }

// Run exercises the Storage contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("ContractTypeNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetContractType(context.Background(), contractA)
		require.Error(t, err)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ContractInfoRoundTrip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		info := model.ContractInfo{
			ContractAddress: contractA,
			ContractType:    model.ContractTypeUnruggable,
			Name:            strPtr("Doge"),
			Symbol:          strPtr("DOGE"),
		}
		require.NoError(t, s.RegisterContractInfo(ctx, info, 100))
		ct, err := s.GetContractType(ctx, contractA)
		require.NoError(t, err)
		assert.Equal(t, model.ContractTypeUnruggable, ct)

		info.ContractType = model.ContractTypeERC721
		require.NoError(t, s.RegisterContractInfo(ctx, info, 200))
		ct, err = s.GetContractType(ctx, contractA)
		require.NoError(t, err)
		assert.Equal(t, model.ContractTypeERC721, ct)
	})

	t.Run("RejectsInvalidInput", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		assert.ErrorIs(t, s.RegisterEvent(ctx, model.TokenEvent{ContractAddress: contractA}, 1), storage.ErrInvalidInput)
		assert.ErrorIs(t, s.RegisterToken(ctx, model.TokenInfo{TokenIDHex: tokenHex}, 1), storage.ErrInvalidInput)
		assert.ErrorIs(t, s.RegisterMint(ctx, contractA, "", model.TokenMintInfo{}), storage.ErrInvalidInput)
		assert.ErrorIs(t, s.RegisterContractInfo(ctx, model.ContractInfo{}, 1), storage.ErrInvalidInput)
		assert.ErrorIs(t, s.RegisterMemecoinCreatedEvent(ctx, model.MemecoinCreatedEvent{}, 1), storage.ErrInvalidInput)
	})

	t.Run("BlockInfo", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.GetBlockInfo(ctx, 42)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		info := model.BlockInfo{
			IndexerVersion:    "0.1.0",
			IndexerIdentifier: "main",
			Status:            model.BlockIndexingStatusProcessing,
		}
		require.NoError(t, s.SetBlockInfo(ctx, 42, 1000, info))
		got, err := s.GetBlockInfo(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, uint64(42), got.BlockNumber)
		assert.Equal(t, model.BlockIndexingStatusProcessing, got.Status)
		assert.Equal(t, "main", got.IndexerIdentifier)

		info.Status = model.BlockIndexingStatusTerminated
		require.NoError(t, s.SetBlockInfo(ctx, 42, 1000, info))
		got, err = s.GetBlockInfo(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, model.BlockIndexingStatusTerminated, got.Status)
		assert.Equal(t, "0.1.0", got.IndexerVersion)
	})

	t.Run("TokenEventsAndMints", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		ev := model.TokenEvent{
			EventID:         "0x01",
			ContractAddress: contractA,
			ContractType:    model.ContractTypeOther,
			FromAddress:     "0x0",
			ToAddress:       contractB,
			TransactionHash: "0xabc",
			TokenID:         "7",
			TokenIDHex:      tokenHex,
			EventType:       model.EventTypeMint,
			BlockNumber:     u64(10),
			Timestamp:       1000,
		}
		require.NoError(t, s.RegisterEvent(ctx, ev, 1000))
		require.NoError(t, s.RegisterEvent(ctx, ev, 1000))
		require.NoError(t, s.RegisterToken(ctx, model.TokenInfo{
			ContractAddress: contractA, TokenID: "7", TokenIDHex: tokenHex, Owner: contractB,
		}, 1000))
		require.NoError(t, s.RegisterToken(ctx, model.TokenInfo{
			ContractAddress: contractA, TokenID: "7", TokenIDHex: tokenHex,
		}, 1001))
		require.NoError(t, s.RegisterMint(ctx, contractA, tokenHex, model.TokenMintInfo{
			Address: contractB, Timestamp: 1000, TransactionHash: "0xabc", BlockNumber: u64(10),
		}))

		require.NoError(t, s.CleanBlock(ctx, 1000, u64(11)))
		require.NoError(t, s.CleanBlock(ctx, 1000, u64(10)))
		require.NoError(t, s.CleanBlock(ctx, 1000, nil))
	})

	t.Run("PendingBlock", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		ev := model.TokenEvent{
			EventID:         "0x02",
			ContractAddress: contractA,
			TokenIDHex:      tokenHex,
			EventType:       model.EventTypeTransfer,
			Timestamp:       2000,
		}
		require.NoError(t, s.RegisterEvent(ctx, ev, 2000))
		require.NoError(t, s.CleanBlock(ctx, 2000, nil))
		require.NoError(t, s.RegisterEvent(ctx, ev, 2000))
	})

	t.Run("MemecoinCreatedEvent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		ev := model.MemecoinCreatedEvent{
			Owner:           contractB,
			Name:            "Doge",
			Symbol:          "DOGE",
			InitialSupply:   "1000",
			MemecoinAddress: contractA,
		}
		require.NoError(t, s.RegisterMemecoinCreatedEvent(ctx, ev, 100))
		require.NoError(t, s.RegisterMemecoinCreatedEvent(ctx, ev, 100))
	})
}
