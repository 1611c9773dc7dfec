package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starkScope/internal/model"
	"starkScope/internal/storage"
	"starkScope/internal/storage/storagetest"
)

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage { return New() })
}

func u64(v uint64) *uint64 { return &v }

func TestCleanBlock(t *testing.T) {
	s := New()
	ctx := context.Background()

	events := []model.TokenEvent{
		{EventID: "0x1", ContractAddress: "0xa", TokenIDHex: "0x1", BlockNumber: u64(5), Timestamp: 50},
		{EventID: "0x2", ContractAddress: "0xa", TokenIDHex: "0x2", BlockNumber: u64(6), Timestamp: 60},
		{EventID: "0x3", ContractAddress: "0xa", TokenIDHex: "0x3", Timestamp: 70},
		{EventID: "0x4", ContractAddress: "0xa", TokenIDHex: "0x4", Timestamp: 71},
	}
	for _, ev := range events {
		require.NoError(t, s.RegisterEvent(ctx, ev, ev.Timestamp))
	}
	require.NoError(t, s.RegisterMint(ctx, "0xa", "0x1", model.TokenMintInfo{Address: "0xb", Timestamp: 50, BlockNumber: u64(5)}))
	require.NoError(t, s.RegisterMint(ctx, "0xa", "0x3", model.TokenMintInfo{Address: "0xb", Timestamp: 70}))

	require.NoError(t, s.CleanBlock(ctx, 50, u64(5)))
	_, ok := s.Mint("0xa", "0x1")
	assert.False(t, ok)

	require.NoError(t, s.CleanBlock(ctx, 70, nil))
	_, ok = s.Mint("0xa", "0x3")
	assert.False(t, ok)

	got := s.Events()
	require.Len(t, got, 2)
	assert.Equal(t, "0x2", got[0].EventID)
	assert.Equal(t, "0x4", got[1].EventID)
}

func TestRegisterTokenKeepsNewest(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.RegisterToken(ctx, model.TokenInfo{ContractAddress: "0xa", TokenIDHex: "0x1", Owner: "0xnew"}, 200))
	require.NoError(t, s.RegisterToken(ctx, model.TokenInfo{ContractAddress: "0xa", TokenIDHex: "0x1", Owner: "0xold"}, 100))

	tok, ok := s.Token("0xa", "0x1")
	require.True(t, ok)
	assert.Equal(t, "0xnew", tok.Owner)
}

func TestReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	name := "Doge"
	require.NoError(t, s.RegisterContractInfo(ctx, model.ContractInfo{
		ContractAddress: "0xa",
		ContractType:    model.ContractTypeUnruggable,
		Name:            &name,
	}, 1))
	name = "Changed"

	info, ok := s.ContractInfo("0xa")
	require.True(t, ok)
	require.NotNil(t, info.Name)
	assert.Equal(t, "Doge", *info.Name)

	*info.Name = "Mutated"
	again, _ := s.ContractInfo("0xa")
	assert.Equal(t, "Doge", *again.Name)
}
