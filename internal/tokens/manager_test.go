package tokens

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"starkScope/internal/chain"
	chainmocks "starkScope/internal/chain/mocks"
	"starkScope/internal/felt"
	"starkScope/internal/model"
	"starkScope/internal/storage"
	"starkScope/internal/storage/mocks"
)

var (
	contract  = felt.MustFromHex("0xc0ffee")
	recipient = felt.MustFromHex("0x5678")
)

func tokenID(t *testing.T) felt.U256 {
	t.Helper()
	id, err := felt.NewU256(felt.FromUint64(91011), felt.FromUint64(121314))
	require.NoError(t, err)
	return id
}

func tokenEvent(t *testing.T, eventType model.EventType) model.TokenEvent {
	id := tokenID(t)
	block := uint64(111)
	return model.TokenEvent{
		EventID:         "0x01",
		ContractAddress: contract.Hex(),
		ContractType:    model.ContractTypeERC721,
		FromAddress:     felt.Zero.Hex(),
		ToAddress:       recipient.Hex(),
		TransactionHash: felt.FromUint64(5432).Hex(),
		TokenID:         id.String(),
		TokenIDHex:      id.Hex(),
		EventType:       eventType,
		BlockNumber:     &block,
		Timestamp:       1700000000,
	}
}

func expectOwnerCalls(caller *chainmocks.Caller, id felt.U256, first, second error, owner []felt.Felt) {
	calldata := []felt.Felt{id.Low.Felt(), id.High.Felt()}
	caller.On("CallContract", mock.Anything, contract, felt.Selector("owner_of"), calldata, chain.BlockPending).
		Return(owner, first).Once()
	if first != nil {
		caller.On("CallContract", mock.Anything, contract, felt.Selector("ownerOf"), calldata, chain.BlockPending).
			Return(owner, second).Once()
	}
}

func TestFormatAndRegisterTokenMint(t *testing.T) {
	ctx := context.Background()
	id := tokenID(t)
	ev := tokenEvent(t, model.EventTypeMint)
	block := uint64(111)

	caller := &chainmocks.Caller{}
	expectOwnerCalls(caller, id, nil, nil, []felt.Felt{recipient})

	var order []string
	store := &mocks.Storage{}
	store.On("RegisterToken", ctx, model.TokenInfo{
		ContractAddress: ev.ContractAddress,
		TokenID:         ev.TokenID,
		TokenIDHex:      ev.TokenIDHex,
		Owner:           recipient.Hex(),
	}, uint64(1700000000)).Run(func(mock.Arguments) { order = append(order, "token") }).Return(nil).Once()
	store.On("RegisterMint", ctx, ev.ContractAddress, ev.TokenIDHex, model.TokenMintInfo{
		Address:         recipient.Hex(),
		Timestamp:       1700000000,
		TransactionHash: ev.TransactionHash,
		BlockNumber:     &block,
	}).Run(func(mock.Arguments) { order = append(order, "mint") }).Return(nil).Once()

	m := NewManager(store, caller)
	info, err := m.FormatAndRegisterToken(ctx, id, ev, 1700000000, &block)
	require.NoError(t, err)
	assert.Equal(t, recipient.Hex(), info.Owner)
	assert.Equal(t, []string{"token", "mint"}, order)
	store.AssertExpectations(t)
	caller.AssertExpectations(t)
}

func TestFormatAndRegisterTokenTransferSkipsMint(t *testing.T) {
	ctx := context.Background()
	id := tokenID(t)
	ev := tokenEvent(t, model.EventTypeTransfer)

	caller := &chainmocks.Caller{}
	expectOwnerCalls(caller, id, nil, nil, []felt.Felt{recipient})

	store := &mocks.Storage{}
	store.On("RegisterToken", ctx, mock.Anything, uint64(1700000000)).Return(nil).Once()

	m := NewManager(store, caller)
	_, err := m.FormatAndRegisterToken(ctx, id, ev, 1700000000, nil)
	require.NoError(t, err)
	store.AssertExpectations(t)
	store.AssertNotCalled(t, "RegisterMint", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFormatAndRegisterTokenOwnerFallback(t *testing.T) {
	ctx := context.Background()
	id := tokenID(t)
	ev := tokenEvent(t, model.EventTypeTransfer)

	caller := &chainmocks.Caller{}
	expectOwnerCalls(caller, id, errors.New("entrypoint not found"), nil, []felt.Felt{felt.MustFromHex("0xABCD")})

	store := &mocks.Storage{}
	store.On("RegisterToken", ctx, mock.MatchedBy(func(token model.TokenInfo) bool {
		return token.Owner == felt.MustFromHex("0xabcd").Hex()
	}), uint64(1700000000)).Return(nil).Once()

	m := NewManager(store, caller)
	info, err := m.FormatAndRegisterToken(ctx, id, ev, 1700000000, nil)
	require.NoError(t, err)
	assert.Equal(t, "0x000000000000000000000000000000000000000000000000000000000000abcd", info.Owner)
	store.AssertExpectations(t)
	caller.AssertExpectations(t)
}

func TestFormatAndRegisterTokenOwnerUnresolved(t *testing.T) {
	ctx := context.Background()
	id := tokenID(t)
	ev := tokenEvent(t, model.EventTypeMint)

	caller := &chainmocks.Caller{}
	expectOwnerCalls(caller, id, errors.New("owner_of failed"), errors.New("ownerOf failed"), nil)

	store := &mocks.Storage{}
	store.On("RegisterToken", ctx, mock.MatchedBy(func(token model.TokenInfo) bool {
		return token.Owner == ""
	}), uint64(1700000000)).Return(nil).Once()
	store.On("RegisterMint", ctx, ev.ContractAddress, ev.TokenIDHex, mock.Anything).Return(nil).Once()

	m := NewManager(store, caller)
	info, err := m.FormatAndRegisterToken(ctx, id, ev, 1700000000, nil)
	require.NoError(t, err)
	assert.Empty(t, info.Owner)
	store.AssertExpectations(t)
}

func TestFormatAndRegisterTokenStorageFailure(t *testing.T) {
	ctx := context.Background()
	id := tokenID(t)
	ev := tokenEvent(t, model.EventTypeMint)

	caller := &chainmocks.Caller{}
	expectOwnerCalls(caller, id, nil, nil, []felt.Felt{recipient})

	store := &mocks.Storage{}
	store.On("RegisterToken", ctx, mock.Anything, mock.Anything).
		Return(storage.Wrap("register_token", storage.ErrUnavailable)).Once()

	m := NewManager(store, caller)
	_, err := m.FormatAndRegisterToken(ctx, id, ev, 1700000000, nil)
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	store.AssertNotCalled(t, "RegisterMint", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFormatAndRegisterTokenBadContract(t *testing.T) {
	ev := tokenEvent(t, model.EventTypeTransfer)
	ev.ContractAddress = "not-hex"

	store := &mocks.Storage{}
	m := NewManager(store, &chainmocks.Caller{})
	_, err := m.FormatAndRegisterToken(context.Background(), tokenID(t), ev, 1, nil)
	assert.ErrorIs(t, err, felt.ErrInvalidHex)
	assert.Empty(t, store.Calls)
}

func TestTokenOwner(t *testing.T) {
	ctx := context.Background()
	id := tokenID(t)

	t.Run("first candidate wins", func(t *testing.T) {
		caller := &chainmocks.Caller{}
		expectOwnerCalls(caller, id, nil, nil, []felt.Felt{felt.FromUint64(1)})
		out, err := NewManager(&mocks.Storage{}, caller).TokenOwner(ctx, contract, id.Low.Felt(), id.High.Felt())
		require.NoError(t, err)
		assert.Equal(t, []felt.Felt{felt.FromUint64(1)}, out)
		caller.AssertNotCalled(t, "CallContract", mock.Anything, contract, felt.Selector("ownerOf"), mock.Anything, mock.Anything)
	})

	t.Run("second candidate result", func(t *testing.T) {
		caller := &chainmocks.Caller{}
		expectOwnerCalls(caller, id, errors.New("boom"), nil, []felt.Felt{felt.FromUint64(2)})
		out, err := NewManager(&mocks.Storage{}, caller).TokenOwner(ctx, contract, id.Low.Felt(), id.High.Felt())
		require.NoError(t, err)
		assert.Equal(t, []felt.Felt{felt.FromUint64(2)}, out)
	})

	t.Run("all candidates fail", func(t *testing.T) {
		caller := &chainmocks.Caller{}
		expectOwnerCalls(caller, id, errors.New("first"), errors.New("second"), nil)
		_, err := NewManager(&mocks.Storage{}, caller).TokenOwner(ctx, contract, id.Low.Felt(), id.High.Felt())
		require.ErrorIs(t, err, ErrOwnerNotResolved)
		assert.Contains(t, err.Error(), "owner_of: first")
		assert.Contains(t, err.Error(), "ownerOf: second")
		caller.AssertExpectations(t)
	})
}
