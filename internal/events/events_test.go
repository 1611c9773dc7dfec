package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starkScope/internal/chain"
	"starkScope/internal/felt"
	"starkScope/internal/model"
)

func sampleTransferEvent() chain.EmittedEvent {
	block := uint64(111)
	blockHash := felt.FromUint64(786)
	return chain.EmittedEvent{
		FromAddress:     felt.MustFromHex("0xabc"),
		BlockHash:       &blockHash,
		BlockNumber:     &block,
		TransactionHash: felt.FromUint64(5432),
		Keys:            []felt.Felt{TransferSelector},
		Data: []felt.Felt{
			felt.MustFromHex("0x1234"),
			felt.MustFromHex("0x5678"),
			felt.FromUint64(91011),
			felt.FromUint64(121314),
		},
	}
}

func TestDecodeTransfer(t *testing.T) {
	ev := sampleTransferEvent()
	transfer, err := DecodeTransfer(ev.Data)
	require.NoError(t, err)
	assert.Equal(t, felt.MustFromHex("0x1234"), transfer.From)
	assert.Equal(t, felt.MustFromHex("0x5678"), transfer.To)
	assert.Equal(t, felt.NewU128(91011), transfer.TokenID.Low)
	assert.Equal(t, felt.NewU128(121314), transfer.TokenID.High)
}

func TestDecodeTransferShortPayload(t *testing.T) {
	data := []felt.Felt{felt.FromUint64(1234), felt.FromUint64(5678)}
	_, err := DecodeTransfer(data)
	assert.ErrorIs(t, err, ErrShortPayload)

	_, ok := TransferInfo(data)
	assert.False(t, ok)

	_, ok = TransferInfo(nil)
	assert.False(t, ok)
}

func TestDecodeTransferLimbOverflow(t *testing.T) {
	big := felt.MustFromHex("0x100000000000000000000000000000000")
	_, err := DecodeTransfer([]felt.Felt{felt.FromUint64(1), felt.FromUint64(2), big, felt.Zero})
	assert.ErrorIs(t, err, felt.ErrLimbOverflow)

	_, ok := TransferInfo([]felt.Felt{felt.FromUint64(1), felt.FromUint64(2), felt.Zero, big})
	assert.False(t, ok)
}

func TestDecodeTransferExtraData(t *testing.T) {
	data := append(sampleTransferEvent().Data, felt.FromUint64(99))
	transfer, ok := TransferInfo(data)
	require.True(t, ok)
	assert.Equal(t, "41281015060646728756595827125977528804664195", transfer.TokenID.String())
}

func TestEventType(t *testing.T) {
	a := felt.FromUint64(1)
	b := felt.FromUint64(2)

	assert.Equal(t, model.EventTypeMint, EventType(felt.Zero, a))
	assert.Equal(t, model.EventTypeMint, EventType(felt.Zero, felt.Zero))
	assert.Equal(t, model.EventTypeBurn, EventType(a, felt.Zero))
	assert.Equal(t, model.EventTypeTransfer, EventType(a, b))
	assert.Equal(t, model.EventTypeTransfer, EventType(a, a))
}

func TestEventIDVector(t *testing.T) {
	ev := sampleTransferEvent()
	transfer, err := DecodeTransfer(ev.Data)
	require.NoError(t, err)

	id := EventID(transfer.TokenID, transfer.From, transfer.To, 1700000000, ev)
	assert.Equal(t, "0x03193963aaa654f26d7887f249b8926d99ff8959f9c0ae1a5a294292118086af", id.Hex())
}

func TestEventIDDeterministic(t *testing.T) {
	ev := sampleTransferEvent()
	transfer, err := DecodeTransfer(ev.Data)
	require.NoError(t, err)

	first := EventID(transfer.TokenID, transfer.From, transfer.To, 1000, ev)
	second := EventID(transfer.TokenID, transfer.From, transfer.To, 1000, ev)
	assert.Equal(t, first, second)

	assert.NotEqual(t, first, EventID(transfer.TokenID, transfer.From, transfer.To, 1001, ev))
	assert.NotEqual(t, first, EventID(transfer.TokenID, transfer.To, transfer.From, 1000, ev))

	other := ev
	other.TransactionHash = felt.FromUint64(5433)
	assert.NotEqual(t, first, EventID(transfer.TokenID, transfer.From, transfer.To, 1000, other))

	// Block metadata is not part of the identifier.
	other = ev
	other.BlockNumber = nil
	other.BlockHash = nil
	assert.Equal(t, first, EventID(transfer.TokenID, transfer.From, transfer.To, 1000, other))
}

func TestBuildTokenEvent(t *testing.T) {
	ev := sampleTransferEvent()
	ev.Data[0] = felt.Zero
	transfer, ok := TransferInfo(ev.Data)
	require.True(t, ok)

	out := BuildTokenEvent(ev, transfer, model.ContractTypeERC721, 1700000000)
	assert.Equal(t, EventID(transfer.TokenID, transfer.From, transfer.To, 1700000000, ev).Hex(), out.EventID)
	assert.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000000abc", out.ContractAddress)
	assert.Equal(t, model.ContractTypeERC721, out.ContractType)
	assert.Equal(t, felt.Zero.Hex(), out.FromAddress)
	assert.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000005678", out.ToAddress)
	assert.Equal(t, felt.FromUint64(5432).Hex(), out.TransactionHash)
	assert.Equal(t, transfer.TokenID.String(), out.TokenID)
	assert.Equal(t, transfer.TokenID.Hex(), out.TokenIDHex)
	assert.Equal(t, model.EventTypeMint, out.EventType)
	require.NotNil(t, out.BlockNumber)
	assert.Equal(t, uint64(111), *out.BlockNumber)
	assert.Equal(t, uint64(1700000000), out.Timestamp)

	*ev.BlockNumber = 5
	assert.Equal(t, uint64(111), *out.BlockNumber)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindUnknown, Classify(chain.EmittedEvent{}))
	assert.Equal(t, KindTransfer, Classify(chain.EmittedEvent{Keys: []felt.Felt{TransferSelector}}))
	assert.Equal(t, KindMemecoinCreated, Classify(chain.EmittedEvent{Keys: []felt.Felt{MemecoinCreatedSelector, felt.FromUint64(1)}}))
	assert.Equal(t, KindUnknown, Classify(chain.EmittedEvent{Keys: []felt.Felt{felt.Selector("Approval")}}))
	assert.Equal(t, "memecoin_created", KindMemecoinCreated.String())
}

func TestDecodeMemecoinCreated(t *testing.T) {
	data := memecoinData()
	created, err := DecodeMemecoinCreated(data)
	require.NoError(t, err)
	assert.Equal(t, "1000", created.InitialSupply.String())

	info := created.ContractInfo()
	assert.Equal(t, model.ContractTypeUnruggable, info.ContractType)
	assert.Equal(t, felt.MustFromHex("0x777").Hex(), info.ContractAddress)
	require.NotNil(t, info.Name)
	require.NotNil(t, info.Symbol)
	assert.Equal(t, "Doge", *info.Name)
	assert.Equal(t, "DOGE", *info.Symbol)
	assert.Nil(t, info.Image)

	stored := created.Event()
	assert.Equal(t, felt.MustFromHex("0x999").Hex(), stored.Owner)
	assert.Equal(t, "1000", stored.InitialSupply)
	assert.Equal(t, info.ContractAddress, stored.MemecoinAddress)
}

func TestDecodeMemecoinCreatedRequiresSixScalars(t *testing.T) {
	data := memecoinData()
	for n := 0; n < len(data); n++ {
		_, err := DecodeMemecoinCreated(data[:n])
		assert.ErrorIs(t, err, ErrInvalidEventData, "len %d", n)
	}
}

func TestDecodeMemecoinCreatedSupplyOverflow(t *testing.T) {
	data := memecoinData()
	data[4] = felt.MustFromHex("0x100000000000000000000000000000000")
	_, err := DecodeMemecoinCreated(data)
	assert.ErrorIs(t, err, ErrInvalidEventData)
	assert.True(t, errors.Is(err, felt.ErrLimbOverflow))
}

func TestMemecoinNameLossyUTF8(t *testing.T) {
	data := memecoinData()
	data[1] = felt.MustFromHex("0x41ff42")
	created, err := DecodeMemecoinCreated(data)
	require.NoError(t, err)
	assert.Equal(t, "A�B", *created.ContractInfo().Name)
}

func TestMemecoinNameDropsNulBytes(t *testing.T) {
	data := memecoinData()
	data[1] = felt.MustFromHex("0x446f0067")
	data[2] = felt.MustFromHex("0x440047")
	created, err := DecodeMemecoinCreated(data)
	require.NoError(t, err)
	assert.Equal(t, "Dog", *created.ContractInfo().Name)
	assert.Equal(t, "DG", *created.ContractInfo().Symbol)
	assert.Equal(t, "Dog", created.Event().Name)
}

func memecoinData() []felt.Felt {
	return []felt.Felt{
		felt.MustFromHex("0x999"),
		felt.MustFromHex("0x446f6765"),
		felt.MustFromHex("0x444f4745"),
		felt.FromUint64(1000),
		felt.Zero,
		felt.MustFromHex("0x777"),
	}
}
