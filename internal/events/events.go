// Package events classifies raw Starknet events into token records.
package events

import (
	"errors"
	"fmt"

	"starkScope/internal/chain"
	"starkScope/internal/felt"
	"starkScope/internal/model"
)

var (
	// TransferSelector is the key of ERC721/ERC20 Transfer events.
	TransferSelector = felt.Selector("Transfer")
	// MemecoinCreatedSelector is the key of the unruggable factory creation event.
	MemecoinCreatedSelector = felt.Selector("MemecoinCreated")
)

var (
	// ErrInvalidEventData is returned when a recognised event cannot be decoded.
	ErrInvalidEventData = errors.New("invalid event data")
	// ErrShortPayload is returned when a Transfer carries fewer than 4 data scalars.
	ErrShortPayload = errors.New("short event payload")
)

const (
	transferDataLen        = 4
	memecoinCreatedDataLen = 6
)

// Kind is the event family recognised from the first key.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransfer
	KindMemecoinCreated
)

func (k Kind) String() string {
	switch k {
	case KindTransfer:
		return "transfer"
	case KindMemecoinCreated:
		return "memecoin_created"
	default:
		return "unknown"
	}
}

// Classify returns the event family of ev from its first key.
func Classify(ev chain.EmittedEvent) Kind {
	if len(ev.Keys) == 0 {
		return KindUnknown
	}
	switch ev.Keys[0] {
	case TransferSelector:
		return KindTransfer
	case MemecoinCreatedSelector:
		return KindMemecoinCreated
	default:
		return KindUnknown
	}
}

// Transfer is the decoded payload of a Transfer event.
type Transfer struct {
	From    felt.Felt
	To      felt.Felt
	TokenID felt.U256
}

// DecodeTransfer reads (from, to, token_id_low, token_id_high) from data.
func DecodeTransfer(data []felt.Felt) (Transfer, error) {
	if len(data) < transferDataLen {
		return Transfer{}, fmt.Errorf("%w: transfer needs %d scalars, got %d", ErrShortPayload, transferDataLen, len(data))
	}
	tokenID, err := felt.NewU256(data[2], data[3])
	if err != nil {
		return Transfer{}, fmt.Errorf("transfer token id: %w", err)
	}
	return Transfer{From: data[0], To: data[1], TokenID: tokenID}, nil
}

// TransferInfo is DecodeTransfer for callers that skip malformed logs.
func TransferInfo(data []felt.Felt) (Transfer, bool) {
	t, err := DecodeTransfer(data)
	return t, err == nil
}

// EventType derives mint/burn/transfer from the zero address convention.
// Mint wins when both addresses are zero.
func EventType(from, to felt.Felt) model.EventType {
	switch {
	case from == felt.Zero:
		return model.EventTypeMint
	case to == felt.Zero:
		return model.EventTypeBurn
	default:
		return model.EventTypeTransfer
	}
}

// EventID is starknet_keccak over the 32-byte big-endian encodings of
// token id low, token id high, from, to, emitting contract, transaction
// hash and timestamp, in that order.
func EventID(tokenID felt.U256, from, to felt.Felt, timestamp uint64, ev chain.EmittedEvent) felt.Felt {
	low := tokenID.Low.Felt()
	high := tokenID.High.Felt()
	ts := felt.FromUint64(timestamp)
	return felt.Keccak(
		low[:],
		high[:],
		from[:],
		to[:],
		ev.FromAddress[:],
		ev.TransactionHash[:],
		ts[:],
	)
}

// BuildTokenEvent assembles the stored record of a decoded Transfer.
func BuildTokenEvent(ev chain.EmittedEvent, t Transfer, contractType model.ContractType, blockTimestamp uint64) model.TokenEvent {
	var blockNumber *uint64
	if ev.BlockNumber != nil {
		n := *ev.BlockNumber
		blockNumber = &n
	}
	return model.TokenEvent{
		EventID:         EventID(t.TokenID, t.From, t.To, blockTimestamp, ev).Hex(),
		ContractAddress: ev.FromAddress.Hex(),
		ContractType:    contractType,
		FromAddress:     t.From.Hex(),
		ToAddress:       t.To.Hex(),
		TransactionHash: ev.TransactionHash.Hex(),
		TokenID:         t.TokenID.String(),
		TokenIDHex:      t.TokenID.Hex(),
		EventType:       EventType(t.From, t.To),
		BlockNumber:     blockNumber,
		Timestamp:       blockTimestamp,
	}
}

// MemecoinCreated is the decoded payload of a MemecoinCreated event.
type MemecoinCreated struct {
	Owner           felt.Felt
	Name            felt.Felt
	Symbol          felt.Felt
	InitialSupply   felt.U256
	MemecoinAddress felt.Felt
}

// DecodeMemecoinCreated reads (owner, name, symbol, supply_low, supply_high,
// memecoin_address) from data.
func DecodeMemecoinCreated(data []felt.Felt) (MemecoinCreated, error) {
	if len(data) < memecoinCreatedDataLen {
		return MemecoinCreated{}, fmt.Errorf("%w: MemecoinCreated needs %d scalars, got %d",
			ErrInvalidEventData, memecoinCreatedDataLen, len(data))
	}
	supply, err := felt.NewU256(data[3], data[4])
	if err != nil {
		return MemecoinCreated{}, fmt.Errorf("%w: initial supply: %w", ErrInvalidEventData, err)
	}
	return MemecoinCreated{
		Owner:           data[0],
		Name:            data[1],
		Symbol:          data[2],
		InitialSupply:   supply,
		MemecoinAddress: data[5],
	}, nil
}

// ContractInfo is the metadata stored for the created memecoin.
func (m MemecoinCreated) ContractInfo() model.ContractInfo {
	name := m.Name.ShortString()
	symbol := m.Symbol.ShortString()
	return model.ContractInfo{
		ContractAddress: m.MemecoinAddress.Hex(),
		ContractType:    model.ContractTypeUnruggable,
		Name:            &name,
		Symbol:          &symbol,
	}
}

// Event is the stored form of the creation event.
func (m MemecoinCreated) Event() model.MemecoinCreatedEvent {
	return model.MemecoinCreatedEvent{
		Owner:           m.Owner.Hex(),
		Name:            m.Name.ShortString(),
		Symbol:          m.Symbol.ShortString(),
		InitialSupply:   m.InitialSupply.String(),
		MemecoinAddress: m.MemecoinAddress.Hex(),
	}
}
