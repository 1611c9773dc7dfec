package chain

import (
	"encoding/json"
	"errors"
	"fmt"

	"starkScope/internal/felt"
)

// BlockTag names a block that has no definite number yet (or whose number
// the caller does not know).
type BlockTag string

const (
	BlockTagLatest  BlockTag = "latest"
	BlockTagPending BlockTag = "pending"
)

// BlockID references a block either by number or by tag.
type BlockID struct {
	Number *uint64
	Tag    BlockTag
}

var (
	// BlockLatest references the latest accepted block.
	BlockLatest = BlockID{Tag: BlockTagLatest}
	// BlockPending references the pending block.
	BlockPending = BlockID{Tag: BlockTagPending}
)

// BlockNumber returns a BlockID for a definite block number.
func BlockNumber(n uint64) BlockID {
	return BlockID{Number: &n}
}

// IsPending reports whether id references the pending block.
func (id BlockID) IsPending() bool {
	return id.Number == nil && id.Tag == BlockTagPending
}

func (id BlockID) String() string {
	if id.Number != nil {
		return fmt.Sprintf("%d", *id.Number)
	}
	return string(id.Tag)
}

type blockNumberRef struct {
	BlockNumber uint64 `json:"block_number"`
}

// MarshalJSON encodes the id as the RPC block_id union.
func (id BlockID) MarshalJSON() ([]byte, error) {
	if id.Number != nil {
		return json.Marshal(blockNumberRef{BlockNumber: *id.Number})
	}
	switch id.Tag {
	case BlockTagLatest, BlockTagPending:
		return json.Marshal(string(id.Tag))
	default:
		return nil, fmt.Errorf("invalid block tag: %q", id.Tag)
	}
}

// UnmarshalJSON decodes the RPC block_id union. Block hashes are not supported.
func (id *BlockID) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		switch BlockTag(tag) {
		case BlockTagLatest, BlockTagPending:
			*id = BlockID{Tag: BlockTag(tag)}
			return nil
		default:
			return fmt.Errorf("invalid block tag: %q", tag)
		}
	}

	var ref struct {
		BlockNumber *uint64 `json:"block_number"`
	}
	if err := json.Unmarshal(data, &ref); err != nil {
		return fmt.Errorf("invalid block id: %w", err)
	}
	if ref.BlockNumber == nil {
		return errors.New("invalid block id: only block_number and tags are supported")
	}
	*id = BlockID{Number: ref.BlockNumber}
	return nil
}

// EmittedEvent is an event log as returned by starknet_getEvents.
type EmittedEvent struct {
	FromAddress     felt.Felt   `json:"from_address"`
	Keys            []felt.Felt `json:"keys"`
	Data            []felt.Felt `json:"data"`
	BlockHash       *felt.Felt  `json:"block_hash,omitempty"`
	BlockNumber     *uint64     `json:"block_number,omitempty"`
	TransactionHash felt.Felt   `json:"transaction_hash"`
}

// FunctionCall is the request object of starknet_call.
type FunctionCall struct {
	ContractAddress    felt.Felt   `json:"contract_address"`
	EntryPointSelector felt.Felt   `json:"entry_point_selector"`
	Calldata           []felt.Felt `json:"calldata"`
}

// EventFilter is the request object of starknet_getEvents.
type EventFilter struct {
	FromBlock         *BlockID      `json:"from_block,omitempty"`
	ToBlock           *BlockID      `json:"to_block,omitempty"`
	Address           *felt.Felt    `json:"address,omitempty"`
	Keys              [][]felt.Felt `json:"keys,omitempty"`
	ChunkSize         int           `json:"chunk_size"`
	ContinuationToken string        `json:"continuation_token,omitempty"`
}

// EventsPage is one page of starknet_getEvents results.
type EventsPage struct {
	Events            []EmittedEvent `json:"events"`
	ContinuationToken string         `json:"continuation_token,omitempty"`
}

// BlockHeader holds the block fields the indexer reads. BlockNumber is nil
// for the pending block.
type BlockHeader struct {
	BlockHash   *felt.Felt `json:"block_hash,omitempty"`
	BlockNumber *uint64    `json:"block_number,omitempty"`
	Timestamp   uint64     `json:"timestamp"`
	Status      string     `json:"status,omitempty"`
}
