package model

// EventType classifies a transfer-style event.
type EventType string

const (
	EventTypeMint     EventType = "mint"
	EventTypeBurn     EventType = "burn"
	EventTypeTransfer EventType = "transfer"
)

// TokenEvent is a classified Transfer event ready for storage.
type TokenEvent struct {
	EventID         string       `json:"event_id"`
	ContractAddress string       `json:"contract_address"`
	ContractType    ContractType `json:"contract_type"`
	FromAddress     string       `json:"from_address"`
	ToAddress       string       `json:"to_address"`
	TransactionHash string       `json:"transaction_hash"`
	TokenID         string       `json:"token_id"`
	TokenIDHex      string       `json:"token_id_hex"`
	EventType       EventType    `json:"event_type"`
	BlockNumber     *uint64      `json:"block_number,omitempty"`
	Timestamp       uint64       `json:"timestamp"`
}

// TokenInfo is the latest known state of a token. Owner is empty when the
// owner could not be resolved from chain.
type TokenInfo struct {
	ContractAddress string `json:"contract_address"`
	TokenID         string `json:"token_id"`
	TokenIDHex      string `json:"token_id_hex"`
	Owner           string `json:"owner"`
}

// TokenMintInfo records the mint of a token.
type TokenMintInfo struct {
	Address         string  `json:"address"`
	Timestamp       uint64  `json:"timestamp"`
	TransactionHash string  `json:"transaction_hash"`
	BlockNumber     *uint64 `json:"block_number,omitempty"`
}
