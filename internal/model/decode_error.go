package model

// DecodeError records an emitted event that was skipped during decoding.
type DecodeError struct {
	BlockNumber     *uint64 `json:"block_number,omitempty"`
	TransactionHash string  `json:"transaction_hash"`
	FromAddress     string  `json:"from_address"`
	Selector        string  `json:"selector"`
	Error           string  `json:"error"`
}
