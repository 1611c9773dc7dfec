package model

import "fmt"

// BlockIndexingStatus is the indexing state of a block.
type BlockIndexingStatus string

const (
	BlockIndexingStatusNone       BlockIndexingStatus = "none"
	BlockIndexingStatusProcessing BlockIndexingStatus = "processing"
	BlockIndexingStatusTerminated BlockIndexingStatus = "terminated"
)

// ParseBlockIndexingStatus converts a stored value back to a status.
func ParseBlockIndexingStatus(s string) (BlockIndexingStatus, error) {
	switch BlockIndexingStatus(s) {
	case BlockIndexingStatusNone, BlockIndexingStatusProcessing, BlockIndexingStatusTerminated:
		return BlockIndexingStatus(s), nil
	default:
		return "", fmt.Errorf("unknown block indexing status: %q", s)
	}
}

// BlockInfo is the indexing checkpoint of a block.
type BlockInfo struct {
	IndexerVersion    string              `json:"indexer_version"`
	IndexerIdentifier string              `json:"indexer_identifier"`
	Status            BlockIndexingStatus `json:"status"`
	BlockNumber       uint64              `json:"block_number"`
}
