package storage

import (
	"context"
	"errors"

	"starkScope/internal/model"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when a record is rejected before it is written.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnavailable is returned when the backend cannot be reached.
	ErrUnavailable = errors.New("storage unavailable")
)

// Error is the failure type returned by every backend.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap returns err as an *Error for op. A nil err stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) && se.Op == op {
		return err
	}
	return &Error{Op: op, Err: err}
}

// Storage persists indexed token state. Implementations must be safe for
// concurrent use.
type Storage interface {
	RegisterMint(ctx context.Context, contractAddress, tokenIDHex string, info model.TokenMintInfo) error
	RegisterToken(ctx context.Context, token model.TokenInfo, blockTimestamp uint64) error
	RegisterEvent(ctx context.Context, event model.TokenEvent, blockTimestamp uint64) error
	// GetContractType returns ErrNotFound for a contract that was never registered.
	GetContractType(ctx context.Context, contractAddress string) (model.ContractType, error)
	RegisterContractInfo(ctx context.Context, info model.ContractInfo, blockTimestamp uint64) error
	RegisterMemecoinCreatedEvent(ctx context.Context, event model.MemecoinCreatedEvent, blockTimestamp uint64) error
	SetBlockInfo(ctx context.Context, blockNumber, blockTimestamp uint64, info model.BlockInfo) error
	// GetBlockInfo returns ErrNotFound for a block that was never indexed.
	GetBlockInfo(ctx context.Context, blockNumber uint64) (model.BlockInfo, error)
	// CleanBlock removes the events and mints recorded for a block. A nil
	// blockNumber selects the pending block by its timestamp.
	CleanBlock(ctx context.Context, blockTimestamp uint64, blockNumber *uint64) error
}

// ValidateEvent checks the fields every backend keys on.
func ValidateEvent(event model.TokenEvent) error {
	if event.EventID == "" {
		return errors.Join(ErrInvalidInput, errors.New("event id is required"))
	}
	if event.ContractAddress == "" {
		return errors.Join(ErrInvalidInput, errors.New("contract address is required"))
	}
	return nil
}

// ValidateToken checks the token key fields.
func ValidateToken(contractAddress, tokenIDHex string) error {
	if contractAddress == "" {
		return errors.Join(ErrInvalidInput, errors.New("contract address is required"))
	}
	if tokenIDHex == "" {
		return errors.Join(ErrInvalidInput, errors.New("token id is required"))
	}
	return nil
}

// ValidateContract checks the contract key fields.
func ValidateContract(contractAddress string) error {
	if contractAddress == "" {
		return errors.Join(ErrInvalidInput, errors.New("contract address is required"))
	}
	return nil
}
