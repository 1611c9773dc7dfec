package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/rpc"

	"starkScope/internal/felt"
	"starkScope/internal/metrics"
)

const defaultChunkSize = 1000

// ErrPendingBlock is returned when a block number is requested for the pending block.
var ErrPendingBlock = errors.New("pending block has no number")

// Caller performs read-only contract calls.
type Caller interface {
	CallContract(ctx context.Context, address, selector felt.Felt, calldata []felt.Felt, block BlockID) ([]felt.Felt, error)
}

// Provider is the chain capability used by the indexer.
type Provider interface {
	Caller
	BlockNumber(ctx context.Context) (uint64, error)
	BlockTime(ctx context.Context, block BlockID) (uint64, error)
	BlockIDToNumber(ctx context.Context, block BlockID) (uint64, error)
	FetchEvents(ctx context.Context, query EventQuery) ([]EmittedEvent, error)
}

// EventQuery selects events in an inclusive block range.
type EventQuery struct {
	From    BlockID
	To      BlockID
	Keys    [][]felt.Felt
	Address *felt.Felt
}

// Client talks to a Starknet node over JSON-RPC. It is safe for concurrent use.
type Client struct {
	rpcClient *rpc.Client
	chunkSize int

	mu      sync.RWMutex
	tsCache map[uint64]uint64
}

var _ Provider = (*Client)(nil)

// NewClient dials the Starknet RPC endpoint.
func NewClient(ctx context.Context, rpcURL string, chunkSize int) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return NewClientWithRPC(rpcClient, chunkSize), nil
}

// NewClientWithRPC wraps an existing RPC client.
func NewClientWithRPC(rpcClient *rpc.Client, chunkSize int) *Client {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &Client{
		rpcClient: rpcClient,
		chunkSize: chunkSize,
		tsCache:   make(map[uint64]uint64),
	}
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

func (c *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	start := time.Now()
	metrics.RPCMethodInc(method)
	err := c.rpcClient.CallContext(ctx, result, method, args...)
	metrics.RPCMethodDuration(method, time.Since(start))
	if err != nil {
		metrics.RPCMethodError(method)
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

// BlockNumber returns the latest accepted block number.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var n uint64
	if err := c.call(ctx, &n, "starknet_blockNumber"); err != nil {
		return 0, err
	}
	return n, nil
}

// BlockHeader returns the header fields of a block.
func (c *Client) BlockHeader(ctx context.Context, block BlockID) (BlockHeader, error) {
	var header BlockHeader
	if err := c.call(ctx, &header, "starknet_getBlockWithTxHashes", block); err != nil {
		return BlockHeader{}, err
	}
	return header, nil
}

// BlockTime returns the block timestamp. Timestamps of numbered blocks are
// cached; the pending block is always fetched.
func (c *Client) BlockTime(ctx context.Context, block BlockID) (uint64, error) {
	if block.Number != nil {
		c.mu.RLock()
		ts, ok := c.tsCache[*block.Number]
		c.mu.RUnlock()
		if ok {
			return ts, nil
		}
	}

	header, err := c.BlockHeader(ctx, block)
	if err != nil {
		return 0, err
	}

	if header.BlockNumber != nil && !block.IsPending() {
		c.mu.Lock()
		c.tsCache[*header.BlockNumber] = header.Timestamp
		c.mu.Unlock()
	}
	return header.Timestamp, nil
}

// BlockIDToNumber resolves a block id to a definite number.
func (c *Client) BlockIDToNumber(ctx context.Context, block BlockID) (uint64, error) {
	if block.Number != nil {
		return *block.Number, nil
	}
	if block.IsPending() {
		return 0, ErrPendingBlock
	}
	return c.BlockNumber(ctx)
}

// CallContract performs starknet_call at the given block.
func (c *Client) CallContract(ctx context.Context, address, selector felt.Felt, calldata []felt.Felt, block BlockID) ([]felt.Felt, error) {
	if calldata == nil {
		calldata = []felt.Felt{}
	}
	req := FunctionCall{
		ContractAddress:    address,
		EntryPointSelector: selector,
		Calldata:           calldata,
	}
	var out []felt.Felt
	if err := c.call(ctx, &out, "starknet_call", req, block); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchEvents returns every event matching the query, following continuation tokens.
func (c *Client) FetchEvents(ctx context.Context, query EventQuery) ([]EmittedEvent, error) {
	from, to := query.From, query.To
	filter := EventFilter{
		FromBlock: &from,
		ToBlock:   &to,
		Address:   query.Address,
		Keys:      query.Keys,
		ChunkSize: c.chunkSize,
	}

	var events []EmittedEvent
	for {
		var page EventsPage
		if err := c.call(ctx, &page, "starknet_getEvents", filter); err != nil {
			return nil, err
		}
		events = append(events, page.Events...)
		if page.ContinuationToken == "" {
			return events, nil
		}
		filter.ContinuationToken = page.ContinuationToken
	}
}
