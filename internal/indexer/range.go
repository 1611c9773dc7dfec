package indexer

import (
	"fmt"
	"sort"

	"starkScope/internal/chain"
)

// BlockRange represents an inclusive block range.
type BlockRange struct {
	From uint64
	To   uint64
}

// Len is the number of blocks in the range.
func (r BlockRange) Len() uint64 {
	return r.To - r.From + 1
}

// SplitRange splits a block range into batches of size batchSize.
func SplitRange(from, to, batchSize uint64) ([]BlockRange, error) {
	if batchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("to block must be >= from block")
	}

	ranges := make([]BlockRange, 0, (to-from)/batchSize+1)
	for start := from; ; start += batchSize {
		end := to
		if to-start >= batchSize {
			end = start + batchSize - 1
		}
		ranges = append(ranges, BlockRange{From: start, To: end})
		if end == to {
			return ranges, nil
		}
	}
}

// Progress is the share of r covered once block n is done, in percent.
func Progress(r BlockRange, n uint64) float64 {
	if n < r.From {
		return 0
	}
	if n >= r.To {
		return 100
	}
	return float64(n-r.From+1) / float64(r.Len()) * 100
}

// groupByBlock buckets events by block number keeping their fetch order.
// Events without a block number are dropped.
func groupByBlock(evs []chain.EmittedEvent) map[uint64][]chain.EmittedEvent {
	out := make(map[uint64][]chain.EmittedEvent)
	for _, ev := range evs {
		if ev.BlockNumber == nil {
			continue
		}
		out[*ev.BlockNumber] = append(out[*ev.BlockNumber], ev)
	}
	return out
}

// sortByBlock orders events of several fetches by block, stable within a block.
func sortByBlock(evs []chain.EmittedEvent) {
	sort.SliceStable(evs, func(i, j int) bool {
		bi, bj := evs[i].BlockNumber, evs[j].BlockNumber
		if bi == nil || bj == nil {
			return bi != nil
		}
		return *bi < *bj
	})
}
