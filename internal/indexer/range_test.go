package indexer

import (
	"reflect"
	"testing"

	"starkScope/internal/chain"
	"starkScope/internal/felt"
)

func TestSplitRange(t *testing.T) {
	got, err := SplitRange(100, 105, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []BlockRange{
		{From: 100, To: 101},
		{From: 102, To: 103},
		{From: 104, To: 105},
	}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ranges mismatch: %+v != %+v", got, want)
	}
}

func TestSplitRangeSingle(t *testing.T) {
	got, err := SplitRange(5, 5, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []BlockRange{{From: 5, To: 5}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ranges mismatch: %+v != %+v", got, want)
	}
}

func TestSplitRangeInvalid(t *testing.T) {
	if _, err := SplitRange(10, 9, 1); err == nil {
		t.Fatalf("expected error for invalid range")
	}
	if _, err := SplitRange(1, 10, 0); err == nil {
		t.Fatalf("expected error for zero batch size")
	}
}

func TestProgress(t *testing.T) {
	r := BlockRange{From: 10, To: 13}
	cases := map[uint64]float64{9: 0, 10: 25, 11: 50, 12: 75, 13: 100, 20: 100}
	for n, want := range cases {
		if got := Progress(r, n); got != want {
			t.Fatalf("progress at %d: got %v want %v", n, got, want)
		}
	}
	if got := Progress(BlockRange{From: 7, To: 7}, 7); got != 100 {
		t.Fatalf("single block progress: %v", got)
	}
}

func TestGroupByBlock(t *testing.T) {
	one, two := uint64(1), uint64(2)
	evs := []chain.EmittedEvent{
		{BlockNumber: &two, TransactionHash: felt.FromUint64(1)},
		{BlockNumber: &one, TransactionHash: felt.FromUint64(2)},
		{BlockNumber: nil, TransactionHash: felt.FromUint64(3)},
		{BlockNumber: &two, TransactionHash: felt.FromUint64(4)},
	}
	got := groupByBlock(evs)
	if len(got) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(got))
	}
	if len(got[2]) != 2 || got[2][0].TransactionHash != felt.FromUint64(1) || got[2][1].TransactionHash != felt.FromUint64(4) {
		t.Fatalf("block 2 order mismatch: %+v", got[2])
	}
	if len(got[1]) != 1 {
		t.Fatalf("block 1 mismatch: %+v", got[1])
	}
}

func TestSortByBlock(t *testing.T) {
	one, two := uint64(1), uint64(2)
	evs := []chain.EmittedEvent{
		{BlockNumber: nil, TransactionHash: felt.FromUint64(1)},
		{BlockNumber: &two, TransactionHash: felt.FromUint64(2)},
		{BlockNumber: &one, TransactionHash: felt.FromUint64(3)},
		{BlockNumber: &two, TransactionHash: felt.FromUint64(4)},
	}
	sortByBlock(evs)

	var got []uint64
	for _, ev := range evs {
		v, _ := ev.TransactionHash.Uint64()
		got = append(got, v)
	}
	want := []uint64{3, 2, 4, 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order mismatch: %v != %v", got, want)
	}
}
