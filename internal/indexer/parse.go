package indexer

import (
	"fmt"
	"strconv"
	"strings"

	"starkScope/internal/chain"
	"starkScope/internal/felt"
)

// ParseAddresses converts hex strings into contract address felts.
func ParseAddresses(inputs []string) ([]felt.Felt, error) {
	addresses := make([]felt.Felt, 0, len(inputs))
	seen := make(map[felt.Felt]struct{}, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !strings.HasPrefix(input, "0x") && !strings.HasPrefix(input, "0X") {
			return nil, fmt.Errorf("invalid address: %s", input)
		}
		addr, err := felt.FromHex(input)
		if err != nil {
			return nil, fmt.Errorf("invalid address: %s: %w", input, err)
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		addresses = append(addresses, addr)
	}
	return addresses, nil
}

// ParseBlockID accepts a block number, "latest" or "pending".
func ParseBlockID(input string) (chain.BlockID, error) {
	input = strings.TrimSpace(strings.ToLower(input))
	switch chain.BlockTag(input) {
	case chain.BlockTagLatest:
		return chain.BlockLatest, nil
	case chain.BlockTagPending:
		return chain.BlockPending, nil
	}
	n, err := strconv.ParseUint(input, 10, 64)
	if err != nil {
		return chain.BlockID{}, fmt.Errorf("invalid block id: %q", input)
	}
	return chain.BlockNumber(n), nil
}
