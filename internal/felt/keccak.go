package felt

import "github.com/ethereum/go-ethereum/crypto"

// Keccak is starknet_keccak: Keccak-256 truncated to its 250 low bits, so
// the result is always a valid felt.
func Keccak(data ...[]byte) Felt {
	var f Felt
	copy(f[:], crypto.Keccak256(data...))
	f[0] &= 0x03
	return f
}

// Selector returns the selector of an entry point or event name.
func Selector(name string) Felt {
	return Keccak([]byte(name))
}
