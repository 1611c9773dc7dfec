// Package felt implements the Starknet field element and the helpers built on
// top of it: 128-bit limbs, Cairo u256 values and starknet_keccak selectors.
package felt

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	// ErrInvalidHex is returned when a string is not a valid hex number.
	ErrInvalidHex = errors.New("felt: invalid hex")

	// ErrInvalidDecimal is returned when a string is not a valid decimal number.
	ErrInvalidDecimal = errors.New("felt: invalid decimal")

	// ErrOutOfRange is returned for values that are not below the Stark prime.
	ErrOutOfRange = errors.New("felt: value out of field range")

	// ErrLimbOverflow is returned when a felt does not fit in 128 bits.
	ErrLimbOverflow = errors.New("felt: value does not fit in 128 bits")
)

// prime is the Stark field modulus 2^251 + 17*2^192 + 1.
var prime = func() *big.Int {
	p := new(big.Int).Lsh(big.NewInt(1), 251)
	p.Add(p, new(big.Int).Lsh(big.NewInt(17), 192))
	return p.Add(p, big.NewInt(1))
}()

// Felt is a Starknet field element stored as 32 big-endian bytes.
type Felt [32]byte

// Zero is the zero felt, used as the "no address" sentinel.
var Zero Felt

// FromUint64 builds a felt from a uint64.
func FromUint64(v uint64) Felt {
	var f Felt
	for i := 0; i < 8; i++ {
		f[31-i] = byte(v >> (8 * i))
	}
	return f
}

// FromBig builds a felt from a non-negative big integer below the prime.
func FromBig(v *big.Int) (Felt, error) {
	if v == nil || v.Sign() < 0 || v.Cmp(prime) >= 0 {
		return Felt{}, ErrOutOfRange
	}
	var f Felt
	v.FillBytes(f[:])
	return f, nil
}

// FromBytes builds a felt from up to 32 big-endian bytes.
func FromBytes(b []byte) (Felt, error) {
	if len(b) > 32 {
		return Felt{}, ErrOutOfRange
	}
	return FromBig(new(big.Int).SetBytes(b))
}

// FromHex parses a hex string, with or without the 0x prefix. Leading zeros
// are accepted.
func FromHex(s string) (Felt, error) {
	s = strings.TrimSpace(s)
	digits := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if digits == "" {
		return Felt{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	v, ok := new(big.Int).SetString(digits, 16)
	if !ok {
		return Felt{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	return FromBig(v)
}

// MustFromHex is like FromHex but panics on error. Intended for constants and tests.
func MustFromHex(s string) Felt {
	f, err := FromHex(s)
	if err != nil {
		panic(err)
	}
	return f
}

// FromDecimal parses a base-10 string.
func FromDecimal(s string) (Felt, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return Felt{}, fmt.Errorf("%w: %q", ErrInvalidDecimal, s)
	}
	return FromBig(v)
}

// IsZero reports whether f is the zero felt.
func (f Felt) IsZero() bool {
	return f == Zero
}

// Big returns f as a big integer.
func (f Felt) Big() *big.Int {
	return new(big.Int).SetBytes(f[:])
}

// Bytes returns the 32 big-endian bytes of f.
func (f Felt) Bytes() []byte {
	out := make([]byte, 32)
	copy(out, f[:])
	return out
}

// Hex returns the canonical form used for persisted values: 0x followed by
// 64 lowercase hex digits.
func (f Felt) Hex() string {
	return fmt.Sprintf("0x%x", f[:])
}

// String implements fmt.Stringer.
func (f Felt) String() string {
	return f.Hex()
}

// Uint64 returns f as a uint64 or an error when it does not fit.
func (f Felt) Uint64() (uint64, error) {
	v := f.Big()
	if !v.IsUint64() {
		return 0, fmt.Errorf("felt: %s does not fit in 64 bits", f.Hex())
	}
	return v.Uint64(), nil
}

// ShortString decodes f as a Cairo short string. NUL bytes, the leading
// padding included, are dropped and the rest is read as UTF-8. Invalid bytes
// become U+FFFD, so decoding never fails.
func (f Felt) ShortString() string {
	b := make([]byte, 0, len(f))
	for _, c := range f {
		if c != 0 {
			b = append(b, c)
		}
	}
	return lossyUTF8(b)
}

func lossyUTF8(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size <= 1 {
			sb.WriteRune(utf8.RuneError)
			b = b[1:]
			continue
		}
		sb.Write(b[:size])
		b = b[size:]
	}
	return sb.String()
}

// MarshalJSON encodes f the way Starknet JSON-RPC expects: minimal 0x hex.
func (f Felt) MarshalJSON() ([]byte, error) {
	return json.Marshal(hexutil.EncodeBig(f.Big()))
}

// UnmarshalJSON decodes a 0x hex string.
func (f *Felt) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidHex, string(data))
	}
	parsed, err := FromHex(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
