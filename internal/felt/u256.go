package felt

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"
)

// U128 is an unsigned 128-bit integer.
type U128 struct {
	Hi uint64
	Lo uint64
}

// NewU128 builds a U128 from a uint64.
func NewU128(v uint64) U128 {
	return U128{Lo: v}
}

// U128 converts f to a 128-bit limb. Values that do not fit return
// ErrLimbOverflow; they are never truncated.
func (f Felt) U128() (U128, error) {
	for _, b := range f[:16] {
		if b != 0 {
			return U128{}, fmt.Errorf("%w: %s", ErrLimbOverflow, f.Hex())
		}
	}
	return U128{
		Hi: binary.BigEndian.Uint64(f[16:24]),
		Lo: binary.BigEndian.Uint64(f[24:32]),
	}, nil
}

// Felt returns the limb as a felt. Every 128-bit value is a valid felt.
func (u U128) Felt() Felt {
	var f Felt
	binary.BigEndian.PutUint64(f[16:24], u.Hi)
	binary.BigEndian.PutUint64(f[24:32], u.Lo)
	return f
}

// U256 is a Cairo u256: a 256-bit unsigned integer split in two 128-bit limbs.
type U256 struct {
	Low  U128
	High U128
}

// NewU256 builds a U256 from its two limb felts.
func NewU256(low, high Felt) (U256, error) {
	l, err := low.U128()
	if err != nil {
		return U256{}, fmt.Errorf("low limb: %w", err)
	}
	h, err := high.U128()
	if err != nil {
		return U256{}, fmt.Errorf("high limb: %w", err)
	}
	return U256{Low: l, High: h}, nil
}

// Int returns the full 256-bit value.
func (u U256) Int() *uint256.Int {
	var b [32]byte
	binary.BigEndian.PutUint64(b[0:8], u.High.Hi)
	binary.BigEndian.PutUint64(b[8:16], u.High.Lo)
	binary.BigEndian.PutUint64(b[16:24], u.Low.Hi)
	binary.BigEndian.PutUint64(b[24:32], u.Low.Lo)
	return new(uint256.Int).SetBytes32(b[:])
}

// String returns the decimal representation.
func (u U256) String() string {
	return u.Int().Dec()
}

// Hex returns 0x followed by 64 lowercase hex digits.
func (u U256) Hex() string {
	b := u.Int().Bytes32()
	return fmt.Sprintf("0x%x", b[:])
}
