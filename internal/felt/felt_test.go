package felt

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromHex(t *testing.T) {
	f, err := FromHex("0x1234")
	require.NoError(t, err)
	assert.Equal(t, FromUint64(0x1234), f)

	f, err = FromHex("00000000000000000000000000000000000000000000000000000000000abcd")
	require.NoError(t, err)
	assert.Equal(t, FromUint64(0xabcd), f)

	_, err = FromHex("0x")
	require.ErrorIs(t, err, ErrInvalidHex)

	_, err = FromHex("0xzz")
	require.ErrorIs(t, err, ErrInvalidHex)
}

func TestFromBigRejectsPrime(t *testing.T) {
	_, err := FromBig(new(big.Int).Set(prime))
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = FromBig(big.NewInt(-1))
	require.ErrorIs(t, err, ErrOutOfRange)

	max := new(big.Int).Sub(prime, big.NewInt(1))
	f, err := FromBig(max)
	require.NoError(t, err)
	assert.Equal(t, 0, f.Big().Cmp(max))
}

func TestFromDecimal(t *testing.T) {
	f, err := FromDecimal("91011")
	require.NoError(t, err)
	assert.Equal(t, FromUint64(91011), f)

	_, err = FromDecimal("12a")
	require.ErrorIs(t, err, ErrInvalidDecimal)
}

func TestHexIsPadded(t *testing.T) {
	assert.Equal(t, "0x000000000000000000000000000000000000000000000000000000000000abcd", FromUint64(0xabcd).Hex())
	assert.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000000000", Zero.Hex())
}

func TestJSONUsesMinimalHex(t *testing.T) {
	data, err := json.Marshal([]Felt{Zero, FromUint64(0xabcd)})
	require.NoError(t, err)
	assert.JSONEq(t, `["0x0","0xabcd"]`, string(data))

	var decoded []Felt
	require.NoError(t, json.Unmarshal([]byte(`["0x0","0x00abcd"]`), &decoded))
	assert.Equal(t, []Felt{Zero, FromUint64(0xabcd)}, decoded)

	var bad Felt
	require.Error(t, json.Unmarshal([]byte(`12`), &bad))
}

func TestShortString(t *testing.T) {
	name, err := FromBytes([]byte("Pepe"))
	require.NoError(t, err)
	assert.Equal(t, "Pepe", name.ShortString())

	assert.Equal(t, "", Zero.ShortString())

	invalid, err := FromBytes([]byte{'A', 0xff, 'B'})
	require.NoError(t, err)
	assert.Equal(t, "A�B", invalid.ShortString())

	interior, err := FromBytes([]byte{'D', 0, 'O', 0, 0, 'G'})
	require.NoError(t, err)
	assert.Equal(t, "DOG", interior.ShortString())
	assert.NotContains(t, interior.ShortString(), "\x00")
}

func TestUint64(t *testing.T) {
	v, err := FromUint64(42).Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v)

	_, err = U128{Hi: 1}.Felt().Uint64()
	require.Error(t, err)
}
