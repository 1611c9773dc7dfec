package felt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectorVectors(t *testing.T) {
	cases := map[string]string{
		"Transfer":        "0x0099cd8bde557814842a3121e8ddfd433a539b8c9f14bf31ebf108d12e6196e9",
		"MemecoinCreated": "0x01be539d3a1327d450ab9b7a754f7708ea94f67182f2506217cafff2d694f8e1",
		"owner_of":        "0x03552df12bdc6089cf963c40c4cf56fbfd4bd14680c244d1c5494c2790f1ea5c",
		"ownerOf":         "0x002962ba17806af798afa6eaf4aa8c93a9fb60a3e305045b6eea33435086cae9",
	}
	for name, want := range cases {
		assert.Equal(t, want, Selector(name).Hex(), name)
	}
}

func TestKeccakFitsField(t *testing.T) {
	for _, name := range []string{"Transfer", "MemecoinCreated", "owner_of", "ownerOf"} {
		f := Selector(name)
		assert.Equal(t, byte(0), f[0]&0xfc, name)
		assert.Less(t, f.Big().Cmp(prime), 0, name)
	}
}

func TestKeccakConcatenation(t *testing.T) {
	assert.Equal(t, Keccak([]byte("ab"), []byte("cd")), Keccak([]byte("abcd")))
	assert.NotEqual(t, Selector("owner_of"), Selector("ownerOf"))
}
