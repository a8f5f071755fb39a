package storage

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branched-services/go-contractkit/codec"
)

func TestSlotByteRange(t *testing.T) {
	tests := []struct {
		name   string
		slot   Slot
		lo, hi int
	}{
		{"full word", Slot{Width: 32}, 0, 32},
		{"low byte", Slot{Width: 1}, 31, 32},
		{"second byte", Slot{Offset: 1, Width: 1}, 30, 31},
		{"address at offset 0", Slot{Width: 20}, 12, 32},
		{"bool after address", Slot{Offset: 20, Width: 1}, 11, 12},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lo, hi := tc.slot.ByteRange()
			assert.Equal(t, tc.lo, lo)
			assert.Equal(t, tc.hi, hi)
		})
	}
}

// Slot derivation must match Solidity's storage-layout algorithm
// bit-for-bit; these constants come from that convention.
func TestSlotDerivationGoldenValues(t *testing.T) {
	t.Run("dynamic array data base", func(t *testing.T) {
		// keccak256(uint256(0)), where a dynamic array at slot 0 keeps
		// its elements.
		base := uint256.NewInt(0)
		data := DataBase(base)
		key := data.Bytes32()
		assert.Equal(t,
			"0x290decd9548b62a8d60345a988386fc84ba6bc95484008f6362f93160ef3e563",
			common.Hash(key).Hex())
	})

	t.Run("mapping entry for zero key at slot zero", func(t *testing.T) {
		// keccak256(uint256(0) ++ uint256(0)).
		slot := MappingSlotWord(uint256.NewInt(0), common.Hash{})
		assert.Equal(t,
			"0xad3228b676f7d3cd4284a5443f17f1962b36e491b30a40b2405849e597ba5fb5",
			common.Hash(slot.Key()).Hex())
	})
}

func TestElementSlot(t *testing.T) {
	base := uint256.NewInt(1000)

	t.Run("single byte elements pack 32 per word", func(t *testing.T) {
		desc := MustLayout(codec.MustType("uint8"))

		s := ElementSlot(base, 0, desc)
		assert.Equal(t, uint64(1000), s.Word.Uint64())
		assert.Equal(t, uint8(0), s.Offset)
		assert.Equal(t, uint8(1), s.Width)

		s = ElementSlot(base, 35, desc)
		assert.Equal(t, uint64(1001), s.Word.Uint64())
		assert.Equal(t, uint8(3), s.Offset)
	})

	t.Run("word sized elements advance one word each", func(t *testing.T) {
		desc := MustLayout(codec.MustType("uint256"))
		s := ElementSlot(base, 2, desc)
		assert.Equal(t, uint64(1002), s.Word.Uint64())
		assert.Equal(t, uint8(32), s.Width)
	})

	t.Run("multi word elements advance by their word count", func(t *testing.T) {
		desc := MustLayout(codec.MustType("(uint256,uint256)"))
		require.Equal(t, uint64(2), desc.Words)

		s := ElementSlot(base, 3, desc)
		assert.Equal(t, uint64(1006), s.Word.Uint64())
		assert.Equal(t, uint8(32), s.Width)
	})

	t.Run("eight byte elements pack four per word", func(t *testing.T) {
		desc := MustLayout(codec.MustType("uint64"))
		s := ElementSlot(base, 5, desc)
		assert.Equal(t, uint64(1001), s.Word.Uint64())
		assert.Equal(t, uint8(8), s.Offset)
		assert.Equal(t, uint8(8), s.Width)
	})
}
