package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branched-services/go-contractkit/codec"
)

func TestComputeLayoutPrimitives(t *testing.T) {
	tests := []struct {
		typ  string
		size uint8
	}{
		{"uint8", 1},
		{"uint64", 8},
		{"uint256", 32},
		{"int128", 16},
		{"bool", 1},
		{"address", 20},
		{"bytes4", 4},
		{"bytes32", 32},
	}

	for _, tc := range tests {
		t.Run(tc.typ, func(t *testing.T) {
			d, err := ComputeLayout(codec.MustType(tc.typ))
			require.NoError(t, err)
			assert.Equal(t, DescPrimitive, d.Kind)
			assert.Equal(t, tc.size, d.Size)
			assert.Equal(t, uint64(1), d.Words)
		})
	}
}

// A composite of {1-byte, 1-byte, 32-byte} fields occupies exactly two
// words: the byte fields share word 0 at its low-order end, the full
// word field gets word 1 alone.
func TestComputeLayoutPackingDeterminism(t *testing.T) {
	d, err := ComputeLayout(codec.MustType("(uint8,uint8,uint256)"))
	require.NoError(t, err)

	require.Equal(t, DescStruct, d.Kind)
	assert.Equal(t, uint64(2), d.Words)

	require.Len(t, d.Fields, 3)
	assert.Equal(t, uint64(0), d.Fields[0].Word)
	assert.Equal(t, uint8(0), d.Fields[0].Offset)
	assert.Equal(t, uint64(0), d.Fields[1].Word)
	assert.Equal(t, uint8(1), d.Fields[1].Offset)
	assert.Equal(t, uint64(1), d.Fields[2].Word)
	assert.Equal(t, uint8(0), d.Fields[2].Offset)
}

func TestComputeLayoutPacking(t *testing.T) {
	t.Run("field overflowing the word starts fresh", func(t *testing.T) {
		// 20 + 20 > 32, so the second address moves to word 1.
		d, err := ComputeLayout(codec.MustType("(address,address)"))
		require.NoError(t, err)
		assert.Equal(t, uint64(2), d.Words)
		assert.Equal(t, uint64(0), d.Fields[0].Word)
		assert.Equal(t, uint64(1), d.Fields[1].Word)
		assert.Equal(t, uint8(0), d.Fields[1].Offset)
	})

	t.Run("address and bool share a word", func(t *testing.T) {
		d, err := ComputeLayout(codec.MustType("(address,bool)"))
		require.NoError(t, err)
		assert.Equal(t, uint64(1), d.Words)
		assert.Equal(t, uint8(20), d.Fields[1].Offset)
	})

	t.Run("exactly full word advances the cursor", func(t *testing.T) {
		d, err := ComputeLayout(codec.MustType("(uint128,uint128,uint64)"))
		require.NoError(t, err)
		assert.Equal(t, uint64(2), d.Words)
		assert.Equal(t, uint64(1), d.Fields[2].Word)
		assert.Equal(t, uint8(0), d.Fields[2].Offset)
	})

	t.Run("nested struct is word aligned on both sides", func(t *testing.T) {
		d, err := ComputeLayout(codec.MustType("(uint8,(uint8,uint8),uint8)"))
		require.NoError(t, err)
		// uint8 in word 0, struct in word 1, trailing uint8 in word 2.
		assert.Equal(t, uint64(3), d.Words)
		assert.Equal(t, uint64(0), d.Fields[0].Word)
		assert.Equal(t, uint64(1), d.Fields[1].Word)
		assert.Equal(t, uint64(2), d.Fields[2].Word)
	})
}

func TestComputeLayoutArrays(t *testing.T) {
	t.Run("full word elements", func(t *testing.T) {
		d, err := ComputeLayout(codec.MustType("uint256[3]"))
		require.NoError(t, err)
		assert.Equal(t, DescFixedArray, d.Kind)
		assert.Equal(t, uint64(3), d.Words)
	})

	t.Run("packed small elements", func(t *testing.T) {
		d, err := ComputeLayout(codec.MustType("uint8[5]"))
		require.NoError(t, err)
		assert.Equal(t, uint64(1), d.Words)
	})

	t.Run("packed elements spilling over", func(t *testing.T) {
		d, err := ComputeLayout(codec.MustType("uint64[5]"))
		require.NoError(t, err)
		// Four 8-byte values per word.
		assert.Equal(t, uint64(2), d.Words)
	})

	t.Run("multi word elements", func(t *testing.T) {
		d, err := ComputeLayout(codec.MustType("(uint256,uint256)[3]"))
		require.NoError(t, err)
		assert.Equal(t, uint64(6), d.Words)
	})

	t.Run("dynamic array reserves one word", func(t *testing.T) {
		d, err := ComputeLayout(codec.MustType("uint256[]"))
		require.NoError(t, err)
		assert.Equal(t, DescDynamicArray, d.Kind)
		assert.Equal(t, uint64(1), d.Words)
		require.NotNil(t, d.Elem)
		assert.Equal(t, uint8(32), d.Elem.Size)
	})
}

func TestMappingLayout(t *testing.T) {
	d, err := MappingLayout(codec.MustType("address"), codec.MustType("uint256"))
	require.NoError(t, err)
	assert.Equal(t, DescMapping, d.Kind)
	assert.Equal(t, uint64(1), d.Words)
	assert.Equal(t, uint8(32), d.Elem.Size)

	_, err = MappingLayout(codec.MustType("uint256[]"), codec.MustType("uint256"))
	assert.ErrorIs(t, err, ErrUnsupportedShape)
}

func TestRegistryCaches(t *testing.T) {
	reg := NewRegistry()

	first, err := reg.Layout(codec.MustType("(uint8,uint256)"))
	require.NoError(t, err)
	second, err := reg.Layout(codec.MustType("(uint8,uint256)"))
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := reg.Layout(codec.MustType("(uint16,uint256)"))
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}

func TestFieldSlot(t *testing.T) {
	d, err := ComputeLayout(codec.MustType("(uint8,uint8,uint256)"))
	require.NoError(t, err)

	base := WordSlotAt(7)

	f0 := d.FieldSlot(base, d.Fields[0])
	assert.Equal(t, uint64(7), f0.Word.Uint64())
	assert.Equal(t, uint8(0), f0.Offset)
	assert.Equal(t, uint8(1), f0.Width)

	f1 := d.FieldSlot(base, d.Fields[1])
	assert.Equal(t, uint8(1), f1.Offset)

	f2 := d.FieldSlot(base, d.Fields[2])
	assert.Equal(t, uint64(8), f2.Word.Uint64())
	assert.Equal(t, uint8(32), f2.Width)
}
