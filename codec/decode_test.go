package codec

import (
	"errors"
	"math/big"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

// Round trip: decode(encode(v)) == v for nested combinations of
// scalars, booleans, dynamic bytes, and arrays.
func TestRoundTrip(t *testing.T) {
	addr := common.HexToAddress("0x3333333333333333333333333333333333333333")

	tests := []struct {
		name   string
		types  []string
		values []any
	}{
		{
			"scalars",
			[]string{"uint256", "int256", "bool", "address"},
			[]any{big.NewInt(42), big.NewInt(-42), true, addr},
		},
		{
			"dynamic bytes and string",
			[]string{"bytes", "string"},
			[]any{[]byte{1, 2, 3, 4, 5}, "storage and codec"},
		},
		{
			"empty dynamic values",
			[]string{"bytes", "string", "uint256[]"},
			[]any{[]byte{}, "", []any{}},
		},
		{
			"array of scalars",
			[]string{"uint256[]", "uint8[3]"},
			[]any{
				[]any{big.NewInt(1), big.NewInt(2), big.NewInt(3)},
				[]any{big.NewInt(7), big.NewInt(8), big.NewInt(9)},
			},
		},
		{
			"nested dynamic arrays",
			[]string{"uint256[][]"},
			[]any{[]any{
				[]any{big.NewInt(1)},
				[]any{big.NewInt(2), big.NewInt(3)},
			}},
		},
		{
			"array of dynamic tuples",
			[]string{"(uint256,string)[]"},
			[]any{[]any{
				[]any{big.NewInt(1), "one"},
				[]any{big.NewInt(2), "two"},
			}},
		},
		{
			"static tuple",
			[]string{"(uint256,bool,address)"},
			[]any{[]any{big.NewInt(10), false, addr}},
		},
		{
			"fixed bytes",
			[]string{"bytes32", "bytes4"},
			[]any{make([]byte, 32), []byte{0xde, 0xad, 0xbe, 0xef}},
		},
		{
			"exact int bounds",
			[]string{"int8", "int8", "uint8"},
			[]any{big.NewInt(127), big.NewInt(-128), big.NewInt(255)},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			types := make([]Type, len(tc.types))
			for i, s := range tc.types {
				types[i] = MustType(s)
			}

			encoded, err := Encode(types, tc.values)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			decoded, err := Decode(types, encoded)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !reflect.DeepEqual(decoded, tc.values) {
				t.Errorf("round trip mismatch:\nexpected %#v\ngot      %#v", tc.values, decoded)
			}
		})
	}
}

func TestDecodeBounds(t *testing.T) {
	uintT := MustType("uint256")
	bytesT := MustType("bytes")
	sliceT := MustType("uint256[]")

	word := func(v uint64) []byte {
		return encodeUint64Word(v)
	}

	t.Run("buffer shorter than head", func(t *testing.T) {
		_, err := Decode([]Type{uintT, uintT}, make([]byte, 63))
		if !errors.Is(err, ErrBufferTooShort) {
			t.Errorf("expected ErrBufferTooShort, got %v", err)
		}
	})

	t.Run("offset past end", func(t *testing.T) {
		_, err := Decode([]Type{bytesT}, word(4096))
		if !errors.Is(err, ErrBadOffset) {
			t.Errorf("expected ErrBadOffset, got %v", err)
		}
	})

	t.Run("declared length exceeds buffer", func(t *testing.T) {
		// Offset 0x20, then a length word claiming 1000 bytes with no
		// content behind it.
		data := append(word(32), word(1000)...)
		_, err := Decode([]Type{bytesT}, data)
		if !errors.Is(err, ErrLengthOutOfRange) {
			t.Errorf("expected ErrLengthOutOfRange, got %v", err)
		}
	})

	t.Run("slice length claims missing elements", func(t *testing.T) {
		data := append(word(32), word(3)...) // 3 elements, none present
		_, err := Decode([]Type{sliceT}, data)
		if !errors.Is(err, ErrBufferTooShort) {
			t.Errorf("expected ErrBufferTooShort, got %v", err)
		}
	})

	t.Run("huge slice length word", func(t *testing.T) {
		// A length of 2^61 passes the index-word cap; it must be
		// rejected against the payload size, not allocated.
		data := append(word(32), word(1<<61)...)
		_, err := Decode([]Type{sliceT}, data)
		if !errors.Is(err, ErrBufferTooShort) {
			t.Errorf("expected ErrBufferTooShort, got %v", err)
		}
	})

	t.Run("huge inner slice length word", func(t *testing.T) {
		// The same attack one level down, through uint256[][]: outer
		// offset and length, inner offset, then the oversized inner
		// length.
		var data []byte
		for _, v := range []uint64{32, 1, 32, 1 << 61} {
			data = append(data, word(v)...)
		}
		_, err := Decode([]Type{MustType("uint256[][]")}, data)
		if !errors.Is(err, ErrBufferTooShort) {
			t.Errorf("expected ErrBufferTooShort, got %v", err)
		}
	})

	t.Run("giant offset word", func(t *testing.T) {
		data := make([]byte, 32)
		for i := range data {
			data[i] = 0xff
		}
		_, err := Decode([]Type{bytesT}, data)
		if !errors.Is(err, ErrBadOffset) {
			t.Errorf("expected ErrBadOffset, got %v", err)
		}
	})

	t.Run("truncated tail for string", func(t *testing.T) {
		// Offset points at the last word; no length word follows.
		_, err := Decode([]Type{MustType("string")}, word(32))
		if !errors.Is(err, ErrBufferTooShort) {
			t.Errorf("expected ErrBufferTooShort, got %v", err)
		}
	})
}

func TestDecodeCanonicality(t *testing.T) {
	t.Run("bool out of range", func(t *testing.T) {
		data := encodeUint64Word(2)
		_, err := Decode([]Type{MustType("bool")}, data)
		if !errors.Is(err, ErrValueOutOfRange) {
			t.Errorf("expected ErrValueOutOfRange, got %v", err)
		}
	})

	t.Run("dirty high bytes on uint8", func(t *testing.T) {
		data := encodeUint64Word(256)
		_, err := Decode([]Type{MustType("uint8")}, data)
		if !errors.Is(err, ErrValueOutOfRange) {
			t.Errorf("expected ErrValueOutOfRange, got %v", err)
		}
	})

	t.Run("dirty high bytes on address", func(t *testing.T) {
		data := make([]byte, 32)
		data[0] = 1
		_, err := Decode([]Type{MustType("address")}, data)
		if !errors.Is(err, ErrValueOutOfRange) {
			t.Errorf("expected ErrValueOutOfRange, got %v", err)
		}
	})

	t.Run("non-canonical int8 sign extension", func(t *testing.T) {
		// 0x...00ff would be 255, outside int8's range.
		data := encodeUint64Word(255)
		_, err := Decode([]Type{MustType("int8")}, data)
		if !errors.Is(err, ErrValueOutOfRange) {
			t.Errorf("expected ErrValueOutOfRange, got %v", err)
		}
	})

	t.Run("dirty padding on bytes4", func(t *testing.T) {
		data := make([]byte, 32)
		data[4] = 1
		_, err := Decode([]Type{MustType("bytes4")}, data)
		if !errors.Is(err, ErrValueOutOfRange) {
			t.Errorf("expected ErrValueOutOfRange, got %v", err)
		}
	})

	t.Run("decode errors carry the type", func(t *testing.T) {
		_, err := Decode([]Type{MustType("bool")}, encodeUint64Word(2))
		var decErr *DecodeError
		if !errors.As(err, &decErr) {
			t.Fatalf("expected *DecodeError, got %T", err)
		}
		if decErr.Type != "bool" {
			t.Errorf("expected type bool, got %q", decErr.Type)
		}
	})
}
