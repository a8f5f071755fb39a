package codec

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Decode deserializes an ABI-encoded payload according to the given
// types. It is the left inverse of Encode for all well-formed inputs.
// Offsets and declared lengths are bounds-checked against the payload;
// a violation yields a DecodeError, never an out-of-range read.
func Decode(types []Type, data []byte) ([]any, error) {
	return decodeSequence(types, data)
}

// decodeSequence reads a head/tail block. Offsets in the head are
// interpreted relative to the start of data.
func decodeSequence(types []Type, data []byte) ([]any, error) {
	if headSize(types) > len(data) {
		return nil, &DecodeError{Type: "argument list", Err: ErrBufferTooShort}
	}

	values := make([]any, len(types))
	pos := 0
	for i, t := range types {
		if t.IsDynamic() {
			offset, err := decodeIndexWord(t, data[pos:pos+WordSize])
			if err != nil {
				return nil, err
			}
			if offset > len(data) {
				return nil, &DecodeError{Type: t.String(), Err: ErrBadOffset}
			}
			v, err := decodeDynamic(t, data[offset:])
			if err != nil {
				return nil, err
			}
			values[i] = v
			pos += WordSize
			continue
		}

		size := t.StaticSize()
		v, err := decodeStatic(t, data[pos:pos+size])
		if err != nil {
			return nil, err
		}
		values[i] = v
		pos += size
	}
	return values, nil
}

// decodeDynamic reads a dynamic value from the start of region, which
// is the payload suffix beginning at the value's offset.
func decodeDynamic(t Type, region []byte) (any, error) {
	switch t.Kind {
	case KindBytes, KindString:
		if len(region) < WordSize {
			return nil, &DecodeError{Type: t.String(), Err: ErrBufferTooShort}
		}
		length, err := decodeIndexWord(t, region[:WordSize])
		if err != nil {
			return nil, err
		}
		if length > len(region)-WordSize {
			return nil, &DecodeError{Type: t.String(), Err: ErrLengthOutOfRange}
		}
		content := make([]byte, length)
		copy(content, region[WordSize:WordSize+length])
		if t.Kind == KindString {
			return string(content), nil
		}
		return content, nil

	case KindSlice:
		if len(region) < WordSize {
			return nil, &DecodeError{Type: t.String(), Err: ErrBufferTooShort}
		}
		length, err := decodeIndexWord(t, region[:WordSize])
		if err != nil {
			return nil, err
		}
		return decodeElements(t, length, region[WordSize:])

	case KindArray:
		return decodeElements(t, t.ArrayLen, region)

	case KindTuple:
		types := make([]Type, len(t.Fields))
		for i, f := range t.Fields {
			types[i] = f.Type
		}
		return decodeSequence(types, region)

	default:
		return nil, &DecodeError{Type: t.String(), Err: ErrValueOutOfRange}
	}
}

// decodeElements reads count elements laid out as their own head/tail
// block starting at region. Every element contributes at least one
// head word, so a count the region cannot hold is rejected before any
// allocation sized by it.
func decodeElements(t Type, count int, region []byte) ([]any, error) {
	if count > len(region)/WordSize {
		return nil, &DecodeError{Type: t.String(), Err: ErrBufferTooShort}
	}
	types := make([]Type, count)
	for i := range types {
		types[i] = *t.Elem
	}
	return decodeSequence(types, region)
}

// decodeStatic reads a static value from its exact head region.
func decodeStatic(t Type, region []byte) (any, error) {
	switch t.Kind {
	case KindUint:
		pad := WordSize - t.Bits/8
		if !allZero(region[:pad]) {
			return nil, &DecodeError{Type: t.String(), Err: ErrValueOutOfRange}
		}
		return new(big.Int).SetBytes(region), nil

	case KindInt:
		return decodeSigned(t, region)

	case KindBool:
		if !allZero(region[:WordSize-1]) || region[WordSize-1] > 1 {
			return nil, &DecodeError{Type: t.String(), Err: ErrValueOutOfRange}
		}
		return region[WordSize-1] == 1, nil

	case KindAddress:
		if !allZero(region[:WordSize-common.AddressLength]) {
			return nil, &DecodeError{Type: t.String(), Err: ErrValueOutOfRange}
		}
		return common.BytesToAddress(region), nil

	case KindFixedBytes:
		if !allZero(region[t.Size:]) {
			return nil, &DecodeError{Type: t.String(), Err: ErrValueOutOfRange}
		}
		content := make([]byte, t.Size)
		copy(content, region[:t.Size])
		return content, nil

	case KindArray:
		return decodeElements(t, t.ArrayLen, region)

	case KindTuple:
		types := make([]Type, len(t.Fields))
		for i, f := range t.Fields {
			types[i] = f.Type
		}
		return decodeSequence(types, region)

	default:
		return nil, &DecodeError{Type: t.String(), Err: ErrValueOutOfRange}
	}
}

// decodeSigned interprets a word as a two's-complement intN, requiring
// canonical sign extension of the upper bytes.
func decodeSigned(t Type, region []byte) (*big.Int, error) {
	n := new(big.Int).SetBytes(region)
	if region[0]&0x80 != 0 {
		n.Sub(n, maxWord)
	}
	half := new(big.Int).Lsh(big.NewInt(1), uint(t.Bits-1))
	if n.Cmp(half) >= 0 || n.Cmp(new(big.Int).Neg(half)) < 0 {
		return nil, &DecodeError{Type: t.String(), Err: ErrValueOutOfRange}
	}
	return n, nil
}

// decodeIndexWord reads a word used as an offset or length. The value
// must fit in a non-negative int; anything larger cannot address a
// real payload.
func decodeIndexWord(t Type, word []byte) (int, error) {
	if !allZero(word[:WordSize-8]) {
		return 0, &DecodeError{Type: t.String(), Err: ErrBadOffset}
	}
	v := new(big.Int).SetBytes(word[WordSize-8:]).Uint64()
	if v > uint64(1)<<62 {
		return 0, &DecodeError{Type: t.String(), Err: ErrBadOffset}
	}
	return int(v), nil
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
