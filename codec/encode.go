package codec

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// WordSize is the ABI word length in bytes. Every head entry and every
// length prefix occupies exactly one word.
const WordSize = 32

// Encode serializes values according to the given types using the ABI
// v2 head/tail scheme. Static values are placed directly in the head;
// dynamic values contribute an offset word to the head and append their
// content to the tail, processed in argument order.
//
// Go value mapping:
//   - uintN/intN: *big.Int (int, int64, uint64, uint32, int32 are
//     converted)
//   - bool: bool
//   - address: common.Address
//   - bytesN: []byte of length N (common.Hash for bytes32)
//   - bytes: []byte
//   - string: string
//   - T[N], T[], tuples: []any
func Encode(types []Type, values []any) ([]byte, error) {
	if len(values) != len(types) {
		return nil, &EncodeError{Type: "argument list", Value: values, Err: ErrArityMismatch}
	}
	return encodeSequence(types, values)
}

// EncodeWithSelector prepends a 4-byte selector to the encoding of
// values, producing complete calldata or a revert payload.
func EncodeWithSelector(selector [4]byte, types []Type, values []any) ([]byte, error) {
	body, err := Encode(types, values)
	if err != nil {
		return nil, err
	}
	return append(selector[:], body...), nil
}

// encodeSequence lays out a head/tail block for a sequence of typed
// values. Offsets in the head are relative to the start of the block.
func encodeSequence(types []Type, values []any) ([]byte, error) {
	head := make([]byte, 0, headSize(types))
	var tail []byte
	tailBase := headSize(types)

	for i, t := range types {
		if t.IsDynamic() {
			head = append(head, encodeUint64Word(uint64(tailBase+len(tail)))...)
			enc, err := encodeValue(t, values[i])
			if err != nil {
				return nil, err
			}
			tail = append(tail, enc...)
			continue
		}
		enc, err := encodeValue(t, values[i])
		if err != nil {
			return nil, err
		}
		head = append(head, enc...)
	}
	return append(head, tail...), nil
}

// encodeValue serializes a single value. For dynamic types the result
// is the tail content (length prefix plus data, or a nested head/tail
// block); for static types it is the inline head content.
func encodeValue(t Type, value any) ([]byte, error) {
	switch t.Kind {
	case KindUint:
		return encodeBigInt(t, value, false)
	case KindInt:
		return encodeBigInt(t, value, true)
	case KindBool:
		b, ok := value.(bool)
		if !ok {
			return nil, typeError(t, value)
		}
		word := make([]byte, WordSize)
		if b {
			word[WordSize-1] = 1
		}
		return word, nil
	case KindAddress:
		addr, ok := value.(common.Address)
		if !ok {
			return nil, typeError(t, value)
		}
		word := make([]byte, WordSize)
		copy(word[WordSize-common.AddressLength:], addr[:])
		return word, nil
	case KindFixedBytes:
		return encodeFixedBytes(t, value)
	case KindBytes:
		b, ok := value.([]byte)
		if !ok {
			return nil, typeError(t, value)
		}
		return encodePadded(b), nil
	case KindString:
		s, ok := value.(string)
		if !ok {
			return nil, typeError(t, value)
		}
		return encodePadded([]byte(s)), nil
	case KindSlice:
		elems, ok := value.([]any)
		if !ok {
			return nil, typeError(t, value)
		}
		body, err := encodeElements(*t.Elem, elems)
		if err != nil {
			return nil, err
		}
		return append(encodeUint64Word(uint64(len(elems))), body...), nil
	case KindArray:
		elems, ok := value.([]any)
		if !ok {
			return nil, typeError(t, value)
		}
		if len(elems) != t.ArrayLen {
			return nil, &EncodeError{Type: t.String(), Value: value, Err: ErrArityMismatch}
		}
		return encodeElements(*t.Elem, elems)
	case KindTuple:
		fields, ok := value.([]any)
		if !ok {
			return nil, typeError(t, value)
		}
		types := make([]Type, len(t.Fields))
		for i, f := range t.Fields {
			types[i] = f.Type
		}
		if len(fields) != len(types) {
			return nil, &EncodeError{Type: t.String(), Value: value, Err: ErrArityMismatch}
		}
		return encodeSequence(types, fields)
	default:
		return nil, typeError(t, value)
	}
}

// encodeElements encodes a homogeneous element list as its own
// head/tail block (used for both fixed arrays and slice bodies).
func encodeElements(elem Type, elems []any) ([]byte, error) {
	types := make([]Type, len(elems))
	for i := range types {
		types[i] = elem
	}
	return encodeSequence(types, elems)
}

func encodeFixedBytes(t Type, value any) ([]byte, error) {
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case common.Hash:
		b = v[:]
	default:
		return nil, typeError(t, value)
	}
	if len(b) != t.Size {
		return nil, &EncodeError{Type: t.String(), Value: value, Err: ErrValueOutOfRange}
	}
	word := make([]byte, WordSize)
	copy(word, b)
	return word, nil
}

var maxWord = new(big.Int).Lsh(big.NewInt(1), 256)

func encodeBigInt(t Type, value any, signed bool) ([]byte, error) {
	n, ok := toBigInt(value)
	if !ok {
		return nil, typeError(t, value)
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Bits))
	if signed {
		// Two's-complement range check: -2^(bits-1) <= n < 2^(bits-1).
		half := new(big.Int).Rsh(limit, 1)
		if n.Cmp(half) >= 0 || n.Cmp(new(big.Int).Neg(half)) < 0 {
			return nil, &EncodeError{Type: t.String(), Value: value, Err: ErrValueOutOfRange}
		}
	} else {
		if n.Sign() < 0 || n.Cmp(limit) >= 0 {
			return nil, &EncodeError{Type: t.String(), Value: value, Err: ErrValueOutOfRange}
		}
	}

	enc := n
	if n.Sign() < 0 {
		enc = new(big.Int).Add(maxWord, n)
	}
	word := make([]byte, WordSize)
	enc.FillBytes(word)
	return word, nil
}

// toBigInt converts common Go integer representations to *big.Int,
// mirroring the conversions callers expect when passing literals.
func toBigInt(value any) (*big.Int, bool) {
	switch v := value.(type) {
	case *big.Int:
		return v, true
	case int:
		return big.NewInt(int64(v)), true
	case int32:
		return big.NewInt(int64(v)), true
	case int64:
		return big.NewInt(v), true
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint64:
		return new(big.Int).SetUint64(v), true
	default:
		return nil, false
	}
}

// encodePadded emits a length word followed by data padded up to a
// word boundary.
func encodePadded(data []byte) []byte {
	out := encodeUint64Word(uint64(len(data)))
	out = append(out, data...)
	if rem := len(data) % WordSize; rem != 0 {
		out = append(out, make([]byte, WordSize-rem)...)
	}
	return out
}

func encodeUint64Word(v uint64) []byte {
	word := make([]byte, WordSize)
	new(big.Int).SetUint64(v).FillBytes(word)
	return word
}

func typeError(t Type, value any) error {
	return &EncodeError{Type: t.String(), Value: value, Err: errors.New("unsupported Go representation")}
}
