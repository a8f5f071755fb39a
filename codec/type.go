// Package codec implements the Ethereum contract ABI v2 binary format:
// type parsing, canonical signatures, 4-byte selectors, and the
// recursive head/tail encoding used for call data, return data, and
// revert payloads.
package codec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// Kind identifies the ABI type family.
type Kind uint8

const (
	// KindUint is an unsigned integer of 8..256 bits.
	KindUint Kind = iota

	// KindInt is a two's-complement signed integer of 8..256 bits.
	KindInt

	// KindBool is a boolean, encoded as uint8 restricted to 0 or 1.
	KindBool

	// KindAddress is a 20-byte account address.
	KindAddress

	// KindFixedBytes is a fixed byte sequence of 1..32 bytes (bytesN).
	KindFixedBytes

	// KindBytes is a dynamic byte sequence.
	KindBytes

	// KindString is a dynamic UTF-8 string.
	KindString

	// KindArray is a fixed-length array (T[N]).
	KindArray

	// KindSlice is a dynamic-length array (T[]).
	KindSlice

	// KindTuple is an ordered sequence of named components.
	KindTuple
)

// Field is a named tuple component.
type Field struct {
	Name string
	Type Type
}

// Type describes an ABI type. The zero value is not a valid type;
// construct types with ParseType or MustType.
type Type struct {
	Kind Kind

	// Bits is the width for KindUint/KindInt (8..256, multiple of 8).
	Bits int

	// Size is the byte length for KindFixedBytes (1..32).
	Size int

	// ArrayLen is the element count for KindArray.
	ArrayLen int

	// Elem is the element type for KindArray and KindSlice.
	Elem *Type

	// Fields are the components for KindTuple.
	Fields []Field
}

// ParseType parses a Solidity type string such as "uint256", "address",
// "bytes32", "uint8[3]", "string[]", or "(uint256,address)[]". Tuple
// components may be nested arbitrarily. Field names are not part of the
// syntax; tuples parsed from strings have unnamed fields.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Type{}, &TypeParseError{Input: s, Reason: "empty type"}
	}

	// Peel array suffixes from the right; the rightmost suffix is the
	// outermost type.
	base := s
	var suffixes []string
	for strings.HasSuffix(base, "]") {
		open := strings.LastIndex(base, "[")
		if open < 0 {
			return Type{}, &TypeParseError{Input: s, Reason: "unbalanced brackets"}
		}
		suffixes = append([]string{base[open:]}, suffixes...)
		base = base[:open]
	}

	t, err := parseBaseType(base)
	if err != nil {
		return Type{}, err
	}

	for _, suf := range suffixes {
		inner := t
		if suf == "[]" {
			t = Type{Kind: KindSlice, Elem: &inner}
			continue
		}
		n, convErr := strconv.Atoi(suf[1 : len(suf)-1])
		if convErr != nil || n <= 0 {
			return Type{}, &TypeParseError{Input: s, Reason: "bad array length " + suf}
		}
		t = Type{Kind: KindArray, ArrayLen: n, Elem: &inner}
	}
	return t, nil
}

// MustType is like ParseType but panics on error. Use only with
// compile-time constant type strings.
func MustType(s string) Type {
	t, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return t
}

func parseBaseType(s string) (Type, error) {
	switch {
	case s == "bool":
		return Type{Kind: KindBool}, nil
	case s == "address":
		return Type{Kind: KindAddress}, nil
	case s == "bytes":
		return Type{Kind: KindBytes}, nil
	case s == "string":
		return Type{Kind: KindString}, nil
	case s == "uint":
		return Type{Kind: KindUint, Bits: 256}, nil
	case s == "int":
		return Type{Kind: KindInt, Bits: 256}, nil
	case strings.HasPrefix(s, "uint"):
		bits, err := parseBits(s, s[4:])
		if err != nil {
			return Type{}, err
		}
		return Type{Kind: KindUint, Bits: bits}, nil
	case strings.HasPrefix(s, "int"):
		bits, err := parseBits(s, s[3:])
		if err != nil {
			return Type{}, err
		}
		return Type{Kind: KindInt, Bits: bits}, nil
	case strings.HasPrefix(s, "bytes"):
		n, err := strconv.Atoi(s[5:])
		if err != nil || n < 1 || n > 32 {
			return Type{}, &TypeParseError{Input: s, Reason: "bytesN requires N in 1..32"}
		}
		return Type{Kind: KindFixedBytes, Size: n}, nil
	case strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")"):
		return parseTuple(s)
	default:
		return Type{}, &TypeParseError{Input: s, Reason: "unknown type"}
	}
}

func parseBits(full, digits string) (int, error) {
	bits, err := strconv.Atoi(digits)
	if err != nil || bits < 8 || bits > 256 || bits%8 != 0 {
		return 0, &TypeParseError{Input: full, Reason: "integer width must be a multiple of 8 in 8..256"}
	}
	return bits, nil
}

func parseTuple(s string) (Type, error) {
	inner := s[1 : len(s)-1]
	var fields []Field
	if inner != "" {
		parts, err := splitComponents(inner)
		if err != nil {
			return Type{}, &TypeParseError{Input: s, Reason: err.Error()}
		}
		for _, part := range parts {
			ft, err := ParseType(part)
			if err != nil {
				return Type{}, err
			}
			fields = append(fields, Field{Type: ft})
		}
	}
	return Type{Kind: KindTuple, Fields: fields}, nil
}

// splitComponents splits a comma-separated component list, respecting
// nested parentheses.
func splitComponents(s string) ([]string, error) {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced parentheses")
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced parentheses")
	}
	parts = append(parts, s[start:])
	return parts, nil
}

// String returns the canonical type string, suitable for signature
// hashing.
func (t Type) String() string {
	switch t.Kind {
	case KindUint:
		return "uint" + strconv.Itoa(t.Bits)
	case KindInt:
		return "int" + strconv.Itoa(t.Bits)
	case KindBool:
		return "bool"
	case KindAddress:
		return "address"
	case KindFixedBytes:
		return "bytes" + strconv.Itoa(t.Size)
	case KindBytes:
		return "bytes"
	case KindString:
		return "string"
	case KindArray:
		return t.Elem.String() + "[" + strconv.Itoa(t.ArrayLen) + "]"
	case KindSlice:
		return t.Elem.String() + "[]"
	case KindTuple:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = f.Type.String()
		}
		return "(" + strings.Join(parts, ",") + ")"
	default:
		return "invalid"
	}
}

// IsDynamic reports whether the type uses the dynamic (offset-based)
// encoding: bytes, string, T[], fixed arrays of dynamic elements, and
// tuples with any dynamic field.
func (t Type) IsDynamic() bool {
	switch t.Kind {
	case KindBytes, KindString, KindSlice:
		return true
	case KindArray:
		return t.Elem.IsDynamic()
	case KindTuple:
		for _, f := range t.Fields {
			if f.Type.IsDynamic() {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// StaticSize returns the encoded byte length of a static type's head
// contribution. Dynamic types contribute a single 32-byte offset word
// instead; callers must check IsDynamic first.
func (t Type) StaticSize() int {
	switch t.Kind {
	case KindArray:
		return t.ArrayLen * t.Elem.StaticSize()
	case KindTuple:
		size := 0
		for _, f := range t.Fields {
			size += f.Type.StaticSize()
		}
		return size
	default:
		return WordSize
	}
}

// headSize returns the total head length for a sequence of types.
func headSize(types []Type) int {
	size := 0
	for _, t := range types {
		if t.IsDynamic() {
			size += WordSize
		} else {
			size += t.StaticSize()
		}
	}
	return size
}

// Signature builds the canonical function signature string for a name
// and input types, e.g. Signature("transfer", MustType("address"),
// MustType("uint256")) == "transfer(address,uint256)".
func Signature(name string, inputs ...Type) string {
	parts := make([]string, len(inputs))
	for i, t := range inputs {
		parts[i] = t.String()
	}
	return name + "(" + strings.Join(parts, ",") + ")"
}

// ParseSignature splits a canonical signature such as
// "transfer(address,uint256)" into its name and input types.
func ParseSignature(sig string) (string, []Type, error) {
	open := strings.Index(sig, "(")
	if open <= 0 || !strings.HasSuffix(sig, ")") {
		return "", nil, &TypeParseError{Input: sig, Reason: "signature must be name(type,...)"}
	}
	name := sig[:open]
	tuple, err := ParseType(sig[open:])
	if err != nil {
		return "", nil, err
	}
	types := make([]Type, len(tuple.Fields))
	for i, f := range tuple.Fields {
		types[i] = f.Type
	}
	return name, types, nil
}

// Selector returns the 4-byte function selector: the first four bytes
// of the Keccak-256 hash of the canonical signature.
func Selector(signature string) [4]byte {
	var sel [4]byte
	copy(sel[:], crypto.Keccak256([]byte(signature))[:4])
	return sel
}
