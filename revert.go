package contractkit

import (
	"math/big"

	"github.com/branched-services/go-contractkit/codec"
)

// Standard panic codes, matching the Solidity 0.8 Panic(uint256)
// convention.
const (
	// PanicAssert is a failed assertion.
	PanicAssert = 0x01

	// PanicArithmetic is an arithmetic overflow or underflow.
	PanicArithmetic = 0x11

	// PanicDivisionByZero is a division or modulo by zero.
	PanicDivisionByZero = 0x12

	// PanicEnumConversion is a conversion into an invalid enum value.
	PanicEnumConversion = 0x21

	// PanicStorageEncoding is an incorrectly encoded storage byte array.
	PanicStorageEncoding = 0x22

	// PanicEmptyPop is a pop on an empty array.
	PanicEmptyPop = 0x31

	// PanicOutOfBounds is an out-of-bounds array or slice access.
	PanicOutOfBounds = 0x32

	// PanicAllocation is an oversized memory allocation.
	PanicAllocation = 0x41

	// PanicZeroFunction is a call through a zero-initialized function
	// pointer.
	PanicZeroFunction = 0x51
)

var (
	// errorSelector is Selector("Error(string)") = 0x08c379a0.
	errorSelector = codec.Selector("Error(string)")

	// panicSelector is Selector("Panic(uint256)") = 0x4e487b71.
	panicSelector = codec.Selector("Panic(uint256)")

	stringType  = codec.MustType("string")
	uint256Type = codec.MustType("uint256")
)

// EncodeError builds the standard revert payload for a string reason:
// the Error(string) selector followed by the ABI encoding of the
// message.
func EncodeError(message string) []byte {
	payload, err := codec.EncodeWithSelector(errorSelector, []codec.Type{stringType}, []any{message})
	if err != nil {
		// A string always encodes.
		panic(err)
	}
	return payload
}

// EncodePanic builds the standard payload for an internal invariant
// violation: the Panic(uint256) selector followed by the code.
func EncodePanic(code uint64) []byte {
	payload, err := codec.EncodeWithSelector(panicSelector, []codec.Type{uint256Type}, []any{new(big.Int).SetUint64(code)})
	if err != nil {
		panic(err)
	}
	return payload
}

// EncodeCustomError builds a revert payload for a custom error: the
// selector of the canonical signature followed by the head/tail
// encoding of its arguments.
func EncodeCustomError(signature string, args ...any) ([]byte, error) {
	_, types, err := codec.ParseSignature(signature)
	if err != nil {
		return nil, err
	}
	return codec.EncodeWithSelector(codec.Selector(signature), types, args)
}

// DecodeRevert extracts the reason string from an Error(string)
// payload. The second return is false for payloads of any other shape
// (custom errors, panics, empty reverts).
func DecodeRevert(payload []byte) (string, bool) {
	if len(payload) < 4 || [4]byte(payload[:4]) != errorSelector {
		return "", false
	}
	values, err := codec.Decode([]codec.Type{stringType}, payload[4:])
	if err != nil {
		return "", false
	}
	reason, ok := values[0].(string)
	return reason, ok
}

// DecodePanic extracts the code from a Panic(uint256) payload.
func DecodePanic(payload []byte) (uint64, bool) {
	if len(payload) < 4 || [4]byte(payload[:4]) != panicSelector {
		return 0, false
	}
	values, err := codec.Decode([]codec.Type{uint256Type}, payload[4:])
	if err != nil {
		return 0, false
	}
	code, ok := values[0].(*big.Int)
	if !ok || !code.IsUint64() {
		return 0, false
	}
	return code.Uint64(), true
}
