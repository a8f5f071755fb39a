package codec

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions.
var (
	// ErrBufferTooShort indicates the payload is shorter than the head
	// required by the descriptor list.
	ErrBufferTooShort = errors.New("codec: buffer too short")

	// ErrBadOffset indicates a dynamic-value offset points outside the
	// payload.
	ErrBadOffset = errors.New("codec: offset out of range")

	// ErrLengthOutOfRange indicates a declared dynamic length exceeds
	// the remaining payload.
	ErrLengthOutOfRange = errors.New("codec: declared length exceeds buffer")

	// ErrValueOutOfRange indicates a decoded scalar does not fit its
	// declared type (dirty high bytes, bool other than 0/1).
	ErrValueOutOfRange = errors.New("codec: value out of range for type")

	// ErrArityMismatch indicates the value count does not match the
	// type count.
	ErrArityMismatch = errors.New("codec: value count does not match type count")
)

// TypeParseError indicates an invalid type or signature string.
type TypeParseError struct {
	Input  string
	Reason string
}

func (e *TypeParseError) Error() string {
	return fmt.Sprintf("codec: cannot parse %q: %s", e.Input, e.Reason)
}

// DecodeError indicates malformed, truncated, or out-of-range payload
// bytes. It wraps one of the sentinel errors above.
type DecodeError struct {
	Type string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("codec: decoding %s: %v", e.Type, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeError indicates a Go value that cannot be encoded as the
// requested ABI type.
type EncodeError struct {
	Type  string
	Value any
	Err   error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("codec: encoding %T as %s: %v", e.Value, e.Type, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}
