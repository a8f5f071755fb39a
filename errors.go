package contractkit

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions.
var (
	// ErrUnknownSelector indicates calldata whose selector matches no
	// registered handler and no fallback.
	ErrUnknownSelector = errors.New("contractkit: unknown function selector")

	// ErrDuplicateSelector indicates a registration whose selector is
	// already taken. Duplicate registrations are a configuration error,
	// never a silent overwrite.
	ErrDuplicateSelector = errors.New("contractkit: selector already registered")

	// ErrArityMismatch indicates a handler returned a different number
	// of values than its registered output types.
	ErrArityMismatch = errors.New("contractkit: result count does not match output types")
)

// RegistrationError wraps errors that occur while populating the
// dispatch table.
type RegistrationError struct {
	Signature string
	Err       error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("contractkit: registering %q: %v", e.Signature, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// RevertError is a domain-level failure requested by handler logic.
// Its payload, already ABI-encoded, is returned to the caller as-is.
type RevertError struct {
	Payload []byte
	Reason  string
}

func (e *RevertError) Error() string {
	if e.Reason != "" {
		return "contractkit: execution reverted: " + e.Reason
	}
	return "contractkit: execution reverted"
}

// Revert builds a RevertError carrying the standard Error(string)
// payload for a message. Handlers return it to abort with a reason.
func Revert(reason string) *RevertError {
	return &RevertError{Payload: EncodeError(reason), Reason: reason}
}

// RevertWith builds a RevertError carrying a custom error payload.
// The signature is canonical, e.g. "InsufficientBalance(address,uint256)".
func RevertWith(signature string, args ...any) (*RevertError, error) {
	payload, err := EncodeCustomError(signature, args...)
	if err != nil {
		return nil, err
	}
	return &RevertError{Payload: payload, Reason: signature}, nil
}

// PanicError is an internal invariant violation (overflow, bounds),
// reported with one of the standard panic codes.
type PanicError struct {
	Code uint64
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("contractkit: panic 0x%02x", e.Code)
}
