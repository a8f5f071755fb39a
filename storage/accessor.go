package storage

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ErrValueOverflow indicates a value too wide for its slot.
var ErrValueOverflow = errors.New("storage: value does not fit slot width")

// U256 is a storage-backed unsigned integer of up to 32 bytes,
// addressed by a slot whose width sets the integer's byte size.
type U256 struct {
	cache *Cache
	slot  Slot
}

// NewU256 binds an unsigned-integer accessor to a slot.
func NewU256(cache *Cache, slot Slot) U256 {
	return U256{cache: cache, slot: slot}
}

// Get reads the integer from persistent storage.
func (a U256) Get() *uint256.Int {
	return new(uint256.Int).SetBytes(a.cache.GetBytes(a.slot))
}

// Set writes the integer to persistent storage.
func (a U256) Set(value *uint256.Int) error {
	if uint8(value.ByteLen()) > a.slot.Width {
		return ErrValueOverflow
	}
	word := value.Bytes32()
	return a.cache.SetBytes(a.slot, word[32-a.slot.Width:])
}

// I256 is a storage-backed signed integer, stored two's-complement in
// the slot's width.
type I256 struct {
	cache *Cache
	slot  Slot
}

// NewI256 binds a signed-integer accessor to a slot.
func NewI256(cache *Cache, slot Slot) I256 {
	return I256{cache: cache, slot: slot}
}

// Get reads the integer from persistent storage. The slot's top bit
// carries the sign.
func (a I256) Get() *big.Int {
	b := a.cache.GetBytes(a.slot)
	n := new(big.Int).SetBytes(b)
	if b[0]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), uint(a.slot.Width)*8))
	}
	return n
}

// Set writes the integer to persistent storage. Values outside the
// slot's two's-complement range are rejected.
func (a I256) Set(value *big.Int) error {
	bits := uint(a.slot.Width) * 8
	half := new(big.Int).Lsh(big.NewInt(1), bits-1)
	if value.Cmp(half) >= 0 || value.Cmp(new(big.Int).Neg(half)) < 0 {
		return ErrValueOverflow
	}
	enc := value
	if value.Sign() < 0 {
		enc = new(big.Int).Add(new(big.Int).Lsh(big.NewInt(1), bits), value)
	}
	buf := make([]byte, a.slot.Width)
	enc.FillBytes(buf)
	return a.cache.SetBytes(a.slot, buf)
}

// U64 is a storage-backed uint64 packed into 8 bytes of its word.
type U64 struct {
	cache *Cache
	slot  Slot
}

// NewU64 binds a uint64 accessor to a slot; the slot width must be 8.
func NewU64(cache *Cache, slot Slot) U64 {
	return U64{cache: cache, slot: slot}
}

// Get reads the value from persistent storage.
func (a U64) Get() uint64 {
	return new(uint256.Int).SetBytes(a.cache.GetBytes(a.slot)).Uint64()
}

// Set writes the value to persistent storage.
func (a U64) Set(value uint64) error {
	word := uint256.NewInt(value).Bytes32()
	return a.cache.SetBytes(a.slot, word[32-a.slot.Width:])
}

// Bool is a storage-backed boolean occupying one byte.
type Bool struct {
	cache *Cache
	slot  Slot
}

// NewBool binds a boolean accessor to a slot of width 1.
func NewBool(cache *Cache, slot Slot) Bool {
	return Bool{cache: cache, slot: slot}
}

// Get reads the value from persistent storage. Any non-zero byte
// reads as true.
func (a Bool) Get() bool {
	return a.cache.GetBytes(a.slot)[0] != 0
}

// Set writes the value to persistent storage.
func (a Bool) Set(value bool) error {
	b := []byte{0}
	if value {
		b[0] = 1
	}
	return a.cache.SetBytes(a.slot, b)
}

// Address is a storage-backed 20-byte account address.
type Address struct {
	cache *Cache
	slot  Slot
}

// NewAddress binds an address accessor to a slot of width 20.
func NewAddress(cache *Cache, slot Slot) Address {
	return Address{cache: cache, slot: slot}
}

// Get reads the address from persistent storage.
func (a Address) Get() common.Address {
	return common.BytesToAddress(a.cache.GetBytes(a.slot))
}

// Set writes the address to persistent storage.
func (a Address) Set(value common.Address) error {
	return a.cache.SetBytes(a.slot, value[:])
}

// FixedBytes is a storage-backed byte sequence of the slot's width.
type FixedBytes struct {
	cache *Cache
	slot  Slot
}

// NewFixedBytes binds a fixed-bytes accessor to a slot.
func NewFixedBytes(cache *Cache, slot Slot) FixedBytes {
	return FixedBytes{cache: cache, slot: slot}
}

// Get reads the bytes from persistent storage.
func (a FixedBytes) Get() []byte {
	return a.cache.GetBytes(a.slot)
}

// Set writes the bytes to persistent storage; len(value) must equal
// the slot width.
func (a FixedBytes) Set(value []byte) error {
	return a.cache.SetBytes(a.slot, value)
}
