package storage

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Map is a storage-backed mapping. The base word stores nothing;
// every entry lives at keccak256(key ++ base), giving the mapping an
// unbounded, collision-free region per key.
type Map struct {
	cache *Cache
	slot  uint256.Int
	value *TypeDescriptor
}

// NewMap binds a mapping accessor to its base word.
func NewMap(cache *Cache, base uint256.Int, value *TypeDescriptor) *Map {
	return &Map{cache: cache, slot: base, value: value}
}

// entrySlot narrows a full-word entry slot to the value's packed
// width. Mapping entries are never packed together, but small values
// still occupy only the low-order bytes of their word.
func (m *Map) entrySlot(full Slot) Slot {
	if m.value.Kind == DescPrimitive && m.value.Size < 32 {
		full.Width = m.value.Size
	}
	return full
}

// SlotForWord returns the value slot for a 32-byte value key (uintN,
// bytesN, bool, and address keys, left-padded to a word).
func (m *Map) SlotForWord(key common.Hash) Slot {
	return m.entrySlot(MappingSlotWord(&m.slot, key))
}

// SlotForUint returns the value slot for an integer key.
func (m *Map) SlotForUint(key *uint256.Int) Slot {
	return m.SlotForWord(key.Bytes32())
}

// SlotForAddress returns the value slot for an address key.
func (m *Map) SlotForAddress(key common.Address) Slot {
	return m.SlotForWord(common.BytesToHash(key[:]))
}

// SlotForBytes returns the value slot for a bytes/string key, which
// Solidity hashes raw rather than padded.
func (m *Map) SlotForBytes(key []byte) Slot {
	return m.entrySlot(MappingSlot(&m.slot, key))
}

// EntryWord returns the full base word index for a key's value,
// for opening nested collections (mapping to struct, mapping to
// mapping, mapping to vec) on top of it.
func (m *Map) EntryWord(key common.Hash) uint256.Int {
	return MappingSlotWord(&m.slot, key).Word
}

// Get returns a copy of the value's packed bytes for the key.
func (m *Map) Get(key common.Hash) []byte {
	return m.cache.GetBytes(m.SlotForWord(key))
}

// Set overwrites the value's packed bytes for the key.
func (m *Map) Set(key common.Hash, value []byte) error {
	return m.cache.SetBytes(m.SlotForWord(key), value)
}

// Nested opens the mapping stored as this mapping's value under key.
// The value descriptor must itself be a mapping.
func (m *Map) Nested(key common.Hash) *Map {
	return NewMap(m.cache, m.EntryWord(key), m.value.Elem)
}

// NestedVec opens the dynamic array stored as this mapping's value
// under key. The value descriptor must be a dynamic array.
func (m *Map) NestedVec(key common.Hash) *Vec {
	return NewVec(m.cache, m.EntryWord(key), m.value.Elem)
}
