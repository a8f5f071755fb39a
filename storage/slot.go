// Package storage maps typed values onto a flat, word-addressed
// persistent key space using Solidity's storage-layout rules, and
// caches host accessor traffic so each word is read and written at
// most once per call.
package storage

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Slot addresses a value's bytes within one persistent word: a 256-bit
// word index plus a byte range inside that word. Offset counts bytes
// from the low-order (rightmost) end of the word, matching Solidity's
// packing direction. Offset+Width never exceeds 32.
type Slot struct {
	Word   uint256.Int
	Offset uint8
	Width  uint8
}

// WordSlot addresses a full 32-byte word.
func WordSlot(word *uint256.Int) Slot {
	return Slot{Word: *word, Width: 32}
}

// WordSlotAt addresses the full word at a small fixed index, the usual
// case for a contract's root fields.
func WordSlotAt(index uint64) Slot {
	return Slot{Word: *uint256.NewInt(index), Width: 32}
}

// Key returns the 32-byte big-endian host accessor key for the slot's
// base word.
func (s Slot) Key() common.Hash {
	return s.Word.Bytes32()
}

// ByteRange returns the [lo, hi) index range the slot occupies within
// its word's 32-byte big-endian representation.
func (s Slot) ByteRange() (int, int) {
	hi := 32 - int(s.Offset)
	return hi - int(s.Width), hi
}

// DataBase returns the word index where a dynamic collection's
// elements begin: keccak256 of the base slot's 32-byte key. The hash
// gives each collection an effectively unbounded, collision-free
// region; the base word itself holds only a length (or nothing, for
// mappings).
func DataBase(base *uint256.Int) uint256.Int {
	key := base.Bytes32()
	var out uint256.Int
	out.SetBytes(crypto.Keccak256(key[:]))
	return out
}

// MappingSlot returns the full-word slot for a mapping entry:
// keccak256(key ++ base). The key must already be in its Solidity
// hashed form: a 32-byte left-padded word for value keys, raw bytes
// for bytes/string keys.
func MappingSlot(base *uint256.Int, key []byte) Slot {
	baseKey := base.Bytes32()
	var word uint256.Int
	word.SetBytes(crypto.Keccak256(key, baseKey[:]))
	return WordSlot(&word)
}

// MappingSlotWord is MappingSlot for a 32-byte value key.
func MappingSlotWord(base *uint256.Int, key common.Hash) Slot {
	return MappingSlot(base, key[:])
}

// ElementSlot returns the slot of element index within a collection
// whose data region starts at dataBase. Elements of width w pack
// 32/w per word from the low-order end; multi-word elements advance
// whole words.
func ElementSlot(dataBase *uint256.Int, index uint64, desc *TypeDescriptor) Slot {
	if desc.Words > 1 || desc.Size == 32 {
		var word uint256.Int
		word.Mul(uint256.NewInt(index), uint256.NewInt(desc.Words))
		word.Add(&word, dataBase)
		return Slot{Word: word, Width: 32}
	}

	density := uint64(32 / desc.Size)
	var word uint256.Int
	word.AddUint64(dataBase, index/density)
	return Slot{
		Word:   word,
		Offset: uint8(index % density * uint64(desc.Size)),
		Width:  desc.Size,
	}
}
