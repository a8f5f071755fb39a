package storage

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Bytes is a storage-backed byte string using Solidity's bytes/string
// layout. Short values (at most 31 bytes) share the base word with
// their length: data in the high-order bytes, length*2 in the lowest
// byte. Long values store length*2+1 in the base word and their data
// in full words starting at keccak256(base).
type Bytes struct {
	cache *Cache
	slot  uint256.Int

	dataBase *uint256.Int
}

// NewBytes binds a byte-string accessor to its base word.
func NewBytes(cache *Cache, base uint256.Int) *Bytes {
	return &Bytes{cache: cache, slot: base}
}

func (b *Bytes) base() *uint256.Int {
	if b.dataBase == nil {
		d := DataBase(&b.slot)
		b.dataBase = &d
	}
	return b.dataBase
}

func (b *Bytes) dataSlot(word uint64) Slot {
	var w uint256.Int
	w.AddUint64(b.base(), word)
	return WordSlot(&w)
}

// Len returns the stored byte length.
func (b *Bytes) Len() uint64 {
	word := b.cache.GetWord(WordSlot(&b.slot))
	if word[31]&1 == 0 {
		return uint64(word[31] / 2)
	}
	long := new(uint256.Int).SetBytes(word[:])
	return (long.Uint64() - 1) / 2
}

// Get returns a copy of the stored bytes.
func (b *Bytes) Get() []byte {
	word := b.cache.GetWord(WordSlot(&b.slot))
	if word[31]&1 == 0 {
		length := int(word[31] / 2)
		out := make([]byte, length)
		copy(out, word[:length])
		return out
	}

	length := (new(uint256.Int).SetBytes(word[:]).Uint64() - 1) / 2
	out := make([]byte, 0, length)
	for i := uint64(0); i*32 < length; i++ {
		chunk := b.cache.GetWord(b.dataSlot(i))
		remaining := length - i*32
		if remaining >= 32 {
			out = append(out, chunk[:]...)
		} else {
			out = append(out, chunk[:remaining]...)
		}
	}
	return out
}

// GetString returns the stored bytes as a string.
func (b *Bytes) GetString() string {
	return string(b.Get())
}

// Set replaces the stored bytes, clearing any long-form data words the
// previous value no longer covers.
func (b *Bytes) Set(value []byte) error {
	oldWords := b.dataWordCount()

	length := uint64(len(value))
	var newWords uint64
	if length <= 31 {
		var word common.Hash
		copy(word[:], value)
		word[31] = byte(length * 2)
		if err := b.cache.SetWord(WordSlot(&b.slot), word); err != nil {
			return err
		}
	} else {
		newWords = (length + 31) / 32
		lenWord := uint256.NewInt(length*2 + 1).Bytes32()
		if err := b.cache.SetWord(WordSlot(&b.slot), lenWord); err != nil {
			return err
		}
		for i := uint64(0); i < newWords; i++ {
			var chunk common.Hash
			copy(chunk[:], value[i*32:])
			if err := b.cache.SetWord(b.dataSlot(i), chunk); err != nil {
				return err
			}
		}
	}

	return b.clearData(newWords, oldWords)
}

// SetString replaces the stored bytes with a string's contents.
func (b *Bytes) SetString(value string) error {
	return b.Set([]byte(value))
}

// Clear erases the value and its data words from persistent storage.
func (b *Bytes) Clear() error {
	oldWords := b.dataWordCount()
	if err := b.cache.SetWord(WordSlot(&b.slot), common.Hash{}); err != nil {
		return err
	}
	return b.clearData(0, oldWords)
}

// dataWordCount returns the number of long-form data words currently
// in use, zero for short values.
func (b *Bytes) dataWordCount() uint64 {
	word := b.cache.GetWord(WordSlot(&b.slot))
	if word[31]&1 == 0 {
		return 0
	}
	length := (new(uint256.Int).SetBytes(word[:]).Uint64() - 1) / 2
	return (length + 31) / 32
}

func (b *Bytes) clearData(from, to uint64) error {
	for i := from; i < to; i++ {
		if err := b.cache.SetWord(b.dataSlot(i), common.Hash{}); err != nil {
			return err
		}
	}
	return nil
}
