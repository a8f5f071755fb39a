package storage

import (
	"errors"

	"github.com/holiman/uint256"
)

// ErrIndexOutOfRange indicates a collection access past the current
// length.
var ErrIndexOutOfRange = errors.New("storage: index out of range")

// Vec is a storage-backed dynamic array. The base word holds only the
// length; elements live in the unbounded region starting at
// keccak256(base), packed by density when the element width allows.
type Vec struct {
	cache *Cache
	slot  uint256.Int
	elem  *TypeDescriptor

	// dataBase caches the keccak of the base slot.
	dataBase *uint256.Int
}

// NewVec binds a dynamic-array accessor to its base word.
func NewVec(cache *Cache, base uint256.Int, elem *TypeDescriptor) *Vec {
	return &Vec{cache: cache, slot: base, elem: elem}
}

// Len returns the number of elements stored.
func (v *Vec) Len() uint64 {
	word := v.cache.GetWord(WordSlot(&v.slot))
	return new(uint256.Int).SetBytes(word[:]).Uint64()
}

// IsEmpty reports whether the collection contains no elements.
func (v *Vec) IsEmpty() bool {
	return v.Len() == 0
}

func (v *Vec) setLen(length uint64) error {
	return v.cache.SetWord(WordSlot(&v.slot), uint256.NewInt(length).Bytes32())
}

// base returns the start of the element region, computed once.
func (v *Vec) base() *uint256.Int {
	if v.dataBase == nil {
		b := DataBase(&v.slot)
		v.dataBase = &b
	}
	return v.dataBase
}

// Slot returns the element's slot, if the index is in range.
func (v *Vec) Slot(index uint64) (Slot, error) {
	if index >= v.Len() {
		return Slot{}, ErrIndexOutOfRange
	}
	return ElementSlot(v.base(), index, v.elem), nil
}

// Get returns a copy of the element's packed bytes.
func (v *Vec) Get(index uint64) ([]byte, error) {
	slot, err := v.Slot(index)
	if err != nil {
		return nil, err
	}
	return v.cache.GetBytes(slot), nil
}

// Set overwrites the element's packed bytes.
func (v *Vec) Set(index uint64, value []byte) error {
	slot, err := v.Slot(index)
	if err != nil {
		return err
	}
	return v.cache.SetBytes(slot, value)
}

// Push grows the array by one zeroed element and returns its slot, so
// callers can fill it in place without constructing it first.
func (v *Vec) Push() (Slot, error) {
	index := v.Len()
	if err := v.setLen(index + 1); err != nil {
		return Slot{}, err
	}
	return ElementSlot(v.base(), index, v.elem), nil
}

// Pop removes the last element, returning its packed bytes. The
// element's storage is not cleared; later pushes overwrite it.
func (v *Vec) Pop() ([]byte, bool, error) {
	length := v.Len()
	if length == 0 {
		return nil, false, nil
	}
	slot := ElementSlot(v.base(), length-1, v.elem)
	value := v.cache.GetBytes(slot)
	if err := v.setLen(length - 1); err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Truncate shortens the array, keeping the first length elements.
// Underlying storage is not cleared.
func (v *Vec) Truncate(length uint64) error {
	if length >= v.Len() {
		return nil
	}
	return v.setLen(length)
}

// ElementWord exposes the full base word of a multi-word element so
// nested collections (vectors of structs, vectors of vectors) can be
// opened on top of it.
func (v *Vec) ElementWord(index uint64) (uint256.Int, error) {
	slot, err := v.Slot(index)
	if err != nil {
		return uint256.Int{}, err
	}
	return slot.Word, nil
}
