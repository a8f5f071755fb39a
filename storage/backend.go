package storage

import "github.com/ethereum/go-ethereum/common"

// Backend is the host storage accessor: the only persistence boundary.
// It is owned and provided by the host runtime; the cache is its sole
// in-process client.
type Backend interface {
	// Load reads the 32-byte word at the given key. Absent words read
	// as zero.
	Load(key common.Hash) common.Hash

	// Store writes the 32-byte word at the given key.
	Store(key common.Hash, value common.Hash)
}

// MemBackend is an in-memory Backend for tests, examples, and hosts
// without a real state database. It counts accessor operations so
// callers can verify the cache's minimal-I/O guarantee.
type MemBackend struct {
	words map[common.Hash]common.Hash

	// Loads and Stores count accessor invocations, not distinct keys.
	Loads  int
	Stores int
}

// NewMemBackend creates an empty in-memory backend.
func NewMemBackend() *MemBackend {
	return &MemBackend{words: make(map[common.Hash]common.Hash)}
}

// Load implements Backend.
func (b *MemBackend) Load(key common.Hash) common.Hash {
	b.Loads++
	return b.words[key]
}

// Store implements Backend.
func (b *MemBackend) Store(key common.Hash, value common.Hash) {
	b.Stores++
	if value == (common.Hash{}) {
		delete(b.words, key)
		return
	}
	b.words[key] = value
}

// Len returns the number of non-zero words held.
func (b *MemBackend) Len() int {
	return len(b.words)
}

// ResetCounters clears the Loads/Stores counters without touching data.
func (b *MemBackend) ResetCounters() {
	b.Loads, b.Stores = 0, 0
}
