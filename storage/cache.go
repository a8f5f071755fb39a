package storage

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Sentinel errors for cache misuse.
var (
	// ErrMutationViolation indicates a write attempted while the cache
	// is in read-only (static) mode.
	ErrMutationViolation = errors.New("storage: mutation attempted in read-only context")

	// ErrBadCheckpoint indicates a commit or revert token that does not
	// match the innermost open checkpoint.
	ErrBadCheckpoint = errors.New("storage: checkpoint token does not match innermost frame")

	// ErrBadWidth indicates a sub-word access whose byte count does not
	// match the slot's declared width.
	ErrBadWidth = errors.New("storage: value width does not match slot width")
)

// cell is the cached state of one base word. original holds the
// backend's value when loaded is true; dirty marks the cell for the
// next flush.
type cell struct {
	original common.Hash
	current  common.Hash
	loaded   bool
	dirty    bool
}

// undoEntry snapshots a cell (or its absence) at the moment a
// checkpoint first touches it.
type undoEntry struct {
	existed bool
	prev    cell
}

// frame is one open checkpoint: the set of cells it has modified,
// keyed by word, each with its snapshot-at-first-touch.
type frame struct {
	undo map[common.Hash]undoEntry
}

// Cache is a per-call-context word cache over a host Backend. It
// guarantees each distinct base word is read from the host at most
// once and written at most once per top-level call, and provides
// nested checkpoint/rollback over all mutations.
//
// A Cache belongs to exactly one call tree and is not safe for
// concurrent use; execution per invocation is single-threaded.
type Cache struct {
	backend  Backend
	cells    map[common.Hash]*cell
	frames   []*frame
	readOnly bool
}

// NewCache creates a cache over the given host accessor.
func NewCache(backend Backend) *Cache {
	return &Cache{
		backend: backend,
		cells:   make(map[common.Hash]*cell),
	}
}

// SetReadOnly toggles static mode. While set, every mutation fails
// with ErrMutationViolation and leaves the cache unchanged.
func (c *Cache) SetReadOnly(readOnly bool) {
	c.readOnly = readOnly
}

// ReadOnly reports whether the cache is in static mode.
func (c *Cache) ReadOnly() bool {
	return c.readOnly
}

// ensure returns the cell for a word, loading it from the backend on
// first touch.
func (c *Cache) ensure(key common.Hash) *cell {
	if cl, ok := c.cells[key]; ok {
		return cl
	}
	value := c.backend.Load(key)
	cl := &cell{original: value, current: value, loaded: true}
	c.cells[key] = cl
	return cl
}

// snapshot records a cell's state in the innermost checkpoint before
// its first mutation inside that checkpoint.
func (c *Cache) snapshot(key common.Hash) {
	if len(c.frames) == 0 {
		return
	}
	top := c.frames[len(c.frames)-1]
	if _, ok := top.undo[key]; ok {
		return
	}
	if cl, ok := c.cells[key]; ok {
		top.undo[key] = undoEntry{existed: true, prev: *cl}
	} else {
		top.undo[key] = undoEntry{existed: false}
	}
}

// GetWord returns the current 32-byte value of the slot's base word,
// consulting the backend only on the word's first touch.
func (c *Cache) GetWord(slot Slot) common.Hash {
	return c.ensure(slot.Key()).current
}

// SetWord replaces the slot's base word. A word that has never been
// read is written without loading it first; the backend is not
// consulted.
func (c *Cache) SetWord(slot Slot, value common.Hash) error {
	if c.readOnly {
		return ErrMutationViolation
	}
	key := slot.Key()
	c.snapshot(key)

	cl, ok := c.cells[key]
	if !ok {
		cl = &cell{current: value, dirty: true}
		c.cells[key] = cl
		return nil
	}
	cl.current = value
	cl.dirty = !cl.loaded || cl.current != cl.original
	return nil
}

// GetBytes returns a copy of the slot's byte range within its word.
func (c *Cache) GetBytes(slot Slot) []byte {
	word := c.GetWord(slot)
	lo, hi := slot.ByteRange()
	out := make([]byte, slot.Width)
	copy(out, word[lo:hi])
	return out
}

// SetBytes writes the slot's byte range, read-modify-writing the rest
// of the word. len(value) must equal the slot width.
func (c *Cache) SetBytes(slot Slot, value []byte) error {
	if len(value) != int(slot.Width) {
		return fmt.Errorf("%w: got %d bytes for width %d", ErrBadWidth, len(value), slot.Width)
	}
	if slot.Width == 32 {
		return c.SetWord(slot, common.BytesToHash(value))
	}
	if c.readOnly {
		return ErrMutationViolation
	}

	key := slot.Key()
	cl := c.ensure(key)
	c.snapshot(key)

	lo, hi := slot.ByteRange()
	copy(cl.current[lo:hi], value)
	cl.dirty = !cl.loaded || cl.current != cl.original
	return nil
}

// Checkpoint opens a nested checkpoint and returns its token. Every
// mutation after this point is recorded until the checkpoint is
// committed or reverted.
func (c *Cache) Checkpoint() int {
	c.frames = append(c.frames, &frame{undo: make(map[common.Hash]undoEntry)})
	return len(c.frames)
}

// Commit closes the checkpoint identified by token, merging its
// modified set into the enclosing checkpoint. Values are untouched; a
// later revert of the parent still restores to the parent's open
// point.
func (c *Cache) Commit(token int) error {
	if token != len(c.frames) || token == 0 {
		return ErrBadCheckpoint
	}
	top := c.frames[len(c.frames)-1]
	c.frames = c.frames[:len(c.frames)-1]

	if len(c.frames) == 0 {
		return nil
	}
	parent := c.frames[len(c.frames)-1]
	for key, entry := range top.undo {
		if _, ok := parent.undo[key]; !ok {
			parent.undo[key] = entry
		}
	}
	return nil
}

// Revert closes the checkpoint identified by token, restoring every
// cell it touched to its snapshot-at-open value. A cell flushed while
// the checkpoint was open keeps the live backend knowledge, so the
// restored value re-dirties against what the host now holds and the
// next flush writes the rollback through.
func (c *Cache) Revert(token int) error {
	if token != len(c.frames) || token == 0 {
		return ErrBadCheckpoint
	}
	top := c.frames[len(c.frames)-1]
	c.frames = c.frames[:len(c.frames)-1]

	for key, entry := range top.undo {
		live, liveOK := c.cells[key]
		if entry.existed {
			restored := entry.prev
			if liveOK && live.loaded {
				restored.original = live.original
				restored.loaded = true
				restored.dirty = restored.current != restored.original
			}
			c.cells[key] = &restored
			continue
		}
		if liveOK && live.loaded {
			// Created and flushed inside the frame; keep the backend
			// knowledge rather than paying a second host read later.
			c.cells[key] = &cell{original: live.original, current: live.original, loaded: true}
			continue
		}
		delete(c.cells, key)
	}
	return nil
}

// Depth returns the number of open checkpoints.
func (c *Cache) Depth() int {
	return len(c.frames)
}

// Flush writes every dirty cell to the backend in ascending slot
// order, then clears the dirty marks. Call it immediately before any
// outbound external call and at top-level call completion, so
// re-entrant execution observes a consistent persisted view.
func (c *Cache) Flush() {
	keys := make([]common.Hash, 0, len(c.cells))
	for key, cl := range c.cells {
		if cl.dirty {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})

	for _, key := range keys {
		cl := c.cells[key]
		c.backend.Store(key, cl.current)
		cl.original = cl.current
		cl.loaded = true
		cl.dirty = false
	}
}

// Clear flushes and then drops every cell and open checkpoint,
// ending the cache's call context.
func (c *Cache) Clear() {
	c.Flush()
	c.cells = make(map[common.Hash]*cell)
	c.frames = nil
}

// Discard drops every cell and open checkpoint without flushing.
// Used when a top-level call fails and no state may persist.
func (c *Cache) Discard() {
	c.cells = make(map[common.Hash]*cell)
	c.frames = nil
}
