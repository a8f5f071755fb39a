package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"github.com/branched-services/go-contractkit/codec"
)

// DescKind identifies a storage shape family.
type DescKind uint8

const (
	// DescPrimitive is a fixed-width value of at most 32 bytes.
	DescPrimitive DescKind = iota

	// DescFixedArray is a fixed-length array; elements pack by density
	// within words, multi-word elements advance whole words.
	DescFixedArray

	// DescStruct is an ordered sequence of named fields packed by the
	// Solidity layout rules.
	DescStruct

	// DescDynamicArray holds only a length in its base word; elements
	// live at keccak256(base).
	DescDynamicArray

	// DescMapping holds nothing in its base word; entries live at
	// keccak256(key ++ base).
	DescMapping

	// DescBytes is a Solidity bytes/string: short values share the base
	// word with their length, long values spill to keccak256(base).
	DescBytes
)

// FieldLayout records where a struct field lives relative to the
// struct's base word.
type FieldLayout struct {
	Name string
	Desc *TypeDescriptor

	// Word is the field's word index relative to the struct base.
	Word uint64

	// Offset is the byte offset from the low-order end within that word.
	Offset uint8
}

// TypeDescriptor is the recursive description of a type's storage
// shape. Descriptors are immutable once computed; share them freely.
type TypeDescriptor struct {
	Kind DescKind

	// Type is the ABI shape the descriptor was computed from.
	Type codec.Type

	// Size is the packed byte width for shapes that can share a word
	// (primitives). Word-aligned shapes report 32.
	Size uint8

	// Words is the number of contiguous words the shape reserves.
	// Dynamic shapes reserve exactly one (the length/seed word).
	Words uint64

	// Elem is the element descriptor for arrays and mappings' values.
	Elem *TypeDescriptor

	// Key is the key type for mappings.
	Key *codec.Type

	// Fields hold the packed layout for structs.
	Fields []FieldLayout
}

// ErrUnsupportedShape indicates a type that has no storage layout.
var ErrUnsupportedShape = errors.New("storage: type has no storage layout")

// ComputeLayout derives the storage shape of an ABI type. The result
// is deterministic and side-effect-free; use a Registry to cache it
// per distinct shape.
//
// Packing follows the Solidity convention: struct fields are placed
// into the current word starting at its low-order end, in declaration
// order; a field that would overflow the remaining bytes starts a
// fresh word instead of splitting. Structs and arrays always start on
// a word boundary and the following field starts fresh as well.
func ComputeLayout(t codec.Type) (*TypeDescriptor, error) {
	switch t.Kind {
	case codec.KindUint, codec.KindInt:
		return &TypeDescriptor{Kind: DescPrimitive, Type: t, Size: uint8(t.Bits / 8), Words: 1}, nil
	case codec.KindBool:
		return &TypeDescriptor{Kind: DescPrimitive, Type: t, Size: 1, Words: 1}, nil
	case codec.KindAddress:
		return &TypeDescriptor{Kind: DescPrimitive, Type: t, Size: 20, Words: 1}, nil
	case codec.KindFixedBytes:
		return &TypeDescriptor{Kind: DescPrimitive, Type: t, Size: uint8(t.Size), Words: 1}, nil
	case codec.KindBytes, codec.KindString:
		return &TypeDescriptor{Kind: DescBytes, Type: t, Size: 32, Words: 1}, nil
	case codec.KindSlice:
		elem, err := ComputeLayout(*t.Elem)
		if err != nil {
			return nil, err
		}
		return &TypeDescriptor{Kind: DescDynamicArray, Type: t, Size: 32, Words: 1, Elem: elem}, nil
	case codec.KindArray:
		return fixedArrayLayout(t)
	case codec.KindTuple:
		return structLayout(t)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedShape, t.String())
	}
}

// MustLayout is like ComputeLayout but panics on error. Use only with
// shapes fixed at init time.
func MustLayout(t codec.Type) *TypeDescriptor {
	d, err := ComputeLayout(t)
	if err != nil {
		panic(err)
	}
	return d
}

// MappingLayout builds the descriptor for a mapping from key to the
// given value type. Mappings have no ABI type string, so they are
// constructed explicitly rather than parsed.
func MappingLayout(key codec.Type, value codec.Type) (*TypeDescriptor, error) {
	switch key.Kind {
	case codec.KindArray, codec.KindSlice, codec.KindTuple:
		return nil, fmt.Errorf("%w: mapping key %s", ErrUnsupportedShape, key.String())
	}
	elem, err := ComputeLayout(value)
	if err != nil {
		return nil, err
	}
	k := key
	return &TypeDescriptor{Kind: DescMapping, Size: 32, Words: 1, Elem: elem, Key: &k}, nil
}

func fixedArrayLayout(t codec.Type) (*TypeDescriptor, error) {
	elem, err := ComputeLayout(*t.Elem)
	if err != nil {
		return nil, err
	}
	var words uint64
	if elem.Words > 1 || elem.Size == 32 {
		words = uint64(t.ArrayLen) * elem.Words
	} else {
		density := uint64(32 / elem.Size)
		words = (uint64(t.ArrayLen) + density - 1) / density
	}
	return &TypeDescriptor{Kind: DescFixedArray, Type: t, Size: 32, Words: words, Elem: elem}, nil
}

func structLayout(t codec.Type) (*TypeDescriptor, error) {
	var (
		fields []FieldLayout
		word   uint64 // next free word
		used   uint8  // bytes consumed in that word, from the low end
	)

	for _, f := range t.Fields {
		fd, err := ComputeLayout(f.Type)
		if err != nil {
			return nil, err
		}

		if fd.Kind != DescPrimitive || fd.Size == 32 {
			// Word-aligned shapes start fresh and leave the cursor fresh.
			if used > 0 {
				word++
				used = 0
			}
			fields = append(fields, FieldLayout{Name: f.Name, Desc: fd, Word: word})
			word += fd.Words
			continue
		}

		if used+fd.Size > 32 {
			word++
			used = 0
		}
		fields = append(fields, FieldLayout{Name: f.Name, Desc: fd, Word: word, Offset: used})
		used += fd.Size
		if used == 32 {
			word++
			used = 0
		}
	}

	words := word
	if used > 0 {
		words++
	}
	if words == 0 {
		words = 1
	}
	return &TypeDescriptor{Kind: DescStruct, Type: t, Size: 32, Words: words, Fields: fields}, nil
}

// FieldSlot resolves a struct field's slot given the struct's base
// word.
func (d *TypeDescriptor) FieldSlot(base Slot, field FieldLayout) Slot {
	var word uint256.Int
	word.AddUint64(&base.Word, field.Word)
	if field.Desc.Kind == DescPrimitive && field.Desc.Size < 32 {
		return Slot{Word: word, Offset: field.Offset, Width: field.Desc.Size}
	}
	return Slot{Word: word, Width: 32}
}

// Field looks up a struct field layout by name.
func (d *TypeDescriptor) Field(name string) (FieldLayout, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldLayout{}, false
}

// Registry caches descriptors per distinct shape, keyed by canonical
// type string. Safe for concurrent use; intended to be populated
// during initialization so call-time lookups never recompute.
type Registry struct {
	mu      sync.RWMutex
	layouts map[string]*TypeDescriptor
}

// NewRegistry creates an empty layout registry.
func NewRegistry() *Registry {
	return &Registry{layouts: make(map[string]*TypeDescriptor)}
}

// Layout returns the cached descriptor for the shape, computing it on
// first use.
func (r *Registry) Layout(t codec.Type) (*TypeDescriptor, error) {
	key := t.String()

	r.mu.RLock()
	d, ok := r.layouts[key]
	r.mu.RUnlock()
	if ok {
		return d, nil
	}

	d, err := ComputeLayout(t)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if cached, ok := r.layouts[key]; ok {
		d = cached
	} else {
		r.layouts[key] = d
	}
	r.mu.Unlock()
	return d, nil
}
