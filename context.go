package contractkit

import (
	"math/big"

	"github.com/branched-services/go-contractkit/storage"
)

// Context carries the per-call execution state: the storage cache,
// the static flag, and the transferred value. It is threaded
// explicitly through every handler; there is no ambient global.
type Context struct {
	cache  *storage.Cache
	static bool
	value  *big.Int
	depth  int
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithValue records the value transferred with the call.
func WithValue(value *big.Int) ContextOption {
	return func(c *Context) {
		c.value = new(big.Int).Set(value)
	}
}

// WithStatic marks the context read-only: every storage mutation fails
// with storage.ErrMutationViolation.
func WithStatic() ContextOption {
	return func(c *Context) {
		c.static = true
	}
}

// WithCache reuses an existing cache instead of opening a fresh one,
// for hosts that manage cache lifetime themselves.
func WithCache(cache *storage.Cache) ContextOption {
	return func(c *Context) {
		c.cache = cache
	}
}

// NewContext opens a call context over the given host accessor.
func NewContext(backend storage.Backend, opts ...ContextOption) *Context {
	c := &Context{}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = storage.NewCache(backend)
	}
	c.cache.SetReadOnly(c.static)
	return c
}

// Fork derives a child context for a nested sub-dispatch. The storage
// cache is shared, so the child's checkpoints nest inside the
// caller's, and static mode is inherited and never relaxed. Options
// apply on top: WithValue for the nested call's transferred value,
// WithStatic to tighten a read-write context into a read-only
// sub-call.
func (c *Context) Fork(opts ...ContextOption) *Context {
	child := &Context{cache: c.cache, static: c.static, depth: c.depth}
	for _, opt := range opts {
		opt(child)
	}
	child.cache = c.cache
	child.static = child.static || c.static
	return child
}

// Cache returns the context's storage cache.
func (c *Context) Cache() *storage.Cache {
	return c.cache
}

// Static reports whether the context forbids persistent-state
// mutation.
func (c *Context) Static() bool {
	return c.static
}

// Value returns the value transferred with the call, nil if none.
func (c *Context) Value() *big.Int {
	return c.value
}

// Depth returns the current dispatch nesting depth; zero outside any
// dispatch.
func (c *Context) Depth() int {
	return c.depth
}

// enterStatic switches the cache into read-only mode for a nested
// static dispatch, returning the restore function. Static mode is
// sticky downward: a static frame never re-enables writes for its
// children.
func (c *Context) enterStatic() func() {
	prevStatic := c.static
	prevReadOnly := c.cache.ReadOnly()
	c.static = true
	c.cache.SetReadOnly(true)
	return func() {
		c.static = prevStatic
		c.cache.SetReadOnly(prevReadOnly)
	}
}
