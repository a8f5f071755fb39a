package contractkit

import (
	"errors"

	"github.com/branched-services/go-contractkit/codec"
	"github.com/branched-services/go-contractkit/storage"
)

// Handler executes a registered method. args are the decoded inputs in
// declaration order; the returned values must match the method's
// registered output types. Returning an error aborts the frame: its
// checkpoint is rolled back and the error becomes a revert payload.
type Handler func(ctx *Context, args []any) ([]any, error)

// RawHandler executes the fallback, receiving calldata unchanged.
type RawHandler func(ctx *Context, calldata []byte) ([]byte, error)

// method is one entry in the dispatch table.
type method struct {
	name     string
	sig      string
	selector [4]byte
	inputs   []codec.Type
	outputs  []codec.Type
	handler  Handler
}

// MethodOption configures a method registration.
type MethodOption func(*method) error

// Returns declares a method's output types, e.g.
// Returns("uint256", "bool").
func Returns(types ...string) MethodOption {
	return func(m *method) error {
		for _, s := range types {
			t, err := codec.ParseType(s)
			if err != nil {
				return err
			}
			m.outputs = append(m.outputs, t)
		}
		return nil
	}
}

// Router maps 4-byte selectors to handlers. Populate it during
// initialization, then dispatch incoming calldata through it.
type Router struct {
	methods  map[[4]byte]*method
	fallback RawHandler
}

// NewRouter creates an empty dispatch table.
func NewRouter() *Router {
	return &Router{methods: make(map[[4]byte]*method)}
}

// Register adds a handler for the canonical signature, e.g.
// "transfer(address,uint256)". The selector is derived from the
// signature; registering a second handler for the same selector fails
// with ErrDuplicateSelector rather than overwriting.
func (r *Router) Register(signature string, handler Handler, opts ...MethodOption) error {
	name, inputs, err := codec.ParseSignature(signature)
	if err != nil {
		return &RegistrationError{Signature: signature, Err: err}
	}

	m := &method{
		name:     name,
		sig:      codec.Signature(name, inputs...),
		selector: codec.Selector(codec.Signature(name, inputs...)),
		inputs:   inputs,
		handler:  handler,
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return &RegistrationError{Signature: signature, Err: err}
		}
	}

	if _, exists := r.methods[m.selector]; exists {
		return &RegistrationError{Signature: signature, Err: ErrDuplicateSelector}
	}
	r.methods[m.selector] = m
	return nil
}

// MustRegister is like Register but panics on error. Use during
// initialization with compile-time constant signatures.
func (r *Router) MustRegister(signature string, handler Handler, opts ...MethodOption) {
	if err := r.Register(signature, handler, opts...); err != nil {
		panic(err)
	}
}

// RegisterFallback installs the handler invoked when no selector
// matches. At most one fallback may be registered.
func (r *Router) RegisterFallback(handler RawHandler) error {
	if r.fallback != nil {
		return &RegistrationError{Signature: "fallback", Err: ErrDuplicateSelector}
	}
	r.fallback = handler
	return nil
}

// Selectors returns the registered selectors, for hosts exporting a
// method table.
func (r *Router) Selectors() [][4]byte {
	out := make([][4]byte, 0, len(r.methods))
	for sel := range r.methods {
		out = append(out, sel)
	}
	return out
}

// HasSelector reports whether a handler is registered for the
// selector.
func (r *Router) HasSelector(sel [4]byte) bool {
	_, ok := r.methods[sel]
	return ok
}

// Dispatch routes calldata to its handler: the selector is the first
// four bytes, the rest decodes per the handler's input types. The
// handler runs inside a fresh storage checkpoint; on success the
// checkpoint is committed, results are encoded, and the cache is
// flushed so the persisted view is consistent when control leaves the
// frame. On failure the checkpoint is rolled back and the returned
// bytes are the encoded revert payload.
//
// A nil error reports success. Failures are classifiable with
// errors.Is/errors.As (ErrUnknownSelector, *RevertError, *PanicError,
// storage.ErrMutationViolation, *codec.DecodeError). A handler that
// panics is caught here: its frame reverts and the failure surfaces
// as a *PanicError with the assert code.
func (r *Router) Dispatch(ctx *Context, calldata []byte) (output []byte, err error) {
	// A Go panic must not unwind across the call boundary: it reverts
	// everything this dispatch opened and comes back as data.
	entryFrames := ctx.cache.Depth()
	entryDepth := ctx.depth
	defer func() {
		if recover() == nil {
			return
		}
		ctx.depth = entryDepth
		for ctx.cache.Depth() > entryFrames {
			_ = ctx.cache.Revert(ctx.cache.Depth())
		}
		if ctx.cache.Depth() == 0 {
			ctx.cache.Flush()
		}
		output = EncodePanic(PanicAssert)
		err = &PanicError{Code: PanicAssert}
	}()

	if ctx.static && !ctx.cache.ReadOnly() {
		// A forked static context over a still-writable cache.
		restore := ctx.enterStatic()
		defer restore()
	}

	m, ok := r.lookup(calldata)
	if !ok {
		if r.fallback != nil {
			return r.dispatchFallback(ctx, calldata)
		}
		return EncodeError(ErrUnknownSelector.Error()), ErrUnknownSelector
	}

	// Decode before touching state: malformed calldata never opens a
	// checkpoint.
	args, err := codec.Decode(m.inputs, calldata[4:])
	if err != nil {
		return revertPayload(err), err
	}

	token := ctx.cache.Checkpoint()
	ctx.depth++
	results, err := m.handler(ctx, args)
	ctx.depth--
	if err != nil {
		rollback(ctx, token)
		return revertPayload(err), err
	}

	if len(results) != len(m.outputs) {
		rollback(ctx, token)
		err := &RegistrationError{Signature: m.sig, Err: ErrArityMismatch}
		return revertPayload(err), err
	}
	output, err = codec.Encode(m.outputs, results)
	if err != nil {
		rollback(ctx, token)
		return revertPayload(err), err
	}

	if err := ctx.cache.Commit(token); err != nil {
		// A dangling checkpoint left by the handler; unwind it all.
		rollback(ctx, token)
		return revertPayload(err), err
	}
	ctx.cache.Flush()
	return output, nil
}

// StaticDispatch is Dispatch in read-only mode: any storage mutation
// inside the frame fails with storage.ErrMutationViolation and the
// frame reverts.
func (r *Router) StaticDispatch(ctx *Context, calldata []byte) ([]byte, error) {
	restore := ctx.enterStatic()
	defer restore()
	return r.Dispatch(ctx, calldata)
}

// Call is the contract entry boundary: it dispatches calldata and
// reports (output, success). On failure the output is the encoded
// revert payload and no persistent state changes.
func (r *Router) Call(ctx *Context, calldata []byte) ([]byte, bool) {
	output, err := r.Dispatch(ctx, calldata)
	return output, err == nil
}

func (r *Router) lookup(calldata []byte) (*method, bool) {
	if len(calldata) < 4 {
		return nil, false
	}
	m, ok := r.methods[[4]byte(calldata[:4])]
	return m, ok
}

func (r *Router) dispatchFallback(ctx *Context, calldata []byte) ([]byte, error) {
	token := ctx.cache.Checkpoint()
	ctx.depth++
	output, err := r.fallback(ctx, calldata)
	ctx.depth--
	if err != nil {
		rollback(ctx, token)
		return revertPayload(err), err
	}
	if err := ctx.cache.Commit(token); err != nil {
		rollback(ctx, token)
		return revertPayload(err), err
	}
	ctx.cache.Flush()
	return output, nil
}

func rollback(ctx *Context, token int) {
	// Revert can only fail on a token mismatch, which would mean the
	// handler left a dangling checkpoint; unwind those first.
	for ctx.cache.Depth() > token {
		_ = ctx.cache.Revert(ctx.cache.Depth())
	}
	_ = ctx.cache.Revert(token)

	// At top level, write back anything a nested flush persisted and
	// the revert undid, so a failed call leaves the host unchanged.
	if ctx.cache.Depth() == 0 {
		ctx.cache.Flush()
	}
}

// revertPayload converts a frame failure into its wire payload.
// RevertError and PanicError carry their own encodings; everything
// else becomes an Error(string) with the error's message.
func revertPayload(err error) []byte {
	var revert *RevertError
	if errors.As(err, &revert) {
		return revert.Payload
	}
	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		return EncodePanic(panicErr.Code)
	}
	if errors.Is(err, storage.ErrMutationViolation) {
		return EncodeError("write protection")
	}
	return EncodeError(err.Error())
}
