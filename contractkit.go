// Package contractkit lets Go programs expose Ethereum-ABI-equivalent,
// Solidity-storage-compatible smart contracts.
//
// The library has two load-bearing subsystems. The storage engine
// (package storage) maps typed values onto the flat, word-addressed
// persistent key space a host runtime provides, using Solidity's
// packing rules so contracts interoperate bit-for-bit with
// Solidity-compiled code sharing the same state. A per-call cache with
// nested checkpoints keeps host accessor traffic to at most one read
// and one write per word per call. The codec (package codec)
// implements the contract ABI v2 binary format: selectors, head/tail
// encoding with dynamic offsets, and bounds-checked decoding.
//
// This package ties them together at the call boundary: a Router maps
// 4-byte selectors to handlers, decodes calldata, runs the handler
// inside a storage checkpoint, and encodes results or revert payloads.
//
// # Basic Usage
//
// Register handlers against canonical signatures, then dispatch raw
// calldata:
//
//	backend := storage.NewMemBackend()
//
//	router := contractkit.NewRouter()
//
//	err := router.Register("increment()", func(ctx *contractkit.Context, args []any) ([]any, error) {
//	    counter := storage.NewU256(ctx.Cache(), storage.WordSlotAt(0))
//	    next := new(uint256.Int).AddUint64(counter.Get(), 1)
//	    return []any{next.ToBig()}, counter.Set(next)
//	}, contractkit.Returns("uint256"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := contractkit.NewContext(backend)
//	output, ok := router.Call(ctx, calldata)
//
// # Execution model
//
// Execution per invocation is single-threaded and synchronous. A
// handler that makes an outbound external call must flush the cache
// first (ctx.Cache().Flush()), so re-entrant invocations observe a
// consistent persisted view; re-entrancy is modeled as nested
// dispatches over the same context, each inside its own checkpoint.
//
// # Errors
//
// Nothing escapes the call boundary as a Go panic or error value:
// handler failures, decode errors, panics, and static-mode violations
// all become encoded revert payloads plus a failure flag. See
// RevertError, PanicError, and the Encode* helpers.
package contractkit
