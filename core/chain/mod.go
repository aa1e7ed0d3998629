// Package chain defines the chain context that is threaded through
// execution: an (almost) immutable snapshot of the previous block and the
// tiered state cache the current unit of work is reading and writing
// through.
package chain

import "go.chainforge.dev/executor/core/store/tiered"

// Context is a pure data carrier, immutable apart from the associated state
// cache reference being swapped at well-defined points (post-failure
// rollback in the post-plugin stage, see core/txexec).
type Context struct {
	// PreviousBlockHash is the hash of the block the current unit of work
	// builds upon.
	PreviousBlockHash []byte

	// PreviousBlockHeight is the height of that block.
	PreviousBlockHeight int64

	// Cache is the tiered state cache associated to this context.
	Cache *tiered.Cache
}

// New creates a chain context bound to the given cache.
func New(previousBlockHash []byte, previousBlockHeight int64, cache *tiered.Cache) Context {
	return Context{
		PreviousBlockHash:   previousBlockHash,
		PreviousBlockHeight: previousBlockHeight,
		Cache:               cache,
	}
}

// WithStateCache returns a logically new chain context bound to a different
// tiered cache; the previous-block fields are carried over unchanged.
func (c Context) WithStateCache(cache *tiered.Cache) Context {
	c.Cache = cache

	return c
}
