// Package tiered implements the tiered state cache: a stack of
// read-through/write-local key/value overlays sitting on top of a base
// store.Readable. A Cache is cheap to clone by reference (Child creates a new
// overlay whose parent is the current cache) so that a nested execution can
// hold a snapshot of its caller without copying the world.
//
// Documentation Last Review: 08.10.2020
//
package tiered

import "go.chainforge.dev/executor/core/store"

// Status is the tri-state result of a Get: a key is either present with a
// value, absent (never seen by any layer down to the base), or explicitly
// deleted (a tombstone masking whatever the base source holds).
type Status int

const (
	// Absent means the key was not found in any layer nor in the base store.
	Absent Status = iota
	// Present means the key resolves to a value, either local or inherited.
	Present
	// Tombstone means the key was deleted in some layer and the deletion
	// masks any lower value; callers must treat it as absent.
	Tombstone
)

// StateSet is the outcome of one execution step: the writes and deletes it
// produced, plus the reads it observed. Writes and deletes are mutually
// exclusive by key.
type StateSet struct {
	Writes  map[string][]byte
	Deletes map[string]struct{}
	Reads   map[string][]byte
}

// NewStateSet returns an empty, ready to use StateSet.
func NewStateSet() StateSet {
	return StateSet{
		Writes:  make(map[string][]byte),
		Deletes: make(map[string]struct{}),
		Reads:   make(map[string][]byte),
	}
}

// SetWrite records a write and clears any pending delete for the same key.
func (s StateSet) SetWrite(key, value []byte) {
	k := string(key)
	s.Writes[k] = value
	delete(s.Deletes, k)
}

// SetDelete records a delete and clears any pending write for the same key.
func (s StateSet) SetDelete(key []byte) {
	k := string(key)
	s.Deletes[k] = struct{}{}
	delete(s.Writes, k)
}

// SetRead records an observed read.
func (s StateSet) SetRead(key, value []byte) {
	s.Reads[string(key)] = value
}

// IsEmpty returns true if the state set carries no writes, deletes nor reads.
func (s StateSet) IsEmpty() bool {
	return len(s.Writes) == 0 && len(s.Deletes) == 0 && len(s.Reads) == 0
}

// layer is one overlay of the tiered cache: the writes and deletes that this
// execution, and only this execution, has produced.
type layer struct {
	writes  map[string][]byte
	deletes map[string]struct{}
	reads   map[string][]byte
}

func newLayer() layer {
	return layer{
		writes:  make(map[string][]byte),
		deletes: make(map[string]struct{}),
		reads:   make(map[string][]byte),
	}
}

// Cache is a tiered state cache: L0 is the base store (possibly absent), and
// L1..Ln are local overlays built by Child. Lookup descends from the top
// layer to the base; the first match wins and a delete tombstone masks
// everything below it.
//
// A Cache never fails on a missing key: Get reports Absent instead of
// returning an error.
type Cache struct {
	parent *Cache
	base   store.Readable
	own    layer
}

// New creates a root tiered cache over the given base source. base may be nil
// if the group has no prior state (a fresh chain).
func New(base store.Readable) *Cache {
	return &Cache{
		base: base,
		own:  newLayer(),
	}
}

// Child returns a new Cache whose base is the current cache: reads read
// through to c, writes and deletes land only in the child's own layer. The
// parent's writes and deletes change only through an explicit Update; a read
// through the child is also recorded in the parent layers it reaches.
func (c *Cache) Child() *Cache {
	return &Cache{
		parent: c,
		own:    newLayer(),
	}
}

// HasParent reports whether this cache is itself an overlay of another
// tiered cache, as opposed to sitting directly on a base store.Readable.
func (c *Cache) HasParent() bool {
	return c.parent != nil
}

// Parent returns the cache this one overlays, or nil if it is a root cache.
func (c *Cache) Parent() *Cache {
	return c.parent
}

// Get walks the layers top-down starting at c. A write in the own layer wins
// immediately; a delete tombstone in the own layer masks everything below and
// is reported as Tombstone; otherwise the lookup descends to the parent, or
// to the base store at the root. Every value actually observed is recorded as
// a read in the layer that performed the lookup and in every parent layer the
// lookup descended through.
func (c *Cache) Get(key []byte) ([]byte, Status) {
	k := string(key)

	if _, ok := c.own.deletes[k]; ok {
		return nil, Tombstone
	}

	if v, ok := c.own.writes[k]; ok {
		c.own.reads[k] = v
		return v, Present
	}

	var (
		value  []byte
		status Status
	)

	switch {
	case c.parent != nil:
		value, status = c.parent.Get(key)
	case c.base != nil:
		v, err := c.base.Get(key)
		if err == nil && v != nil {
			value, status = v, Present
		} else {
			status = Absent
		}
	default:
		status = Absent
	}

	if status == Present {
		c.own.reads[k] = value
	}

	return value, status
}

// Update folds a sequence of state sets into the current (top) layer,
// preserving the write/delete mutual-exclusion invariant: a write clears any
// pending delete for the same key in this layer and vice versa.
func (c *Cache) Update(sets ...StateSet) {
	for _, ss := range sets {
		for k, v := range ss.Writes {
			c.own.writes[k] = v
			delete(c.own.deletes, k)
		}

		for k := range ss.Deletes {
			c.own.deletes[k] = struct{}{}
			delete(c.own.writes, k)
		}

		for k, v := range ss.Reads {
			c.own.reads[k] = v
		}
	}
}

// Flatten materializes the own layer of this cache (and only this layer) as a
// StateSet, suitable for merging into a parent cache via Update.
func (c *Cache) Flatten() StateSet {
	ss := NewStateSet()

	for k, v := range c.own.writes {
		ss.Writes[k] = v
	}

	for k := range c.own.deletes {
		ss.Deletes[k] = struct{}{}
	}

	for k, v := range c.own.reads {
		ss.Reads[k] = v
	}

	return ss
}
