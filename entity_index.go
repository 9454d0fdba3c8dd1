package loom

// entityIndexEntry is the per-index bookkeeping record an EntityAllocator and
// World keep for every slot in the 24-bit index space: which archetype the
// live entity at that index currently occupies, its row within that
// archetype's table, its current generation, and whether the slot is live at
// all. Grounded in edwinsyarief-lazyecs's entityMeta and, further back, in
// original_source's EntityMetadata.
type entityIndexEntry struct {
	generation uint8
	archetype  ArchetypeID
	row        int
	alive      bool
}

// EntityIndex maps the 24-bit index field of an Entity handle to the
// archetype and row it currently occupies. It is the single source of truth
// an EntityAllocator and a World consult to resolve a handle to live data, or
// to discover that a handle has gone stale.
type EntityIndex struct {
	entries []entityIndexEntry
}

// NewEntityIndex builds an empty EntityIndex.
func NewEntityIndex() *EntityIndex {
	return &EntityIndex{entries: make([]entityIndexEntry, 0, 256)}
}

// grow extends entries up to and including idx, zero-valuing new slots.
func (x *EntityIndex) grow(idx uint32) {
	if int(idx) < len(x.entries) {
		return
	}
	next := make([]entityIndexEntry, idx+1)
	copy(next, x.entries)
	x.entries = next
}

// set records the archetype/row/generation for idx and marks it alive.
func (x *EntityIndex) set(idx uint32, generation uint8, archetype ArchetypeID, row int) {
	x.grow(idx)
	x.entries[idx] = entityIndexEntry{generation: generation, archetype: archetype, row: row, alive: true}
}

// clear marks idx dead without touching its generation (the allocator bumps
// the generation separately, in release, when the index is freed).
func (x *EntityIndex) clear(idx uint32) {
	if int(idx) >= len(x.entries) {
		return
	}
	x.entries[idx].alive = false
}

// setRow updates only the row of an already-live index, used after a
// swap-remove shifts the last row of an archetype into a vacated slot.
func (x *EntityIndex) setRow(idx uint32, row int) {
	x.entries[idx].row = row
}

// Resolve reports whether e refers to a currently live entity, and if so its
// archetype and row. A handle whose generation doesn't match the slot's
// current generation, or whose index was never allocated, resolves to
// (false, ...).
func (x *EntityIndex) Resolve(e Entity) (archetype ArchetypeID, row int, ok bool) {
	if e.IsNull() {
		return 0, 0, false
	}
	idx := e.Index()
	if int(idx) >= len(x.entries) {
		return 0, 0, false
	}
	entry := x.entries[idx]
	if !entry.alive || entry.generation != e.Generation() {
		return 0, 0, false
	}
	return entry.archetype, entry.row, true
}

// IsAlive reports whether e currently resolves to a live entity.
func (x *EntityIndex) IsAlive(e Entity) bool {
	_, _, ok := x.Resolve(e)
	return ok
}

// generationAt returns the current generation stored for idx, used by the
// allocator when it recycles an index.
func (x *EntityIndex) generationAt(idx uint32) uint8 {
	if int(idx) >= len(x.entries) {
		return 0
	}
	return x.entries[idx].generation
}
