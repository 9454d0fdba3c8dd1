package loom

// entityAllocator hands out fresh 24-bit indices, recycling freed ones and
// bumping their generation when they are released (wrapping mod 256, matching
// generationWrapAt). Grounded in edwinsyarief-lazyecs's World.CreateEntity /
// RemoveEntity free-list, adapted to the packed Entity handle instead of a
// separate ID/Version pair.
type entityAllocator struct {
	free []uint32
	next uint32
}

func newEntityAllocator() *entityAllocator {
	return &entityAllocator{}
}

// alloc reserves an index and generation for a new entity, consulting index
// for the slot's last-known generation when recycling. Returns
// EntitySaturationError if every index is live and the index space is full.
func (a *entityAllocator) alloc(index *EntityIndex) (Entity, error) {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		if a.next >= maxLiveEntities {
			return NullEntity, EntitySaturationError{}
		}
		idx = a.next
		a.next++
	}

	// A brand-new index starts at generation 0; a recycled one already carries
	// its bumped generation from the release() call that freed it.
	generation := index.generationAt(idx)
	return newEntity(idx, generation), nil
}

// release returns idx to the pool and bumps its stored generation for the
// next occupant, wrapping 255 -> 0 rather than skipping to 1 (spec.md's
// chosen generation-wrap policy, matching the 8-bit field original_source's
// EntityHandle.h defines).
func (a *entityAllocator) release(idx uint32, index *EntityIndex) {
	next := index.generationAt(idx) + 1 // uint8 wraps 255 -> 0 natively
	index.entries[idx].generation = next
	a.free = append(a.free, idx)
}
