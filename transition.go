package loom

import "github.com/TheBitDrifter/bark"

// transitionOp records one component type a migration between two
// archetypes must carry forward, and whether it can be moved with a flat
// byte copy rather than a semantic one. It mirrors the OperationSet entries
// in the original engine's TransitionPlan: one entry per component type
// shared by both the source and destination signature.
type transitionOp struct {
	id      ComponentID
	trivial bool
}

// TransitionPlan is the precomputed, cached description of migrating
// entities from one archetype to another: which component types survive the
// move and whether each can be bulk-copied. It is built once per
// (src, dst) archetype pair and reused for every entity that makes that same
// move, per spec.md 4.7.
//
// The physical row move is delegated to table.Table.TransferEntries, which
// already performs the common-column copy internally — table is an opaque
// third-party dependency with no exposed bulk-range primitive, so unlike the
// original engine's raw memcpy, a coalesced range here still executes one
// TransferEntries call per row. Common (which columns survive, are they
// trivial) is computed once per pair; Execute itself walks the pending
// entities one at a time and does not consult Common or the coalesced ranges,
// which are exposed only through RangeCount.
type TransitionPlan struct {
	Src, Dst *Archetype
	Common   []transitionOp

	pending []Entity
	ranges  []transitionRange
}

type transitionRange struct {
	start, count int
}

// newTransitionPlan computes the common-component list between src and dst,
// consulting registry for each shared type's relocatability.
func newTransitionPlan(src, dst *Archetype, registry *Registry) *TransitionPlan {
	plan := &TransitionPlan{Src: src, Dst: dst}
	for _, dc := range dst.components {
		dinfo := registry.Info(dc)
		if !src.signature.Has(dinfo.ID) {
			continue
		}
		plan.Common = append(plan.Common, transitionOp{id: dinfo.ID, trivial: dinfo.TriviallyRelocatable})
	}
	return plan
}

// QueueEntity enqueues e (currently at row) for migration, coalescing it into
// the prior range when row is contiguous with the last queued row — the same
// adjacent-range coalescing the original TransitionPlan.QueueEntity performs.
func (p *TransitionPlan) QueueEntity(e Entity, row int) {
	p.pending = append(p.pending, e)
	n := len(p.ranges)
	if n > 0 && p.ranges[n-1].start+p.ranges[n-1].count == row {
		p.ranges[n-1].count++
		return
	}
	p.ranges = append(p.ranges, transitionRange{start: row, count: 1})
}

// RangeCount reports how many coalesced contiguous spans are currently
// queued, exposed for tests asserting the coalescing behavior.
func (p *TransitionPlan) RangeCount() int {
	return len(p.ranges)
}

// Execute migrates every queued entity from Src to Dst, updating index to
// reflect each entity's new archetype and row, and clears the queue
// afterward. Each entity's row is re-resolved from index immediately before
// its move rather than trusted from queue time, since an earlier move in
// this same batch may have swap-removed a later row via Src's own
// bookkeeping — resolving fresh is what keeps Dst.validateIntegrity() true
// regardless of queue order.
func (p *TransitionPlan) Execute(index *EntityIndex) error {
	for _, e := range p.pending {
		_, row, ok := index.Resolve(e)
		if !ok {
			// Entity was destroyed by an earlier op in the same flush; nothing
			// left to migrate.
			continue
		}
		if err := p.Src.tbl.TransferEntries(p.Dst.tbl, row); err != nil {
			return err
		}
		// TransferEntries already moved the physical row; bookkeepRemoval only
		// updates our own row->handle slices and the EntityIndex to match.
		p.Src.bookkeepRemoval(row, index)

		newRow := p.Dst.appendRow(e)
		index.set(e.Index(), e.Generation(), p.Dst.id, newRow)
	}
	p.pending = p.pending[:0]
	p.ranges = p.ranges[:0]

	if !p.Src.validateIntegrity() || !p.Dst.validateIntegrity() {
		panic(bark.AddTrace(archetypeIntegrityError{ArchetypeID: p.Dst.id}))
	}
	return nil
}
