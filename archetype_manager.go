package loom

import (
	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
)

// ArchetypeManager is the per-World catalog of archetypes: it lazily creates
// an archetype the first time a signature is referenced and hands back the
// cached one on every subsequent reference, generalizing the teacher's
// storage.go archetypes struct (idsGroupedByMask) to the Signature type.
//
// Transition caches (addCache/removeCache) memoize "archetype X plus/minus
// component Y resolves to archetype Z", so repeatedly adding or removing the
// same component type across many entities does one signature lookup instead
// of one per entity — the Transition Plan still does the per-row work, this
// only avoids re-deriving which destination archetype to target.
type ArchetypeManager struct {
	schema     table.Schema
	entryIndex table.EntryIndex
	registry   *Registry

	nextID ArchetypeID
	bySig  map[mask.Mask]ArchetypeID
	byID   []*Archetype // byID[id-1] holds the archetype with that id

	addCache    map[ArchetypeID]map[ComponentID]ArchetypeID
	removeCache map[ArchetypeID]map[ComponentID]ArchetypeID

	transitions map[[2]ArchetypeID]*TransitionPlan
}

// NewArchetypeManager builds an empty catalog backed by schema and registry.
func NewArchetypeManager(schema table.Schema, entryIndex table.EntryIndex, registry *Registry) *ArchetypeManager {
	return &ArchetypeManager{
		schema:      schema,
		entryIndex:  entryIndex,
		registry:    registry,
		nextID:      1,
		bySig:       make(map[mask.Mask]ArchetypeID, 16),
		byID:        make([]*Archetype, 0, 16),
		addCache:    make(map[ArchetypeID]map[ComponentID]ArchetypeID),
		removeCache: make(map[ArchetypeID]map[ComponentID]ArchetypeID),
		transitions: make(map[[2]ArchetypeID]*TransitionPlan),
	}
}

// TransitionPlanFor returns the cached TransitionPlan migrating entities from
// src to dst, building it on first reference. A transition plan outlives a
// single migration; the caller clears its queue via Execute, not by
// discarding the plan, so repeated migrations of the same archetype pair
// reuse one allocation.
func (m *ArchetypeManager) TransitionPlanFor(src, dst *Archetype) *TransitionPlan {
	key := [2]ArchetypeID{src.id, dst.id}
	if plan, ok := m.transitions[key]; ok {
		return plan
	}
	plan := newTransitionPlan(src, dst, m.registry)
	m.transitions[key] = plan
	return plan
}

// Get returns the archetype with the given id.
func (m *ArchetypeManager) Get(id ArchetypeID) *Archetype {
	return m.byID[id-1]
}

// All returns every archetype in the catalog, in ascending id order — the
// iteration order spec.md 4.9 requires for Query evaluation.
func (m *ArchetypeManager) All() []*Archetype {
	return m.byID
}

// GetOrCreate returns the archetype for sig, creating it (and registering its
// components in the shared schema) on first reference.
func (m *ArchetypeManager) GetOrCreate(sig Signature, components ...Component) (*Archetype, error) {
	if id, ok := m.bySig[sig.Mask()]; ok {
		return m.byID[id-1], nil
	}
	id := m.nextID
	arch, err := newArchetype(m.schema, m.entryIndex, id, sig, components...)
	if err != nil {
		return nil, err
	}
	m.byID = append(m.byID, arch)
	m.bySig[sig.Mask()] = id
	m.nextID++
	return arch, nil
}

// WithAdded resolves the archetype reached from src by adding component c,
// caching the resolution for subsequent callers adding the same component to
// the same source archetype.
func (m *ArchetypeManager) WithAdded(src *Archetype, c Component) (*Archetype, error) {
	info := m.registry.Info(c)
	if cached, ok := m.addCache[src.id][info.ID]; ok {
		return m.byID[cached-1], nil
	}

	components := append(append([]Component(nil), src.components...), c)
	sig := src.signature.With(info.ID)
	dst, err := m.GetOrCreate(sig, components...)
	if err != nil {
		return nil, err
	}
	if m.addCache[src.id] == nil {
		m.addCache[src.id] = make(map[ComponentID]ArchetypeID)
	}
	m.addCache[src.id][info.ID] = dst.id
	return dst, nil
}

// WithRemoved resolves the archetype reached from src by removing component c.
func (m *ArchetypeManager) WithRemoved(src *Archetype, c Component) (*Archetype, error) {
	info := m.registry.Info(c)
	if cached, ok := m.removeCache[src.id][info.ID]; ok {
		return m.byID[cached-1], nil
	}
	sig := src.signature.Without(info.ID)
	components := make([]Component, 0, len(src.components))
	for _, sc := range src.components {
		if m.registry.Info(sc).ID != info.ID {
			components = append(components, sc)
		}
	}
	dst, err := m.GetOrCreate(sig, components...)
	if err != nil {
		return nil, err
	}
	if m.removeCache[src.id] == nil {
		m.removeCache[src.id] = make(map[ComponentID]ArchetypeID)
	}
	m.removeCache[src.id][info.ID] = dst.id
	return dst, nil
}

// ArchetypesWithAll returns every archetype whose signature is a superset of
// required, in ascending id order.
func (m *ArchetypeManager) ArchetypesWithAll(required Signature) []*Archetype {
	var out []*Archetype
	for _, a := range m.byID {
		if a.signature.ContainsAll(required) {
			out = append(out, a)
		}
	}
	return out
}
