package loom

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/TheBitDrifter/table"
)

// World owns one independent set of entities, archetypes, and component
// registrations. It is the generalization of the teacher's storage.go
// Storage/storage: where the teacher kept a single package-level
// globalEntities slice shared by every Storage instance, a World owns its
// entity index exclusively, so two Worlds never alias each other's entities
// — matching spec.md 5's per-World exclusive ownership requirement.
type World struct {
	schema     table.Schema
	entryIndex table.EntryIndex
	registry   *Registry
	archetypes *ArchetypeManager
	index      *EntityIndex
	allocator  *entityAllocator
	deferred   *deferredBuffer

	root *Archetype // the empty-signature archetype every new entity starts in

	iterDepth int

	diagnosticsMu     sync.Mutex
	diagnostics       []string
	notedUnregistered map[reflect.Type]bool
}

// NewWorld builds a World over a fresh schema/entry-index pair.
func NewWorld(schema table.Schema) (*World, error) {
	entryIndex := table.Factory.NewEntryIndex()
	registry := NewRegistry(schema)
	archetypes := NewArchetypeManager(schema, entryIndex, registry)
	w := &World{
		schema:     schema,
		entryIndex: entryIndex,
		registry:   registry,
		archetypes: archetypes,
		index:      NewEntityIndex(),
		allocator:  newEntityAllocator(),
		deferred:   newDeferredBuffer(),
	}
	root, err := archetypes.GetOrCreate(Signature{})
	if err != nil {
		return nil, err
	}
	w.root = root
	return w, nil
}

// Registry returns the World's component registry.
func (w *World) Registry() *Registry { return w.registry }

// Archetypes returns every archetype in ascending id order.
func (w *World) Archetypes() []*Archetype { return w.archetypes.All() }

// EntityIndex exposes the World's entity index for Query/Cursor resolution.
func (w *World) EntityIndex() *EntityIndex { return w.index }

// IsAlive reports whether e currently resolves to a live entity in this
// World.
func (w *World) IsAlive(e Entity) bool { return w.index.IsAlive(e) }

// ArchetypeOf returns the archetype currently holding e, and false if e is
// stale or dead.
func (w *World) ArchetypeOf(e Entity) (*Archetype, bool) {
	archID, _, ok := w.index.Resolve(e)
	if !ok {
		return nil, false
	}
	return w.archetypes.Get(archID), true
}

// Diagnostics returns every non-fatal notice this World has recorded so far
// — currently just unregistered-component query references (spec.md 7) —
// in the order they first occurred.
func (w *World) Diagnostics() []string {
	w.diagnosticsMu.Lock()
	defer w.diagnosticsMu.Unlock()
	return append([]string(nil), w.diagnostics...)
}

// noteUnregisteredQuery records, once per component type, that a query named
// a component the registry has never seen. Deduplicated so a query
// re-evaluated against every archetype in the World (the normal case) logs
// one notice per type instead of one per archetype.
func (w *World) noteUnregisteredQuery(c Component) {
	t := reflect.TypeOf(c)
	w.diagnosticsMu.Lock()
	defer w.diagnosticsMu.Unlock()
	if w.notedUnregistered == nil {
		w.notedUnregistered = make(map[reflect.Type]bool)
	}
	if w.notedUnregistered[t] {
		return
	}
	w.notedUnregistered[t] = true
	w.diagnostics = append(w.diagnostics, UnregisteredComponentError{Component: c}.Error())
}

// Iterating reports whether a ForEach/ParForEach is currently in progress,
// i.e. structural mutations are being deferred rather than applied
// immediately.
func (w *World) Iterating() bool { return w.iterDepth > 0 }

// enterIteration bumps the re-entrant iteration depth; Cursor/ForEach call
// this before walking matched archetypes.
func (w *World) enterIteration() { w.iterDepth++ }

// exitIteration decrements the iteration depth and, once it returns to zero,
// flushes every command queued during this and any nested iteration, in
// insertion order.
func (w *World) exitIteration() {
	w.iterDepth--
	if w.iterDepth < 0 {
		w.iterDepth = 0
	}
	if w.iterDepth == 0 && !w.deferred.empty() {
		w.deferred.flush(w)
	}
}

// BeginPhase marks the start of a scheduler phase: structural mutations any
// system enqueues during the phase are deferred until EndPhase, the same way
// a Cursor defers them for the span of one ForEach walk. A scheduler brackets
// every system in a phase between one BeginPhase/EndPhase pair so the whole
// phase's mutations land as a single batch rather than one per system.
func (w *World) BeginPhase() { w.enterIteration() }

// EndPhase closes a phase begun with BeginPhase, flushing deferred commands
// once every nested BeginPhase/EndPhase or Cursor iteration has unwound.
func (w *World) EndPhase() { w.exitIteration() }

// CreateEntities creates n new entities carrying components, returning their
// handles. If the World is mid-iteration, this still applies immediately —
// spec.md's deferred buffer only covers structural changes to entities
// already resolvable from the query being iterated, not bulk creation — but
// callers that specifically need creation deferred until a flush should use
// EnqueueCreateEntities instead.
func (w *World) CreateEntities(n int, components ...Component) ([]Entity, error) {
	return w.createEntities(n, components...)
}

func (w *World) createEntities(n int, components ...Component) ([]Entity, error) {
	sig := NewSignature(w.registry, components...)
	arch, err := w.archetypes.GetOrCreate(sig, components...)
	if err != nil {
		return nil, err
	}
	out := make([]Entity, n)
	for i := 0; i < n; i++ {
		e, err := w.allocator.alloc(w.index)
		if err != nil {
			return nil, err
		}
		row, err := arch.pushRow(e)
		if err != nil {
			return nil, err
		}
		w.index.set(e.Index(), e.Generation(), arch.id, row)
		out[i] = e
	}
	return out, nil
}

// EnqueueCreateEntities queues entity creation for the next flush if the
// World is mid-iteration, otherwise creates them immediately.
func (w *World) EnqueueCreateEntities(n int, components ...Component) {
	if !w.Iterating() {
		_, _ = w.createEntities(n, components...)
		return
	}
	w.deferred.enqueue(createEntitiesCommand{count: n, components: components})
}

// Destroy removes e from the World immediately. A stale or already-dead
// handle is a silent no-op, per spec.md 7.
func (w *World) Destroy(e Entity) error {
	return w.destroy(e)
}

func (w *World) destroy(e Entity) error {
	archID, row, ok := w.index.Resolve(e)
	if !ok {
		return nil
	}
	arch := w.archetypes.Get(archID)
	arch.swapRemoveRow(row, w.index)
	w.index.clear(e.Index())
	w.allocator.release(e.Index(), w.index)
	return nil
}

// EnqueueDestroy queues e's destruction for the next flush if the World is
// mid-iteration, otherwise destroys it immediately.
func (w *World) EnqueueDestroy(e Entity) {
	if !w.Iterating() {
		_ = w.destroy(e)
		return
	}
	w.deferred.enqueue(destroyCommand{entity: e})
}

// AddComponent moves e into the archetype that also carries c, leaving its
// other components untouched. A no-op if e already carries c or is stale.
func (w *World) AddComponent(e Entity, c Component) error {
	return w.addComponent(e, c)
}

func (w *World) addComponent(e Entity, c Component) error {
	archID, row, ok := w.index.Resolve(e)
	if !ok {
		return nil
	}
	src := w.archetypes.Get(archID)
	info := w.registry.Info(c)
	if src.signature.Has(info.ID) {
		return nil
	}
	dst, err := w.archetypes.WithAdded(src, c)
	if err != nil {
		return err
	}
	plan := w.archetypes.TransitionPlanFor(src, dst)
	plan.QueueEntity(e, row)
	return plan.Execute(w.index)
}

// AddComponentWithValue is AddComponent followed by setting the component's
// initial value on e.
func (w *World) AddComponentWithValue(e Entity, c Component, value any) error {
	return w.addComponentWithValue(e, c, value)
}

func (w *World) addComponentWithValue(e Entity, c Component, value any) error {
	if err := w.addComponent(e, c); err != nil {
		return err
	}
	archID, row, ok := w.index.Resolve(e)
	if !ok {
		return nil
	}
	arch := w.archetypes.Get(archID)
	valueType := reflect.TypeOf(value)
	for _, col := range arch.tbl.Rows() {
		if col.Type().Elem() == valueType {
			reflect.Value(col).Index(row).Set(reflect.ValueOf(value))
			return nil
		}
	}
	return fmt.Errorf("loom: value type %T does not match any column of component %T", value, c)
}

// RemoveComponent moves e into the archetype without c. A no-op if e doesn't
// carry c or is stale.
func (w *World) RemoveComponent(e Entity, c Component) error {
	return w.removeComponent(e, c)
}

func (w *World) removeComponent(e Entity, c Component) error {
	archID, row, ok := w.index.Resolve(e)
	if !ok {
		return nil
	}
	src := w.archetypes.Get(archID)
	info := w.registry.Info(c)
	if !src.signature.Has(info.ID) {
		return nil
	}
	dst, err := w.archetypes.WithRemoved(src, c)
	if err != nil {
		return err
	}
	plan := w.archetypes.TransitionPlanFor(src, dst)
	plan.QueueEntity(e, row)
	return plan.Execute(w.index)
}

// EnqueueAddComponent queues a component add for the next flush if the World
// is mid-iteration, otherwise applies it immediately.
func (w *World) EnqueueAddComponent(e Entity, c Component) {
	if !w.Iterating() {
		_ = w.addComponent(e, c)
		return
	}
	w.deferred.enqueue(addComponentCommand{entity: e, generation: e.Generation(), component: c})
}

// EnqueueAddComponentWithValue is EnqueueAddComponent carrying an initial
// value; the value is retained, untouched, until the command is applied.
func (w *World) EnqueueAddComponentWithValue(e Entity, c Component, value any) {
	if !w.Iterating() {
		_ = w.addComponentWithValue(e, c, value)
		return
	}
	w.deferred.enqueue(addComponentCommand{
		entity: e, generation: e.Generation(), component: c, value: value, hasValue: true,
	})
}

// EnqueueRemoveComponent queues a component removal for the next flush if
// the World is mid-iteration, otherwise applies it immediately.
func (w *World) EnqueueRemoveComponent(e Entity, c Component) {
	if !w.Iterating() {
		_ = w.removeComponent(e, c)
		return
	}
	w.deferred.enqueue(removeComponentCommand{entity: e, component: c})
}
