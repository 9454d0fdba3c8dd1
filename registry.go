package loom

import (
	"reflect"
	"sync"

	"github.com/TheBitDrifter/table"
)

// ComponentInfo is the registry's record for one component type: its stable id,
// its size in bytes, and whether it can be moved between archetypes with a flat
// byte copy instead of a semantic per-field copy.
type ComponentInfo struct {
	ID                   ComponentID
	Size                 uintptr
	TriviallyRelocatable bool
	typ                  reflect.Type
}

// Registry assigns and remembers ComponentInfo for every component type a
// process touches. It wraps the same table.Schema the archetype catalog uses,
// so a ComponentID always agrees with the schema's row index for that type —
// the registry exists to carry the size/relocatability facts the Transition
// Plan needs that table.Schema itself does not expose.
type Registry struct {
	mu     sync.RWMutex
	schema table.Schema
	byType map[reflect.Type]ComponentInfo
}

// NewRegistry builds a Registry over an existing table.Schema.
func NewRegistry(schema table.Schema) *Registry {
	return &Registry{
		schema: schema,
		byType: make(map[reflect.Type]ComponentInfo, 32),
	}
}

// Info returns the ComponentInfo for c, registering the type on first sight.
// It panics via ComponentLimitExceededError if doing so would exceed
// Config.MaxComponentTypes.
func (r *Registry) Info(c Component) ComponentInfo {
	t := reflect.TypeOf(c)
	r.mu.RLock()
	info, ok := r.byType[t]
	r.mu.RUnlock()
	if ok {
		return info
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if info, ok := r.byType[t]; ok {
		return info
	}
	if len(r.byType) >= Config.MaxComponentTypes() {
		panic(ComponentLimitExceededError{Limit: Config.MaxComponentTypes()})
	}

	r.schema.Register(c)
	id := r.schema.RowIndexFor(c)

	elem := t
	for elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}
	info = ComponentInfo{
		ID:                   id,
		Size:                 elem.Size(),
		TriviallyRelocatable: isTriviallyRelocatable(elem),
		typ:                  t,
	}
	r.byType[t] = info
	return info
}

// Lookup returns the ComponentInfo previously assigned to c, and false if c has
// never been registered.
func (r *Registry) Lookup(c Component) (ComponentInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.byType[reflect.TypeOf(c)]
	return info, ok
}

// isTriviallyRelocatable reports whether a value of type t can be moved between
// archetype rows with a flat byte copy: it holds if t's field tree contains no
// pointer, slice, map, string, channel, interface, or function value anywhere.
// A component holding only numeric/array/bool/fixed-struct data qualifies.
func isTriviallyRelocatable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return isTriviallyRelocatable(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !isTriviallyRelocatable(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		// Ptr, Slice, Map, String, Chan, Interface, Func, UnsafePointer.
		return false
	}
}
