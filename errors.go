package loom

import "fmt"

// ComponentLimitExceededError is returned when registering a component type would
// exceed Config.MaxComponentTypes, the width of the Mask signature backing.
type ComponentLimitExceededError struct {
	Limit int
}

func (e ComponentLimitExceededError) Error() string {
	return fmt.Sprintf("loom: component registry full (limit %d)", e.Limit)
}

// UnregisteredComponentError describes a query referencing a component type
// the registry has never seen. Per spec.md 7 this is not a Go error returned
// to a caller — a query naming an unregistered type behaves as if it matched
// no archetypes at all — but its Error() text is what World.Diagnostics()
// records so the condition is still visible to the host.
type UnregisteredComponentError struct {
	Component Component
}

func (e UnregisteredComponentError) Error() string {
	return fmt.Sprintf("loom: component %T was never registered", e.Component)
}

// InvalidQueryItemError is returned when And/Or/Not receives an argument that is
// neither a Component, a []Component, nor a QueryNode.
type InvalidQueryItemError struct {
	Item any
}

func (e InvalidQueryItemError) Error() string {
	return fmt.Sprintf("loom: invalid query item type %T; want Component, []Component, or QueryNode", e.Item)
}

// EntitySaturationError is returned when every non-sentinel 24-bit index slot is
// occupied by a live entity and no index can be recycled or allocated.
type EntitySaturationError struct{}

func (e EntitySaturationError) Error() string {
	return "loom: entity index space exhausted (2^24-1 live entities)"
}

// archetypeIntegrityError is an internal invariant violation: an archetype's
// table length disagrees with its entity-index bookkeeping. It is never returned
// to a caller; it is wrapped with bark.AddTrace and panics, since it indicates a
// bug in loom itself rather than a misuse by the caller.
type archetypeIntegrityError struct {
	ArchetypeID ArchetypeID
	TableLen    int
	IndexCount  int
}

func (e archetypeIntegrityError) Error() string {
	return fmt.Sprintf(
		"loom: archetype %d integrity violation: table length %d, indexed entity count %d",
		e.ArchetypeID, e.TableLen, e.IndexCount,
	)
}
