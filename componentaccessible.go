package loom

import "github.com/TheBitDrifter/table"

// AccessibleComponent extends a base Component with table-based accessibility.
// It provides methods to retrieve components using different access patterns.
type AccessibleComponent[T any] struct {
	Component
	table.Accessor[T] // concrete.
}

// GetFromCursor retrieves a component value for the entity at the cursor's
// current position.
func (c AccessibleComponent[T]) GetFromCursor(cursor *Cursor) *T {
	return c.Get(cursor.entityIndex-1, cursor.currentArchetype.Table())
}

// GetFromCursorSafe safely retrieves a component value, checking if the
// component exists on the cursor's current archetype first. Returns a
// boolean indicating success and the component pointer if found.
func (c AccessibleComponent[T]) GetFromCursorSafe(cursor *Cursor) (bool, *T) {
	if !c.Accessor.Check(cursor.currentArchetype.Table()) {
		return false, nil
	}
	return true, c.GetFromCursor(cursor)
}

// CheckCursor determines if the component exists in the archetype at the
// cursor's current position.
func (c AccessibleComponent[T]) CheckCursor(cursor *Cursor) bool {
	return c.Accessor.Check(cursor.currentArchetype.Table())
}

// GetFromEntity retrieves a component value for the specified entity.
func (c AccessibleComponent[T]) GetFromEntity(e Entity, world *World) (*T, bool) {
	archID, row, ok := world.EntityIndex().Resolve(e)
	if !ok {
		return nil, false
	}
	arch := world.archetypes.Get(archID)
	if !c.Accessor.Check(arch.Table()) {
		return nil, false
	}
	return c.Get(row, arch.Table()), true
}

// GetFromRow retrieves a component value directly from a (row, table) pair,
// the access pattern ParForEach's RowFunc callbacks use.
func (c AccessibleComponent[T]) GetFromRow(row int, tbl table.Table) *T {
	return c.Get(row, tbl)
}
