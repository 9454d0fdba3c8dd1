package loom

import (
	"iter"

	"github.com/TheBitDrifter/table"
)

// Cursor provides serial iteration over the entities of every archetype
// matching a Query within one World, generalizing the teacher's cursor.go.
// Where the teacher's Initialize/Reset paired with AddLock/RemoveLock bit
// counters, Cursor now pairs with World.enterIteration/exitIteration's plain
// re-entrant depth counter — structural mutations issued through the World
// while any Cursor (or ForEach/ParForEach) is active get deferred and flushed
// once the outermost iteration completes.
type Cursor struct {
	query QueryNode
	world *World

	currentArchetype *Archetype
	archetypeIndex   int
	entityIndex      int
	remaining        int

	initialized bool
	matched     []*Archetype
}

// newCursor creates a new cursor for the given query and world.
func newCursor(query QueryNode, world *World) *Cursor {
	return &Cursor{query: query, world: world}
}

// Next advances to the next entity and returns whether one exists.
func (c *Cursor) Next() bool {
	if c.entityIndex < c.remaining {
		c.entityIndex++
		return true
	}
	return c.advance()
}

// advance moves to the next matched archetype with remaining entities.
func (c *Cursor) advance() bool {
	if !c.initialized {
		c.Initialize()
	}

	for c.archetypeIndex < len(c.matched) {
		c.currentArchetype = c.matched[c.archetypeIndex]
		c.remaining = c.currentArchetype.Len()
		if c.entityIndex < c.remaining {
			c.entityIndex++
			return true
		}
		c.archetypeIndex++
		c.entityIndex = 0
	}

	c.Reset()
	return false
}

// Entities returns an iterator sequence over (row, table) pairs for every
// entity matching the query. Ranging over it brackets the whole walk in one
// enterIteration/exitIteration pair, same as Initialize/Reset.
func (c *Cursor) Entities() iter.Seq2[int, table.Table] {
	return func(yield func(int, table.Table) bool) {
		c.Initialize()

		for c.archetypeIndex < len(c.matched) {
			c.currentArchetype = c.matched[c.archetypeIndex]
			c.remaining = c.currentArchetype.Len()

			for c.entityIndex < c.remaining {
				if !yield(c.entityIndex, c.currentArchetype.Table()) {
					c.Reset()
					return
				}
				c.entityIndex++
			}

			c.entityIndex = 0
			c.archetypeIndex++
		}

		c.Reset()
	}
}

// Initialize finds every archetype matching the query and enters iteration,
// deferring any structural mutation issued against the World until Reset.
func (c *Cursor) Initialize() {
	if c.initialized {
		return
	}

	c.world.enterIteration()
	c.matched = c.matched[:0]
	for _, arch := range c.world.Archetypes() {
		if c.query.Evaluate(arch, c.world) {
			c.matched = append(c.matched, arch)
		}
	}

	if len(c.matched) > 0 {
		c.archetypeIndex = 0
		c.currentArchetype = c.matched[0]
		c.remaining = c.currentArchetype.Len()
	}
	c.initialized = true
}

// Reset clears cursor state and exits iteration, flushing deferred commands
// if this was the outermost iteration in progress.
func (c *Cursor) Reset() {
	c.archetypeIndex = 0
	c.entityIndex = 0
	c.remaining = 0
	c.matched = nil
	c.initialized = false
	c.world.exitIteration()
}

// CurrentEntity returns the entity handle at the current cursor position.
func (c *Cursor) CurrentEntity() Entity {
	return c.currentArchetype.EntityAt(c.entityIndex - 1)
}

// EntityAtOffset returns the entity handle at offset rows from the current
// position within the current archetype.
func (c *Cursor) EntityAtOffset(offset int) Entity {
	return c.currentArchetype.EntityAt(c.entityIndex - 1 + offset)
}

// EntityIndex returns the cursor's position within the current archetype:
// one past the current row while stepping with Next (CurrentEntity reads row
// EntityIndex()-1).
func (c *Cursor) EntityIndex() int {
	return c.entityIndex
}

// RemainingInArchetype returns the number of rows left in the current
// archetype after the current one.
func (c *Cursor) RemainingInArchetype() int {
	return c.remaining - c.entityIndex
}

// TotalMatched returns the total number of entities matching the query,
// across every matched archetype.
func (c *Cursor) TotalMatched() int {
	if !c.initialized {
		c.Initialize()
	}
	total := 0
	for _, arch := range c.matched {
		total += arch.Len()
	}
	c.Reset()
	return total
}
