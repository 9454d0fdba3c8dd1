/*
Package loom is an archetype-based Entity-Component-System storage engine, paired
with a phase-ordered system scheduler and a deterministic replay facility.

Loom keeps entities that share the same set of component types packed together in
a single archetype so that iterating a query stays cache-friendly. Structural
changes (adding or removing a component, destroying an entity) move an entity
between archetypes; changes issued while a query is being iterated are queued and
applied once iteration finishes, so a running loop never observes a half-moved
archetype.

Core Concepts:

  - Entity: a versioned handle (index + generation) identifying a row in some
    archetype. A stale handle — one whose generation no longer matches the live
    entity occupying that index — is simply inert; it does not error.
  - Component: a plain Go value type registered once via FactoryNewComponent.
  - Archetype: the set of entities sharing one exact component signature, stored
    as a github.com/TheBitDrifter/table.Table.
  - Query: a composable AND/OR/NOT filter over component signatures.
  - World: owns the registry, the archetype catalog, the entity index, and the
    deferred command buffer for one simulation instance.

Basic Usage:

	schema := table.Factory.NewSchema()
	world, _ := loom.Factory.NewWorld(schema)

	position := loom.FactoryNewComponent[Position]()
	velocity := loom.FactoryNewComponent[Velocity]()

	entities, _ := world.CreateEntities(100, position, velocity)

	query := loom.Factory.NewQuery()
	node := query.And(position, velocity)
	cursor := loom.Factory.NewCursor(node, world)

	for cursor.Next() {
		pos := position.GetFromCursor(cursor)
		vel := velocity.GetFromCursor(cursor)
		pos.X += vel.X
		pos.Y += vel.Y
	}

The scheduler subpackage drives a fixed Input -> Simulation -> RenderPrep tick over
a set of registered systems; the replay subpackage records and replays ticks with a
deterministic PRNG so a recorded run reproduces bit-for-bit.
*/
package loom
