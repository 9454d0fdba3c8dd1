package loom

import "testing"

// TestEnqueueAppliesImmediatelyOutsideIteration tests that the Enqueue*
// methods apply at once when the World isn't mid-iteration.
func TestEnqueueAppliesImmediatelyOutsideIteration(t *testing.T) {
	world := newTestWorld(t)
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	entities, err := world.CreateEntities(1, posComp)
	if err != nil {
		t.Fatalf("CreateEntities: %v", err)
	}
	e := entities[0]

	world.EnqueueAddComponent(e, velComp)

	arch, ok := world.ArchetypeOf(e)
	if !ok {
		t.Fatal("entity not resolvable")
	}
	info := world.Registry().Info(velComp)
	if !arch.Signature().Has(info.ID) {
		t.Fatal("EnqueueAddComponent outside iteration should apply immediately")
	}
}

// TestEnqueueDefersUntilFlushDuringIteration tests that Enqueue* calls made
// while a Cursor is active don't take effect until the cursor is exhausted.
func TestEnqueueDefersUntilFlushDuringIteration(t *testing.T) {
	world := newTestWorld(t)
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	entities, err := world.CreateEntities(3, posComp)
	if err != nil {
		t.Fatalf("CreateEntities: %v", err)
	}

	q := Factory.NewQuery()
	node := q.And(posComp)
	cursor := Factory.NewCursor(node, world)

	for cursor.Next() {
		e := cursor.CurrentEntity()
		world.EnqueueAddComponent(e, velComp)

		arch, ok := world.ArchetypeOf(e)
		if !ok {
			t.Fatal("entity not resolvable mid-iteration")
		}
		info := world.Registry().Info(velComp)
		if arch.Signature().Has(info.ID) {
			t.Fatal("deferred add should not be visible before the cursor is exhausted")
		}
	}

	for _, e := range entities {
		arch, ok := world.ArchetypeOf(e)
		if !ok {
			t.Fatal("entity not resolvable after flush")
		}
		info := world.Registry().Info(velComp)
		if !arch.Signature().Has(info.ID) {
			t.Error("deferred add should be visible once the cursor flushed")
		}
	}
}

// TestDeferredCommandsApplyInFIFOOrder tests that queued commands apply in
// the order they were enqueued: of two queued writes to the same component,
// the later one wins.
func TestDeferredCommandsApplyInFIFOOrder(t *testing.T) {
	world := newTestWorld(t)
	posComp := FactoryNewComponent[Position]()

	entities, err := world.CreateEntities(1, posComp)
	if err != nil {
		t.Fatalf("CreateEntities: %v", err)
	}
	e := entities[0]

	world.BeginPhase()
	world.EnqueueAddComponentWithValue(e, posComp, Position{X: 1, Y: 1})
	world.EnqueueAddComponentWithValue(e, posComp, Position{X: 2, Y: 2})
	world.EndPhase()

	pos, ok := posComp.GetFromEntity(e, world)
	if !ok {
		t.Fatal("position missing after flush")
	}
	// The second enqueued write wins since both target the same component on
	// the same entity and apply in FIFO order.
	if pos.X != 2 || pos.Y != 2 {
		t.Errorf("position = {%v, %v}, want {2, 2} (the later of two queued writes)", pos.X, pos.Y)
	}
}

// TestDeferredAddComponentWithValuePreservesPayload tests that a value
// attached to a deferred AddComponentWithValue call survives, unmodified,
// until flush — even if the local variable holding it would otherwise be
// reused or mutated by the caller.
func TestDeferredAddComponentWithValuePreservesPayload(t *testing.T) {
	world := newTestWorld(t)
	healthComp := FactoryNewComponent[Health]()

	entities, err := world.CreateEntities(1)
	if err != nil {
		t.Fatalf("CreateEntities: %v", err)
	}
	e := entities[0]

	world.BeginPhase()
	value := Health{Current: 10, Max: 10}
	world.EnqueueAddComponentWithValue(e, healthComp, value)
	value.Current = 0 // mutating the local must not affect the queued payload
	world.EndPhase()

	health, ok := healthComp.GetFromEntity(e, world)
	if !ok {
		t.Fatal("health missing after flush")
	}
	if health.Current != 10 || health.Max != 10 {
		t.Errorf("health = %+v, want {10 10}", *health)
	}
}

// TestDeferredDestroyThenAddIsANoOp tests that a deferred AddComponent
// targeting an entity destroyed earlier in the same flush has no effect.
func TestDeferredDestroyThenAddIsANoOp(t *testing.T) {
	world := newTestWorld(t)
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	entities, err := world.CreateEntities(1, posComp)
	if err != nil {
		t.Fatalf("CreateEntities: %v", err)
	}
	e := entities[0]

	world.BeginPhase()
	world.EnqueueDestroy(e)
	world.EnqueueAddComponent(e, velComp)
	world.EndPhase()

	if world.IsAlive(e) {
		t.Fatal("entity should be dead after the deferred destroy flushed")
	}
}
