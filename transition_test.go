package loom

import "testing"

// TestTransitionPlanCoalescesContiguousRows tests that QueueEntity merges
// adjacent rows into one range instead of one range per entity.
func TestTransitionPlanCoalescesContiguousRows(t *testing.T) {
	world := newTestWorld(t)
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	entities, err := world.CreateEntities(4, posComp)
	if err != nil {
		t.Fatalf("CreateEntities: %v", err)
	}

	src, ok := world.ArchetypeOf(entities[0])
	if !ok {
		t.Fatal("source archetype not found")
	}
	dst, err := world.archetypes.WithAdded(src, velComp)
	if err != nil {
		t.Fatalf("WithAdded: %v", err)
	}
	plan := world.archetypes.TransitionPlanFor(src, dst)

	// Rows 0,1,2,3 are contiguous: one queued range.
	for row := 0; row < 4; row++ {
		plan.QueueEntity(entities[row], row)
	}
	if got := plan.RangeCount(); got != 1 {
		t.Fatalf("RangeCount() = %d, want 1 for four contiguous rows", got)
	}

	if err := plan.Execute(world.index); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if plan.RangeCount() != 0 {
		t.Fatalf("RangeCount() after Execute = %d, want 0", plan.RangeCount())
	}
}

// TestTransitionPlanSeparatesNonContiguousRows tests that a gap between
// queued rows starts a new range.
func TestTransitionPlanSeparatesNonContiguousRows(t *testing.T) {
	world := newTestWorld(t)
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	entities, err := world.CreateEntities(5, posComp)
	if err != nil {
		t.Fatalf("CreateEntities: %v", err)
	}

	src, _ := world.ArchetypeOf(entities[0])
	dst, err := world.archetypes.WithAdded(src, velComp)
	if err != nil {
		t.Fatalf("WithAdded: %v", err)
	}
	plan := world.archetypes.TransitionPlanFor(src, dst)

	plan.QueueEntity(entities[0], 0)
	plan.QueueEntity(entities[1], 1)
	plan.QueueEntity(entities[3], 3) // gap at row 2
	plan.QueueEntity(entities[4], 4)

	if got := plan.RangeCount(); got != 2 {
		t.Fatalf("RangeCount() = %d, want 2 (rows {0,1} and {3,4})", got)
	}
}

// TestTransitionPlanMigrationPreservesValuesAndIntegrity tests that migrating
// a batch of entities through a shared TransitionPlan carries every common
// component's value forward and leaves both archetypes internally consistent.
func TestTransitionPlanMigrationPreservesValuesAndIntegrity(t *testing.T) {
	world := newTestWorld(t)
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	entities, err := world.CreateEntities(6, posComp)
	if err != nil {
		t.Fatalf("CreateEntities: %v", err)
	}
	for i, e := range entities {
		if err := world.AddComponentWithValue(e, posComp, Position{X: float64(i), Y: float64(i) * 2}); err != nil {
			t.Fatalf("AddComponentWithValue: %v", err)
		}
	}

	for _, e := range entities {
		if err := world.AddComponent(e, velComp); err != nil {
			t.Fatalf("AddComponent: %v", err)
		}
	}

	for i, e := range entities {
		pos, ok := posComp.GetFromEntity(e, world)
		if !ok {
			t.Fatalf("entity %d lost its position across migration", i)
		}
		if pos.X != float64(i) || pos.Y != float64(i)*2 {
			t.Errorf("entity %d position = {%v, %v}, want {%v, %v}", i, pos.X, pos.Y, i, float64(i)*2)
		}
		arch, ok := world.ArchetypeOf(e)
		if !ok {
			t.Fatalf("entity %d not resolvable after migration", i)
		}
		velInfo := world.Registry().Info(velComp)
		if !arch.Signature().Has(velInfo.ID) {
			t.Errorf("entity %d's archetype missing velocity after migration", i)
		}
	}
}
