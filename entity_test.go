package loom

import (
	"testing"

	"github.com/TheBitDrifter/table"
)

// Test component types.
type Position struct {
	X, Y float64
}

type Velocity struct {
	X, Y float64
}

type Health struct {
	Current, Max int
}

func newTestWorld(t *testing.T) *World {
	t.Helper()
	w, err := Factory.NewWorld(table.Factory.NewSchema())
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	return w
}

func TestEntityCreation(t *testing.T) {
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	healthComp := FactoryNewComponent[Health]()

	tests := []struct {
		name           string
		componentTypes []Component
		entityCount    int
	}{
		{"Empty entity", nil, 1},
		{"Single component", []Component{posComp}, 10},
		{"Multiple components", []Component{posComp, velComp}, 5},
		{"Large batch", []Component{posComp, velComp, healthComp}, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world := newTestWorld(t)

			entities, err := world.CreateEntities(tt.entityCount, tt.componentTypes...)
			if err != nil {
				t.Fatalf("CreateEntities() error = %v", err)
			}
			if len(entities) != tt.entityCount {
				t.Fatalf("Created %d entities, want %d", len(entities), tt.entityCount)
			}

			for i, e := range entities {
				if !world.IsAlive(e) {
					t.Errorf("entity %d is not alive", i)
				}
				if e.IsNull() {
					t.Errorf("entity %d is the null handle", i)
				}
			}
		})
	}
}

func TestComponentAddRemove(t *testing.T) {
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	healthComp := FactoryNewComponent[Health]()

	tests := []struct {
		name              string
		initialComponents []Component
		addComponents     []Component
		removeComponents  []Component
		wantHas           []Component
		wantMissing       []Component
	}{
		{
			name:              "Add component",
			initialComponents: []Component{posComp},
			addComponents:     []Component{velComp},
			wantHas:           []Component{posComp, velComp},
		},
		{
			name:              "Remove component",
			initialComponents: []Component{posComp, velComp},
			removeComponents:  []Component{velComp},
			wantHas:           []Component{posComp},
			wantMissing:       []Component{velComp},
		},
		{
			name:              "Add and remove",
			initialComponents: []Component{posComp},
			addComponents:     []Component{velComp, healthComp},
			removeComponents:  []Component{posComp},
			wantHas:           []Component{velComp, healthComp},
			wantMissing:       []Component{posComp},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world := newTestWorld(t)

			entities, err := world.CreateEntities(1, tt.initialComponents...)
			if err != nil {
				t.Fatalf("CreateEntities: %v", err)
			}
			e := entities[0]

			for _, c := range tt.addComponents {
				if err := world.AddComponent(e, c); err != nil {
					t.Fatalf("AddComponent: %v", err)
				}
			}
			for _, c := range tt.removeComponents {
				if err := world.RemoveComponent(e, c); err != nil {
					t.Fatalf("RemoveComponent: %v", err)
				}
			}

			arch, ok := world.ArchetypeOf(e)
			if !ok {
				t.Fatalf("entity not resolvable after migration")
			}

			for _, c := range tt.wantHas {
				info := world.Registry().Info(c)
				if !arch.Signature().Has(info.ID) {
					t.Errorf("archetype missing expected component %T", c)
				}
			}
			for _, c := range tt.wantMissing {
				info := world.Registry().Info(c)
				if arch.Signature().Has(info.ID) {
					t.Errorf("archetype still carries component %T that should have been removed", c)
				}
			}
		})
	}
}

func TestComponentValues(t *testing.T) {
	world := newTestWorld(t)

	positionComp := FactoryNewComponent[Position]()
	velocityComp := FactoryNewComponent[Velocity]()
	healthComp := FactoryNewComponent[Health]()

	initialPos := Position{X: 1.0, Y: 2.0}
	initialVel := Velocity{X: 3.0, Y: 4.0}

	entities, err := world.CreateEntities(1, healthComp)
	if err != nil {
		t.Fatalf("CreateEntities: %v", err)
	}
	e := entities[0]

	if err := world.AddComponentWithValue(e, positionComp, initialPos); err != nil {
		t.Fatalf("AddComponentWithValue(position): %v", err)
	}
	if err := world.AddComponentWithValue(e, velocityComp, initialVel); err != nil {
		t.Fatalf("AddComponentWithValue(velocity): %v", err)
	}

	posPtr, ok := positionComp.GetFromEntity(e, world)
	if !ok {
		t.Fatal("position component not found on entity")
	}
	velPtr, ok := velocityComp.GetFromEntity(e, world)
	if !ok {
		t.Fatal("velocity component not found on entity")
	}

	if posPtr.X != initialPos.X || posPtr.Y != initialPos.Y {
		t.Errorf("Position = {%v, %v}, want {%v, %v}", posPtr.X, posPtr.Y, initialPos.X, initialPos.Y)
	}
	if velPtr.X != initialVel.X || velPtr.Y != initialVel.Y {
		t.Errorf("Velocity = {%v, %v}, want {%v, %v}", velPtr.X, velPtr.Y, initialVel.X, initialVel.Y)
	}

	posPtr.X = 5.0
	posPtr.Y = 6.0
	velPtr.X = 7.0
	velPtr.Y = 8.0

	posPtr2, _ := positionComp.GetFromEntity(e, world)
	velPtr2, _ := velocityComp.GetFromEntity(e, world)

	if posPtr2.X != 5.0 || posPtr2.Y != 6.0 {
		t.Errorf("Updated Position = {%v, %v}, want {5.0, 6.0}", posPtr2.X, posPtr2.Y)
	}
	if velPtr2.X != 7.0 || velPtr2.Y != 8.0 {
		t.Errorf("Updated Velocity = {%v, %v}, want {7.0, 8.0}", velPtr2.X, velPtr2.Y)
	}
}

func TestDestroyedEntityOperationsAreNoOps(t *testing.T) {
	world := newTestWorld(t)
	posComp := FactoryNewComponent[Position]()

	entities, err := world.CreateEntities(1, posComp)
	if err != nil {
		t.Fatalf("CreateEntities: %v", err)
	}
	e := entities[0]

	if err := world.Destroy(e); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if world.IsAlive(e) {
		t.Fatal("entity still alive after Destroy")
	}

	if err := world.Destroy(e); err != nil {
		t.Fatalf("second Destroy should be a silent no-op, got %v", err)
	}
	if err := world.AddComponent(e, posComp); err != nil {
		t.Fatalf("AddComponent on a dead handle should be a silent no-op, got %v", err)
	}
	if err := world.RemoveComponent(e, posComp); err != nil {
		t.Fatalf("RemoveComponent on a dead handle should be a silent no-op, got %v", err)
	}
}

func TestGenerationDistinguishesRecycledSlot(t *testing.T) {
	world := newTestWorld(t)
	posComp := FactoryNewComponent[Position]()

	entities, err := world.CreateEntities(1, posComp)
	if err != nil {
		t.Fatalf("CreateEntities: %v", err)
	}
	first := entities[0]

	if err := world.Destroy(first); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	entities, err = world.CreateEntities(1, posComp)
	if err != nil {
		t.Fatalf("CreateEntities (recycle): %v", err)
	}
	second := entities[0]

	if first.Index() != second.Index() {
		t.Skip("allocator did not recycle the freed slot in this run")
	}
	if first.Generation() == second.Generation() {
		t.Fatal("recycled slot should carry a bumped generation")
	}
	if world.IsAlive(first) {
		t.Fatal("stale handle into a recycled slot should not resolve as alive")
	}
	if !world.IsAlive(second) {
		t.Fatal("freshly recycled handle should be alive")
	}
}
