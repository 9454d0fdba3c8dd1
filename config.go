package loom

import "github.com/TheBitDrifter/table"

// Config holds process-wide configuration for the storage engine. There is no
// file or flag surface; a host wires these in before building its first World.
var Config config = config{
	defaultArchetypeCapacity: 64,
	maxComponentTypes:        64,
}

type config struct {
	tableEvents table.TableEvents

	// defaultArchetypeCapacity sizes the initial capacity of a freshly created
	// archetype's entity-handle slice; the archetype's table is built without it.
	defaultArchetypeCapacity int

	// maxComponentTypes bounds how many distinct component types a process may
	// register. Kept conservative relative to mask.Mask's bit width, since a
	// Signature is backed by mask.Mask rather than the wider mask.Mask256.
	maxComponentTypes int

	// schedulerDocPath, when non-empty, tells a scheduler.Scheduler to dump its
	// resolved phase/dependency graph to this path when its WriteDoc is called.
	// Empty disables the dump. Diagnostic-only; never read by the engine itself.
	schedulerDocPath string
}

// SetTableEvents configures the table event callbacks used by every archetype
// this process creates afterward.
func (c *config) SetTableEvents(te table.TableEvents) {
	c.tableEvents = te
}

// SetDefaultArchetypeCapacity overrides the initial capacity of new archetypes'
// entity-handle slices. Panics on a non-positive value; it is the only Config
// setter that validates its argument.
func (c *config) SetDefaultArchetypeCapacity(n int) {
	if n <= 0 {
		panic("loom: default archetype capacity must be positive")
	}
	c.defaultArchetypeCapacity = n
}

// SetSchedulerDocPath sets the path a scheduler.Scheduler writes its resolved
// execution plan to when its WriteDoc is called, for operators inspecting
// phase/dependency ordering. Pass "" to disable.
func (c *config) SetSchedulerDocPath(path string) {
	c.schedulerDocPath = path
}

// SchedulerDocPath returns the configured diagnostic dump path, if any.
func (c config) SchedulerDocPath() string {
	return c.schedulerDocPath
}

// DefaultArchetypeCapacity returns the configured initial archetype row capacity.
func (c config) DefaultArchetypeCapacity() int {
	return c.defaultArchetypeCapacity
}

// MaxComponentTypes returns the configured component-type ceiling.
func (c config) MaxComponentTypes() int {
	return c.maxComponentTypes
}
