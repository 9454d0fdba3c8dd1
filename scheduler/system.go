package scheduler

import "github.com/kestrelsim/loom"

// UpdateFunc is the work a System performs once per tick it runs in.
type UpdateFunc func(world *loom.World, dt float64) error

// System describes one unit of per-tick work: the phase it runs in, the
// components it touches (diagnostic only), the other same-phase systems it
// must run after, and the function that does the work.
type System struct {
	Name      string
	Phase     Phase
	Access    []ComponentAccess
	DependsOn []string
	Update    UpdateFunc
}
