// Package scheduler drives a World through a fixed three-phase tick —
// input, simulation, render-prep — resolving each phase's systems into a
// dependency-respecting execution order and flagging, without failing the
// build, same-phase systems whose declared component access could race.
package scheduler

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/TheBitDrifter/bark"
	"github.com/kestrelsim/loom"
)

// SystemMetrics tracks one system's run history across ticks.
type SystemMetrics struct {
	Name          string
	RunCount      int
	TotalDuration time.Duration
	LastDuration  time.Duration
	LastErr       error
}

type registeredSystem struct {
	system   System
	enabled  bool
	regOrder int
}

// Scheduler registers systems into fixed phases and runs them in dependency
// order every tick, generalizing the teacher's SystemManagerImpl from one
// flat priority list into spec.md's fixed Input/Simulation/RenderPrep
// grouping, with a real per-phase topological sort in place of the
// teacher's unimplemented RecomputeExecutionOrder stub.
type Scheduler struct {
	mu sync.RWMutex

	systems  map[string]*registeredSystem
	byPhase  map[Phase][]string
	order    map[Phase][]string
	dirty    map[Phase]bool
	nextOrd  int

	diagnostics []string

	metrics map[string]*SystemMetrics

	errorHandler func(systemName string, err error) error
}

// New builds an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{
		systems: make(map[string]*registeredSystem),
		byPhase: make(map[Phase][]string),
		order:   make(map[Phase][]string),
		dirty:   make(map[Phase]bool),
		metrics: make(map[string]*SystemMetrics),
	}
}

// SetErrorHandler installs a callback invoked whenever a system's Update
// returns a non-nil error. If the handler itself returns an error, the
// current tick aborts after the in-flight phase's deferred commands flush.
// A nil handler (the default) logs the error into the system's metrics and
// continues to the next system, matching the teacher's "store error but
// continue execution" posture.
func (s *Scheduler) SetErrorHandler(h func(systemName string, err error) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorHandler = h
}

// Register adds a system to the scheduler. The system's DependsOn entries
// must all name systems already registered in the same phase; a dependency
// on an unknown name, a cross-phase name, or one that would create a cycle
// is rejected before the system is added.
func (s *Scheduler) Register(sys System) error {
	if sys.Name == "" {
		return fmt.Errorf("scheduler: system must have a non-empty Name")
	}
	if sys.Update == nil {
		return fmt.Errorf("scheduler: system %q has a nil Update function", sys.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.systems[sys.Name]; exists {
		return DuplicateSystemError{Name: sys.Name}
	}
	for _, dep := range sys.DependsOn {
		rs, ok := s.systems[dep]
		if !ok {
			return UnknownSystemError{Name: dep}
		}
		if rs.system.Phase != sys.Phase {
			return CrossPhaseDependencyError{System: sys.Name, Dependency: dep}
		}
	}

	s.systems[sys.Name] = &registeredSystem{system: sys, enabled: true, regOrder: s.nextOrd}
	s.nextOrd++
	s.byPhase[sys.Phase] = append(s.byPhase[sys.Phase], sys.Name)
	s.metrics[sys.Name] = &SystemMetrics{Name: sys.Name}
	s.dirty[sys.Phase] = true

	if s.wouldCreateCycle(sys.Phase) {
		// Undo the registration; the caller gets a clear error instead of a
		// scheduler stuck unable to compute an order for this phase.
		s.unregisterLocked(sys.Name)
		return CircularDependencyError{System: sys.Name, Dependency: strings.Join(sys.DependsOn, ", ")}
	}

	return nil
}

// Unregister removes a system. Other systems that named it in DependsOn are
// left referencing an unknown name; that dependency can never be satisfied,
// so the next recompute of the phase order fails with a
// CircularDependencyError naming the phase.
func (s *Scheduler) Unregister(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.systems[name]; !ok {
		return UnknownSystemError{Name: name}
	}
	s.unregisterLocked(name)
	return nil
}

func (s *Scheduler) unregisterLocked(name string) {
	rs, ok := s.systems[name]
	if !ok {
		return
	}
	delete(s.systems, name)
	delete(s.metrics, name)
	names := s.byPhase[rs.system.Phase]
	for i, n := range names {
		if n == name {
			s.byPhase[rs.system.Phase] = append(names[:i], names[i+1:]...)
			break
		}
	}
	s.dirty[rs.system.Phase] = true
}

// Enable turns a disabled system back on.
func (s *Scheduler) Enable(name string) error { return s.setEnabled(name, true) }

// Disable skips a system's Update for every subsequent tick without
// unregistering it.
func (s *Scheduler) Disable(name string) error { return s.setEnabled(name, false) }

func (s *Scheduler) setEnabled(name string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs, ok := s.systems[name]
	if !ok {
		return UnknownSystemError{Name: name}
	}
	rs.enabled = enabled
	return nil
}

// IsEnabled reports whether name is registered and currently enabled.
func (s *Scheduler) IsEnabled(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rs, ok := s.systems[name]
	return ok && rs.enabled
}

// wouldCreateCycle reports whether the dependency graph for phase, as it
// currently stands, contains a cycle. Grounded in the teacher's
// hasCycleDFS/wouldCreateCycle pair, adapted to walk one phase's subgraph.
func (s *Scheduler) wouldCreateCycle(phase Phase) bool {
	visiting := make(map[string]bool)
	done := make(map[string]bool)
	var visit func(name string) bool
	visit = func(name string) bool {
		if done[name] {
			return false
		}
		if visiting[name] {
			return true
		}
		rs, ok := s.systems[name]
		if !ok {
			// A dependency left dangling by Unregister has no edges of its own.
			return false
		}
		visiting[name] = true
		for _, dep := range rs.system.DependsOn {
			if visit(dep) {
				return true
			}
		}
		visiting[name] = false
		done[name] = true
		return false
	}
	for _, name := range s.byPhase[phase] {
		if visit(name) {
			return true
		}
	}
	return false
}

// ExecutionOrder returns the resolved execution order for phase, recomputing
// it first if the phase's registration has changed since the last compute.
func (s *Scheduler) ExecutionOrder(phase Phase) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirty[phase] {
		if err := s.recompute(phase); err != nil {
			return nil, err
		}
	}
	out := make([]string, len(s.order[phase]))
	copy(out, s.order[phase])
	return out, nil
}

// recompute resolves phase's execution order via Kahn's algorithm, breaking
// ties between simultaneously-ready systems by registration order, and
// records same-phase read/write conflict diagnostics for unordered pairs.
// Callers must hold s.mu.
func (s *Scheduler) recompute(phase Phase) error {
	names := s.byPhase[phase]
	indegree := make(map[string]int, len(names))
	dependents := make(map[string][]string, len(names))
	for _, name := range names {
		indegree[name] = 0
	}
	for _, name := range names {
		for _, dep := range s.systems[name].system.DependsOn {
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var order []string
	remaining := make(map[string]bool, len(names))
	for _, name := range names {
		remaining[name] = true
	}

	for len(order) < len(names) {
		var ready []string
		for name := range remaining {
			if indegree[name] == 0 {
				ready = append(ready, name)
			}
		}
		if len(ready) == 0 {
			return CircularDependencyError{System: phase.String()}
		}
		sort.Slice(ready, func(i, j int) bool {
			return s.systems[ready[i]].regOrder < s.systems[ready[j]].regOrder
		})
		next := ready[0]
		order = append(order, next)
		delete(remaining, next)
		for _, dependent := range dependents[next] {
			indegree[dependent]--
		}
	}

	s.order[phase] = order
	s.dirty[phase] = false
	s.recordDiagnostics(phase, order)
	return nil
}

// orderedPair reports whether a dependency path connects a and b, in either
// direction, which means their relative order is already pinned and any
// shared access is not a race.
func (s *Scheduler) orderedPair(a, b string) bool {
	visited := make(map[string]bool)
	var reaches func(from, to string) bool
	reaches = func(from, to string) bool {
		if from == to {
			return true
		}
		if visited[from] {
			return false
		}
		visited[from] = true
		for _, dep := range s.systems[from].system.DependsOn {
			if reaches(dep, to) {
				return true
			}
		}
		return false
	}
	return reaches(a, b) || reaches(b, a)
}

// recordDiagnostics appends a warning string, never an error, for every
// unordered pair of systems in phase whose declared Access overlaps with at
// least one Write. Callers must hold s.mu.
func (s *Scheduler) recordDiagnostics(phase Phase, order []string) {
	for i := 0; i < len(order); i++ {
		for j := i + 1; j < len(order); j++ {
			a, b := order[i], order[j]
			if s.orderedPair(a, b) {
				continue
			}
			for _, accA := range s.systems[a].system.Access {
				for _, accB := range s.systems[b].system.Access {
					if accA.conflicts(accB) {
						s.diagnostics = append(s.diagnostics, fmt.Sprintf(
							"scheduler: phase %s: %q and %q both touch a %T with no dependency between them",
							phase, a, b, accA.Component,
						))
					}
				}
			}
		}
	}
}

// Diagnostics returns every conflict warning recorded across all phases so
// far, in the order they were discovered. Diagnostics never block Update;
// they exist for a caller to log or assert against in tests.
func (s *Scheduler) Diagnostics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.diagnostics))
	copy(out, s.diagnostics)
	return out
}

// Update runs one full tick: every enabled system in PhaseInput, then
// PhaseSimulation, then PhaseRenderPrep, in each phase's resolved order.
// Each phase is bracketed in one World.BeginPhase/EndPhase pair, so a whole
// phase's structural mutations land as a single batch. A system panic is
// recovered, recorded, and aborts the remainder of the tick — but only
// after the in-flight phase's EndPhase has flushed whatever was already
// queued.
func (s *Scheduler) Update(world *loom.World, dt float64) error {
	for _, phase := range Phases() {
		if err := s.runPhase(world, phase, dt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) runPhase(world *loom.World, phase Phase, dt float64) error {
	order, err := s.ExecutionOrder(phase)
	if err != nil {
		return err
	}

	world.BeginPhase()
	defer world.EndPhase()

	for _, name := range order {
		s.mu.RLock()
		rs, ok := s.systems[name]
		s.mu.RUnlock()
		if !ok || !rs.enabled {
			continue
		}
		if err := s.runSystem(world, &rs.system, dt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) runSystem(world *loom.World, sys *System, dt float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			wrapped := fmt.Errorf("scheduler: system %q panicked: %v", sys.Name, r)
			err = bark.AddTrace(wrapped)
			s.recordRun(sys.Name, 0, err)
		}
	}()

	start := time.Now()
	runErr := sys.Update(world, dt)
	elapsed := time.Since(start)
	s.recordRun(sys.Name, elapsed, runErr)

	if runErr == nil {
		return nil
	}
	if s.errorHandler != nil {
		return s.errorHandler(sys.Name, runErr)
	}
	return nil
}

func (s *Scheduler) recordRun(name string, elapsed time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.metrics[name]
	if !ok {
		return
	}
	m.RunCount++
	m.LastDuration = elapsed
	m.TotalDuration += elapsed
	m.LastErr = err
}

// Metrics returns a copy of the recorded run history for name.
func (s *Scheduler) Metrics(name string) (SystemMetrics, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.metrics[name]
	if !ok {
		return SystemMetrics{}, false
	}
	return *m, true
}

// ResetMetrics clears every system's recorded run history.
func (s *Scheduler) ResetMetrics() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.metrics {
		s.metrics[name] = &SystemMetrics{Name: name}
	}
}

// DumpExecutionOrder renders every phase's resolved order and this
// scheduler's outstanding diagnostics as plain text, recomputing any dirty
// phase first.
func (s *Scheduler) DumpExecutionOrder() (string, error) {
	var b strings.Builder
	for _, phase := range Phases() {
		order, err := s.ExecutionOrder(phase)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s:\n", phase)
		for i, name := range order {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, name)
		}
	}
	if diags := s.Diagnostics(); len(diags) > 0 {
		b.WriteString("diagnostics:\n")
		for _, d := range diags {
			fmt.Fprintf(&b, "  - %s\n", d)
		}
	}
	return b.String(), nil
}

// WriteDoc writes DumpExecutionOrder's output to loom.Config.SchedulerDocPath,
// a no-op if that path is unset. Intended for a host to call once after
// registering all of its systems, for operators inspecting phase ordering.
func (s *Scheduler) WriteDoc() error {
	path := loom.Config.SchedulerDocPath()
	if path == "" {
		return nil
	}
	dump, err := s.DumpExecutionOrder()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(dump), 0o644)
}
