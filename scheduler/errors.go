package scheduler

import "fmt"

// DuplicateSystemError is returned by Register when a system with the same
// Name is already registered.
type DuplicateSystemError struct {
	Name string
}

func (e DuplicateSystemError) Error() string {
	return fmt.Sprintf("scheduler: system %q already registered", e.Name)
}

// UnknownSystemError is returned when a call names a system that was never
// registered, or a DependsOn entry that names one.
type UnknownSystemError struct {
	Name string
}

func (e UnknownSystemError) Error() string {
	return fmt.Sprintf("scheduler: unknown system %q", e.Name)
}

// CrossPhaseDependencyError is returned when a System's DependsOn names a
// system registered in a different phase. Phase order already fixes the
// relationship between phases; DependsOn only orders systems sharing a
// phase.
type CrossPhaseDependencyError struct {
	System     string
	Dependency string
}

func (e CrossPhaseDependencyError) Error() string {
	return fmt.Sprintf(
		"scheduler: system %q cannot depend on %q, they run in different phases",
		e.System, e.Dependency,
	)
}

// CircularDependencyError is returned when registering a dependency would
// create a cycle among same-phase systems.
type CircularDependencyError struct {
	System     string
	Dependency string
}

func (e CircularDependencyError) Error() string {
	return fmt.Sprintf(
		"scheduler: dependency %q -> %q would create a cycle",
		e.System, e.Dependency,
	)
}
