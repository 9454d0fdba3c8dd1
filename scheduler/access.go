package scheduler

import (
	"reflect"

	"github.com/kestrelsim/loom"
)

// Access names how a System touches one of its declared components. It has
// no effect on execution order; a System's actual ordering comes only from
// DependsOn. Access exists solely so the Scheduler can flag two same-phase,
// unordered systems that touch the same component in a way that could race.
type Access int

const (
	Read Access = iota
	Write
	ReadWrite
)

func (a Access) String() string {
	switch a {
	case Read:
		return "read"
	case Write:
		return "write"
	case ReadWrite:
		return "read-write"
	default:
		return "unknown access"
	}
}

// ComponentAccess pairs a component with how a System touches it.
type ComponentAccess struct {
	Component loom.Component
	Access    Access
}

// conflicts reports whether ca and other name the same component type with
// at least one side writing it.
func (ca ComponentAccess) conflicts(other ComponentAccess) bool {
	if reflect.TypeOf(ca.Component) != reflect.TypeOf(other.Component) {
		return false
	}
	return ca.Access != Read || other.Access != Read
}
