package loom

import "github.com/TheBitDrifter/table"

// Component is a data attribute that can be attached to entities. A component
// value is also used as a query token: an AccessibleComponent[T] built by
// FactoryNewComponent[T] satisfies this interface.
type Component interface {
	table.ElementType
}

// ComponentID is the stable, process-lifetime identifier assigned to a
// component type the first time it is referenced. It also doubles as the bit
// position the type occupies in a Signature.
type ComponentID = uint32
