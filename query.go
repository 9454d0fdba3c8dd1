// Package loom provides query mechanisms for component-based entity systems.
package loom

import (
	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
)

// Query is a composable AND/OR/NOT filter over component signatures,
// generalizing the teacher's query.go from the Storage-scoped RowIndexFor
// lookup to the per-World Registry.
type Query interface {
	QueryNode
	And(items ...interface{}) QueryNode
	Or(items ...interface{}) QueryNode
	Not(items ...interface{}) QueryNode
}

// QueryNode is one node of a query tree, evaluated against a candidate
// archetype within a specific World.
type QueryNode interface {
	Evaluate(archetype *Archetype, world *World) bool
}

// QueryOperation defines the logical operations for query nodes.
type QueryOperation int

const (
	OpAnd QueryOperation = iota // Logical AND operation
	OpOr                        // Logical OR operation
	OpNot                       // Logical NOT operation
)

// compositeNode implements a compound query with child nodes.
type compositeNode struct {
	op         QueryOperation
	children   []QueryNode
	components []Component
}

// query implements the Query interface.
type query struct {
	root QueryNode
}

// newQuery creates a new empty query.
func newQuery() Query {
	return &query{}
}

func newCompositeNode(op QueryOperation, components []Component) *compositeNode {
	return &compositeNode{
		op:         op,
		children:   make([]QueryNode, 0),
		components: components,
	}
}

// nodeMaskFor builds the component mask for a node's own (non-child)
// components, consulting Registry.Lookup rather than Registry.Info: a query
// must never silently register a type just because it was named in a filter,
// or "the registry does not know this type" (spec.md 7) could never happen.
// allRegistered is false if any named component has never been registered by
// an actual CreateEntities/AddComponent call; World.noteUnregisteredQuery
// records a diagnostic the first time each such type is seen.
func nodeMaskFor(world *World, components []Component) (m mask.Mask, allRegistered bool) {
	allRegistered = true
	for _, c := range components {
		info, ok := world.registry.Lookup(c)
		if !ok {
			world.noteUnregisteredQuery(c)
			allRegistered = false
			continue
		}
		m.Mark(info.ID)
	}
	return m, allRegistered
}

// Evaluate implements the QueryNode interface for composite nodes.
func (n *compositeNode) Evaluate(archetype *Archetype, world *World) bool {
	nodeMask, allRegistered := nodeMaskFor(world, n.components)
	archMask := archetype.Mask()

	switch n.op {
	case OpAnd:
		// An unregistered component type can't be part of any archetype's
		// signature — no CreateEntities/AddComponent call has ever produced
		// one — so requiring it makes this node's archetype set empty,
		// exactly spec.md 7's "treated as archetype set is empty."
		if !allRegistered {
			return false
		}
		if !archMask.ContainsAll(nodeMask) {
			return false
		}
		for _, child := range n.children {
			if !child.Evaluate(archetype, world) {
				return false
			}
		}
		return true
	case OpOr:
		if archMask.ContainsAny(nodeMask) {
			return true
		}
		for _, child := range n.children {
			if child.Evaluate(archetype, world) {
				return true
			}
		}
		return false
	case OpNot:
		if len(n.children) == 0 {
			return archMask.ContainsNone(nodeMask)
		}
		if len(n.components) > 0 && !archMask.ContainsNone(nodeMask) {
			return false
		}
		for _, child := range n.children {
			if child.Evaluate(archetype, world) {
				return false
			}
		}
		return true
	}
	return false
}

// And creates a new AND operation node with the provided items.
func (q *query) And(items ...interface{}) QueryNode {
	components, children := q.processItems(items...)
	node := newCompositeNode(OpAnd, components)
	node.children = children
	if q.root == nil {
		q.root = node
	}
	return node
}

// Or creates a new OR operation node with the provided items.
func (q *query) Or(items ...interface{}) QueryNode {
	components, children := q.processItems(items...)
	node := newCompositeNode(OpOr, components)
	node.children = children
	if q.root == nil {
		q.root = node
	}
	return node
}

// Not creates a new NOT operation node with the provided items.
func (q *query) Not(items ...interface{}) QueryNode {
	components, children := q.processItems(items...)
	node := newCompositeNode(OpNot, components)
	node.children = children
	if q.root == nil {
		q.root = node
	}
	return node
}

// validateQueryItems checks if all items are of valid types for queries.
func (q *query) validateQueryItems(items ...interface{}) error {
	for _, item := range items {
		switch item.(type) {
		case Component, []Component, QueryNode, Query:
			continue
		default:
			return InvalidQueryItemError{Item: item}
		}
	}
	return nil
}

// processItems converts the input items into components and query nodes.
func (q *query) processItems(items ...interface{}) ([]Component, []QueryNode) {
	if err := q.validateQueryItems(items...); err != nil {
		panic(bark.AddTrace(err))
	}
	components := make([]Component, 0)
	children := make([]QueryNode, 0)
	for _, item := range items {
		switch v := item.(type) {
		case Component:
			components = append(components, v)
		case []Component:
			components = append(components, v...)
		case QueryNode:
			children = append(children, v)
		}
	}
	return components, children
}

// Evaluate implements the QueryNode interface for the query type.
func (q *query) Evaluate(archetype *Archetype, world *World) bool {
	if q.root == nil {
		return false
	}
	return q.root.Evaluate(archetype, world)
}
