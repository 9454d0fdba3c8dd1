package loom

import (
	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
)

// ArchetypeID is the monotonically assigned, process-lifetime identifier of
// an archetype within one World's catalog.
type ArchetypeID uint32

// Archetype is the set of entities sharing one exact component signature,
// backed by a table.Table for the actual column storage. Rows are addressed
// by position; row 0..Len()-1 are always contiguous (swap-remove keeps it
// that way), which is what lets Query iteration and the Transition Plan's
// range coalescing both assume dense rows.
type Archetype struct {
	id         ArchetypeID
	signature  Signature
	tbl        table.Table
	components []Component
	// entities maps each row to the handle currently occupying it, so a
	// swap-remove can tell the EntityIndex which handle moved.
	entities []Entity
}

// newArchetype builds a fresh Archetype over a new table.Table for the given
// component set.
func newArchetype(schema table.Schema, entryIndex table.EntryIndex, id ArchetypeID, sig Signature, components ...Component) (*Archetype, error) {
	elementTypes := make([]table.ElementType, len(components))
	for i, c := range components {
		elementTypes[i] = c
	}
	tbl, err := table.NewTableBuilder().
		WithSchema(schema).
		WithEntryIndex(entryIndex).
		WithElementTypes(elementTypes...).
		WithEvents(Config.tableEvents).
		Build()
	if err != nil {
		return nil, err
	}
	return &Archetype{
		id:         id,
		signature:  sig,
		tbl:        tbl,
		components: append([]Component(nil), components...),
		entities:   make([]Entity, 0, Config.DefaultArchetypeCapacity()),
	}, nil
}

// ID returns the archetype's catalog identifier.
func (a *Archetype) ID() ArchetypeID { return a.id }

// Signature returns the archetype's component set.
func (a *Archetype) Signature() Signature { return a.signature }

// Table exposes the backing table.Table for component accessors
// (AccessibleComponent[T]) and query evaluation.
func (a *Archetype) Table() table.Table { return a.tbl }

// Len returns the number of rows currently stored.
func (a *Archetype) Len() int { return len(a.entities) }

// EntityAt returns the handle occupying row i.
func (a *Archetype) EntityAt(i int) Entity { return a.entities[i] }

// Mask returns the archetype's signature as the underlying table's own
// mask.Maskable view, so query evaluation can compare directly against it
// without going through the Registry.
func (a *Archetype) Mask() mask.Mask {
	if m, ok := a.tbl.(mask.Maskable); ok {
		return m.Mask()
	}
	return a.signature.Mask()
}

// pushRow appends a new, zero-valued row for e and returns its index.
func (a *Archetype) pushRow(e Entity) (row int, err error) {
	entries, err := a.tbl.NewEntries(1)
	if err != nil {
		return 0, err
	}
	_ = entries
	row = len(a.entities)
	a.entities = append(a.entities, e)
	return row, nil
}

// swapRemoveRow destroys row outright: it deletes the row from the backing
// table and moves the last row's bookkeeping into row's place (spec's O(1)
// swap-remove), reporting the handle that moved into row, if any.
func (a *Archetype) swapRemoveRow(row int, index *EntityIndex) (moved Entity, ok bool) {
	if _, err := a.tbl.DeleteEntries(row); err != nil {
		panic(bark.AddTrace(err))
	}
	return a.bookkeepRemoval(row, index)
}

// bookkeepRemoval updates only this archetype's own row->handle bookkeeping
// and the shared EntityIndex after row has already been removed from the
// backing table by some other call (table.Table.TransferEntries removes the
// source row as part of its own move). It must not call into tbl itself.
func (a *Archetype) bookkeepRemoval(row int, index *EntityIndex) (moved Entity, ok bool) {
	last := len(a.entities) - 1
	if row < 0 || row > last {
		return NullEntity, false
	}
	if row != last {
		movedEntity := a.entities[last]
		a.entities[row] = movedEntity
		index.setRow(movedEntity.Index(), row)
		a.entities = a.entities[:last]
		return movedEntity, true
	}
	a.entities = a.entities[:last]
	return NullEntity, false
}

// appendRow records that e now occupies the next row in this archetype's own
// bookkeeping, used after table.Table.TransferEntries has already appended
// the physical row.
func (a *Archetype) appendRow(e Entity) (row int) {
	row = len(a.entities)
	a.entities = append(a.entities, e)
	return row
}

// validateIntegrity checks the invariant that the backing table's row count
// agrees with this archetype's own entity-row bookkeeping. A mismatch
// indicates a bug in loom's migration or removal logic, not caller misuse, so
// it panics rather than returning an error.
func (a *Archetype) validateIntegrity() bool {
	if a.tbl.Length() != len(a.entities) {
		panic(bark.AddTrace(archetypeIntegrityError{
			ArchetypeID: a.id,
			TableLen:    a.tbl.Length(),
			IndexCount:  len(a.entities),
		}))
	}
	return true
}
