package loom

import (
	"github.com/TheBitDrifter/table"
	"golang.org/x/sync/errgroup"
)

// ForEach walks every entity matching q within world, in ascending archetype
// id then ascending row order, invoking fn once per entity. It is a thin
// convenience wrapper around Cursor for callers that don't need manual
// control over iteration, per spec.md 4.9's serial for_each.
func ForEach(world *World, q QueryNode, fn func(c *Cursor)) {
	cursor := newCursor(q, world)
	for cursor.Next() {
		fn(cursor)
	}
}

// RowFunc processes one row of one archetype's table directly, without going
// through a Cursor — the entry point ParForEach hands to each worker, since a
// Cursor's mutable position cannot be shared safely across goroutines.
type RowFunc func(row int, tbl table.Table)

// ParForEach walks every entity matching q within world exactly like ForEach,
// but processes one archetype's rows across a fixed worker pool, split into
// contiguous chunks, before moving on to the next archetype. Workers for one
// archetype are joined (via errgroup.Wait) before the next archetype's
// workers are started, so fn never runs concurrently across two archetypes
// and the chunk boundaries never split a single row. workers <= 0 defaults to
// 1 (serial); a worker count exceeding an archetype's row count is clamped to
// that row count, so each row becomes its own chunk and no chunk is empty.
func ParForEach(world *World, q QueryNode, workers int, fn RowFunc) error {
	if workers <= 0 {
		workers = 1
	}

	world.enterIteration()
	defer world.exitIteration()

	for _, arch := range world.Archetypes() {
		if !q.Evaluate(arch, world) {
			continue
		}
		if err := parForEachArchetype(arch, workers, fn); err != nil {
			return err
		}
	}
	return nil
}

func parForEachArchetype(arch *Archetype, workers int, fn RowFunc) error {
	n := arch.Len()
	if n == 0 {
		return nil
	}
	if workers > n {
		workers = n
	}

	chunk := (n + workers - 1) / workers
	tbl := arch.Table()

	var g errgroup.Group
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		start, end := start, end
		g.Go(func() error {
			for row := start; row < end; row++ {
				fn(row, tbl)
			}
			return nil
		})
	}
	return g.Wait()
}
