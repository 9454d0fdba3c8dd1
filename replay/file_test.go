package replay

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"testing"
)

func TestRecorderPlayerRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	snapshot := []byte("initial-entity-state")
	rec, err := NewRecorder(&buf, 0xDEADBEEF, snapshot)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	frames := []Frame{
		{Tick: 0, Elapsed: 1.0 / 60, Input: []byte("a"), RNGStates: map[string]uint64{"global": 1}, EntityDiff: []byte("diff0")},
		{Tick: 1, Elapsed: 1.0 / 60, Input: nil, RNGStates: map[string]uint64{"global": 2, "combat": 9}, EntityDiff: []byte("diff1")},
		{Tick: 2, Elapsed: 1.0 / 60, Input: []byte("c"), RNGStates: map[string]uint64{"global": 3}, EntityDiff: nil},
	}
	for _, f := range frames {
		if err := rec.Append(f); err != nil {
			t.Fatalf("Append tick %d: %v", f.Tick, err)
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	player, err := OpenPlayer(bytes.NewReader(buf.Bytes()), "memory")
	if err != nil {
		t.Fatalf("OpenPlayer: %v", err)
	}
	defer player.Close()

	if player.Header.Seed != 0xDEADBEEF {
		t.Fatalf("header seed: want 0xDEADBEEF, got %#x", player.Header.Seed)
	}
	if !bytes.Equal(player.Header.Snapshot, snapshot) {
		t.Fatalf("header snapshot: want %q, got %q", snapshot, player.Header.Snapshot)
	}

	for i, want := range frames {
		got, err := player.Next()
		if err != nil {
			t.Fatalf("Next frame %d: %v", i, err)
		}
		if got.Tick != want.Tick || got.Elapsed != want.Elapsed {
			t.Fatalf("frame %d: want tick/elapsed %d/%f, got %d/%f", i, want.Tick, want.Elapsed, got.Tick, got.Elapsed)
		}
		if !bytes.Equal(got.Input, want.Input) {
			t.Fatalf("frame %d: input mismatch: want %q, got %q", i, want.Input, got.Input)
		}
		if !bytes.Equal(got.EntityDiff, want.EntityDiff) {
			t.Fatalf("frame %d: entity diff mismatch: want %q, got %q", i, want.EntityDiff, got.EntityDiff)
		}
		if !reflect.DeepEqual(got.RNGStates, want.RNGStates) {
			t.Fatalf("frame %d: rng states mismatch: want %v, got %v", i, want.RNGStates, got.RNGStates)
		}
	}

	if _, err := player.Next(); err != io.EOF {
		t.Fatalf("want io.EOF after the last frame, got %v", err)
	}
}

func TestOpenPlayerRejectsGarbage(t *testing.T) {
	_, err := OpenPlayer(bytes.NewReader([]byte("not a real replay file, just junk bytes")), "garbage")
	if err == nil {
		t.Fatal("expected an error opening a non-replay file")
	}
	var ioErr IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("want IOError, got %v (%T)", err, err)
	}
}
