package replay

import (
	"fmt"
	"io"

	"github.com/kestrelsim/loom"
	"github.com/kestrelsim/loom/scheduler"
)

// EntityCodec lets a host supply its own entity-diff encoding. spec.md 9
// deliberately leaves this implementation-defined — component value
// serialization is a host concern, not the storage engine's — requiring
// only that recording and replay round-trip bit-exactly within one build.
type EntityCodec interface {
	Snapshot(world *loom.World) ([]byte, error)
	Apply(world *loom.World, diff []byte) error
}

type mode int

const (
	modeLive mode = iota
	modeRecording
	modePlaying
)

// Controller drives a World through one tick at a time, implementing the
// host-facing recorder/player API spec.md 6 names: start_recording,
// stop_recording, load_replay, play_replay, stop_replay. It owns the named
// PRNG streams a World's systems draw from, so recording and playback save
// and restore them alongside each tick's entity diff.
type Controller struct {
	streams *Streams
	codec   EntityCodec

	mode            mode
	recorder        *Recorder
	player          *Player
	tick            uint64
	snapshotPending bool
}

// NewController builds a Controller in live mode with its "global" PRNG
// stream seeded from seed.
func NewController(seed uint64, codec EntityCodec) *Controller {
	return &Controller{streams: NewStreams(seed), codec: codec}
}

// Streams returns the controller's named PRNG stream registry, for systems
// to draw values from during a tick.
func (c *Controller) Streams() *Streams { return c.streams }

// StartRecording begins capturing frames to w. The stream registry is
// replaced by a fresh one holding only "global" seeded from seed (streams
// created before this call are dropped), and world's current state is written
// as the file header's initial snapshot, per spec.md 6's persisted layout.
func (c *Controller) StartRecording(w io.Writer, seed uint64, world *loom.World) error {
	snapshot, err := c.codec.Snapshot(world)
	if err != nil {
		return err
	}
	rec, err := NewRecorder(w, seed, snapshot)
	if err != nil {
		return err
	}
	c.streams = NewStreams(seed)
	c.recorder = rec
	c.mode = modeRecording
	c.tick = 0
	return nil
}

// StopRecording finalizes and closes the in-progress recording, if any, and
// returns to live mode.
func (c *Controller) StopRecording() error {
	if c.recorder == nil {
		return nil
	}
	err := c.recorder.Close()
	c.recorder = nil
	c.mode = modeLive
	return err
}

// LoadReplay reads src's header, leaving the controller positioned to begin
// playback once PlayReplay is called. A read failure returns the error and
// leaves the controller's mode and any previously loaded replay unchanged.
func (c *Controller) LoadReplay(src io.Reader, path string) error {
	player, err := OpenPlayer(src, path)
	if err != nil {
		return err
	}
	c.player = player
	return nil
}

// PlayReplay switches into playback mode, taking effect on the next Update.
func (c *Controller) PlayReplay() error {
	if c.player == nil {
		return fmt.Errorf("replay: play_replay called with no replay loaded")
	}
	c.mode = modePlaying
	c.tick = 0
	c.snapshotPending = true
	return nil
}

// StopReplay returns control to live input immediately.
func (c *Controller) StopReplay() {
	c.mode = modeLive
	c.snapshotPending = false
	if c.player != nil {
		c.player.Close()
		c.player = nil
	}
}

// Update runs one tick through sched, integrating recording/playback
// exactly as spec.md 3's data flow describes: when playback begins, the
// world is first brought to the header's initial snapshot — the exact state
// it was in when StartRecording captured it — before any frame is consumed;
// then, each tick, the player overwrites input and restores PRNG state for
// the tick and reapplies the recorded entity diff before any system runs;
// the scheduler then runs every phase in order; when recording, the recorder
// appends the tick's frame afterward. liveInput and dt are used verbatim
// unless playback overrides them. Playback running out of frames stops it
// and falls back to liveInput/dt for this tick.
func (c *Controller) Update(world *loom.World, sched *scheduler.Scheduler, dt float64, liveInput []byte) error {
	input := liveInput

	if c.mode == modePlaying && c.snapshotPending {
		c.snapshotPending = false
		if err := c.codec.Apply(world, c.player.Header.Snapshot); err != nil {
			c.StopReplay()
			return DesyncError{Tick: 0, Reason: err.Error()}
		}
	}

	if c.mode == modePlaying {
		frame, err := c.player.Next()
		switch {
		case err == io.EOF:
			c.StopReplay()
		case err != nil:
			return err
		default:
			input = frame.Input
			dt = frame.Elapsed
			c.streams.Restore(frame.RNGStates)
			if err := c.codec.Apply(world, frame.EntityDiff); err != nil {
				c.StopReplay()
				return DesyncError{Tick: frame.Tick, Reason: err.Error()}
			}
		}
	}

	if err := sched.Update(world, dt); err != nil {
		return err
	}

	if c.mode == modeRecording {
		diff, err := c.codec.Snapshot(world)
		if err != nil {
			return err
		}
		frame := Frame{
			Tick:       c.tick,
			Elapsed:    dt,
			Input:      input,
			RNGStates:  c.streams.Snapshot(),
			EntityDiff: diff,
		}
		if err := c.recorder.Append(frame); err != nil {
			return err
		}
		c.tick++
	}

	return nil
}
