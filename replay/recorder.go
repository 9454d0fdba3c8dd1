package replay

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

// magic identifies a loom replay file; formatVersion is bumped whenever the
// frame layout changes incompatibly.
const (
	magic         = "LOOMRPLY"
	formatVersion = uint32(1)
)

// Frame is exactly what spec.md 4.11 says a recorder appends at the end of
// each tick: the tick index, elapsed simulated time, the input snapshot the
// host passed in for the tick, every named PRNG stream's state, and an
// entity diff sufficient to reconstruct observable state.
type Frame struct {
	Tick       uint64
	Elapsed    float64
	Input      []byte
	RNGStates  map[string]uint64
	EntityDiff []byte
}

// Recorder writes a sequence of Frames to an underlying file, zstd
// compressed as they are written — bodies are small per-tick diffs, exactly
// the kind of repetitive structured data zstd is grounded for in the rest
// of the example pack.
type Recorder struct {
	enc *zstd.Encoder
}

// NewRecorder opens a fresh recording: seed identifies the run and
// snapshot is the initial entity-state blob captured before any tick,
// written once as the file header per spec.md 6's persisted layout.
func NewRecorder(w io.Writer, seed uint64, snapshot []byte) (*Recorder, error) {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return nil, IOError{Err: err}
	}
	r := &Recorder{enc: enc}
	if err := r.writeHeader(seed, snapshot); err != nil {
		enc.Close()
		return nil, err
	}
	return r, nil
}

func (r *Recorder) writeHeader(seed uint64, snapshot []byte) error {
	hdr := append([]byte(nil), magic...)
	hdr = appendUint32(hdr, formatVersion)
	hdr = appendUint64(hdr, seed)
	hdr = appendBlob(hdr, snapshot)
	if _, err := r.enc.Write(hdr); err != nil {
		return IOError{Err: err}
	}
	return nil
}

// Append writes one tick's frame, prefixed by its encoded length.
func (r *Recorder) Append(f Frame) error {
	body := encodeFrame(f)
	record := appendUint32(nil, uint32(len(body)))
	record = append(record, body...)
	if _, err := r.enc.Write(record); err != nil {
		return IOError{Err: err}
	}
	return nil
}

// Close flushes and finalizes the zstd stream. The Recorder must not be
// used afterward.
func (r *Recorder) Close() error {
	if err := r.enc.Close(); err != nil {
		return IOError{Err: err}
	}
	return nil
}
