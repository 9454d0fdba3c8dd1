package replay

import (
	"bufio"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Header is the fixed file preamble a Player reads once before any frame.
type Header struct {
	Seed     uint64
	Snapshot []byte
}

// Player reads frames back, in order, from a replay file written by a
// Recorder.
type Player struct {
	dec    *zstd.Decoder
	r      *bufio.Reader
	Header Header
}

// OpenPlayer reads and validates src's header, leaving the reader
// positioned at the first frame. A malformed header or unsupported version
// returns an IOError, leaving the caller free to keep running with live
// input per spec.md 7.
func OpenPlayer(src io.Reader, path string) (*Player, error) {
	dec, err := zstd.NewReader(src)
	if err != nil {
		return nil, IOError{Path: path, Err: err}
	}
	p := &Player{dec: dec, r: bufio.NewReader(dec)}
	if err := p.readHeader(path); err != nil {
		dec.Close()
		return nil, err
	}
	return p, nil
}

func (p *Player) readHeader(path string) error {
	magicBuf := make([]byte, len(magic))
	if _, err := io.ReadFull(p.r, magicBuf); err != nil {
		return IOError{Path: path, Err: err}
	}
	if string(magicBuf) != magic {
		return IOError{Path: path, Err: fmt.Errorf("not a loom replay file (bad magic %q)", magicBuf)}
	}
	version, err := readUint32(p.r)
	if err != nil {
		return IOError{Path: path, Err: err}
	}
	if version != formatVersion {
		return IOError{Path: path, Err: fmt.Errorf("unsupported replay format version %d", version)}
	}
	seed, err := readUint64(p.r)
	if err != nil {
		return IOError{Path: path, Err: err}
	}
	snapshot, err := readBlob(p.r)
	if err != nil {
		return IOError{Path: path, Err: err}
	}
	p.Header = Header{Seed: seed, Snapshot: snapshot}
	return nil
}

// Next reads the next Frame in the file, returning io.EOF once every frame
// has been consumed.
func (p *Player) Next() (Frame, error) {
	length, err := readUint32(p.r)
	if err != nil {
		if err == io.EOF {
			return Frame{}, io.EOF
		}
		return Frame{}, IOError{Err: err}
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(p.r, body); err != nil {
		return Frame{}, IOError{Err: err}
	}
	frame, err := decodeFrame(body)
	if err != nil {
		return Frame{}, IOError{Err: err}
	}
	return frame, nil
}

// Close releases the underlying zstd decoder.
func (p *Player) Close() error {
	p.dec.Close()
	return nil
}
