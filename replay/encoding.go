package replay

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Binary layout helpers shared by Recorder and Player. Every length prefix
// is a little-endian uint32 unless noted; the frame body is opaque-blob
// heavy by design, since spec.md 6 leaves the input snapshot and entity
// diff encodings to the host.

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendFloat64(buf []byte, v float64) []byte {
	return appendUint64(buf, math.Float64bits(v))
}

func appendBlob(buf []byte, blob []byte) []byte {
	buf = appendUint32(buf, uint32(len(blob)))
	return append(buf, blob...)
}

func appendString(buf []byte, s string) []byte {
	return appendBlob(buf, []byte(s))
}

func appendVarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

// byteReader is the minimal interface the read helpers need: both
// *bufio.Reader and *bytes.Reader satisfy it.
type byteReader interface {
	io.Reader
	io.ByteReader
}

func readUint32(r io.Reader) (uint32, error) {
	var tmp [4]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(tmp[:]), nil
}

func readUint64(r io.Reader) (uint64, error) {
	var tmp [8]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(tmp[:]), nil
}

func readFloat64(r io.Reader) (float64, error) {
	bits, err := readUint64(r)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

func readBlob(r io.Reader) ([]byte, error) {
	length, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, nil
	}
	blob := make([]byte, length)
	if _, err := io.ReadFull(r, blob); err != nil {
		return nil, err
	}
	return blob, nil
}

func readString(r io.Reader) (string, error) {
	blob, err := readBlob(r)
	if err != nil {
		return "", err
	}
	return string(blob), nil
}

func readVarint(r byteReader) (uint64, error) {
	v, err := binary.ReadUvarint(r)
	if err != nil {
		return 0, err
	}
	return v, nil
}

func encodeFrame(f Frame) []byte {
	var buf []byte
	buf = appendVarint(buf, f.Tick)
	buf = appendFloat64(buf, f.Elapsed)
	buf = appendBlob(buf, f.Input)

	names := sortedKeys(f.RNGStates)
	buf = appendVarint(buf, uint64(len(names)))
	for _, name := range names {
		buf = appendString(buf, name)
		buf = appendUint64(buf, f.RNGStates[name])
	}

	buf = appendBlob(buf, f.EntityDiff)
	return buf
}

func decodeFrame(body []byte) (Frame, error) {
	r := bytes.NewReader(body)

	tick, err := readVarint(r)
	if err != nil {
		return Frame{}, fmt.Errorf("replay: decoding tick index: %w", err)
	}
	elapsed, err := readFloat64(r)
	if err != nil {
		return Frame{}, fmt.Errorf("replay: decoding elapsed time: %w", err)
	}
	input, err := readBlob(r)
	if err != nil {
		return Frame{}, fmt.Errorf("replay: decoding input snapshot: %w", err)
	}
	count, err := readVarint(r)
	if err != nil {
		return Frame{}, fmt.Errorf("replay: decoding rng stream count: %w", err)
	}
	states := make(map[string]uint64, count)
	for i := uint64(0); i < count; i++ {
		name, err := readString(r)
		if err != nil {
			return Frame{}, fmt.Errorf("replay: decoding rng stream name: %w", err)
		}
		state, err := readUint64(r)
		if err != nil {
			return Frame{}, fmt.Errorf("replay: decoding rng stream state: %w", err)
		}
		states[name] = state
	}
	diff, err := readBlob(r)
	if err != nil {
		return Frame{}, fmt.Errorf("replay: decoding entity diff: %w", err)
	}

	return Frame{
		Tick:       tick,
		Elapsed:    elapsed,
		Input:      input,
		RNGStates:  states,
		EntityDiff: diff,
	}, nil
}

func sortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	insertionSortStrings(keys)
	return keys
}

// insertionSortStrings keeps the stream-name ordering in a persisted frame
// stable without pulling in sort.Strings for what is, in practice, a
// handful of named streams per tick.
func insertionSortStrings(keys []string) {
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
}
