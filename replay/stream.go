package replay

import "sync"

// GlobalStream is the name every Streams registry guarantees exists.
const GlobalStream = "global"

// Streams holds every named PRNG stream a World's systems draw from, as a
// single unit the recorder snapshots and the player restores once per tick.
type Streams struct {
	mu      sync.Mutex
	streams map[string]*Stream
}

// NewStreams builds a registry with the "global" stream seeded from seed.
func NewStreams(seed uint64) *Streams {
	s := &Streams{streams: make(map[string]*Stream, 4)}
	s.Register(GlobalStream, seed)
	return s
}

// Register returns the named stream, creating and seeding it on first use.
// A second Register of the same name is a no-op returning the existing
// stream.
func (s *Streams) Register(name string, seed uint64) *Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.streams[name]; ok {
		return existing
	}
	stream := NewStream(name, seed)
	s.streams[name] = stream
	return stream
}

// Get returns the named stream, if it has been registered.
func (s *Streams) Get(name string) (*Stream, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stream, ok := s.streams[name]
	return stream, ok
}

// Global returns the guaranteed "global" stream.
func (s *Streams) Global() *Stream {
	stream, _ := s.Get(GlobalStream)
	return stream
}

// Snapshot returns every registered stream's state keyed by name.
func (s *Streams) Snapshot() map[string]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]uint64, len(s.streams))
	for name, stream := range s.streams {
		out[name] = stream.State()
	}
	return out
}

// Restore overwrites every named stream's state from states, registering
// any name not already known.
func (s *Streams) Restore(states map[string]uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, state := range states {
		stream, ok := s.streams[name]
		if !ok {
			stream = &Stream{name: name}
			s.streams[name] = stream
		}
		stream.SetState(state)
	}
}
