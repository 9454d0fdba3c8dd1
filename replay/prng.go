package replay

// Stream is one named deterministic PRNG stream. Its entire state is a
// single 64-bit word, matching the persisted replay format's "stream name
// -> 8 bytes" state table exactly — no library PRNG was used here since the
// algorithm itself, not just its seed, has to be nailed down and reproduced
// bit-for-bit across builds; an opaque dependency whose internals could
// change between versions would break that guarantee silently.
//
// The generator is xorshift64*: a 64-bit linear-feedback shift register
// followed by a multiplicative scramble, one of the fixed algorithms
// spec.md 4.11 allows by name. It never recovers from an all-zero state, so
// Seed forces a zero seed to 1.
type Stream struct {
	name  string
	state uint64
}

// NewStream creates a named stream seeded deterministically from seed.
func NewStream(name string, seed uint64) *Stream {
	s := &Stream{name: name}
	s.Seed(seed)
	return s
}

// Seed resets the stream's state from a single 64-bit value.
func (s *Stream) Seed(seed uint64) {
	if seed == 0 {
		seed = 1
	}
	s.state = seed
}

// Name returns the stream's registered name.
func (s *Stream) Name() string { return s.name }

// Uint64 returns the stream's next value, advancing its state.
func (s *Stream) Uint64() uint64 {
	x := s.state
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	s.state = x
	return x * 0x2545F4914F6CDD1D
}

// IntN returns a value in [0, n), n > 0, via Uint64 modulo reduction. Not
// bias-free for non-power-of-two n, acceptable here since spec.md's only
// determinism requirement is bit-identical reproduction of the same stream,
// not uniformity.
func (s *Stream) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return int(s.Uint64() % uint64(n))
}

// Float64 returns a value in [0, 1), built from the stream's top 53 bits.
func (s *Stream) Float64() float64 {
	return float64(s.Uint64()>>11) / (1 << 53)
}

// State returns the stream's current 64-bit state, the unit the recorder
// saves and the player restores.
func (s *Stream) State() uint64 { return s.state }

// SetState overwrites the stream's state directly, used during playback.
func (s *Stream) SetState(state uint64) { s.state = state }
