package loom

import (
	"encoding/binary"

	"github.com/TheBitDrifter/mask"
	"github.com/cespare/xxhash/v2"
)

// Signature is the set of component types an archetype stores, backed by the
// same mask.Mask the archetype's table.Table exposes via mask.Maskable — a
// Signature is a comparable value, usable directly as a map key. The
// archetype catalog keys on its Mask().
type Signature struct {
	bits mask.Mask
}

// NewSignature builds a Signature from a set of components, resolving (and,
// on first sight, registering) each one's id through r.
func NewSignature(r *Registry, components ...Component) Signature {
	var sig Signature
	for _, c := range components {
		info := r.Info(c)
		sig.bits.Mark(info.ID)
	}
	return sig
}

// With returns a new Signature with id added.
func (s Signature) With(id ComponentID) Signature {
	out := s
	out.bits.Mark(id)
	return out
}

// Without returns a new Signature with id removed.
func (s Signature) Without(id ComponentID) Signature {
	out := s
	out.bits.Unmark(id)
	return out
}

// Has reports whether id is present in the signature.
func (s Signature) Has(id ComponentID) bool {
	var probe mask.Mask
	probe.Mark(id)
	return s.bits.ContainsAll(probe)
}

// Mask returns the underlying mask.Mask, for interop with table.Table's
// mask.Maskable view of its own schema.
func (s Signature) Mask() mask.Mask {
	return s.bits
}

// signatureFromMask wraps a raw mask.Mask (e.g. from a table.Table's
// mask.Maskable.Mask()) as a Signature.
func signatureFromMask(m mask.Mask) Signature {
	return Signature{bits: m}
}

// ContainsAll reports whether every id set in other is also set in s.
func (s Signature) ContainsAll(other Signature) bool {
	return s.bits.ContainsAll(other.bits)
}

// ContainsAny reports whether s and other share at least one id.
func (s Signature) ContainsAny(other Signature) bool {
	return s.bits.ContainsAny(other.bits)
}

// ContainsNone reports whether s and other share no ids.
func (s Signature) ContainsNone(other Signature) bool {
	return s.bits.ContainsNone(other.bits)
}

// IDs decodes the signature into its sorted component ids.
func (s Signature) IDs() []ComponentID {
	ids := make([]ComponentID, 0, 8)
	for id := ComponentID(0); id < ComponentID(Config.MaxComponentTypes()); id++ {
		if s.Has(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Hash folds the signature's sorted id list into a single 64-bit value via
// xxhash. Nothing in this module calls it: the archetype catalog is keyed by
// mask.Mask and transition plans by (src, dst) archetype id pairs.
func (s Signature) Hash() uint64 {
	ids := s.IDs()
	buf := make([]byte, 4*len(ids))
	for i, id := range ids {
		binary.LittleEndian.PutUint32(buf[i*4:], id)
	}
	return xxhash.Sum64(buf)
}
