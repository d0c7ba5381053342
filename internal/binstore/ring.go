package binstore

import (
	"github.com/cespare/xxhash/v2"
)

// Ring is the ordered list of back-end addresses used for hashing and
// replica placement (spec's Ring glossary entry). It is immutable once
// built: a different back-end set is applied by constructing a new Ring and
// swapping it in with Client.SetRing. internal/keeper does not do this; it
// keeps the Ring it read at start-up for its whole run.
type Ring struct {
	backs []string
}

// NewRing builds a Ring over backs in the given order. The order matters:
// it determines both the primary index for every bin and the replica range
// that follows it, so every client and keeper in the system must agree on
// the same ordering (normally the order loaded from the bins.json config).
func NewRing(backs []string) *Ring {
	cp := make([]string, len(backs))
	copy(cp, backs)
	return &Ring{backs: cp}
}

// Len returns the number of back-ends in the ring.
func (r *Ring) Len() int {
	return len(r.backs)
}

// Addrs returns a copy of the ring's back-end addresses in ring order.
func (r *Ring) Addrs() []string {
	cp := make([]string, len(r.backs))
	copy(cp, r.backs)
	return cp
}

// hashBin computes the stable, uniform, non-cryptographic hash used for bin
// placement (spec: "hash(bin) mod N").
func hashBin(bin string) uint64 {
	return xxhash.Sum64String(bin)
}

// PrimaryIndex returns the ring index of bin's primary back-end:
// hash(bin) mod N.
func (r *Ring) PrimaryIndex(bin string) int {
	n := len(r.backs)
	if n == 0 {
		return -1
	}
	return int(hashBin(bin) % uint64(n))
}

// ReplicaRange returns the ring indices of the r-replica contiguous range
// for bin, starting at the primary and wrapping around the ring. If r
// exceeds the ring size, the range is capped to the ring size (each
// back-end appears at most once).
func (r *Ring) ReplicaRange(bin string, replicas int) []int {
	n := len(r.backs)
	if n == 0 {
		return nil
	}
	if replicas > n {
		replicas = n
	}
	primary := r.PrimaryIndex(bin)
	out := make([]int, replicas)
	for i := 0; i < replicas; i++ {
		out[i] = (primary + i) % n
	}
	return out
}

// Addr returns the back-end address at ring index i.
func (r *Ring) Addr(i int) string {
	return r.backs[i]
}

// IndexOf returns the ring index of addr, or -1 if addr is not in the ring.
func (r *Ring) IndexOf(addr string) int {
	for i, a := range r.backs {
		if a == addr {
			return i
		}
	}
	return -1
}
