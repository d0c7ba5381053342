package binstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRingPrimaryIndexDeterministic(t *testing.T) {
	r := NewRing([]string{"a", "b", "c", "d"})
	i1 := r.PrimaryIndex("bin-alice")
	i2 := r.PrimaryIndex("bin-alice")
	require.Equal(t, i1, i2)
	require.GreaterOrEqual(t, i1, 0)
	require.Less(t, i1, r.Len())
}

func TestRingReplicaRangeContiguousAndWraps(t *testing.T) {
	r := NewRing([]string{"a", "b", "c", "d"})
	primary := r.PrimaryIndex("bin-x")
	got := r.ReplicaRange("bin-x", 3)
	require.Len(t, got, 3)
	for i, idx := range got {
		require.Equal(t, (primary+i)%r.Len(), idx)
	}
}

func TestRingReplicaRangeCapsAtRingSize(t *testing.T) {
	r := NewRing([]string{"a", "b"})
	got := r.ReplicaRange("bin-x", 5)
	require.Len(t, got, 2)
}

func TestRingAddrAndIndexOf(t *testing.T) {
	r := NewRing([]string{"a", "b", "c"})
	require.Equal(t, "b", r.Addr(1))
	require.Equal(t, 1, r.IndexOf("b"))
	require.Equal(t, -1, r.IndexOf("missing"))
}

func TestRingEmpty(t *testing.T) {
	r := NewRing(nil)
	require.Equal(t, 0, r.Len())
	require.Equal(t, -1, r.PrimaryIndex("anything"))
	require.Nil(t, r.ReplicaRange("anything", 3))
}
