package localstore

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreCells(t *testing.T) {
	t.Run("get on empty store returns empty string", func(t *testing.T) {
		s := New()
		require.Equal(t, "", s.Get("missing"))
	})

	t.Run("set then get round-trips", func(t *testing.T) {
		s := New()
		s.Set("k", "v")
		require.Equal(t, "v", s.Get("k"))
	})

	t.Run("set empty value deletes", func(t *testing.T) {
		s := New()
		s.Set("k", "v")
		s.Set("k", "")
		require.Equal(t, "", s.Get("k"))
		require.NotContains(t, s.Keys("", ""), "k")
	})

	t.Run("keys filters by prefix and suffix", func(t *testing.T) {
		s := New()
		s.Set("user:alice:posts", "1")
		s.Set("user:bob:posts", "1")
		s.Set("other", "1")

		got := sortedCopy(s.Keys("user:", ":posts"))
		require.Equal(t, []string{"user:alice:posts", "user:bob:posts"}, got)
	})
}

func TestStoreLists(t *testing.T) {
	t.Run("list_get on unknown key is empty, not nil", func(t *testing.T) {
		s := New()
		got := s.ListGet("missing")
		require.NotNil(t, got)
		require.Empty(t, got)
	})

	t.Run("append preserves order", func(t *testing.T) {
		s := New()
		s.ListAppend("lst", "a")
		s.ListAppend("lst", "b")
		s.ListAppend("lst", "a")
		require.Equal(t, []string{"a", "b", "a"}, s.ListGet("lst"))
	})

	t.Run("list_remove removes every exact match and returns the count", func(t *testing.T) {
		s := New()
		s.ListAppend("lst", "a")
		s.ListAppend("lst", "b")
		s.ListAppend("lst", "a")

		n := s.ListRemove("lst", "a")
		require.Equal(t, 2, n)
		require.Equal(t, []string{"b"}, s.ListGet("lst"))
	})

	t.Run("removing every element drops the key from list_keys", func(t *testing.T) {
		s := New()
		s.ListAppend("lst", "a")
		s.ListRemove("lst", "a")
		require.Empty(t, s.ListKeys("", ""))
	})

	t.Run("concurrent appends are not lost", func(t *testing.T) {
		s := New()
		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					s.ListAppend("lst", "x")
				}
			}()
		}
		wg.Wait()
		require.Len(t, s.ListGet("lst"), 50)
	})
}

func TestStoreClock(t *testing.T) {
	t.Run("monotonic across calls", func(t *testing.T) {
		s := New()
		c1, err := s.Clock(0)
		require.NoError(t, err)
		c2, err := s.Clock(0)
		require.NoError(t, err)
		require.Greater(t, c2, c1)
	})

	t.Run("honors at_least floor", func(t *testing.T) {
		s := New()
		c, err := s.Clock(1000)
		require.NoError(t, err)
		require.GreaterOrEqual(t, c, uint64(1000))
	})

	t.Run("saturation surfaces ErrMaxedSeq", func(t *testing.T) {
		s := New()
		s.clockVal = math.MaxUint64
		c, err := s.Clock(0)
		require.ErrorIs(t, err, ErrMaxedSeq)
		require.Equal(t, uint64(math.MaxUint64), c)
	})
}

func TestStoreSnapshot(t *testing.T) {
	s := New()
	s.Set("a", "1")
	s.ListAppend("lst", "x")

	cells, lists := s.Snapshot()
	require.Equal(t, map[string]string{"a": "1"}, cells)
	require.Equal(t, map[string][]string{"lst": {"x"}}, lists)

	// Mutating the snapshot must not affect the store.
	cells["a"] = "mutated"
	require.Equal(t, "1", s.Get("a"))
}
