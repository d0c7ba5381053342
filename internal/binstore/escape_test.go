package binstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEscapeRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"plain",
		"with:colon",
		"with|pipe",
		"a:b|c:d",
		"||::||",
		"trailing|",
	}
	for _, s := range cases {
		require.Equal(t, s, unescape(escape(s)), "round trip of %q", s)
	}
}

func TestNamespacedKeyUnambiguousSeparator(t *testing.T) {
	// A bin name containing ":" must not let a wire key collide with a
	// different (bin, key) pair.
	k1 := namespacedKey("a:b", "c")
	k2 := namespacedKey("a", "b:c")
	require.NotEqual(t, k1, k2)
}

func TestStripBinPrefix(t *testing.T) {
	wire := namespacedKey("alice", "signup")
	key, ok := stripBinPrefix("alice", wire)
	require.True(t, ok)
	require.Equal(t, "signup", key)

	_, ok = stripBinPrefix("bob", wire)
	require.False(t, ok)
}
