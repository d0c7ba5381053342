package tribbler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodePostRoundTrip(t *testing.T) {
	cases := []Post{
		{Clock: 1, Time: time.Now().UTC(), User: "alice", Message: "hello"},
		{Clock: 42, Time: time.Now().UTC(), User: "bob", Message: "a:b|c:d"},
		{Clock: 0, Time: time.Unix(0, 0).UTC(), User: "x", Message: ""},
	}
	for _, p := range cases {
		record := encodePost(p)
		got, err := decodePost(record)
		require.NoError(t, err)
		require.Equal(t, p.Clock, got.Clock)
		require.True(t, p.Time.Equal(got.Time))
		require.Equal(t, p.User, got.User)
		require.Equal(t, p.Message, got.Message)
	}
}

func TestDecodePostMalformed(t *testing.T) {
	_, err := decodePost("not:enough")
	require.Error(t, err)
}

func TestEncodeDecodeFollowEntryRoundTrip(t *testing.T) {
	e := followEntry{Action: actionFollow, Clock: 7, Whom: "car:ol|"}
	record := encodeFollowEntry(e)
	got, err := decodeFollowEntry(record)
	require.NoError(t, err)
	require.Equal(t, e, got)
}

func TestFoldFollowLogLastActionWins(t *testing.T) {
	records := []string{
		encodeFollowEntry(followEntry{Action: actionFollow, Clock: 1, Whom: "bob"}),
		encodeFollowEntry(followEntry{Action: actionUnfollow, Clock: 2, Whom: "bob"}),
	}
	got := foldFollowLog(records)
	require.False(t, got["bob"])
}

func TestFoldFollowLogOutOfOrderRecords(t *testing.T) {
	records := []string{
		encodeFollowEntry(followEntry{Action: actionUnfollow, Clock: 5, Whom: "bob"}),
		encodeFollowEntry(followEntry{Action: actionFollow, Clock: 3, Whom: "bob"}),
	}
	got := foldFollowLog(records)
	require.False(t, got["bob"], "higher-clock unfollow must win even if appended first")
}

func TestFoldFollowLogEqualClockPrefersUnfollow(t *testing.T) {
	records := []string{
		encodeFollowEntry(followEntry{Action: actionFollow, Clock: 9, Whom: "bob"}),
		encodeFollowEntry(followEntry{Action: actionUnfollow, Clock: 9, Whom: "bob"}),
	}
	got := foldFollowLog(records)
	require.False(t, got["bob"])
}

func TestFoldFollowLogIndependentTargets(t *testing.T) {
	records := []string{
		encodeFollowEntry(followEntry{Action: actionFollow, Clock: 1, Whom: "bob"}),
		encodeFollowEntry(followEntry{Action: actionFollow, Clock: 1, Whom: "carol"}),
		encodeFollowEntry(followEntry{Action: actionUnfollow, Clock: 2, Whom: "carol"}),
	}
	got := foldFollowLog(records)
	require.True(t, got["bob"])
	require.False(t, got["carol"])
}

func TestActiveFollowSinceEarliestConcurrentFollowWins(t *testing.T) {
	// Two concurrent first-time Follow(who, "bob") calls each append their
	// own follow entry before either has observed the other's; the
	// earlier-clock entry is the one that actually established the
	// relationship.
	records := []string{
		encodeFollowEntry(followEntry{Action: actionFollow, Clock: 5, Whom: "bob"}),
		encodeFollowEntry(followEntry{Action: actionFollow, Clock: 7, Whom: "bob"}),
	}
	since, ok := activeFollowSince(records, "bob")
	require.True(t, ok)
	require.Equal(t, uint64(5), since, "the lower-clock follow establishes the relationship")
}

func TestActiveFollowSinceResetsAfterUnfollow(t *testing.T) {
	records := []string{
		encodeFollowEntry(followEntry{Action: actionFollow, Clock: 1, Whom: "bob"}),
		encodeFollowEntry(followEntry{Action: actionUnfollow, Clock: 2, Whom: "bob"}),
		encodeFollowEntry(followEntry{Action: actionFollow, Clock: 3, Whom: "bob"}),
	}
	since, ok := activeFollowSince(records, "bob")
	require.True(t, ok)
	require.Equal(t, uint64(3), since, "a follow after an unfollow starts a new run")
}

func TestActiveFollowSinceNotFollowing(t *testing.T) {
	records := []string{
		encodeFollowEntry(followEntry{Action: actionFollow, Clock: 1, Whom: "bob"}),
		encodeFollowEntry(followEntry{Action: actionUnfollow, Clock: 2, Whom: "bob"}),
	}
	_, ok := activeFollowSince(records, "bob")
	require.False(t, ok)
}

func TestEscapeFieldRoundTrip(t *testing.T) {
	cases := []string{"", "plain", "with:colon", "with|pipe", "a:b|c:d", "||::||"}
	for _, s := range cases {
		require.Equal(t, s, unescapeField(escapeField(s)))
	}
}
