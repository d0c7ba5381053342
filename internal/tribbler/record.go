package tribbler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// escapeField and unescapeField apply the same e(s) rule the Bin Storage
// client uses for bin names (spec §4.1), so that a message or user name
// containing ":" or "|" round-trips exactly through a post or follow-log
// record.
func escapeField(s string) string {
	s = strings.ReplaceAll(s, "|", "||")
	s = strings.ReplaceAll(s, ":", "|;")
	return s
}

func unescapeField(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '|' {
			b.WriteByte(c)
			continue
		}
		if i+1 < len(s) {
			switch s[i+1] {
			case '|':
				b.WriteByte('|')
				i++
				continue
			case ';':
				b.WriteByte(':')
				i++
				continue
			}
		}
		b.WriteByte('|')
	}
	return b.String()
}

func joinFields(fields ...string) string {
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = escapeField(f)
	}
	return strings.Join(escaped, ":")
}

func splitFields(record string, n int) ([]string, error) {
	// Fields are escaped individually, so a literal ":" never appears
	// inside one; strings.Split on ":" is therefore exact.
	parts := strings.Split(record, ":")
	if len(parts) != n {
		return nil, fmt.Errorf("tribbler: malformed record %q: want %d fields, got %d", record, n, len(parts))
	}
	for i, p := range parts {
		parts[i] = unescapeField(p)
	}
	return parts, nil
}

// Post is the immutable {clock, time, user, message} tuple of the
// Glossary's "Post record".
type Post struct {
	Clock   uint64
	Time    time.Time
	User    string
	Message string
}

func encodePost(p Post) string {
	return joinFields(
		strconv.FormatUint(p.Clock, 10),
		p.Time.UTC().Format(time.RFC3339Nano),
		p.User,
		p.Message,
	)
}

func decodePost(record string) (Post, error) {
	parts, err := splitFields(record, 4)
	if err != nil {
		return Post{}, err
	}
	clock, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return Post{}, fmt.Errorf("tribbler: malformed post clock: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, parts[1])
	if err != nil {
		return Post{}, fmt.Errorf("tribbler: malformed post time: %w", err)
	}
	return Post{Clock: clock, Time: t, User: parts[2], Message: parts[3]}, nil
}

// followAction is one of the two follow-log verbs.
type followAction string

const (
	actionFollow   followAction = "follow"
	actionUnfollow followAction = "unfollow"
)

// followEntry is the immutable {action, clock, whom} follow-log record.
type followEntry struct {
	Action followAction
	Clock  uint64
	Whom   string
}

func encodeFollowEntry(e followEntry) string {
	return joinFields(string(e.Action), strconv.FormatUint(e.Clock, 10), e.Whom)
}

func decodeFollowEntry(record string) (followEntry, error) {
	parts, err := splitFields(record, 3)
	if err != nil {
		return followEntry{}, err
	}
	clock, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return followEntry{}, fmt.Errorf("tribbler: malformed follow-log clock: %w", err)
	}
	return followEntry{Action: followAction(parts[0]), Clock: clock, Whom: parts[2]}, nil
}

// foldFollowLog computes the current follow set from a raw follow_log list:
// last action wins per target, tie-broken by (clock, action) ascending so
// that a later unfollow with a higher clock overrides an earlier follow
// (spec §4.3.1).
func foldFollowLog(records []string) map[string]bool {
	type verdict struct {
		clock  uint64
		action followAction
	}
	latest := make(map[string]verdict)

	for _, r := range records {
		e, err := decodeFollowEntry(r)
		if err != nil {
			continue
		}
		cur, ok := latest[e.Whom]
		if !ok || laterFollowEntry(cur.clock, cur.action, e.Clock, e.Action) {
			latest[e.Whom] = verdict{clock: e.Clock, action: e.Action}
		}
	}

	out := make(map[string]bool, len(latest))
	for whom, v := range latest {
		out[whom] = v.action == actionFollow
	}
	return out
}

// laterFollowEntry reports whether (clock2, action2) supersedes
// (clock1, action1) under the (clock, action) ascending tie-break.
func laterFollowEntry(clock1 uint64, action1 followAction, clock2 uint64, action2 followAction) bool {
	if clock2 != clock1 {
		return clock2 > clock1
	}
	// Equal clocks: unfollow wins over follow, deterministically.
	return action2 == actionUnfollow && action1 == actionFollow
}

// activeFollowSince walks every follow_log entry targeting whom in the same
// (clock, action) order foldFollowLog uses and returns the clock of the
// entry that established the current run of "following", i.e. the earliest
// follow entry since the last unfollow (or since the beginning, if none).
// ok is false if whom is not currently followed. Two concurrent first-time
// Follow calls both append a follow entry and both fold to following=true,
// but only the earliest of the two established the relationship; the later
// one must observe since != its own clock and fail (spec §4.3.1(d)/§9).
func activeFollowSince(records []string, whom string) (clock uint64, ok bool) {
	type entry struct {
		clock  uint64
		action followAction
	}
	var entries []entry
	for _, r := range records {
		e, err := decodeFollowEntry(r)
		if err != nil || e.Whom != whom {
			continue
		}
		entries = append(entries, entry{clock: e.Clock, action: e.Action})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].clock != entries[j].clock {
			return entries[i].clock < entries[j].clock
		}
		return entries[i].action == actionFollow && entries[j].action == actionUnfollow
	})

	following := false
	for _, e := range entries {
		if e.action == actionFollow {
			if !following {
				clock = e.clock
				following = true
			}
		} else {
			following = false
		}
	}
	return clock, following
}
