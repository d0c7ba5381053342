package tribbler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dreamware/tribbler/internal/binstore"
)

// Translator is the stateless Tribbler front-end (spec §4.3). All state
// lives in the back-ends behind its binstore.Client; a Translator may be
// constructed fresh for every request and discarded without loss.
type Translator struct {
	client *binstore.Client
}

// New builds a Translator over client.
func New(client *binstore.Client) *Translator {
	return &Translator{client: client}
}

func (t *Translator) registry() binstore.Storage {
	return t.client.Bin(registryBin)
}

func (t *Translator) bin(user string) binstore.Storage {
	return t.client.Bin(user)
}

func validateUsername(name string) error {
	if len(name) < 1 || len(name) > MaxUsernameLen {
		return ErrInvalidUsername
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return ErrInvalidUsername
		}
	}
	return nil
}

func (t *Translator) userExists(ctx context.Context, name string) (bool, error) {
	v, err := t.bin(name).Get(ctx, "signup")
	if err != nil {
		return false, err
	}
	return v == "1", nil
}

// SignUp implements sign_up(u) (spec §4.3.1).
func (t *Translator) SignUp(ctx context.Context, user string) error {
	if err := validateUsername(user); err != nil {
		return err
	}

	exists, err := t.userExists(ctx, user)
	if err != nil {
		return err
	}
	if exists {
		return ErrUsernameTaken
	}

	if err := t.registry().ListAppend(ctx, "users", user); err != nil {
		return err
	}
	return t.bin(user).Set(ctx, "signup", "1")
}

// ListUsers implements list_users() (spec §4.3.1).
func (t *Translator) ListUsers(ctx context.Context) ([]string, error) {
	reg := t.registry()

	cached, err := reg.Get(ctx, "users_cache")
	if err != nil {
		return nil, err
	}
	if cached != "" {
		var users []string
		if err := json.Unmarshal([]byte(cached), &users); err == nil {
			return users, nil
		}
	}

	raw, err := reg.ListGet(ctx, "users")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(raw))
	var distinct []string
	for _, u := range raw {
		if seen[u] {
			continue
		}
		seen[u] = true
		distinct = append(distinct, u)
	}
	sort.Strings(distinct)

	frozen := len(distinct) >= MinListUser
	if len(distinct) > MinListUser {
		distinct = distinct[:MinListUser]
	}

	if frozen {
		if encoded, err := json.Marshal(distinct); err == nil {
			_ = reg.Set(ctx, "users_cache", string(encoded))
		}
	}

	return distinct, nil
}

// Post implements post(who, message, seen_clock) (spec §4.3.1).
func (t *Translator) Post(ctx context.Context, who, message string, seenClock uint64) (Post, error) {
	exists, err := t.userExists(ctx, who)
	if err != nil {
		return Post{}, err
	}
	if !exists {
		return Post{}, ErrUserDoesNotExist
	}
	if len(message) > MaxTribLen {
		return Post{}, ErrTribTooLong
	}

	b := t.bin(who)
	c, err := b.Clock(ctx, seenClock+1)
	if err != nil {
		if errors.Is(err, binstore.ErrCommunication) {
			return Post{}, err
		}
		return Post{}, fmt.Errorf("%w: %v", ErrMaxedSeq, err)
	}

	p := Post{Clock: c, Time: time.Now(), User: who, Message: message}
	if err := b.ListAppend(ctx, "posts", encodePost(p)); err != nil {
		return Post{}, err
	}

	t.gcPosts(ctx, b)
	return p, nil
}

// gcPosts implements the opportunistic GC of spec §4.3.1 / §3.3 invariant 5:
// after a post, if the user's posts list exceeds 2*MaxTribFetch, trim the
// oldest entries until it is at most MaxTribFetch.
func (t *Translator) gcPosts(ctx context.Context, b binstore.Storage) {
	raw, err := b.ListGet(ctx, "posts")
	if err != nil || len(raw) <= 2*MaxTribFetch {
		return
	}

	posts := make([]Post, 0, len(raw))
	records := make(map[Post]string, len(raw))
	for _, r := range raw {
		p, err := decodePost(r)
		if err != nil {
			continue
		}
		posts = append(posts, p)
		records[p] = r
	}
	sortTribbleOrder(posts)

	toDrop := len(posts) - MaxTribFetch
	for i := 0; i < toDrop && i < len(posts); i++ {
		if r, ok := records[posts[i]]; ok {
			_, _ = b.ListRemove(ctx, "posts", r)
		}
	}
}

// Tribs implements tribs(who) (spec §4.3.1).
func (t *Translator) Tribs(ctx context.Context, who string) ([]Post, error) {
	exists, err := t.userExists(ctx, who)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserDoesNotExist
	}

	raw, err := t.bin(who).ListGet(ctx, "posts")
	if err != nil {
		return nil, err
	}
	return newestPosts(raw), nil
}

// newestPosts decodes raw post records, sorts them by Tribble Order, and
// returns up to MaxTribFetch of the newest, newest first.
func newestPosts(raw []string) []Post {
	posts := make([]Post, 0, len(raw))
	for _, r := range raw {
		if p, err := decodePost(r); err == nil {
			posts = append(posts, p)
		}
	}
	sortTribbleOrder(posts)

	n := len(posts)
	start := 0
	if n > MaxTribFetch {
		start = n - MaxTribFetch
	}
	newest := posts[start:]

	out := make([]Post, len(newest))
	for i, p := range newest {
		out[len(newest)-1-i] = p
	}
	return out
}

// sortTribbleOrder sorts posts ascending by the Glossary's Tribble Order:
// (clock asc, time asc, user asc, message asc). The sort is stable so that
// same-user ordering, which is already append order, is preserved.
func sortTribbleOrder(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		if a.Clock != b.Clock {
			return a.Clock < b.Clock
		}
		if !a.Time.Equal(b.Time) {
			return a.Time.Before(b.Time)
		}
		if a.User != b.User {
			return a.User < b.User
		}
		return a.Message < b.Message
	})
}

// Follow implements follow(who, whom) (spec §4.3.1).
func (t *Translator) Follow(ctx context.Context, who, whom string) error {
	if who == whom {
		return ErrWhoWhom
	}
	if err := t.requireBothExist(ctx, who, whom); err != nil {
		return err
	}

	b := t.bin(who)
	raw, err := b.ListGet(ctx, "follow_log")
	if err != nil {
		return err
	}
	current := foldFollowLog(raw)
	if current[whom] {
		return ErrAlreadyFollowing
	}
	if countFollowing(current) >= MaxFollowing {
		return ErrFollowingTooMany
	}

	c, err := b.Clock(ctx, 0)
	if err != nil {
		return err
	}
	entry := followEntry{Action: actionFollow, Clock: c, Whom: whom}
	if err := b.ListAppend(ctx, "follow_log", encodeFollowEntry(entry)); err != nil {
		return err
	}

	raw, err = b.ListGet(ctx, "follow_log")
	if err != nil {
		return err
	}
	since, following := activeFollowSince(raw, whom)
	if !following || since != c {
		// Either an unfollow won the tie-break, or a concurrent Follow for
		// the same target got the earlier clock and established the
		// relationship first (spec §4.3.1(d)/§9).
		return ErrAlreadyFollowing
	}
	return nil
}

// Unfollow implements unfollow(who, whom) (spec §4.3.1).
func (t *Translator) Unfollow(ctx context.Context, who, whom string) error {
	if who == whom {
		return ErrWhoWhom
	}
	if err := t.requireBothExist(ctx, who, whom); err != nil {
		return err
	}

	b := t.bin(who)
	raw, err := b.ListGet(ctx, "follow_log")
	if err != nil {
		return err
	}
	if !foldFollowLog(raw)[whom] {
		return ErrNotFollowing
	}

	c, err := b.Clock(ctx, 0)
	if err != nil {
		return err
	}
	entry := followEntry{Action: actionUnfollow, Clock: c, Whom: whom}
	return b.ListAppend(ctx, "follow_log", encodeFollowEntry(entry))
}

// IsFollowing implements is_following(who, whom) (spec §4.3.1).
func (t *Translator) IsFollowing(ctx context.Context, who, whom string) (bool, error) {
	if who == whom {
		return false, ErrWhoWhom
	}
	if err := t.requireBothExist(ctx, who, whom); err != nil {
		return false, err
	}

	raw, err := t.bin(who).ListGet(ctx, "follow_log")
	if err != nil {
		return false, err
	}
	return foldFollowLog(raw)[whom], nil
}

// Following implements following(who) (spec §4.3.1).
func (t *Translator) Following(ctx context.Context, who string) ([]string, error) {
	exists, err := t.userExists(ctx, who)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserDoesNotExist
	}

	raw, err := t.bin(who).ListGet(ctx, "follow_log")
	if err != nil {
		return nil, err
	}
	current := foldFollowLog(raw)
	out := make([]string, 0, len(current))
	for whom, following := range current {
		if following {
			out = append(out, whom)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Home implements home(user) (spec §4.3.1 / §4.3.2).
func (t *Translator) Home(ctx context.Context, user string) ([]Post, error) {
	exists, err := t.userExists(ctx, user)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserDoesNotExist
	}

	raw, err := t.bin(user).ListGet(ctx, "follow_log")
	if err != nil {
		return nil, err
	}
	current := foldFollowLog(raw)

	targets := make([]string, 0, len(current)+1)
	targets = append(targets, user)
	for whom, following := range current {
		if following {
			targets = append(targets, whom)
		}
	}

	results := make([][]string, len(targets))
	var wg sync.WaitGroup
	var firstErr error
	var mu sync.Mutex
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target string) {
			defer wg.Done()
			vals, err := t.bin(target).ListGet(ctx, "posts")
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			results[i] = vals
		}(i, target)
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	var all []string
	for _, r := range results {
		all = append(all, r...)
	}
	return newestPosts(all), nil
}

func (t *Translator) requireBothExist(ctx context.Context, who, whom string) error {
	whoExists, err := t.userExists(ctx, who)
	if err != nil {
		return err
	}
	if !whoExists {
		return ErrUserDoesNotExist
	}
	whomExists, err := t.userExists(ctx, whom)
	if err != nil {
		return err
	}
	if !whomExists {
		return ErrUserDoesNotExist
	}
	return nil
}

func countFollowing(current map[string]bool) int {
	n := 0
	for _, following := range current {
		if following {
			n++
		}
	}
	return n
}
