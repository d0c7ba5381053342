package keeper

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/dreamware/tribbler/internal/binstore"
)

// systemBin is the reserved bin name keepers use for coordination state.
// It is not reachable by any Tribbler user name because user names are
// length-bounded and this exceeds MAX_USERNAME_LEN.
const systemBin = "__keeper_system__"

// lockKeyFor returns the well-known KV key for a back-end range's lock
// (spec §4: "__keeper_lock/<range>").
func lockKeyFor(rangeName string) string {
	return "__keeper_lock/" + rangeName
}

// lockRecord is the JSON record stored under a range's lock key.
type lockRecord struct {
	IncarnationID string    `json:"incarnation_id"`
	LeaseDeadline time.Time `json:"lease_deadline"`
}

// Elector claims and refreshes the keeper-of-keepers lock for one back-end
// range. Only the current lock holder performs migration for that range;
// clock synchronization is done redundantly by every keeper regardless of
// lock ownership, since it is idempotent (spec §4).
type Elector struct {
	store         binstore.Storage
	rangeName     string
	incarnationID string
	lease         time.Duration
}

// NewElector builds an Elector for rangeName, using store (typically
// client.Bin(systemBin)) to persist the lock record. A fresh, time-ordered
// incarnation ID is minted per process. TryClaim does not compare IDs: an
// unexpired lease held by any other ID blocks the claim, and of two racing
// claims the last write to land wins.
func NewElector(store binstore.Storage, rangeName string, lease time.Duration) *Elector {
	return &Elector{
		store:         store,
		rangeName:     rangeName,
		incarnationID: newIncarnationID(),
		lease:         lease,
	}
}

// newIncarnationID mints a time-ordered incarnation ID: a UUIDv7 sorts
// lexicographically by creation time, which is what gives later-started
// keepers a strictly higher ID without needing a shared counter.
func newIncarnationID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// IncarnationID returns this Elector's incarnation ID.
func (e *Elector) IncarnationID() string {
	return e.incarnationID
}

// TryClaim attempts to become (or remain) the lock holder for the range. It
// succeeds if no record exists, the existing lease has expired, or the
// existing record already names this incarnation.
func (e *Elector) TryClaim(ctx context.Context) (bool, error) {
	key := lockKeyFor(e.rangeName)
	raw, err := e.store.Get(ctx, key)
	if err != nil {
		return false, err
	}

	now := time.Now()
	if raw != "" {
		var cur lockRecord
		if err := json.Unmarshal([]byte(raw), &cur); err == nil {
			if cur.IncarnationID != e.incarnationID && now.Before(cur.LeaseDeadline) {
				return false, nil
			}
		}
	}

	rec := lockRecord{IncarnationID: e.incarnationID, LeaseDeadline: now.Add(e.lease)}
	encoded, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}
	if err := e.store.Set(ctx, key, string(encoded)); err != nil {
		return false, err
	}

	// Re-read to resolve a race against another keeper that claimed
	// concurrently: whichever write landed last wins regardless of ID, and
	// the loser backs off on its next refresh while that lease is unexpired.
	raw, err = e.store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	var after lockRecord
	if err := json.Unmarshal([]byte(raw), &after); err != nil {
		return false, err
	}
	return after.IncarnationID == e.incarnationID, nil
}

// RefreshInterval is half the lease interval, per spec: "Locks are
// refreshed at half the lease interval."
func (e *Elector) RefreshInterval() time.Duration {
	return e.lease / 2
}
