// Package binstore implements the Bin Storage client: the virtualization
// layer that multiplexes an unbounded set of logically isolated KV "bins"
// onto a finite ring of physical back-ends, with key-space partitioning and,
// in the fault-tolerant mode, contiguous-range replication and read
// failover. See doc.go for an overview.
package binstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dreamware/tribbler/internal/rpc"
)

// ErrCommunication is returned when every in-range replica for a bin has
// failed an operation (spec: "the handle reports a communication failure
// only when every in-range replica has failed").
var ErrCommunication = errors.New("binstore: communication failure across all replicas")

// Storage is the per-bin handle returned by Client.Bin. It forwards every
// call to the bin's back-end(s), transparently applying key namespacing and
// (when replicas > 1) write fan-out and read failover.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Keys(ctx context.Context, prefix, suffix string) ([]string, error)
	ListGet(ctx context.Context, key string) ([]string, error)
	ListAppend(ctx context.Context, key, value string) error
	ListRemove(ctx context.Context, key, value string) (int, error)
	ListKeys(ctx context.Context, prefix, suffix string) ([]string, error)
	Clock(ctx context.Context, atLeast uint64) (uint64, error)
}

// Client presents the bin(name) -> Storage facade (spec §3). It owns the
// current Ring and a cache of per-back-end RPC clients; Replicas is the
// replica count R (1 selects the non-replicated baseline: every bin is
// routed to exactly its primary).
type Client struct {
	mu       sync.RWMutex
	ring     *Ring
	replicas int
	conns    map[string]*rpc.Client
	log      zerolog.Logger
}

// NewClient builds a Client over ring with the given replica count. replicas
// must be >= 1; a value of 1 disables replication.
func NewClient(ring *Ring, replicas int, log zerolog.Logger) *Client {
	if replicas < 1 {
		replicas = 1
	}
	return &Client{
		ring:     ring,
		replicas: replicas,
		conns:    make(map[string]*rpc.Client),
		log:      log,
	}
}

// SetRing swaps in a new Ring for a changed back-end set; no caller in this
// module invokes it. Cached RPC connections are kept, including those to
// addresses that are no longer in the new ring.
func (c *Client) SetRing(ring *Ring) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ring = ring
}

// Ring returns the Client's current ring.
func (c *Client) Ring() *Ring {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ring
}

func (c *Client) connFor(addr string) *rpc.Client {
	c.mu.RLock()
	conn, ok := c.conns[addr]
	c.mu.RUnlock()
	if ok {
		return conn
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if conn, ok := c.conns[addr]; ok {
		return conn
	}
	conn = rpc.NewClient(addr)
	c.conns[addr] = conn
	return conn
}

// replicaConns returns the ordered rpc.Client set for bin, in ring order
// starting at the primary.
func (c *Client) replicaConns(bin string) []*rpc.Client {
	c.mu.RLock()
	ring := c.ring
	replicas := c.replicas
	c.mu.RUnlock()

	idxs := ring.ReplicaRange(bin, replicas)
	conns := make([]*rpc.Client, len(idxs))
	for i, idx := range idxs {
		conns[i] = c.connFor(ring.Addr(idx))
	}
	return conns
}

// Bin returns the Storage handle for the named bin.
func (c *Client) Bin(name string) Storage {
	return &binHandle{bin: name, client: c}
}

// binHandle is the Storage implementation returned by Client.Bin.
type binHandle struct {
	bin    string
	client *Client
}

// Get implements the read side: try the primary, then fail over to the
// next live replica in ring order.
func (h *binHandle) Get(ctx context.Context, key string) (string, error) {
	wireKey := namespacedKey(h.bin, key)
	var lastErr error
	for _, conn := range h.client.replicaConns(h.bin) {
		v, err := conn.Get(ctx, wireKey)
		if err == nil {
			return v, nil
		}
		lastErr = err
		h.client.log.Debug().Str("bin", h.bin).Str("addr", conn.Addr()).Err(err).Msg("get failed over")
	}
	return "", communicationErr(lastErr)
}

// Set implements the write side: fan out to every in-range replica,
// succeeding as soon as at least one accepts the write.
func (h *binHandle) Set(ctx context.Context, key, value string) error {
	wireKey := namespacedKey(h.bin, key)
	conns := h.client.replicaConns(h.bin)
	var lastErr error
	ok := false
	for _, conn := range conns {
		if err := conn.Set(ctx, wireKey, value); err != nil {
			lastErr = err
			h.client.log.Debug().Str("bin", h.bin).Str("addr", conn.Addr()).Err(err).Msg("set failed on replica")
			continue
		}
		ok = true
	}
	if !ok {
		return communicationErr(lastErr)
	}
	return nil
}

// Keys implements keys(prefix, suffix) with bin-prefix rewriting (spec
// "Pattern rewriting"), reading from the primary with failover.
func (h *binHandle) Keys(ctx context.Context, prefix, suffix string) ([]string, error) {
	wirePrefix := namespacedKey(h.bin, prefix)
	var lastErr error
	for _, conn := range h.client.replicaConns(h.bin) {
		wireKeys, err := conn.Keys(ctx, wirePrefix, suffix)
		if err != nil {
			lastErr = err
			continue
		}
		return h.stripAll(wireKeys), nil
	}
	return nil, communicationErr(lastErr)
}

func (h *binHandle) ListGet(ctx context.Context, key string) ([]string, error) {
	wireKey := namespacedKey(h.bin, key)
	var lastErr error
	for _, conn := range h.client.replicaConns(h.bin) {
		vals, err := conn.ListGet(ctx, wireKey)
		if err == nil {
			return vals, nil
		}
		lastErr = err
	}
	return nil, communicationErr(lastErr)
}

func (h *binHandle) ListAppend(ctx context.Context, key, value string) error {
	wireKey := namespacedKey(h.bin, key)
	conns := h.client.replicaConns(h.bin)
	var lastErr error
	ok := false
	for _, conn := range conns {
		if err := conn.ListAppend(ctx, wireKey, value); err != nil {
			lastErr = err
			continue
		}
		ok = true
	}
	if !ok {
		return communicationErr(lastErr)
	}
	return nil
}

// ListRemove fans out to every replica (so stale replicas converge) but
// reports the count from the primary attempt, per spec: "list_remove
// returns the count from the primary".
func (h *binHandle) ListRemove(ctx context.Context, key, value string) (int, error) {
	wireKey := namespacedKey(h.bin, key)
	conns := h.client.replicaConns(h.bin)
	if len(conns) == 0 {
		return 0, communicationErr(nil)
	}

	primaryCount, primaryErr := conns[0].ListRemove(ctx, wireKey, value)
	ok := primaryErr == nil
	for _, conn := range conns[1:] {
		if _, err := conn.ListRemove(ctx, wireKey, value); err == nil {
			ok = true
		}
	}
	if primaryErr != nil {
		if !ok {
			return 0, communicationErr(primaryErr)
		}
		// Primary failed but some replica accepted the removal; no count
		// from the primary is available, so report zero removed rather
		// than guess.
		return 0, nil
	}
	return primaryCount, nil
}

func (h *binHandle) ListKeys(ctx context.Context, prefix, suffix string) ([]string, error) {
	wirePrefix := namespacedKey(h.bin, prefix)
	var lastErr error
	for _, conn := range h.client.replicaConns(h.bin) {
		wireKeys, err := conn.ListKeys(ctx, wirePrefix, suffix)
		if err != nil {
			lastErr = err
			continue
		}
		return h.stripAll(wireKeys), nil
	}
	return nil, communicationErr(lastErr)
}

// Clock reads from the primary with failover to the next live replica;
// clock state is per-back-end so a failover changes which back-end's clock
// axis this call observes, which is acceptable since the keeper maintains a
// global floor across all of them.
func (h *binHandle) Clock(ctx context.Context, atLeast uint64) (uint64, error) {
	var lastErr error
	for _, conn := range h.client.replicaConns(h.bin) {
		v, err := conn.Clock(ctx, atLeast)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	return 0, communicationErr(lastErr)
}

func (h *binHandle) stripAll(wireKeys []string) []string {
	out := make([]string, 0, len(wireKeys))
	for _, wk := range wireKeys {
		if k, ok := stripBinPrefix(h.bin, wk); ok {
			out = append(out, k)
		}
	}
	return out
}

func communicationErr(cause error) error {
	if cause == nil {
		return ErrCommunication
	}
	return fmt.Errorf("%w: %v", ErrCommunication, cause)
}
