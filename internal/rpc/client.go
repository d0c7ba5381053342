package rpc

import (
	"context"
	"fmt"
	"time"
)

// Client issues typed RPC calls against a single back-end address. A Client
// holds no state beyond the address and timeout; internal/binstore owns one
// per known back-end and is responsible for retry/failover across replicas.
type Client struct {
	addr    string
	timeout time.Duration
}

// NewClient returns a Client targeting addr (e.g. "http://10.0.0.4:7070"),
// applying DefaultTimeout to every call.
func NewClient(addr string) *Client {
	return &Client{addr: addr, timeout: DefaultTimeout}
}

// WithTimeout returns a copy of the Client using timeout instead of
// DefaultTimeout for subsequent calls.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	return &Client{addr: c.addr, timeout: timeout}
}

// Addr returns the back-end address this Client was built for.
func (c *Client) Addr() string {
	return c.addr
}

func (c *Client) url(path string) string {
	return fmt.Sprintf("%s%s", c.addr, path)
}

func (c *Client) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, c.timeout)
}

// Get implements get(key) of spec §6.1.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	cctx, cancel := c.ctx(ctx)
	defer cancel()

	var resp GetResponse
	if err := postJSON(cctx, c.url("/rpc/get"), GetRequest{Key: key}, &resp); err != nil {
		return "", err
	}
	return resp.Value, nil
}

// Set implements set(key, value) of spec §6.1. An empty value deletes key.
func (c *Client) Set(ctx context.Context, key, value string) error {
	cctx, cancel := c.ctx(ctx)
	defer cancel()

	var resp SetResponse
	return postJSON(cctx, c.url("/rpc/set"), SetRequest{Key: key, Value: value}, &resp)
}

// Keys implements keys(prefix, suffix) of spec §6.1.
func (c *Client) Keys(ctx context.Context, prefix, suffix string) ([]string, error) {
	cctx, cancel := c.ctx(ctx)
	defer cancel()

	var resp KeysResponse
	if err := postJSON(cctx, c.url("/rpc/keys"), KeysRequest{Prefix: prefix, Suffix: suffix}, &resp); err != nil {
		return nil, err
	}
	return resp.Keys, nil
}

// ListGet implements list_get(key) of spec §6.1.
func (c *Client) ListGet(ctx context.Context, key string) ([]string, error) {
	cctx, cancel := c.ctx(ctx)
	defer cancel()

	var resp ListGetResponse
	if err := postJSON(cctx, c.url("/rpc/list_get"), ListGetRequest{Key: key}, &resp); err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// ListAppend implements list_append(key, value) of spec §6.1.
func (c *Client) ListAppend(ctx context.Context, key, value string) error {
	cctx, cancel := c.ctx(ctx)
	defer cancel()

	var resp ListAppendResponse
	return postJSON(cctx, c.url("/rpc/list_append"), ListAppendRequest{Key: key, Value: value}, &resp)
}

// ListRemove implements list_remove(key, value) of spec §6.1, returning the
// number of elements removed.
func (c *Client) ListRemove(ctx context.Context, key, value string) (int, error) {
	cctx, cancel := c.ctx(ctx)
	defer cancel()

	var resp ListRemoveResponse
	if err := postJSON(cctx, c.url("/rpc/list_remove"), ListRemoveRequest{Key: key, Value: value}, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// ListKeys implements list_keys(prefix, suffix) of spec §6.1.
func (c *Client) ListKeys(ctx context.Context, prefix, suffix string) ([]string, error) {
	cctx, cancel := c.ctx(ctx)
	defer cancel()

	var resp ListKeysResponse
	if err := postJSON(cctx, c.url("/rpc/list_keys"), ListKeysRequest{Prefix: prefix, Suffix: suffix}, &resp); err != nil {
		return nil, err
	}
	return resp.Keys, nil
}

// Clock implements clock(at_least) of spec §6.1. If the back-end's clock has
// saturated, the returned error wraps ErrMaxedSeq-equivalent information by
// way of a non-nil error; callers should treat any error here as the back-end
// being unusable for further clock advances.
func (c *Client) Clock(ctx context.Context, atLeast uint64) (uint64, error) {
	cctx, cancel := c.ctx(ctx)
	defer cancel()

	var resp ClockResponse
	if err := postJSON(cctx, c.url("/rpc/clock"), ClockRequest{AtLeast: atLeast}, &resp); err != nil {
		return 0, err
	}
	if resp.Maxed {
		return resp.Value, fmt.Errorf("back-end %s: clock saturated", c.addr)
	}
	return resp.Value, nil
}

// Health pings the back-end's /health endpoint. Neither Bin Storage clients
// nor internal/keeper call it; the keeper's liveness probe is Clock(0).
func (c *Client) Health(ctx context.Context) error {
	cctx, cancel := c.ctx(ctx)
	defer cancel()
	return getJSON(cctx, c.url("/health"), nil)
}
