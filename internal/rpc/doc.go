// Package rpc implements the back-end RPC surface of spec §6.1: eight
// unary request/response methods (get, set, keys, list_get, list_append,
// list_remove, list_keys, clock) delivered over an opaque transport.
//
// # Overview
//
// The wire framing itself is explicitly out of scope for this system
// (spec §1): any unary request/response transport suffices. This package
// uses net/http with JSON-encoded bodies, generalized from ad hoc
// cluster-control messages to the fixed eight-method back-end surface.
//
// Server wraps an internal/localstore.Store and exposes it over HTTP.
// Client dials a back-end address and issues typed calls, attaching a
// deadline to every request (spec §5: default 3s, configurable).
//
// # Failure model
//
// Every Client method returns a plain error on connect failure, timeout,
// or non-2xx response. The Bin Storage client (internal/binstore) is the
// only component that interprets these errors as replica failures and
// performs failover; this package itself is agnostic to replication.
package rpc
