// Package backend wraps a localstore.Store and an rpc.Server into the
// process a Tribbler back-end runs (spec §6.1), adding per-method operation
// counters and a /stats diagnostic endpoint alongside the RPC surface.
//
// # Overview
//
// A Backend is the thing cmd/backend actually serves over HTTP. It is a
// thin middleware layer: every /rpc/* request is counted (locally, and via
// internal/metrics) and timed before being delegated to the wrapped
// rpc.Server. /health and /stats are served directly.
//
// # Lineage
//
// The atomic-counters-plus-snapshot shape (OpCounts/Stats) mirrors how
// earlier shard-routing layers in this lineage tracked per-operation
// counts and exposed them as a point-in-time struct; here it is retargeted
// onto the Bin Storage back-end's actual RPC surface, and mirrored into the
// internal/metrics Prometheus collectors. The Backend's own mux serves
// /rpc/*, /health and /stats only; it does not serve /metrics.
package backend
