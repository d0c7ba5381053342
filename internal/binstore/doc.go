// Package binstore implements the Bin Storage client layer: the
// virtualization that lets an unbounded number of logically isolated KV
// "bins" share a fixed ring of back-end processes.
//
// # Overview
//
// A Client holds the current Ring (ring.go) and hands out per-bin Storage
// handles via Bin(name). Every handle rewrites keys with the bin's escaped
// name (escape.go) before forwarding to one or more back-ends over
// internal/rpc, and applies the replication and failover rules of the
// fault-tolerant mode (client.go) when Replicas > 1.
//
// # Lineage
//
// The ring placement generalizes a shard registry's consistent-hashing
// approach: FNV-1a hashing over a fixed shard count becomes xxhash-based
// hashing over a fixed back-end count, and single-owner shard assignment
// becomes a contiguous replica range. The per-bin handle pattern and its
// RWMutex-guarded connection cache follow the same client plumbing shape.
package binstore
