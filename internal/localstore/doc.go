// Package localstore implements the in-process, thread-safe key-value store
// that backs a single Tribbler back-end process.
//
// # Overview
//
// localstore is the "local storage" collaborator of the Bin Storage spec: a
// map of string cells, a map of append-only string lists, and a single
// monotonic clock, all guarded for concurrent access. It is the only
// stateful component in the system — the Bin Storage client and the
// Tribbler front-end translator are both stateless and restart-safe.
//
// # Concurrency
//
// All operations are safe for concurrent use. Cell and list operations use
// a sync.RWMutex so that concurrent readers never block each other; the
// clock uses its own mutex since every call to Clock is a read-modify-write.
//
// # Lineage
//
// This package generalizes a single string->[]byte map into the
// five-operation surface required by Bin Storage: get/set, keys,
// list_get/list_append/list_remove, list_keys, and clock. The
// copy-on-read/copy-on-write discipline and the RWMutex-based locking
// strategy carry over from that simpler map; the list and clock operations
// are new.
package localstore
