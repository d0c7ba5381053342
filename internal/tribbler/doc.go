// Package tribbler implements the Tribbler front-end translator (spec
// §4.3): the stateless component that turns sign-up/post/follow/home calls
// into Bin Storage operations against a per-user bin.
//
// # Overview
//
// A Translator holds no state of its own beyond a binstore.Client. Every
// operation shards on the calling user's escaped name, obtains that bin's
// Storage handle, and performs the reads/writes described by spec §4.3.1.
// Global state — the user registry — lives in a single fixed registry bin.
//
// # Record encoding
//
// Posts and follow-log entries are encoded as escaped, colon-delimited
// strings (record.go) using the same e(s) escape rule as bin names, so a
// message or user name containing a delimiter character round-trips
// exactly.
//
// # Lineage
//
// Nothing underneath ever handled a user-facing domain model like this one,
// so the translator is new: stateless handles, explicit context-carrying
// methods, exported sentinel errors, grounded directly in spec §4.3 and §7.
package tribbler
