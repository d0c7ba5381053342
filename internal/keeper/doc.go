// Package keeper implements the Keeper: a background process that maintains
// the invariants of the distributed bin storage that clients cannot
// maintain on their own (spec §4).
//
// # Responsibilities
//
//  1. Clock-floor synchronization: periodically read every live back-end's
//     clock, compute the max, and push it back out as a floor (clocksync.go).
//  2. Liveness monitoring: probe every back-end on an interval, marking a
//     back-end down after F consecutive failures and up again on the next
//     success (liveness.go).
//  3. Replica repair: when a back-end recovers after a liveness failure,
//     copy every bin's cells and lists whose fixed replica range includes it
//     from a live sibling replica, since in-memory storage means a restart
//     loses all data (migration.go). PlanMigrations additionally supports
//     repairing an actual ring-membership change (an operator regenerating
//     the topology with a different back-end set), holding the ring fixed
//     is only valid for liveness churn, not a genuine resize.
//  4. Keeper-of-keepers coordination: elect a single keeper per back-end
//     range to own migration duty, via a lease stored in a well-known KV
//     key (election.go).
//
// A Keeper is a state machine: starting -> syncing_initial -> steady ->
// (on back-end recovery) repairing -> steady, with a terminal failed state
// on unrecoverable RPC errors during initial sync (keeper.go).
//
// # Lineage
//
// The liveness loop generalizes an HTTP /health polling pattern into a
// clock(0) RPC probe against internal/binstore's back-ends, keeping the
// same ticker/context-cancellation/WaitGroup shutdown discipline. Leader
// election and replica migration have no equivalent elsewhere in this
// codebase and are built from scratch, grounded in the design described by
// spec §4.
package keeper
