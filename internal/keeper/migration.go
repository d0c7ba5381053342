package keeper

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dreamware/tribbler/internal/binstore"
	"github.com/dreamware/tribbler/internal/metrics"
	"github.com/dreamware/tribbler/internal/rpc"
)

// MigrationBound is the 20-second bound a keeper must complete any
// in-flight migration within, under the stated per-back-end throughput
// assumption (spec §4).
const MigrationBound = 20 * time.Second

// migrateBin copies every cell and list belonging to bin from src to dst,
// using wire-level keys so the copy is a faithful byte-for-byte transfer of
// what the Bin Storage client itself would read and write. It runs every
// MigrationPlan, whether from PlanRepairs (a recovered back-end) or from
// PlanMigrations (a ring membership change).
func migrateBin(ctx context.Context, bin, src, dst string, log zerolog.Logger) error {
	prefix := binstore.BinPrefix(bin)
	srcClient := rpc.NewClient(src)
	dstClient := rpc.NewClient(dst)

	cellKeys, err := srcClient.Keys(ctx, prefix, "")
	if err != nil {
		return err
	}
	for _, k := range cellKeys {
		v, err := srcClient.Get(ctx, k)
		if err != nil {
			log.Warn().Str("bin", bin).Str("key", k).Err(err).Msg("migration: read cell failed")
			continue
		}
		if err := dstClient.Set(ctx, k, v); err != nil {
			log.Warn().Str("bin", bin).Str("key", k).Err(err).Msg("migration: write cell failed")
		}
	}

	listKeys, err := srcClient.ListKeys(ctx, prefix, "")
	if err != nil {
		return err
	}
	for _, k := range listKeys {
		vals, err := srcClient.ListGet(ctx, k)
		if err != nil {
			log.Warn().Str("bin", bin).Str("key", k).Err(err).Msg("migration: read list failed")
			continue
		}
		for _, v := range vals {
			if err := dstClient.ListAppend(ctx, k, v); err != nil {
				log.Warn().Str("bin", bin).Str("key", k).Err(err).Msg("migration: append failed")
			}
		}
	}

	return nil
}

// MigrationPlan describes one bin's copy from a live source replica to a
// destination replica, computed either by PlanMigrations (diffing an old
// and new binstore.Ring) or by PlanRepairs (refilling a recovered back-end).
type MigrationPlan struct {
	Bin string
	Src string
	Dst string
}

// PlanMigrations compares oldRing and newRing over the given bin names and
// returns a MigrationPlan for every bin whose destination set gained a
// back-end absent from its old set, pairing each new destination with a
// live member of the old set to copy from.
func PlanMigrations(oldRing, newRing *binstore.Ring, replicas int, bins []string, isLive func(addr string) bool) []MigrationPlan {
	var plans []MigrationPlan
	for _, bin := range bins {
		oldSet := replicaAddrSet(oldRing, bin, replicas)
		newIdxs := newRing.ReplicaRange(bin, replicas)

		var src string
		for addr := range oldSet {
			if isLive == nil || isLive(addr) {
				src = addr
				break
			}
		}
		if src == "" {
			continue
		}

		for _, idx := range newIdxs {
			dst := newRing.Addr(idx)
			if _, already := oldSet[dst]; already {
				continue
			}
			plans = append(plans, MigrationPlan{Bin: bin, Src: src, Dst: dst})
		}
	}
	return plans
}

func replicaAddrSet(ring *binstore.Ring, bin string, replicas int) map[string]struct{} {
	out := make(map[string]struct{})
	for _, idx := range ring.ReplicaRange(bin, replicas) {
		out[ring.Addr(idx)] = struct{}{}
	}
	return out
}

// PlanRepairs computes the migrations needed to restore recovered, a
// back-end that just came back up after a liveness failure, for every bin
// whose fixed replica range includes it. Unlike PlanMigrations, it holds the
// ring itself constant: hash(bin) mod N placement is stable across liveness
// flips on a fixed back-end set, so a crash-and-restart (which loses all
// data, since storage is in-memory only) is repaired by copying from
// whichever other in-range replica is currently live, not by recomputing
// placement. This is what lets the keeper run spec §4.2's join/leave
// replica-repair duty against ordinary liveness churn rather than only
// against an operator-driven topology change.
func PlanRepairs(ring *binstore.Ring, replicas int, bins []string, recovered string, isLive func(addr string) bool) []MigrationPlan {
	var plans []MigrationPlan
	for _, bin := range bins {
		inRange := false
		var src string
		for _, idx := range ring.ReplicaRange(bin, replicas) {
			addr := ring.Addr(idx)
			if addr == recovered {
				inRange = true
				continue
			}
			if src == "" && (isLive == nil || isLive(addr)) {
				src = addr
			}
		}
		if !inRange || src == "" {
			continue
		}
		plans = append(plans, MigrationPlan{Bin: bin, Src: src, Dst: recovered})
	}
	return plans
}

// RunMigrations executes every plan, bounding the whole batch to
// MigrationBound.
func RunMigrations(ctx context.Context, plans []MigrationPlan, log zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, MigrationBound)
	defer cancel()

	for _, p := range plans {
		if err := migrateBin(ctx, p.Bin, p.Src, p.Dst, log); err != nil {
			log.Warn().Str("bin", p.Bin).Err(err).Msg("migration failed")
			metrics.MigrationsTotal.WithLabelValues("error").Inc()
			continue
		}
		metrics.MigrationsTotal.WithLabelValues("ok").Inc()
	}
	return ctx.Err()
}
