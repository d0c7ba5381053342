package keeper

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dreamware/tribbler/internal/rpc"
)

// syncClockFloor implements the keeper's clock-floor pass (spec §4):
// read clock(0) on every live back-end, compute the max M, then issue
// clock(M) on every live back-end, ignoring failures. This is idempotent,
// so it is safe for every keeper to run it redundantly.
func syncClockFloor(ctx context.Context, addrs []string, log zerolog.Logger) {
	type result struct {
		addr string
		val  uint64
		err  error
	}

	results := make(chan result, len(addrs))
	var wg sync.WaitGroup
	for _, addr := range addrs {
		wg.Add(1)
		go func(addr string) {
			defer wg.Done()
			val, err := rpc.NewClient(addr).Clock(ctx, 0)
			results <- result{addr: addr, val: val, err: err}
		}(addr)
	}
	wg.Wait()
	close(results)

	var max uint64
	for r := range results {
		if r.err != nil {
			log.Debug().Str("addr", r.addr).Err(r.err).Msg("clock read failed during sync")
			continue
		}
		if r.val > max {
			max = r.val
		}
	}
	if max == 0 {
		return
	}

	var pushWg sync.WaitGroup
	for _, addr := range addrs {
		pushWg.Add(1)
		go func(addr string) {
			defer pushWg.Done()
			if _, err := rpc.NewClient(addr).Clock(ctx, max); err != nil {
				log.Debug().Str("addr", addr).Err(err).Msg("clock push failed during sync")
			}
		}(addr)
	}
	pushWg.Wait()
}
