package keeper

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/tribbler/internal/binstore"
	"github.com/dreamware/tribbler/internal/localstore"
	"github.com/dreamware/tribbler/internal/rpc"
)

// restartBackend simulates a process restart: it rebinds addr (losing
// whatever was listening there) to a fresh, empty store, the way an actual
// back-end would come back up with no data after a crash.
func restartBackend(t *testing.T, addr string, store *localstore.Store) *httptest.Server {
	t.Helper()
	host := strings.TrimPrefix(addr, "http://")

	var l net.Listener
	require.Eventually(t, func() bool {
		var err error
		l, err = net.Listen("tcp", host)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond, "could not rebind %s", host)

	srv := &httptest.Server{
		Listener: l,
		Config:   &http.Server{Handler: rpc.NewServer(store, zerolog.Nop())},
	}
	srv.Start()
	return srv
}

// TestKeeperRepairsRecoveredBackend drives a Keeper against two real
// back-ends end-to-end through an actual failure/recovery cycle: it kills
// one back-end, waits for the liveness monitor to mark it down, restarts it
// with empty storage (as a real crash-and-restart would leave it), and
// checks the keeper repairs its data without any direct call into
// PlanMigrations/PlanRepairs or migrateBin from the test itself.
func TestKeeperRepairsRecoveredBackend(t *testing.T) {
	storeA := localstore.New()
	storeB := localstore.New()
	srvA := httptest.NewServer(rpc.NewServer(storeA, zerolog.Nop()))
	srvB := httptest.NewServer(rpc.NewServer(storeB, zerolog.Nop()))
	defer srvB.Close()

	addrA := srvA.URL
	ring := binstore.NewRing([]string{addrA, srvB.URL})
	client := binstore.NewClient(ring, 2, zerolog.Nop())

	ctx := context.Background()
	bin := client.Bin("alice")
	require.NoError(t, bin.Set(ctx, "signup", "alice"))
	require.NoError(t, bin.ListAppend(ctx, "following", "bob"))

	cfg := DefaultConfig("range-0", 2)
	cfg.ClockInterval = 20 * time.Millisecond
	cfg.LivenessPeriod = 15 * time.Millisecond
	cfg.LeaseInterval = time.Minute

	k := New(client, cfg, func() []string { return []string{"alice"} }, zerolog.Nop())

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go k.Start(runCtx)

	select {
	case ready := <-k.Ready:
		require.True(t, ready)
	case <-time.After(2 * time.Second):
		t.Fatal("keeper never became ready")
	}

	srvA.Close()
	require.Eventually(t, func() bool {
		return !k.liven.IsHealthy(addrA)
	}, 2*time.Second, 10*time.Millisecond, "liveness monitor never marked A down")

	freshA := localstore.New()
	restarted := restartBackend(t, addrA, freshA)
	defer restarted.Close()

	prefix := binstore.BinPrefix("alice")
	require.Eventually(t, func() bool {
		return freshA.Get(prefix+"signup") == "alice"
	}, 3*time.Second, 20*time.Millisecond, "repaired back-end never received alice's cell")
	require.Equal(t, []string{"bob"}, freshA.ListGet(prefix+"following"))

	cancel()
	k.Stop()
}
