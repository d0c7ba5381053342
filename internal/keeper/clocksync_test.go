package keeper

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/tribbler/internal/localstore"
	"github.com/dreamware/tribbler/internal/rpc"
)

func TestSyncClockFloorRaisesLaggingBackends(t *testing.T) {
	storeA := localstore.New()
	storeB := localstore.New()
	srvA := httptest.NewServer(rpc.NewServer(storeA, zerolog.Nop()))
	srvB := httptest.NewServer(rpc.NewServer(storeB, zerolog.Nop()))
	defer srvA.Close()
	defer srvB.Close()

	// Advance A's clock well past B's.
	for i := 0; i < 5; i++ {
		_, err := storeA.Clock(0)
		require.NoError(t, err)
	}

	syncClockFloor(context.Background(), []string{srvA.URL, srvB.URL}, zerolog.Nop())

	bVal, err := storeB.Clock(0)
	require.NoError(t, err)
	require.Greater(t, bVal, uint64(5))
}
