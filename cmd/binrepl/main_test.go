package main

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/tribbler/internal/binstore"
	"github.com/dreamware/tribbler/internal/localstore"
	"github.com/dreamware/tribbler/internal/rpc"
)

func newTestBin(t *testing.T) binstore.Storage {
	t.Helper()
	srv := httptest.NewServer(rpc.NewServer(localstore.New(), zerolog.Nop()))
	t.Cleanup(srv.Close)
	client := binstore.NewClient(binstore.NewRing([]string{srv.URL}), 1, zerolog.Nop())
	return client.Bin("demo")
}

func TestDispatchBinSetGet(t *testing.T) {
	s := newTestBin(t)
	ctx := context.Background()

	out, err := dispatchBin(ctx, s, []string{"set", "k", "v"})
	require.NoError(t, err)
	require.Equal(t, "ok", out)

	out, err = dispatchBin(ctx, s, []string{"get", "k"})
	require.NoError(t, err)
	require.Equal(t, `"v"`, out)
}

func TestDispatchBinUnknownCommand(t *testing.T) {
	_, err := dispatchBin(context.Background(), newTestBin(t), []string{"nope"})
	require.Error(t, err)
}
