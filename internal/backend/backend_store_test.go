package backend

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, srv *httptest.Server, path string, body, out any) {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestBackendServesRPCAndCountsOps(t *testing.T) {
	b := New(zerolog.Nop())
	srv := httptest.NewServer(b)
	defer srv.Close()

	var setResp struct{ Ok bool }
	postJSON(t, srv, "/rpc/set", map[string]string{"key": "a", "value": "1"}, &setResp)
	require.True(t, setResp.Ok)

	var getResp struct{ Value string }
	postJSON(t, srv, "/rpc/get", map[string]string{"key": "a"}, &getResp)
	require.Equal(t, "1", getResp.Value)

	stats := b.Stats()
	require.Equal(t, uint64(1), stats.Ops.Sets)
	require.Equal(t, uint64(1), stats.Ops.Gets)
	require.Equal(t, 1, stats.KeyCount)
}

func TestBackendHealthEndpoint(t *testing.T) {
	b := New(zerolog.Nop())
	srv := httptest.NewServer(b)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBackendStatsEndpoint(t *testing.T) {
	b := New(zerolog.Nop())
	srv := httptest.NewServer(b)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
}
