package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/tribbler/internal/binstore"
	"github.com/dreamware/tribbler/internal/localstore"
	"github.com/dreamware/tribbler/internal/rpc"
	"github.com/dreamware/tribbler/internal/tribbler"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := localstore.New()
	backend := httptest.NewServer(rpc.NewServer(store, zerolog.Nop()))
	t.Cleanup(backend.Close)

	client := binstore.NewClient(binstore.NewRing([]string{backend.URL}), 1, zerolog.Nop())
	tr := tribbler.New(client)
	srv := httptest.NewServer(New(tr, zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv
}

func postForm(t *testing.T, srv *httptest.Server, path string, form url.Values) map[string]any {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestAddUserAndListUsers(t *testing.T) {
	srv := newTestServer(t)

	out := postForm(t, srv, "/api/add-user", url.Values{"user": {"alice"}})
	require.Equal(t, "", out["err"])

	out = postForm(t, srv, "/api/add-user", url.Values{"user": {"alice"}})
	require.NotEqual(t, "", out["err"])

	out = postForm(t, srv, "/api/list-users", url.Values{})
	users, ok := out["users"].([]any)
	require.True(t, ok)
	require.Contains(t, users, "alice")
}

func TestPostAndListTribs(t *testing.T) {
	srv := newTestServer(t)
	postForm(t, srv, "/api/add-user", url.Values{"user": {"alice"}})

	out := postForm(t, srv, "/api/post", url.Values{"who": {"alice"}, "message": {"hello"}, "seen_clock": {"0"}})
	require.Equal(t, "", out["err"])

	out = postForm(t, srv, "/api/list-tribs", url.Values{"user": {"alice"}})
	tribs, ok := out["tribs"].([]any)
	require.True(t, ok)
	require.Len(t, tribs, 1)
}

func TestFollowUnfollowFlow(t *testing.T) {
	srv := newTestServer(t)
	postForm(t, srv, "/api/add-user", url.Values{"user": {"alice"}})
	postForm(t, srv, "/api/add-user", url.Values{"user": {"bob"}})

	out := postForm(t, srv, "/api/follow", url.Values{"who": {"alice"}, "whom": {"bob"}})
	require.Equal(t, "", out["err"])

	out = postForm(t, srv, "/api/is-following", url.Values{"who": {"alice"}, "whom": {"bob"}})
	require.Equal(t, true, out["result"])

	out = postForm(t, srv, "/api/following", url.Values{"who": {"alice"}})
	following, ok := out["following"].([]any)
	require.True(t, ok)
	require.Equal(t, []any{"bob"}, following)

	out = postForm(t, srv, "/api/unfollow", url.Values{"who": {"alice"}, "whom": {"bob"}})
	require.Equal(t, "", out["err"])
}

func TestListHomeIncludesFollowedUserPosts(t *testing.T) {
	srv := newTestServer(t)
	postForm(t, srv, "/api/add-user", url.Values{"user": {"alice"}})
	postForm(t, srv, "/api/add-user", url.Values{"user": {"bob"}})
	postForm(t, srv, "/api/follow", url.Values{"who": {"alice"}, "whom": {"bob"}})
	postForm(t, srv, "/api/post", url.Values{"who": {"bob"}, "message": {"hi"}, "seen_clock": {"0"}})

	out := postForm(t, srv, "/api/list-home", url.Values{"user": {"alice"}})
	tribs, ok := out["tribs"].([]any)
	require.True(t, ok)
	require.Len(t, tribs, 1)
}

func TestDomainErrorDoesNotReturn500(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/add-user", "application/x-www-form-urlencoded", strings.NewReader(url.Values{"user": {"Invalid Name"}}.Encode()))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEqual(t, "", out["err"])
}
