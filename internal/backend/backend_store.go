package backend

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/dreamware/tribbler/internal/localstore"
	"github.com/dreamware/tribbler/internal/metrics"
	"github.com/dreamware/tribbler/internal/rpc"
)

// OpCounts tracks per-method RPC invocation counts for a Backend. Updated
// atomically to avoid lock contention on the hot path.
type OpCounts struct {
	Gets        uint64
	Sets        uint64
	Keys        uint64
	ListGets    uint64
	ListAppends uint64
	ListRemoves uint64
	ListKeys    uint64
	Clocks      uint64
}

// Stats is a point-in-time snapshot of a Backend's operation counts and
// underlying store size, suitable for JSON serialization over /stats.
type Stats struct {
	Ops      OpCounts `json:"ops"`
	KeyCount int      `json:"key_count"`
}

// Backend is the HTTP handler a back-end process serves: an rpc.Server
// wrapped with operation counters and a /stats endpoint.
type Backend struct {
	store     *localstore.Store
	rpcServer *rpc.Server
	log       zerolog.Logger
	mux       *http.ServeMux
	ops       OpCounts
}

// New builds a Backend around a fresh in-memory store.
func New(log zerolog.Logger) *Backend {
	store := localstore.New()
	b := &Backend{
		store:     store,
		rpcServer: rpc.NewServer(store, log),
		log:       log,
		mux:       http.NewServeMux(),
	}
	b.mux.HandleFunc("/stats", b.handleStats)
	b.mux.Handle("/health", b.rpcServer)
	b.mux.Handle("/rpc/", http.HandlerFunc(b.handleRPC))
	return b
}

// ServeHTTP implements http.Handler.
func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mux.ServeHTTP(w, r)
}

// Store exposes the underlying store for in-process access. No caller in
// this module uses it; internal/keeper reaches back-ends over RPC only.
func (b *Backend) Store() *localstore.Store {
	return b.store
}

func methodFromPath(path string) string {
	return strings.TrimPrefix(path, "/rpc/")
}

// handleRPC counts and times each /rpc/* call before delegating to the
// wrapped rpc.Server. It inspects the response status written by the
// delegate via a small wrapper to classify the outcome for metrics.
func (b *Backend) handleRPC(w http.ResponseWriter, r *http.Request) {
	method := methodFromPath(r.URL.Path)
	start := time.Now()

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	b.rpcServer.ServeHTTP(rec, r)

	metrics.RPCRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	outcome := "ok"
	if rec.status >= http.StatusBadRequest {
		outcome = "error"
	}
	metrics.RPCRequestsTotal.WithLabelValues(method, outcome).Inc()
	b.countOp(method)
}

func (b *Backend) countOp(method string) {
	switch method {
	case "get":
		atomic.AddUint64(&b.ops.Gets, 1)
	case "set":
		atomic.AddUint64(&b.ops.Sets, 1)
	case "keys":
		atomic.AddUint64(&b.ops.Keys, 1)
	case "list_get":
		atomic.AddUint64(&b.ops.ListGets, 1)
	case "list_append":
		atomic.AddUint64(&b.ops.ListAppends, 1)
	case "list_remove":
		atomic.AddUint64(&b.ops.ListRemoves, 1)
	case "list_keys":
		atomic.AddUint64(&b.ops.ListKeys, 1)
	case "clock":
		atomic.AddUint64(&b.ops.Clocks, 1)
	}
}

// Stats returns a snapshot of the Backend's operation counts and key count.
func (b *Backend) Stats() Stats {
	return Stats{
		Ops: OpCounts{
			Gets:        atomic.LoadUint64(&b.ops.Gets),
			Sets:        atomic.LoadUint64(&b.ops.Sets),
			Keys:        atomic.LoadUint64(&b.ops.Keys),
			ListGets:    atomic.LoadUint64(&b.ops.ListGets),
			ListAppends: atomic.LoadUint64(&b.ops.ListAppends),
			ListRemoves: atomic.LoadUint64(&b.ops.ListRemoves),
			ListKeys:    atomic.LoadUint64(&b.ops.ListKeys),
			Clocks:      atomic.LoadUint64(&b.ops.Clocks),
		},
		KeyCount: len(b.store.Keys("", "")),
	}
}

func (b *Backend) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(b.Stats())
}

// statusRecorder captures the status code an inner handler wrote, so the
// outer middleware can classify the outcome without re-implementing the
// handler logic.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
