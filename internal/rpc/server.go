package rpc

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dreamware/tribbler/internal/localstore"
)

// Server exposes a localstore.Store over HTTP, implementing the eight-method
// back-end surface of spec §6.1 plus a /health liveness endpoint.
type Server struct {
	store *localstore.Store
	log   zerolog.Logger
	mux   *http.ServeMux
}

// NewServer wraps store and registers all routes. log may be the zero value
// (a disabled logger), in which case Server logs nothing.
func NewServer(store *localstore.Store, log zerolog.Logger) *Server {
	s := &Server{store: store, log: log, mux: http.NewServeMux()}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/rpc/get", s.handleGet)
	s.mux.HandleFunc("/rpc/set", s.handleSet)
	s.mux.HandleFunc("/rpc/keys", s.handleKeys)
	s.mux.HandleFunc("/rpc/list_get", s.handleListGet)
	s.mux.HandleFunc("/rpc/list_append", s.handleListAppend)
	s.mux.HandleFunc("/rpc/list_remove", s.handleListRemove)
	s.mux.HandleFunc("/rpc/list_keys", s.handleListKeys)
	s.mux.HandleFunc("/rpc/clock", s.handleClock)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func decode[T any](r *http.Request) (T, error) {
	var v T
	err := json.NewDecoder(r.Body).Decode(&v)
	return v, err
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	req, err := decode[GetRequest](r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, GetResponse{Value: s.store.Get(req.Key)})
}

func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	req, err := decode[SetRequest](r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, SetResponse{Ok: s.store.Set(req.Key, req.Value)})
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	req, err := decode[KeysRequest](r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, KeysResponse{Keys: s.store.Keys(req.Prefix, req.Suffix)})
}

func (s *Server) handleListGet(w http.ResponseWriter, r *http.Request) {
	req, err := decode[ListGetRequest](r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, ListGetResponse{Values: s.store.ListGet(req.Key)})
}

func (s *Server) handleListAppend(w http.ResponseWriter, r *http.Request) {
	req, err := decode[ListAppendRequest](r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, ListAppendResponse{Ok: s.store.ListAppend(req.Key, req.Value)})
}

func (s *Server) handleListRemove(w http.ResponseWriter, r *http.Request) {
	req, err := decode[ListRemoveRequest](r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, ListRemoveResponse{Count: s.store.ListRemove(req.Key, req.Value)})
}

func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	req, err := decode[ListKeysRequest](r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, ListKeysResponse{Keys: s.store.ListKeys(req.Prefix, req.Suffix)})
}

func (s *Server) handleClock(w http.ResponseWriter, r *http.Request) {
	req, err := decode[ClockRequest](r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	val, err := s.store.Clock(req.AtLeast)
	if err != nil {
		if errors.Is(err, localstore.ErrMaxedSeq) {
			writeJSON(w, ClockResponse{Value: val, Maxed: true})
			return
		}
		s.log.Error().Err(err).Msg("clock advance failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, ClockResponse{Value: val})
}
