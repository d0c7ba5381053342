// Package httpapi is the form-encoded HTTP front-end (spec §6.5) that turns
// browser form posts into internal/tribbler.Translator calls and serializes
// the results back to JSON.
package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dreamware/tribbler/internal/binstore"
	"github.com/dreamware/tribbler/internal/tribbler"
)

// Server adapts HTTP form requests to Translator calls.
type Server struct {
	tr  *tribbler.Translator
	log zerolog.Logger
	mux *http.ServeMux
}

// New builds a Server around tr.
func New(tr *tribbler.Translator, log zerolog.Logger) *Server {
	s := &Server{tr: tr, log: log, mux: http.NewServeMux()}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/add-user", s.handleAddUser)
	s.mux.HandleFunc("/api/list-users", s.handleListUsers)
	s.mux.HandleFunc("/api/list-tribs", s.handleListTribs)
	s.mux.HandleFunc("/api/list-home", s.handleListHome)
	s.mux.HandleFunc("/api/is-following", s.handleIsFollowing)
	s.mux.HandleFunc("/api/follow", s.handleFollow)
	s.mux.HandleFunc("/api/unfollow", s.handleUnfollow)
	s.mux.HandleFunc("/api/following", s.handleFollowing)
	s.mux.HandleFunc("/api/post", s.handlePost)
}

// postView is the wire representation of a tribbler.Post.
type postView struct {
	Clock   uint64    `json:"clock"`
	Time    time.Time `json:"time"`
	User    string    `json:"user"`
	Message string    `json:"message"`
}

func toPostView(p tribbler.Post) postView {
	return postView{Clock: p.Clock, Time: p.Time, User: p.User, Message: p.Message}
}

func toPostViews(posts []tribbler.Post) []postView {
	out := make([]postView, len(posts))
	for i, p := range posts {
		out[i] = toPostView(p)
	}
	return out
}

// writeResult replies with the given payload as JSON, merging in an "err"
// field, unless err wraps a communication failure (spec §6.5/§7), in which
// case it replies with HTTP 500 and a plain-text body.
func (s *Server) writeResult(w http.ResponseWriter, err error, payload map[string]any) {
	if errors.Is(err, binstore.ErrCommunication) {
		s.log.Error().Err(err).Msg("communication failure")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if payload == nil {
		payload = map[string]any{}
	}
	if err != nil {
		payload["err"] = err.Error()
	} else {
		payload["err"] = ""
	}
	writeJSON(w, payload)
}

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	user := r.FormValue("user")
	err := s.tr.SignUp(r.Context(), user)
	s.writeResult(w, err, nil)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.tr.ListUsers(r.Context())
	s.writeResult(w, err, map[string]any{"users": users})
}

func (s *Server) handleListTribs(w http.ResponseWriter, r *http.Request) {
	user := r.FormValue("user")
	tribs, err := s.tr.Tribs(r.Context(), user)
	s.writeResult(w, err, map[string]any{"tribs": toPostViews(tribs)})
}

func (s *Server) handleListHome(w http.ResponseWriter, r *http.Request) {
	user := r.FormValue("user")
	tribs, err := s.tr.Home(r.Context(), user)
	s.writeResult(w, err, map[string]any{"tribs": toPostViews(tribs)})
}

func (s *Server) handleIsFollowing(w http.ResponseWriter, r *http.Request) {
	who, whom := r.FormValue("who"), r.FormValue("whom")
	ok, err := s.tr.IsFollowing(r.Context(), who, whom)
	s.writeResult(w, err, map[string]any{"result": ok})
}

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	who, whom := r.FormValue("who"), r.FormValue("whom")
	err := s.tr.Follow(r.Context(), who, whom)
	s.writeResult(w, err, nil)
}

func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	who, whom := r.FormValue("who"), r.FormValue("whom")
	err := s.tr.Unfollow(r.Context(), who, whom)
	s.writeResult(w, err, nil)
}

func (s *Server) handleFollowing(w http.ResponseWriter, r *http.Request) {
	who := r.FormValue("who")
	following, err := s.tr.Following(r.Context(), who)
	s.writeResult(w, err, map[string]any{"following": following})
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	who := r.FormValue("who")
	message := r.FormValue("message")
	seenClock, _ := strconv.ParseUint(r.FormValue("seen_clock"), 10, 64)

	p, err := s.tr.Post(r.Context(), who, message, seenClock)
	s.writeResult(w, err, map[string]any{"trib": toPostView(p)})
}
