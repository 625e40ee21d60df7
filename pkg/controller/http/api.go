package http

import (
	"encoding/json"
	"net/http"

	"github.com/0xpablo/slackkit/pkg/repository/memory"
	"github.com/0xpablo/slackkit/pkg/usecase"
	"github.com/go-chi/chi/v5"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{
		"status": "ok",
		"state":  s.replica.State().String(),
	})
}

type stateResponse struct {
	State   string               `json:"state"`
	Session *usecase.SessionInfo `json:"session,omitempty"`
	Replica memory.Summary       `json:"replica"`
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	resp := stateResponse{State: s.replica.State().String()}
	if info, ok := s.replica.Session(); ok {
		resp.Session = &info
	}
	s.replica.View(func(store *memory.Store) {
		resp.Replica = store.Summary()
	})
	writeJSON(r.Context(), w, http.StatusOK, resp)
}

// channel and user are marshaled under the read lock; the entities keep
// changing once it is released
func (s *Server) channel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var data json.RawMessage
	var err error
	s.replica.View(func(store *memory.Store) {
		if ch := store.Channel(id); ch != nil {
			data, err = json.Marshal(ch)
		}
	})
	s.writeEntity(w, r, data, err)
}

func (s *Server) user(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var data json.RawMessage
	var err error
	s.replica.View(func(store *memory.Store) {
		if u := store.User(id); u != nil {
			data, err = json.Marshal(u)
		}
	})
	s.writeEntity(w, r, data, err)
}

func (s *Server) writeEntity(w http.ResponseWriter, r *http.Request, data json.RawMessage, err error) {
	switch {
	case err != nil:
		writeJSON(r.Context(), w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	case data == nil:
		writeJSON(r.Context(), w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		writeJSON(r.Context(), w, http.StatusOK, data)
	}
}
