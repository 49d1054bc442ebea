// Package server exposes battles over HTTP and websockets.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	apperrors "github.com/pefman/tactics-duel/internal/errors"
	"github.com/pefman/tactics-duel/internal/journal"
	"github.com/pefman/tactics-duel/internal/models"
	"github.com/pefman/tactics-duel/internal/session"
	"github.com/pefman/tactics-duel/internal/stats"
)

// JournalReader lists journaled entries.
type JournalReader interface {
	List(ctx context.Context, battleID string) ([]journal.Entry, error)
}

// Options wires the optional parts of a server.
type Options struct {
	ScenarioDir string
	Journal     JournalReader
	Stats       *stats.Tracker
	Version     string
	BuildTime   string
}

// Server routes requests to the battle manager.
type Server struct {
	manager *session.Manager
	hub     *Hub
	opts    Options
	router  *mux.Router
}

// New builds a server and subscribes its hub and stats to manager.
func New(manager *session.Manager, opts Options) *Server {
	s := &Server{manager: manager, hub: NewHub(), opts: opts}
	manager.Observe(s.hub.Observe)
	if opts.Stats != nil {
		manager.Observe(opts.Stats.Observe)
	}
	s.router = s.routes()
	return s
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return withCORS(s.router)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/version", s.handleVersion).Methods(http.MethodGet)
	r.HandleFunc("/stats/{player}", s.handleStats).Methods(http.MethodGet)

	r.HandleFunc("/battles", s.handleListBattles).Methods(http.MethodGet)
	r.HandleFunc("/battles", s.handleCreateBattle).Methods(http.MethodPost)
	r.HandleFunc("/battles/{id}", s.handleGetBattle).Methods(http.MethodGet)
	r.HandleFunc("/battles/{id}/turns", s.handleTurn).Methods(http.MethodPost)
	r.HandleFunc("/battles/{id}/actions", s.handleAction).Methods(http.MethodPost)
	r.HandleFunc("/battles/{id}/dodges", s.handleDodge).Methods(http.MethodPost)
	r.HandleFunc("/battles/{id}/preview", s.handlePreview).Methods(http.MethodGet)
	r.HandleFunc("/battles/{id}/journal", s.handleJournal).Methods(http.MethodGet)
	r.HandleFunc("/battles/{id}/ws", s.handleWS).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "no route for "+r.URL.Path)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, r.Method+" not allowed on "+r.URL.Path)
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, models.ErrorResponse{Error: msg, Status: code})
}

// writeDomainError maps an engine error onto a status: rejections and bad
// targets are 422, a missing battle 404, contention on a pending action 409,
// and anything unclassified 409 so the client resyncs.
func writeDomainError(w http.ResponseWriter, err error) {
	body := models.ErrorResponse{Error: err.Error(), Kind: apperrors.KindOf(err).String()}
	e, ok := apperrors.As(err)
	if ok {
		body.Code = string(e.Code)
		body.Meta = e.Metadata
	}
	status := http.StatusConflict
	switch {
	case ok && e.Code == apperrors.CodeBattleNotFound:
		status = http.StatusNotFound
	case ok && (e.Code == apperrors.CodeActionPending || e.Code == apperrors.CodeBattleOver):
		status = http.StatusConflict
	default:
		switch apperrors.KindOf(err) {
		case apperrors.KindRejected, apperrors.KindInvalidTarget:
			status = http.StatusUnprocessableEntity
		}
	}
	body.Status = status
	writeJSON(w, status, body)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
