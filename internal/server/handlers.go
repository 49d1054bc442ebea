package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/pefman/tactics-duel/internal/catalog"
	"github.com/pefman/tactics-duel/internal/game"
	"github.com/pefman/tactics-duel/internal/grid"
	"github.com/pefman/tactics-duel/internal/models"
	"github.com/pefman/tactics-duel/internal/session"
)

const maxBody = 1 << 20

func decode(r *http.Request, out any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Server) battle(w http.ResponseWriter, r *http.Request) (*session.Battle, bool) {
	b, err := s.manager.Get(mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return b, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": s.opts.Version,
		"time":    s.opts.BuildTime,
	})
}

func (s *Server) handleListBattles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"battles": s.manager.IDs()})
}

func (s *Server) handleCreateBattle(w http.ResponseWriter, r *http.Request) {
	var body models.CreateBattleRequest
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	var sc catalog.Scenario
	if body.Inline != nil {
		sc = *body.Inline
	} else {
		found, err := catalog.FindScenario(s.opts.ScenarioDir, body.Scenario)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		sc = found
	}
	b, err := s.manager.Create(r.Context(), sc)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b.View())
}

func (s *Server) handleGetBattle(w http.ResponseWriter, r *http.Request) {
	b, ok := s.battle(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, b.View())
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	b, ok := s.battle(w, r)
	if !ok {
		return
	}
	var body models.TurnRequest
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	ts, err := b.BeginTurn(r.Context(), body.UnitID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	b, ok := s.battle(w, r)
	if !ok {
		return
	}
	var body models.ActionRequest
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	res, err := b.Submit(r.Context(), body.Request())
	s.writeOutcome(w, b, res, err)
}

func (s *Server) handleDodge(w http.ResponseWriter, r *http.Request) {
	b, ok := s.battle(w, r)
	if !ok {
		return
	}
	var body models.DodgeRequest
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	res, err := b.ResumeDodge(r.Context(), body.UnitID, body.Dodged)
	s.writeOutcome(w, b, res, err)
}

// writeOutcome answers an action: 200 with the result, 202 while a dodge is
// awaited, or the mapped error.
func (s *Server) writeOutcome(w http.ResponseWriter, b *session.Battle, res game.Result, err error) {
	var wait *game.AwaitingDodge
	switch {
	case errors.As(err, &wait):
		out := models.AwaitingResponse{Awaiting: *wait}
		if p := b.View().Pending; p != nil && !p.Deadline.IsZero() {
			out.Deadline = p.Deadline.UnixMilli()
		}
		writeJSON(w, http.StatusAccepted, out)
	case err != nil:
		writeDomainError(w, err)
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	b, ok := s.battle(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	var hovered *grid.Cell
	if q.Get("x") != "" || q.Get("y") != "" {
		x, errX := strconv.Atoi(q.Get("x"))
		y, errY := strconv.Atoi(q.Get("y"))
		if errX != nil || errY != nil {
			writeError(w, http.StatusBadRequest, "x and y must be integers")
			return
		}
		hovered = &grid.Cell{X: x, Y: y}
	}
	p, err := b.Preview(q.Get("caster"), q.Get("ability"), hovered)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	b, ok := s.battle(w, r)
	if !ok {
		return
	}
	if s.opts.Journal == nil {
		writeError(w, http.StatusNotFound, "journal is disabled")
		return
	}
	entries, err := s.opts.Journal.List(r.Context(), b.ID)
	if err != nil {
		log.Printf("journal: list battle=%s: %v", b.ID, err)
		writeError(w, http.StatusInternalServerError, "could not read journal")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"battle_id": b.ID, "entries": entries})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.opts.Stats == nil {
		writeError(w, http.StatusNotFound, "stats are disabled")
		return
	}
	out := map[string]any{"stats": s.opts.Stats.Player(mux.Vars(r)["player"])}
	if hit, ok := s.opts.Stats.MaxHitToday(); ok {
		out["max_hit_today"] = hit
	}
	writeJSON(w, http.StatusOK, out)
}
