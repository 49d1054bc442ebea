package models

import (
	"github.com/pefman/tactics-duel/internal/catalog"
	"github.com/pefman/tactics-duel/internal/game"
	"github.com/pefman/tactics-duel/internal/grid"
)

// ========================= Wire Models =========================
// Request and response bodies shared by the server and the client.

// CreateBattleRequest starts a battle from a named scenario or an inline one.
// Inline wins when both are set.
type CreateBattleRequest struct {
	Scenario string            `json:"scenario,omitempty"`
	Inline   *catalog.Scenario `json:"inline,omitempty"`
}

type TurnRequest struct {
	UnitID string `json:"unit_id"`
}

type ActionRequest struct {
	CasterID     string     `json:"caster_id"`
	Ability      string     `json:"ability"`
	TargetCell   *grid.Cell `json:"target_cell,omitempty"`
	TargetUnitID string     `json:"target_unit_id,omitempty"`
}

// Request converts the body to an executor request. Seeds and dodge answers
// are never taken from the client.
func (a ActionRequest) Request() game.Request {
	return game.Request{
		CasterID:     a.CasterID,
		Ability:      a.Ability,
		TargetCell:   a.TargetCell,
		TargetUnitID: a.TargetUnitID,
	}
}

type DodgeRequest struct {
	UnitID string `json:"unit_id"`
	Dodged bool   `json:"dodged"`
}

// AwaitingResponse is returned with 202 when an action waits for a dodge.
type AwaitingResponse struct {
	Awaiting game.AwaitingDodge `json:"awaiting"`
	Deadline int64              `json:"deadline,omitempty"` // unix millis
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Kind    string            `json:"kind,omitempty"`
	Status  int               `json:"status"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// WebSocket message structure
type WsMsg struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Message types sent on the battle stream besides session events.
const (
	MsgHello = "hello"
	MsgState = "state"
	MsgError = "error"
)
