package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/pefman/tactics-duel/internal/game"
	"github.com/pefman/tactics-duel/internal/models"
	"github.com/pefman/tactics-duel/internal/session"
)

type clientIn struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// handleWS streams a battle's events. Clients may also send turn, action and
// dodge messages; their failures are answered on the same connection only.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	b, ok := s.battle(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade battle=%s: %v", b.ID, err)
		return
	}
	c := newConnection(conn, b.ID)
	go c.writeLoop()
	s.hub.Join(c)
	log.Printf("ws: connect battle=%s from=%s", b.ID, r.RemoteAddr)
	c.send(models.WsMsg{Type: models.MsgHello, Data: map[string]string{"battle_id": b.ID}})
	c.send(models.WsMsg{Type: models.MsgState, Data: b.View()})
	go s.wsReader(c, b)
}

func (s *Server) wsReader(c *Connection, b *session.Battle) {
	defer func() {
		s.hub.Leave(c)
		c.Close()
		log.Printf("ws: closed battle=%s", c.BattleID)
	}()
	ctx := context.Background()
	for {
		var in clientIn
		if err := c.ws.ReadJSON(&in); err != nil {
			return
		}
		var err error
		switch in.Type {
		case "turn":
			var body models.TurnRequest
			if err = json.Unmarshal(in.Data, &body); err == nil {
				_, err = b.BeginTurn(ctx, body.UnitID)
			}
		case "action":
			var body models.ActionRequest
			if err = json.Unmarshal(in.Data, &body); err == nil {
				_, err = b.Submit(ctx, body.Request())
			}
		case "dodge":
			var body models.DodgeRequest
			if err = json.Unmarshal(in.Data, &body); err == nil {
				_, err = b.ResumeDodge(ctx, body.UnitID, body.Dodged)
			}
		case "state":
			c.send(models.WsMsg{Type: models.MsgState, Data: b.View()})
		default:
			log.Printf("ws: battle=%s unknown message type %q", c.BattleID, in.Type)
			continue
		}
		if err != nil && !errors.Is(err, game.ErrAwaitingDodge) {
			c.send(models.WsMsg{Type: models.MsgError, Data: game.Reject(err)})
		}
	}
}
