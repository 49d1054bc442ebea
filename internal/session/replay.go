package session

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pefman/tactics-duel/internal/catalog"
	apperrors "github.com/pefman/tactics-duel/internal/errors"
	"github.com/pefman/tactics-duel/internal/game"
	"github.com/pefman/tactics-duel/internal/journal"
)

// Replay rebuilds a battle from its journal. Every action is executed again
// with its recorded seed and must produce the recorded result.
func Replay(exec *game.Executor, entries []journal.Entry) (*game.Arena, error) {
	if len(entries) == 0 || entries[0].Kind != journal.KindSetup {
		return nil, diverged(0, "journal does not start with a setup entry", nil)
	}
	var sc catalog.Scenario
	if err := json.Unmarshal(entries[0].Payload, &sc); err != nil {
		return nil, diverged(entries[0].Seq, "decode setup", err)
	}
	arena, err := sc.Arena(exec.Catalog)
	if err != nil {
		return nil, diverged(entries[0].Seq, "build arena", err)
	}

	for _, e := range entries[1:] {
		switch e.Kind {
		case journal.KindTurn:
			var p turnPayload
			if err := json.Unmarshal(e.Payload, &p); err != nil {
				return nil, diverged(e.Seq, "decode turn", err)
			}
			if _, err := arena.BeginTurn(p.UnitID); err != nil {
				return nil, diverged(e.Seq, "begin turn", err)
			}
		case journal.KindAction:
			var p actionPayload
			if err := json.Unmarshal(e.Payload, &p); err != nil {
				return nil, diverged(e.Seq, "decode action", err)
			}
			req := p.Request
			req.Seed = e.Seed
			req.AwaitDodge = false
			res, err := exec.Execute(arena, req)
			if err != nil {
				return nil, diverged(e.Seq, "execute "+req.Ability, err)
			}
			res.ID = p.Result.ID
			got, _ := json.Marshal(res)
			want, _ := json.Marshal(p.Result)
			if !bytes.Equal(got, want) {
				return nil, diverged(e.Seq, fmt.Sprintf("%s by %s produced a different result", req.Ability, req.CasterID), nil)
			}
		default:
			return nil, diverged(e.Seq, fmt.Sprintf("unknown entry kind %q", e.Kind), nil)
		}
	}
	return arena, nil
}

func diverged(seq int64, msg string, cause error) error {
	if cause != nil {
		msg += ": " + cause.Error()
	}
	return &apperrors.Error{
		Code:     apperrors.CodeReplayDiverged,
		Message:  msg,
		Metadata: map[string]string{"seq": fmt.Sprint(seq)},
		Cause:    cause,
	}
}
