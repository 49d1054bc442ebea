// Package session runs battles: it serialises actions on one arena, draws
// their seeds, journals them and pushes results to observers in commit order.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/pefman/tactics-duel/internal/catalog"
	apperrors "github.com/pefman/tactics-duel/internal/errors"
	"github.com/pefman/tactics-duel/internal/game"
	"github.com/pefman/tactics-duel/internal/grid"
	"github.com/pefman/tactics-duel/internal/journal"
)

// Journal stores committed entries.
type Journal interface {
	Append(ctx context.Context, e journal.Entry) error
}

type turnPayload struct {
	UnitID string `json:"unit_id"`
}

type actionPayload struct {
	Request game.Request `json:"request"`
	Result  game.Result  `json:"result"`
}

// Pending is an action parked until a unit answers its dodge.
type Pending struct {
	UnitID   string       `json:"unit_id"`
	Cell     grid.Cell    `json:"cell"`
	Request  game.Request `json:"request"`
	Since    time.Time    `json:"since"`
	Deadline time.Time    `json:"deadline,omitempty"`
}

type pending struct {
	Pending
	timer *time.Timer
}

// View is the public state of a battle.
type View struct {
	ID       string        `json:"id"`
	Scenario string        `json:"scenario"`
	Arena    game.Snapshot `json:"arena"`
	Pending  *Pending      `json:"pending,omitempty"`
	Over     bool          `json:"over"`
	Winner   string        `json:"winner,omitempty"`
}

// Battle is one running fight. All methods are safe for concurrent use; one
// action is validated, resolved and committed before the next starts.
type Battle struct {
	ID       string
	Scenario catalog.Scenario

	mu      sync.Mutex
	arena   *game.Arena
	exec    *game.Executor
	journal Journal
	opts    Options
	seq     int64
	pending *pending

	local  observers
	global *observers
}

// Subscribe registers fn for this battle's events and returns a function
// that removes it.
func (b *Battle) Subscribe(fn Observer) func() {
	return b.local.add(fn)
}

// View returns a copy of the current state.
func (b *Battle) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.view()
}

func (b *Battle) view() View {
	v := View{ID: b.ID, Scenario: b.Scenario.Name, Arena: b.arena.Snapshot()}
	if b.pending != nil {
		p := b.pending.Pending
		v.Pending = &p
	}
	v.Winner, v.Over = b.arena.Over()
	return v
}

// BeginTurn hands the turn to unitID.
func (b *Battle) BeginTurn(ctx context.Context, unitID string) (game.TurnStart, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ready(); err != nil {
		return game.TurnStart{}, err
	}
	ts, err := b.arena.BeginTurn(unitID)
	if err != nil {
		return game.TurnStart{}, err
	}
	log.Printf("battle %s: turn %d unit=%s budget=%+v", b.ID, ts.Turn, unitID, ts.Budget)
	b.record(ctx, journal.KindTurn, 0, turnPayload{UnitID: unitID})
	b.emit(EventTurnStarted, ts)
	return ts, nil
}

// Submit executes one action with a fresh seed. When a projectile reaches a
// unit that answers its own dodges, the action is parked and the returned
// error unwraps to *game.AwaitingDodge.
func (b *Battle) Submit(ctx context.Context, req game.Request) (game.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ready(); err != nil {
		return game.Result{}, err
	}
	seed, err := b.opts.NewSeed()
	if err != nil {
		return game.Result{}, apperrors.Wrap(apperrors.CodeUnknown, "draw action seed", err)
	}
	req.Seed = seed
	req.Dodges = nil
	req.AwaitDodge = b.opts.DodgeTimeout > 0
	return b.run(ctx, req)
}

// ResumeDodge answers the parked dodge of unitID and re-runs the action with
// its original seed.
func (b *Battle) ResumeDodge(ctx context.Context, unitID string, dodged bool) (game.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.pending
	if p == nil || p.UnitID != unitID {
		return game.Result{}, apperrors.WithMetadata(apperrors.CodeNoPendingAction,
			"no dodge is pending for this unit", map[string]string{"unit_id": unitID})
	}
	b.clearPending()
	req := p.Request
	dodges := make(map[string]bool, len(req.Dodges)+1)
	for id, v := range req.Dodges {
		dodges[id] = v
	}
	dodges[unitID] = dodged
	req.Dodges = dodges
	return b.run(ctx, req)
}

// ExpirePending resolves the parked action with rolled dodges for every unit
// that has not answered.
func (b *Battle) ExpirePending(ctx context.Context) (game.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == nil {
		return game.Result{}, apperrors.New(apperrors.CodeNoPendingAction, "no action is pending")
	}
	return b.expireLocked(ctx)
}

func (b *Battle) expireLocked(ctx context.Context) (game.Result, error) {
	p := b.pending
	b.clearPending()
	req := p.Request
	req.AwaitDodge = false
	log.Printf("battle %s: dodge timeout unit=%s, rolling", b.ID, p.UnitID)
	return b.run(ctx, req)
}

// Preview predicts an aim without rolling or mutating anything.
func (b *Battle) Preview(casterID, code string, hovered *grid.Cell) (game.Preview, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exec.Preview(b.arena, casterID, code, hovered)
}

// Close stops the pending dodge timer, if any.
func (b *Battle) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearPending()
}

func (b *Battle) ready() error {
	if _, over := b.arena.Over(); over {
		return apperrors.New(apperrors.CodeBattleOver, "the battle is over")
	}
	if b.pending != nil {
		return apperrors.WithMetadata(apperrors.CodeActionPending,
			"an action is waiting for a dodge", map[string]string{"unit_id": b.pending.UnitID})
	}
	return nil
}

func (b *Battle) run(ctx context.Context, req game.Request) (game.Result, error) {
	res, err := b.exec.Execute(b.arena, req)
	var wait *game.AwaitingDodge
	if errors.As(err, &wait) {
		b.park(req, *wait)
		return game.Result{}, err
	}
	if err != nil {
		log.Printf("battle %s: %s by %s refused (%s): %v", b.ID, req.Ability, req.CasterID, apperrors.KindOf(err), err)
		return game.Result{}, err
	}
	res.ID = b.opts.NewID()
	req.AwaitDodge = false
	log.Printf("battle %s: seq=%d %s by %s targets=%d defeated=%v", b.ID, res.Sequence, res.Ability, res.CasterID, len(res.Targets), res.Defeated)
	b.record(ctx, journal.KindAction, req.Seed, actionPayload{Request: req, Result: res})
	b.emit(EventActionResult, res)
	if winner, over := b.arena.Over(); over {
		log.Printf("battle %s: over winner=%q", b.ID, winner)
		b.emit(EventBattleOver, map[string]string{"winner": winner})
	}
	return res, nil
}

func (b *Battle) park(req game.Request, wait game.AwaitingDodge) {
	now := b.opts.Now()
	p := &pending{Pending: Pending{UnitID: wait.UnitID, Cell: wait.Cell, Request: req, Since: now}}
	if d := b.opts.DodgeTimeout; d > 0 {
		p.Deadline = now.Add(d)
		p.timer = time.AfterFunc(d, func() { b.expire(p) })
	}
	b.pending = p
	log.Printf("battle %s: %s by %s waiting on dodge from %s", b.ID, req.Ability, req.CasterID, wait.UnitID)
	b.emit(EventAwaitingDodge, p.Pending)
}

func (b *Battle) expire(p *pending) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending != p {
		return
	}
	if _, err := b.expireLocked(context.Background()); err != nil && !errors.Is(err, game.ErrAwaitingDodge) {
		log.Printf("battle %s: expired action failed: %v", b.ID, err)
	}
}

func (b *Battle) clearPending() {
	if b.pending == nil {
		return
	}
	if b.pending.timer != nil {
		b.pending.timer.Stop()
	}
	b.pending = nil
}

func (b *Battle) record(ctx context.Context, kind journal.Kind, seed int64, payload any) {
	b.seq++
	if b.journal == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("battle %s: encode %s entry: %v", b.ID, kind, err)
		return
	}
	e := journal.Entry{BattleID: b.ID, Seq: b.seq, Kind: kind, Seed: seed, Payload: data, CreatedAt: b.opts.Now()}
	if err := b.journal.Append(ctx, e); err != nil {
		log.Printf("battle %s: journal append seq=%d: %v", b.ID, b.seq, err)
	}
}

func (b *Battle) emit(typ string, data any) {
	owners := map[string]string{}
	for _, u := range b.arena.Units() {
		owners[u.ID] = u.Owner
	}
	ev := Event{BattleID: b.ID, Type: typ, Data: data, Owners: owners}
	b.local.emit(ev)
	if b.global != nil {
		b.global.emit(ev)
	}
}
