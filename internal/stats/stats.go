// Package stats aggregates per-player combat statistics from committed
// action results.
package stats

import (
	"sync"
	"time"

	"github.com/pefman/tactics-duel/internal/game"
	"github.com/pefman/tactics-duel/internal/session"
)

// PlayerStats is the running tally of one owner.
type PlayerStats struct {
	Player      string `json:"player"`
	Actions     int    `json:"actions"`
	DamageDealt int    `json:"damage_dealt"`
	DamageTaken int    `json:"damage_taken"`
	Healing     int    `json:"healing"`
	Defeats     int    `json:"defeats"`
	Losses      int    `json:"losses"`
	LargestHit  int    `json:"largest_hit"`
	Wins        int    `json:"wins"`
}

// Hit is one damaging blow, kept for the daily record.
type Hit struct {
	Player   string    `json:"player"`
	BattleID string    `json:"battle_id"`
	Caster   string    `json:"caster"`
	Target   string    `json:"target"`
	Ability  string    `json:"ability"`
	Damage   int       `json:"damage"`
	At       time.Time `json:"at"`
}

// Tracker consumes battle events. The zero value is not usable; use New.
type Tracker struct {
	mu       sync.Mutex
	players  map[string]*PlayerStats
	dailyMax map[string]Hit // by date YYYY-MM-DD UTC
	now      func() time.Time
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{
		players:  make(map[string]*PlayerStats),
		dailyMax: make(map[string]Hit),
		now:      time.Now,
	}
}

// Observe is a session.Observer.
func (t *Tracker) Observe(ev session.Event) {
	switch ev.Type {
	case session.EventActionResult:
		if res, ok := ev.Data.(game.Result); ok {
			t.record(ev.BattleID, ev.Owners, res)
		}
	case session.EventBattleOver:
		if m, ok := ev.Data.(map[string]string); ok && m["winner"] != "" {
			t.mu.Lock()
			t.player(m["winner"]).Wins++
			t.mu.Unlock()
		}
	}
}

func (t *Tracker) record(battleID string, owners map[string]string, res game.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	owner := owners[res.CasterID]
	p := t.player(owner)
	p.Actions++
	for _, tr := range res.Targets {
		victim := t.player(owners[tr.UnitID])
		dealt := 0
		if tr.Damage != nil {
			dealt += tr.Damage.Amount
		}
		if tr.Collision != nil {
			dealt += tr.Collision.Amount
		}
		if tr.UnitID != res.CasterID {
			p.DamageDealt += dealt
		}
		victim.DamageTaken += dealt
		p.Healing += tr.Healed
		if tr.Defeated {
			victim.Losses++
			if owners[tr.UnitID] != owner {
				p.Defeats++
			}
		}
		if dealt > p.LargestHit {
			p.LargestHit = dealt
		}
		if dealt > 0 {
			t.saveDailyMax(Hit{Player: owner, BattleID: battleID, Caster: res.CasterID, Target: tr.UnitID, Ability: res.Ability, Damage: dealt, At: t.now().UTC()})
		}
	}
}

func (t *Tracker) player(name string) *PlayerStats {
	p, ok := t.players[name]
	if !ok {
		p = &PlayerStats{Player: name}
		t.players[name] = p
	}
	return p
}

// Player returns the tally of name. Unknown players read as zero.
func (t *Tracker) Player(name string) PlayerStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.players[name]; ok {
		return *p
	}
	return PlayerStats{Player: name}
}

// saveDailyMax keeps the larger hit of the day. Ties keep the earlier one.
func (t *Tracker) saveDailyMax(h Hit) {
	dateKey := h.At.Format("2006-01-02")
	if cur, ok := t.dailyMax[dateKey]; ok && cur.Damage >= h.Damage {
		return
	}
	t.dailyMax[dateKey] = h
}

// MaxHitToday returns today's largest hit across every battle.
func (t *Tracker) MaxHitToday() (Hit, bool) {
	dateKey := t.now().UTC().Format("2006-01-02")
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.dailyMax[dateKey]
	return h, ok
}
