package session

import (
	"log"
	"sync"
)

// Event types pushed to observers.
const (
	EventTurnStarted   = "turn_started"
	EventActionResult  = "action_result"
	EventAwaitingDodge = "awaiting_dodge"
	EventBattleOver    = "battle_over"
)

// Event is one change a battle publishes, in commit order.
type Event struct {
	BattleID string `json:"battle_id"`
	Type     string `json:"type"`
	Data     any    `json:"data"`
	// Owners maps unit ids to their owners at the time of the event.
	Owners map[string]string `json:"-"`
}

// Observer receives events synchronously while the battle is locked, so it
// must return quickly and must not call back into that battle. Slow consumers
// queue the event and deliver it elsewhere.
type Observer func(Event)

// observers is an ordered observer list safe for concurrent subscription.
type observers struct {
	mu   sync.Mutex
	next int
	subs []subscription
}

type subscription struct {
	id int
	fn Observer
}

func (o *observers) add(fn Observer) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.next++
	id := o.next
	o.subs = append(o.subs, subscription{id: id, fn: fn})
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		for i, s := range o.subs {
			if s.id == id {
				o.subs = append(o.subs[:i], o.subs[i+1:]...)
				return
			}
		}
	}
}

func (o *observers) emit(ev Event) {
	o.mu.Lock()
	subs := append([]subscription(nil), o.subs...)
	o.mu.Unlock()
	for _, s := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("battle %s: observer panic on %s: %v", ev.BattleID, ev.Type, r)
				}
			}()
			s.fn(ev)
		}()
	}
}
