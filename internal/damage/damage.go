// Package damage converts contested successes into hit point and protection
// losses.
package damage

import (
	"fmt"
	"strings"
)

// Type is the damage channel.
type Type int

const (
	Physical Type = iota
	Magical
	True
)

func (t Type) String() string {
	switch t {
	case Magical:
		return "magical"
	case True:
		return "true"
	default:
		return "physical"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	v, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseType parses a damage type. Empty means physical.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "physical":
		return Physical, nil
	case "magical", "magic":
		return Magical, nil
	case "true":
		return True, nil
	default:
		return 0, fmt.Errorf("unknown damage type %q", s)
	}
}

// Pools are the depletable layers of a unit.
type Pools struct {
	HP                    int  `json:"hp"`
	MaxHP                 int  `json:"max_hp"`
	PhysicalProtection    int  `json:"physical_protection"`
	MaxPhysicalProtection int  `json:"max_physical_protection"`
	MagicalProtection     int  `json:"magical_protection"`
	MaxMagicalProtection  int  `json:"max_magical_protection"`
	PhysicalBroken        bool `json:"physical_broken"`
	MagicalBroken         bool `json:"magical_broken"`
}

// Outcome records how one hit was absorbed.
type Outcome struct {
	Type       Type `json:"type"`
	Amount     int  `json:"amount"`
	Absorbed   int  `json:"absorbed"`
	HPDamage   int  `json:"hp_damage"`
	Overkill   int  `json:"overkill,omitempty"`
	PoolBefore int  `json:"pool_before"`
	PoolAfter  int  `json:"pool_after"`
	HPBefore   int  `json:"hp_before"`
	HPAfter    int  `json:"hp_after"`
	BrokeNow   bool `json:"broke_now,omitempty"`
	Defeated   bool `json:"defeated"`
}

// Raw returns max(0, attacker×base − defender×(mitigation/2)). TRUE damage
// has no defence term.
func Raw(t Type, attackerSuccesses, base, defenderSuccesses, mitigation int) int {
	raw := attackerSuccesses * base
	if t != True {
		raw -= defenderSuccesses * (mitigation / 2)
	}
	return max(raw, 0)
}

// Apply subtracts amount from the matching protection pool first and spills
// the remainder to HP. TRUE damage goes straight to HP.
func Apply(p Pools, t Type, amount int) (Pools, Outcome) {
	amount = max(amount, 0)
	out := Outcome{Type: t, Amount: amount, HPBefore: p.HP}

	remaining := amount
	switch t {
	case Physical:
		out.PoolBefore = p.PhysicalProtection
		p.PhysicalProtection, remaining = absorb(p.PhysicalProtection, remaining)
		out.PoolAfter = p.PhysicalProtection
		if p.PhysicalProtection == 0 && out.PoolBefore > 0 {
			p.PhysicalBroken = true
			out.BrokeNow = true
		}
	case Magical:
		out.PoolBefore = p.MagicalProtection
		p.MagicalProtection, remaining = absorb(p.MagicalProtection, remaining)
		out.PoolAfter = p.MagicalProtection
		if p.MagicalProtection == 0 && out.PoolBefore > 0 {
			p.MagicalBroken = true
			out.BrokeNow = true
		}
	}
	out.Absorbed = amount - remaining

	hpLoss := min(remaining, p.HP)
	out.Overkill = remaining - hpLoss
	p.HP -= hpLoss
	out.HPDamage = hpLoss
	out.HPAfter = p.HP
	out.Defeated = p.HP == 0 && out.HPBefore > 0
	return p, out
}

// ApplyHit is Raw followed by Apply, with mitigation read from the pool type.
func ApplyHit(p Pools, t Type, attackerSuccesses, base, defenderSuccesses, mitigation int) (Pools, Outcome) {
	return Apply(p, t, Raw(t, attackerSuccesses, base, defenderSuccesses, mitigation))
}

// Heal restores HP up to the maximum and returns the amount actually healed.
func Heal(p Pools, amount int) (Pools, int) {
	if amount <= 0 || p.HP <= 0 {
		return p, 0
	}
	before := p.HP
	p.HP = min(p.HP+amount, p.MaxHP)
	return p, p.HP - before
}

// Restore refills a protection pool up to its maximum and clears the broken
// flag once the pool holds anything again.
func Restore(p Pools, t Type, amount int) (Pools, int) {
	if amount <= 0 {
		return p, 0
	}
	switch t {
	case Physical:
		before := p.PhysicalProtection
		p.PhysicalProtection = min(p.PhysicalProtection+amount, p.MaxPhysicalProtection)
		if p.PhysicalProtection > 0 {
			p.PhysicalBroken = false
		}
		return p, p.PhysicalProtection - before
	case Magical:
		before := p.MagicalProtection
		p.MagicalProtection = min(p.MagicalProtection+amount, p.MaxMagicalProtection)
		if p.MagicalProtection > 0 {
			p.MagicalBroken = false
		}
		return p, p.MagicalProtection - before
	}
	return p, 0
}

func absorb(pool, amount int) (int, int) {
	if pool <= 0 {
		return 0, amount
	}
	if amount <= pool {
		return pool - amount, 0
	}
	return 0, amount - pool
}
