// Package condition tracks timed status effects on a unit.
//
// A Ledger is a multiset of (code, remaining) instances. How a repeated
// application combines with an existing instance is data: each code carries a
// Rule with a Stacking policy. Other packages only read a ledger; all writes
// go through Apply, Remove and Tick.
package condition

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Code identifies a condition.
type Code string

// Built-in codes referenced by the engine.
const (
	Dashing Code = "DASHING"
	Stunned Code = "STUNNED"
	Rooted  Code = "ROOTED"
	Evasive Code = "EVASIVE"
	Exposed Code = "EXPOSED"
	Focused Code = "FOCUSED"
)

// Stacking decides how a repeated application combines.
type Stacking int

const (
	// StackRefresh keeps one instance with the longer duration.
	StackRefresh Stacking = iota
	// StackReplace keeps one instance with the last written duration.
	StackReplace
	// StackAdd keeps one instance and adds the durations.
	StackAdd
	// StackIndependent keeps every application as its own instance.
	StackIndependent
)

func (s Stacking) String() string {
	switch s {
	case StackReplace:
		return "replace"
	case StackAdd:
		return "add"
	case StackIndependent:
		return "independent"
	default:
		return "refresh"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Stacking) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stacking) UnmarshalText(text []byte) error {
	v, err := ParseStacking(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStacking parses a stacking policy. Empty means refresh.
func ParseStacking(s string) (Stacking, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "refresh":
		return StackRefresh, nil
	case "replace":
		return StackReplace, nil
	case "add", "extend":
		return StackAdd, nil
	case "independent", "stack":
		return StackIndependent, nil
	default:
		return 0, fmt.Errorf("unknown stacking policy %q", s)
	}
}

// Rule is the catalog entry for a condition code.
type Rule struct {
	Code        Code     `json:"code"`
	Stacking    Stacking `json:"stacking"`
	MaxDuration int      `json:"max_duration,omitempty"`
	MaxStacks   int      `json:"max_stacks,omitempty"`
	// DodgeBonus is added per instance to the fixed dodge chance, in percent.
	DodgeBonus int `json:"dodge_bonus,omitempty"`
	// AttackAdvantage shifts the holder's attacking pools.
	AttackAdvantage int `json:"attack_advantage,omitempty"`
	// DefenseAdvantage shifts the holder's defending pools.
	DefenseAdvantage int  `json:"defense_advantage,omitempty"`
	Disables         bool `json:"disables,omitempty"`
	GrantsDash       bool `json:"grants_dash,omitempty"`
	Roots            bool `json:"roots,omitempty"`
	// Interactive marks the holder as eligible for a timed dodge input.
	Interactive bool `json:"interactive,omitempty"`
}

// Registry maps codes to rules. Unknown codes fall back to a refresh rule
// with no derived effects.
type Registry map[Code]Rule

// Rule returns the rule for code.
func (r Registry) Rule(code Code) Rule {
	if rule, ok := r[code]; ok {
		return rule
	}
	return Rule{Code: code}
}

// Instance is one active application.
type Instance struct {
	Code      Code `json:"code"`
	Remaining int  `json:"remaining"`
}

// Change is one ledger mutation, reported in ability results.
type Change struct {
	Code      Code `json:"code"`
	Applied   bool `json:"applied"`
	Removed   bool `json:"removed"`
	Expired   bool `json:"expired,omitempty"`
	Remaining int  `json:"remaining"`
	Stacks    int  `json:"stacks"`
}

// Ledger is the per-unit multiset. The zero value is empty and ready to use.
type Ledger struct {
	instances []Instance
}

// NewLedger builds a ledger from stored instances, dropping non-positive ones.
func NewLedger(instances ...Instance) Ledger {
	l := Ledger{}
	for _, in := range instances {
		if in.Remaining > 0 {
			l.instances = append(l.instances, in)
		}
	}
	return l
}

// Clone returns an independent copy.
func (l Ledger) Clone() Ledger {
	if len(l.instances) == 0 {
		return Ledger{}
	}
	return Ledger{instances: append([]Instance(nil), l.instances...)}
}

// MarshalJSON encodes the ledger as its instance list.
func (l Ledger) MarshalJSON() ([]byte, error) {
	if l.instances == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.instances)
}

// UnmarshalJSON decodes an instance list, dropping expired entries.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	var in []Instance
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*l = NewLedger(in...)
	return nil
}

// Instances returns a copy of the active instances in application order.
func (l Ledger) Instances() []Instance {
	return append([]Instance(nil), l.instances...)
}

// Has reports whether any instance of code is active.
func (l Ledger) Has(code Code) bool {
	return l.Count(code) > 0
}

// Count returns the number of active instances of code.
func (l Ledger) Count(code Code) int {
	n := 0
	for _, in := range l.instances {
		if in.Code == code {
			n++
		}
	}
	return n
}

// Remaining returns the longest remaining duration of code, 0 if absent.
func (l Ledger) Remaining(code Code) int {
	best := 0
	for _, in := range l.instances {
		if in.Code == code && in.Remaining > best {
			best = in.Remaining
		}
	}
	return best
}

// Codes returns the distinct active codes, sorted.
func (l Ledger) Codes() []Code {
	seen := map[Code]struct{}{}
	var out []Code
	for _, in := range l.instances {
		if _, ok := seen[in.Code]; !ok {
			seen[in.Code] = struct{}{}
			out = append(out, in.Code)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Apply adds duration turns of code following the rule's stacking policy.
func (l *Ledger) Apply(rule Rule, duration int) (Change, error) {
	if duration <= 0 {
		return Change{}, fmt.Errorf("condition %s: duration must be positive, got %d", rule.Code, duration)
	}
	if rule.MaxDuration > 0 {
		duration = min(duration, rule.MaxDuration)
	}

	idx := l.index(rule.Code)
	switch {
	case rule.Stacking == StackIndependent:
		if rule.MaxStacks > 0 && l.Count(rule.Code) >= rule.MaxStacks {
			l.replaceShortest(rule.Code, duration)
		} else {
			l.instances = append(l.instances, Instance{Code: rule.Code, Remaining: duration})
		}
	case idx < 0:
		l.instances = append(l.instances, Instance{Code: rule.Code, Remaining: duration})
	case rule.Stacking == StackReplace:
		l.instances[idx].Remaining = duration
	case rule.Stacking == StackAdd:
		total := l.instances[idx].Remaining + duration
		if rule.MaxDuration > 0 {
			total = min(total, rule.MaxDuration)
		}
		l.instances[idx].Remaining = total
	default:
		l.instances[idx].Remaining = max(l.instances[idx].Remaining, duration)
	}

	return Change{
		Code:      rule.Code,
		Applied:   true,
		Remaining: l.Remaining(rule.Code),
		Stacks:    l.Count(rule.Code),
	}, nil
}

// Remove drops every instance of code and reports how many were removed.
func (l *Ledger) Remove(code Code) int {
	kept := l.instances[:0]
	removed := 0
	for _, in := range l.instances {
		if in.Code == code {
			removed++
			continue
		}
		kept = append(kept, in)
	}
	l.instances = kept
	return removed
}

// Tick decrements every instance by one turn and removes those reaching zero.
// It returns one change per code that fully expired.
func (l *Ledger) Tick() []Change {
	kept := l.instances[:0]
	expired := map[Code]bool{}
	var order []Code
	for _, in := range l.instances {
		in.Remaining--
		if in.Remaining <= 0 {
			if !expired[in.Code] {
				expired[in.Code] = true
				order = append(order, in.Code)
			}
			continue
		}
		kept = append(kept, in)
	}
	l.instances = kept

	var out []Change
	for _, code := range order {
		if l.Has(code) {
			continue
		}
		out = append(out, Change{Code: code, Removed: true, Expired: true})
	}
	return out
}

func (l *Ledger) index(code Code) int {
	for i, in := range l.instances {
		if in.Code == code {
			return i
		}
	}
	return -1
}

func (l *Ledger) replaceShortest(code Code, duration int) {
	best := -1
	for i, in := range l.instances {
		if in.Code != code {
			continue
		}
		if best < 0 || in.Remaining < l.instances[best].Remaining {
			best = i
		}
	}
	if best >= 0 {
		l.instances[best].Remaining = max(l.instances[best].Remaining, duration)
	}
}
