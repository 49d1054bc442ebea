// Package engine implements the d6 success-pool dice engine.
//
// # Determinism
//
// Every function takes a Source. Given a source built with NewSource and the
// same seed, the same sequence of calls always produces the same results, so
// an action resolved on the server can be replayed from its seed.
package engine

import (
	"math/rand"

	apperrors "github.com/pefman/tactics-duel/internal/errors"
)

// MaxExplosionDepth bounds a single chain of exploding sixes.
const MaxExplosionDepth = 64

const (
	MinAdvantage = -2
	MaxAdvantage = 2
)

// ErrInvalidDiceCount indicates a negative die count.
var ErrInvalidDiceCount = apperrors.New(apperrors.CodeDiceInvalidCount, "dice count must be non-negative")

// ErrInvalidAdvantage indicates an advantage modifier outside -2..2.
var ErrInvalidAdvantage = apperrors.New(apperrors.CodeDiceInvalidAdvantage, "advantage must be between -2 and 2")

// Source is the randomness provider for dice rolls.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	Intn(n int) int
}

// NewSource returns a deterministic source for seed.
func NewSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// Die is one rolled d6. A six explodes into exactly one bonus die, which may
// explode in turn.
type Die struct {
	Value      int   `json:"value"`
	Success    bool  `json:"success"`
	Exploded   bool  `json:"exploded"`
	Explosions []Die `json:"explosions,omitempty"`
}

// RollResult aggregates a pool roll.
type RollResult struct {
	Dice       int   `json:"dice"`
	Advantage  int   `json:"advantage"`
	Rolls      []Die `json:"rolls"`
	Successes  int   `json:"successes"`
	AnySuccess bool  `json:"any_success"`
}

// Threshold returns the minimum face that counts as a success for advantage.
func Threshold(advantage int) (int, error) {
	if advantage < MinAdvantage || advantage > MaxAdvantage {
		return 0, ErrInvalidAdvantage
	}
	return 4 - advantage, nil
}

// ClampAdvantage folds a stacked modifier into the valid range.
func ClampAdvantage(advantage int) int {
	return min(max(advantage, MinAdvantage), MaxAdvantage)
}

// Roll rolls count d6 against the advantage threshold.
func Roll(src Source, count, advantage int) (RollResult, error) {
	if count < 0 {
		return RollResult{}, ErrInvalidDiceCount
	}
	threshold, err := Threshold(advantage)
	if err != nil {
		return RollResult{}, err
	}

	res := RollResult{
		Dice:      count,
		Advantage: advantage,
		Rolls:     make([]Die, 0, count),
	}
	for i := 0; i < count; i++ {
		d, n := rollDie(src, threshold, 0)
		res.Rolls = append(res.Rolls, d)
		res.Successes += n
	}
	res.AnySuccess = res.Successes > 0
	return res, nil
}

// Flatten returns every die of the roll, explosions following their parent.
func (r RollResult) Flatten() []Die {
	out := make([]Die, 0, len(r.Rolls))
	var walk func(ds []Die)
	walk = func(ds []Die) {
		for _, d := range ds {
			flat := d
			flat.Explosions = nil
			out = append(out, flat)
			walk(d.Explosions)
		}
	}
	walk(r.Rolls)
	return out
}

func rollDie(src Source, threshold, depth int) (Die, int) {
	d := Die{Value: src.Intn(6) + 1}
	successes := 0
	// a natural 6 always succeeds, even at -2 where the threshold is already 6
	if d.Value >= threshold || d.Value == 6 {
		d.Success = true
		successes++
	}
	if d.Value == 6 && depth < MaxExplosionDepth {
		d.Exploded = true
		bonus, n := rollDie(src, threshold, depth+1)
		d.Explosions = []Die{bonus}
		successes += n
	}
	return d, successes
}

// Pool describes one side of a contested roll.
type Pool struct {
	Dice      int `json:"dice"`
	Advantage int `json:"advantage"`
}

// ContestResult is the outcome of two pools rolled against each other.
type ContestResult struct {
	Attacker     RollResult `json:"attacker"`
	Defender     RollResult `json:"defender"`
	AttackerWins bool       `json:"attacker_wins"`
	Margin       int        `json:"margin"`
}

// Contest rolls the attacker pool then the defender pool. The attacker wins
// only with strictly more successes; a tie leaves the status quo.
func Contest(src Source, attacker, defender Pool) (ContestResult, error) {
	att, err := Roll(src, attacker.Dice, attacker.Advantage)
	if err != nil {
		return ContestResult{}, err
	}
	def, err := Roll(src, defender.Dice, defender.Advantage)
	if err != nil {
		return ContestResult{}, err
	}
	return ContestResult{
		Attacker:     att,
		Defender:     def,
		AttackerWins: att.Successes > def.Successes,
		Margin:       att.Successes - def.Successes,
	}, nil
}

// Chance reports whether a d100 lands under percent. Values outside 0..100
// are clamped, so 0 never succeeds and 100 always does.
func Chance(src Source, percent int) (bool, int) {
	roll := src.Intn(100) + 1
	return roll <= min(max(percent, 0), 100), roll
}
