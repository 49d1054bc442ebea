package condition

// DodgeChance returns base plus every instance's dodge bonus, clamped to 0..100.
func DodgeChance(l Ledger, reg Registry, base int) int {
	chance := base
	for _, in := range l.instances {
		chance += reg.Rule(in.Code).DodgeBonus
	}
	return min(max(chance, 0), 100)
}

// AttackAdvantage sums attack modifiers of distinct codes.
func AttackAdvantage(l Ledger, reg Registry) int {
	adv := 0
	for _, code := range l.Codes() {
		adv += reg.Rule(code).AttackAdvantage
	}
	return adv
}

// DefenseAdvantage sums defence modifiers of distinct codes.
func DefenseAdvantage(l Ledger, reg Registry) int {
	adv := 0
	for _, code := range l.Codes() {
		adv += reg.Rule(code).DefenseAdvantage
	}
	return adv
}

// Disabled reports whether any active condition prevents acting.
func Disabled(l Ledger, reg Registry) bool {
	return l.any(reg, func(r Rule) bool { return r.Disables })
}

// CanDash reports whether any active condition grants dash abilities.
func CanDash(l Ledger, reg Registry) bool {
	return l.any(reg, func(r Rule) bool { return r.GrantsDash })
}

// IsRooted reports whether movement is prevented.
func IsRooted(l Ledger, reg Registry) bool {
	return l.any(reg, func(r Rule) bool { return r.Roots })
}

// Interactive reports whether the holder may answer dodges with a timed input.
func Interactive(l Ledger, reg Registry) bool {
	return l.any(reg, func(r Rule) bool { return r.Interactive })
}

func (l Ledger) any(reg Registry, pred func(Rule) bool) bool {
	for _, in := range l.instances {
		if pred(reg.Rule(in.Code)) {
			return true
		}
	}
	return false
}
