package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var diceRe = regexp.MustCompile(`(?i)^\s*(\d+)?\s*d\s*(\d+)(\s*([+\-x*])\s*(\d+))?\s*$`)

// MaxDice caps the dice one expression may roll.
const MaxDice = 100

type diceExpr struct {
	count, sides int
	op           string
	k            int
}

func parseDice(expr string) (diceExpr, error) {
	m := diceRe.FindStringSubmatch(expr)
	if m == nil {
		return diceExpr{}, fmt.Errorf("invalid dice expression %q", expr)
	}
	d := diceExpr{count: 1, op: m[4]}
	var err error
	if m[1] != "" {
		if d.count, err = strconv.Atoi(m[1]); err != nil || d.count > MaxDice {
			return diceExpr{}, fmt.Errorf("invalid dice expression %q: at most %d dice", expr, MaxDice)
		}
	}
	if d.sides, err = strconv.Atoi(m[2]); err != nil || d.sides <= 0 {
		return diceExpr{}, fmt.Errorf("invalid dice expression %q: sides must be positive", expr)
	}
	if m[3] != "" {
		if d.k, err = strconv.Atoi(m[5]); err != nil {
			return diceExpr{}, fmt.Errorf("invalid dice expression %q: %w", expr, err)
		}
	}
	return d, nil
}

// RollExpr supports: N, NdM, NdM+K, NdM-K, NdM xK (multiply) / * K.
// The result never drops below zero.
func RollExpr(src Source, expr string) (int, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(expr); err == nil {
		return max(n, 0), nil
	}
	d, err := parseDice(expr)
	if err != nil {
		return 0, err
	}
	total := 0
	for i := 0; i < d.count; i++ {
		total += 1 + src.Intn(d.sides)
	}
	switch d.op {
	case "+":
		total += d.k
	case "-":
		total -= d.k
	case "x", "X", "*":
		total *= d.k
	}
	return max(total, 0), nil
}

// ValidExpr reports whether expr parses as a dice expression.
func ValidExpr(expr string) bool {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return true
	}
	if _, err := strconv.Atoi(expr); err == nil {
		return true
	}
	_, err := parseDice(expr)
	return err == nil
}
