package stats

// This file contains helpers around daily stats. It complements stats.go.

// ResetDaily clears the per-day records.
// Intended for tests and dev convenience.
func (t *Tracker) ResetDaily() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k := range t.dailyMax {
		delete(t.dailyMax, k)
	}
}
