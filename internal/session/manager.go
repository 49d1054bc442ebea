package session

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pefman/tactics-duel/internal/catalog"
	apperrors "github.com/pefman/tactics-duel/internal/errors"
	"github.com/pefman/tactics-duel/internal/game"
	"github.com/pefman/tactics-duel/internal/journal"
	"github.com/pefman/tactics-duel/internal/random"
)

// Options tune every battle a manager creates. Zero fields take defaults.
type Options struct {
	// DodgeTimeout bounds how long an interactive dodge may be awaited.
	// Zero disables interactive dodges: every dodge is rolled.
	DodgeTimeout time.Duration
	NewSeed      func() (int64, error)
	NewID        func() string
	Now          func() time.Time
}

func (o Options) withDefaults() Options {
	if o.NewSeed == nil {
		o.NewSeed = random.NewSeed
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Manager holds the running battles by id.
type Manager struct {
	exec    *game.Executor
	journal Journal
	opts    Options

	mu      sync.RWMutex
	battles map[string]*Battle
	global  observers
}

// NewManager returns a manager resolving actions with exec. j may be nil.
func NewManager(exec *game.Executor, j Journal, opts Options) *Manager {
	return &Manager{
		exec:    exec,
		journal: j,
		opts:    opts.withDefaults(),
		battles: make(map[string]*Battle),
	}
}

// Observe registers fn for the events of every battle.
func (m *Manager) Observe(fn Observer) func() {
	return m.global.add(fn)
}

// Create starts a battle from sc.
func (m *Manager) Create(ctx context.Context, sc catalog.Scenario) (*Battle, error) {
	arena, err := sc.Arena(m.exec.Catalog)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeCatalogInvalid, fmt.Sprintf("scenario %q: %v", sc.Name, err), err)
	}
	b := &Battle{
		ID:       m.opts.NewID(),
		Scenario: sc,
		arena:    arena,
		exec:     m.exec,
		journal:  m.journal,
		opts:     m.opts,
		global:   &m.global,
	}
	b.record(ctx, journal.KindSetup, 0, sc)

	m.mu.Lock()
	m.battles[b.ID] = b
	m.mu.Unlock()
	log.Printf("battle %s: created scenario=%q units=%d", b.ID, sc.Name, len(sc.Units))
	return b, nil
}

// Get returns the battle with id.
func (m *Manager) Get(id string) (*Battle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.battles[id]
	if !ok {
		return nil, apperrors.WithMetadata(apperrors.CodeBattleNotFound, "battle not found", map[string]string{"battle_id": id})
	}
	return b, nil
}

// IDs lists the running battles, sorted.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.battles))
	for id := range m.battles {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Remove stops and forgets a battle.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	b := m.battles[id]
	delete(m.battles, id)
	m.mu.Unlock()
	if b != nil {
		b.Close()
	}
}

// Close stops every battle.
func (m *Manager) Close() {
	for _, id := range m.IDs() {
		m.Remove(id)
	}
}
