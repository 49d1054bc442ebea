package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pefman/tactics-duel/internal/condition"
	"github.com/pefman/tactics-duel/internal/game"
	"github.com/pefman/tactics-duel/internal/grid"
)

//go:embed data/duel.yaml
var defaultScenario []byte

// DefaultScenarioName is the scenario served when none is requested.
const DefaultScenarioName = "duel"

// Scenario is a starting layout.
type Scenario struct {
	Name      string        `yaml:"name" json:"name"`
	Width     int           `yaml:"width" json:"width"`
	Height    int           `yaml:"height" json:"height"`
	Obstacles []RawObstacle `yaml:"obstacles" json:"obstacles,omitempty"`
	Units     []RawUnit     `yaml:"units" json:"units"`
}

// RawObstacle is an obstacle as written in YAML.
type RawObstacle struct {
	ID   string `yaml:"id" json:"id"`
	X    int    `yaml:"x" json:"x"`
	Y    int    `yaml:"y" json:"y"`
	Size int    `yaml:"size" json:"size,omitempty"`
}

// RawInstance is a starting condition.
type RawInstance struct {
	Code      string `yaml:"code" json:"code"`
	Remaining int    `yaml:"remaining" json:"remaining"`
}

// RawUnit is a unit as written in YAML. Max values default to the starting
// values.
type RawUnit struct {
	ID                 string          `yaml:"id" json:"id"`
	Name               string          `yaml:"name" json:"name,omitempty"`
	Owner              string          `yaml:"owner" json:"owner"`
	X                  int             `yaml:"x" json:"x"`
	Y                  int             `yaml:"y" json:"y"`
	Size               int             `yaml:"size" json:"size,omitempty"`
	HP                 int             `yaml:"hp" json:"hp"`
	MaxHP              int             `yaml:"max_hp" json:"max_hp,omitempty"`
	Mana               int             `yaml:"mana" json:"mana,omitempty"`
	MaxMana            int             `yaml:"max_mana" json:"max_mana,omitempty"`
	PhysicalProtection int             `yaml:"physical_protection" json:"physical_protection,omitempty"`
	MagicalProtection  int             `yaml:"magical_protection" json:"magical_protection,omitempty"`
	Attributes         game.Attributes `yaml:"attributes" json:"attributes"`
	PerTurn            *game.Budget    `yaml:"per_turn" json:"per_turn,omitempty"`
	Abilities          []string        `yaml:"abilities" json:"abilities"`
	Conditions         []RawInstance   `yaml:"conditions" json:"conditions,omitempty"`
	Interactive        bool            `yaml:"interactive" json:"interactive,omitempty"`
}

// DefaultBudget is the per-turn budget of units that do not declare one.
var DefaultBudget = game.Budget{Actions: 1, Moves: 3}

// LoadScenario reads a scenario file.
func LoadScenario(filename string) (Scenario, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Scenario{}, fmt.Errorf("failed to read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a scenario document.
func ParseScenario(data []byte) (Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("failed to parse scenario: %w", err)
	}
	return s, nil
}

// DefaultScenario returns the built-in duel layout.
func DefaultScenario() (Scenario, error) {
	return ParseScenario(defaultScenario)
}

// FindScenario looks up name in dir (name.yaml or name.yml). The built-in
// duel is returned for its name when dir has no override.
func FindScenario(dir, name string) (Scenario, error) {
	if name == "" {
		name = DefaultScenarioName
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return Scenario{}, fmt.Errorf("invalid scenario name %q", name)
	}
	if dir != "" {
		for _, ext := range []string{".yaml", ".yml"} {
			p := filepath.Join(dir, name+ext)
			if _, err := os.Stat(p); err == nil {
				return LoadScenario(p)
			}
		}
	}
	if name == DefaultScenarioName {
		return DefaultScenario()
	}
	return Scenario{}, fmt.Errorf("scenario %q not found", name)
}

// Arena builds the starting arena. Every ability a unit lists must exist in
// catalog.
func (s Scenario) Arena(catalog *game.Catalog) (*game.Arena, error) {
	obstacles := make([]game.Obstacle, 0, len(s.Obstacles))
	for _, o := range s.Obstacles {
		obstacles = append(obstacles, game.Obstacle{ID: o.ID, Position: grid.Cell{X: o.X, Y: o.Y}, Size: o.Size})
	}
	units := make([]game.Unit, 0, len(s.Units))
	for _, ru := range s.Units {
		u, err := ru.unit(catalog)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
		units = append(units, u)
	}
	return game.NewArena(grid.Bounds{Width: s.Width, Height: s.Height}, units, obstacles)
}

func (ru RawUnit) unit(catalog *game.Catalog) (game.Unit, error) {
	if ru.HP <= 0 {
		return game.Unit{}, fmt.Errorf("unit %s: hp must be positive", ru.ID)
	}
	budget := DefaultBudget
	if ru.PerTurn != nil {
		budget = *ru.PerTurn
	}
	u := game.Unit{
		ID:                    ru.ID,
		Name:                  ru.Name,
		Owner:                 ru.Owner,
		Position:              grid.Cell{X: ru.X, Y: ru.Y},
		Size:                  ru.Size,
		Alive:                 true,
		HP:                    ru.HP,
		MaxHP:                 max(ru.MaxHP, ru.HP),
		Mana:                  ru.Mana,
		MaxMana:               max(ru.MaxMana, ru.Mana),
		PhysicalProtection:    ru.PhysicalProtection,
		MaxPhysicalProtection: ru.PhysicalProtection,
		MagicalProtection:     ru.MagicalProtection,
		MaxMagicalProtection:  ru.MagicalProtection,
		Attributes:            ru.Attributes,
		PerTurn:               budget,
		Left:                  budget,
		Interactive:           ru.Interactive,
	}
	if u.Name == "" {
		u.Name = u.ID
	}
	for _, code := range ru.Abilities {
		code = strings.ToUpper(code)
		if _, ok := catalog.Ability(code); !ok {
			return game.Unit{}, fmt.Errorf("unit %s: unknown ability %s", ru.ID, code)
		}
		u.Abilities = append(u.Abilities, code)
	}
	var instances []condition.Instance
	for _, c := range ru.Conditions {
		if c.Remaining <= 0 {
			continue
		}
		instances = append(instances, condition.Instance{Code: condition.Code(strings.ToUpper(c.Code)), Remaining: c.Remaining})
	}
	u.Conditions = condition.NewLedger(instances...)
	return u, nil
}
