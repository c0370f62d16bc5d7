// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Role names accepted in species entries.
const (
	RolePredator = "predator"
	RoleGrazer   = "grazer"
	RolePlant    = "plant"
)

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Simulation SimulationConfig `yaml:"simulation"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Species    []SpeciesConfig  `yaml:"species"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds the field dimensions in cells.
type WorldConfig struct {
	Depth int `yaml:"depth"` // rows
	Width int `yaml:"width"` // columns
}

// SimulationConfig holds the driver parameters.
type SimulationConfig struct {
	DayLength   int  `yaml:"day_length"`   // ticks of daylight per cycle
	NightLength int  `yaml:"night_length"` // ticks of night per cycle
	Wander      bool `yaml:"wander"`       // pick a random free neighbour instead of the first one

	// RecordLastBred stores the tick age of a successful litter in
	// ageLastBred. Off by default: the breeding cooldown then only ever
	// compares against age zero.
	RecordLastBred bool `yaml:"record_last_bred"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	Window      int `yaml:"window"`       // ticks per census window
	LogInterval int `yaml:"log_interval"` // ticks between world-state log lines (0 = off)
	PerfWindow  int `yaml:"perf_window"`  // ticks averaged by the perf collector
}

// SpeciesConfig defines one species and its constants.
type SpeciesConfig struct {
	Name                string  `yaml:"name"`
	Role                string  `yaml:"role"` // predator, grazer or plant
	CreationProbability float64 `yaml:"creation_probability"`
	MaxAge              int     `yaml:"max_age"`

	// Sleep
	SleepProbability float64 `yaml:"sleep_probability"`
	WakeAtDawn       bool    `yaml:"wake_at_dawn"`
	SeedAsleep       bool    `yaml:"seed_asleep"` // seeded individuals draw their sleep state

	// Reproduction
	BreedingAge         int     `yaml:"breeding_age"`
	BreedingProbability float64 `yaml:"breeding_probability"`
	BreedingInterval    int     `yaml:"breeding_interval"`
	MaxLitterSize       int     `yaml:"max_litter_size"`

	// Feeding
	NewbornFood int            `yaml:"newborn_food"`
	Diet        map[string]int `yaml:"diet"` // species name -> food value

	// Predators
	HuntingProbability float64 `yaml:"hunting_probability"`
	HuntingNightBonus  float64 `yaml:"hunting_night_bonus"`

	// Prey
	EscapeProbability float64 `yaml:"escape_probability"`
	EscapeNightBonus  float64 `yaml:"escape_night_bonus"`
	EscapeRatchet     float64 `yaml:"escape_ratchet"` // added to escape every awake night tick
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	SpeciesIndex map[string]uint8 // name -> index into Species
	CycleLength  int              // DayLength + NightLength
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg, err := Defaults()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := cfg.merge(data); err != nil {
			return nil, err
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse builds a configuration from YAML bytes layered over the embedded defaults.
func Parse(data []byte) (*Config, error) {
	cfg, err := Defaults()
	if err != nil {
		return nil, err
	}
	if err := cfg.merge(data); err != nil {
		return nil, err
	}
	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns the embedded default configuration with derived values computed.
func Defaults() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	if err := cfg.computeDerived(); err != nil {
		return nil, fmt.Errorf("embedded defaults: %w", err)
	}
	return cfg, nil
}

// merge unmarshals data into c. A species list in data replaces the default
// list as a whole; yaml.v3 does not merge sequences element by element.
func (c *Config) merge(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// computeDerived validates the loaded config and calculates derived values.
func (c *Config) computeDerived() error {
	if c.World.Depth <= 0 || c.World.Width <= 0 {
		return fmt.Errorf("world: depth and width must be positive, got %dx%d", c.World.Depth, c.World.Width)
	}
	if c.Simulation.DayLength < 0 || c.Simulation.NightLength < 0 {
		return errors.New("simulation: day_length and night_length must not be negative")
	}
	c.Derived.CycleLength = c.Simulation.DayLength + c.Simulation.NightLength

	if len(c.Species) == 0 {
		return errors.New("species: at least one species is required")
	}
	if len(c.Species) > 255 {
		return fmt.Errorf("species: at most 255 species are supported, got %d", len(c.Species))
	}

	c.Derived.SpeciesIndex = make(map[string]uint8, len(c.Species))
	for i, sp := range c.Species {
		if sp.Name == "" {
			return fmt.Errorf("species[%d]: name is required", i)
		}
		if _, dup := c.Derived.SpeciesIndex[sp.Name]; dup {
			return fmt.Errorf("species %q: duplicate name", sp.Name)
		}
		c.Derived.SpeciesIndex[sp.Name] = uint8(i)
	}

	var creationSum float64
	for i := range c.Species {
		sp := &c.Species[i]
		if err := sp.validate(c.Derived.SpeciesIndex); err != nil {
			return fmt.Errorf("species %q: %w", sp.Name, err)
		}
		creationSum += sp.CreationProbability
	}
	if creationSum > 1 {
		return fmt.Errorf("species: creation probabilities sum to %.3f, want <= 1", creationSum)
	}
	return nil
}

func (sp *SpeciesConfig) validate(index map[string]uint8) error {
	switch sp.Role {
	case RolePredator, RoleGrazer, RolePlant:
	default:
		return fmt.Errorf("unknown role %q", sp.Role)
	}
	if sp.MaxAge <= 0 {
		return fmt.Errorf("max_age must be positive, got %d", sp.MaxAge)
	}
	if sp.MaxLitterSize < 1 {
		return fmt.Errorf("max_litter_size must be at least 1, got %d", sp.MaxLitterSize)
	}
	if sp.Role != RolePlant && sp.NewbornFood <= 0 {
		return fmt.Errorf("newborn_food must be positive, got %d", sp.NewbornFood)
	}
	probs := []struct {
		name string
		v    float64
	}{
		{"creation_probability", sp.CreationProbability},
		{"sleep_probability", sp.SleepProbability},
		{"breeding_probability", sp.BreedingProbability},
		{"hunting_probability", sp.HuntingProbability},
		{"escape_probability", sp.EscapeProbability},
	}
	for _, p := range probs {
		if p.v < 0 || p.v > 1 {
			return fmt.Errorf("%s must be in [0,1], got %v", p.name, p.v)
		}
	}
	for prey, value := range sp.Diet {
		if _, ok := index[prey]; !ok {
			return fmt.Errorf("diet: unknown species %q", prey)
		}
		if value <= 0 {
			return fmt.Errorf("diet: food value for %q must be positive, got %d", prey, value)
		}
	}
	if sp.Role != RolePlant && len(sp.Diet) == 0 {
		return errors.New("diet: animals need at least one food species")
	}
	return nil
}

// IsNight reports whether the given tick falls in the night part of the day cycle.
func (c *Config) IsNight(tick int) bool {
	if c.Derived.CycleLength == 0 || c.Simulation.NightLength == 0 {
		return false
	}
	return tick%c.Derived.CycleLength >= c.Simulation.DayLength
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
