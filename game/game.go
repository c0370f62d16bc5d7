// Package game drives the simulation: it seeds the field, runs the per-tick
// pass over the live list, evicts the dead and feeds telemetry.
package game

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
	"github.com/pthm-cable/meadow/systems"
	"github.com/pthm-cable/meadow/telemetry"
)

// Options configures a new game.
type Options struct {
	Seed   int64
	Config *config.Config // nil uses config.Cfg()
	Random systems.Random // nil seeds a SeededRandom from Seed

	LogStats    bool // log census and perf stats every window
	LogInterval int  // ticks between world-state logs; 0 uses the config, negative disables

	OutputDir          string // CSV output directory ("" = disabled)
	SnapshotOnBookmark bool   // save a snapshot next to the CSV files when a bookmark fires

	// Snapshot restores a saved field instead of seeding a fresh one.
	Snapshot *telemetry.Snapshot

	// StatsCallback receives the census rows at every window flush.
	StatsCallback func([]telemetry.SpeciesStats)
}

// Game holds the complete simulation state.
type Game struct {
	cfg     *config.Config
	world   *ecs.World
	rng     systems.Random
	rngSeed int64
	species []components.Species

	field     *systems.Field
	ecology   *systems.Ecology
	orgFilter *ecs.Filter2[components.Location, components.Organism]

	// live is the current generation in stable insertion order.
	live     []ecs.Entity
	newborns []ecs.Entity
	toRemove []ecs.Entity
	counts   []int // live organisms per species

	tick int

	// Telemetry
	collector          *telemetry.Collector
	perfCollector      *telemetry.PerfCollector
	outputManager      *telemetry.OutputManager
	bookmarkDetector   *telemetry.BookmarkDetector
	statsCallback      func([]telemetry.SpeciesStats)
	logStats           bool
	logInterval        int
	snapshotOnBookmark bool
	extinct            []bool
}

// NewGameWithOptions creates a game from the given options.
func NewGameWithOptions(opts Options) *Game {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	rng := opts.Random
	if rng == nil {
		rng = systems.NewRandom(opts.Seed)
	}

	species := components.SpeciesFromConfig(cfg)

	names := make([]string, len(species))
	for i := range species {
		names[i] = species[i].Name
	}

	logInterval := opts.LogInterval
	if logInterval == 0 {
		logInterval = cfg.Telemetry.LogInterval
	}

	g := &Game{
		cfg:     cfg,
		rng:     rng,
		rngSeed: opts.Seed,
		species: species,
		counts:  make([]int, len(species)),

		collector:          telemetry.NewCollector(cfg.Telemetry.Window, names),
		perfCollector:      telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		bookmarkDetector:   telemetry.NewBookmarkDetector(10),
		statsCallback:      opts.StatsCallback,
		logStats:           opts.LogStats,
		logInterval:        logInterval,
		snapshotOnBookmark: opts.SnapshotOnBookmark,
		extinct:            make([]bool, len(species)),
	}

	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			slog.Error("failed to create output manager", "error", err)
		} else {
			g.outputManager = om
			if err := om.WriteConfig(cfg); err != nil {
				slog.Error("failed to write config", "error", err)
			}
		}
	}

	snap := opts.Snapshot
	if snap != nil {
		if err := snap.Validate(); err != nil {
			slog.Error("ignoring snapshot", "error", err)
			snap = nil
		}
	}
	if snap != nil {
		g.buildField(snap.Depth, snap.Width)
		if err := g.restoreSnapshot(snap); err != nil {
			slog.Error("failed to restore snapshot, seeding a fresh field", "error", err)
			snap = nil
		}
	}
	if snap == nil {
		g.buildField(cfg.World.Depth, cfg.World.Width)
		g.seedField()
	}
	for i, n := range g.counts {
		g.extinct[i] = n == 0
	}

	return g
}

// buildField replaces the world, field and rule engine with empty ones of
// the given size. Rates start again from the species table.
func (g *Game) buildField(depth, width int) {
	g.world = ecs.NewWorld()
	g.field = systems.NewField(g.world, depth, width)
	g.ecology = systems.NewEcology(g.world, g.field, g.rng, g.species, systems.Options{
		Wander:         g.cfg.Simulation.Wander,
		RecordLastBred: g.cfg.Simulation.RecordLastBred,
	})
	g.orgFilter = ecs.NewFilter2[components.Location, components.Organism](g.world)

	g.live = g.live[:0]
	g.newborns = make([]ecs.Entity, 0, 64)
	g.toRemove = g.toRemove[:0]
	clear(g.counts)
	g.tick = 0
}

// Tick returns the number of completed ticks.
func (g *Game) Tick() int {
	return g.tick
}

// IsNight reports whether the next tick runs at night.
func (g *Game) IsNight() bool {
	return g.cfg.IsNight(g.tick)
}

// Live returns the current live list. The slice is reused by the next tick.
func (g *Game) Live() []ecs.Entity {
	return g.live
}

// Ecology returns the rule engine.
func (g *Game) Ecology() *systems.Ecology {
	return g.ecology
}

// Field returns the grid.
func (g *Game) Field() *systems.Field {
	return g.field
}

// Config returns the configuration the game runs with.
func (g *Game) Config() *config.Config {
	return g.cfg
}

// Count returns the live count of one species as of the last tick.
func (g *Game) Count(species uint8) int {
	return g.counts[species]
}

// Counts returns the live count of every species, indexed by species.
func (g *Game) Counts() []int {
	out := make([]int, len(g.counts))
	copy(out, g.counts)
	return out
}

// Unload flushes outputs and releases resources.
func (g *Game) Unload() {
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output manager", "error", err)
	}
}
