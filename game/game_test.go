package game

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
	"github.com/pthm-cable/meadow/telemetry"
)

// queueRandom replays fixed draws, then falls back to 0.999, 0 and false.
type queueRandom struct {
	floats []float64
	ints   []int
}

func (q *queueRandom) Float64() float64 {
	if len(q.floats) == 0 {
		return 0.999
	}
	v := q.floats[0]
	q.floats = q.floats[1:]
	return v
}

func (q *queueRandom) Intn(n int) int {
	if n <= 0 {
		panic("invalid argument to Intn")
	}
	if len(q.ints) == 0 {
		return 0
	}
	v := q.ints[0]
	q.ints = q.ints[1:]
	return v
}

func (q *queueRandom) Bool() bool { return false }

func parseConfig(t *testing.T, yaml string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("config.Parse failed: %v", err)
	}
	return cfg
}

const smallWorld = `
world:
  depth: 20
  width: 30
`

const huntWorld = `
world: {depth: 1, width: 2}
simulation: {day_length: 1, night_length: 0, wander: false}
species:
  - name: fox
    role: predator
    creation_probability: 0.5
    max_age: 60
    sleep_probability: 0.4
    wake_at_dawn: true
    breeding_age: 100
    breeding_probability: 0.5
    max_litter_size: 2
    newborn_food: 13
    hunting_probability: 1
    diet: {rabbit: 9}
  - name: rabbit
    role: grazer
    creation_probability: 0.4
    max_age: 40
    breeding_age: 100
    max_litter_size: 2
    newborn_food: 9
    diet: {grass: 9}
  - name: grass
    role: plant
    creation_probability: 0
    max_age: 10
    max_litter_size: 1
`

func TestDeterministicRuns(t *testing.T) {
	cfg := parseConfig(t, smallWorld)

	run := func() ([]CellState, []int) {
		g := NewGameWithOptions(Options{Seed: 7, Config: cfg, LogInterval: -1})
		defer g.Unload()
		for i := 0; i < 40; i++ {
			g.UpdateHeadless()
		}
		return g.Occupancy(), g.Population()
	}

	occA, popA := run()
	occB, popB := run()
	if !slices.Equal(occA, occB) {
		t.Error("same seed produced different fields")
	}
	if !slices.Equal(popA, popB) {
		t.Errorf("same seed produced different populations: %v vs %v", popA, popB)
	}
}

func TestFieldInvariantsHoldEveryTick(t *testing.T) {
	cfg := parseConfig(t, smallWorld)
	g := NewGameWithOptions(Options{Seed: 3, Config: cfg, LogInterval: -1})
	defer g.Unload()

	for tick := 0; tick < 30; tick++ {
		live := g.Advance(cfg.IsNight(tick))

		seen := make(map[components.Location]bool, len(live))
		for _, e := range live {
			org := g.Ecology().Organism(e)
			if !org.Alive {
				t.Fatalf("tick %d: dead organism left in live list", tick)
			}
			loc := g.Ecology().Location(e)
			if seen[loc] {
				t.Fatalf("tick %d: two organisms at %v", tick, loc)
			}
			seen[loc] = true
			if occ, ok := g.Field().Occupant(loc); !ok || occ != e {
				t.Fatalf("tick %d: field cell %v does not reference its organism", tick, loc)
			}
		}

		var occupied int
		for _, c := range g.Occupancy() {
			if c.Species >= 0 {
				occupied++
			}
		}
		if occupied != len(live) {
			t.Fatalf("tick %d: %d occupied cells, %d live organisms", tick, occupied, len(live))
		}
	}
}

func TestPopulationMatchesCounts(t *testing.T) {
	cfg := parseConfig(t, smallWorld)
	g := NewGameWithOptions(Options{Seed: 11, Config: cfg, LogInterval: -1})
	defer g.Unload()

	for i := 0; i < 25; i++ {
		g.UpdateHeadless()
	}

	pop := g.Population()
	if !slices.Equal(pop, g.Counts()) {
		t.Errorf("Population() = %v, Counts() = %v", pop, g.Counts())
	}
	var total int
	for _, n := range pop {
		total += n
	}
	if total != len(g.Live()) {
		t.Errorf("population total %d, live list %d", total, len(g.Live()))
	}
	if g.Tick() != 25 {
		t.Errorf("Tick() = %d, want 25", g.Tick())
	}
}

func TestDefaultWorldSustainsPredatorsAndGrazers(t *testing.T) {
	if testing.Short() {
		t.Skip("long run")
	}
	cfg, err := config.Defaults()
	if err != nil {
		t.Fatalf("config.Defaults failed: %v", err)
	}

	const ticks = 300
	for _, seed := range []int64{1, 2, 3} {
		g := NewGameWithOptions(Options{Seed: seed, Config: cfg, LogInterval: -1})
		for i := 0; i < ticks; i++ {
			g.UpdateHeadless()
		}

		byRole := map[string]int{}
		for i, n := range g.Counts() {
			byRole[cfg.Species[i].Role] += n
		}
		if byRole[config.RolePredator] == 0 || byRole[config.RoleGrazer] == 0 {
			t.Errorf("seed %d: counts by role after %d ticks = %v, want predators and grazers alive", seed, ticks, byRole)
		}
		g.Unload()
	}
}

func TestNewbornsDoNotActInTheirBirthTick(t *testing.T) {
	cfg := parseConfig(t, `
world: {depth: 1, width: 3}
species:
  - name: grass
    role: plant
    creation_probability: 0.5
    max_age: 100
    breeding_age: 0
    breeding_probability: 1
    breeding_interval: 0
    max_litter_size: 1
`)
	// Only the first cell is seeded; its age draw is 0.
	rng := &queueRandom{floats: []float64{0.1, 0.9, 0.9}}
	g := NewGameWithOptions(Options{Config: cfg, Random: rng, LogInterval: -1})
	defer g.Unload()

	if len(g.Live()) != 1 {
		t.Fatalf("seeded %d organisms, want 1", len(g.Live()))
	}

	live := g.Advance(false)
	if len(live) != 2 {
		t.Fatalf("live = %d after one tick, want parent + newborn", len(live))
	}
	parent, child := g.Ecology().Organism(live[0]), g.Ecology().Organism(live[1])
	if parent.Age != 1 {
		t.Errorf("parent age = %d, want 1", parent.Age)
	}
	if child.Age != 0 {
		t.Errorf("newborn age = %d, want 0 (it must not act in its birth tick)", child.Age)
	}
	if g.Ecology().Location(live[1]) != components.Loc(0, 1) {
		t.Errorf("newborn at %v, want (0,1)", g.Ecology().Location(live[1]))
	}
}

func TestDeadAreEvicted(t *testing.T) {
	cfg := parseConfig(t, huntWorld)
	// Fox at (0,0) with age 5 and food 1; the second cell stays empty.
	rng := &queueRandom{floats: []float64{0.1, 0.999}, ints: []int{5, 1}}
	g := NewGameWithOptions(Options{Config: cfg, Random: rng, LogInterval: -1})
	defer g.Unload()

	fox := g.Live()[0]
	if live := g.Advance(false); len(live) != 0 {
		t.Fatalf("live = %d, want 0 after starvation", len(live))
	}
	if _, ok := g.Field().Occupant(components.Loc(0, 0)); ok {
		t.Error("starved fox still on the field")
	}
	if g.world.Alive(fox) {
		t.Error("starved fox still in the world")
	}
	if g.Count(0) != 0 {
		t.Errorf("fox count = %d, want 0", g.Count(0))
	}
}

func TestPredatorKeepsCellOfEvictedPrey(t *testing.T) {
	cfg := parseConfig(t, huntWorld)
	// Fox at (0,0), rabbit at (0,1), both age 5 with food 5.
	rng := &queueRandom{floats: []float64{0.1, 0.7}, ints: []int{5, 5, 5, 5}}
	g := NewGameWithOptions(Options{Config: cfg, Random: rng, LogInterval: -1})
	defer g.Unload()

	if len(g.Live()) != 2 {
		t.Fatalf("seeded %d organisms, want 2", len(g.Live()))
	}
	fox := g.Live()[0]

	live := g.Advance(false)
	if len(live) != 1 || live[0] != fox {
		t.Fatalf("live = %v, want only the fox", live)
	}
	if occ, ok := g.Field().Occupant(components.Loc(0, 1)); !ok || occ != fox {
		t.Error("evicting the rabbit cleared the fox's new cell")
	}
	if _, ok := g.Field().Occupant(components.Loc(0, 0)); ok {
		t.Error("fox's old cell not vacated")
	}
	if got := g.Ecology().Organism(fox).FoodLevel; got != 9 {
		t.Errorf("fox food = %d, want 9", got)
	}

	want := []CellState{{Species: -1}, {Species: 0, Alive: true}}
	if got := g.Occupancy(); !slices.Equal(got, want) {
		t.Errorf("Occupancy() = %v, want %v", got, want)
	}
}

func TestTelemetryOutput(t *testing.T) {
	cfg := parseConfig(t, smallWorld)
	dir := t.TempDir()

	var windows int
	g := NewGameWithOptions(Options{
		Seed:        5,
		Config:      cfg,
		OutputDir:   dir,
		LogInterval: -1,
		StatsCallback: func(rows []telemetry.SpeciesStats) {
			windows++
			if len(rows) != len(cfg.Species) {
				t.Errorf("window has %d rows, want %d", len(rows), len(cfg.Species))
			}
		},
	})
	for i := 0; i < 2*cfg.Telemetry.Window; i++ {
		g.UpdateHeadless()
	}
	g.Unload()

	if windows != 2 {
		t.Errorf("stats callback ran %d times, want 2", windows)
	}

	data, err := os.ReadFile(filepath.Join(dir, "census.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if want := 1 + 2*len(cfg.Species); len(lines) != want {
		t.Errorf("census.csv has %d lines, want %d", len(lines), want)
	}
	for _, name := range []string{"perf.csv", "bookmarks.csv", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestSnapshotRestore(t *testing.T) {
	cfg := parseConfig(t, smallWorld)
	a := NewGameWithOptions(Options{Seed: 9, Config: cfg, LogInterval: -1})
	defer a.Unload()
	for i := 0; i < 15; i++ {
		a.UpdateHeadless()
	}

	path, err := telemetry.SaveSnapshot(a.CreateSnapshot(nil), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	snap, err := telemetry.LoadSnapshot(path)
	if err != nil {
		t.Fatal(err)
	}

	b := NewGameWithOptions(Options{Seed: 21, Config: cfg, Snapshot: snap, LogInterval: -1})
	defer b.Unload()

	if got := b.CreateSnapshot(nil).RNGSeed; got != 21 {
		t.Errorf("restored game reports seed %d, want the seed driving its draws (21)", got)
	}

	if b.Tick() != 15 {
		t.Errorf("restored tick = %d, want 15", b.Tick())
	}
	if !slices.Equal(a.Occupancy(), b.Occupancy()) {
		t.Error("restored field differs")
	}
	if !slices.Equal(a.Population(), b.Population()) {
		t.Errorf("restored population %v, want %v", b.Population(), a.Population())
	}
	for i := range cfg.Species {
		sp := uint8(i)
		if a.Ecology().Rates().EscapeProbability(sp, false) != b.Ecology().Rates().EscapeProbability(sp, false) {
			t.Errorf("species %d escape probability not restored", i)
		}
	}
}

func TestMismatchedSnapshotSeedsFreshField(t *testing.T) {
	cfg := parseConfig(t, smallWorld)
	snap := &telemetry.Snapshot{
		Version: telemetry.SnapshotVersion,
		Depth:   4,
		Width:   4,
		Tick:    50,
		Species: []string{"unicorn"},
	}
	g := NewGameWithOptions(Options{Seed: 1, Config: cfg, Snapshot: snap, LogInterval: -1})
	defer g.Unload()

	if g.Tick() != 0 {
		t.Errorf("tick = %d, want a fresh run", g.Tick())
	}
	if len(g.Live()) == 0 {
		t.Error("fresh field was not seeded")
	}
	if g.Field().Depth() != cfg.World.Depth || g.Field().Width() != cfg.World.Width {
		t.Errorf("fresh field is %dx%d, want the configured %dx%d",
			g.Field().Depth(), g.Field().Width(), cfg.World.Depth, cfg.World.Width)
	}
}

func TestEmptySnapshotSizeSeedsFreshField(t *testing.T) {
	cfg := parseConfig(t, smallWorld)
	snap := &telemetry.Snapshot{Version: telemetry.SnapshotVersion, Tick: 50}

	g := NewGameWithOptions(Options{Seed: 1, Config: cfg, Snapshot: snap, LogInterval: -1})
	defer g.Unload()

	if g.Field().Depth() != cfg.World.Depth || g.Field().Width() != cfg.World.Width {
		t.Errorf("field is %dx%d, want %dx%d", g.Field().Depth(), g.Field().Width(), cfg.World.Depth, cfg.World.Width)
	}
	if g.Tick() != 0 || len(g.Live()) == 0 {
		t.Errorf("tick = %d with %d organisms, want a freshly seeded field", g.Tick(), len(g.Live()))
	}
}

func TestDayNightClock(t *testing.T) {
	cfg := parseConfig(t, smallWorld+`
simulation:
  day_length: 2
  night_length: 1
`)
	g := NewGameWithOptions(Options{Seed: 2, Config: cfg, LogInterval: -1})
	defer g.Unload()

	want := []bool{false, false, true, false, false, true}
	for i, w := range want {
		if g.IsNight() != w {
			t.Errorf("tick %d: IsNight() = %v, want %v", i, g.IsNight(), w)
		}
		g.UpdateHeadless()
	}
}
