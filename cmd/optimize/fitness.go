package main

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/meadow/config"
	"github.com/pthm-cable/meadow/game"
	"github.com/pthm-cable/meadow/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int
	seeds      []int64
	baseConfig *config.Config
	animals    []uint8 // species indices whose extinction ends a run

	mu          sync.Mutex
	bestFitness float64
	last        Evaluation
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	fe := &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
	for i, sp := range baseCfg.Species {
		if sp.Role != config.RolePlant {
			fe.animals = append(fe.animals, uint8(i))
		}
	}
	return fe
}

// Extinction records the animal species that ended one seed's run.
type Extinction struct {
	Seed       int64
	Species    string
	Tick       int
	Functional bool // stayed below minViablePop instead of reaching zero
}

// Evaluation summarizes one parameter vector over every seed.
type Evaluation struct {
	Fitness     float64
	Quality     float64
	Survival    float64      // mean ticks survived
	Seeds       int          // runs averaged
	Extinctions []Extinction // seeds whose run ended before maxTicks
}

// FirstExtinction returns the earliest extinction across seeds.
func (ev Evaluation) FirstExtinction() (Extinction, bool) {
	if len(ev.Extinctions) == 0 {
		return Extinction{}, false
	}
	first := ev.Extinctions[0]
	for _, x := range ev.Extinctions[1:] {
		if x.Tick < first.Tick {
			first = x
		}
	}
	return first, true
}

// Last returns the most recent evaluation.
func (fe *FitnessEvaluator) Last() Evaluation {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last
}

// BestFitness returns the lowest average fitness seen so far.
func (fe *FitnessEvaluator) BestFitness() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestFitness
}

// Minimum viable population: an animal species that stays below this for
// extinctionGraceTicks consecutive ticks counts as functionally extinct.
const (
	minViablePop         = 2
	extinctionGraceTicks = 30
	warmupTicks          = 10
)

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalTicks int                        // ticks before the first extinction (or maxTicks if all survived)
	extinct       int                        // species index that ended the run, -1 if none did
	functional    bool                       // the run ended on functional rather than hard extinction
	windows       [][]telemetry.SpeciesStats // collected via StatsCallback each window
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	runs := make([]*runResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			runs[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	ev := Evaluation{Seeds: len(runs)}
	for i, r := range runs {
		quality := fe.computeQuality(r.windows)
		ev.Fitness += fe.computeFitness(r, quality)
		ev.Quality += quality
		ev.Survival += float64(r.survivalTicks)
		if r.extinct >= 0 {
			ev.Extinctions = append(ev.Extinctions, Extinction{
				Seed:       fe.seeds[i],
				Species:    fe.baseConfig.Species[r.extinct].Name,
				Tick:       r.survivalTicks,
				Functional: r.functional,
			})
		}
	}
	n := float64(len(fe.seeds))
	ev.Fitness /= n
	ev.Quality /= n
	ev.Survival /= n

	fe.mu.Lock()
	if ev.Fitness < fe.bestFitness {
		fe.bestFitness = ev.Fitness
	}
	fe.last = ev
	fe.mu.Unlock()

	return ev.Fitness
}

// runSimulation executes a single headless simulation run.
// Runs until the first animal extinction or maxTicks, whichever comes first.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) *runResult {
	cfg := cloneConfig(fe.baseConfig)
	fe.params.ApplyToConfig(cfg, x)

	result := &runResult{extinct: -1}

	g := game.NewGameWithOptions(game.Options{
		Seed:        seed,
		Config:      cfg,
		LogInterval: -1,
		StatsCallback: func(rows []telemetry.SpeciesStats) {
			result.windows = append(result.windows, rows)
		},
	})
	defer g.Unload()

	below := make([]int, len(cfg.Species))

	for g.Tick() < fe.maxTicks {
		g.UpdateHeadless()

		tick := g.Tick()
		if tick < warmupTicks {
			continue
		}

		for _, sp := range fe.animals {
			n := g.Count(sp)

			// Hard extinction
			if n == 0 {
				result.survivalTicks = tick
				result.extinct = int(sp)
				return result
			}

			// Functional extinction
			if n < minViablePop {
				below[sp]++
			} else {
				below[sp] = 0
			}
			if below[sp] >= extinctionGraceTicks {
				result.survivalTicks = tick
				result.extinct = int(sp)
				result.functional = true
				return result
			}
		}
	}

	result.survivalTicks = fe.maxTicks
	return result
}

// cloneConfig returns a copy of cfg whose species table can be modified
// independently. Diet maps and derived values are shared read-only.
func cloneConfig(base *config.Config) *config.Config {
	cfg := *base
	cfg.Species = make([]config.SpeciesConfig, len(base.Species))
	copy(cfg.Species, base.Species)
	return &cfg
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survivalTicks × (1.0 + 0.2 × quality))
// Survival dominates; quality adds up to 20% to separate configs with
// similar survival.
func (fe *FitnessEvaluator) computeFitness(r *runResult, quality float64) float64 {
	return -(float64(r.survivalTicks) * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightStability = 0.6
	qualityWeightHunting   = 0.4

	qualityWarmupWindows = 3 // skip first N windows (warmup)
)

// computeQuality computes ecosystem quality ∈ [0, 1] from census windows:
// low variation of animal counts, and predators whose kill rate sits in a
// moderate band.
func (fe *FitnessEvaluator) computeQuality(windows [][]telemetry.SpeciesStats) float64 {
	if len(windows) <= qualityWarmupWindows || len(fe.animals) == 0 {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	// Population stability per animal species
	var stabilitySum float64
	counts := make([]float64, len(valid))
	for _, sp := range fe.animals {
		for w, rows := range valid {
			counts[w] = float64(rows[sp].Count)
		}
		c := cv(counts)
		stabilitySum += math.Exp(-c * c)
	}
	stabilityScore := stabilitySum / float64(len(fe.animals))

	// Hunting activity, averaged over windows with hunting
	var huntSum float64
	var huntCount int
	for _, rows := range valid {
		for _, sp := range fe.animals {
			r := rows[sp]
			if fe.baseConfig.Species[sp].Role != config.RolePredator || r.HuntAttempts == 0 {
				continue
			}
			huntSum += math.Exp(-math.Pow((r.KillRate-0.3)/0.2, 2))
			huntCount++
		}
	}
	huntScore := 0.0
	if huntCount > 0 {
		huntScore = huntSum / float64(huntCount)
	}

	quality := qualityWeightStability*stabilityScore + qualityWeightHunting*huntScore
	return clamp01(quality)
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean == 0 {
		return 0
	}
	return std / mean
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
