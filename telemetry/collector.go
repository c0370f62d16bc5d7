package telemetry

import (
	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/systems"
)

// Census is the per-species sample the caller gathers at window end.
type Census struct {
	Ages   []float64
	Foods  []float64 // animals only
	Asleep int
	Female int
	Male   int
}

// Add records one live organism.
func (c *Census) Add(org *components.Organism, animal bool) {
	c.Ages = append(c.Ages, float64(org.Age))
	if animal {
		c.Foods = append(c.Foods, float64(org.FoodLevel))
		if org.Sex == components.Female {
			c.Female++
		} else {
			c.Male++
		}
	}
	if org.Asleep {
		c.Asleep++
	}
}

// speciesCounters holds the event counts of one species in the current window.
type speciesCounters struct {
	births       int
	litters      int
	deaths       [5]int // indexed by DeathCause
	huntAttempts int
	kills        int
	escapes      int
	grazed       int
	lifespanSum  int
}

// Collector accumulates events within tick windows and produces SpeciesStats.
type Collector struct {
	windowTicks     int
	windowStartTick int
	names           []string
	counters        []speciesCounters
}

// NewCollector creates a collector for the named species.
// windowTicks: how many ticks each census window lasts.
func NewCollector(windowTicks int, names []string) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowTicks: windowTicks,
		names:       names,
		counters:    make([]speciesCounters, len(names)),
	}
}

// RecordTally folds the rule engine's event counters into the window.
// The caller resets the tally afterwards.
func (c *Collector) RecordTally(t *systems.Tally) {
	for i := range c.counters {
		sc := &c.counters[i]
		sc.births += t.Births[i]
		sc.litters += t.Litters[i]
		sc.huntAttempts += t.HuntAttempts[i]
		sc.kills += t.Kills[i]
		sc.escapes += t.Escapes[i]
		sc.grazed += t.Grazed[i]
	}
}

// RecordDeath records an evicted organism.
func (c *Collector) RecordDeath(org *components.Organism) {
	sc := &c.counters[org.Species]
	if int(org.Cause) < len(sc.deaths) {
		sc.deaths[org.Cause]++
	}
	sc.lifespanSum += org.Age
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush produces one SpeciesStats per species and resets the counters.
// census must be indexed by species.
func (c *Collector) Flush(currentTick int, night bool, census []Census) []SpeciesStats {
	out := make([]SpeciesStats, len(c.names))
	for i, name := range c.names {
		sc := &c.counters[i]
		cs := &census[i]

		s := SpeciesStats{
			WindowStart:        c.windowStartTick,
			WindowEnd:          currentTick,
			Night:              night,
			Species:            name,
			Count:              len(cs.Ages),
			Asleep:             cs.Asleep,
			Female:             cs.Female,
			Male:               cs.Male,
			Births:             sc.births,
			Litters:            sc.litters,
			DeathsAge:          sc.deaths[components.CauseAge],
			DeathsStarvation:   sc.deaths[components.CauseStarvation],
			DeathsPredation:    sc.deaths[components.CausePredation],
			DeathsOvercrowding: sc.deaths[components.CauseOvercrowding],
			HuntAttempts:       sc.huntAttempts,
			Kills:              sc.kills,
			Escapes:            sc.escapes,
			Grazed:             sc.grazed,
		}
		if sc.huntAttempts > 0 {
			s.KillRate = float64(sc.kills) / float64(sc.huntAttempts)
		}
		if d := s.Deaths(); d > 0 {
			s.LifespanMean = float64(sc.lifespanSum) / float64(d)
		}
		s.AgeMean, s.AgeStd, s.AgeP50 = Summarize(cs.Ages)
		s.FoodMean, s.FoodStd, _ = Summarize(cs.Foods)

		out[i] = s
	}

	c.windowStartTick = currentTick
	clear(c.counters)
	return out
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() int {
	return c.windowTicks
}
