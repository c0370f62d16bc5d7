package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// SpeciesStats holds one species' census for a window. One CSV row per
// species per window.
type SpeciesStats struct {
	WindowStart int    `csv:"-"`
	WindowEnd   int    `csv:"window_end"`
	Night       bool   `csv:"night"`
	Species     string `csv:"species"`

	// Population at window end
	Count  int `csv:"count"`
	Asleep int `csv:"asleep"`
	Female int `csv:"female"`
	Male   int `csv:"male"`

	// Events during window
	Births             int `csv:"births"`
	Litters            int `csv:"litters"`
	DeathsAge          int `csv:"deaths_age"`
	DeathsStarvation   int `csv:"deaths_starvation"`
	DeathsPredation    int `csv:"deaths_predation"`
	DeathsOvercrowding int `csv:"deaths_overcrowding"`

	// Feeding
	HuntAttempts int     `csv:"hunt_attempts"`
	Kills        int     `csv:"kills"`
	Escapes      int     `csv:"escapes"`
	Grazed       int     `csv:"grazed"`
	KillRate     float64 `csv:"kill_rate"` // kills per hunt attempt

	// Distributions sampled at window end
	AgeMean  float64 `csv:"age_mean"`
	AgeStd   float64 `csv:"age_std"`
	AgeP50   float64 `csv:"age_p50"`
	FoodMean float64 `csv:"food_mean"`
	FoodStd  float64 `csv:"food_std"`

	// Age at death of those that died in the window
	LifespanMean float64 `csv:"lifespan_mean"`
}

// Deaths returns the total deaths in the window.
func (s SpeciesStats) Deaths() int {
	return s.DeathsAge + s.DeathsStarvation + s.DeathsPredation + s.DeathsOvercrowding
}

// Percentile returns the p-th quantile of a sorted slice, or 0 if it is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	switch {
	case p <= 0:
		return sorted[0]
	case p >= 1:
		return sorted[len(sorted)-1]
	}
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// Summarize returns mean, sample standard deviation and median of values.
// values is sorted in place.
func Summarize(values []float64) (mean, std, p50 float64) {
	switch len(values) {
	case 0:
		return 0, 0, 0
	case 1:
		return values[0], 0, values[0]
	}
	mean, std = stat.MeanStdDev(values, nil)
	sort.Float64s(values)
	return mean, std, Percentile(values, 0.5)
}

// LogValue implements slog.LogValuer for structured logging.
func (s SpeciesStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_end", s.WindowEnd),
		slog.Bool("night", s.Night),
		slog.String("species", s.Species),
		slog.Int("count", s.Count),
		slog.Int("asleep", s.Asleep),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths()),
		slog.Int("deaths_age", s.DeathsAge),
		slog.Int("deaths_starvation", s.DeathsStarvation),
		slog.Int("deaths_predation", s.DeathsPredation),
		slog.Int("deaths_overcrowding", s.DeathsOvercrowding),
		slog.Int("kills", s.Kills),
		slog.Int("escapes", s.Escapes),
		slog.Int("grazed", s.Grazed),
		slog.Float64("kill_rate", s.KillRate),
		slog.Float64("age_mean", s.AgeMean),
		slog.Float64("food_mean", s.FoodMean),
		slog.Float64("lifespan_mean", s.LifespanMean),
	)
}

// LogStats logs the stats using slog.
func (s SpeciesStats) LogStats() {
	slog.Info("stats", "census", s)
}
