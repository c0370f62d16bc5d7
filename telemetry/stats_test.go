package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/systems"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even takes lower", []float64{1, 2, 3, 4}, 0.5, 2.0},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	values := []float64{5, 1, 4, 2, 3}
	mean, std, p50 := Summarize(values)

	if math.Abs(mean-3) > 1e-9 {
		t.Errorf("mean = %v, want 3", mean)
	}
	// Sample standard deviation of 1..5.
	if math.Abs(std-math.Sqrt(2.5)) > 1e-9 {
		t.Errorf("std = %v, want %v", std, math.Sqrt(2.5))
	}
	if p50 != 3 {
		t.Errorf("p50 = %v, want 3", p50)
	}
}

func TestSummarizeSmall(t *testing.T) {
	if m, s, p := Summarize(nil); m != 0 || s != 0 || p != 0 {
		t.Errorf("Summarize(nil) = %v %v %v", m, s, p)
	}
	if m, s, p := Summarize([]float64{7}); m != 7 || s != 0 || p != 7 {
		t.Errorf("Summarize([7]) = %v %v %v", m, s, p)
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(10, []string{"fox", "rabbit"})

	tally := systems.Tally{
		HuntAttempts: []int{4, 0},
		Kills:        []int{1, 0},
		Escapes:      []int{0, 2},
		Grazed:       []int{0, 5},
		Litters:      []int{0, 2},
		Births:       []int{0, 6},
	}
	c.RecordTally(&tally)
	c.RecordTally(&tally)

	c.RecordDeath(&components.Organism{Species: 1, Age: 4, Cause: components.CausePredation})
	c.RecordDeath(&components.Organism{Species: 1, Age: 8, Cause: components.CauseStarvation})

	if c.ShouldFlush(9) {
		t.Error("flushed before the window was full")
	}
	if !c.ShouldFlush(10) {
		t.Error("did not flush at window end")
	}

	var fox, rabbit Census
	fox.Add(&components.Organism{Age: 20, FoodLevel: 3, Sex: components.Female, Asleep: true}, true)
	rabbit.Add(&components.Organism{Age: 2, FoodLevel: 1}, true)
	rabbit.Add(&components.Organism{Age: 6, FoodLevel: 5}, true)

	rows := c.Flush(10, true, []Census{fox, rabbit})
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}

	f, r := rows[0], rows[1]
	if f.Species != "fox" || f.Count != 1 || f.Female != 1 || f.Asleep != 1 {
		t.Errorf("fox row = %+v", f)
	}
	if f.HuntAttempts != 8 || f.Kills != 2 || f.KillRate != 0.25 {
		t.Errorf("fox hunting = %d/%d/%v", f.HuntAttempts, f.Kills, f.KillRate)
	}
	if r.Count != 2 || r.Male != 2 || r.Births != 12 || r.Litters != 4 || r.Escapes != 4 || r.Grazed != 10 {
		t.Errorf("rabbit row = %+v", r)
	}
	if r.DeathsPredation != 1 || r.DeathsStarvation != 1 || r.Deaths() != 2 || r.LifespanMean != 6 {
		t.Errorf("rabbit deaths = %+v", r)
	}
	if r.AgeMean != 4 || r.FoodMean != 3 || !r.Night || r.WindowEnd != 10 {
		t.Errorf("rabbit distributions = %+v", r)
	}

	// Counters reset for the next window.
	next := c.Flush(20, false, []Census{{}, {}})
	if next[1].Births != 0 || next[1].Deaths() != 0 || next[1].WindowStart != 10 {
		t.Errorf("counters not reset: %+v", next[1])
	}
	if c.ShouldFlush(29) {
		t.Error("window start not advanced")
	}
}

func TestCensusPlantsHaveNoSex(t *testing.T) {
	var c Census
	c.Add(&components.Organism{Age: 5}, false)
	if c.Male != 0 || c.Female != 0 || len(c.Foods) != 0 || len(c.Ages) != 1 {
		t.Errorf("plant census = %+v", c)
	}
}
