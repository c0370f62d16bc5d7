package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate a few ticks
	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseAct)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseCleanup)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	// Verify we got timing data
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}

	// Verify phases are tracked
	if len(stats.PhaseAvg) == 0 {
		t.Error("expected phase averages to be populated")
	}

	if _, ok := stats.PhaseAvg[PhaseAct]; !ok {
		t.Error("expected act phase to be tracked")
	}

	if _, ok := stats.PhaseAvg[PhaseCleanup]; !ok {
		t.Error("expected cleanup phase to be tracked")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5) // Small window

	// Fill window completely
	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseAct)
		pc.EndTick()
	}

	stats := pc.Stats()

	// Should have data
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration after window filled")
	}

	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate with uneven phase durations
	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase("fast")
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase("slow")
		time.Sleep(100 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	fastPct := stats.PhasePct["fast"]
	slowPct := stats.PhasePct["slow"]

	// Slow phase should take more % than fast
	if slowPct <= fastPct {
		t.Errorf("expected slow phase (%v%%) > fast phase (%v%%)", slowPct, fastPct)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	// Empty collector should return zero values without panicking
	if stats.AvgTickDuration != 0 {
		t.Error("expected zero avg tick duration for empty collector")
	}

	if stats.PhaseAvg == nil {
		t.Error("expected non-nil PhaseAvg map")
	}

	if stats.PhasePct == nil {
		t.Error("expected non-nil PhasePct map")
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	s := PerfStats{
		AvgTickDuration: 1500 * time.Microsecond,
		MinTickDuration: time.Millisecond,
		MaxTickDuration: 2 * time.Millisecond,
		TicksPerSecond:  666,
		PhasePct:        map[string]float64{PhaseAct: 80, PhaseCleanup: 15},
	}

	row := s.ToCSV(120, 4200)

	if row.WindowEnd != 120 || row.Organisms != 4200 {
		t.Errorf("window/organisms = %d/%d", row.WindowEnd, row.Organisms)
	}
	if row.AvgTickUS != 1500 || row.MinTickUS != 1000 || row.MaxTickUS != 2000 {
		t.Errorf("tick durations = %d/%d/%d", row.AvgTickUS, row.MinTickUS, row.MaxTickUS)
	}
	if row.ActPct != 80 || row.CleanupPct != 15 || row.MergePct != 0 {
		t.Errorf("phase pct = %v/%v/%v", row.ActPct, row.CleanupPct, row.MergePct)
	}
}
