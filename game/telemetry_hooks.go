package game

import (
	"log/slog"

	"github.com/pthm-cable/meadow/telemetry"
	"github.com/pthm-cable/meadow/traits"
)

// flushTelemetry checks if the census window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	census := g.sampleCensus()

	// The window closes on the tick about to run.
	rows := g.collector.Flush(g.tick, g.IsNight(), census)
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(rows)
	}

	if g.logStats {
		for _, r := range rows {
			r.LogStats()
		}
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteCensus(rows); err != nil {
			slog.Error("failed to write census", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, g.tick, len(g.live)); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	bookmarks := g.bookmarkDetector.Check(rows)
	for i := range bookmarks {
		bm := bookmarks[i]
		if g.logStats {
			bm.LogBookmark()
		}

		if g.outputManager != nil {
			if err := g.outputManager.WriteBookmark(bm); err != nil {
				slog.Error("failed to write bookmark", "error", err)
			}
			if g.snapshotOnBookmark {
				g.saveSnapshot(&bm)
			}
		}
	}
}

// sampleCensus gathers per-species distributions from the live organisms.
func (g *Game) sampleCensus() []telemetry.Census {
	species := g.ecology.Species()
	census := make([]telemetry.Census, len(species))

	query := g.orgFilter.Query()
	for query.Next() {
		_, org := query.Get()
		if !org.Alive {
			continue
		}
		census[org.Species].Add(org, traits.IsAnimal(species[org.Species].Traits))
	}
	return census
}

// saveSnapshot creates and saves a snapshot into the output directory.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	path, err := g.outputManager.WriteSnapshot(g.CreateSnapshot(bookmark))
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "tick", g.tick)
}

// CreateSnapshot captures the field, rates and tick. Organisms are stored in
// live-list order so a restored run iterates them the same way.
func (g *Game) CreateSnapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	species := g.ecology.Species()
	rates := g.ecology.Rates()

	snapshot := &telemetry.Snapshot{
		Version:   telemetry.SnapshotVersion,
		RNGSeed:   g.rngSeed,
		Depth:     g.field.Depth(),
		Width:     g.field.Width(),
		Tick:      g.tick,
		Species:   make([]string, len(species)),
		Hunting:   make([]float64, len(species)),
		Escape:    make([]float64, len(species)),
		Organisms: make([]telemetry.OrganismState, 0, len(g.live)),
		Bookmark:  bookmark,
	}
	for i := range species {
		snapshot.Species[i] = species[i].Name
		snapshot.Hunting[i] = rates.HuntingProbability(species[i].Index, false)
		snapshot.Escape[i] = rates.EscapeProbability(species[i].Index, false)
	}

	for _, e := range g.live {
		org := g.ecology.Organism(e)
		if !org.Alive {
			continue
		}
		snapshot.Organisms = append(snapshot.Organisms, telemetry.NewOrganismState(g.ecology.Location(e), org))
	}
	return snapshot
}
