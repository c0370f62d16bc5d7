package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/meadow/telemetry"
)

// Advance runs one tick. Every organism alive at the start of its turn acts
// once, in live-list order. Newborns join the live list only after the pass,
// then the dead are evicted. Returns the updated live list.
func (g *Game) Advance(isNight bool) []ecs.Entity {
	g.perfCollector.StartPhase(telemetry.PhaseAct)
	for _, e := range g.live {
		g.ecology.Act(e, &g.newborns, isNight)
	}

	g.perfCollector.StartPhase(telemetry.PhaseMerge)
	g.mergeNewborns()

	g.perfCollector.StartPhase(telemetry.PhaseCleanup)
	g.cleanupDead()

	g.tick++
	return g.live
}

// UpdateHeadless runs one tick on the day/night clock and records telemetry.
func (g *Game) UpdateHeadless() {
	g.perfCollector.StartTick()

	g.Advance(g.IsNight())

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	tally := g.ecology.Tally()
	g.collector.RecordTally(tally)
	tally.Reset()
	g.checkExtinctions()
	g.flushTelemetry()

	g.perfCollector.EndTick()

	if g.logInterval > 0 && g.tick%g.logInterval == 0 {
		g.logWorldState()
	}
}

// CellState describes one field cell.
type CellState struct {
	Species int // species index, -1 for an empty cell
	Alive   bool
}

// Occupancy returns the state of every cell in row-major order.
func (g *Game) Occupancy() []CellState {
	out := make([]CellState, g.field.Depth()*g.field.Width())
	for i := range out {
		out[i].Species = -1
	}

	query := g.orgFilter.Query()
	for query.Next() {
		e := query.Entity()
		loc, org := query.Get()
		if occ, ok := g.field.Occupant(*loc); !ok || occ != e {
			continue
		}
		out[loc.Row*g.field.Width()+loc.Col] = CellState{Species: int(org.Species), Alive: org.Alive}
	}
	return out
}

// Population counts the live organisms of every species in the world.
func (g *Game) Population() []int {
	out := make([]int, len(g.counts))
	query := g.orgFilter.Query()
	for query.Next() {
		_, org := query.Get()
		if org.Alive {
			out[org.Species]++
		}
	}
	return out
}
