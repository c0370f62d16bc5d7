package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/telemetry"
)

// seedField populates an empty field. Cells are visited row-major and each
// draws once; the draw is compared against the running sum of the species'
// creation probabilities in species order.
func (g *Game) seedField() {
	species := g.ecology.Species()
	for row := 0; row < g.field.Depth(); row++ {
		for col := 0; col < g.field.Width(); col++ {
			draw := g.rng.Float64()
			var cum float64
			for i := range species {
				cum += species[i].CreationProbability
				if draw < cum {
					ent := g.ecology.Spawn(species[i].Index, components.Loc(row, col), true)
					g.live = append(g.live, ent)
					g.counts[i]++
					break
				}
			}
		}
	}

	slog.Info("field seeded",
		"depth", g.field.Depth(),
		"width", g.field.Width(),
		"organisms", len(g.live),
		"seed", g.rngSeed,
	)
}

// restoreSnapshot rebuilds the field, rates and tick from a snapshot.
// Species must match the configured species by name and order.
func (g *Game) restoreSnapshot(s *telemetry.Snapshot) error {
	species := g.ecology.Species()
	if len(s.Species) != len(species) {
		return fmt.Errorf("snapshot has %d species, config has %d", len(s.Species), len(species))
	}
	for i, name := range s.Species {
		if species[i].Name != name {
			return fmt.Errorf("snapshot species %d is %q, config has %q", i, name, species[i].Name)
		}
	}
	if len(s.Hunting) != len(species) || len(s.Escape) != len(species) {
		return fmt.Errorf("snapshot rates cover %d/%d species, want %d", len(s.Hunting), len(s.Escape), len(species))
	}
	for _, p := range s.Hunting {
		if p < 0 {
			return fmt.Errorf("snapshot hunting probability %v below zero", p)
		}
	}

	for _, st := range s.Organisms {
		ent, err := g.ecology.Restore(st.Organism(), st.Location())
		if err != nil {
			return err
		}
		g.live = append(g.live, ent)
		g.counts[st.Species]++
	}

	rates := g.ecology.Rates()
	for i := range species {
		rates.SetHuntingProbability(species[i].Index, s.Hunting[i])
		rates.SetEscapeProbability(species[i].Index, s.Escape[i])
	}
	g.tick = s.Tick

	slog.Info("snapshot restored",
		"tick", g.tick,
		"organisms", len(g.live),
		"snapshot_seed", s.RNGSeed,
		"seed", g.rngSeed,
	)
	return nil
}

// mergeNewborns appends the newborns of the last pass to the live list.
// They are already on the field.
func (g *Game) mergeNewborns() {
	for _, e := range g.newborns {
		g.counts[g.ecology.Organism(e).Species]++
	}
	g.live = append(g.live, g.newborns...)
	clear(g.newborns)
	g.newborns = g.newborns[:0]
}

// cleanupDead evicts dead organisms from the field and the world and
// compacts the live list in place, preserving order.
func (g *Game) cleanupDead() {
	kept := g.live[:0]
	for _, e := range g.live {
		org := g.ecology.Organism(e)
		if org.Alive {
			kept = append(kept, e)
			continue
		}

		g.collector.RecordDeath(org)
		g.counts[org.Species]--
		// A predator may already have moved into the cell.
		g.field.ClearIf(g.ecology.Location(e), e)
		g.toRemove = append(g.toRemove, e)
	}
	clear(g.live[len(kept):])
	g.live = kept

	// Remove entities after iterating
	for _, e := range g.toRemove {
		g.world.RemoveEntity(e)
	}
	g.toRemove = g.toRemove[:0]
}
