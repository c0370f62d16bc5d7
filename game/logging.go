package game

import (
	"log/slog"
)

// logWorldState logs the current world state.
func (g *Game) logWorldState() {
	species := g.ecology.Species()
	attrs := make([]any, 0, 2*len(species)+6)
	attrs = append(attrs,
		"tick", g.tick,
		"night", g.IsNight(),
		"organisms", len(g.live),
	)
	for i := range species {
		attrs = append(attrs, species[i].Name, g.counts[i])
	}
	slog.Info("world", attrs...)
}

// checkExtinctions warns once each time a species' live count drops to zero.
func (g *Game) checkExtinctions() {
	species := g.ecology.Species()
	for i, n := range g.counts {
		switch {
		case n == 0 && !g.extinct[i]:
			g.extinct[i] = true
			slog.Warn("species extinct", "species", species[i].Name, "tick", g.tick)
		case n > 0:
			g.extinct[i] = false
		}
	}
}
