package systems

import (
	"github.com/pthm-cable/meadow/components"
)

// hunt scans the neighbours of loc for live prey. Every prey found costs one
// capture draw; a successful capture is followed by the prey's escape draw.
// Only the first prey that fails to escape is eaten.
func hunt(e *Ecology, org *components.Organism, sp *components.Species, loc components.Location, isNight bool) (components.Location, bool) {
	huntP := e.rates.HuntingProbability(sp.Index, isNight)

	e.adjBuf = e.field.AdjacentLocationsInto(e.adjBuf[:0], loc)
	for _, where := range e.adjBuf {
		prey, ok := e.field.Occupant(where)
		if !ok {
			continue
		}
		po := e.orgMap.Get(prey)
		if !po.Alive || !sp.Eats(po.Species) {
			continue
		}

		e.tally.HuntAttempts[sp.Index]++
		if !chance(e.rng, huntP) {
			continue
		}
		if chance(e.rng, e.rates.EscapeProbability(po.Species, isNight)) {
			e.tally.Escapes[po.Species]++
			continue
		}

		po.SetDead(components.CausePredation)
		org.FoodLevel = sp.FoodValue(po.Species)
		e.tally.Kills[sp.Index]++
		return where, true
	}
	return components.Location{}, false
}

// graze eats the first live food occupant around loc. No draw is involved.
func graze(e *Ecology, org *components.Organism, sp *components.Species, loc components.Location, _ bool) (components.Location, bool) {
	e.adjBuf = e.field.AdjacentLocationsInto(e.adjBuf[:0], loc)
	for _, where := range e.adjBuf {
		food, ok := e.field.Occupant(where)
		if !ok {
			continue
		}
		fo := e.orgMap.Get(food)
		if !fo.Alive || !sp.Eats(fo.Species) {
			continue
		}

		fo.SetDead(components.CausePredation)
		org.FoodLevel = sp.FoodValue(fo.Species)
		e.tally.Grazed[sp.Index]++
		return where, true
	}
	return components.Location{}, false
}
