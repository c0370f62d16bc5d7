package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/traits"
)

// feedFunc looks for food around loc. On success it returns the cell the
// organism should move into.
type feedFunc func(e *Ecology, org *components.Organism, sp *components.Species, loc components.Location, isNight bool) (components.Location, bool)

// behavior is the role-specific part of an act call.
type behavior struct {
	feed  feedFunc
	moves bool
}

// behaviors dispatches on the role trait of a species.
var behaviors = map[traits.Trait]behavior{
	traits.Predator: {feed: hunt, moves: true},
	traits.Grazer:   {feed: graze, moves: true},
	traits.Plant:    {},
}

// Act runs one tick of an organism's life. Newborns are appended to
// newborns; they are already on the field but must not act this tick.
//
// Order per tick: age, hunger, dawn wake, sleep check, night sleep draw,
// escape ratchet, breeding, feeding, movement. Aging and hunger apply even
// when the organism sleeps through the rest of the tick.
func (e *Ecology) Act(ent ecs.Entity, newborns *[]ecs.Entity, isNight bool) {
	org := e.orgMap.Get(ent)
	if !org.Alive {
		return
	}
	sp := &e.species[org.Species]
	b := behaviors[sp.Traits.Role()]

	org.Age++
	if org.Age > sp.MaxAge {
		org.SetDead(components.CauseAge)
		return
	}
	if traits.IsAnimal(sp.Traits) {
		org.FoodLevel--
		if org.FoodLevel <= 0 {
			org.SetDead(components.CauseStarvation)
			return
		}
	}

	if !isNight && sp.Traits.Has(traits.WakesAtDawn) {
		org.Asleep = false
	}
	if org.Asleep {
		return
	}
	if isNight && sp.Traits.Has(traits.Sleeper) {
		org.Asleep = chance(e.rng, sp.SleepProbability)
		if org.Asleep {
			return
		}
	}
	if isNight && sp.EscapeRatchet != 0 {
		e.rates.RaiseEscape(sp.Index, sp.EscapeRatchet)
	}

	if sp.CanBreed(org) {
		if sp.Traits.Has(traits.Sexual) {
			e.breed(ent, sp, newborns)
		} else {
			e.spread(ent, sp, newborns)
		}
		// Spawning may move component storage.
		org = e.orgMap.Get(ent)
	}

	if !b.moves {
		return
	}
	loc := *e.locMap.Get(ent)
	target, ok := b.feed(e, org, sp, loc, isNight)
	if !ok {
		target, ok = e.freeMove(loc)
	}
	if !ok {
		org.SetDead(components.CauseOvercrowding)
		return
	}
	e.field.Place(ent, target)
}

// freeMove picks the cell to move into when no food was taken.
func (e *Ecology) freeMove(loc components.Location) (components.Location, bool) {
	if !e.opts.Wander {
		return e.field.FreeAdjacentLocation(loc)
	}
	e.freeBuf = e.field.FreeAdjacentLocationsInto(e.freeBuf[:0], loc)
	switch len(e.freeBuf) {
	case 0:
		return components.Location{}, false
	case 1:
		return e.freeBuf[0], true
	default:
		return e.freeBuf[e.rng.Intn(len(e.freeBuf))], true
	}
}
