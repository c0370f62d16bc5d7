package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/meadow/components"
)

// breed tries to mate with every live, opposite-sex neighbour of the same
// species. Each mate is an independent draw; all litters share the free
// cells found before the scan, consumed in scan order.
func (e *Ecology) breed(ent ecs.Entity, sp *components.Species, newborns *[]ecs.Entity) {
	loc := *e.locMap.Get(ent)
	sex := e.orgMap.Get(ent).Sex

	free := e.field.FreeAdjacentLocationsInto(e.freeBuf[:0], loc)
	e.freeBuf = free
	e.adjBuf = e.field.AdjacentLocationsInto(e.adjBuf[:0], loc)

	bred := false
	for _, where := range e.adjBuf {
		mate, ok := e.field.Occupant(where)
		if !ok {
			continue
		}
		mo := e.orgMap.Get(mate)
		if !mo.Alive || mo.Species != sp.Index || mo.Sex == sex {
			continue
		}
		if !chance(e.rng, sp.BreedingProbability) {
			continue
		}
		free = e.litter(sp, free, newborns)
		bred = true
	}

	if bred && e.opts.RecordLastBred {
		parent := e.orgMap.Get(ent)
		parent.AgeLastBred = parent.Age
	}
}

// spread is asexual reproduction: one draw, then one litter into the free
// neighbours.
func (e *Ecology) spread(ent ecs.Entity, sp *components.Species, newborns *[]ecs.Entity) {
	if !chance(e.rng, sp.BreedingProbability) {
		return
	}
	loc := *e.locMap.Get(ent)
	e.freeBuf = e.field.FreeAdjacentLocationsInto(e.freeBuf[:0], loc)
	e.litter(sp, e.freeBuf, newborns)

	if e.opts.RecordLastBred {
		parent := e.orgMap.Get(ent)
		parent.AgeLastBred = parent.Age
	}
}

// litter draws a litter size in [1, MaxLitterSize] and spawns that many
// newborns into free, stopping early when free runs out. It returns the
// unused part of free.
func (e *Ecology) litter(sp *components.Species, free []components.Location, newborns *[]ecs.Entity) []components.Location {
	births := e.rng.Intn(sp.MaxLitterSize) + 1
	e.tally.Litters[sp.Index]++
	for b := 0; b < births && len(free) > 0; b++ {
		young := e.Spawn(sp.Index, free[0], false)
		free = free[1:]
		*newborns = append(*newborns, young)
		e.tally.Births[sp.Index]++
	}
	return free
}
