package systems

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/traits"
)

// Options tunes rule engine behaviour that is not tied to one species.
type Options struct {
	// Wander picks a uniformly random free neighbour when moving without food.
	// When false the first free neighbour in scan order is taken.
	Wander bool
	// RecordLastBred stores the parent's age after a successful litter.
	RecordLastBred bool
}

// Tally counts rule engine events per species since the last reset.
type Tally struct {
	HuntAttempts []int // capture draws made, by predator species
	Kills        []int // by predator species
	Escapes      []int // by prey species
	Grazed       []int // by grazer species
	Litters      []int // by parent species
	Births       []int // by species
}

func newTally(n int) Tally {
	return Tally{
		HuntAttempts: make([]int, n),
		Kills:        make([]int, n),
		Escapes:      make([]int, n),
		Grazed:       make([]int, n),
		Litters:      make([]int, n),
		Births:       make([]int, n),
	}
}

// Reset zeroes every counter.
func (t *Tally) Reset() {
	clear(t.HuntAttempts)
	clear(t.Kills)
	clear(t.Escapes)
	clear(t.Grazed)
	clear(t.Litters)
	clear(t.Births)
}

// Ecology is the simulation context every act call runs in: the field, the
// organism arena, the shared random source and the mutable rates.
type Ecology struct {
	world   *ecs.World
	field   *Field
	rng     Random
	rates   *Rates
	species []components.Species
	opts    Options

	mapper *ecs.Map2[components.Location, components.Organism]
	orgMap *ecs.Map1[components.Organism]
	locMap *ecs.Map1[components.Location]

	tally Tally

	// Scratch buffers reused across calls.
	adjBuf  []components.Location
	freeBuf []components.Location
}

// NewEcology creates the rule engine for a world and its field.
func NewEcology(w *ecs.World, field *Field, rng Random, species []components.Species, opts Options) *Ecology {
	return &Ecology{
		world:   w,
		field:   field,
		rng:     rng,
		rates:   NewRates(species),
		species: species,
		opts:    opts,
		mapper:  ecs.NewMap2[components.Location, components.Organism](w),
		orgMap:  ecs.NewMap1[components.Organism](w),
		locMap:  ecs.NewMap1[components.Location](w),
		tally:   newTally(len(species)),
		adjBuf:  make([]components.Location, 0, 8),
		freeBuf: make([]components.Location, 0, 8),
	}
}

// Field returns the grid the organisms live on.
func (e *Ecology) Field() *Field { return e.field }

// Rates returns the mutable hunting and escape probabilities.
func (e *Ecology) Rates() *Rates { return e.rates }

// Species returns the species table.
func (e *Ecology) Species() []components.Species { return e.species }

// Tally returns the event counters accumulated since the last reset.
func (e *Ecology) Tally() *Tally { return &e.tally }

// Organism returns the organism component of an entity.
// The pointer is only valid until the next entity is created.
func (e *Ecology) Organism(ent ecs.Entity) *components.Organism {
	return e.orgMap.Get(ent)
}

// Location returns the current location of an entity.
func (e *Ecology) Location(ent ecs.Entity) components.Location {
	return *e.locMap.Get(ent)
}

// Spawn creates an organism of the given species and places it at loc.
//
// Newborns (randomAge false) start at age 0, fully fed and awake. Seeded
// individuals (randomAge true) draw age, food level and, for SeedAsleep
// species, their sleep state. Sexual species draw their sex first.
func (e *Ecology) Spawn(species uint8, loc components.Location, randomAge bool) ecs.Entity {
	sp := &e.species[species]
	org := components.Organism{Species: species, Alive: true}

	if sp.Traits.Has(traits.Sexual) && e.rng.Bool() {
		org.Sex = components.Female
	}
	if randomAge {
		org.Age = e.rng.Intn(sp.MaxAge)
		if traits.IsAnimal(sp.Traits) {
			org.FoodLevel = e.rng.Intn(sp.NewbornFood)
		}
		if sp.Traits.Has(traits.SeedAsleep) {
			org.Asleep = e.rng.Bool()
		}
	} else {
		org.FoodLevel = sp.NewbornFood
	}

	ent := e.mapper.NewEntity(&loc, &org)
	e.field.Place(ent, loc)
	return ent
}

// Restore recreates a saved organism at loc without drawing from the
// random source. The cell must be empty.
func (e *Ecology) Restore(org components.Organism, loc components.Location) (ecs.Entity, error) {
	if int(org.Species) >= len(e.species) {
		return ecs.Entity{}, fmt.Errorf("restore: unknown species index %d", org.Species)
	}
	if !e.field.InBounds(loc) {
		return ecs.Entity{}, fmt.Errorf("restore: location %v outside field bounds %dx%d", loc, e.field.Depth(), e.field.Width())
	}
	if _, taken := e.field.Occupant(loc); taken {
		return ecs.Entity{}, fmt.Errorf("restore: cell %v already occupied", loc)
	}
	ent := e.mapper.NewEntity(&loc, &org)
	e.field.Place(ent, loc)
	return ent, nil
}
