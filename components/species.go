package components

import (
	"github.com/pthm-cable/meadow/config"
	"github.com/pthm-cable/meadow/traits"
)

// Species holds the constants shared by every member of a species.
type Species struct {
	Index  uint8
	Name   string
	Traits traits.Trait

	CreationProbability float64
	MaxAge              int
	SleepProbability    float64

	BreedingAge         int
	BreedingProbability float64
	BreedingInterval    int
	MaxLitterSize       int

	NewbornFood int
	Diet        []int // food value per species index, 0 = not food

	HuntingProbability float64
	HuntingNightBonus  float64

	EscapeProbability float64
	EscapeNightBonus  float64
	EscapeRatchet     float64
}

// FoodValue returns the food granted by eating a member of the given species.
func (s *Species) FoodValue(prey uint8) int {
	if int(prey) >= len(s.Diet) {
		return 0
	}
	return s.Diet[prey]
}

// Eats reports whether the given species is food for s.
func (s *Species) Eats(prey uint8) bool {
	return s.FoodValue(prey) > 0
}

// CanBreed reports whether o is old enough and past its breeding interval.
func (s *Species) CanBreed(o *Organism) bool {
	return o.Age >= s.BreedingAge && o.Age >= o.AgeLastBred+s.BreedingInterval
}

// SpeciesFromConfig resolves the configured species into a table indexed by
// species index.
func SpeciesFromConfig(cfg *config.Config) []Species {
	table := make([]Species, len(cfg.Species))
	for i := range cfg.Species {
		sc := &cfg.Species[i]

		var t traits.Trait
		switch sc.Role {
		case config.RolePredator:
			t = traits.Predator
		case config.RoleGrazer:
			t = traits.Grazer
		default:
			t = traits.Plant
		}
		if traits.IsAnimal(t) {
			// Every awake animal draws its sleep state on a night tick, even
			// at probability zero, so the draw sequence does not depend on it.
			t = t.Add(traits.Sexual | traits.Sleeper)
			// Predators never carry a sleep state into the day.
			if sc.WakeAtDawn || t.Has(traits.Predator) {
				t = t.Add(traits.WakesAtDawn)
			}
			if sc.SeedAsleep {
				t = t.Add(traits.SeedAsleep)
			}
		}

		diet := make([]int, len(cfg.Species))
		for name, value := range sc.Diet {
			diet[cfg.Derived.SpeciesIndex[name]] = value
		}

		table[i] = Species{
			Index:               uint8(i),
			Name:                sc.Name,
			Traits:              t,
			CreationProbability: sc.CreationProbability,
			MaxAge:              sc.MaxAge,
			SleepProbability:    sc.SleepProbability,
			BreedingAge:         sc.BreedingAge,
			BreedingProbability: sc.BreedingProbability,
			BreedingInterval:    sc.BreedingInterval,
			MaxLitterSize:       sc.MaxLitterSize,
			NewbornFood:         sc.NewbornFood,
			Diet:                diet,
			HuntingProbability:  sc.HuntingProbability,
			HuntingNightBonus:   sc.HuntingNightBonus,
			EscapeProbability:   sc.EscapeProbability,
			EscapeNightBonus:    sc.EscapeNightBonus,
			EscapeRatchet:       sc.EscapeRatchet,
		}
	}
	return table
}
