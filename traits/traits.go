// Package traits defines species capabilities as a bit set.
package traits

import "strings"

// Trait defines a species capability.
type Trait uint32

const (
	// Role traits (exactly one per species)
	Predator Trait = 1 << iota // Hunts live prey through a capture contest
	Grazer                     // Eats stationary food unconditionally
	Plant                      // Stationary food source, never moves or starves

	// Behavior traits
	Sexual      // Needs an opposite-sex neighbour to breed
	Sleeper     // Draws a sleep state every night tick it is awake
	WakesAtDawn // Sleep state is cleared on every day tick
	SeedAsleep  // Seeded individuals draw their initial sleep state
)

// Roles lists the role traits in dispatch order.
var Roles = []Trait{Predator, Grazer, Plant}

var names = []struct {
	t    Trait
	name string
}{
	{Predator, "predator"},
	{Grazer, "grazer"},
	{Plant, "plant"},
	{Sexual, "sexual"},
	{Sleeper, "sleeper"},
	{WakesAtDawn, "wakes_at_dawn"},
	{SeedAsleep, "seed_asleep"},
}

// Has checks if a trait set contains a trait.
func (t Trait) Has(other Trait) bool {
	return t&other != 0
}

// Add adds a trait to the set.
func (t Trait) Add(other Trait) Trait {
	return t | other
}

// Remove removes a trait from the set.
func (t Trait) Remove(other Trait) Trait {
	return t &^ other
}

// Role returns the role trait of the set, or 0 if none is present.
func (t Trait) Role() Trait {
	for _, r := range Roles {
		if t.Has(r) {
			return r
		}
	}
	return 0
}

// IsAnimal reports whether the set describes a mobile, feeding organism.
func IsAnimal(t Trait) bool {
	return t.Has(Predator) || t.Has(Grazer)
}

// String renders the set as a '|' separated list.
func (t Trait) String() string {
	var parts []string
	for _, n := range names {
		if t.Has(n.t) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}
