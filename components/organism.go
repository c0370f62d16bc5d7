// Package components defines ECS components for the simulation.
package components

// Sex is fixed at creation and gates mate compatibility.
type Sex uint8

const (
	Male Sex = iota
	Female
)

// String returns the display name for a Sex.
func (s Sex) String() string {
	if s == Female {
		return "female"
	}
	return "male"
}

// DeathCause records why an organism stopped being alive.
type DeathCause uint8

const (
	CauseNone DeathCause = iota
	CauseAge
	CauseStarvation
	CausePredation // caught by a predator or eaten by a grazer
	CauseOvercrowding
)

// String returns the display name for a DeathCause.
func (c DeathCause) String() string {
	names := DeathCauseNames()
	if int(c) < len(names) {
		return names[c]
	}
	return "unknown"
}

// DeathCauseNames returns the display names for all causes.
// The order matches the DeathCause constants.
func DeathCauseNames() []string {
	return []string{"none", "age", "starvation", "predation", "overcrowding"}
}

// Organism holds the per-individual state shared by every species.
type Organism struct {
	Species     uint8 // index into the species table
	Sex         Sex
	Alive       bool // false is terminal
	Asleep      bool
	Age         int // ticks lived
	FoodLevel   int // ticks of food left; unused by plants
	AgeLastBred int
	Cause       DeathCause
}

// SetDead marks the organism dead. The first recorded cause wins.
func (o *Organism) SetDead(cause DeathCause) {
	if !o.Alive {
		return
	}
	o.Alive = false
	o.Asleep = false
	o.Cause = cause
}
