package systems

import (
	"fmt"

	"github.com/pthm-cable/meadow/components"
)

// Rates holds the current hunting and escape probability of every species.
// Unlike the other species constants these change during a run: escape
// ratchets up on nights spent awake, and hunting can be retuned.
type Rates struct {
	hunting      []float64
	huntingNight []float64
	escape       []float64
	escapeNight  []float64
}

// NewRates seeds the rates from the species table.
func NewRates(species []components.Species) *Rates {
	r := &Rates{
		hunting:      make([]float64, len(species)),
		huntingNight: make([]float64, len(species)),
		escape:       make([]float64, len(species)),
		escapeNight:  make([]float64, len(species)),
	}
	for i := range species {
		sp := &species[i]
		r.SetHuntingProbability(sp.Index, sp.HuntingProbability)
		r.huntingNight[i] = sp.HuntingNightBonus
		r.escape[i] = sp.EscapeProbability
		r.escapeNight[i] = sp.EscapeNightBonus
	}
	return r
}

// HuntingProbability returns the capture chance of a predator species,
// including the night bonus when isNight.
func (r *Rates) HuntingProbability(species uint8, isNight bool) float64 {
	if isNight {
		return r.hunting[species] + r.huntingNight[species]
	}
	return r.hunting[species]
}

// SetHuntingProbability replaces the base hunting probability of a species.
// A negative probability is an invariant violation and panics.
func (r *Rates) SetHuntingProbability(species uint8, p float64) {
	if p < 0 {
		panic(fmt.Sprintf("rates: hunting probability below zero for species %d: %v", species, p))
	}
	r.hunting[species] = p
}

// EscapeProbability returns the chance a prey species survives a capture,
// including the night bonus when isNight.
func (r *Rates) EscapeProbability(species uint8, isNight bool) float64 {
	if isNight {
		return r.escape[species] + r.escapeNight[species]
	}
	return r.escape[species]
}

// RaiseEscape adds delta to the base escape probability of a species. The
// stored value saturates at 1, where every draw already escapes.
func (r *Rates) RaiseEscape(species uint8, delta float64) {
	r.escape[species] += delta
	if r.escape[species] > 1 {
		r.escape[species] = 1
	}
}

// SetEscapeProbability replaces the base escape probability of a species,
// clamped to [0,1].
func (r *Rates) SetEscapeProbability(species uint8, p float64) {
	r.escape[species] = min(max(p, 0), 1)
}
