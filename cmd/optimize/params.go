// Package main provides CMA-ES optimization for meadow simulation parameters.
package main

import (
	"fmt"
	"strings"

	"github.com/pthm-cable/meadow/config"
)

// paramField selects which species constant a parameter drives.
type paramField int

const (
	fieldHunting paramField = iota
	fieldBreeding
)

// label is the short name used in parameter names and progress output.
func (f paramField) label() string {
	if f == fieldHunting {
		return "hunting"
	}
	return "breeding"
}

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Species int     // index into Config.Species
	Owner   string  // species name
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value

	field paramField
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// Search bounds.
const (
	huntingMin  = 0.01
	huntingMax  = 0.6
	breedingMin = 0.02
	breedingMax = 0.8
	spreadMin   = 0.05
	spreadMax   = 0.9
)

// NewParamVector builds one hunting probability per predator and one
// breeding probability per grazer and plant, defaulting to the values in cfg.
// A plant's breeding probability is its per-tick spread chance.
func NewParamVector(cfg *config.Config) *ParamVector {
	pv := &ParamVector{}
	for i, sp := range cfg.Species {
		switch sp.Role {
		case config.RolePredator:
			pv.add(i, sp.Name, fieldHunting, sp.HuntingProbability, huntingMin, huntingMax)
		case config.RoleGrazer:
			pv.add(i, sp.Name, fieldBreeding, sp.BreedingProbability, breedingMin, breedingMax)
		case config.RolePlant:
			pv.add(i, sp.Name, fieldBreeding, sp.BreedingProbability, spreadMin, spreadMax)
		}
	}
	return pv
}

func (pv *ParamVector) add(species int, name string, f paramField, current, lo, hi float64) {
	key := "hunting_probability"
	if f == fieldBreeding {
		key = "breeding_probability"
	}
	pv.Specs = append(pv.Specs, ParamSpec{
		Name:    name + "_" + f.label(),
		Path:    fmt.Sprintf("species[%d].%s", species, key),
		Species: species,
		Owner:   name,
		Min:     lo,
		Max:     hi,
		Default: min(max(current, lo), hi),
		field:   f,
	})
}

// Describe formats values grouped by species, e.g.
// "fox[hunting=0.200] grass[breeding=0.450]".
func (pv *ParamVector) Describe(values []float64) string {
	var b strings.Builder
	for i, spec := range pv.Specs {
		if i == 0 || pv.Specs[i-1].Owner != spec.Owner {
			if i > 0 {
				b.WriteString("] ")
			}
			b.WriteString(spec.Owner)
			b.WriteByte('[')
		} else {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%.3f", spec.field.label(), values[i])
	}
	if len(pv.Specs) > 0 {
		b.WriteByte(']')
	}
	return b.String()
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	for i, spec := range pv.Specs {
		sp := &cfg.Species[spec.Species]
		switch spec.field {
		case fieldHunting:
			sp.HuntingProbability = clamped[i]
		case fieldBreeding:
			sp.BreedingProbability = clamped[i]
		}
	}
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		sp := &cfg.Species[spec.Species]
		switch spec.field {
		case fieldHunting:
			v[i] = sp.HuntingProbability
		case fieldBreeding:
			v[i] = sp.BreedingProbability
		}
	}
	return v
}
