package main

import (
	"math"

	"github.com/pthm-cable/thermoscape/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of tunable parameters, seeded
// with defaults from the base config.
func NewParamVector(base *config.Config) *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Noise shape
			{Name: "scale", Path: "noise.scale", Min: 5, Max: 120, Default: base.Noise.Scale},
			{Name: "persistence", Path: "noise.persistence", Min: 0.1, Max: 0.8, Default: base.Noise.Persistence},
			{Name: "lacunarity", Path: "noise.lacunarity", Min: 1.5, Max: 4.0, Default: base.Noise.Lacunarity},
			// Classification; rock_from is water_below plus a non-negative gap
			{Name: "water_below", Path: "terrain.water_below", Min: 0.2, Max: 0.8, Default: base.Terrain.WaterBelow},
			{Name: "rock_gap", Path: "terrain.rock_from", Min: 0.0, Max: 0.6, Default: base.Terrain.RockFrom - base.Terrain.WaterBelow},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values clamped to their bounds.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return pv.Clamp(v)
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
		clamped[i] = math.Min(math.Max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	cfg.Noise.Scale = clamped[0]
	cfg.Noise.Persistence = clamped[1]
	cfg.Noise.Lacunarity = clamped[2]

	cfg.Terrain.WaterBelow = clamped[3]
	cfg.Terrain.RockFrom = math.Min(clamped[3]+clamped[4], 1)
}
