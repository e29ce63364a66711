package main

import (
	"github.com/pthm-cable/trail/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Energy
			{Name: "drain", Path: "energy.drain", Min: 0.005, Max: 0.05, Default: 0.02},
			{Name: "recovery_rate", Path: "energy.recovery_rate", Min: 0.02, Max: 0.5, Default: 0.1},
			// Foraging
			{Name: "base_gain", Path: "foraging.base_gain", Min: 8, Max: 30, Default: 18},
			{Name: "intelligence_gain", Path: "foraging.intelligence_gain", Min: 0, Max: 20, Default: 10},
			{Name: "pickup_radius", Path: "foraging.pickup_radius", Min: 2, Max: 15, Default: 6},
			// Reproduction
			{Name: "repro_chance", Path: "reproduction.chance", Min: 0.005, Max: 0.06, Default: 0.02},
			{Name: "repro_cost", Path: "reproduction.cost_factor", Min: 0.4, Max: 0.85, Default: 0.6},
			// Food
			{Name: "food_target", Path: "food.target", Min: 10, Max: 80, Default: 40},
		},
	}
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
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	cfg.Energy.Drain = clamped[0]
	cfg.Energy.RecoveryRate = clamped[1]
	cfg.Foraging.BaseGain = clamped[2]
	cfg.Foraging.IntelligenceGain = clamped[3]
	cfg.Foraging.PickupRadius = clamped[4]
	cfg.Reproduction.Chance = clamped[5]
	cfg.Reproduction.CostFactor = clamped[6]
	cfg.Food.Target = int(clamped[7])

	cfg.ComputeDerived()
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Energy.Drain,
		cfg.Energy.RecoveryRate,
		cfg.Foraging.BaseGain,
		cfg.Foraging.IntelligenceGain,
		cfg.Foraging.PickupRadius,
		cfg.Reproduction.Chance,
		cfg.Reproduction.CostFactor,
		float64(cfg.Food.Target),
	}
}
