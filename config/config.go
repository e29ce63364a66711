// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World        WorldConfig        `yaml:"world"`
	Population   PopulationConfig   `yaml:"population"`
	Food         FoodConfig         `yaml:"food"`
	Resources    ResourcesConfig    `yaml:"resources"`
	Energy       EnergyConfig       `yaml:"energy"`
	Foraging     ForagingConfig     `yaml:"foraging"`
	Roles        RolesConfig        `yaml:"roles"`
	Disease      DiseaseConfig      `yaml:"disease"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	Mutation     MutationConfig     `yaml:"mutation"`
	Loop         LoopConfig         `yaml:"loop"`
	Generation   GenerationConfig   `yaml:"generation"`
	EventLog     EventLogConfig     `yaml:"event_log"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
	HallOfFame   HallOfFameConfig   `yaml:"hall_of_fame"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds the plane the agents live on.
type WorldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// PopulationConfig holds population management parameters.
type PopulationConfig struct {
	Initial            int  `yaml:"initial"`
	Max                int  `yaml:"max"`                  // Hard cap; excess is evicted by lowest energy
	ReseedOnExtinction bool `yaml:"reseed_on_extinction"` // Re-run init when the last agent dies
	ReseedFromHall     bool `yaml:"reseed_from_hall"`     // Reseeded founders draw genes from the hall of fame
}

// FoodConfig holds food field parameters.
type FoodConfig struct {
	Target       int     `yaml:"target"`        // Respawn one item per tick while below this
	Distribution string  `yaml:"distribution"`  // "uniform" or "patchy"
	PatchScale   float64 `yaml:"patch_scale"`   // Noise frequency for patchy placement
	PatchOctaves int     `yaml:"patch_octaves"` // FBM octaves for patchy placement
	PatchFloor   float64 `yaml:"patch_floor"`   // Minimum acceptance probability in barren areas
	GridCellSize float64 `yaml:"grid_cell_size"`
}

// ResourcesConfig holds the shared ledger's starting values and upkeep.
type ResourcesConfig struct {
	InitialFood     float64 `yaml:"initial_food"`
	InitialTools    int     `yaml:"initial_tools"`
	InitialMedicine int     `yaml:"initial_medicine"`
	FoodPerAgent    float64 `yaml:"food_per_agent"`    // Ledger food consumed per agent per tick
	ToolBreakChance float64 `yaml:"tool_break_chance"` // Per-tick chance one tool wears out
}

// EnergyConfig holds energy and health economics.
type EnergyConfig struct {
	Drain             float64 `yaml:"drain"`              // energy -= drain*speed*dt / healthFactor
	InitialMin        float64 `yaml:"initial_min"`        // Founders start with min + U*range
	InitialRange      float64 `yaml:"initial_range"`
	DeathThreshold    float64 `yaml:"death_threshold"`    // energy <= this is death
	RecoveryThreshold float64 `yaml:"recovery_threshold"` // Health recovers above this energy
	RecoveryRate      float64 `yaml:"recovery_rate"`      // Health per unit dt
	MinHealthFactor   float64 `yaml:"min_health_factor"`  // Floor for health/100 in drain and movement
	WanderScale       float64 `yaml:"wander_scale"`       // Random walk amplitude per axis
}

// ForagingConfig holds food pickup parameters.
type ForagingConfig struct {
	BaseGain         float64 `yaml:"base_gain"`
	IntelligenceGain float64 `yaml:"intelligence_gain"`
	PickupRadius     float64 `yaml:"pickup_radius"`  // Pickup when distance < radius + speed
	LedgerDivisor    float64 `yaml:"ledger_divisor"` // Ledger food += floor(gain / divisor)
	FindChance       float64 `yaml:"find_chance"`    // Scaled by gathering skill
}

// RolesConfig holds role-driven ambient event parameters.
type RolesConfig struct {
	EventChance   float64 `yaml:"event_chance"`   // Per unit dt
	HealThreshold float64 `yaml:"heal_threshold"` // Patients are below this health
	HealAmount    float64 `yaml:"heal_amount"`
	HuntYield     float64 `yaml:"hunt_yield"` // Food = floor(yield * hunting skill)
}

// DiseaseConfig holds affliction parameters.
type DiseaseConfig struct {
	OnsetChance    float64 `yaml:"onset_chance"`    // Per unit dt
	OnsetDamage    float64 `yaml:"onset_damage"`    // Immediate health loss
	MinHealth      float64 `yaml:"min_health"`      // Only agents above this fall ill
	DecayRate      float64 `yaml:"decay_rate"`      // Health per disease per unit dt
	RecoveryChance float64 `yaml:"recovery_chance"` // Per unit dt; 0 keeps afflictions permanent
}

// ReproductionConfig holds reproduction parameters.
type ReproductionConfig struct {
	EnergyThreshold float64 `yaml:"energy_threshold"`
	HealthThreshold float64 `yaml:"health_threshold"`
	Chance          float64 `yaml:"chance"`      // Scaled by intelligence and reproduction factor
	CostFactor      float64 `yaml:"cost_factor"` // Parent energy multiplied by this
	SpawnOffset     float64 `yaml:"spawn_offset"`
}

// MutationConfig holds mutation parameters.
type MutationConfig struct {
	Rate                   float64 `yaml:"rate"`
	FastMultiplier         float64 `yaml:"fast_multiplier"`
	FastReproductionFactor float64 `yaml:"fast_reproduction_factor"`
	SpeedStep              float64 `yaml:"speed_step"`
	VisionStep             float64 `yaml:"vision_step"`
	IntelligenceStep       float64 `yaml:"intelligence_step"`
}

// LoopConfig holds the frame accumulator settings.
type LoopConfig struct {
	SimSpeed         float64 `yaml:"sim_speed"`
	TimeScale        float64 `yaml:"time_scale"`
	MaxStepsPerFrame int     `yaml:"max_steps_per_frame"`
	FastEvolution    bool    `yaml:"fast_evolution"`
}

// GenerationConfig holds the narrative generation counter settings.
type GenerationConfig struct {
	Chance      float64 `yaml:"chance"`       // Per tick, scaled by sim speed
	EventChance float64 `yaml:"event_chance"` // Conditional on a generation tick
	Supplies    bool    `yaml:"supplies"`     // Events also move tools and medicine
}

// EventLogConfig holds narration feed parameters.
type EventLogConfig struct {
	Capacity int `yaml:"capacity"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int     `yaml:"stats_window"` // Ticks per stats window
	BookmarkHistorySize int     `yaml:"bookmark_history_size"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
	CrashDropPercent    float64 `yaml:"crash_drop_percent"`
	CapPressureWindows  int     `yaml:"cap_pressure_windows"`
}

// HallOfFameConfig holds entry criteria and fitness weights for the hall of fame.
type HallOfFameConfig struct {
	Size           int     `yaml:"size"`
	MinChildren    int     `yaml:"min_children"`
	MinLifespan    int64   `yaml:"min_lifespan"` // ticks
	ChildrenWeight float64 `yaml:"children_weight"`
	LifespanWeight float64 `yaml:"lifespan_weight"`
	ForageWeight   float64 `yaml:"forage_weight"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	MutationRate       float64 // Effective rate after fast evolution
	ReproductionFactor float64 // 1, or the fast factor
	Patchy             bool    // Food.Distribution == "patchy"
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.ComputeDerived()

	return cfg, nil
}

// MustLoad is like Load but panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load: %v", err))
	}
	return cfg
}

// Clone returns a deep copy. Config holds no reference types, so a value copy suffices.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

func (c *Config) validate() error {
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("world dimensions must be positive, got %vx%v", c.World.Width, c.World.Height)
	}
	if c.Population.Max < 1 {
		return fmt.Errorf("population.max must be at least 1, got %d", c.Population.Max)
	}
	if c.EventLog.Capacity < 1 {
		return fmt.Errorf("event_log.capacity must be at least 1, got %d", c.EventLog.Capacity)
	}
	switch c.Food.Distribution {
	case "uniform", "patchy":
	default:
		return fmt.Errorf("food.distribution must be uniform or patchy, got %q", c.Food.Distribution)
	}
	return nil
}

// ComputeDerived recalculates values derived from the loaded config.
// Call it again after changing Loop.FastEvolution or mutation settings.
func (c *Config) ComputeDerived() {
	c.Derived.MutationRate = c.Mutation.Rate
	c.Derived.ReproductionFactor = 1
	if c.Loop.FastEvolution {
		c.Derived.MutationRate = c.Mutation.Rate * c.Mutation.FastMultiplier
		c.Derived.ReproductionFactor = c.Mutation.FastReproductionFactor
	}
	c.Derived.Patchy = c.Food.Distribution == "patchy"
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
