package components

// Health and energy bounds.
const (
	MaxHealth = 100.0
	MinEnergy = 0.0
)

// Vitals tracks an agent's health, energy and afflictions.
// Health is clamped to [0, MaxHealth]; energy has no upper bound.
type Vitals struct {
	Health   float64
	Energy   float64
	Age      int64 // ticks lived
	Diseases []Disease
}

// Clamp forces health and energy back into their bounds.
func (v *Vitals) Clamp() {
	if v.Health < 0 {
		v.Health = 0
	} else if v.Health > MaxHealth {
		v.Health = MaxHealth
	}
	if v.Energy < MinEnergy {
		v.Energy = MinEnergy
	}
}

// Dead reports whether the vitals are past the point of death.
func (v *Vitals) Dead(deathThreshold float64) bool {
	return v.Energy <= deathThreshold || v.Health <= 0
}

// Skills modulate role-specific bonuses. Each is in [0, 1] and fixed at birth.
type Skills struct {
	Gathering float64
	Hunting   float64
	Healing   float64
}

// Profile bundles an agent's identity.
type Profile struct {
	ID       uint32
	ParentID uint32 // 0 for founders
	Name     string
	Role     Role
	Skills   Skills
}
