// Package components defines ECS components for the simulation.
package components

// Position represents an agent's position on the plane.
type Position struct {
	X, Y float64
}

// Role is an agent's behavioral specialization, fixed at birth.
type Role uint8

const (
	RoleGatherer Role = iota
	RoleHunter
	RoleHealer

	NumRoles = 3
)

// String returns the lower-case role name used in narration.
func (r Role) String() string {
	switch r {
	case RoleGatherer:
		return "gatherer"
	case RoleHunter:
		return "hunter"
	case RoleHealer:
		return "healer"
	default:
		return "unknown"
	}
}

// Disease is an affliction tag carried by an agent.
type Disease uint8

const (
	Fever Disease = iota
)

// String returns the disease name.
func (d Disease) String() string {
	switch d {
	case Fever:
		return "fever"
	default:
		return "unknown"
	}
}
