package systems

import (
	"math"

	"github.com/pthm-cable/trail/traits"
)

// Resources is the group's shared stockpile. All values are non-negative.
type Resources struct {
	Food     float64 `json:"food"`
	Tools    int     `json:"tools"`
	Medicine int     `json:"medicine"`
}

// DisplayFood returns food floored for display.
func (r Resources) DisplayFood() int {
	return int(math.Floor(r.Food))
}

// AddFood adjusts food by delta, flooring the total at zero.
func (r *Resources) AddFood(delta float64) {
	r.Food = math.Max(0, r.Food+delta)
}

// AddTools adjusts tools by delta, flooring the total at zero.
func (r *Resources) AddTools(delta int) {
	r.Tools = max(0, r.Tools+delta)
}

// AddMedicine adjusts medicine by delta, flooring the total at zero.
func (r *Resources) AddMedicine(delta int) {
	r.Medicine = max(0, r.Medicine+delta)
}

// UseMedicine consumes one unit if available.
func (r *Resources) UseMedicine() bool {
	if r.Medicine <= 0 {
		return false
	}
	r.Medicine--
	return true
}

// Upkeep applies the per-tick consumption of the group: population*perAgent
// food is eaten, and with probability breakChance one tool wears out.
// Returns true if a tool broke.
func (r *Resources) Upkeep(population int, perAgent, breakChance float64, rng traits.Source) bool {
	r.AddFood(-perAgent * float64(population))
	if r.Tools > 0 && rng.Float64() < breakChance {
		r.Tools--
		return true
	}
	return false
}
