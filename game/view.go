package game

import (
	"github.com/pthm-cable/trail/components"
	"github.com/pthm-cable/trail/systems"
	"github.com/pthm-cable/trail/traits"
)

// AgentView is a read-only copy of one agent for drawing and listing.
type AgentView struct {
	ID       uint32
	ParentID uint32
	Name     string
	Role     components.Role
	X, Y     float64
	Genes    traits.Genes
	Health   float64
	Energy   float64
	Age      int64
	Diseases int
}

// HUDStats holds the population averages shown on the HUD.
// All averages are 0 for an empty population.
type HUDStats struct {
	Population      int
	Generation      int
	Species         traits.Species
	AvgSpeed        float64
	AvgVision       float64
	AvgIntelligence float64
	AvgHealth       float64
	AvgEnergy       float64
	Resources       systems.Resources
}

// Agents returns the population in store order.
func (g *Game) Agents() []AgentView {
	views := make([]AgentView, 0, len(g.agents))
	for _, e := range g.agents {
		pos, genes, vitals, profile := g.agentMap.Get(e)
		views = append(views, AgentView{
			ID:       profile.ID,
			ParentID: profile.ParentID,
			Name:     profile.Name,
			Role:     profile.Role,
			X:        pos.X,
			Y:        pos.Y,
			Genes:    *genes,
			Health:   vitals.Health,
			Energy:   vitals.Energy,
			Age:      vitals.Age,
			Diseases: len(vitals.Diseases),
		})
	}
	return views
}

// Resources returns the shared ledger.
func (g *Game) Resources() systems.Resources {
	return g.ledger
}

// Generation returns the narrative generation counter.
func (g *Game) Generation() int {
	return g.generation
}

// Population returns the number of living agents.
func (g *Game) Population() int {
	return len(g.agents)
}

// Species classifies the current population.
func (g *Game) Species() traits.Species {
	return g.HUD().Species
}

// Events returns the narration log, newest first.
func (g *Game) Events() []systems.Entry {
	return g.log.Entries()
}

// FoodItems returns the food currently on the plane.
func (g *Game) FoodItems() []systems.Food {
	return g.food.Items()
}

// Tick returns the number of ticks run since Init. Reseeding keeps counting.
func (g *Game) Tick() int64 {
	return g.tick
}

// HUD computes fresh population averages.
func (g *Game) HUD() HUDStats {
	hud := HUDStats{
		Generation: g.generation,
		Resources:  g.ledger,
	}

	query := g.agentFilter.Query()
	for query.Next() {
		_, genes, vitals, _ := query.Get()
		hud.Population++
		hud.AvgSpeed += genes.Speed
		hud.AvgVision += genes.Vision
		hud.AvgIntelligence += genes.Intelligence
		hud.AvgHealth += vitals.Health
		hud.AvgEnergy += vitals.Energy
	}

	if hud.Population > 0 {
		n := float64(hud.Population)
		hud.AvgSpeed /= n
		hud.AvgVision /= n
		hud.AvgIntelligence /= n
		hud.AvgHealth /= n
		hud.AvgEnergy /= n
	}
	hud.Species = traits.Classify(hud.AvgSpeed, hud.AvgIntelligence)
	return hud
}
