package game

import (
	"log/slog"
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/trail/components"
	"github.com/pthm-cable/trail/systems"
	"github.com/pthm-cable/trail/traits"
)

// Init replaces the population, food, ledger, log and counters with a fresh
// group of n founders. n is clamped to [0, population.max].
func (g *Game) Init(n int) {
	g.reset(n, false, false)
}

// reset rebuilds the world. keepClock preserves the tick counter, agent IDs,
// the narration log and the telemetry window; fromHall draws founder genes
// from the hall of fame.
func (g *Game) reset(n int, keepClock, fromHall bool) {
	cfg := g.cfg
	n = max(0, min(n, cfg.Population.Max))

	for _, e := range g.agents {
		g.world.RemoveEntity(e)
	}
	g.agents = g.agents[:0]
	g.food.Reset()
	g.ledger = systems.Resources{
		Food:     cfg.Resources.InitialFood,
		Tools:    cfg.Resources.InitialTools,
		Medicine: cfg.Resources.InitialMedicine,
	}
	g.lifetimeTracker.Reset()

	g.generation = 0
	g.accumulator = 0
	g.perished = false
	if !keepClock {
		g.tick = 0
		g.nextID = 1
		g.log.Reset()
		g.collector.Reset(0)
	}

	for i := 0; i < n; i++ {
		g.spawnFounder(fromHall)
	}
	g.food.Spawn(g.rng, cfg.Food.Target)
	g.log.Add(g.tick, "A new group embarks on their journey...", systems.Neutral)
}

// spawnFounder places a founder uniformly on the plane.
func (g *Game) spawnFounder(fromHall bool) ecs.Entity {
	x := g.rng.Float64() * g.cfg.World.Width
	y := g.rng.Float64() * g.cfg.World.Height

	genes, ok := traits.Genes{}, false
	if fromHall {
		genes, ok = g.hallOfFame.Sample(g.rng)
	}
	if ok {
		genes = traits.Mutate(genes, g.cfg.Derived.MutationRate, systems.MutationSteps(g.cfg), g.rng)
	} else {
		genes = traits.RandomGenes(g.rng)
	}

	return g.spawnAgent(systems.NewAgent(g.cfg, g.rng, genes, x, y))
}

// spawnAgent appends an agent to the end of the store.
func (g *Game) spawnAgent(nb systems.Newborn) ecs.Entity {
	id := g.nextID
	g.nextID++

	pos := nb.Pos
	genes := nb.Genes
	vitals := nb.Vitals
	profile := components.Profile{
		ID:       id,
		ParentID: nb.ParentID,
		Name:     nb.Name,
		Role:     nb.Role,
		Skills:   nb.Skills,
	}

	entity := g.agentMap.NewEntity(&pos, &genes, &vitals, &profile)
	g.agents = append(g.agents, entity)
	g.lifetimeTracker.Register(id, g.tick, nb.ParentID, g.generation)

	return entity
}

// addBirths appends the children produced during the behavior pass.
func (g *Game) addBirths(births []systems.Newborn) {
	for _, nb := range births {
		g.spawnAgent(nb)
		g.collector.RecordBirth()
		g.lifetimeTracker.RecordChild(nb.ParentID)
	}
}

// retire removes an agent from the world, offering it to the hall of fame.
// The caller is responsible for dropping it from the store slice.
func (g *Game) retire(e ecs.Entity) {
	_, genes, vitals, profile := g.agentMap.Get(e)

	stats := g.lifetimeTracker.Remove(profile.ID)
	g.hallOfFame.Consider(profile.ID, profile.Name, *genes, stats, vitals.Age)

	g.world.RemoveEntity(e)
}

// removeDead filters out agents whose energy or health ran out.
func (g *Game) removeDead() {
	threshold := g.cfg.Energy.DeathThreshold

	kept := g.agents[:0]
	for _, e := range g.agents {
		_, _, vitals, profile := g.agentMap.Get(e)
		if !vitals.Dead(threshold) {
			kept = append(kept, e)
			continue
		}

		g.log.Add(g.tick, profile.Name+" has died", systems.Negative)
		g.collector.RecordDeath(vitals.Age)
		g.retire(e)
	}
	clear(g.agents[len(kept):])
	g.agents = kept
}

// enforceCap keeps the most energetic agents when the store exceeds the
// population cap. Survivors stay in descending energy order.
func (g *Game) enforceCap() {
	limit := g.cfg.Population.Max
	if len(g.agents) <= limit {
		return
	}

	energy := make(map[ecs.Entity]float64, len(g.agents))
	for _, e := range g.agents {
		_, _, vitals, _ := g.agentMap.Get(e)
		energy[e] = vitals.Energy
	}
	sort.SliceStable(g.agents, func(i, j int) bool {
		return energy[g.agents[i]] > energy[g.agents[j]]
	})

	for _, e := range g.agents[limit:] {
		_, _, _, profile := g.agentMap.Get(e)
		g.log.Add(g.tick, profile.Name+" left the group", systems.Negative)
		g.collector.RecordEviction()
		g.retire(e)
	}
	clear(g.agents[limit:])
	g.agents = g.agents[:limit]
}

// replenishFood adds a single item per tick while the field is below target.
func (g *Game) replenishFood() {
	if g.food.Len() < g.cfg.Food.Target {
		g.food.Spawn(g.rng, 1)
	}
}

// rollGeneration advances the narrative generation counter and occasionally
// strikes a random agent with a random event.
func (g *Game) rollGeneration() {
	cfg := g.cfg
	if g.rng.Float64() >= cfg.Generation.Chance*cfg.Loop.SimSpeed {
		return
	}
	g.generation++

	if g.rng.Float64() >= cfg.Generation.EventChance {
		return
	}
	ev := systems.PickEvent(g.rng)
	if len(g.agents) == 0 {
		return
	}

	e := g.agents[g.rng.Intn(len(g.agents))]
	_, genes, vitals, profile := g.agentMap.Get(e)
	ev.Apply(genes, vitals, &g.ledger, cfg.Generation.Supplies)
	g.log.Add(g.tick, ev.Narrate(profile.Name), ev.Effect.Tone())
	g.collector.RecordGenerationEvent()
}

// upkeep feeds the group from the ledger and wears out tools.
func (g *Game) upkeep() {
	cfg := g.cfg.Resources
	if g.ledger.Upkeep(len(g.agents), cfg.FoodPerAgent, cfg.ToolBreakChance, g.rng) {
		g.log.Add(g.tick, "A tool broke from wear and tear", systems.Negative)
	}
}

// checkExtinction reports the first tick with no agents left and, if
// configured, starts a new group.
func (g *Game) checkExtinction() {
	if len(g.agents) > 0 {
		g.perished = false
		return
	}
	if g.perished {
		return
	}

	g.perished = true
	g.log.Add(g.tick, "The group has perished", systems.Negative)
	slog.Warn("population extinct", "tick", g.tick, "generation", g.generation)

	if g.cfg.Population.ReseedOnExtinction {
		fromHall := g.cfg.Population.ReseedFromHall && g.hallOfFame.Size() > 0
		slog.Info("reseeding population", "tick", g.tick, "from_hall", fromHall)
		g.reset(g.cfg.Population.Initial, true, fromHall)
	}
}

// FindPatient returns the first agent in store order, other than self,
// whose health is below the threshold.
func (g *Game) FindPatient(self uint32, below float64) (systems.Patient, bool) {
	for _, e := range g.agents {
		_, _, vitals, profile := g.agentMap.Get(e)
		if profile.ID == self {
			continue
		}
		if vitals.Health < below {
			return systems.Patient{Name: profile.Name, Vitals: vitals}, true
		}
	}
	return systems.Patient{}, false
}
