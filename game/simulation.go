package game

import (
	"github.com/pthm-cable/trail/systems"
	"github.com/pthm-cable/trail/telemetry"
)

// Start lets Frame drain ticks from the accumulator.
func (g *Game) Start() {
	g.running = true
}

// Pause stops Frame from draining ticks. Step still works.
func (g *Game) Pause() {
	g.running = false
}

// Running reports whether the loop is draining ticks.
func (g *Game) Running() bool {
	return g.running
}

// SetSimSpeed sets the per-tick time delta multiplier.
func (g *Game) SetSimSpeed(x float64) {
	g.cfg.Loop.SimSpeed = max(0, x)
}

// SetTimeScale sets how many ticks a frame is worth, on top of sim speed.
func (g *Game) SetTimeScale(x float64) {
	g.cfg.Loop.TimeScale = max(0, x)
}

// SetFastEvolution toggles the boosted mutation rate and reproduction factor.
func (g *Game) SetFastEvolution(on bool) {
	g.cfg.Loop.FastEvolution = on
	g.cfg.ComputeDerived()
}

// Frame advances the accumulator by one animation frame and runs the ticks
// it has earned, at most loop.max_steps_per_frame of them. Ticks beyond the
// cap are discarded rather than carried into the next frame.
// Returns the number of ticks run.
func (g *Game) Frame() int {
	if !g.running {
		return 0
	}

	loop := g.cfg.Loop
	g.accumulator += loop.TimeScale * loop.SimSpeed

	steps := 0
	for g.accumulator >= 1 && steps < loop.MaxStepsPerFrame {
		g.Step()
		g.accumulator--
		steps++
	}
	if g.accumulator >= 1 {
		g.accumulator -= float64(int(g.accumulator))
	}
	return steps
}

// Step runs a single simulation tick.
func (g *Game) Step() {
	g.perfCollector.StartTick()

	dt := g.cfg.Loop.SimSpeed
	env := &systems.Env{
		Cfg:      g.cfg,
		Bounds:   g.bounds,
		Food:     g.food,
		Ledger:   &g.ledger,
		Log:      g.log,
		Rng:      g.rng,
		Patients: g,
		Tick:     g.tick,
	}

	// Agents in store order; children wait until the pass is done
	g.perfCollector.StartPhase(telemetry.PhaseBehavior)
	var births []systems.Newborn
	for _, e := range g.agents {
		pos, genes, vitals, profile := g.agentMap.Get(e)
		res := systems.Step(env, systems.Agent{
			Pos:     pos,
			Genes:   genes,
			Vitals:  vitals,
			Profile: profile,
		}, dt)
		g.recordStep(profile.ID, res)
		if res.Child != nil {
			births = append(births, *res.Child)
		}
	}

	g.perfCollector.StartPhase(telemetry.PhaseBirths)
	g.addBirths(births)

	g.perfCollector.StartPhase(telemetry.PhaseDeaths)
	g.removeDead()

	g.perfCollector.StartPhase(telemetry.PhaseCap)
	g.enforceCap()

	g.perfCollector.StartPhase(telemetry.PhaseFood)
	g.replenishFood()

	g.perfCollector.StartPhase(telemetry.PhaseGeneration)
	g.rollGeneration()
	g.removeDead() // events can be fatal

	g.perfCollector.StartPhase(telemetry.PhaseLedger)
	g.upkeep()
	g.checkExtinction()

	g.tick++

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()

	g.perfCollector.EndTick()
}

// recordStep feeds one agent's step outcome into the telemetry counters.
func (g *Game) recordStep(id uint32, res systems.StepResult) {
	if res.Ate {
		g.collector.RecordForage(res.FoodGain)
		g.lifetimeTracker.RecordForage(id, res.FoodGain, res.FoundItem)
	}
	if res.FoundItem {
		g.collector.RecordItemFound()
	}
	if res.Healed {
		g.collector.RecordHeal()
	}
	if res.Hunted {
		g.collector.RecordHunt()
	}
	if res.FellIll {
		g.collector.RecordIllness()
		g.lifetimeTracker.RecordIllness(id)
	}
	if res.Recovered {
		g.collector.RecordRecovery()
	}
}
