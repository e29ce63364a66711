package main

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/trail/config"
	"github.com/pthm-cable/trail/game"
	"github.com/pthm-cable/trail/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int64
	seeds       []int64
	baseConfig  *config.Config
	statsWindow int

	// Best run tracking
	mu             sync.Mutex
	bestFitness    float64
	bestHallOfFame *telemetry.HallOfFame
	lastReports    []SeedReport // from the most recent Evaluate call
}

// SeedReport is the outcome of one seed's run within an evaluation.
type SeedReport struct {
	Seed            int64
	SurvivalTicks   int64
	Extinct         bool // ended before maxTicks
	FinalPopulation int
	Generation      int
	Quality         float64
	Fitness         float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int64, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 600,
		bestFitness: math.Inf(1),
	}
}

// BestHallOfFame returns the hall of fame from the best evaluation.
func (fe *FitnessEvaluator) BestHallOfFame() *telemetry.HallOfFame {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestHallOfFame
}

// LastReports returns the per-seed outcomes of the most recent evaluation.
func (fe *FitnessEvaluator) LastReports() []SeedReport {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastReports
}

// A group that stays below minViablePop for extinctionGraceTicks consecutive
// ticks counts as functionally extinct.
const (
	minViablePop         = 2
	extinctionGraceTicks = 1000
	warmupTicks          = 300
)

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalTicks int64                   // ticks before functional extinction (or maxTicks if survived)
	windowStats   []telemetry.WindowStats // collected via StatsCallback each window
	hallOfFame    *telemetry.HallOfFame
	population    int
	generation    int
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is negative survival ticks: longer survival = lower (better) fitness.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	reports := make([]SeedReport, len(fe.seeds))
	halls := make([]*telemetry.HallOfFame, len(fe.seeds))
	var wg sync.WaitGroup

	// Each seed gets its own Game and Config; nothing is shared
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result := fe.runSimulation(x, s)
			quality := computeQuality(result.windowStats, fe.baseConfig.Population.Max)
			reports[idx] = SeedReport{
				Seed:            s,
				SurvivalTicks:   result.survivalTicks,
				Extinct:         result.survivalTicks < fe.maxTicks,
				FinalPopulation: result.population,
				Generation:      result.generation,
				Quality:         quality,
				Fitness:         computeFitness(result.survivalTicks, quality),
			}
			halls[idx] = result.hallOfFame
		}(i, seed)
	}
	wg.Wait()

	var totalFitness float64
	bestSeedFitness := math.Inf(1)
	var bestSeedHallOfFame *telemetry.HallOfFame

	for i, r := range reports {
		totalFitness += r.Fitness
		if r.Fitness < bestSeedFitness {
			bestSeedFitness = r.Fitness
			bestSeedHallOfFame = halls[i]
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestHallOfFame = bestSeedHallOfFame
	}
	fe.lastReports = reports
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation executes a single headless simulation run.
// Runs until functional extinction or maxTicks, whichever comes first.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) *runResult {
	cfg := fe.baseConfig.Clone()
	cfg.Population.ReseedOnExtinction = false
	cfg.Telemetry.StatsWindow = fe.statsWindow
	fe.params.ApplyToConfig(cfg, x)

	result := &runResult{}

	g := game.NewGameWithOptions(game.Options{
		Seed:   seed,
		Config: cfg,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	defer g.Unload()

	var belowTicks int64
	for g.Tick() < fe.maxTicks {
		g.Step()

		tick := g.Tick()
		pop := g.Population()

		// Hard extinction
		if pop == 0 {
			return finishRun(result, g, tick)
		}
		if tick < warmupTicks {
			continue
		}

		if pop < minViablePop {
			belowTicks++
		} else {
			belowTicks = 0
		}
		if belowTicks >= extinctionGraceTicks {
			return finishRun(result, g, tick)
		}
	}

	return finishRun(result, g, fe.maxTicks)
}

// finishRun records the end state of a run.
func finishRun(result *runResult, g *game.Game, survivalTicks int64) *runResult {
	result.survivalTicks = survivalTicks
	result.hallOfFame = g.HallOfFame()
	result.population = g.Population()
	result.generation = g.Generation()
	return result
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survivalTicks × (1.0 + 0.2 × quality))
// Survival dominates; quality adds up to 20% to separate configs with
// similar survival.
func computeFitness(survivalTicks int64, quality float64) float64 {
	return -(float64(survivalTicks) * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightOccupancy = 0.40
	qualityWeightStability = 0.30
	qualityWeightHealth    = 0.30

	qualityWarmupWindows = 2   // skip first N windows
	qualityTargetFill    = 0.6 // preferred population as a fraction of the cap
)

// computeQuality scores a run in [0, 1] from its window stats: a group that
// fills part of the cap, holds steady and stays healthy scores high.
func computeQuality(windows []telemetry.WindowStats, maxPop int) float64 {
	if len(windows) <= qualityWarmupWindows || maxPop <= 0 {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	var occupancySum, healthSum float64
	pops := make([]float64, 0, len(valid))
	for _, w := range valid {
		if w.Population == 0 {
			continue
		}
		fill := float64(w.Population) / float64(maxPop)
		occupancySum += math.Exp(-math.Pow((fill-qualityTargetFill)/0.25, 2))
		healthSum += w.HealthP50 / 100
		pops = append(pops, float64(w.Population))
	}
	if len(pops) == 0 {
		return 0
	}
	n := float64(len(pops))

	stabilityScore := 0.0
	if len(pops) >= 2 {
		c := cv(pops)
		stabilityScore = math.Exp(-c * c)
	}

	quality := qualityWeightOccupancy*occupancySum/n +
		qualityWeightStability*stabilityScore +
		qualityWeightHealth*healthSum/n

	return clamp01(quality)
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean == 0 {
		return 0
	}
	return std / mean
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
