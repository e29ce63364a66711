// Package main searches for trail parameters under which a group survives
// longest, using CMA-ES over headless runs.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/trail/config"
	"github.com/pthm-cable/trail/telemetry"
)

type options struct {
	configPath string
	maxTicks   int64
	seeds      int
	seedBase   int64
	maxEvals   int
	population int
	outputDir  string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	flag.Int64Var(&opts.maxTicks, "max-ticks", 20000, "Ticks per run; a group alive at the end counts as surviving")
	flag.IntVar(&opts.seeds, "seeds", 4, "Runs per evaluation, each with its own seed")
	flag.Int64Var(&opts.seedBase, "seed", 1, "First run seed")
	flag.IntVar(&opts.maxEvals, "max-evals", 150, "Maximum number of evaluations")
	flag.IntVar(&opts.population, "population", 0, "CMA-ES population size (0 = auto)")
	flag.StringVar(&opts.outputDir, "output", "", "Output directory for results")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := run(opts); err != nil {
		slog.Error("optimization failed", "error", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.outputDir == "" {
		return fmt.Errorf("-output is required")
	}
	if opts.seeds < 1 {
		return fmt.Errorf("-seeds must be at least 1, got %d", opts.seeds)
	}
	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	baseCfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	params := NewParamVector()
	evaluator := NewFitnessEvaluator(params, opts.maxTicks, runSeeds(opts.seedBase, opts.seeds), baseCfg)

	evalLog, err := newEvalLog(filepath.Join(opts.outputDir, "optimize_log.csv"), params)
	if err != nil {
		return err
	}
	defer evalLog.close()

	var (
		evalCount   int
		bestFitness = math.Inf(1)
		bestParams  []float64
		bestReports []SeedReport
		start       = time.Now()
	)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			values := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(values)
			reports := evaluator.LastReports()
			evalCount++

			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = append([]float64(nil), values...)
				bestReports = append([]SeedReport(nil), reports...)
			}
			if err := evalLog.write(evalCount, fitness, reports, values); err != nil {
				slog.Error("failed to write eval log", "error", err)
			}

			sum := summarize(reports)
			elapsed := time.Since(start)
			eta := elapsed / time.Duration(evalCount) * time.Duration(max(0, opts.maxEvals-evalCount))
			slog.Info("eval",
				"n", evalCount,
				"mean_survival", humanize.Comma(sum.meanSurvival),
				"min_survival", humanize.Comma(sum.minSurvival),
				"extinct", fmt.Sprintf("%d/%d", sum.extinct, len(reports)),
				"quality", fmt.Sprintf("%.2f", sum.meanQuality),
				"best", fmt.Sprintf("%.0f", bestFitness),
				"eta", eta.Round(time.Second).String(),
			)
			return fitness
		},
	}

	popSize := opts.population
	if popSize == 0 {
		popSize = 4 + int(3.0*math.Log(float64(params.Dim())))
	}

	slog.Info("starting optimization",
		"params", params.Dim(),
		"population", popSize,
		"max_evals", opts.maxEvals,
		"seeds", opts.seeds,
		"max_ticks", humanize.Comma(opts.maxTicks),
	)

	result, err := optimize.Minimize(problem, params.Normalize(params.DefaultVector()),
		&optimize.Settings{FuncEvaluations: opts.maxEvals},
		&optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize},
	)
	if err != nil {
		slog.Warn("optimization ended early", "error", err)
	}
	if bestParams == nil {
		if result == nil {
			return fmt.Errorf("no evaluation completed")
		}
		bestParams = params.Clamp(params.Denormalize(result.X))
	}

	slog.Info("optimization complete",
		"evals", evalCount,
		"elapsed", time.Since(start).Round(time.Second).String(),
		"best_fitness", fmt.Sprintf("%.0f", bestFitness),
	)
	for i, spec := range params.Specs {
		slog.Info("best param", "name", spec.Name, "path", spec.Path, "value", bestParams[i], "default", spec.Default)
	}
	for _, r := range bestReports {
		slog.Info("best run",
			"seed", r.Seed,
			"survived", humanize.Comma(r.SurvivalTicks),
			"extinct", r.Extinct,
			"population", r.FinalPopulation,
			"generation", r.Generation,
			"quality", fmt.Sprintf("%.2f", r.Quality),
		)
	}

	return saveResults(opts.outputDir, baseCfg, params, bestParams, evaluator.BestHallOfFame())
}

// runSeeds returns n well-separated seeds starting at base.
func runSeeds(base int64, n int) []int64 {
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = base + int64(i)*7919
	}
	return seeds
}

// saveResults writes the best config and the best run's hall of fame.
func saveResults(dir string, baseCfg *config.Config, params *ParamVector, best []float64, hof *telemetry.HallOfFame) error {
	cfg := baseCfg.Clone()
	params.ApplyToConfig(cfg, best)

	cfgPath := filepath.Join(dir, "best_config.yaml")
	if err := cfg.WriteYAML(cfgPath); err != nil {
		return err
	}
	slog.Info("best config saved", "path", cfgPath)

	if hof == nil || hof.Size() == 0 {
		return nil
	}
	hofPath := filepath.Join(dir, "hall_of_fame.json")
	if err := telemetry.SaveHallOfFame(hof, hofPath); err != nil {
		return err
	}
	slog.Info("hall of fame saved", "path", hofPath, "entries", hof.Size(), "top_fitness", hof.TopFitness())
	return nil
}

// runSummary aggregates the seed reports of one evaluation.
type runSummary struct {
	meanSurvival int64
	minSurvival  int64
	extinct      int
	meanQuality  float64
}

func summarize(reports []SeedReport) runSummary {
	var s runSummary
	if len(reports) == 0 {
		return s
	}
	var total int64
	s.minSurvival = reports[0].SurvivalTicks
	for _, r := range reports {
		total += r.SurvivalTicks
		s.minSurvival = min(s.minSurvival, r.SurvivalTicks)
		s.meanQuality += r.Quality
		if r.Extinct {
			s.extinct++
		}
	}
	s.meanSurvival = total / int64(len(reports))
	s.meanQuality /= float64(len(reports))
	return s
}

// evalLog is optimize_log.csv: one row per evaluation with survival
// summary columns followed by one column per parameter.
type evalLog struct {
	file *os.File
	w    *csv.Writer
}

func newEvalLog(path string, params *ParamVector) (*evalLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating eval log: %w", err)
	}
	l := &evalLog{file: f, w: csv.NewWriter(f)}

	header := []string{"eval", "fitness", "mean_survival", "min_survival", "extinct_runs", "mean_quality"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	if err := l.w.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing eval log header: %w", err)
	}
	return l, nil
}

func (l *evalLog) write(eval int, fitness float64, reports []SeedReport, values []float64) error {
	sum := summarize(reports)
	row := []string{
		strconv.Itoa(eval),
		strconv.FormatFloat(fitness, 'f', 2, 64),
		strconv.FormatInt(sum.meanSurvival, 10),
		strconv.FormatInt(sum.minSurvival, 10),
		strconv.Itoa(sum.extinct),
		strconv.FormatFloat(sum.meanQuality, 'f', 4, 64),
	}
	for _, v := range values {
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	if err := l.w.Write(row); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

func (l *evalLog) close() error {
	l.w.Flush()
	return l.file.Close()
}
