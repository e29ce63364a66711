package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pthm-cable/trail/archive"
	"github.com/pthm-cable/trail/config"
	"github.com/pthm-cable/trail/game"
	"github.com/pthm-cable/trail/systems"
	"github.com/pthm-cable/trail/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = until interrupted)")
	population := flag.Int("population", -1, "Initial population (-1 = use config)")
	simSpeed := flag.Float64("sim-speed", 0, "Time delta per tick (0 = use config)")
	timeScale := flag.Float64("time-scale", 0, "Ticks per frame multiplier (0 = use config)")
	fastEvo := flag.Bool("fast-evo", false, "Boost mutation rate and reproduction")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for JSON snapshots taken at bookmarks")
	archivePath := flag.String("archive", "", "SQLite file to archive the run into")
	hallPath := flag.String("hall-of-fame", "", "Hall of fame JSON to seed reseeding from")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *population >= 0 {
		cfg.Population.Initial = *population
	}
	if *simSpeed > 0 {
		cfg.Loop.SimSpeed = *simSpeed
	}
	if *timeScale > 0 {
		cfg.Loop.TimeScale = *timeScale
	}
	if *fastEvo {
		cfg.Loop.FastEvolution = true
	}
	cfg.ComputeDerived()

	if cfg.Loop.SimSpeed*cfg.Loop.TimeScale <= 0 {
		slog.Error("sim speed and time scale must be positive")
		os.Exit(1)
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := game.Options{
		Config:      cfg,
		Seed:        rngSeed,
		OutputDir:   *outputDir,
		SnapshotDir: *snapshotDir,
		LogStats:    *logStats,
	}

	if *hallPath != "" {
		hof, err := telemetry.LoadHallOfFameFromFile(*hallPath, cfg.HallOfFame)
		if err != nil {
			slog.Error("failed to load hall of fame", "error", err)
			os.Exit(1)
		}
		opts.HallOfFame = hof
		slog.Info("hall of fame loaded", "entries", hof.Size(), "top_fitness", hof.TopFitness())
	}

	var arc *archive.Archive
	if *archivePath != "" {
		arc, err = archive.Open(*archivePath)
		if err != nil {
			slog.Error("failed to open archive", "error", err)
			os.Exit(1)
		}
		defer arc.Close()

		runID, err := arc.BeginRun(rngSeed, cfg.Population.Initial, cfg.Loop.FastEvolution)
		if err != nil {
			slog.Error("failed to begin run", "error", err)
			os.Exit(1)
		}
		slog.Info("archiving run", "run", runID, "path", *archivePath)

		opts.EventCallback = func(e systems.Entry) {
			arc.RecordEvent(e.Tick, e.Tone.String(), e.Text)
		}
		opts.StatsCallback = func(s telemetry.WindowStats) {
			if err := arc.RecordStats(s); err != nil {
				slog.Error("failed to archive stats", "error", err)
			}
		}
		opts.BookmarkCallback = func(b telemetry.Bookmark) {
			if err := arc.RecordBookmark(b); err != nil {
				slog.Error("failed to archive bookmark", "error", err)
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g := game.NewGameWithOptions(opts)
	defer g.Unload()

	slog.Info("starting simulation",
		"seed", rngSeed,
		"population", g.Population(),
		"max_ticks", *maxTicks,
		"sim_speed", cfg.Loop.SimSpeed,
		"time_scale", cfg.Loop.TimeScale,
		"fast_evolution", cfg.Loop.FastEvolution,
	)

	start := time.Now()
	g.Start()
	run(ctx, g, *maxTicks)
	elapsed := time.Since(start)

	hud := g.HUD()
	rate := float64(g.Tick()) / max(elapsed.Seconds(), 1e-9)
	slog.Info("simulation finished",
		"ticks", humanize.Comma(g.Tick()),
		"elapsed", elapsed.Round(time.Millisecond).String(),
		"ticks_per_sec", humanize.Commaf(float64(int64(rate))),
		"population", hud.Population,
		"generation", hud.Generation,
		"species", hud.Species.String(),
		"food", hud.Resources.DisplayFood(),
		"tools", hud.Resources.Tools,
		"medicine", hud.Resources.Medicine,
	)
	if arc == nil {
		for _, e := range g.Events() {
			slog.Info("event", "tick", e.Tick, "tone", e.Tone.String(), "text", e.Text)
		}
	}

	if *outputDir != "" {
		hofPath := filepath.Join(*outputDir, "hall_of_fame.json")
		if err := telemetry.SaveHallOfFame(g.HallOfFame(), hofPath); err != nil {
			slog.Error("failed to write hall of fame", "error", err)
		} else {
			slog.Info("hall of fame saved", "path", hofPath, "entries", g.HallOfFame().Size())
		}
	}

	if arc != nil {
		if err := arc.FinishRun(g.Tick(), hud.Population, hud.Generation, hud.Species.String()); err != nil {
			slog.Error("failed to finish run", "error", err)
		}
		summarizeArchive(arc, *archivePath)
	}
}

// summarizeArchive logs the archived history of the run that just ended.
func summarizeArchive(arc *archive.Archive, path string) {
	events, err := arc.RecentEvents(arc.RunID(), recentEventCount)
	if err != nil {
		slog.Error("failed to read archived events", "error", err)
	}
	for _, e := range events {
		slog.Info("event", "tick", e.Tick, "tone", e.Tone, "text", e.Text)
	}

	bookmarks, err := arc.BookmarkCount(arc.RunID())
	if err != nil {
		slog.Error("failed to count bookmarks", "error", err)
	}
	runs, err := arc.Runs()
	if err != nil {
		slog.Error("failed to list runs", "error", err)
	}

	attrs := []any{"run", arc.RunID(), "bookmarks", bookmarks, "runs", len(runs)}
	if info, err := os.Stat(path); err == nil {
		attrs = append(attrs, "size", humanize.Bytes(uint64(info.Size())))
	}
	slog.Info("archive", attrs...)
}

// recentEventCount is how many archived events the summary prints.
const recentEventCount = 20

// run drives frames until the tick limit or cancellation.
func run(ctx context.Context, g *game.Game, maxTicks int64) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("interrupted", "tick", g.Tick())
			return
		default:
		}

		g.Frame()

		if maxTicks > 0 && g.Tick() >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			return
		}
	}
}
