// Package game owns the simulation state and drives it tick by tick.
package game

import (
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/trail/components"
	"github.com/pthm-cable/trail/config"
	"github.com/pthm-cable/trail/systems"
	"github.com/pthm-cable/trail/telemetry"
	"github.com/pthm-cable/trail/traits"
)

// Options configures a new game.
type Options struct {
	Config      *config.Config // nil loads embedded defaults
	Seed        int64
	OutputDir   string // CSV output, empty disables
	SnapshotDir string // JSON snapshot on each bookmark, empty disables
	LogStats    bool

	// HallOfFame seeds the hall, e.g. from a previous optimizer run.
	HallOfFame *telemetry.HallOfFame

	StatsCallback    func(telemetry.WindowStats)
	BookmarkCallback func(telemetry.Bookmark)
	EventCallback    func(systems.Entry)
}

// Game holds the complete simulation state. It is not safe for concurrent use.
type Game struct {
	cfg  *config.Config
	rng  *rand.Rand
	seed int64

	world *ecs.World

	agentMap *ecs.Map4[
		components.Position,
		traits.Genes,
		components.Vitals,
		components.Profile,
	]
	agentFilter *ecs.Filter4[
		components.Position,
		traits.Genes,
		components.Vitals,
		components.Profile,
	]

	// Store order: agents are stepped, healed and evicted in this order.
	agents []ecs.Entity

	food   *systems.FoodField
	ledger systems.Resources
	log    *systems.EventLog
	bounds systems.Bounds

	// Loop state
	tick        int64
	generation  int
	running     bool
	accumulator float64
	nextID      uint32
	perished    bool

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	lifetimeTracker  *telemetry.LifetimeTracker
	bookmarkDetector *telemetry.BookmarkDetector
	hallOfFame       *telemetry.HallOfFame
	outputManager    *telemetry.OutputManager
	snapshotDir      string
	logStats         bool

	statsCallback    func(telemetry.WindowStats)
	bookmarkCallback func(telemetry.Bookmark)
	eventCallback    func(systems.Entry)
}

// NewGameWithOptions creates a game and spawns the configured initial population.
// The game starts paused; call Start before Frame, or drive it with Step.
func NewGameWithOptions(opts Options) *Game {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.MustLoad("")
	}

	world := ecs.NewWorld()

	g := &Game{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(opts.Seed)),
		seed:  opts.Seed,
		world: world,
		agentMap: ecs.NewMap4[
			components.Position,
			traits.Genes,
			components.Vitals,
			components.Profile,
		](world),
		agentFilter: ecs.NewFilter4[
			components.Position,
			traits.Genes,
			components.Vitals,
			components.Profile,
		](world),
		bounds: systems.Bounds{Width: cfg.World.Width, Height: cfg.World.Height},
		log:    systems.NewEventLog(cfg.EventLog.Capacity),

		collector:       telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		perfCollector:   telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		lifetimeTracker: telemetry.NewLifetimeTracker(),
		bookmarkDetector: telemetry.NewBookmarkDetector(telemetry.BookmarkConfig{
			HistorySize:      cfg.Telemetry.BookmarkHistorySize,
			CrashDropPercent: cfg.Telemetry.CrashDropPercent,
			CapPressure:      cfg.Telemetry.CapPressureWindows,
			MaxPopulation:    cfg.Population.Max,
		}),
		hallOfFame:  opts.HallOfFame,
		snapshotDir: opts.SnapshotDir,
		logStats:    opts.LogStats,

		statsCallback:    opts.StatsCallback,
		bookmarkCallback: opts.BookmarkCallback,
		eventCallback:    opts.EventCallback,
	}
	if g.hallOfFame == nil {
		g.hallOfFame = telemetry.NewHallOfFame(cfg.HallOfFame)
	}

	var placer systems.Placer = systems.UniformPlacer{}
	if cfg.Derived.Patchy {
		placer = systems.NewFertilityMap(opts.Seed, cfg.Food.PatchScale, cfg.Food.PatchOctaves, cfg.Food.PatchFloor)
	}
	g.food = systems.NewFoodField(cfg.World.Width, cfg.World.Height, cfg.Food.GridCellSize, placer)

	g.log.OnAdd = g.onEvent

	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			slog.Error("failed to create output manager", "error", err)
		} else {
			g.outputManager = om
			if err := om.WriteConfig(cfg); err != nil {
				slog.Error("failed to write config", "error", err)
			}
		}
	}

	g.Init(cfg.Population.Initial)
	return g
}

// onEvent forwards every narration entry to the CSV output and the caller.
func (g *Game) onEvent(e systems.Entry) {
	if err := g.outputManager.WriteEvent(telemetry.EventRecord{
		Tick: e.Tick,
		Tone: e.Tone.String(),
		Text: e.Text,
	}); err != nil {
		slog.Error("failed to write event", "error", err)
	}
	if g.eventCallback != nil {
		g.eventCallback(e)
	}
}

// Config returns the game's configuration.
func (g *Game) Config() *config.Config {
	return g.cfg
}

// Seed returns the RNG seed the game was created with.
func (g *Game) Seed() int64 {
	return g.seed
}

// Unload closes output files.
func (g *Game) Unload() {
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}
