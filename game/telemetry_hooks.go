package game

import (
	"log/slog"

	"github.com/pthm-cable/trail/components"
	"github.com/pthm-cable/trail/telemetry"
	"github.com/pthm-cable/trail/traits"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.sample())
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		if g.bookmarkCallback != nil {
			g.bookmarkCallback(bm)
		}
		if g.snapshotDir != "" {
			g.saveSnapshot(&bm)
		}
	}
}

// sample collects the population state at the end of a window.
func (g *Game) sample() telemetry.Sample {
	n := len(g.agents)
	s := telemetry.Sample{
		Generation:     g.generation,
		Speeds:         make([]float64, 0, n),
		Visions:        make([]float64, 0, n),
		Intelligences:  make([]float64, 0, n),
		Energies:       make([]float64, 0, n),
		Healths:        make([]float64, 0, n),
		LedgerFood:     g.ledger.Food,
		LedgerTools:    g.ledger.Tools,
		LedgerMedicine: g.ledger.Medicine,
		FoodItems:      g.food.Len(),
	}

	var speedSum, intelSum float64
	query := g.agentFilter.Query()
	for query.Next() {
		_, genes, vitals, profile := query.Get()
		s.Speeds = append(s.Speeds, genes.Speed)
		s.Visions = append(s.Visions, genes.Vision)
		s.Intelligences = append(s.Intelligences, genes.Intelligence)
		s.Energies = append(s.Energies, vitals.Energy)
		s.Healths = append(s.Healths, vitals.Health)
		if len(vitals.Diseases) > 0 {
			s.Afflicted++
		}
		speedSum += genes.Speed
		intelSum += genes.Intelligence

		g.lifetimeTracker.UpdateEnergy(profile.ID, vitals.Energy)
	}

	if k := len(s.Speeds); k > 0 {
		speedSum /= float64(k)
		intelSum /= float64(k)
	}
	s.Species = traits.Classify(speedSum, intelSum).String()
	return s
}

// saveSnapshot writes the current state to the snapshot directory.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	path, err := telemetry.SaveSnapshot(g.Snapshot(bookmark), g.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "tick", g.tick)
}

// Snapshot captures the full simulation state.
func (g *Game) Snapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	snapshot := &telemetry.Snapshot{
		Version:     telemetry.SnapshotVersion,
		RNGSeed:     g.seed,
		WorldWidth:  g.cfg.World.Width,
		WorldHeight: g.cfg.World.Height,
		Tick:        g.tick,
		Generation:  g.generation,
		Species:     g.Species().String(),
		Resources:   g.ledger,
		Food:        g.food.Items(),
		Events:      g.log.Entries(),
		Bookmark:    bookmark,
	}

	for _, e := range g.agents {
		pos, genes, vitals, profile := g.agentMap.Get(e)
		snapshot.Agents = append(snapshot.Agents, telemetry.AgentState{
			ID:       profile.ID,
			ParentID: profile.ParentID,
			Name:     profile.Name,
			Role:     profile.Role.String(),
			X:        pos.X,
			Y:        pos.Y,
			Genes:    *genes,
			Skills:   profile.Skills,
			Health:   vitals.Health,
			Energy:   vitals.Energy,
			Age:      vitals.Age,
			Diseases: append([]components.Disease(nil), vitals.Diseases...),
			Lifetime: g.lifetimeTracker.Get(profile.ID).ToJSON(),
		})
	}
	return snapshot
}

// HallOfFame returns the genomes collected from departed agents.
func (g *Game) HallOfFame() *telemetry.HallOfFame {
	return g.hallOfFame
}
