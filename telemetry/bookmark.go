package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkSpeciesTransition BookmarkType = "species_transition"
	BookmarkPopulationCrash   BookmarkType = "population_crash"
	BookmarkExtinction        BookmarkType = "extinction"
	BookmarkCapPressure       BookmarkType = "cap_pressure"
	BookmarkStableGroup       BookmarkType = "stable_group"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Tick        int64        `csv:"tick" json:"tick"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkConfig holds detector thresholds.
type BookmarkConfig struct {
	HistorySize      int
	CrashDropPercent float64 // Fraction of the recent peak lost to count as a crash
	CapPressure      int     // Consecutive windows with evictions before flagging
	MaxPopulation    int
}

// BookmarkDetector detects notable moments in the simulation.
type BookmarkDetector struct {
	cfg BookmarkConfig

	// Rolling history (circular buffer)
	history     []WindowStats
	historyIdx  int
	historyFull bool

	// State tracking
	lastSpecies        string
	recentPeak         int
	extinct            bool
	capWindows         int
	stableWindowsCount int
}

// NewBookmarkDetector creates a detector.
func NewBookmarkDetector(cfg BookmarkConfig) *BookmarkDetector {
	if cfg.HistorySize < 5 {
		cfg.HistorySize = 5 // minimum for stability detection
	}
	if cfg.CapPressure < 1 {
		cfg.CapPressure = 1
	}
	return &BookmarkDetector{
		cfg:     cfg,
		history: make([]WindowStats, cfg.HistorySize),
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkSpeciesTransition(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkExtinction(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkCrash(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkCapPressure(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkStableGroup(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)

	if stats.Population > bd.recentPeak {
		bd.recentPeak = stats.Population
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % len(bd.history)
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// recent returns up to n most recent windows, oldest first.
func (bd *BookmarkDetector) recent(n int) []WindowStats {
	size := bd.historyIdx
	if bd.historyFull {
		size = len(bd.history)
	}
	if n > size {
		n = size
	}
	out := make([]WindowStats, n)
	for i := 0; i < n; i++ {
		idx := (bd.historyIdx - n + i + len(bd.history)) % len(bd.history)
		out[i] = bd.history[idx]
	}
	return out
}

func (bd *BookmarkDetector) checkSpeciesTransition(stats WindowStats) *Bookmark {
	prev := bd.lastSpecies
	bd.lastSpecies = stats.Species
	if prev == "" || stats.Population == 0 || prev == stats.Species {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkSpeciesTransition,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Group classified %s, was %s", stats.Species, prev),
	}
}

func (bd *BookmarkDetector) checkExtinction(stats WindowStats) *Bookmark {
	if stats.Population > 0 {
		bd.extinct = false
		return nil
	}
	if bd.extinct {
		return nil
	}
	bd.extinct = true
	return &Bookmark{
		Type:        BookmarkExtinction,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Population reached zero after %d deaths this window", stats.Deaths),
	}
}

func (bd *BookmarkDetector) checkCrash(stats WindowStats) *Bookmark {
	if bd.recentPeak == 0 || stats.Population == 0 {
		return nil
	}

	drop := 1.0 - float64(stats.Population)/float64(bd.recentPeak)
	if drop > bd.cfg.CrashDropPercent && bd.recentPeak-stats.Population >= 3 {
		oldPeak := bd.recentPeak
		bd.recentPeak = stats.Population

		return &Bookmark{
			Type:        BookmarkPopulationCrash,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Population crashed %.0f%% from peak %d to %d", drop*100, oldPeak, stats.Population),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkCapPressure(stats WindowStats) *Bookmark {
	if stats.Evictions == 0 {
		bd.capWindows = 0
		return nil
	}
	bd.capWindows++
	if bd.capWindows != bd.cfg.CapPressure {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkCapPressure,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Members left the group for %d consecutive windows at cap %d", bd.capWindows, bd.cfg.MaxPopulation),
	}
}

func (bd *BookmarkDetector) checkStableGroup(stats WindowStats) *Bookmark {
	if stats.Population < 3 {
		bd.stableWindowsCount = 0
		return nil
	}

	history := bd.recent(4)
	if len(history) < 4 {
		return nil
	}

	var sum float64
	for _, h := range history {
		sum += float64(h.Population)
	}
	mean := sum / 4

	var variance float64
	for _, h := range history {
		d := float64(h.Population) - mean
		variance += d * d
	}
	variance /= 4

	// Squared coefficient of variation under 4%
	if mean == 0 || variance/(mean*mean) >= 0.04 {
		bd.stableWindowsCount = 0
		return nil
	}

	bd.stableWindowsCount++
	if bd.stableWindowsCount != 5 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkStableGroup,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Population steady around %.1f", mean),
	}
}
