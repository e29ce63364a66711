package telemetry

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(100)

	if c.ShouldFlush(99) {
		t.Error("flush before window end")
	}
	if !c.ShouldFlush(100) {
		t.Error("no flush at window end")
	}

	c.RecordBirth()
	c.RecordBirth()
	c.RecordDeath(300)
	c.RecordDeath(100)
	c.RecordEviction()
	c.RecordForage(23)
	c.RecordForage(20)
	c.RecordHunt()
	c.RecordIllness()

	stats := c.Flush(100, Sample{
		Generation:    3,
		Species:       "Ape",
		Speeds:        []float64{1, 1.2},
		Visions:       []float64{50, 70},
		Intelligences: []float64{0.2, 0.4},
		Energies:      []float64{40, 60},
		Healths:       []float64{100, 80},
		LedgerFood:    12.5,
	})

	if stats.Population != 2 || stats.Generation != 3 || stats.Species != "Ape" {
		t.Errorf("population fields = %+v", stats)
	}
	if stats.Births != 2 || stats.Deaths != 2 || stats.Evictions != 1 || stats.Forages != 2 {
		t.Errorf("counters = %+v", stats)
	}
	if stats.MeanLifespan != 200 {
		t.Errorf("mean lifespan = %v, want 200", stats.MeanLifespan)
	}
	if stats.FoodEaten != 43 {
		t.Errorf("food eaten = %v, want 43", stats.FoodEaten)
	}
	if math.Abs(stats.SpeedMean-1.1) > 1e-9 || math.Abs(stats.VisionStd-10) > 1e-9 {
		t.Errorf("gene stats = %v / %v", stats.SpeedMean, stats.VisionStd)
	}
	if stats.EnergyP50 != 50 || stats.HealthMean != 90 {
		t.Errorf("vitals stats = %v / %v", stats.EnergyP50, stats.HealthMean)
	}

	// Counters reset for the next window
	next := c.Flush(200, Sample{})
	if next.Births != 0 || next.Deaths != 0 || next.WindowStartTick != 100 || next.MeanLifespan != 0 {
		t.Errorf("second window = %+v", next)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := om.WriteTelemetry(WindowStats{WindowEndTick: int64(600 * (i + 1)), Population: 8, Species: "Ape"}); err != nil {
			t.Fatalf("WriteTelemetry: %v", err)
		}
		if err := om.WriteEvent(EventRecord{Tick: int64(i), Tone: "positive", Text: "Koko found a natural spring"}); err != nil {
			t.Fatalf("WriteEvent: %v", err)
		}
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkExtinction, Tick: 10, Description: "gone"}); err != nil {
		t.Fatalf("WriteBookmark: %v", err)
	}
	if err := om.WritePerf(PerfStats{}, 600); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("telemetry.csv has %d lines, want header + 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "window_end,population,") {
		t.Errorf("header = %q", lines[0])
	}

	data, err = os.ReadFile(filepath.Join(dir, "events.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "natural spring"); got != 2 {
		t.Errorf("events.csv has %d event rows, want 2", got)
	}
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v; want nil, nil", om, err)
	}

	// Nil manager is a no-op
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteEvent(EventRecord{}); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" || om.Close() != nil {
		t.Error("nil manager should be inert")
	}
}
