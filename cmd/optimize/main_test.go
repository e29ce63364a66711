package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

func TestSummarize(t *testing.T) {
	reports := []SeedReport{
		{Seed: 1, SurvivalTicks: 20000, Quality: 0.8},
		{Seed: 2, SurvivalTicks: 5000, Extinct: true, Quality: 0.2},
		{Seed: 3, SurvivalTicks: 11000, Extinct: true, Quality: 0.5},
	}

	s := summarize(reports)
	if s.meanSurvival != 12000 || s.minSurvival != 5000 {
		t.Errorf("survival mean/min = %d/%d, want 12000/5000", s.meanSurvival, s.minSurvival)
	}
	if s.extinct != 2 {
		t.Errorf("extinct = %d, want 2", s.extinct)
	}
	if s.meanQuality < 0.5-1e-9 || s.meanQuality > 0.5+1e-9 {
		t.Errorf("mean quality = %v, want 0.5", s.meanQuality)
	}

	if (summarize(nil) != runSummary{}) {
		t.Error("empty summary should be zero")
	}
}

func TestRunSeedsDistinct(t *testing.T) {
	seeds := runSeeds(1, 4)
	seen := make(map[int64]bool)
	for _, s := range seeds {
		if seen[s] {
			t.Fatalf("duplicate seed %d in %v", s, seeds)
		}
		seen[s] = true
	}
	if seeds[0] != 1 {
		t.Errorf("first seed = %d, want 1", seeds[0])
	}
}

func TestEvalLogRows(t *testing.T) {
	params := NewParamVector()
	path := filepath.Join(t.TempDir(), "optimize_log.csv")

	l, err := newEvalLog(path, params)
	if err != nil {
		t.Fatal(err)
	}
	reports := []SeedReport{{SurvivalTicks: 900, Extinct: true}, {SurvivalTicks: 1100}}
	if err := l.write(1, -1000, reports, params.DefaultVector()); err != nil {
		t.Fatal(err)
	}
	if err := l.close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}
	if want := 6 + params.Dim(); len(rows[0]) != want || len(rows[1]) != want {
		t.Errorf("columns = %d/%d, want %d", len(rows[0]), len(rows[1]), want)
	}
	if rows[1][2] != "1000" || rows[1][3] != "900" || rows[1][4] != "1" {
		t.Errorf("summary columns = %v", rows[1][:6])
	}
}
