package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}

	if cfg.Population.Initial != 8 {
		t.Errorf("initial population = %d, want 8", cfg.Population.Initial)
	}
	if cfg.Population.Max != 20 {
		t.Errorf("max population = %d, want 20", cfg.Population.Max)
	}
	if cfg.Food.Target != 40 {
		t.Errorf("food target = %d, want 40", cfg.Food.Target)
	}
	if cfg.Loop.MaxStepsPerFrame != 200 {
		t.Errorf("max steps per frame = %d, want 200", cfg.Loop.MaxStepsPerFrame)
	}
	if cfg.Derived.MutationRate != 0.08 {
		t.Errorf("derived mutation rate = %v, want 0.08", cfg.Derived.MutationRate)
	}
	if cfg.Derived.ReproductionFactor != 1 {
		t.Errorf("derived reproduction factor = %v, want 1", cfg.Derived.ReproductionFactor)
	}
	if cfg.Generation.Supplies {
		t.Error("generation events should leave tools and medicine alone by default")
	}
}

func TestComputeDerivedFastEvolution(t *testing.T) {
	cfg := MustLoad("")
	cfg.Loop.FastEvolution = true
	cfg.ComputeDerived()

	if cfg.Derived.MutationRate != 0.32 {
		t.Errorf("fast mutation rate = %v, want 0.32", cfg.Derived.MutationRate)
	}
	if cfg.Derived.ReproductionFactor != 3 {
		t.Errorf("fast reproduction factor = %v, want 3", cfg.Derived.ReproductionFactor)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	overlay := []byte("population:\n  max: 12\nfood:\n  distribution: patchy\n")
	if err := os.WriteFile(path, overlay, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) failed: %v", path, err)
	}

	if cfg.Population.Max != 12 {
		t.Errorf("overlay max population = %d, want 12", cfg.Population.Max)
	}
	// Untouched fields keep their defaults
	if cfg.Population.Initial != 8 {
		t.Errorf("initial population = %d, want default 8", cfg.Population.Initial)
	}
	if !cfg.Derived.Patchy {
		t.Error("expected patchy food distribution to be derived")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		overlay string
	}{
		{"zero width", "world:\n  width: 0\n"},
		{"zero cap", "population:\n  max: 0\n"},
		{"unknown distribution", "food:\n  distribution: clustered\n"},
		{"empty log", "event_log:\n  capacity: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.overlay), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected an error, got nil")
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := MustLoad("")
	cfg.Reproduction.Chance = 0.05

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load after WriteYAML failed: %v", err)
	}
	if loaded.Reproduction.Chance != 0.05 {
		t.Errorf("reproduction chance = %v, want 0.05", loaded.Reproduction.Chance)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	cfg := MustLoad("")
	cp := cfg.Clone()
	cp.Population.Max = 99

	if cfg.Population.Max == 99 {
		t.Error("mutating clone changed the original")
	}
}
