package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/trail/components"
	"github.com/pthm-cable/trail/systems"
	"github.com/pthm-cable/trail/traits"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the simulation state at one tick.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`

	WorldWidth  float64 `json:"world_width"`
	WorldHeight float64 `json:"world_height"`

	Tick       int64             `json:"tick"`
	Generation int               `json:"generation"`
	Species    string            `json:"species"`
	Resources  systems.Resources `json:"resources"`

	Agents []AgentState    `json:"agents"`
	Food   []systems.Food  `json:"food"`
	Events []systems.Entry `json:"events"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// AgentState holds one agent's complete state.
type AgentState struct {
	ID       uint32               `json:"id"`
	ParentID uint32               `json:"parent_id"`
	Name     string               `json:"name"`
	Role     string               `json:"role"`
	X        float64              `json:"x"`
	Y        float64              `json:"y"`
	Genes    traits.Genes         `json:"genes"`
	Skills   components.Skills    `json:"skills"`
	Health   float64              `json:"health"`
	Energy   float64              `json:"energy"`
	Age      int64                `json:"age"`
	Diseases []components.Disease `json:"diseases,omitempty"`

	Lifetime *LifetimeStatsJSON `json:"lifetime,omitempty"`
}

// LifetimeStatsJSON is the JSON-serializable form of LifetimeStats.
type LifetimeStatsJSON struct {
	BirthTick  int64   `json:"birth_tick"`
	Generation int     `json:"generation"`
	Children   int     `json:"children"`
	Forages    int     `json:"forages"`
	FoodEaten  float64 `json:"food_eaten"`
	ItemsFound int     `json:"items_found"`
	PeakEnergy float64 `json:"peak_energy"`
	Illnesses  int     `json:"illnesses"`
}

// ToJSON converts LifetimeStats to its JSON form.
func (ls *LifetimeStats) ToJSON() *LifetimeStatsJSON {
	if ls == nil {
		return nil
	}
	return &LifetimeStatsJSON{
		BirthTick:  ls.BirthTick,
		Generation: ls.Generation,
		Children:   ls.Children,
		Forages:    ls.Forages,
		FoodEaten:  ls.FoodEaten,
		ItemsFound: ls.ItemsFound,
		PeakEnergy: ls.PeakEnergy,
		Illnesses:  ls.Illnesses,
	}
}

// SaveSnapshot writes a snapshot to dir and returns its path.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	path := filepath.Join(dir, name+".json")

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}
	return &snapshot, nil
}
