package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/pthm-cable/trail/config"
	"github.com/pthm-cable/trail/traits"
)

// HallEntry is a successful agent's genome and how it earned its place.
type HallEntry struct {
	Genes     traits.Genes `json:"genes"`
	Fitness   float64      `json:"fitness"`
	AgentID   uint32       `json:"agent_id"`
	Name      string       `json:"name"`
	Children  int          `json:"children"`
	Lifespan  int64        `json:"lifespan_ticks"`
	FoodEaten float64      `json:"food_eaten"`
}

// HallOfFame keeps the genomes of proven agents, sorted by fitness, for
// reseeding after an extinction.
type HallOfFame struct {
	entries []HallEntry
	maxSize int
	cfg     config.HallOfFameConfig
}

// NewHallOfFame creates an empty hall.
func NewHallOfFame(cfg config.HallOfFameConfig) *HallOfFame {
	return &HallOfFame{
		entries: make([]HallEntry, 0, cfg.Size),
		maxSize: cfg.Size,
		cfg:     cfg,
	}
}

// Consider evaluates a departed agent for entry.
// Returns true if the agent was added.
func (hof *HallOfFame) Consider(id uint32, name string, genes traits.Genes, stats *LifetimeStats, lifespan int64) bool {
	if stats == nil || hof.maxSize <= 0 {
		return false
	}

	// Reproduced, or lived long and fed well
	if stats.Children < hof.cfg.MinChildren && lifespan < hof.cfg.MinLifespan {
		return false
	}

	entry := HallEntry{
		Genes:     genes,
		AgentID:   id,
		Name:      name,
		Children:  stats.Children,
		Lifespan:  lifespan,
		FoodEaten: stats.FoodEaten,
	}
	entry.Fitness = float64(stats.Children)*hof.cfg.ChildrenWeight +
		float64(lifespan)*hof.cfg.LifespanWeight +
		stats.FoodEaten*hof.cfg.ForageWeight

	return hof.insert(entry)
}

// insert adds an entry, maintaining descending fitness order.
func (hof *HallOfFame) insert(entry HallEntry) bool {
	idx := sort.Search(len(hof.entries), func(i int) bool {
		return hof.entries[i].Fitness < entry.Fitness
	})
	if len(hof.entries) >= hof.maxSize && idx >= hof.maxSize {
		return false
	}

	hof.entries = append(hof.entries, HallEntry{})
	copy(hof.entries[idx+1:], hof.entries[idx:])
	hof.entries[idx] = entry

	if len(hof.entries) > hof.maxSize {
		hof.entries = hof.entries[:hof.maxSize]
	}
	return true
}

// Sample picks a genome by tournament selection (k=3).
// Returns false if the hall is empty.
func (hof *HallOfFame) Sample(rng traits.Source) (traits.Genes, bool) {
	if len(hof.entries) == 0 {
		return traits.Genes{}, false
	}

	const tournamentSize = 3
	best := -1
	for i := 0; i < tournamentSize; i++ {
		idx := rng.Intn(len(hof.entries))
		if best < 0 || hof.entries[idx].Fitness > hof.entries[best].Fitness {
			best = idx
		}
	}
	return hof.entries[best].Genes, true
}

// Size returns the number of entries.
func (hof *HallOfFame) Size() int {
	return len(hof.entries)
}

// TopFitness returns the best fitness, or 0 if empty.
func (hof *HallOfFame) TopFitness() float64 {
	if len(hof.entries) == 0 {
		return 0
	}
	return hof.entries[0].Fitness
}

// Entries returns a copy of the hall, best first.
func (hof *HallOfFame) Entries() []HallEntry {
	out := make([]HallEntry, len(hof.entries))
	copy(out, hof.entries)
	return out
}

// MarshalJSON serializes the hall as a list, best first.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(hof.entries, "", "  ")
}

// SaveHallOfFame writes the hall to a JSON file.
func SaveHallOfFame(hof *HallOfFame, path string) error {
	data, err := hof.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal hall of fame: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write hall of fame: %w", err)
	}
	return nil
}

// LoadHallOfFameFromFile reads a hall written by SaveHallOfFame. Entries
// beyond cfg.Size are dropped lowest-fitness first.
func LoadHallOfFameFromFile(path string, cfg config.HallOfFameConfig) (*HallOfFame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hall of fame: %w", err)
	}

	var raw []HallEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing hall of fame JSON: %w", err)
	}

	hof := NewHallOfFame(cfg)
	for _, e := range raw {
		e.Genes = e.Genes.Clamp()
		hof.insert(e)
	}
	return hof, nil
}
