package telemetry

// LifetimeStats tracks per-agent statistics over its lifetime.
type LifetimeStats struct {
	BirthTick  int64
	ParentID   uint32
	Generation int // narrative generation at birth

	// Reproduction
	Children int

	// Foraging
	Forages    int
	FoodEaten  float64
	ItemsFound int

	// Vitals
	PeakEnergy float64
	Illnesses  int
}

// LifetimeTracker manages per-agent lifetime statistics.
type LifetimeTracker struct {
	stats map[uint32]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint32]*LifetimeStats),
	}
}

// Register creates lifetime stats for a new agent.
func (lt *LifetimeTracker) Register(id uint32, birthTick int64, parentID uint32, generation int) {
	lt.stats[id] = &LifetimeStats{
		BirthTick:  birthTick,
		ParentID:   parentID,
		Generation: generation,
	}
}

// Get returns the lifetime stats for an agent, or nil if not found.
func (lt *LifetimeTracker) Get(id uint32) *LifetimeStats {
	return lt.stats[id]
}

// Remove removes an agent's stats and returns them.
func (lt *LifetimeTracker) Remove(id uint32) *LifetimeStats {
	stats := lt.stats[id]
	delete(lt.stats, id)
	return stats
}

// RecordChild increments children count.
func (lt *LifetimeTracker) RecordChild(parentID uint32) {
	if s := lt.stats[parentID]; s != nil {
		s.Children++
	}
}

// RecordForage adds a food pickup to the agent's totals.
func (lt *LifetimeTracker) RecordForage(id uint32, gain float64, foundItem bool) {
	if s := lt.stats[id]; s != nil {
		s.Forages++
		s.FoodEaten += gain
		if foundItem {
			s.ItemsFound++
		}
	}
}

// RecordIllness increments illness count.
func (lt *LifetimeTracker) RecordIllness(id uint32) {
	if s := lt.stats[id]; s != nil {
		s.Illnesses++
	}
}

// UpdateEnergy tracks peak energy.
func (lt *LifetimeTracker) UpdateEnergy(id uint32, energy float64) {
	if s := lt.stats[id]; s != nil {
		if energy > s.PeakEnergy {
			s.PeakEnergy = energy
		}
	}
}

// Count returns the number of tracked agents.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}

// Reset drops all tracked agents.
func (lt *LifetimeTracker) Reset() {
	clear(lt.stats)
}
