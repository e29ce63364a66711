package telemetry

// Collector accumulates events within tick windows and produces WindowStats.
type Collector struct {
	windowTicks int64

	// Current window tracking
	windowStartTick int64

	// Event counters for current window
	births           int
	deaths           int
	evictions        int
	forages          int
	foodEaten        float64
	itemsFound       int
	heals            int
	hunts            int
	illnesses        int
	recoveries       int
	generationEvents int
	lifespanSum      int64
}

// NewCollector creates a stats collector flushing every windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: int64(windowTicks)}
}

// RecordBirth records a birth.
func (c *Collector) RecordBirth() {
	c.births++
}

// RecordDeath records a death and the agent's age in ticks.
func (c *Collector) RecordDeath(ageTicks int64) {
	c.deaths++
	c.lifespanSum += ageTicks
}

// RecordEviction records an agent leaving the group at the population cap.
func (c *Collector) RecordEviction() {
	c.evictions++
}

// RecordForage records a food pickup and the energy gained.
func (c *Collector) RecordForage(gain float64) {
	c.forages++
	c.foodEaten += gain
}

// RecordItemFound records a tool or medicine found while gathering.
func (c *Collector) RecordItemFound() {
	c.itemsFound++
}

// RecordHeal records a healer treating a patient.
func (c *Collector) RecordHeal() {
	c.heals++
}

// RecordHunt records a successful hunt.
func (c *Collector) RecordHunt() {
	c.hunts++
}

// RecordIllness records disease onset.
func (c *Collector) RecordIllness() {
	c.illnesses++
}

// RecordRecovery records an agent shedding a disease.
func (c *Collector) RecordRecovery() {
	c.recoveries++
}

// RecordGenerationEvent records a random event applied on a generation tick.
func (c *Collector) RecordGenerationEvent() {
	c.generationEvents++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Sample is the population state observed at the end of a window.
type Sample struct {
	Generation int
	Species    string

	Speeds        []float64
	Visions       []float64
	Intelligences []float64
	Energies      []float64
	Healths       []float64
	Afflicted     int

	LedgerFood     float64
	LedgerTools    int
	LedgerMedicine int
	FoodItems      int
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int64, s Sample) WindowStats {
	var meanLifespan float64
	if c.deaths > 0 {
		meanLifespan = float64(c.lifespanSum) / float64(c.deaths)
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,

		Population: len(s.Speeds),
		Generation: s.Generation,
		Species:    s.Species,

		Births:           c.births,
		Deaths:           c.deaths,
		Evictions:        c.evictions,
		Forages:          c.forages,
		FoodEaten:        c.foodEaten,
		ItemsFound:       c.itemsFound,
		Heals:            c.heals,
		Hunts:            c.hunts,
		Illnesses:        c.illnesses,
		Recoveries:       c.recoveries,
		GenerationEvents: c.generationEvents,
		MeanLifespan:     meanLifespan,

		Afflicted:      s.Afflicted,
		LedgerFood:     s.LedgerFood,
		LedgerTools:    s.LedgerTools,
		LedgerMedicine: s.LedgerMedicine,
		FoodItems:      s.FoodItems,
	}

	stats.SpeedMean, stats.SpeedStd = ComputeMeanStd(s.Speeds)
	stats.VisionMean, stats.VisionStd = ComputeMeanStd(s.Visions)
	stats.IntelligenceMean, stats.IntelligenceStd = ComputeMeanStd(s.Intelligences)
	stats.EnergyMean, stats.EnergyP10, stats.EnergyP50, stats.EnergyP90 = ComputeDistribution(s.Energies)
	stats.HealthMean, stats.HealthP10, stats.HealthP50, stats.HealthP90 = ComputeDistribution(s.Healths)

	c.reset(currentTick)

	return stats
}

// Reset discards the current window and starts a new one at tick.
func (c *Collector) Reset(tick int64) {
	c.reset(tick)
}

func (c *Collector) reset(tick int64) {
	c.windowStartTick = tick
	c.births = 0
	c.deaths = 0
	c.evictions = 0
	c.forages = 0
	c.foodEaten = 0
	c.itemsFound = 0
	c.heals = 0
	c.hunts = 0
	c.illnesses = 0
	c.recoveries = 0
	c.generationEvents = 0
	c.lifespanSum = 0
}
