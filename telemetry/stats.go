package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a stats window.
type WindowStats struct {
	WindowStartTick int64 `csv:"-"`
	WindowEndTick   int64 `csv:"window_end"`

	// Population at window end
	Population int    `csv:"population"`
	Generation int    `csv:"generation"`
	Species    string `csv:"species"`

	// Events during window
	Births           int     `csv:"births"`
	Deaths           int     `csv:"deaths"`
	Evictions        int     `csv:"evictions"`
	Forages          int     `csv:"forages"`
	FoodEaten        float64 `csv:"food_eaten"`
	ItemsFound       int     `csv:"items_found"`
	Heals            int     `csv:"heals"`
	Hunts            int     `csv:"hunts"`
	Illnesses        int     `csv:"illnesses"`
	Recoveries       int     `csv:"recoveries"`
	GenerationEvents int     `csv:"generation_events"`
	MeanLifespan     float64 `csv:"mean_lifespan"` // ticks, over agents that died this window

	// Gene distribution (sampled at window end)
	SpeedMean        float64 `csv:"speed_mean"`
	SpeedStd         float64 `csv:"speed_std"`
	VisionMean       float64 `csv:"vision_mean"`
	VisionStd        float64 `csv:"vision_std"`
	IntelligenceMean float64 `csv:"intelligence_mean"`
	IntelligenceStd  float64 `csv:"intelligence_std"`

	// Vitals distribution
	EnergyMean float64 `csv:"energy_mean"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`
	HealthMean float64 `csv:"health_mean"`
	HealthP10  float64 `csv:"health_p10"`
	HealthP50  float64 `csv:"health_p50"`
	HealthP90  float64 `csv:"health_p90"`
	Afflicted  int     `csv:"afflicted"`

	// Shared ledger
	LedgerFood     float64 `csv:"ledger_food"`
	LedgerTools    int     `csv:"ledger_tools"`
	LedgerMedicine int     `csv:"ledger_medicine"`
	FoodItems      int     `csv:"food_items"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeDistribution calculates mean and percentiles.
func ComputeDistribution(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)

	// Sort for percentiles
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// ComputeMeanStd returns the population mean and standard deviation.
func ComputeMeanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(values, nil)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Int("population", s.Population),
		slog.Int("generation", s.Generation),
		slog.String("species", s.Species),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("evictions", s.Evictions),
		slog.Int("forages", s.Forages),
		slog.Float64("food_eaten", s.FoodEaten),
		slog.Int("heals", s.Heals),
		slog.Int("hunts", s.Hunts),
		slog.Int("illnesses", s.Illnesses),
		slog.Float64("mean_lifespan", s.MeanLifespan),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("vision_mean", s.VisionMean),
		slog.Float64("intelligence_mean", s.IntelligenceMean),
		slog.Float64("energy_p50", s.EnergyP50),
		slog.Float64("health_p50", s.HealthP50),
		slog.Float64("ledger_food", s.LedgerFood),
		slog.Int("ledger_tools", s.LedgerTools),
		slog.Int("ledger_medicine", s.LedgerMedicine),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"population", s.Population,
		"generation", s.Generation,
		"species", s.Species,
		"births", s.Births,
		"deaths", s.Deaths,
		"evictions", s.Evictions,
		"forages", s.Forages,
		"items_found", s.ItemsFound,
		"heals", s.Heals,
		"hunts", s.Hunts,
		"illnesses", s.Illnesses,
		"recoveries", s.Recoveries,
		"generation_events", s.GenerationEvents,
		"mean_lifespan", s.MeanLifespan,
		"speed_mean", s.SpeedMean,
		"speed_std", s.SpeedStd,
		"vision_mean", s.VisionMean,
		"intelligence_mean", s.IntelligenceMean,
		"intelligence_std", s.IntelligenceStd,
		"energy_mean", s.EnergyMean,
		"health_mean", s.HealthMean,
		"afflicted", s.Afflicted,
		"ledger_food", s.LedgerFood,
		"ledger_tools", s.LedgerTools,
		"ledger_medicine", s.LedgerMedicine,
		"food_items", s.FoodItems,
	)
}
