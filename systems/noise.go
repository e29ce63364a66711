package systems

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/trail/traits"
)

// maxPlacementTries bounds rejection sampling in barren regions.
const maxPlacementTries = 32

// FertilityMap is a static noise field in [0, 1] that biases food placement
// toward fertile patches.
type FertilityMap struct {
	noise     opensimplex.Noise
	frequency float64
	octaves   int
	floor     float64
}

// NewFertilityMap creates a fertility field from a seed.
// floor is the minimum acceptance probability anywhere on the plane.
func NewFertilityMap(seed int64, frequency float64, octaves int, floor float64) *FertilityMap {
	if octaves < 1 {
		octaves = 1
	}
	return &FertilityMap{
		noise:     opensimplex.NewNormalized(seed),
		frequency: frequency,
		octaves:   octaves,
		floor:     floor,
	}
}

// At returns the fertility at a point.
func (m *FertilityMap) At(x, y float64) float64 {
	v := octaveNoise(m.noise, x, y, m.octaves, m.frequency, 0.5)
	if v < m.floor {
		return m.floor
	}
	return v
}

// Place rejection-samples a position, accepting with probability equal to the
// local fertility. After maxPlacementTries the last candidate is used.
func (m *FertilityMap) Place(rng traits.Source, width, height float64) (float64, float64) {
	var x, y float64
	for i := 0; i < maxPlacementTries; i++ {
		x, y = rng.Float64()*width, rng.Float64()*height
		if rng.Float64() < m.At(x, y) {
			break
		}
	}
	return x, y
}

// octaveNoise sums octaves of normalized noise, rescaled back to [0, 1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
