// Package traits defines heritable genes, the mutation operator and the
// species classification derived from population averages.
package traits

// Gene bounds. Speed and vision have no upper bound; mutation may push them
// past the founder range.
const (
	MinSpeed        = 0.2
	MinVision       = 10.0
	MinIntelligence = 0.0
	MaxIntelligence = 1.0
)

// Source is the random source used by every stochastic rule.
// *math/rand.Rand satisfies it; tests substitute scripted sources.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// Genes holds the heritable numeric traits of an agent.
type Genes struct {
	Speed        float64 `json:"speed"`
	Vision       float64 `json:"vision"`
	Intelligence float64 `json:"intelligence"`
}

// RandomGenes draws founder genes: speed in [0.6, 1.8), vision in [30, 150),
// intelligence in [0, 0.6).
func RandomGenes(rng Source) Genes {
	return Genes{
		Speed:        0.6 + rng.Float64()*1.2,
		Vision:       30 + rng.Float64()*120,
		Intelligence: rng.Float64() * 0.6,
	}
}

// Clamp returns g with every gene forced into its valid range.
func (g Genes) Clamp() Genes {
	if g.Speed < MinSpeed {
		g.Speed = MinSpeed
	}
	if g.Vision < MinVision {
		g.Vision = MinVision
	}
	g.Intelligence = clamp(g.Intelligence, MinIntelligence, MaxIntelligence)
	return g
}

// Valid reports whether every gene is inside its range.
func (g Genes) Valid() bool {
	return g.Speed >= MinSpeed &&
		g.Vision >= MinVision &&
		g.Intelligence >= MinIntelligence && g.Intelligence <= MaxIntelligence
}

// clamp clamps x to [lo, hi].
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
