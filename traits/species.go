package traits

// Species is the display-only classification of a population.
type Species uint8

const (
	Ape Species = iota
	Hominin
	Human
)

// Classification thresholds on population averages.
const (
	HumanIntelligence   = 0.6
	HumanSpeed          = 1.2
	HomininIntelligence = 0.35
	HomininSpeed        = 0.9
)

// Classify maps population-average speed and intelligence to a species.
func Classify(avgSpeed, avgIntelligence float64) Species {
	if avgIntelligence > HumanIntelligence && avgSpeed > HumanSpeed {
		return Human
	}
	if avgIntelligence > HomininIntelligence || avgSpeed > HomininSpeed {
		return Hominin
	}
	return Ape
}

// String returns the species label shown to players.
func (s Species) String() string {
	switch s {
	case Ape:
		return "Ape"
	case Hominin:
		return "Hominin"
	case Human:
		return "Human"
	default:
		return "Unknown"
	}
}
