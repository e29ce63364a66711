package traits

// Name pools per species tier. Duplicates are allowed; names are labels, not keys.
var (
	apeNames = []string{
		"Koko", "Caesar", "Kong", "Nim", "Lucy", "Kanzi", "Washoe", "Loulis",
		"Bonnie", "Chim", "Panzee", "Travis", "Oliver", "Bubbles", "Nim",
	}
	homininNames = []string{
		"Ardi", "Lucy", "Selam", "Asa", "Omo", "Turkana", "Naledi", "Neo",
		"Ida", "Taung", "Sediba", "Homo", "Paranthropus", "Australo",
	}
	humanNames = []string{
		"Adam", "Eve", "Zara", "Kai", "Luna", "Atlas", "Nova", "Phoenix",
		"River", "Sage", "Terra", "Sky", "Rain", "Dawn", "Dusk",
	}
)

// Names returns the name pool for a species.
func Names(s Species) []string {
	switch s {
	case Hominin:
		return homininNames
	case Human:
		return humanNames
	default:
		return apeNames
	}
}

// RandomName draws a name from the pool of the species the genes classify as.
func RandomName(g Genes, rng Source) string {
	pool := Names(Classify(g.Speed, g.Intelligence))
	return pool[rng.Intn(len(pool))]
}
