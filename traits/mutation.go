package traits

// MutationSteps holds the half-width of the uniform perturbation per gene.
type MutationSteps struct {
	Speed        float64
	Vision       float64
	Intelligence float64
}


// Mutate returns a child gene set derived from parent. Each gene is
// independently perturbed with probability rate by a uniform offset in
// [-step, +step); unselected genes are copied. The result is always clamped.
//
// Rolls are drawn in gene order: speed roll, speed offset, vision roll,
// vision offset, intelligence roll, intelligence offset. An offset is only
// drawn when its roll succeeds.
func Mutate(parent Genes, rate float64, steps MutationSteps, rng Source) Genes {
	child := parent
	if rng.Float64() < rate {
		child.Speed += (rng.Float64() - 0.5) * 2 * steps.Speed
	}
	if rng.Float64() < rate {
		child.Vision += (rng.Float64() - 0.5) * 2 * steps.Vision
	}
	if rng.Float64() < rate {
		child.Intelligence += (rng.Float64() - 0.5) * 2 * steps.Intelligence
	}
	return child.Clamp()
}
