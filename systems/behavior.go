package systems

import (
	"fmt"
	"math"

	"github.com/pthm-cable/trail/components"
	"github.com/pthm-cable/trail/config"
	"github.com/pthm-cable/trail/traits"
)

// Bounds holds the plane dimensions.
type Bounds struct {
	Width, Height float64
}

// Clamp forces a position inside the bounds.
func (b Bounds) Clamp(p *components.Position) {
	p.X = math.Max(0, math.Min(b.Width, p.X))
	p.Y = math.Max(0, math.Min(b.Height, p.Y))
}

// Agent gives the behavior engine mutable access to one agent's components.
type Agent struct {
	Pos     *components.Position
	Genes   *traits.Genes
	Vitals  *components.Vitals
	Profile *components.Profile
}

// Patient is another agent a healer may treat.
type Patient struct {
	Name   string
	Vitals *components.Vitals
}

// PatientFinder locates the first agent in store order, other than self,
// whose health is below the threshold.
type PatientFinder interface {
	FindPatient(self uint32, below float64) (Patient, bool)
}

// Env is the shared state one agent step reads and writes.
type Env struct {
	Cfg      *config.Config
	Bounds   Bounds
	Food     *FoodField
	Ledger   *Resources
	Log      *EventLog
	Rng      traits.Source
	Patients PatientFinder
	Tick     int64
}

// Newborn is an agent waiting to be added to the population.
type Newborn struct {
	Pos      components.Position
	Genes    traits.Genes
	Vitals   components.Vitals
	Name     string
	Role     components.Role
	Skills   components.Skills
	ParentID uint32
}

// StepResult reports what happened to an agent during one step.
type StepResult struct {
	Ate       bool
	FoodGain  float64
	FoundItem bool
	Healed    bool
	Hunted    bool
	HuntYield int
	FellIll   bool
	Recovered bool
	Child     *Newborn // nil unless the agent reproduced
}

// NewAgent draws the non-genetic state of an agent: name from the pool of its
// own genes' species, random role, starting vitals and skills.
func NewAgent(cfg *config.Config, rng traits.Source, genes traits.Genes, x, y float64) Newborn {
	n := Newborn{
		Pos:   components.Position{X: x, Y: y},
		Genes: genes,
	}
	n.Name = traits.RandomName(genes, rng)
	n.Role = components.Role(rng.Intn(components.NumRoles))
	n.Vitals = components.Vitals{
		Health: components.MaxHealth,
		Energy: cfg.Energy.InitialMin + rng.Float64()*cfg.Energy.InitialRange,
	}
	n.Skills = components.Skills{
		Gathering: rng.Float64(),
		Hunting:   rng.Float64(),
		Healing:   rng.Float64(),
	}
	return n
}

// Step advances one agent by dt. It never removes agents: a birth is
// returned in the result for the caller to append after the population pass.
func Step(env *Env, a Agent, dt float64) StepResult {
	cfg := env.Cfg
	var res StepResult

	// 1. Aging
	a.Vitals.Age++

	// 2. Energy drain, worse when hurt
	hf := healthFactor(a.Vitals.Health, cfg.Energy.MinHealthFactor)
	a.Vitals.Energy -= cfg.Energy.Drain * a.Genes.Speed * dt / hf

	// 3-5. Seek, move, eat
	target, dist, found := env.Food.Nearest(a.Pos.X, a.Pos.Y, a.Genes.Vision)
	moveSpeed := a.Genes.Speed * hf
	if found {
		ang := math.Atan2(target.Y-a.Pos.Y, target.X-a.Pos.X)
		a.Pos.X += math.Cos(ang) * moveSpeed * dt
		a.Pos.Y += math.Sin(ang) * moveSpeed * dt

		if dist < cfg.Foraging.PickupRadius+a.Genes.Speed {
			forage(env, a, target, &res)
		}
	} else {
		a.Pos.X += (env.Rng.Float64()*2 - 1) * cfg.Energy.WanderScale * moveSpeed * dt
		a.Pos.Y += (env.Rng.Float64()*2 - 1) * cfg.Energy.WanderScale * moveSpeed * dt
	}

	// 6. Bounds
	env.Bounds.Clamp(a.Pos)

	// 7. Role events
	if env.Rng.Float64() < cfg.Roles.EventChance*dt {
		roleEvent(env, a, &res)
	}

	// 8. Recovery
	if a.Vitals.Energy > cfg.Energy.RecoveryThreshold {
		a.Vitals.Health = math.Min(components.MaxHealth, a.Vitals.Health+cfg.Energy.RecoveryRate*dt)
	}

	// 9. Disease decay
	if n := len(a.Vitals.Diseases); n > 0 {
		a.Vitals.Health -= cfg.Disease.DecayRate * float64(n) * dt
		if cfg.Disease.RecoveryChance > 0 && env.Rng.Float64() < cfg.Disease.RecoveryChance*dt {
			recovered := a.Vitals.Diseases[n-1]
			a.Vitals.Diseases = a.Vitals.Diseases[:n-1]
			res.Recovered = true
			env.Log.Add(env.Tick, fmt.Sprintf("%s recovered from a %s", a.Profile.Name, recovered), Neutral)
		}
	}

	// 10. Reproduction
	if a.Vitals.Energy > cfg.Reproduction.EnergyThreshold &&
		a.Vitals.Health > cfg.Reproduction.HealthThreshold &&
		env.Rng.Float64() < cfg.Reproduction.Chance*a.Genes.Intelligence*cfg.Derived.ReproductionFactor {
		res.Child = reproduce(env, a)
	}

	// 11. Disease onset
	if env.Rng.Float64() < cfg.Disease.OnsetChance*dt && a.Vitals.Health > cfg.Disease.MinHealth {
		a.Vitals.Diseases = append(a.Vitals.Diseases, components.Fever)
		a.Vitals.Health -= cfg.Disease.OnsetDamage
		res.FellIll = true
		env.Log.Add(env.Tick, a.Profile.Name+" fell ill", Negative)
	}

	a.Vitals.Clamp()
	return res
}

// healthFactor scales drain and movement by health, floored so a dying agent
// still has a finite drain.
func healthFactor(health, floor float64) float64 {
	return math.Max(health/components.MaxHealth, floor)
}

// forage consumes the target and credits the agent and the ledger.
func forage(env *Env, a Agent, target Food, res *StepResult) {
	cfg := env.Cfg
	bonus := 1.0
	if a.Profile.Role == components.RoleGatherer {
		bonus += a.Profile.Skills.Gathering
	}
	gain := (cfg.Foraging.BaseGain + a.Genes.Intelligence*cfg.Foraging.IntelligenceGain) * bonus
	a.Vitals.Energy += gain
	env.Ledger.AddFood(math.Floor(gain / cfg.Foraging.LedgerDivisor))
	env.Food.Remove(target.ID)
	res.Ate = true
	res.FoodGain = gain

	if env.Rng.Float64() < cfg.Foraging.FindChance*a.Profile.Skills.Gathering {
		res.FoundItem = true
		if env.Rng.Float64() < 0.5 {
			env.Ledger.AddTools(1)
			env.Log.Add(env.Tick, a.Profile.Name+" found useful tools while gathering!", Positive)
		} else {
			env.Ledger.AddMedicine(1)
			env.Log.Add(env.Tick, a.Profile.Name+" discovered medicinal plants!", Positive)
		}
	}
}

// roleEvent lets healers treat a patient and hunters bring in food.
func roleEvent(env *Env, a Agent, res *StepResult) {
	cfg := env.Cfg
	switch a.Profile.Role {
	case components.RoleHealer:
		if env.Ledger.Medicine <= 0 || env.Patients == nil {
			return
		}
		p, ok := env.Patients.FindPatient(a.Profile.ID, cfg.Roles.HealThreshold)
		if !ok {
			return
		}
		p.Vitals.Health = math.Min(components.MaxHealth, p.Vitals.Health+cfg.Roles.HealAmount)
		env.Ledger.UseMedicine()
		res.Healed = true
		env.Log.Add(env.Tick, fmt.Sprintf("%s treated %s's ailments", a.Profile.Name, p.Name), Positive)
	case components.RoleHunter:
		if env.Ledger.Tools <= 0 {
			return
		}
		yield := int(math.Floor(cfg.Roles.HuntYield * a.Profile.Skills.Hunting))
		env.Ledger.AddFood(float64(yield))
		res.Hunted = true
		res.HuntYield = yield
		env.Log.Add(env.Tick, fmt.Sprintf("%s had a successful hunt! (+%d food)", a.Profile.Name, yield), Positive)
	case components.RoleGatherer:
	}
}

// MutationSteps returns the configured perturbation widths.
func MutationSteps(cfg *config.Config) traits.MutationSteps {
	return traits.MutationSteps{
		Speed:        cfg.Mutation.SpeedStep,
		Vision:       cfg.Mutation.VisionStep,
		Intelligence: cfg.Mutation.IntelligenceStep,
	}
}

// reproduce pays the parent's cost and builds a mutated child next to it.
func reproduce(env *Env, a Agent) *Newborn {
	cfg := env.Cfg
	a.Vitals.Energy *= cfg.Reproduction.CostFactor

	genes := traits.Mutate(*a.Genes, cfg.Derived.MutationRate, MutationSteps(cfg), env.Rng)

	off := cfg.Reproduction.SpawnOffset
	x := a.Pos.X + off*(env.Rng.Float64()-0.5)
	y := a.Pos.Y + off*(env.Rng.Float64()-0.5)

	child := NewAgent(cfg, env.Rng, genes, x, y)
	env.Bounds.Clamp(&child.Pos)
	child.ParentID = a.Profile.ID

	env.Log.Add(env.Tick, fmt.Sprintf("%s welcomed a child, %s!", a.Profile.Name, child.Name), Positive)
	return &child
}
