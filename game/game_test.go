package game

import (
	"strings"
	"testing"

	"github.com/pthm-cable/trail/config"
	"github.com/pthm-cable/trail/systems"
	"github.com/pthm-cable/trail/telemetry"
	"github.com/pthm-cable/trail/traits"
)

func newTestGame(t *testing.T, seed int64, mutate func(*config.Config)) *Game {
	t.Helper()
	cfg := config.MustLoad("")
	if mutate != nil {
		mutate(cfg)
		cfg.ComputeDerived()
	}
	g := NewGameWithOptions(Options{Config: cfg, Seed: seed})
	t.Cleanup(g.Unload)
	return g
}

func countEvents(g *Game, substr string) int {
	n := 0
	for _, e := range g.Events() {
		if strings.Contains(e.Text, substr) {
			n++
		}
	}
	return n
}

func TestNewGameInitialState(t *testing.T) {
	g := newTestGame(t, 1, nil)

	if g.Population() != 8 {
		t.Errorf("population = %d, want 8", g.Population())
	}
	if got := g.Resources(); got != (systems.Resources{Food: 100, Tools: 3, Medicine: 2}) {
		t.Errorf("resources = %+v", got)
	}
	if g.food.Len() != 40 {
		t.Errorf("food = %d, want 40", g.food.Len())
	}
	events := g.Events()
	if len(events) != 1 || events[0].Text != "A new group embarks on their journey..." || events[0].Tone != systems.Neutral {
		t.Errorf("events = %+v", events)
	}
	if g.Running() {
		t.Error("new game should start paused")
	}

	seen := make(map[uint32]bool)
	for _, a := range g.Agents() {
		if a.Health != 100 || a.Energy < 30 || a.Energy >= 50 {
			t.Errorf("founder %s vitals = %v/%v", a.Name, a.Health, a.Energy)
		}
		if !a.Genes.Valid() || a.ParentID != 0 {
			t.Errorf("founder %s = %+v", a.Name, a)
		}
		if seen[a.ID] {
			t.Errorf("duplicate id %d", a.ID)
		}
		seen[a.ID] = true
	}
}

func TestDeathFilter(t *testing.T) {
	g := newTestGame(t, 2, nil)
	g.Init(5)

	_, _, v0, _ := g.agentMap.Get(g.agents[0])
	v0.Energy = 0.5
	_, _, v3, _ := g.agentMap.Get(g.agents[3])
	v3.Health = 0
	survivors := []uint32{g.Agents()[1].ID, g.Agents()[2].ID, g.Agents()[4].ID}

	g.removeDead()

	if g.Population() != 3 {
		t.Fatalf("population = %d, want 3", g.Population())
	}
	for i, a := range g.Agents() {
		if a.ID != survivors[i] {
			t.Errorf("store[%d] = %d, want %d (order preserved)", i, a.ID, survivors[i])
		}
	}
	if n := countEvents(g, "has died"); n != 2 {
		t.Errorf("death events = %d, want 2", n)
	}
	if g.lifetimeTracker.Count() != 3 {
		t.Errorf("tracked lifetimes = %d, want 3", g.lifetimeTracker.Count())
	}
}

func TestCapEvictsLowestEnergy(t *testing.T) {
	g := newTestGame(t, 3, nil)
	g.Init(20)

	for i := 0; i < 5; i++ {
		nb := systems.NewAgent(g.cfg, g.rng, traits.RandomGenes(g.rng), 10, 10)
		nb.Vitals.Energy = 1 + float64(i)*0.1
		g.spawnAgent(nb)
	}
	if g.Population() != 25 {
		t.Fatalf("population before cap = %d", g.Population())
	}

	g.enforceCap()

	if g.Population() != 20 {
		t.Fatalf("population after cap = %d, want 20", g.Population())
	}
	agents := g.Agents()
	for i := 1; i < len(agents); i++ {
		if agents[i].Energy > agents[i-1].Energy {
			t.Errorf("store not sorted by energy at %d", i)
		}
	}
	for _, a := range agents {
		if a.Energy < 2 {
			t.Errorf("low-energy agent %s (%v) survived the cap", a.Name, a.Energy)
		}
	}
	if n := countEvents(g, "left the group"); n != 5 {
		t.Errorf("eviction events = %d, want 5", n)
	}
}

func TestLongRunStaysBounded(t *testing.T) {
	g := newTestGame(t, 42, nil)

	for i := 0; i < 10000; i++ {
		g.Step()
		if p := g.Population(); p < 0 || p > 20 {
			t.Fatalf("tick %d: population %d out of range", g.Tick(), p)
		}
	}

	for _, a := range g.Agents() {
		if a.Health < 0 || a.Health > 100 {
			t.Errorf("agent %s health %v out of range", a.Name, a.Health)
		}
		if a.Energy <= g.cfg.Energy.DeathThreshold {
			t.Errorf("dead agent %s still in store", a.Name)
		}
		if !a.Genes.Valid() {
			t.Errorf("agent %s genes out of bounds: %+v", a.Name, a.Genes)
		}
	}
	if g.Tick() != 10000 {
		t.Errorf("tick = %d, want 10000", g.Tick())
	}
	if len(g.Events()) > g.cfg.EventLog.Capacity {
		t.Errorf("event log holds %d entries", len(g.Events()))
	}
	if g.Resources().Food < 0 || g.Resources().Tools < 0 || g.Resources().Medicine < 0 {
		t.Errorf("ledger went negative: %+v", g.Resources())
	}
}

func TestSameSeedSameRun(t *testing.T) {
	a := newTestGame(t, 7, nil)
	b := newTestGame(t, 7, nil)

	for i := 0; i < 2000; i++ {
		a.Step()
		b.Step()
	}

	va, vb := a.Agents(), b.Agents()
	if len(va) != len(vb) {
		t.Fatalf("populations differ: %d vs %d", len(va), len(vb))
	}
	for i := range va {
		if va[i].Name != vb[i].Name || va[i].X != vb[i].X || va[i].Energy != vb[i].Energy {
			t.Errorf("agent %d differs: %+v vs %+v", i, va[i], vb[i])
		}
	}
	if a.Resources() != b.Resources() || a.Generation() != b.Generation() {
		t.Error("ledger or generation differs")
	}
}

func TestFrameAccumulator(t *testing.T) {
	g := newTestGame(t, 4, nil)

	if n := g.Frame(); n != 0 || g.Tick() != 0 {
		t.Errorf("paused frame ran %d ticks", n)
	}

	g.Start()
	if n := g.Frame(); n != 1 {
		t.Errorf("frame at scale 1 ran %d ticks, want 1", n)
	}

	// A stall worth 500 ticks is capped at 200 and the backlog dropped
	g.SetTimeScale(500)
	if n := g.Frame(); n != 200 {
		t.Errorf("frame at scale 500 ran %d ticks, want 200", n)
	}
	if g.accumulator >= 1 {
		t.Errorf("accumulator = %v after capped frame", g.accumulator)
	}

	g.SetTimeScale(0.5)
	if n := g.Frame(); n != 0 {
		t.Errorf("half frame ran %d ticks", n)
	}
	if n := g.Frame(); n != 1 {
		t.Errorf("second half frame ran %d ticks, want 1", n)
	}
	if g.Tick() != 202 {
		t.Errorf("tick = %d, want 202", g.Tick())
	}

	g.Pause()
	if n := g.Frame(); n != 0 {
		t.Errorf("paused frame ran %d ticks", n)
	}
}

func TestInitResetsEverything(t *testing.T) {
	g := newTestGame(t, 5, nil)
	for i := 0; i < 500; i++ {
		g.Step()
	}

	g.Init(3)

	if g.Population() != 3 || g.Tick() != 0 || g.Generation() != 0 {
		t.Errorf("population/tick/generation = %d/%d/%d", g.Population(), g.Tick(), g.Generation())
	}
	if got := g.Resources(); got != (systems.Resources{Food: 100, Tools: 3, Medicine: 2}) {
		t.Errorf("resources = %+v", got)
	}
	if g.food.Len() != 40 {
		t.Errorf("food = %d, want 40", g.food.Len())
	}
	if len(g.Events()) != 1 {
		t.Errorf("events = %+v", g.Events())
	}
	if g.lifetimeTracker.Count() != 3 {
		t.Errorf("tracked lifetimes = %d, want 3", g.lifetimeTracker.Count())
	}

	g.Init(100)
	if g.Population() != 20 {
		t.Errorf("Init(100) population = %d, want cap 20", g.Population())
	}
	g.Init(-1)
	if g.Population() != 0 {
		t.Errorf("Init(-1) population = %d, want 0", g.Population())
	}
}

func TestEmptyPopulation(t *testing.T) {
	g := newTestGame(t, 6, nil)
	g.Init(0)

	hud := g.HUD()
	if hud.Population != 0 || hud.AvgSpeed != 0 || hud.AvgIntelligence != 0 || hud.AvgHealth != 0 {
		t.Errorf("empty HUD = %+v", hud)
	}
	if hud.Species != traits.Ape || g.Species() != traits.Ape {
		t.Errorf("empty species = %v", hud.Species)
	}

	for i := 0; i < 100; i++ {
		g.Step()
	}
	if n := countEvents(g, "The group has perished"); n != 1 {
		t.Errorf("perished events = %d, want 1", n)
	}
	if g.Population() != 0 {
		t.Errorf("population = %d, want 0", g.Population())
	}
}

func TestReseedOnExtinction(t *testing.T) {
	g := newTestGame(t, 8, func(c *config.Config) {
		c.Population.ReseedOnExtinction = true
	})
	g.Init(0)

	g.Step()

	if g.Population() != 8 {
		t.Errorf("population after reseed = %d, want 8", g.Population())
	}
	if g.Tick() != 1 {
		t.Errorf("tick = %d, want 1 (clock kept)", g.Tick())
	}
	if countEvents(g, "The group has perished") != 1 || countEvents(g, "embarks") != 2 {
		t.Errorf("events = %+v", g.Events())
	}
}

func TestReseedFromHallOfFame(t *testing.T) {
	cfg := config.MustLoad("")
	cfg.Population.ReseedOnExtinction = true
	cfg.Population.ReseedFromHall = true
	cfg.Mutation.Rate = 0
	cfg.ComputeDerived()

	hof := telemetry.NewHallOfFame(cfg.HallOfFame)
	elite := traits.Genes{Speed: 1.7, Vision: 140, Intelligence: 0.9}
	hof.Consider(99, "Elder", elite, &telemetry.LifetimeStats{Children: 5}, 0)

	g := NewGameWithOptions(Options{Config: cfg, Seed: 9, HallOfFame: hof})
	defer g.Unload()
	g.Init(0)
	g.Step()

	if g.Population() != 8 {
		t.Fatalf("population = %d, want 8", g.Population())
	}
	for _, a := range g.Agents() {
		if a.Genes != elite {
			t.Errorf("reseeded genes = %+v, want %+v", a.Genes, elite)
		}
	}
}

func TestFindPatient(t *testing.T) {
	g := newTestGame(t, 10, nil)
	g.Init(3)

	healths := []float64{100, 90, 50}
	for i, e := range g.agents {
		_, _, v, _ := g.agentMap.Get(e)
		v.Health = healths[i]
	}
	agents := g.Agents()

	p, ok := g.FindPatient(agents[0].ID, 95)
	if !ok || p.Name != agents[1].Name {
		t.Errorf("patient = %+v, %v; want %s", p, ok, agents[1].Name)
	}

	// Self is never a patient
	if _, ok := g.FindPatient(agents[2].ID, 70); ok {
		t.Error("found a patient when only self is below threshold")
	}
}

func TestSetFastEvolution(t *testing.T) {
	g := newTestGame(t, 11, nil)

	g.SetFastEvolution(true)
	if g.cfg.Derived.MutationRate != 0.32 || g.cfg.Derived.ReproductionFactor != 3 {
		t.Errorf("fast derived = %+v", g.cfg.Derived)
	}
	g.SetFastEvolution(false)
	if g.cfg.Derived.MutationRate != 0.08 || g.cfg.Derived.ReproductionFactor != 1 {
		t.Errorf("normal derived = %+v", g.cfg.Derived)
	}
}

func TestStatsWindowCallbacks(t *testing.T) {
	cfg := config.MustLoad("")
	cfg.Telemetry.StatsWindow = 50

	var windows []telemetry.WindowStats
	var events int
	g := NewGameWithOptions(Options{
		Config:        cfg,
		Seed:          12,
		OutputDir:     t.TempDir(),
		StatsCallback: func(s telemetry.WindowStats) { windows = append(windows, s) },
		EventCallback: func(systems.Entry) { events++ },
	})
	defer g.Unload()

	for i := 0; i < 200; i++ {
		g.Step()
	}

	if len(windows) != 4 {
		t.Fatalf("windows = %d, want 4", len(windows))
	}
	last := windows[3]
	if last.WindowEndTick != 200 || last.Population != g.Population() {
		t.Errorf("last window = %+v", last)
	}
	if last.Species != g.Species().String() {
		t.Errorf("window species = %q, want %q", last.Species, g.Species())
	}
	if events < len(g.Events()) {
		t.Errorf("event callback saw %d events", events)
	}
}

func TestSnapshotCapturesState(t *testing.T) {
	g := newTestGame(t, 13, nil)
	for i := 0; i < 100; i++ {
		g.Step()
	}

	s := g.Snapshot(nil)
	if len(s.Agents) != g.Population() || len(s.Food) != g.food.Len() {
		t.Errorf("snapshot agents/food = %d/%d", len(s.Agents), len(s.Food))
	}
	if s.Tick != 100 || s.RNGSeed != 13 || s.Resources != g.Resources() {
		t.Errorf("snapshot header = %+v", s)
	}
	for _, a := range s.Agents {
		if a.Lifetime == nil {
			t.Errorf("agent %s has no lifetime stats", a.Name)
		}
	}
}

// forceEvent makes every generation roll strike with the given event.
func forceEvent(t *testing.T, ev systems.RandomEvent) func(*config.Config) {
	t.Helper()
	saved := systems.EventTable
	systems.EventTable = []systems.RandomEvent{ev}
	t.Cleanup(func() { systems.EventTable = saved })

	return func(c *config.Config) {
		c.Generation.Chance = 2
		c.Generation.EventChance = 1
		c.Disease.OnsetChance = 0
		c.Roles.EventChance = 0
		c.Reproduction.Chance = 0
	}
}

func TestFatalEventRemovedSameTick(t *testing.T) {
	g := newTestGame(t, 7, forceEvent(t, systems.EventTable[2]))
	g.Init(4)
	for _, e := range g.agents {
		_, _, v, _ := g.agentMap.Get(e)
		v.Health = 25
		v.Energy = 80
	}

	g.Step()

	if g.Population() != 3 {
		t.Fatalf("population = %d, want 3 after a fatal predator", g.Population())
	}
	if n := countEvents(g, "encountered a dangerous predator"); n != 1 {
		t.Errorf("predator events = %d, want 1", n)
	}
	if n := countEvents(g, "has died"); n != 1 {
		t.Errorf("death events = %d, want 1", n)
	}
	for _, a := range g.Agents() {
		if a.Health <= 0 {
			t.Errorf("%s kept in the store with health %v", a.Name, a.Health)
		}
	}
}

func TestNoDeadAgentEntersTick(t *testing.T) {
	for _, seed := range []int64{5, 11, 42} {
		g := newTestGame(t, seed, nil)
		threshold := g.cfg.Energy.DeathThreshold

		for i := 0; i < 3000; i++ {
			for _, e := range g.agents {
				_, _, v, p := g.agentMap.Get(e)
				if v.Dead(threshold) {
					t.Fatalf("seed %d tick %d: %s enters tick with health=%v energy=%v",
						seed, g.Tick(), p.Name, v.Health, v.Energy)
				}
			}
			g.Step()
		}
	}
}

func TestFoodReplenishesOnePerTick(t *testing.T) {
	g := newTestGame(t, 9, nil)
	g.Init(0)

	for _, f := range g.food.Items()[:5] {
		g.food.Remove(f.ID)
	}
	if g.food.Len() != 35 {
		t.Fatalf("food = %d, want 35", g.food.Len())
	}

	for k := 1; k <= 5; k++ {
		g.Step()
		if g.food.Len() != 35+k {
			t.Fatalf("after %d ticks food = %d, want %d", k, g.food.Len(), 35+k)
		}
	}

	g.Step()
	if g.food.Len() != 40 {
		t.Errorf("food at target = %d, want 40", g.food.Len())
	}
}

func TestGenerationRollAppliesEvent(t *testing.T) {
	g := newTestGame(t, 13, forceEvent(t, systems.EventTable[1]))
	g.Init(4)
	for _, e := range g.agents {
		_, _, v, _ := g.agentMap.Get(e)
		v.Health = 50
	}

	g.Step()

	if g.Generation() != 1 {
		t.Errorf("generation = %d, want 1", g.Generation())
	}

	var name string
	for _, e := range g.Events() {
		if strings.HasSuffix(e.Text, " found a natural spring") {
			name = strings.TrimSuffix(e.Text, " found a natural spring")
			if e.Tone != systems.Positive {
				t.Errorf("tone = %v, want positive", e.Tone)
			}
		}
	}
	if name == "" || strings.Contains(name, "{") {
		t.Fatalf("event name not substituted: %q", name)
	}

	struck := 0
	for _, a := range g.Agents() {
		if a.Health >= 69 {
			struck++
			if a.Name != name {
				t.Errorf("healed %s, event named %s", a.Name, name)
			}
		}
	}
	if struck != 1 {
		t.Errorf("agents struck = %d, want 1", struck)
	}
}

func TestBirthsJoinAfterPass(t *testing.T) {
	g := newTestGame(t, 17, func(c *config.Config) {
		c.Reproduction.Chance = 10
		c.Generation.Chance = 0
		c.Disease.OnsetChance = 0
		c.Roles.EventChance = 0
	})
	g.Init(4)
	for _, e := range g.agents {
		_, genes, v, _ := g.agentMap.Get(e)
		genes.Intelligence = 1
		v.Energy = 100
	}
	parents := g.Agents()

	g.Step()

	agents := g.Agents()
	if len(agents) != 8 {
		t.Fatalf("population = %d, want 8 (one child per parent)", len(agents))
	}
	for i, p := range parents {
		if agents[i].ID != p.ID || agents[i].Age != 1 {
			t.Errorf("store[%d] = %s age %d, want parent %s age 1", i, agents[i].Name, agents[i].Age, p.Name)
		}
		child := agents[len(parents)+i]
		if child.ParentID != p.ID {
			t.Errorf("child %d parent = %d, want %d", i, child.ParentID, p.ID)
		}
		if child.Age != 0 || child.Energy < 30 || child.Energy >= 50 {
			t.Errorf("child %s was stepped on its birth tick: age %d energy %v", child.Name, child.Age, child.Energy)
		}
	}
}
