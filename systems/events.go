package systems

import (
	"strings"

	"github.com/pthm-cable/trail/components"
	"github.com/pthm-cable/trail/traits"
)

// Effect holds the deltas a random event applies. Zero fields are no-ops.
type Effect struct {
	Health       float64
	Food         float64
	Speed        float64
	Intelligence float64
	Tools        int
	Medicine     int
}

// Tone is negative when any delta is negative.
func (e Effect) Tone() Tone {
	if e.Health < 0 || e.Food < 0 || e.Speed < 0 || e.Intelligence < 0 || e.Tools < 0 || e.Medicine < 0 {
		return Negative
	}
	return Positive
}

// RandomEvent is a narrative occurrence that may strike on a generation tick.
// "{name}" in Text is replaced with the affected agent's name.
type RandomEvent struct {
	Text   string
	Effect Effect
}

// EventTable is the fixed list of generation events.
var EventTable = []RandomEvent{
	{Text: "{name} discovered ancient hunting techniques", Effect: Effect{Intelligence: 0.05}},
	{Text: "{name} found a natural spring", Effect: Effect{Health: 20}},
	{Text: "{name} encountered a dangerous predator", Effect: Effect{Health: -30}},
	{Text: "Food spoiled in the heat", Effect: Effect{Food: -20}},
	{Text: "{name} mastered tool crafting", Effect: Effect{Tools: 2}},
	{Text: "{name}'s agility improved from constant foraging", Effect: Effect{Speed: 0.2}},
	{Text: "A storm damaged the group's supplies", Effect: Effect{Food: -15, Tools: -1}},
	{Text: "{name} learned medicinal properties of plants", Effect: Effect{Medicine: 2}},
}

// PickEvent draws an event uniformly from EventTable.
func PickEvent(rng traits.Source) RandomEvent {
	return EventTable[rng.Intn(len(EventTable))]
}

// Narrate substitutes the agent name into the event text.
func (ev RandomEvent) Narrate(name string) string {
	return strings.ReplaceAll(ev.Text, "{name}", name)
}

// Apply applies the event to an agent and the ledger, keeping every value in
// bounds. Tools and medicine deltas are only applied when supplies is set.
func (ev RandomEvent) Apply(genes *traits.Genes, vitals *components.Vitals, res *Resources, supplies bool) {
	e := ev.Effect
	vitals.Health += e.Health
	vitals.Clamp()
	genes.Speed += e.Speed
	genes.Intelligence += e.Intelligence
	*genes = genes.Clamp()
	res.AddFood(e.Food)
	if supplies {
		res.AddTools(e.Tools)
		res.AddMedicine(e.Medicine)
	}
}
