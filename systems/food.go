// Package systems provides the per-tick rules of the simulation: agent
// behavior, the food field, the resource ledger and the narration log.
package systems

import (
	"math"

	"github.com/pthm-cable/trail/traits"
)

// Food is a point resource on the plane.
type Food struct {
	ID uint64  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Placer chooses where new food appears.
type Placer interface {
	Place(rng traits.Source, width, height float64) (x, y float64)
}

// UniformPlacer scatters food uniformly over the plane.
type UniformPlacer struct{}

// Place returns a uniformly random position.
func (UniformPlacer) Place(rng traits.Source, width, height float64) (float64, float64) {
	return rng.Float64() * width, rng.Float64() * height
}

// FoodField holds food items in insertion order, with an optional grid index.
// Nearest-search ties are broken by insertion order: the first item found at
// the minimal distance wins, whether or not the grid is in use.
type FoodField struct {
	width, height float64
	items         []Food
	nextID        uint64
	placer        Placer

	// Grid index (nil cells = linear scan)
	cellSize float64
	cols     int
	rows     int
	cells    [][]int // item slots (index into items) per cell, rebuilt lazily
	dirty    bool
}

// NewFoodField creates an empty field. A cellSize <= 0 disables the grid index.
func NewFoodField(width, height, cellSize float64, placer Placer) *FoodField {
	if placer == nil {
		placer = UniformPlacer{}
	}
	f := &FoodField{
		width:    width,
		height:   height,
		placer:   placer,
		cellSize: cellSize,
	}
	if cellSize > 0 {
		f.cols = int(width/cellSize) + 1
		f.rows = int(height/cellSize) + 1
		f.cells = make([][]int, f.cols*f.rows)
		for i := range f.cells {
			f.cells[i] = make([]int, 0, 4)
		}
	}
	return f
}

// Len returns the number of food items.
func (f *FoodField) Len() int {
	return len(f.items)
}

// Items returns a copy of the current food items in insertion order.
func (f *FoodField) Items() []Food {
	out := make([]Food, len(f.items))
	copy(out, f.items)
	return out
}

// Reset removes all food.
func (f *FoodField) Reset() {
	f.items = f.items[:0]
	f.dirty = true
}

// Add places a food item at the given position and returns it.
func (f *FoodField) Add(x, y float64) Food {
	f.nextID++
	item := Food{ID: f.nextID, X: x, Y: y}
	f.items = append(f.items, item)
	f.dirty = true
	return item
}

// Spawn places n food items using the field's placer.
func (f *FoodField) Spawn(rng traits.Source, n int) {
	for i := 0; i < n; i++ {
		x, y := f.placer.Place(rng, f.width, f.height)
		f.Add(x, y)
	}
}

// Remove deletes the item with the given ID, preserving the order of the rest.
func (f *FoodField) Remove(id uint64) bool {
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			f.dirty = true
			return true
		}
	}
	return false
}

// Nearest returns the closest item within radius of (x, y) and its distance.
func (f *FoodField) Nearest(x, y, radius float64) (Food, float64, bool) {
	if f.cells == nil || radius >= math.Max(f.width, f.height) {
		return f.nearestLinear(x, y, radius)
	}
	return f.nearestGrid(x, y, radius)
}

func (f *FoodField) nearestLinear(x, y, radius float64) (Food, float64, bool) {
	best := -1
	bestD := math.Inf(1)
	for i := range f.items {
		d := math.Hypot(f.items[i].X-x, f.items[i].Y-y)
		if d < bestD && d <= radius {
			bestD = d
			best = i
		}
	}
	if best < 0 {
		return Food{}, 0, false
	}
	return f.items[best], bestD, true
}

func (f *FoodField) nearestGrid(x, y, radius float64) (Food, float64, bool) {
	f.rebuild()

	cellRadius := int(radius/f.cellSize) + 1
	centerCol := int(x / f.cellSize)
	centerRow := int(y / f.cellSize)

	best := -1
	bestD := math.Inf(1)
	for dc := -cellRadius; dc <= cellRadius; dc++ {
		col := centerCol + dc
		if col < 0 || col >= f.cols {
			continue
		}
		for dr := -cellRadius; dr <= cellRadius; dr++ {
			row := centerRow + dr
			if row < 0 || row >= f.rows {
				continue
			}
			for _, slot := range f.cells[row*f.cols+col] {
				d := math.Hypot(f.items[slot].X-x, f.items[slot].Y-y)
				if d > radius {
					continue
				}
				// Lower slot = earlier insertion, matching the linear scan
				if d < bestD || (d == bestD && slot < best) {
					bestD = d
					best = slot
				}
			}
		}
	}
	if best < 0 {
		return Food{}, 0, false
	}
	return f.items[best], bestD, true
}

// rebuild re-buckets items when the field changed since the last query.
func (f *FoodField) rebuild() {
	if !f.dirty {
		return
	}
	for i := range f.cells {
		f.cells[i] = f.cells[i][:0]
	}
	for slot, item := range f.items {
		if idx := f.cellIndex(item.X, item.Y); idx >= 0 {
			f.cells[idx] = append(f.cells[idx], slot)
		}
	}
	f.dirty = false
}

func (f *FoodField) cellIndex(x, y float64) int {
	col := int(x / f.cellSize)
	row := int(y / f.cellSize)
	if col < 0 || col >= f.cols || row < 0 || row >= f.rows {
		return -1
	}
	return row*f.cols + col
}
