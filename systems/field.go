// Package systems provides the rule engine of the simulation: the field grid
// and the per-organism behaviour that reads and mutates it.
package systems

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/meadow/components"
)

// neighborOffsets is the row-major 3x3 neighbourhood without its centre.
// Scan order feeds random draws, so it must never change.
var neighborOffsets = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// Field is a fixed depth x width grid holding at most one organism per cell.
// Cells store entity ids only; the organism's Location component is kept in
// sync by Place.
type Field struct {
	depth  int
	width  int
	cells  []ecs.Entity // row-major, zero Entity = empty
	locMap *ecs.Map1[components.Location]
}

// NewField creates an empty field bound to the given world.
func NewField(w *ecs.World, depth, width int) *Field {
	if depth <= 0 || width <= 0 {
		panic(fmt.Sprintf("field: invalid size %dx%d", depth, width))
	}
	return &Field{
		depth:  depth,
		width:  width,
		cells:  make([]ecs.Entity, depth*width),
		locMap: ecs.NewMap1[components.Location](w),
	}
}

// Depth returns the number of rows.
func (f *Field) Depth() int { return f.depth }

// Width returns the number of columns.
func (f *Field) Width() int { return f.width }

// InBounds reports whether loc lies on the field.
func (f *Field) InBounds(loc components.Location) bool {
	return loc.Row >= 0 && loc.Row < f.depth && loc.Col >= 0 && loc.Col < f.width
}

// index returns the flat cell index for loc, panicking when it is off the field.
func (f *Field) index(loc components.Location) int {
	if !f.InBounds(loc) {
		panic(fmt.Sprintf("field: location %v outside field bounds %dx%d", loc, f.depth, f.width))
	}
	return loc.Row*f.width + loc.Col
}

// Occupant returns the entity referenced by the cell at loc.
// The second result is false for an empty cell. Dead organisms keep
// occupying their cell until they are evicted.
func (f *Field) Occupant(loc components.Location) (ecs.Entity, bool) {
	e := f.cells[f.index(loc)]
	if e == (ecs.Entity{}) {
		return e, false
	}
	return e, true
}

// Place puts e at loc and updates its Location component. The cell e
// occupied before is vacated if it still references e. Any other reference
// held by the target cell is overwritten.
func (f *Field) Place(e ecs.Entity, loc components.Location) {
	idx := f.index(loc)
	cur := f.locMap.Get(e)
	if *cur != loc && f.InBounds(*cur) {
		if old := f.index(*cur); f.cells[old] == e {
			f.cells[old] = ecs.Entity{}
		}
	}
	f.cells[idx] = e
	*cur = loc
}

// Clear empties the cell at loc.
func (f *Field) Clear(loc components.Location) {
	f.cells[f.index(loc)] = ecs.Entity{}
}

// ClearIf empties the cell at loc only while it still references e.
// It reports whether the cell was cleared.
func (f *Field) ClearIf(loc components.Location, e ecs.Entity) bool {
	idx := f.index(loc)
	if f.cells[idx] != e {
		return false
	}
	f.cells[idx] = ecs.Entity{}
	return true
}

// Reset empties every cell.
func (f *Field) Reset() {
	clear(f.cells)
}

// AdjacentLocationsInto appends the in-bounds neighbours of loc to dst in
// row-major order and returns the extended slice.
func (f *Field) AdjacentLocationsInto(dst []components.Location, loc components.Location) []components.Location {
	f.index(loc)
	for _, off := range neighborOffsets {
		n := components.Location{Row: loc.Row + off[0], Col: loc.Col + off[1]}
		if f.InBounds(n) {
			dst = append(dst, n)
		}
	}
	return dst
}

// AdjacentLocations returns the up to 8 in-bounds neighbours of loc in
// row-major order.
func (f *Field) AdjacentLocations(loc components.Location) []components.Location {
	return f.AdjacentLocationsInto(make([]components.Location, 0, 8), loc)
}

// FreeAdjacentLocationsInto appends the unoccupied neighbours of loc to dst,
// in the same order as AdjacentLocationsInto.
func (f *Field) FreeAdjacentLocationsInto(dst []components.Location, loc components.Location) []components.Location {
	f.index(loc)
	for _, off := range neighborOffsets {
		n := components.Location{Row: loc.Row + off[0], Col: loc.Col + off[1]}
		if f.InBounds(n) && f.cells[n.Row*f.width+n.Col] == (ecs.Entity{}) {
			dst = append(dst, n)
		}
	}
	return dst
}

// FreeAdjacentLocations returns the unoccupied neighbours of loc.
func (f *Field) FreeAdjacentLocations(loc components.Location) []components.Location {
	return f.FreeAdjacentLocationsInto(make([]components.Location, 0, 8), loc)
}

// FreeAdjacentLocation returns the first unoccupied neighbour of loc.
func (f *Field) FreeAdjacentLocation(loc components.Location) (components.Location, bool) {
	f.index(loc)
	for _, off := range neighborOffsets {
		n := components.Location{Row: loc.Row + off[0], Col: loc.Col + off[1]}
		if f.InBounds(n) && f.cells[n.Row*f.width+n.Col] == (ecs.Entity{}) {
			return n, true
		}
	}
	return components.Location{}, false
}
