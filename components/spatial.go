package components

import "fmt"

// Location is a cell coordinate on the field. Rows grow downwards, columns to
// the right, both 0-indexed. Locations are values: compare them with ==.
type Location struct {
	Row, Col int
}

// Loc is shorthand for Location{Row: row, Col: col}.
func Loc(row, col int) Location {
	return Location{Row: row, Col: col}
}

// String renders the location as (row,col).
func (l Location) String() string {
	return fmt.Sprintf("(%d,%d)", l.Row, l.Col)
}
