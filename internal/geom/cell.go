// Package geom provides the bounded room coordinate type and the small amount of
// grid geometry the planner needs: directions, rectangles and distances.
package geom

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Size is the side length of a room. Valid coordinates are 0..Size-1.
const Size = 50

// Cell is a position inside a room. The zero value is the top-left corner.
type Cell struct {
	X uint8 `json:"x"`
	Y uint8 `json:"y"`
}

// NewCell returns the cell at (x, y), failing when either coordinate is outside
// the room.
func NewCell(x, y int) (Cell, error) {
	if !InRoom(x, y) {
		return Cell{}, fmt.Errorf("cell (%d,%d) out of range [0,%d]", x, y, Size-1)
	}
	return Cell{X: uint8(x), Y: uint8(y)}, nil
}

// MustCell is NewCell for literals known to be valid. It panics otherwise.
func MustCell(x, y int) Cell {
	c, err := NewCell(x, y)
	if err != nil {
		panic(err)
	}
	return c
}

// InRoom reports whether (x, y) addresses a cell of the room.
func InRoom(x, y int) bool {
	return x >= 0 && x < Size && y >= 0 && y < Size
}

// Index returns the row-major index of c, suitable for flat [Size*Size] arrays.
func (c Cell) Index() int {
	return int(c.Y)*Size + int(c.X)
}

// FromIndex is the inverse of Index.
func FromIndex(i int) Cell {
	return Cell{X: uint8(i % Size), Y: uint8(i / Size)}
}

// Offset returns c shifted by (dx, dy), and false when the result leaves the room.
func (c Cell) Offset(dx, dy int) (Cell, bool) {
	x, y := int(c.X)+dx, int(c.Y)+dy
	if !InRoom(x, y) {
		return Cell{}, false
	}
	return Cell{X: uint8(x), Y: uint8(y)}, true
}

// Step returns the neighbour of c in direction d.
func (c Cell) Step(d Direction) (Cell, bool) {
	dx, dy := d.Delta()
	return c.Offset(dx, dy)
}

// OnEdge reports whether c lies on the outermost ring of the room (exit tiles).
func (c Cell) OnEdge() bool {
	return c.X == 0 || c.Y == 0 || c.X == Size-1 || c.Y == Size-1
}

// Neighbors returns the in-room cells at Chebyshev distance 1, clockwise from top.
func (c Cell) Neighbors() []Cell {
	out := make([]Cell, 0, 8)
	for _, d := range AllDirections {
		if n, ok := c.Step(d); ok {
			out = append(out, n)
		}
	}
	return out
}

// Less orders cells row-major. Used wherever deterministic output order matters.
func (c Cell) Less(o Cell) bool {
	if c.Y != o.Y {
		return c.Y < o.Y
	}
	return c.X < o.X
}

// Compare is the three-way form of Less, for slices.SortFunc.
func Compare(a, b Cell) int {
	return a.Index() - b.Index()
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Range returns the Chebyshev distance between two cells.
func Range(a, b Cell) int {
	return max(Abs(int(a.X)-int(b.X)), Abs(int(a.Y)-int(b.Y)))
}

// Manhattan returns the taxicab distance between two cells.
func Manhattan(a, b Cell) int {
	return Abs(int(a.X)-int(b.X)) + Abs(int(a.Y)-int(b.Y))
}

// Abs returns |x|.
func Abs[T constraints.Signed](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
