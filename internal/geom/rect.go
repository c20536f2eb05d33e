package geom

import "fmt"

// Rect is an axis-aligned rectangle with inclusive corners.
type Rect struct {
	X0, Y0, X1, Y1 int
}

// Width is the number of columns covered.
func (r Rect) Width() int { return r.X1 - r.X0 + 1 }

// Height is the number of rows covered.
func (r Rect) Height() int { return r.Y1 - r.Y0 + 1 }

// Area is the number of cells covered.
func (r Rect) Area() int {
	if r.X1 < r.X0 || r.Y1 < r.Y0 {
		return 0
	}
	return r.Width() * r.Height()
}

// Contains reports whether c is inside r or on its edge.
func (r Rect) Contains(c Cell) bool {
	x, y := int(c.X), int(c.Y)
	return x >= r.X0 && x <= r.X1 && y >= r.Y0 && y <= r.Y1
}

// StrictlyContains reports whether c is inside r and not on its edge.
func (r Rect) StrictlyContains(c Cell) bool {
	x, y := int(c.X), int(c.Y)
	return x > r.X0 && x < r.X1 && y > r.Y0 && y < r.Y1
}

// Shrink moves every edge n cells inwards.
func (r Rect) Shrink(n int) Rect {
	return Rect{X0: r.X0 + n, Y0: r.Y0 + n, X1: r.X1 - n, Y1: r.Y1 - n}
}

// Grow moves every edge n cells outwards.
func (r Rect) Grow(n int) Rect { return r.Shrink(-n) }

// RangeTo returns the Chebyshev distance from c to the nearest cell of r,
// 0 when c is inside.
func (r Rect) RangeTo(c Cell) int {
	x, y := int(c.X), int(c.Y)
	dx := max(r.X0-x, 0, x-r.X1)
	dy := max(r.Y0-y, 0, y-r.Y1)
	return max(dx, dy)
}

// Center returns the cell nearest the middle of r, rounding down.
func (r Rect) Center() Cell {
	return Cell{X: uint8((r.X0 + r.X1) / 2), Y: uint8((r.Y0 + r.Y1) / 2)}
}

// Cells returns every cell of r row-major, skipping coordinates outside the room.
func (r Rect) Cells() []Cell {
	out := make([]Cell, 0, max(r.Area(), 0))
	for y := r.Y0; y <= r.Y1; y++ {
		for x := r.X0; x <= r.X1; x++ {
			if InRoom(x, y) {
				out = append(out, Cell{X: uint8(x), Y: uint8(y)})
			}
		}
	}
	return out
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", r.X0, r.Y0, r.X1, r.Y1)
}
