// Package terrain provides the static passability of a room: the terrain oracle
// consumed by the planner, a fixed-size room grid, an ASCII fixture format, the
// wall bitmap with its summed-area table, and seeded procedural rooms.
package terrain

import (
	"fmt"

	"github.com/talgya/room-planner/internal/geom"
)

// Kind is the passability class of a single tile.
type Kind uint8

const (
	Plain Kind = iota // Walkable, normal cost
	Swamp             // Walkable, high cost
	Wall              // Impassable, unbuildable except by extractors
)

// String returns a human-readable name for a terrain kind.
func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Swamp:
		return "swamp"
	case Wall:
		return "wall"
	default:
		return "unknown"
	}
}

// Oracle answers terrain queries for one room. Coordinates outside the room
// must report Wall.
type Oracle interface {
	At(x, y int) Kind
}

// Room holds the terrain of a single room.
type Room struct {
	Name  string `json:"name"`
	tiles [geom.Size * geom.Size]Kind
}

// NewRoom creates an all-plain room.
func NewRoom(name string) *Room {
	return &Room{Name: name}
}

// At returns the terrain at (x, y), or Wall outside the room.
func (r *Room) At(x, y int) Kind {
	if !geom.InRoom(x, y) {
		return Wall
	}
	return r.tiles[y*geom.Size+x]
}

// Get returns the terrain under a cell.
func (r *Room) Get(c geom.Cell) Kind {
	return r.tiles[c.Index()]
}

// Set overwrites the terrain under a cell.
func (r *Room) Set(c geom.Cell, k Kind) {
	r.tiles[c.Index()] = k
}

// Fill overwrites every in-room cell of rect with k.
func (r *Room) Fill(rect geom.Rect, k Kind) {
	for _, c := range rect.Cells() {
		r.Set(c, k)
	}
}

// Counts returns a summary of terrain kind distribution.
func (r *Room) Counts() map[Kind]int {
	counts := make(map[Kind]int)
	for _, k := range r.tiles {
		counts[k]++
	}
	return counts
}

// String returns a summary of the room.
func (r *Room) String() string {
	c := r.Counts()
	return fmt.Sprintf("Room(%s, plain=%d, swamp=%d, wall=%d)", r.Name, c[Plain], c[Swamp], c[Wall])
}

// Walkable reports whether a unit can stand on the tile.
func Walkable(o Oracle, c geom.Cell) bool {
	return o.At(int(c.X), int(c.Y)) != Wall
}
