package plan

import "github.com/talgya/room-planner/internal/geom"

// MaxLevel is the highest build level of a site.
const MaxLevel = 8

// Key is the identity of a planned cell. Structure payload is not part of it.
type Key struct {
	Pos  geom.Cell
	Kind Kind
}

// PlannedCell is one structure the plan wants built.
type PlannedCell struct {
	Pos       geom.Cell `json:"pos"`
	Structure Structure `json:"structure"`
	Level     uint8     `json:"level"`           // built once the site reaches this level
	Until     uint8     `json:"until,omitempty"` // retired once the site reaches this level; 0 = never
}

// Key returns the identity of the cell.
func (c PlannedCell) Key() Key {
	return Key{Pos: c.Pos, Kind: c.Structure.Kind}
}

// Equal compares identities only.
func (c PlannedCell) Equal(o PlannedCell) bool {
	return c.Key() == o.Key()
}

// LiveAt reports whether the structure should exist at built level lvl.
func (c PlannedCell) LiveAt(lvl uint8) bool {
	return c.Level <= lvl && (c.Until == 0 || c.Until > lvl)
}

func lessKey(a, b Key) bool {
	if a.Pos != b.Pos {
		return a.Pos.Less(b.Pos)
	}
	return a.Kind < b.Kind
}
