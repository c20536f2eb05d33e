package plan

import (
	"iter"
	"slices"

	"github.com/zyedidia/generic/mapset"

	"github.com/talgya/room-planner/internal/geom"
)

// Plan is the set of planned structures of one room plus the level the room has
// been built up to. Cells are unique per (position, kind).
type Plan struct {
	cells    map[Key]PlannedCell
	builtLvl uint8

	// Road network distance from the base core, 0 for the core road net.
	roadDist map[geom.Cell]int

	workplace    geom.Cell
	hasWorkplace bool
}

// New returns an empty plan at built level 0.
func New() *Plan {
	return &Plan{
		cells:    make(map[Key]PlannedCell),
		roadDist: make(map[geom.Cell]int),
	}
}

// Len returns the number of planned cells.
func (p *Plan) Len() int { return len(p.cells) }

// BuiltLvl returns the level the site has been built up to.
func (p *Plan) BuiltLvl() uint8 { return p.builtLvl }

// IncrementLvl raises the built level by one, capped at MaxLevel.
func (p *Plan) IncrementLvl() uint8 {
	if p.builtLvl < MaxLevel {
		p.builtLvl++
	}
	return p.builtLvl
}

// AddCell inserts c unless a cell with the same identity exists. It reports
// whether the plan grew.
func (p *Plan) AddCell(c PlannedCell) bool {
	k := c.Key()
	if _, ok := p.cells[k]; ok {
		return false
	}
	p.cells[k] = c
	return true
}

// ReplaceCell swaps the structure payload of the cell with c's identity,
// keeping its levels. It reports whether such a cell existed.
func (p *Plan) ReplaceCell(c PlannedCell) bool {
	k := c.Key()
	old, ok := p.cells[k]
	if !ok {
		return false
	}
	old.Structure = c.Structure
	p.cells[k] = old
	return true
}

// Delete removes the structure of kind k at pos.
func (p *Plan) Delete(pos geom.Cell, k Kind) bool {
	key := Key{Pos: pos, Kind: k}
	if _, ok := p.cells[key]; !ok {
		return false
	}
	delete(p.cells, key)
	if k == Road {
		delete(p.roadDist, pos)
	}
	return true
}

// Get returns the cell with the given identity.
func (p *Plan) Get(pos geom.Cell, k Kind) (PlannedCell, bool) {
	c, ok := p.cells[Key{Pos: pos, Kind: k}]
	return c, ok
}

// Has reports whether a structure of kind k is planned at pos.
func (p *Plan) Has(pos geom.Cell, k Kind) bool {
	_, ok := p.cells[Key{Pos: pos, Kind: k}]
	return ok
}

// All yields every planned cell ordered by position, then kind.
func (p *Plan) All() iter.Seq[PlannedCell] {
	return func(yield func(PlannedCell) bool) {
		for _, k := range p.sortedKeys() {
			if !yield(p.cells[k]) {
				return
			}
		}
	}
}

// Cells returns every planned cell ordered by position, then kind.
func (p *Plan) Cells() []PlannedCell {
	return slices.Collect(p.All())
}

// CurrentLvlBuildings yields the cells live at the current built level.
func (p *Plan) CurrentLvlBuildings() iter.Seq[PlannedCell] {
	return func(yield func(PlannedCell) bool) {
		for c := range p.All() {
			if c.LiveAt(p.builtLvl) && !yield(c) {
				return
			}
		}
	}
}

// FindByXY yields every structure planned at pos, ordered by kind.
func (p *Plan) FindByXY(pos geom.Cell) iter.Seq[PlannedCell] {
	return func(yield func(PlannedCell) bool) {
		for k := Kind(0); k < kindCount; k++ {
			c, ok := p.cells[Key{Pos: pos, Kind: k}]
			if ok && !yield(c) {
				return
			}
		}
	}
}

// Occupied returns the set of cells holding at least one planned structure.
func (p *Plan) Occupied() mapset.Set[geom.Cell] {
	set := mapset.New[geom.Cell]()
	for k := range p.cells {
		set.Put(k.Pos)
	}
	return set
}

// IsOccupied reports whether anything is planned at pos.
func (p *Plan) IsOccupied(pos geom.Cell) bool {
	for range p.FindByXY(pos) {
		return true
	}
	return false
}

// Blocked reports whether a structure units cannot walk over is planned at pos.
func (p *Plan) Blocked(pos geom.Cell) bool {
	for c := range p.FindByXY(pos) {
		if !c.Structure.Kind.Walkable() {
			return true
		}
	}
	return false
}

// ByKind returns the cells of one kind ordered by position.
func (p *Plan) ByKind(k Kind) []PlannedCell {
	var out []PlannedCell
	for c := range p.All() {
		if c.Structure.Kind == k {
			out = append(out, c)
		}
	}
	return out
}

func positions(cells []PlannedCell) []geom.Cell {
	out := make([]geom.Cell, len(cells))
	for i, c := range cells {
		out[i] = c.Pos
	}
	return out
}

// Roads returns the positions of every planned road.
func (p *Plan) Roads() []geom.Cell { return positions(p.ByKind(Road)) }

// Containers returns the positions of every planned container.
func (p *Plan) Containers() []geom.Cell { return positions(p.ByKind(Container)) }

// Perimeter returns the barrier cells of the defensive perimeter.
func (p *Plan) Perimeter() []geom.Cell { return positions(p.ByKind(Rampart)) }

// Links returns every planned link.
func (p *Plan) Links() []PlannedCell { return p.ByKind(Link) }

// Labs returns every planned lab.
func (p *Plan) Labs() []PlannedCell { return p.ByKind(Lab) }

func (p *Plan) first(k Kind) (geom.Cell, bool) {
	cells := p.ByKind(k)
	if len(cells) == 0 {
		return geom.Cell{}, false
	}
	return cells[0].Pos, true
}

// Storage returns the storage position.
func (p *Plan) Storage() (geom.Cell, bool) { return p.first(Storage) }

func (p *Plan) linkWithRole(role LinkRole) (geom.Cell, bool) {
	for _, c := range p.Links() {
		if c.Structure.Link == role {
			return c.Pos, true
		}
	}
	return geom.Cell{}, false
}

// SenderXY returns the hub link next to storage.
func (p *Plan) SenderXY() (geom.Cell, bool) { return p.linkWithRole(LinkSender) }

// ReceiverXY returns the controller link.
func (p *Plan) ReceiverXY() (geom.Cell, bool) { return p.linkWithRole(LinkReceiver) }

// PCWorkplace returns the tile a power creep works from.
func (p *Plan) PCWorkplace() (geom.Cell, bool) { return p.workplace, p.hasWorkplace }

// SetPCWorkplace records the power creep work tile.
func (p *Plan) SetPCWorkplace(c geom.Cell) {
	p.workplace, p.hasWorkplace = c, true
}

// RoadDistance returns the road-network distance recorded for a road cell.
func (p *Plan) RoadDistance(c geom.Cell) (int, bool) {
	d, ok := p.roadDist[c]
	return d, ok
}

// SetRoadDistance records the road-network distance of a road cell, keeping the
// smaller value when one is already known.
func (p *Plan) SetRoadDistance(c geom.Cell, d int) {
	if old, ok := p.roadDist[c]; ok && old <= d {
		return
	}
	p.roadDist[c] = d
}

// RoadDistances returns a copy of the road distance map.
func (p *Plan) RoadDistances() map[geom.Cell]int {
	out := make(map[geom.Cell]int, len(p.roadDist))
	for c, d := range p.roadDist {
		out[c] = d
	}
	return out
}

// Clone returns a deep copy of p.
func (p *Plan) Clone() *Plan {
	q := New()
	for k, c := range p.cells {
		q.cells[k] = c
	}
	for c, d := range p.roadDist {
		q.roadDist[c] = d
	}
	q.builtLvl = p.builtLvl
	q.workplace, q.hasWorkplace = p.workplace, p.hasWorkplace
	return q
}

func (p *Plan) sortedKeys() []Key {
	keys := make([]Key, 0, len(p.cells))
	for k := range p.cells {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b Key) int {
		switch {
		case lessKey(a, b):
			return -1
		case lessKey(b, a):
			return 1
		default:
			return 0
		}
	})
	return keys
}
