package planner

import (
	"fmt"
	"slices"

	"github.com/zyedidia/generic/mapset"

	"github.com/talgya/room-planner/internal/geom"
	"github.com/talgya/room-planner/internal/plan"
)

// CentralSquare is the road crossroad hosting the storage hub, together with
// the four squares around it and the direction of the guide point.
type CentralSquare struct {
	Crossroad geom.Cell
	Guide     geom.Direction
	Squares   [4]Square   // in geom.Orthogonal order
	Inferred  []geom.Cell // framing roads added to complete a square
}

// Reserved returns the tiles of the four squares.
func (cs *CentralSquare) Reserved() mapset.Set[geom.Cell] {
	set := mapset.New[geom.Cell]()
	for _, sq := range cs.Squares {
		for _, c := range sq.Cells() {
			set.Put(c)
		}
	}
	return set
}

// GuideTarget picks the point the hub should face: the object outside the
// perimeter closest to the rectangle centre, else the controller.
func GuideTarget(rect geom.Rect, controller *geom.Cell, sources []geom.Cell) (geom.Cell, error) {
	var targets []geom.Cell
	if controller != nil {
		targets = append(targets, *controller)
	}
	targets = append(targets, sources...)

	center := rect.Center()
	best, found := geom.Cell{}, false
	for _, t := range targets {
		if rect.Contains(t) {
			continue
		}
		if !found || geom.Range(center, t) < geom.Range(center, best) {
			best, found = t, true
		}
	}
	switch {
	case found:
		return best, nil
	case controller != nil:
		return *controller, nil
	default:
		return geom.Cell{}, ErrGuidePointNotFound
	}
}

// plotFree reports whether c can hold a hub structure.
func plotFree(g *Grid, keepOut mapset.Set[geom.Cell], c geom.Cell) bool {
	if keepOut.Has(c) {
		return false
	}
	p := g.At(c)
	return p == PartGreen || p == PartYellow
}

// LocateCentralSquare finds the road tile whose four orthogonal squares (two
// tiles away) are rounded and free, closest to the guide target. A square with
// a single missing framing road also qualifies when that tile can take a road;
// the road is then reported in Inferred.
func LocateCentralSquare(g *Grid, net *RoadNet, keepOut mapset.Set[geom.Cell], target geom.Cell) (*CentralSquare, error) {
	var best *CentralSquare
	bestDist := 0
	for _, r := range net.Cells {
		cs := &CentralSquare{Crossroad: r}
		ok := true
		for i, d := range geom.Orthogonal {
			dx, dy := d.Delta()
			center, in := r.Offset(2*dx, 2*dy)
			if !in {
				ok = false
				break
			}
			sq, has := net.SquareAt(center)
			if !has || !squareUsable(g, keepOut, sq) {
				ok = false
				break
			}
			if !sq.Rounded() {
				cs.Inferred = append(cs.Inferred, sq.Missing()...)
			}
			cs.Squares[i] = sq
		}
		if !ok {
			continue
		}
		slices.SortFunc(cs.Inferred, geom.Compare)
		cs.Inferred = slices.Compact(cs.Inferred)
		dir, moved := geom.Toward(r, target)
		if !moved {
			continue
		}
		cs.Guide = dir
		if dist := geom.Range(r, target); best == nil || dist < bestDist {
			best, bestDist = cs, dist
		}
	}
	if best == nil {
		return nil, ErrCentralSquareNotFound
	}
	return best, nil
}

func squareUsable(g *Grid, keepOut mapset.Set[geom.Cell], sq Square) bool {
	for _, c := range sq.Cells() {
		if !plotFree(g, keepOut, c) {
			return false
		}
	}
	if sq.Rounded() {
		return true
	}
	missing := sq.Missing()
	return len(sq.Sides) == len(squareSides)-1 && len(missing) == 1 && plotFree(g, keepOut, missing[0])
}

// hubSlot is one structure of the hub template, as steps along the guide (f),
// its clockwise turn (r) and their opposites (negative counts).
type hubSlot struct {
	f, r      int
	structure plan.Structure
	level     func(Levels) uint8
}

var hubTemplate = []hubSlot{
	{1, 0, plan.Of(plan.Storage), func(l Levels) uint8 { return l.Storage }},
	{0, 1, plan.Of(plan.Terminal), func(l Levels) uint8 { return l.Terminal }},
	{0, -1, plan.LinkOf(plan.LinkSender, 0), func(l Levels) uint8 { return l.SenderLink }},
	{-1, 0, plan.Of(plan.Factory), func(l Levels) uint8 { return l.Factory }},
	{2, 0, plan.Of(plan.PowerSpawn), func(l Levels) uint8 { return l.PowerSpawn }},
	{3, 0, plan.Of(plan.Nuker), func(l Levels) uint8 { return l.Nuker }},

	{-2, 1, plan.LabOf(plan.LabInput), func(l Levels) uint8 { return l.LabInput }},
	{-1, 2, plan.LabOf(plan.LabInput), func(l Levels) uint8 { return l.LabInput }},
	{-2, 0, plan.LabOf(plan.LabOutput), func(l Levels) uint8 { return nth(l.LabOutput, 0) }},
	{-3, 0, plan.LabOf(plan.LabOutput), func(l Levels) uint8 { return nth(l.LabOutput, 1) }},
	{0, 2, plan.LabOf(plan.LabOutput), func(l Levels) uint8 { return nth(l.LabOutput, 2) }},
	{0, 3, plan.LabOf(plan.LabOutput), func(l Levels) uint8 { return nth(l.LabOutput, 3) }},
	{0, -2, plan.LabOf(plan.LabBoost), func(l Levels) uint8 { return l.LabBoost }},
	{0, -3, plan.LabOf(plan.LabBoost), func(l Levels) uint8 { return l.LabBoost }},
	{1, -2, plan.LabOf(plan.LabBoost), func(l Levels) uint8 { return l.LabBoost }},
	{-1, -2, plan.LabOf(plan.LabBoost), func(l Levels) uint8 { return l.LabBoost }},
}

// hubCell resolves template steps against the crossroad and guide.
func (cs *CentralSquare) hubCell(f, r int) (geom.Cell, bool) {
	fx, fy := cs.Guide.Delta()
	rx, ry := cs.Guide.Clockwise().Delta()
	return cs.Crossroad.Offset(f*fx+r*rx, f*fy+r*ry)
}

// Workplace is the road tile diagonal to the crossroad between storage and
// terminal, from where a power creep reaches both.
func (cs *CentralSquare) Workplace() geom.Cell {
	c, _ := cs.hubCell(1, 1)
	return c
}

// HubCells returns the planned hub structures.
func (cs *CentralSquare) HubCells(lv Levels) ([]plan.PlannedCell, error) {
	reserved := cs.Reserved()
	out := make([]plan.PlannedCell, 0, len(hubTemplate))
	for _, slot := range hubTemplate {
		c, ok := cs.hubCell(slot.f, slot.r)
		if !ok || !reserved.Has(c) {
			return nil, fmt.Errorf("%w: %v slot at %v", ErrCentralSquarePlacement, slot.structure, c)
		}
		out = append(out, plan.PlannedCell{Pos: c, Structure: slot.structure, Level: slot.level(lv)})
	}
	return out, nil
}
