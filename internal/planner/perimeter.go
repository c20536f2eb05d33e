package planner

import (
	"slices"

	"github.com/talgya/room-planner/internal/geom"
	"github.com/talgya/room-planner/internal/terrain"
)

// Perimeter is the defensive ring around the base. Border is the closed,
// 4-connected walk along it; every cell of the walk is either a natural wall
// (Natural) or a tile that needs a rampart (Barrier).
type Perimeter struct {
	Rect    geom.Rect
	Border  []geom.Cell
	Natural []geom.Cell
	Barrier []geom.Cell
}

// SmallestPerimeter finds the smallest rectangle that leaves a core of at least
// cfg.MinSafeCells non-wall cells cfg.Margin cells inside its edge.
//
// Core sizes are tried by ascending area; within one area by ascending width,
// then every position top to bottom, left to right. A candidate is rejected when
// no source lies within range 1 of it, when its edge crosses one of the fixed
// objects, or when the existing spawn is not inside the core.
func SmallestPerimeter(walls *terrain.WallMap, spawn *geom.Cell, sources, objects []geom.Cell, cfg Config) (geom.Rect, error) {
	type side struct{ w, h int }
	tiers := make(map[int][]side)
	for w := cfg.MinCoreSide; w <= cfg.MaxCoreSide; w++ {
		for h := cfg.MinCoreSide; h <= cfg.MaxCoreSide; h++ {
			if geom.Abs(w-h) > cfg.MaxAspect || w*h < cfg.MinSafeCells {
				continue
			}
			tiers[w*h] = append(tiers[w*h], side{w, h})
		}
	}
	areas := make([]int, 0, len(tiers))
	for a := range tiers {
		areas = append(areas, a)
	}
	slices.Sort(areas)

	lo, hi := cfg.EdgeGap, geom.Size-1-cfg.EdgeGap
	for _, area := range areas {
		for _, s := range tiers[area] {
			ow, oh := s.w+2*cfg.Margin, s.h+2*cfg.Margin
			for y0 := lo; y0+oh-1 <= hi; y0++ {
				for x0 := lo; x0+ow-1 <= hi; x0++ {
					outer := geom.Rect{X0: x0, Y0: y0, X1: x0 + ow - 1, Y1: y0 + oh - 1}
					if !nearAny(outer, sources) || onEdgeOf(outer, objects) {
						continue
					}
					core := outer.Shrink(cfg.Margin)
					if spawn != nil && !core.Contains(*spawn) {
						continue
					}
					if core.Area()-walls.CountWalls(core) >= cfg.MinSafeCells {
						return outer, nil
					}
				}
			}
		}
	}
	return geom.Rect{}, ErrPerimeterCreationFailed
}

func nearAny(r geom.Rect, cells []geom.Cell) bool {
	for _, c := range cells {
		if r.RangeTo(c) <= 1 {
			return true
		}
	}
	return false
}

func onEdgeOf(r geom.Rect, cells []geom.Cell) bool {
	for _, c := range cells {
		if r.Contains(c) && !r.StrictlyContains(c) {
			return true
		}
	}
	return false
}

// WalkBorder walks the edge of r clockwise starting at the middle of the top
// side. Wall tiles join the natural list and open tiles the barrier list. Where
// a wall run ends before a corner and the walls continue up to maxCut cells
// inside the ring, the walk cuts the corner through those walls instead, so the
// open tiles it skips need no rampart.
func WalkBorder(walls *terrain.WallMap, r geom.Rect, maxCut int) *Perimeter {
	ring := ringCells(r)
	index := make(map[geom.Cell]int, len(ring))
	for i, c := range ring {
		index[c] = i
	}

	p := &Perimeter{Rect: r}
	emit := func(c geom.Cell) {
		p.Border = append(p.Border, c)
		if walls.IsWall(c) {
			p.Natural = append(p.Natural, c)
		} else {
			p.Barrier = append(p.Barrier, c)
		}
	}

	for i := 0; i < len(ring); i++ {
		c := ring[i]
		emit(c)
		if i+1 >= len(ring) || !walls.IsWall(c) || walls.IsWall(ring[i+1]) {
			continue
		}
		f, _ := stepBetween(c, ring[i+1])
		cut, land, ok := cornerCut(walls, r, c, f, maxCut)
		if !ok {
			continue
		}
		j, found := index[land]
		if !found || j <= i+1 {
			continue
		}
		for _, cc := range cut {
			emit(cc)
		}
		i = j
	}
	return p
}

// cornerCut looks for an L-shaped run of walls from c: k cells inward, then
// along the walking direction f until the next side of r. It returns the cut
// cells (landing cell last).
func cornerCut(walls *terrain.WallMap, r geom.Rect, c geom.Cell, f geom.Direction, maxCut int) ([]geom.Cell, geom.Cell, bool) {
	n := f.Clockwise()
	fx, fy := f.Delta()
	nx, ny := n.Delta()
	x, y := int(c.X), int(c.Y)

	var d int
	switch f {
	case geom.Right:
		d = r.X1 - x
	case geom.Bottom:
		d = r.Y1 - y
	case geom.Left:
		d = x - r.X0
	default:
		d = y - r.Y0
	}
	if d < 1 {
		return nil, geom.Cell{}, false
	}

	var leg []geom.Cell
	for k := 1; k <= maxCut; k++ {
		bx, by := x+k*nx, y+k*ny
		if !walls.Wall(bx, by) || !r.StrictlyContains(geom.Cell{X: uint8(bx), Y: uint8(by)}) {
			return nil, geom.Cell{}, false
		}
		leg = append(leg, geom.Cell{X: uint8(bx), Y: uint8(by)})

		cut := slices.Clone(leg)
		complete := true
		for j := 1; j <= d; j++ {
			cx, cy := bx+j*fx, by+j*fy
			if !walls.Wall(cx, cy) {
				complete = false
				break
			}
			cut = append(cut, geom.Cell{X: uint8(cx), Y: uint8(cy)})
		}
		if complete {
			return cut, cut[len(cut)-1], true
		}
	}
	return nil, geom.Cell{}, false
}

// ringCells lists the edge of r clockwise from the middle of the top side.
func ringCells(r geom.Rect) []geom.Cell {
	var ring []geom.Cell
	add := func(x, y int) { ring = append(ring, geom.Cell{X: uint8(x), Y: uint8(y)}) }
	for x := r.X0; x <= r.X1; x++ {
		add(x, r.Y0)
	}
	for y := r.Y0 + 1; y <= r.Y1; y++ {
		add(r.X1, y)
	}
	for x := r.X1 - 1; x >= r.X0; x-- {
		add(x, r.Y1)
	}
	for y := r.Y1 - 1; y > r.Y0; y-- {
		add(r.X0, y)
	}
	start := (r.X0+r.X1)/2 - r.X0
	return slices.Concat(ring[start:], ring[:start])
}

func stepBetween(a, b geom.Cell) (geom.Direction, bool) {
	for _, d := range geom.AllDirections {
		if n, ok := a.Step(d); ok && n == b {
			return d, true
		}
	}
	return geom.Top, false
}

// IsBorder reports whether c lies on the perimeter walk.
func (p *Perimeter) IsBorder(c geom.Cell) bool {
	return slices.Contains(p.Border, c)
}
