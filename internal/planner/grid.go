package planner

import (
	"fmt"
	"strings"

	"github.com/zyedidia/generic/mapset"

	"github.com/talgya/room-planner/internal/geom"
	"github.com/talgya/room-planner/internal/plan"
	"github.com/talgya/room-planner/internal/terrain"
)

// Part is the classification of one room tile relative to the perimeter.
type Part uint8

const (
	PartGreen     Part = iota // safe core, at least 3 from the perimeter
	PartYellow                // 2 from the perimeter
	PartOrange                // next to the perimeter
	PartRed                   // outside the perimeter
	PartProtected             // perimeter tile carrying a rampart
	PartWall
	PartStructure // only produced by Overlay
	PartRoad      // only produced by Overlay
	PartExit
)

var partGlyphs = [...]byte{'G', 'Y', 'O', 'R', 'P', '#', 'S', '+', 'E'}

var partNames = [...]string{"green", "yellow", "orange", "red", "protected", "wall", "structure", "road", "exit"}

func (p Part) String() string {
	if int(p) < len(partNames) {
		return partNames[p]
	}
	return fmt.Sprintf("part(%d)", p)
}

// Interior reports whether p is one of the tiers inside the perimeter.
func (p Part) Interior() bool {
	return p == PartGreen || p == PartYellow || p == PartOrange
}

// Grid is the tier classification of every tile. It depends only on terrain and
// the perimeter and is never changed after Classify.
type Grid struct {
	Rect  geom.Rect
	parts [geom.Size * geom.Size]Part
}

// At returns the tier of c.
func (g *Grid) At(c geom.Cell) Part { return g.parts[c.Index()] }

// Cells returns the tiles of tier p in row-major order.
func (g *Grid) Cells(p Part) []geom.Cell {
	var out []geom.Cell
	for i, q := range g.parts {
		if q == p {
			out = append(out, geom.FromIndex(i))
		}
	}
	return out
}

// Classify assigns a tier to every tile of the room. Tiles strictly inside the
// perimeter rectangle are graded by Chebyshev distance to the border walk; rows
// the walk skips, and tiles beyond the walk's extent in their row, are outside.
func Classify(walls *terrain.WallMap, p *Perimeter) (*Grid, error) {
	g := &Grid{Rect: p.Rect}
	barrier := mapset.New[geom.Cell]()
	for _, c := range p.Barrier {
		barrier.Put(c)
	}
	type span struct{ lo, hi int }
	rows := make(map[int]span)
	for _, c := range p.Border {
		x, y := int(c.X), int(c.Y)
		s, ok := rows[y]
		if !ok {
			s = span{x, x}
		}
		rows[y] = span{min(s.lo, x), max(s.hi, x)}
	}

	for i := range g.parts {
		c := geom.FromIndex(i)
		switch {
		case walls.IsWall(c):
			g.parts[i] = PartWall
		case c.OnEdge():
			g.parts[i] = PartExit
		case barrier.Has(c):
			g.parts[i] = PartProtected
		case !p.Rect.StrictlyContains(c):
			g.parts[i] = PartRed
		default:
			s, ok := rows[int(c.Y)]
			if !ok || int(c.X) < s.lo || int(c.X) > s.hi {
				g.parts[i] = PartRed
				continue
			}
			d := borderRange(c, p.Border)
			switch {
			case d == 0:
				return nil, fmt.Errorf("%w: open tile %v on the border walk", ErrGridCreationFailed, c)
			case d == 1:
				g.parts[i] = PartOrange
			case d == 2:
				g.parts[i] = PartYellow
			default:
				g.parts[i] = PartGreen
			}
		}
	}
	return g, nil
}

func borderRange(c geom.Cell, border []geom.Cell) int {
	best := geom.Size
	for _, b := range border {
		best = min(best, geom.Range(c, b))
	}
	return best
}

// Overlay returns a copy of the tiers with planned structures marked.
func (g *Grid) Overlay(p *plan.Plan) *Grid {
	out := *g
	for c := range p.All() {
		i := c.Pos.Index()
		if out.parts[i] == PartWall {
			continue
		}
		switch c.Structure.Kind {
		case plan.Road:
			if out.parts[i] != PartStructure {
				out.parts[i] = PartRoad
			}
		case plan.Rampart, plan.Container:
		default:
			out.parts[i] = PartStructure
		}
	}
	return &out
}

// Render draws one glyph per tile, one string per row.
func (g *Grid) Render() []string {
	rows := make([]string, geom.Size)
	var b strings.Builder
	for y := range geom.Size {
		b.Reset()
		for x := range geom.Size {
			b.WriteByte(partGlyphs[g.parts[y*geom.Size+x]])
		}
		rows[y] = b.String()
	}
	return rows
}
