package planner

import (
	"fmt"
	"slices"

	"github.com/zyedidia/generic/mapset"

	"github.com/talgya/room-planner/internal/geom"
)

// RoadConfig is one variant of the diagonal road lattice. Each row carries two
// road tiles every four columns: one on the rising diagonal x+y = Phase and one
// on the falling diagonal x-y = Phase, shifted by two when Reverse is set.
type RoadConfig struct {
	Phase   int
	Reverse bool
}

func (rc RoadConfig) String() string {
	return fmt.Sprintf("phase=%d reverse=%t", rc.Phase, rc.Reverse)
}

// RoadConfigs enumerates the eight lattice variants in evaluation order.
func RoadConfigs() []RoadConfig {
	out := make([]RoadConfig, 0, 8)
	for phase := range 4 {
		out = append(out, RoadConfig{Phase: phase}, RoadConfig{Phase: phase, Reverse: true})
	}
	return out
}

func mod4(v int) int { return ((v % 4) + 4) % 4 }

// onLattice reports whether (x, y) is a road tile of the variant.
func (rc RoadConfig) onLattice(x, y int) bool {
	fall := rc.Phase
	if rc.Reverse {
		fall += 2
	}
	return mod4(x+y) == rc.Phase || mod4(x-y) == mod4(fall)
}

// squareSides are the offsets of the eight road tiles that frame a plot.
var squareSides = [8][2]int{
	{0, -2}, {1, -1}, {2, 0}, {1, 1}, {0, 2}, {-1, 1}, {-2, 0}, {-1, -1},
}

// Square is a plus-shaped plot of five tiles framed by road tiles. A square is
// rounded when all eight framing tiles are roads.
type Square struct {
	Center geom.Cell
	Sides  []geom.Cell // framing road tiles present, in squareSides order
}

// Rounded reports whether all eight framing tiles are roads.
func (s Square) Rounded() bool { return len(s.Sides) == len(squareSides) }

// Missing returns the framing tiles that are not roads.
func (s Square) Missing() []geom.Cell {
	var out []geom.Cell
	for _, off := range squareSides {
		c, ok := s.Center.Offset(off[0], off[1])
		if ok && !slices.Contains(s.Sides, c) {
			out = append(out, c)
		}
	}
	return out
}

// Cells returns the plot: the centre followed by its four arms, clockwise from top.
func (s Square) Cells() []geom.Cell {
	out := []geom.Cell{s.Center}
	for _, d := range geom.Orthogonal {
		if c, ok := s.Center.Step(d); ok {
			out = append(out, c)
		}
	}
	return out
}

func (s Square) score() int {
	switch n := len(s.Sides); {
	case n == 8:
		return 4
	case n >= 6:
		return 2
	case n == 5:
		return 1
	default:
		return 0
	}
}

// RoadNet is the lattice rendered for one variant over the green tier.
type RoadNet struct {
	Config  RoadConfig
	Cells   []geom.Cell // row-major
	Squares []Square    // row-major by centre
	Rank    int

	roads mapset.Set[geom.Cell]
}

// IsRoad reports whether c is a lattice road.
func (n *RoadNet) IsRoad(c geom.Cell) bool { return n.roads.Has(c) }

// SquareAt returns the square centred on c.
func (n *RoadNet) SquareAt(c geom.Cell) (Square, bool) {
	i, ok := slices.BinarySearchFunc(n.Squares, c, func(s Square, c geom.Cell) int {
		return geom.Compare(s.Center, c)
	})
	if !ok {
		return Square{}, false
	}
	return n.Squares[i], true
}

// RenderRoads lays variant rc over the green tiles of g, skipping the tiles in
// keepOut (the existing spawn, fixed objects and the tiles kept for resource
// connectors). It returns nil when the variant yields no road at all.
func RenderRoads(g *Grid, rc RoadConfig, keepOut mapset.Set[geom.Cell]) *RoadNet {
	n := &RoadNet{Config: rc, roads: mapset.New[geom.Cell]()}
	green := g.Cells(PartGreen)
	for _, c := range green {
		if keepOut.Has(c) || !rc.onLattice(int(c.X), int(c.Y)) {
			continue
		}
		n.roads.Put(c)
		n.Cells = append(n.Cells, c)
	}
	if len(n.Cells) == 0 {
		return nil
	}
	for _, c := range green {
		if n.roads.Has(c) {
			continue
		}
		sq := Square{Center: c}
		for _, off := range squareSides {
			if s, ok := c.Offset(off[0], off[1]); ok && n.roads.Has(s) {
				sq.Sides = append(sq.Sides, s)
			}
		}
		if len(sq.Sides) > 0 {
			n.Squares = append(n.Squares, sq)
			n.Rank += sq.score()
		}
	}
	return n
}

// SynthesizeRoads renders every lattice variant and keeps the first one with
// the highest rank.
func SynthesizeRoads(g *Grid, keepOut mapset.Set[geom.Cell]) (*RoadNet, error) {
	var best *RoadNet
	for _, rc := range RoadConfigs() {
		n := RenderRoads(g, rc, keepOut)
		if n != nil && (best == nil || n.Rank > best.Rank) {
			best = n
		}
	}
	if best == nil {
		return nil, ErrRoadPlanFailure
	}
	return best, nil
}
