package planner

import (
	"cmp"
	"fmt"
	"slices"

	"codeberg.org/anaseto/gruid"
	"codeberg.org/anaseto/gruid/paths"
	"github.com/zyedidia/generic/mapset"

	"github.com/talgya/room-planner/internal/geom"
	"github.com/talgya/room-planner/internal/plan"
	"github.com/talgya/room-planner/internal/terrain"
)

// Path costs of entering a tile.
const (
	interiorCost = 0
	roadCost     = 1
	plainCost    = 2
	swampCost    = 10

	maxPathCost = geom.Size * geom.Size * swampCost
)

func toPoint(c geom.Cell) gruid.Point { return gruid.Point{X: int(c.X), Y: int(c.Y)} }

func toCell(p gruid.Point) geom.Cell { return geom.Cell{X: uint8(p.X), Y: uint8(p.Y)} }

// roomGraph is the walkable tile graph of one room as the path finders see it.
// Exit tiles, walls, fixed objects and planned structures that cannot be walked
// on are impassable.
type roomGraph struct {
	terrain terrain.Oracle
	grid    *Grid
	plan    *plan.Plan
	keepOut mapset.Set[geom.Cell]
	nb      paths.Neighbors
}

func (g *roomGraph) passable(p gruid.Point) bool {
	if p.X < 1 || p.Y < 1 || p.X > geom.Size-2 || p.Y > geom.Size-2 {
		return false
	}
	c := toCell(p)
	return g.terrain.At(p.X, p.Y) != terrain.Wall && !g.keepOut.Has(c) && !g.plan.Blocked(c)
}

func (g *roomGraph) Neighbors(p gruid.Point) []gruid.Point {
	return g.nb.All(p, g.passable)
}

func (g *roomGraph) Cost(_, to gruid.Point) int {
	c := toCell(to)
	switch {
	case g.grid != nil && g.grid.At(c).Interior():
		return interiorCost
	case g.plan.Has(c, plan.Road):
		return roadCost
	case g.terrain.At(to.X, to.Y) == terrain.Swamp:
		return swampCost
	default:
		return plainCost
	}
}

func (g *roomGraph) Estimation(_, _ gruid.Point) int { return 0 }

// connector places the container, road and link that tie one resource to the
// base road network.
type connector struct {
	graph   *roomGraph
	pr      *paths.PathRange
	storage geom.Cell
}

func newConnector(o terrain.Oracle, g *Grid, p *plan.Plan, keepOut mapset.Set[geom.Cell]) (*connector, error) {
	storage, ok := p.Storage()
	if !ok {
		return nil, ErrStorageNotFound
	}
	return &connector{
		graph:   &roomGraph{terrain: o, grid: g, plan: p, keepOut: keepOut},
		pr:      paths.NewPathRange(gruid.NewRange(0, 0, geom.Size, geom.Size)),
		storage: storage,
	}, nil
}

// placeContainer puts a container next to target, on the free tile with the
// shortest walk to storage.
func (cn *connector) placeContainer(target geom.Cell, level, until uint8) (geom.Cell, error) {
	p := cn.graph.plan
	cn.pr.BreadthFirstMap(cn.graph, []gruid.Point{toPoint(cn.storage)}, maxPathCost)
	type cand struct {
		cell  geom.Cell
		steps int
	}
	var cands []cand
	for _, c := range target.Neighbors() {
		if !cn.graph.passable(toPoint(c)) || p.IsOccupied(c) {
			continue
		}
		if steps := cn.pr.BreadthFirstMapAt(toPoint(c)); steps <= maxPathCost {
			cands = append(cands, cand{c, steps})
		}
	}
	if len(cands) == 0 {
		return geom.Cell{}, fmt.Errorf("%w: no free tile next to %v", ErrContainerPlacement, target)
	}
	best := slices.MinFunc(cands, func(a, b cand) int {
		return cmp.Or(
			cmp.Compare(a.steps, b.steps),
			cmp.Compare(geom.Manhattan(a.cell, target), geom.Manhattan(b.cell, target)),
			geom.Compare(a.cell, b.cell),
		)
	})
	p.AddCell(plan.PlannedCell{Pos: best.cell, Structure: plan.Of(plan.Container), Level: level, Until: until})
	return best.cell, nil
}

// connectRoad lays the cheapest road from the tile from to the planned road
// network. New road tiles count their distance from the tile they join;
// crossing an existing road takes over its distance.
func (cn *connector) connectRoad(from geom.Cell, level uint8) error {
	p := cn.graph.plan
	cn.pr.DijkstraMap(cn.graph, []gruid.Point{toPoint(from)}, maxPathCost)

	var target geom.Cell
	bestCost, bestDist := -1, 0
	for _, r := range p.Roads() {
		cost := cn.pr.DijkstraMapAt(toPoint(r))
		if cost > maxPathCost {
			continue
		}
		dist, _ := p.RoadDistance(r)
		if bestCost < 0 || cost < bestCost || (cost == bestCost && dist < bestDist) {
			target, bestCost, bestDist = r, cost, dist
		}
	}
	if bestCost < 0 {
		return fmt.Errorf("%w: no road reachable from %v", ErrRoadConnectionFailure, from)
	}
	path := cn.pr.AstarPath(cn.graph, toPoint(from), toPoint(target))
	if len(path) == 0 {
		return fmt.Errorf("%w: no path from %v to %v", ErrRoadConnectionFailure, from, target)
	}

	dist := bestDist
	for i := len(path) - 2; i >= 1; i-- {
		c := toCell(path[i])
		if p.Has(c, plan.Road) {
			if d, ok := p.RoadDistance(c); ok {
				dist = d
			}
			continue
		}
		dist++
		p.AddCell(plan.PlannedCell{Pos: c, Structure: plan.Of(plan.Road), Level: level})
		p.SetRoadDistance(c, dist)
	}
	return nil
}

// placeLink puts a link next to the container, on the free tile nearest toward.
func (cn *connector) placeLink(container, toward geom.Cell, s plan.Structure, level uint8) error {
	p := cn.graph.plan
	cands := slices.DeleteFunc(container.Neighbors(), func(c geom.Cell) bool {
		return !cn.graph.passable(toPoint(c)) || p.IsOccupied(c)
	})
	if len(cands) == 0 {
		return fmt.Errorf("%w: no tile for %v next to %v", ErrStructurePlacement, s, container)
	}
	best := slices.MinFunc(cands, func(a, b geom.Cell) int {
		return cmp.Or(
			cmp.Compare(geom.Range(a, toward), geom.Range(b, toward)),
			cmp.Compare(geom.Manhattan(a, toward), geom.Manhattan(b, toward)),
			geom.Compare(a, b),
		)
	})
	p.AddCell(plan.PlannedCell{Pos: best, Structure: s, Level: level})
	return nil
}

// ConnectController plans the upgrade container, its road and the receiver link.
func (cn *connector) ConnectController(controller geom.Cell, lv Levels) error {
	ct, err := cn.placeContainer(controller, lv.ControllerContainer, lv.ControllerContainerUntil)
	if err == nil {
		err = cn.connectRoad(ct, lv.ControllerRoad)
	}
	if err == nil {
		err = cn.placeLink(ct, controller, plan.LinkOf(plan.LinkReceiver, 0), lv.ReceiverLink)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrControllerPlacement, err)
	}
	return nil
}

// ConnectSource plans the mining container of source i, its road and its link.
func (cn *connector) ConnectSource(i int, source geom.Cell, lv Levels) error {
	ct, err := cn.placeContainer(source, lv.SourceContainer, 0)
	if err == nil {
		err = cn.connectRoad(ct, lv.SourceRoad)
	}
	if err == nil {
		err = cn.placeLink(ct, cn.storage, plan.LinkOf(plan.LinkSource, uint8(i)), nth(lv.SourceLinks, i))
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSourcePlacement, err)
	}
	return nil
}

// ConnectMineral plans the extractor, the mineral container and its road.
func (cn *connector) ConnectMineral(mineral geom.Cell, lv Levels) error {
	cn.graph.plan.AddCell(plan.PlannedCell{Pos: mineral, Structure: plan.Of(plan.Extractor), Level: lv.Extractor})
	ct, err := cn.placeContainer(mineral, lv.MineralContainer, 0)
	if err == nil {
		err = cn.connectRoad(ct, lv.MineralRoad)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMineralPlacement, err)
	}
	return nil
}

// reserveResourceTiles returns the tiles the connectors will need around the
// controller, the sources and the mineral. Every open tile next to a resource
// is kept free for its container. Around the controller and the sources, any
// such tile with fewer than two free neighbours of its own also keeps those
// neighbours, so its road and link still fit.
func reserveResourceTiles(o terrain.Oracle, per *Perimeter, in Input) mapset.Set[geom.Cell] {
	fixed := mapset.New[geom.Cell]()
	for _, c := range in.Objects() {
		fixed.Put(c)
	}
	if in.Spawn != nil {
		fixed.Put(*in.Spawn)
	}
	closed := func(c geom.Cell) bool {
		return c.X < 1 || c.Y < 1 || c.X > geom.Size-2 || c.Y > geom.Size-2 ||
			o.At(int(c.X), int(c.Y)) == terrain.Wall || fixed.Has(c) || per.IsBorder(c)
	}

	out := mapset.New[geom.Cell]()
	reserve := func(r geom.Cell, linked bool) {
		ring := slices.DeleteFunc(r.Neighbors(), closed)
		for _, c := range ring {
			out.Put(c)
		}
		if !linked {
			return
		}
		for _, c := range ring {
			free := slices.DeleteFunc(c.Neighbors(), closed)
			kept := 0
			for _, n := range free {
				if out.Has(n) {
					kept++
				}
			}
			if kept >= 2 {
				continue
			}
			for _, n := range free {
				out.Put(n)
			}
		}
	}
	if in.Controller != nil {
		reserve(*in.Controller, true)
	}
	for _, src := range in.Sources {
		reserve(src, true)
	}
	if in.Mineral != nil {
		reserve(*in.Mineral, false)
	}
	return out
}
