package planner

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"codeberg.org/anaseto/gruid"
	"codeberg.org/anaseto/gruid/paths"
	"github.com/zyedidia/generic/mapset"

	"github.com/talgya/room-planner/internal/geom"
	"github.com/talgya/room-planner/internal/plan"
	"github.com/talgya/room-planner/internal/terrain"
)

// Site is one room taking part in remote planning.
type Site struct {
	Name    string
	Terrain terrain.Oracle
	Plan    *plan.Plan
	Objects []geom.Cell // controller, sources, mineral and other fixed obstacles
}

// RemoteRequest asks for the roads and containers that let the base harvest
// the sources of a neighbouring room.
type RemoteRequest struct {
	Remote    Site
	Side      geom.Direction // where the remote room lies, seen from the base
	Sources   []geom.Cell
	Suspended bool
}

// RemoteResult holds the extended base plan and the new remote plan.
type RemoteResult struct {
	Base   *plan.Plan
	Remote *plan.Plan
}

const remoteLvl = 0

const (
	siteBase = iota
	siteRemote
)

// stitched joins the base and remote rooms into one path-finding range.
// Movement across the seam is orthogonal only.
type stitched struct {
	sites   [2]*Site
	objects [2]mapset.Set[geom.Cell]
	offsets [2]gruid.Point
	seams   [2]geom.Direction // edge of each room facing the other
	rg      gruid.Range
	nb      paths.Neighbors
}

func newStitched(base, remote *Site, side geom.Direction) (*stitched, error) {
	s := &stitched{
		sites: [2]*Site{base, remote},
		seams: [2]geom.Direction{side, side.Opposite()},
	}
	var size gruid.Point
	switch side {
	case geom.Right:
		s.offsets[siteRemote], size = gruid.Point{X: geom.Size}, gruid.Point{X: 2 * geom.Size, Y: geom.Size}
	case geom.Left:
		s.offsets[siteBase], size = gruid.Point{X: geom.Size}, gruid.Point{X: 2 * geom.Size, Y: geom.Size}
	case geom.Bottom:
		s.offsets[siteRemote], size = gruid.Point{Y: geom.Size}, gruid.Point{X: geom.Size, Y: 2 * geom.Size}
	case geom.Top:
		s.offsets[siteBase], size = gruid.Point{Y: geom.Size}, gruid.Point{X: geom.Size, Y: 2 * geom.Size}
	default:
		return nil, fmt.Errorf("%w: %v is not a room side", ErrUnreachableRoom, side)
	}
	s.rg = gruid.NewRange(0, 0, size.X, size.Y)
	for i, site := range s.sites {
		s.objects[i] = mapset.New[geom.Cell]()
		for _, c := range site.Objects {
			s.objects[i].Put(c)
		}
	}
	return s, nil
}

func (s *stitched) point(site int, c geom.Cell) gruid.Point {
	return toPoint(c).Add(s.offsets[site])
}

func (s *stitched) locate(p gruid.Point) (int, geom.Cell) {
	for i, off := range s.offsets {
		q := p.Sub(off)
		if geom.InRoom(q.X, q.Y) {
			return i, toCell(q)
		}
	}
	return -1, geom.Cell{}
}

// onSeam reports whether c lies on the exit edge of its room facing the other
// room, corners excluded.
func onSeam(c geom.Cell, side geom.Direction) bool {
	inner := func(v uint8) bool { return v > 0 && v < geom.Size-1 }
	switch side {
	case geom.Right:
		return c.X == geom.Size-1 && inner(c.Y)
	case geom.Left:
		return c.X == 0 && inner(c.Y)
	case geom.Bottom:
		return c.Y == geom.Size-1 && inner(c.X)
	default:
		return c.Y == 0 && inner(c.X)
	}
}

func (s *stitched) passable(p gruid.Point) bool {
	if !p.In(s.rg) {
		return false
	}
	i, c := s.locate(p)
	site := s.sites[i]
	if c.OnEdge() && !onSeam(c, s.seams[i]) {
		return false
	}
	return site.Terrain.At(int(c.X), int(c.Y)) != terrain.Wall && !s.objects[i].Has(c) && !site.Plan.Blocked(c)
}

func (s *stitched) Neighbors(p gruid.Point) []gruid.Point {
	from, _ := s.locate(p)
	return slices.DeleteFunc(s.nb.All(p, s.passable), func(q gruid.Point) bool {
		to, _ := s.locate(q)
		return to != from && q.X != p.X && q.Y != p.Y
	})
}

func (s *stitched) Cost(_, to gruid.Point) int {
	i, c := s.locate(to)
	switch {
	case s.sites[i].Plan.Has(c, plan.Road):
		return roadCost
	case s.sites[i].Terrain.At(int(c.X), int(c.Y)) == terrain.Swamp:
		return swampCost
	default:
		return plainCost
	}
}

func (s *stitched) Estimation(p, q gruid.Point) int {
	return paths.DistanceChebyshev(p, q) * roadCost
}

// crossable reports whether some seam tile pair is walkable on both sides.
func (s *stitched) crossable() bool {
	dx, dy := s.seams[siteBase].Delta()
	room := geom.Rect{X0: 0, Y0: 0, X1: geom.Size - 1, Y1: geom.Size - 1}
	for _, c := range room.Cells() {
		if !onSeam(c, s.seams[siteBase]) {
			continue
		}
		p := s.point(siteBase, c)
		if s.passable(p) && s.passable(p.Add(gruid.Point{X: dx, Y: dy})) {
			return true
		}
	}
	return false
}

// roadDistances merges the road distance maps of both rooms into stitched coordinates.
func (s *stitched) roadDistances() map[gruid.Point]int {
	out := make(map[gruid.Point]int)
	for i, site := range s.sites {
		for c, d := range site.Plan.RoadDistances() {
			out[s.point(i, c)] = d
		}
	}
	return out
}

type remoteRoute struct {
	container gruid.Point
	path      []gruid.Point // container first, joined road tile last
	joinDist  int
	total     int
}

// bestRoute searches, from every container candidate, the road tile within
// radius minimising road distance plus path cost, and keeps the candidate
// whose road distance plus path length is smallest.
func (s *stitched) bestRoute(pr *paths.PathRange, cands []gruid.Point, targets map[gruid.Point]int, radius int) (remoteRoute, bool) {
	order := make([]gruid.Point, 0, len(targets))
	for t := range targets {
		order = append(order, t)
	}
	slices.SortFunc(order, func(a, b gruid.Point) int { return cmp.Or(cmp.Compare(a.Y, b.Y), cmp.Compare(a.X, b.X)) })

	var best remoteRoute
	found := false
	for _, c := range cands {
		pr.DijkstraMap(s, []gruid.Point{c}, radius)
		join, score := gruid.Point{}, -1
		for _, t := range order {
			cost := pr.DijkstraMapAt(t)
			if cost > radius {
				continue
			}
			if v := targets[t] + cost; score < 0 || v < score {
				join, score = t, v
			}
		}
		if score < 0 {
			continue
		}
		path := pr.AstarPath(s, c, join)
		if len(path) == 0 {
			continue
		}
		r := remoteRoute{container: c, path: path, joinDist: targets[join], total: targets[join] + len(path) - 1}
		if !found || r.total < best.total {
			best, found = r, true
		}
	}
	return best, found
}

// search widens the road-distance band step by step, doubling the scan radius
// whenever a band yields no route.
func (s *stitched) search(ctx context.Context, pr *paths.PathRange, cands []gruid.Point, cfg Config) (remoteRoute, error) {
	dists := s.roadDistances()
	maxDist := 0
	for _, d := range dists {
		maxDist = max(maxDist, d)
	}
	for band := cfg.RemoteBandStep; ; band += cfg.RemoteBandStep {
		targets := make(map[gruid.Point]int)
		for p, d := range dists {
			if d <= band {
				targets[p] = d
			}
		}
		for radius := cfg.RemoteRadius; radius <= cfg.RemoteMaxRadius; radius *= 2 {
			if ctx.Err() != nil {
				return remoteRoute{}, ErrLowCPU
			}
			if r, ok := s.bestRoute(pr, cands, targets, radius); ok {
				return r, nil
			}
		}
		if band >= maxDist {
			return remoteRoute{}, fmt.Errorf("%w: no route within distance %d: %w", ErrRoadPlanFailure, band, ErrRoadConnectionFailure)
		}
	}
}

// commit writes the route into the room plans: a container at its start and
// roads along it, exit tiles excepted.
func (s *stitched) commit(r remoteRoute) {
	dist := r.joinDist
	for i := len(r.path) - 2; i >= 1; i-- {
		site, c := s.locate(r.path[i])
		p := s.sites[site].Plan
		if d, ok := p.RoadDistance(c); ok {
			dist = d
			continue
		}
		dist++
		if c.OnEdge() {
			continue
		}
		p.AddCell(plan.PlannedCell{Pos: c, Structure: plan.Of(plan.Road), Level: remoteLvl})
		p.SetRoadDistance(c, dist)
	}
	site, c := s.locate(r.container)
	s.sites[site].Plan.AddCell(plan.PlannedCell{Pos: c, Structure: plan.Of(plan.Container), Level: remoteLvl})
	s.sites[site].Plan.SetRoadDistance(c, dist+1)
}

// coreRoads returns the distance-0 roads of the base in stitched coordinates.
func (s *stitched) coreRoads() []gruid.Point {
	var core []gruid.Point
	base := s.sites[siteBase].Plan
	for c, d := range base.RoadDistances() {
		if d == 0 && base.Has(c, plan.Road) {
			core = append(core, s.point(siteBase, c))
		}
	}
	slices.SortFunc(core, func(a, b gruid.Point) int { return cmp.Or(cmp.Compare(a.Y, b.Y), cmp.Compare(a.X, b.X)) })
	return core
}

// rankSources orders sources by the path cost from the core roads to their
// nearest free neighbour. Unreachable sources come last, in input order.
func (s *stitched) rankSources(pr *paths.PathRange, core []gruid.Point, sources []geom.Cell) []geom.Cell {
	const maxCost = 2 * maxPathCost
	pr.DijkstraMap(s, core, maxCost)
	cost := make(map[geom.Cell]int, len(sources))
	for _, src := range sources {
		best := maxCost + 1
		for _, c := range src.Neighbors() {
			if p := s.point(siteRemote, c); s.passable(p) {
				best = min(best, pr.DijkstraMapAt(p))
			}
		}
		cost[src] = best
	}
	out := slices.Clone(sources)
	slices.SortStableFunc(out, func(a, b geom.Cell) int { return cmp.Compare(cost[a], cost[b]) })
	return out
}

// PlanRemote extends the base plan with the roads and containers serving the
// sources of a neighbouring room. Sources are handled nearest first; each one
// may connect to roads laid for the previous ones. Nothing is changed unless
// every source connects.
func PlanRemote(ctx context.Context, base Site, req RemoteRequest, cfg Config) (*RemoteResult, error) {
	if req.Remote.Plan != nil && req.Remote.Plan.Len() > 0 {
		return nil, ErrAlreadyCreated
	}
	if req.Suspended {
		return nil, ErrFarmSuspended
	}
	if base.Plan == nil {
		return nil, fmt.Errorf("%w: base %s has no plan", ErrBlueprintCreationFailed, base.Name)
	}

	baseSite, remoteSite := base, req.Remote
	baseSite.Plan = base.Plan.Clone()
	remoteSite.Plan = plan.New()
	remoteSite.Objects = slices.Concat(req.Remote.Objects, req.Sources)

	s, err := newStitched(&baseSite, &remoteSite, req.Side)
	if err != nil {
		return nil, err
	}
	if !s.crossable() {
		return nil, fmt.Errorf("%w: %s to %s", ErrUnreachableRoom, base.Name, req.Remote.Name)
	}

	core := s.coreRoads()
	if len(core) == 0 {
		return nil, fmt.Errorf("%w: base %s has no core roads", ErrBlueprintCreationFailed, base.Name)
	}
	pr := paths.NewPathRange(s.rg)
	sources := s.rankSources(pr, core, req.Sources)
	for _, src := range sources {
		var cands []gruid.Point
		for _, c := range src.Neighbors() {
			p := s.point(siteRemote, c)
			if !c.OnEdge() && s.passable(p) && !remoteSite.Plan.IsOccupied(c) {
				cands = append(cands, p)
			}
		}
		if len(cands) == 0 {
			return nil, fmt.Errorf("%w: source %v in %s", ErrUnreachableResource, src, req.Remote.Name)
		}
		route, err := s.search(ctx, pr, cands, cfg)
		if err != nil {
			return nil, fmt.Errorf("source %v in %s: %w", src, req.Remote.Name, err)
		}
		s.commit(route)
		slog.Debug("remote source connected", "remote", req.Remote.Name, "source", src, "path", len(route.path), "total", route.total)
	}
	return &RemoteResult{Base: baseSite.Plan, Remote: remoteSite.Plan}, nil
}
