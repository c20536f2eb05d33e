package planner

import (
	"cmp"
	"slices"

	"github.com/zyedidia/generic/mapset"

	"github.com/talgya/room-planner/internal/geom"
	"github.com/talgya/room-planner/internal/plan"
)

// freeTiles returns the tiles of tier t with nothing planned on them.
func freeTiles(g *Grid, net *RoadNet, p *plan.Plan, keepOut mapset.Set[geom.Cell], t Part) []geom.Cell {
	return slices.DeleteFunc(g.Cells(t), func(c geom.Cell) bool {
		return keepOut.Has(c) || net.IsRoad(c) || p.IsOccupied(c)
	})
}

// byHubDistance orders cells by range to hub, then taxicab distance, then row-major.
func byHubDistance(hub geom.Cell) func(a, b geom.Cell) int {
	return func(a, b geom.Cell) int {
		return cmp.Or(
			cmp.Compare(geom.Range(a, hub), geom.Range(b, hub)),
			cmp.Compare(geom.Manhattan(a, hub), geom.Manhattan(b, hub)),
			geom.Compare(a, b),
		)
	}
}

// extensionLevel returns the first level whose quota admits the i-th extension.
func extensionLevel(lv Levels, i int) uint8 {
	for l, quota := range lv.ExtensionQuota {
		if i < quota {
			return uint8(l)
		}
	}
	return plan.MaxLevel
}

// PlaceExtensions fills the free green tiles along the roads nearest the hub,
// gating each distance tier to a later level.
func PlaceExtensions(g *Grid, net *RoadNet, cs *CentralSquare, p *plan.Plan, keepOut mapset.Set[geom.Cell], cfg Config) int {
	cands := slices.DeleteFunc(freeTiles(g, net, p, keepOut, PartGreen), func(c geom.Cell) bool {
		return !slices.ContainsFunc(c.Neighbors(), net.IsRoad)
	})
	slices.SortFunc(cands, byHubDistance(cs.Crossroad))
	cands = cands[:min(len(cands), cfg.Extensions)]
	for i, c := range cands {
		p.AddCell(plan.PlannedCell{Pos: c, Structure: plan.Of(plan.Extension), Level: extensionLevel(cfg.Levels, i)})
	}
	return len(cands)
}

// PlaceObserver puts the observer on the free tile farthest from the hub,
// trying green, then yellow, then orange tiles. Ties go to the first tile row-major.
func PlaceObserver(g *Grid, net *RoadNet, cs *CentralSquare, p *plan.Plan, keepOut mapset.Set[geom.Cell], lv Levels) (geom.Cell, error) {
	for _, t := range []Part{PartGreen, PartYellow, PartOrange} {
		cands := freeTiles(g, net, p, keepOut, t)
		if len(cands) == 0 {
			continue
		}
		c := slices.MaxFunc(cands, func(a, b geom.Cell) int {
			return cmp.Or(
				cmp.Compare(geom.Range(a, cs.Crossroad), geom.Range(b, cs.Crossroad)),
				cmp.Compare(geom.Manhattan(a, cs.Crossroad), geom.Manhattan(b, cs.Crossroad)),
			)
		})
		p.AddCell(plan.PlannedCell{Pos: c, Structure: plan.Of(plan.Observer), Level: lv.Observer})
		return c, nil
	}
	return geom.Cell{}, ErrStructurePlacement
}
