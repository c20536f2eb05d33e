package planner

import (
	"slices"

	"github.com/zyedidia/generic/mapset"

	"github.com/talgya/room-planner/internal/geom"
	"github.com/talgya/room-planner/internal/plan"
)

// spawnCandidates lists the plot tiles of the squares nearest to the spawn
// search centre, square by square, centre tile first.
func spawnCandidates(g *Grid, net *RoadNet, cs *CentralSquare, p *plan.Plan, keepOut mapset.Set[geom.Cell], cfg Config) []geom.Cell {
	shifted := cs.Crossroad
	for range cfg.SpawnShift {
		if n, ok := shifted.Step(cs.Guide); ok {
			shifted = n
		}
	}
	reserved := cs.Reserved()

	squares := slices.DeleteFunc(slices.Clone(net.Squares), func(sq Square) bool {
		return reserved.Has(sq.Center)
	})
	slices.SortStableFunc(squares, func(a, b Square) int {
		return geom.Range(a.Center, shifted) - geom.Range(b.Center, shifted)
	})
	squares = squares[:min(len(squares), cfg.SpawnSquares)]

	var out []geom.Cell
	for _, sq := range squares {
		for _, c := range sq.Cells() {
			if plotFree(g, keepOut, c) && !net.IsRoad(c) && !p.IsOccupied(c) && !reserved.Has(c) {
				out = append(out, c)
			}
		}
	}
	return out
}

// chooseSpaced picks need cells from cands, in candidate order, so that every
// pair (including the fixed cells) is farther apart than spacing. It returns
// the first complete assignment found by depth-first search.
func chooseSpaced(cands, fixed []geom.Cell, need, spacing int) ([]geom.Cell, bool) {
	if need <= 0 {
		return nil, true
	}
	spaced := func(c geom.Cell, chosen []geom.Cell) bool {
		for _, o := range fixed {
			if geom.Range(c, o) <= spacing {
				return false
			}
		}
		for _, o := range chosen {
			if geom.Range(c, o) <= spacing {
				return false
			}
		}
		return true
	}

	// stack[d] is the next candidate index to try at depth d; len(chosen) == len(stack)-1.
	stack := []int{0}
	var chosen []geom.Cell
	for len(stack) > 0 {
		top := len(stack) - 1
		i := stack[top]
		if i >= len(cands) {
			stack = stack[:top]
			if top > 0 {
				chosen = chosen[:top-1]
				stack[top-1]++
			}
			continue
		}
		if !spaced(cands[i], chosen) {
			stack[top]++
			continue
		}
		chosen = append(chosen, cands[i])
		if len(chosen) == need {
			return chosen, true
		}
		stack = append(stack, i+1)
	}
	return nil, false
}

// PlaceSpawns plans the spawns still missing next to the hub. An existing
// spawn is planned at level 0 and counts towards the total.
func PlaceSpawns(g *Grid, net *RoadNet, cs *CentralSquare, p *plan.Plan, keepOut mapset.Set[geom.Cell], existing *geom.Cell, cfg Config) error {
	var fixed []geom.Cell
	if existing != nil {
		fixed = append(fixed, *existing)
		p.AddCell(plan.PlannedCell{Pos: *existing, Structure: plan.Of(plan.Spawn), Level: 0})
	}
	need := cfg.Spawns - len(fixed)
	chosen, ok := chooseSpaced(spawnCandidates(g, net, cs, p, keepOut, cfg), fixed, need, cfg.SpawnSpacing)
	if !ok {
		return ErrSpawnPlaceNotFound
	}
	for i, c := range chosen {
		p.AddCell(plan.PlannedCell{Pos: c, Structure: plan.Of(plan.Spawn), Level: nth(cfg.Levels.Spawns, i+len(fixed))})
	}
	return nil
}
