package planner

import (
	"fmt"
	"slices"

	"github.com/zyedidia/generic/mapset"

	"github.com/talgya/room-planner/internal/geom"
	"github.com/talgya/room-planner/internal/plan"
)

// PlaceRamparts plans a rampart on every barrier tile of the perimeter.
func PlaceRamparts(g *Grid, per *Perimeter, p *plan.Plan, lv Levels) error {
	for _, c := range per.Barrier {
		if c.OnEdge() || g.At(c) != PartProtected {
			return fmt.Errorf("%w: %v", ErrRampartPlacement, c)
		}
		p.AddCell(plan.PlannedCell{Pos: c, Structure: plan.Of(plan.Rampart), Level: lv.Rampart})
	}
	return nil
}

type scoredCell struct {
	cell  geom.Cell
	score int
}

// towerCandidates scores the free yellow tiles by the number of exposed tiles
// (outside tiles touching a rampart) within reach.
func towerCandidates(g *Grid, per *Perimeter, p *plan.Plan, keepOut mapset.Set[geom.Cell], cfg Config) []scoredCell {
	barrier := mapset.New[geom.Cell]()
	for _, c := range per.Barrier {
		barrier.Put(c)
	}
	var exposed []geom.Cell
	for _, c := range g.Cells(PartRed) {
		if slices.ContainsFunc(c.Neighbors(), barrier.Has) {
			exposed = append(exposed, c)
		}
	}

	var out []scoredCell
	for _, c := range g.Cells(PartYellow) {
		if keepOut.Has(c) || p.IsOccupied(c) {
			continue
		}
		n := 0
		for _, e := range exposed {
			if geom.Range(c, e) <= cfg.TowerReach {
				n++
			}
		}
		if n > 0 {
			out = append(out, scoredCell{c, n})
		}
	}
	slices.SortStableFunc(out, func(a, b scoredCell) int { return b.score - a.score })
	return out[:min(len(out), cfg.TowerCandidates)]
}

// bestSpacedSubset returns up to k candidates, pairwise farther apart than
// spacing, with the largest total score. cands must be sorted by descending
// score. Branches whose optimistic total cannot beat the best are cut.
func bestSpacedSubset(cands []scoredCell, k, spacing int) []geom.Cell {
	prefix := make([]int, len(cands)+1)
	for i, c := range cands {
		prefix[i+1] = prefix[i] + c.score
	}
	bound := func(i, slots int) int { return prefix[min(i+slots, len(cands))] - prefix[i] }

	type frame struct{ next, score int }
	var chosen, best []int
	bestScore := 0
	stack := []frame{{}}
	for len(stack) > 0 {
		top := len(stack) - 1
		f := stack[top]
		if top == k || f.next >= len(cands) || f.score+bound(f.next, k-top) <= bestScore {
			stack = stack[:top]
			if top > 0 {
				chosen = chosen[:top-1]
				stack[top-1].next++
			}
			continue
		}
		i := f.next
		fits := true
		for _, j := range chosen {
			if geom.Range(cands[i].cell, cands[j].cell) <= spacing {
				fits = false
				break
			}
		}
		if !fits {
			stack[top].next++
			continue
		}
		chosen = append(chosen, i)
		s := f.score + cands[i].score
		if s > bestScore {
			bestScore, best = s, slices.Clone(chosen)
		}
		stack = append(stack, frame{next: i + 1, score: s})
	}

	out := make([]geom.Cell, len(best))
	for n, i := range best {
		out[n] = cands[i].cell
	}
	return out
}

// PlaceTowers plans the towers covering the most exposed perimeter.
func PlaceTowers(g *Grid, per *Perimeter, p *plan.Plan, keepOut mapset.Set[geom.Cell], cfg Config) []geom.Cell {
	towers := bestSpacedSubset(towerCandidates(g, per, p, keepOut, cfg), cfg.Towers, cfg.TowerSpacing)
	for i, c := range towers {
		p.AddCell(plan.PlannedCell{Pos: c, Structure: plan.Of(plan.Tower), Level: nth(cfg.Levels.Towers, i)})
	}
	return towers
}
