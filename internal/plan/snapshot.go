package plan

import (
	"slices"
	"strings"

	"github.com/talgya/room-planner/internal/geom"
)

// RoadDist is one entry of the road distance map.
type RoadDist struct {
	Pos  geom.Cell `json:"pos"`
	Dist int       `json:"dist"`
}

// Snapshot is the exported, order-stable form of a Plan, used for storage,
// the API and comparisons.
type Snapshot struct {
	BuiltLvl  uint8         `json:"built_lvl"`
	Cells     []PlannedCell `json:"cells"`
	RoadDist  []RoadDist    `json:"road_dist"`
	Workplace *geom.Cell    `json:"pc_workplace,omitempty"`
}

// Snapshot exports the plan.
func (p *Plan) Snapshot() Snapshot {
	s := Snapshot{
		BuiltLvl: p.builtLvl,
		Cells:    p.Cells(),
	}
	for c, d := range p.roadDist {
		s.RoadDist = append(s.RoadDist, RoadDist{Pos: c, Dist: d})
	}
	slices.SortFunc(s.RoadDist, func(a, b RoadDist) int { return geom.Compare(a.Pos, b.Pos) })
	if p.hasWorkplace {
		w := p.workplace
		s.Workplace = &w
	}
	return s
}

// FromSnapshot rebuilds a plan from its exported form.
func FromSnapshot(s Snapshot) *Plan {
	p := New()
	for _, c := range s.Cells {
		p.AddCell(c)
	}
	for _, rd := range s.RoadDist {
		p.roadDist[rd.Pos] = rd.Dist
	}
	p.builtLvl = min(s.BuiltLvl, MaxLevel)
	if s.Workplace != nil {
		p.SetPCWorkplace(*s.Workplace)
	}
	return p
}

var glyphs = map[Kind]byte{
	Spawn: 'S', Extension: 'e', Road: '+', Wall: 'W', Rampart: 'R', Link: 'L',
	Storage: 'T', Tower: 'A', Observer: 'O', PowerSpawn: 'P', Extractor: 'X',
	Lab: 'b', Terminal: 'M', Container: 'C', Nuker: 'N', Factory: 'F',
}

// Render draws the plan as text, one string per row. Where several structures
// share a tile the highest kind wins. Empty tiles are taken from base.
func (p *Plan) Render(base []string) []string {
	rows := make([][]byte, geom.Size)
	for y := range rows {
		rows[y] = []byte(strings.Repeat(" ", geom.Size))
		if y < len(base) {
			copy(rows[y], base[y])
		}
	}
	for c := range p.All() {
		rows[c.Pos.Y][c.Pos.X] = glyphs[c.Structure.Kind]
	}
	out := make([]string, geom.Size)
	for y, r := range rows {
		out[y] = string(r)
	}
	return out
}
