package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/room-planner/internal/geom"
	"github.com/talgya/room-planner/internal/plan"
	"github.com/talgya/room-planner/internal/terrain"
)

func TestChooseSpacedBacktracks(t *testing.T) {
	a, b, c, d := geom.MustCell(12, 10), geom.MustCell(10, 10), geom.MustCell(14, 10), geom.MustCell(10, 14)

	got, ok := chooseSpaced([]geom.Cell{a, b, c, d}, nil, 3, 2)
	require.True(t, ok)
	assert.Equal(t, []geom.Cell{b, c, d}, got, "greedy start at a dead-ends")

	got, ok = chooseSpaced([]geom.Cell{a, b, c, d}, []geom.Cell{geom.MustCell(11, 12)}, 1, 2)
	require.True(t, ok)
	assert.Equal(t, []geom.Cell{c}, got, "fixed spawn counts for spacing")

	_, ok = chooseSpaced([]geom.Cell{a, b, c}, nil, 3, 2)
	assert.False(t, ok)

	got, ok = chooseSpaced(nil, nil, 0, 2)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestBestSpacedSubset(t *testing.T) {
	cands := []scoredCell{
		{geom.MustCell(10, 10), 10},
		{geom.MustCell(12, 10), 9},
		{geom.MustCell(8, 10), 9},
		{geom.MustCell(30, 30), 1},
	}
	assert.Equal(t, []geom.Cell{geom.MustCell(12, 10), geom.MustCell(8, 10)}, bestSpacedSubset(cands, 2, 3))
	assert.Equal(t, []geom.Cell{geom.MustCell(10, 10)}, bestSpacedSubset(cands, 1, 3))
	assert.Len(t, bestSpacedSubset(cands, 6, 3), 3, "at most three fit")
	assert.Empty(t, bestSpacedSubset(nil, 6, 3))
}

func TestExtensionLevels(t *testing.T) {
	lv := DefaultLevels()
	cases := map[int]uint8{0: 2, 4: 2, 5: 3, 9: 3, 10: 4, 19: 4, 20: 5, 49: 7, 50: 8, 59: 8}
	for i, want := range cases {
		assert.Equal(t, want, extensionLevel(lv, i), "extension %d", i)
	}
}

func TestPlaceRampartsRejectsExit(t *testing.T) {
	per, g := openGrid(t, geom.Rect{X0: 10, Y0: 10, X1: 30, Y1: 30})
	p := plan.New()
	require.NoError(t, PlaceRamparts(g, per, p, DefaultLevels()))
	assert.Len(t, p.Perimeter(), len(per.Barrier))

	bad := &Perimeter{Rect: per.Rect, Border: per.Border, Barrier: append([]geom.Cell{geom.MustCell(0, 20)}, per.Barrier...)}
	assert.ErrorIs(t, PlaceRamparts(g, bad, plan.New(), DefaultLevels()), ErrRampartPlacement)
}

func TestPlaceTowersCoverPerimeter(t *testing.T) {
	per, g := openGrid(t, geom.Rect{X0: 10, Y0: 10, X1: 30, Y1: 30})
	p := plan.New()
	cfg := DefaultConfig()
	towers := PlaceTowers(g, per, p, cellSet(), cfg)
	require.Len(t, towers, cfg.Towers)

	for i, a := range towers {
		assert.Equal(t, PartYellow, g.At(a))
		for _, b := range towers[i+1:] {
			assert.Greater(t, geom.Range(a, b), cfg.TowerSpacing)
		}
	}
	levels := make([]uint8, 0, len(towers))
	for _, c := range p.ByKind(plan.Tower) {
		levels = append(levels, c.Level)
	}
	assert.ElementsMatch(t, cfg.Levels.Towers, levels)
}

func TestReserveResourceTiles(t *testing.T) {
	per, _ := openGrid(t, geom.Rect{X0: 11, Y0: 2, X1: 29, Y1: 21})
	room := terrain.NewRoom("W1N1")
	room.Fill(geom.Rect{X0: 28, Y0: 28, X1: 32, Y1: 32}, terrain.Wall)
	for _, c := range []geom.Cell{geom.MustCell(30, 30), geom.MustCell(31, 30), geom.MustCell(32, 30)} {
		room.Set(c, terrain.Plain)
	}
	ctrl := geom.MustCell(15, 15)
	mineral := geom.MustCell(10, 10)
	in := Input{
		Name:       "W1N1",
		Terrain:    room,
		Controller: &ctrl,
		Sources:    []geom.Cell{geom.MustCell(30, 30)},
		Mineral:    &mineral,
	}

	got := reserveResourceTiles(room, per, in)
	for _, c := range ctrl.Neighbors() {
		assert.True(t, got.Has(c), "controller ring %v", c)
	}
	// The single opening next to the source keeps its way out.
	assert.True(t, got.Has(geom.MustCell(31, 30)))
	assert.True(t, got.Has(geom.MustCell(32, 30)))
	assert.False(t, got.Has(geom.MustCell(33, 30)))
	assert.False(t, got.Has(geom.MustCell(30, 30)))
	// Border tiles are left to the ramparts, and the mineral gets no link room.
	assert.True(t, got.Has(geom.MustCell(9, 10)))
	assert.True(t, got.Has(geom.MustCell(10, 9)))
	assert.False(t, got.Has(geom.MustCell(11, 10)))
	assert.False(t, got.Has(geom.MustCell(8, 10)))
	assert.Equal(t, 8+2+5, got.Size())
}
