package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zyedidia/generic/mapset"

	"github.com/talgya/room-planner/internal/geom"
)

func TestRoadConfigsDistinct(t *testing.T) {
	cfgs := RoadConfigs()
	require.Len(t, cfgs, 8)
	seen := map[RoadConfig]bool{}
	for _, rc := range cfgs {
		assert.False(t, seen[rc])
		seen[rc] = true
	}
}

func TestRenderRoadsOnGreenOnly(t *testing.T) {
	_, g := openGrid(t, geom.Rect{X0: 10, Y0: 10, X1: 30, Y1: 30})
	keep := geom.MustCell(20, 20)
	for _, rc := range RoadConfigs() {
		n := RenderRoads(g, rc, cellSet(keep))
		require.NotNil(t, n)
		for _, c := range n.Cells {
			assert.Equal(t, PartGreen, g.At(c), "%v road %v", rc, c)
		}
		assert.False(t, n.IsRoad(keep), "%v", rc)
	}
}

func TestSquaresAreFramedByRoads(t *testing.T) {
	_, g := openGrid(t, geom.Rect{X0: 10, Y0: 10, X1: 30, Y1: 30})
	n := RenderRoads(g, RoadConfig{Phase: 1}, mapset.New[geom.Cell]())
	require.NotNil(t, n)

	rounded := 0
	for _, sq := range n.Squares {
		assert.False(t, n.IsRoad(sq.Center))
		for _, s := range sq.Sides {
			assert.True(t, n.IsRoad(s))
		}
		for _, c := range sq.Cells()[1:] {
			assert.False(t, n.IsRoad(c), "arm %v of %v", c, sq.Center)
		}
		if sq.Rounded() {
			rounded++
			assert.Empty(t, sq.Missing())
		}
		got, ok := n.SquareAt(sq.Center)
		require.True(t, ok)
		assert.Equal(t, sq.Center, got.Center)
	}
	assert.Positive(t, rounded)
}

func TestSynthesizeRoadsPicksFirstBest(t *testing.T) {
	_, g := openGrid(t, geom.Rect{X0: 11, Y0: 2, X1: 29, Y1: 21})
	keepOut := cellSet(geom.MustCell(16, 9))

	best, err := SynthesizeRoads(g, keepOut)
	require.NoError(t, err)

	var want RoadConfig
	top := -1
	for _, rc := range RoadConfigs() {
		n := RenderRoads(g, rc, keepOut)
		require.NotNil(t, n)
		assert.LessOrEqual(t, n.Rank, best.Rank, "%v", rc)
		if n.Rank > top {
			want, top = rc, n.Rank
		}
	}
	assert.Equal(t, want, best.Config)
	assert.Equal(t, top, best.Rank)
}

func TestSynthesizeRoadsWithoutGreen(t *testing.T) {
	_, g := openGrid(t, geom.Rect{X0: 10, Y0: 10, X1: 15, Y1: 15})
	require.Empty(t, g.Cells(PartGreen))
	_, err := SynthesizeRoads(g, mapset.New[geom.Cell]())
	assert.ErrorIs(t, err, ErrRoadPlanFailure)
}
