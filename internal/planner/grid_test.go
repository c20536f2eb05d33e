package planner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/room-planner/internal/geom"
	"github.com/talgya/room-planner/internal/plan"
	"github.com/talgya/room-planner/internal/terrain"
)

func TestClassifyTiers(t *testing.T) {
	room := terrain.NewRoom("tiers")
	room.Set(geom.MustCell(20, 20), terrain.Wall)
	walls := terrain.NewWallMap(room)
	per := WalkBorder(walls, geom.Rect{X0: 10, Y0: 10, X1: 30, Y1: 30}, 2)
	g, err := Classify(walls, per)
	require.NoError(t, err)

	cases := map[geom.Cell]Part{
		geom.MustCell(20, 20): PartWall,
		geom.MustCell(0, 5):   PartExit,
		geom.MustCell(5, 5):   PartRed,
		geom.MustCell(10, 15): PartProtected,
		geom.MustCell(11, 15): PartOrange,
		geom.MustCell(12, 15): PartYellow,
		geom.MustCell(13, 15): PartGreen,
		geom.MustCell(27, 27): PartGreen,
		geom.MustCell(29, 28): PartOrange,
	}
	for c, want := range cases {
		assert.Equal(t, want, g.At(c), "tile %v", c)
	}
	assert.Len(t, g.Cells(PartGreen), 15*15-1)
	assert.Len(t, g.Cells(PartProtected), 80)
}

func TestClassifyRejectsOpenTileOnWalk(t *testing.T) {
	walls := terrain.NewWallMap(terrain.NewRoom("open"))
	per := WalkBorder(walls, geom.Rect{X0: 10, Y0: 10, X1: 30, Y1: 30}, 2)
	per.Border = append(per.Border, geom.MustCell(20, 20))

	_, err := Classify(walls, per)
	assert.ErrorIs(t, err, ErrGridCreationFailed)
}

func TestClassifyIsTerrainOnly(t *testing.T) {
	in := openInput()
	res, err := PlanRoom(t.Context(), in, DefaultConfig())
	require.NoError(t, err)

	walls := terrain.NewWallMap(in.Terrain)
	again, err := Classify(walls, res.Perimeter)
	require.NoError(t, err)
	assert.Equal(t, again.Render(), res.Grid.Render(), "planning leaves the grid untouched")
}

func TestOverlayAndRender(t *testing.T) {
	_, g := openGrid(t, geom.Rect{X0: 10, Y0: 10, X1: 30, Y1: 30})
	p := plan.New()
	p.AddCell(plan.PlannedCell{Pos: geom.MustCell(20, 20), Structure: plan.Of(plan.Road)})
	p.AddCell(plan.PlannedCell{Pos: geom.MustCell(21, 20), Structure: plan.Of(plan.Road)})
	p.AddCell(plan.PlannedCell{Pos: geom.MustCell(21, 20), Structure: plan.Of(plan.Tower)})
	p.AddCell(plan.PlannedCell{Pos: geom.MustCell(10, 20), Structure: plan.Of(plan.Rampart)})

	o := g.Overlay(p)
	assert.Equal(t, PartRoad, o.At(geom.MustCell(20, 20)))
	assert.Equal(t, PartStructure, o.At(geom.MustCell(21, 20)))
	assert.Equal(t, PartProtected, o.At(geom.MustCell(10, 20)))
	assert.Equal(t, PartGreen, g.At(geom.MustCell(20, 20)), "overlay copies")

	rows := o.Render()
	require.Len(t, rows, geom.Size)
	assert.True(t, strings.HasPrefix(rows[20][10:], "POYGGGGGGG+S"), rows[20])
	assert.Equal(t, byte('E'), rows[0][0])
}
