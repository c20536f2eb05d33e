package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/room-planner/internal/geom"
	"github.com/talgya/room-planner/internal/terrain"
)

func TestSmallestPerimeterOpenRoom(t *testing.T) {
	in := openInput()
	walls := terrain.NewWallMap(in.Terrain)
	rect, err := SmallestPerimeter(walls, nil, in.Sources, in.Objects(), DefaultConfig())
	require.NoError(t, err)

	// 13x14 core, first position (row-major) with a source within range 1.
	assert.Equal(t, geom.Rect{X0: 11, Y0: 2, X1: 29, Y1: 21}, rect)
	core := rect.Shrink(DefaultConfig().Margin)
	assert.Equal(t, 13, core.Width())
	assert.Equal(t, 14, core.Height())
}

func TestSmallestPerimeterRespectsSpawn(t *testing.T) {
	in := openInput()
	walls := terrain.NewWallMap(in.Terrain)
	spawn := geom.MustCell(25, 30)
	rect, err := SmallestPerimeter(walls, &spawn, in.Sources, in.Objects(), DefaultConfig())
	require.NoError(t, err)
	assert.True(t, rect.Shrink(DefaultConfig().Margin).Contains(spawn))
	assert.True(t, nearAny(rect, in.Sources))
}

func TestSmallestPerimeterAvoidsObjectsOnEdge(t *testing.T) {
	in := openInput()
	walls := terrain.NewWallMap(in.Terrain)
	rect, err := SmallestPerimeter(walls, nil, in.Sources, in.Objects(), DefaultConfig())
	require.NoError(t, err)
	for _, c := range in.Objects() {
		assert.False(t, rect.Contains(c) && !rect.StrictlyContains(c), "%v on the perimeter", c)
	}
}

func TestSmallestPerimeterFails(t *testing.T) {
	room := terrain.NewRoom("rock")
	room.Fill(geom.Rect{X0: 0, Y0: 0, X1: 49, Y1: 49}, terrain.Wall)
	room.Fill(geom.Rect{X0: 10, Y0: 10, X1: 20, Y1: 20}, terrain.Plain)
	walls := terrain.NewWallMap(room)

	_, err := SmallestPerimeter(walls, nil, []geom.Cell{geom.MustCell(15, 15)}, nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrPerimeterCreationFailed)

	_, err = SmallestPerimeter(terrain.NewWallMap(terrain.NewRoom("open")), nil, nil, nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrPerimeterCreationFailed, "no source to anchor on")
}

func TestWalkBorderOpenRect(t *testing.T) {
	rect := geom.Rect{X0: 10, Y0: 10, X1: 30, Y1: 30}
	per := WalkBorder(terrain.NewWallMap(terrain.NewRoom("open")), rect, 2)

	requireClosedWalk(t, per.Border)
	assert.Len(t, per.Border, 80)
	assert.Empty(t, per.Natural)
	assert.Equal(t, per.Border, per.Barrier)
	assert.Equal(t, geom.MustCell(20, 10), per.Border[0], "starts mid top")
	assert.Equal(t, geom.MustCell(21, 10), per.Border[1], "clockwise")
}

func TestWalkBorderCutsCorner(t *testing.T) {
	room := terrain.NewRoom("cut")
	room.Fill(geom.Rect{X0: 10, Y0: 10, X1: 25, Y1: 10}, terrain.Wall)
	room.Set(geom.MustCell(25, 11), terrain.Wall)
	room.Fill(geom.Rect{X0: 26, Y0: 11, X1: 30, Y1: 11}, terrain.Wall)
	walls := terrain.NewWallMap(room)

	per := WalkBorder(walls, geom.Rect{X0: 10, Y0: 10, X1: 30, Y1: 30}, 2)
	requireClosedWalk(t, per.Border)

	for x := 26; x <= 30; x++ {
		assert.False(t, per.IsBorder(geom.MustCell(x, 10)), "(%d,10) cut off", x)
	}
	assert.Contains(t, per.Natural, geom.MustCell(25, 11))
	assert.Contains(t, per.Natural, geom.MustCell(30, 11))
	assert.Contains(t, per.Barrier, geom.MustCell(30, 12))

	for _, c := range per.Natural {
		assert.True(t, walls.IsWall(c), "natural %v is a wall", c)
	}
	for _, c := range per.Barrier {
		assert.False(t, walls.IsWall(c), "barrier %v is open", c)
	}
	assert.Len(t, per.Border, len(per.Natural)+len(per.Barrier))

	g, err := Classify(walls, per)
	require.NoError(t, err)
	assert.Equal(t, PartRed, g.At(geom.MustCell(28, 10)))
	assert.Equal(t, PartOrange, g.At(geom.MustCell(28, 12)))
}

func TestWalkBorderNeedsWallsForCut(t *testing.T) {
	room := terrain.NewRoom("nocut")
	room.Fill(geom.Rect{X0: 10, Y0: 10, X1: 25, Y1: 10}, terrain.Wall)
	room.Set(geom.MustCell(25, 11), terrain.Wall)
	room.Fill(geom.Rect{X0: 26, Y0: 11, X1: 28, Y1: 11}, terrain.Wall) // gap before the side
	walls := terrain.NewWallMap(room)

	per := WalkBorder(walls, geom.Rect{X0: 10, Y0: 10, X1: 30, Y1: 30}, 2)
	requireClosedWalk(t, per.Border)
	assert.True(t, per.IsBorder(geom.MustCell(28, 10)))
	assert.Contains(t, per.Barrier, geom.MustCell(28, 10))
}
