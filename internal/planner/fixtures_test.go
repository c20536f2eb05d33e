package planner

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zyedidia/generic/mapset"

	"github.com/talgya/room-planner/internal/geom"
	"github.com/talgya/room-planner/internal/terrain"
)

// openInput is an all-plain room with one source just east of where the
// smallest perimeter lands.
func openInput() Input {
	ctrl := geom.MustCell(40, 40)
	mineral := geom.MustCell(10, 10)
	return Input{
		Name:       "W1N1",
		Terrain:    terrain.NewRoom("W1N1"),
		Controller: &ctrl,
		Sources:    []geom.Cell{geom.MustCell(30, 15), geom.MustCell(8, 40)},
		Mineral:    &mineral,
	}
}

// openGrid classifies an all-plain room around rect.
func openGrid(t *testing.T, rect geom.Rect) (*Perimeter, *Grid) {
	t.Helper()
	walls := terrain.NewWallMap(terrain.NewRoom("open"))
	per := WalkBorder(walls, rect, DefaultConfig().CutDepth)
	g, err := Classify(walls, per)
	require.NoError(t, err)
	return per, g
}

func cellSet(cells ...geom.Cell) mapset.Set[geom.Cell] {
	s := mapset.New[geom.Cell]()
	for _, c := range cells {
		s.Put(c)
	}
	return s
}

// requireClosedWalk checks that consecutive cells (wrapping) are 4-adjacent
// and no cell repeats.
func requireClosedWalk(t *testing.T, walk []geom.Cell) {
	t.Helper()
	require.NotEmpty(t, walk)
	seen := mapset.New[geom.Cell]()
	for i, c := range walk {
		require.False(t, seen.Has(c), "cell %v repeats", c)
		seen.Put(c)
		next := walk[(i+1)%len(walk)]
		require.Equal(t, 1, geom.Manhattan(c, next), "%v -> %v", c, next)
	}
}
