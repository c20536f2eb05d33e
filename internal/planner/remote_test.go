package planner

import (
	"context"
	"testing"

	"codeberg.org/anaseto/gruid/paths"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/room-planner/internal/geom"
	"github.com/talgya/room-planner/internal/plan"
	"github.com/talgya/room-planner/internal/terrain"
)

func baseSite(t *testing.T) Site {
	t.Helper()
	in := openInput()
	res, err := PlanRoom(t.Context(), in, DefaultConfig())
	require.NoError(t, err)
	return Site{Name: in.Name, Terrain: in.Terrain, Plan: res.Plan, Objects: in.Objects()}
}

func remoteRequest(room *terrain.Room) RemoteRequest {
	ctrl := geom.MustCell(25, 25)
	return RemoteRequest{
		Remote:  Site{Name: room.Name, Terrain: room, Objects: []geom.Cell{ctrl}},
		Side:    geom.Right,
		Sources: []geom.Cell{geom.MustCell(10, 30), geom.MustCell(35, 8)},
	}
}

func TestPlanRemote(t *testing.T) {
	base := baseSite(t)
	before := base.Plan.Len()

	res, err := PlanRemote(t.Context(), base, remoteRequest(terrain.NewRoom("W2N1")), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, before, base.Plan.Len(), "input plan untouched")
	assert.Greater(t, res.Base.Len(), before, "roads reach the exit")

	containers := res.Remote.Containers()
	require.Len(t, containers, 2)
	for _, src := range []geom.Cell{geom.MustCell(10, 30), geom.MustCell(35, 8)} {
		near := false
		for _, c := range containers {
			near = near || geom.Range(c, src) == 1
		}
		assert.True(t, near, "no container next to %v", src)
	}
	for _, c := range containers {
		d, ok := res.Remote.RoadDistance(c)
		require.True(t, ok)
		assert.Positive(t, d)
	}
	for _, r := range res.Remote.Roads() {
		assert.False(t, r.OnEdge())
		d, ok := res.Remote.RoadDistance(r)
		require.True(t, ok)
		assert.Positive(t, d)
	}
	for c := range res.Base.All() {
		if c.Structure.Kind == plan.Road {
			_, ok := res.Base.RoadDistance(c.Pos)
			assert.True(t, ok, "base road %v has no distance", c.Pos)
		}
	}
}

// A source just across the seam but deep in a swamp ranks behind a farther
// source on plain ground.
func TestRankSourcesByPathCost(t *testing.T) {
	base := baseSite(t)
	room := terrain.NewRoom("W2N1")
	room.Fill(geom.Rect{X0: 1, Y0: 3, X1: 8, Y1: 17}, terrain.Swamp)
	boggy, dry := geom.MustCell(5, 10), geom.MustCell(11, 3)
	remote := Site{Name: room.Name, Terrain: room, Plan: plan.New(), Objects: []geom.Cell{boggy, dry}}

	s, err := newStitched(&base, &remote, geom.Right)
	require.NoError(t, err)
	core := s.coreRoads()
	require.NotEmpty(t, core)

	nearest := func(c geom.Cell) int {
		best := -1
		for _, q := range core {
			if d := paths.DistanceChebyshev(s.point(siteRemote, c), q); best < 0 || d < best {
				best = d
			}
		}
		return best
	}
	require.Less(t, nearest(boggy), nearest(dry), "boggy source is closer as the crow flies")

	pr := paths.NewPathRange(s.rg)
	assert.Equal(t, []geom.Cell{dry, boggy}, s.rankSources(pr, core, []geom.Cell{boggy, dry}))
}

func TestPlanRemoteErrors(t *testing.T) {
	base := baseSite(t)
	cfg := DefaultConfig()

	req := remoteRequest(terrain.NewRoom("W2N1"))
	req.Suspended = true
	_, err := PlanRemote(t.Context(), base, req, cfg)
	assert.ErrorIs(t, err, ErrFarmSuspended)

	req = remoteRequest(terrain.NewRoom("W2N1"))
	req.Remote.Plan = plan.New()
	req.Remote.Plan.AddCell(plan.PlannedCell{Pos: geom.MustCell(5, 5), Structure: plan.Of(plan.Road)})
	_, err = PlanRemote(t.Context(), base, req, cfg)
	assert.ErrorIs(t, err, ErrAlreadyCreated)

	sealed := terrain.NewRoom("W2N1")
	sealed.Fill(geom.Rect{X0: 0, Y0: 0, X1: 0, Y1: 49}, terrain.Wall)
	_, err = PlanRemote(t.Context(), base, remoteRequest(sealed), cfg)
	assert.ErrorIs(t, err, ErrUnreachableRoom)

	boxed := terrain.NewRoom("W2N1")
	boxed.Fill(geom.Rect{X0: 9, Y0: 29, X1: 11, Y1: 31}, terrain.Wall)
	boxed.Set(geom.MustCell(10, 30), terrain.Plain)
	_, err = PlanRemote(t.Context(), base, remoteRequest(boxed), cfg)
	assert.ErrorIs(t, err, ErrUnreachableResource)

	enclosed := terrain.NewRoom("W2N1")
	enclosed.Fill(geom.Rect{X0: 7, Y0: 27, X1: 13, Y1: 33}, terrain.Wall)
	enclosed.Fill(geom.Rect{X0: 8, Y0: 28, X1: 12, Y1: 32}, terrain.Plain)
	_, err = PlanRemote(t.Context(), base, remoteRequest(enclosed), cfg)
	assert.ErrorIs(t, err, ErrRoadPlanFailure)
	assert.ErrorIs(t, err, ErrRoadConnectionFailure)

	req = remoteRequest(terrain.NewRoom("W2N1"))
	req.Side = geom.TopRight
	_, err = PlanRemote(t.Context(), base, req, cfg)
	assert.ErrorIs(t, err, ErrUnreachableRoom)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = PlanRemote(ctx, base, remoteRequest(terrain.NewRoom("W2N1")), cfg)
	assert.ErrorIs(t, err, ErrLowCPU)
}

func TestPlanRemoteOtherSides(t *testing.T) {
	base := baseSite(t)
	for _, side := range []geom.Direction{geom.Left, geom.Top, geom.Bottom} {
		req := remoteRequest(terrain.NewRoom("W2N1"))
		req.Side = side
		res, err := PlanRemote(t.Context(), base, req, DefaultConfig())
		require.NoError(t, err, "side %v", side)
		assert.Len(t, res.Remote.Containers(), 2, "side %v", side)
	}
}
