package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/room-planner/internal/geom"
	"github.com/talgya/room-planner/internal/plan"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "plans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func samplePlan() *plan.Plan {
	p := plan.New()
	p.AddCell(plan.PlannedCell{Pos: geom.MustCell(10, 10), Structure: plan.Of(plan.Storage), Level: 4})
	p.AddCell(plan.PlannedCell{Pos: geom.MustCell(11, 10), Structure: plan.LinkOf(plan.LinkSender, 0), Level: 5})
	p.AddCell(plan.PlannedCell{Pos: geom.MustCell(12, 12), Structure: plan.LabOf(plan.LabBoost), Level: 8})
	p.AddCell(plan.PlannedCell{Pos: geom.MustCell(9, 9), Structure: plan.Structure{Kind: plan.Container, Of: 1}, Level: 2, Until: 6})
	p.AddCell(plan.PlannedCell{Pos: geom.MustCell(9, 10), Structure: plan.Of(plan.Road), Level: 3})
	p.AddCell(plan.PlannedCell{Pos: geom.MustCell(9, 10), Structure: plan.Of(plan.Rampart), Level: 4})
	p.SetRoadDistance(geom.MustCell(9, 10), 0)
	p.SetPCWorkplace(geom.MustCell(11, 11))
	p.IncrementLvl()
	return p
}

func TestSaveAndLoadPlan(t *testing.T) {
	db := openTestDB(t)
	p := samplePlan()

	id, err := db.SavePlan(Record{Room: "W1N1", Kind: KindBase, Plan: p})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, info, err := db.LoadPlan(id)
	require.NoError(t, err)
	assert.Equal(t, "W1N1", info.Room)
	assert.Equal(t, KindBase, info.Kind)
	assert.Equal(t, p.Len(), info.Cells)
	assert.EqualValues(t, 1, info.BuiltLvl)

	if diff := cmp.Diff(p.Snapshot(), got.Snapshot()); diff != "" {
		t.Errorf("loaded plan differs (-want +got):\n%s", diff)
	}
}

func TestLoadMissingPlan(t *testing.T) {
	db := openTestDB(t)
	_, _, err := db.LoadPlan("nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.SetBuiltLvl("nope", 3), ErrNotFound)
}

func TestListAndLatest(t *testing.T) {
	db := openTestDB(t)
	clock := time.Unix(1_700_000_000, 0)
	db.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	first, err := db.SavePlan(Record{Room: "W1N1", Kind: KindBase, Plan: samplePlan()})
	require.NoError(t, err)
	remote, err := db.SavePlan(Record{Room: "W1N1", Kind: KindRemote, BaseID: first, Plan: plan.New()})
	require.NoError(t, err)
	second, err := db.SavePlan(Record{Room: "W1N1", Kind: KindBase, Plan: samplePlan()})
	require.NoError(t, err)
	_, err = db.SavePlan(Record{Room: "W2N1", Kind: KindBase, Plan: samplePlan()})
	require.NoError(t, err)

	all, err := db.ListPlans("")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	room, err := db.ListPlans("W1N1")
	require.NoError(t, err)
	require.Len(t, room, 3)
	assert.Equal(t, second, room[0].ID)
	assert.Equal(t, remote, room[1].ID)
	assert.Equal(t, first, room[1].BaseID)

	latest, err := db.Latest("W1N1", KindBase)
	require.NoError(t, err)
	assert.Equal(t, second, latest.ID)

	_, err = db.Latest("W9N9", KindBase)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadLatest(t *testing.T) {
	db := openTestDB(t)
	_, _, err := db.LoadLatest("W2N1", KindRemote)
	assert.ErrorIs(t, err, ErrNotFound)

	id, err := db.SavePlan(Record{Room: "W2N1", Kind: KindRemote, BaseID: "base", Plan: samplePlan()})
	require.NoError(t, err)
	p, info, err := db.LoadLatest("W2N1", KindRemote)
	require.NoError(t, err)
	assert.Equal(t, id, info.ID)
	assert.Equal(t, samplePlan().Len(), p.Len())
}

func TestSetBuiltLvlCaps(t *testing.T) {
	db := openTestDB(t)
	id, err := db.SavePlan(Record{Room: "W1N1", Kind: KindBase, Plan: samplePlan()})
	require.NoError(t, err)

	require.NoError(t, db.SetBuiltLvl(id, 12))
	info, err := db.Info(id)
	require.NoError(t, err)
	assert.EqualValues(t, plan.MaxLevel, info.BuiltLvl)
}

func TestSetBuiltLvlNeverDecreases(t *testing.T) {
	db := openTestDB(t)
	id, err := db.SavePlan(Record{Room: "W1N1", Kind: KindBase, Plan: samplePlan()})
	require.NoError(t, err)

	require.NoError(t, db.SetBuiltLvl(id, 6))
	require.NoError(t, db.SetBuiltLvl(id, 6), "same level again")
	assert.ErrorIs(t, db.SetBuiltLvl(id, 2), ErrLevelDecrease)

	info, err := db.Info(id)
	require.NoError(t, err)
	assert.EqualValues(t, 6, info.BuiltLvl)

	assert.ErrorIs(t, db.SetBuiltLvl("missing", 3), ErrNotFound)
}

func TestDeletePlan(t *testing.T) {
	db := openTestDB(t)
	id, err := db.SavePlan(Record{Room: "W1N1", Kind: KindBase, Plan: samplePlan()})
	require.NoError(t, err)

	require.NoError(t, db.DeletePlan(id))
	_, _, err = db.LoadPlan(id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMeta(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.SaveMeta("seed", "42"))
	require.NoError(t, db.SaveMeta("seed", "43"))
	v, err := db.GetMeta("seed")
	require.NoError(t, err)
	assert.Equal(t, "43", v)

	_, err = db.GetMeta("missing")
	assert.Error(t, err)
}

func TestTerrainStoredWithPlan(t *testing.T) {
	db := openTestDB(t)
	rows := []string{"#####", "#..~#", "#####"}
	id, err := db.SavePlan(Record{Room: "W1N1", Kind: KindBase, Terrain: rows, Plan: samplePlan()})
	require.NoError(t, err)

	got, err := db.Terrain(id)
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	bare, err := db.SavePlan(Record{Room: "W1N1", Kind: KindBase, Plan: samplePlan()})
	require.NoError(t, err)
	got, err = db.Terrain(bare)
	require.NoError(t, err)
	assert.Nil(t, got)
}
