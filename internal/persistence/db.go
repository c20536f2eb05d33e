// Package persistence provides SQLite-based plan storage. Every planning run is
// archived under its own id so plans can be listed, reloaded and compared.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/room-planner/internal/geom"
	"github.com/talgya/room-planner/internal/plan"
)

// ErrNotFound is returned when no plan matches a lookup.
var ErrNotFound = errors.New("plan not found")

// ErrLevelDecrease is returned when a built level would go down. Sites only
// ever grow.
var ErrLevelDecrease = errors.New("built level cannot decrease")

// Plan kinds.
const (
	KindBase   = "base"
	KindRemote = "remote"
)

// DB wraps a SQLite connection for plan persistence.
type DB struct {
	conn *sqlx.DB
	now  func() time.Time
}

// PlanInfo is the header of an archived plan.
type PlanInfo struct {
	ID        string `db:"id" json:"id"`
	Room      string `db:"room" json:"room"`
	Kind      string `db:"kind" json:"kind"`
	BaseID    string `db:"base_id" json:"base_id,omitempty"` // remote plans only
	BuiltLvl  uint8  `db:"built_lvl" json:"built_lvl"`
	Cells     int    `db:"cells" json:"cells"`
	CreatedAt int64  `db:"created_at" json:"created_at"` // unix seconds
}

// Record is a plan to archive.
type Record struct {
	Room    string
	Kind    string
	BaseID  string   // base plan a remote plan extends
	Terrain []string // room picture in terrain.Parse format, optional
	Plan    *plan.Plan
}

type cellRow struct {
	X     int    `db:"x"`
	Y     int    `db:"y"`
	Kind  string `db:"kind"`
	Link  uint8  `db:"link"`
	Lab   uint8  `db:"lab"`
	Of    uint8  `db:"source_idx"`
	Level uint8  `db:"level"`
	Until uint8  `db:"until_lvl"`
}

type distRow struct {
	X    int `db:"x"`
	Y    int `db:"y"`
	Dist int `db:"dist"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn, now: time.Now}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		room TEXT NOT NULL,
		kind TEXT NOT NULL,
		base_id TEXT NOT NULL DEFAULT '',
		built_lvl INTEGER NOT NULL,
		cells INTEGER NOT NULL,
		workplace_x INTEGER,
		workplace_y INTEGER,
		terrain TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS plan_cells (
		plan_id TEXT NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		kind TEXT NOT NULL,
		link INTEGER NOT NULL,
		lab INTEGER NOT NULL,
		source_idx INTEGER NOT NULL,
		level INTEGER NOT NULL,
		until_lvl INTEGER NOT NULL,
		PRIMARY KEY (plan_id, x, y, kind)
	);

	CREATE TABLE IF NOT EXISTS road_dist (
		plan_id TEXT NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		dist INTEGER NOT NULL,
		PRIMARY KEY (plan_id, x, y)
	);

	CREATE TABLE IF NOT EXISTS planner_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_plans_room ON plans(room, created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SavePlan archives a plan under a fresh id and returns it.
func (db *DB) SavePlan(rec Record) (string, error) {
	snap := rec.Plan.Snapshot()
	id := uuid.NewString()

	tx, err := db.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var wx, wy sql.NullInt64
	if snap.Workplace != nil {
		wx = sql.NullInt64{Int64: int64(snap.Workplace.X), Valid: true}
		wy = sql.NullInt64{Int64: int64(snap.Workplace.Y), Valid: true}
	}
	_, err = tx.Exec(`INSERT INTO plans
		(id, room, kind, base_id, built_lvl, cells, workplace_x, workplace_y, terrain, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, rec.Room, rec.Kind, rec.BaseID, snap.BuiltLvl, len(snap.Cells), wx, wy,
		strings.Join(rec.Terrain, "\n"), db.now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("insert plan %s: %w", rec.Room, err)
	}

	stmt, err := tx.Preparex(`INSERT INTO plan_cells
		(plan_id, x, y, kind, link, lab, source_idx, level, until_lvl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, c := range snap.Cells {
		s := c.Structure
		if _, err := stmt.Exec(id, c.Pos.X, c.Pos.Y, s.Kind.String(), s.Link, s.Lab, s.Of, c.Level, c.Until); err != nil {
			return "", fmt.Errorf("insert cell %v %v: %w", c.Pos, s, err)
		}
	}

	for _, rd := range snap.RoadDist {
		if _, err := tx.Exec("INSERT INTO road_dist (plan_id, x, y, dist) VALUES (?, ?, ?, ?)",
			id, rd.Pos.X, rd.Pos.Y, rd.Dist); err != nil {
			return "", fmt.Errorf("insert road distance %v: %w", rd.Pos, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	slog.Info("plan saved", "id", id, "room", rec.Room, "kind", rec.Kind, "cells", len(snap.Cells))
	return id, nil
}

// Info returns the header of plan id.
func (db *DB) Info(id string) (PlanInfo, error) {
	var info PlanInfo
	err := db.conn.Get(&info, `SELECT id, room, kind, base_id, built_lvl, cells, created_at
		FROM plans WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return PlanInfo{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return info, err
}

// Terrain returns the room picture stored with plan id, nil if none was saved.
func (db *DB) Terrain(id string) ([]string, error) {
	var text string
	err := db.conn.Get(&text, "SELECT terrain FROM plans WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil || text == "" {
		return nil, err
	}
	return strings.Split(text, "\n"), nil
}

// LoadPlan rebuilds plan id.
func (db *DB) LoadPlan(id string) (*plan.Plan, PlanInfo, error) {
	info, err := db.Info(id)
	if err != nil {
		return nil, PlanInfo{}, err
	}

	var work struct {
		X sql.NullInt64 `db:"workplace_x"`
		Y sql.NullInt64 `db:"workplace_y"`
	}
	if err := db.conn.Get(&work, "SELECT workplace_x, workplace_y FROM plans WHERE id = ?", id); err != nil {
		return nil, PlanInfo{}, err
	}

	var cells []cellRow
	if err := db.conn.Select(&cells, `SELECT x, y, kind, link, lab, source_idx, level, until_lvl
		FROM plan_cells WHERE plan_id = ?`, id); err != nil {
		return nil, PlanInfo{}, fmt.Errorf("load cells: %w", err)
	}
	var dists []distRow
	if err := db.conn.Select(&dists, "SELECT x, y, dist FROM road_dist WHERE plan_id = ?", id); err != nil {
		return nil, PlanInfo{}, fmt.Errorf("load road distances: %w", err)
	}

	snap := plan.Snapshot{BuiltLvl: info.BuiltLvl}
	for _, r := range cells {
		kind, err := plan.ParseKind(r.Kind)
		if err != nil {
			return nil, PlanInfo{}, fmt.Errorf("plan %s: %w", id, err)
		}
		pos, err := geom.NewCell(r.X, r.Y)
		if err != nil {
			return nil, PlanInfo{}, fmt.Errorf("plan %s: %w", id, err)
		}
		snap.Cells = append(snap.Cells, plan.PlannedCell{
			Pos:       pos,
			Structure: plan.Structure{Kind: kind, Link: plan.LinkRole(r.Link), Lab: plan.LabRole(r.Lab), Of: r.Of},
			Level:     r.Level,
			Until:     r.Until,
		})
	}
	for _, r := range dists {
		pos, err := geom.NewCell(r.X, r.Y)
		if err != nil {
			return nil, PlanInfo{}, fmt.Errorf("plan %s: %w", id, err)
		}
		snap.RoadDist = append(snap.RoadDist, plan.RoadDist{Pos: pos, Dist: r.Dist})
	}
	if work.X.Valid && work.Y.Valid {
		pos, err := geom.NewCell(int(work.X.Int64), int(work.Y.Int64))
		if err != nil {
			return nil, PlanInfo{}, fmt.Errorf("plan %s: %w", id, err)
		}
		snap.Workplace = &pos
	}
	return plan.FromSnapshot(snap), info, nil
}

// ListPlans returns the headers of a room's plans, newest first. An empty room
// lists every plan.
func (db *DB) ListPlans(room string) ([]PlanInfo, error) {
	var out []PlanInfo
	q := `SELECT id, room, kind, base_id, built_lvl, cells, created_at FROM plans`
	args := []any{}
	if room != "" {
		q += " WHERE room = ?"
		args = append(args, room)
	}
	q += " ORDER BY created_at DESC, rowid DESC"
	err := db.conn.Select(&out, q, args...)
	return out, err
}

// Latest returns the newest plan of the given kind for a room.
func (db *DB) Latest(room, kind string) (PlanInfo, error) {
	var info PlanInfo
	err := db.conn.Get(&info, `SELECT id, room, kind, base_id, built_lvl, cells, created_at
		FROM plans WHERE room = ? AND kind = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, room, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return PlanInfo{}, fmt.Errorf("%w: %s %s", ErrNotFound, kind, room)
	}
	return info, err
}

// LoadLatest loads the newest plan of kind for room.
func (db *DB) LoadLatest(room, kind string) (*plan.Plan, PlanInfo, error) {
	info, err := db.Latest(room, kind)
	if err != nil {
		return nil, PlanInfo{}, err
	}
	return db.LoadPlan(info.ID)
}

// SetBuiltLvl records the level a stored plan has been built up to. The level
// never goes down; setting the current level again is a no-op.
func (db *DB) SetBuiltLvl(id string, lvl uint8) error {
	lvl = min(lvl, plan.MaxLevel)
	res, err := db.conn.Exec("UPDATE plans SET built_lvl = ? WHERE id = ? AND built_lvl <= ?", lvl, id, lvl)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	info, err := db.Info(id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s is at level %d, not %d", ErrLevelDecrease, id, info.BuiltLvl, lvl)
}

// DeletePlan removes a plan and its cells.
func (db *DB) DeletePlan(id string) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, q := range []string{
		"DELETE FROM plan_cells WHERE plan_id = ?",
		"DELETE FROM road_dist WHERE plan_id = ?",
		"DELETE FROM plans WHERE id = ?",
	} {
		if _, err := tx.Exec(q, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SaveMeta stores a key-value pair in planner metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO planner_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM planner_meta WHERE key = ?", key)
	return value, err
}
