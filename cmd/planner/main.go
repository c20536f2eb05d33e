// Command planner lays out a base in one room, archives the plan and
// optionally serves the archive over HTTP.
//
// Configuration comes from the environment:
//
//	PLANNER_ROOM         room name (default W1N1)
//	PLANNER_MAP          room picture file; a room is generated when unset
//	PLANNER_SEED         generation seed (default 42)
//	PLANNER_REMOTE_MAP   neighbouring room picture to extend the plan into
//	PLANNER_REMOTE_SIDE  side of the base the remote room lies on (default right)
//	PLANNER_DB           database path (default data/plans.db)
//	PLANNER_PORT         HTTP port, 0 = exit after planning (default 0)
//	PLANNER_ADMIN_KEY    bearer token for API writes
//	PLANNER_TIMEOUT      planning budget in seconds (default 30)
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/room-planner/internal/api"
	"github.com/talgya/room-planner/internal/geom"
	"github.com/talgya/room-planner/internal/persistence"
	"github.com/talgya/room-planner/internal/plan"
	"github.com/talgya/room-planner/internal/planner"
	"github.com/talgya/room-planner/internal/terrain"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	roomName := envOrDefault("PLANNER_ROOM", "W1N1")
	mapPath := os.Getenv("PLANNER_MAP")
	seed := int64(envIntOrDefault("PLANNER_SEED", 42))
	dbPath := envOrDefault("PLANNER_DB", "data/plans.db")
	port := envIntOrDefault("PLANNER_PORT", 0)
	timeout := time.Duration(envIntOrDefault("PLANNER_TIMEOUT", 30)) * time.Second
	cfg := planner.DefaultConfig()

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(dbPath), 0755)
	db, err := persistence.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", dbPath)

	// ── Room ──────────────────────────────────────────────────────────
	in, rows, err := loadRoom(roomName, mapPath, seed)
	if err != nil {
		slog.Error("failed to load room", "error", err)
		os.Exit(1)
	}
	if room, ok := in.Terrain.(*terrain.Room); ok {
		for k, c := range room.Counts() {
			slog.Info("terrain", "type", k, "count", c)
		}
	}

	// ── Plan ──────────────────────────────────────────────────────────
	if prev, err := db.Latest(in.Name, persistence.KindBase); err == nil {
		slog.Info("room already planned", "id", prev.ID, "cells", prev.Cells, "built_lvl", prev.BuiltLvl)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	start := time.Now()
	res, err := planner.PlanRoom(ctx, in, cfg)
	cancel()
	if err != nil {
		slog.Error("planning failed", "room", in.Name, "error", err)
		os.Exit(1)
	}
	elapsed := time.Since(start)

	id, err := db.SavePlan(persistence.Record{Room: in.Name, Kind: persistence.KindBase, Terrain: rows, Plan: res.Plan})
	if err != nil {
		slog.Error("failed to save plan", "error", err)
		os.Exit(1)
	}
	db.SaveMeta("last_plan", id)
	db.SaveMeta("last_seed", strconv.FormatInt(seed, 10))

	fmt.Println(strings.Join(res.Plan.Render(rows), "\n"))
	fmt.Println()
	fmt.Println(strings.Join(tierMap(res), "\n"))
	printSummary(in.Name, id, res.Plan, elapsed)

	// ── Remote ────────────────────────────────────────────────────────
	if remotePath := os.Getenv("PLANNER_REMOTE_MAP"); remotePath != "" {
		if err := planRemote(db, in, id, rows, res.Plan, remotePath, cfg, timeout); err != nil {
			slog.Error("remote planning failed", "error", err)
			os.Exit(1)
		}
	}

	if port == 0 {
		return
	}

	// ── API ───────────────────────────────────────────────────────────
	adminKey := os.Getenv("PLANNER_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("PLANNER_ADMIN_KEY not set; API write endpoints disabled")
	}
	server := &api.Server{
		DB:       db,
		Config:   cfg,
		Gen:      terrain.DefaultGenConfig(),
		Port:     port,
		AdminKey: adminKey,
		Timeout:  timeout,
	}
	server.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown", "error", err)
	}
}

// loadRoom reads the room picture at path, or generates a room from seed when
// path is empty. It also returns the picture stored with the plan.
func loadRoom(name, path string, seed int64) (planner.Input, []string, error) {
	if path == "" {
		gen := terrain.DefaultGenConfig()
		gen.Name, gen.Seed = name, seed
		room, f := terrain.Generate(gen)
		in := planner.GeneratedInput(room, f)
		slog.Info("room generated", "room", name, "seed", seed, "sources", len(f.Sources))
		return in, planner.RenderInput(in, room), nil
	}
	rows, err := readRows(path)
	if err != nil {
		return planner.Input{}, nil, err
	}
	in, _, err := planner.ParseInput(name, rows)
	if err != nil {
		return planner.Input{}, nil, err
	}
	slog.Info("room loaded", "room", name, "path", path)
	return in, rows, nil
}

func readRows(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read room %s: %w", path, err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n"), nil
}

func planRemote(db *persistence.DB, base planner.Input, baseID string, baseRows []string,
	basePlan *plan.Plan, path string, cfg planner.Config, timeout time.Duration) error {
	side, err := geom.ParseDirection(envOrDefault("PLANNER_REMOTE_SIDE", "right"))
	if err != nil {
		return err
	}
	rows, err := readRows(path)
	if err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	remote, _, err := planner.ParseInput(name, rows)
	if err != nil {
		return err
	}

	existing, _, err := db.LoadLatest(remote.Name, persistence.KindRemote)
	if err != nil && !errors.Is(err, persistence.ErrNotFound) {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	res, err := planner.PlanRemote(ctx,
		planner.Site{Name: base.Name, Terrain: base.Terrain, Plan: basePlan, Objects: base.Objects()},
		planner.RemoteRequest{
			Remote:  planner.Site{Name: remote.Name, Terrain: remote.Terrain, Plan: existing, Objects: remote.Objects()},
			Side:    side,
			Sources: remote.Sources,
		}, cfg)
	if err != nil {
		return err
	}

	newBase, err := db.SavePlan(persistence.Record{Room: base.Name, Kind: persistence.KindBase, Terrain: baseRows, Plan: res.Base})
	if err != nil {
		return err
	}
	remoteID, err := db.SavePlan(persistence.Record{
		Room: remote.Name, Kind: persistence.KindRemote, BaseID: newBase, Terrain: rows, Plan: res.Remote,
	})
	if err != nil {
		return err
	}
	slog.Info("remote planned",
		"base", base.Name,
		"remote", remote.Name,
		"side", side,
		"replaces", baseID,
		"base_id", newBase,
		"remote_id", remoteID,
		"roads", humanize.Comma(int64(len(res.Remote.Roads()))),
	)
	return nil
}

// tierMap draws the base tiers with the planned structures on top.
func tierMap(res *planner.Result) []string {
	return res.Grid.Overlay(res.Plan).Render()
}

// printSummary reports how the plan grows level by level.
func printSummary(room, id string, p *plan.Plan, elapsed time.Duration) {
	fmt.Printf("\n%s plan %s: %s structures, planned in %s\n", room, id, humanize.Comma(int64(p.Len())), elapsed.Round(time.Millisecond))
	prev := 0
	for lvl := uint8(1); lvl <= plan.MaxLevel; lvl++ {
		live := 0
		for c := range p.All() {
			if c.LiveAt(lvl) {
				live++
			}
		}
		fmt.Printf("  %-4s level: %s structures (%+d)\n", humanize.Ordinal(int(lvl)), humanize.Comma(int64(live)), live-prev)
		prev = live
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}
