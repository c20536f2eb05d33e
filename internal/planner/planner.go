// Package planner computes the static layout of a base in a 50x50 room: a
// defensive perimeter, a diagonal road lattice, the storage hub, spawns,
// towers, extensions and the roads, containers and links that tie the
// controller, sources and mineral to the core. It can also extend a finished
// plan with harvesting infrastructure in a neighbouring room.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/zyedidia/generic/mapset"

	"github.com/talgya/room-planner/internal/geom"
	"github.com/talgya/room-planner/internal/plan"
	"github.com/talgya/room-planner/internal/terrain"
)

// Input describes the room to plan.
type Input struct {
	Name       string
	Terrain    terrain.Oracle
	Controller *geom.Cell
	Spawn      *geom.Cell // existing spawn, if any
	Sources    []geom.Cell
	Mineral    *geom.Cell
}

// Objects returns the fixed objects of the room.
func (in Input) Objects() []geom.Cell {
	var out []geom.Cell
	if in.Controller != nil {
		out = append(out, *in.Controller)
	}
	out = append(out, in.Sources...)
	if in.Mineral != nil {
		out = append(out, *in.Mineral)
	}
	return out
}

// Result is a finished plan together with the intermediate layouts it was
// derived from.
type Result struct {
	Plan      *plan.Plan
	Perimeter *Perimeter
	Grid      *Grid
	Roads     *RoadNet
	Central   *CentralSquare
	Towers    []geom.Cell
	Observer  geom.Cell
}

func checkBudget(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: before %s: %w", ErrLowCPU, stage, err)
	}
	return nil
}

// PlanRoom runs the whole layout pipeline. Either every stage succeeds and a
// complete plan is returned, or the first failure is returned and nothing is
// kept. Planning is deterministic: the same input always yields the same plan.
func PlanRoom(ctx context.Context, in Input, cfg Config) (*Result, error) {
	if in.Controller == nil {
		return nil, ErrControllerNotFound
	}
	if in.Mineral == nil {
		return nil, ErrMineralNotFound
	}
	log := slog.With("room", in.Name)

	objects := in.Objects()
	keepOut := mapset.New[geom.Cell]()
	for _, c := range objects {
		keepOut.Put(c)
	}
	if in.Spawn != nil {
		keepOut.Put(*in.Spawn)
	}

	walls := terrain.NewWallMap(in.Terrain)
	rect, err := SmallestPerimeter(walls, in.Spawn, in.Sources, objects, cfg)
	if err != nil {
		return nil, err
	}
	per := WalkBorder(walls, rect, cfg.CutDepth)
	log.Debug("perimeter found", "rect", rect, "natural", len(per.Natural), "barrier", len(per.Barrier))

	grid, err := Classify(walls, per)
	if err != nil {
		return nil, err
	}
	if err := checkBudget(ctx, "roads"); err != nil {
		return nil, err
	}

	// The layout stages leave the tiles around each resource to the connectors.
	layoutOut := union(keepOut, reserveResourceTiles(in.Terrain, per, in))
	net, err := SynthesizeRoads(grid, layoutOut)
	if err != nil {
		return nil, err
	}
	log.Debug("road lattice chosen", "config", net.Config, "roads", len(net.Cells), "squares", len(net.Squares), "rank", net.Rank)

	target, err := GuideTarget(rect, in.Controller, in.Sources)
	if err != nil {
		return nil, err
	}
	cs, err := LocateCentralSquare(grid, net, layoutOut, target)
	if err != nil {
		return nil, err
	}
	log.Debug("central square located", "crossroad", cs.Crossroad, "guide", cs.Guide, "inferred", len(cs.Inferred))

	p := plan.New()
	lv := cfg.Levels
	for _, c := range slices.Concat(net.Cells, cs.Inferred) {
		p.AddCell(plan.PlannedCell{Pos: c, Structure: plan.Of(plan.Road), Level: lv.Road})
		p.SetRoadDistance(c, 0)
	}
	hub, err := cs.HubCells(lv)
	if err != nil {
		return nil, err
	}
	for _, c := range hub {
		p.AddCell(c)
	}
	p.SetPCWorkplace(cs.Workplace())

	if err := PlaceSpawns(grid, net, cs, p, layoutOut, in.Spawn, cfg); err != nil {
		return nil, err
	}
	if err := PlaceRamparts(grid, per, p, lv); err != nil {
		return nil, err
	}

	// Towers, extensions and the observer stay off the hub squares.
	guarded := union(layoutOut, cs.Reserved())
	towers := PlaceTowers(grid, per, p, guarded, cfg)
	ext := PlaceExtensions(grid, net, cs, p, guarded, cfg)
	obs, err := PlaceObserver(grid, net, cs, p, guarded, lv)
	if err != nil {
		return nil, err
	}
	log.Debug("core placed", "towers", len(towers), "extensions", ext, "observer", obs)

	if err := checkBudget(ctx, "connectors"); err != nil {
		return nil, err
	}
	cn, err := newConnector(in.Terrain, grid, p, union(keepOut, cs.Reserved()))
	if err != nil {
		return nil, err
	}
	if err := cn.ConnectController(*in.Controller, lv); err != nil {
		return nil, err
	}
	for i, src := range in.Sources {
		if err := cn.ConnectSource(i, src, lv); err != nil {
			return nil, err
		}
	}
	if err := cn.ConnectMineral(*in.Mineral, lv); err != nil {
		return nil, err
	}

	log.Info("room planned", "cells", p.Len(), "roads", len(p.Roads()))
	return &Result{
		Plan:      p,
		Perimeter: per,
		Grid:      grid,
		Roads:     net,
		Central:   cs,
		Towers:    towers,
		Observer:  obs,
	}, nil
}

func union(sets ...mapset.Set[geom.Cell]) mapset.Set[geom.Cell] {
	out := mapset.New[geom.Cell]()
	for _, s := range sets {
		s.Each(func(c geom.Cell) { out.Put(c) })
	}
	return out
}
