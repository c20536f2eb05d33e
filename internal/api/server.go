// Package api provides the HTTP API for browsing and creating room plans.
// GET endpoints are public (read-only).
// POST and DELETE endpoints require a bearer token.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/room-planner/internal/geom"
	"github.com/talgya/room-planner/internal/persistence"
	"github.com/talgya/room-planner/internal/plan"
	"github.com/talgya/room-planner/internal/planner"
	"github.com/talgya/room-planner/internal/terrain"
)

// Server serves archived plans over HTTP.
type Server struct {
	DB       *persistence.DB
	Config   planner.Config
	Gen      terrain.GenConfig // base settings for rooms generated on request
	Port     int
	AdminKey string        // Bearer token for POST/DELETE endpoints. Empty = writes disabled.
	Timeout  time.Duration // planning budget per request, 0 = none

	srv *http.Server
}

// Handler builds the request router.
func (s *Server) Handler() http.Handler {
	// Planning is CPU heavy; creation endpoints share one limiter.
	planLimiter := NewRateLimiter(30, time.Hour)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/plans", s.handlePlans)
	mux.HandleFunc("/api/v1/plan", s.adminOnly(RateLimitMiddleware(planLimiter, s.handleCreatePlan)))
	mux.HandleFunc("/api/v1/plan/", s.handlePlanRoutes(planLimiter))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.srv = &http.Server{Addr: addr, Handler: s.Handler()}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops a server started with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on writes.
// GET requests pass through.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			if s.AdminKey == "" {
				http.Error(w, "write endpoints disabled (no PLANNER_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) planContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), s.Timeout)
}

// writeError maps planner and storage errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, planner.ErrLowCPU):
		status = http.StatusServiceUnavailable
	case errors.Is(err, planner.ErrAlreadyCreated), errors.Is(err, persistence.ErrLevelDecrease):
		status = http.StatusConflict
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case planner.IsPlanningError(err):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}

var errBadRequest = errors.New("bad request")

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	plans, err := s.DB.ListPlans("")
	if err != nil {
		writeError(w, err)
		return
	}
	rooms := make(map[string]bool)
	for _, p := range plans {
		rooms[p.Room] = true
	}
	writeJSON(w, map[string]any{
		"name":  "room-planner",
		"plans": len(plans),
		"rooms": len(rooms),
	})
}

func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.DB.ListPlans(r.URL.Query().Get("room"))
	if err != nil {
		writeError(w, err)
		return
	}
	if plans == nil {
		plans = []persistence.PlanInfo{}
	}
	writeJSON(w, plans)
}

// handlePlanRoutes dispatches /api/v1/plan/{id}[/render|/level/{n}|/remote].
func (s *Server) handlePlanRoutes(limiter *RateLimiter) http.HandlerFunc {
	remote := s.adminOnly(RateLimitMiddleware(limiter, s.handleRemote))
	del := s.adminOnly(s.handleDelete)
	built := s.adminOnly(s.handleBuiltLvl)

	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/plan/"), "/"), "/")
		id := parts[0]
		if id == "" {
			http.NotFound(w, r)
			return
		}

		switch {
		case len(parts) == 1 && r.Method == http.MethodDelete:
			del(w, r)
		case len(parts) == 1:
			s.handlePlanDetail(w, r, id)
		case len(parts) == 2 && parts[1] == "render":
			s.handleRender(w, r, id)
		case len(parts) == 3 && parts[1] == "level" && r.Method == http.MethodPost:
			built(w, r)
		case len(parts) == 3 && parts[1] == "level":
			s.handleLevel(w, r, id, parts[2])
		case len(parts) == 2 && parts[1] == "remote":
			remote(w, r)
		default:
			http.NotFound(w, r)
		}
	}
}

func (s *Server) handlePlanDetail(w http.ResponseWriter, r *http.Request, id string) {
	p, info, err := s.DB.LoadPlan(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"info": info,
		"plan": p.Snapshot(),
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request, id string) {
	p, _, err := s.DB.LoadPlan(id)
	if err != nil {
		writeError(w, err)
		return
	}
	base, err := s.DB.Terrain(id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, strings.Join(p.Render(base), "\n"))
}

func parseLevel(w http.ResponseWriter, s string) (int, bool) {
	lvl, err := strconv.Atoi(s)
	if err != nil || lvl < 0 || lvl > plan.MaxLevel {
		http.Error(w, "level must be 0.."+strconv.Itoa(plan.MaxLevel), http.StatusBadRequest)
		return 0, false
	}
	return lvl, true
}

// handleLevel lists the structures that should stand at the given level.
func (s *Server) handleLevel(w http.ResponseWriter, r *http.Request, id, lvlStr string) {
	lvl, ok := parseLevel(w, lvlStr)
	if !ok {
		return
	}
	p, _, err := s.DB.LoadPlan(id)
	if err != nil {
		writeError(w, err)
		return
	}

	type entry struct {
		X         uint8  `json:"x"`
		Y         uint8  `json:"y"`
		Structure string `json:"structure"`
	}
	out := []entry{}
	counts := make(map[string]int)
	for c := range p.All() {
		if !c.LiveAt(uint8(lvl)) {
			continue
		}
		out = append(out, entry{X: c.Pos.X, Y: c.Pos.Y, Structure: c.Structure.String()})
		counts[c.Structure.Kind.String()]++
	}
	writeJSON(w, map[string]any{
		"level":      lvl,
		"counts":     counts,
		"structures": out,
	})
}

// roomRequest describes a room either as a picture or as a generation seed.
type roomRequest struct {
	Room    string   `json:"room"`
	Terrain []string `json:"terrain,omitempty"` // terrain.Parse format with planner marks
	Seed    int64    `json:"seed,omitempty"`
}

func (s *Server) buildInput(req roomRequest) (planner.Input, []string, error) {
	if req.Room == "" {
		return planner.Input{}, nil, fmt.Errorf("%w: room name required", errBadRequest)
	}
	if len(req.Terrain) > 0 {
		in, _, err := planner.ParseInput(req.Room, req.Terrain)
		if err != nil {
			return planner.Input{}, nil, fmt.Errorf("%w: %w", errBadRequest, err)
		}
		return in, req.Terrain, nil
	}
	gen := s.Gen
	gen.Name, gen.Seed = req.Room, req.Seed
	room, f := terrain.Generate(gen)
	in := planner.GeneratedInput(room, f)
	return in, planner.RenderInput(in, room), nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

// handleCreatePlan plans a room and archives the result.
func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req roomRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	in, rows, err := s.buildInput(req)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := s.planContext(r)
	defer cancel()
	start := time.Now()
	res, err := planner.PlanRoom(ctx, in, s.Config)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := s.DB.SavePlan(persistence.Record{
		Room: in.Name, Kind: persistence.KindBase, Terrain: rows, Plan: res.Plan,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, map[string]any{
		"id":      id,
		"room":    in.Name,
		"cells":   res.Plan.Len(),
		"elapsed": time.Since(start).String(),
	})
}

type remoteBody struct {
	roomRequest
	Side string `json:"side"`
}

// handleRemote extends base plan id into a neighbouring room. The extended
// base is archived as a new base plan and the remote plan points at it.
// remotePlan loads the stored remote plan of room, or nil if it has none.
func (s *Server) remotePlan(room string) (*plan.Plan, error) {
	p, _, err := s.DB.LoadLatest(room, persistence.KindRemote)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

func (s *Server) handleRemote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/plan/"), "/"), "/")[0]

	var body remoteBody
	if err := decode(w, r, &body); err != nil {
		writeError(w, err)
		return
	}
	side, err := geom.ParseDirection(body.Side)
	if err != nil {
		writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	basePlan, info, err := s.DB.LoadPlan(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if info.Kind != persistence.KindBase {
		writeError(w, fmt.Errorf("%w: plan %s is a %s plan", errBadRequest, id, info.Kind))
		return
	}
	baseRows, err := s.DB.Terrain(id)
	if err != nil {
		writeError(w, err)
		return
	}
	baseIn, baseRoom, err := planner.ParseInput(info.Room, baseRows)
	if err != nil {
		writeError(w, err)
		return
	}
	remoteIn, remoteRows, err := s.buildInput(body.roomRequest)
	if err != nil {
		writeError(w, err)
		return
	}

	existing, err := s.remotePlan(remoteIn.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	base := planner.Site{Name: info.Room, Terrain: baseRoom, Plan: basePlan, Objects: baseIn.Objects()}
	req := planner.RemoteRequest{
		Remote:  planner.Site{Name: remoteIn.Name, Terrain: remoteIn.Terrain, Plan: existing, Objects: remoteIn.Objects()},
		Side:    side,
		Sources: remoteIn.Sources,
	}

	ctx, cancel := s.planContext(r)
	defer cancel()
	res, err := planner.PlanRemote(ctx, base, req, s.Config)
	if err != nil {
		writeError(w, err)
		return
	}

	baseID, err := s.DB.SavePlan(persistence.Record{
		Room: info.Room, Kind: persistence.KindBase, Terrain: baseRows, Plan: res.Base,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	remoteID, err := s.DB.SavePlan(persistence.Record{
		Room: remoteIn.Name, Kind: persistence.KindRemote, BaseID: baseID, Terrain: remoteRows, Plan: res.Remote,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, map[string]any{
		"base_id":   baseID,
		"remote_id": remoteID,
		"roads":     len(res.Remote.Roads()),
	})
}

// handleBuiltLvl records how far the room has been built
// (POST /api/v1/plan/{id}/level/{n}).
func (s *Server) handleBuiltLvl(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/plan/"), "/"), "/")
	lvl, ok := parseLevel(w, parts[2])
	if !ok {
		return
	}
	if err := s.DB.SetBuiltLvl(parts[0], uint8(lvl)); err != nil {
		writeError(w, err)
		return
	}
	info, err := s.DB.Info(parts[0])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, info)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/plan/"), "/")
	if _, err := s.DB.Info(id); err != nil {
		writeError(w, err)
		return
	}
	if err := s.DB.DeletePlan(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
