// Package api provides the HTTP API for querying the sky.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/talgya/skyclock/internal/celestial"
	"github.com/talgya/skyclock/internal/engine"
	"github.com/talgya/skyclock/internal/persistence"
	"github.com/talgya/skyclock/internal/season"
)

const (
	maxSSEConns      = 4
	defaultEvents    = 50
	maxEventsPerPage = 1000
	sseCatchUp       = 50
	maxSpeed         = 1000

	// maxWorldTime leaves room for the sunrise search to look two days ahead.
	maxWorldTime = math.MaxInt64 - 2*engine.TicksPerDay
)

// Server serves the world clock over HTTP.
type Server struct {
	World    *engine.World
	Eng      *engine.Engine
	DB       *persistence.DB
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
	RelayKey string // Bearer token for SSE stream endpoint. Empty = streaming disabled.

	// EvalLimiter throttles the evaluation endpoints. Nil uses a default.
	EvalLimiter *RateLimiter

	// Active SSE connection count (atomic).
	sseConns int32

	srv *http.Server
}

// Handler returns the API routes wrapped in the CORS middleware.
func (s *Server) Handler() http.Handler {
	evalLimiter := s.EvalLimiter
	if evalLimiter == nil {
		evalLimiter = NewRateLimiter(600, time.Minute)
	}

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/sky", s.handleSky)
	mux.HandleFunc("/api/v1/sky/at", RateLimitMiddleware(evalLimiter, s.handleSkyAt))
	mux.HandleFunc("/api/v1/sunrise", RateLimitMiddleware(evalLimiter, s.handleSunrise))
	mux.HandleFunc("/api/v1/events", s.handleEvents)

	// SSE streaming endpoint (GET, requires bearer token, relay only).
	mux.HandleFunc("/api/v1/stream", s.handleStream)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/season", s.adminOnly(s.handleSeason))
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "relay_auth", s.RelayKey != "")

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
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
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func hasBearer(r *http.Request, key string) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && token == key
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no SKYCLOCK_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !hasBearer(r, s.AdminKey) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	state := s.World.Sky()
	cal := s.World.Calendar()
	writeJSON(w, map[string]any{
		"name":         s.World.Name,
		"world_id":     s.World.ID,
		"tick":         state.WorldTime,
		"sim_time":     engine.SimTime(state.WorldTime),
		"season":       cal.Season().String(),
		"sub_season":   cal.SubSeason().String(),
		"calendar":     cal.String(),
		"cycle_tick":   cal.CycleTick(),
		"daytime":      state.Daytime,
		"phase":        state.Phase,
		"next_sunrise": s.World.NextSunrise(),
		"speed":        s.Eng.Speed(),
		"running":      s.Eng.Running(),
	})
}

func (s *Server) handleSky(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.World.Sky())
}

// skyAt is a sky evaluation at an arbitrary moment.
type skyAt struct {
	celestial.State
	PartialTick float32 `json:"partial_tick"`
	SimTime     string  `json:"sim_time"`
}

func (s *Server) handleSkyAt(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("time") == "" {
		http.Error(w, "time is required", http.StatusBadRequest)
		return
	}
	worldTime, err := queryWorldTime(r, 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cycleTick, err := queryInt64(r, "cycle", s.World.CycleTicks())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	partial := float32(0)
	if v := q.Get("partial"); v != "" {
		p, err := strconv.ParseFloat(v, 32)
		if err != nil || p < 0 || p >= 1 {
			http.Error(w, "partial must be a number in [0, 1)", http.StatusBadRequest)
			return
		}
		partial = float32(p)
	}

	sky := s.World.SkyModel()
	state := sky.State(worldTime, cycleTick)
	state.Angle = sky.Angle(worldTime, partial, cycleTick)
	state.Skylight = celestial.SkylightSubtracted(state.Angle)
	state.IsDay = celestial.IsDaytime(state.Angle)
	writeJSON(w, skyAt{State: state, PartialTick: partial, SimTime: engine.SimTime(worldTime)})
}

func (s *Server) handleSunrise(w http.ResponseWriter, r *http.Request) {
	worldTime, err := queryWorldTime(r, s.World.WorldTime())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cycleTick, err := queryInt64(r, "cycle", s.World.CycleTicks())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sky := s.World.SkyModel()
	next := sky.NextSunrise(worldTime, cycleTick)
	writeJSON(w, map[string]any{
		"world_time":   worldTime,
		"cycle_tick":   cycleTick,
		"daytime":      sky.EffectiveDaytime(cycleTick),
		"next_sunrise": next,
		"ticks_until":  next - worldTime,
		"sim_time":     engine.SimTime(next),
	})
}

func (s *Server) handleSeason(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			SubSeason *string `json:"sub_season"`
			CycleTick *int64  `json:"cycle_tick"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		switch {
		case req.SubSeason != nil && req.CycleTick != nil:
			http.Error(w, "set either sub_season or cycle_tick, not both", http.StatusBadRequest)
			return
		case req.SubSeason != nil:
			sub, err := season.ParseSubSeason(*req.SubSeason)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			s.World.SetSubSeason(sub)
		case req.CycleTick != nil:
			s.World.SetCycleTick(*req.CycleTick)
		default:
			http.Error(w, "sub_season or cycle_tick is required", http.StatusBadRequest)
			return
		}
		slog.Info("season changed", "calendar", s.World.Calendar().String())
	}

	cal := s.World.Calendar()
	sky := s.World.SkyModel()
	writeJSON(w, map[string]any{
		"calendar":          cal.String(),
		"season":            cal.Season().String(),
		"sub_season":        cal.SubSeason().String(),
		"day_of_sub_season": cal.DayOfSubSeason(),
		"cycle_tick":        cal.CycleTick(),
		"cycle_duration":    cal.Calendar.CycleDuration(),
		"sub_season_days":   cal.Calendar.SubSeasonDays,
		"seasons_enabled":   sky.SeasonsEnabled,
		"seasonal_daytime":  sky.SeasonalDaytime,
		"min_daytime":       sky.MinDaytime,
		"daytime":           sky.EffectiveDaytime(cal.CycleTick()),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt64(r, "limit", defaultEvents)
	if err != nil || limit <= 0 || limit > maxEventsPerPage {
		http.Error(w, fmt.Sprintf("limit must be 1-%d", maxEventsPerPage), http.StatusBadRequest)
		return
	}

	events := s.World.Events(0)
	if category := r.URL.Query().Get("category"); category != "" {
		filtered := []engine.Event{}
		for _, e := range events {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	if len(events) > int(limit) {
		events = events[len(events)-int(limit):]
	}
	writeJSON(w, events)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > maxSpeed {
			http.Error(w, fmt.Sprintf("speed must be 0-%d", maxSpeed), http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	if err := s.DB.SaveWorldState(s.World); err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"tick":    s.World.WorldTime(),
		"message": "snapshot saved",
	})
}

// handleStream provides an SSE endpoint for real-time event streaming.
// Requires bearer token auth and limits concurrent connections.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	// Uses the relay key, not the admin key.
	if s.RelayKey == "" {
		http.Error(w, "streaming disabled (no relay key)", http.StatusForbidden)
		return
	}
	if !hasBearer(r, s.RelayKey) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	current := atomic.AddInt32(&s.sseConns, 1)
	if current > maxSSEConns {
		atomic.AddInt32(&s.sseConns, -1)
		http.Error(w, "too many SSE connections", http.StatusServiceUnavailable)
		return
	}
	defer atomic.AddInt32(&s.sseConns, -1)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	subID, ch := s.World.Subscribe()
	defer s.World.Unsubscribe(subID)

	// Catch up with recent history first.
	for _, e := range s.World.Events(sseCatchUp) {
		writeSSEEvent(w, e)
	}
	flusher.Flush()

	slog.Info("SSE client connected", "sub_id", subID)

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return
			}
			writeSSEEvent(w, e)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			slog.Info("SSE client disconnected", "sub_id", subID)
			return
		}
	}
}

// writeSSEEvent writes a single event in SSE format.
func writeSSEEvent(w http.ResponseWriter, e engine.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", e.Seq, e.Category, data)
}

// queryInt64 parses an optional integer query parameter.
func queryInt64(r *http.Request, name string, def int64) (int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, v)
	}
	return n, nil
}

// queryWorldTime reads the "time" parameter, which must be a non-negative
// world time the sunrise search can step past without overflowing.
func queryWorldTime(r *http.Request, def int64) (int64, error) {
	t, err := queryInt64(r, "time", def)
	if err != nil {
		return 0, err
	}
	if t < 0 || t > maxWorldTime {
		return 0, fmt.Errorf("time must be in [0, %d]", int64(maxWorldTime))
	}
	return t, nil
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
