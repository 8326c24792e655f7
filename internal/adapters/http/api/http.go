// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/questforge/internal/adapters/repository"
	"github.com/okian/questforge/internal/app/etl"
	"github.com/okian/questforge/internal/app/leaderboard"
)

// LeaderboardReader serves the read shapes for leaderboard endpoints.
type LeaderboardReader interface {
	View(ctx context.Context, key string) (leaderboard.View, error)
	MyRank(ctx context.Context, key, clusterKey string) (leaderboard.Entry, error)
}

// Runner exposes the manual ETL trigger operations. Both share the
// single-flight gate with the scheduled runs.
type Runner interface {
	RunIncremental(ctx context.Context) (etl.BatchResult, error)
	RunDailySnapshot(ctx context.Context) (etl.BatchResult, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	triggerHandler     *TriggerHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(reader LeaderboardReader, runner Runner, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		leaderboardHandler: NewLeaderboardHandler(reader),
		rankHandler:        NewRankHandler(reader),
		triggerHandler:     NewTriggerHandler(runner),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/etl/trigger", MetricsMiddleware(s.triggerHandler.HandleTrigger, "etl_trigger"))
	mux.HandleFunc("/leaderboards/", MetricsMiddleware(s.routeLeaderboards, "leaderboards"))
}

// routeLeaderboards splits /leaderboards/{key} from
// /leaderboards/{key}/rank/{cluster_id}.
func (s *Server) routeLeaderboards(w http.ResponseWriter, r *http.Request) {
	if _, _, isRank := splitRankPath(r.URL.Path); isRank {
		s.rankHandler.HandleGetRank(w, r)
		return
	}
	s.leaderboardHandler.HandleGetLeaderboard(w, r)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound allows the API to translate upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, leaderboard.ErrUnknownLeaderboard) ||
		errors.Is(err, leaderboard.ErrNoCompleteRun) ||
		errors.Is(err, repository.ErrNotFound)
}
