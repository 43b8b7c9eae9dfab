// Package httpapi exposes the game engine to the browser presentation
// layer over JSON HTTP.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lawyerjames/KanaLearning/internal/service"
)

// Server bundles the router and the engine services.
type Server struct {
	r      *chi.Mux
	orch   *service.Orchestrator
	boards *service.LeaderboardService
	unlock *service.UnlockService
	log    *zap.Logger
}

// New constructs the server, installs middleware and registers routes.
func New(orch *service.Orchestrator, boards *service.LeaderboardService, unlock *service.UnlockService, log *zap.Logger) *Server {
	s := &Server{
		r:      chi.NewRouter(),
		orch:   orch,
		boards: boards,
		unlock: unlock,
		log:    log,
	}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)

	s.r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", s.handleStartSession)
		r.Get("/sessions/{id}", s.handleSessionState)
		r.Post("/sessions/{id}/answer", s.handleAnswer)
		r.Post("/sessions/{id}/flip", s.handleFlip)
		r.Post("/sessions/{id}/score", s.handleSubmitScore)
		r.Delete("/sessions/{id}", s.handleEndSession)
		r.Get("/leaderboards/{board}", s.handleLeaderboard)
		r.Get("/unlocks/{mode}", s.handleUnlocks)
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
	})

	return s
}

// Router exposes the internal router, useful for tests.
func (s *Server) Router() chi.Router { return s.r }

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}
