package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lawyerjames/KanaLearning/internal/domain/entities"
	"github.com/lawyerjames/KanaLearning/internal/service"
)

type startSessionRequest struct {
	Mode       string `json:"mode"`
	Level      int    `json:"level"`
	Difficulty string `json:"difficulty"`
}

type answerRequest struct {
	Option int `json:"option"`
}

type flipRequest struct {
	Card int `json:"card"`
}

type submitScoreRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := s.orch.StartSession(r.Context(),
		entities.GameMode(req.Mode), req.Level, entities.BlankDifficulty(req.Difficulty))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	view, err := s.orch.State(chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := s.orch.SubmitAnswer(r.Context(), chi.URLParam(r, "id"), req.Option)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleFlip(w http.ResponseWriter, r *http.Request) {
	var req flipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := s.orch.FlipCard(r.Context(), chi.URLParam(r, "id"), req.Card)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.orch.EndSession(chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	var req submitScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ranked, err := s.orch.SubmitScore(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"entries": rankedOrEmpty(ranked)})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.boards.Fetch(r.Context(), chi.URLParam(r, "board"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "leaderboard unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"entries": rankedOrEmpty(entries)})
}

func (s *Server) handleUnlocks(w http.ResponseWriter, r *http.Request) {
	mode := entities.GameMode(chi.URLParam(r, "mode"))
	if !mode.Valid() {
		s.writeError(w, http.StatusBadRequest, "unknown game mode")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"mode":     string(mode),
		"unlocked": s.unlock.UnlockedLevel(r.Context(), mode),
		"max":      entities.MaxLevel(mode),
	})
}

// rankedOrEmpty keeps empty boards rendering as [] rather than null.
func rankedOrEmpty(entries []entities.LeaderboardEntry) []entities.LeaderboardEntry {
	if entries == nil {
		return []entities.LeaderboardEntry{}
	}
	return entries
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Warn("response encoding failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps engine errors onto HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrLevelLocked):
		s.writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrUnknownMode),
		errors.Is(err, service.ErrUnknownLevel),
		errors.Is(err, service.ErrUnknownDifficulty),
		errors.Is(err, service.ErrInvalidOption),
		errors.Is(err, service.ErrInvalidCard),
		errors.Is(err, service.ErrWrongOperation),
		errors.Is(err, service.ErrNoResult):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error("unhandled service error", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}
