package service

import (
	"context"
	"strings"
	"time"

	"github.com/lawyerjames/KanaLearning/internal/domain/entities"
)

// defaultPlayerName is used when a score is submitted without a name.
const defaultPlayerName = "無名英雄"

// LeaderboardService builds and submits score records to the persisted
// ranked boards.
type LeaderboardService struct {
	repo LeaderboardRepository
}

// NewLeaderboardService creates the service.
func NewLeaderboardService(repo LeaderboardRepository) *LeaderboardService {
	return &LeaderboardService{repo: repo}
}

// SubmitResult records a finished session's score under its board key and
// returns the new ranked list.
func (s *LeaderboardService) SubmitResult(ctx context.Context, sess *entities.Session, name string) ([]entities.LeaderboardEntry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultPlayerName
	}
	entry := entities.LeaderboardEntry{
		Name:           name,
		Score:          sess.Score,
		ElapsedSeconds: sess.ElapsedSeconds(time.Now()),
		SubmittedAt:    time.Now(),
	}
	return s.repo.Submit(ctx, sess.BoardKey(), entry)
}

// Fetch returns the ranked list for a board key; unknown keys yield an
// empty list.
func (s *LeaderboardService) Fetch(ctx context.Context, board string) ([]entities.LeaderboardEntry, error) {
	return s.repo.Fetch(ctx, board)
}
