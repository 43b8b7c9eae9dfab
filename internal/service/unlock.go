package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/lawyerjames/KanaLearning/internal/domain/entities"
)

// UnlockService tracks the per-mode unlock frontier. The frontier only
// moves forward, one level at a time, and only for a win at the frontier
// itself; replaying earlier levels never advances it.
type UnlockService struct {
	repo UnlockRepository
	log  *zap.Logger
}

// NewUnlockService creates the service.
func NewUnlockService(repo UnlockRepository, log *zap.Logger) *UnlockService {
	return &UnlockService{repo: repo, log: log}
}

// UnlockedLevel returns the highest level the player may start in mode.
// Persistence failures degrade to the level-1 default.
func (s *UnlockService) UnlockedLevel(ctx context.Context, mode entities.GameMode) int {
	level, err := s.repo.Level(ctx, mode)
	if err != nil {
		s.log.Warn("unlock lookup failed, assuming level 1",
			zap.String("mode", string(mode)), zap.Error(err))
		return 1
	}
	return level
}

// RecordWin advances the frontier by exactly one when the won level is the
// frontier itself and below the mode's maximum. Returns the current
// frontier and whether it moved.
func (s *UnlockService) RecordWin(ctx context.Context, mode entities.GameMode, playedLevel int) (int, bool) {
	current := s.UnlockedLevel(ctx, mode)
	if playedLevel != current || playedLevel >= entities.MaxLevel(mode) {
		return current, false
	}

	next := current + 1
	if err := s.repo.SetLevel(ctx, mode, next); err != nil {
		s.log.Warn("unlock advance not persisted",
			zap.String("mode", string(mode)), zap.Int("level", next), zap.Error(err))
		return current, false
	}
	return next, true
}
