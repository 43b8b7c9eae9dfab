package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/lawyerjames/KanaLearning/internal/domain/entities"
	"github.com/lawyerjames/KanaLearning/internal/infra/kvstore"
)

// maxBoardEntries is the retention cap per board.
const maxBoardEntries = 10

// LeaderboardRepository persists ranked score lists, one JSON document per
// board key. A missing or unreadable document degrades to an empty board.
type LeaderboardRepository struct {
	store kvstore.Store
	log   *zap.Logger
}

// NewLeaderboardRepository creates a repository over the given store.
func NewLeaderboardRepository(store kvstore.Store, log *zap.Logger) *LeaderboardRepository {
	return &LeaderboardRepository{store: store, log: log}
}

// Fetch returns the ranked list stored under board. Absent keys and parse
// failures both yield an empty list, never an error visible to a session.
func (r *LeaderboardRepository) Fetch(ctx context.Context, board string) ([]entities.LeaderboardEntry, error) {
	raw, err := r.store.Get(ctx, board)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		r.log.Warn("leaderboard read failed", zap.String("board", board), zap.Error(err))
		return nil, nil
	}

	var entries []entities.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		r.log.Warn("leaderboard document unreadable, treating as empty",
			zap.String("board", board), zap.Error(err))
		return nil, nil
	}
	return entries, nil
}

// Submit appends entry to the board, re-ranks it (score descending, elapsed
// time ascending) and keeps only the top entries. Returns the stored list.
func (r *LeaderboardRepository) Submit(ctx context.Context, board string, entry entities.LeaderboardEntry) ([]entities.LeaderboardEntry, error) {
	entries, _ := r.Fetch(ctx, board)
	entries = append(entries, entry)

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Better(entries[j])
	})
	if len(entries) > maxBoardEntries {
		entries = entries[:maxBoardEntries]
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	if err := r.store.Set(ctx, board, raw); err != nil {
		return nil, err
	}
	return entries, nil
}
