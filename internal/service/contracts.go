// Package service holds the round-lifecycle and scoring engine: question
// generation, the round timer, the session state machine, leaderboard and
// unlock tracking, and the orchestrator tying them together per game mode.
package service

import (
	"context"

	"github.com/lawyerjames/KanaLearning/internal/domain/entities"
)

// ContentRepository is the read-only kana dataset the engine queries.
type ContentRepository interface {
	Entries() []*entities.KanaEntry
	ByKey(key string) (*entities.KanaEntry, bool)
	Layout() [][]string
	PlayableCells() []string
	PhrasePool(length int) []*entities.KanaEntry
}

// LeaderboardRepository persists ranked score lists per board key.
type LeaderboardRepository interface {
	Fetch(ctx context.Context, board string) ([]entities.LeaderboardEntry, error)
	Submit(ctx context.Context, board string, entry entities.LeaderboardEntry) ([]entities.LeaderboardEntry, error)
}

// UnlockRepository persists the per-mode unlock frontier.
type UnlockRepository interface {
	Level(ctx context.Context, mode entities.GameMode) (int, error)
	SetLevel(ctx context.Context, mode entities.GameMode, level int) error
}

// Pronouncer receives fire-and-forget pronunciation requests for prompts
// and confirmed answers. Implementations must not block.
type Pronouncer interface {
	Pronounce(text string)
}

// NopPronouncer discards pronunciation requests.
type NopPronouncer struct{}

// Pronounce implements Pronouncer.
func (NopPronouncer) Pronounce(string) {}
