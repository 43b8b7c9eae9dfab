package repository

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/lawyerjames/KanaLearning/internal/domain/entities"
	"github.com/lawyerjames/KanaLearning/internal/infra/kvstore"
)

const unlockKeyPrefix = "kanagame_unlock_"

// UnlockRepository persists the highest unlocked level per mode as a single
// JSON integer. Absence of a key means level 1.
type UnlockRepository struct {
	store kvstore.Store
	log   *zap.Logger
}

// NewUnlockRepository creates a repository over the given store.
func NewUnlockRepository(store kvstore.Store, log *zap.Logger) *UnlockRepository {
	return &UnlockRepository{store: store, log: log}
}

// Level returns the stored unlocked level for mode. Missing or unreadable
// values default to 1.
func (r *UnlockRepository) Level(ctx context.Context, mode entities.GameMode) (int, error) {
	raw, err := r.store.Get(ctx, unlockKeyPrefix+string(mode))
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return 1, nil
	}
	if err != nil {
		r.log.Warn("unlock read failed", zap.String("mode", string(mode)), zap.Error(err))
		return 1, nil
	}

	var level int
	if err := json.Unmarshal(raw, &level); err != nil || level < 1 {
		r.log.Warn("unlock value unreadable, defaulting to level 1",
			zap.String("mode", string(mode)))
		return 1, nil
	}
	return level, nil
}

// SetLevel stores the unlocked level for mode.
func (r *UnlockRepository) SetLevel(ctx context.Context, mode entities.GameMode, level int) error {
	raw, err := json.Marshal(level)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, unlockKeyPrefix+string(mode), raw)
}
