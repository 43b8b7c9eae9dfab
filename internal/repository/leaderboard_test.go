package repository

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/lawyerjames/KanaLearning/internal/domain/entities"
	"github.com/lawyerjames/KanaLearning/internal/infra/kvstore"
)

func newBoardRepo(t *testing.T) (*LeaderboardRepository, *kvstore.MemoryStore) {
	t.Helper()
	store := kvstore.NewMemory()
	return NewLeaderboardRepository(store, zap.NewNop()), store
}

func TestLeaderboardFetchEmpty(t *testing.T) {
	repo, _ := newBoardRepo(t)
	entries, err := repo.Fetch(context.Background(), "kanagame_rally_1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("fresh board has %d entries", len(entries))
	}
}

func TestLeaderboardFetchCorrupt(t *testing.T) {
	repo, store := newBoardRepo(t)
	ctx := context.Background()
	if err := store.Set(ctx, "kanagame_rally_1", []byte("{not json")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	entries, err := repo.Fetch(ctx, "kanagame_rally_1")
	if err != nil {
		t.Fatalf("corrupt document surfaced an error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("corrupt document yielded %d entries", len(entries))
	}
}

func TestLeaderboardRanking(t *testing.T) {
	repo, _ := newBoardRepo(t)
	ctx := context.Background()
	const board = "kanagame_match-sound"

	submit := func(name string, score, elapsed int) []entities.LeaderboardEntry {
		t.Helper()
		got, err := repo.Submit(ctx, board, entities.LeaderboardEntry{
			Name: name, Score: score, ElapsedSeconds: elapsed,
		})
		if err != nil {
			t.Fatalf("Submit(%s): %v", name, err)
		}
		return got
	}

	submit("slow", 600, 90)
	submit("top", 900, 60)
	got := submit("fast", 600, 45)

	want := []string{"top", "fast", "slow"}
	for i, name := range want {
		if got[i].Name != name {
			t.Fatalf("rank %d = %q, want %q (list %v)", i, got[i].Name, name, got)
		}
	}

	// Equal score and time: the earlier submission keeps its slot.
	got = submit("late-tie", 600, 45)
	if got[1].Name != "fast" || got[2].Name != "late-tie" {
		t.Fatalf("stable tie broken: %v", got)
	}
}

func TestLeaderboardTruncation(t *testing.T) {
	repo, _ := newBoardRepo(t)
	ctx := context.Background()
	const board = "kanagame_fill-blanks_easy"

	for i := 1; i <= 11; i++ {
		if _, err := repo.Submit(ctx, board, entities.LeaderboardEntry{
			Name:  fmt.Sprintf("p%02d", i),
			Score: i * 100,
		}); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}

	entries, err := repo.Fetch(ctx, board)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(entries) != 10 {
		t.Fatalf("board holds %d entries, want 10", len(entries))
	}
	// The weakest score (100) was dropped, the strongest leads.
	if entries[0].Score != 1100 || entries[9].Score != 200 {
		t.Fatalf("wrong window: top=%d bottom=%d", entries[0].Score, entries[9].Score)
	}
}

func TestLeaderboardBoardsIsolated(t *testing.T) {
	repo, _ := newBoardRepo(t)
	ctx := context.Background()

	if _, err := repo.Submit(ctx, "kanagame_rally_1", entities.LeaderboardEntry{Name: "a", Score: 100}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	other, err := repo.Fetch(ctx, "kanagame_rally_2")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("entry leaked across boards: %v", other)
	}
}
