package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"go.uber.org/zap"

	"github.com/lawyerjames/KanaLearning/internal/domain/entities"
)

// fakeContent is an in-memory ContentRepository with a 46-entry alphabet
// and word banks of lengths 2-4, mirroring the real dataset's shape.
type fakeContent struct {
	entries []*entities.KanaEntry
	byKey   map[string]*entities.KanaEntry
	phrases map[int][]*entities.KanaEntry
}

func newFakeContent() *fakeContent {
	c := &fakeContent{
		byKey:   make(map[string]*entities.KanaEntry),
		phrases: make(map[int][]*entities.KanaEntry),
	}
	for i := 0; i < 46; i++ {
		e := &entities.KanaEntry{
			Hiragana: fmt.Sprintf("h%02d", i),
			Katakana: fmt.Sprintf("k%02d", i),
			Romaji:   fmt.Sprintf("r%02d", i),
			Word:     fmt.Sprintf("w%02d", i),
			Meaning:  fmt.Sprintf("m%02d", i),
		}
		c.entries = append(c.entries, e)
		c.byKey[e.Hiragana] = e
	}
	for length := 2; length <= 4; length++ {
		for i := 0; i < 10; i++ {
			c.phrases[length] = append(c.phrases[length], &entities.KanaEntry{
				Hiragana: phraseText(length, i, 'a'),
				Katakana: phraseText(length, i, 'A'),
				Meaning:  fmt.Sprintf("phrase %d-%d", length, i),
			})
		}
	}
	return c
}

// phraseText builds a length-rune phrase whose characters are distinct
// within the word bank's script.
func phraseText(length, i int, base rune) string {
	out := make([]rune, length)
	for j := range out {
		out[j] = base + rune((i*length+j)%26)
	}
	return string(out)
}

func (c *fakeContent) Entries() []*entities.KanaEntry { return c.entries }
func (c *fakeContent) ByKey(key string) (*entities.KanaEntry, bool) {
	e, ok := c.byKey[key]
	return e, ok
}
func (c *fakeContent) Layout() [][]string { return nil }
func (c *fakeContent) PlayableCells() []string {
	cells := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		cells = append(cells, e.Hiragana)
	}
	return cells
}
func (c *fakeContent) PhrasePool(length int) []*entities.KanaEntry { return c.phrases[length] }

// fakeBoardRepo is an in-memory LeaderboardRepository.
type fakeBoardRepo struct {
	boards map[string][]entities.LeaderboardEntry
}

func (r *fakeBoardRepo) Fetch(_ context.Context, board string) ([]entities.LeaderboardEntry, error) {
	return r.boards[board], nil
}

func (r *fakeBoardRepo) Submit(_ context.Context, board string, entry entities.LeaderboardEntry) ([]entities.LeaderboardEntry, error) {
	entries := append(r.boards[board], entry)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Better(entries[j]) })
	r.boards[board] = entries
	return entries, nil
}

type recordingPronouncer struct {
	texts []string
}

func (p *recordingPronouncer) Pronounce(text string) { p.texts = append(p.texts, text) }

type testEngine struct {
	orch    *Orchestrator
	content *fakeContent
	unlocks *fakeUnlockRepo
	boards  *fakeBoardRepo
	pron    *recordingPronouncer
}

func newTestEngine(t *testing.T, seed int64) *testEngine {
	t.Helper()
	content := newFakeContent()
	unlocks := newFakeUnlockRepo()
	boards := &fakeBoardRepo{boards: make(map[string][]entities.LeaderboardEntry)}
	pron := &recordingPronouncer{}
	orch := NewOrchestrator(
		content,
		NewSeededGenerator(content.Entries(), seed),
		NewLeaderboardService(boards),
		NewUnlockService(unlocks, zap.NewNop()),
		pron,
		zap.NewNop(),
	)
	return &testEngine{orch: orch, content: content, unlocks: unlocks, boards: boards, pron: pron}
}

// pendingRound returns the session's open round state for answer selection.
func (e *testEngine) pendingRound(t *testing.T, id string) *entities.Round {
	t.Helper()
	s := e.orch.sessions.Get(id)
	if s == nil || s.Round == nil {
		t.Fatal("no pending round")
	}
	return s.Round
}

func (e *testEngine) optionIndex(t *testing.T, id string, correct bool) int {
	t.Helper()
	s := e.orch.sessions.Get(id)
	round := e.pendingRound(t, id)
	expected := round.ExpectedAt(s.SlotIndex)
	for i, opt := range round.Options {
		if (opt == expected) == correct {
			return i
		}
	}
	t.Fatalf("no option with correct=%v among %v", correct, round.Options)
	return -1
}

func (e *testEngine) answer(t *testing.T, id string, correct bool) *AnswerView {
	t.Helper()
	view, err := e.orch.SubmitAnswer(context.Background(), id, e.optionIndex(t, id, correct))
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	return view
}

func TestStartSessionValidation(t *testing.T) {
	e := newTestEngine(t, 1)
	ctx := context.Background()

	if _, err := e.orch.StartSession(ctx, "karuta", 1, ""); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("unknown mode: %v", err)
	}
	if _, err := e.orch.StartSession(ctx, entities.ModeRally, 9, ""); !errors.Is(err, ErrUnknownLevel) {
		t.Fatalf("unknown level: %v", err)
	}
	if _, err := e.orch.StartSession(ctx, entities.ModeRally, 2, ""); !errors.Is(err, ErrLevelLocked) {
		t.Fatalf("locked level: %v", err)
	}
	if _, err := e.orch.StartSession(ctx, entities.ModeFillBlanks, 0, "impossible"); !errors.Is(err, ErrUnknownDifficulty) {
		t.Fatalf("unknown difficulty: %v", err)
	}
}

func TestRallySessionLifecycle(t *testing.T) {
	e := newTestEngine(t, 2)
	ctx := context.Background()

	view, err := e.orch.StartSession(ctx, entities.ModeRally, 1, "")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if view.Phase != string(entities.PhaseAwaitingAnswer) {
		t.Fatalf("phase = %q", view.Phase)
	}
	if view.Round == nil || len(view.Round.Options) != 4 {
		t.Fatalf("first round view = %+v", view.Round)
	}
	if view.OpponentLabel == "" {
		t.Fatal("rally view has no opponent label")
	}

	// A straight win: 25 correct answers, each worth 100 points.
	var last *AnswerView
	for i := 0; i < 25; i++ {
		last = e.answer(t, view.ID, true)
		if !last.Applied || !last.Correct {
			t.Fatalf("answer %d not applied: %+v", i, last)
		}
		if last.Word == nil {
			t.Fatalf("answer %d returned no reward word", i)
		}
	}
	if !last.Finished || last.Session.Outcome != string(entities.OutcomePlayer) {
		t.Fatalf("after 25 wins: %+v", last.Session)
	}
	if last.Session.Score != 2500 {
		t.Fatalf("score = %d, want 2500", last.Session.Score)
	}

	// The frontier win unlocks level 2.
	if level := e.unlocks.levels[entities.ModeRally]; level != 2 {
		t.Fatalf("unlock level = %d, want 2", level)
	}

	// Further answers on the finished session are no-ops.
	after, err := e.orch.SubmitAnswer(ctx, view.ID, 0)
	if err != nil {
		t.Fatalf("SubmitAnswer after finish: %v", err)
	}
	if after.Applied {
		t.Fatal("answer applied after finish")
	}

	// The result lands on the level-1 rally board.
	ranked, err := e.orch.SubmitScore(ctx, view.ID, "hinata")
	if err != nil {
		t.Fatalf("SubmitScore: %v", err)
	}
	if len(ranked) != 1 || ranked[0].Name != "hinata" || ranked[0].Score != 2500 {
		t.Fatalf("ranked = %v", ranked)
	}
	if len(e.boards.boards["kanagame_rally_1"]) != 1 {
		t.Fatal("score stored under the wrong board key")
	}
	if _, err := e.orch.State(view.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("session survived score submission: %v", err)
	}
}

func TestRallyWrongAnswerRaisesOpponent(t *testing.T) {
	e := newTestEngine(t, 3)
	view, err := e.orch.StartSession(context.Background(), entities.ModeRally, 1, "")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	res := e.answer(t, view.ID, false)
	if res.Correct || res.Points != 0 {
		t.Fatalf("wrong answer scored: %+v", res)
	}
	if res.Session.OpponentRally != 1 || res.Session.PlayerRally != 0 {
		t.Fatalf("tallies = %d/%d", res.Session.PlayerRally, res.Session.OpponentRally)
	}
	if res.Session.Round == nil {
		t.Fatal("next round did not open")
	}
}

func TestRallyTimeout(t *testing.T) {
	e := newTestEngine(t, 4)
	view, err := e.orch.StartSession(context.Background(), entities.ModeRally, 1, "")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	s := e.orch.sessions.Get(view.ID)
	seq := s.Round.Seq

	e.orch.handleTimeout(view.ID, seq)
	if s.OpponentRally != 1 {
		t.Fatalf("timeout did not score for the opponent: %d", s.OpponentRally)
	}
	if s.Round.Seq != seq+1 {
		t.Fatalf("round seq = %d, want %d", s.Round.Seq, seq+1)
	}

	// A stale expiry for the already-superseded round changes nothing.
	e.orch.handleTimeout(view.ID, seq)
	if s.OpponentRally != 1 || s.Round.Seq != seq+1 {
		t.Fatalf("stale timeout applied: tallies %d, seq %d", s.OpponentRally, s.Round.Seq)
	}
}

func TestRallyInvalidOption(t *testing.T) {
	e := newTestEngine(t, 5)
	view, err := e.orch.StartSession(context.Background(), entities.ModeRally, 1, "")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if _, err := e.orch.SubmitAnswer(context.Background(), view.ID, 99); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("out-of-range option: %v", err)
	}
	if _, err := e.orch.FlipCard(context.Background(), view.ID, 0); !errors.Is(err, ErrWrongOperation) {
		t.Fatalf("flip on a rally session: %v", err)
	}
}

func TestPhraseSlotsResolveOnLastPick(t *testing.T) {
	e := newTestEngine(t, 6)
	e.unlocks.levels[entities.ModeRally] = 2

	view, err := e.orch.StartSession(context.Background(), entities.ModeRally, 2, "")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if view.Round.SlotCount != 2 {
		t.Fatalf("level 2 slot count = %d, want 2", view.Round.SlotCount)
	}

	// The first slot advances without scoring.
	first := e.answer(t, view.ID, true)
	if !first.Applied || !first.Correct || first.Points != 0 {
		t.Fatalf("first slot: %+v", first)
	}
	if first.Session.Round.SlotIndex != 1 {
		t.Fatalf("slot index = %d, want 1", first.Session.Round.SlotIndex)
	}

	// The last slot resolves the round at 50 points per character.
	second := e.answer(t, view.ID, true)
	if second.Points != 100 {
		t.Fatalf("2-char phrase points = %d, want 100", second.Points)
	}
	if second.Session.PlayerRally != 1 {
		t.Fatalf("player tally = %d, want 1", second.Session.PlayerRally)
	}
}

func TestPhraseWrongSlotResolvesRound(t *testing.T) {
	e := newTestEngine(t, 7)
	e.unlocks.levels[entities.ModeRally] = 3

	view, err := e.orch.StartSession(context.Background(), entities.ModeRally, 3, "")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	e.answer(t, view.ID, true) // slot 0
	res := e.answer(t, view.ID, false)
	if res.Correct {
		t.Fatal("wrong slot reported correct")
	}
	if res.Session.OpponentRally != 1 {
		t.Fatalf("opponent tally = %d, want 1", res.Session.OpponentRally)
	}
}

func TestFillBlanksEasyLifecycle(t *testing.T) {
	e := newTestEngine(t, 8)
	ctx := context.Background()

	view, err := e.orch.StartSession(ctx, entities.ModeFillBlanks, 0, entities.BlankEasy)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	// A quarter of the 46 playable cells, rounded down.
	if view.RemainingBlanks != 11 {
		t.Fatalf("easy blanks = %d, want 11", view.RemainingBlanks)
	}

	// A wrong pick keeps the blank pending.
	res := e.answer(t, view.ID, false)
	if res.Session.RemainingBlanks != 11 {
		t.Fatalf("wrong pick consumed a blank: %d", res.Session.RemainingBlanks)
	}
	if res.Session.Score != 0 {
		t.Fatalf("score went negative: %d", res.Session.Score)
	}

	for i := 0; i < 11; i++ {
		res = e.answer(t, view.ID, true)
		if !res.Applied || !res.Correct {
			t.Fatalf("fill %d: %+v", i, res)
		}
	}
	if !res.Finished || res.Session.Outcome != string(entities.OutcomeCompleted) {
		t.Fatalf("chart not completed: %+v", res.Session)
	}
	if res.Session.Score != 550 {
		t.Fatalf("score = %d, want 550", res.Session.Score)
	}
}

func TestFillBlanksHardCoversChart(t *testing.T) {
	e := newTestEngine(t, 9)
	view, err := e.orch.StartSession(context.Background(), entities.ModeFillBlanks, 0, entities.BlankHard)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if view.RemainingBlanks != 46 {
		t.Fatalf("hard blanks = %d, want 46", view.RemainingBlanks)
	}
}

func TestMatchSoundLifecycle(t *testing.T) {
	e := newTestEngine(t, 10)
	ctx := context.Background()

	view, err := e.orch.StartSession(ctx, entities.ModeMatchSound, 0, "")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if len(view.Deck) != 12 {
		t.Fatalf("deck size = %d, want 12", len(view.Deck))
	}
	for _, c := range view.Deck {
		if c.Text != "" {
			t.Fatalf("card %d face revealed before selection: %q", c.Index, c.Text)
		}
	}

	s := e.orch.sessions.Get(view.ID)

	// First flip selects; re-flipping the same card is a no-op.
	res, err := e.orch.FlipCard(ctx, view.ID, 0)
	if err != nil {
		t.Fatalf("FlipCard: %v", err)
	}
	if !res.Applied || !res.Session.Deck[0].Selected {
		t.Fatalf("first flip: %+v", res.Session.Deck[0])
	}
	if res.Session.Deck[0].Text == "" {
		t.Fatal("selected card face hidden")
	}
	res, err = e.orch.FlipCard(ctx, view.ID, 0)
	if err != nil {
		t.Fatalf("FlipCard: %v", err)
	}
	if res.Applied {
		t.Fatal("re-flip of the selected card applied")
	}

	// A mismatching second card scores against, both flip back.
	wrong := -1
	for i := 1; i < len(s.Deck); i++ {
		if s.Deck[i].Key != s.Deck[0].Key {
			wrong = i
			break
		}
	}
	res, err = e.orch.FlipCard(ctx, view.ID, wrong)
	if err != nil {
		t.Fatalf("FlipCard: %v", err)
	}
	if res.Correct || res.Session.Deck[0].Selected || res.Session.Deck[wrong].Selected {
		t.Fatalf("mismatch handling: %+v", res)
	}

	// Match every pair by peeking at the deck keys.
	for !res.Finished {
		firstIdx := -1
		for i, c := range s.Deck {
			if !c.Matched {
				firstIdx = i
				break
			}
		}
		partner := -1
		for i := firstIdx + 1; i < len(s.Deck); i++ {
			if !s.Deck[i].Matched && s.Deck[i].Key == s.Deck[firstIdx].Key {
				partner = i
				break
			}
		}
		if _, err = e.orch.FlipCard(ctx, view.ID, firstIdx); err != nil {
			t.Fatalf("FlipCard: %v", err)
		}
		if res, err = e.orch.FlipCard(ctx, view.ID, partner); err != nil {
			t.Fatalf("FlipCard: %v", err)
		}
		if !res.Correct || res.Word == nil {
			t.Fatalf("pair flip: %+v", res)
		}
	}
	if res.Session.Outcome != string(entities.OutcomeCompleted) {
		t.Fatalf("outcome = %q", res.Session.Outcome)
	}

	// Sound mode has no levels, so no unlock moved.
	if len(e.unlocks.levels) != 0 {
		t.Fatalf("unlock advanced for an unleveled mode: %v", e.unlocks.levels)
	}
	// Sound cards were pronounced along the way.
	if len(e.pron.texts) == 0 {
		t.Fatal("nothing was pronounced")
	}
}

func TestMatchKanaCompletionUnlocks(t *testing.T) {
	e := newTestEngine(t, 11)
	ctx := context.Background()

	view, err := e.orch.StartSession(ctx, entities.ModeMatchKana, 1, "")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if len(view.Deck) != 16 {
		t.Fatalf("deck size = %d, want 16", len(view.Deck))
	}

	s := e.orch.sessions.Get(view.ID)
	var res *AnswerView
	for res == nil || !res.Finished {
		firstIdx := -1
		for i, c := range s.Deck {
			if !c.Matched {
				firstIdx = i
				break
			}
		}
		partner := -1
		for i := firstIdx + 1; i < len(s.Deck); i++ {
			if !s.Deck[i].Matched && s.Deck[i].Key == s.Deck[firstIdx].Key {
				partner = i
				break
			}
		}
		if _, err = e.orch.FlipCard(ctx, view.ID, firstIdx); err != nil {
			t.Fatalf("FlipCard: %v", err)
		}
		if res, err = e.orch.FlipCard(ctx, view.ID, partner); err != nil {
			t.Fatalf("FlipCard: %v", err)
		}
	}

	if level := e.unlocks.levels[entities.ModeMatchKana]; level != 2 {
		t.Fatalf("unlock level = %d, want 2", level)
	}
}

func TestEndSessionDiscards(t *testing.T) {
	e := newTestEngine(t, 12)
	ctx := context.Background()

	view, err := e.orch.StartSession(ctx, entities.ModeRally, 1, "")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	ended, err := e.orch.EndSession(view.ID)
	if err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	if ended.Outcome != string(entities.OutcomeAbandoned) {
		t.Fatalf("outcome = %q, want abandoned", ended.Outcome)
	}
	if _, err := e.orch.State(view.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("abandoned session still present: %v", err)
	}
	if len(e.boards.boards) != 0 {
		t.Fatal("abandoned session reached a leaderboard")
	}
}

func TestSubmitScoreRequiresResult(t *testing.T) {
	e := newTestEngine(t, 13)
	ctx := context.Background()

	view, err := e.orch.StartSession(ctx, entities.ModeRally, 1, "")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if _, err := e.orch.SubmitScore(ctx, view.ID, "x"); !errors.Is(err, ErrNoResult) {
		t.Fatalf("score on a live session: %v", err)
	}
	if _, err := e.orch.SubmitScore(ctx, "missing", "x"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("score on a missing session: %v", err)
	}
}

func TestSubmitScoreDefaultName(t *testing.T) {
	e := newTestEngine(t, 14)
	ctx := context.Background()

	view, err := e.orch.StartSession(ctx, entities.ModeFillBlanks, 0, entities.BlankEasy)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	var res *AnswerView
	for res == nil || !res.Finished {
		res = e.answer(t, view.ID, true)
	}

	ranked, err := e.orch.SubmitScore(ctx, view.ID, "   ")
	if err != nil {
		t.Fatalf("SubmitScore: %v", err)
	}
	if ranked[0].Name != defaultPlayerName {
		t.Fatalf("name = %q, want %q", ranked[0].Name, defaultPlayerName)
	}
}
