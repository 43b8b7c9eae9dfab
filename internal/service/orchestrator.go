package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lawyerjames/KanaLearning/internal/domain/entities"
	"github.com/lawyerjames/KanaLearning/internal/storage"
)

const (
	soundMatchPairs = 6 // 4x3 deck
	kanaMatchPairs  = 8 // 4x4 deck
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrUnknownMode       = errors.New("unknown game mode")
	ErrUnknownLevel      = errors.New("unknown level")
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	ErrLevelLocked       = errors.New("level not unlocked yet")
	ErrInvalidOption     = errors.New("option index out of range")
	ErrInvalidCard       = errors.New("card index out of range")
	ErrWrongOperation    = errors.New("operation does not apply to this mode")
	ErrNoResult          = errors.New("session has no submittable result")
)

// Orchestrator owns every live session and serializes all state
// transitions, including timer expiries, behind one mutex. This mirrors the
// single-threaded event model the game was designed around: no two
// transitions ever interleave.
type Orchestrator struct {
	mu sync.Mutex

	content  ContentRepository
	gen      *Generator
	boards   *LeaderboardService
	unlocks  *UnlockService
	sessions *storage.SessionStorage
	timers   map[string]*TimerHandle
	pron     Pronouncer
	log      *zap.Logger
}

// NewOrchestrator wires the engine together.
func NewOrchestrator(
	content ContentRepository,
	gen *Generator,
	boards *LeaderboardService,
	unlocks *UnlockService,
	pron Pronouncer,
	log *zap.Logger,
) *Orchestrator {
	if pron == nil {
		pron = NopPronouncer{}
	}
	return &Orchestrator{
		content:  content,
		gen:      gen,
		boards:   boards,
		unlocks:  unlocks,
		sessions: storage.NewSessionStorage(),
		timers:   make(map[string]*TimerHandle),
		pron:     pron,
		log:      log,
	}
}

// StartSession creates a session for the mode at the given level (leveled
// modes) or blank difficulty (fill-blanks), generates the first round or
// deck and starts the round timer where the mode is timed. All transient
// state is fresh; nothing leaks from prior sessions.
func (o *Orchestrator) StartSession(ctx context.Context, mode entities.GameMode, level int, blank entities.BlankDifficulty) (*SessionView, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !mode.Valid() {
		return nil, ErrUnknownMode
	}

	s := entities.NewSession(uuid.NewString(), mode)

	switch mode {
	case entities.ModeRally:
		if err := o.startRally(ctx, s, level); err != nil {
			return nil, err
		}
	case entities.ModeMatchKana:
		if err := o.startMatchKana(ctx, s, level); err != nil {
			return nil, err
		}
	case entities.ModeMatchSound:
		o.startMatchSound(s)
	case entities.ModeFillBlanks:
		if err := o.startFillBlanks(s, blank); err != nil {
			return nil, err
		}
	}

	o.sessions.Store(s)
	o.log.Info("session started",
		zap.String("session", s.ID),
		zap.String("mode", string(mode)),
		zap.Int("level", s.Level))
	return o.sessionView(s), nil
}

func (o *Orchestrator) startRally(ctx context.Context, s *entities.Session, level int) error {
	if _, ok := entities.RallyLevel(level); !ok {
		return ErrUnknownLevel
	}
	if level > o.unlocks.UnlockedLevel(ctx, entities.ModeRally) {
		return ErrLevelLocked
	}
	s.Level = level
	return o.nextRound(s)
}

func (o *Orchestrator) startMatchKana(ctx context.Context, s *entities.Session, level int) error {
	cfg, ok := entities.MatchKanaLevel(level)
	if !ok {
		return ErrUnknownLevel
	}
	if level > o.unlocks.UnlockedLevel(ctx, entities.ModeMatchKana) {
		return ErrLevelLocked
	}
	s.Level = level

	pool := o.poolFor(cfg)
	s.Deck = o.gen.NewPairDeck(pool, kanaMatchPairs, entities.ScriptHiragana, entities.ScriptKatakana)
	s.TotalPairs = len(s.Deck) / 2
	return BeginRound(s)
}

func (o *Orchestrator) startMatchSound(s *entities.Session) {
	s.Level = 1
	s.Deck = o.gen.NewPairDeck(o.content.Entries(), soundMatchPairs, entities.ScriptHiragana, entities.ScriptRomaji)
	s.TotalPairs = len(s.Deck) / 2
	_ = BeginRound(s)
}

func (o *Orchestrator) startFillBlanks(s *entities.Session, blank entities.BlankDifficulty) error {
	if !blank.Valid() {
		return ErrUnknownDifficulty
	}
	s.Blank = blank

	cells := o.content.PlayableCells()
	hide := int(float64(len(cells)) * blank.HideFraction())
	s.PendingBlanks = o.gen.SampleKeys(cells, hide)
	s.RemainingBlanks = len(s.PendingBlanks)
	return o.nextBlankRound(s)
}

// SubmitAnswer applies a selected option to the pending round. Answers
// arriving after the round resolved are a no-op, not an error.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, id string, optionIndex int) (*AnswerView, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := o.sessions.Get(id)
	if s == nil {
		return nil, ErrSessionNotFound
	}
	if s.Mode == entities.ModeMatchSound || s.Mode == entities.ModeMatchKana {
		return nil, ErrWrongOperation
	}
	if s.Phase != entities.PhaseAwaitingAnswer || s.Round == nil {
		return &AnswerView{Applied: false, Session: o.sessionView(s)}, nil
	}
	if optionIndex < 0 || optionIndex >= len(s.Round.Options) {
		return nil, ErrInvalidOption
	}

	selected := s.Round.Options[optionIndex]
	expected := s.Round.ExpectedAt(s.SlotIndex)

	// Phrase rounds fill slots one by one; only the last slot (or a wrong
	// pick) resolves the round.
	if selected == expected && s.SlotIndex < s.Round.PhraseLength()-1 {
		s.SlotIndex++
		return &AnswerView{Applied: true, Correct: true, Session: o.sessionView(s)}, nil
	}

	correct := selected == expected
	return o.resolveRound(ctx, s, correct, false)
}

// FlipCard applies one card flip in a matching-pairs session. Flipping a
// matched or already-selected card is a no-op.
func (o *Orchestrator) FlipCard(ctx context.Context, id string, cardIndex int) (*AnswerView, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := o.sessions.Get(id)
	if s == nil {
		return nil, ErrSessionNotFound
	}
	if s.Mode != entities.ModeMatchSound && s.Mode != entities.ModeMatchKana {
		return nil, ErrWrongOperation
	}
	if s.Phase != entities.PhaseAwaitingAnswer {
		return &AnswerView{Applied: false, Session: o.sessionView(s)}, nil
	}
	if cardIndex < 0 || cardIndex >= len(s.Deck) {
		return nil, ErrInvalidCard
	}

	card := s.Deck[cardIndex]
	if card.Matched || cardIndex == s.FirstPick {
		return &AnswerView{Applied: false, Session: o.sessionView(s)}, nil
	}

	// Sound cards are pronounced on flip.
	if card.Script == entities.ScriptRomaji {
		if e, ok := o.content.ByKey(card.Key); ok {
			o.pron.Pronounce(e.Hiragana)
		}
	}

	if s.FirstPick < 0 {
		s.FirstPick = cardIndex
		return &AnswerView{Applied: true, Session: o.sessionView(s)}, nil
	}

	first := s.Deck[s.FirstPick]
	matched := first.Key == card.Key && first.Script != card.Script
	if matched {
		s.Deck[s.FirstPick].Matched = true
		s.Deck[cardIndex].Matched = true
	}

	res, err := Resolve(s, matched)
	if err != nil {
		return &AnswerView{Applied: false, Session: o.sessionView(s)}, nil
	}
	s.FirstPick = -1

	view := &AnswerView{
		Applied:  true,
		Correct:  res.Correct,
		Points:   res.Points,
		Finished: res.Finished,
	}

	if matched {
		if e, ok := o.content.ByKey(card.Key); ok {
			view.Word = wordView(e)
			o.pron.Pronounce(e.Word)
		} else {
			// Phrase pairs are not in the single-kana index.
			view.Word = wordView(findInDeckPool(o.content, s, card.Key))
			o.pron.Pronounce(card.Key)
		}
	}

	if res.Finished {
		o.finishSession(ctx, s)
	} else {
		_ = BeginRound(s)
	}

	view.Session = o.sessionView(s)
	return view, nil
}

// State returns the current presentation snapshot of a session.
func (o *Orchestrator) State(id string) (*SessionView, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := o.sessions.Get(id)
	if s == nil {
		return nil, ErrSessionNotFound
	}
	return o.sessionView(s), nil
}

// EndSession cancels any pending timer, discards the in-flight round
// without scoring it and drops the session.
func (o *Orchestrator) EndSession(id string) (*SessionView, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := o.sessions.Get(id)
	if s == nil {
		return nil, ErrSessionNotFound
	}

	o.cancelTimer(s.ID)
	Abandon(s)
	view := o.sessionView(s)
	o.sessions.Delete(id)
	o.log.Info("session abandoned", zap.String("session", id))
	return view, nil
}

// SubmitScore records a finished session's result on its leaderboard and
// drops the session. Abandoned sessions have no submittable result.
func (o *Orchestrator) SubmitScore(ctx context.Context, id, name string) ([]entities.LeaderboardEntry, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := o.sessions.Get(id)
	if s == nil {
		return nil, ErrSessionNotFound
	}
	if s.Phase != entities.PhaseFinished || s.Outcome == entities.OutcomeAbandoned {
		return nil, ErrNoResult
	}

	ranked, err := o.boards.SubmitResult(ctx, s, name)
	if err != nil {
		return nil, err
	}
	o.sessions.Delete(id)
	return ranked, nil
}

// resolveRound scores a round-driven answer or timeout and moves the
// session forward: next round, or finish with leaderboard/unlock side
// effects. The timer is cancelled before any scoring; if it already
// expired, the timeout path wins and the answer is reported unapplied.
func (o *Orchestrator) resolveRound(ctx context.Context, s *entities.Session, correct, isTimeout bool) (*AnswerView, error) {
	if !isTimeout {
		if h := o.timers[s.ID]; h != nil {
			if !h.Cancel() {
				// Expired first; the timeout callback will score it.
				return &AnswerView{Applied: false, Session: o.sessionView(s)}, nil
			}
			delete(o.timers, s.ID)
		}
	}

	entry := s.Round.Entry
	correctKey := s.Round.CorrectKey

	res, err := Resolve(s, correct)
	if err != nil {
		return &AnswerView{Applied: false, Session: o.sessionView(s)}, nil
	}

	view := &AnswerView{
		Applied:      true,
		Correct:      res.Correct,
		Points:       res.Points,
		DeuceEntered: res.DeuceEntered,
		Finished:     res.Finished,
	}
	if res.Correct {
		view.Word = wordView(entry)
		o.pron.Pronounce(pronounceText(entry))
	}
	if res.DeuceEntered {
		o.log.Info("deuce", zap.String("session", s.ID),
			zap.Int("player", s.PlayerRally), zap.Int("opponent", s.OpponentRally))
	}

	if res.Finished {
		o.finishSession(ctx, s)
		view.Session = o.sessionView(s)
		return view, nil
	}

	// Fill-blanks keeps a wrong blank in the pending set; only a correct
	// answer consumes it.
	if s.Mode == entities.ModeFillBlanks {
		if res.Correct {
			s.PendingBlanks = removeKey(s.PendingBlanks, correctKey)
		}
		if err := o.nextBlankRound(s); err != nil {
			return nil, err
		}
	} else {
		if err := o.nextRound(s); err != nil {
			return nil, err
		}
	}

	view.Session = o.sessionView(s)
	return view, nil
}

// nextRound generates and opens the next rally round, starting its timer.
func (o *Orchestrator) nextRound(s *entities.Session) error {
	cfg, ok := entities.RallyLevel(s.Level)
	if !ok {
		return ErrUnknownLevel
	}

	pool := o.poolFor(cfg)
	round := o.gen.NextQuestion(pool, cfg, s.UsedKeys)
	if round == nil {
		return ErrUnknownLevel
	}

	s.Seq++
	round.Seq = s.Seq
	s.Round = round
	s.SlotIndex = 0
	if err := BeginRound(s); err != nil {
		return err
	}

	o.pron.Pronounce(round.PromptText)

	if cfg.TimeBudget > 0 {
		id, seq := s.ID, round.Seq
		o.timers[id] = StartTimer(cfg.TimeBudget, func() {
			o.handleTimeout(id, seq)
		})
	}
	return nil
}

// nextBlankRound opens a round for a randomly picked pending blank. Blanks
// answered wrongly stay in the set, so the same cell can come up again.
func (o *Orchestrator) nextBlankRound(s *entities.Session) error {
	key := o.gen.PickKey(s.PendingBlanks)
	target, ok := o.content.ByKey(key)
	if !ok {
		// Unplayable cells are filtered at load time, so this is a data
		// bug; drop the cell rather than wedging the session.
		o.log.Error("pending blank has no kana entry", zap.String("cell", key))
		s.PendingBlanks = removeKey(s.PendingBlanks, key)
		if s.RemainingBlanks > 0 {
			s.RemainingBlanks--
		}
		if len(s.PendingBlanks) == 0 {
			Abandon(s)
			return nil
		}
		return o.nextBlankRound(s)
	}

	round := o.gen.NextBlankQuestion(target, o.content.Entries())
	s.Seq++
	round.Seq = s.Seq
	s.Round = round
	s.SlotIndex = 0
	if err := BeginRound(s); err != nil {
		return err
	}
	o.pron.Pronounce(round.PromptText)
	return nil
}

// handleTimeout is the timer expiry callback. The sequence guard makes a
// stale expiry for an already-resolved or superseded round a no-op.
func (o *Orchestrator) handleTimeout(id string, seq uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := o.sessions.Get(id)
	if s == nil {
		return
	}
	if s.Round == nil || s.Round.Seq != seq || s.Phase != entities.PhaseAwaitingAnswer {
		return
	}
	delete(o.timers, id)

	if _, err := o.resolveRound(context.Background(), s, false, true); err != nil {
		o.log.Warn("timeout resolution failed", zap.String("session", id), zap.Error(err))
	}
}

// finishSession applies end-of-session side effects: timer teardown and,
// on a win at the frontier, the unlock advance. Leaderboard submission
// waits for the player's name.
func (o *Orchestrator) finishSession(ctx context.Context, s *entities.Session) {
	o.cancelTimer(s.ID)

	won := s.Outcome == entities.OutcomePlayer ||
		(s.Outcome == entities.OutcomeCompleted && s.Mode.Leveled())
	if won && s.Mode.Leveled() {
		if level, advanced := o.unlocks.RecordWin(ctx, s.Mode, s.Level); advanced {
			o.log.Info("level unlocked",
				zap.String("mode", string(s.Mode)), zap.Int("level", level))
		}
	}

	o.log.Info("session finished",
		zap.String("session", s.ID),
		zap.String("outcome", string(s.Outcome)),
		zap.Int("score", s.Score))
}

func (o *Orchestrator) cancelTimer(id string) {
	if h := o.timers[id]; h != nil {
		h.Cancel()
		delete(o.timers, id)
	}
}

// poolFor returns the question pool for a level: the word bank for phrase
// tiers, the alphabet otherwise. An empty bank degrades to the alphabet.
func (o *Orchestrator) poolFor(cfg entities.DifficultyConfig) []*entities.KanaEntry {
	if cfg.PhraseLength > 1 {
		if pool := o.content.PhrasePool(cfg.PhraseLength); len(pool) > 0 {
			return pool
		}
		o.log.Warn("word bank missing, falling back to single kana",
			zap.Int("length", cfg.PhraseLength))
	}
	return o.content.Entries()
}

func pronounceText(e *entities.KanaEntry) string {
	if e == nil {
		return ""
	}
	if e.Word != "" {
		return e.Word
	}
	return e.Hiragana
}

func removeKey(keys []string, key string) []string {
	for i, k := range keys {
		if k == key {
			return append(keys[:i], keys[i+1:]...)
		}
	}
	return keys
}

// findInDeckPool resolves a phrase pair's entry for the reward view.
func findInDeckPool(content ContentRepository, s *entities.Session, key string) *entities.KanaEntry {
	if cfg, ok := entities.MatchKanaLevel(s.Level); ok && cfg.PhraseLength > 1 {
		for _, e := range content.PhrasePool(cfg.PhraseLength) {
			if e.Key() == key {
				return e
			}
		}
	}
	return nil
}
