package service

import (
	"time"

	"github.com/lawyerjames/KanaLearning/internal/domain/entities"
)

// RoundView is the presentation-layer projection of a pending round.
type RoundView struct {
	Prompt            string   `json:"prompt"`
	PromptScript      string   `json:"promptScript"`
	AnswerScript      string   `json:"answerScript"`
	Options           []string `json:"options"`
	SlotCount         int      `json:"slotCount"`
	SlotIndex         int      `json:"slotIndex"`
	RemainingFraction float64  `json:"remainingFraction"`
}

// CardView exposes one deck position. Face text is revealed only for
// matched cards and the currently selected one.
type CardView struct {
	Index    int    `json:"index"`
	Text     string `json:"text,omitempty"`
	Script   string `json:"script,omitempty"`
	Matched  bool   `json:"matched"`
	Selected bool   `json:"selected"`
}

// WordView is the reward-word payload surfaced after a correct answer.
type WordView struct {
	Kana    string `json:"kana"`
	Word    string `json:"word"`
	Romaji  string `json:"romaji,omitempty"`
	Meaning string `json:"meaning"`
}

// SessionView is the full presentation-layer snapshot of a session.
type SessionView struct {
	ID              string     `json:"id"`
	Mode            string     `json:"mode"`
	Level           int        `json:"level,omitempty"`
	Difficulty      string     `json:"difficulty,omitempty"`
	Phase           string     `json:"phase"`
	Outcome         string     `json:"outcome,omitempty"`
	Score           int        `json:"score"`
	PlayerRally     int        `json:"playerRally,omitempty"`
	OpponentRally   int        `json:"opponentRally,omitempty"`
	OpponentLabel   string     `json:"opponentLabel,omitempty"`
	Deuce           bool       `json:"deuce,omitempty"`
	RemainingBlanks int        `json:"remainingBlanks,omitempty"`
	ElapsedSeconds  int        `json:"elapsedSeconds"`
	Round           *RoundView `json:"round,omitempty"`
	Deck            []CardView `json:"deck,omitempty"`
}

// AnswerView reports the effect of one answer, flip or timeout.
type AnswerView struct {
	Applied      bool         `json:"applied"` // false for resolved-round no-ops
	Correct      bool         `json:"correct"`
	Points       int          `json:"points"`
	DeuceEntered bool         `json:"deuceEntered,omitempty"`
	Finished     bool         `json:"finished"`
	Word         *WordView    `json:"word,omitempty"`
	Session      *SessionView `json:"session"`
}

func (o *Orchestrator) sessionView(s *entities.Session) *SessionView {
	view := &SessionView{
		ID:              s.ID,
		Mode:            string(s.Mode),
		Level:           s.Level,
		Difficulty:      string(s.Blank),
		Phase:           string(s.Phase),
		Outcome:         string(s.Outcome),
		Score:           s.Score,
		PlayerRally:     s.PlayerRally,
		OpponentRally:   s.OpponentRally,
		Deuce:           s.Deuce,
		RemainingBlanks: s.RemainingBlanks,
		ElapsedSeconds:  s.ElapsedSeconds(time.Now()),
	}

	if s.Mode == entities.ModeRally {
		if cfg, ok := entities.RallyLevel(s.Level); ok {
			view.OpponentLabel = cfg.OpponentLabel
		}
	}

	if s.Round != nil && s.Phase == entities.PhaseAwaitingAnswer {
		rv := &RoundView{
			Prompt:       s.Round.PromptText,
			PromptScript: string(s.Round.PromptScript),
			AnswerScript: string(s.Round.AnswerScript),
			Options:      s.Round.Options,
			SlotCount:    s.Round.PhraseLength(),
			SlotIndex:    s.SlotIndex,
		}
		if h := o.timers[s.ID]; h != nil {
			rv.RemainingFraction = h.Remaining()
		}
		view.Round = rv
	}

	for i, c := range s.Deck {
		cv := CardView{Index: i, Matched: c.Matched, Selected: i == s.FirstPick}
		if c.Matched || cv.Selected {
			cv.Text = c.Text
			cv.Script = string(c.Script)
		}
		view.Deck = append(view.Deck, cv)
	}
	return view
}

func wordView(e *entities.KanaEntry) *WordView {
	if e == nil {
		return nil
	}
	word := e.Word
	if word == "" {
		word = e.Hiragana
	}
	return &WordView{
		Kana:    e.Hiragana,
		Word:    word,
		Romaji:  e.Romaji,
		Meaning: e.Meaning,
	}
}
