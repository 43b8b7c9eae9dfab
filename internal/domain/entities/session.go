package entities

import (
	"strconv"
	"time"
)

// SessionPhase is the state-machine phase of a play session. Transitions:
// idle -> awaiting-answer -> scored -> awaiting-answer ... -> finished.
type SessionPhase string

const (
	PhaseIdle           SessionPhase = "idle"            // no round pending yet
	PhaseAwaitingAnswer SessionPhase = "awaiting-answer" // a round is pending
	PhaseScored         SessionPhase = "scored"          // answer applied, next round may start
	PhaseFinished       SessionPhase = "finished"        // terminal
)

// Outcome is the terminal result of a session.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomePlayer    Outcome = "player"    // rally won by the player
	OutcomeOpponent  Outcome = "opponent"  // rally won by the opponent
	OutcomeCompleted Outcome = "completed" // all pairs matched / all blanks filled
	OutcomeAbandoned Outcome = "abandoned" // ended before a result
)

// Card is one face of a matching-pairs deck.
type Card struct {
	Key     string // entry key shared by both faces of a pair
	Script  Script // which face this card shows
	Text    string // rendered face
	Matched bool
}

// Session is the mutable state of one play session. It is owned exclusively
// by the orchestrator; nothing else mutates it.
type Session struct {
	ID    string
	Mode  GameMode
	Level int             // leveled modes
	Blank BlankDifficulty // fill-blanks only

	Phase   SessionPhase
	Outcome Outcome

	Score         int  // leaderboard points
	PlayerRally   int  // rally tallies, unused outside rally
	OpponentRally int
	Deuce         bool

	StartedAt  time.Time
	FinishedAt *time.Time

	// Round-driven modes.
	Round     *Round
	SlotIndex int                 // next phrase slot to fill
	UsedKeys  map[string]struct{} // no-repeat window over target keys
	Seq       uint64              // last issued round sequence number

	// Matching-pairs modes.
	Deck         []Card
	FirstPick    int // face-up card awaiting its pair, -1 when none
	MatchedPairs int
	TotalPairs   int

	// Fill-blanks mode.
	PendingBlanks   []string // keys of cells still hidden
	RemainingBlanks int
}

// NewSession creates a fresh session with all transient state reset.
func NewSession(id string, mode GameMode) *Session {
	return &Session{
		ID:        id,
		Mode:      mode,
		Phase:     PhaseIdle,
		StartedAt: time.Now(),
		UsedKeys:  make(map[string]struct{}),
		FirstPick: -1,
	}
}

// Active reports whether the session still accepts play.
func (s *Session) Active() bool { return s.Phase != PhaseFinished }

// ElapsedSeconds returns whole seconds of play, frozen at finish time.
func (s *Session) ElapsedSeconds(now time.Time) int {
	end := now
	if s.FinishedAt != nil {
		end = *s.FinishedAt
	}
	return int(end.Sub(s.StartedAt).Seconds())
}

// BoardKey returns the leaderboard key the session's result belongs to,
// qualified by difficulty where the mode is partitioned.
func (s *Session) BoardKey() string {
	key := "kanagame_" + string(s.Mode)
	switch s.Mode {
	case ModeFillBlanks:
		key += "_" + string(s.Blank)
	case ModeRally, ModeMatchKana:
		key += "_" + strconv.Itoa(s.Level)
	}
	return key
}
