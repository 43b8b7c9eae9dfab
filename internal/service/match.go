package service

import (
	"errors"
	"time"

	"github.com/lawyerjames/KanaLearning/internal/domain/entities"
)

// Scoring values mirror the original game: matches and rally answers are
// worth 100 points (50 per character in phrase tiers), chart fills 50, with
// small deductions for mistakes, never below zero.
const (
	pointsMatch      = 100
	pointsFill       = 50
	pointsPerChar    = 50
	penaltyMismatch  = 10
	penaltyWrongFill = 5
	rallyTargetScore = 25
	deuceThreshold   = 24
)

var (
	// ErrNotAwaitingAnswer guards against double-scoring: answers and
	// timeouts are applied only while a round is pending.
	ErrNotAwaitingAnswer = errors.New("no round awaiting an answer")
	// ErrRoundPending rejects starting a round over an unresolved one.
	ErrRoundPending = errors.New("previous round not resolved")
	// ErrSessionFinished rejects any transition after the terminal state.
	ErrSessionFinished = errors.New("session already finished")
)

// Result describes what resolving one answer (or timeout) did to a session.
type Result struct {
	Correct      bool
	Points       int  // signed score delta applied
	DeuceEntered bool // true exactly once per rally session
	Finished     bool
	Outcome      entities.Outcome
}

// BeginRound transitions the session into awaiting-answer. Valid only from
// idle or scored; rejecting awaiting-answer is what makes a stale timer or
// a double-start unable to corrupt an open round.
func BeginRound(s *entities.Session) error {
	switch s.Phase {
	case entities.PhaseFinished:
		return ErrSessionFinished
	case entities.PhaseAwaitingAnswer:
		return ErrRoundPending
	}
	s.Phase = entities.PhaseAwaitingAnswer
	return nil
}

// Resolve applies one answered (or timed-out) round to the session and runs
// the mode's win check. Valid only in awaiting-answer; anything else is a
// guard violation, which callers treat as a no-op on double submission.
func Resolve(s *entities.Session, correct bool) (Result, error) {
	if s.Phase != entities.PhaseAwaitingAnswer {
		if s.Phase == entities.PhaseFinished {
			return Result{}, ErrSessionFinished
		}
		return Result{}, ErrNotAwaitingAnswer
	}

	var res Result
	res.Correct = correct

	switch s.Mode {
	case entities.ModeRally:
		res = resolveRally(s, correct)
	case entities.ModeFillBlanks:
		res = resolveFillBlanks(s, correct)
	case entities.ModeMatchSound, entities.ModeMatchKana:
		res = resolvePairs(s, correct)
	}

	if res.Finished {
		finish(s, res.Outcome)
	} else {
		s.Phase = entities.PhaseScored
	}
	return res, nil
}

// Abandon ends the session without a result, discarding any pending round.
func Abandon(s *entities.Session) {
	if s.Phase == entities.PhaseFinished {
		return
	}
	finish(s, entities.OutcomeAbandoned)
}

func finish(s *entities.Session, outcome entities.Outcome) {
	s.Phase = entities.PhaseFinished
	s.Outcome = outcome
	now := time.Now()
	s.FinishedAt = &now
	s.Round = nil
}

// resolveRally applies volleyball scoring: a correct answer is a point for
// the player, anything else a point for the opponent. First to 25 wins
// while the opponent is short of 24; once both sides reach 24 the set is in
// deuce and a two-point lead is required.
func resolveRally(s *entities.Session, correct bool) Result {
	var res Result
	res.Correct = correct

	if correct {
		phraseLen := 1
		if s.Round != nil {
			phraseLen = s.Round.PhraseLength()
		}
		if phraseLen <= 1 {
			res.Points = pointsMatch
		} else {
			res.Points = pointsPerChar * phraseLen
		}
		s.Score += res.Points
		s.PlayerRally++
	} else {
		s.OpponentRally++
	}

	// Deuce is entered exactly once, only when BOTH sides reach 24.
	if !s.Deuce && s.PlayerRally >= deuceThreshold && s.OpponentRally >= deuceThreshold {
		s.Deuce = true
		res.DeuceEntered = true
	}

	switch winner := rallyWinner(s); winner {
	case entities.OutcomePlayer, entities.OutcomeOpponent:
		res.Finished = true
		res.Outcome = winner
	}
	return res
}

// rallyWinner evaluates the win condition against the current tallies.
func rallyWinner(s *entities.Session) entities.Outcome {
	p, o := s.PlayerRally, s.OpponentRally
	if s.Deuce {
		if p-o >= 2 {
			return entities.OutcomePlayer
		}
		if o-p >= 2 {
			return entities.OutcomeOpponent
		}
		return entities.OutcomeNone
	}
	if p >= rallyTargetScore && o < deuceThreshold {
		return entities.OutcomePlayer
	}
	if o >= rallyTargetScore && p < deuceThreshold {
		return entities.OutcomeOpponent
	}
	return entities.OutcomeNone
}

// resolveFillBlanks scores a chart fill. A wrong pick keeps the blank in
// the pending set; only a correct answer consumes it.
func resolveFillBlanks(s *entities.Session, correct bool) Result {
	var res Result
	res.Correct = correct

	if correct {
		res.Points = pointsFill
		s.Score += pointsFill
		if s.RemainingBlanks > 0 {
			s.RemainingBlanks--
		}
		if s.RemainingBlanks == 0 {
			res.Finished = true
			res.Outcome = entities.OutcomeCompleted
		}
		return res
	}

	res.Points = -deduct(s, penaltyWrongFill)
	return res
}

// resolvePairs scores one two-card matching attempt.
func resolvePairs(s *entities.Session, matched bool) Result {
	var res Result
	res.Correct = matched

	if matched {
		res.Points = pointsMatch
		s.Score += pointsMatch
		s.MatchedPairs++
		if s.MatchedPairs >= s.TotalPairs {
			res.Finished = true
			res.Outcome = entities.OutcomeCompleted
		}
		return res
	}

	res.Points = -deduct(s, penaltyMismatch)
	return res
}

// deduct lowers the score by at most penalty, flooring at zero, and returns
// the amount actually taken.
func deduct(s *entities.Session, penalty int) int {
	if s.Score < penalty {
		penalty = s.Score
	}
	s.Score -= penalty
	return penalty
}
