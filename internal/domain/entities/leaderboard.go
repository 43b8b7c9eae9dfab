package entities

import "time"

// LeaderboardEntry is one persisted score record. Field names on the wire
// match the historical browser storage format.
type LeaderboardEntry struct {
	Name           string    `json:"name"`
	Score          int       `json:"score"`
	ElapsedSeconds int       `json:"time"`
	SubmittedAt    time.Time `json:"date"`
}

// Better reports whether the entry ranks above other: higher score first,
// shorter time breaking ties.
func (e LeaderboardEntry) Better(other LeaderboardEntry) bool {
	if e.Score != other.Score {
		return e.Score > other.Score
	}
	return e.ElapsedSeconds < other.ElapsedSeconds
}
