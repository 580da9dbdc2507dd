package entities

import "time"

// BallotEntry is an immutable ledger record of one cast vote. Position is
// copied from the candidate at write time and never re-derived, and entries
// are never updated or deleted. (voter, election, position) is unique across
// all time.
type BallotEntry struct {
	BallotID    string
	VoterID     string
	ElectionID  string
	CandidateID string
	Position    string
	IPAddress   string
	UserAgent   string
	CastAt      time.Time
}
