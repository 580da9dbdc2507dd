package entities

import "time"

// Candidate stands for exactly one position in exactly one election.
// VoteCount is a denormalized tally maintained atomically with ledger writes;
// the ballot ledger stays the source of truth.
type Candidate struct {
	CandidateID     string
	ElectionID      string
	MemberID        string
	Position        string
	Manifesto       string
	VisionStatement string
	VoteCount       int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
