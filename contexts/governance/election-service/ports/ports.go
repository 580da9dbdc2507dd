package ports

import (
	"context"
	"time"

	"nexus/contexts/governance/election-service/domain/entities"
	contractsv1 "nexus/contracts/gen/events/v1"
)

type ElectionRepository interface {
	SaveElection(ctx context.Context, election entities.Election) error
	GetElection(ctx context.Context, electionID string) (entities.Election, error)
	ListElections(ctx context.Context) ([]entities.Election, error)
	SaveCandidate(ctx context.Context, candidate entities.Candidate) error
	GetCandidate(ctx context.Context, candidateID string) (entities.Candidate, error)
	ListCandidatesByElection(ctx context.Context, electionID string) ([]entities.Candidate, error)
	ListCandidates(ctx context.Context) ([]entities.Candidate, error)
	UpdateTally(ctx context.Context, candidateID string, voteCount int64) error
	HasVotedInElection(ctx context.Context, voterID string, electionID string) (bool, error)
	ListBallotsByVoter(ctx context.Context, voterID string, electionID string) ([]entities.BallotEntry, error)
	CountBallotsByCandidate(ctx context.Context, candidateID string) (int64, error)
}

// BallotTx is the view of the store inside one atomic cast-ballot unit. The
// storage-level unique constraint over (voter, election, position) is the
// authoritative duplicate guard; HasVoted is a fast-reject optimization only.
type BallotTx interface {
	GetCandidate(ctx context.Context, candidateID string) (entities.Candidate, error)
	HasVoted(ctx context.Context, voterID string, electionID string, position string) (bool, error)
	AppendBallot(ctx context.Context, entry entities.BallotEntry) error
	IncrementTally(ctx context.Context, candidateID string) (int64, error)
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

// BallotLedger scopes one transaction over the ballot ledger and tally cache.
// If fn returns an error every write performed inside it is rolled back.
type BallotLedger interface {
	InTransaction(ctx context.Context, fn func(tx BallotTx) error) error
}

// MemberProjection is the user-identity collaborator consumed by the module.
type MemberProjection struct {
	MemberID    string
	DisplayName string
	Role        string
}

type MemberDirectory interface {
	GetMember(ctx context.Context, memberID string) (MemberProjection, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
