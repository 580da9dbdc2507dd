package commands

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	application "nexus/contexts/governance/election-service/application"
	"nexus/contexts/governance/election-service/domain/entities"
	domainerrors "nexus/contexts/governance/election-service/domain/errors"
	"nexus/contexts/governance/election-service/domain/policy"
	"nexus/contexts/governance/election-service/ports"
)

// CastBallotCommand is the write-model input for one ballot submission:
// a mapping from position name to the chosen candidate id.
type CastBallotCommand struct {
	VoterID    string
	ElectionID string
	Selections map[string]string
	IPAddress  string
	UserAgent  string
}

// CastBallotResult reports the positions recorded by a committed submission.
type CastBallotResult struct {
	PositionsRecorded int
	Entries           []entities.BallotEntry
}

// BallotUseCase coordinates a ballot submission: eligibility snapshot,
// candidate legitimacy, per-position uniqueness, ledger append, and tally
// bump, all inside one storage transaction. A submission is all-or-nothing.
type BallotUseCase struct {
	Elections ports.ElectionRepository
	Ledger    ports.BallotLedger
	Members   ports.MemberDirectory
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

// CastBallot validates preconditions once, as a snapshot, then executes every
// selection in one atomic unit. Whichever concurrent submission commits first
// wins a contested position; the loser observes DuplicateVote.
func (uc BallotUseCase) CastBallot(ctx context.Context, cmd CastBallotCommand) (CastBallotResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	voterID := strings.TrimSpace(cmd.VoterID)
	electionID := strings.TrimSpace(cmd.ElectionID)
	logger.Info("ballot submission started",
		"event", "election_ballot_cast_started",
		"module", "governance/election-service",
		"layer", "application",
		"voter_id", voterID,
		"election_id", electionID,
		"positions", len(cmd.Selections),
	)

	if voterID == "" || electionID == "" {
		return CastBallotResult{}, domainerrors.ErrInvalidElectionInput
	}
	if len(cmd.Selections) == 0 {
		return CastBallotResult{}, domainerrors.ErrEmptyBallot
	}

	member, err := uc.Members.GetMember(ctx, voterID)
	if err != nil {
		return CastBallotResult{}, err
	}
	if policy.RoleBarred(member.Role) {
		logger.Warn("ballot rejected for barred role",
			"event", "election_ballot_cast_barred_role",
			"module", "governance/election-service",
			"layer", "application",
			"voter_id", voterID,
			"election_id", electionID,
			"role", member.Role,
		)
		return CastBallotResult{}, domainerrors.ErrNotEligible
	}

	election, err := uc.Elections.GetElection(ctx, electionID)
	if err != nil {
		return CastBallotResult{}, err
	}
	if election.Archived() {
		return CastBallotResult{}, domainerrors.ErrElectionArchived
	}

	// Phase is evaluated once here. A ballot submitted in the final instant of
	// the window completes even if the window closes mid-transaction.
	now := uc.now()
	if election.PhaseAt(now) != entities.PhaseActive {
		return CastBallotResult{}, domainerrors.ErrElectionNotActive
	}

	positions := make([]string, 0, len(cmd.Selections))
	for position := range cmd.Selections {
		positions = append(positions, position)
	}
	sort.Strings(positions)

	var entries []entities.BallotEntry
	err = uc.Ledger.InTransaction(ctx, func(tx ports.BallotTx) error {
		entries = entries[:0]
		for _, position := range positions {
			candidateID := strings.TrimSpace(cmd.Selections[position])
			position = strings.TrimSpace(position)
			if position == "" || candidateID == "" {
				return domainerrors.ErrInvalidCandidateInput
			}

			candidate, err := tx.GetCandidate(ctx, candidateID)
			if err != nil {
				return err
			}
			if candidate.ElectionID != electionID || !strings.EqualFold(candidate.Position, position) {
				return domainerrors.ErrInvalidCandidate
			}

			// Fast reject only; the unique constraint below is authoritative.
			if voted, err := tx.HasVoted(ctx, voterID, electionID, candidate.Position); err != nil {
				return err
			} else if voted {
				return &domainerrors.DuplicateVoteError{Position: candidate.Position}
			}

			ballotID, err := uc.IDGen.NewID(ctx)
			if err != nil {
				return err
			}
			entry := entities.BallotEntry{
				BallotID:    ballotID,
				VoterID:     voterID,
				ElectionID:  electionID,
				CandidateID: candidate.CandidateID,
				Position:    candidate.Position,
				IPAddress:   strings.TrimSpace(cmd.IPAddress),
				UserAgent:   strings.TrimSpace(cmd.UserAgent),
				CastAt:      now,
			}
			if err := tx.AppendBallot(ctx, entry); err != nil {
				return err
			}
			if _, err := tx.IncrementTally(ctx, candidate.CandidateID); err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return uc.appendBallotCastEvent(ctx, tx, electionID, voterID, entries, now)
	})
	if err != nil {
		logger.Warn("ballot submission rejected",
			"event", "election_ballot_cast_rejected",
			"module", "governance/election-service",
			"layer", "application",
			"voter_id", voterID,
			"election_id", electionID,
			"error", err.Error(),
		)
		return CastBallotResult{}, err
	}

	logger.Info("ballot recorded",
		"event", "election_ballot_cast_recorded",
		"module", "governance/election-service",
		"layer", "application",
		"voter_id", voterID,
		"election_id", electionID,
		"positions_recorded", len(entries),
	)
	return CastBallotResult{
		PositionsRecorded: len(entries),
		Entries:           entries,
	}, nil
}

func (uc BallotUseCase) appendBallotCastEvent(
	ctx context.Context,
	tx ports.BallotTx,
	electionID string,
	voterID string,
	entries []entities.BallotEntry,
	occurredAt time.Time,
) error {
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	recorded := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		recorded = append(recorded, map[string]any{
			"ballot_id":    entry.BallotID,
			"candidate_id": entry.CandidateID,
			"position":     entry.Position,
		})
	}
	envelope, err := newElectionEnvelope(eventID, "election.ballot_cast", electionID, occurredAt, map[string]any{
		"election_id": electionID,
		"voter_id":    voterID,
		"entries":     recorded,
		"occurred_at": occurredAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return tx.AppendOutbox(ctx, envelope)
}

func (uc BallotUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
