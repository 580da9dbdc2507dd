package memory

import (
	"context"
	"errors"
	"testing"

	"nexus/contexts/governance/election-service/domain/entities"
	domainerrors "nexus/contexts/governance/election-service/domain/errors"
	"nexus/contexts/governance/election-service/ports"
)

func TestInTransactionRollsBackOnError(t *testing.T) {
	store := NewStore()
	store.SetCandidate(entities.Candidate{
		CandidateID: "cand-1",
		ElectionID:  "election-1",
		Position:    "President",
	})

	failed := errors.New("forced failure")
	err := store.InTransaction(context.Background(), func(tx ports.BallotTx) error {
		if err := tx.AppendBallot(context.Background(), entities.BallotEntry{
			BallotID:    "ballot-1",
			VoterID:     "member-1",
			ElectionID:  "election-1",
			Position:    "President",
			CandidateID: "cand-1",
		}); err != nil {
			return err
		}
		if _, err := tx.IncrementTally(context.Background(), "cand-1"); err != nil {
			return err
		}
		return failed
	})
	if !errors.Is(err, failed) {
		t.Fatalf("expected forced failure, got %v", err)
	}

	count, err := store.CountBallotsByCandidate(context.Background(), "cand-1")
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("rolled back transaction left %d ballots", count)
	}
	candidate, err := store.GetCandidate(context.Background(), "cand-1")
	if err != nil {
		t.Fatalf("get candidate failed: %v", err)
	}
	if candidate.VoteCount != 0 {
		t.Fatalf("rolled back transaction left tally %d", candidate.VoteCount)
	}

	// A later transaction for the same (voter, election, position) must not
	// see key residue from the failed one.
	err = store.InTransaction(context.Background(), func(tx ports.BallotTx) error {
		voted, err := tx.HasVoted(context.Background(), "member-1", "election-1", "President")
		if err != nil {
			return err
		}
		if voted {
			t.Fatal("ballot key survived rollback")
		}
		return tx.AppendBallot(context.Background(), entities.BallotEntry{
			BallotID:    "ballot-2",
			VoterID:     "member-1",
			ElectionID:  "election-1",
			Position:    "President",
			CandidateID: "cand-1",
		})
	})
	if err != nil {
		t.Fatalf("retry after rollback failed: %v", err)
	}
}

func TestAppendBallotUniquenessIsCaseInsensitive(t *testing.T) {
	store := NewStore()

	err := store.InTransaction(context.Background(), func(tx ports.BallotTx) error {
		return tx.AppendBallot(context.Background(), entities.BallotEntry{
			BallotID:    "ballot-1",
			VoterID:     "member-1",
			ElectionID:  "election-1",
			Position:    "President",
			CandidateID: "cand-1",
		})
	})
	if err != nil {
		t.Fatalf("first ballot failed: %v", err)
	}

	err = store.InTransaction(context.Background(), func(tx ports.BallotTx) error {
		return tx.AppendBallot(context.Background(), entities.BallotEntry{
			BallotID:    "ballot-2",
			VoterID:     "member-1",
			ElectionID:  "election-1",
			Position:    "PRESIDENT",
			CandidateID: "cand-2",
		})
	})
	var dup *domainerrors.DuplicateVoteError
	if !errors.As(err, &dup) {
		t.Fatalf("expected duplicate vote error, got %v", err)
	}
	if dup.Position != "PRESIDENT" {
		t.Fatalf("duplicate error must carry the attempted position, got %q", dup.Position)
	}
}
