package unit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	electionservice "nexus/contexts/governance/election-service"
	"nexus/contexts/governance/election-service/domain/entities"
	domainerrors "nexus/contexts/governance/election-service/domain/errors"
	"nexus/contexts/governance/election-service/ports"
	httptransport "nexus/contexts/governance/election-service/transport/http"
)

func newElectionFixture(t *testing.T) electionservice.Module {
	t.Helper()
	module := electionservice.NewInMemoryModule(nil)
	module.Store.SetMember(ports.MemberProjection{
		MemberID:    "member-1",
		DisplayName: "Ada",
		Role:        "member",
	})
	module.Store.SetMember(ports.MemberProjection{
		MemberID:    "member-2",
		DisplayName: "Grace",
		Role:        "member",
	})
	module.Store.SetMember(ports.MemberProjection{
		MemberID:    "president-1",
		DisplayName: "Linus",
		Role:        "president",
	})
	module.Store.SetElection(entities.Election{
		ElectionID: "election-1",
		Title:      "Spring Board Election",
		StartAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC),
		IsActive:   true,
		Status:     entities.ElectionStatusLive,
	})
	module.Store.SetCandidate(entities.Candidate{
		CandidateID: "cand-pres-1",
		ElectionID:  "election-1",
		MemberID:    "member-7",
		Position:    "President",
	})
	module.Store.SetCandidate(entities.Candidate{
		CandidateID: "cand-pres-2",
		ElectionID:  "election-1",
		MemberID:    "member-8",
		Position:    "President",
	})
	module.Store.SetCandidate(entities.Candidate{
		CandidateID: "cand-sec-1",
		ElectionID:  "election-1",
		MemberID:    "member-9",
		Position:    "Secretary",
	})
	module.Store.SetNow(time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC))
	return module
}

func TestCastBallotRecordsEveryPosition(t *testing.T) {
	module := newElectionFixture(t)

	resp, err := module.Handler.CastBallotHandler(context.Background(), "member-1", "election-1", httptransport.CastBallotRequest{
		Votes: map[string]string{
			"President": "cand-pres-1",
			"Secretary": "cand-sec-1",
		},
	}, "127.0.0.1", "unit-test")
	if err != nil {
		t.Fatalf("cast ballot failed: %v", err)
	}
	if resp.PositionsRecorded != 2 {
		t.Fatalf("expected 2 positions recorded, got %d", resp.PositionsRecorded)
	}

	results, err := module.Handler.ResultsHandler(context.Background(), "election-1", false)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if results.TotalVotes != 2 {
		t.Fatalf("expected total votes 2, got %d", results.TotalVotes)
	}
	for _, tally := range results.Tallies {
		switch tally.CandidateID {
		case "cand-pres-1", "cand-sec-1":
			if tally.VoteCount != 1 {
				t.Fatalf("expected 1 vote for %s, got %d", tally.CandidateID, tally.VoteCount)
			}
		default:
			if tally.VoteCount != 0 {
				t.Fatalf("expected 0 votes for %s, got %d", tally.CandidateID, tally.VoteCount)
			}
		}
	}

	list, err := module.Handler.ListElectionsHandler(context.Background(), "member-1")
	if err != nil {
		t.Fatalf("list elections failed: %v", err)
	}
	if len(list.Elections) != 1 {
		t.Fatalf("expected 1 election, got %d", len(list.Elections))
	}
	if !list.Elections[0].HasVoted {
		t.Fatalf("expected has_voted after cast")
	}
	if list.Elections[0].CanVote {
		t.Fatalf("expected can_vote false after cast")
	}
}

func TestCastBallotDuplicatePositionRejected(t *testing.T) {
	module := newElectionFixture(t)

	if _, err := module.Handler.CastBallotHandler(context.Background(), "member-1", "election-1", httptransport.CastBallotRequest{
		Votes: map[string]string{"President": "cand-pres-1"},
	}, "127.0.0.1", "unit-test"); err != nil {
		t.Fatalf("first cast failed: %v", err)
	}

	// A submission mixing a fresh Secretary vote with a duplicate President
	// vote must record nothing for either position.
	_, err := module.Handler.CastBallotHandler(context.Background(), "member-1", "election-1", httptransport.CastBallotRequest{
		Votes: map[string]string{
			"President": "cand-pres-2",
			"Secretary": "cand-sec-1",
		},
	}, "127.0.0.1", "unit-test")
	if !errors.Is(err, domainerrors.ErrDuplicateVote) {
		t.Fatalf("expected duplicate vote error, got %v", err)
	}
	if !strings.Contains(err.Error(), "President") {
		t.Fatalf("expected error to name the position, got %q", err.Error())
	}

	results, err := module.Handler.ResultsHandler(context.Background(), "election-1", false)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if results.TotalVotes != 1 {
		t.Fatalf("expected failed submission to leave tally untouched, got %d", results.TotalVotes)
	}

	// The Secretary vote was rolled back with the rest of the submission, so
	// it can still be cast on its own.
	if _, err := module.Handler.CastBallotHandler(context.Background(), "member-1", "election-1", httptransport.CastBallotRequest{
		Votes: map[string]string{"Secretary": "cand-sec-1"},
	}, "127.0.0.1", "unit-test"); err != nil {
		t.Fatalf("secretary retry after rollback failed: %v", err)
	}
}

func TestCastBallotIsAllOrNothing(t *testing.T) {
	module := newElectionFixture(t)

	// cand-sec-1 runs for Secretary, so using it under President must fail
	// and roll back the already-appended President entry.
	_, err := module.Handler.CastBallotHandler(context.Background(), "member-1", "election-1", httptransport.CastBallotRequest{
		Votes: map[string]string{
			"President": "cand-pres-1",
			"Secretary": "cand-pres-2",
		},
	}, "127.0.0.1", "unit-test")
	if !errors.Is(err, domainerrors.ErrInvalidCandidate) {
		t.Fatalf("expected invalid candidate error, got %v", err)
	}

	results, err := module.Handler.ResultsHandler(context.Background(), "election-1", false)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if results.TotalVotes != 0 {
		t.Fatalf("expected no votes after rejected submission, got %d", results.TotalVotes)
	}

	// The whole submission must be retryable after the rollback.
	if _, err := module.Handler.CastBallotHandler(context.Background(), "member-1", "election-1", httptransport.CastBallotRequest{
		Votes: map[string]string{
			"President": "cand-pres-1",
			"Secretary": "cand-sec-1",
		},
	}, "127.0.0.1", "unit-test"); err != nil {
		t.Fatalf("retry after rollback failed: %v", err)
	}
}

func TestCastBallotUnknownCandidateRejected(t *testing.T) {
	module := newElectionFixture(t)

	_, err := module.Handler.CastBallotHandler(context.Background(), "member-1", "election-1", httptransport.CastBallotRequest{
		Votes: map[string]string{"President": "cand-ghost"},
	}, "127.0.0.1", "unit-test")
	if !errors.Is(err, domainerrors.ErrCandidateNotFound) {
		t.Fatalf("expected candidate not found, got %v", err)
	}
}

func TestCastBallotBarredRole(t *testing.T) {
	module := newElectionFixture(t)

	_, err := module.Handler.CastBallotHandler(context.Background(), "president-1", "election-1", httptransport.CastBallotRequest{
		Votes: map[string]string{"President": "cand-pres-1"},
	}, "127.0.0.1", "unit-test")
	if !errors.Is(err, domainerrors.ErrNotEligible) {
		t.Fatalf("expected not eligible, got %v", err)
	}
}

func TestCastBallotOutsideWindow(t *testing.T) {
	module := newElectionFixture(t)
	module.Store.SetNow(time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC))

	_, err := module.Handler.CastBallotHandler(context.Background(), "member-1", "election-1", httptransport.CastBallotRequest{
		Votes: map[string]string{"President": "cand-pres-1"},
	}, "127.0.0.1", "unit-test")
	if !errors.Is(err, domainerrors.ErrElectionNotActive) {
		t.Fatalf("expected not active before window, got %v", err)
	}

	module.Store.SetNow(time.Date(2026, 1, 8, 0, 0, 1, 0, time.UTC))
	_, err = module.Handler.CastBallotHandler(context.Background(), "member-1", "election-1", httptransport.CastBallotRequest{
		Votes: map[string]string{"President": "cand-pres-1"},
	}, "127.0.0.1", "unit-test")
	if !errors.Is(err, domainerrors.ErrElectionNotActive) {
		t.Fatalf("expected not active after window, got %v", err)
	}
}

func TestCastBallotPausedElection(t *testing.T) {
	module := newElectionFixture(t)
	module.Store.SetElection(entities.Election{
		ElectionID: "election-1",
		Title:      "Spring Board Election",
		StartAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC),
		IsActive:   false,
		Status:     entities.ElectionStatusDraft,
	})

	_, err := module.Handler.CastBallotHandler(context.Background(), "member-1", "election-1", httptransport.CastBallotRequest{
		Votes: map[string]string{"President": "cand-pres-1"},
	}, "127.0.0.1", "unit-test")
	if !errors.Is(err, domainerrors.ErrElectionNotActive) {
		t.Fatalf("expected not active while paused, got %v", err)
	}
}

func TestCastBallotEmptySelections(t *testing.T) {
	module := newElectionFixture(t)

	_, err := module.Handler.CastBallotHandler(context.Background(), "member-1", "election-1", httptransport.CastBallotRequest{
		Votes: map[string]string{},
	}, "127.0.0.1", "unit-test")
	if !errors.Is(err, domainerrors.ErrEmptyBallot) {
		t.Fatalf("expected empty ballot error, got %v", err)
	}
}

func TestConcurrentCastSingleWinner(t *testing.T) {
	module := newElectionFixture(t)

	var wg sync.WaitGroup
	outcomes := make([]error, 2)
	candidates := []string{"cand-pres-1", "cand-pres-2"}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, err := module.Handler.CastBallotHandler(context.Background(), "member-1", "election-1", httptransport.CastBallotRequest{
				Votes: map[string]string{"President": candidates[slot]},
			}, "127.0.0.1", "unit-test")
			outcomes[slot] = err
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range outcomes {
		if err == nil {
			successes++
			continue
		}
		if !errors.Is(err, domainerrors.ErrDuplicateVote) {
			t.Fatalf("expected duplicate vote for the loser, got %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one winning submission, got %d", successes)
	}

	results, err := module.Handler.ResultsHandler(context.Background(), "election-1", false)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if results.TotalVotes != 1 {
		t.Fatalf("expected one vote total, got %d", results.TotalVotes)
	}
}

func TestElectionDetailGroupsCandidates(t *testing.T) {
	module := newElectionFixture(t)

	if _, err := module.Handler.CastBallotHandler(context.Background(), "member-1", "election-1", httptransport.CastBallotRequest{
		Votes: map[string]string{"President": "cand-pres-1"},
	}, "127.0.0.1", "unit-test"); err != nil {
		t.Fatalf("cast ballot failed: %v", err)
	}

	detail, err := module.Handler.ElectionDetailHandler(context.Background(), "member-1", "election-1")
	if err != nil {
		t.Fatalf("election detail failed: %v", err)
	}
	if detail.Phase != string(entities.PhaseActive) {
		t.Fatalf("expected active phase, got %s", detail.Phase)
	}
	if len(detail.CandidatesByPosition["President"]) != 2 {
		t.Fatalf("expected 2 president candidates, got %d", len(detail.CandidatesByPosition["President"]))
	}
	if len(detail.CandidatesByPosition["Secretary"]) != 1 {
		t.Fatalf("expected 1 secretary candidate, got %d", len(detail.CandidatesByPosition["Secretary"]))
	}
	if len(detail.VotedPositions) != 1 || detail.VotedPositions[0] != "President" {
		t.Fatalf("expected voted positions [President], got %v", detail.VotedPositions)
	}
}

func TestResultsRecountVerifiesLedger(t *testing.T) {
	module := newElectionFixture(t)

	if _, err := module.Handler.CastBallotHandler(context.Background(), "member-1", "election-1", httptransport.CastBallotRequest{
		Votes: map[string]string{"President": "cand-pres-1"},
	}, "127.0.0.1", "unit-test"); err != nil {
		t.Fatalf("cast ballot failed: %v", err)
	}

	results, err := module.Handler.ResultsHandler(context.Background(), "election-1", true)
	if err != nil {
		t.Fatalf("recount failed: %v", err)
	}
	for _, tally := range results.Tallies {
		if tally.CandidateID != "cand-pres-1" {
			continue
		}
		if tally.LedgerCount != 1 || !tally.Verified {
			t.Fatalf("expected verified recount with ledger count 1, got %+v", tally)
		}
	}
}
