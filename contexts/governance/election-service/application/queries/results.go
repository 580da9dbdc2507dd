package queries

import (
	"context"
	"sort"
	"strings"

	"nexus/contexts/governance/election-service/ports"
)

// CandidateTally pairs the cached counter with an optional ledger recount.
// Verified is set only when a recount was requested and the two agreed.
type CandidateTally struct {
	CandidateID string
	MemberID    string
	Position    string
	VoteCount   int64
	LedgerCount int64
	Verified    bool
}

type ElectionResults struct {
	ElectionID string
	Tallies    []CandidateTally
	TotalVotes int64
}

type ResultsUseCase struct {
	Elections ports.ElectionRepository
}

// Results reads the denormalized tallies for display. With recount set it also
// counts the ledger per candidate, which is the source of truth; the cached
// counter is display-path only.
func (uc ResultsUseCase) Results(ctx context.Context, electionID string, recount bool) (ElectionResults, error) {
	electionID = strings.TrimSpace(electionID)
	election, err := uc.Elections.GetElection(ctx, electionID)
	if err != nil {
		return ElectionResults{}, err
	}

	candidates, err := uc.Elections.ListCandidatesByElection(ctx, election.ElectionID)
	if err != nil {
		return ElectionResults{}, err
	}

	results := ElectionResults{ElectionID: election.ElectionID}
	for _, candidate := range candidates {
		tally := CandidateTally{
			CandidateID: candidate.CandidateID,
			MemberID:    candidate.MemberID,
			Position:    candidate.Position,
			VoteCount:   candidate.VoteCount,
			LedgerCount: candidate.VoteCount,
		}
		if recount {
			ledgerCount, err := uc.Elections.CountBallotsByCandidate(ctx, candidate.CandidateID)
			if err != nil {
				return ElectionResults{}, err
			}
			tally.LedgerCount = ledgerCount
			tally.Verified = ledgerCount == candidate.VoteCount
		}
		results.TotalVotes += tally.VoteCount
		results.Tallies = append(results.Tallies, tally)
	}

	sort.Slice(results.Tallies, func(i, j int) bool {
		if results.Tallies[i].Position == results.Tallies[j].Position {
			if results.Tallies[i].VoteCount == results.Tallies[j].VoteCount {
				return results.Tallies[i].CandidateID < results.Tallies[j].CandidateID
			}
			return results.Tallies[i].VoteCount > results.Tallies[j].VoteCount
		}
		return results.Tallies[i].Position < results.Tallies[j].Position
	})
	return results, nil
}
