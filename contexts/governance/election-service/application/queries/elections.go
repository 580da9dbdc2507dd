package queries

import (
	"context"
	"sort"
	"strings"
	"time"

	"nexus/contexts/governance/election-service/domain/entities"
	"nexus/contexts/governance/election-service/domain/policy"
	"nexus/contexts/governance/election-service/ports"
)

// ElectionListing is one row of the member-facing election list. HasVoted is
// the coarse "voted anywhere in this election" signal; per-position
// uniqueness is enforced separately at cast time.
type ElectionListing struct {
	Election entities.Election
	Phase    entities.Phase
	HasVoted bool
	CanVote  bool
}

// ElectionDetail groups the candidates of an election by position and carries
// the positions the requesting voter has already filled.
type ElectionDetail struct {
	Election             entities.Election
	Phase                entities.Phase
	CandidatesByPosition map[string][]entities.Candidate
	VotedPositions       []string
}

type ElectionQueryUseCase struct {
	Elections ports.ElectionRepository
	Members   ports.MemberDirectory
	Clock     ports.Clock
}

// ListElections returns every non-archived election ordered by start instant,
// newest first, with per-member voted/eligible flags.
func (uc ElectionQueryUseCase) ListElections(ctx context.Context, memberID string) ([]ElectionListing, error) {
	member, err := uc.Members.GetMember(ctx, strings.TrimSpace(memberID))
	if err != nil {
		return nil, err
	}

	elections, err := uc.Elections.ListElections(ctx)
	if err != nil {
		return nil, err
	}
	now := uc.now()

	listings := make([]ElectionListing, 0, len(elections))
	for _, election := range elections {
		if election.Archived() {
			continue
		}
		hasVoted, err := uc.Elections.HasVotedInElection(ctx, member.MemberID, election.ElectionID)
		if err != nil {
			return nil, err
		}
		listings = append(listings, ElectionListing{
			Election: election,
			Phase:    election.PhaseAt(now),
			HasVoted: hasVoted,
			CanVote:  policy.CanVote(member.Role, election, hasVoted, now),
		})
	}
	sort.Slice(listings, func(i, j int) bool {
		return listings[i].Election.StartAt.After(listings[j].Election.StartAt)
	})
	return listings, nil
}

func (uc ElectionQueryUseCase) ElectionDetail(ctx context.Context, memberID string, electionID string) (ElectionDetail, error) {
	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(electionID))
	if err != nil {
		return ElectionDetail{}, err
	}

	candidates, err := uc.Elections.ListCandidatesByElection(ctx, election.ElectionID)
	if err != nil {
		return ElectionDetail{}, err
	}
	byPosition := make(map[string][]entities.Candidate)
	for _, candidate := range candidates {
		byPosition[candidate.Position] = append(byPosition[candidate.Position], candidate)
	}

	ballots, err := uc.Elections.ListBallotsByVoter(ctx, strings.TrimSpace(memberID), election.ElectionID)
	if err != nil {
		return ElectionDetail{}, err
	}
	voted := make([]string, 0, len(ballots))
	for _, entry := range ballots {
		voted = append(voted, entry.Position)
	}
	sort.Strings(voted)

	return ElectionDetail{
		Election:             election,
		Phase:                election.PhaseAt(uc.now()),
		CandidatesByPosition: byPosition,
		VotedPositions:       voted,
	}, nil
}

func (uc ElectionQueryUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
