package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"nexus/contexts/governance/election-service/application/commands"
	"nexus/contexts/governance/election-service/application/queries"
	"nexus/contexts/governance/election-service/domain/entities"
	domainerrors "nexus/contexts/governance/election-service/domain/errors"
	httptransport "nexus/contexts/governance/election-service/transport/http"
)

type Handler struct {
	Ballots commands.BallotUseCase
	Admin   commands.AdminUseCase
	Queries queries.ElectionQueryUseCase
	Results queries.ResultsUseCase
	Logger  *slog.Logger
}

func (h Handler) CastBallotHandler(
	ctx context.Context,
	voterID string,
	electionID string,
	req httptransport.CastBallotRequest,
	ipAddress string,
	userAgent string,
) (httptransport.CastBallotResponse, error) {
	result, err := h.Ballots.CastBallot(ctx, commands.CastBallotCommand{
		VoterID:    voterID,
		ElectionID: electionID,
		Selections: req.Votes,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
	})
	if err != nil {
		return httptransport.CastBallotResponse{}, err
	}
	entries := make([]httptransport.BallotSummary, 0, len(result.Entries))
	for _, entry := range result.Entries {
		entries = append(entries, httptransport.BallotSummary{
			BallotID:    entry.BallotID,
			CandidateID: entry.CandidateID,
			Position:    entry.Position,
			CastAt:      entry.CastAt.Format(time.RFC3339),
		})
	}
	return httptransport.CastBallotResponse{
		ElectionID:        electionID,
		PositionsRecorded: result.PositionsRecorded,
		Entries:           entries,
	}, nil
}

func (h Handler) ListElectionsHandler(ctx context.Context, memberID string) (httptransport.ListElectionsResponse, error) {
	listings, err := h.Queries.ListElections(ctx, memberID)
	if err != nil {
		return httptransport.ListElectionsResponse{}, err
	}
	items := make([]httptransport.ElectionListItem, 0, len(listings))
	for _, listing := range listings {
		items = append(items, httptransport.ElectionListItem{
			ElectionID: listing.Election.ElectionID,
			Title:      listing.Election.Title,
			Phase:      string(listing.Phase),
			StartAt:    listing.Election.StartAt.Format(time.RFC3339),
			EndAt:      listing.Election.EndAt.Format(time.RFC3339),
			HasVoted:   listing.HasVoted,
			CanVote:    listing.CanVote,
		})
	}
	return httptransport.ListElectionsResponse{Elections: items}, nil
}

func (h Handler) ElectionDetailHandler(ctx context.Context, memberID string, electionID string) (httptransport.ElectionDetailResponse, error) {
	detail, err := h.Queries.ElectionDetail(ctx, memberID, electionID)
	if err != nil {
		return httptransport.ElectionDetailResponse{}, err
	}
	byPosition := make(map[string][]httptransport.CandidateItem, len(detail.CandidatesByPosition))
	for position, candidates := range detail.CandidatesByPosition {
		items := make([]httptransport.CandidateItem, 0, len(candidates))
		for _, candidate := range candidates {
			items = append(items, httptransport.CandidateItem{
				CandidateID:     candidate.CandidateID,
				MemberID:        candidate.MemberID,
				Position:        candidate.Position,
				Manifesto:       candidate.Manifesto,
				VisionStatement: candidate.VisionStatement,
			})
		}
		byPosition[position] = items
	}
	return httptransport.ElectionDetailResponse{
		ElectionID:           detail.Election.ElectionID,
		Title:                detail.Election.Title,
		Description:          detail.Election.Description,
		Phase:                string(detail.Phase),
		StartAt:              detail.Election.StartAt.Format(time.RFC3339),
		EndAt:                detail.Election.EndAt.Format(time.RFC3339),
		CandidatesByPosition: byPosition,
		VotedPositions:       detail.VotedPositions,
	}, nil
}

func (h Handler) ResultsHandler(ctx context.Context, electionID string, recount bool) (httptransport.ResultsResponse, error) {
	results, err := h.Results.Results(ctx, electionID, recount)
	if err != nil {
		return httptransport.ResultsResponse{}, err
	}
	items := make([]httptransport.TallyItem, 0, len(results.Tallies))
	for _, tally := range results.Tallies {
		items = append(items, httptransport.TallyItem{
			CandidateID: tally.CandidateID,
			MemberID:    tally.MemberID,
			Position:    tally.Position,
			VoteCount:   tally.VoteCount,
			LedgerCount: tally.LedgerCount,
			Verified:    tally.Verified,
		})
	}
	return httptransport.ResultsResponse{
		ElectionID: results.ElectionID,
		TotalVotes: results.TotalVotes,
		Tallies:    items,
	}, nil
}

func (h Handler) CreateElectionHandler(ctx context.Context, req httptransport.CreateElectionRequest) (httptransport.ElectionResponse, error) {
	startAt, err := time.Parse(time.RFC3339, req.StartAt)
	if err != nil {
		return httptransport.ElectionResponse{}, domainerrors.ErrInvalidElectionInput
	}
	endAt, err := time.Parse(time.RFC3339, req.EndAt)
	if err != nil {
		return httptransport.ElectionResponse{}, domainerrors.ErrInvalidElectionInput
	}
	election, err := h.Admin.CreateElection(ctx, commands.CreateElectionCommand{
		Title:       req.Title,
		Description: req.Description,
		StartAt:     startAt,
		EndAt:       endAt,
	})
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return electionResponse(election), nil
}

func (h Handler) ToggleElectionHandler(ctx context.Context, electionID string) (httptransport.ElectionResponse, error) {
	election, err := h.Admin.ToggleActive(ctx, electionID)
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return electionResponse(election), nil
}

func (h Handler) ArchiveElectionHandler(ctx context.Context, electionID string) (httptransport.ElectionResponse, error) {
	election, err := h.Admin.ArchiveElection(ctx, electionID)
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return electionResponse(election), nil
}

func (h Handler) AddCandidateHandler(ctx context.Context, electionID string, req httptransport.AddCandidateRequest) (httptransport.CandidateResponse, error) {
	candidate, err := h.Admin.AddCandidate(ctx, commands.AddCandidateCommand{
		ElectionID:      electionID,
		MemberID:        req.MemberID,
		Position:        req.Position,
		Manifesto:       req.Manifesto,
		VisionStatement: req.VisionStatement,
	})
	if err != nil {
		return httptransport.CandidateResponse{}, err
	}
	return httptransport.CandidateResponse{
		CandidateID: candidate.CandidateID,
		ElectionID:  candidate.ElectionID,
		MemberID:    candidate.MemberID,
		Position:    candidate.Position,
	}, nil
}

func electionResponse(election entities.Election) httptransport.ElectionResponse {
	return httptransport.ElectionResponse{
		ElectionID:  election.ElectionID,
		Title:       election.Title,
		Description: election.Description,
		StartAt:     election.StartAt.Format(time.RFC3339),
		EndAt:       election.EndAt.Format(time.RFC3339),
		IsActive:    election.IsActive,
		Status:      string(election.Status),
	}
}
