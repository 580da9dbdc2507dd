package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "nexus/contexts/governance/election-service/application"
	"nexus/contexts/governance/election-service/domain/entities"
	domainerrors "nexus/contexts/governance/election-service/domain/errors"
	"nexus/contexts/governance/election-service/ports"
)

type CreateElectionCommand struct {
	Title       string
	Description string
	StartAt     time.Time
	EndAt       time.Time
}

type AddCandidateCommand struct {
	ElectionID      string
	MemberID        string
	Position        string
	Manifesto       string
	VisionStatement string
}

// AdminUseCase owns the administrator-facing election lifecycle: create in
// draft, toggle the activation gate, register candidates while drafting, and
// archive. Archived elections are never mutated again.
type AdminUseCase struct {
	Elections ports.ElectionRepository
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc AdminUseCase) CreateElection(ctx context.Context, cmd CreateElectionCommand) (entities.Election, error) {
	logger := application.ResolveLogger(uc.Logger)
	title := strings.TrimSpace(cmd.Title)
	if title == "" {
		return entities.Election{}, domainerrors.ErrInvalidElectionInput
	}
	if cmd.StartAt.IsZero() || cmd.EndAt.IsZero() || !cmd.StartAt.Before(cmd.EndAt) {
		return entities.Election{}, domainerrors.ErrInvalidElectionWindow
	}

	electionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Election{}, err
	}
	now := uc.now()
	election := entities.Election{
		ElectionID:  electionID,
		Title:       title,
		Description: strings.TrimSpace(cmd.Description),
		StartAt:     cmd.StartAt.UTC(),
		EndAt:       cmd.EndAt.UTC(),
		IsActive:    false,
		Status:      entities.ElectionStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.Elections.SaveElection(ctx, election); err != nil {
		return entities.Election{}, err
	}
	logger.Info("election created",
		"event", "election_created",
		"module", "governance/election-service",
		"layer", "application",
		"election_id", election.ElectionID,
		"title", election.Title,
	)
	return election, nil
}

// ToggleActive flips the manual activation gate. The status tracks the gate
// the way the admin panel expects: live while activated, back to draft when
// deactivated.
func (uc AdminUseCase) ToggleActive(ctx context.Context, electionID string) (entities.Election, error) {
	logger := application.ResolveLogger(uc.Logger)
	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(electionID))
	if err != nil {
		return entities.Election{}, err
	}
	if election.Archived() {
		return entities.Election{}, domainerrors.ErrElectionArchived
	}

	election.IsActive = !election.IsActive
	if election.IsActive {
		election.Status = entities.ElectionStatusLive
	} else {
		election.Status = entities.ElectionStatusDraft
	}
	election.UpdatedAt = uc.now()
	if err := uc.Elections.SaveElection(ctx, election); err != nil {
		return entities.Election{}, err
	}
	logger.Info("election activation toggled",
		"event", "election_toggled",
		"module", "governance/election-service",
		"layer", "application",
		"election_id", election.ElectionID,
		"is_active", election.IsActive,
	)
	return election, nil
}

func (uc AdminUseCase) AddCandidate(ctx context.Context, cmd AddCandidateCommand) (entities.Candidate, error) {
	logger := application.ResolveLogger(uc.Logger)
	electionID := strings.TrimSpace(cmd.ElectionID)
	memberID := strings.TrimSpace(cmd.MemberID)
	position := strings.TrimSpace(cmd.Position)
	if electionID == "" || memberID == "" || position == "" {
		return entities.Candidate{}, domainerrors.ErrInvalidCandidateInput
	}

	election, err := uc.Elections.GetElection(ctx, electionID)
	if err != nil {
		return entities.Candidate{}, err
	}
	if election.Archived() {
		return entities.Candidate{}, domainerrors.ErrElectionArchived
	}
	if election.Status != entities.ElectionStatusDraft {
		return entities.Candidate{}, domainerrors.ErrElectionNotDraft
	}

	candidateID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Candidate{}, err
	}
	now := uc.now()
	candidate := entities.Candidate{
		CandidateID:     candidateID,
		ElectionID:      electionID,
		MemberID:        memberID,
		Position:        position,
		Manifesto:       strings.TrimSpace(cmd.Manifesto),
		VisionStatement: strings.TrimSpace(cmd.VisionStatement),
		VoteCount:       0,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.Elections.SaveCandidate(ctx, candidate); err != nil {
		return entities.Candidate{}, err
	}
	logger.Info("candidate registered",
		"event", "election_candidate_registered",
		"module", "governance/election-service",
		"layer", "application",
		"election_id", electionID,
		"candidate_id", candidate.CandidateID,
		"position", candidate.Position,
	)
	return candidate, nil
}

func (uc AdminUseCase) ArchiveElection(ctx context.Context, electionID string) (entities.Election, error) {
	logger := application.ResolveLogger(uc.Logger)
	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(electionID))
	if err != nil {
		return entities.Election{}, err
	}
	if election.Archived() {
		return election, nil
	}

	election.Status = entities.ElectionStatusArchived
	election.IsActive = false
	election.UpdatedAt = uc.now()
	if err := uc.Elections.SaveElection(ctx, election); err != nil {
		return entities.Election{}, err
	}
	logger.Info("election archived",
		"event", "election_archived",
		"module", "governance/election-service",
		"layer", "application",
		"election_id", election.ElectionID,
	)
	return election, nil
}

func (uc AdminUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
