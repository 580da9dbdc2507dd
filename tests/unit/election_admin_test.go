package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	electionservice "nexus/contexts/governance/election-service"
	domainerrors "nexus/contexts/governance/election-service/domain/errors"
	"nexus/contexts/governance/election-service/ports"
	httptransport "nexus/contexts/governance/election-service/transport/http"
)

func TestElectionLifecycle(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil)
	module.Store.SetNow(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	module.Store.SetMember(ports.MemberProjection{MemberID: "member-1", Role: "member"})

	created, err := module.Handler.CreateElectionHandler(context.Background(), httptransport.CreateElectionRequest{
		Title:       "Fall Board Election",
		Description: "Annual leadership vote",
		StartAt:     "2026-03-01T00:00:00Z",
		EndAt:       "2026-03-08T00:00:00Z",
	})
	if err != nil {
		t.Fatalf("create election failed: %v", err)
	}
	if created.Status != "draft" || created.IsActive {
		t.Fatalf("expected inactive draft election, got %+v", created)
	}

	if _, err := module.Handler.AddCandidateHandler(context.Background(), created.ElectionID, httptransport.AddCandidateRequest{
		MemberID: "member-5",
		Position: "Treasurer",
	}); err != nil {
		t.Fatalf("add candidate failed: %v", err)
	}

	toggled, err := module.Handler.ToggleElectionHandler(context.Background(), created.ElectionID)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if toggled.Status != "live" || !toggled.IsActive {
		t.Fatalf("expected live active election, got %+v", toggled)
	}

	// Candidate registration closes once the election leaves draft.
	_, err = module.Handler.AddCandidateHandler(context.Background(), created.ElectionID, httptransport.AddCandidateRequest{
		MemberID: "member-6",
		Position: "Treasurer",
	})
	if !errors.Is(err, domainerrors.ErrElectionNotDraft) {
		t.Fatalf("expected not-draft rejection, got %v", err)
	}

	archived, err := module.Handler.ArchiveElectionHandler(context.Background(), created.ElectionID)
	if err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	if archived.Status != "archived" || archived.IsActive {
		t.Fatalf("expected inactive archived election, got %+v", archived)
	}

	// Archiving is idempotent and terminal.
	if _, err := module.Handler.ArchiveElectionHandler(context.Background(), created.ElectionID); err != nil {
		t.Fatalf("second archive failed: %v", err)
	}
	if _, err := module.Handler.ToggleElectionHandler(context.Background(), created.ElectionID); !errors.Is(err, domainerrors.ErrElectionArchived) {
		t.Fatalf("expected archived rejection on toggle, got %v", err)
	}

	list, err := module.Handler.ListElectionsHandler(context.Background(), "member-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list.Elections) != 0 {
		t.Fatalf("expected archived election hidden from listing, got %d", len(list.Elections))
	}
}

func TestCreateElectionRejectsInvertedWindow(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil)

	_, err := module.Handler.CreateElectionHandler(context.Background(), httptransport.CreateElectionRequest{
		Title:   "Backwards Election",
		StartAt: "2026-03-08T00:00:00Z",
		EndAt:   "2026-03-01T00:00:00Z",
	})
	if !errors.Is(err, domainerrors.ErrInvalidElectionWindow) {
		t.Fatalf("expected invalid window error, got %v", err)
	}
}

func TestCreateElectionRejectsMalformedTimestamps(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil)

	_, err := module.Handler.CreateElectionHandler(context.Background(), httptransport.CreateElectionRequest{
		Title:   "Broken Election",
		StartAt: "next tuesday",
		EndAt:   "2026-03-08T00:00:00Z",
	})
	if !errors.Is(err, domainerrors.ErrInvalidElectionInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}
