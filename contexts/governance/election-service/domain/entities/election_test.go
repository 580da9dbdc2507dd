package entities

import (
	"testing"
	"time"
)

func TestPhaseAtWindowBoundaries(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)
	election := Election{
		ElectionID: "election-1",
		StartAt:    start,
		EndAt:      end,
		IsActive:   true,
		Status:     ElectionStatusLive,
	}

	cases := []struct {
		name string
		now  time.Time
		want Phase
	}{
		{"before start", start.Add(-time.Second), PhaseUpcoming},
		{"at start", start, PhaseActive},
		{"mid window", start.Add(72 * time.Hour), PhaseActive},
		{"at end", end, PhaseActive},
		{"after end", end.Add(time.Second), PhaseCompleted},
	}
	for _, tc := range cases {
		if got := election.PhaseAt(tc.now); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestPhaseAtRespectsActivationGate(t *testing.T) {
	election := Election{
		ElectionID: "election-1",
		StartAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC),
		IsActive:   false,
		Status:     ElectionStatusDraft,
	}
	now := time.Date(2026, 1, 4, 12, 0, 0, 0, time.UTC)

	if got := election.PhaseAt(now); got != PhasePaused {
		t.Fatalf("inactive election inside window: got %s, want %s", got, PhasePaused)
	}
	election.IsActive = true
	if got := election.PhaseAt(now); got != PhaseActive {
		t.Fatalf("active election inside window: got %s, want %s", got, PhaseActive)
	}
}

func TestArchived(t *testing.T) {
	if (Election{Status: ElectionStatusLive}).Archived() {
		t.Fatal("live election reported as archived")
	}
	if !(Election{Status: ElectionStatusArchived}).Archived() {
		t.Fatal("archived election not reported as archived")
	}
}
