package entities

import "time"

type ElectionStatus string

const (
	ElectionStatusDraft    ElectionStatus = "draft"
	ElectionStatusLive     ElectionStatus = "live"
	ElectionStatusArchived ElectionStatus = "archived"
)

// Phase is the time-derived lifecycle state of an election, distinct from the
// administrator-controlled activation flag.
type Phase string

const (
	PhaseUpcoming  Phase = "upcoming"
	PhaseActive    Phase = "active"
	PhasePaused    Phase = "paused"
	PhaseCompleted Phase = "completed"
)

type Election struct {
	ElectionID  string
	Title       string
	Description string
	StartAt     time.Time
	EndAt       time.Time
	IsActive    bool
	Status      ElectionStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PhaseAt classifies the election relative to its voting window at the given
// instant. Both window boundaries count as within the window; inside the
// window the manual activation gate decides between active and paused.
func (e Election) PhaseAt(now time.Time) Phase {
	if now.Before(e.StartAt) {
		return PhaseUpcoming
	}
	if now.After(e.EndAt) {
		return PhaseCompleted
	}
	if e.IsActive {
		return PhaseActive
	}
	return PhasePaused
}

func (e Election) Archived() bool {
	return e.Status == ElectionStatusArchived
}
