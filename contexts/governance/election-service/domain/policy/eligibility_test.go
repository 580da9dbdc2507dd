package policy

import (
	"testing"
	"time"

	"nexus/contexts/governance/election-service/domain/entities"
)

func liveElection() entities.Election {
	return entities.Election{
		ElectionID: "election-1",
		StartAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC),
		IsActive:   true,
		Status:     entities.ElectionStatusLive,
	}
}

func TestRoleBarred(t *testing.T) {
	if !RoleBarred("president") {
		t.Fatal("president must be barred")
	}
	if !RoleBarred("  President ") {
		t.Fatal("role comparison must ignore case and whitespace")
	}
	if RoleBarred("admin") || RoleBarred("member") {
		t.Fatal("only the president role is barred")
	}
}

func TestCanVote(t *testing.T) {
	now := time.Date(2026, 1, 4, 12, 0, 0, 0, time.UTC)
	election := liveElection()

	if !CanVote("member", election, false, now) {
		t.Fatal("eligible member inside the window must be able to vote")
	}
	if CanVote("president", election, false, now) {
		t.Fatal("barred role must not vote")
	}
	if CanVote("member", election, true, now) {
		t.Fatal("member with an existing ballot must not vote again")
	}
	if CanVote("member", election, false, election.EndAt.Add(time.Minute)) {
		t.Fatal("voting after the window must be refused")
	}

	paused := election
	paused.IsActive = false
	if CanVote("member", paused, false, now) {
		t.Fatal("paused election must refuse votes")
	}
}
