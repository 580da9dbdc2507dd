package policy

import (
	"strings"
	"time"

	"nexus/contexts/governance/election-service/domain/entities"
)

// RoleBarredFromVoting is the role that creates and manages elections; it is
// categorically barred from voting in them (conflict-of-interest rule).
const RoleBarredFromVoting = "president"

// RoleBarred reports whether the role may never cast a ballot.
func RoleBarred(role string) bool {
	return strings.EqualFold(strings.TrimSpace(role), RoleBarredFromVoting)
}

// CanVote is the coarse listing-level check: barred roles never vote, a member
// who already holds any ballot in the election is done, and the election must
// be in its active phase. The authoritative per-position uniqueness check
// happens inside the cast transaction, not here.
func CanVote(role string, election entities.Election, hasVotedAnyPosition bool, now time.Time) bool {
	if RoleBarred(role) {
		return false
	}
	if hasVotedAnyPosition {
		return false
	}
	return election.PhaseAt(now) == entities.PhaseActive
}
