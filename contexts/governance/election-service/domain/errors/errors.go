package errors

import (
	"errors"
	"fmt"
)

var (
	ErrElectionNotFound      = errors.New("election not found")
	ErrElectionArchived      = errors.New("election is archived")
	ErrElectionNotActive     = errors.New("election is not currently active")
	ErrCandidateNotFound     = errors.New("candidate not found")
	ErrInvalidCandidate      = errors.New("candidate does not match election and position")
	ErrNotEligible           = errors.New("member is not eligible to vote")
	ErrDuplicateVote         = errors.New("ballot already cast for this position")
	ErrTransactionConflict   = errors.New("ballot transaction conflict, submission may be retried")
	ErrEmptyBallot           = errors.New("ballot must contain at least one position")
	ErrInvalidElectionWindow = errors.New("election start must be before its end")
	ErrElectionNotDraft      = errors.New("election is no longer in draft")
	ErrInvalidElectionInput  = errors.New("invalid election input")
	ErrInvalidCandidateInput = errors.New("invalid candidate input")
	ErrMemberNotFound        = errors.New("member not found")
	ErrConflict              = errors.New("election state conflict")
)

// DuplicateVoteError names the position whose uniqueness invariant would be
// violated. It unwraps to ErrDuplicateVote so callers can match with errors.Is.
type DuplicateVoteError struct {
	Position string
}

func (e *DuplicateVoteError) Error() string {
	return fmt.Sprintf("ballot already cast for position %q", e.Position)
}

func (e *DuplicateVoteError) Unwrap() error {
	return ErrDuplicateVote
}
