package errors

import "errors"

var (
	ErrInvalidEntryInput      = errors.New("invalid ledger entry input")
	ErrEntryNotFound          = errors.New("ledger entry not found")
	ErrInvalidMonth           = errors.New("month must be formatted YYYY-MM")
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrIdempotencyConflict    = errors.New("idempotency key conflict")
)
