// Package electionservice implements club election voting inside the
// governance context.
//
// The module owns the election lifecycle (draft, live, archived), voter
// eligibility, the append-only ballot ledger with its per-position uniqueness
// invariant, the denormalized tally cache, and the transaction coordinator
// that makes a multi-position ballot submission all-or-nothing. Business rules
// live in application/domain layers; infrastructure stays behind ports and
// adapters.
package electionservice
