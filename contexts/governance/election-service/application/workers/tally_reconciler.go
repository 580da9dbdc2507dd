package workers

import (
	"context"
	"log/slog"

	application "nexus/contexts/governance/election-service/application"
	"nexus/contexts/governance/election-service/ports"
)

// TallyReconciler enforces the periodic invariant that every candidate's
// cached counter equals the count of ledger entries referencing it. The
// ledger is the source of truth; on drift the cache is repaired to match.
type TallyReconciler struct {
	Elections ports.ElectionRepository
	Logger    *slog.Logger
}

// RunOnce scans all candidates and repairs drifted counters. It returns the
// number of repairs performed so schedulers can surface persistent drift.
func (r TallyReconciler) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(r.Logger)
	candidates, err := r.Elections.ListCandidates(ctx)
	if err != nil {
		logger.Error("tally reconciliation list failed",
			"event", "election_tally_reconcile_list_failed",
			"module", "governance/election-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}

	repaired := 0
	for _, candidate := range candidates {
		ledgerCount, err := r.Elections.CountBallotsByCandidate(ctx, candidate.CandidateID)
		if err != nil {
			logger.Error("tally reconciliation count failed",
				"event", "election_tally_reconcile_count_failed",
				"module", "governance/election-service",
				"layer", "worker",
				"candidate_id", candidate.CandidateID,
				"error", err.Error(),
			)
			return repaired, err
		}
		if ledgerCount == candidate.VoteCount {
			continue
		}

		logger.Warn("tally drift detected",
			"event", "election_tally_drift_detected",
			"module", "governance/election-service",
			"layer", "worker",
			"candidate_id", candidate.CandidateID,
			"cached_count", candidate.VoteCount,
			"ledger_count", ledgerCount,
		)
		if err := r.Elections.UpdateTally(ctx, candidate.CandidateID, ledgerCount); err != nil {
			logger.Error("tally drift repair failed",
				"event", "election_tally_repair_failed",
				"module", "governance/election-service",
				"layer", "worker",
				"candidate_id", candidate.CandidateID,
				"error", err.Error(),
			)
			return repaired, err
		}
		repaired++
	}

	if repaired > 0 {
		logger.Info("tally reconciliation repaired drift",
			"event", "election_tally_reconcile_repaired",
			"module", "governance/election-service",
			"layer", "worker",
			"repaired", repaired,
		)
	}
	return repaired, nil
}
