package unit

import (
	"context"
	"testing"
	"time"

	"nexus/contexts/governance/election-service/application/workers"
	"nexus/contexts/governance/election-service/domain/entities"
	"nexus/contexts/governance/election-service/ports"
	httptransport "nexus/contexts/governance/election-service/transport/http"
)

type capturePublisher struct {
	topics []string
	events []ports.EventEnvelope
}

func (p *capturePublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func TestTallyReconcilerRepairsDrift(t *testing.T) {
	module := newElectionFixture(t)

	// A ledger entry injected behind the tally cache simulates drift.
	module.Store.InjectBallot(entities.BallotEntry{
		BallotID:    "ballot-drift",
		VoterID:     "member-2",
		ElectionID:  "election-1",
		CandidateID: "cand-pres-1",
		Position:    "President",
		CastAt:      time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
	})

	reconciler := workers.TallyReconciler{Elections: module.Store}
	repaired, err := reconciler.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if repaired != 1 {
		t.Fatalf("expected 1 repair, got %d", repaired)
	}

	results, err := module.Handler.ResultsHandler(context.Background(), "election-1", true)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	for _, tally := range results.Tallies {
		if tally.CandidateID == "cand-pres-1" {
			if tally.VoteCount != 1 || !tally.Verified {
				t.Fatalf("expected repaired verified tally, got %+v", tally)
			}
		}
	}

	// A second pass must find nothing to repair.
	repaired, err = reconciler.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("second reconcile failed: %v", err)
	}
	if repaired != 0 {
		t.Fatalf("expected no repairs on converged tallies, got %d", repaired)
	}
}

func TestOutboxRelayPublishesBallotCastEvents(t *testing.T) {
	module := newElectionFixture(t)

	if _, err := module.Handler.CastBallotHandler(context.Background(), "member-1", "election-1", httptransport.CastBallotRequest{
		Votes: map[string]string{"President": "cand-pres-1", "Secretary": "cand-sec-1"},
	}, "127.0.0.1", "unit-test"); err != nil {
		t.Fatalf("cast ballot failed: %v", err)
	}

	publisher := &capturePublisher{}
	relay := workers.OutboxRelay{
		Outbox:    module.Store,
		Publisher: publisher,
		Clock:     module.Store,
	}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay failed: %v", err)
	}

	// One submission emits one envelope regardless of position count.
	if len(publisher.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(publisher.events))
	}
	if publisher.topics[0] != "election.ballot_cast" {
		t.Fatalf("unexpected topic %s", publisher.topics[0])
	}
	if publisher.events[0].SchemaVersion != 1 {
		t.Fatalf("unexpected schema version %d", publisher.events[0].SchemaVersion)
	}
	if publisher.events[0].PartitionKey != "election-1" {
		t.Fatalf("expected partition by election id, got %s", publisher.events[0].PartitionKey)
	}

	pending, err := module.Store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected drained outbox, got %d pending", len(pending))
	}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("idle relay failed: %v", err)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected no republish on drained outbox, got %d", len(publisher.events))
	}
}

var _ ports.EventPublisher = (*capturePublisher)(nil)
