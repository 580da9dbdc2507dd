package messaging

import (
	"context"
	"testing"
	"time"

	contractsv1 "nexus/contracts/gen/events/v1"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	bus, err := NewKafka(nil, nil)
	if err != nil {
		t.Fatalf("new bus failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan contractsv1.Envelope, 1)
	err = bus.Subscribe(ctx, "election.ballot_cast", "test-group", func(_ context.Context, event contractsv1.Envelope) error {
		received <- event
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	sent := contractsv1.Envelope{
		EventID:   "event-1",
		EventType: "election.ballot_cast",
	}
	if err := bus.Publish(ctx, "election.ballot_cast", sent); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case got := <-received:
		if got.EventID != sent.EventID {
			t.Fatalf("expected event %s, got %s", sent.EventID, got.EventID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber never received the event")
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	bus, err := NewKafka(nil, nil)
	if err != nil {
		t.Fatalf("new bus failed: %v", err)
	}
	if err := bus.Publish(context.Background(), "treasury.entry_recorded", contractsv1.Envelope{EventID: "event-1"}); err != nil {
		t.Fatalf("publish to empty topic failed: %v", err)
	}
}
