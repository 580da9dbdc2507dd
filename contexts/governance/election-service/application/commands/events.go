package commands

import (
	"encoding/json"
	"time"

	"nexus/contexts/governance/election-service/ports"
)

const (
	eventSourceService = "governance/election-service"
	eventSchemaVersion = 1
)

func newElectionEnvelope(
	eventID string,
	eventType string,
	electionID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    eventSourceService,
		SchemaVersion:    eventSchemaVersion,
		PartitionKeyPath: "election_id",
		PartitionKey:     electionID,
		Data:             raw,
	}, nil
}
