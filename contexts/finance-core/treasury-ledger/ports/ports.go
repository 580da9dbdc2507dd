package ports

import (
	"context"
	"time"

	contractsv1 "nexus/contracts/gen/events/v1"
)

const (
	DirectionIncome  = "income"
	DirectionExpense = "expense"
)

type LedgerEntry struct {
	EntryID     string
	Direction   string
	Category    string
	Description string
	Amount      float64
	RecordedBy  string
	OccurredAt  time.Time
	RecordedAt  time.Time
}

type RecordEntryInput struct {
	Direction   string
	Category    string
	Description string
	Amount      float64
	RecordedBy  string
	OccurredAt  time.Time
}

type Repository interface {
	CreateEntry(ctx context.Context, entry LedgerEntry) error
	GetEntry(ctx context.Context, entryID string) (LedgerEntry, error)
	ListEntries(ctx context.Context, limit int, offset int) ([]LedgerEntry, error)
	BuildMonthlyReport(ctx context.Context, month string) (TreasuryReport, error)
	Balance(ctx context.Context) (float64, error)
}

type TreasuryReport struct {
	Month        string
	TotalIncome  float64
	TotalExpense float64
	Net          float64
	Count        int
}

type IdempotencyRecord struct {
	Key             string
	RequestHash     string
	ResponsePayload []byte
	ExpiresAt       time.Time
}

type IdempotencyStore interface {
	GetRecord(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	PutRecord(ctx context.Context, record IdempotencyRecord) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}
