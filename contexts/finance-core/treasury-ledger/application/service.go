// Package application holds the treasury bookkeeping use cases. Recorded
// entries are append-only; corrections are recorded as compensating entries
// rather than edits, so every published report stays reproducible.
package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"math"
	"strings"
	"time"

	domainerrors "nexus/contexts/finance-core/treasury-ledger/domain/errors"
	"nexus/contexts/finance-core/treasury-ledger/ports"
)

type Service struct {
	Repo           ports.Repository
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// RecordEntry appends one income or expense entry to the ledger. The boolean
// result reports whether the entry was replayed from the idempotency store.
func (s Service) RecordEntry(
	ctx context.Context,
	idempotencyKey string,
	input ports.RecordEntryInput,
) (ports.LedgerEntry, bool, error) {
	if strings.TrimSpace(idempotencyKey) == "" {
		return ports.LedgerEntry{}, false, domainerrors.ErrIdempotencyKeyRequired
	}
	if !isValidRecordInput(input) {
		return ports.LedgerEntry{}, false, domainerrors.ErrInvalidEntryInput
	}

	now := s.now()
	requestHash := hashPayload(map[string]any{
		"direction":   strings.TrimSpace(input.Direction),
		"category":    strings.TrimSpace(input.Category),
		"description": strings.TrimSpace(input.Description),
		"amount":      round2(input.Amount),
		"recorded_by": strings.TrimSpace(input.RecordedBy),
		"occurred_at": input.OccurredAt.UTC().Format(time.RFC3339Nano),
	})

	record, found, err := s.Idempotency.GetRecord(ctx, strings.TrimSpace(idempotencyKey), now)
	if err != nil {
		return ports.LedgerEntry{}, false, err
	}
	if found {
		if record.RequestHash != requestHash {
			return ports.LedgerEntry{}, false, domainerrors.ErrIdempotencyConflict
		}
		var replayed ports.LedgerEntry
		if err := json.Unmarshal(record.ResponsePayload, &replayed); err != nil {
			return ports.LedgerEntry{}, false, err
		}
		return replayed, true, nil
	}

	entryID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return ports.LedgerEntry{}, false, err
	}
	occurredAt := input.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = now
	}

	entry := ports.LedgerEntry{
		EntryID:     strings.TrimSpace(entryID),
		Direction:   strings.TrimSpace(input.Direction),
		Category:    strings.TrimSpace(input.Category),
		Description: strings.TrimSpace(input.Description),
		Amount:      round2(input.Amount),
		RecordedBy:  strings.TrimSpace(input.RecordedBy),
		OccurredAt:  occurredAt,
		RecordedAt:  now,
	}
	if err := s.Repo.CreateEntry(ctx, entry); err != nil {
		return ports.LedgerEntry{}, false, err
	}
	if err := s.appendEntryRecordedOutbox(ctx, entry); err != nil {
		return ports.LedgerEntry{}, false, err
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return ports.LedgerEntry{}, false, err
	}
	if err := s.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             strings.TrimSpace(idempotencyKey),
		RequestHash:     requestHash,
		ResponsePayload: payload,
		ExpiresAt:       now.Add(s.idempotencyTTL()),
	}); err != nil {
		return ports.LedgerEntry{}, false, err
	}

	resolveLogger(s.Logger).Info("treasury entry recorded",
		"event", "treasury_entry_recorded",
		"module", "finance-core/treasury-ledger",
		"layer", "application",
		"entry_id", entry.EntryID,
		"direction", entry.Direction,
		"category", entry.Category,
		"amount", entry.Amount,
	)
	return entry, false, nil
}

func (s Service) GetEntry(ctx context.Context, entryID string) (ports.LedgerEntry, error) {
	if strings.TrimSpace(entryID) == "" {
		return ports.LedgerEntry{}, domainerrors.ErrInvalidEntryInput
	}
	return s.Repo.GetEntry(ctx, strings.TrimSpace(entryID))
}

func (s Service) ListEntries(ctx context.Context, limit int, offset int) ([]ports.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListEntries(ctx, limit, offset)
}

// Balance returns the running balance over the whole ledger, income minus
// expense.
func (s Service) Balance(ctx context.Context) (float64, error) {
	return s.Repo.Balance(ctx)
}

func (s Service) MonthlyReport(ctx context.Context, month string) (ports.TreasuryReport, error) {
	month = strings.TrimSpace(month)
	if _, err := time.Parse("2006-01", month); err != nil {
		return ports.TreasuryReport{}, domainerrors.ErrInvalidMonth
	}
	return s.Repo.BuildMonthlyReport(ctx, month)
}

func (s Service) appendEntryRecordedOutbox(ctx context.Context, entry ports.LedgerEntry) error {
	if s.Outbox == nil {
		return nil
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(map[string]any{
		"entry_id":    entry.EntryID,
		"direction":   entry.Direction,
		"category":    entry.Category,
		"amount":      entry.Amount,
		"recorded_by": entry.RecordedBy,
		"occurred_at": entry.OccurredAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return s.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          strings.TrimSpace(eventID),
		EventType:        "treasury.entry_recorded",
		OccurredAt:       entry.RecordedAt.UTC(),
		SourceService:    "treasury-ledger",
		TraceID:          strings.TrimSpace(eventID),
		SchemaVersion:    1,
		PartitionKeyPath: "entry_id",
		PartitionKey:     entry.EntryID,
		Data:             data,
	})
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) idempotencyTTL() time.Duration {
	if s.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.IdempotencyTTL
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func isValidRecordInput(input ports.RecordEntryInput) bool {
	direction := strings.TrimSpace(input.Direction)
	if direction != ports.DirectionIncome && direction != ports.DirectionExpense {
		return false
	}
	return strings.TrimSpace(input.Category) != "" &&
		strings.TrimSpace(input.RecordedBy) != "" &&
		input.Amount > 0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func hashPayload(payload map[string]any) string {
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
