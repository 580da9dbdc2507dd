package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	domainerrors "nexus/contexts/finance-core/treasury-ledger/domain/errors"
	"nexus/contexts/finance-core/treasury-ledger/ports"

	"github.com/google/uuid"
)

// Store is the in-memory treasury backend used by tests and local wiring.
type Store struct {
	mu sync.RWMutex

	entries     map[string]ports.LedgerEntry
	idempotency map[string]ports.IdempotencyRecord
	outbox      map[string]outboxRecord

	nowFunc func() time.Time
}

type outboxRecord struct {
	Message     ports.OutboxMessage
	Status      string
	PublishedAt *time.Time
}

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

func NewStore() *Store {
	return &Store{
		entries:     make(map[string]ports.LedgerEntry),
		idempotency: make(map[string]ports.IdempotencyRecord),
		outbox:      make(map[string]outboxRecord),
	}
}

func (s *Store) CreateEntry(_ context.Context, entry ports.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(entry.EntryID)
	if id == "" {
		return domainerrors.ErrInvalidEntryInput
	}
	if _, exists := s.entries[id]; exists {
		return domainerrors.ErrIdempotencyConflict
	}
	s.entries[id] = entry
	return nil
}

func (s *Store) GetEntry(_ context.Context, entryID string) (ports.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.entries[strings.TrimSpace(entryID)]
	if !ok {
		return ports.LedgerEntry{}, domainerrors.ErrEntryNotFound
	}
	return item, nil
}

func (s *Store) ListEntries(_ context.Context, limit int, offset int) ([]ports.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	items := make([]ports.LedgerEntry, 0, len(s.entries))
	for _, item := range s.entries {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].OccurredAt.After(items[j].OccurredAt)
	})
	if offset >= len(items) {
		return []ports.LedgerEntry{}, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return append([]ports.LedgerEntry(nil), items[offset:end]...), nil
}

func (s *Store) BuildMonthlyReport(_ context.Context, month string) (ports.TreasuryReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := ports.TreasuryReport{Month: strings.TrimSpace(month)}
	for _, item := range s.entries {
		if item.OccurredAt.UTC().Format("2006-01") != report.Month {
			continue
		}
		report.Count++
		switch item.Direction {
		case ports.DirectionIncome:
			report.TotalIncome += item.Amount
		case ports.DirectionExpense:
			report.TotalExpense += item.Amount
		}
	}
	report.Net = report.TotalIncome - report.TotalExpense
	return report, nil
}

func (s *Store) Balance(_ context.Context) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	balance := 0.0
	for _, item := range s.entries {
		switch item.Direction {
		case ports.DirectionIncome:
			balance += item.Amount
		case ports.DirectionExpense:
			balance -= item.Amount
		}
	}
	return balance, nil
}

func (s *Store) GetRecord(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.idempotency[strings.TrimSpace(key)]
	if !ok {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now.UTC()) {
		delete(s.idempotency, strings.TrimSpace(key))
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) PutRecord(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(record.Key)
	if key == "" {
		return domainerrors.ErrInvalidEntryInput
	}
	if existing, ok := s.idempotency[key]; ok {
		if existing.RequestHash != record.RequestHash {
			return domainerrors.ErrIdempotencyConflict
		}
		if !bytes.Equal(existing.ResponsePayload, record.ResponsePayload) {
			return domainerrors.ErrIdempotencyConflict
		}
		return nil
	}
	s.idempotency[key] = record
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		return domainerrors.ErrInvalidEntryInput
	}

	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.Message.Payload, payload) {
			return domainerrors.ErrIdempotencyConflict
		}
		return nil
	}

	s.outbox[outboxID] = outboxRecord{
		Message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		},
		Status: outboxStatusPending,
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.Status == outboxStatusPending {
			items = append(items, row.Message)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrEntryNotFound
	}
	ts := publishedAt.UTC()
	row.Status = outboxStatusPublished
	row.PublishedAt = &ts
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

// SetNow pins the clock for tests.
func (s *Store) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFunc = now
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	nowFunc := s.nowFunc
	s.mu.RUnlock()
	if nowFunc != nil {
		return nowFunc().UTC()
	}
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var (
	_ ports.Repository       = (*Store)(nil)
	_ ports.IdempotencyStore = (*Store)(nil)
	_ ports.OutboxWriter     = (*Store)(nil)
	_ ports.OutboxRepository = (*Store)(nil)
	_ ports.Clock            = (*Store)(nil)
	_ ports.IDGenerator      = (*Store)(nil)
)
