package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainerrors "nexus/contexts/finance-core/treasury-ledger/domain/errors"
	"nexus/contexts/finance-core/treasury-ledger/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateEntry(ctx context.Context, entry ports.LedgerEntry) error {
	row := entryModelFromPort(entry)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrIdempotencyConflict
		}
		return r.logError("treasury_repo_create_entry_failed", err,
			"entry_id", strings.TrimSpace(entry.EntryID),
		)
	}
	return nil
}

func (r *Repository) GetEntry(ctx context.Context, entryID string) (ports.LedgerEntry, error) {
	var row entryModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(entryID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.LedgerEntry{}, domainerrors.ErrEntryNotFound
		}
		return ports.LedgerEntry{}, r.logError("treasury_repo_get_entry_failed", err,
			"entry_id", strings.TrimSpace(entryID),
		)
	}
	return row.toPort(), nil
}

func (r *Repository) ListEntries(ctx context.Context, limit int, offset int) ([]ports.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var rows []entryModel
	if err := r.db.WithContext(ctx).
		Order("occurred_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, r.logError("treasury_repo_list_entries_failed", err)
	}
	items := make([]ports.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items, nil
}

func (r *Repository) BuildMonthlyReport(ctx context.Context, month string) (ports.TreasuryReport, error) {
	start, err := time.Parse("2006-01", strings.TrimSpace(month))
	if err != nil {
		return ports.TreasuryReport{}, domainerrors.ErrInvalidMonth
	}
	end := start.AddDate(0, 1, 0)

	var agg struct {
		TotalIncome  float64
		TotalExpense float64
		Count        int
	}
	err = r.db.WithContext(ctx).
		Model(&entryModel{}).
		Select(
			"COALESCE(SUM(CASE WHEN direction = ? THEN amount ELSE 0 END), 0) AS total_income, "+
				"COALESCE(SUM(CASE WHEN direction = ? THEN amount ELSE 0 END), 0) AS total_expense, "+
				"COUNT(*) AS count",
			ports.DirectionIncome, ports.DirectionExpense,
		).
		Where("occurred_at >= ? AND occurred_at < ?", start.UTC(), end.UTC()).
		Scan(&agg).
		Error
	if err != nil {
		return ports.TreasuryReport{}, r.logError("treasury_repo_build_report_failed", err,
			"month", strings.TrimSpace(month),
		)
	}
	return ports.TreasuryReport{
		Month:        strings.TrimSpace(month),
		TotalIncome:  agg.TotalIncome,
		TotalExpense: agg.TotalExpense,
		Net:          agg.TotalIncome - agg.TotalExpense,
		Count:        agg.Count,
	}, nil
}

func (r *Repository) Balance(ctx context.Context) (float64, error) {
	var balance float64
	err := r.db.WithContext(ctx).
		Model(&entryModel{}).
		Select(
			"COALESCE(SUM(CASE WHEN direction = ? THEN amount ELSE -amount END), 0)",
			ports.DirectionIncome,
		).
		Scan(&balance).
		Error
	if err != nil {
		return 0, r.logError("treasury_repo_balance_failed", err)
	}
	return balance, nil
}

func (r *Repository) GetRecord(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, r.logError("treasury_repo_get_idempotency_failed", err)
	}
	if !row.ExpiresAt.After(now.UTC()) {
		return ports.IdempotencyRecord{}, false, nil
	}
	return ports.IdempotencyRecord{
		Key:             row.Key,
		RequestHash:     row.RequestHash,
		ResponsePayload: append([]byte(nil), row.ResponsePayload...),
		ExpiresAt:       row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) PutRecord(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:             strings.TrimSpace(record.Key),
		RequestHash:     record.RequestHash,
		ResponsePayload: record.ResponsePayload,
		ExpiresAt:       record.ExpiresAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrIdempotencyConflict
		}
		return r.logError("treasury_repo_put_idempotency_failed", err)
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("treasury_repo_append_outbox_failed", err,
			"outbox_id", row.OutboxID,
		)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("treasury_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("treasury_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrEntryNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "finance-core/treasury-ledger",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("treasury repository operation failed", fields...)
	return err
}

type entryModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	Direction   string    `gorm:"column:direction"`
	Category    string    `gorm:"column:category"`
	Description string    `gorm:"column:description"`
	Amount      float64   `gorm:"column:amount"`
	RecordedBy  string    `gorm:"column:recorded_by"`
	OccurredAt  time.Time `gorm:"column:occurred_at;index"`
	RecordedAt  time.Time `gorm:"column:recorded_at"`
}

func (entryModel) TableName() string {
	return "treasury_entries"
}

func entryModelFromPort(entry ports.LedgerEntry) entryModel {
	return entryModel{
		ID:          strings.TrimSpace(entry.EntryID),
		Direction:   strings.TrimSpace(entry.Direction),
		Category:    strings.TrimSpace(entry.Category),
		Description: strings.TrimSpace(entry.Description),
		Amount:      entry.Amount,
		RecordedBy:  strings.TrimSpace(entry.RecordedBy),
		OccurredAt:  entry.OccurredAt.UTC(),
		RecordedAt:  entry.RecordedAt.UTC(),
	}
}

func (m entryModel) toPort() ports.LedgerEntry {
	return ports.LedgerEntry{
		EntryID:     m.ID,
		Direction:   m.Direction,
		Category:    m.Category,
		Description: m.Description,
		Amount:      m.Amount,
		RecordedBy:  m.RecordedBy,
		OccurredAt:  m.OccurredAt.UTC(),
		RecordedAt:  m.RecordedAt.UTC(),
	}
}

type idempotencyModel struct {
	Key             string    `gorm:"column:key;primaryKey"`
	RequestHash     string    `gorm:"column:request_hash"`
	ResponsePayload []byte    `gorm:"column:response_payload"`
	ExpiresAt       time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "treasury_idempotency"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "treasury_outbox"
}

// Models lists the gorm models owned by this context for startup migration.
func Models() []any {
	return []any{&entryModel{}, &idempotencyModel{}, &outboxModel{}}
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var (
	_ ports.Repository       = (*Repository)(nil)
	_ ports.IdempotencyStore = (*Repository)(nil)
	_ ports.OutboxWriter     = (*Repository)(nil)
	_ ports.OutboxRepository = (*Repository)(nil)
)
