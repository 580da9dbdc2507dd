package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"nexus/contexts/governance/election-service/domain/entities"
	domainerrors "nexus/contexts/governance/election-service/domain/errors"
	"nexus/contexts/governance/election-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
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

// InTransaction runs fn inside one database transaction. Serialization
// failures and deadlocks surface as ErrTransactionConflict, the one error
// kind a caller may retry from scratch.
func (r *Repository) InTransaction(ctx context.Context, fn func(tx ports.BallotTx) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ballotTx{db: tx, logger: r.logger})
	})
	if err != nil && isSerializationFailure(err) {
		return domainerrors.ErrTransactionConflict
	}
	return err
}

func (r *Repository) SaveElection(ctx context.Context, election entities.Election) error {
	row := electionModelFromEntity(election)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"title":       row.Title,
			"description": row.Description,
			"start_at":    row.StartAt,
			"end_at":      row.EndAt,
			"is_active":   row.IsActive,
			"status":      row.Status,
			"updated_at":  row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("election_repo_save_election_failed", create.Error,
			"election_id", strings.TrimSpace(election.ElectionID),
		)
	}
	return nil
}

func (r *Repository) GetElection(ctx context.Context, electionID string) (entities.Election, error) {
	var row electionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(electionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Election{}, domainerrors.ErrElectionNotFound
		}
		return entities.Election{}, r.logError("election_repo_get_election_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListElections(ctx context.Context) ([]entities.Election, error) {
	var rows []electionModel
	if err := r.db.WithContext(ctx).
		Order("start_at DESC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_elections_failed", err)
	}
	items := make([]entities.Election, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) SaveCandidate(ctx context.Context, candidate entities.Candidate) error {
	row := candidateModelFromEntity(candidate)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"member_id":        row.MemberID,
			"position":         row.Position,
			"manifesto":        row.Manifesto,
			"vision_statement": row.VisionStatement,
			"updated_at":       row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("election_repo_save_candidate_failed", create.Error,
			"candidate_id", strings.TrimSpace(candidate.CandidateID),
			"election_id", strings.TrimSpace(candidate.ElectionID),
		)
	}
	return nil
}

func (r *Repository) GetCandidate(ctx context.Context, candidateID string) (entities.Candidate, error) {
	return getCandidate(ctx, r.db, r.logger, candidateID)
}

func (r *Repository) ListCandidatesByElection(ctx context.Context, electionID string) ([]entities.Candidate, error) {
	var rows []candidateModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("position ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_candidates_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return toCandidateEntities(rows), nil
}

func (r *Repository) ListCandidates(ctx context.Context) ([]entities.Candidate, error) {
	var rows []candidateModel
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_all_candidates_failed", err)
	}
	return toCandidateEntities(rows), nil
}

func (r *Repository) UpdateTally(ctx context.Context, candidateID string, voteCount int64) error {
	result := r.db.WithContext(ctx).
		Model(&candidateModel{}).
		Where("id = ?", strings.TrimSpace(candidateID)).
		Updates(map[string]any{
			"votes_count": voteCount,
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		return r.logError("election_repo_update_tally_failed", result.Error,
			"candidate_id", strings.TrimSpace(candidateID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrCandidateNotFound
	}
	return nil
}

func (r *Repository) HasVotedInElection(ctx context.Context, voterID string, electionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ballotModel{}).
		Where("voter_id = ?", strings.TrimSpace(voterID)).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("election_repo_has_voted_failed", err,
			"voter_id", strings.TrimSpace(voterID),
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return count > 0, nil
}

func (r *Repository) ListBallotsByVoter(ctx context.Context, voterID string, electionID string) ([]entities.BallotEntry, error) {
	var rows []ballotModel
	if err := r.db.WithContext(ctx).
		Where("voter_id = ?", strings.TrimSpace(voterID)).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("cast_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_ballots_by_voter_failed", err,
			"voter_id", strings.TrimSpace(voterID),
			"election_id", strings.TrimSpace(electionID),
		)
	}
	items := make([]entities.BallotEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CountBallotsByCandidate(ctx context.Context, candidateID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ballotModel{}).
		Where("candidate_id = ?", strings.TrimSpace(candidateID)).
		Count(&count).
		Error
	if err != nil {
		return 0, r.logError("election_repo_count_ballots_failed", err,
			"candidate_id", strings.TrimSpace(candidateID),
		)
	}
	return count, nil
}

// GetMember reads the members table owned by the identity-access context as a
// projection. Only id, role, and display name ever cross the boundary.
func (r *Repository) GetMember(ctx context.Context, memberID string) (ports.MemberProjection, error) {
	var row memberProjectionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(memberID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.MemberProjection{}, domainerrors.ErrMemberNotFound
		}
		return ports.MemberProjection{}, r.logError("election_repo_get_member_failed", err,
			"member_id", strings.TrimSpace(memberID),
		)
	}
	return ports.MemberProjection{
		MemberID:    row.ID,
		DisplayName: row.DisplayName,
		Role:        row.Role,
	}, nil
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
		return nil, r.logError("election_repo_list_pending_outbox_failed", err, "limit", limit)
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
		return r.logError("election_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "governance/election-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("election repository operation failed", fields...)
	return err
}

// ballotTx is the transactional view handed to the cast-ballot coordinator.
type ballotTx struct {
	db     *gorm.DB
	logger *slog.Logger
}

func (t *ballotTx) GetCandidate(ctx context.Context, candidateID string) (entities.Candidate, error) {
	return getCandidate(ctx, t.db, t.logger, candidateID)
}

func (t *ballotTx) HasVoted(ctx context.Context, voterID string, electionID string, position string) (bool, error) {
	var count int64
	err := t.db.WithContext(ctx).
		Model(&ballotModel{}).
		Where("voter_id = ?", strings.TrimSpace(voterID)).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Where("position = ?", strings.TrimSpace(position)).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AppendBallot inserts one immutable ledger row. The unique index over
// (voter_id, election_id, position) is the authoritative duplicate guard;
// a violation aborts the surrounding transaction with DuplicateVote.
func (t *ballotTx) AppendBallot(ctx context.Context, entry entities.BallotEntry) error {
	row := ballotModelFromEntity(entry)
	if err := t.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return &domainerrors.DuplicateVoteError{Position: entry.Position}
		}
		return err
	}
	return nil
}

func (t *ballotTx) IncrementTally(ctx context.Context, candidateID string) (int64, error) {
	candidateID = strings.TrimSpace(candidateID)
	result := t.db.WithContext(ctx).
		Model(&candidateModel{}).
		Where("id = ?", candidateID).
		UpdateColumn("votes_count", gorm.Expr("votes_count + 1"))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, domainerrors.ErrCandidateNotFound
	}

	var row candidateModel
	if err := t.db.WithContext(ctx).
		Select("votes_count").
		Where("id = ?", candidateID).
		First(&row).Error; err != nil {
		return 0, err
	}
	return row.VoteCount, nil
}

func (t *ballotTx) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
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
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return t.db.WithContext(ctx).Create(&row).Error
}

func getCandidate(ctx context.Context, db *gorm.DB, logger *slog.Logger, candidateID string) (entities.Candidate, error) {
	var row candidateModel
	err := db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(candidateID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Candidate{}, domainerrors.ErrCandidateNotFound
		}
		if logger != nil {
			logger.Error("election repository operation failed",
				"event", "election_repo_get_candidate_failed",
				"module", "governance/election-service",
				"layer", "adapter",
				"candidate_id", strings.TrimSpace(candidateID),
				"error", err.Error(),
			)
		}
		return entities.Candidate{}, err
	}
	return row.toEntity(), nil
}

type electionModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	Title       string    `gorm:"column:title"`
	Description string    `gorm:"column:description"`
	StartAt     time.Time `gorm:"column:start_at"`
	EndAt       time.Time `gorm:"column:end_at"`
	IsActive    bool      `gorm:"column:is_active"`
	Status      string    `gorm:"column:status"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (electionModel) TableName() string {
	return "elections"
}

func electionModelFromEntity(election entities.Election) electionModel {
	row := electionModel{
		ID:          strings.TrimSpace(election.ElectionID),
		Title:       strings.TrimSpace(election.Title),
		Description: strings.TrimSpace(election.Description),
		StartAt:     election.StartAt.UTC(),
		EndAt:       election.EndAt.UTC(),
		IsActive:    election.IsActive,
		Status:      string(election.Status),
		CreatedAt:   election.CreatedAt.UTC(),
		UpdatedAt:   election.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m electionModel) toEntity() entities.Election {
	return entities.Election{
		ElectionID:  m.ID,
		Title:       m.Title,
		Description: m.Description,
		StartAt:     m.StartAt.UTC(),
		EndAt:       m.EndAt.UTC(),
		IsActive:    m.IsActive,
		Status:      entities.ElectionStatus(m.Status),
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type candidateModel struct {
	ID              string    `gorm:"column:id;primaryKey"`
	ElectionID      string    `gorm:"column:election_id"`
	MemberID        string    `gorm:"column:member_id"`
	Position        string    `gorm:"column:position"`
	Manifesto       string    `gorm:"column:manifesto"`
	VisionStatement string    `gorm:"column:vision_statement"`
	VoteCount       int64     `gorm:"column:votes_count"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (candidateModel) TableName() string {
	return "candidates"
}

func candidateModelFromEntity(candidate entities.Candidate) candidateModel {
	row := candidateModel{
		ID:              strings.TrimSpace(candidate.CandidateID),
		ElectionID:      strings.TrimSpace(candidate.ElectionID),
		MemberID:        strings.TrimSpace(candidate.MemberID),
		Position:        strings.TrimSpace(candidate.Position),
		Manifesto:       strings.TrimSpace(candidate.Manifesto),
		VisionStatement: strings.TrimSpace(candidate.VisionStatement),
		VoteCount:       candidate.VoteCount,
		CreatedAt:       candidate.CreatedAt.UTC(),
		UpdatedAt:       candidate.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m candidateModel) toEntity() entities.Candidate {
	return entities.Candidate{
		CandidateID:     m.ID,
		ElectionID:      m.ElectionID,
		MemberID:        m.MemberID,
		Position:        m.Position,
		Manifesto:       m.Manifesto,
		VisionStatement: m.VisionStatement,
		VoteCount:       m.VoteCount,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

type ballotModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	VoterID     string    `gorm:"column:voter_id;uniqueIndex:idx_ballots_voter_election_position"`
	ElectionID  string    `gorm:"column:election_id;uniqueIndex:idx_ballots_voter_election_position"`
	CandidateID string    `gorm:"column:candidate_id"`
	Position    string    `gorm:"column:position;uniqueIndex:idx_ballots_voter_election_position"`
	IPAddress   string    `gorm:"column:ip_address"`
	UserAgent   string    `gorm:"column:user_agent"`
	CastAt      time.Time `gorm:"column:cast_at"`
}

func (ballotModel) TableName() string {
	return "ballots"
}

func ballotModelFromEntity(entry entities.BallotEntry) ballotModel {
	row := ballotModel{
		ID:          strings.TrimSpace(entry.BallotID),
		VoterID:     strings.TrimSpace(entry.VoterID),
		ElectionID:  strings.TrimSpace(entry.ElectionID),
		CandidateID: strings.TrimSpace(entry.CandidateID),
		Position:    strings.TrimSpace(entry.Position),
		IPAddress:   strings.TrimSpace(entry.IPAddress),
		UserAgent:   strings.TrimSpace(entry.UserAgent),
		CastAt:      entry.CastAt.UTC(),
	}
	if row.CastAt.IsZero() {
		row.CastAt = time.Now().UTC()
	}
	return row
}

func (m ballotModel) toEntity() entities.BallotEntry {
	return entities.BallotEntry{
		BallotID:    m.ID,
		VoterID:     m.VoterID,
		ElectionID:  m.ElectionID,
		CandidateID: m.CandidateID,
		Position:    m.Position,
		IPAddress:   m.IPAddress,
		UserAgent:   m.UserAgent,
		CastAt:      m.CastAt.UTC(),
	}
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
	return "election_outbox"
}

type memberProjectionModel struct {
	ID          string `gorm:"column:id;primaryKey"`
	DisplayName string `gorm:"column:display_name"`
	Role        string `gorm:"column:role"`
}

func (memberProjectionModel) TableName() string {
	return "members"
}

func toCandidateEntities(rows []candidateModel) []entities.Candidate {
	items := make([]entities.Candidate, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// Models lists the gorm models owned by this context for startup migration.
// The members table is owned by identity-access and is not listed here.
func Models() []any {
	return []any{&electionModel{}, &candidateModel{}, &ballotModel{}, &outboxModel{}}
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.ElectionRepository = (*Repository)(nil)
var _ ports.BallotLedger = (*Repository)(nil)
var _ ports.MemberDirectory = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
var _ ports.BallotTx = (*ballotTx)(nil)
