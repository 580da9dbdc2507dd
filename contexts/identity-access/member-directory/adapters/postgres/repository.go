package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"nexus/contexts/identity-access/member-directory/domain/entities"
	domainerrors "nexus/contexts/identity-access/member-directory/domain/errors"
	"nexus/contexts/identity-access/member-directory/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
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

func (r *Repository) SaveMember(ctx context.Context, member entities.Member) error {
	row := memberModelFromEntity(member)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"display_name": row.DisplayName,
			"email":        row.Email,
			"role":         row.Role,
			"updated_at":   row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrEmailTaken
		}
		return r.logError("member_repo_save_member_failed", create.Error,
			"member_id", strings.TrimSpace(member.MemberID),
		)
	}
	return nil
}

func (r *Repository) GetMember(ctx context.Context, memberID string) (entities.Member, error) {
	var row memberModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(memberID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Member{}, domainerrors.ErrMemberNotFound
		}
		return entities.Member{}, r.logError("member_repo_get_member_failed", err,
			"member_id", strings.TrimSpace(memberID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetMemberByEmail(ctx context.Context, email string) (entities.Member, bool, error) {
	var row memberModel
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Member{}, false, nil
		}
		return entities.Member{}, false, r.logError("member_repo_get_member_by_email_failed", err)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListMembers(ctx context.Context) ([]entities.Member, error) {
	var rows []memberModel
	if err := r.db.WithContext(ctx).
		Order("joined_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("member_repo_list_members_failed", err)
	}
	items := make([]entities.Member, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "identity-access/member-directory",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("member repository operation failed", fields...)
	return err
}

type memberModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	DisplayName string    `gorm:"column:display_name"`
	Email       string    `gorm:"column:email;uniqueIndex"`
	Role        string    `gorm:"column:role"`
	JoinedAt    time.Time `gorm:"column:joined_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (memberModel) TableName() string {
	return "members"
}

func memberModelFromEntity(member entities.Member) memberModel {
	row := memberModel{
		ID:          strings.TrimSpace(member.MemberID),
		DisplayName: strings.TrimSpace(member.DisplayName),
		Email:       strings.ToLower(strings.TrimSpace(member.Email)),
		Role:        string(member.Role),
		JoinedAt:    member.JoinedAt.UTC(),
		UpdatedAt:   member.UpdatedAt.UTC(),
	}
	if row.JoinedAt.IsZero() {
		row.JoinedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.JoinedAt
	}
	return row
}

func (m memberModel) toEntity() entities.Member {
	return entities.Member{
		MemberID:    m.ID,
		DisplayName: m.DisplayName,
		Email:       m.Email,
		Role:        entities.Role(m.Role),
		JoinedAt:    m.JoinedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Models lists the gorm models owned by this context for startup migration.
func Models() []any {
	return []any{&memberModel{}}
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.MemberRepository = (*Repository)(nil)
