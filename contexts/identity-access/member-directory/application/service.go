package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"nexus/contexts/identity-access/member-directory/domain/entities"
	domainerrors "nexus/contexts/identity-access/member-directory/domain/errors"
	"nexus/contexts/identity-access/member-directory/ports"
)

// Service owns the club member registry: the user-identity lookup the rest of
// the portal consumes, plus role assignment.
type Service struct {
	Repo   ports.MemberRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

type RegisterMemberInput struct {
	DisplayName string
	Email       string
	Role        entities.Role
}

func (s Service) RegisterMember(ctx context.Context, input RegisterMemberInput) (entities.Member, error) {
	displayName := strings.TrimSpace(input.DisplayName)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if displayName == "" || email == "" {
		return entities.Member{}, domainerrors.ErrInvalidMemberInput
	}
	role := input.Role
	if role == "" {
		role = entities.RoleMember
	}
	if !entities.ValidRole(role) {
		return entities.Member{}, domainerrors.ErrInvalidRole
	}

	if _, taken, err := s.Repo.GetMemberByEmail(ctx, email); err != nil {
		return entities.Member{}, err
	} else if taken {
		return entities.Member{}, domainerrors.ErrEmailTaken
	}

	memberID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Member{}, err
	}
	now := s.now()
	member := entities.Member{
		MemberID:    memberID,
		DisplayName: displayName,
		Email:       email,
		Role:        role,
		JoinedAt:    now,
		UpdatedAt:   now,
	}
	if err := s.Repo.SaveMember(ctx, member); err != nil {
		return entities.Member{}, err
	}
	s.logger().Info("member registered",
		"event", "member_registered",
		"module", "identity-access/member-directory",
		"layer", "application",
		"member_id", member.MemberID,
		"role", string(member.Role),
	)
	return member, nil
}

func (s Service) AssignRole(ctx context.Context, memberID string, role entities.Role) (entities.Member, error) {
	if !entities.ValidRole(role) {
		return entities.Member{}, domainerrors.ErrInvalidRole
	}
	member, err := s.Repo.GetMember(ctx, strings.TrimSpace(memberID))
	if err != nil {
		return entities.Member{}, err
	}
	if member.Role == role {
		return member, nil
	}

	member.Role = role
	member.UpdatedAt = s.now()
	if err := s.Repo.SaveMember(ctx, member); err != nil {
		return entities.Member{}, err
	}
	s.logger().Info("member role assigned",
		"event", "member_role_assigned",
		"module", "identity-access/member-directory",
		"layer", "application",
		"member_id", member.MemberID,
		"role", string(member.Role),
	)
	return member, nil
}

func (s Service) GetMember(ctx context.Context, memberID string) (entities.Member, error) {
	if strings.TrimSpace(memberID) == "" {
		return entities.Member{}, domainerrors.ErrInvalidMemberInput
	}
	return s.Repo.GetMember(ctx, strings.TrimSpace(memberID))
}

func (s Service) ListMembers(ctx context.Context) ([]entities.Member, error) {
	return s.Repo.ListMembers(ctx)
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
