package ports

import (
	"context"
	"time"

	"nexus/contexts/identity-access/member-directory/domain/entities"
)

type MemberRepository interface {
	SaveMember(ctx context.Context, member entities.Member) error
	GetMember(ctx context.Context, memberID string) (entities.Member, error)
	GetMemberByEmail(ctx context.Context, email string) (entities.Member, bool, error)
	ListMembers(ctx context.Context) ([]entities.Member, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
