package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"nexus/contexts/identity-access/member-directory/domain/entities"
	domainerrors "nexus/contexts/identity-access/member-directory/domain/errors"
	"nexus/contexts/identity-access/member-directory/ports"

	"github.com/google/uuid"
)

type Store struct {
	mu      sync.RWMutex
	members map[string]entities.Member
	nowFunc func() time.Time
}

func NewStore() *Store {
	return &Store{
		members: make(map[string]entities.Member),
	}
}

func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFunc = func() time.Time { return now }
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.nowFunc != nil {
		return s.nowFunc()
	}
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) SaveMember(_ context.Context, member entities.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[strings.TrimSpace(member.MemberID)] = member
	return nil
}

func (s *Store) GetMember(_ context.Context, memberID string) (entities.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	member, ok := s.members[strings.TrimSpace(memberID)]
	if !ok {
		return entities.Member{}, domainerrors.ErrMemberNotFound
	}
	return member, nil
}

func (s *Store) GetMemberByEmail(_ context.Context, email string) (entities.Member, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, member := range s.members {
		if member.Email == email {
			return member, true, nil
		}
	}
	return entities.Member{}, false, nil
}

func (s *Store) ListMembers(_ context.Context) ([]entities.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Member, 0, len(s.members))
	for _, member := range s.members {
		items = append(items, member)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].MemberID < items[j].MemberID
	})
	return items, nil
}

var _ ports.MemberRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
