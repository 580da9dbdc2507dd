package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"nexus/contexts/governance/election-service/domain/entities"
	domainerrors "nexus/contexts/governance/election-service/domain/errors"
	"nexus/contexts/governance/election-service/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory adapter used by unit tests and in-memory wiring.
// InTransaction holds the store lock for the whole unit and restores a
// snapshot on error, so concurrent submissions serialize and a failed
// submission leaves no partial writes.
type Store struct {
	mu sync.Mutex

	elections  map[string]entities.Election
	candidates map[string]entities.Candidate
	ballots    map[string]entities.BallotEntry
	ballotKeys map[string]string
	members    map[string]ports.MemberProjection
	outbox     map[string]outboxRecord

	nowFunc func() time.Time
}

func NewStore() *Store {
	return &Store{
		elections:  make(map[string]entities.Election),
		candidates: make(map[string]entities.Candidate),
		ballots:    make(map[string]entities.BallotEntry),
		ballotKeys: make(map[string]string),
		members:    make(map[string]ports.MemberProjection),
		outbox:     make(map[string]outboxRecord),
	}
}

func (s *Store) SetMember(member ports.MemberProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[strings.TrimSpace(member.MemberID)] = ports.MemberProjection{
		MemberID:    strings.TrimSpace(member.MemberID),
		DisplayName: strings.TrimSpace(member.DisplayName),
		Role:        strings.TrimSpace(member.Role),
	}
}

func (s *Store) SetElection(election entities.Election) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elections[strings.TrimSpace(election.ElectionID)] = election
}

func (s *Store) SetCandidate(candidate entities.Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates[strings.TrimSpace(candidate.CandidateID)] = candidate
}

// SetNow pins the store clock for deterministic phase tests.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFunc = func() time.Time { return now }
}

func (s *Store) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nowFunc != nil {
		return s.nowFunc()
	}
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) InTransaction(_ context.Context, fn func(tx ports.BallotTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ballotsSnapshot := copyMap(s.ballots)
	keysSnapshot := copyMap(s.ballotKeys)
	candidatesSnapshot := copyMap(s.candidates)
	outboxSnapshot := copyMap(s.outbox)

	if err := fn(&storeTx{store: s}); err != nil {
		s.ballots = ballotsSnapshot
		s.ballotKeys = keysSnapshot
		s.candidates = candidatesSnapshot
		s.outbox = outboxSnapshot
		return err
	}
	return nil
}

func (s *Store) SaveElection(_ context.Context, election entities.Election) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elections[strings.TrimSpace(election.ElectionID)] = election
	return nil
}

func (s *Store) GetElection(_ context.Context, electionID string) (entities.Election, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	election, ok := s.elections[strings.TrimSpace(electionID)]
	if !ok {
		return entities.Election{}, domainerrors.ErrElectionNotFound
	}
	return election, nil
}

func (s *Store) ListElections(_ context.Context) ([]entities.Election, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.Election, 0, len(s.elections))
	for _, election := range s.elections {
		items = append(items, election)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ElectionID < items[j].ElectionID
	})
	return items, nil
}

func (s *Store) SaveCandidate(_ context.Context, candidate entities.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates[strings.TrimSpace(candidate.CandidateID)] = candidate
	return nil
}

func (s *Store) GetCandidate(_ context.Context, candidateID string) (entities.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getCandidateLocked(candidateID)
}

func (s *Store) ListCandidatesByElection(_ context.Context, electionID string) ([]entities.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	electionID = strings.TrimSpace(electionID)
	items := make([]entities.Candidate, 0)
	for _, candidate := range s.candidates {
		if candidate.ElectionID == electionID {
			items = append(items, candidate)
		}
	}
	sortCandidates(items)
	return items, nil
}

func (s *Store) ListCandidates(_ context.Context) ([]entities.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.Candidate, 0, len(s.candidates))
	for _, candidate := range s.candidates {
		items = append(items, candidate)
	}
	sortCandidates(items)
	return items, nil
}

func (s *Store) UpdateTally(_ context.Context, candidateID string, voteCount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	candidate, ok := s.candidates[strings.TrimSpace(candidateID)]
	if !ok {
		return domainerrors.ErrCandidateNotFound
	}
	candidate.VoteCount = voteCount
	s.candidates[candidate.CandidateID] = candidate
	return nil
}

func (s *Store) HasVotedInElection(_ context.Context, voterID string, electionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	voterID = strings.TrimSpace(voterID)
	electionID = strings.TrimSpace(electionID)
	for _, entry := range s.ballots {
		if entry.VoterID == voterID && entry.ElectionID == electionID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListBallotsByVoter(_ context.Context, voterID string, electionID string) ([]entities.BallotEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	voterID = strings.TrimSpace(voterID)
	electionID = strings.TrimSpace(electionID)
	items := make([]entities.BallotEntry, 0)
	for _, entry := range s.ballots {
		if entry.VoterID == voterID && entry.ElectionID == electionID {
			items = append(items, entry)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Position < items[j].Position
	})
	return items, nil
}

func (s *Store) CountBallotsByCandidate(_ context.Context, candidateID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countBallotsLocked(candidateID), nil
}

func (s *Store) GetMember(_ context.Context, memberID string) (ports.MemberProjection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	member, ok := s.members[strings.TrimSpace(memberID)]
	if !ok {
		return ports.MemberProjection{}, domainerrors.ErrMemberNotFound
	}
	return member, nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, record := range s.outbox {
		if record.published {
			continue
		}
		items = append(items, record.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok || record.published {
		return domainerrors.ErrConflict
	}
	record.published = true
	s.outbox[strings.TrimSpace(outboxID)] = record
	return nil
}

// InjectBallot seeds a ledger entry directly, bypassing the tally cache, so
// reconciliation tests can manufacture drift.
func (s *Store) InjectBallot(entry entities.BallotEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ballots[strings.TrimSpace(entry.BallotID)] = entry
	s.ballotKeys[ballotKey(entry.VoterID, entry.ElectionID, entry.Position)] = strings.TrimSpace(entry.BallotID)
}

func (s *Store) getCandidateLocked(candidateID string) (entities.Candidate, error) {
	candidate, ok := s.candidates[strings.TrimSpace(candidateID)]
	if !ok {
		return entities.Candidate{}, domainerrors.ErrCandidateNotFound
	}
	return candidate, nil
}

func (s *Store) countBallotsLocked(candidateID string) int64 {
	candidateID = strings.TrimSpace(candidateID)
	var count int64
	for _, entry := range s.ballots {
		if entry.CandidateID == candidateID {
			count++
		}
	}
	return count
}

// storeTx operates on the store maps while the transaction holds the lock.
type storeTx struct {
	store *Store
}

func (t *storeTx) GetCandidate(_ context.Context, candidateID string) (entities.Candidate, error) {
	return t.store.getCandidateLocked(candidateID)
}

func (t *storeTx) HasVoted(_ context.Context, voterID string, electionID string, position string) (bool, error) {
	_, ok := t.store.ballotKeys[ballotKey(voterID, electionID, position)]
	return ok, nil
}

func (t *storeTx) AppendBallot(_ context.Context, entry entities.BallotEntry) error {
	key := ballotKey(entry.VoterID, entry.ElectionID, entry.Position)
	if _, exists := t.store.ballotKeys[key]; exists {
		return &domainerrors.DuplicateVoteError{Position: entry.Position}
	}
	t.store.ballots[strings.TrimSpace(entry.BallotID)] = entry
	t.store.ballotKeys[key] = strings.TrimSpace(entry.BallotID)
	return nil
}

func (t *storeTx) IncrementTally(_ context.Context, candidateID string) (int64, error) {
	candidate, err := t.store.getCandidateLocked(candidateID)
	if err != nil {
		return 0, err
	}
	candidate.VoteCount++
	t.store.candidates[candidate.CandidateID] = candidate
	return candidate.VoteCount, nil
}

func (t *storeTx) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	t.store.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func ballotKey(voterID string, electionID string, position string) string {
	return strings.TrimSpace(voterID) + "|" + strings.TrimSpace(electionID) + "|" + strings.ToLower(strings.TrimSpace(position))
}

func copyMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}

func sortCandidates(items []entities.Candidate) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Position == items[j].Position {
			return items[i].CandidateID < items[j].CandidateID
		}
		return items[i].Position < items[j].Position
	})
}

var _ ports.ElectionRepository = (*Store)(nil)
var _ ports.BallotLedger = (*Store)(nil)
var _ ports.MemberDirectory = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
var _ ports.BallotTx = (*storeTx)(nil)
