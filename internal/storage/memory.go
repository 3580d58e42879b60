package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/chatvault/chatvault-go/internal/core/domain"
)

// MemoryStore keeps backup records in process memory. It backs tests
// and degraded operation when no data directory is available.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[domain.ConversationIdentity]map[int64]domain.BackupRecord
	closed  bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[domain.ConversationIdentity]map[int64]domain.BackupRecord),
	}
}

// Put stores a record.
func (s *MemoryStore) Put(ctx context.Context, record domain.BackupRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStorageWrite.WithDetails("store closed")
	}

	byTime, ok := s.records[record.ConversationIdentity]
	if !ok {
		byTime = make(map[int64]domain.BackupRecord)
		s.records[record.ConversationIdentity] = byTime
	}
	byTime[record.SnapshotTime] = record
	return nil
}

// Get retrieves one record.
func (s *MemoryStore) Get(ctx context.Context, identity domain.ConversationIdentity, snapshotTime int64) (domain.BackupRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.BackupRecord{}, domain.ErrStorageRead.WithDetails("store closed")
	}

	record, ok := s.records[identity][snapshotTime]
	if !ok {
		return domain.BackupRecord{}, domain.ErrRecordNotFound.WithDetails(string(identity))
	}
	return record, nil
}

// GetByConversation lists one conversation's records, snapshot time
// ascending.
func (s *MemoryStore) GetByConversation(ctx context.Context, identity domain.ConversationIdentity) ([]domain.BackupRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrStorageRead.WithDetails("store closed")
	}
	return s.sorted(identity), nil
}

// GetAll lists every record, grouped by conversation.
func (s *MemoryStore) GetAll(ctx context.Context) ([]domain.BackupRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrStorageRead.WithDetails("store closed")
	}

	identities := make([]domain.ConversationIdentity, 0, len(s.records))
	for identity := range s.records {
		identities = append(identities, identity)
	}
	sort.Slice(identities, func(i, j int) bool { return identities[i] < identities[j] })

	var out []domain.BackupRecord
	for _, identity := range identities {
		out = append(out, s.sorted(identity)...)
	}
	return out, nil
}

// sorted returns a conversation's records in snapshot-time order.
// Caller holds the lock.
func (s *MemoryStore) sorted(identity domain.ConversationIdentity) []domain.BackupRecord {
	byTime := s.records[identity]
	if len(byTime) == 0 {
		return nil
	}
	out := make([]domain.BackupRecord, 0, len(byTime))
	for _, record := range byTime {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SnapshotTime < out[j].SnapshotTime })
	return out
}

// Delete removes a record. Missing records are not an error.
func (s *MemoryStore) Delete(ctx context.Context, identity domain.ConversationIdentity, snapshotTime int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStorageWrite.WithDetails("store closed")
	}

	if byTime, ok := s.records[identity]; ok {
		delete(byTime, snapshotTime)
		if len(byTime) == 0 {
			delete(s.records, identity)
		}
	}
	return nil
}

// Close marks the store closed; further operations fail.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
