package presence

import (
	"context"
	"sync"

	"github.com/tnhan0211/serverzola/internal/models"
)

// MemoryStore is a process-local Store used in tests and single-node
// deployments without Redis.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.PresenceRecord
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*models.PresenceRecord)}
}

func (s *MemoryStore) get(userID string) *models.PresenceRecord {
	if rec, ok := s.records[userID]; ok {
		return rec
	}
	rec := offlineRecord(userID)
	s.records[userID] = rec
	return rec
}

func (s *MemoryStore) SetOnline(_ context.Context, userID string, online bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.get(userID)
	rec.IsOnline = online
	if !online {
		rec.TypingIn = ""
	}
	rec.LastActive = now().UTC()
	return nil
}

func (s *MemoryStore) SetTyping(_ context.Context, userID, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.get(userID)
	rec.TypingIn = conversationID
	rec.LastActive = now().UTC()
	return nil
}

func (s *MemoryStore) Touch(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(userID).LastActive = now().UTC()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, userID string) (*models.PresenceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[userID]; ok {
		cp := *rec
		return &cp, nil
	}
	return offlineRecord(userID), nil
}

func (s *MemoryStore) GetBatch(ctx context.Context, userIDs []string) (map[string]*models.PresenceRecord, error) {
	out := make(map[string]*models.PresenceRecord, len(userIDs))
	for _, id := range userIDs {
		rec, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = rec
	}
	return out, nil
}
