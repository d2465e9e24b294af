package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/notelog/notelog/pkg/identity"
	"github.com/notelog/notelog/pkg/models"
)

// MemoryStore keeps the content log in process memory. It backs tests and
// throwaway editing sessions; nothing survives a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[models.ContentID]models.ContentRecord
}

var _ ContentStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[models.ContentID]models.ContentRecord)}
}

// Upload retains the payload under a fresh id. The identity is accepted for
// interface symmetry but not used: there is no transport to attach it to.
func (s *MemoryStore) Upload(ctx context.Context, payload any, ident identity.Identity) (models.ContentRecord, error) {
	raw, err := marshalPayload(payload)
	if err != nil {
		return models.ContentRecord{}, err
	}
	now := time.Now().UTC()
	rec := models.ContentRecord{
		ID:        NewContentID(now),
		Payload:   append(json.RawMessage(nil), raw...),
		CreatedAt: now,
	}
	s.mu.Lock()
	s.records[rec.ID] = rec
	s.mu.Unlock()
	return rec, nil
}

func (s *MemoryStore) Fetch(ctx context.Context, id models.ContentID) (json.RawMessage, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return append(json.RawMessage(nil), rec.Payload...), nil
}

func (s *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{Count: len(s.records)}
	for _, rec := range s.records {
		st.ApproxBytes += int64(len(rec.Payload))
	}
	return st, nil
}

func (s *MemoryStore) Close() error { return nil }
