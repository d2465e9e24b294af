// Package pointer implements the mutable "latest version" references that
// sit next to the immutable content log. A pointer maps a resource name
// ("workspace", "pages") to the most recently published content id.
//
// Pointers are last-writer-wins: publish overwrites unconditionally, there
// is no optimistic-concurrency check and no unpublish. Losing a pointer
// orphans the content it referenced but destroys nothing: the blobs stay
// in the log.
package pointer

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/notelog/notelog/pkg/models"
)

// ErrMissingID rejects a publish with an empty content id. It is a
// validation error: surfaced to the caller immediately, never retried.
var ErrMissingID = errors.New("pointer id is required")

// State is the durable backing for the pointer set. Implementations load
// the set once at startup and persist it after every publish.
type State interface {
	Load() (map[string]models.ContentID, error)
	Save(map[string]models.ContentID) error
}

// Service resolves and publishes pointers, persisting each publish so the
// head references survive a process restart.
type Service struct {
	mu       sync.RWMutex
	pointers map[string]models.PointerRecord
	state    State
	log      zerolog.Logger
}

// NewService builds a service over the given durable state. A load failure
// is downgraded to an empty pointer set with a warning: a corrupt state file
// means "start from defaults", not "refuse to start".
func NewService(state State, log zerolog.Logger) *Service {
	s := &Service{
		pointers: make(map[string]models.PointerRecord),
		state:    state,
		log:      log,
	}
	if state == nil {
		return s
	}
	loaded, err := state.Load()
	if err != nil {
		log.Warn().Err(err).Msg("pointer state unreadable, starting with empty pointer set")
		return s
	}
	for name, id := range loaded {
		if id.IsZero() {
			continue
		}
		s.pointers[name] = models.PointerRecord{ResourceName: name, CurrentID: id}
	}
	return s
}

// Publish overwrites the pointer for resourceName with id and persists the
// new pointer set. Rejects an empty id with ErrMissingID.
func (s *Service) Publish(resourceName string, id models.ContentID) (models.PointerRecord, error) {
	if id.IsZero() {
		return models.PointerRecord{}, ErrMissingID
	}

	rec := models.PointerRecord{
		ResourceName: resourceName,
		CurrentID:    id,
		UpdatedAt:    time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev, hadPrev := s.pointers[resourceName]
	s.pointers[resourceName] = rec

	if s.state != nil {
		if err := s.state.Save(s.snapshotLocked()); err != nil {
			// Roll back so memory and disk do not drift apart; the
			// caller retries the whole publish.
			if hadPrev {
				s.pointers[resourceName] = prev
			} else {
				delete(s.pointers, resourceName)
			}
			return models.PointerRecord{}, errors.Wrap(err, "persist pointer state")
		}
	}

	s.log.Debug().Str("resource", resourceName).Str("id", id.String()).Msg("pointer published")
	return rec, nil
}

// Resolve returns the last published id for resourceName. The second return
// is false if the resource was never published.
func (s *Service) Resolve(resourceName string) (models.ContentID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.pointers[resourceName]
	if !ok {
		return "", false
	}
	return rec.CurrentID, true
}

// Record returns the full pointer record for resourceName.
func (s *Service) Record(resourceName string) (models.PointerRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.pointers[resourceName]
	return rec, ok
}

func (s *Service) snapshotLocked() map[string]models.ContentID {
	out := make(map[string]models.ContentID, len(s.pointers))
	for name, rec := range s.pointers {
		out[name] = rec.CurrentID
	}
	return out
}
