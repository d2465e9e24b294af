package store

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/notelog/notelog/pkg/identity"
	"github.com/notelog/notelog/pkg/models"
)

// FileStore is an append-only content log on disk. Records are written as a
// stream of CBOR-encoded [models.ContentRecord] values; on open the whole
// log is replayed into an in-memory index. A truncated or corrupt tail,
// typically a crash mid-append, is tolerated: replay stops at the first
// undecodable record and the log keeps appending after the last good one.
type FileStore struct {
	mu      sync.RWMutex
	f       *os.File
	records map[models.ContentID]models.ContentRecord
	log     zerolog.Logger
}

var _ ContentStore = (*FileStore)(nil)

// OpenFileStore opens (or creates) the log at path and replays it.
func OpenFileStore(path string, log zerolog.Logger) (*FileStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open content log")
	}

	s := &FileStore{
		f:       f,
		records: make(map[models.ContentID]models.ContentRecord),
		log:     log,
	}

	dec := cbor.NewDecoder(f)
	var offset int64
	for {
		var rec models.ContentRecord
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				break
			}
			// Corrupt tail. Keep everything replayed so far and
			// append after the last good record.
			s.log.Warn().Err(err).Str("path", path).Msg("content log has corrupt tail, truncating")
			break
		}
		s.records[rec.ID] = rec
		offset = int64(dec.NumBytesRead())
	}
	if err := f.Truncate(offset); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "truncate content log")
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "seek content log")
	}
	return s, nil
}

// Upload appends the record to the log and the in-memory index. The identity
// is not used: the local log has no transport to sign for.
func (s *FileStore) Upload(ctx context.Context, payload any, ident identity.Identity) (models.ContentRecord, error) {
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

	buf, err := cbor.Marshal(rec)
	if err != nil {
		return models.ContentRecord{}, errors.Wrap(err, "encode content record")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.f.Write(buf); err != nil {
		return models.ContentRecord{}, &TransientError{Op: "upload", Err: err}
	}
	if err := s.f.Sync(); err != nil {
		return models.ContentRecord{}, &TransientError{Op: "upload", Err: err}
	}
	s.records[rec.ID] = rec
	return rec, nil
}

func (s *FileStore) Fetch(ctx context.Context, id models.ContentID) (json.RawMessage, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return append(json.RawMessage(nil), rec.Payload...), nil
}

func (s *FileStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{Count: len(s.records)}
	for _, rec := range s.records {
		st.ApproxBytes += int64(len(rec.Payload))
	}
	return st, nil
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}
