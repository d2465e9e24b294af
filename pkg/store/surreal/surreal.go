// Package surreal backs the content store with SurrealDB. Records land in
// the "content" table keyed by their ULID, so the table doubles as the
// append-only log: nothing here updates or deletes a record once written.
//
// This backend suits a shared notelog instance where the content log should
// outlive the host machine. Integration tests are gated on a reachable
// server (NOTELOG_SURREALDB_URL).
package surreal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	surrealdb "github.com/surrealdb/surrealdb.go"

	"github.com/notelog/notelog/pkg/identity"
	"github.com/notelog/notelog/pkg/models"
	"github.com/notelog/notelog/pkg/store"
)

type Config struct {
	URL       string // e.g. ws://localhost:8000/rpc
	Namespace string
	Database  string
	Username  string
	Password  string
}

// Store implements store.ContentStore over a SurrealDB connection.
type Store struct {
	db *surrealdb.DB
}

var _ store.ContentStore = (*Store)(nil)

// Open connects, signs in when credentials are configured, and selects the
// namespace/database.
func Open(cfg Config) (*Store, error) {
	db, err := surrealdb.New(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "connect to surrealdb")
	}
	if cfg.Username != "" {
		if _, err := db.Signin(map[string]any{
			"user": cfg.Username,
			"pass": cfg.Password,
		}); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "surrealdb signin")
		}
	}
	if _, err := db.Use(cfg.Namespace, cfg.Database); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "surrealdb use")
	}
	return &Store{db: db}, nil
}

// Upload creates one immutable record. The identity is accepted for
// interface symmetry; authentication happens at connection time here.
func (s *Store) Upload(ctx context.Context, payload any, ident identity.Identity) (models.ContentRecord, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return models.ContentRecord{}, errors.Wrap(err, "marshal payload")
	}
	now := time.Now().UTC()
	rec := models.ContentRecord{
		ID:        store.NewContentID(now),
		Payload:   raw,
		CreatedAt: now,
	}

	if _, err := s.db.Create(fmt.Sprintf("content:%s", rec.ID), map[string]any{
		"payload":   string(rec.Payload),
		"createdAt": rec.CreatedAt.Format(time.RFC3339Nano),
	}); err != nil {
		return models.ContentRecord{}, &store.TransientError{Op: "upload", Err: err}
	}
	return rec, nil
}

func (s *Store) Fetch(ctx context.Context, id models.ContentID) (json.RawMessage, error) {
	res, err := s.db.Select(fmt.Sprintf("content:%s", id))
	if err != nil {
		// The client reports a missing record as a permission error on
		// the record id; anything else is transport trouble.
		var pe surrealdb.PermissionError
		if errors.As(err, &pe) {
			return nil, store.ErrNotFound
		}
		return nil, &store.TransientError{Op: "fetch", Err: err}
	}
	row, ok := res.(map[string]any)
	if !ok {
		return nil, &store.TransientError{Op: "fetch", Err: errors.Errorf("unexpected result shape %T", res)}
	}
	payload, ok := row["payload"].(string)
	if !ok {
		return nil, &store.TransientError{Op: "fetch", Err: errors.New("record has no payload")}
	}
	return json.RawMessage(payload), nil
}

func (s *Store) Stats(ctx context.Context) (store.Stats, error) {
	res, err := s.db.Select("content")
	if err != nil {
		return store.Stats{}, &store.TransientError{Op: "stats", Err: err}
	}
	rows, ok := res.([]any)
	if !ok {
		if res == nil {
			return store.Stats{}, nil
		}
		return store.Stats{}, &store.TransientError{Op: "stats", Err: errors.Errorf("unexpected result shape %T", res)}
	}
	st := store.Stats{Count: len(rows)}
	for _, r := range rows {
		if row, ok := r.(map[string]any); ok {
			if payload, ok := row["payload"].(string); ok {
				st.ApproxBytes += int64(len(payload))
			}
		}
	}
	return st, nil
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}
