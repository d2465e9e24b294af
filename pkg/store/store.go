// Package store provides the content-addressed persistence layer: a log of
// immutable blobs behind opaque write-time ids.
//
// The [ContentStore] interface is deliberately small (upload, fetch, stats)
// because the backing store is a log, not a database: no listing by content,
// no deletion, no overwrite. Uploading the same payload twice yields two
// distinct ids; the log records history, it does not deduplicate.
//
// Three implementations cover the deployment shapes notelog runs in:
// [MemoryStore] for tests and throwaway sessions, [FileStore] for durable
// local state (an append-only CBOR log), and [GatewayStore] for a remote
// HTTP gateway. A SurrealDB-backed implementation lives in the surreal
// subpackage.
package store

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	"github.com/notelog/notelog/pkg/identity"
	"github.com/notelog/notelog/pkg/models"
)

// ErrNotFound reports a fetch for an id the store has no record of. It is
// recoverable: callers fall back to a default value and log a warning, not
// an error.
var ErrNotFound = errors.New("content not found")

// TransientError wraps an underlying transport failure on upload or fetch.
// The sync coordinator treats it as retryable: pending edits are kept and
// the next debounce cycle tries again.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient %s failure: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// Stats summarizes the records a store retains locally.
type Stats struct {
	Count       int   `json:"count"`
	ApproxBytes int64 `json:"approxByteSize"`
}

// ContentStore is the capability interface over "log of blobs with opaque
// keys". Upload marshals the payload to JSON, mints a fresh id and retains
// the record; the optional identity is attached where the transport supports
// it and ignored where it does not. Fetch returns the exact payload stored
// under id, or ErrNotFound; it never mutates state. Same id, same payload,
// always.
type ContentStore interface {
	Upload(ctx context.Context, payload any, ident identity.Identity) (models.ContentRecord, error)
	Fetch(ctx context.Context, id models.ContentID) (json.RawMessage, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewContentID mints a write-time content id. ULIDs sort in issue order,
// which keeps the on-disk log and any listing of ids chronological for free.
func NewContentID(t time.Time) models.ContentID {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return models.ContentID(ulid.MustNew(ulid.Timestamp(t), entropy).String())
}

func marshalPayload(payload any) (json.RawMessage, error) {
	if raw, ok := payload.(json.RawMessage); ok {
		return raw, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "marshal payload")
	}
	return b, nil
}
