package store

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/notelog/notelog/pkg/identity"
	"github.com/notelog/notelog/pkg/models"
)

// GatewayStore talks to a remote content gateway over HTTP. Blobs are
// fetched by URL: gateway base plus the opaque id. An HTTP 404 is a real
// not-found; every other non-success response is a transient transport
// failure eligible for retry. The two must not be conflated, because one
// sends the caller to a default document and the other keeps edits pending.
//
// Stats are computed over the records this client has retained locally
// (uploads it performed this process lifetime); the gateway itself is not
// required to support listing.
type GatewayStore struct {
	base   string
	client *http.Client
	log    zerolog.Logger

	mu    sync.Mutex
	stats Stats
}

var _ ContentStore = (*GatewayStore)(nil)

// NewGatewayStore creates a client for the gateway at base, e.g.
// "https://gateway.example.com/content". A nil httpClient uses a client
// with a 30s timeout.
func NewGatewayStore(base string, httpClient *http.Client, log zerolog.Logger) *GatewayStore {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &GatewayStore{
		base:   strings.TrimRight(base, "/"),
		client: httpClient,
		log:    log,
	}
}

type uploadResponse struct {
	ID models.ContentID `json:"id"`
}

// Upload POSTs the payload to the gateway and returns the record under the
// id the gateway minted. When a connected identity is supplied, a signed
// upload token is attached; if signing fails the upload degrades to
// anonymous with a warning rather than failing.
func (s *GatewayStore) Upload(ctx context.Context, payload any, ident identity.Identity) (models.ContentRecord, error) {
	raw, err := marshalPayload(payload)
	if err != nil {
		return models.ContentRecord{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.base+"/upload", bytes.NewReader(raw))
	if err != nil {
		return models.ContentRecord{}, errors.Wrap(err, "build upload request")
	}
	req.Header.Set("Content-Type", "application/json")

	if ident.Connected() {
		token, err := ident.UploadToken(raw)
		if err != nil {
			s.log.Warn().Err(err).Str("key_id", ident.KeyID).Msg("upload token signing failed, uploading anonymously")
		} else {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return models.ContentRecord{}, &TransientError{Op: "upload", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.ContentRecord{}, &TransientError{Op: "upload", Err: errors.Errorf("gateway returned %s", resp.Status)}
	}

	var ur uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return models.ContentRecord{}, &TransientError{Op: "upload", Err: errors.Wrap(err, "decode upload response")}
	}
	if ur.ID.IsZero() {
		return models.ContentRecord{}, &TransientError{Op: "upload", Err: errors.New("gateway returned no id")}
	}

	rec := models.ContentRecord{
		ID:        ur.ID,
		Payload:   append(json.RawMessage(nil), raw...),
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.stats.Count++
	s.stats.ApproxBytes += int64(len(raw))
	s.mu.Unlock()

	return rec, nil
}

// Fetch GETs base/id. 404 maps to ErrNotFound; any other failure is
// transient.
func (s *GatewayStore) Fetch(ctx context.Context, id models.ContentID) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+"/"+id.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build fetch request")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &TransientError{Op: "fetch", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &TransientError{Op: "fetch", Err: errors.Errorf("gateway returned %s", resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientError{Op: "fetch", Err: err}
	}
	return body, nil
}

func (s *GatewayStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats, nil
}

func (s *GatewayStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
