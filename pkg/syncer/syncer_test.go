package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notelog/notelog/pkg/identity"
	"github.com/notelog/notelog/pkg/models"
	"github.com/notelog/notelog/pkg/pointer"
	"github.com/notelog/notelog/pkg/store"
)

type doc struct {
	Text string `json:"text"`
}

// fakeStore counts uploads and lets tests inject failures or block an upload
// mid-flight.
type fakeStore struct {
	mu          sync.Mutex
	uploads     []json.RawMessage
	blobs       map[models.ContentID]json.RawMessage
	failUploads bool
	failFetch   bool

	gate    chan struct{} // non-nil: Upload blocks until the gate is closed
	entered chan struct{} // signaled once per Upload entry
}

func newFakeStore() *fakeStore {
	return &fakeStore{blobs: make(map[models.ContentID]json.RawMessage)}
}

func (f *fakeStore) Upload(ctx context.Context, payload any, ident identity.Identity) (models.ContentRecord, error) {
	f.mu.Lock()
	entered, gate := f.entered, f.gate
	f.mu.Unlock()
	if entered != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		<-gate
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return models.ContentRecord{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUploads {
		return models.ContentRecord{}, &store.TransientError{Op: "upload", Err: errors.New("gateway down")}
	}
	f.uploads = append(f.uploads, raw)
	id := models.ContentID(fmt.Sprintf("rec-%04d", len(f.uploads)))
	f.blobs[id] = raw
	return models.ContentRecord{ID: id, Payload: raw, CreatedAt: time.Now().UTC()}, nil
}

func (f *fakeStore) Fetch(ctx context.Context, id models.ContentID) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFetch {
		return nil, &store.TransientError{Op: "fetch", Err: errors.New("gateway down")}
	}
	raw, ok := f.blobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return raw, nil
}

func (f *fakeStore) Stats(ctx context.Context) (store.Stats, error) { return store.Stats{}, nil }
func (f *fakeStore) Close() error                                   { return nil }

func (f *fakeStore) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

func (f *fakeStore) lastUpload(t *testing.T) doc {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.uploads)
	var d doc
	require.NoError(t, json.Unmarshal(f.uploads[len(f.uploads)-1], &d))
	return d
}

func newCoordinator(fs *fakeStore, debounce time.Duration) (*Coordinator[doc], *pointer.Service) {
	ptrs := pointer.NewService(nil, zerolog.Nop())
	c := New(Config{
		Resource: models.ResourcePages,
		Store:    fs,
		Pointers: ptrs,
		Debounce: debounce,
		Logger:   zerolog.Nop(),
	}, doc{Text: "seed"})
	return c, ptrs
}

func TestEditBurstSavesOnce(t *testing.T) {
	fs := newFakeStore()
	c, ptrs := newCoordinator(fs, 50*time.Millisecond)
	defer c.Close()

	for i := 1; i <= 5; i++ {
		text := fmt.Sprintf("edit %d", i)
		c.Apply(func(d doc) doc {
			d.Text = text
			return d
		})
		time.Sleep(5 * time.Millisecond)
	}
	status, _ := c.Status()
	assert.Equal(t, StatusDirty, status)

	require.Eventually(t, func() bool {
		s, _ := c.Status()
		return s == StatusSaved
	}, 2*time.Second, 10*time.Millisecond)

	// The burst coalesced into a single upload of the final state.
	assert.Equal(t, 1, fs.uploadCount())
	assert.Equal(t, "edit 5", fs.lastUpload(t).Text)

	id, ok := ptrs.Resolve(models.ResourcePages)
	require.True(t, ok)
	assert.Equal(t, models.ContentID("rec-0001"), id)

	_, lastSaved := c.Status()
	assert.False(t, lastSaved.IsZero())
}

func TestSaveNow(t *testing.T) {
	fs := newFakeStore()
	c, _ := newCoordinator(fs, time.Hour)
	defer c.Close()

	// Clean document: nothing to do, nothing uploaded.
	require.NoError(t, c.SaveNow(context.Background()))
	assert.Equal(t, 0, fs.uploadCount())

	c.Apply(func(d doc) doc {
		d.Text = "changed"
		return d
	})
	require.NoError(t, c.SaveNow(context.Background()))
	assert.Equal(t, 1, fs.uploadCount())
	assert.Equal(t, "changed", fs.lastUpload(t).Text)

	status, _ := c.Status()
	assert.Equal(t, StatusSaved, status)
}

func TestSaveFailureKeepsEditsAndRetriesLatest(t *testing.T) {
	fs := newFakeStore()
	fs.failUploads = true
	c, ptrs := newCoordinator(fs, time.Hour)
	defer c.Close()

	c.Apply(func(d doc) doc {
		d.Text = "first"
		return d
	})
	err := c.SaveNow(context.Background())
	require.Error(t, err)
	assert.True(t, store.IsTransient(err))

	status, _ := c.Status()
	assert.Equal(t, StatusSaveFailed, status)
	assert.Equal(t, "first", c.Document().Text, "failed save loses nothing")
	_, ok := ptrs.Resolve(models.ResourcePages)
	assert.False(t, ok, "no pointer published for a failed upload")

	// More edits land on top of the unsaved state; the retry persists the
	// latest snapshot, not the one that failed.
	c.Apply(func(d doc) doc {
		d.Text = "second"
		return d
	})
	fs.mu.Lock()
	fs.failUploads = false
	fs.mu.Unlock()

	require.NoError(t, c.SaveNow(context.Background()))
	assert.Equal(t, 1, fs.uploadCount())
	assert.Equal(t, "second", fs.lastUpload(t).Text)

	id, ok := ptrs.Resolve(models.ResourcePages)
	require.True(t, ok)
	assert.Equal(t, models.ContentID("rec-0001"), id)
}

func TestSaveNowWhileSavingRejected(t *testing.T) {
	fs := newFakeStore()
	fs.gate = make(chan struct{})
	fs.entered = make(chan struct{}, 1)
	c, _ := newCoordinator(fs, time.Hour)
	defer c.Close()

	c.Apply(func(d doc) doc {
		d.Text = "slow"
		return d
	})

	done := make(chan error, 1)
	go func() {
		done <- c.SaveNow(context.Background())
	}()
	<-fs.entered

	status, _ := c.Status()
	assert.Equal(t, StatusSaving, status)
	assert.ErrorIs(t, c.SaveNow(context.Background()), ErrSaveInFlight)

	close(fs.gate)
	require.NoError(t, <-done)
	assert.Equal(t, 1, fs.uploadCount())
}

func TestEditDuringSaveEndsDirty(t *testing.T) {
	fs := newFakeStore()
	fs.gate = make(chan struct{})
	fs.entered = make(chan struct{}, 1)
	c, _ := newCoordinator(fs, time.Hour)
	defer c.Close()

	c.Apply(func(d doc) doc {
		d.Text = "in flight"
		return d
	})
	done := make(chan error, 1)
	go func() {
		done <- c.SaveNow(context.Background())
	}()
	<-fs.entered

	// An edit while the upload is running must not be lost.
	c.Apply(func(d doc) doc {
		d.Text = "landed mid-save"
		return d
	})

	close(fs.gate)
	require.NoError(t, <-done)

	status, _ := c.Status()
	assert.Equal(t, StatusDirty, status)

	fs.mu.Lock()
	fs.gate = nil
	fs.mu.Unlock()
	require.NoError(t, c.SaveNow(context.Background()))
	assert.Equal(t, 2, fs.uploadCount())
	assert.Equal(t, "landed mid-save", fs.lastUpload(t).Text)
}

func TestEditDuringSlowSaveAutoSaves(t *testing.T) {
	fs := newFakeStore()
	fs.gate = make(chan struct{})
	fs.entered = make(chan struct{}, 1)
	c, ptrs := newCoordinator(fs, 50*time.Millisecond)
	defer c.Close()

	c.Apply(func(d doc) doc {
		d.Text = "first"
		return d
	})
	// Debounce fires, the upload is held open.
	<-fs.entered

	// This edit's debounce timer expires while the save is still in
	// flight; the upload outlasting the quiet period must not strand it.
	c.Apply(func(d doc) doc {
		d.Text = "stranded no more"
		return d
	})
	time.Sleep(120 * time.Millisecond)
	close(fs.gate)

	require.Eventually(t, func() bool {
		s, _ := c.Status()
		return s == StatusSaved && fs.uploadCount() == 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, "stranded no more", fs.lastUpload(t).Text)
	id, ok := ptrs.Resolve(models.ResourcePages)
	require.True(t, ok)
	assert.Equal(t, models.ContentID("rec-0002"), id)
}

func TestHydrate(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	c, ptrs := newCoordinator(fs, time.Hour)
	defer c.Close()

	// Unset pointer: the default document stands.
	require.NoError(t, c.Hydrate(ctx, doc{Text: "default"}))
	assert.Equal(t, "default", c.Document().Text)
	status, _ := c.Status()
	assert.Equal(t, StatusSaved, status)

	// Published pointer: the stored document wins.
	raw, _ := json.Marshal(doc{Text: "stored"})
	fs.blobs["rec-live"] = raw
	_, err := ptrs.Publish(models.ResourcePages, "rec-live")
	require.NoError(t, err)
	require.NoError(t, c.Hydrate(ctx, doc{Text: "default"}))
	assert.Equal(t, "stored", c.Document().Text)
}

func TestHydrateMissingBlobFallsBack(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	c, ptrs := newCoordinator(fs, time.Hour)
	defer c.Close()

	_, err := ptrs.Publish(models.ResourcePages, "rec-gone")
	require.NoError(t, err)

	require.NoError(t, c.Hydrate(ctx, doc{Text: "default"}))
	assert.Equal(t, "default", c.Document().Text)
}

func TestHydrateTransportErrorSurfaces(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	fs.failFetch = true
	c, ptrs := newCoordinator(fs, time.Hour)
	defer c.Close()

	_, err := ptrs.Publish(models.ResourcePages, "rec-live")
	require.NoError(t, err)

	err = c.Hydrate(ctx, doc{Text: "default"})
	require.Error(t, err)
	assert.True(t, store.IsTransient(err))
}

func TestHydrateUnparsableBlobFallsBack(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	c, ptrs := newCoordinator(fs, time.Hour)
	defer c.Close()

	fs.blobs["rec-bad"] = json.RawMessage(`"not an object"`)
	_, err := ptrs.Publish(models.ResourcePages, "rec-bad")
	require.NoError(t, err)

	require.NoError(t, c.Hydrate(ctx, doc{Text: "default"}))
	assert.Equal(t, "default", c.Document().Text)
}

func TestSubscribe(t *testing.T) {
	fs := newFakeStore()
	c, _ := newCoordinator(fs, time.Hour)
	defer c.Close()

	ch, cancel := c.Subscribe()
	defer cancel()

	c.Apply(func(d doc) doc {
		d.Text = "edited"
		return d
	})
	require.NoError(t, c.SaveNow(context.Background()))

	var seen []Status
	for len(seen) < 3 {
		select {
		case ev := <-ch:
			assert.Equal(t, models.ResourcePages, ev.Resource)
			seen = append(seen, ev.Status)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for events, saw %v", seen)
		}
	}
	assert.Equal(t, []Status{StatusDirty, StatusSaving, StatusSaved}, seen)
}
