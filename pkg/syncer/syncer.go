// Package syncer orchestrates the path from in-memory edits to the
// content-addressed store: mark dirty on every mutation, coalesce bursts
// behind a debounce timer, upload exactly one snapshot per quiet period,
// then publish the new content id as the resource's pointer.
//
// One Coordinator owns one resource ("pages", "workspace") and is the single
// source of truth for its save status. Edits are always accepted
// immediately; only the persistence path can be behind. Saves for a resource
// are strictly sequential (at most one in flight), so pointer updates are
// monotonic in issue order for this instance. Two independent instances
// racing the same resource name are not guarded against: last publish wins.
package syncer

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/notelog/notelog/pkg/identity"
	"github.com/notelog/notelog/pkg/pointer"
	"github.com/notelog/notelog/pkg/store"
)

// Status is the save-status state machine:
// Saved → Dirty → Saving → (Saved | SaveFailed); SaveFailed → Dirty on the
// next edit or manual retry.
type Status string

const (
	StatusSaved      Status = "saved"
	StatusDirty      Status = "dirty"
	StatusSaving     Status = "saving"
	StatusSaveFailed Status = "save_failed"
)

// ErrSaveInFlight rejects a manual save while another save is running.
// At most one upload per resource is issued at a time, so two ids never race
// the pointer.
var ErrSaveInFlight = errors.New("save already in flight")

// DefaultDebounce is the quiet period after the last edit before an
// auto-save fires.
const DefaultDebounce = 3 * time.Second

// Event is one save-status transition, delivered to subscribers.
type Event struct {
	Resource string    `json:"resource"`
	Status   Status    `json:"status"`
	At       time.Time `json:"at"`
	SavedAt  time.Time `json:"savedAt,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Config wires a Coordinator. Store and Pointers are required; the zero
// Identity means anonymous uploads; a zero Debounce means DefaultDebounce.
type Config struct {
	Resource string
	Store    store.ContentStore
	Pointers *pointer.Service
	Identity identity.Identity
	Debounce time.Duration
	Logger   zerolog.Logger
}

// Coordinator runs the state machine for one document of type T. T must be
// JSON-serializable; the document snapshot is what gets uploaded.
type Coordinator[T any] struct {
	cfg Config

	mu        sync.Mutex
	doc       T
	status    Status
	dirty     bool
	saving    bool
	lastSaved time.Time
	lastErr   error

	timer    *time.Timer
	timerGen int

	subs    map[int]chan Event
	nextSub int
	closed  bool
}

// New creates a coordinator seeded with doc, in the Saved state.
func New[T any](cfg Config, doc T) *Coordinator[T] {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	return &Coordinator[T]{
		cfg:    cfg,
		doc:    doc,
		status: StatusSaved,
		subs:   make(map[int]chan Event),
	}
}

// Document returns the current document snapshot.
func (c *Coordinator[T]) Document() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc
}

// Status returns the current save status and the time of the last
// successful save (zero if none yet).
func (c *Coordinator[T]) Status() (Status, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.lastSaved
}

// Apply runs mutate against the current document and installs the result,
// marking the coordinator dirty and (re)starting the debounce timer. A
// mutation landing before the timer fires restarts it, so a burst of edits
// persists exactly once, with the final state.
func (c *Coordinator[T]) Apply(mutate func(T) T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.doc = mutate(c.doc)
	c.dirty = true
	c.setStatusLocked(StatusDirty)
	c.scheduleLocked()
}

// scheduleLocked restarts the debounce timer. The generation counter makes
// cancellation race-free: a stale timer that already fired but has not yet
// taken the lock sees a newer generation and does nothing.
func (c *Coordinator[T]) scheduleLocked() {
	c.timerGen++
	gen := c.timerGen
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.cfg.Debounce, func() {
		c.onTimer(gen)
	})
}

func (c *Coordinator[T]) onTimer(gen int) {
	c.mu.Lock()
	if c.closed || gen != c.timerGen || c.saving || !c.dirty {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if err := c.save(context.Background()); err != nil {
		c.cfg.Logger.Error().Err(err).Str("resource", c.cfg.Resource).Msg("auto-save failed")
	}
}

// SaveNow fires a save immediately, canceling any pending debounce timer.
// Returns ErrSaveInFlight while another save is running, and nil without
// uploading when there is nothing dirty.
func (c *Coordinator[T]) SaveNow(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	if c.saving {
		c.mu.Unlock()
		return ErrSaveInFlight
	}
	// Cancel the pending timer; this save supersedes it.
	c.timerGen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if !c.dirty {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	return c.save(ctx)
}

// save uploads the current snapshot and publishes the resulting id. On any
// failure the document stays resident and dirty, so the next cycle retries
// the latest state, never a stale snapshot.
func (c *Coordinator[T]) save(ctx context.Context) error {
	c.mu.Lock()
	if c.saving || !c.dirty {
		c.mu.Unlock()
		return nil
	}
	c.saving = true
	c.dirty = false
	doc := c.doc
	c.setStatusLocked(StatusSaving)
	c.mu.Unlock()

	rec, err := c.cfg.Store.Upload(ctx, doc, c.cfg.Identity)
	if err == nil {
		_, err = c.cfg.Pointers.Publish(c.cfg.Resource, rec.ID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.saving = false
	if err != nil {
		c.dirty = true
		c.lastErr = err
		c.setStatusLocked(StatusSaveFailed)
		return err
	}
	c.lastErr = nil
	c.lastSaved = time.Now().UTC()
	if c.dirty {
		// Edits arrived while the upload was in flight. Their debounce
		// timer may already have fired and been dropped (onTimer refuses
		// to run concurrently with a save), so re-arm it here or the
		// mid-save edits never auto-save.
		c.setStatusLocked(StatusDirty)
		c.scheduleLocked()
	} else {
		c.setStatusLocked(StatusSaved)
	}
	c.cfg.Logger.Debug().Str("resource", c.cfg.Resource).Str("id", rec.ID.String()).Msg("saved")
	return nil
}

// Hydrate loads the document for this coordinator's resource: resolve the
// pointer, fetch the blob, install it. An unset pointer or a missing blob
// falls back to the supplied default (the store is not corrupt, just
// missing this head), with a warning in the missing-blob case. Transport
// failures are returned to the caller.
func (c *Coordinator[T]) Hydrate(ctx context.Context, fallback T) error {
	id, ok := c.cfg.Pointers.Resolve(c.cfg.Resource)
	if !ok {
		c.cfg.Logger.Info().Str("resource", c.cfg.Resource).Msg("no pointer yet, starting from default document")
		c.install(fallback)
		return nil
	}

	raw, err := c.cfg.Store.Fetch(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.cfg.Logger.Warn().Str("resource", c.cfg.Resource).Str("id", id.String()).
			Msg("pointer references missing content, starting from default document")
		c.install(fallback)
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "hydrate %s", c.cfg.Resource)
	}

	var doc T
	if err := json.Unmarshal(raw, &doc); err != nil {
		c.cfg.Logger.Warn().Err(err).Str("resource", c.cfg.Resource).Str("id", id.String()).
			Msg("stored document unparsable, starting from default document")
		c.install(fallback)
		return nil
	}
	c.install(doc)
	return nil
}

func (c *Coordinator[T]) install(doc T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.doc = doc
	c.dirty = false
	c.setStatusLocked(StatusSaved)
}

// Subscribe returns a channel of status events and a cancel func. Slow
// subscribers drop events rather than blocking the editing path.
func (c *Coordinator[T]) Subscribe() (<-chan Event, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan Event, 16)
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (c *Coordinator[T]) setStatusLocked(s Status) {
	c.status = s
	ev := Event{
		Resource: c.cfg.Resource,
		Status:   s,
		At:       time.Now().UTC(),
		SavedAt:  c.lastSaved,
	}
	if c.lastErr != nil {
		ev.Error = c.lastErr.Error()
	}
	for _, ch := range c.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close cancels any pending timer and closes subscriber channels. A save in
// flight finishes on its own; Close does not wait for it.
func (c *Coordinator[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.timerGen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}
