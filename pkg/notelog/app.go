package notelog

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/notelog/notelog/pkg/identity"
	"github.com/notelog/notelog/pkg/models"
	"github.com/notelog/notelog/pkg/pointer"
	"github.com/notelog/notelog/pkg/store"
	"github.com/notelog/notelog/pkg/store/surreal"
	"github.com/notelog/notelog/pkg/syncer"
)

// Config holds application configuration. Exactly one content store backend
// is selected: a remote gateway when GatewayURL is set, SurrealDB when
// SurrealURL is set, otherwise the local CBOR log under DataDir.
type Config struct {
	ServerPort string
	DataDir    string

	GatewayURL string

	SurrealURL  string
	SurrealNS   string
	SurrealDB   string
	SurrealUser string
	SurrealPass string

	// Debounce is the auto-save quiet period. Zero means the default.
	Debounce time.Duration

	// Optional upload signing identity. Empty key id means anonymous
	// uploads.
	IdentityKeyID  string
	IdentitySecret string

	Logger zerolog.Logger
}

// App wires the content store, pointer service, and the two sync
// coordinators (one per persisted resource) behind the HTTP surface. The
// coordinators are the single writers for their documents; handlers funnel
// every mutation through them.
type App struct {
	config   *Config
	log      zerolog.Logger
	store    store.ContentStore
	pointers *pointer.Service
	ident    identity.Identity

	pages     *syncer.Coordinator[models.PageSet]
	workspace *syncer.Coordinator[models.Workspace]
}

// New creates the application: opens the selected store backend, loads the
// persisted pointer set, and seeds the coordinators with default documents.
// Hydration from the store happens in Run, once a context is available.
func New(config *Config) (*App, error) {
	log := config.Logger

	if config.DataDir != "" {
		if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create data dir")
		}
	}

	var contentStore store.ContentStore
	var err error
	switch {
	case config.GatewayURL != "":
		contentStore = store.NewGatewayStore(config.GatewayURL, nil, log)
		log.Info().Str("gateway", config.GatewayURL).Msg("using content gateway")
	case config.SurrealURL != "":
		contentStore, err = surreal.Open(surreal.Config{
			URL:       config.SurrealURL,
			Namespace: config.SurrealNS,
			Database:  config.SurrealDB,
			Username:  config.SurrealUser,
			Password:  config.SurrealPass,
		})
		if err != nil {
			return nil, errors.Wrap(err, "connect to surrealdb")
		}
		log.Info().Str("url", config.SurrealURL).Msg("using surrealdb content store")
	default:
		contentStore, err = store.OpenFileStore(filepath.Join(config.DataDir, "content.log"), log)
		if err != nil {
			return nil, err
		}
		log.Info().Str("dir", config.DataDir).Msg("using local content log")
	}

	pointers := pointer.NewService(&pointer.FileState{
		Path: filepath.Join(config.DataDir, "pointers.json"),
	}, log)

	var ident identity.Identity
	if config.IdentityKeyID != "" {
		ident = identity.Connect(config.IdentityKeyID, []byte(config.IdentitySecret))
		log.Info().Str("key_id", config.IdentityKeyID).Msg("upload identity connected")
	}

	app := &App{
		config:   config,
		log:      log,
		store:    contentStore,
		pointers: pointers,
		ident:    ident,
	}

	app.pages = syncer.New(syncer.Config{
		Resource: models.ResourcePages,
		Store:    contentStore,
		Pointers: pointers,
		Identity: ident,
		Debounce: config.Debounce,
		Logger:   log,
	}, app.defaultPageSet())

	app.workspace = syncer.New(syncer.Config{
		Resource: models.ResourceWorkspace,
		Store:    contentStore,
		Pointers: pointers,
		Identity: ident,
		Debounce: config.Debounce,
		Logger:   log,
	}, app.defaultWorkspace())

	return app, nil
}

// defaultPageSet is the document a fresh install (or an orphaned pointer)
// starts from: one untitled page with a single empty text block.
func (a *App) defaultPageSet() models.PageSet {
	page := models.NewPage("Untitled", "📄")
	return models.PageSet{Pages: []models.Page{*page}}
}

func (a *App) defaultWorkspace() models.Workspace {
	ws := *models.NewWorkspace("My Workspace")
	for _, p := range a.pagesSnapshot().Pages {
		ws = ws.AddPage(p.Summary())
	}
	return ws
}

func (a *App) pagesSnapshot() models.PageSet {
	if a.pages == nil {
		return a.defaultPageSet()
	}
	return a.pages.Document()
}

// Close releases the store and stops both coordinators. Pending debounce
// timers are cancelled; callers wanting the last edits persisted should
// SaveNow first (Run does this on shutdown).
func (a *App) Close() error {
	if a.pages != nil {
		a.pages.Close()
	}
	if a.workspace != nil {
		a.workspace.Close()
	}
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

func (a *App) identity() identity.Identity { return a.ident }

// Store returns the underlying content store (useful for testing).
func (a *App) Store() store.ContentStore { return a.store }

// Pointers returns the pointer service (useful for testing).
func (a *App) Pointers() *pointer.Service { return a.pointers }
