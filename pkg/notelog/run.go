package notelog

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/notelog/notelog/pkg/models"
)

// Router builds the HTTP surface. Split out of Run so tests can drive the
// handlers through httptest without binding a port.
func (a *App) Router() *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", a.handleHealth).Methods("GET")

	// Pointer surface: publish overwrites the head reference, resolve
	// returns the referenced blob.
	api.HandleFunc("/pointers/workspace", a.publishPointer(models.ResourceWorkspace)).Methods("POST")
	api.HandleFunc("/pointers/workspace", a.resolvePointer(models.ResourceWorkspace)).Methods("GET")
	api.HandleFunc("/pointers/pages", a.publishPointer(models.ResourcePages)).Methods("POST")
	api.HandleFunc("/pointers/pages", a.resolvePointer(models.ResourcePages)).Methods("GET")

	api.HandleFunc("/storage/stats", a.handleStorageStats).Methods("GET")
	api.HandleFunc("/storage/log", a.handleStorageLog).Methods("GET")

	api.HandleFunc("/content", a.handleUploadContent).Methods("POST")
	api.HandleFunc("/content/{id}", a.handleFetchContent).Methods("GET")

	api.HandleFunc("/workspace", a.handleGetWorkspace).Methods("GET")

	api.HandleFunc("/pages", a.handleListPages).Methods("GET")
	api.HandleFunc("/pages", a.handleCreatePage).Methods("POST")
	api.HandleFunc("/pages/{id}", a.handleGetPage).Methods("GET")
	api.HandleFunc("/pages/{id}", a.handleRenamePage).Methods("PUT")

	api.HandleFunc("/pages/{pageId}/blocks", a.handleInsertBlock).Methods("POST")
	api.HandleFunc("/pages/{pageId}/blocks/{blockId}", a.handleUpdateBlock).Methods("PUT")
	api.HandleFunc("/pages/{pageId}/blocks/{blockId}", a.handleDeleteBlock).Methods("DELETE")
	api.HandleFunc("/pages/{pageId}/blocks/{blockId}/slash", a.handleSlashSelect).Methods("POST")

	api.HandleFunc("/catalog", a.handleCatalog).Methods("GET")

	api.HandleFunc("/save", a.handleSaveNow).Methods("POST")
	api.HandleFunc("/status", a.handleStatus).Methods("GET")

	router.HandleFunc("/ws/status", a.handleStatusWS)
	router.HandleFunc("/health", a.handleHealth).Methods("GET")
	return router
}

// Hydrate loads both documents from the store. An unset pointer or missing
// blob keeps the seeded defaults (warned inside the coordinator); a
// transport failure is logged and the defaults stand: editing starts
// regardless, only persistence can be behind.
func (a *App) Hydrate(ctx context.Context) {
	if err := a.pages.Hydrate(ctx, a.pages.Document()); err != nil {
		a.log.Error().Err(err).Msg("pages hydration failed, starting from default document")
	}
	if err := a.workspace.Hydrate(ctx, a.workspace.Document()); err != nil {
		a.log.Error().Err(err).Msg("workspace hydration failed, starting from default document")
	}
}

// Run hydrates the documents and serves the HTTP API until the context is
// cancelled. On shutdown it forces a final save so a clean exit never loses
// the tail of an editing session.
func (a *App) Run(ctx context.Context, cmd *RunCommand) error {
	a.Hydrate(ctx)

	addr := fmt.Sprintf(":%s", a.config.ServerPort)
	server := &http.Server{
		Addr:    addr,
		Handler: a.Router(),
	}

	a.log.Info().Str("addr", addr).Msg("starting notelog server")

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.SaveNow(shutdownCtx); err != nil {
			a.log.Error().Err(err).Msg("final save failed")
		}
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}
