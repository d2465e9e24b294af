package notelog

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/notelog/notelog/pkg/blocks"
	"github.com/notelog/notelog/pkg/models"
	"github.com/notelog/notelog/pkg/pointer"
	"github.com/notelog/notelog/pkg/store"
	"github.com/notelog/notelog/pkg/syncer"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// Pointer handlers. Publish takes {"id": "..."} and answers
// {"success": true}; a missing id is a validation error, 400, no retry.
// Resolve answers with the blob the pointer references (the caller asked
// for "the current version", not for the id), or {} when the pointer was
// never published. A backing fetch failure is a 500.

type publishRequest struct {
	ID models.ContentID `json:"id"`
}

func (a *App) publishPointer(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req publishRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
		if _, err := a.pointers.Publish(resource, req.ID); err != nil {
			if errors.Is(err, pointer.ErrMissingID) {
				respondError(w, http.StatusBadRequest, "id is required")
				return
			}
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func (a *App) resolvePointer(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := a.pointers.Resolve(resource)
		if !ok {
			respondJSON(w, http.StatusOK, map[string]any{})
			return
		}
		raw, err := a.store.Fetch(r.Context(), id)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(raw)
	}
}

// handleStorageStats reports {items, size} derived from the published pages
// blob: how many pages it holds and how many bytes it occupies. An unset
// pointer yields zero stats; a failing fetch is a 500.
func (a *App) handleStorageStats(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pointers.Resolve(models.ResourcePages)
	if !ok {
		respondJSON(w, http.StatusOK, map[string]int{"items": 0, "size": 0})
		return
	}
	raw, err := a.store.Fetch(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var ps models.PageSet
	if err := json.Unmarshal(raw, &ps); err != nil {
		respondError(w, http.StatusInternalServerError, "pages blob unparsable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{
		"items": len(ps.Pages),
		"size":  len(raw),
	})
}

// handleStorageLog reports the content store's own record stats.
func (a *App) handleStorageLog(w http.ResponseWriter, r *http.Request) {
	st, err := a.store.Stats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, st)
}

// Content handlers expose the raw upload/fetch capability.

func (a *App) handleUploadContent(w http.ResponseWriter, r *http.Request) {
	var payload json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	rec, err := a.store.Upload(r.Context(), payload, a.identity())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"id": rec.ID, "createdAt": rec.CreatedAt})
}

func (a *App) handleFetchContent(w http.ResponseWriter, r *http.Request) {
	id := models.ContentID(mux.Vars(r)["id"])
	raw, err := a.store.Fetch(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "content not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// Page and block handlers drive the coordinators.

func (a *App) handleListPages(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, a.pages.Document())
}

func (a *App) handleGetPage(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParsePageID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid page ID")
		return
	}
	page, ok := a.pages.Document().Find(id)
	if !ok {
		respondError(w, http.StatusNotFound, "Page not found")
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (a *App) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
		Icon  string `json:"icon"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Title == "" {
		req.Title = "Untitled"
	}
	page := a.CreatePage(req.Title, req.Icon)
	respondJSON(w, http.StatusCreated, page)
}

func (a *App) handleRenamePage(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParsePageID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid page ID")
		return
	}
	var req struct {
		Title string `json:"title"`
		Icon  string `json:"icon"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := a.RenamePage(id, req.Title, req.Icon); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (a *App) handleInsertBlock(w http.ResponseWriter, r *http.Request) {
	pageID, err := models.ParsePageID(mux.Vars(r)["pageId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid page ID")
		return
	}
	var req struct {
		AfterID models.BlockID   `json:"afterId"`
		Type    models.BlockType `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	block, err := a.InsertBlock(pageID, req.AfterID, req.Type)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, block)
}

func (a *App) handleUpdateBlock(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	pageID, err := models.ParsePageID(vars["pageId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid page ID")
		return
	}
	blockID, err := models.ParseBlockID(vars["blockId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid block ID")
		return
	}
	var req struct {
		Type       *models.BlockType `json:"type"`
		Content    *string           `json:"content"`
		Properties models.Properties `json:"properties"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Type != nil && !models.ValidType(*req.Type) {
		respondError(w, http.StatusBadRequest, "Unknown block type")
		return
	}
	patch := blocks.Patch{Type: req.Type, Content: req.Content, Properties: req.Properties}
	if err := a.UpdateBlock(pageID, blockID, patch); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (a *App) handleDeleteBlock(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	pageID, err := models.ParsePageID(vars["pageId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid page ID")
		return
	}
	blockID, err := models.ParseBlockID(vars["blockId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid block ID")
		return
	}
	if err := a.DeleteBlock(pageID, blockID); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (a *App) handleSlashSelect(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	pageID, err := models.ParsePageID(vars["pageId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid page ID")
		return
	}
	blockID, err := models.ParseBlockID(vars["blockId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid block ID")
		return
	}
	var req struct {
		Key models.BlockType `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := a.ApplySlashSelection(pageID, blockID, req.Key); err != nil {
		if errors.Is(err, ErrPageNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleCatalog serves the block type catalog, filtered by the slash query
// in ?q=. Empty query returns the full catalog in registration order.
func (a *App) handleCatalog(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, blocks.MatchTypes(r.URL.Query().Get("q")))
}

func (a *App) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, a.workspace.Document())
}

func (a *App) handleSaveNow(w http.ResponseWriter, r *http.Request) {
	if err := a.SaveNow(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type resourceStatus struct {
	Status  syncer.Status `json:"status"`
	SavedAt time.Time     `json:"savedAt,omitempty"`
}

func (a *App) handleStatus(w http.ResponseWriter, r *http.Request) {
	ps, psAt := a.pages.Status()
	ws, wsAt := a.workspace.Status()
	respondJSON(w, http.StatusOK, map[string]resourceStatus{
		models.ResourcePages:     {Status: ps, SavedAt: psAt},
		models.ResourceWorkspace: {Status: ws, SavedAt: wsAt},
	})
}
