package notelog

import (
	"context"

	"github.com/pkg/errors"

	"github.com/notelog/notelog/pkg/blocks"
	"github.com/notelog/notelog/pkg/models"
	"github.com/notelog/notelog/pkg/syncer"
)

// Editing operations. Every mutation funnels through a coordinator's Apply,
// which is the single "mark dirty" entry point: there is exactly one source
// of truth for save status per resource.

// ErrPageNotFound reports an edit against a page id the pages document does
// not contain.
var ErrPageNotFound = errors.New("page not found")

// CreatePage adds a new page to the pages document and indexes it in the
// workspace (summary, recent list).
func (a *App) CreatePage(title, icon string) models.Page {
	page := *models.NewPage(title, icon)
	a.pages.Apply(func(ps models.PageSet) models.PageSet {
		return ps.Upsert(page)
	})
	a.workspace.Apply(func(ws models.Workspace) models.Workspace {
		return ws.AddPage(page.Summary()).TouchRecent(page.ID)
	})
	return page
}

// RenamePage updates a page's title/icon and the workspace index entry.
func (a *App) RenamePage(id models.PageID, title, icon string) error {
	if _, ok := a.pages.Document().Find(id); !ok {
		return ErrPageNotFound
	}
	a.pages.Apply(func(ps models.PageSet) models.PageSet {
		return ps.WithTitle(id, title, icon)
	})
	a.workspace.Apply(func(ws models.Workspace) models.Workspace {
		return ws.RenamePage(id, title, icon)
	})
	return nil
}

// ToggleFavorite flips a page's membership in the workspace favorites set.
func (a *App) ToggleFavorite(id models.PageID) {
	a.workspace.Apply(func(ws models.Workspace) models.Workspace {
		return ws.ToggleFavorite(id)
	})
}

// editBlocks applies a pure block-sequence operation to one page.
func (a *App) editBlocks(pageID models.PageID, op func([]models.Block) []models.Block) error {
	if _, ok := a.pages.Document().Find(pageID); !ok {
		return ErrPageNotFound
	}
	a.pages.Apply(func(ps models.PageSet) models.PageSet {
		page, ok := ps.Find(pageID)
		if !ok {
			return ps
		}
		return ps.WithBlocks(pageID, op(page.Blocks))
	})
	a.workspace.Apply(func(ws models.Workspace) models.Workspace {
		return ws.TouchRecent(pageID)
	})
	return nil
}

// InsertBlock inserts an empty block after the anchor (append when the
// anchor is unknown) and returns the created block.
func (a *App) InsertBlock(pageID models.PageID, anchor models.BlockID, t models.BlockType) (models.Block, error) {
	if !models.ValidType(t) {
		t = models.DefaultBlockType
	}
	var created models.Block
	err := a.editBlocks(pageID, func(in []models.Block) []models.Block {
		out, nb := blocks.InsertAfter(in, anchor, t)
		created = nb
		return out
	})
	return created, err
}

// UpdateBlock patches one block's fields.
func (a *App) UpdateBlock(pageID models.PageID, blockID models.BlockID, patch blocks.Patch) error {
	return a.editBlocks(pageID, func(in []models.Block) []models.Block {
		return blocks.Update(in, blockID, patch)
	})
}

// DeleteBlock removes one block. Unknown block ids are a no-op.
func (a *App) DeleteBlock(pageID models.PageID, blockID models.BlockID) error {
	return a.editBlocks(pageID, func(in []models.Block) []models.Block {
		return blocks.Delete(in, blockID)
	})
}

// MoveBlock relocates a block to the given index.
func (a *App) MoveBlock(pageID models.PageID, blockID models.BlockID, to int) error {
	return a.editBlocks(pageID, func(in []models.Block) []models.Block {
		return blocks.Move(in, blockID, to)
	})
}

// ApplySlashSelection resolves a slash-command match on the active block:
// retype plus trigger/query strip.
func (a *App) ApplySlashSelection(pageID models.PageID, blockID models.BlockID, key models.BlockType) error {
	entry, ok := models.LookupType(key)
	if !ok {
		return errors.Errorf("unknown block type %q", key)
	}
	return a.editBlocks(pageID, func(in []models.Block) []models.Block {
		return blocks.ApplySelection(in, blockID, entry)
	})
}

// BackspaceBlock applies the backspace-on-empty policy: an empty non-text
// block demotes to text instead of being deleted.
func (a *App) BackspaceBlock(pageID models.PageID, blockID models.BlockID) error {
	return a.editBlocks(pageID, func(in []models.Block) []models.Block {
		out, _ := blocks.DemoteOnBackspace(in, blockID)
		return out
	})
}

// CommitBlock finalizes a block's content and opens a fresh text block after
// it, returning the new block so the caller can move focus.
func (a *App) CommitBlock(pageID models.PageID, blockID models.BlockID, content string) (models.Block, error) {
	var created models.Block
	err := a.editBlocks(pageID, func(in []models.Block) []models.Block {
		out, nb := blocks.Commit(in, blockID, content)
		created = nb
		return out
	})
	return created, err
}

// SaveNow forces an immediate save of both resources, canceling pending
// debounce timers. A resource with a save already in flight is skipped;
// that save is persisting the current state anyway.
func (a *App) SaveNow(ctx context.Context) error {
	if err := a.pages.SaveNow(ctx); err != nil && !errors.Is(err, syncer.ErrSaveInFlight) {
		return err
	}
	if err := a.workspace.SaveNow(ctx); err != nil && !errors.Is(err, syncer.ErrSaveInFlight) {
		return err
	}
	return nil
}
