package models

import (
	"encoding/json"
	"time"
)

// Properties holds the type-specific fields of a block, e.g. {"checked":
// true} for a todo or {"caption": "..."} for an image. Keys are interpreted
// only by renderers matching the block's type; unknown keys are carried
// along untouched, never rejected.
type Properties map[string]any

// Clone returns a shallow copy so pure block operations can hand out
// sequences that share no mutable state with their input.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Block is one unit of page content: a stable id, a registered type, the
// inline content string, and type-specific properties.
type Block struct {
	ID         BlockID    `json:"id"`
	Type       BlockType  `json:"type"`
	Content    string     `json:"content"`
	Properties Properties `json:"properties,omitempty"`
}

// NewBlock creates an empty block of the given type with a fresh id.
func NewBlock(t BlockType) Block {
	return Block{
		ID:         NewBlockID(),
		Type:       t,
		Content:    "",
		Properties: Properties{},
	}
}

// Page is an ordered block document. Block order is the rendering order.
type Page struct {
	ID           PageID    `json:"id"`
	Title        string    `json:"title"`
	Icon         string    `json:"icon,omitempty"`
	Cover        string    `json:"cover,omitempty"`
	Blocks       []Block   `json:"blocks"`
	LastModified time.Time `json:"lastModified"`
}

// NewPage creates a page with a single empty default-type block, the state
// a fresh document starts from.
func NewPage(title, icon string) *Page {
	return &Page{
		ID:           NewPageID(),
		Title:        title,
		Icon:         icon,
		Blocks:       []Block{NewBlock(DefaultBlockType)},
		LastModified: time.Now().UTC(),
	}
}

// Summary reduces a page to the shape the workspace index keeps.
func (p *Page) Summary() PageSummary {
	return PageSummary{ID: p.ID, Title: p.Title, Icon: p.Icon}
}

// PageSummary is the lightweight page reference held by a workspace. Full
// page bodies live in their own content records.
type PageSummary struct {
	ID    PageID `json:"id"`
	Title string `json:"title"`
	Icon  string `json:"icon,omitempty"`
}

// Workspace indexes pages by summary. Ids in Pages, RecentPages and
// Favorites reference pages best-effort: a missing page means "not yet
// loaded", not corruption.
type Workspace struct {
	ID          WorkspaceID   `json:"id"`
	Name        string        `json:"name"`
	Pages       []PageSummary `json:"pages"`
	RecentPages []PageID      `json:"recentPages,omitempty"`
	Favorites   []PageID      `json:"favorites,omitempty"`
}

// NewWorkspace creates an empty workspace.
func NewWorkspace(name string) *Workspace {
	return &Workspace{
		ID:    NewWorkspaceID(),
		Name:  name,
		Pages: []PageSummary{},
	}
}

// ContentRecord is one immutable entry in the content-addressed store: the
// id minted at upload time, the exact payload stored, and when it was
// written. The id is never reassigned to a different payload.
type ContentRecord struct {
	ID        ContentID       `json:"id"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

// PointerRecord is the mutable "latest version" reference for one resource
// name. CurrentID is replaced wholesale on publish, last writer wins.
type PointerRecord struct {
	ResourceName string    `json:"resourceName"`
	CurrentID    ContentID `json:"currentId"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Well-known pointer resource names. The pointer service persists these two
// across restarts; they are the sole durable heads of the document graph.
const (
	ResourceWorkspace = "workspace"
	ResourcePages     = "pages"
)
