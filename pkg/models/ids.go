package models

import (
	"fmt"

	"github.com/google/uuid"
)

// BlockID identifies one block within a page. Unique per page, never reused:
// deleting a block and inserting a new one at the same position always yields
// a fresh id.
type BlockID string

func NewBlockID() BlockID {
	return BlockID(uuid.NewString())
}

func ParseBlockID(s string) (BlockID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid block id: %w", err)
	}
	return BlockID(id.String()), nil
}

func (id BlockID) IsZero() bool   { return id == "" }
func (id BlockID) String() string { return string(id) }

// PageID identifies a page across the workspace and the content store.
type PageID string

func NewPageID() PageID {
	return PageID(uuid.NewString())
}

func ParsePageID(s string) (PageID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid page id: %w", err)
	}
	return PageID(id.String()), nil
}

func (id PageID) IsZero() bool   { return id == "" }
func (id PageID) String() string { return string(id) }

// WorkspaceID identifies a workspace.
type WorkspaceID string

func NewWorkspaceID() WorkspaceID {
	return WorkspaceID(uuid.NewString())
}

func (id WorkspaceID) IsZero() bool   { return id == "" }
func (id WorkspaceID) String() string { return string(id) }

// ContentID names one immutable blob in the content-addressed store. It is
// assigned by the store at upload time and never points at anything else
// afterwards. The zero value means "no content".
type ContentID string

func (id ContentID) IsZero() bool   { return id == "" }
func (id ContentID) String() string { return string(id) }
