// Package models defines the data model shared by every layer of notelog:
// typed identifiers, the block document model (Block, Page, Workspace), the
// block type catalog used by slash-command search, and the records produced
// by the persistence layer (ContentRecord, PointerRecord).
//
// Two id families exist on purpose. Document ids (BlockID, PageID,
// WorkspaceID) are UUIDs chosen when the entity is created and stable for
// its whole life. Content ids (ContentID) are ULIDs minted by the content
// store at write time; a new one is produced on every upload, so they name
// immutable snapshots rather than entities.
//
// Everything in this package is plain data with no I/O. The store and
// syncer packages decide how these values are encoded and moved.
package models
