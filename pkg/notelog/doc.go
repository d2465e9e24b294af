// Package notelog wires the block document model to the content-addressed
// persistence layer and exposes both over a small HTTP API.
//
// The application owns two persisted resources, each behind its own sync
// coordinator: "pages" (every page body, one blob) and "workspace" (the
// page index, recents, favorites). Edits land in memory immediately and are
// persisted by debounced auto-save: upload a snapshot to the content store,
// then publish the new content id as the resource's pointer. On startup the
// reverse happens (resolve pointer, fetch blob, hydrate) with a default
// document standing in whenever the pointer is unset or its blob is gone.
//
// The HTTP surface covers the pointer protocol (publish/resolve per
// resource), raw content upload/fetch, storage statistics, page and block
// editing, the slash-command catalog, manual save, and a websocket feed of
// save-status transitions.
package notelog
