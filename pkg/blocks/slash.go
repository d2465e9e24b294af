package blocks

import (
	"strings"

	"github.com/notelog/notelog/pkg/models"
)

// Trigger opens the block-type selector when typed as the first character of
// a block.
const Trigger = "/"

// Selector is the state of the slash-command selector derived from a block's
// in-progress content. Content equal to the trigger opens it with an empty
// query; content still starting with the trigger keeps it open with the
// remainder as the filter; anything else means closed.
type Selector struct {
	Open  bool
	Query string
}

// ParseSelector derives the selector state from content.
func ParseSelector(content string) Selector {
	if !strings.HasPrefix(content, Trigger) {
		return Selector{}
	}
	return Selector{Open: true, Query: content[len(Trigger):]}
}

// MatchTypes filters the block type catalog with a case-insensitive
// substring match against label and description. The empty query returns the
// full catalog. Result order is registration order restricted to matches; no
// ranking beyond that.
func MatchTypes(query string) []models.CatalogEntry {
	all := models.Catalog()
	if query == "" {
		return all
	}
	q := strings.ToLower(query)
	out := make([]models.CatalogEntry, 0, len(all))
	for _, e := range all {
		if strings.Contains(strings.ToLower(e.Label), q) ||
			strings.Contains(strings.ToLower(e.Description), q) {
			out = append(out, e)
		}
	}
	return out
}

// ApplySelection resolves a selector match: the active block is retyped to
// the chosen entry and the trigger plus query are stripped from its content.
// Closing the selector without selecting is simply not calling this;
// content and type stay as they are.
func ApplySelection(in []models.Block, id models.BlockID, entry models.CatalogEntry) []models.Block {
	b, ok := Find(in, id)
	if !ok {
		return in
	}
	t := entry.Key
	patch := Patch{Type: &t}
	if strings.HasPrefix(b.Content, Trigger) {
		stripped := ""
		patch.Content = &stripped
	}
	return Update(in, id, patch)
}
