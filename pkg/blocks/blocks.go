// Package blocks implements the pure operations on a page's ordered block
// sequence, plus the slash-command resolver that drives block-type selection.
//
// Every operation returns a new slice and leaves its input untouched, so the
// caller can diff old against new to decide whether the document is dirty.
// None of the operations fail: unknown ids degrade to a no-op (or an append,
// for InsertAfter), matching how an editor keeps accepting input regardless
// of what the persistence layer is doing.
package blocks

import (
	"github.com/notelog/notelog/pkg/models"
)

// Patch selects the block fields an Update replaces. Nil fields are left
// alone; a non-nil Properties replaces the whole map.
type Patch struct {
	Type       *models.BlockType
	Content    *string
	Properties models.Properties
}

func clone(in []models.Block) []models.Block {
	out := make([]models.Block, len(in))
	copy(out, in)
	return out
}

func indexOf(in []models.Block, id models.BlockID) int {
	for i, b := range in {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the block with the given id, if present.
func Find(in []models.Block, id models.BlockID) (models.Block, bool) {
	if i := indexOf(in, id); i >= 0 {
		return in[i], true
	}
	return models.Block{}, false
}

// InsertAfter creates an empty block of type t with a fresh id immediately
// after the anchor block. If the anchor is not present the block is appended
// at the end. Never fails.
func InsertAfter(in []models.Block, anchor models.BlockID, t models.BlockType) ([]models.Block, models.Block) {
	nb := models.NewBlock(t)
	i := indexOf(in, anchor)
	if i < 0 {
		i = len(in) - 1
	}
	out := make([]models.Block, 0, len(in)+1)
	out = append(out, in[:i+1]...)
	out = append(out, nb)
	out = append(out, in[i+1:]...)
	return out, nb
}

// Update replaces only the fields selected by patch on the block with the
// given id. Returns the input unchanged if the id is not present.
func Update(in []models.Block, id models.BlockID, patch Patch) []models.Block {
	i := indexOf(in, id)
	if i < 0 {
		return in
	}
	out := clone(in)
	if patch.Type != nil {
		out[i].Type = *patch.Type
	}
	if patch.Content != nil {
		out[i].Content = *patch.Content
	}
	if patch.Properties != nil {
		out[i].Properties = patch.Properties.Clone()
	}
	return out
}

// Delete removes the block with the given id. No-op if not present.
// Deleting the last remaining block is permitted and yields an empty
// sequence.
func Delete(in []models.Block, id models.BlockID) []models.Block {
	i := indexOf(in, id)
	if i < 0 {
		return in
	}
	out := make([]models.Block, 0, len(in)-1)
	out = append(out, in[:i]...)
	out = append(out, in[i+1:]...)
	return out
}

// Retype changes only the type of the block with the given id. Content,
// properties and id are untouched. No-op if the id is not present.
func Retype(in []models.Block, id models.BlockID, t models.BlockType) []models.Block {
	return Update(in, id, Patch{Type: &t})
}

// Move relocates the block with the given id to the target index, clamped to
// the sequence bounds. Relative order of the other blocks is preserved.
func Move(in []models.Block, id models.BlockID, to int) []models.Block {
	i := indexOf(in, id)
	if i < 0 {
		return in
	}
	if to < 0 {
		to = 0
	}
	if to >= len(in) {
		to = len(in) - 1
	}
	if to == i {
		return in
	}
	out := make([]models.Block, 0, len(in))
	out = append(out, in[:i]...)
	out = append(out, in[i+1:]...)
	moved := in[i]
	out = append(out[:to], append([]models.Block{moved}, out[to:]...)...)
	return out
}

// DemoteOnBackspace implements the backspace-on-empty policy: an empty block
// of a non-default type drops back to the default text type instead of being
// deleted, letting the user "un-type" a block. Backspace on an empty
// default-type block is a no-op here; cross-block deletion is the
// presentation layer's call. The bool reports whether anything changed.
func DemoteOnBackspace(in []models.Block, id models.BlockID) ([]models.Block, bool) {
	b, ok := Find(in, id)
	if !ok || b.Content != "" || b.Type == models.DefaultBlockType {
		return in, false
	}
	return Retype(in, id, models.DefaultBlockType), true
}

// Commit finalizes the pending content of the block with the given id and
// inserts a new empty default-type block immediately after it. The returned
// block is where editing focus moves next.
func Commit(in []models.Block, id models.BlockID, content string) ([]models.Block, models.Block) {
	out := Update(in, id, Patch{Content: &content})
	return InsertAfter(out, id, models.DefaultBlockType)
}
