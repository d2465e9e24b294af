package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notelog/notelog/pkg/models"
)

func makeBlocks(types ...models.BlockType) []models.Block {
	out := make([]models.Block, 0, len(types))
	for _, t := range types {
		out = append(out, models.NewBlock(t))
	}
	return out
}

func ids(in []models.Block) []models.BlockID {
	out := make([]models.BlockID, 0, len(in))
	for _, b := range in {
		out = append(out, b.ID)
	}
	return out
}

func TestInsertAfter(t *testing.T) {
	in := makeBlocks(models.BlockTypeText, models.BlockTypeText, models.BlockTypeText)

	out, nb := InsertAfter(in, in[0].ID, models.BlockTypeQuote)
	require.Len(t, out, 4)
	assert.Equal(t, nb.ID, out[1].ID)
	assert.Equal(t, models.BlockTypeQuote, out[1].Type)
	assert.Empty(t, out[1].Content)

	// Surrounding order is preserved.
	assert.Equal(t, in[0].ID, out[0].ID)
	assert.Equal(t, in[1].ID, out[2].ID)
	assert.Equal(t, in[2].ID, out[3].ID)

	// New id does not collide with any existing id.
	for _, b := range in {
		assert.NotEqual(t, b.ID, nb.ID)
	}

	// Input untouched.
	assert.Len(t, in, 3)
}

func TestInsertAfterMissingAnchorAppends(t *testing.T) {
	in := makeBlocks(models.BlockTypeText, models.BlockTypeText)

	out, nb := InsertAfter(in, models.NewBlockID(), models.BlockTypeText)
	require.Len(t, out, 3)
	assert.Equal(t, nb.ID, out[2].ID)
}

func TestInsertAfterEmptySequence(t *testing.T) {
	out, nb := InsertAfter(nil, "", models.BlockTypeText)
	require.Len(t, out, 1)
	assert.Equal(t, nb.ID, out[0].ID)
}

func TestUpdate(t *testing.T) {
	in := makeBlocks(models.BlockTypeText, models.BlockTypeTodo)
	content := "buy milk"

	out := Update(in, in[1].ID, Patch{
		Content:    &content,
		Properties: models.Properties{"checked": true},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "buy milk", out[1].Content)
	assert.Equal(t, true, out[1].Properties["checked"])
	assert.Equal(t, models.BlockTypeTodo, out[1].Type, "type untouched when patch.Type is nil")
	assert.Equal(t, in[1].ID, out[1].ID)

	// Input untouched.
	assert.Empty(t, in[1].Content)
	assert.NotContains(t, in[1].Properties, "checked")
}

func TestUpdateUnknownIDIsNoop(t *testing.T) {
	in := makeBlocks(models.BlockTypeText)
	content := "x"

	out := Update(in, models.NewBlockID(), Patch{Content: &content})
	assert.Equal(t, in, out)
}

func TestDelete(t *testing.T) {
	in := makeBlocks(models.BlockTypeText, models.BlockTypeText, models.BlockTypeText)

	out := Delete(in, in[1].ID)
	require.Len(t, out, 2)
	assert.Equal(t, []models.BlockID{in[0].ID, in[2].ID}, ids(out))

	// Unknown id is a no-op.
	assert.Equal(t, in, Delete(in, models.NewBlockID()))
}

func TestDeleteLastBlockYieldsEmpty(t *testing.T) {
	in := makeBlocks(models.BlockTypeText)
	out := Delete(in, in[0].ID)
	assert.Empty(t, out)
}

func TestDeletedIDDoesNotResurface(t *testing.T) {
	in := makeBlocks(models.BlockTypeText, models.BlockTypeText)
	deleted := in[1].ID

	out := Delete(in, deleted)
	out, nb := InsertAfter(out, out[0].ID, models.BlockTypeText)
	assert.NotEqual(t, deleted, nb.ID)
	for _, b := range out {
		assert.NotEqual(t, deleted, b.ID)
	}
}

func TestRetype(t *testing.T) {
	in := makeBlocks(models.BlockTypeText)
	in[0].Content = "hello"
	in[0].Properties = models.Properties{"k": "v"}

	out := Retype(in, in[0].ID, models.BlockTypeHeading1)
	require.Len(t, out, 1)
	assert.Equal(t, models.BlockTypeHeading1, out[0].Type)
	assert.Equal(t, "hello", out[0].Content)
	assert.Equal(t, "v", out[0].Properties["k"])
	assert.Equal(t, in[0].ID, out[0].ID)
}

func TestMove(t *testing.T) {
	in := makeBlocks(models.BlockTypeText, models.BlockTypeText, models.BlockTypeText)
	a, b, c := in[0].ID, in[1].ID, in[2].ID

	out := Move(in, c, 0)
	assert.Equal(t, []models.BlockID{c, a, b}, ids(out))

	out = Move(in, a, 2)
	assert.Equal(t, []models.BlockID{b, c, a}, ids(out))

	// Out-of-range targets clamp instead of failing.
	out = Move(in, a, 99)
	assert.Equal(t, []models.BlockID{b, c, a}, ids(out))
	out = Move(in, c, -5)
	assert.Equal(t, []models.BlockID{c, a, b}, ids(out))

	// Unknown id and same-position moves are no-ops.
	assert.Equal(t, in, Move(in, models.NewBlockID(), 0))
	assert.Equal(t, in, Move(in, b, 1))
}

func TestDemoteOnBackspace(t *testing.T) {
	in := makeBlocks(models.BlockTypeText, models.BlockTypeQuote, models.BlockTypeQuote)
	in[2].Content = "not empty"

	// Empty non-default block demotes to the default type.
	out, changed := DemoteOnBackspace(in, in[1].ID)
	assert.True(t, changed)
	assert.Equal(t, models.DefaultBlockType, out[1].Type)
	assert.Equal(t, in[1].ID, out[1].ID)

	// Empty default-type block: nothing to demote to.
	out, changed = DemoteOnBackspace(in, in[0].ID)
	assert.False(t, changed)
	assert.Equal(t, in, out)

	// Non-empty block is untouched regardless of type.
	out, changed = DemoteOnBackspace(in, in[2].ID)
	assert.False(t, changed)
	assert.Equal(t, in, out)
}

func TestCommit(t *testing.T) {
	in := makeBlocks(models.BlockTypeHeading1, models.BlockTypeText)

	out, nb := Commit(in, in[0].ID, "Title")
	require.Len(t, out, 3)
	assert.Equal(t, "Title", out[0].Content)
	assert.Equal(t, models.BlockTypeHeading1, out[0].Type)
	assert.Equal(t, nb.ID, out[1].ID)
	assert.Equal(t, models.DefaultBlockType, nb.Type)
	assert.Empty(t, nb.Content)
	assert.Equal(t, in[1].ID, out[2].ID)
}
