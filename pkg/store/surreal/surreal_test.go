package surreal

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notelog/notelog/pkg/identity"
	"github.com/notelog/notelog/pkg/store"
)

// openTestStore connects to the SurrealDB instance named by
// NOTELOG_SURREALDB_URL, skipping when none is configured.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("NOTELOG_SURREALDB_URL")
	if url == "" {
		t.Skip("NOTELOG_SURREALDB_URL not set, skipping surrealdb integration test")
	}
	s, err := Open(Config{
		URL:       url,
		Namespace: "notelog_test",
		Database:  "notelog_test",
		Username:  os.Getenv("NOTELOG_SURREALDB_USER"),
		Password:  os.Getenv("NOTELOG_SURREALDB_PASS"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUploadFetch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec, err := s.Upload(ctx, map[string]string{"title": "remote"}, identity.Identity{})
	require.NoError(t, err)
	require.False(t, rec.ID.IsZero())

	raw, err := s.Fetch(ctx, rec.ID)
	require.NoError(t, err)
	var got map[string]string
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "remote", got["title"])

	// Same payload, new id.
	rec2, err := s.Upload(ctx, map[string]string{"title": "remote"}, identity.Identity{})
	require.NoError(t, err)
	assert.NotEqual(t, rec.ID, rec2.ID)
}

func TestFetchMissing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Fetch(context.Background(), "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	before, err := s.Stats(ctx)
	require.NoError(t, err)

	_, err = s.Upload(ctx, map[string]string{"k": "v"}, identity.Identity{})
	require.NoError(t, err)

	after, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.Count+1, after.Count)
	assert.Greater(t, after.ApproxBytes, before.ApproxBytes)
}
