package docstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := OpenFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, "accounts", Document{"id": "alice", "bio": ""}))
	require.NoError(t, s.Insert(ctx, "accounts", Document{"id": "bob", "bio": ""}))
	require.NoError(t, s.Update(ctx, "accounts", "id", "alice", Document{"bio": "hello"}))
	require.NoError(t, s.Delete(ctx, "accounts", "id", "bob"))

	assert.FileExists(t, filepath.Join(dir, "accounts.json"))

	reopened, err := OpenFileStore(dir)
	require.NoError(t, err)
	docs, err := reopened.GetAll(ctx, "accounts")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "alice", docs[0].ID())
	assert.Equal(t, "hello", docs[0]["bio"])
}

func TestFileStore_MutatePairPersistsBoth(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := OpenFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, "interactions", Document{"id": "bob", "likes": []any{}}))
	require.NoError(t, s.Insert(ctx, "videos", Document{"id": "v1", "likes": 0}))

	err = s.MutatePair(ctx,
		Ref{Collection: "interactions", Field: "id", Value: "bob"},
		Ref{Collection: "videos", Field: "id", Value: "v1"},
		func(doc Document) (Document, error) {
			doc["likes"] = []any{"v1"}
			return doc, nil
		},
		func(doc Document) (Document, error) {
			doc["likes"] = 1
			return doc, nil
		})
	require.NoError(t, err)

	reopened, err := OpenFileStore(dir)
	require.NoError(t, err)
	ledger, err := reopened.GetOne(ctx, "interactions", "id", "bob")
	require.NoError(t, err)
	assert.Equal(t, []any{"v1"}, ledger["likes"])
	video, err := reopened.GetOne(ctx, "videos", "id", "v1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, video["likes"])
}

func TestOpenFileStore_RejectsCorruptCollection(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "videos.json"), []byte("{not json"), 0o644))

	_, err := OpenFileStore(dir)
	assert.Error(t, err)
}
