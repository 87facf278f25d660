package output

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestArchive(t *testing.T) *Archive {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "archive.db")
	archive, err := NewArchive(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { archive.Close() })
	return archive
}

func TestArchive_Store(t *testing.T) {
	archive := newTestArchive(t)
	ctx := context.Background()

	require.NoError(t, archive.Store(ctx, samplePosts()))

	count, err := archive.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var got dbPost
	err = archive.conn.GetContext(ctx, &got, "SELECT * FROM posts WHERE url = ?",
		"https://reddit.com/r/kpopforsale/comments/abc")
	require.NoError(t, err)

	assert.Equal(t, "[WTS][USA] Seventeen photocard", got.Title)
	require.NotNil(t, got.Author)
	assert.Equal(t, "trader1", *got.Author)
	require.NotNil(t, got.TransactionType)
	assert.Equal(t, "WTS", *got.TransactionType)
	assert.True(t, got.IsMultiMedia)
	require.NotNil(t, got.CreatedAt)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), got.CreatedAt.UTC())

	// search-engine row keeps its nulls
	err = archive.conn.GetContext(ctx, &got, "SELECT * FROM posts WHERE url = ?",
		"https://reddit.com/r/kpopforsale/comments/def")
	require.NoError(t, err)
	assert.Nil(t, got.Author)
	assert.Nil(t, got.CreatedAt)
	assert.Nil(t, got.OriginGroup)
}

func TestArchive_StoreIdempotent(t *testing.T) {
	archive := newTestArchive(t)
	ctx := context.Background()

	posts := samplePosts()
	require.NoError(t, archive.Store(ctx, posts))
	require.NoError(t, archive.Store(ctx, posts))

	count, err := archive.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "re-archiving the same URLs does not duplicate rows")
}

func TestArchive_EmptyRun(t *testing.T) {
	archive := newTestArchive(t)
	require.NoError(t, archive.Store(context.Background(), nil))

	count, err := archive.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
