package output

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evgsol/tradescope/pkg/domain"
)

func samplePosts() []domain.Post {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	collected := time.Date(2025, 8, 1, 9, 30, 0, 0, time.UTC)

	return []domain.Post{
		{
			URL:             "https://reddit.com/r/kpopforsale/comments/abc",
			Title:           "[WTS][USA] Seventeen photocard",
			Body:            "priced to sell",
			Author:          "trader1",
			Community:       "kpopforsale",
			Source:          domain.SourceFeedListing,
			Lang:            "en",
			CreatedAt:       &created,
			Score:           12,
			Comments:        3,
			TransactionType: "WTS",
			Region:          "USA",
			MediaURL:        "https://i.redd.it/pic.jpg",
			IsGallery:       true,
			CollectedAt:     collected,
		},
		{
			URL:         "https://reddit.com/r/kpopforsale/comments/def",
			Title:       "WTB BTS photocard",
			Preview:     "looking to buy",
			Source:      domain.SourceSearchEngine,
			Lang:        "en",
			CollectedAt: collected,
		},
	}
}

func TestWriteJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "out.jsonl")
	require.NoError(t, WriteJSONL(path, samplePosts()))

	file, err := os.Open(path) //nolint:gosec // test file
	require.NoError(t, err)
	defer file.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var obj map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &obj))
		lines = append(lines, obj)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, lines, 2)

	first := lines[0]
	assert.Equal(t, "https://reddit.com/r/kpopforsale/comments/abc", first["url"])
	assert.Equal(t, "[WTS][USA] Seventeen photocard", first["title"])
	assert.Equal(t, "priced to sell", first["body_excerpt"])
	assert.Equal(t, "trader1", first["author"])
	assert.Equal(t, "kpopforsale", first["origin_group"])
	assert.Equal(t, "feed-listing", first["source_kind"])
	assert.Equal(t, "2025-06-01T12:00:00Z", first["created_at"])
	assert.Equal(t, "2025-08-01T09:30:00Z", first["collected_at"])
	assert.Equal(t, float64(12), first["engagement_score"])
	assert.Equal(t, float64(3), first["reply_count"])
	assert.Equal(t, "WTS", first["transaction_type"])
	assert.Equal(t, "USA", first["region_code"])
	assert.Equal(t, true, first["is_multi_media"])

	// absent optionals are explicit nulls
	second := lines[1]
	assert.Equal(t, "search-engine", second["source_kind"])
	for _, field := range []string{"author", "origin_group", "created_at", "transaction_type", "region_code", "first_media_url"} {
		val, ok := second[field]
		assert.True(t, ok, "field %s must be present", field)
		assert.Nil(t, val, "field %s must be null", field)
	}
}

func TestWriteJSONL_NoHTMLEscaping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	posts := []domain.Post{{
		URL: "https://reddit.com/p/1?a=1&b=2", Title: "세븐틴 포토카드 양도",
		Source: domain.SourceFeedListing, Lang: "en", CollectedAt: time.Now(),
	}}
	require.NoError(t, WriteJSONL(path, posts))

	data, err := os.ReadFile(path) //nolint:gosec // test file
	require.NoError(t, err)
	assert.Contains(t, string(data), "a=1&b=2")
	assert.Contains(t, string(data), "세븐틴")
}

func TestDefaultPath(t *testing.T) {
	now := time.Date(2025, 8, 1, 9, 30, 0, 0, time.UTC)

	t.Run("artist name slugified", func(t *testing.T) {
		path := DefaultPath("data", "Stray Kids", now)
		assert.Equal(t, filepath.Join("data", "stray_kids_trade_20250801_0930.jsonl"), path)
	})

	t.Run("no artist", func(t *testing.T) {
		path := DefaultPath("data", "", now)
		assert.True(t, strings.HasSuffix(path, "kpop_all_trade_20250801_0930.jsonl"))
	})
}
