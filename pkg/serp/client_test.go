package serp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evgsol/tradescope/pkg/domain"
	"github.com/evgsol/tradescope/pkg/resilient"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(ClientConfig{
		BaseURL:    server.URL,
		APIKey:     "test-key",
		Site:       "reddit.com",
		Results:    10,
		HTTPClient: server.Client(),
		Retry:      resilient.New(3, time.Millisecond, 2*time.Millisecond),
	})
}

func TestClient_Search(t *testing.T) {
	t.Run("query params and normalization", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "WTS BTS photocard site:reddit.com", q.Get("q"))
			assert.Equal(t, "test-key", q.Get("api_key"))
			assert.Equal(t, "10", q.Get("num"))
			assert.Equal(t, "en", q.Get("hl"))
			assert.Equal(t, "us", q.Get("gl"))
			assert.Equal(t, "qdr:m6", q.Get("tbs"))

			w.Write([]byte(`{"organic_results": [
				{"title": "[WTS][US] BTS photocards", "link": "https://reddit.com/r/kpopforsale/comments/x/", "snippet": "selling proof set"}
			]}`))
		})

		posts, err := client.Search(context.Background(), domain.Query{Text: "WTS BTS photocard"})
		require.NoError(t, err)
		require.Len(t, posts, 1)

		post := posts[0]
		assert.Equal(t, domain.SourceSearchEngine, post.Source)
		assert.Equal(t, "https://reddit.com/r/kpopforsale/comments/x/", post.URL)
		assert.Equal(t, "selling proof set", post.Preview)
		assert.Equal(t, "WTS", post.TransactionType)
		assert.Equal(t, "USA", post.Region)

		// search-engine results carry no author, timestamp or media
		assert.Empty(t, post.Author)
		assert.Nil(t, post.CreatedAt)
		assert.Empty(t, post.MediaURL)
		assert.Empty(t, post.Community)
	})

	t.Run("korean locale hint", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "ko", r.URL.Query().Get("hl"))
			assert.Equal(t, "kr", r.URL.Query().Get("gl"))
			w.Write([]byte(`{"organic_results": []}`))
		})

		_, err := client.Search(context.Background(), domain.Query{Text: "포토카드 양도", Lang: "ko"})
		require.NoError(t, err)
	})

	t.Run("api error field degrades to empty", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error": "Your searches for the month are exhausted."}`))
		})

		posts, err := client.Search(context.Background(), domain.Query{Text: "q"})
		require.NoError(t, err)
		assert.Empty(t, posts)
	})

	t.Run("server failure retried then degrades", func(t *testing.T) {
		requests := 0
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			requests++
			w.WriteHeader(http.StatusBadGateway)
		})

		posts, err := client.Search(context.Background(), domain.Query{Text: "q"})
		require.NoError(t, err)
		assert.Empty(t, posts)
		assert.Equal(t, 3, requests)
	})

	t.Run("missing api key skips the call", func(t *testing.T) {
		client := NewClient(ClientConfig{BaseURL: "http://localhost:1", Site: "reddit.com"})
		assert.False(t, client.Available())

		posts, err := client.Search(context.Background(), domain.Query{Text: "q"})
		require.NoError(t, err)
		assert.Nil(t, posts)
	})

	t.Run("snippet clipped to cap", func(t *testing.T) {
		long := make([]byte, 0, 300)
		for i := 0; i < 300; i++ {
			long = append(long, 'a')
		}
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"organic_results": [{"title": "t", "link": "https://x", "snippet": "` + string(long) + `"}]}`))
		})

		posts, err := client.Search(context.Background(), domain.Query{Text: "q"})
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Len(t, posts[0].Preview, domain.PreviewLimit)
	})
}
