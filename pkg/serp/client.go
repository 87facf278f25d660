// Package serp queries a search-engine API scoped to the feed's domain.
// Results carry title, link and snippet only: no author, no timestamp, no
// media, and they are normalized with those fields absent.
package serp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/evgsol/tradescope/pkg/catalog"
	"github.com/evgsol/tradescope/pkg/domain"
	"github.com/evgsol/tradescope/pkg/resilient"
)

// Client calls the search-engine endpoint
type Client struct {
	baseURL string
	apiKey  string
	site    string // site-restriction filter appended to every query
	results int
	httpc   *http.Client
	retry   *resilient.Runner

	now func() time.Time
}

// ClientConfig holds Client dependencies and tunables
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Site       string
	Results    int
	HTTPClient *http.Client
	Retry      *resilient.Runner
}

// NewClient creates a search-engine client
func NewClient(cfg ClientConfig) *Client {
	if cfg.Results <= 0 {
		cfg.Results = 10
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		site:    cfg.Site,
		results: cfg.Results,
		httpc:   cfg.HTTPClient,
		retry:   cfg.Retry,
		now:     time.Now,
	}
}

// Available reports whether an API key is configured
func (c *Client) Available() bool { return c.apiKey != "" }

type searchResponse struct {
	Error          string `json:"error"`
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
}

// Search issues one web query with the site filter appended, localized by the
// query's language hint and limited to roughly the last six months. Failures
// degrade to an empty result, they never abort the run.
func (c *Client) Search(ctx context.Context, q domain.Query) ([]domain.Post, error) {
	if !c.Available() {
		return nil, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = c.results
	}
	if limit > 100 {
		limit = 100
	}

	lang := q.Lang
	if lang == "" {
		lang = "en"
	}
	region := "us"
	if lang == "ko" {
		region = "kr"
	}

	params := url.Values{
		"q":       {fmt.Sprintf("%s site:%s", q.Text, c.site)},
		"api_key": {c.apiKey},
		"num":     {strconv.Itoa(limit)},
		"hl":      {lang},
		"gl":      {region},
		"tbs":     {"qdr:m6"}, // last 6 months
	}

	var resp searchResponse
	err := c.retry.Do(ctx, "serp search", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), http.NoBody)
		if err != nil {
			return resilient.Permanent(fmt.Errorf("create request: %w", err))
		}

		res, err := c.httpc.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer res.Body.Close()

		switch {
		case res.StatusCode >= 200 && res.StatusCode < 300:
			if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
				return resilient.Permanent(fmt.Errorf("decode response: %w", err))
			}
			return nil
		case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500:
			return fmt.Errorf("status %d", res.StatusCode)
		default:
			return resilient.Permanent(fmt.Errorf("status %d", res.StatusCode))
		}
	})
	if err != nil {
		lgr.Printf("[WARN] serp search %q failed: %v", q.Text, err)
		return nil, nil
	}
	if resp.Error != "" {
		lgr.Printf("[WARN] serp search %q rejected: %s", q.Text, resp.Error)
		return nil, nil
	}

	posts := make([]domain.Post, 0, len(resp.OrganicResults))
	for _, item := range resp.OrganicResults {
		transactionType, regionCode := catalog.ParseTitleTags(item.Title)
		posts = append(posts, domain.Post{
			URL:             item.Link,
			Title:           item.Title,
			Preview:         domain.Clip(item.Snippet, domain.PreviewLimit),
			Source:          domain.SourceSearchEngine,
			Lang:            lang,
			TransactionType: transactionType,
			Region:          regionCode,
			CollectedAt:     c.now(),
		})
	}
	return posts, nil
}
