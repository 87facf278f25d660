// Package feedapi implements the authenticated feed API client: the token
// session, the cursor-paginated listing fetcher and the community search.
// Raw payloads are normalized into domain.Post before leaving the package.
package feedapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-pkgz/lgr"
	"golang.org/x/time/rate"

	"github.com/evgsol/tradescope/pkg/domain"
	"github.com/evgsol/tradescope/pkg/resilient"
)

// ErrNotAuthenticated is returned when the session has no usable token and
// the exchange failed; the caller skips this source for the rest of the run
var ErrNotAuthenticated = errors.New("feed api not authenticated")

// searchWindow bounds community search results client-side, the server-side
// time filter is a hint only
const searchWindow = 180 * 24 * time.Hour

// Client talks to the feed API. All calls are synchronous; the limiter
// spaces consecutive requests to stay inside the upstream rate budget.
type Client struct {
	baseURL   string
	linkBase  string
	userAgent string
	pageSize  int
	session   *Session
	httpc     *http.Client
	retry     *resilient.Runner
	limiter   *rate.Limiter

	now func() time.Time
}

// ClientConfig holds Client dependencies and tunables
type ClientConfig struct {
	BaseURL    string
	LinkBase   string // prefix for permalink resolution
	UserAgent  string
	PageSize   int
	Throttle   time.Duration // min spacing between consecutive requests
	Session    *Session
	HTTPClient *http.Client
	Retry      *resilient.Runner
}

// NewClient creates a feed API client
func NewClient(cfg ClientConfig) *Client {
	if cfg.PageSize <= 0 || cfg.PageSize > 100 {
		cfg.PageSize = 100
	}
	if cfg.Throttle <= 0 {
		cfg.Throttle = time.Second
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		linkBase:  cfg.LinkBase,
		userAgent: cfg.UserAgent,
		pageSize:  cfg.PageSize,
		session:   cfg.Session,
		httpc:     cfg.HTTPClient,
		retry:     cfg.Retry,
		limiter:   rate.NewLimiter(rate.Every(cfg.Throttle), 1),
		now:       time.Now,
	}
}

// Available reports whether feed credentials are configured
func (c *Client) Available() bool { return c.session.Available() }

// Listing walks a community's reverse-chronological listing page by page.
// It stops at the accumulated limit, maxPages, an empty page, a missing next
// cursor, or the first record older than minDate (the feed is reverse
// chronological, so everything after it is out of range too). A mid-walk
// call failure ends pagination and returns what has been accumulated.
// The returned cursor is the last one seen, usable for resumption.
func (c *Client) Listing(ctx context.Context, community string, limit, maxPages int, minDate time.Time) ([]domain.Post, string, error) {
	var posts []domain.Post
	after := ""

	for page := 0; page < maxPages && len(posts) < limit; page++ {
		// re-checked every page, a token can expire mid-walk
		if !c.session.EnsureValid(ctx) {
			if page == 0 {
				return nil, "", ErrNotAuthenticated
			}
			lgr.Printf("[WARN] session expired while paginating r/%s, stopping", community)
			return posts, after, nil
		}

		if err := c.limiter.Wait(ctx); err != nil {
			lgr.Printf("[WARN] throttle wait interrupted for r/%s: %v, stopping", community, err)
			return posts, after, nil
		}

		params := url.Values{"limit": {strconv.Itoa(c.pageSize)}}
		if after != "" {
			params.Set("after", after)
		}
		reqURL := fmt.Sprintf("%s/r/%s/new?%s", c.baseURL, community, params.Encode())

		var resp listingResponse
		if err := c.getJSON(ctx, "list "+community, reqURL, &resp); err != nil {
			lgr.Printf("[WARN] listing r/%s page %d failed: %v", community, page+1, err)
			return posts, after, nil
		}

		if len(resp.Data.Children) == 0 {
			break
		}

		cutoffHit := false
		for _, child := range resp.Data.Children {
			post := normalizePost(child.Data, community, domain.SourceFeedListing, c.linkBase, c.now())
			if !minDate.IsZero() && post.CreatedAt != nil && post.CreatedAt.Before(minDate) {
				cutoffHit = true
				break
			}
			posts = append(posts, post)
			if len(posts) >= limit {
				break
			}
		}
		if cutoffHit {
			break
		}

		after = resp.Data.After
		if after == "" {
			break
		}
	}

	return posts, after, nil
}

// Search queries one community's search endpoint. Results older than the
// 180-day window are dropped client-side even when the server honored the
// window hint.
func (c *Client) Search(ctx context.Context, q domain.Query) ([]domain.Post, error) {
	if !c.session.EnsureValid(ctx) {
		return nil, ErrNotAuthenticated
	}

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil
	}

	params := url.Values{
		"q":           {q.Text},
		"limit":       {strconv.Itoa(limit)},
		"sort":        {"relevance"},
		"t":           {"year"},
		"restrict_sr": {"true"},
	}
	reqURL := fmt.Sprintf("%s/r/%s/search?%s", c.baseURL, q.Community, params.Encode())

	var resp listingResponse
	if err := c.getJSON(ctx, "search "+q.Community, reqURL, &resp); err != nil {
		lgr.Printf("[WARN] search r/%s %q failed: %v", q.Community, q.Text, err)
		return nil, nil
	}

	cutoff := c.now().Add(-searchWindow)
	posts := make([]domain.Post, 0, len(resp.Data.Children))
	for _, child := range resp.Data.Children {
		post := normalizePost(child.Data, q.Community, domain.SourceFeedSearch, c.linkBase, c.now())
		if post.CreatedAt != nil && post.CreatedAt.Before(cutoff) {
			continue
		}
		posts = append(posts, post)
	}

	return posts, nil
}

// getJSON performs an authenticated GET through the retry runner and decodes
// the response. 429 and 5xx responses count as transient, other non-2xx
// statuses are permanent and fail the call without retries.
func (c *Client) getJSON(ctx context.Context, name, reqURL string, out any) error {
	return c.retry.Do(ctx, name, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return resilient.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Authorization", c.session.authHeader())
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpc.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return resilient.Permanent(fmt.Errorf("decode response: %w", err))
			}
			return nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("status %d", resp.StatusCode)
		default:
			return resilient.Permanent(fmt.Errorf("status %d", resp.StatusCode))
		}
	})
}
