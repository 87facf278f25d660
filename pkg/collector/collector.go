// Package collector orchestrates the collection pipeline: it drives the
// paginated feed fetcher and the keyword query fetchers, merges their
// results, deduplicates by canonical URL, applies the topic and
// trade-relevance filters, ranks by recency and truncates to the requested
// limit. Every upstream failure degrades to an empty contribution from that
// source, nothing here is fatal.
package collector

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/evgsol/tradescope/pkg/catalog"
	"github.com/evgsol/tradescope/pkg/domain"
	"github.com/evgsol/tradescope/pkg/feedapi"
)

// Searcher is the single capability both query strategies implement; the
// collector treats feed search and search-engine queries uniformly through it
type Searcher interface {
	Search(ctx context.Context, q domain.Query) ([]domain.Post, error)
}

// FeedSource is the authenticated feed upstream: cursor-paginated listings
// plus per-community search
type FeedSource interface {
	Searcher
	Available() bool
	Listing(ctx context.Context, community string, limit, maxPages int, minDate time.Time) ([]domain.Post, string, error)
}

// SerpSource is the search-engine upstream
type SerpSource interface {
	Searcher
	Available() bool
}

// Mode selects which upstreams contribute to a run
type Mode string

const (
	ModeBoth Mode = "both"
	ModeFeed Mode = "feed"
	ModeSerp Mode = "serp"
)

// Params bound one collection run
type Params struct {
	Artist   string // empty means no topic filter
	Limit    int    // max records in the final result
	MaxPages int    // pagination cap per community
	Months   int    // lookback window, months of 30 days
	Mode     Mode
}

// withDefaults fills unset params with the standard run bounds
func (p Params) withDefaults() Params {
	if p.Limit <= 0 {
		p.Limit = 500
	}
	if p.MaxPages <= 0 {
		p.MaxPages = 5
	}
	if p.Months <= 0 {
		p.Months = 6
	}
	if p.Mode == "" {
		p.Mode = ModeBoth
	}
	return p
}

// targeted query fan-out: first N communities get the first M feed-search
// queries each when an artist is set
const (
	searchCommunities = 2
	searchQueries     = 2
	searchLimit       = 50
)

// Collector aggregates posts from all configured sources
type Collector struct {
	feed        FeedSource
	serp        SerpSource
	communities []string
	aliases     map[string][]string
	keywords    []string
	throttle    time.Duration

	sleep func(time.Duration)
	now   func() time.Time
}

// Config holds Collector dependencies. Communities, aliases and keywords
// default to the catalog tables when unset.
type Config struct {
	Feed        FeedSource
	Serp        SerpSource
	Communities []string
	Aliases     map[string][]string
	Keywords    []string
	Throttle    time.Duration
}

// New creates a collector with the provided configuration
func New(cfg Config) *Collector {
	if len(cfg.Communities) == 0 {
		cfg.Communities = catalog.Communities
	}
	if cfg.Aliases == nil {
		cfg.Aliases = catalog.ArtistAliases
	}
	if len(cfg.Keywords) == 0 {
		cfg.Keywords = catalog.TradeKeywords
	}
	if cfg.Throttle <= 0 {
		cfg.Throttle = time.Second
	}
	return &Collector{
		feed:        cfg.Feed,
		serp:        cfg.Serp,
		communities: cfg.Communities,
		aliases:     cfg.Aliases,
		keywords:    cfg.Keywords,
		throttle:    cfg.Throttle,
		sleep:       time.Sleep,
		now:         time.Now,
	}
}

// Collect runs the full pipeline and returns the ranked, truncated result.
// An empty result is not an error.
func (c *Collector) Collect(ctx context.Context, params Params) ([]domain.Post, error) {
	p := params.withDefaults()

	var all []domain.Post

	if p.Mode == ModeBoth || p.Mode == ModeFeed {
		posts := c.collectFeed(ctx, p)
		lgr.Printf("[INFO] feed api contributed %d posts", len(posts))
		all = append(all, posts...)
	}

	if p.Mode == ModeBoth || p.Mode == ModeSerp {
		switch {
		case p.Artist == "":
			lgr.Printf("[INFO] search engine skipped, unscoped queries need an artist")
		case !c.serp.Available():
			lgr.Printf("[WARN] search engine key not configured, source skipped")
		default:
			posts := c.collectSerp(ctx, p.Artist)
			lgr.Printf("[INFO] search engine contributed %d posts", len(posts))
			all = append(all, posts...)
		}
	}

	posts := Dedup(all)
	lgr.Printf("[INFO] %d posts after dedup", len(posts))

	if p.Artist != "" {
		posts = c.filterTopic(posts, p.Artist)
		lgr.Printf("[INFO] %d posts after artist filter %q", len(posts), p.Artist)
	}

	posts = c.filterTrade(posts)
	lgr.Printf("[INFO] %d posts after trade-relevance filter", len(posts))

	rank(posts)
	if len(posts) > p.Limit {
		posts = posts[:p.Limit]
	}
	return posts, nil
}

// collectFeed walks each community's listing, then issues a small number of
// targeted search queries when an artist is set. An auth failure skips the
// feed source for the rest of the run.
func (c *Collector) collectFeed(ctx context.Context, p Params) []domain.Post {
	if !c.feed.Available() {
		lgr.Printf("[WARN] feed api credentials not configured, source skipped")
		return nil
	}

	minDate := c.now().Add(-time.Duration(p.Months) * 30 * 24 * time.Hour)
	lgr.Printf("[INFO] collecting since %s (%d months)", minDate.Format("2006-01-02"), p.Months)

	var all []domain.Post
	for i, community := range c.communities {
		posts, _, err := c.feed.Listing(ctx, community, p.Limit, p.MaxPages, minDate)
		if err != nil {
			if errors.Is(err, feedapi.ErrNotAuthenticated) {
				lgr.Printf("[WARN] feed auth failed, source skipped for this run")
				return all
			}
			lgr.Printf("[WARN] listing r/%s failed: %v", community, err)
			continue
		}

		lgr.Printf("[INFO] r/%s: %d posts (oldest %s)", community, len(posts), oldestDate(posts))
		all = append(all, posts...)

		if i < len(c.communities)-1 {
			c.sleep(c.throttle)
		}
	}

	if p.Artist == "" {
		return all
	}

	queries := catalog.FeedQueries(p.Artist)
	if len(queries) > searchQueries {
		queries = queries[:searchQueries]
	}
	communities := c.communities
	if len(communities) > searchCommunities {
		communities = communities[:searchCommunities]
	}

	for _, community := range communities {
		for _, query := range queries {
			posts, err := c.feed.Search(ctx, domain.Query{Text: query, Community: community, Limit: searchLimit})
			if err != nil {
				if errors.Is(err, feedapi.ErrNotAuthenticated) {
					lgr.Printf("[WARN] feed auth failed, search queries skipped")
					return all
				}
				lgr.Printf("[WARN] feed search %q in r/%s failed: %v", query, community, err)
				continue
			}
			lgr.Printf("[DEBUG] feed search %q in r/%s: %d posts", query, community, len(posts))
			all = append(all, posts...)
			c.sleep(c.throttle)
		}
	}
	return all
}

// collectSerp runs the fixed search-engine query set for an artist
func (c *Collector) collectSerp(ctx context.Context, artist string) []domain.Post {
	var all []domain.Post
	for _, query := range catalog.SerpQueries(artist, c.communities[0]) {
		posts, err := c.serp.Search(ctx, domain.Query{Text: query, Lang: "en"})
		if err != nil {
			lgr.Printf("[WARN] serp query %q failed: %v", query, err)
			continue
		}
		lgr.Printf("[DEBUG] serp query %q: %d posts", query, len(posts))
		all = append(all, posts...)
	}
	return all
}

// Dedup keeps the first-seen post per canonical URL, preserving insertion
// order. Later duplicates are dropped regardless of source.
func Dedup(posts []domain.Post) []domain.Post {
	seen := make(map[string]struct{}, len(posts))
	out := make([]domain.Post, 0, len(posts))
	for _, p := range posts {
		key := p.CanonicalURL()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

// filterTopic keeps posts mentioning the artist or any configured alias
func (c *Collector) filterTopic(posts []domain.Post, artist string) []domain.Post {
	variants := append([]string{strings.ToLower(artist)}, c.aliases[strings.ToLower(artist)]...)

	out := posts[:0]
	for _, p := range posts {
		text := p.CombinedText()
		for _, v := range variants {
			if strings.Contains(text, v) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// filterTrade keeps posts with a parsed transaction tag or any trade keyword
// in title+preview+body
func (c *Collector) filterTrade(posts []domain.Post) []domain.Post {
	out := posts[:0]
	for _, p := range posts {
		if p.TransactionType != "" {
			out = append(out, p)
			continue
		}
		text := p.CombinedText()
		for _, kw := range c.keywords {
			if strings.Contains(text, kw) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// rank sorts posts by created time descending; posts without a timestamp
// sort as oldest and sink to the end
func rank(posts []domain.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		var ti, tj time.Time
		if posts[i].CreatedAt != nil {
			ti = *posts[i].CreatedAt
		}
		if posts[j].CreatedAt != nil {
			tj = *posts[j].CreatedAt
		}
		return ti.After(tj)
	})
}

func oldestDate(posts []domain.Post) string {
	var oldest time.Time
	for _, p := range posts {
		if p.CreatedAt != nil && (oldest.IsZero() || p.CreatedAt.Before(oldest)) {
			oldest = *p.CreatedAt
		}
	}
	if oldest.IsZero() {
		return "n/a"
	}
	return oldest.Format("2006-01-02")
}
