package domain

import (
	"strings"
	"time"
)

// SourceKind identifies which upstream produced a post
type SourceKind string

const (
	SourceFeedListing  SourceKind = "feed-listing"
	SourceFeedSearch   SourceKind = "feed-search"
	SourceSearchEngine SourceKind = "search-engine"
)

// Post represents a single normalized trade listing collected from any upstream.
// Posts are value objects: constructed once during normalization and never
// mutated afterwards.
type Post struct {
	URL             string     // permalink, dedup key after trailing-slash trim
	Title           string
	Body            string     // post body, capped at 500 chars
	Preview         string     // search snippet, capped at 200 chars
	Author          string
	AuthorFlair     string
	Flair           string
	Community       string     // origin community, empty for search-engine results
	Source          SourceKind
	Lang            string
	CreatedAt       *time.Time // nil when the upstream exposes no timestamp
	Score           int
	Comments        int
	TransactionType string // parsed from title tags, e.g. WTS/WTB/WTT
	Region          string // parsed from bracketed title segments
	MediaURL        string
	IsGallery       bool
	CollectedAt     time.Time
}

// CanonicalURL returns the dedup key: the permalink with trailing slashes stripped
func (p *Post) CanonicalURL() string {
	return strings.TrimRight(p.URL, "/")
}

// CombinedText returns lower-cased title+preview+body, the haystack for
// topic and trade-keyword matching
func (p *Post) CombinedText() string {
	return strings.ToLower(p.Title + " " + p.Preview + " " + p.Body)
}

// excerpt caps applied during normalization
const (
	BodyLimit    = 500
	PreviewLimit = 200
)

// Clip truncates s to at most max runes. Rune-based so multi-byte scripts
// are never cut mid-character.
func Clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// Query describes one keyword search against any search-capable source.
// Community and Lang are hints: the feed search uses Community, the
// search-engine query uses Lang, each ignores the other.
type Query struct {
	Text      string
	Community string
	Lang      string
	Limit     int
}
