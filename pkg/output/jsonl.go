// Package output persists the final result set: one-per-line JSON records,
// plus an optional sqlite archive for ad-hoc querying.
package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evgsol/tradescope/pkg/domain"
)

// record is the wire shape of one output line. Absent optional fields render
// as explicit nulls, timestamps as ISO-8601 strings.
type record struct {
	URL             string  `json:"url"`
	Title           string  `json:"title"`
	BodyExcerpt     string  `json:"body_excerpt"`
	PreviewExcerpt  string  `json:"preview_excerpt"`
	Author          *string `json:"author"`
	AuthorFlair     *string `json:"author_flair"`
	Flair           *string `json:"flair"`
	OriginGroup     *string `json:"origin_group"`
	SourceKind      string  `json:"source_kind"`
	LanguageCode    string  `json:"language_code"`
	CreatedAt       *string `json:"created_at"`
	EngagementScore int     `json:"engagement_score"`
	ReplyCount      int     `json:"reply_count"`
	TransactionType *string `json:"transaction_type"`
	RegionCode      *string `json:"region_code"`
	FirstMediaURL   *string `json:"first_media_url"`
	IsMultiMedia    bool    `json:"is_multi_media"`
	CollectedAt     string  `json:"collected_at"`
}

func toRecord(p *domain.Post) record {
	rec := record{
		URL:             p.URL,
		Title:           p.Title,
		BodyExcerpt:     p.Body,
		PreviewExcerpt:  p.Preview,
		Author:          nullable(p.Author),
		AuthorFlair:     nullable(p.AuthorFlair),
		Flair:           nullable(p.Flair),
		OriginGroup:     nullable(p.Community),
		SourceKind:      string(p.Source),
		LanguageCode:    p.Lang,
		EngagementScore: p.Score,
		ReplyCount:      p.Comments,
		TransactionType: nullable(p.TransactionType),
		RegionCode:      nullable(p.Region),
		FirstMediaURL:   nullable(p.MediaURL),
		IsMultiMedia:    p.IsGallery,
		CollectedAt:     p.CollectedAt.Format(time.RFC3339),
	}
	if p.CreatedAt != nil {
		created := p.CreatedAt.Format(time.RFC3339)
		rec.CreatedAt = &created
	}
	return rec
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// WriteJSONL writes posts to path as JSON lines, creating parent directories
// as needed
func WriteJSONL(path string, posts []domain.Post) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.Create(path) //nolint:gosec // path comes from CLI flag
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false) // keep URLs and non-ascii text readable

	for i := range posts {
		if err := enc.Encode(toRecord(&posts[i])); err != nil {
			return fmt.Errorf("encode record %s: %w", posts[i].URL, err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

// DefaultPath builds the conventional output file name under dataDir:
// <artist>_trade_<timestamp>.jsonl, or the all-artists variant when no
// artist is set
func DefaultPath(dataDir, artist string, now time.Time) string {
	stamp := now.Format("20060102_1504")
	if artist == "" {
		return filepath.Join(dataDir, fmt.Sprintf("kpop_all_trade_%s.jsonl", stamp))
	}
	safe := strings.ReplaceAll(strings.ToLower(artist), " ", "_")
	return filepath.Join(dataDir, fmt.Sprintf("%s_trade_%s.jsonl", safe, stamp))
}
