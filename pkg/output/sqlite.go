package output

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/evgsol/tradescope/pkg/domain"
)

//go:embed schema.sql
var schema string

// Archive stores collected posts in a SQLite database, keyed by URL so
// re-archiving a run is idempotent
type Archive struct {
	conn *sqlx.DB
}

// NewArchive opens (and initializes if needed) the archive database at dsn
func NewArchive(dsn string) (*Archive, error) {
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			return nil, fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	if _, err := conn.Exec(schema); err != nil {
		return nil, fmt.Errorf("init archive schema: %w", err)
	}

	return &Archive{conn: conn}, nil
}

// dbPost mirrors the posts table
type dbPost struct {
	URL             string     `db:"url"`
	Title           string     `db:"title"`
	BodyExcerpt     string     `db:"body_excerpt"`
	PreviewExcerpt  string     `db:"preview_excerpt"`
	Author          *string    `db:"author"`
	AuthorFlair     *string    `db:"author_flair"`
	Flair           *string    `db:"flair"`
	OriginGroup     *string    `db:"origin_group"`
	SourceKind      string     `db:"source_kind"`
	LanguageCode    string     `db:"language_code"`
	CreatedAt       *time.Time `db:"created_at"`
	EngagementScore int        `db:"engagement_score"`
	ReplyCount      int        `db:"reply_count"`
	TransactionType *string    `db:"transaction_type"`
	RegionCode      *string    `db:"region_code"`
	FirstMediaURL   *string    `db:"first_media_url"`
	IsMultiMedia    bool       `db:"is_multi_media"`
	CollectedAt     time.Time  `db:"collected_at"`
}

// Store upserts posts in one transaction
func (a *Archive) Store(ctx context.Context, posts []domain.Post) error {
	tx, err := a.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	query := `
		INSERT OR REPLACE INTO posts (
			url, title, body_excerpt, preview_excerpt, author, author_flair,
			flair, origin_group, source_kind, language_code, created_at,
			engagement_score, reply_count, transaction_type, region_code,
			first_media_url, is_multi_media, collected_at
		) VALUES (
			:url, :title, :body_excerpt, :preview_excerpt, :author, :author_flair,
			:flair, :origin_group, :source_kind, :language_code, :created_at,
			:engagement_score, :reply_count, :transaction_type, :region_code,
			:first_media_url, :is_multi_media, :collected_at
		)
	`
	for i := range posts {
		if _, err := tx.NamedExecContext(ctx, query, toDBPost(&posts[i])); err != nil {
			return fmt.Errorf("archive post %s: %w", posts[i].URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive tx: %w", err)
	}
	return nil
}

// Count returns the number of archived posts
func (a *Archive) Count(ctx context.Context) (int, error) {
	var count int
	if err := a.conn.GetContext(ctx, &count, "SELECT COUNT(*) FROM posts"); err != nil {
		return 0, fmt.Errorf("count archived posts: %w", err)
	}
	return count, nil
}

// Close closes the underlying database
func (a *Archive) Close() error {
	return a.conn.Close()
}

func toDBPost(p *domain.Post) dbPost {
	return dbPost{
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
		CreatedAt:       p.CreatedAt,
		EngagementScore: p.Score,
		ReplyCount:      p.Comments,
		TransactionType: nullable(p.TransactionType),
		RegionCode:      nullable(p.Region),
		FirstMediaURL:   nullable(p.MediaURL),
		IsMultiMedia:    p.IsGallery,
		CollectedAt:     p.CollectedAt,
	}
}
