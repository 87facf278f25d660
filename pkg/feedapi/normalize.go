package feedapi

import (
	"strings"
	"time"

	"github.com/evgsol/tradescope/pkg/catalog"
	"github.com/evgsol/tradescope/pkg/domain"
)

// listingResponse is the wire shape shared by the listing and search endpoints
type listingResponse struct {
	Data struct {
		Children []struct {
			Data rawPost `json:"data"`
		} `json:"children"`
		After string `json:"after"`
	} `json:"data"`
}

// rawPost is one post as the feed API returns it. Only the fields the
// normalizer consumes are mapped; anything missing decodes to its zero value.
type rawPost struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	AuthorFlair string  `json:"author_flair_text"`
	Flair       string  `json:"link_flair_text"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	Selftext    string  `json:"selftext"`
	CreatedUTC  float64 `json:"created_utc"`
	Permalink   string  `json:"permalink"`
	URL         string  `json:"url"`
	IsGallery   bool    `json:"is_gallery"`

	GalleryData   *galleryData          `json:"gallery_data"`
	MediaMetadata map[string]mediaEntry `json:"media_metadata"`
	Preview       *previewBlock         `json:"preview"`
}

type galleryData struct {
	Items []galleryItem `json:"items"`
}

type galleryItem struct {
	MediaID string `json:"media_id"`
}

type mediaEntry struct {
	S mediaSource `json:"s"`
}

type mediaSource struct {
	U string `json:"u"`
}

type previewBlock struct {
	Images []previewImage `json:"images"`
}

type previewImage struct {
	Source previewSource `json:"source"`
}

type previewSource struct {
	URL string `json:"url"`
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// normalizePost maps a raw feed payload into the canonical record. Title
// tags are parsed, the first media URL resolved and the body clipped to its
// cap. Shape anomalies never error, fields default instead.
func normalizePost(raw rawPost, community string, source domain.SourceKind, linkBase string, now time.Time) domain.Post {
	transactionType, region := catalog.ParseTitleTags(raw.Title)

	var createdAt *time.Time
	if raw.CreatedUTC > 0 {
		ts := time.Unix(int64(raw.CreatedUTC), 0)
		createdAt = &ts
	}

	return domain.Post{
		URL:             linkBase + raw.Permalink,
		Title:           raw.Title,
		Body:            domain.Clip(raw.Selftext, domain.BodyLimit),
		Author:          raw.Author,
		AuthorFlair:     raw.AuthorFlair,
		Flair:           raw.Flair,
		Community:       community,
		Source:          source,
		Lang:            "en",
		CreatedAt:       createdAt,
		Score:           raw.Score,
		Comments:        raw.NumComments,
		TransactionType: transactionType,
		Region:          region,
		MediaURL:        firstMediaURL(raw),
		IsGallery:       raw.IsGallery,
		CollectedAt:     now,
	}
}

// firstMediaURL resolves the post's first media URL. Precedence: gallery
// metadata (first gallery entry), then a direct image-extension URL, then
// the first structured preview image. Absence of all three is fine.
func firstMediaURL(raw rawPost) string {
	if raw.IsGallery && raw.GalleryData != nil && len(raw.GalleryData.Items) > 0 {
		first := raw.GalleryData.Items[0].MediaID
		if meta, ok := raw.MediaMetadata[first]; ok && meta.S.U != "" {
			return meta.S.U
		}
	}

	if hasImageExtension(raw.URL) {
		return raw.URL
	}

	if raw.Preview != nil && len(raw.Preview.Images) > 0 {
		return raw.Preview.Images[0].Source.URL
	}

	return ""
}

func hasImageExtension(u string) bool {
	lower := strings.ToLower(u)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
