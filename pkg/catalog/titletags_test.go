package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTitleTags(t *testing.T) {
	tests := []struct {
		name            string
		title           string
		transactionType string
		region          string
	}{
		{
			name:            "tagged sale with short code",
			title:           "[WTS][USA] Seventeen photocard",
			transactionType: "WTS",
			region:          "USA",
		},
		{
			name:            "full country name maps to code",
			title:           "[Canada] selling NCT set",
			transactionType: "",
			region:          "CAN",
		},
		{
			name:            "lowercase tags",
			title:           "[wtb] [eu] twice lovelys",
			transactionType: "WTB",
			region:          "EU",
		},
		{
			name:            "transaction token outside brackets",
			title:           "wts bts proof set, worldwide shipping",
			transactionType: "WTS",
			region:          "",
		},
		{
			name:            "first matching bracket wins",
			title:           "[SEALED][US][JP] aespa albums",
			transactionType: "",
			region:          "USA",
		},
		{
			name:            "iso request",
			title:           "ISO le sserafim unforgiven pob",
			transactionType: "ISO",
			region:          "",
		},
		{
			name:            "unknown bracket segment",
			title:           "[PC SALE] stray kids 5-star",
			transactionType: "",
			region:          "",
		},
		{
			name:            "no tags at all",
			title:           "look at my collection!",
			transactionType: "",
			region:          "",
		},
		{
			name:            "padded bracket segment",
			title:           "[ UK ] enhypen border day one",
			transactionType: "",
			region:          "UK",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trans, region := ParseTitleTags(tt.title)
			assert.Equal(t, tt.transactionType, trans)
			assert.Equal(t, tt.region, region)
		})
	}
}

func TestParseTitleTags_PriorityOrder(t *testing.T) {
	// WTS is listed before WTT, so a compound title resolves to WTS
	trans, _ := ParseTitleTags("[WTS/WTT] ive photocards")
	assert.Equal(t, "WTS", trans)
}

func TestQueries(t *testing.T) {
	t.Run("feed queries", func(t *testing.T) {
		queries := FeedQueries("BTS")
		assert.Len(t, queries, 7)
		assert.Equal(t, "BTS photocard", queries[0])
		assert.Equal(t, "BTS selling", queries[6])
	})

	t.Run("serp queries", func(t *testing.T) {
		queries := SerpQueries("BTS", "kpopforsale")
		assert.Len(t, queries, 5)
		assert.Equal(t, "WTS BTS photocard", queries[0])
		assert.Equal(t, "kpopforsale BTS", queries[4])
	})
}
