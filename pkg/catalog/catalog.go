// Package catalog holds the static lookup tables the collector consults:
// community list, artist alias map, trade keywords and the country/region
// table used by the title-tag parser. Tables are package-level and treated
// as immutable; config may supply replacements for the overridable ones.
package catalog

import "fmt"

// Communities polled by the paginated fetcher, in visit order
var Communities = []string{
	"kpopforsale",
	"kpopcollections",
	"kpoptrade",
	"adultkpopfans",
}

// TradeKeywords classify a post as an actual listing when any of them
// appears in title+preview+body. English jargon plus Korean trade terms.
var TradeKeywords = []string{
	"wts", "wtb", "wtt", "trade", "trading", "selling", "buying",
	"for sale", "iso", "양도", "판매", "구해", "삽니다", "팝니다", "교환",
}

// ArtistAliases maps a lower-cased canonical artist name to alternate
// spellings and scripts. Artists without an entry match on their own name only.
var ArtistAliases = map[string][]string{
	"seventeen":   {"svt", "세븐틴", "sebong"},
	"bts":         {"방탄소년단", "bangtan"},
	"twice":       {"트와이스"},
	"blackpink":   {"블랙핑크", "블핑"},
	"stray kids":  {"skz", "스트레이키즈", "스키즈"},
	"newjeans":    {"뉴진스", "nj"},
	"aespa":       {"에스파"},
	"nct":         {"엔시티"},
	"exo":         {"엑소"},
	"red velvet":  {"레드벨벳", "레벨"},
	"itzy":        {"있지"},
	"txt":         {"투모로우바이투게더", "tomorrow x together"},
	"enhypen":     {"엔하이픈"},
	"ive":         {"아이브"},
	"le sserafim": {"르세라핌"},
}

// transactionTypes in priority order, first case-insensitive hit wins.
// Compound tokens are listed explicitly, there is no combination logic.
var transactionTypes = []string{"WTS", "WTB", "WTT", "WTT/WTS", "WTS/WTT", "ISO"}

// countryCodes maps upper-cased bracket segments to canonical region codes.
// Both short codes and full country names resolve to the same code.
var countryCodes = map[string]string{
	// codes
	"USA": "USA", "US": "USA", "UK": "UK", "EU": "EU", "WW": "WW",
	"CAN": "CAN", "CA": "CAN", "AUS": "AUS", "AU": "AUS",
	"KR": "KR", "JP": "JP", "SG": "SG", "PH": "PH", "MY": "MY",
	"TH": "TH", "ID": "ID", "VN": "VN", "TW": "TW", "HK": "HK",
	"NZ": "NZ", "DE": "DE", "FR": "FR", "NL": "NL", "IT": "IT",
	"ES": "ES", "BR": "BR", "MX": "MX", "IN": "IN",
	// full names
	"CANADA": "CAN", "AUSTRALIA": "AUS", "KOREA": "KR", "JAPAN": "JP",
	"SINGAPORE": "SG", "PHILIPPINES": "PH", "MALAYSIA": "MY",
	"THAILAND": "TH", "INDONESIA": "ID", "VIETNAM": "VN",
	"TAIWAN": "TW", "GERMANY": "DE", "FRANCE": "FR",
	"NETHERLANDS": "NL", "ITALY": "IT", "SPAIN": "ES",
	"BRAZIL": "BR", "MEXICO": "MX", "INDIA": "IN",
}

// FeedQueries returns the targeted feed-search queries for an artist
func FeedQueries(artist string) []string {
	return []string{
		fmt.Sprintf("%s photocard", artist),
		fmt.Sprintf("%s pc", artist),
		fmt.Sprintf("%s WTS", artist),
		fmt.Sprintf("%s WTB", artist),
		fmt.Sprintf("%s WTT", artist),
		fmt.Sprintf("%s trade", artist),
		fmt.Sprintf("%s selling", artist),
	}
}

// SerpQueries returns the search-engine queries for an artist. The last one
// combines the primary community name with the artist to catch posts the
// tag-prefixed queries miss.
func SerpQueries(artist, community string) []string {
	return []string{
		fmt.Sprintf("WTS %s photocard", artist),
		fmt.Sprintf("WTB %s photocard", artist),
		fmt.Sprintf("WTT %s photocard", artist),
		fmt.Sprintf("%s 포토카드 양도", artist),
		fmt.Sprintf("%s %s", community, artist),
	}
}
