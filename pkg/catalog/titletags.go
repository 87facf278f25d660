package catalog

import (
	"regexp"
	"strings"
)

var bracketRe = regexp.MustCompile(`\[([^\]]+)\]`)

// ParseTitleTags extracts the transaction type and region code from a post
// title, e.g. "[WTS][USA] Seventeen photocard" -> ("WTS", "USA").
//
// The transaction type is the first entry of the priority-ordered token list
// found as a case-insensitive substring anywhere in the title. The region is
// resolved from bracketed segments: each segment is upper-cased and checked
// against the country table in document order, first match wins. Both results
// are best-effort, missing or ambiguous tags yield empty strings.
func ParseTitleTags(title string) (transactionType, region string) {
	lower := strings.ToLower(title)
	for _, tt := range transactionTypes {
		if strings.Contains(lower, strings.ToLower(tt)) {
			transactionType = tt
			break
		}
	}

	for _, m := range bracketRe.FindAllStringSubmatch(strings.ToUpper(title), -1) {
		segment := strings.TrimSpace(m[1])
		if code, ok := countryCodes[segment]; ok {
			region = code
			break
		}
	}

	return transactionType, region
}
