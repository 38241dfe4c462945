// Package language classifies a book's language from its title when no
// catalog entry resolves it.
package language

import (
	"strings"

	"github.com/resulam/royalties/internal/reference"
)

// Other is the catch-all language for titles no rule matches.
const Other = "Other"

// Classify tests the ordered keyword rules against a title and returns the
// first matching language. Keywords match the lowercased title; raw keywords
// match the title as-is, which matters for diacritic sequences.
func Classify(title string, rules []reference.KeywordRule) string {
	lower := strings.ToLower(title)

	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Language
			}
		}
		for _, kw := range rule.RawKeywords {
			if strings.Contains(title, kw) {
				return rule.Language
			}
		}
	}

	return Other
}
