package catalog

import (
	"strings"

	"github.com/resulam/royalties/internal/language"
	"github.com/resulam/royalties/internal/reference"
	"github.com/resulam/royalties/internal/textnorm"
)

// Index resolves sales titles to nicknames, author credits, and languages.
// Every lookup is total: when nothing matches, it degrades to a best-effort
// default instead of failing, because reconciliation misses are data-quality
// issues for reporting, not fatal errors.
//
// Each lookup is a chain: exact match first, then a match on the folded
// (accent-stripped, case- and punctuation-insensitive) form. The folded pass
// exists because the catalog and the sales export encode the same title with
// different apostrophe and quote code points.
type Index struct {
	tables *reference.Tables

	authorsByTitle   map[string]string
	languageByTitle  map[string]string
	languageByFolded map[string]string
	nicknameByFolded map[string]string
}

// NewIndex builds the lookup index from the cleaned catalog entries and the
// reference tables.
func NewIndex(entries []Entry, tables *reference.Tables) *Index {
	ix := &Index{
		tables:           tables,
		authorsByTitle:   make(map[string]string, len(entries)),
		languageByTitle:  make(map[string]string, len(entries)),
		languageByFolded: make(map[string]string, len(entries)),
		nicknameByFolded: make(map[string]string, len(tables.Nicknames)),
	}

	for _, entry := range entries {
		if entry.Title == "" {
			continue
		}
		ix.authorsByTitle[entry.Title] = entry.Authors
		if entry.Language != "" {
			ix.languageByTitle[entry.Title] = entry.Language
			ix.languageByFolded[textnorm.Fold(entry.Title)] = entry.Language
		}
	}

	for title, nick := range tables.Nicknames {
		ix.nicknameByFolded[textnorm.Fold(title)] = nick
	}

	return ix
}

// Nickname resolves a title to its short book identifier: exact nickname
// table hit, then folded hit, then the trimmed title itself.
func (ix *Index) Nickname(title string) string {
	trimmed := strings.TrimSpace(title)

	if nick, ok := ix.tables.Nicknames[trimmed]; ok {
		return nick
	}
	if nick, ok := ix.nicknameByFolded[textnorm.Fold(trimmed)]; ok {
		return nick
	}
	return trimmed
}

// Authors resolves a title to its credit string. Hand-verified override
// rules win over the catalog; with no match anywhere, the default publisher
// credit applies.
func (ix *Index) Authors(title string) string {
	lower := strings.ToLower(title)
	for _, rule := range ix.tables.AuthorOverrides {
		haystack := title
		if rule.FoldCase {
			haystack = lower
		}
		for _, needle := range rule.Contains {
			if strings.Contains(haystack, needle) {
				return rule.Authors
			}
		}
	}

	if authors, ok := ix.authorsByTitle[title]; ok && authors != "" {
		return authors
	}
	return ix.tables.DefaultAuthors
}

// Language resolves a title's language: exact catalog hit, folded catalog
// hit, then the keyword classifier (which itself defaults to "Other").
func (ix *Index) Language(title string) string {
	trimmed := strings.TrimSpace(title)

	if lang, ok := ix.languageByTitle[trimmed]; ok && lang != "" {
		return lang
	}
	if lang, ok := ix.languageByFolded[textnorm.Fold(trimmed)]; ok {
		return lang
	}
	return language.Classify(trimmed, ix.tables.LanguageRules)
}
