// Package catalog loads the books reference catalog and builds the lookup
// index that reconciles sales titles to nicknames, authors, and languages.
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/resulam/royalties/internal/reference"
	"github.com/resulam/royalties/internal/textnorm"
)

// Entry is one book edition from the reference catalog. Read-only once
// loaded; the pipeline never mutates it.
type Entry struct {
	ID        string `json:"id" parquet:"id"`
	Title     string `json:"title" parquet:"title"`
	Authors   string `json:"authors" parquet:"authors"`
	Language  string `json:"language_name" parquet:"language_name"`
	Category  string `json:"category" parquet:"category"`
	Nickname  string `json:"book_nick_name" parquet:"book_nick_name"`
	Paperback string `json:"paperback" parquet:"paperback"`
	Ebook     string `json:"ebook" parquet:"ebook"`
	HardCover string `json:"hard_cover" parquet:"hard_cover"`
}

// dateSuffix matches a trailing " – June 23, 2015" style suffix some catalog
// titles carry; the sales feed titles never do, so it has to go before join.
var dateSuffix = regexp.MustCompile(`\.?\s*[–-]\s*(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}\.?,?\s*$`)

// NormalizeTitle applies the ordered title substitutions, strips a trailing
// date suffix, and trims. This is the canonical title form both sources are
// joined on.
func NormalizeTitle(title string, subs []reference.Substitution) string {
	for _, sub := range subs {
		// Skip titles that already carry the expanded form, otherwise a
		// substitution whose replacement contains its own key would stack.
		if sub.To != "" && strings.Contains(title, sub.To) {
			continue
		}
		title = strings.ReplaceAll(title, sub.From, sub.To)
	}
	title = dateSuffix.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}

// LoadCSV reads the books catalog, cleaning each entry: cells trimmed and
// whitespace-collapsed, titles canonicalized, author strings mapped through
// the canonical-author table.
func LoadCSV(path string, tables *reference.Tables) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open books catalog %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read books catalog header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"id", "title", "authors"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("books catalog %s is missing column %q", path, required)
		}
	}

	field := func(row []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return textnorm.CollapseSpaces(row[idx])
	}

	var entries []Entry
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to parse books catalog line %d: %w", line, err)
		}

		entry := Entry{
			ID:        field(row, "id"),
			Title:     NormalizeTitle(field(row, "title"), tables.Titles),
			Authors:   tables.CanonicalAuthor(field(row, "authors")),
			Language:  field(row, "language_name"),
			Category:  field(row, "category"),
			Nickname:  field(row, "book_nick_name"),
			Paperback: field(row, "paperback"),
			Ebook:     field(row, "ebook"),
			HardCover: field(row, "hard_cover"),
		}
		entries = append(entries, entry)
	}

	slog.Debug("Loaded books catalog", "path", path, "entries", len(entries))

	return entries, nil
}
