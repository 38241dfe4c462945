// Package reference holds the static lookup tables the pipeline matches
// against: canonical author names, title substitutions, book nicknames,
// language keyword rules, exchange rates, and marketplace countries.
//
// The defaults ship embedded in the binary; an override file with the same
// layout can be loaded instead, which is how tests substitute tables.
package reference

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var defaultTables []byte

// Substitution is an ordered substring replacement applied to titles before
// any other title processing.
type Substitution struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// AuthorRule maps titles containing one of the given substrings to a
// hand-verified author list. These exist because the catalog's author field
// is wrong or missing for the affected titles, so they win over the catalog.
type AuthorRule struct {
	Contains []string `yaml:"contains"`
	FoldCase bool     `yaml:"fold_case,omitempty"` // match on the lowercased title
	Authors  string   `yaml:"authors"`
}

// KeywordRule classifies a title's language by substring. Keywords match
// against the lowercased title; RawKeywords match the title as-is, for
// diacritic sequences that lowercasing would disturb.
type KeywordRule struct {
	Language    string   `yaml:"language"`
	Keywords    []string `yaml:"keywords,omitempty"`
	RawKeywords []string `yaml:"raw_keywords,omitempty"`
}

// Tables is the full set of reference data. Treat as read-only once loaded.
type Tables struct {
	// Publisher is the royalty-pool beneficiary implicit in every credit
	// string that does not already list it.
	Publisher string `yaml:"publisher"`

	// DefaultAuthors is the credit string used when no lookup resolves.
	DefaultAuthors string `yaml:"default_authors"`

	// Authors maps known variant spellings (accents, word order, typos in
	// the source feed) to the canonical author name.
	Authors map[string]string `yaml:"authors"`

	// Titles are substring substitutions applied in order.
	Titles []Substitution `yaml:"titles"`

	// Nicknames maps known titles to short internal book identifiers.
	Nicknames map[string]string `yaml:"nicknames"`

	// AuthorOverrides are checked in order before any catalog lookup.
	AuthorOverrides []AuthorRule `yaml:"author_overrides"`

	// LanguageRules are checked in order; more specific rules first.
	LanguageRules []KeywordRule `yaml:"language_rules"`

	// Rates maps a currency code to its USD multiplier. Hardcoded fallback
	// for when live rates are unavailable.
	Rates map[string]float64 `yaml:"rates"`

	// Marketplaces maps a sales marketplace to its country.
	Marketplaces map[string]string `yaml:"marketplaces"`
}

// Default returns the embedded reference tables.
func Default() (*Tables, error) {
	return parse(defaultTables)
}

// Load reads reference tables from a YAML file on disk.
func Load(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference tables: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse reference tables: %w", err)
	}

	if t.Nicknames == nil {
		t.Nicknames = make(map[string]string)
	}

	// The interactive Nùfī Attic series shares one nickname across its
	// eight volumes.
	for i := 1; i <= 8; i++ {
		key := fmt.Sprintf("Nùfī Attic - Le Grenier du Nùfī - KAM %d:", i)
		if _, ok := t.Nicknames[key]; !ok {
			t.Nicknames[key] = "nufi_attic_interactive"
		}
	}

	return &t, nil
}

// CanonicalAuthor maps a single author name through the variant table,
// returning the input unchanged when no variant matches.
func (t *Tables) CanonicalAuthor(name string) string {
	if canonical, ok := t.Authors[name]; ok {
		return canonical
	}
	return name
}

// Rate returns the USD multiplier for a currency code, defaulting unknown
// currencies to a 1:1 rate.
func (t *Tables) Rate(currency string) float64 {
	if rate, ok := t.Rates[currency]; ok {
		return rate
	}
	return 1.0
}
