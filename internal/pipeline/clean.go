package pipeline

import (
	"github.com/resulam/royalties/internal/catalog"
	"github.com/resulam/royalties/internal/reference"
	"github.com/resulam/royalties/internal/sales"
	"github.com/resulam/royalties/internal/textnorm"
)

// Cleaner normalizes raw sales records before reconciliation: cell-level
// whitespace cleanup, title canonicalization, and exact-match author
// substitution. Author substitution here is deliberately exact-match only —
// it corrects known systematic misspellings in the source feed, while
// catalog mismatches are handled later by the folded index lookups.
type Cleaner struct {
	tables *reference.Tables
}

// NewCleaner creates a cleaner using the given reference tables.
func NewCleaner(tables *reference.Tables) *Cleaner {
	return &Cleaner{tables: tables}
}

// Clean returns a normalized copy of the record.
func (c *Cleaner) Clean(rec sales.Record) sales.Record {
	rec.Title = catalog.NormalizeTitle(textnorm.CollapseSpaces(rec.Title), c.tables.Titles)
	rec.Authors = c.tables.CanonicalAuthor(textnorm.CollapseSpaces(rec.Authors))
	rec.EditionID = textnorm.CollapseSpaces(rec.EditionID)
	rec.Marketplace = textnorm.CollapseSpaces(rec.Marketplace)
	rec.RoyaltyType = textnorm.CollapseSpaces(rec.RoyaltyType)
	rec.TransactionType = textnorm.CollapseSpaces(rec.TransactionType)
	rec.Currency = textnorm.CollapseSpaces(rec.Currency)
	return rec
}
