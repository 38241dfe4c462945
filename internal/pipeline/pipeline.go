// Package pipeline reconciles the raw sales export against the books catalog
// and derives the analytics-ready royalty tables.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resulam/royalties/internal/catalog"
	"github.com/resulam/royalties/internal/reference"
	"github.com/resulam/royalties/internal/sales"
)

// Options configures a pipeline run.
type Options struct {
	CatalogPath string
	SalesPath   string
	Tables      *reference.Tables

	// Rates overrides the currency table; nil means use Tables.Rates.
	Rates map[string]float64
}

// Result is the pipeline's outbound contract: the cleaned catalog, the
// reconciled sales table, the author-exploded table, and the three
// edition-ID lists. All built fresh per run; identical inputs produce
// identical output.
type Result struct {
	Books        []catalog.Entry
	Royalties    []Reconciled
	Exploded     []Exploded
	EbookIDs     []string
	PaperIDs     []string
	HardcoverIDs []string
}

// Run loads both sources and executes the full reconciliation: catalog
// indexed, sales records cleaned and enriched via catalog lookups, royalty
// math and classification applied, author-exploded view derived.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Tables == nil {
		return nil, fmt.Errorf("pipeline requires reference tables")
	}

	rates := opts.Rates
	if rates == nil {
		rates = opts.Tables.Rates
	}

	books, err := catalog.LoadCSV(opts.CatalogPath, opts.Tables)
	if err != nil {
		return nil, err
	}
	slog.Info("Books catalog loaded", "entries", len(books))

	wb, err := sales.LoadWorkbook(opts.SalesPath)
	if err != nil {
		return nil, err
	}
	slog.Info("Sales history loaded", "records", len(wb.Records))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	index := catalog.NewIndex(books, opts.Tables)
	cleaner := NewCleaner(opts.Tables)
	classifier := NewClassifier(wb.PaperIDs, wb.HardcoverIDs, wb.EbookIDs)

	result := &Result{
		Books:        books,
		Royalties:    make([]Reconciled, 0, len(wb.Records)),
		Exploded:     make([]Exploded, 0, len(wb.Records)),
		EbookIDs:     wb.EbookIDs,
		PaperIDs:     wb.PaperIDs,
		HardcoverIDs: wb.HardcoverIDs,
	}

	for _, raw := range wb.Records {
		rec := reconcile(cleaner.Clean(raw), index, classifier, opts.Tables, rates)
		result.Royalties = append(result.Royalties, rec)
		result.Exploded = append(result.Exploded, Explode(rec, opts.Tables)...)
	}

	slog.Info("Reconciliation complete",
		"royalty_rows", len(result.Royalties),
		"exploded_rows", len(result.Exploded))

	return result, nil
}

// reconcile derives one enriched record from a cleaned sales record.
func reconcile(raw sales.Record, index *catalog.Index, classifier *Classifier, tables *reference.Tables, rates map[string]float64) Reconciled {
	// The title drives every resolution; the credit string the record
	// carried is replaced by the title-resolved one, since the sales feed's
	// author field is the least reliable of the two sources.
	authors := index.Authors(raw.Title)

	rate, ok := rates[raw.Currency]
	if !ok {
		rate = 1.0
	}

	usd := raw.Royalty * rate
	count := CountAuthors(authors, tables.Publisher)

	return Reconciled{
		Date:            raw.Date,
		Title:           raw.Title,
		EditionID:       raw.EditionID,
		Language:        index.Language(raw.Title),
		Nickname:        index.Nickname(raw.Title),
		Authors:         authors,
		AuthorsCount:    count,
		UnitsSold:       raw.UnitsSold,
		UnitsRefunded:   raw.UnitsRefunded,
		NetUnitsSold:    raw.NetUnitsSold,
		Marketplace:     raw.Marketplace,
		Country:         tables.Marketplaces[raw.Marketplace],
		RoyaltyType:     raw.RoyaltyType,
		TransactionType: raw.TransactionType,
		Royalty:         raw.Royalty,
		Currency:        raw.Currency,
		RoyaltyUSD:      usd,
		RoyaltyPerAuth:  usd / float64(count),
		BookType:        classifier.Classify(raw.EditionID),
		YearSold:        raw.Date.Year(),
	}
}
