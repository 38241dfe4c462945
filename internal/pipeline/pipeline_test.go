package pipeline

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/resulam/royalties/internal/sales"
	"github.com/xuri/excelize/v2"
)

const yembaTitle = "Guide de conversation trilingue français-anglais-yemba: French-Yemba-English Phrasebook"

func writeTestCatalog(t *testing.T) string {
	t.Helper()

	csvData := `id,title,authors,language_name,category,book_nick_name,paperback,ebook,hard_cover
1,"` + yembaTitle + `","Totally Wrong Author",Yemba,Phrasebook,yemba_phrasebook,,http://ebook,
2,"Publisher Only Book","Resulam",,Stories,,http://paper,,
3,"Duo Book","Jane Doe, John Roe",,Stories,,,,http://hard
`
	path := filepath.Join(t.TempDir(), "books.csv")
	if err := os.WriteFile(path, []byte(csvData), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeTestWorkbook(t *testing.T) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheets := map[string][][]any{
		sales.SheetCombinedSales: {
			{"Royalty Date", "Title", "ASIN/ISBN", "Authors", "Units Sold", "Units Refunded", "Net Units Sold", "Marketplace", "Royalty Type", "Transaction Type", "Royalty", "Currency"},
			// The sales feed pads the yemba title with stray whitespace.
			{"2023-06-10", "  " + yembaTitle + "  ", "B0YEMBA", "Someone Else", "2", "0", "2", "Amazon.fr", "60%", "Standard", "10.00", "EUR"},
			{"2022-03-01", "Publisher Only Book", "PB1", "Resulam", "1", "0", "1", "Amazon.com", "70%", "Standard", "10.00", "EUR"},
			{"2024-11-20", "Duo Book", "HC1", "Jane Doe, John Roe", "1", "0", "1", "Amazon.de", "70%", "Standard", "5.00", "USD"},
		},
		sales.SheetEbook:     {{"ASIN"}, {"B0YEMBA"}},
		sales.SheetPaperback: {{"ISBN"}, {"PB1"}},
		sales.SheetHardcover: {{"ISBN"}, {"HC1"}},
	}

	for name, rows := range sheets {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatal(err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "royalties.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func runTestPipeline(t *testing.T) *Result {
	t.Helper()

	result, err := Run(context.Background(), Options{
		CatalogPath: writeTestCatalog(t),
		SalesPath:   writeTestWorkbook(t),
		Tables:      testTables(t),
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	return result
}

func TestRunYembaScenario(t *testing.T) {
	result := runTestPipeline(t)

	if len(result.Royalties) != 3 {
		t.Fatalf("got %d reconciled records, want 3", len(result.Royalties))
	}

	rec := result.Royalties[0]
	if rec.Nickname != "yemba_phrasebook" {
		t.Errorf("nickname = %q, want yemba_phrasebook", rec.Nickname)
	}
	if rec.Language != "Yemba" {
		t.Errorf("language = %q, want Yemba (via catalog)", rec.Language)
	}
	// The hardcoded override wins regardless of catalog author content.
	if want := "Giresse Jiokeng Feutsa, Oliver Germain Tafouemewe, Shck Tchamna"; rec.Authors != want {
		t.Errorf("authors = %q, want %q", rec.Authors, want)
	}
	// Three credited authors, publisher not among them: implicit +1.
	if rec.AuthorsCount != 4 {
		t.Errorf("authors count = %d, want 4", rec.AuthorsCount)
	}
	if math.Abs(rec.RoyaltyUSD-11.0) > 1e-9 {
		t.Errorf("royalty USD = %v, want 11.0 (10.00 EUR x 1.1)", rec.RoyaltyUSD)
	}
	if math.Abs(rec.RoyaltyPerAuth-2.75) > 1e-9 {
		t.Errorf("royalty per author = %v, want 2.75", rec.RoyaltyPerAuth)
	}
	if rec.BookType != TypeEbook {
		t.Errorf("book type = %s, want Ebook", rec.BookType)
	}
	if rec.YearSold != 2023 {
		t.Errorf("year sold = %d, want 2023", rec.YearSold)
	}
	if rec.Country != "France" {
		t.Errorf("country = %q, want France", rec.Country)
	}
}

func TestRunPublisherListedScenario(t *testing.T) {
	result := runTestPipeline(t)

	rec := result.Royalties[1]
	if rec.Authors != "Resulam" {
		t.Fatalf("authors = %q, want Resulam", rec.Authors)
	}
	// Publisher literally listed: no implicit +1, full share per author.
	if rec.AuthorsCount != 1 {
		t.Errorf("authors count = %d, want 1", rec.AuthorsCount)
	}
	if math.Abs(rec.RoyaltyUSD-11.0) > 1e-9 {
		t.Errorf("royalty USD = %v, want 11.0", rec.RoyaltyUSD)
	}
	if math.Abs(rec.RoyaltyPerAuth-rec.RoyaltyUSD) > 1e-9 {
		t.Errorf("per author share = %v, want full amount %v", rec.RoyaltyPerAuth, rec.RoyaltyUSD)
	}
	if rec.BookType != TypePaper {
		t.Errorf("book type = %s, want Paper", rec.BookType)
	}
}

func TestRunImplicitPublisherScenario(t *testing.T) {
	result := runTestPipeline(t)

	rec := result.Royalties[2]
	if rec.Authors != "Jane Doe, John Roe" {
		t.Fatalf("authors = %q, want catalog credit", rec.Authors)
	}
	if rec.AuthorsCount != 3 {
		t.Errorf("authors count = %d, want 3 (2 listed + implicit publisher)", rec.AuthorsCount)
	}
	if rec.Language != "Other" {
		t.Errorf("language = %q, want Other", rec.Language)
	}
	if rec.BookType != TypeHardCover {
		t.Errorf("book type = %s, want HardCover", rec.BookType)
	}
	// Unknown title: nickname degrades to the title itself.
	if rec.Nickname != "Duo Book" {
		t.Errorf("nickname = %q, want Duo Book", rec.Nickname)
	}
}

func TestRunExplodedView(t *testing.T) {
	result := runTestPipeline(t)

	// 3 + 1 + 2 exploded rows for the three records.
	if len(result.Exploded) != 6 {
		t.Fatalf("got %d exploded rows, want 6", len(result.Exploded))
	}

	// Per-record sum of the per-author share equals count x share.
	byTitle := make(map[string][]Exploded)
	for _, row := range result.Exploded {
		byTitle[row.Title] = append(byTitle[row.Title], row)
	}
	for title, rows := range byTitle {
		var sum float64
		for _, row := range rows {
			sum += row.RoyaltyPerAuth
		}
		want := float64(len(rows)) * rows[0].RoyaltyPerAuth
		if math.Abs(sum-want) > 1e-9 {
			t.Errorf("%s: exploded share sum = %v, want %v", title, sum, want)
		}
	}
}

// Running the pipeline twice over identical inputs produces identical
// output: no hidden global state.
func TestRunDeterministic(t *testing.T) {
	catalogPath := writeTestCatalog(t)
	salesPath := writeTestWorkbook(t)
	tables := testTables(t)

	opts := Options{CatalogPath: catalogPath, SalesPath: salesPath, Tables: tables}

	first, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("two runs over identical inputs produced different results")
	}
}

func TestRunMissingCatalog(t *testing.T) {
	_, err := Run(context.Background(), Options{
		CatalogPath: filepath.Join(t.TempDir(), "missing.csv"),
		SalesPath:   writeTestWorkbook(t),
		Tables:      testTables(t),
	})
	if err == nil {
		t.Fatal("expected error for missing catalog")
	}
}
