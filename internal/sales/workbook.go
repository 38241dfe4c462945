// Package sales ingests the multi-sheet royalty-sales workbook exported by
// the publishing platform.
package sales

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Sheet names in the sales workbook.
const (
	SheetCombinedSales = "Combined Sales"
	SheetEbook         = "eBook Royalty"
	SheetPaperback     = "Paperback Royalty"
	SheetHardcover     = "Hardcover Royalty"
)

// Record is one raw sales row: a sale-date/title/marketplace/currency
// combination. Immutable once loaded; the pipeline derives from it.
type Record struct {
	Date            time.Time
	Title           string
	EditionID       string // ASIN or ISBN identifying a specific edition
	Authors         string // raw comma-separated credit string
	UnitsSold       int
	UnitsRefunded   int
	NetUnitsSold    int
	Marketplace     string
	RoyaltyType     string
	TransactionType string
	Royalty         float64 // local-currency amount
	Currency        string
}

// Workbook is the loaded sales export: the per-transaction rows plus the
// three edition-ID lists used for book-type classification.
type Workbook struct {
	Records      []Record
	EbookIDs     []string
	PaperIDs     []string
	HardcoverIDs []string
}

// LoadWorkbook reads all four sheets from the sales spreadsheet. A missing
// file or sheet is fatal and identifies what failed to load.
func LoadWorkbook(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sales workbook %s: %w", path, err)
	}
	defer f.Close()

	records, err := loadCombinedSales(f)
	if err != nil {
		return nil, fmt.Errorf("sales workbook %s: %w", path, err)
	}

	wb := &Workbook{Records: records}

	if wb.EbookIDs, err = loadIDColumn(f, SheetEbook, "ASIN"); err != nil {
		return nil, fmt.Errorf("sales workbook %s: %w", path, err)
	}
	if wb.PaperIDs, err = loadIDColumn(f, SheetPaperback, "ISBN"); err != nil {
		return nil, fmt.Errorf("sales workbook %s: %w", path, err)
	}
	if wb.HardcoverIDs, err = loadIDColumn(f, SheetHardcover, "ISBN"); err != nil {
		return nil, fmt.Errorf("sales workbook %s: %w", path, err)
	}

	slog.Debug("Loaded sales workbook",
		"path", path,
		"records", len(wb.Records),
		"ebook_ids", len(wb.EbookIDs),
		"paper_ids", len(wb.PaperIDs),
		"hardcover_ids", len(wb.HardcoverIDs))

	return wb, nil
}

func loadCombinedSales(f *excelize.File) ([]Record, error) {
	rows, err := f.GetRows(SheetCombinedSales)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", SheetCombinedSales, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", SheetCombinedSales)
	}

	col := headerIndex(rows[0])
	for _, required := range []string{"Royalty Date", "Title", "Royalty", "Currency"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("sheet %q is missing column %q", SheetCombinedSales, required)
		}
	}

	cell := func(row []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}

		date, err := parseDate(cell(row, "Royalty Date"))
		if err != nil {
			return nil, fmt.Errorf("sheet %q row %d: %w", SheetCombinedSales, i+2, err)
		}

		royalty, err := parseAmount(cell(row, "Royalty"))
		if err != nil {
			return nil, fmt.Errorf("sheet %q row %d: %w", SheetCombinedSales, i+2, err)
		}

		records = append(records, Record{
			Date:            date,
			Title:           cell(row, "Title"),
			EditionID:       cell(row, "ASIN/ISBN"),
			Authors:         cell(row, "Authors"),
			UnitsSold:       parseUnits(cell(row, "Units Sold")),
			UnitsRefunded:   parseUnits(cell(row, "Units Refunded")),
			NetUnitsSold:    parseUnits(cell(row, "Net Units Sold")),
			Marketplace:     cell(row, "Marketplace"),
			RoyaltyType:     cell(row, "Royalty Type"),
			TransactionType: cell(row, "Transaction Type"),
			Royalty:         royalty,
			Currency:        cell(row, "Currency"),
		})
	}

	return records, nil
}

// loadIDColumn reads the unique edition identifiers from one per-type
// royalty sheet, preserving first-seen order.
func loadIDColumn(f *excelize.File, sheet, column string) ([]string, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	col := headerIndex(rows[0])
	idx, ok := col[column]
	if !ok {
		return nil, fmt.Errorf("sheet %q is missing column %q", sheet, column)
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, row := range rows[1:] {
		if idx >= len(row) {
			continue
		}
		id := strings.TrimSpace(row[idx])
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return ids, nil
}

func headerIndex(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	return col
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// dateLayouts covers the formats the exports have shipped dates in.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01-02-06",
	"1/2/2006",
	"1/2/06",
	"January 2, 2006",
	time.RFC3339,
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty royalty date")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	// Excel serial date fallback (days since 1899-12-30).
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unparseable royalty date %q", value)
}

func parseAmount(value string) (float64, error) {
	value = strings.TrimSpace(strings.ReplaceAll(value, ",", ""))
	if value == "" {
		return 0, nil
	}
	amount, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable royalty amount %q", value)
	}
	return amount, nil
}

func parseUnits(value string) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	// Some exports format counts as floats.
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return int(f)
	}
	return 0
}
