package pipelinecmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/resulam/royalties/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewExportCmd creates the export command, which runs the pipeline and
// writes its output tables for the dashboard/reporting layer to consume.
func NewExportCmd() *cobra.Command {
	var booksPath string
	var salesPath string
	var tablesPath string
	var useLive bool
	var cacheDir string
	var cacheTTL time.Duration
	var outputDir string
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run the pipeline and write its tables to disk",
		Long: `Runs the reconciliation pipeline and writes the reconciled royalty
table and the author-exploded table as Parquet or JSONL files.`,
		Example: `  # Parquet files under ./out
  royalties export --output out

  # JSONL instead
  royalties export --output out --format jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "parquet" && format != "jsonl" {
				return fmt.Errorf("unsupported format: %s (supported: parquet, jsonl)", format)
			}

			result, err := executeProcess(cmd, booksPath, salesPath, tablesPath, useLive, cacheDir, cacheTTL)
			if err != nil {
				return err
			}
			return writeTables(result, outputDir, format)
		},
	}

	cmd.Flags().StringVar(&booksPath, "books", envOr(envBooksPath, "data/books.csv"), "Path to the books catalog CSV")
	cmd.Flags().StringVar(&salesPath, "sales", envOr(envSalesPath, "data/royalties.xlsx"), "Path to the sales workbook")
	cmd.Flags().StringVar(&tablesPath, "tables", "", "Reference tables YAML override (default: embedded tables)")
	cmd.Flags().BoolVar(&useLive, "live-rates", false, "Fetch live exchange rates")
	cmd.Flags().StringVar(&cacheDir, "rates-cache", "", "Directory for the exchange-rate cache")
	cmd.Flags().DurationVar(&cacheTTL, "rates-ttl", 24*time.Hour, "How long cached exchange rates stay fresh")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "out", "Output directory")
	cmd.Flags().StringVar(&format, "format", "parquet", "Output format (parquet or jsonl)")

	return cmd
}

// royaltyRow is the flat on-disk shape of a reconciled record.
type royaltyRow struct {
	RoyaltyDate     string  `json:"royalty_date" parquet:"royalty_date"`
	Title           string  `json:"title" parquet:"title"`
	EditionID       string  `json:"asin_isbn" parquet:"asin_isbn"`
	Language        string  `json:"language" parquet:"language"`
	Nickname        string  `json:"book_nick_name" parquet:"book_nick_name"`
	Authors         string  `json:"authors" parquet:"authors"`
	AuthorsCount    int32   `json:"authors_count" parquet:"authors_count"`
	UnitsSold       int32   `json:"units_sold" parquet:"units_sold"`
	UnitsRefunded   int32   `json:"units_refunded" parquet:"units_refunded"`
	NetUnitsSold    int32   `json:"net_units_sold" parquet:"net_units_sold"`
	Marketplace     string  `json:"marketplace" parquet:"marketplace"`
	Country         string  `json:"country" parquet:"country"`
	RoyaltyType     string  `json:"royalty_type" parquet:"royalty_type"`
	TransactionType string  `json:"transaction_type" parquet:"transaction_type"`
	Royalty         float64 `json:"royalty" parquet:"royalty"`
	Currency        string  `json:"currency" parquet:"currency"`
	RoyaltyUSD      float64 `json:"royalty_usd" parquet:"royalty_usd"`
	RoyaltyPerAuth  float64 `json:"royalty_per_author_usd" parquet:"royalty_per_author_usd"`
	BookType        string  `json:"book_type" parquet:"book_type"`
	YearSold        int32   `json:"year_sold" parquet:"year_sold"`
}

// explodedRow is a royaltyRow plus the single credited author of the row.
type explodedRow struct {
	royaltyRow
	Author string `json:"author" parquet:"author"`
}

func toRow(rec pipeline.Reconciled) royaltyRow {
	return royaltyRow{
		RoyaltyDate:     rec.Date.Format("2006-01-02"),
		Title:           rec.Title,
		EditionID:       rec.EditionID,
		Language:        rec.Language,
		Nickname:        rec.Nickname,
		Authors:         rec.Authors,
		AuthorsCount:    int32(rec.AuthorsCount),
		UnitsSold:       int32(rec.UnitsSold),
		UnitsRefunded:   int32(rec.UnitsRefunded),
		NetUnitsSold:    int32(rec.NetUnitsSold),
		Marketplace:     rec.Marketplace,
		Country:         rec.Country,
		RoyaltyType:     rec.RoyaltyType,
		TransactionType: rec.TransactionType,
		Royalty:         rec.Royalty,
		Currency:        rec.Currency,
		RoyaltyUSD:      rec.RoyaltyUSD,
		RoyaltyPerAuth:  rec.RoyaltyPerAuth,
		BookType:        string(rec.BookType),
		YearSold:        int32(rec.YearSold),
	}
}

func writeTables(result *pipeline.Result, outputDir, format string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	royalties := make([]royaltyRow, 0, len(result.Royalties))
	for _, rec := range result.Royalties {
		royalties = append(royalties, toRow(rec))
	}

	exploded := make([]explodedRow, 0, len(result.Exploded))
	for _, rec := range result.Exploded {
		exploded = append(exploded, explodedRow{royaltyRow: toRow(rec.Reconciled), Author: rec.Author})
	}

	switch format {
	case "parquet":
		if err := writeParquet(filepath.Join(outputDir, "royalties_history.parquet"), royalties); err != nil {
			return err
		}
		if err := writeParquet(filepath.Join(outputDir, "royalties_exploded.parquet"), exploded); err != nil {
			return err
		}
	case "jsonl":
		if err := writeJSONL(filepath.Join(outputDir, "royalties_history.jsonl"), royalties); err != nil {
			return err
		}
		if err := writeJSONL(filepath.Join(outputDir, "royalties_exploded.jsonl"), exploded); err != nil {
			return err
		}
	}

	slog.Info("Tables exported", "dir", outputDir, "format", format,
		"royalty_rows", len(royalties), "exploded_rows", len(exploded))

	return nil
}

func writeParquet[T any](path string, rows []T) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet %s: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet %s: %w", path, err)
	}

	return nil
}

func writeJSONL[T any](path string, rows []T) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	for _, row := range rows {
		if err := encoder.Encode(row); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	return nil
}
