package pipelinecmd

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/resulam/royalties/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewProcessCmd creates the process command, which runs the full
// reconciliation pipeline and prints a royalty summary.
func NewProcessCmd() *cobra.Command {
	var booksPath string
	var salesPath string
	var tablesPath string
	var useLive bool
	var cacheDir string
	var cacheTTL time.Duration

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Reconcile the sales export against the books catalog",
		Long: `Loads the books catalog CSV and the multi-sheet sales workbook,
reconciles titles, authors, and languages across the two sources, and derives
the royalty tables: USD conversion, per-author shares, book-type
classification, and the author-exploded view.`,
		Example: `  # Process with paths from the environment (.env supported)
  royalties process

  # Explicit paths, live exchange rates
  royalties process --books books.csv --sales royalties.xlsx --live-rates`,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := executeProcess(cmd, booksPath, salesPath, tablesPath, useLive, cacheDir, cacheTTL)
			if err != nil {
				return err
			}
			printSummary(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&booksPath, "books", envOr(envBooksPath, "data/books.csv"), "Path to the books catalog CSV")
	cmd.Flags().StringVar(&salesPath, "sales", envOr(envSalesPath, "data/royalties.xlsx"), "Path to the sales workbook")
	cmd.Flags().StringVar(&tablesPath, "tables", "", "Reference tables YAML override (default: embedded tables)")
	cmd.Flags().BoolVar(&useLive, "live-rates", false, "Fetch live exchange rates (falls back to cache, then hardcoded)")
	cmd.Flags().StringVar(&cacheDir, "rates-cache", "", "Directory for the exchange-rate cache")
	cmd.Flags().DurationVar(&cacheTTL, "rates-ttl", 24*time.Hour, "How long cached exchange rates stay fresh")

	return cmd
}

func executeProcess(cmd *cobra.Command, booksPath, salesPath, tablesPath string, useLive bool, cacheDir string, cacheTTL time.Duration) (*pipeline.Result, error) {
	ctx := cmd.Context()

	tables, err := loadTables(tablesPath)
	if err != nil {
		return nil, err
	}

	rates, source := resolveRates(ctx, tables, useLive, cacheDir, cacheTTL)
	slog.Info("Exchange rates resolved", "source", source, "currencies", len(rates))

	return pipeline.Run(ctx, pipeline.Options{
		CatalogPath: booksPath,
		SalesPath:   salesPath,
		Tables:      tables,
		Rates:       rates,
	})
}

func printSummary(result *pipeline.Result) {
	fmt.Println("========================================")
	fmt.Println("Royalty Reconciliation Summary")
	fmt.Println("========================================")
	fmt.Printf("Catalog entries:   %d\n", len(result.Books))
	fmt.Printf("Sales records:     %d\n", len(result.Royalties))
	fmt.Printf("Exploded rows:     %d\n", len(result.Exploded))
	fmt.Printf("Edition IDs:       %d ebook / %d paperback / %d hardcover\n",
		len(result.EbookIDs), len(result.PaperIDs), len(result.HardcoverIDs))

	totals := make(map[string]float64)
	unknownTypes := 0
	for _, rec := range result.Royalties {
		totals[rec.Language] += rec.RoyaltyUSD
		if rec.BookType == pipeline.TypeUnknown {
			unknownTypes++
		}
	}

	languages := make([]string, 0, len(totals))
	for lang := range totals {
		languages = append(languages, lang)
	}
	sort.Slice(languages, func(i, j int) bool {
		return totals[languages[i]] > totals[languages[j]]
	})

	fmt.Println("\nRoyalties by language (USD):")
	for _, lang := range languages {
		fmt.Printf("  %-12s %10.2f\n", lang, totals[lang])
	}

	if unknownTypes > 0 {
		fmt.Printf("\nRecords with unclassified book type: %d\n", unknownTypes)
	}
}
