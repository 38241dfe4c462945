package pipelinecmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

// NewRatesCmd creates the rates command, which prints the exchange-rate
// table a pipeline run would use and where it came from.
func NewRatesCmd() *cobra.Command {
	var tablesPath string
	var useLive bool
	var cacheDir string
	var cacheTTL time.Duration

	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Show the effective exchange rates",
		Example: `  # Hardcoded/cached rates
  royalties rates

  # Try the live API first
  royalties rates --live`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := loadTables(tablesPath)
			if err != nil {
				return err
			}

			rates, source := resolveRates(cmd.Context(), tables, useLive, cacheDir, cacheTTL)

			currencies := make([]string, 0, len(rates))
			for currency := range rates {
				currencies = append(currencies, currency)
			}
			sort.Strings(currencies)

			fmt.Printf("Exchange rates to USD (source: %s)\n", source)
			for _, currency := range currencies {
				fmt.Printf("  %s  %.6f\n", currency, rates[currency])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tablesPath, "tables", "", "Reference tables YAML override (default: embedded tables)")
	cmd.Flags().BoolVar(&useLive, "live", false, "Fetch live exchange rates")
	cmd.Flags().StringVar(&cacheDir, "rates-cache", "", "Directory for the exchange-rate cache")
	cmd.Flags().DurationVar(&cacheTTL, "rates-ttl", 24*time.Hour, "How long cached exchange rates stay fresh")

	return cmd
}
