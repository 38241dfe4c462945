package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/resulam/royalties/internal/pipelinecmd"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "royalties",
		Short: "Book royalty reconciliation pipeline",
		Long: `Royalties reconciles a publishing platform's royalty-sales export with a
books catalog into a single analytics-ready dataset.

It matches book titles to canonical nicknames, languages, and authors across
inconsistent identifiers, normalizes author identities across spelling
variants, and computes currency-converted per-author royalty shares.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(pipelinecmd.NewProcessCmd())
	cmd.AddCommand(pipelinecmd.NewExportCmd())
	cmd.AddCommand(pipelinecmd.NewRatesCmd())

	return cmd
}
