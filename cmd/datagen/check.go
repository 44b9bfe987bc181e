package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fastygo/shopgen/domain"
	"github.com/fastygo/shopgen/internal/config"
	"github.com/fastygo/shopgen/internal/infrastructure/export"
	"github.com/fastygo/shopgen/internal/quality"
)

func newCheckCommand(a *app) *cobra.Command {
	var (
		dir, referenceDate string
		products           int
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run dataset quality checks against CSV files on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir == "" {
				dir = a.cfg.Output.Dir
			}
			ds, err := export.ReadCSVDataset(dir)
			if err != nil {
				return err
			}

			catalog := 0
			switch {
			case cmd.Flags().Changed("products"):
				catalog = products
			case os.Getenv("DATAGEN_PRODUCTS") != "":
				catalog = a.cfg.Generator.Products
			}
			opts, err := checkOptions(a.cfg.Generator, referenceDate, catalog)
			if err != nil {
				return err
			}

			report := quality.Check(ds, opts)
			out := cmd.OutOrStdout()
			for _, r := range report.Results {
				status := "ok"
				switch {
				case r.Severity == quality.SeverityInfo:
					status = "info"
				case !r.Passed:
					status = "FAIL"
				}
				fmt.Fprintf(out, "%-4s  %-26s %s\n", status, r.Name, r.Detail)
			}
			if !report.Passed() {
				return fmt.Errorf("%w: %d of %d checks", domain.ErrQualityCheckFailed, len(report.Failed()), len(report.Results))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory holding the CSV files (defaults to DATAGEN_OUTPUT_DIR)")
	cmd.Flags().StringVar(&referenceDate, "reference-date", "", "Reference date the files were generated with, YYYY-MM-DD; enables the order window check")
	cmd.Flags().IntVar(&products, "products", 0, "Product catalog size the files were generated with; enables the product reference check")
	return cmd
}

// checkOptions keeps only the checks whose parameters are known for files on disk. The files
// carry neither their reference date nor their catalog size, so the order window and product
// reference checks run only when those are supplied. A zero catalog skips the product check.
func checkOptions(gen config.GeneratorConfig, referenceDate string, catalog int) (quality.Options, error) {
	opts := quality.OptionsFor(gen)
	opts.OrderStart, opts.OrderEnd = time.Time{}, time.Time{}
	opts.Products = catalog
	if catalog < 0 {
		return opts, domain.Invalidf("product catalog size must be >= 1, got %d", catalog)
	}
	if referenceDate != "" {
		ref, err := config.ParseReferenceDate(referenceDate)
		if err != nil {
			return opts, err
		}
		gen.ReferenceDate = ref
		opts.OrderStart, opts.OrderEnd = gen.OrderWindow()
	}
	return opts, nil
}
