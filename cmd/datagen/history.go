package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fastygo/shopgen/internal/infrastructure/manifest"
)

func newHistoryCommand(a *app) *cobra.Command {
	var (
		limit int
		prune time.Duration
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded generate runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := manifest.Open(a.cfg.Output.ManifestPath, "")
			if err != nil {
				return fmt.Errorf("open manifest %s: %w", a.cfg.Output.ManifestPath, err)
			}
			defer store.Close()

			if prune > 0 {
				if err := store.Cleanup(time.Now().Add(-prune)); err != nil {
					return err
				}
			}

			runs, err := store.List(limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range runs {
				rows := 0
				for _, f := range r.Files {
					rows += f.Rows
				}
				fmt.Fprintf(out, "%s  %s  seed=%-6d fingerprint=%016x files=%d rows=%d\n",
					r.CreatedAt.Local().Format(time.DateTime), r.ID, r.Seed, r.Fingerprint, len(r.Files), rows)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "no runs recorded")
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show, newest first (0 for all)")
	cmd.Flags().DurationVar(&prune, "prune-older-than", 0, "Delete runs older than this before listing, e.g. 720h")
	return cmd
}
