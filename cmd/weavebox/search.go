package main

import (
	"fmt"
	"strings"

	"github.com/avollmer/weavebox/internal/repositories/repomanager"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <terms>...",
	Short: "Full-text search over indexed page content",
	Long: `Search ranks indexed pages against the given terms. Body matches count
once, header matches five times, title matches ten times. Results print
best-first with the combined rank and its three components.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr := repomanager.NewPostgresRepositoryManager()
		db, err := openDatabase(ctx, mgr)
		if err != nil {
			return err
		}
		defer db.Close()

		results, err := mgr.Search(db).Search(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, r := range results {
			title := r.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Fprintln(out, title)
			fmt.Fprintln(out, r.URL)
			fmt.Fprintf(out, "rank %.3f (text %.3f, title %.3f, headers %.3f)\n",
				r.Rank, r.ProcessedTextRank, r.TitleRank, r.HeadersRank)
			fmt.Fprintln(out, strings.Repeat("-", 72))
		}
		if len(results) == 0 {
			fmt.Fprintln(out, "no matches")
		}
		return nil
	},
}
