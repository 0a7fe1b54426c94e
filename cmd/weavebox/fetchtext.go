package main

import (
	"github.com/avollmer/weavebox/internal/fetchtext"
	"github.com/avollmer/weavebox/internal/repositories/repomanager"
	"github.com/spf13/cobra"
)

var fetchtextCmd = &cobra.Command{
	Use:   "fetchtext",
	Short: "Download and index page text for URLs without it",
	Long: `Fetchtext finds every bookmark and history URL that has no extracted page
text yet, downloads the page, extracts its readable content and stores it
for full-text search. Failures on individual pages are logged and skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr := repomanager.NewPostgresRepositoryManager()
		db, err := openDatabase(ctx, mgr)
		if err != nil {
			return err
		}
		defer db.Close()

		f := fetchtext.NewFetcher(mgr.URLText(db), nil, logger, fetchtext.Options{
			IgnoreSubstrings: cfg.IgnoreDomains,
		})
		return f.Run(ctx)
	},
}
