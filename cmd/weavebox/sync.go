package main

import (
	"context"

	"github.com/avollmer/weavebox/internal/dbx"
	"github.com/avollmer/weavebox/internal/ingest"
	"github.com/avollmer/weavebox/internal/repositories/repomanager"
	"github.com/spf13/cobra"
)

// flagFull disables the incremental watermark and re-reads every record.
var flagFull bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull bookmark and history collections into the local database",
	Long: `Sync decrypts the account's bookmark and history collections and mirrors
them into PostgreSQL. By default only records modified since the newest
locally stored history entry are fetched; --full re-reads everything.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr := repomanager.NewPostgresRepositoryManager()
		db, err := openDatabase(ctx, mgr)
		if err != nil {
			return err
		}
		defer db.Close()

		historyRepo := mgr.History(db)

		var newerThan float64
		if !flagFull {
			newerThan, err = historyRepo.LastModified(ctx)
			if err != nil {
				return err
			}
		}

		catalog, err := newCatalog()
		if err != nil {
			return err
		}
		source := ingest.NewCatalogSource(catalog)

		// One transaction per pass: an aborted sync leaves the previous
		// mirror intact instead of a half-linked one.
		return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			svc := ingest.NewService(source, mgr.Bookmarks(tx), mgr.History(tx), logger)
			return svc.Run(ctx, ingest.Options{
				PageSize:  cfg.PageSize,
				NewerThan: newerThan,
			})
		})
	},
}

func init() {
	syncCmd.Flags().BoolVar(&flagFull, "full", false, "ignore the incremental watermark and fetch all records")
}
