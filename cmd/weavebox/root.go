package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/avollmer/weavebox/internal/config"
	"github.com/avollmer/weavebox/internal/cryptox"
	"github.com/avollmer/weavebox/internal/hawkx"
	"github.com/avollmer/weavebox/internal/logging"
	"github.com/avollmer/weavebox/internal/repositories/repomanager"
	"github.com/avollmer/weavebox/internal/weave"
	"github.com/spf13/cobra"
)

// Global flag values.
var flagConfigFile string

// cfg and logger are populated by PersistentPreRunE so all subcommands can
// use them.
var (
	cfg    *config.Config
	logger logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "weavebox",
	Short: "Weavebox mirrors encrypted browser data into PostgreSQL and searches it",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		var err error
		cfg, err = config.Load(flagConfigFile)
		if err != nil {
			return err
		}
		logger = logging.NewJSON(os.Stderr, parseLogLevel(cfg.LogLevel))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config", "", "config file (default: ./weavebox.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(fetchtextCmd)
	rootCmd.AddCommand(searchCmd)
}

func parseLogLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// openDatabase opens the configured PostgreSQL database and applies pending
// schema migrations.
func openDatabase(ctx context.Context, mgr repomanager.RepositoryManager) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := mgr.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// newCatalog builds the storage-service catalog from the configured
// endpoint and credentials.
func newCatalog() (*weave.Catalog, error) {
	root, err := cfg.RootKeyPair()
	if err != nil {
		return nil, err
	}
	signer := hawkx.NewSigner(cfg.SigningID, []byte(cfg.SigningKey))
	client, err := weave.NewClient(cfg.Endpoint, signer, http.DefaultClient)
	if err != nil {
		return nil, err
	}
	return weave.NewCatalog(client, cryptox.NewHierarchy(root)), nil
}
