package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"matchkeys/ingestion/internal/repository"
	"matchkeys/ingestion/internal/session"
)

var errEmptySession = errors.New("session has no rows to save")

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Replace the session's warehouse partition with its rows",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, store, err := loadSession(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		return saveToWarehouse(cmd, s)
	},
}

// saveToWarehouse replaces the (range, timezone) partition with the session's
// rows. The session itself is never modified.
func saveToWarehouse(cmd *cobra.Command, s *session.Session) error {
	if len(s.Rows) == 0 {
		return errEmptySession
	}
	if err := cfg.ValidateWarehouse(); err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := repository.NewDatabase(ctx, cfg.DatabaseConfig())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Events.EnsureSchema(ctx); err != nil {
		return err
	}

	p := s.Partition()
	deleted, inserted, err := db.Events.ReplacePartition(ctx, p, s.Rows)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d rows to %s for %s (replaced %d).\n",
		inserted, db.Events.TableName(), p, deleted)
	return nil
}

func init() {
	rootCmd.AddCommand(saveCmd)
}
