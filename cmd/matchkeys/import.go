package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"matchkeys/ingestion/internal/export"
	"matchkeys/ingestion/internal/session"
)

var importOpts struct {
	file     string
	timezone string
	from     string
	to       string
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load an API-shaped JSON file into the session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if importOpts.file == "" {
			return errors.New("--file is required")
		}

		timezone := timezoneOrDefault(importOpts.timezone)
		start, end, err := dateRange(importOpts.from, importOpts.to, timezone)
		if err != nil {
			return err
		}
		if end.Before(start) {
			return fmt.Errorf("--to %s is before --from %s", importOpts.to, importOpts.from)
		}

		f, err := os.Open(importOpts.file)
		if err != nil {
			return fmt.Errorf("open %s: %w", importOpts.file, err)
		}
		defer f.Close()

		rows, err := export.ImportUpload(f, timezone)
		if err != nil {
			return fmt.Errorf("import %s: %w", importOpts.file, err)
		}
		if len(rows) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "File loaded but no events could be normalized.")
			return nil
		}

		s := session.New(sessionName, session.SourceUpload)
		s.Start = start
		s.End = end
		s.Timezone = timezone
		s.Rows = rows

		store := openSessionStore(ctx)
		defer store.Close()
		if err := store.Save(ctx, s); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "File loaded. %d events.\n", len(rows))
		return nil
	},
}

func init() {
	f := importCmd.Flags()
	f.StringVar(&importOpts.file, "file", "", "path to the JSON document (required)")
	f.StringVar(&importOpts.timezone, "timezone", "", "IANA timezone for event dates (default DEFAULT_TIMEZONE)")
	f.StringVar(&importOpts.from, "from", "", "first day of the partition a later save replaces (default today)")
	f.StringVar(&importOpts.to, "to", "", "last day of the partition a later save replaces (default today)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
