package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"matchkeys/ingestion/internal/client"
	"matchkeys/ingestion/internal/export"
	"matchkeys/ingestion/internal/ingest"
	"matchkeys/ingestion/internal/models"
	"matchkeys/ingestion/internal/session"
)

var fetchOpts struct {
	token    string
	sportID  int
	scope    string
	from     string
	to       string
	timezone string
	maxPages int
	save     bool
	csv      string
	keys     string
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch a date range from BetsAPI into the session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		token := strings.TrimSpace(fetchOpts.token)
		if token == "" {
			token = cfg.BetsAPIToken
		}
		if token == "" {
			log.Warn().Msg("BetsAPI token is required")
			return fmt.Errorf("%w (--token or BETSAPI_TOKEN)", ingest.ErrMissingToken)
		}

		sportID := fetchOpts.sportID
		if sportID == 0 {
			sportID = cfg.DefaultSportID
		}
		if sportID < 1 || sportID > 999 {
			return fmt.Errorf("--sport-id must be between 1 and 999, got %d", sportID)
		}

		scope, err := models.ParseScope(fetchOpts.scope)
		if err != nil {
			return err
		}

		maxPages := fetchOpts.maxPages
		if maxPages <= 0 {
			maxPages = cfg.MaxPagesPerDay
		}

		timezone := timezoneOrDefault(fetchOpts.timezone)
		start, end, err := dateRange(fetchOpts.from, fetchOpts.to, timezone)
		if err != nil {
			return err
		}

		api := client.NewClient(cfg.BetsAPIBaseURL, cfg.BetsAPITimeout, cfg.BetsAPIRateLimit, cfg.BetsAPIBurstLimit)
		result, err := ingest.NewOrchestrator(api).Run(ctx, ingest.RangeRequest{
			Token:    token,
			SportID:  sportID,
			Scope:    scope,
			Start:    start,
			End:      end,
			Timezone: timezone,
			MaxPages: maxPages,
		}, progressPrinter(cmd.ErrOrStderr()))
		if err != nil {
			return err
		}

		fmt.Fprintln(out, result.Summary())
		printErrors(out, result.Errors)

		if len(result.Rows) == 0 {
			return nil
		}

		s := session.New(sessionName, session.SourceAPI)
		s.Scope = scope
		s.SportID = sportID
		s.Start = result.Start
		s.End = result.End
		s.Timezone = result.Timezone
		s.Rows = result.Rows
		s.Errors = result.Errors

		store := openSessionStore(ctx)
		defer store.Close()
		if err := store.Save(ctx, s); err != nil {
			return err
		}

		if fetchOpts.csv != "" {
			path, err := writeOutput(cmd, fetchOpts.csv, export.DefaultCSVName(s.Start, s.End), func(w io.Writer) error {
				return export.WriteCSV(w, s.Rows)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "CSV written to %s\n", path)
		}

		if fetchOpts.keys != "" {
			if _, err := writeOutput(cmd, fetchOpts.keys, "match_keys.txt", func(w io.Writer) error {
				return export.WriteKeys(w, s.Rows)
			}); err != nil {
				return err
			}
		}

		if fetchOpts.save {
			return saveToWarehouse(cmd, s)
		}
		return nil
	},
}

func progressPrinter(w io.Writer) ingest.ProgressFunc {
	return func(p ingest.Progress) {
		fmt.Fprintf(w, "[%d/%d] %s: %d events\n", p.Index, p.Total, p.Day.Format(models.DateLayout), p.Records)
	}
}

func printErrors(w io.Writer, records []models.ErrorRecord) {
	if len(records) == 0 {
		return
	}
	fmt.Fprintf(w, "%d errors:\n", len(records))
	for _, rec := range records {
		fmt.Fprintf(w, "  %s\n", rec)
	}
}

func init() {
	f := fetchCmd.Flags()
	f.StringVar(&fetchOpts.token, "token", "", "BetsAPI token (default BETSAPI_TOKEN)")
	f.IntVar(&fetchOpts.sportID, "sport-id", 0, "BetsAPI sport id (default DEFAULT_SPORT_ID)")
	f.StringVar(&fetchOpts.scope, "scope", string(models.ScopeUpcoming), "upcoming or ended")
	f.StringVar(&fetchOpts.from, "from", "", "first day, YYYY-MM-DD (default today)")
	f.StringVar(&fetchOpts.to, "to", "", "last day, YYYY-MM-DD (default today)")
	f.StringVar(&fetchOpts.timezone, "timezone", "", "IANA timezone for event dates (default DEFAULT_TIMEZONE)")
	f.IntVar(&fetchOpts.maxPages, "max-pages", 0, "page ceiling per day (default MAX_PAGES_PER_DAY)")
	f.BoolVar(&fetchOpts.save, "save", false, "save the result to the warehouse")
	f.StringVar(&fetchOpts.csv, "csv", "", "write CSV to a file, a directory or - for stdout")
	f.StringVar(&fetchOpts.keys, "keys", "", "write the key list to a file or - for stdout")
	rootCmd.AddCommand(fetchCmd)
}
