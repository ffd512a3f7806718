package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"matchkeys/ingestion/internal/models"
	"matchkeys/ingestion/internal/repository"
)

var queryOpts struct {
	from     string
	to       string
	timezone string
	limit    int
	showSQL  bool
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Preview stored rows of one (range, timezone) partition",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		timezone := timezoneOrDefault(queryOpts.timezone)
		start, end, err := dateRange(queryOpts.from, queryOpts.to, timezone)
		if err != nil {
			return err
		}
		if end.Before(start) {
			return fmt.Errorf("--to %s is before --from %s", queryOpts.to, queryOpts.from)
		}

		if err := cfg.ValidateWarehouse(); err != nil {
			return err
		}

		db, err := repository.NewDatabase(ctx, cfg.DatabaseConfig())
		if err != nil {
			return err
		}
		defer db.Close()

		q := repository.PreviewQuery{
			Partition: models.NewPartition(start, end, timezone),
			Limit:     queryOpts.limit,
		}
		if queryOpts.showSQL {
			fmt.Fprintln(cmd.ErrOrStderr(), db.Events.PreviewSQL(q))
		}

		rows, err := db.Events.Preview(ctx, q)
		if err != nil {
			return err
		}

		return printRows(cmd.OutOrStdout(), rows)
	},
}

func printRows(w io.Writer, rows []models.PersistedRow) error {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No rows stored for this range and timezone.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EVENT_KEY\tDATE\tTIME\tFIRST_PLAYER\tSECOND_PLAYER\tTOURNAMENT\tSTATUS\tSOURCE_DATE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.EventKey, r.EventDate, r.EventTime, r.FirstPlayer, r.SecondPlayer,
			r.TournamentName, r.EventStatus, r.SourceDate.Format(models.DateLayout))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d rows\n", len(rows))
	return nil
}

func init() {
	f := queryCmd.Flags()
	f.StringVar(&queryOpts.from, "from", "", "first day, YYYY-MM-DD (default today)")
	f.StringVar(&queryOpts.to, "to", "", "last day, YYYY-MM-DD (default today)")
	f.StringVar(&queryOpts.timezone, "timezone", "", "timezone the rows were saved with (default DEFAULT_TIMEZONE)")
	f.IntVar(&queryOpts.limit, "limit", repository.DefaultPreviewLimit, "maximum rows, 1-10000")
	f.BoolVar(&queryOpts.showSQL, "show-sql", false, "print the query before running it")
	rootCmd.AddCommand(queryCmd)
}
