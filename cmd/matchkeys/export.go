package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"matchkeys/ingestion/internal/export"
)

var exportOpts struct {
	csv  string
	keys string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the session as CSV or as a key list",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if exportOpts.csv == "" && exportOpts.keys == "" {
			return errors.New("nothing to export: pass --csv and/or --keys")
		}

		s, store, err := loadSession(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		if exportOpts.csv != "" {
			path, err := writeOutput(cmd, exportOpts.csv, export.DefaultCSVName(s.Start, s.End), func(w io.Writer) error {
				return export.WriteCSV(w, s.Rows)
			})
			if err != nil {
				return err
			}
			if path != "stdout" {
				fmt.Fprintf(cmd.ErrOrStderr(), "CSV written to %s (%d rows)\n", path, len(s.Rows))
			}
		}

		if exportOpts.keys != "" {
			if _, err := writeOutput(cmd, exportOpts.keys, "match_keys.txt", func(w io.Writer) error {
				return export.WriteKeys(w, s.Rows)
			}); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOpts.csv, "csv", "", "write CSV to a file, a directory or - for stdout")
	exportCmd.Flags().StringVar(&exportOpts.keys, "keys", "", "write the key list to a file or - for stdout")
	rootCmd.AddCommand(exportCmd)
}
