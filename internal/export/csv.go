// Package export moves the current row set in and out of files: CSV and key
// lists out, API-shaped JSON documents in.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"matchkeys/ingestion/internal/models"
)

// WriteCSV writes a header and one record per row, in buffer order.
func WriteCSV(w io.Writer, rows []models.EventRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(models.EventColumns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row.Values()); err != nil {
			return fmt.Errorf("failed to write csv row %q: %w", row.EventKey, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// KeyList joins every event_key with newlines, in buffer order.
func KeyList(rows []models.EventRow) string {
	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, row.EventKey)
	}
	return strings.Join(keys, "\n")
}

// WriteKeys writes the key list followed by a trailing newline when non-empty.
func WriteKeys(w io.Writer, rows []models.EventRow) error {
	list := KeyList(rows)
	if list == "" {
		return nil
	}
	if _, err := io.WriteString(w, list+"\n"); err != nil {
		return fmt.Errorf("failed to write key list: %w", err)
	}
	return nil
}

// DefaultCSVName is the suggested file name for a range export.
func DefaultCSVName(start, end time.Time) string {
	return fmt.Sprintf("match_keys_%s_to_%s.csv", start.Format(models.DateLayout), end.Format(models.DateLayout))
}
