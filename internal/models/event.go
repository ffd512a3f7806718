package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for event dates, range days and source dates.
const DateLayout = "2006-01-02"

// RawEvent is one upstream event object as decoded from a results page.
// Numbers are kept as json.Number so identifiers survive decoding unchanged.
type RawEvent map[string]any

// EventRow is the canonical eight-column row produced by normalization.
// Every field is always set; unresolved values are the empty string.
type EventRow struct {
	EventKey       string `json:"event_key"`
	EventDate      string `json:"event_date"`
	EventTime      string `json:"event_time"`
	FirstPlayer    string `json:"first_player"`
	SecondPlayer   string `json:"second_player"`
	TournamentName string `json:"tournament_name"`
	EventTypeType  string `json:"event_type_type"`
	EventStatus    string `json:"event_status"`

	// FetchDay is the range day (YYYY-MM-DD) the row was fetched for. Empty for uploads.
	FetchDay string `json:"fetch_day,omitempty"`
}

// EventColumns lists the canonical columns in export and storage order.
var EventColumns = []string{
	"event_key",
	"event_date",
	"event_time",
	"first_player",
	"second_player",
	"tournament_name",
	"event_type_type",
	"event_status",
}

// Values returns the canonical column values in EventColumns order.
func (r EventRow) Values() []string {
	return []string{
		r.EventKey,
		r.EventDate,
		r.EventTime,
		r.FirstPlayer,
		r.SecondPlayer,
		r.TournamentName,
		r.EventTypeType,
		r.EventStatus,
	}
}

// Partition identifies the persisted rows replaced together: an inclusive
// source_date range and an exact timezone name.
type Partition struct {
	Start    time.Time
	End      time.Time
	Timezone string
}

// NewPartition normalizes the bounds to calendar days and trims the timezone.
func NewPartition(start, end time.Time, timezone string) Partition {
	return Partition{
		Start:    Day(start),
		End:      Day(end),
		Timezone: strings.TrimSpace(timezone),
	}
}

// Contains reports whether day falls inside the partition's date range.
func (p Partition) Contains(day time.Time) bool {
	d := Day(day)
	return !d.Before(p.Start) && !d.After(p.End)
}

// String renders the partition for logs and messages.
func (p Partition) String() string {
	return fmt.Sprintf("%s..%s [%s]", p.Start.Format(DateLayout), p.End.Format(DateLayout), p.Timezone)
}

// PersistedRow is an EventRow as stored in the warehouse table.
type PersistedRow struct {
	EventRow
	SourceDate   time.Time `db:"source_date"`
	TimezoneUsed string    `db:"timezone_used"`
	IngestedAt   time.Time `db:"_ingested_at"`
}

// PersistedColumns lists the columns written on insert. _ingested_at is
// assigned by the database default.
var PersistedColumns = append(append([]string{}, EventColumns...), "source_date", "timezone_used")

// ToPersisted derives the stored form of a row for the given partition.
// source_date is the event date when it lies inside the partition, else the
// day the row was fetched for, else the partition start. A saved row therefore
// always falls inside the partition that a reload deletes.
func (r EventRow) ToPersisted(p Partition) PersistedRow {
	row := PersistedRow{
		EventRow:     r,
		SourceDate:   p.Start,
		TimezoneUsed: p.Timezone,
	}

	if d, err := ParseDay(r.EventDate); err == nil && p.Contains(d) {
		row.SourceDate = d
	} else if d, err := ParseDay(r.FetchDay); err == nil && p.Contains(d) {
		row.SourceDate = d
	}

	return row
}

// CopyValues returns the row in PersistedColumns order for COPY.
func (p PersistedRow) CopyValues() []any {
	values := make([]any, 0, len(PersistedColumns))
	for _, v := range p.Values() {
		values = append(values, v)
	}
	return append(values, p.SourceDate, p.TimezoneUsed)
}

// ToPersistedRows converts a batch for loading into the partition.
func ToPersistedRows(rows []EventRow, p Partition) []PersistedRow {
	out := make([]PersistedRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToPersisted(p))
	}
	return out
}

// ErrorKind classifies a per-page error record.
type ErrorKind string

const (
	// ErrorKindTransport is a network, HTTP status or decoding failure.
	ErrorKindTransport ErrorKind = "transport"
	// ErrorKindUpstream is a response whose success flag was not 1.
	ErrorKindUpstream ErrorKind = "upstream"
	// ErrorKindTruncated is the pagination ceiling caveat.
	ErrorKindTruncated ErrorKind = "truncated"
)

// ErrorRecord is one non-fatal problem recorded while fetching a day.
type ErrorRecord struct {
	Day     string    `json:"day"`
	Page    int       `json:"page"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e ErrorRecord) String() string {
	if e.Kind == ErrorKindTruncated {
		return fmt.Sprintf("%s: %s", e.Day, e.Message)
	}
	return fmt.Sprintf("%s (page %d): %s", e.Day, e.Page, e.Message)
}

// Day truncates t to its calendar day at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into a calendar day.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}
