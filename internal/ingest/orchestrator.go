package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"matchkeys/ingestion/internal/models"
	"matchkeys/ingestion/internal/normalize"
)

var (
	// ErrInvalidRange is returned when the end date precedes the start date.
	ErrInvalidRange = errors.New("end date is before start date")
	// ErrMissingToken is returned when no API token was supplied.
	ErrMissingToken = errors.New("betsapi token is required")
)

// RangeRequest describes an inclusive range of days to ingest.
type RangeRequest struct {
	Token    string
	SportID  int
	Scope    models.Scope
	Start    time.Time
	End      time.Time
	Timezone string
	MaxPages int
}

// Progress is reported once per completed day.
type Progress struct {
	Day     time.Time
	Index   int
	Total   int
	Records int
}

// ProgressFunc observes progress. It runs on the orchestrator's goroutine.
type ProgressFunc func(Progress)

// DaySummary is the per-day outcome of a run.
type DaySummary struct {
	Day     time.Time `json:"day"`
	Records int       `json:"records"`
	Pages   int       `json:"pages"`
	Errors  int       `json:"errors"`
}

// Outcome classifies a finished run.
type Outcome string

const (
	OutcomeComplete Outcome = "complete"
	OutcomePartial  Outcome = "partial"
	OutcomeFailed   Outcome = "failed"
	OutcomeEmpty    Outcome = "empty"
)

// Result is the deduplicated batch of a range plus every error record raised.
type Result struct {
	Start    time.Time
	End      time.Time
	Timezone string
	Scope    models.Scope
	SportID  int
	Rows     []models.EventRow
	Errors   []models.ErrorRecord
	Days     []DaySummary
}

// Outcome distinguishes "everything failed" from "nothing existed".
func (r *Result) Outcome() Outcome {
	switch {
	case len(r.Rows) > 0 && len(r.Errors) == 0:
		return OutcomeComplete
	case len(r.Rows) > 0:
		return OutcomePartial
	case len(r.Errors) > 0:
		return OutcomeFailed
	default:
		return OutcomeEmpty
	}
}

// Summary renders the outcome as one sentence.
func (r *Result) Summary() string {
	from := r.Start.Format(models.DateLayout)
	to := r.End.Format(models.DateLayout)

	switch r.Outcome() {
	case OutcomeComplete:
		return fmt.Sprintf("OK. %d events between %s and %s (%s).", len(r.Rows), from, to, r.Timezone)
	case OutcomePartial:
		return fmt.Sprintf("Partial. %d events between %s and %s (%s); %d errors were recorded.",
			len(r.Rows), from, to, r.Timezone, len(r.Errors))
	case OutcomeFailed:
		return fmt.Sprintf("Failed. No events retrieved between %s and %s; %d errors were recorded.",
			from, to, len(r.Errors))
	default:
		return fmt.Sprintf("No events exist between %s and %s for sport %d (%s).", from, to, r.SportID, r.Scope)
	}
}

// Orchestrator runs the paginator over every day of a range.
type Orchestrator struct {
	paginator *Paginator
}

// NewOrchestrator creates an orchestrator over fetcher.
func NewOrchestrator(fetcher PageFetcher) *Orchestrator {
	return &Orchestrator{paginator: NewPaginator(fetcher)}
}

// Run fetches, normalizes and deduplicates every day of the inclusive range.
// Only invalid input is returned as an error; per-page failures are in
// Result.Errors and never stop the day loop.
func (o *Orchestrator) Run(ctx context.Context, req RangeRequest, progress ProgressFunc) (*Result, error) {
	start, end := models.Day(req.Start), models.Day(req.End)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange,
			start.Format(models.DateLayout), end.Format(models.DateLayout))
	}
	if strings.TrimSpace(req.Token) == "" {
		return nil, ErrMissingToken
	}

	total := DaysInRange(start, end)
	normalizer := normalize.New(req.Timezone)

	result := &Result{
		Start:    start,
		End:      end,
		Timezone: strings.TrimSpace(req.Timezone),
		Scope:    req.Scope,
		SportID:  req.SportID,
		Days:     make([]DaySummary, 0, total),
	}

	log.Info().
		Str("from", start.Format(models.DateLayout)).
		Str("to", end.Format(models.DateLayout)).
		Str("scope", string(req.Scope)).
		Int("sport_id", req.SportID).
		Int("days", total).
		Msg("Starting range fetch")

	var rows []models.EventRow
	for i := 0; i < total; i++ {
		day := start.AddDate(0, 0, i)

		dayResult := o.paginator.FetchDay(ctx, DayRequest{
			Token:    req.Token,
			SportID:  req.SportID,
			Scope:    req.Scope,
			Day:      day,
			MaxPages: req.MaxPages,
		})
		result.Errors = append(result.Errors, dayResult.Errors...)

		if len(dayResult.Events) > 0 {
			label := day.Format(models.DateLayout)
			dayRows := normalizer.NormalizeAll(dayResult.Events)
			for j := range dayRows {
				dayRows[j].FetchDay = label
			}
			rows = append(rows, dayRows...)
		}

		result.Days = append(result.Days, DaySummary{
			Day:     day,
			Records: len(dayResult.Events),
			Pages:   dayResult.Pages,
			Errors:  len(dayResult.Errors),
		})

		if progress != nil {
			progress(Progress{Day: day, Index: i + 1, Total: total, Records: len(dayResult.Events)})
		}
	}

	result.Rows = Dedupe(rows)

	log.Info().
		Int("rows", len(result.Rows)).
		Int("duplicates", len(rows)-len(result.Rows)).
		Int("errors", len(result.Errors)).
		Str("outcome", string(result.Outcome())).
		Msg("Range fetch finished")

	return result, nil
}

// Dedupe keeps the first row for each event_key, preserving order.
func Dedupe(rows []models.EventRow) []models.EventRow {
	seen := make(map[string]struct{}, len(rows))
	out := make([]models.EventRow, 0, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.EventKey]; ok {
			continue
		}
		seen[r.EventKey] = struct{}{}
		out = append(out, r)
	}
	return out
}

// DaysInRange counts the calendar days in [start, end]. It is zero when end
// precedes start.
func DaysInRange(start, end time.Time) int {
	s, e := models.Day(start), models.Day(end)
	if e.Before(s) {
		return 0
	}
	n := 0
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}
