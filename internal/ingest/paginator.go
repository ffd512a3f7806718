// Package ingest pages through BetsAPI day by day and assembles a
// deduplicated, normalized batch for a date range.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"matchkeys/ingestion/internal/client"
	"matchkeys/ingestion/internal/metrics"
	"matchkeys/ingestion/internal/models"
)

// MaxPagesPerDay is the default pagination ceiling for one day.
const MaxPagesPerDay = 20

// PageFetcher fetches a single page of events.
type PageFetcher interface {
	FetchEventsPage(ctx context.Context, req client.PageRequest) (*models.EventsResponse, error)
}

// DayRequest describes one day to page through.
type DayRequest struct {
	Token    string
	SportID  int
	Scope    models.Scope
	Day      time.Time
	MaxPages int
}

// DayResult holds every event collected for a day, in page order, plus the
// error records raised while collecting them.
type DayResult struct {
	Day    time.Time
	Events []models.RawEvent
	Pages  int
	Errors []models.ErrorRecord
}

// Paginator walks pages 1..MaxPages for a single day.
type Paginator struct {
	fetcher PageFetcher
}

// NewPaginator creates a paginator over fetcher.
func NewPaginator(fetcher PageFetcher) *Paginator {
	return &Paginator{fetcher: fetcher}
}

// FetchDay collects events page by page until an empty page, the first
// error, or the page ceiling. Errors never escape: they become records and
// the events gathered so far are kept.
func (p *Paginator) FetchDay(ctx context.Context, req DayRequest) DayResult {
	maxPages := req.MaxPages
	if maxPages <= 0 {
		maxPages = MaxPagesPerDay
	}

	day := models.Day(req.Day)
	label := day.Format(models.DateLayout)
	result := DayResult{Day: day}

	record := func(page int, kind models.ErrorKind, msg string) {
		result.Errors = append(result.Errors, models.ErrorRecord{
			Day:     label,
			Page:    page,
			Kind:    kind,
			Message: msg,
		})
		metrics.RecordFetchError(string(kind))
		log.Warn().
			Str("day", label).
			Int("page", page).
			Str("kind", string(kind)).
			Msg(msg)
	}

	for page := 1; ; page++ {
		resp, err := p.fetcher.FetchEventsPage(ctx, client.PageRequest{
			Token:   req.Token,
			SportID: req.SportID,
			Day:     day,
			Scope:   req.Scope,
			Page:    page,
		})
		if err != nil {
			record(page, models.ErrorKindTransport, fmt.Sprintf("http error: %s", client.RedactToken(err.Error())))
			break
		}

		if !resp.Succeeded() {
			record(page, models.ErrorKindUpstream, fmt.Sprintf("success != 1 (%s)", resp.ErrorText()))
			break
		}

		events, err := resp.Events()
		if err != nil {
			record(page, models.ErrorKindUpstream, err.Error())
			break
		}
		if len(events) == 0 {
			break
		}

		result.Events = append(result.Events, events...)
		result.Pages = page
		metrics.RecordPage(string(req.Scope))

		if page >= maxPages {
			record(page, models.ErrorKindTruncated,
				fmt.Sprintf("page limit of %d reached; results for this day may be incomplete", maxPages))
			break
		}
	}

	log.Debug().
		Str("day", label).
		Int("pages", result.Pages).
		Int("events", len(result.Events)).
		Msg("Fetched day")

	return result
}
