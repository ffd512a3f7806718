// Package normalize maps loosely-typed upstream event objects to the
// canonical eight-column row.
package normalize

import (
	"time"

	"matchkeys/ingestion/internal/metrics"
	"matchkeys/ingestion/internal/models"
)

// Fallback key lists, in priority order.
var (
	eventKeyFields = []string{"id", "event_id", "FI", "match_id", "event_key"}
	startFields    = []string{"time", "start_time", "kickoff"}
	homeFields     = []string{"home", "home_team", "home_player"}
	awayFields     = []string{"away", "away_team", "away_player"}
	statusFields   = []string{"time_status", "status"}
)

// Normalizer converts raw events using one resolved timezone.
type Normalizer struct {
	loc *time.Location
}

// New resolves the timezone once for a batch.
func New(timezone string) *Normalizer {
	return &Normalizer{loc: ResolveLocation(timezone)}
}

// Normalize produces exactly one row for any event object. It never fails.
func (n *Normalizer) Normalize(ev models.RawEvent) models.EventRow {
	obj := map[string]any(ev)

	row := models.EventRow{
		EventKey:      firstString(obj, eventKeyFields...),
		EventTypeType: firstString(obj, "sport_id"),
		EventStatus:   firstString(obj, statusFields...),
	}

	epoch, _ := first(obj, startFields...)
	row.EventDate, row.EventTime = localize(epoch, n.loc)

	league, _ := first(obj, "league")
	row.TournamentName = LeagueName(league)

	home, _ := first(obj, homeFields...)
	row.FirstPlayer = SideName(home)

	away, _ := first(obj, awayFields...)
	row.SecondPlayer = SideName(away)

	return row
}

// NormalizeAll maps a batch in order, one row per event.
func (n *Normalizer) NormalizeAll(events []models.RawEvent) []models.EventRow {
	rows := make([]models.EventRow, 0, len(events))
	for _, ev := range events {
		rows = append(rows, n.Normalize(ev))
	}
	metrics.EventsNormalized.Add(float64(len(rows)))
	return rows
}

// Events is a one-shot helper for a batch in the given timezone.
func Events(events []models.RawEvent, timezone string) []models.EventRow {
	return New(timezone).NormalizeAll(events)
}
