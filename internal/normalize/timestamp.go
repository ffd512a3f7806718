package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog/log"

	"matchkeys/ingestion/internal/models"
)

// ClockLayout is the 24-hour time format of event_time.
const ClockLayout = "15:04:05"

// ResolveLocation loads an IANA zone. Empty, "Local" and unknown names
// resolve to UTC.
func ResolveLocation(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" || name == "Local" {
		return time.UTC
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Debug().Err(err).Str("timezone", name).Msg("Unknown timezone, using UTC")
		return time.UTC
	}
	return loc
}

// LocalDateTime renders an epoch-seconds value as a local date and time in
// the named zone. It never fails: unusable input yields ("", "").
func LocalDateTime(epoch any, timezone string) (string, string) {
	return localize(epoch, ResolveLocation(timezone))
}

func localize(epoch any, loc *time.Location) (string, string) {
	if !present(epoch) {
		return "", ""
	}

	secs, ok := epochSeconds(epoch)
	if !ok {
		return "", ""
	}

	t := time.Unix(secs, 0)
	if date, clock, ok := format(t.In(loc)); ok {
		return date, clock
	}
	if date, clock, ok := format(t.UTC()); ok {
		return date, clock
	}
	return "", ""
}

func format(t time.Time) (string, string, bool) {
	if y := t.Year(); y < 1 || y > 9999 {
		return "", "", false
	}
	return t.Format(models.DateLayout), t.Format(ClockLayout), true
}

// epochSeconds coerces integers, floats (truncated) and numeric strings.
func epochSeconds(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return truncateFloat(f)
	case float64:
		return truncateFloat(n)
	case float32:
		return truncateFloat(float64(n))
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	}
	return 0, false
}

func truncateFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}
