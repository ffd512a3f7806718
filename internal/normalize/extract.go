package normalize

import "matchkeys/ingestion/internal/models"

var (
	sideNameKeys   = []string{"name_full", "name_en", "name_short", "name"}
	leagueNameKeys = []string{"name", "name_en", "cc"}
)

// SideName returns the display name of a home or away side. Objects resolve
// through name_full, name_en, name_short, name; any other present value is
// rendered as text.
func SideName(side any) string {
	return displayName(side, sideNameKeys)
}

// LeagueName returns the tournament name of a league value, resolved through
// name, name_en, cc.
func LeagueName(league any) string {
	return displayName(league, leagueNameKeys)
}

func displayName(v any, keys []string) string {
	switch obj := v.(type) {
	case map[string]any:
		return firstString(obj, keys...)
	case models.RawEvent:
		return firstString(obj, keys...)
	}
	if !present(v) {
		return ""
	}
	return Stringify(v)
}
