package models

import (
	"fmt"
	"strings"
)

// Scope selects which upstream events endpoint is queried.
type Scope string

const (
	ScopeUpcoming Scope = "upcoming"
	ScopeEnded    Scope = "ended"
)

// ParseScope accepts "upcoming" or "ended", case-insensitively.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopeUpcoming:
		return ScopeUpcoming, nil
	case ScopeEnded:
		return ScopeEnded, nil
	}
	return "", fmt.Errorf("invalid scope %q: expected %q or %q", s, ScopeUpcoming, ScopeEnded)
}

// Path returns the endpoint path for the scope.
func (s Scope) Path() string {
	if s == ScopeUpcoming {
		return "/v3/events/upcoming"
	}
	return "/v3/events/ended"
}
