// Package session keeps the working row set between CLI invocations.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"matchkeys/ingestion/internal/models"
)

// ErrNotFound is returned when no session is stored under a name.
var ErrNotFound = errors.New("session not found")

// Source records where a session's rows came from.
type Source string

const (
	SourceAPI    Source = "api"
	SourceUpload Source = "upload"
)

// Session is the buffered result of the last fetch or import.
type Session struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Source    Source               `json:"source"`
	Scope     models.Scope         `json:"scope,omitempty"`
	SportID   int                  `json:"sport_id,omitempty"`
	Start     time.Time            `json:"start"`
	End       time.Time            `json:"end"`
	Timezone  string               `json:"timezone"`
	Rows      []models.EventRow    `json:"rows"`
	Errors    []models.ErrorRecord `json:"errors,omitempty"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// New starts a session with a fresh run id.
func New(name string, source Source) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Name:      name,
		Source:    source,
		UpdatedAt: time.Now().UTC(),
	}
}

// Partition is the warehouse partition a save of this session replaces.
func (s *Session) Partition() models.Partition {
	return models.NewPartition(s.Start, s.End, s.Timezone)
}

// Store persists sessions by name.
type Store interface {
	Load(ctx context.Context, name string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, name string) error
	Close() error
}
