package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"matchkeys/ingestion/internal/models"
	"matchkeys/ingestion/internal/normalize"
)

// ErrUploadNotSuccessful is returned for a document whose success flag is
// present and not 1.
var ErrUploadNotSuccessful = errors.New("uploaded document reports success != 1")

// ParseUpload reads an API-shaped document: an object carrying "results" or
// "result", or a bare list of events.
func ParseUpload(r io.Reader) ([]models.RawEvent, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("upload is empty")
	}

	if trimmed[0] == '[' {
		events, err := models.DecodeEventList(trimmed)
		if err != nil {
			return nil, fmt.Errorf("failed to decode upload: %w", err)
		}
		return events, nil
	}

	resp, err := models.DecodeEventsResponse(trimmed)
	if err != nil {
		return nil, err
	}
	if resp.SuccessReported() && !resp.Succeeded() {
		return nil, fmt.Errorf("%w: %s", ErrUploadNotSuccessful, resp.ErrorText())
	}

	events, err := models.DecodeEventList(resp.Results)
	if err != nil {
		return nil, fmt.Errorf("failed to decode upload: %w", err)
	}
	if len(events) > 0 {
		return events, nil
	}

	events, err = models.DecodeEventList(resp.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode upload: %w", err)
	}
	return events, nil
}

// ImportUpload parses a document and normalizes it the same way a live fetch
// is normalized. Rows carry no fetch day.
func ImportUpload(r io.Reader, timezone string) ([]models.EventRow, error) {
	events, err := ParseUpload(r)
	if err != nil {
		return nil, err
	}
	return normalize.Events(events, timezone), nil
}
