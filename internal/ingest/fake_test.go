package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"matchkeys/ingestion/internal/client"
	"matchkeys/ingestion/internal/models"
)

// fakeFetcher serves canned page bodies keyed by "YYYYMMDD/page".
type fakeFetcher struct {
	mu       sync.Mutex
	pages    map[string]string
	errs     map[string]error
	fallback func(req client.PageRequest) string
	calls    []client.PageRequest
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{pages: map[string]string{}, errs: map[string]error{}}
}

func pageKey(day string, page int) string {
	return fmt.Sprintf("%s/%d", strings.ReplaceAll(day, "-", ""), page)
}

func (f *fakeFetcher) on(day string, page int, body string) *fakeFetcher {
	f.pages[pageKey(day, page)] = body
	return f
}

func (f *fakeFetcher) fail(day string, page int, err error) *fakeFetcher {
	f.errs[pageKey(day, page)] = err
	return f
}

func (f *fakeFetcher) FetchEventsPage(ctx context.Context, req client.PageRequest) (*models.EventsResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%d", req.Day.Format("20060102"), req.Page)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}

	body, ok := f.pages[key]
	if !ok && f.fallback != nil {
		body, ok = f.fallback(req), true
	}
	if !ok {
		body = `{"success":1,"results":[]}`
	}
	return models.DecodeEventsResponse([]byte(body))
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var errConnRefused = errors.New("dial tcp 127.0.0.1:443: connect: connection refused")
