package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"matchkeys/ingestion/internal/metrics"
	"matchkeys/ingestion/internal/models"
)

// DefaultBaseURL is the public BetsAPI host.
const DefaultBaseURL = "https://api.b365api.com"

const maxBodySnippet = 300

// ErrInvalidScope is returned for a page request without a known scope.
var ErrInvalidScope = errors.New("invalid scope")

var tokenParamRegex = regexp.MustCompile(`token=[^&\s"']+`)

// RedactToken masks token query parameters in URLs and error text.
func RedactToken(s string) string {
	return tokenParamRegex.ReplaceAllString(s, "token=REDACTED")
}

// Client is the BetsAPI events client
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a BetsAPI client. A non-positive rate disables throttling.
func NewClient(baseURL string, timeout time.Duration, ratePerSecond float64, burst int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if burst < 1 {
		burst = 1
	}

	limit := rate.Limit(ratePerSecond)
	if ratePerSecond <= 0 {
		limit = rate.Inf
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: rate.NewLimiter(limit, burst),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// PageRequest identifies one page of one day's events.
type PageRequest struct {
	Token   string
	SportID int
	Day     time.Time
	Scope   models.Scope
	Page    int
}

// statusError is a non-2xx HTTP response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.code == http.StatusUnauthorized || e.code == http.StatusForbidden {
		return fmt.Sprintf("API authentication failed (status %d): %s", e.code, e.body)
	}
	return fmt.Sprintf("API returned status %d: %s", e.code, e.body)
}

// redactedError hides the token carried in *url.Error messages.
type redactedError struct {
	err error
}

func (e *redactedError) Error() string { return RedactToken(e.err.Error()) }
func (e *redactedError) Unwrap() error { return e.err }

// get performs a single throttled GET request. Any non-2xx status is an error.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", &redactedError{err})
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "matchkeys/1.0")

	log.Debug().
		Str("url", RedactToken(endpoint)).
		Msg("Making API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("API request failed: %w", &redactedError{err})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, &statusError{code: resp.StatusCode, body: snippet(body)}
	}

	log.Debug().
		Str("url", RedactToken(endpoint)).
		Int("status", resp.StatusCode).
		Int("size", len(body)).
		Msg("API request successful")

	return body, resp.StatusCode, nil
}

// FetchEventsPage fetches one page of the scope's events for a day.
func (c *Client) FetchEventsPage(ctx context.Context, req PageRequest) (*models.EventsResponse, error) {
	if req.Scope != models.ScopeUpcoming && req.Scope != models.ScopeEnded {
		return nil, fmt.Errorf("%w: %q", ErrInvalidScope, req.Scope)
	}

	params := url.Values{}
	params.Set("token", req.Token)
	params.Set("sport_id", strconv.Itoa(req.SportID))
	params.Set("day", req.Day.Format("20060102"))
	params.Set("page", strconv.Itoa(req.Page))

	start := time.Now()
	body, code, err := c.get(ctx, req.Scope.Path(), params)
	duration := time.Since(start).Seconds()

	status := "error"
	if code != 0 {
		status = strconv.Itoa(code)
	}
	metrics.RecordAPICall(string(req.Scope), status, duration)

	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s events page %d: %w", req.Scope, req.Page, err)
	}

	resp, err := models.DecodeEventsResponse(body)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func snippet(body []byte) string {
	return RedactToken(models.Clip(strings.TrimSpace(string(body)), maxBodySnippet))
}
