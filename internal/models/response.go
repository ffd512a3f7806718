package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"unicode/utf8"
)

const maxErrorTextLen = 500

// EventsResponse is one page returned by the events endpoints. Fields are kept
// raw because the upstream is loose about their types.
type EventsResponse struct {
	Success json.RawMessage `json:"success"`
	Results json.RawMessage `json:"results"`
	Result  json.RawMessage `json:"result"`
	Error   json.RawMessage `json:"error"`

	body []byte
}

// DecodeEventsResponse decodes a page body. Anything other than a JSON object
// is an error.
func DecodeEventsResponse(body []byte) (*EventsResponse, error) {
	var resp EventsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode events response: %w", err)
	}
	resp.body = body
	return &resp, nil
}

// SuccessReported reports whether the payload carries a non-null success flag.
func (r *EventsResponse) SuccessReported() bool {
	return !isNull(r.Success)
}

// Succeeded reports whether success is exactly numeric 1 or JSON true.
// Strings such as "1" do not count.
func (r *EventsResponse) Succeeded() bool {
	v := bytes.TrimSpace(r.Success)
	if len(v) == 0 || v[0] == '"' {
		return false
	}
	if string(v) == "true" {
		return true
	}
	f, err := strconv.ParseFloat(string(v), 64)
	return err == nil && f == 1
}

// Events returns the event objects of the page, taken from "results" when it
// is present and non-null, otherwise from "result".
func (r *EventsResponse) Events() ([]RawEvent, error) {
	raw := r.Results
	if isNull(raw) {
		raw = r.Result
	}
	return DecodeEventList(raw)
}

// ErrorText describes an unsuccessful page: the error payload when present,
// otherwise the whole body.
func (r *EventsResponse) ErrorText() string {
	if !isNull(r.Error) {
		var s string
		if err := json.Unmarshal(r.Error, &s); err == nil {
			return truncate(s)
		}
		return truncate(string(compact(r.Error)))
	}
	return truncate(string(compact(r.body)))
}

// DecodeEventList decodes a JSON array of events. Null or absent input yields
// no events, a non-array is an error and non-object items are dropped.
func DecodeEventList(raw json.RawMessage) ([]RawEvent, error) {
	if isNull(raw) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var items []any
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("results is not a list: %w", err)
	}

	events := make([]RawEvent, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			events = append(events, RawEvent(obj))
		}
	}
	return events, nil
}

func isNull(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	return len(v) == 0 || string(v) == "null"
}

func compact(raw []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return bytes.TrimSpace(raw)
	}
	return buf.Bytes()
}

func truncate(s string) string {
	return Clip(s, maxErrorTextLen)
}

// Clip shortens s to at most n bytes plus an ellipsis, backing off to a rune
// boundary so the result stays valid UTF-8.
func Clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
