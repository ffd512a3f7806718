package models

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventsResponse_Succeeded(t *testing.T) {
	tests := []struct {
		body string
		want bool
	}{
		{`{"success":1}`, true},
		{`{"success":1.0}`, true},
		{`{"success":true}`, true},
		{`{"success":0}`, false},
		{`{"success":"1"}`, false},
		{`{"success":null}`, false},
		{`{}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			resp, err := DecodeEventsResponse([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Succeeded())
		})
	}
}

func TestEventsResponse_Events(t *testing.T) {
	resp, err := DecodeEventsResponse([]byte(`{"success":1,"results":[{"id":"1"},"junk",{"id":2}]}`))
	require.NoError(t, err)

	events, err := resp.Events()
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "1", events[0]["id"])
	assert.Equal(t, json.Number("2"), events[1]["id"])
}

func TestEventsResponse_EventsFallsBackToResult(t *testing.T) {
	resp, err := DecodeEventsResponse([]byte(`{"success":1,"results":null,"result":[{"id":"9"}]}`))
	require.NoError(t, err)

	events, err := resp.Events()
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestEventsResponse_NonListResults(t *testing.T) {
	resp, err := DecodeEventsResponse([]byte(`{"success":1,"results":{"id":"1"}}`))
	require.NoError(t, err)

	_, err = resp.Events()
	assert.Error(t, err)
}

func TestEventsResponse_ErrorText(t *testing.T) {
	resp, err := DecodeEventsResponse([]byte(`{"success":0,"error":"TOKEN_INVALID"}`))
	require.NoError(t, err)
	assert.Equal(t, "TOKEN_INVALID", resp.ErrorText())

	resp, err = DecodeEventsResponse([]byte(`{"success": 0, "detail": "x"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"success":0,"detail":"x"}`, resp.ErrorText())
}

func TestDecodeEventsResponse_NotObject(t *testing.T) {
	_, err := DecodeEventsResponse([]byte(`<html>`))
	assert.Error(t, err)
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", Clip("short", 10))
	assert.Equal(t, "abc...", Clip("abcdef", 3))

	// "é" is two bytes; cutting at byte 2 would split it.
	clipped := Clip("aé€z", 2)
	assert.Equal(t, "a...", clipped)
	assert.True(t, utf8.ValidString(clipped))

	clipped = Clip("€€€", 4)
	assert.Equal(t, "€...", clipped)
}

func TestEventsResponse_ErrorTextStaysValidUTF8(t *testing.T) {
	msg := strings.Repeat("a", maxErrorTextLen-1) + "ñandú"
	body, err := json.Marshal(map[string]any{"success": 0, "error": msg})
	require.NoError(t, err)

	resp, err := DecodeEventsResponse(body)
	require.NoError(t, err)

	text := resp.ErrorText()
	assert.True(t, utf8.ValidString(text))
	assert.Equal(t, strings.Repeat("a", maxErrorTextLen-1)+"...", text)
}
