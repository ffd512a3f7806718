package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchkeys/ingestion/internal/config"
	"matchkeys/ingestion/internal/ingest"
	"matchkeys/ingestion/internal/models"
	"matchkeys/ingestion/internal/session"
)

// setup installs a test config and an in-memory session store.
func setup(t *testing.T, baseURL string) *session.MemoryStore {
	t.Helper()

	cfg = &config.Config{
		BetsAPIBaseURL:  baseURL,
		BetsAPITimeout:  5 * time.Second,
		MaxPagesPerDay:  20,
		DefaultSportID:  13,
		DefaultTimezone: "UTC",
	}
	sessionName = "test"

	store := session.NewMemoryStore(time.Hour)
	prev := openSessionStore
	openSessionStore = func(context.Context) session.Store { return store }
	t.Cleanup(func() { openSessionStore = prev })

	return store
}

func run(t *testing.T, cmd *cobra.Command) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetContext(context.Background())
	t.Cleanup(func() {
		cmd.SetOut(nil)
		cmd.SetErr(nil)
	})
	err := cmd.RunE(cmd, nil)
	return out.String(), err
}

func betsAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("page") != "1" {
			_, _ = w.Write([]byte(`{"success":1,"results":[]}`))
			return
		}
		fmt.Fprintf(w, `{"success":1,"results":[{"id":"%s-1","time":"1709280000","home":{"name":"A"},"away":{"name":"B"},"league":{"name":"ATP"},"sport_id":"13","time_status":"0"},{"id":"shared"}]}`, q.Get("day"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func resetFetchOpts() {
	fetchOpts.token = ""
	fetchOpts.sportID = 0
	fetchOpts.scope = "upcoming"
	fetchOpts.from = ""
	fetchOpts.to = ""
	fetchOpts.timezone = ""
	fetchOpts.maxPages = 0
	fetchOpts.save = false
	fetchOpts.csv = ""
	fetchOpts.keys = ""
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"fetch", "import", "save", "export", "query"} {
		assert.True(t, names[want], want)
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("session"))
}

func TestFetchCmd_StoresSession(t *testing.T) {
	store := setup(t, betsAPIServer(t).URL)
	resetFetchOpts()
	fetchOpts.token = "t"
	fetchOpts.from = "2024-03-01"
	fetchOpts.to = "2024-03-02"

	out, err := run(t, fetchCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "OK. 3 events")

	s, err := store.Load(context.Background(), "test")
	require.NoError(t, err)
	require.Len(t, s.Rows, 3)
	assert.Equal(t, "20240301-1", s.Rows[0].EventKey)
	assert.Equal(t, "shared", s.Rows[1].EventKey)
	assert.Equal(t, "20240302-1", s.Rows[2].EventKey)
	assert.Equal(t, session.SourceAPI, s.Source)
	assert.Equal(t, "UTC", s.Timezone)
}

func TestFetchCmd_Validation(t *testing.T) {
	setup(t, "http://127.0.0.1:1")

	resetFetchOpts()
	_, err := run(t, fetchCmd)
	assert.True(t, errors.Is(err, ingest.ErrMissingToken))

	resetFetchOpts()
	fetchOpts.token = "t"
	fetchOpts.from = "2024-03-05"
	fetchOpts.to = "2024-03-01"
	_, err = run(t, fetchCmd)
	assert.True(t, errors.Is(err, ingest.ErrInvalidRange))

	resetFetchOpts()
	fetchOpts.token = "t"
	fetchOpts.sportID = 1000
	_, err = run(t, fetchCmd)
	assert.Error(t, err)

	resetFetchOpts()
	fetchOpts.token = "t"
	fetchOpts.scope = "live"
	_, err = run(t, fetchCmd)
	assert.Error(t, err)
}

func TestFetchCmd_WritesKeysToStdout(t *testing.T) {
	setup(t, betsAPIServer(t).URL)
	resetFetchOpts()
	fetchOpts.token = "t"
	fetchOpts.from = "2024-03-01"
	fetchOpts.to = "2024-03-01"
	fetchOpts.keys = "-"

	out, err := run(t, fetchCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "20240301-1\nshared\n")
}

func TestImportCmd(t *testing.T) {
	store := setup(t, "")
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"1"},{"id":"2"}]`), 0o600))

	importOpts.file = path
	importOpts.timezone = "UTC"
	importOpts.from = "2024-03-01"
	importOpts.to = "2024-03-03"

	out, err := run(t, importCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "2 events")

	s, err := store.Load(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, session.SourceUpload, s.Source)
	assert.Equal(t, "2024-03-03", s.End.Format("2006-01-02"))
}

func TestImportCmd_Unsuccessful(t *testing.T) {
	setup(t, "")
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"success":0,"error":"x"}`), 0o600))

	importOpts.file = path
	importOpts.from, importOpts.to = "", ""

	_, err := run(t, importCmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "success != 1")
}

func TestExportCmd_CSVToDirectory(t *testing.T) {
	store := setup(t, "")
	s := session.New("test", session.SourceUpload)
	s.Start = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s.End = time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(context.Background(), s))

	dir := t.TempDir()
	exportOpts.csv = dir
	exportOpts.keys = ""
	_, err := run(t, exportCmd)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "match_keys_2024-03-01_to_2024-03-02.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "event_key,event_date"))
}

func TestExportCmd_NoSession(t *testing.T) {
	setup(t, "")
	exportOpts.csv = "-"

	_, err := run(t, exportCmd)
	assert.True(t, errors.Is(err, session.ErrNotFound))
}

func TestSaveCmd_RequiresCredentials(t *testing.T) {
	store := setup(t, "")
	s := session.New("test", session.SourceAPI)
	s.Rows = sessionRows()
	require.NoError(t, store.Save(context.Background(), s))

	_, err := run(t, saveCmd)
	assert.True(t, errors.Is(err, config.ErrMissingWarehouseCredentials))
}

func TestQueryCmd_RequiresCredentials(t *testing.T) {
	setup(t, "")
	queryOpts.from = "2024-03-01"
	queryOpts.to = "2024-03-01"

	_, err := run(t, queryCmd)
	assert.True(t, errors.Is(err, config.ErrMissingWarehouseCredentials))
}

func TestSaveToWarehouse_EmptySession(t *testing.T) {
	setup(t, "")
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	err := saveToWarehouse(cmd, session.New("test", session.SourceAPI))
	assert.True(t, errors.Is(err, errEmptySession))
}

func sessionRows() []models.EventRow {
	return []models.EventRow{{EventKey: "1", EventDate: "2024-03-01"}}
}
