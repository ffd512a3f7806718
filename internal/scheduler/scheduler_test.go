package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchkeys/ingestion/internal/config"
	"matchkeys/ingestion/internal/ingest"
	"matchkeys/ingestion/internal/metrics"
	"matchkeys/ingestion/internal/models"
)

type fakeRunner struct {
	result *ingest.Result
	err    error
	got    ingest.RangeRequest
}

func (f *fakeRunner) Run(ctx context.Context, req ingest.RangeRequest, progress ingest.ProgressFunc) (*ingest.Result, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	f.result.Start, f.result.End = models.Day(req.Start), models.Day(req.End)
	return f.result, nil
}

type fakeLoader struct {
	calls     int
	partition models.Partition
	rows      []models.EventRow
	err       error
}

func (f *fakeLoader) ReplacePartition(ctx context.Context, p models.Partition, rows []models.EventRow) (int64, int64, error) {
	f.calls++
	f.partition = p
	f.rows = rows
	return 0, int64(len(rows)), f.err
}

func testConfig() *config.Config {
	return &config.Config{
		BetsAPIToken:        "token",
		DefaultSportID:      13,
		DefaultTimezone:     "America/Monterrey",
		MaxPagesPerDay:      20,
		SyncCron:            "0 */6 * * *",
		SyncScope:           "ended",
		SyncStartOffsetDays: -1,
		SyncEndOffsetDays:   0,
	}
}

func newTestScheduler(runner Runner, loader Loader) *Scheduler {
	s := NewScheduler(testConfig(), runner, loader)
	// 03:00 UTC is still the previous day in Monterrey.
	s.now = func() time.Time { return time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC) }
	return s
}

func TestWindow_UsesConfiguredTimezone(t *testing.T) {
	s := newTestScheduler(nil, nil)
	from, to := s.Window()
	assert.Equal(t, "2024-03-08", from.Format(models.DateLayout))
	assert.Equal(t, "2024-03-09", to.Format(models.DateLayout))
}

func TestRunOnce_LoadsRows(t *testing.T) {
	runner := &fakeRunner{result: &ingest.Result{Rows: []models.EventRow{{EventKey: "1"}}}}
	loader := &fakeLoader{}

	require.NoError(t, newTestScheduler(runner, loader).RunOnce(context.Background()))

	assert.Equal(t, models.ScopeEnded, runner.got.Scope)
	assert.Equal(t, 13, runner.got.SportID)
	assert.Equal(t, 1, loader.calls)
	assert.Equal(t, "America/Monterrey", loader.partition.Timezone)
	assert.Equal(t, "2024-03-08", loader.partition.Start.Format(models.DateLayout))
	assert.Len(t, loader.rows, 1)
}

func TestRunOnce_EmptyResultSkipsLoad(t *testing.T) {
	runner := &fakeRunner{result: &ingest.Result{
		Errors: []models.ErrorRecord{{Day: "2024-03-08", Page: 1, Kind: models.ErrorKindTransport}},
	}}
	loader := &fakeLoader{}

	require.NoError(t, newTestScheduler(runner, loader).RunOnce(context.Background()))
	assert.Zero(t, loader.calls)
}

func TestRunOnce_Errors(t *testing.T) {
	runner := &fakeRunner{err: ingest.ErrMissingToken}
	err := newTestScheduler(runner, &fakeLoader{}).RunOnce(context.Background())
	assert.True(t, errors.Is(err, ingest.ErrMissingToken))

	runner = &fakeRunner{result: &ingest.Result{Rows: []models.EventRow{{EventKey: "1"}}}}
	loader := &fakeLoader{err: errors.New("connection reset")}
	err = newTestScheduler(runner, loader).RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestStart_RejectsBadCron(t *testing.T) {
	s := newTestScheduler(&fakeRunner{}, &fakeLoader{})
	s.cfg.SyncCron = "every day"
	assert.Error(t, s.Start(context.Background()))
}

func lastSync(t *testing.T) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, metrics.LastSuccessfulSync.Write(&m))
	return m.GetGauge().GetValue()
}

func TestRunOnce_LastSyncGauge(t *testing.T) {
	tests := []struct {
		name    string
		result  *ingest.Result
		loadErr error
		want    bool
	}{
		{
			name:   "complete",
			result: &ingest.Result{Rows: []models.EventRow{{EventKey: "1"}}},
			want:   true,
		},
		{
			name: "partial load still counts",
			result: &ingest.Result{
				Rows:   []models.EventRow{{EventKey: "1"}},
				Errors: []models.ErrorRecord{{Day: "2024-03-09", Page: 2, Kind: models.ErrorKindTransport}},
			},
			want: true,
		},
		{
			name: "failed fetch",
			result: &ingest.Result{
				Errors: []models.ErrorRecord{{Day: "2024-03-08", Page: 1, Kind: models.ErrorKindUpstream}},
			},
		},
		{
			name:    "load error",
			result:  &ingest.Result{Rows: []models.EventRow{{EventKey: "1"}}},
			loadErr: errors.New("connection reset"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics.LastSuccessfulSync.Set(0)

			s := newTestScheduler(&fakeRunner{result: tt.result}, &fakeLoader{err: tt.loadErr})
			_ = s.RunOnce(context.Background())

			if tt.want {
				assert.Greater(t, lastSync(t), 0.0)
			} else {
				assert.Zero(t, lastSync(t))
			}
		})
	}
}
