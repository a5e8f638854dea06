package runner

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/freetime/pkg/analysis"
	"github.com/harrisonrobin/freetime/pkg/config"
	"github.com/harrisonrobin/freetime/pkg/filter"
	"github.com/harrisonrobin/freetime/pkg/history"
	"github.com/harrisonrobin/freetime/pkg/jsonsource"
	"github.com/harrisonrobin/freetime/pkg/model"
)

type stubSource struct {
	events   []model.Event
	err      error
	from, to time.Time
}

func (s *stubSource) FetchEvents(_ context.Context, from, to time.Time) ([]model.Event, error) {
	s.from, s.to = from, to
	return s.events, s.err
}

var day = time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func dayOptions() analysis.Options {
	return analysis.Options{Location: time.UTC, WorkStart: 9 * 60, WorkEnd: 17 * 60, From: day, To: day}
}

func TestRunFiltersAndAnalyzes(t *testing.T) {
	src := &stubSource{events: []model.Event{
		{ID: "standup", Start: at(9, 30), End: at(10, 0), ResponseStatus: model.ResponseAccepted},
		{ID: "sync", Start: at(13, 0), End: at(13, 30), ResponseStatus: model.ResponseOrganizer},
		{ID: "declined", Start: at(14, 0), End: at(16, 0), ResponseStatus: model.ResponseDeclined},
		{ID: "maybe", Start: at(16, 0), End: at(17, 0), ResponseStatus: model.ResponseTentative},
	}}
	r := &Runner{Source: src, Provider: "test"}

	res, err := r.Run(context.Background(), dayOptions(), true)
	require.NoError(t, err)
	assert.Equal(t, 0.875, res.Report.ProductivityRatio)
	assert.Empty(t, res.RunID)
	assert.True(t, src.from.Equal(day))
	assert.True(t, src.to.Equal(day.AddDate(0, 0, 1)))

	r.Policy = filter.Policy{IncludeTentative: true}
	res, err = r.Run(context.Background(), dayOptions(), false)
	require.NoError(t, err)
	assert.Equal(t, 6*time.Hour, res.Report.FreeDuration)
}

func TestRunSavesHistory(t *testing.T) {
	store, err := history.New(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	r := &Runner{Source: &stubSource{}, Provider: "test", History: store}
	res, err := r.Run(context.Background(), dayOptions(), true)
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID)

	latest, err := store.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, res.RunID, latest.ID)
	assert.Equal(t, 1.0, latest.ProductivityRatio)

	res, err = r.Run(context.Background(), dayOptions(), false)
	require.NoError(t, err)
	assert.Empty(t, res.RunID)
}

func TestRunErrors(t *testing.T) {
	r := &Runner{Source: &stubSource{err: errors.New("offline")}}
	_, err := r.Run(context.Background(), dayOptions(), false)
	assert.ErrorContains(t, err, "offline")

	opts := dayOptions()
	opts.WorkEnd = opts.WorkStart
	_, err = r.Run(context.Background(), opts, false)
	var cfgErr *analysis.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestFetchRangeUsesReferenceZone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	opts := dayOptions()
	opts.Location = tokyo
	opts.To = day.AddDate(0, 0, 2)

	from, to := FetchRange(opts)
	assert.True(t, from.Equal(time.Date(2025, 3, 12, 0, 0, 0, 0, tokyo)))
	assert.True(t, to.Equal(time.Date(2025, 3, 15, 0, 0, 0, 0, tokyo)))
}

func TestNewSource(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"

	src, provider, err := NewSource(context.Background(), cfg, "events.json")
	require.NoError(t, err)
	assert.Equal(t, config.ProviderJSON, provider)
	assert.IsType(t, &jsonsource.Client{}, src)

	cfg.Provider = config.ProviderICS
	cfg.ICS = []config.ICSConfig{{URL: "https://example.com/a.ics"}}
	_, provider, err = NewSource(context.Background(), cfg, "")
	require.NoError(t, err)
	assert.Equal(t, config.ProviderICS, provider)

	cfg.Provider = config.ProviderJSON
	_, _, err = NewSource(context.Background(), cfg, "")
	assert.Error(t, err)
}
