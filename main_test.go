package main

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/freetime/pkg/analysis"
	"github.com/harrisonrobin/freetime/pkg/config"
)

func TestDateRangeDefaultsToPreviousWorkWeek(t *testing.T) {
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC) // Wednesday
	from, to, err := dateRange("", "", time.UTC, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC), to)
}

func TestDateRangeFlags(t *testing.T) {
	from, to, err := dateRange("2025-03-10", "", time.UTC, time.Now())
	require.NoError(t, err)
	assert.Equal(t, from, to)

	from, to, err = dateRange("2025-03-10", "2025-03-14", time.UTC, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 4*24*time.Hour, to.Sub(from))

	var cfgErr *analysis.ConfigurationError
	_, _, err = dateRange("", "2025-03-14", time.UTC, time.Now())
	assert.True(t, errors.As(err, &cfgErr))

	_, _, err = dateRange("10/03/2025", "", time.UTC, time.Now())
	assert.True(t, errors.As(err, &cfgErr))
}

func TestSetConfigValue(t *testing.T) {
	cfg := config.DefaultConfig()

	require.NoError(t, setConfigValue(cfg, "work_start", "08:30"))
	require.NoError(t, setConfigValue(cfg, "workdays", "mon,tue,wed"))
	require.NoError(t, setConfigValue(cfg, "min_focus_minutes", "60"))
	require.NoError(t, setConfigValue(cfg, "include_tentative", "true"))

	assert.Equal(t, "08:30", cfg.WorkStart)
	assert.Equal(t, []string{"mon", "tue", "wed"}, cfg.Workdays)
	assert.Equal(t, 60, cfg.MinFocusMinutes)
	assert.True(t, cfg.IncludeTentative)

	require.NoError(t, setConfigValue(cfg, "include_needs_action", "true"))
	assert.True(t, cfg.Policy().IncludeNeedsAction)

	require.NoError(t, setConfigValue(cfg, "refresh", "bogus"))
	var cfgErr *analysis.ConfigurationError
	require.True(t, errors.As(cfg.Validate(), &cfgErr))
	assert.Equal(t, "refresh", cfgErr.Field)

	assert.Error(t, setConfigValue(cfg, "min_focus_minutes", "lots"))
	assert.Error(t, setConfigValue(cfg, "colour", "blue"))
}
