package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/freetime/pkg/analysis"
)

func TestLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "09:00", cfg.WorkStart)
	assert.Equal(t, "18:00", cfg.WorkEnd)
	assert.Equal(t, 45, cfg.MinFocusMinutes)
	assert.Equal(t, ProviderGoogle, cfg.Provider)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Timezone = "Europe/Berlin"
	cfg.WorkStart = "08:30"
	cfg.Provider = ProviderICS
	cfg.ICS = []ICSConfig{{ID: "work", URL: "https://example.com/work.ics"}}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loaded.Timezone)
	assert.Equal(t, "08:30", loaded.WorkStart)
	assert.Equal(t, ProviderICS, loaded.Provider)
	require.Len(t, loaded.ICS, 1)
	assert.Equal(t, "https://example.com/work.ics", loaded.ICS[0].URL)
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timezone: Asia/Tokyo\nprovider: JSON\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", cfg.Timezone)
	assert.Equal(t, ProviderJSON, cfg.Provider)
	assert.Equal(t, "09:00", cfg.WorkStart)
	assert.Len(t, cfg.Workdays, 5)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("work_start: [oops"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
		wantErr   bool
	}{
		{"defaults", func(c *Config) { c.Timezone = "UTC" }, "", false},
		{"bad zone", func(c *Config) { c.Timezone = "Atlantis/City" }, "timezone", true},
		{"bad start", func(c *Config) { c.WorkStart = "9am" }, "work_start", true},
		{"end before start", func(c *Config) { c.WorkStart, c.WorkEnd = "18:00", "09:00" }, "work_hours", true},
		{"bad weekday", func(c *Config) { c.Workdays = []string{"someday"} }, "workdays", true},
		{"ics without sources", func(c *Config) { c.Provider = ProviderICS }, "", true},
		{"unknown provider", func(c *Config) { c.Provider = "exchange" }, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Timezone = "UTC"
			tt.mutate(cfg)
			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantField != "" {
				var cfgErr *analysis.ConfigurationError
				require.True(t, errors.As(err, &cfgErr))
				assert.Equal(t, tt.wantField, cfgErr.Field)
			}
		})
	}
}

func TestOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "America/Chicago"
	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	opts, err := cfg.Options(from, to)
	require.NoError(t, err)
	assert.Equal(t, "America/Chicago", opts.Location.String())
	assert.Equal(t, analysis.Clock(9*60), opts.WorkStart)
	assert.Equal(t, analysis.Clock(18*60), opts.WorkEnd)
	assert.Equal(t, 45*time.Minute, opts.MinFocusSlot)
	assert.Len(t, opts.Workdays, 5)

	_, err = cfg.Options(to, from)
	var cfgErr *analysis.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "date_range", cfgErr.Field)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("FREETIME_TIMEZONE", "Europe/Rome")
	t.Setenv("FREETIME_WORK_END", "17:30")

	cfg := DefaultConfig()
	cfg.ApplyEnv()
	assert.Equal(t, "Europe/Rome", cfg.Timezone)
	assert.Equal(t, "17:30", cfg.WorkEnd)
	assert.Equal(t, "09:00", cfg.WorkStart)
}

func TestPolicy(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.Policy().IncludeTentative)
	assert.False(t, cfg.Policy().IncludeNeedsAction)
	cfg.IncludeTentative = true
	cfg.IncludeNeedsAction = true
	assert.True(t, cfg.Policy().IncludeTentative)
	assert.True(t, cfg.Policy().IncludeNeedsAction)
}

func TestValidateRefresh(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Refresh = RefreshOff
	require.NoError(t, cfg.Validate())

	cfg.Refresh = "@hourly"
	require.NoError(t, cfg.Validate())

	cfg.Refresh = "bogus"
	var cfgErr *analysis.ConfigurationError
	require.True(t, errors.As(cfg.Validate(), &cfgErr))
	assert.Equal(t, "refresh", cfgErr.Field)
}

func TestIncludeNeedsActionFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("include_needs_action: true\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.IncludeNeedsAction)
	assert.True(t, cfg.Policy().IncludeNeedsAction)
}
