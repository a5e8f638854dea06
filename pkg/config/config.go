package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/harrisonrobin/freetime/pkg/analysis"
	"github.com/harrisonrobin/freetime/pkg/filter"
	"github.com/harrisonrobin/freetime/pkg/schedule"
	"github.com/harrisonrobin/freetime/pkg/util"
)

const (
	xdgAppName = "freetime"
	configFile = "config.yaml"
)

// Providers understood by the runner.
const (
	ProviderGoogle = "google"
	ProviderICS    = "ics"
	ProviderJSON   = "json"
)

// RefreshOff disables the serve command's scheduled analysis.
const RefreshOff = "off"

// ICSConfig describes one ICS subscription.
type ICSConfig struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

type Config struct {
	// Timezone is the IANA zone all analysis happens in.
	Timezone  string   `yaml:"timezone" json:"timezone"`
	WorkStart string   `yaml:"work_start" json:"work_start"`
	WorkEnd   string   `yaml:"work_end" json:"work_end"`
	Workdays  []string `yaml:"workdays" json:"workdays"`

	// MinFocusMinutes is the shortest free slot counted as focus time.
	MinFocusMinutes  int  `yaml:"min_focus_minutes" json:"min_focus_minutes"`
	IncludeTentative bool `yaml:"include_tentative" json:"include_tentative"`

	// IncludeNeedsAction counts unanswered invitations as busy.
	IncludeNeedsAction bool `yaml:"include_needs_action" json:"include_needs_action"`

	Provider string `yaml:"provider" json:"provider"`
	// Calendar is the Google calendar name; "primary" is the user's own.
	Calendar      string      `yaml:"calendar" json:"calendar"`
	ICS           []ICSConfig `yaml:"ics" json:"ics"`
	AttendeeEmail string      `yaml:"attendee_email" json:"attendee_email"`

	HistoryDB string `yaml:"history_db" json:"history_db"`
	Listen    string `yaml:"listen" json:"listen"`
	// Refresh is a cron spec for the serve command's periodic analysis, or
	// "off".
	Refresh  string `yaml:"refresh" json:"refresh"`
	LogLevel string `yaml:"log_level" json:"log_level"`
}

func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

func DefaultConfig() *Config {
	return &Config{
		Timezone:        localZoneName(),
		WorkStart:       "09:00",
		WorkEnd:         "18:00",
		Workdays:        []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
		MinFocusMinutes: 45,
		Provider:        ProviderGoogle,
		Calendar:        "primary",
		ICS:             []ICSConfig{},
		Listen:          "127.0.0.1:8080",
		Refresh:         "0 18 * * 5",
		LogLevel:        "info",
	}
}

func localZoneName() string {
	if name := time.Local.String(); name != "" && name != "Local" {
		return name
	}
	return "UTC"
}

// Normalize fills zero values with defaults so older or partial files work.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.WorkStart == "" {
		c.WorkStart = def.WorkStart
	}
	if c.WorkEnd == "" {
		c.WorkEnd = def.WorkEnd
	}
	if c.Workdays == nil {
		c.Workdays = def.Workdays
	}
	if c.MinFocusMinutes < 0 {
		c.MinFocusMinutes = 0
	}
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = def.Provider
	}
	if c.Calendar == "" {
		c.Calendar = def.Calendar
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Refresh == "" {
		c.Refresh = def.Refresh
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

// ApplyEnv overrides fields from FREETIME_* variables. A .env file in the
// working directory is loaded first if present.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()
	overrides := map[string]*string{
		"FREETIME_TIMEZONE":   &c.Timezone,
		"FREETIME_WORK_START": &c.WorkStart,
		"FREETIME_WORK_END":   &c.WorkEnd,
		"FREETIME_PROVIDER":   &c.Provider,
		"FREETIME_CALENDAR":   &c.Calendar,
		"FREETIME_LOG_LEVEL":  &c.LogLevel,
	}
	for key, field := range overrides {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*field = strings.TrimSpace(v)
		}
	}
}

// Validate checks everything the analysis and the chosen provider need.
// Analysis problems are reported as *analysis.ConfigurationError.
func (c *Config) Validate() error {
	if _, err := analysis.ResolveLocation(c.Timezone); err != nil {
		return err
	}
	start, err := analysis.ParseClock(c.WorkStart)
	if err != nil {
		return &analysis.ConfigurationError{Field: "work_start", Reason: err.Error()}
	}
	end, err := analysis.ParseClock(c.WorkEnd)
	if err != nil {
		return &analysis.ConfigurationError{Field: "work_end", Reason: err.Error()}
	}
	if end <= start {
		return &analysis.ConfigurationError{Field: "work_hours", Reason: "end time must be after start time"}
	}
	if _, err := util.ParseWeekdays(c.Workdays); err != nil {
		return &analysis.ConfigurationError{Field: "workdays", Reason: err.Error()}
	}
	if c.Refresh != RefreshOff {
		if _, err := schedule.ParseSpec(c.Refresh); err != nil {
			return &analysis.ConfigurationError{Field: "refresh", Reason: err.Error()}
		}
	}

	switch c.Provider {
	case ProviderGoogle:
		if c.Calendar == "" {
			return errors.New("google provider requires a calendar name")
		}
	case ProviderICS:
		if len(c.ICS) == 0 {
			return errors.New("ics provider requires at least one ics source")
		}
		for i, src := range c.ICS {
			if src.URL == "" {
				return fmt.Errorf("ics source %d has no url", i)
			}
		}
	case ProviderJSON:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	return nil
}

// Options builds the analysis input for the inclusive date range from..to.
func (c *Config) Options(from, to time.Time) (analysis.Options, error) {
	loc, err := analysis.ResolveLocation(c.Timezone)
	if err != nil {
		return analysis.Options{}, err
	}
	start, err := analysis.ParseClock(c.WorkStart)
	if err != nil {
		return analysis.Options{}, &analysis.ConfigurationError{Field: "work_start", Reason: err.Error()}
	}
	end, err := analysis.ParseClock(c.WorkEnd)
	if err != nil {
		return analysis.Options{}, &analysis.ConfigurationError{Field: "work_end", Reason: err.Error()}
	}
	workdays, err := util.ParseWeekdays(c.Workdays)
	if err != nil {
		return analysis.Options{}, &analysis.ConfigurationError{Field: "workdays", Reason: err.Error()}
	}

	opts := analysis.Options{
		Location:     loc,
		WorkStart:    start,
		WorkEnd:      end,
		From:         from,
		To:           to,
		Workdays:     workdays,
		MinFocusSlot: time.Duration(c.MinFocusMinutes) * time.Minute,
	}
	return opts, opts.Validate()
}

// Policy is the response-status filter applied before analysis.
func (c *Config) Policy() filter.Policy {
	return filter.Policy{IncludeTentative: c.IncludeTentative, IncludeNeedsAction: c.IncludeNeedsAction}
}

// Load reads the YAML config at path. A missing file is created with
// defaults on first run.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg atomically (temp file + rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".freetime-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}
