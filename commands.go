package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harrisonrobin/freetime/pkg/analysis"
	"github.com/harrisonrobin/freetime/pkg/auth"
	"github.com/harrisonrobin/freetime/pkg/config"
	"github.com/harrisonrobin/freetime/pkg/log"
	"github.com/harrisonrobin/freetime/pkg/report"
	"github.com/harrisonrobin/freetime/pkg/runner"
	"github.com/harrisonrobin/freetime/pkg/schedule"
	"github.com/harrisonrobin/freetime/pkg/server"
	"github.com/harrisonrobin/freetime/pkg/util"
)

func authCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize read access to Google Calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}
			if err := auth.ResetToken(); err != nil {
				return err
			}
			if _, err := auth.GetCalendarService(cmd.Context()); err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}
			path, _ := auth.TokenPath()
			fmt.Printf("Authentication successful! Token saved to %s\n", path)
			return nil
		},
	}
}

type analyzeFlags struct {
	from, to    string
	start, end  string
	events      string
	jsonOut     bool
	noSave      bool
	slots       bool
	verbose     bool
	tentative   bool
	minFocusMin int
}

func analyzeCmd() *cobra.Command {
	var f analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze free time for a date range (default: last work week)",
		RunE: func(cmd *cobra.Command, args []string) error {
			// 1. Config, then flags on top (flag > env > file > default)
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if f.start != "" {
				cfg.WorkStart = f.start
			}
			if f.end != "" {
				cfg.WorkEnd = f.end
			}
			if cmd.Flags().Changed("tentative") {
				cfg.IncludeTentative = f.tentative
			}
			if cmd.Flags().Changed("min-focus") {
				cfg.MinFocusMinutes = f.minFocusMin
			}
			if f.events == "" {
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			// 2. Date range
			loc, err := analysis.ResolveLocation(cfg.Timezone)
			if err != nil {
				return err
			}
			from, to, err := dateRange(f.from, f.to, loc, time.Now())
			if err != nil {
				return err
			}
			opts, err := cfg.Options(from, to)
			if err != nil {
				return err
			}

			// 3. Source and history
			src, provider, err := runner.NewSource(cmd.Context(), cfg, f.events)
			if err != nil {
				return err
			}
			r := &runner.Runner{Source: src, Provider: provider, Policy: cfg.Policy()}
			if !f.noSave {
				store, err := openHistory(cfg)
				if err != nil {
					log.Warn("history unavailable, run will not be saved", "err", err)
				} else {
					defer store.Close()
					r.History = store
				}
			}

			// 4. Analyze and print
			res, err := r.Run(cmd.Context(), opts, !f.noSave)
			if err != nil {
				return err
			}
			if f.jsonOut {
				return report.WriteJSON(os.Stdout, res.Report)
			}
			return report.WriteText(os.Stdout, res.Report, report.TextOptions{Slots: f.slots || f.verbose, Skipped: f.verbose})
		},
	}

	cmd.Flags().StringVar(&f.from, "from", "", "first date to analyze (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "last date to analyze, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.start, "start", "", "work day start (HH:MM); overrides config")
	cmd.Flags().StringVar(&f.end, "end", "", "work day end (HH:MM); overrides config")
	cmd.Flags().StringVar(&f.events, "events", "", "read events from a JSON file instead of the provider (- for stdin)")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&f.noSave, "no-save", false, "do not store the run in history")
	cmd.Flags().BoolVar(&f.slots, "slots", false, "list every free slot")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "list free slots and skipped events")
	cmd.Flags().BoolVar(&f.tentative, "tentative", false, "count tentative meetings as busy")
	cmd.Flags().IntVar(&f.minFocusMin, "min-focus", 45, "shortest free slot, in minutes, that counts as focus time")
	return cmd
}

// dateRange resolves --from/--to. With neither, the previous Monday to
// Friday; with only --from, that single day.
func dateRange(fromFlag, toFlag string, loc *time.Location, now time.Time) (time.Time, time.Time, error) {
	if fromFlag == "" && toFlag == "" {
		from, to := util.PreviousWorkWeek(now.In(loc))
		return from, to, nil
	}
	if fromFlag == "" {
		return time.Time{}, time.Time{}, &analysis.ConfigurationError{Field: "date_range", Reason: "--to requires --from"}
	}
	from, err := util.ParseDate(fromFlag, loc)
	if err != nil {
		return time.Time{}, time.Time{}, &analysis.ConfigurationError{Field: "date_range", Reason: err.Error()}
	}
	if toFlag == "" {
		return from, from, nil
	}
	to, err := util.ParseDate(toFlag, loc)
	if err != nil {
		return time.Time{}, time.Time{}, &analysis.ConfigurationError{Field: "date_range", Reason: err.Error()}
	}
	return from, to, nil
}

func configCmd() *cobra.Command {
	var timezone, start, end, calendar, provider string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or update the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if timezone == "" && start == "" && end == "" && calendar == "" && provider == "" {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				fmt.Printf("# %s\n", configPath)
				enc := yaml.NewEncoder(os.Stdout)
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(cfg)
			}

			// The file is updated without env overrides so they are not persisted.
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			updates := []struct{ key, value string }{
				{"timezone", timezone},
				{"work_start", start},
				{"work_end", end},
				{"calendar", calendar},
				{"provider", provider},
			}
			for _, u := range updates {
				if u.value == "" {
					continue
				}
				if err := setConfigValue(cfg, u.key, u.value); err != nil {
					return err
				}
			}
			return saveConfig(cfg)
		},
	}
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA time zone for the analysis")
	cmd.Flags().StringVar(&start, "start", "", "work day start (HH:MM)")
	cmd.Flags().StringVar(&end, "end", "", "work day end (HH:MM)")
	cmd.Flags().StringVar(&calendar, "calendar", "", "Google calendar name")
	cmd.Flags().StringVar(&provider, "provider", "", "event provider (google, ics, json)")

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting and save the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := setConfigValue(cfg, args[0], args[1]); err != nil {
				return err
			}
			return saveConfig(cfg)
		},
	})
	return cmd
}

func saveConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(configPath); err != nil {
		return err
	}
	fmt.Printf("Configuration saved to %s\n", configPath)
	return nil
}

func setConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "timezone":
		cfg.Timezone = value
	case "work_start":
		cfg.WorkStart = value
	case "work_end":
		cfg.WorkEnd = value
	case "workdays":
		cfg.Workdays = strings.Split(value, ",")
	case "provider":
		cfg.Provider = value
	case "calendar":
		cfg.Calendar = value
	case "attendee_email":
		cfg.AttendeeEmail = value
	case "history_db":
		cfg.HistoryDB = value
	case "listen":
		cfg.Listen = value
	case "refresh":
		cfg.Refresh = value
	case "log_level":
		cfg.LogLevel = value
	case "min_focus_minutes":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("min_focus_minutes: %w", err)
		}
		cfg.MinFocusMinutes = n
	case "include_tentative":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("include_tentative: %w", err)
		}
		cfg.IncludeTentative = b
	case "include_needs_action":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("include_needs_action: %w", err)
		}
		cfg.IncludeNeedsAction = b
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored analysis runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit, 0)
			if err != nil {
				return err
			}
			return report.WriteHistory(os.Stdout, runs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}

func serveCmd() *cobra.Command {
	var listen string
	var noRefresh bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve reports over HTTP and refresh them on a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			loc, err := analysis.ResolveLocation(cfg.Timezone)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			src, provider, err := runner.NewSource(ctx, cfg, "")
			if err != nil {
				return err
			}
			store, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			r := &runner.Runner{Source: src, Provider: provider, Policy: cfg.Policy(), History: store}

			if !noRefresh && cfg.Refresh != config.RefreshOff {
				refresher, err := schedule.New(cfg.Refresh, loc, func(ctx context.Context) error {
					from, to := util.PreviousWorkWeek(time.Now().In(loc))
					opts, err := cfg.Options(from, to)
					if err != nil {
						return err
					}
					_, err = r.Run(ctx, opts, true)
					return err
				})
				if err != nil {
					return err
				}
				refresher.Start(ctx)
			}

			return server.New(r, store, cfg.Options, loc).ListenAndServe(ctx, cfg.Listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address; overrides config")
	cmd.Flags().BoolVar(&noRefresh, "no-refresh", false, "disable the scheduled refresh")
	return cmd
}
