package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/freetime/pkg/analysis"
	"github.com/harrisonrobin/freetime/pkg/config"
	"github.com/harrisonrobin/freetime/pkg/history"
	"github.com/harrisonrobin/freetime/pkg/log"
)

var (
	configPath string
	logLevel   string
)

func main() {
	defaultConfig, err := config.GetConfigPath()
	if err != nil {
		defaultConfig = "config.yaml"
	}

	rootCmd := &cobra.Command{
		Use:           "freetime",
		Short:         "Measure how much uninterrupted time your calendar leaves you",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfig, "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides config")

	rootCmd.AddCommand(authCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(serveCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = rootCmd.ExecuteContext(ctx)
	stop()
	log.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var cfgErr *analysis.ConfigurationError
		if errors.As(err, &cfgErr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// loadConfig reads the config file, applies FREETIME_* overrides and the
// log level. Command flags are applied on top by each command.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", configPath, err)
	}
	cfg.ApplyEnv()

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	if err := log.SetLevel(level); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openHistory opens the configured history database.
func openHistory(cfg *config.Config) (*history.Store, error) {
	path := cfg.HistoryDB
	if path == "" {
		var err error
		if path, err = history.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return history.New(path)
}
