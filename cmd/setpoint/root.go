package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/setpoint/internal/logging"
	"github.com/aretw0/setpoint/pkg/adapters/file"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "setpoint",
	Short: "Setpoint plays back setpoint recipes on laboratory axes",
	Long: `Setpoint compiles "duration;value;kind" recipes against the bounds of a station,
previews their curves and runs them on each axis.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "station.yaml", "Station file (YAML, TOML or JSON)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
}

func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	levelName, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}
	return logging.NewWithWriter(os.Stderr, logging.Format(format), level), nil
}

func openStation(cmd *cobra.Command, logger *slog.Logger) (*file.Store, error) {
	path, _ := cmd.Flags().GetString("config")
	store, err := file.Open(path, file.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("open station: %w", err)
	}
	return store, nil
}
