// Package cmd wires the engine's operational CLI surface: one Cobra
// root command, one persistent store opened lazily by whichever
// subcommand needs it, and a subcommand per operator task.
package cmd

import (
	"os"

	"github.com/rdinner/engine"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rdinner/engine/store"
)

var (
	configPath string
	logLevel   string
	storePath  string

	cfg engine.Config
	log = logrus.StandardLogger()
)

var rootCmd = &cobra.Command{
	Use:   "rdinner",
	Short: "Running dinner assignment engine",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		log.SetLevel(level)

		loaded, err := engine.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if storePath != "" {
			loaded.Store.Path = storePath
		}
		cfg = loaded
		return nil
	},
}

// openStore opens the configured LevelDB database, creating its parent
// directory tree if absent.
func openStore() (*store.Store, error) {
	if err := os.MkdirAll(parentDir(cfg.Store.Path), 0o755); err != nil {
		return nil, err
	}
	return store.Open(cfg.Store.Path)
}

func parentDir(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}

// Execute runs the root command, exiting the process with a non-zero
// status on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file layered over the built-in defaults")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "override the configured LevelDB store path")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(cacheMonitorCmd)
	rootCmd.AddCommand(geocodeTeamsCmd)
	rootCmd.AddCommand(checkIndexPerformanceCmd)
	rootCmd.AddCommand(createTestDataCmd)
}
