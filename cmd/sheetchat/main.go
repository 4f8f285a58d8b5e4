package main

import (
	"fmt"
	"os"

	"sheetchat/internal"
	"sheetchat/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	logLevel string

	logger *internal.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sheetchat",
	Short: "SheetChat - upload a spreadsheet, then chat about it",
	Long: `SheetChat serves a browser UI with a file drop zone, a chat panel backed
by Gemini, and a data/chart visualization panel.

Run "sheetchat serve" to start the web server.`,
	SilenceUsage: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (ERROR, WARN, INFO, DEBUG, TRACE); overrides LOG_LEVEL")

	rootCmd.AddCommand(serveCmd, migrateCmd, usageCmd)
}

// loadConfig reads .env and the environment, then builds the logger
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil {
		internal.DefaultLogger.Debug("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger = internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
