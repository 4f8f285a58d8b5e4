package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"sheetchat/internal/container"
	"sheetchat/internal/errors"
	"sheetchat/internal/migration"

	"github.com/spf13/cobra"
)

var (
	usageSince   time.Duration
	usageSession string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the usage ledger schema in DATABASE_URL",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Shutdown(context.Background())

		logger.Info("Schema %s applied (%d statements)", migration.NewRunner().Version(), len(migration.Statements()))
		return nil
	},
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Print recorded LLM token usage",
	Long: `Prints a token usage summary for the given period, or every recorded
call of one browser session when --session is set. Output is JSON.`,
	RunE: runUsage,
}

func init() {
	usageCmd.Flags().DurationVar(&usageSince, "since", 24*time.Hour, "summary period, ending now")
	usageCmd.Flags().StringVar(&usageSession, "session", "", "list the calls of one session instead")
}

func runUsage(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, err := connect(ctx)
	if err != nil {
		return err
	}
	defer app.Shutdown(context.Background())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if usageSession != "" {
		rows, err := app.Usage.SessionUsage(ctx, usageSession)
		if err != nil {
			return err
		}
		return enc.Encode(rows)
	}

	end := time.Now()
	summary, err := app.Usage.Summary(ctx, end.Add(-usageSince), end)
	if err != nil {
		return err
	}
	return enc.Encode(summary)
}

// connect builds a container that requires the database
func connect(ctx context.Context) (*container.Container, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Database.Enabled() {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	app, err := container.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := app.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return app, nil
}
