package container

import (
	"context"
	"fmt"
	"time"

	"sheetchat/adapters/excel"
	"sheetchat/adapters/llm"
	"sheetchat/adapters/postgres"
	"sheetchat/internal"
	"sheetchat/internal/api"
	"sheetchat/internal/config"
	"sheetchat/internal/errors"
	"sheetchat/internal/migration"
	"sheetchat/internal/session"
	"sheetchat/internal/usage"
	"sheetchat/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure; DB stays nil when no DATABASE_URL is configured
	DB *sqlx.DB

	// Repositories (data access layer)
	UsageRepo ports.LLMUsageRepository

	// Services
	Usage    *usage.Service
	Chat     ports.ChatClient
	Sessions *session.Manager
	SSEHub   *api.SSEHub
	Exporter *excel.Exporter
}

// New creates a container with every in-memory component wired. Connect
// replaces the session registry, so call it before handing Sessions out.
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
	}
	c.Chat = llm.NewGeminiClient(llm.Config{
		APIKey:  cfg.AI.GeminiKey,
		Model:   cfg.AI.GeminiModel,
		BaseURL: cfg.AI.GeminiBaseURL,
		Timeout: cfg.AI.RequestTimeout,
	}, logger)
	if cfg.AI.GeminiKey == "" {
		logger.Warn("GEMINI_API_KEY is not set; chat replies will fall back to the error message")
	}

	c.SSEHub = api.NewSSEHub(logger, 0)
	c.Exporter = excel.NewExporter(logger)
	c.initSessions()
	return c, nil
}

// Connect opens the configured database, if any, and attaches the usage
// ledger. It is a no-op without DATABASE_URL.
func (c *Container) Connect(ctx context.Context) error {
	if !c.Config.Database.Enabled() {
		c.Logger.Info("DATABASE_URL not set; LLM usage will not be recorded")
		return nil
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", c.Config.Database.URL)
	if err != nil {
		return errors.Wrap(errors.DatabaseError(err.Error()), "failed to connect to database")
	}
	if err := c.InitWithDatabase(ctx, db); err != nil {
		db.Close()
		return err
	}
	return nil
}

// InitWithDatabase migrates the schema and wires the components that need
// database access.
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		return errors.Wrap(err, "database migration failed")
	}

	c.DB = db
	c.UsageRepo = postgres.NewLLMUsageRepository(db)
	c.Usage = usage.NewService(c.UsageRepo, c.Logger)

	// Sessions created from now on record usage; none exist yet at startup.
	c.initSessions()

	c.Logger.Info("Container initialized successfully with database connection")
	return nil
}

func (c *Container) initSessions() {
	var recorder session.UsageRecorder
	if c.Usage != nil {
		recorder = c.Usage
	}
	c.Sessions = session.NewManager(c.Chat, session.ManagerConfig{
		StepDelay:       c.Config.Session.UploadStepDelay,
		TTL:             c.Config.Session.TTL,
		JanitorInterval: c.Config.Session.JanitorInterval,
		Usage:           recorder,
		Logger:          c.Logger,
	})
}

// Shutdown gracefully shuts down all components. When ctx expires before the
// pending ledger writes finish, the database is left open for them and the
// context error is returned.
func (c *Container) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Sessions.Shutdown()
		if c.Usage != nil {
			c.Usage.Wait()
		}
	}()

	select {
	case <-done:
	case <-ctx.Done():
		if c.DB != nil {
			c.Logger.Warn("Shutdown timed out with usage writes pending; ledger rows may be lost: %v", ctx.Err())
		} else {
			c.Logger.Warn("Shutdown timed out waiting for sessions: %v", ctx.Err())
		}
		return fmt.Errorf("shutdown: %w", ctx.Err())
	}

	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// ShutdownTimeout bounds Shutdown when called from the CLI
const ShutdownTimeout = 10 * time.Second
