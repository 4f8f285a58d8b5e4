package main

import (
	"context"
	"net"
	"os/signal"
	"syscall"

	"sheetchat/internal/container"
	"sheetchat/ui"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	port          string
	ginMode       string
	secureCookies bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Starts the SheetChat web UI. Each browser gets its own session, kept in
memory until it has been idle for SESSION_TTL.

When DATABASE_URL is set, token usage of every chat reply is recorded in
PostgreSQL.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&port, "port", "", "listen port; overrides PORT")
	serveCmd.Flags().StringVar(&ginMode, "gin-mode", "", "gin mode (debug, release, test); overrides GIN_MODE")
	serveCmd.Flags().BoolVar(&secureCookies, "secure-cookies", false, "mark the session cookie Secure (serve behind HTTPS)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = port
	}
	if cmd.Flags().Changed("gin-mode") {
		cfg.Server.GinMode = ginMode
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := container.New(cfg, logger)
	if err != nil {
		return err
	}
	if err := app.Connect(ctx); err != nil {
		return err
	}

	server, err := ui.NewServer(ui.Dependencies{
		Sessions:      app.Sessions,
		Hub:           app.SSEHub,
		Exporter:      app.Exporter,
		Logger:        logger,
		SecureCookies: secureCookies,
		CookieMaxAge:  int(cfg.Session.TTL.Seconds()),
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx, net.JoinHostPort("", cfg.Server.Port))
	})
	g.Go(func() error {
		return app.Sessions.Run(gctx)
	})
	g.Go(func() error {
		// Closing the sessions also ends their open event streams, which
		// lets the HTTP server drain.
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), container.ShutdownTimeout)
		defer cancel()
		return app.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("SheetChat stopped")
	return err
}
