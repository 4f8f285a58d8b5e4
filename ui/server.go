package ui

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"sheetchat/adapters/excel"
	"sheetchat/internal"
	"sheetchat/internal/api"
	"sheetchat/internal/errors"
	"sheetchat/internal/session"
	"sheetchat/ui/middleware"

	"github.com/gin-gonic/gin"
)

// Dependencies are the collaborators the web server needs
type Dependencies struct {
	Sessions *session.Manager
	Hub      *api.SSEHub
	Exporter *excel.Exporter
	Logger   *internal.Logger

	// SecureCookies marks the session cookie Secure (HTTPS deployments)
	SecureCookies bool
	// CookieMaxAge is the session cookie lifetime in seconds
	CookieMaxAge int
}

// Server is the SheetChat web server
type Server struct {
	router    *gin.Engine
	templates *template.Template
	files     fs.FS

	sessions *session.Manager
	hub      *api.SSEHub
	exporter *excel.Exporter
	logger   *internal.Logger

	secureCookies bool
	cookieMaxAge  int
}

// NewServer parses the embedded templates and registers every route
func NewServer(deps Dependencies) (*Server, error) {
	if deps.Sessions == nil {
		return nil, errors.ConfigInvalid("session manager is required")
	}
	if deps.Logger == nil {
		deps.Logger = internal.DefaultLogger
	}
	if deps.Hub == nil {
		deps.Hub = api.NewSSEHub(deps.Logger, 0)
	}
	if deps.Exporter == nil {
		deps.Exporter = excel.NewExporter(deps.Logger)
	}

	templates, err := parseTemplates(embeddedFiles)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load templates")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if gin.Mode() == gin.DebugMode {
		router.Use(gin.Logger())
	}

	s := &Server{
		router:        router,
		templates:     templates,
		files:         embeddedFiles,
		sessions:      deps.Sessions,
		hub:           deps.Hub,
		exporter:      deps.Exporter,
		logger:        deps.Logger,
		secureCookies: deps.SecureCookies,
		cookieMaxAge:  deps.CookieMaxAge,
	}
	if err := s.setupStatic(); err != nil {
		return nil, err
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupStatic() error {
	staticFS, err := fs.Sub(s.files, "static")
	if err != nil {
		return errors.Wrap(err, "failed to create static filesystem")
	}
	s.router.StaticFS("/static", http.FS(staticFS))
	return nil
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	withSession := s.router.Group("/", middleware.EnsureSession(s.sessions, middleware.SessionOptions{
		MaxAge: s.cookieMaxAge,
		Secure: s.secureCookies,
	}, s.logger))

	withSession.GET("/", s.handleIndex)

	apiGroup := withSession.Group("/api")
	apiGroup.GET("/state", s.handleState)
	apiGroup.GET("/events", s.handleEvents)
	apiGroup.POST("/upload", s.handleUpload)
	apiGroup.POST("/messages", s.handleSubmitMessage)
	apiGroup.POST("/mode", s.handleSelectMode)
	apiGroup.GET("/transcript", s.handleTranscript)
	apiGroup.GET("/preview", s.handlePreview)
	apiGroup.GET("/visualization", s.handleVisualization)
	apiGroup.GET("/export.xlsx", s.handleExport(excel.FormatXLSX))
	apiGroup.GET("/export.csv", s.handleExport(excel.FormatCSV))
	apiGroup.DELETE("/session", s.handleEndSession)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is canceled, then drains connections.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("Starting SheetChat UI on http://%s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Open SSE streams never finish on their own; Shutdown gives up on them
	// after the timeout and Close drops them.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("Graceful shutdown incomplete: %v", err)
		return srv.Close()
	}
	return nil
}
