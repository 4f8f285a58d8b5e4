package ui

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"sheetchat/adapters/excel"
	"sheetchat/internal/errors"
	"sheetchat/internal/session"
	"sheetchat/internal/view"
	"sheetchat/models"
	"sheetchat/ui/middleware"

	"github.com/gin-gonic/gin"
)

var (
	errMissingFile     = errors.InvalidInput("no file in request")
	errNotSpreadsheet  = errors.InvalidInput("dropped file is not a spreadsheet")
	errUnsupportedFile = errors.InvalidInput("unsupported file type: choose a .xlsx, .xls or .csv file")
)

// Upload sources
const (
	sourceDrop   = "drop"
	sourcePicker = "picker"
)

// PageData feeds index.html
type PageData struct {
	State         models.Snapshot
	Transcript    []view.TranscriptEntry
	Preview       view.PreviewPage
	Visualization view.Visualization
	Accept        string
	SessionID     string
}

type messageRequest struct {
	Message string `form:"message" json:"message"`
}

type modeRequest struct {
	Mode string `form:"mode" json:"mode" binding:"required"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.sessions.Len()})
}

func (s *Server) handleIndex(c *gin.Context) {
	ctrl := middleware.Session(c)
	snap := ctrl.Snapshot()
	s.renderTemplate(c, http.StatusOK, tmplIndex, PageData{
		State:         snap,
		Transcript:    view.BuildTranscript(snap.Messages),
		Preview:       view.Paginate(snap.Data, 1, view.DefaultPageSize),
		Visualization: view.BuildVisualization(snap),
		Accept:        strings.Join(excel.AllowedExtensions, ","),
		SessionID:     ctrl.ID().String(),
	})
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.Session(c).Snapshot())
}

func (s *Server) handleEvents(c *gin.Context) {
	ctrl := middleware.Session(c)
	s.hub.Stream(c, ctrl.ID().String(), ctrl)
}

// handleUpload accepts the chosen file. Only its name and declared type are
// looked at: the content is never read.
func (s *Server) handleUpload(c *gin.Context) {
	ctrl := middleware.Session(c)

	header, err := c.FormFile("file")
	if err != nil {
		s.respondError(c, errors.Wrap(errMissingFile, err.Error()))
		return
	}

	source := strings.ToLower(strings.TrimSpace(c.PostForm("source")))
	if source == "" {
		source = sourcePicker
	}
	switch source {
	case sourceDrop:
		if !excel.IsSpreadsheetMIME(header.Header.Get("Content-Type")) {
			s.respondError(c, errNotSpreadsheet)
			return
		}
	case sourcePicker:
		if !excel.HasAllowedExtension(header.Filename) {
			s.respondError(c, errUnsupportedFile)
			return
		}
	default:
		s.respondError(c, errors.InvalidInput(fmt.Sprintf("unknown upload source %q", source)))
		return
	}

	if _, err := ctrl.SelectFile(header.Filename); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, ctrl.Snapshot())
}

// handleSubmitMessage mirrors the chat input: it is disabled before a file
// has been chosen and while a reply is pending.
func (s *Server) handleSubmitMessage(c *gin.Context) {
	ctrl := middleware.Session(c)

	var req messageRequest
	if err := c.ShouldBind(&req); err != nil {
		s.respondError(c, errors.Wrap(session.ErrEmptyMessage, err.Error()))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.respondError(c, session.ErrEmptyMessage)
		return
	}

	if _, err := ctrl.SubmitMessageIfIdle(req.Message); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, ctrl.Snapshot())
}

func (s *Server) handleSelectMode(c *gin.Context) {
	ctrl := middleware.Session(c)

	var req modeRequest
	if err := c.ShouldBind(&req); err != nil {
		s.respondError(c, errors.Wrap(session.ErrInvalidMode, err.Error()))
		return
	}
	if err := ctrl.SelectMode(models.VisualizationMode(req.Mode)); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (s *Server) handleTranscript(c *gin.Context) {
	snap := middleware.Session(c).Snapshot()
	s.renderTemplate(c, http.StatusOK, tmplTranscript, view.BuildTranscript(snap.Messages))
}

func (s *Server) handlePreview(c *gin.Context) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.respondError(c, errors.InvalidInput("page must be a number"))
			return
		}
		page = n
	}
	snap := middleware.Session(c).Snapshot()
	s.renderTemplate(c, http.StatusOK, tmplPreview, view.Paginate(snap.Data, page, view.DefaultPageSize))
}

func (s *Server) handleVisualization(c *gin.Context) {
	snap := middleware.Session(c).Snapshot()
	s.renderTemplate(c, http.StatusOK, tmplVisualization, view.BuildVisualization(snap))
}

func (s *Server) handleExport(format excel.Format) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := middleware.Session(c).Snapshot()

		var buf bytes.Buffer
		if err := s.exporter.Export(&buf, format, snap.Data); err != nil {
			s.respondError(c, errors.Wrap(err, "export failed"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName(snap.ChartTitle)))
		c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
	}
}

func (s *Server) handleEndSession(c *gin.Context) {
	ctrl := middleware.Session(c)
	s.sessions.Remove(ctrl.ID())
	middleware.ClearSession(c, s.secureCookies)
	c.Status(http.StatusNoContent)
}

func (s *Server) respondError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("[HTTP] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	} else {
		s.logger.Debug("[HTTP] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error": publicMessage(err),
		"code":  errors.GetCode(err),
	})
}

// publicMessage returns the outermost AppError message without its causes
func publicMessage(err error) string {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}
