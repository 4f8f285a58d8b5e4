package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"sheetchat/internal/view"

	"github.com/gin-gonic/gin"
)

//go:embed templates static
var embeddedFiles embed.FS

// Template names
const (
	tmplIndex         = "index.html"
	tmplTranscript    = "fragments/transcript.html"
	tmplPreview       = "fragments/preview.html"
	tmplVisualization = "fragments/visualization.html"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"add":        func(a, b int) int { return a + b },
		"sub":        func(a, b int) int { return a - b },
		"capitalize": view.Capitalize,
		"lower":      strings.ToLower,
	}
}

// parseTemplates loads every .html file under templates/, naming each by
// its path relative to that directory.
func parseTemplates(files fs.FS) (*template.Template, error) {
	templatesFS, err := fs.Sub(files, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to create templates filesystem: %w", err)
	}

	root, err := fs.Glob(templatesFS, "*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to glob root templates: %w", err)
	}
	nested, err := fs.Glob(templatesFS, "*/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to glob nested templates: %w", err)
	}

	t := template.New("").Funcs(templateFuncs())
	for _, file := range append(root, nested...) {
		content, err := fs.ReadFile(templatesFS, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", file, err)
		}
		if _, err := t.New(file).Parse(string(content)); err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", file, err)
		}
	}
	return t, nil
}

// renderTemplate executes a template into a buffer first so a failing
// template never leaves a half-written response.
func (s *Server) renderTemplate(c *gin.Context, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("[Templates] rendering %s failed: %v", name, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "template rendering failed"})
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
