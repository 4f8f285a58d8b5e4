package view

import (
	"html"
	"html/template"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"sheetchat/models"
)

// TranscriptEntry is one chat message ready for the template
type TranscriptEntry struct {
	ID     string
	Sender models.Sender
	IsUser bool
	Body   template.HTML
	Time   string
}

// BuildTranscript renders the messages in insertion order. Assistant content
// is treated as Markdown; user content is escaped and shown as typed.
func BuildTranscript(messages []models.Message) []TranscriptEntry {
	entries := make([]TranscriptEntry, 0, len(messages))
	for _, m := range messages {
		entry := TranscriptEntry{
			ID:     string(m.ID),
			Sender: m.Sender,
			IsUser: m.IsUser(),
		}
		if !m.Timestamp.IsZero() {
			entry.Time = m.Timestamp.Local().Format(time.Kitchen)
		}
		if entry.IsUser {
			entry.Body = plainText(m.Content)
		} else {
			entry.Body = RenderMarkdown(m.Content)
		}
		entries = append(entries, entry)
	}
	return entries
}

// RenderMarkdown converts assistant Markdown into HTML. Raw HTML in the
// source is dropped.
func RenderMarkdown(src string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	r := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.SkipHTML | mdhtml.HrefTargetBlank,
	})
	out := markdown.ToHTML([]byte(src), p, r)
	return template.HTML(strings.TrimSpace(string(out)))
}

func plainText(s string) template.HTML {
	escaped := html.EscapeString(s)
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}
