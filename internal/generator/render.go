package generator

import (
	"html/template"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TemplateContext captures the data contract passed to layouts.
type TemplateContext struct {
	Site    SiteMetadata
	Page    PageContext
	Build   BuildMetadata
	Helpers TemplateHelpers
}

// SiteMetadata exposes site-wide information to layouts.
type SiteMetadata struct {
	Title       string
	Description string
	Author      string
	BaseURL     string
	Collections map[string][]PageSummary
}

// Collection returns the summaries of name in display order.
func (s SiteMetadata) Collection(name string) []PageSummary {
	return s.Collections[name]
}

// BuildMetadata surfaces high level build information to layouts.
type BuildMetadata struct {
	GeneratedAt time.Time
	Options     BuildOptions
}

// PageSummary is the listing view of a routed document.
type PageSummary struct {
	Title     string
	Permalink string
	URL       string
	Excerpt   string
	Date      time.Time
	Category  string
}

// PageContext describes the document being rendered.
type PageContext struct {
	PageSummary
	Description   string
	Collection    string
	Layout        string
	Tags          []string
	AuthorProfile bool
	Source        string
	Content       template.HTML
	FrontMatter   map[string]any
}

// RedirectContext is passed to the redirect layout.
type RedirectContext struct {
	Site SiteMetadata
	From string
	To   string
	URL  string
}

// TemplateHelpers exposes convenience helpers for layout authors.
type TemplateHelpers struct {
	baseURL string
}

// BaseURL returns the configured base URL without a trailing slash.
func (h TemplateHelpers) BaseURL() string {
	return h.baseURL
}

// WithBaseURL prefixes the provided path with the configured base URL.
func (h TemplateHelpers) WithBaseURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return h.baseURL
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if h.baseURL == "" {
		return path
	}
	return h.baseURL + path
}

// RenderedPage captures the rendered HTML output for a document.
type RenderedPage struct {
	DocumentID   uuid.UUID
	Source       string
	Permalink    string
	Output       string
	Layout       string
	HTML         string
	Hash         string
	LastModified time.Time
	Duration     time.Duration
	Checksum     string
}

// RenderDiagnostic records rendering timing and errors for individual documents.
type RenderDiagnostic struct {
	DocumentID uuid.UUID
	Source     string
	Permalink  string
	Layout     string
	Duration   time.Duration
	Skipped    bool
	Err        error
}

type renderOutcome struct {
	page       RenderedPage
	diagnostic RenderDiagnostic
	err        error
	skipped    bool
}
