package interfaces

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// MarkdownParser defines how raw Markdown bytes are converted into HTML.
type MarkdownParser interface {
	// Parse converts Markdown into HTML using the parser's default settings.
	Parse(markdown []byte) ([]byte, error)
	// ParseWithOptions converts Markdown into HTML using the supplied overrides.
	ParseWithOptions(markdown []byte, opts ParseOptions) ([]byte, error)
}

// ParseOptions customises Markdown parsing behaviour, keeping option names
// readable for configuration unmarshalling and CLI flags.
type ParseOptions struct {
	Extensions []string
	HardWraps  bool
	SafeMode   bool
}

// MarkdownService exposes the file workflows used by the validator, the
// generator and the index: discover documents, parse metadata, render HTML.
type MarkdownService interface {
	Load(ctx context.Context, path string, opts LoadOptions) (*Document, error)
	LoadDirectory(ctx context.Context, dir string, opts LoadOptions) ([]*Document, error)
	Render(ctx context.Context, markdown []byte, opts ParseOptions) ([]byte, error)
	RenderDocument(ctx context.Context, doc *Document, opts ParseOptions) ([]byte, error)
}

// Document represents a content file with parsed metadata and body.
type Document struct {
	ID         uuid.UUID
	FilePath   string
	Collection string
	// HasFrontMatter is false when the file carries no delimited metadata block.
	HasFrontMatter bool
	FrontMatter    FrontMatter
	Body           []byte
	BodyHTML       []byte
	LastModified   time.Time
	// Checksum stores the SHA-256 digest of the raw file.
	Checksum []byte
}

// Permalink returns the resolved permalink, falling back to the derived one.
func (d *Document) Permalink() string {
	if d == nil {
		return ""
	}
	if d.FrontMatter.Permalink != "" {
		return d.FrontMatter.Permalink
	}
	return d.FrontMatter.DerivedPermalink
}

// Published reports whether the document should be rendered.
func (d *Document) Published() bool {
	if d == nil {
		return false
	}
	return d.FrontMatter.Published == nil || *d.FrontMatter.Published
}

// FrontMatter models the metadata block of a content document. Typed fields
// cover the keys the renderer consumes; Raw keeps every key as written.
type FrontMatter struct {
	Title         string
	Permalink     string
	Excerpt       string
	AuthorProfile bool
	RedirectFrom  []string
	Date          time.Time
	DateText      string
	Category      string
	Slug          string
	Description   string
	Layout        string
	Tags          []string
	Published     *bool

	// DerivedPermalink is filled from the collection pattern when Permalink is empty.
	DerivedPermalink string

	Raw map[string]any
}

// Keys returns the sorted set of keys literally present in the block.
func (f FrontMatter) Keys() []string {
	keys := make([]string, 0, len(f.Raw))
	for key := range f.Raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether key was present in the block.
func (f FrontMatter) Has(key string) bool {
	_, ok := f.Raw[key]
	return ok
}

// LoadOptions fine-tunes how documents are discovered and parsed from disk.
type LoadOptions struct {
	Recursive *bool
	Pattern   string
	// Drafts includes files under the _drafts directory.
	Drafts bool
	// Tolerant collects parse failures instead of aborting the walk.
	Tolerant bool
	Parser   ParseOptions
}

// LoadFailure captures a file that could not be parsed in tolerant mode.
type LoadFailure struct {
	FilePath string
	Err      error
}
