package markdown

import (
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-homepage/pkg/interfaces"
)

const (
	// DefaultCollection holds documents that live outside an underscore directory.
	DefaultCollection = "pages"
	// PostsCollection is the dated collection used for feeds.
	PostsCollection = "posts"
	draftsDir       = "_drafts"
)

var postFilename = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})-(.+)$`)

// PermalinkPatterns maps a collection name to a permalink pattern. Patterns
// support the :collection, :year, :month, :day, :slug, :title and :category
// placeholders.
type PermalinkPatterns map[string]string

// DefaultPermalinkPatterns returns the patterns applied when a document has no
// explicit permalink.
func DefaultPermalinkPatterns() PermalinkPatterns {
	return PermalinkPatterns{
		DefaultCollection: "/:slug/",
		PostsCollection:   "/posts/:year/:month/:slug/",
		"*":               "/:collection/:slug/",
	}
}

// Pattern resolves the pattern for collection, falling back to the "*" entry
// and then to the built-in defaults.
func (p PermalinkPatterns) Pattern(collection string) string {
	if pattern, ok := p[collection]; ok && strings.TrimSpace(pattern) != "" {
		return pattern
	}
	if pattern, ok := p["*"]; ok && strings.TrimSpace(pattern) != "" {
		return pattern
	}
	defaults := DefaultPermalinkPatterns()
	if pattern, ok := defaults[collection]; ok {
		return pattern
	}
	return defaults["*"]
}

// CollectionForPath derives the collection from the leading underscore
// directory. Drafts belong to posts.
func CollectionForPath(filePath string) string {
	clean := strings.TrimPrefix(path.Clean(strings.ReplaceAll(filePath, "\\", "/")), "./")
	first, _, nested := strings.Cut(clean, "/")
	if !nested || !strings.HasPrefix(first, "_") {
		return DefaultCollection
	}
	if first == draftsDir {
		return PostsCollection
	}
	name := strings.TrimPrefix(first, "_")
	if name == "" {
		return DefaultCollection
	}
	return name
}

// IsDraftPath reports whether filePath lives in the drafts directory.
func IsDraftPath(filePath string) bool {
	clean := strings.TrimPrefix(path.Clean(strings.ReplaceAll(filePath, "\\", "/")), "./")
	return clean == draftsDir || strings.HasPrefix(clean, draftsDir+"/")
}

// SplitPostFilename parses the YYYY-MM-DD-slug naming convention.
func SplitPostFilename(filePath string) (time.Time, string, bool) {
	base := path.Base(filePath)
	stem := strings.TrimSuffix(base, path.Ext(base))
	match := postFilename.FindStringSubmatch(stem)
	if match == nil {
		return time.Time{}, "", false
	}
	date, err := time.Parse("2006-01-02", match[1]+"-"+match[2]+"-"+match[3])
	if err != nil {
		return time.Time{}, "", false
	}
	return date, match[4], true
}

// ApplyDefaults fills the slug, date and derived permalink of doc from its
// filename and collection pattern. Explicit front matter always wins.
func ApplyDefaults(doc *interfaces.Document, patterns PermalinkPatterns) {
	if doc == nil {
		return
	}
	fm := &doc.FrontMatter

	fileDate, fileSlug, dated := SplitPostFilename(doc.FilePath)
	if !dated {
		base := path.Base(doc.FilePath)
		fileSlug = strings.TrimSuffix(base, path.Ext(base))
	}

	if fm.Date.IsZero() && fm.DateText == "" {
		switch {
		case dated:
			fm.Date = fileDate
		case doc.Collection == PostsCollection:
			fm.Date = doc.LastModified
		}
	}

	if fm.Slug == "" {
		fm.Slug = normalizeSlug(fileSlug)
	}

	if patterns == nil {
		patterns = DefaultPermalinkPatterns()
	}
	fm.DerivedPermalink = ExpandPermalink(patterns.Pattern(doc.Collection), doc)
}

// ExpandPermalink substitutes pattern placeholders using doc metadata.
func ExpandPermalink(pattern string, doc *interfaces.Document) string {
	fm := doc.FrontMatter
	slugValue := fm.Slug
	if doc.Collection == DefaultCollection && (slugValue == "index" || slugValue == "") {
		slugValue = ""
	}

	replacer := strings.NewReplacer(
		":collection", doc.Collection,
		":category", normalizeSlug(fm.Category),
		":title", slugValue,
		":slug", slugValue,
		":year", dateField(fm.Date, "2006"),
		":month", dateField(fm.Date, "01"),
		":day", dateField(fm.Date, "02"),
	)
	return NormalizePermalink(replacer.Replace(pattern))
}

// NormalizePermalink ensures a leading slash and collapses repeated slashes.
// A trailing slash is kept because it selects the output filename.
func NormalizePermalink(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	trailing := strings.HasSuffix(value, "/")
	cleaned := path.Clean("/" + value)
	if trailing && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned
}

// RouteKey returns the canonical form of a permalink for collision checks.
// /x, /x/ and /x/index.html are written to the same file and share the key
// /x/; permalinks with an extension keep their name.
func RouteKey(value string) string {
	normalized := NormalizePermalink(value)
	switch {
	case normalized == "":
		return ""
	case normalized == "/index.html":
		return "/"
	case strings.HasSuffix(normalized, "/index.html"):
		return strings.TrimSuffix(normalized, "index.html")
	case strings.HasSuffix(normalized, "/"):
		return normalized
	case path.Ext(path.Base(normalized)) != "":
		return normalized
	default:
		return normalized + "/"
	}
}

func dateField(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}

func normalizeSlug(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if normalized, err := slug.Normalize(value); err == nil && normalized != "" {
		return normalized
	}
	return strings.ToLower(value)
}
