package markdown

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-homepage/internal/identity"
	"github.com/goliatone/go-homepage/pkg/interfaces"
)

// ErrFrontMatterNotMapping is returned when the metadata block is valid YAML
// but not a key/value mapping.
var ErrFrontMatterNotMapping = errors.New("markdown: front matter must be a mapping")

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 -07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseFrontMatter extracts metadata and Markdown body content from the
// provided source bytes. Files without a metadata block return an empty
// FrontMatter and the full source as body.
func ParseFrontMatter(source []byte) (interfaces.FrontMatter, []byte, error) {
	var raw any
	body, err := frontmatter.Parse(bytes.NewReader(source), &raw)
	if err != nil {
		return interfaces.FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	normalized := normalizeValue(raw)
	fields, ok := normalized.(map[string]any)
	if normalized != nil && !ok {
		return interfaces.FrontMatter{}, nil, ErrFrontMatterNotMapping
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return frontMatterFromMap(fields), body, nil
}

// frontMatterOpeners lists the opening delimiters frontmatter.Parse detects
// by default: YAML, TOML and JSON blocks.
var frontMatterOpeners = map[string]struct{}{
	"---":     {},
	"---yaml": {},
	"+++":     {},
	"---toml": {},
	";;;":     {},
	"---json": {},
	"{":       {},
}

// HasFrontMatter reports whether the first non-blank line of source opens a
// metadata block.
func HasFrontMatter(source []byte) bool {
	rest := bytes.TrimPrefix(source, []byte("\xef\xbb\xbf"))
	for len(rest) > 0 {
		var line []byte
		line, rest, _ = bytes.Cut(rest, []byte("\n"))
		trimmed := strings.TrimSpace(string(line))
		if trimmed == "" {
			continue
		}
		_, ok := frontMatterOpeners[trimmed]
		return ok
	}
	return false
}

// BuildDocument assembles a Document from the supplied content-relative path,
// raw content and modification time. BodyHTML is left empty so callers can
// render lazily.
func BuildDocument(path string, source []byte, modified time.Time) (*interfaces.Document, error) {
	fm, body, err := ParseFrontMatter(source)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(source)

	return &interfaces.Document{
		ID:             identity.DocumentUUID(path),
		FilePath:       path,
		Collection:     CollectionForPath(path),
		HasFrontMatter: HasFrontMatter(source),
		FrontMatter:    fm,
		Body:           body,
		LastModified:   modified,
		Checksum:       sum[:],
	}, nil
}

// ParseDate accepts the date spellings Jekyll-style content uses.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("markdown: unrecognised date %q", value)
}

func frontMatterFromMap(raw map[string]any) interfaces.FrontMatter {
	fm := interfaces.FrontMatter{
		Title:         stringValue(raw["title"]),
		Permalink:     strings.TrimSpace(stringValue(raw["permalink"])),
		Excerpt:       stringValue(raw["excerpt"]),
		AuthorProfile: boolValue(raw["author_profile"]),
		RedirectFrom:  stringList(raw["redirect_from"]),
		Category:      stringValue(raw["category"]),
		Slug:          strings.TrimSpace(stringValue(raw["slug"])),
		Description:   stringValue(raw["description"]),
		Layout:        strings.TrimSpace(stringValue(raw["layout"])),
		Tags:          stringList(raw["tags"]),
		Raw:           raw,
	}
	if fm.Category == "" {
		if categories := stringList(raw["categories"]); len(categories) > 0 {
			fm.Category = categories[0]
		}
	}
	if value, ok := raw["published"]; ok {
		published := boolValue(value)
		fm.Published = &published
	}
	if value, ok := raw["date"]; ok {
		fm.DateText = strings.TrimSpace(stringValue(value))
		if parsed, err := ParseDate(fm.DateText); err == nil {
			fm.Date = parsed
		}
	}
	return fm
}

// normalizeValue converts YAML decoder output into JSON-compatible values:
// string-keyed maps, slices of normalized values and RFC 3339 timestamps.
func normalizeValue(value any) any {
	switch typed := value.(type) {
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, val := range typed {
			out[fmt.Sprint(key)] = normalizeValue(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, val := range typed {
			out[key] = normalizeValue(val)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, val := range typed {
			out[i] = normalizeValue(val)
		}
		return out
	case time.Time:
		return typed.Format(time.RFC3339)
	default:
		return value
	}
}

func stringValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	default:
		return fmt.Sprint(typed)
	}
}

func boolValue(value any) bool {
	switch typed := value.(type) {
	case bool:
		return typed
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(typed))
		return err == nil && parsed
	default:
		return false
	}
}

func stringList(value any) []string {
	switch typed := value.(type) {
	case nil:
		return nil
	case string:
		if trimmed := strings.TrimSpace(typed); trimmed != "" {
			return []string{trimmed}
		}
		return nil
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if s := strings.TrimSpace(stringValue(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{strings.TrimSpace(stringValue(typed))}
	}
}
