package markdown

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// LinkKind classifies a link destination.
type LinkKind string

const (
	LinkInternal LinkKind = "internal"
	LinkRelative LinkKind = "relative"
	LinkExternal LinkKind = "external"
	LinkAnchor   LinkKind = "anchor"
	LinkMailto   LinkKind = "mailto"
	LinkOther    LinkKind = "other"
)

// Link is a destination found in a document body.
type Link struct {
	Destination string
	Kind        LinkKind
	Image       bool
}

// Path returns the destination path without query or fragment.
func (l Link) Path() string {
	dest := l.Destination
	if i := strings.IndexAny(dest, "?#"); i >= 0 {
		dest = dest[:i]
	}
	return dest
}

var linkScanner = goldmark.New(goldmark.WithExtensions(extension.GFM))

var htmlLinkAttr = regexp.MustCompile(`(?i)<(?:a|img|link|script|source|iframe)\b[^>]*?\s(href|src)\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+))`)

// ExtractLinks walks the Markdown AST of body and returns link, image and
// autolink destinations in document order. href and src attributes of raw
// HTML tags are included; HTML inside code spans and fences is not.
func ExtractLinks(body []byte) []Link {
	root := linkScanner.Parser().Parse(text.NewReader(body))

	var links []Link
	_ = ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Link:
			links = appendLink(links, string(n.Destination), false)
		case *ast.Image:
			links = appendLink(links, string(n.Destination), true)
		case *ast.AutoLink:
			dest := string(n.URL(body))
			if n.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(dest, "mailto:") {
				dest = "mailto:" + dest
			}
			links = appendLink(links, dest, false)
		case *ast.RawHTML:
			var tag []byte
			for i := 0; i < n.Segments.Len(); i++ {
				tag = append(tag, n.Segments.At(i).Value(body)...)
				tag = append(tag, ' ')
			}
			links = appendHTMLLinks(links, tag)
		case *ast.HTMLBlock:
			var block []byte
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				block = append(block, lines.At(i).Value(body)...)
			}
			if n.HasClosure() {
				block = append(block, n.ClosureLine.Value(body)...)
			}
			links = appendHTMLLinks(links, block)
		}
		return ast.WalkContinue, nil
	})
	return links
}

func appendLink(links []Link, dest string, image bool) []Link {
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return links
	}
	return append(links, Link{Destination: dest, Kind: ClassifyLink(dest), Image: image})
}

func appendHTMLLinks(links []Link, fragment []byte) []Link {
	for _, match := range htmlLinkAttr.FindAllSubmatch(fragment, -1) {
		dest := string(match[2])
		if dest == "" {
			dest = string(match[3])
		}
		if dest == "" {
			dest = string(match[4])
		}
		links = appendLink(links, html.UnescapeString(dest), strings.EqualFold(string(match[1]), "src"))
	}
	return links
}

// ClassifyLink decides how a destination should be checked.
func ClassifyLink(dest string) LinkKind {
	switch {
	case strings.HasPrefix(dest, "#"):
		return LinkAnchor
	case strings.HasPrefix(dest, "//"):
		return LinkExternal
	case strings.HasPrefix(dest, "/"):
		return LinkInternal
	}
	parsed, err := url.Parse(dest)
	if err != nil {
		return LinkOther
	}
	switch strings.ToLower(parsed.Scheme) {
	case "":
		return LinkRelative
	case "http", "https":
		return LinkExternal
	case "mailto":
		return LinkMailto
	default:
		return LinkOther
	}
}
