package validation

import (
	"io/fs"
	"net/url"
	"path"
	"strings"

	"github.com/goliatone/go-homepage/internal/markdown"
	"github.com/goliatone/go-homepage/internal/site"
	"github.com/goliatone/go-homepage/pkg/interfaces"
)

// linkTarget records where a link was found.
type linkTarget struct {
	Source string
	URL    string
}

// checkInternalLinks resolves site-relative and relative destinations against
// routed pages, redirects and static files. Shadowed documents are checked
// too and report warnings, since they are not written. External destinations
// are returned for the optional online pass.
func checkInternalLinks(report *Report, resolved *site.Site, static fs.FS) []linkTarget {
	var external []linkTarget
	for _, page := range resolved.Pages {
		external = checkDocumentLinks(report, resolved, static, page.Document, page.Permalink, SeverityError, external)
	}
	for _, shadowed := range resolved.Shadowed {
		external = checkDocumentLinks(report, resolved, static, shadowed.Document, shadowed.Permalink, SeverityWarning, external)
	}
	return external
}

func checkDocumentLinks(report *Report, resolved *site.Site, static fs.FS, doc *interfaces.Document, permalink string, severity Severity, external []linkTarget) []linkTarget {
	for _, link := range markdown.ExtractLinks(doc.Body) {
		switch link.Kind {
		case markdown.LinkExternal:
			external = append(external, linkTarget{Source: doc.FilePath, URL: absoluteURL(link.Destination)})
		case markdown.LinkInternal, markdown.LinkRelative:
			target := resolveTarget(permalink, link)
			if target == "" || resolved.Routes(target) || staticExists(static, target) {
				continue
			}
			report.add(severity, CodeLinkBroken, doc.FilePath, "",
				"link "+link.Destination+" does not resolve to a page, redirect or static file")
		}
	}
	return external
}

func resolveTarget(permalink string, link markdown.Link) string {
	target := link.Path()
	if unescaped, err := url.PathUnescape(target); err == nil {
		target = unescaped
	}
	if target == "" {
		return ""
	}
	if link.Kind == markdown.LinkRelative {
		base := permalink
		if !strings.HasSuffix(base, "/") {
			base = path.Dir(base) + "/"
		}
		trailing := strings.HasSuffix(target, "/")
		target = path.Join(base, target)
		if trailing {
			target += "/"
		}
	}
	return markdown.NormalizePermalink(target)
}

func staticExists(static fs.FS, target string) bool {
	if static == nil {
		return false
	}
	name := strings.Trim(target, "/")
	if name == "" {
		return false
	}
	if !fs.ValidPath(name) {
		return false
	}
	info, err := fs.Stat(static, name)
	if err != nil {
		return false
	}
	if info.IsDir() {
		_, err := fs.Stat(static, path.Join(name, "index.html"))
		return err == nil
	}
	return true
}

func absoluteURL(dest string) string {
	if strings.HasPrefix(dest, "//") {
		return "https:" + dest
	}
	return dest
}
