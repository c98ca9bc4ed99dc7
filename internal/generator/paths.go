package generator

import (
	"path"
	"strings"
)

// buildOutputPath maps a permalink to the file that serves it. Permalinks
// ending in a slash or lacking an extension become directory indexes; those
// with an extension (about.html) are written verbatim.
func buildOutputPath(permalink string) string {
	permalink = strings.TrimSpace(permalink)
	if permalink == "" || permalink == "/" {
		return "index.html"
	}
	clean := strings.Trim(path.Clean("/"+permalink), "/")
	if clean == "" {
		return "index.html"
	}
	if !strings.HasSuffix(permalink, "/") && path.Ext(clean) != "" {
		return clean
	}
	return path.Join(clean, "index.html")
}
