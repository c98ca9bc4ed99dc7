package generator

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed layouts/*.html
var defaultLayouts embed.FS

const (
	layoutDefault  = "default"
	layoutSingle   = "single"
	layoutArchive  = "archive"
	layoutRedirect = "redirect"
)

var errLayoutMissing = errors.New("generator: layout not defined")

// TemplateRenderer renders named layouts.
type TemplateRenderer interface {
	RenderTemplate(name string, data any) (string, error)
	Has(name string) bool
}

// templateDigester is implemented by renderers that can fingerprint their
// template sources. Incremental builds rebuild every page when it changes.
type templateDigester interface {
	Digest() string
}

type htmlRenderer struct {
	tpl    *template.Template
	digest string
}

// NewTemplateRenderer parses the embedded layouts and, when overridesDir is
// set, every .html/.tmpl file below it. Overrides may redefine any embedded
// template by name.
func NewTemplateRenderer(overridesDir string) (TemplateRenderer, error) {
	tpl, err := template.New("homepage").Funcs(templateFuncs()).ParseFS(defaultLayouts, "layouts/*.html")
	if err != nil {
		return nil, fmt.Errorf("generator: parse default layouts: %w", err)
	}
	sources, err := embeddedSources()
	if err != nil {
		return nil, err
	}

	overridesDir = strings.TrimSpace(overridesDir)
	if overridesDir == "" {
		return &htmlRenderer{tpl: tpl, digest: hashSources(sources)}, nil
	}
	info, err := os.Stat(overridesDir)
	if err != nil {
		return nil, fmt.Errorf("generator: inspect layouts directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("generator: layouts path %q is not a directory", overridesDir)
	}

	var files []string
	err = filepath.WalkDir(overridesDir, func(current string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(current)) {
		case ".html", ".tmpl":
			files = append(files, current)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(files) > 0 {
		if tpl, err = tpl.ParseFiles(files...); err != nil {
			return nil, fmt.Errorf("generator: parse layouts: %w", err)
		}
	}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("generator: read layout: %w", err)
		}
		sources[file] = string(data)
	}
	return &htmlRenderer{tpl: tpl, digest: hashSources(sources)}, nil
}

func embeddedSources() (map[string]string, error) {
	names, err := fs.Glob(defaultLayouts, "layouts/*.html")
	if err != nil {
		return nil, fmt.Errorf("generator: list default layouts: %w", err)
	}
	sources := make(map[string]string, len(names))
	for _, name := range names {
		data, err := defaultLayouts.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("generator: read default layout: %w", err)
		}
		sources["embed:"+name] = string(data)
	}
	return sources, nil
}

// Digest fingerprints every parsed template source.
func (r *htmlRenderer) Digest() string {
	return r.digest
}

func (r *htmlRenderer) Has(name string) bool {
	return r.tpl.Lookup(name) != nil
}

func (r *htmlRenderer) RenderTemplate(name string, data any) (string, error) {
	if !r.Has(name) {
		return "", fmt.Errorf("%w: %q", errLayoutMissing, name)
	}
	var buffer bytes.Buffer
	if err := r.tpl.ExecuteTemplate(&buffer, name, data); err != nil {
		return "", err
	}
	return buffer.String(), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"safeHTML": func(value any) template.HTML { return toHTML(value) },
		"titleCase": func(value string) string {
			// Casers keep state, so each call gets its own.
			return cases.Title(language.English).String(strings.ReplaceAll(value, "-", " "))
		},
		"dateFormat": func(layout string, value time.Time) string {
			if value.IsZero() {
				return ""
			}
			return value.Format(layout)
		},
		"isoDate": func(value time.Time) string {
			if value.IsZero() {
				return ""
			}
			return value.UTC().Format("2006-01-02")
		},
	}
}

func toHTML(value any) template.HTML {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case template.HTML:
		return v
	case string:
		return template.HTML(v)
	default:
		return template.HTML(fmt.Sprint(v))
	}
}

func hashSources(sources map[string]string) string {
	if len(sources) == 0 {
		return ""
	}
	keys := make([]string, 0, len(sources))
	for key := range sources {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	hasher := sha256.New()
	for _, key := range keys {
		hasher.Write([]byte(key))
		hasher.Write([]byte("="))
		hasher.Write([]byte(sources[key]))
		hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}
