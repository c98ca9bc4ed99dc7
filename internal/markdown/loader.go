package markdown

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-homepage/pkg/interfaces"
)

// LoaderConfig configures how content files are discovered within a base directory.
type LoaderConfig struct {
	// BasePath is the root directory where content documents live.
	BasePath string
	// Pattern limits discovered files to those matching the comma separated
	// globs (defaults to "*.md").
	Pattern string
	// Recursive controls whether sub-directories are traversed.
	Recursive bool
	// Exclude lists directory names that are never walked.
	Exclude []string
	// Permalinks supplies per-collection permalink patterns.
	Permalinks PermalinkPatterns
}

// Loader turns filesystem paths into content documents with metadata.
type Loader struct {
	fs         fs.FS
	basePath   string
	patterns   []string
	recursive  bool
	exclude    map[string]struct{}
	permalinks PermalinkPatterns
}

// NewLoader constructs a Loader using the provided filesystem and configuration.
func NewLoader(filesystem fs.FS, cfg LoaderConfig) *Loader {
	exclude := make(map[string]struct{}, len(cfg.Exclude))
	for _, name := range cfg.Exclude {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			exclude[trimmed] = struct{}{}
		}
	}
	permalinks := cfg.Permalinks
	if permalinks == nil {
		permalinks = DefaultPermalinkPatterns()
	}

	return &Loader{
		fs:         filesystem,
		basePath:   filepath.Clean(cfg.BasePath),
		patterns:   splitPatterns(cfg.Pattern),
		recursive:  cfg.Recursive,
		exclude:    exclude,
		permalinks: permalinks,
	}
}

// LoadFile reads and parses a single content document.
func (l *Loader) LoadFile(ctx context.Context, filePath string) (*DocumentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel, err := l.makeRelative(filePath)
	if err != nil {
		return nil, err
	}

	data, err := fs.ReadFile(l.fs, rel)
	if err != nil {
		return nil, fmt.Errorf("markdown loader read %s: %w", rel, err)
	}
	info, err := fs.Stat(l.fs, rel)
	if err != nil {
		return nil, fmt.Errorf("markdown loader stat %s: %w", rel, err)
	}

	doc, err := BuildDocument(rel, data, info.ModTime())
	if err != nil {
		return &DocumentResult{Path: rel, Source: data}, fmt.Errorf("markdown loader parse %s: %w", rel, err)
	}
	ApplyDefaults(doc, l.permalinks)

	return &DocumentResult{
		Path:     rel,
		Document: doc,
		Source:   data,
	}, nil
}

// LoadDirectory discovers content files under dir. In tolerant mode parse
// failures are returned as results carrying Err instead of aborting the walk.
func (l *Loader) LoadDirectory(ctx context.Context, dir string, opts LoadParams) ([]*DocumentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := l.makeRelative(dir)
	if err != nil {
		return nil, err
	}

	var results []*DocumentResult
	walkErr := fs.WalkDir(l.fs, root, func(current string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if current == root {
				return nil
			}
			if !l.shouldDescend(current, d.Name(), opts) {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !l.matchesPattern(current, opts.Pattern) {
			return nil
		}

		result, err := l.LoadFile(ctx, current)
		if err != nil {
			if opts.Tolerant && result != nil {
				result.Err = err
				results = append(results, result)
				return nil
			}
			return err
		}
		results = append(results, result)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})
	return results, nil
}

func (l *Loader) shouldDescend(current, name string, opts LoadParams) bool {
	recursive := l.recursive
	if opts.Recursive != nil {
		recursive = *opts.Recursive
	}
	if !recursive {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return false
	}
	if _, skip := l.exclude[name]; skip {
		return false
	}
	if IsDraftPath(current) && !opts.Drafts {
		return false
	}
	return true
}

func (l *Loader) matchesPattern(filePath string, override string) bool {
	patterns := l.patterns
	if strings.TrimSpace(override) != "" {
		patterns = splitPatterns(override)
	}
	for _, pattern := range patterns {
		target := path.Base(filePath)
		if strings.Contains(pattern, "/") {
			target = filePath
		}
		if match, err := path.Match(pattern, target); err == nil && match {
			return true
		}
	}
	return false
}

func (l *Loader) makeRelative(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return ".", nil
	}
	clean := filepath.Clean(p)
	if filepath.IsAbs(clean) {
		if l.basePath == "" || l.basePath == "." {
			return "", fmt.Errorf("markdown loader: absolute path %s provided without base path", p)
		}
		rel, err := filepath.Rel(l.basePath, clean)
		if err != nil {
			return "", fmt.Errorf("markdown loader: make relative %s: %w", p, err)
		}
		clean = rel
	}
	return filepath.ToSlash(clean), nil
}

func splitPatterns(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		part = strings.ReplaceAll(filepath.ToSlash(part), "**/", "")
		out = append(out, part)
	}
	if len(out) == 0 {
		return []string{"*.md"}
	}
	return out
}

// DocumentResult carries the parsed document along with the raw source.
// Document is nil when Err is set.
type DocumentResult struct {
	Path     string
	Document *interfaces.Document
	Source   []byte
	Err      error
}

// LoadParams provide call-specific overrides for discovery.
type LoadParams struct {
	Pattern   string
	Recursive *bool
	Drafts    bool
	Tolerant  bool
}
