package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

type writeCategory string

const (
	categoryPage     writeCategory = "page"
	categoryRedirect writeCategory = "redirect"
	categoryAsset    writeCategory = "asset"
	categorySitemap  writeCategory = "sitemap"
	categoryRobots   writeCategory = "robots"
	categoryFeed     writeCategory = "feed"
	categoryManifest writeCategory = "manifest"
)

// writeFileRequest describes a file write operation routed through the artifact writer.
type writeFileRequest struct {
	Path        string
	Content     io.Reader
	Size        int64
	Category    writeCategory
	ContentType string
	Checksum    string
}

// ArtifactWriter abstracts where generator outputs land. Paths are slash
// separated and relative to the writer root.
type ArtifactWriter interface {
	EnsureDir(ctx context.Context, dir string) error
	WriteFile(ctx context.Context, name string, content io.Reader) error
	ReadFile(ctx context.Context, name string) ([]byte, error)
	// Remove deletes a single file. Missing files are not an error.
	Remove(ctx context.Context, name string) error
	// RemoveAll deletes every entry below the root, keeping the root itself.
	RemoveAll(ctx context.Context) error
}

// NewFSWriter returns a writer rooted at dir on the local filesystem.
func NewFSWriter(dir string) ArtifactWriter {
	return &fsWriter{root: filepath.Clean(dir)}
}

type fsWriter struct {
	root string
}

func (w *fsWriter) abs(name string) (string, error) {
	clean := path.Clean("/" + filepath.ToSlash(name))
	if clean == "/" {
		return w.root, nil
	}
	return filepath.Join(w.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

func (w *fsWriter) EnsureDir(_ context.Context, dir string) error {
	full, err := w.abs(dir)
	if err != nil {
		return err
	}
	return os.MkdirAll(full, 0o755)
}

func (w *fsWriter) WriteFile(ctx context.Context, name string, content io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := w.abs(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	file, err := os.Create(full)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, content); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func (w *fsWriter) ReadFile(_ context.Context, name string) ([]byte, error) {
	full, err := w.abs(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

func (w *fsWriter) Remove(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := w.abs(name)
	if err != nil {
		return err
	}
	if full == w.root {
		return nil
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (w *fsWriter) RemoveAll(ctx context.Context) error {
	entries, err := os.ReadDir(w.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := os.RemoveAll(filepath.Join(w.root, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// MemoryWriter keeps outputs in memory. It backs dry runs and tests.
type MemoryWriter struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemoryWriter constructs an empty in-memory writer.
func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{files: map[string][]byte{}}
}

func (w *MemoryWriter) EnsureDir(context.Context, string) error { return nil }

func (w *MemoryWriter) WriteFile(_ context.Context, name string, content io.Reader) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files[normalizeName(name)] = data
	return nil
}

func (w *MemoryWriter) ReadFile(_ context.Context, name string) ([]byte, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	data, ok := w.files[normalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("generator: %s: %w", name, fs.ErrNotExist)
	}
	return bytes.Clone(data), nil
}

func (w *MemoryWriter) Remove(_ context.Context, name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.files, normalizeName(name))
	return nil
}

func (w *MemoryWriter) RemoveAll(context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files = map[string][]byte{}
	return nil
}

// Files lists stored paths in order.
func (w *MemoryWriter) Files() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	names := make([]string, 0, len(w.files))
	for name := range w.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeName(name string) string {
	return strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(name)), "/")
}

type noopWriter struct{}

func (noopWriter) EnsureDir(context.Context, string) error { return nil }

func (noopWriter) WriteFile(context.Context, string, io.Reader) error { return nil }

func (noopWriter) ReadFile(_ context.Context, name string) ([]byte, error) {
	return nil, fmt.Errorf("generator: %s: %w", name, fs.ErrNotExist)
}

func (noopWriter) Remove(context.Context, string) error { return nil }

func (noopWriter) RemoveAll(context.Context) error { return nil }

// artifactSink counts writes and ensures directories once per build.
type artifactSink struct {
	writer   ArtifactWriter
	dirCache map[string]struct{}
	mu       sync.Mutex
}

func newArtifactSink(writer ArtifactWriter) *artifactSink {
	if writer == nil {
		writer = noopWriter{}
	}
	return &artifactSink{writer: writer, dirCache: map[string]struct{}{}}
}

func (s *artifactSink) write(ctx context.Context, req writeFileRequest) error {
	if req.Content == nil {
		return errors.New("generator: write requires content reader")
	}
	if strings.TrimSpace(req.Path) == "" {
		return errors.New("generator: write requires path")
	}
	if err := s.ensureDir(ctx, path.Dir(req.Path)); err != nil {
		return err
	}
	if err := s.writer.WriteFile(ctx, req.Path, req.Content); err != nil {
		return fmt.Errorf("generator: write %s %s: %w", req.Category, req.Path, err)
	}
	return nil
}

func (s *artifactSink) ensureDir(ctx context.Context, dir string) error {
	dir = strings.TrimSpace(dir)
	if dir == "" || dir == "." || dir == "/" {
		return nil
	}
	s.mu.Lock()
	if _, ok := s.dirCache[dir]; ok {
		s.mu.Unlock()
		return nil
	}
	s.dirCache[dir] = struct{}{}
	s.mu.Unlock()
	return s.writer.EnsureDir(ctx, dir)
}
