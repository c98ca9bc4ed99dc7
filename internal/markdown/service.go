package markdown

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-homepage/internal/logging"
	"github.com/goliatone/go-homepage/pkg/interfaces"
)

// Config controls how the Markdown service discovers and parses files.
type Config struct {
	BasePath   string
	Pattern    string
	Recursive  bool
	Exclude    []string
	Permalinks PermalinkPatterns
	Parser     interfaces.ParseOptions
	Logger     interfaces.Logger
}

// Corpus is the outcome of a tolerant directory load.
type Corpus struct {
	Documents []*interfaces.Document
	Failures  []interfaces.LoadFailure
}

// Service implements interfaces.MarkdownService for filesystem-backed documents.
type Service struct {
	cfg    Config
	parser interfaces.MarkdownParser
	loader *Loader
	logger interfaces.Logger
}

var _ interfaces.MarkdownService = (*Service)(nil)

// NewService constructs a Markdown service rooted at cfg.BasePath. When parser
// is nil, a Goldmark parser with the configured default options is created.
func NewService(cfg Config, parser interfaces.MarkdownParser) (*Service, error) {
	filesystem, err := prepareFilesystem(cfg.BasePath)
	if err != nil {
		return nil, err
	}
	return NewServiceFS(filesystem, cfg, parser), nil
}

// NewServiceFS constructs a service over an arbitrary filesystem.
func NewServiceFS(filesystem fs.FS, cfg Config, parser interfaces.MarkdownParser) *Service {
	if parser == nil {
		parser = NewGoldmarkParser(cfg.Parser)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}

	loader := NewLoader(filesystem, LoaderConfig{
		BasePath:   cfg.BasePath,
		Pattern:    cfg.Pattern,
		Recursive:  cfg.Recursive,
		Exclude:    cfg.Exclude,
		Permalinks: cfg.Permalinks,
	})

	return &Service{
		cfg:    cfg,
		parser: parser,
		loader: loader,
		logger: logger,
	}
}

// Load reads and renders a single document relative to the base path.
func (s *Service) Load(ctx context.Context, path string, opts interfaces.LoadOptions) (*interfaces.Document, error) {
	result, err := s.loader.LoadFile(ctx, s.normalisePath(path))
	if err != nil {
		return nil, err
	}
	if err := s.renderDocument(ctx, result.Document, opts.Parser); err != nil {
		return nil, err
	}
	return result.Document, nil
}

// LoadDirectory reads and renders every document within dir. Parse failures
// abort the load; use LoadCorpus to collect them instead.
func (s *Service) LoadDirectory(ctx context.Context, dir string, opts interfaces.LoadOptions) ([]*interfaces.Document, error) {
	opts.Tolerant = false
	corpus, err := s.LoadCorpus(ctx, dir, opts)
	if err != nil {
		return nil, err
	}
	for _, doc := range corpus.Documents {
		if err := s.renderDocument(ctx, doc, opts.Parser); err != nil {
			return nil, err
		}
	}
	return corpus.Documents, nil
}

// LoadCorpus discovers documents under dir without rendering them.
func (s *Service) LoadCorpus(ctx context.Context, dir string, opts interfaces.LoadOptions) (*Corpus, error) {
	results, err := s.loader.LoadDirectory(ctx, s.normalisePath(dir), LoadParams{
		Pattern:   opts.Pattern,
		Recursive: opts.Recursive,
		Drafts:    opts.Drafts,
		Tolerant:  opts.Tolerant,
	})
	if err != nil {
		return nil, err
	}

	corpus := &Corpus{Documents: make([]*interfaces.Document, 0, len(results))}
	for _, result := range results {
		if result.Err != nil {
			s.logger.Warn("markdown.load.failed", "document_path", result.Path, "error", result.Err)
			corpus.Failures = append(corpus.Failures, interfaces.LoadFailure{FilePath: result.Path, Err: result.Err})
			continue
		}
		corpus.Documents = append(corpus.Documents, result.Document)
	}
	s.logger.Debug("markdown.load.complete",
		"documents", len(corpus.Documents),
		"failures", len(corpus.Failures),
	)
	return corpus, nil
}

// Render parses Markdown bytes into HTML using the configured parser.
func (s *Service) Render(ctx context.Context, markdown []byte, opts interfaces.ParseOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.parser.ParseWithOptions(markdown, mergeParseOptions(s.cfg.Parser, opts))
}

// RenderDocument converts the document body into HTML and stores it on doc.
func (s *Service) RenderDocument(ctx context.Context, doc *interfaces.Document, opts interfaces.ParseOptions) ([]byte, error) {
	if doc == nil {
		return nil, errors.New("markdown service: document is nil")
	}
	if err := s.renderDocument(ctx, doc, opts); err != nil {
		return nil, err
	}
	return doc.BodyHTML, nil
}

func (s *Service) renderDocument(ctx context.Context, doc *interfaces.Document, overrides interfaces.ParseOptions) error {
	if doc == nil {
		return nil
	}
	html, err := s.Render(ctx, doc.Body, overrides)
	if err != nil {
		return fmt.Errorf("markdown render document %s: %w", doc.FilePath, err)
	}
	doc.BodyHTML = html
	return nil
}

func (s *Service) normalisePath(path string) string {
	if strings.TrimSpace(path) == "" {
		return "."
	}
	clean := filepath.Clean(path)
	if filepath.IsAbs(clean) && strings.TrimSpace(s.cfg.BasePath) != "" {
		if rel, err := filepath.Rel(s.cfg.BasePath, clean); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(clean)
}

func mergeParseOptions(base, override interfaces.ParseOptions) interfaces.ParseOptions {
	result := base
	if len(override.Extensions) > 0 {
		result.Extensions = append([]string(nil), override.Extensions...)
	}
	if override.HardWraps {
		result.HardWraps = true
	}
	if override.SafeMode {
		result.SafeMode = true
	}
	return result
}

func prepareFilesystem(basePath string) (fs.FS, error) {
	if strings.TrimSpace(basePath) == "" {
		basePath = "."
	}
	if _, err := os.Stat(basePath); err != nil {
		return nil, fmt.Errorf("markdown service: stat base path %s: %w", basePath, err)
	}
	return os.DirFS(basePath), nil
}
