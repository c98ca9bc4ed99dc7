package di

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	sitecmd "github.com/goliatone/go-homepage/internal/commands/site"
	"github.com/goliatone/go-homepage/internal/generator"
	"github.com/goliatone/go-homepage/internal/index"
	"github.com/goliatone/go-homepage/internal/logging"
	"github.com/goliatone/go-homepage/internal/logging/console"
	"github.com/goliatone/go-homepage/internal/logging/gologger"
	"github.com/goliatone/go-homepage/internal/markdown"
	"github.com/goliatone/go-homepage/internal/runtimeconfig"
	"github.com/goliatone/go-homepage/internal/site"
	"github.com/goliatone/go-homepage/internal/validation"
	"github.com/goliatone/go-homepage/pkg/interfaces"
	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"
)

// siteRoot is the directory handed to loaders; every service reads from the
// filesystem rooted at the configured content directory.
const siteRoot = "."

// Container wires the homepage services from a runtime configuration.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger

	siteFS      fs.FS
	markdownSvc *markdown.Service
	validator   *validation.Validator
	linkChecker validation.LinkChecker

	renderer  generator.TemplateRenderer
	writer    generator.ArtifactWriter
	generator generator.Service

	bunDB         *bun.DB
	ownsDB        bool
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer
	indexRepo     index.Repository
	indexSvc      *index.Service

	handlers *sitecmd.HandlerSet
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider built from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithSiteFS replaces the filesystem rooted at the content directory.
func WithSiteFS(fsys fs.FS) Option {
	return func(c *Container) {
		if fsys != nil {
			c.siteFS = fsys
		}
	}
}

// WithArtifactWriter overrides where build output is written.
func WithArtifactWriter(writer generator.ArtifactWriter) Option {
	return func(c *Container) {
		if writer != nil {
			c.writer = writer
		}
	}
}

// WithTemplateRenderer overrides the layout renderer.
func WithTemplateRenderer(renderer generator.TemplateRenderer) Option {
	return func(c *Container) {
		if renderer != nil {
			c.renderer = renderer
		}
	}
}

// WithLinkChecker overrides the external link checker used by the validator.
func WithLinkChecker(checker validation.LinkChecker) Option {
	return func(c *Container) {
		if checker != nil {
			c.linkChecker = checker
		}
	}
}

// WithBunDB supplies the index database. The container does not close it.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		if db != nil {
			c.bunDB = db
		}
	}
}

// WithCache wires a repository cache in front of the bun index repository.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithIndexRepository bypasses the SQL index with the supplied repository.
func WithIndexRepository(repo index.Repository) Option {
	return func(c *Container) {
		if repo != nil {
			c.indexRepo = repo
		}
	}
}

// NewContainer validates cfg and builds every service. Call Close to release
// the index database.
func NewContainer(ctx context.Context, cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLogger(); err != nil {
		return nil, err
	}
	if err := c.configureContent(); err != nil {
		return nil, err
	}
	if err := c.configureValidator(); err != nil {
		return nil, err
	}
	if err := c.configureGenerator(); err != nil {
		return nil, err
	}
	if err := c.configureIndex(ctx); err != nil {
		return nil, err
	}
	if err := c.configureCommands(); err != nil {
		c.Close()
		return nil, err
	}

	c.logger.Debug("container.configured",
		"content_dir", cfg.Content.Dir,
		"output_dir", cfg.Generator.OutputDir,
		"index", c.indexSvc != nil,
	)
	return c, nil
}

func (c *Container) configureLogger() error {
	if c.loggerProvider == nil {
		switch c.Config.LoggingProvider() {
		case "gologger":
			provider, err := gologger.NewProvider(gologger.Config{
				Level:     c.Config.Logging.Level,
				Format:    c.Config.Logging.Format,
				AddSource: c.Config.Logging.AddSource,
				Focus:     c.Config.Logging.Focus,
			})
			if err != nil {
				return err
			}
			c.loggerProvider = provider
		default:
			opts := console.Options{}
			if level, ok := console.ParseLevel(c.Config.Logging.Level); ok {
				opts.MinLevel = &level
			}
			c.loggerProvider = console.NewProvider(opts)
		}
	}
	c.logger = logging.ModuleLogger(c.loggerProvider, "homepage.di")
	return nil
}

func (c *Container) configureContent() error {
	cfg := c.Config.Content
	if c.siteFS == nil {
		info, err := os.Stat(cfg.Dir)
		if err != nil {
			return fmt.Errorf("di: content directory %s: %w", cfg.Dir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("di: content path %s is not a directory", cfg.Dir)
		}
		c.siteFS = os.DirFS(cfg.Dir)
	}

	patterns := markdown.PermalinkPatterns{}
	for collection, pattern := range cfg.Permalinks {
		patterns[collection] = pattern
	}

	c.markdownSvc = markdown.NewServiceFS(c.siteFS, markdown.Config{
		BasePath:   cfg.Dir,
		Pattern:    cfg.Pattern,
		Recursive:  cfg.Recursive,
		Exclude:    contentExcludes(cfg.Exclude, cfg.Dir, c.Config.Generator.OutputDir),
		Permalinks: patterns,
		Parser:     c.parseOptions(),
		Logger:     logging.MarkdownLogger(c.loggerProvider),
	}, nil)
	return nil
}

func (c *Container) configureValidator() error {
	policy, err := site.ParsePolicy(c.Config.Validation.Duplicates)
	if err != nil {
		return err
	}

	opts := []validation.Option{}
	if c.linkChecker != nil {
		opts = append(opts, validation.WithLinkChecker(c.linkChecker))
	}
	validator, err := validation.New(validation.Config{
		Policy:          policy,
		Profiles:        c.profiles(),
		StaticFS:        c.siteFS,
		ExternalLinks:   c.Config.Validation.ExternalLinks,
		ExternalWorkers: c.Config.Validation.ExternalWorkers,
		ExternalTimeout: c.Config.Validation.ExternalTimeout,
		Logger:          logging.ValidationLogger(c.loggerProvider),
	}, opts...)
	if err != nil {
		return fmt.Errorf("di: configure validator: %w", err)
	}
	c.validator = validator
	return nil
}

func (c *Container) configureGenerator() error {
	cfg := c.Config
	if c.renderer == nil {
		renderer, err := generator.NewTemplateRenderer(cfg.Generator.LayoutsDir)
		if err != nil {
			return err
		}
		c.renderer = renderer
	}
	if c.writer == nil {
		c.writer = generator.NewFSWriter(cfg.Generator.OutputDir)
	}

	policy, err := site.ParsePolicy(cfg.Validation.Duplicates)
	if err != nil {
		return err
	}

	c.generator = generator.NewService(generator.Config{
		ContentDir:      siteRoot,
		BaseURL:         cfg.Site.BaseURL,
		Title:           cfg.Site.Title,
		Description:     cfg.Site.Description,
		Author:          cfg.Site.Author,
		CleanBuild:      cfg.Generator.CleanBuild,
		Incremental:     cfg.Generator.Incremental,
		GenerateSitemap: cfg.Generator.Sitemap,
		GenerateRobots:  cfg.Generator.Robots,
		GenerateFeeds:   cfg.Generator.Feeds,
		StaticDirs:      append([]string(nil), cfg.Generator.StaticDirs...),
		Workers:         cfg.Generator.Workers,
		Drafts:          cfg.Content.Drafts,
		DuplicatePolicy: policy,
		Parser:          c.parseOptions(),
	}, generator.Dependencies{
		Source:   c.markdownSvc,
		Renderer: c.renderer,
		Writer:   c.writer,
		Static:   c.siteFS,
		Logger:   logging.GeneratorLogger(c.loggerProvider),
	})
	return nil
}

func (c *Container) configureIndex(ctx context.Context) error {
	logger := logging.IndexLogger(c.loggerProvider)
	if c.indexRepo != nil {
		c.indexSvc = index.NewService(c.indexRepo, index.WithLogger(logger))
		return nil
	}
	if !c.Config.Index.Enabled {
		return nil
	}

	if c.bunDB == nil {
		db, err := index.Open(ctx, c.Config.Index.DSN)
		if err != nil {
			return fmt.Errorf("di: open index: %w", err)
		}
		c.bunDB = db
		c.ownsDB = true
	} else if err := index.EnsureSchema(ctx, c.bunDB); err != nil {
		return fmt.Errorf("di: prepare index schema: %w", err)
	}

	c.configureCacheDefaults()
	c.indexRepo = index.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	c.indexSvc = index.NewService(c.indexRepo, index.WithLogger(logger))
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Index.Cache.Enabled {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.Config.Index.Cache.TTL > 0 {
			cfg.TTL = c.Config.Index.Cache.TTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err != nil {
			c.logger.Warn("container.cache.disabled", "error", err)
			return
		}
		c.cacheService = service
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureCommands() error {
	deps := sitecmd.Dependencies{
		Loader:     c.markdownSvc,
		Validator:  c.validator,
		Generator:  c.generator,
		ContentDir: siteRoot,
	}
	if c.indexSvc != nil {
		deps.Indexer = c.indexSvc
	}
	handlers, err := sitecmd.RegisterSiteCommands(nil, deps, c.loggerProvider)
	if err != nil {
		return err
	}
	c.handlers = handlers
	return nil
}

func (c *Container) parseOptions() interfaces.ParseOptions {
	parser := c.Config.Content.Parser
	return interfaces.ParseOptions{
		Extensions: append([]string(nil), parser.Extensions...),
		HardWraps:  parser.HardWraps,
		SafeMode:   parser.SafeMode,
	}
}

// profiles maps configured profiles; nil keeps the validator defaults.
func (c *Container) profiles() []validation.Profile {
	cfg := c.Config.Validation
	if cfg.DisableProfiles {
		return []validation.Profile{}
	}
	if len(cfg.Profiles) == 0 {
		return nil
	}
	profiles := make([]validation.Profile, 0, len(cfg.Profiles))
	for _, profile := range cfg.Profiles {
		profiles = append(profiles, validation.Profile{
			Name:      profile.Name,
			Permalink: profile.Permalink,
			Keys:      append([]string(nil), profile.Keys...),
		})
	}
	return profiles
}

// Close releases the index database when the container opened it.
func (c *Container) Close() error {
	if c == nil || c.bunDB == nil || !c.ownsDB {
		return nil
	}
	err := c.bunDB.Close()
	c.bunDB = nil
	c.ownsDB = false
	return err
}

// LoggerProvider returns the provider shared by every module.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// MarkdownService returns the document loader and renderer.
func (c *Container) MarkdownService() *markdown.Service {
	return c.markdownSvc
}

// Validator returns the configured content validator.
func (c *Container) Validator() *validation.Validator {
	return c.validator
}

// GeneratorService returns the static site generator.
func (c *Container) GeneratorService() generator.Service {
	return c.generator
}

// IndexService returns the SQL index, or nil when the index is disabled.
func (c *Container) IndexService() *index.Service {
	return c.indexSvc
}

// BunDB exposes the index database, or nil when the index is disabled.
func (c *Container) BunDB() *bun.DB {
	return c.bunDB
}

// Commands returns the site command handlers.
func (c *Container) Commands() *sitecmd.HandlerSet {
	return c.handlers
}

// contentExcludes adds the output directory to the excluded names when the
// build writes inside the content tree.
func contentExcludes(configured []string, contentDir, outputDir string) []string {
	excludes := append([]string(nil), configured...)
	absContent, errContent := filepath.Abs(contentDir)
	absOutput, errOutput := filepath.Abs(outputDir)
	if errors.Join(errContent, errOutput) != nil {
		return excludes
	}
	rel, err := filepath.Rel(absContent, absOutput)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return excludes
	}
	first, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	for _, existing := range excludes {
		if existing == first {
			return excludes
		}
	}
	return append(excludes, first)
}
