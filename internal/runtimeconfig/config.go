package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrContentDirRequired = errors.New("homepage config: content directory is required")
var ErrGeneratorOutputDirRequired = errors.New("homepage config: generator output directory is required")

// ErrOutputDirMatchesContent prevents a build from writing into the tree it reads.
var ErrOutputDirMatchesContent = errors.New("homepage config: generator output directory must differ from the content directory")
var ErrGeneratorWorkersInvalid = errors.New("homepage config: generator workers must be zero or positive")
var ErrDuplicatePolicyInvalid = errors.New("homepage config: duplicate permalink policy is invalid")
var ErrProfilePermalinkRequired = errors.New("homepage config: validation profile permalink is required")
var ErrExternalWorkersInvalid = errors.New("homepage config: external link workers must be zero or positive")
var ErrIndexDSNRequired = errors.New("homepage config: index dsn is required when the index is enabled")
var ErrLoggingProviderRequired = errors.New("homepage config: logging provider is required")
var ErrLoggingProviderUnknown = errors.New("homepage config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("homepage config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("homepage config: logging format is invalid")

// Config aggregates the settings shared by the CLI commands. Field tags
// follow the keys accepted in homepage.yaml.
type Config struct {
	Site       SiteConfig       `mapstructure:"site"`
	Content    ContentConfig    `mapstructure:"content"`
	Generator  GeneratorConfig  `mapstructure:"generator"`
	Validation ValidationConfig `mapstructure:"validation"`
	Index      IndexConfig      `mapstructure:"index"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// SiteConfig describes the published site.
type SiteConfig struct {
	Title       string `mapstructure:"title"`
	BaseURL     string `mapstructure:"base_url"`
	Description string `mapstructure:"description"`
	Author      string `mapstructure:"author"`
}

// ContentConfig captures how documents are discovered under the site root.
type ContentConfig struct {
	Dir       string   `mapstructure:"dir"`
	Pattern   string   `mapstructure:"pattern"`
	Recursive bool     `mapstructure:"recursive"`
	Drafts    bool     `mapstructure:"drafts"`
	Exclude   []string `mapstructure:"exclude"`
	// Permalinks maps a collection name (or "*") to a permalink pattern.
	Permalinks map[string]string    `mapstructure:"permalinks"`
	Parser     MarkdownParserConfig `mapstructure:"parser"`
}

// MarkdownParserConfig mirrors interfaces.ParseOptions for runtime configuration.
type MarkdownParserConfig struct {
	Extensions []string `mapstructure:"extensions"`
	HardWraps  bool     `mapstructure:"hard_wraps"`
	SafeMode   bool     `mapstructure:"safe_mode"`
}

// GeneratorConfig captures behaviour for the static site generator.
type GeneratorConfig struct {
	OutputDir   string   `mapstructure:"output_dir"`
	LayoutsDir  string   `mapstructure:"layouts_dir"`
	StaticDirs  []string `mapstructure:"static_dirs"`
	Sitemap     bool     `mapstructure:"sitemap"`
	Robots      bool     `mapstructure:"robots"`
	Feeds       bool     `mapstructure:"feeds"`
	Workers     int      `mapstructure:"workers"`
	CleanBuild  bool     `mapstructure:"clean_build"`
	Incremental bool     `mapstructure:"incremental"`
}

// ValidationConfig controls the content checks.
type ValidationConfig struct {
	Duplicates string          `mapstructure:"duplicates"`
	Profiles   []ProfileConfig `mapstructure:"profiles"`
	// DisableProfiles turns key-set profiles off even when Profiles is empty.
	DisableProfiles bool          `mapstructure:"disable_profiles"`
	ExternalLinks   bool          `mapstructure:"external_links"`
	ExternalTimeout time.Duration `mapstructure:"external_timeout"`
	ExternalWorkers int           `mapstructure:"external_workers"`
}

// ProfileConfig pins the front matter key set of the documents routed at Permalink.
type ProfileConfig struct {
	Name      string   `mapstructure:"name"`
	Permalink string   `mapstructure:"permalink"`
	Keys      []string `mapstructure:"keys"`
}

// IndexConfig configures the SQL index of the corpus.
type IndexConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	DSN     string      `mapstructure:"dsn"`
	Cache   CacheConfig `mapstructure:"cache"`
}

// CacheConfig captures repository cache toggles.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `mapstructure:"provider"`
	Level     string   `mapstructure:"level"`
	Format    string   `mapstructure:"format"`
	AddSource bool     `mapstructure:"add_source"`
	Focus     []string `mapstructure:"focus"`
}

// DefaultConfig returns defaults for a Jekyll-style academic homepage
// checked out at the current directory.
func DefaultConfig() Config {
	return Config{
		Site: SiteConfig{
			Title: "Homepage",
		},
		Content: ContentConfig{
			Dir:       ".",
			Pattern:   "*.md",
			Recursive: true,
			Exclude:   []string{"_site", "node_modules", "vendor", ".git"},
			Permalinks: map[string]string{
				"pages": "/:slug/",
				"posts": "/posts/:year/:month/:slug/",
				"*":     "/:collection/:slug/",
			},
		},
		Generator: GeneratorConfig{
			OutputDir:   "_site",
			StaticDirs:  []string{"assets", "images", "files"},
			Sitemap:     true,
			Robots:      true,
			Feeds:       true,
			Workers:     0,
			CleanBuild:  false,
			Incremental: true,
		},
		Validation: ValidationConfig{
			Duplicates:      "error",
			ExternalTimeout: 10 * time.Second,
			ExternalWorkers: 8,
		},
		Index: IndexConfig{
			Enabled: true,
			DSN:     "sqlite://.homepage-index.db",
			Cache: CacheConfig{
				Enabled: false,
				TTL:     time.Minute,
			},
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
			Format:   "",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	contentDir := strings.TrimSpace(cfg.Content.Dir)
	if contentDir == "" {
		return ErrContentDirRequired
	}
	outputDir := strings.TrimSpace(cfg.Generator.OutputDir)
	if outputDir == "" {
		return ErrGeneratorOutputDirRequired
	}
	if cleanDir(outputDir) == cleanDir(contentDir) {
		return ErrOutputDirMatchesContent
	}
	if cfg.Generator.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrGeneratorWorkersInvalid, cfg.Generator.Workers)
	}
	if !isSupportedPolicy(cfg.Validation.Duplicates) {
		return fmt.Errorf("%w: %s", ErrDuplicatePolicyInvalid, cfg.Validation.Duplicates)
	}
	for i, profile := range cfg.Validation.Profiles {
		if strings.TrimSpace(profile.Permalink) == "" {
			return fmt.Errorf("%w: profile %d", ErrProfilePermalinkRequired, i)
		}
	}
	if cfg.Validation.ExternalWorkers < 0 {
		return fmt.Errorf("%w: %d", ErrExternalWorkersInvalid, cfg.Validation.ExternalWorkers)
	}
	if cfg.Index.Enabled && strings.TrimSpace(cfg.Index.DSN) == "" {
		return ErrIndexDSNRequired
	}

	provider := normalizeProvider(cfg.Logging.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

// LoggingProvider returns the normalized provider name.
func (cfg Config) LoggingProvider() string {
	return normalizeProvider(cfg.Logging.Provider)
}

func cleanDir(dir string) string {
	dir = strings.TrimSuffix(strings.ReplaceAll(strings.TrimSpace(dir), "\\", "/"), "/")
	dir = strings.TrimPrefix(dir, "./")
	if dir == "" {
		return "."
	}
	return dir
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedPolicy(policy string) bool {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case "", "error", "newest", "first":
		return true
	default:
		return false
	}
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
