package runtimeconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultConfigName is the file name searched for when no file is given.
	DefaultConfigName = "homepage"
	// DefaultEnvPrefix prefixes environment overrides, e.g. HOMEPAGE_GENERATOR_OUTPUT_DIR.
	DefaultEnvPrefix = "HOMEPAGE"
)

// ErrConfigFileNotFound is returned when an explicit config file is missing.
var ErrConfigFileNotFound = errors.New("homepage config: config file not found")

// LoadOptions control where configuration is read from.
type LoadOptions struct {
	// File is an explicit config path. When empty, homepage.yaml is searched
	// in Paths and a missing file is not an error.
	File      string
	Paths     []string
	EnvPrefix string
}

// LoadResult reports the decoded configuration and the file it came from.
type LoadResult struct {
	Config Config
	// File is empty when no config file was found.
	File string
}

// Load reads configuration with viper: defaults, then the config file, then
// environment variables. The result is validated.
func Load(opts LoadOptions) (LoadResult, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		paths := opts.Paths
		if len(paths) == 0 {
			paths = []string{"."}
		}
		for _, p := range paths {
			v.AddConfigPath(p)
		}
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	result := LoadResult{}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			if opts.File != "" {
				return result, fmt.Errorf("%w: %s", ErrConfigFileNotFound, opts.File)
			}
		case opts.File != "" && errors.Is(err, fs.ErrNotExist):
			return result, fmt.Errorf("%w: %s", ErrConfigFileNotFound, opts.File)
		default:
			return result, fmt.Errorf("homepage config: read config: %w", err)
		}
	} else {
		result.File = v.ConfigFileUsed()
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return result, fmt.Errorf("homepage config: decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return result, err
	}
	result.Config = cfg
	return result, nil
}

// setDefaults registers every key so AutomaticEnv can resolve overrides for
// keys the config file does not mention.
func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("site.title", cfg.Site.Title)
	v.SetDefault("site.base_url", cfg.Site.BaseURL)
	v.SetDefault("site.description", cfg.Site.Description)
	v.SetDefault("site.author", cfg.Site.Author)

	v.SetDefault("content.dir", cfg.Content.Dir)
	v.SetDefault("content.pattern", cfg.Content.Pattern)
	v.SetDefault("content.recursive", cfg.Content.Recursive)
	v.SetDefault("content.drafts", cfg.Content.Drafts)
	v.SetDefault("content.exclude", cfg.Content.Exclude)
	v.SetDefault("content.permalinks", cfg.Content.Permalinks)
	v.SetDefault("content.parser.extensions", cfg.Content.Parser.Extensions)
	v.SetDefault("content.parser.hard_wraps", cfg.Content.Parser.HardWraps)
	v.SetDefault("content.parser.safe_mode", cfg.Content.Parser.SafeMode)

	v.SetDefault("generator.output_dir", cfg.Generator.OutputDir)
	v.SetDefault("generator.layouts_dir", cfg.Generator.LayoutsDir)
	v.SetDefault("generator.static_dirs", cfg.Generator.StaticDirs)
	v.SetDefault("generator.sitemap", cfg.Generator.Sitemap)
	v.SetDefault("generator.robots", cfg.Generator.Robots)
	v.SetDefault("generator.feeds", cfg.Generator.Feeds)
	v.SetDefault("generator.workers", cfg.Generator.Workers)
	v.SetDefault("generator.clean_build", cfg.Generator.CleanBuild)
	v.SetDefault("generator.incremental", cfg.Generator.Incremental)

	v.SetDefault("validation.duplicates", cfg.Validation.Duplicates)
	v.SetDefault("validation.disable_profiles", cfg.Validation.DisableProfiles)
	v.SetDefault("validation.external_links", cfg.Validation.ExternalLinks)
	v.SetDefault("validation.external_timeout", cfg.Validation.ExternalTimeout)
	v.SetDefault("validation.external_workers", cfg.Validation.ExternalWorkers)

	v.SetDefault("index.enabled", cfg.Index.Enabled)
	v.SetDefault("index.dsn", cfg.Index.DSN)
	v.SetDefault("index.cache.enabled", cfg.Index.Cache.Enabled)
	v.SetDefault("index.cache.ttl", cfg.Index.Cache.TTL)

	v.SetDefault("logging.provider", cfg.Logging.Provider)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.add_source", cfg.Logging.AddSource)
	v.SetDefault("logging.focus", cfg.Logging.Focus)
}
