package sitecmd

import (
	"errors"

	"github.com/goliatone/go-homepage/internal/commands"
	"github.com/goliatone/go-homepage/internal/generator"
	"github.com/goliatone/go-homepage/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// Dependencies lists the services the site handlers call.
type Dependencies struct {
	Loader    CorpusLoader
	Validator SiteValidator
	Generator generator.Service
	// Indexer is optional; without it the index command fails with ErrIndexDisabled.
	Indexer    SiteIndexer
	ContentDir string
}

// HandlerSet groups the handlers produced by RegisterSiteCommands.
type HandlerSet struct {
	Validate *ValidateSiteHandler
	Build    *BuildSiteHandler
	Clean    *CleanSiteHandler
	Index    *IndexSiteHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	validateOpts []commands.HandlerOption[ValidateSiteCommand]
	buildOpts    []commands.HandlerOption[BuildSiteCommand]
	cleanOpts    []commands.HandlerOption[CleanSiteCommand]
	indexOpts    []commands.HandlerOption[IndexSiteCommand]
}

// WithValidateHandlerOptions forwards options to the ValidateSiteHandler constructor.
func WithValidateHandlerOptions(opts ...commands.HandlerOption[ValidateSiteCommand]) Option {
	return func(cfg *options) {
		cfg.validateOpts = append(cfg.validateOpts, opts...)
	}
}

// WithBuildHandlerOptions forwards options to the BuildSiteHandler constructor.
func WithBuildHandlerOptions(opts ...commands.HandlerOption[BuildSiteCommand]) Option {
	return func(cfg *options) {
		cfg.buildOpts = append(cfg.buildOpts, opts...)
	}
}

// WithCleanHandlerOptions forwards options to the CleanSiteHandler constructor.
func WithCleanHandlerOptions(opts ...commands.HandlerOption[CleanSiteCommand]) Option {
	return func(cfg *options) {
		cfg.cleanOpts = append(cfg.cleanOpts, opts...)
	}
}

// WithIndexHandlerOptions forwards options to the IndexSiteHandler constructor.
func WithIndexHandlerOptions(opts ...commands.HandlerOption[IndexSiteCommand]) Option {
	return func(cfg *options) {
		cfg.indexOpts = append(cfg.indexOpts, opts...)
	}
}

// RegisterSiteCommands builds the site handlers and registers them with reg
// when it is non-nil.
func RegisterSiteCommands(reg CommandRegistry, deps Dependencies, provider interfaces.LoggerProvider, opts ...Option) (*HandlerSet, error) {
	if deps.Loader == nil {
		return nil, errors.New("site command registration: loader is nil")
	}
	if deps.Validator == nil {
		return nil, errors.New("site command registration: validator is nil")
	}
	if deps.Generator == nil {
		return nil, errors.New("site command registration: generator is nil")
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := commands.CommandLogger(provider, "site")
	set := &HandlerSet{
		Validate: NewValidateSiteHandler(deps.Loader, deps.Validator, deps.ContentDir, logger, cfg.validateOpts...),
		Build:    NewBuildSiteHandler(deps.Generator, logger, cfg.buildOpts...),
		Clean:    NewCleanSiteHandler(deps.Generator, logger, cfg.cleanOpts...),
		Index:    NewIndexSiteHandler(deps.Loader, deps.Indexer, deps.ContentDir, logger, cfg.indexOpts...),
	}

	if reg != nil {
		for _, handler := range []any{set.Validate, set.Build, set.Clean, set.Index} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}
