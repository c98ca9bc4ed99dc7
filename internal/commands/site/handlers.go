package sitecmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-homepage/internal/commands"
	"github.com/goliatone/go-homepage/internal/generator"
	"github.com/goliatone/go-homepage/internal/index"
	"github.com/goliatone/go-homepage/internal/logging"
	"github.com/goliatone/go-homepage/internal/markdown"
	sitevalidation "github.com/goliatone/go-homepage/internal/validation"
	"github.com/goliatone/go-homepage/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

const (
	validateOperation = "site.validate"
	buildOperation    = "site.build"
	cleanOperation    = "site.clean"
	indexOperation    = "site.index"
)

var (
	// ErrSiteInvalid is returned when validation reports at least one error.
	ErrSiteInvalid = errors.New("site command: content has errors")
	// ErrIndexDisabled is returned when no index service is configured.
	ErrIndexDisabled = errors.New("site command: index disabled")
)

var (
	_ command.Commander[ValidateSiteCommand] = (*ValidateSiteHandler)(nil)
	_ command.Commander[BuildSiteCommand]    = (*BuildSiteHandler)(nil)
	_ command.Commander[CleanSiteCommand]    = (*CleanSiteHandler)(nil)
	_ command.Commander[IndexSiteCommand]    = (*IndexSiteHandler)(nil)
)

// CorpusLoader discovers documents without rendering them. *markdown.Service satisfies it.
type CorpusLoader interface {
	LoadCorpus(ctx context.Context, dir string, opts interfaces.LoadOptions) (*markdown.Corpus, error)
}

// SiteValidator checks a loaded corpus. *validation.Validator satisfies it.
type SiteValidator interface {
	Validate(ctx context.Context, corpus *markdown.Corpus, opts sitevalidation.RunOptions) (*sitevalidation.Report, error)
}

// SiteIndexer keeps the SQL index in step with the corpus. *index.Service satisfies it.
type SiteIndexer interface {
	Sync(ctx context.Context, docs []*interfaces.Document, opts ...index.SyncOption) (index.SyncResult, error)
	Duplicates(ctx context.Context) ([]index.DuplicateGroup, error)
}

// ValidateSiteHandler runs the validator through the shared command handler foundation.
type ValidateSiteHandler struct {
	inner *commands.Handler[ValidateSiteCommand]
}

// NewValidateSiteHandler creates a handler that loads contentDir tolerantly and validates it.
func NewValidateSiteHandler(loader CorpusLoader, validator SiteValidator, contentDir string, logger interfaces.Logger, opts ...commands.HandlerOption[ValidateSiteCommand]) *ValidateSiteHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg ValidateSiteCommand) error {
		corpus, err := loader.LoadCorpus(ctx, joinDir(contentDir, msg.Directory), interfaces.LoadOptions{
			Drafts:   msg.Drafts,
			Tolerant: true,
		})
		if err != nil {
			return err
		}
		report, err := validator.Validate(ctx, corpus, sitevalidation.RunOptions{
			ExternalLinks: msg.ExternalLinks,
			Policy:        msg.Policy,
		})
		if err != nil {
			return err
		}
		if msg.ResultCallback != nil {
			msg.ResultCallback(report)
		}
		if report.HasErrors() {
			return fmt.Errorf("%w: %d error(s)", ErrSiteInvalid, report.Count(sitevalidation.SeverityError))
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[ValidateSiteCommand]{
		commands.WithLogger[ValidateSiteCommand](baseLogger),
		commands.WithOperation[ValidateSiteCommand](validateOperation),
		commands.WithMessageFields(func(msg ValidateSiteCommand) map[string]any {
			fields := map[string]any{}
			if msg.Directory != "" {
				fields["directory"] = msg.Directory
			}
			if msg.ExternalLinks != nil {
				fields["external_links"] = *msg.ExternalLinks
			}
			if msg.Drafts {
				fields["drafts"] = true
			}
			if msg.Policy != "" {
				fields["policy"] = string(msg.Policy)
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ValidateSiteCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ValidateSiteHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[ValidateSiteCommand].
func (h *ValidateSiteHandler) Execute(ctx context.Context, msg ValidateSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

// BuildSiteHandler runs the generator through the shared command handler foundation.
type BuildSiteHandler struct {
	inner *commands.Handler[BuildSiteCommand]
}

// NewBuildSiteHandler creates a handler bound to the supplied generator.
func NewBuildSiteHandler(service generator.Service, logger interfaces.Logger, opts ...commands.HandlerOption[BuildSiteCommand]) *BuildSiteHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg BuildSiteCommand) error {
		result, err := service.Build(ctx, generator.BuildOptions{
			Force:  msg.Force,
			DryRun: msg.DryRun,
			Drafts: msg.Drafts,
			Policy: msg.Policy,
		})
		if result != nil {
			if msg.ResultCallback != nil {
				msg.ResultCallback(result)
			}
			logging.WithFields(baseLogger, map[string]any{
				"pages_built":   result.PagesBuilt,
				"pages_skipped": result.PagesSkipped,
				"pages_removed": result.PagesRemoved,
				"redirects":     result.RedirectsBuilt,
				"assets_built":  result.AssetsBuilt,
				"error_count":   len(result.Errors),
				"dry_run":       msg.DryRun,
			}).Info("site.command.build.completed")
		}
		return err
	}

	handlerOpts := []commands.HandlerOption[BuildSiteCommand]{
		commands.WithLogger[BuildSiteCommand](baseLogger),
		commands.WithOperation[BuildSiteCommand](buildOperation),
		commands.WithMessageFields(func(msg BuildSiteCommand) map[string]any {
			fields := map[string]any{}
			if msg.Force {
				fields["force"] = true
			}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			if msg.Drafts {
				fields["drafts"] = true
			}
			if msg.Policy != "" {
				fields["policy"] = string(msg.Policy)
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[BuildSiteCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &BuildSiteHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[BuildSiteCommand].
func (h *BuildSiteHandler) Execute(ctx context.Context, msg BuildSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CleanSiteHandler clears the output directory.
type CleanSiteHandler struct {
	inner *commands.Handler[CleanSiteCommand]
}

// NewCleanSiteHandler creates a handler bound to the supplied generator.
func NewCleanSiteHandler(service generator.Service, logger interfaces.Logger, opts ...commands.HandlerOption[CleanSiteCommand]) *CleanSiteHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, _ CleanSiteCommand) error {
		return service.Clean(ctx)
	}

	handlerOpts := []commands.HandlerOption[CleanSiteCommand]{
		commands.WithLogger[CleanSiteCommand](baseLogger),
		commands.WithOperation[CleanSiteCommand](cleanOperation),
		commands.WithTelemetry(commands.DefaultTelemetry[CleanSiteCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &CleanSiteHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[CleanSiteCommand].
func (h *CleanSiteHandler) Execute(ctx context.Context, msg CleanSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

// IndexSiteHandler synchronises the SQL index.
type IndexSiteHandler struct {
	inner *commands.Handler[IndexSiteCommand]
}

// NewIndexSiteHandler creates a handler that loads the corpus and syncs it into indexer.
// Files that fail to parse are logged and left out of the index.
func NewIndexSiteHandler(loader CorpusLoader, indexer SiteIndexer, contentDir string, logger interfaces.Logger, opts ...commands.HandlerOption[IndexSiteCommand]) *IndexSiteHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg IndexSiteCommand) error {
		if indexer == nil {
			return ErrIndexDisabled
		}
		corpus, err := loader.LoadCorpus(ctx, joinDir(contentDir, msg.Directory), interfaces.LoadOptions{
			Drafts:   msg.Drafts,
			Tolerant: true,
		})
		if err != nil {
			return err
		}
		for _, failure := range corpus.Failures {
			baseLogger.Warn("site.command.index.skipped", "document_path", failure.FilePath, "error", failure.Err)
		}
		result, err := indexer.Sync(ctx, corpus.Documents, syncScope(msg)...)
		if err != nil {
			return err
		}
		groups, err := indexer.Duplicates(ctx)
		if err != nil {
			return err
		}
		if msg.ResultCallback != nil {
			msg.ResultCallback(result, groups)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[IndexSiteCommand]{
		commands.WithLogger[IndexSiteCommand](baseLogger),
		commands.WithOperation[IndexSiteCommand](indexOperation),
		commands.WithMessageFields(func(msg IndexSiteCommand) map[string]any {
			fields := map[string]any{}
			if msg.Directory != "" {
				fields["directory"] = msg.Directory
			}
			if msg.Drafts {
				fields["drafts"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[IndexSiteCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &IndexSiteHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[IndexSiteCommand].
func (h *IndexSiteHandler) Execute(ctx context.Context, msg IndexSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

// syncScope keeps entries outside the loaded part of the corpus.
func syncScope(msg IndexSiteCommand) []index.SyncOption {
	var opts []index.SyncOption
	if dir := strings.TrimSpace(msg.Directory); dir != "" {
		opts = append(opts, index.WithinDirectory(dir))
	}
	if !msg.Drafts && !markdown.IsDraftPath(strings.Trim(strings.TrimSpace(msg.Directory), "/")) {
		opts = append(opts, index.KeepDrafts())
	}
	return opts
}

func joinDir(base, dir string) string {
	base = strings.TrimSpace(base)
	dir = strings.Trim(strings.TrimSpace(dir), "/")
	switch {
	case dir == "":
		if base == "" {
			return "."
		}
		return base
	case base == "" || base == ".":
		return dir
	}
	return strings.TrimRight(base, "/") + "/" + dir
}
