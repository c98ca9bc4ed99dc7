package validation

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/goliatone/go-homepage/internal/logging"
	"github.com/goliatone/go-homepage/internal/markdown"
	"github.com/goliatone/go-homepage/internal/site"
	"github.com/goliatone/go-homepage/pkg/interfaces"
)

// Config controls which checks run.
type Config struct {
	Policy   site.Policy
	Profiles []Profile
	// StaticFS is rooted at the site root and resolves links to assets.
	StaticFS        fs.FS
	ExternalLinks   bool
	ExternalWorkers int
	ExternalTimeout time.Duration
	Logger          interfaces.Logger
}

// Option mutates a Validator at construction time.
type Option func(*Validator)

// WithLinkChecker overrides the checker used for external links.
func WithLinkChecker(checker LinkChecker) Option {
	return func(v *Validator) {
		if checker != nil {
			v.checker = checker
		}
	}
}

// Validator runs the content checks over a loaded corpus.
type Validator struct {
	cfg      Config
	profiles []compiledProfile
	checker  LinkChecker
	logger   interfaces.Logger
}

// New compiles the configured profiles. A nil Profiles slice selects
// DefaultProfiles; an empty non-nil slice disables profile checks.
func New(cfg Config, opts ...Option) (*Validator, error) {
	profiles := cfg.Profiles
	if profiles == nil {
		profiles = DefaultProfiles()
	}
	compiled, err := compileProfiles(profiles)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}

	v := &Validator{
		cfg:      cfg,
		profiles: compiled,
		checker:  NewHTTPChecker(cfg.ExternalTimeout),
		logger:   logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v, nil
}

// RunOptions override Config for a single run.
type RunOptions struct {
	ExternalLinks *bool
	// Policy replaces the configured duplicate permalink policy when set.
	Policy site.Policy
}

// Validate checks corpus and returns the report. The error is non-nil only
// when the run itself could not finish, never for content findings.
func (v *Validator) Validate(ctx context.Context, corpus *markdown.Corpus, opts RunOptions) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report := &Report{}
	if corpus == nil {
		return report, nil
	}
	report.Documents = len(corpus.Documents) + len(corpus.Failures)

	for _, failure := range corpus.Failures {
		report.add(SeverityError, CodeFrontMatterInvalid, failure.FilePath, "", failure.Err.Error())
	}

	for _, doc := range corpus.Documents {
		if !doc.HasFrontMatter {
			report.add(SeverityError, CodeFrontMatterMissing, doc.FilePath, "", "document has no front matter block")
			continue
		}
		errs, warnings := checkFields(doc)
		appendFieldIssues(report, SeverityError, CodeFieldInvalid, doc.FilePath, errs)
		appendFieldIssues(report, SeverityWarning, CodePermalinkSegment, doc.FilePath, warnings)
	}

	policy := v.cfg.Policy
	if opts.Policy != "" {
		policy = opts.Policy
	}
	resolved, err := site.Resolve(corpus.Documents, site.Options{Policy: policy})
	v.appendResolveIssues(report, resolved, err)

	v.checkProfiles(report, corpus.Documents)
	checkKeySets(report, corpus.Documents)

	external := checkInternalLinks(report, resolved, v.cfg.StaticFS)
	checkExternal := v.cfg.ExternalLinks
	if opts.ExternalLinks != nil {
		checkExternal = *opts.ExternalLinks
	}
	if checkExternal {
		if err := checkExternalLinks(ctx, report, v.checker, external, v.cfg.ExternalWorkers); err != nil {
			return nil, err
		}
	}

	report.sort()
	v.logger.Info("validation.complete",
		"documents", report.Documents,
		"errors", report.Count(SeverityError),
		"warnings", report.Count(SeverityWarning),
	)
	return report, nil
}

func (v *Validator) appendResolveIssues(report *Report, resolved *site.Site, err error) {
	var dupErr *site.DuplicatePermalinkError
	var redirectErr *site.RedirectConflictError
	for _, e := range flatten(err) {
		switch {
		case errors.As(e, &dupErr):
			for _, path := range dupErr.Paths {
				report.add(SeverityError, CodePermalinkDuplicate, path, "permalink", dupErr.Error())
			}
		case errors.As(e, &redirectErr):
			report.add(SeverityError, CodeRedirectConflict, redirectErr.Source, "redirect_from", redirectErr.Error())
		default:
			report.add(SeverityError, CodePermalinkDuplicate, "", "", e.Error())
		}
	}
	for _, shadowed := range resolved.Shadowed {
		report.add(SeverityWarning, CodePermalinkShadowed, shadowed.Document.FilePath, "permalink",
			fmt.Sprintf("permalink %s is served by %s", shadowed.Permalink, shadowed.Winner))
	}
}

func (v *Validator) checkProfiles(report *Report, docs []*interfaces.Document) {
	for _, profile := range v.profiles {
		for _, doc := range docs {
			if markdown.NormalizePermalink(doc.Permalink()) != profile.Permalink {
				continue
			}
			err := profile.validate(doc.FrontMatter.Raw)
			if err == nil {
				continue
			}
			for _, issue := range Issues(err) {
				report.add(SeverityError, CodeProfileMismatch, doc.FilePath, issueLocation(issue.Location),
					fmt.Sprintf("profile %s: %s", profile.Name, issue.Message))
			}
		}
	}
}

func flatten(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
