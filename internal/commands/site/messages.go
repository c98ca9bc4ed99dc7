package sitecmd

import (
	"path"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-homepage/internal/generator"
	"github.com/goliatone/go-homepage/internal/index"
	"github.com/goliatone/go-homepage/internal/site"
	sitevalidation "github.com/goliatone/go-homepage/internal/validation"
)

const (
	validateSiteMessageType = "homepage.site.validate"
	buildSiteMessageType    = "homepage.site.build"
	cleanSiteMessageType    = "homepage.site.clean"
	indexSiteMessageType    = "homepage.site.index"
)

// ValidateSiteCommand checks the corpus and reports every issue found.
type ValidateSiteCommand struct {
	// Directory narrows the run to a content-relative directory.
	Directory string `json:"directory,omitempty"`
	// ExternalLinks overrides the configured online link check when set.
	ExternalLinks *bool `json:"external_links,omitempty"`
	// Drafts includes the _drafts directory.
	Drafts bool `json:"drafts,omitempty"`
	// Policy overrides the duplicate permalink policy.
	Policy site.Policy `json:"policy,omitempty"`
	// ResultCallback receives the report before the handler returns.
	ResultCallback func(*sitevalidation.Report) `json:"-"`
}

// Type implements command.Message.
func (ValidateSiteCommand) Type() string { return validateSiteMessageType }

// Validate implements command.Message.
func (cmd ValidateSiteCommand) Validate() error {
	return validation.Errors{
		"directory": validation.Validate(cmd.Directory, validation.By(relativeDirectory)),
		"policy":    validation.Validate(string(cmd.Policy), policyRule()),
	}.Filter()
}

// BuildSiteCommand renders the site into the output directory.
type BuildSiteCommand struct {
	Force  bool        `json:"force,omitempty"`
	DryRun bool        `json:"dry_run,omitempty"`
	Drafts bool        `json:"drafts,omitempty"`
	Policy site.Policy `json:"policy,omitempty"`
	// ResultCallback receives the build result, including partial results of failed builds.
	ResultCallback func(*generator.BuildResult) `json:"-"`
}

// Type implements command.Message.
func (BuildSiteCommand) Type() string { return buildSiteMessageType }

// Validate implements command.Message.
func (cmd BuildSiteCommand) Validate() error {
	return validation.Errors{
		"policy": validation.Validate(string(cmd.Policy), policyRule()),
	}.Filter()
}

// CleanSiteCommand removes generated output.
type CleanSiteCommand struct{}

// Type implements command.Message.
func (CleanSiteCommand) Type() string { return cleanSiteMessageType }

// Validate implements command.Message.
func (CleanSiteCommand) Validate() error { return nil }

// IndexSiteCommand synchronises the SQL index with the corpus.
type IndexSiteCommand struct {
	Directory      string                                         `json:"directory,omitempty"`
	Drafts         bool                                           `json:"drafts,omitempty"`
	ResultCallback func(index.SyncResult, []index.DuplicateGroup) `json:"-"`
}

// Type implements command.Message.
func (IndexSiteCommand) Type() string { return indexSiteMessageType }

// Validate implements command.Message.
func (cmd IndexSiteCommand) Validate() error {
	return validation.Errors{
		"directory": validation.Validate(cmd.Directory, validation.By(relativeDirectory)),
	}.Filter()
}

func policyRule() validation.Rule {
	return validation.In(string(site.PolicyError), string(site.PolicyNewest), string(site.PolicyFirst)).
		Error("must be one of error, newest, first")
}

func relativeDirectory(value any) error {
	dir, _ := value.(string)
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil
	}
	if strings.HasPrefix(dir, "/") {
		return validation.NewError("homepage.site.directory_absolute", "directory must be relative to the content root")
	}
	if cleaned := path.Clean(dir); cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return validation.NewError("homepage.site.directory_escapes", "directory must stay inside the content root")
	}
	return nil
}
