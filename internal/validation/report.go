package validation

import (
	"fmt"
	"sort"
)

// Severity ranks an issue. Only errors fail a run.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue codes reported by the validator.
const (
	CodeFrontMatterInvalid = "frontmatter.invalid"
	CodeFrontMatterMissing = "frontmatter.missing"
	CodeFieldInvalid       = "field.invalid"
	CodePermalinkSegment   = "permalink.segment"
	CodePermalinkDuplicate = "permalink.duplicate"
	CodePermalinkShadowed  = "permalink.shadowed"
	CodeRedirectConflict   = "redirect.conflict"
	CodeProfileMismatch    = "profile.mismatch"
	CodeKeysetInconsistent = "keyset.inconsistent"
	CodeLinkBroken         = "link.broken"
	CodeLinkExternal       = "link.external"
)

// Issue is a single finding tied to a content file.
type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Path     string   `json:"path"`
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	if i.Field != "" {
		return fmt.Sprintf("%s %s [%s] %s: %s", i.Severity, i.Path, i.Code, i.Field, i.Message)
	}
	return fmt.Sprintf("%s %s [%s] %s", i.Severity, i.Path, i.Code, i.Message)
}

// Report collects the issues of a validation run.
type Report struct {
	Documents int     `json:"documents"`
	Issues    []Issue `json:"issues"`
}

func (r *Report) add(severity Severity, code, path, field, message string) {
	r.Issues = append(r.Issues, Issue{
		Severity: severity,
		Code:     code,
		Path:     path,
		Field:    field,
		Message:  message,
	})
}

// HasErrors reports whether any issue has error severity.
func (r *Report) HasErrors() bool {
	return r.Count(SeverityError) > 0
}

// Count returns the number of issues with severity.
func (r *Report) Count(severity Severity) int {
	if r == nil {
		return 0
	}
	total := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			total++
		}
	}
	return total
}

// ByCode returns the issues carrying code.
func (r *Report) ByCode(code string) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Code == code {
			out = append(out, issue)
		}
	}
	return out
}

func (r *Report) sort() {
	sort.SliceStable(r.Issues, func(i, j int) bool {
		a, b := r.Issues[i], r.Issues[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Field < b.Field
	})
}
