package validation

import (
	"errors"
	"path"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-homepage/pkg/interfaces"
)

var (
	errLeadingSlash = validation.NewError("homepage.path.leading_slash", "must start with /")
	errNotBoolean   = validation.NewError("homepage.value.boolean", "must be true or false")
	errNotDate      = validation.NewError("homepage.value.date", "must be a date such as 2012-08-14")
	errNotList      = validation.NewError("homepage.value.list", "must be a string or a list of strings")
)

// checkFields applies the per-document field rules. Errors and warnings are
// returned as separate ozzo error maps.
func checkFields(doc *interfaces.Document) (validation.Errors, validation.Errors) {
	fm := doc.FrontMatter
	raw := fm.Raw

	errs := validation.Errors{
		"title": validation.Validate(strings.TrimSpace(fm.Title),
			validation.Required.ErrorObject(validation.NewError("homepage.title.required", "title is required")),
		),
		"permalink": validation.Validate(fm.Permalink, validation.By(leadingSlash)),
		"redirect_from": validation.Validate(raw["redirect_from"],
			validation.By(stringOrList),
		),
		"date": validation.Validate(fm, validation.By(dateParses)),
		"author_profile": validation.Validate(raw["author_profile"],
			validation.By(boolean),
		),
		"published": validation.Validate(raw["published"], validation.By(boolean)),
	}
	if err := validation.Validate(fm.RedirectFrom, validation.Each(validation.By(leadingSlash))); err != nil && errs["redirect_from"] == nil {
		errs["redirect_from"] = err
	}

	warnings := validation.Errors{
		"permalink": validation.Validate(fm.Permalink, validation.By(slugSegments)),
	}
	return filterErrors(errs), filterErrors(warnings)
}

func filterErrors(errs validation.Errors) validation.Errors {
	if filtered := errs.Filter(); filtered != nil {
		return filtered.(validation.Errors)
	}
	return nil
}

func leadingSlash(value any) error {
	s, _ := value.(string)
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "/") {
		return nil
	}
	return errLeadingSlash
}

func boolean(value any) error {
	switch value.(type) {
	case nil, bool:
		return nil
	default:
		return errNotBoolean
	}
}

func stringOrList(value any) error {
	switch typed := value.(type) {
	case nil, string:
		return nil
	case []any:
		for _, item := range typed {
			if _, ok := item.(string); !ok {
				return errNotList
			}
		}
		return nil
	default:
		return errNotList
	}
}

func dateParses(value any) error {
	fm, _ := value.(interfaces.FrontMatter)
	if fm.DateText != "" && fm.Date.IsZero() {
		return errNotDate
	}
	return nil
}

func slugSegments(value any) error {
	s, _ := value.(string)
	var bad []string
	for _, segment := range strings.Split(strings.Trim(s, "/"), "/") {
		if segment == "" {
			continue
		}
		stem := strings.TrimSuffix(segment, path.Ext(segment))
		if !slug.IsValid(stem) {
			bad = append(bad, segment)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	return validation.NewError("homepage.permalink.segment", "segments are not URL slugs: "+strings.Join(bad, ", "))
}

// appendFieldIssues flattens ozzo errors into report issues in field order.
func appendFieldIssues(report *Report, severity Severity, code, filePath string, errs validation.Errors) {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		report.add(severity, code, filePath, field, fieldMessage(errs[field]))
	}
}

func fieldMessage(err error) string {
	var nested validation.Errors
	if errors.As(err, &nested) {
		return nested.Error()
	}
	return err.Error()
}
