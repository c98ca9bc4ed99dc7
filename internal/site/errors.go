package site

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicatePermalink reports two or more documents rendering to one permalink.
	ErrDuplicatePermalink = errors.New("site: duplicate permalink")
	// ErrRedirectConflict reports a redirect source that is already routed.
	ErrRedirectConflict = errors.New("site: redirect conflict")
	// ErrUnknownPolicy is returned when a duplicate policy name is not recognised.
	ErrUnknownPolicy = errors.New("site: unknown duplicate policy")
)

// DuplicatePermalinkError lists every file that claims Permalink.
type DuplicatePermalinkError struct {
	Permalink string
	Paths     []string
}

func (e *DuplicatePermalinkError) Error() string {
	return fmt.Sprintf("permalink %q is claimed by %d documents (%s)", e.Permalink, len(e.Paths), strings.Join(e.Paths, ", "))
}

func (e *DuplicatePermalinkError) Unwrap() error {
	return ErrDuplicatePermalink
}

// RedirectConflictError surfaces a redirect_from entry that collides with a
// permalink or with a redirect declared by another document.
type RedirectConflictError struct {
	From string
	// Source is the document declaring the redirect.
	Source string
	// Owner is the document already routed at From.
	Owner string
	// Redirect is true when Owner claims From as a redirect rather than a permalink.
	Redirect bool
}

func (e *RedirectConflictError) Error() string {
	kind := "permalink"
	if e.Redirect {
		kind = "redirect"
	}
	return fmt.Sprintf("redirect %q in %s collides with %s of %s", e.From, e.Source, kind, e.Owner)
}

func (e *RedirectConflictError) Unwrap() error {
	return ErrRedirectConflict
}
