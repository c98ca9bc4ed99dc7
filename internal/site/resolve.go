package site

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-homepage/internal/markdown"
	"github.com/goliatone/go-homepage/pkg/interfaces"
)

// Policy decides which document wins when several share a permalink.
type Policy string

const (
	// PolicyError fails resolution and reports every claimant.
	PolicyError Policy = "error"
	// PolicyNewest keeps the most recently modified document.
	PolicyNewest Policy = "newest"
	// PolicyFirst keeps the lexicographically first path.
	PolicyFirst Policy = "first"
)

// ParsePolicy converts a configuration value into a Policy. Empty input maps
// to PolicyError.
func ParsePolicy(value string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(value))) {
	case "", PolicyError:
		return PolicyError, nil
	case PolicyNewest:
		return PolicyNewest, nil
	case PolicyFirst:
		return PolicyFirst, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, value)
	}
}

// Options tune site resolution.
type Options struct {
	Policy Policy
	// IncludeUnpublished routes documents marked published: false.
	IncludeUnpublished bool
}

// Page is a routed document.
type Page struct {
	Permalink string
	Document  *interfaces.Document
}

// Redirect maps a legacy path to the permalink that replaced it.
type Redirect struct {
	From   string
	To     string
	Source string
}

// Duplicate groups the documents that claimed one permalink.
type Duplicate struct {
	Permalink string
	Paths     []string
	// Winner is the path kept by the policy; empty under PolicyError.
	Winner string
}

// Shadowed is a document hidden by a duplicate policy.
type Shadowed struct {
	Permalink string
	Document  *interfaces.Document
	Winner    string
}

// Site is the resolved routing table of a corpus.
type Site struct {
	Pages       []*Page
	Redirects   []Redirect
	Duplicates  []Duplicate
	Shadowed    []Shadowed
	Unpublished []*interfaces.Document
	Collections map[string][]*interfaces.Document

	byPermalink map[string]*Page
	redirects   map[string]Redirect
}

// Resolve builds the permalink and redirect tables for docs. The returned Site
// is populated even when an error is returned so callers can keep checking
// the rest of the corpus; the error joins every DuplicatePermalinkError and
// RedirectConflictError found.
func Resolve(docs []*interfaces.Document, opts Options) (*Site, error) {
	policy := opts.Policy
	if policy == "" {
		policy = PolicyError
	}

	site := &Site{
		Collections: map[string][]*interfaces.Document{},
		byPermalink: map[string]*Page{},
		redirects:   map[string]Redirect{},
	}

	groups := map[string][]*interfaces.Document{}
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		if !doc.Published() && !opts.IncludeUnpublished {
			site.Unpublished = append(site.Unpublished, doc)
			continue
		}
		key := markdown.RouteKey(doc.Permalink())
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], doc)
	}

	var errs []error
	for _, key := range sortedKeys(groups) {
		claimants := groups[key]
		sortClaimants(claimants, policy)
		winner := claimants[0]
		permalink := markdown.NormalizePermalink(winner.Permalink())

		if len(claimants) > 1 {
			paths := make([]string, 0, len(claimants))
			for _, doc := range claimants {
				paths = append(paths, doc.FilePath)
			}
			sort.Strings(paths)

			dup := Duplicate{Permalink: key, Paths: paths}
			if policy == PolicyError {
				errs = append(errs, &DuplicatePermalinkError{Permalink: key, Paths: paths})
			} else {
				dup.Winner = winner.FilePath
				for _, doc := range claimants[1:] {
					site.Shadowed = append(site.Shadowed, Shadowed{
						Permalink: markdown.NormalizePermalink(doc.Permalink()),
						Document:  doc,
						Winner:    winner.FilePath,
					})
				}
			}
			site.Duplicates = append(site.Duplicates, dup)
		}

		page := &Page{Permalink: permalink, Document: winner}
		site.Pages = append(site.Pages, page)
		site.byPermalink[key] = page
		site.Collections[winner.Collection] = append(site.Collections[winner.Collection], winner)
	}

	errs = append(errs, site.collectRedirects()...)

	for name, members := range site.Collections {
		sortCollection(name, members)
	}

	return site, errors.Join(errs...)
}

func (s *Site) collectRedirects() []error {
	var errs []error
	for _, page := range s.Pages {
		for _, raw := range page.Document.FrontMatter.RedirectFrom {
			from := markdown.NormalizePermalink(raw)
			key := markdown.RouteKey(from)
			if key == "" || key == markdown.RouteKey(page.Permalink) {
				continue
			}
			if owner, ok := s.byPermalink[key]; ok {
				errs = append(errs, &RedirectConflictError{
					From:   from,
					Source: page.Document.FilePath,
					Owner:  owner.Document.FilePath,
				})
				continue
			}
			if existing, ok := s.redirects[key]; ok {
				if existing.To != page.Permalink {
					errs = append(errs, &RedirectConflictError{
						From:     from,
						Source:   page.Document.FilePath,
						Owner:    existing.Source,
						Redirect: true,
					})
				}
				continue
			}
			redirect := Redirect{From: from, To: page.Permalink, Source: page.Document.FilePath}
			s.redirects[key] = redirect
			s.Redirects = append(s.Redirects, redirect)
		}
	}
	sort.Slice(s.Redirects, func(i, j int) bool {
		return s.Redirects[i].From < s.Redirects[j].From
	})
	return errs
}

// Lookup returns the page routed at permalink.
func (s *Site) Lookup(permalink string) (*Page, bool) {
	if s == nil {
		return nil, false
	}
	page, ok := s.byPermalink[markdown.RouteKey(permalink)]
	return page, ok
}

// LookupRedirect returns the redirect declared for from.
func (s *Site) LookupRedirect(from string) (Redirect, bool) {
	if s == nil {
		return Redirect{}, false
	}
	redirect, ok := s.redirects[markdown.RouteKey(from)]
	return redirect, ok
}

// Routes reports whether target resolves to a page or a redirect. A trailing
// slash, its absence and an explicit index.html are treated as equivalent.
func (s *Site) Routes(target string) bool {
	if _, ok := s.Lookup(target); ok {
		return true
	}
	_, ok := s.LookupRedirect(target)
	return ok
}

// CollectionNames returns the names of non-empty collections in order.
func (s *Site) CollectionNames() []string {
	return sortedKeys(s.Collections)
}

// Posts returns the posts collection, newest first.
func (s *Site) Posts() []*interfaces.Document {
	return s.Collections[markdown.PostsCollection]
}

func sortClaimants(docs []*interfaces.Document, policy Policy) {
	sort.SliceStable(docs, func(i, j int) bool {
		if policy == PolicyNewest && !docs[i].LastModified.Equal(docs[j].LastModified) {
			return docs[i].LastModified.After(docs[j].LastModified)
		}
		return docs[i].FilePath < docs[j].FilePath
	})
}

func sortCollection(name string, docs []*interfaces.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if name == markdown.PostsCollection {
			di, dj := docs[i].FrontMatter.Date, docs[j].FrontMatter.Date
			if !di.Equal(dj) {
				return di.After(dj)
			}
		}
		return docs[i].FilePath < docs[j].FilePath
	})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
