package site

import (
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-homepage/pkg/interfaces"
)

func doc(path, collection, permalink string, modified time.Time, redirects ...string) *interfaces.Document {
	return &interfaces.Document{
		FilePath:     path,
		Collection:   collection,
		LastModified: modified,
		FrontMatter: interfaces.FrontMatter{
			Permalink:    permalink,
			RedirectFrom: redirects,
		},
	}
}

func aboutDrafts() []*interfaces.Document {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []*interfaces.Document{
		doc("_pages/about.md", "pages", "/", base, "/about/", "/about.html"),
		doc("_pages/about-2.md", "pages", "/", base.Add(2*time.Hour), "/about/", "/about.html"),
		doc("_pages/about-1.md", "pages", "/", base.Add(time.Hour), "/about/", "/about.html"),
		doc("_pages/cv.md", "pages", "/cv/", base),
	}
}

func TestResolve_DuplicateErrorPolicy(t *testing.T) {
	site, err := Resolve(aboutDrafts(), Options{})
	if !errors.Is(err, ErrDuplicatePermalink) {
		t.Fatalf("expected ErrDuplicatePermalink, got %v", err)
	}

	var dupErr *DuplicatePermalinkError
	if !errors.As(err, &dupErr) {
		t.Fatalf("expected DuplicatePermalinkError, got %T", err)
	}
	if dupErr.Permalink != "/" || len(dupErr.Paths) != 3 {
		t.Fatalf("unexpected duplicate error %+v", dupErr)
	}
	if dupErr.Paths[0] != "_pages/about-1.md" || dupErr.Paths[2] != "_pages/about.md" {
		t.Fatalf("expected sorted paths, got %v", dupErr.Paths)
	}

	if site == nil || len(site.Pages) != 2 {
		t.Fatalf("expected site to stay usable, got %+v", site)
	}
	if len(site.Shadowed) != 0 {
		t.Fatalf("error policy should not shadow, got %d", len(site.Shadowed))
	}
	if len(site.Duplicates) != 1 || site.Duplicates[0].Winner != "" {
		t.Fatalf("unexpected duplicates %+v", site.Duplicates)
	}
}

func TestResolve_NewestPolicy(t *testing.T) {
	site, err := Resolve(aboutDrafts(), Options{Policy: PolicyNewest})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	page, ok := site.Lookup("/")
	if !ok {
		t.Fatal("expected root page")
	}
	if page.Document.FilePath != "_pages/about-2.md" {
		t.Fatalf("expected newest draft to win, got %s", page.Document.FilePath)
	}
	if len(site.Shadowed) != 2 {
		t.Fatalf("expected two shadowed drafts, got %d", len(site.Shadowed))
	}
	for _, shadowed := range site.Shadowed {
		if shadowed.Winner != "_pages/about-2.md" {
			t.Fatalf("unexpected winner %s", shadowed.Winner)
		}
	}
}

func TestResolve_FirstPolicy(t *testing.T) {
	site, err := Resolve(aboutDrafts(), Options{Policy: PolicyFirst})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	page, _ := site.Lookup("/")
	if page.Document.FilePath != "_pages/about-1.md" {
		t.Fatalf("expected first path to win, got %s", page.Document.FilePath)
	}
}

func TestResolve_RedirectTable(t *testing.T) {
	site, err := Resolve(aboutDrafts(), Options{Policy: PolicyNewest})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(site.Redirects) != 2 {
		t.Fatalf("expected 2 redirects, got %+v", site.Redirects)
	}
	redirect, ok := site.LookupRedirect("/about.html")
	if !ok || redirect.To != "/" {
		t.Fatalf("unexpected redirect %+v", redirect)
	}
	if !site.Routes("/about") {
		t.Fatal("expected /about to resolve through the /about/ redirect")
	}
	if !site.Routes("/cv/index.html") {
		t.Fatal("expected index.html variant to resolve")
	}
	if site.Routes("/missing/") {
		t.Fatal("expected unknown route to fail")
	}
}

func TestResolve_RedirectCollidesWithPermalink(t *testing.T) {
	base := time.Now()
	docs := []*interfaces.Document{
		doc("_pages/about.md", "pages", "/", base, "/cv/"),
		doc("_pages/cv.md", "pages", "/cv/", base),
	}
	_, err := Resolve(docs, Options{})

	var conflict *RedirectConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected RedirectConflictError, got %v", err)
	}
	if conflict.Redirect || conflict.Owner != "_pages/cv.md" {
		t.Fatalf("unexpected conflict %+v", conflict)
	}
}

func TestResolve_RedirectCollidesWithRedirect(t *testing.T) {
	base := time.Now()
	docs := []*interfaces.Document{
		doc("_pages/a.md", "pages", "/a/", base, "/old/"),
		doc("_pages/b.md", "pages", "/b/", base, "old/"),
	}
	_, err := Resolve(docs, Options{})
	if !errors.Is(err, ErrRedirectConflict) {
		t.Fatalf("expected ErrRedirectConflict, got %v", err)
	}
	var conflict *RedirectConflictError
	errors.As(err, &conflict)
	if !conflict.Redirect || conflict.Source != "_pages/b.md" {
		t.Fatalf("unexpected conflict %+v", conflict)
	}
}

func TestResolve_UnpublishedAndCollections(t *testing.T) {
	unpublished := false
	hidden := doc("_posts/2020-01-01-hidden.md", "posts", "/posts/hidden/", time.Now())
	hidden.FrontMatter.Published = &unpublished

	older := doc("_posts/2012-08-14-a.md", "posts", "/posts/a/", time.Now())
	older.FrontMatter.Date = time.Date(2012, 8, 14, 0, 0, 0, 0, time.UTC)
	newer := doc("_posts/2015-08-14-b.md", "posts", "/posts/b/", time.Now())
	newer.FrontMatter.Date = time.Date(2015, 8, 14, 0, 0, 0, 0, time.UTC)

	site, err := Resolve([]*interfaces.Document{older, hidden, newer}, Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(site.Unpublished) != 1 || site.Routes("/posts/hidden/") {
		t.Fatal("expected unpublished post to be excluded")
	}
	posts := site.Posts()
	if len(posts) != 2 || posts[0] != newer {
		t.Fatalf("expected newest post first, got %+v", posts)
	}
	if names := site.CollectionNames(); len(names) != 1 || names[0] != "posts" {
		t.Fatalf("unexpected collections %v", names)
	}
}

func TestResolve_NormalizesPermalinks(t *testing.T) {
	docs := []*interfaces.Document{
		doc("_pages/a.md", "pages", "teaching//", time.Now()),
		doc("_pages/b.md", "pages", "/teaching/", time.Now()),
	}
	_, err := Resolve(docs, Options{})
	if !errors.Is(err, ErrDuplicatePermalink) {
		t.Fatalf("expected normalized permalinks to collide, got %v", err)
	}
}

func TestParsePolicy(t *testing.T) {
	for input, want := range map[string]Policy{"": PolicyError, "Newest": PolicyNewest, "first": PolicyFirst} {
		got, err := ParsePolicy(input)
		if err != nil || got != want {
			t.Fatalf("ParsePolicy(%q) = %q, %v", input, got, err)
		}
	}
	if _, err := ParsePolicy("random"); !errors.Is(err, ErrUnknownPolicy) {
		t.Fatalf("expected ErrUnknownPolicy, got %v", err)
	}
}

func TestResolve_EquivalentRoutesCollide(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name  string
		left  string
		right string
	}{
		{"trailing slash", "/about", "/about/"},
		{"explicit index", "/about/", "/about/index.html"},
		{"bare and index", "/about", "/about/index.html"},
		{"root index", "/", "/index.html"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			docs := []*interfaces.Document{
				doc("_pages/a.md", "pages", tc.left, base),
				doc("_pages/b.md", "pages", tc.right, base.Add(time.Hour)),
			}
			site, err := Resolve(docs, Options{})
			if !errors.Is(err, ErrDuplicatePermalink) {
				t.Fatalf("expected ErrDuplicatePermalink, got %v", err)
			}
			if len(site.Pages) != 1 || len(site.Duplicates) != 1 || len(site.Duplicates[0].Paths) != 2 {
				t.Fatalf("expected one page and one duplicate group, got pages=%d duplicates=%+v", len(site.Pages), site.Duplicates)
			}

			site, err = Resolve(docs, Options{Policy: PolicyNewest})
			if err != nil {
				t.Fatalf("Resolve newest: %v", err)
			}
			page, ok := site.Lookup(tc.left)
			if !ok || page.Document.FilePath != "_pages/b.md" {
				t.Fatalf("expected newest document to serve %s, got %+v", tc.left, page)
			}
			if len(site.Shadowed) != 1 || site.Shadowed[0].Document.FilePath != "_pages/a.md" {
				t.Fatalf("expected older document to be shadowed, got %+v", site.Shadowed)
			}
		})
	}
}

func TestResolve_DistinctFilesDoNotCollide(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	docs := []*interfaces.Document{
		doc("_pages/about.md", "pages", "/about/", base),
		doc("_pages/about-html.md", "pages", "/about.html", base),
	}
	site, err := Resolve(docs, Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(site.Pages) != 2 {
		t.Fatalf("expected two pages, got %d", len(site.Pages))
	}
}

func TestResolve_RedirectToEquivalentRouteConflicts(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	docs := []*interfaces.Document{
		doc("_pages/cv.md", "pages", "/cv/", base),
		doc("_pages/about.md", "pages", "/", base, "/cv"),
	}
	_, err := Resolve(docs, Options{})
	var conflict *RedirectConflictError
	if !errors.As(err, &conflict) || conflict.Owner != "_pages/cv.md" {
		t.Fatalf("expected redirect conflict with /cv/, got %v", err)
	}
}
