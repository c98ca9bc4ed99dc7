package markdown

import (
	"testing"
	"time"

	"github.com/goliatone/go-homepage/pkg/interfaces"
)

func TestCollectionForPath(t *testing.T) {
	cases := map[string]string{
		"_pages/about.md":         "pages",
		"_posts/2012-08-14-a.md":  "posts",
		"_drafts/idea.md":         "posts",
		"_publications/paper.md":  "publications",
		"index.md":                "pages",
		"talks/2020-talk.md":      "pages",
		"./_teaching/course-1.md": "teaching",
	}
	for input, want := range cases {
		if got := CollectionForPath(input); got != want {
			t.Fatalf("CollectionForPath(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSplitPostFilename(t *testing.T) {
	date, slug, ok := SplitPostFilename("_posts/2012-08-14-blog-post-1.md")
	if !ok {
		t.Fatal("expected dated filename to parse")
	}
	if slug != "blog-post-1" || !date.Equal(time.Date(2012, 8, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected split: %v %q", date, slug)
	}
	if _, _, ok := SplitPostFilename("_pages/about.md"); ok {
		t.Fatal("expected undated filename to be rejected")
	}
}

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name string
		doc  *interfaces.Document
		want string
	}{
		{
			name: "page",
			doc:  &interfaces.Document{FilePath: "_pages/cv.md", Collection: "pages"},
			want: "/cv/",
		},
		{
			name: "index page",
			doc:  &interfaces.Document{FilePath: "index.md", Collection: "pages"},
			want: "/",
		},
		{
			name: "post",
			doc:  &interfaces.Document{FilePath: "_posts/2012-08-14-blog-post-1.md", Collection: "posts"},
			want: "/posts/2012/08/blog-post-1/",
		},
		{
			name: "collection item",
			doc:  &interfaces.Document{FilePath: "_teaching/course-1.md", Collection: "teaching"},
			want: "/teaching/course-1/",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ApplyDefaults(tc.doc, nil)
			if got := tc.doc.FrontMatter.DerivedPermalink; got != tc.want {
				t.Fatalf("DerivedPermalink = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	doc := &interfaces.Document{
		FilePath:   "_posts/2012-08-14-blog-post-1.md",
		Collection: "posts",
		FrontMatter: interfaces.FrontMatter{
			Permalink: "/custom/",
			Slug:      "chosen",
		},
	}
	ApplyDefaults(doc, PermalinkPatterns{"posts": "/:category/:slug"})

	if doc.Permalink() != "/custom/" {
		t.Fatalf("expected explicit permalink to win, got %q", doc.Permalink())
	}
	if doc.FrontMatter.DerivedPermalink != "/chosen" {
		t.Fatalf("expected empty category to collapse, got %q", doc.FrontMatter.DerivedPermalink)
	}
}

func TestNormalizePermalink(t *testing.T) {
	cases := map[string]string{
		"":              "",
		"/":             "/",
		"about/":        "/about/",
		"//a//b/":       "/a/b/",
		"/about.html":   "/about.html",
		" /teaching/  ": "/teaching/",
	}
	for input, want := range cases {
		if got := NormalizePermalink(input); got != want {
			t.Fatalf("NormalizePermalink(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestRouteKey(t *testing.T) {
	cases := map[string]string{
		"":                      "",
		"/":                     "/",
		"/index.html":           "/",
		"/about":                "/about/",
		"/about/":               "/about/",
		"about//":               "/about/",
		"/about/index.html":     "/about/",
		"/about.html":           "/about.html",
		"/files/cv.pdf":         "/files/cv.pdf",
		"/posts/2012/08/post-1": "/posts/2012/08/post-1/",
	}
	for input, want := range cases {
		if got := RouteKey(input); got != want {
			t.Fatalf("RouteKey(%q) = %q, want %q", input, got, want)
		}
	}
}
