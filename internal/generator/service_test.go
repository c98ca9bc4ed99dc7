package generator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goliatone/go-homepage/internal/markdown"
	"github.com/goliatone/go-homepage/internal/site"
)

const aboutPage = `---
permalink: /
title: "About me"
excerpt: "About me"
author_profile: true
redirect_from:
  - /about/
  - /about.html
---

I am a mathematician.
`

const cvPage = `---
title: "CV"
permalink: /cv/
---

Education and employment.
`

const archivePage = `---
title: "Blog posts"
permalink: /year-archive/
layout: archive
collection: posts
---
`

const firstPost = `---
title: 'Blog Post number 1'
date: 2012-08-14
permalink: /posts/2012/08/blog-post-1/
tags:
  - cool posts
  - category1
---

This is a sample blog post.
`

var buildTime = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func siteFS() fstest.MapFS {
	modified := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return fstest.MapFS{
		"_pages/about.md":                  {Data: []byte(aboutPage), ModTime: modified},
		"_pages/cv.md":                     {Data: []byte(cvPage), ModTime: modified},
		"_pages/year-archive.md":           {Data: []byte(archivePage), ModTime: modified},
		"_posts/2012-08-14-blog-post-1.md": {Data: []byte(firstPost), ModTime: modified},
		"assets/css/main.css":              {Data: []byte("body{margin:0}"), ModTime: modified},
		"images/profile.png":               {Data: []byte{0x89, 0x50, 0x4e, 0x47}, ModTime: modified},
		"assets/.DS_Store":                 {Data: []byte("x"), ModTime: modified},
	}
}

func defaultConfig() Config {
	return Config{
		BaseURL:         "https://example.org",
		Title:           "Jane Doe",
		Author:          "Jane Doe",
		Incremental:     true,
		GenerateSitemap: true,
		GenerateRobots:  true,
		GenerateFeeds:   true,
		StaticDirs:      []string{"assets", "images", "files"},
		Workers:         2,
		DuplicatePolicy: site.PolicyError,
	}
}

func newTestService(t *testing.T, fsys fstest.MapFS, cfg Config, writer ArtifactWriter) *service {
	t.Helper()
	renderer, err := NewTemplateRenderer("")
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	svc := NewService(cfg, Dependencies{
		Source:   markdown.NewServiceFS(fsys, markdown.Config{Recursive: true}, nil),
		Renderer: renderer,
		Writer:   writer,
		Static:   fsys,
	}).(*service)
	svc.now = func() time.Time { return buildTime }
	return svc
}

func readOutput(t *testing.T, writer *MemoryWriter, name string) string {
	t.Helper()
	data, err := writer.ReadFile(context.Background(), name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}

func TestBuildWritesSite(t *testing.T) {
	writer := NewMemoryWriter()
	svc := newTestService(t, siteFS(), defaultConfig(), writer)

	result, err := svc.Build(context.Background(), BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result.PagesBuilt != 4 || result.PagesSkipped != 0 {
		t.Fatalf("expected 4 pages built, got built=%d skipped=%d", result.PagesBuilt, result.PagesSkipped)
	}
	if result.RedirectsBuilt != 2 {
		t.Fatalf("expected 2 redirects, got %d", result.RedirectsBuilt)
	}
	if result.AssetsBuilt != 2 {
		t.Fatalf("expected 2 assets, got %d", result.AssetsBuilt)
	}
	if result.FeedsBuilt != 2 {
		t.Fatalf("expected 2 feeds, got %d", result.FeedsBuilt)
	}

	want := []string{
		".homepage-manifest.json",
		"about.html",
		"about/index.html",
		"assets/css/main.css",
		"cv/index.html",
		"feed.atom.xml",
		"feed.xml",
		"images/profile.png",
		"index.html",
		"posts/2012/08/blog-post-1/index.html",
		"robots.txt",
		"sitemap.xml",
		"year-archive/index.html",
	}
	got := writer.Files()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected outputs:\n got %v\nwant %v", got, want)
	}

	index := readOutput(t, writer, "index.html")
	for _, fragment := range []string{
		"<title>About me - Jane Doe</title>",
		"<p>I am a mathematician.</p>",
		`class="author-profile"`,
		`<link rel="canonical" href="https://example.org/">`,
	} {
		if !strings.Contains(index, fragment) {
			t.Fatalf("index.html missing %q:\n%s", fragment, index)
		}
	}

	redirect := readOutput(t, writer, "about/index.html")
	if !strings.Contains(redirect, `http-equiv="refresh"`) || !strings.Contains(redirect, `href="https://example.org/"`) {
		t.Fatalf("unexpected redirect stub:\n%s", redirect)
	}

	post := readOutput(t, writer, "posts/2012/08/blog-post-1/index.html")
	if !strings.Contains(post, "August 14, 2012") || !strings.Contains(post, "<li>cool posts</li>") {
		t.Fatalf("post missing date or tags:\n%s", post)
	}

	archive := readOutput(t, writer, "year-archive/index.html")
	if !strings.Contains(archive, `<a href="/posts/2012/08/blog-post-1/">Blog Post number 1</a>`) {
		t.Fatalf("archive does not list posts:\n%s", archive)
	}
	if !strings.Contains(archive, "<h2>Posts</h2>") {
		t.Fatalf("archive heading not title cased:\n%s", archive)
	}

	sitemap := readOutput(t, writer, "sitemap.xml")
	if !strings.Contains(sitemap, "<loc>https://example.org/cv/</loc>") {
		t.Fatalf("sitemap missing cv:\n%s", sitemap)
	}
	if strings.Contains(sitemap, "about.html") {
		t.Fatalf("sitemap must not list redirects:\n%s", sitemap)
	}
	if robots := readOutput(t, writer, "robots.txt"); !strings.Contains(robots, "Sitemap: https://example.org/sitemap.xml") {
		t.Fatalf("robots missing sitemap: %s", robots)
	}
	rss := readOutput(t, writer, "feed.xml")
	if !strings.Contains(rss, "<link>https://example.org/posts/2012/08/blog-post-1/</link>") {
		t.Fatalf("rss missing post link:\n%s", rss)
	}
	if strings.Contains(rss, "About me") {
		t.Fatalf("rss must only list posts:\n%s", rss)
	}
}

func TestBuildIncrementalSkipsUnchangedPages(t *testing.T) {
	fsys := siteFS()
	writer := NewMemoryWriter()
	svc := newTestService(t, fsys, defaultConfig(), writer)
	ctx := context.Background()

	if _, err := svc.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("first build: %v", err)
	}

	second, err := svc.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if second.PagesBuilt != 0 || second.PagesSkipped != 4 {
		t.Fatalf("expected every page skipped, got built=%d skipped=%d", second.PagesBuilt, second.PagesSkipped)
	}
	if second.AssetsSkipped != 2 || second.AssetsBuilt != 0 {
		t.Fatalf("expected assets skipped, got built=%d skipped=%d", second.AssetsBuilt, second.AssetsSkipped)
	}

	fsys["_pages/cv.md"] = &fstest.MapFile{Data: []byte(strings.Replace(cvPage, "Education", "Teaching", 1)), ModTime: buildTime}
	third, err := svc.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("third build: %v", err)
	}
	if third.PagesBuilt != 1 || third.PagesSkipped != 3 {
		t.Fatalf("expected only cv rebuilt, got built=%d skipped=%d", third.PagesBuilt, third.PagesSkipped)
	}
	if cv := readOutput(t, writer, "cv/index.html"); !strings.Contains(cv, "Teaching and employment.") {
		t.Fatalf("cv not rewritten:\n%s", cv)
	}

	forced, err := svc.Build(ctx, BuildOptions{Force: true})
	if err != nil {
		t.Fatalf("forced build: %v", err)
	}
	if forced.PagesBuilt != 4 || forced.AssetsBuilt != 2 {
		t.Fatalf("force must rebuild everything, got pages=%d assets=%d", forced.PagesBuilt, forced.AssetsBuilt)
	}
}

func TestBuildArchiveRebuiltWhenCollectionChanges(t *testing.T) {
	fsys := siteFS()
	writer := NewMemoryWriter()
	svc := newTestService(t, fsys, defaultConfig(), writer)
	ctx := context.Background()

	if _, err := svc.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("first build: %v", err)
	}
	fsys["_posts/2013-01-02-second.md"] = &fstest.MapFile{Data: []byte("---\ntitle: Second\n---\nMore.\n"), ModTime: buildTime}

	result, err := svc.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if result.PagesBuilt != 2 {
		t.Fatalf("expected new post and archive rebuilt, got %d", result.PagesBuilt)
	}
	archive := readOutput(t, writer, "year-archive/index.html")
	if !strings.Contains(archive, `<a href="/posts/2013/01/second/">Second</a>`) {
		t.Fatalf("archive missing new post:\n%s", archive)
	}
}

func TestBuildDryRunWritesNothing(t *testing.T) {
	writer := NewMemoryWriter()
	svc := newTestService(t, siteFS(), defaultConfig(), writer)

	result, err := svc.Build(context.Background(), BuildOptions{DryRun: true})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if files := writer.Files(); len(files) != 0 {
		t.Fatalf("dry run wrote %v", files)
	}
	if !result.DryRun || result.PagesBuilt != 4 || result.RedirectsBuilt != 2 {
		t.Fatalf("unexpected dry run result: %+v", result)
	}
	joined := strings.Join(result.Outputs, ",")
	for _, expected := range []string{"index.html", "about.html", "feed.xml", "assets/css/main.css", "sitemap.xml"} {
		if !strings.Contains(joined, expected) {
			t.Fatalf("outputs missing %s: %v", expected, result.Outputs)
		}
	}
}

func TestBuildFailsOnLoadFailures(t *testing.T) {
	fsys := siteFS()
	fsys["_pages/broken.md"] = &fstest.MapFile{Data: []byte("---\ntitle: [unclosed\n---\n")}
	svc := newTestService(t, fsys, defaultConfig(), NewMemoryWriter())

	_, err := svc.Build(context.Background(), BuildOptions{})
	if !errors.Is(err, ErrLoadFailures) {
		t.Fatalf("expected ErrLoadFailures, got %v", err)
	}
}

func TestBuildDuplicatePolicies(t *testing.T) {
	fsys := siteFS()
	fsys["_pages/about-2.md"] = &fstest.MapFile{Data: []byte(strings.Replace(aboutPage, "mathematician", "physicist", 1)), ModTime: buildTime}

	_, err := newTestService(t, fsys, defaultConfig(), NewMemoryWriter()).Build(context.Background(), BuildOptions{})
	if !errors.Is(err, site.ErrDuplicatePermalink) {
		t.Fatalf("expected duplicate permalink error, got %v", err)
	}

	cfg := defaultConfig()
	cfg.DuplicatePolicy = site.PolicyNewest
	writer := NewMemoryWriter()
	result, err := newTestService(t, fsys, cfg, writer).Build(context.Background(), BuildOptions{})
	if err != nil {
		t.Fatalf("newest policy build: %v", err)
	}
	if len(result.Shadowed) != 1 || result.Shadowed[0] != "_pages/about.md" {
		t.Fatalf("expected about.md shadowed, got %v", result.Shadowed)
	}
	if index := readOutput(t, writer, "index.html"); !strings.Contains(index, "physicist") {
		t.Fatalf("newest draft should win:\n%s", index)
	}
}

func TestBuildSkipsUnpublishedAndTakenRedirects(t *testing.T) {
	fsys := siteFS()
	fsys["_pages/hidden.md"] = &fstest.MapFile{Data: []byte("---\ntitle: Hidden\npermalink: /hidden/\npublished: false\n---\n")}
	fsys["_pages/talks.md"] = &fstest.MapFile{Data: []byte("---\ntitle: Talks\npermalink: /talks/\nredirect_from: /cv\n---\n")}
	writer := NewMemoryWriter()

	result, err := newTestService(t, fsys, defaultConfig(), writer).Build(context.Background(), BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(result.Unpublished) != 1 || result.Unpublished[0] != "_pages/hidden.md" {
		t.Fatalf("expected hidden.md unpublished, got %v", result.Unpublished)
	}
	if _, err := writer.ReadFile(context.Background(), "hidden/index.html"); err == nil {
		t.Fatalf("unpublished page must not be written")
	}
	if result.RedirectsBuilt != 2 {
		t.Fatalf("redirect onto an existing page must be skipped, got %d", result.RedirectsBuilt)
	}
	if cv := readOutput(t, writer, "cv/index.html"); strings.Contains(cv, "Redirecting") {
		t.Fatalf("cv page overwritten by redirect stub")
	}
}

func TestBuildLayoutOverrides(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "default.html"), []byte(`{{define "default"}}custom {{.Page.Title}}{{end}}`), 0o644); err != nil {
		t.Fatalf("write layout: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "talk.tmpl"), []byte(`{{define "talk"}}talk {{.Page.Title}}{{end}}`), 0o644); err != nil {
		t.Fatalf("write layout: %v", err)
	}
	renderer, err := NewTemplateRenderer(dir)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	fsys := fstest.MapFS{
		"_pages/about.md": {Data: []byte("---\ntitle: About\npermalink: /\n---\n")},
		"_talks/intro.md": {Data: []byte("---\ntitle: Intro\nlayout: talk\n---\n")},
		"_talks/other.md": {Data: []byte("---\ntitle: Other\nlayout: missing\n---\n")},
	}
	writer := NewMemoryWriter()
	svc := NewService(Config{Workers: 1}, Dependencies{
		Source:   markdown.NewServiceFS(fsys, markdown.Config{Recursive: true}, nil),
		Renderer: renderer,
		Writer:   writer,
	})
	if _, err := svc.Build(context.Background(), BuildOptions{}); err != nil {
		t.Fatalf("build: %v", err)
	}

	if got := readOutput(t, writer, "index.html"); got != "custom About" {
		t.Fatalf("expected overridden default layout, got %q", got)
	}
	if got := readOutput(t, writer, "talks/intro/index.html"); got != "talk Intro" {
		t.Fatalf("expected talk layout, got %q", got)
	}
	if got := readOutput(t, writer, "talks/other/index.html"); !strings.Contains(got, `<article class="talks">`) {
		t.Fatalf("unknown layout should fall back to single:\n%s", got)
	}
}

func TestBuildWithFSWriter(t *testing.T) {
	out := t.TempDir()
	cfg := defaultConfig()
	cfg.CleanBuild = true
	svc := newTestService(t, siteFS(), cfg, NewFSWriter(out))

	stale := filepath.Join(out, "stale.html")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatalf("write stale: %v", err)
	}
	if _, err := svc.Build(context.Background(), BuildOptions{}); err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("clean build must remove stale files, stat err=%v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "posts", "2012", "08", "blog-post-1", "index.html")); err != nil {
		t.Fatalf("post not written: %v", err)
	}

	if err := svc.Clean(context.Background()); err != nil {
		t.Fatalf("clean: %v", err)
	}
	entries, err := os.ReadDir(out)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("clean left %d entries", len(entries))
	}
}

func TestBuildRequiresRenderer(t *testing.T) {
	svc := NewService(Config{}, Dependencies{})
	if _, err := svc.Build(context.Background(), BuildOptions{}); !errors.Is(err, errRendererRequired) {
		t.Fatalf("expected renderer error, got %v", err)
	}
}

func TestDisabledService(t *testing.T) {
	svc := NewDisabledService()
	if _, err := svc.Build(context.Background(), BuildOptions{}); !errors.Is(err, ErrServiceDisabled) {
		t.Fatalf("expected ErrServiceDisabled, got %v", err)
	}
	if err := svc.Clean(context.Background()); !errors.Is(err, ErrServiceDisabled) {
		t.Fatalf("expected ErrServiceDisabled, got %v", err)
	}
}

func TestBuildIncrementalRebuildsWhenSiteMetadataChanges(t *testing.T) {
	writer := NewMemoryWriter()
	svc := newTestService(t, siteFS(), defaultConfig(), writer)
	ctx := context.Background()

	if _, err := svc.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("first build: %v", err)
	}

	svc.cfg.Title = "Dr. Jane Doe"
	svc.cfg.BaseURL = "https://jane.example.org"
	result, err := svc.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if result.PagesBuilt != 4 || result.PagesSkipped != 0 {
		t.Fatalf("expected every page rebuilt, got built=%d skipped=%d", result.PagesBuilt, result.PagesSkipped)
	}
	cv := readOutput(t, writer, "cv/index.html")
	if !strings.Contains(cv, "CV - Dr. Jane Doe") {
		t.Fatalf("cv missing new title:\n%s", cv)
	}
	if !strings.Contains(cv, `href="https://jane.example.org/cv/"`) {
		t.Fatalf("cv missing new base url:\n%s", cv)
	}

	again, err := svc.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("third build: %v", err)
	}
	if again.PagesBuilt != 0 || again.PagesSkipped != 4 {
		t.Fatalf("expected pages skipped once settled, got built=%d skipped=%d", again.PagesBuilt, again.PagesSkipped)
	}
}

func TestBuildIncrementalRebuildsWhenLayoutChanges(t *testing.T) {
	dir := t.TempDir()
	layout := filepath.Join(dir, "default.html")
	if err := os.WriteFile(layout, []byte(`{{define "default"}}v1 {{.Page.Title}}{{end}}`), 0o644); err != nil {
		t.Fatalf("write layout: %v", err)
	}
	fsys := fstest.MapFS{
		"_pages/about.md": {Data: []byte("---\ntitle: About\npermalink: /\n---\n")},
	}
	writer := NewMemoryWriter()
	build := func() *BuildResult {
		t.Helper()
		renderer, err := NewTemplateRenderer(dir)
		if err != nil {
			t.Fatalf("new renderer: %v", err)
		}
		svc := NewService(Config{Workers: 1, Incremental: true}, Dependencies{
			Source:   markdown.NewServiceFS(fsys, markdown.Config{Recursive: true}, nil),
			Renderer: renderer,
			Writer:   writer,
		})
		result, err := svc.Build(context.Background(), BuildOptions{})
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		return result
	}

	build()
	if unchanged := build(); unchanged.PagesSkipped != 1 {
		t.Fatalf("expected unchanged layout to skip, got built=%d skipped=%d", unchanged.PagesBuilt, unchanged.PagesSkipped)
	}

	if err := os.WriteFile(layout, []byte(`{{define "default"}}v2 {{.Page.Title}}{{end}}`), 0o644); err != nil {
		t.Fatalf("rewrite layout: %v", err)
	}
	changed := build()
	if changed.PagesBuilt != 1 {
		t.Fatalf("expected page rebuilt after layout edit, got built=%d skipped=%d", changed.PagesBuilt, changed.PagesSkipped)
	}
	if got := readOutput(t, writer, "index.html"); got != "v2 About" {
		t.Fatalf("expected new layout output, got %q", got)
	}
}

func TestBuildIncrementalRemovesDeletedPageOutputs(t *testing.T) {
	fsys := siteFS()
	writer := NewMemoryWriter()
	svc := newTestService(t, fsys, defaultConfig(), writer)
	ctx := context.Background()

	if _, err := svc.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("first build: %v", err)
	}
	readOutput(t, writer, "cv/index.html")

	delete(fsys, "_pages/cv.md")
	result, err := svc.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if result.PagesRemoved != 1 {
		t.Fatalf("expected 1 page removed, got %d", result.PagesRemoved)
	}
	if _, err := writer.ReadFile(ctx, "cv/index.html"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected cv output removed, got %v", err)
	}
	if _, err := writer.ReadFile(ctx, "index.html"); err != nil {
		t.Fatalf("remaining pages must survive: %v", err)
	}
}

func TestBuildIncrementalRemovesMovedPageOutput(t *testing.T) {
	out := t.TempDir()
	fsys := siteFS()
	svc := newTestService(t, fsys, defaultConfig(), NewFSWriter(out))
	ctx := context.Background()

	if _, err := svc.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("first build: %v", err)
	}

	fsys["_pages/cv.md"] = &fstest.MapFile{Data: []byte(strings.Replace(cvPage, "/cv/", "/resume/", 1)), ModTime: buildTime}
	result, err := svc.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if result.PagesRemoved != 1 {
		t.Fatalf("expected old output removed, got %d", result.PagesRemoved)
	}
	if _, err := os.Stat(filepath.Join(out, "cv", "index.html")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected cv/index.html deleted, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "resume", "index.html")); err != nil {
		t.Fatalf("expected resume page written: %v", err)
	}
}
