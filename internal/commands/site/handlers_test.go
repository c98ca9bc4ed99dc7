package sitecmd

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goliatone/go-homepage/internal/commands"
	"github.com/goliatone/go-homepage/internal/commands/fixtures"
	"github.com/goliatone/go-homepage/internal/generator"
	"github.com/goliatone/go-homepage/internal/index"
	"github.com/goliatone/go-homepage/internal/markdown"
	"github.com/goliatone/go-homepage/internal/site"
	sitevalidation "github.com/goliatone/go-homepage/internal/validation"
	goerrors "github.com/goliatone/go-errors"
)

const aboutDraft = `---
permalink: /
title: "About me"
excerpt: "About me"
author_profile: true
redirect_from:
  - /about/
---

Hello.
`

type fixture struct {
	loader    *markdown.Service
	validator *sitevalidation.Validator
	writer    *generator.MemoryWriter
	generator generator.Service
	indexer   *index.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	modified := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	fsys := fstest.MapFS{
		"_pages/about.md":   {Data: []byte(aboutDraft), ModTime: modified},
		"_pages/about-2.md": {Data: []byte(aboutDraft), ModTime: modified.Add(time.Hour)},
		"_posts/2012-08-14-post.md": {
			Data:    []byte("---\ntitle: Post\n---\nText.\n"),
			ModTime: modified,
		},
	}
	loader := markdown.NewServiceFS(fsys, markdown.Config{Recursive: true}, nil)
	validator, err := sitevalidation.New(sitevalidation.Config{Policy: site.PolicyError})
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}
	renderer, err := generator.NewTemplateRenderer("")
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	writer := generator.NewMemoryWriter()
	gen := generator.NewService(generator.Config{Workers: 1, DuplicatePolicy: site.PolicyError}, generator.Dependencies{
		Source:   loader,
		Renderer: renderer,
		Writer:   writer,
	})
	return fixture{
		loader:    loader,
		validator: validator,
		writer:    writer,
		generator: gen,
		indexer:   index.NewService(index.NewMemoryRepository()),
	}
}

func TestValidateSiteHandlerFailsOnErrors(t *testing.T) {
	fx := newFixture(t)
	handler := NewValidateSiteHandler(fx.loader, fx.validator, ".", nil)

	var report *sitevalidation.Report
	err := handler.Execute(context.Background(), ValidateSiteCommand{
		ResultCallback: func(r *sitevalidation.Report) { report = r },
	})
	if err == nil {
		t.Fatal("expected duplicate permalink to fail validation")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if report == nil || len(report.ByCode(sitevalidation.CodePermalinkDuplicate)) != 2 {
		t.Fatalf("expected duplicate issue in report, got %+v", report)
	}
}

func TestValidateSiteHandlerPolicyOverride(t *testing.T) {
	fx := newFixture(t)
	handler := NewValidateSiteHandler(fx.loader, fx.validator, ".", nil)

	var report *sitevalidation.Report
	err := handler.Execute(context.Background(), ValidateSiteCommand{
		Policy:         site.PolicyNewest,
		ResultCallback: func(r *sitevalidation.Report) { report = r },
	})
	if err != nil {
		t.Fatalf("expected newest policy to pass, got %v", err)
	}
	if shadowed := report.ByCode(sitevalidation.CodePermalinkShadowed); len(shadowed) != 1 || shadowed[0].Path != "_pages/about.md" {
		t.Fatalf("expected about.md shadowed, got %+v", shadowed)
	}
}

func TestValidateSiteCommandValidation(t *testing.T) {
	cases := []ValidateSiteCommand{
		{Policy: "latest"},
		{Directory: "/etc"},
		{Directory: "../outside"},
	}
	fx := newFixture(t)
	handler := NewValidateSiteHandler(fx.loader, fx.validator, ".", nil)
	for _, msg := range cases {
		err := handler.Execute(context.Background(), msg)
		if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
			t.Fatalf("expected validation error for %+v, got %v", msg, err)
		}
	}
	if err := (ValidateSiteCommand{Directory: "_posts", Policy: site.PolicyFirst}).Validate(); err != nil {
		t.Fatalf("expected valid command, got %v", err)
	}
}

func TestBuildAndCleanSiteHandlers(t *testing.T) {
	fx := newFixture(t)
	build := NewBuildSiteHandler(fx.generator, nil)

	err := build.Execute(context.Background(), BuildSiteCommand{})
	if err == nil {
		t.Fatal("expected duplicate permalink to fail the build")
	}

	var result *generator.BuildResult
	err = build.Execute(context.Background(), BuildSiteCommand{
		Policy:         site.PolicyNewest,
		ResultCallback: func(r *generator.BuildResult) { result = r },
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result == nil || result.PagesBuilt != 2 || result.RedirectsBuilt != 1 {
		t.Fatalf("unexpected build result %+v", result)
	}
	if len(fx.writer.Files()) == 0 {
		t.Fatal("expected outputs written")
	}

	if err := NewCleanSiteHandler(fx.generator, nil).Execute(context.Background(), CleanSiteCommand{}); err != nil {
		t.Fatalf("clean: %v", err)
	}
	if files := fx.writer.Files(); len(files) != 0 {
		t.Fatalf("expected clean output, got %v", files)
	}
}

func TestBuildSiteHandlerDryRun(t *testing.T) {
	fx := newFixture(t)
	var result *generator.BuildResult
	err := NewBuildSiteHandler(fx.generator, nil).Execute(context.Background(), BuildSiteCommand{
		DryRun:         true,
		Policy:         site.PolicyFirst,
		ResultCallback: func(r *generator.BuildResult) { result = r },
	})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !result.DryRun || len(fx.writer.Files()) != 0 {
		t.Fatalf("dry run must not write, got %v", fx.writer.Files())
	}
}

func TestIndexSiteHandler(t *testing.T) {
	fx := newFixture(t)
	handler := NewIndexSiteHandler(fx.loader, fx.indexer, ".", nil)

	var (
		result index.SyncResult
		groups []index.DuplicateGroup
	)
	err := handler.Execute(context.Background(), IndexSiteCommand{
		ResultCallback: func(r index.SyncResult, g []index.DuplicateGroup) {
			result, groups = r, g
		},
	})
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if result.Created != 3 {
		t.Fatalf("expected 3 entries created, got %+v", result)
	}
	if len(groups) != 1 || groups[0].Permalink != "/" {
		t.Fatalf("expected duplicate group for /, got %+v", groups)
	}

	err = NewIndexSiteHandler(fx.loader, nil, ".", nil).Execute(context.Background(), IndexSiteCommand{})
	if err == nil {
		t.Fatal("expected error without indexer")
	}
}

func TestIndexSiteHandlerDirectoryKeepsOtherEntries(t *testing.T) {
	fx := newFixture(t)
	handler := NewIndexSiteHandler(fx.loader, fx.indexer, ".", nil)

	if err := handler.Execute(context.Background(), IndexSiteCommand{}); err != nil {
		t.Fatalf("full index: %v", err)
	}

	var (
		result index.SyncResult
		groups []index.DuplicateGroup
	)
	err := handler.Execute(context.Background(), IndexSiteCommand{
		Directory: "_posts",
		ResultCallback: func(r index.SyncResult, g []index.DuplicateGroup) {
			result, groups = r, g
		},
	})
	if err != nil {
		t.Fatalf("index _posts: %v", err)
	}
	if result != (index.SyncResult{Unchanged: 1}) {
		t.Fatalf("expected only the post to be visited, got %+v", result)
	}
	if len(groups) != 1 || len(groups[0].Entries) != 2 {
		t.Fatalf("expected about drafts to stay indexed, got %+v", groups)
	}
}

func TestRegisterSiteCommands(t *testing.T) {
	fx := newFixture(t)
	reg := fixtures.NewRecordingRegistry()
	applied := false

	set, err := RegisterSiteCommands(reg, Dependencies{
		Loader:    fx.loader,
		Validator: fx.validator,
		Generator: fx.generator,
		Indexer:   fx.indexer,
	}, nil, WithBuildHandlerOptions(func(*commands.Handler[BuildSiteCommand]) { applied = true }))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !applied {
		t.Fatal("expected build handler options applied")
	}
	if len(reg.Handlers) != 4 || reg.Handlers[0] != set.Validate || reg.Handlers[3] != set.Index {
		t.Fatalf("unexpected registrations %#v", reg.Handlers)
	}

	if _, err := RegisterSiteCommands(nil, Dependencies{}, nil); err == nil {
		t.Fatal("expected error for missing dependencies")
	}

	reg.Err = errors.New("registry down")
	if _, err := RegisterSiteCommands(reg, Dependencies{
		Loader:    fx.loader,
		Validator: fx.validator,
		Generator: fx.generator,
	}, nil); err == nil {
		t.Fatal("expected registry error to propagate")
	}
}

func TestJoinDir(t *testing.T) {
	cases := map[[2]string]string{
		{"", ""}:               ".",
		{".", ""}:              ".",
		{".", "_posts"}:        "_posts",
		{"content", "_posts/"}: "content/_posts",
	}
	for in, want := range cases {
		if got := joinDir(in[0], in[1]); got != want {
			t.Fatalf("joinDir(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}
