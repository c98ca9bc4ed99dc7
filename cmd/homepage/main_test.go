package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	sitecmd "github.com/goliatone/go-homepage/internal/commands/site"
	"github.com/goliatone/go-homepage/internal/site"
)

const aboutPage = `---
permalink: /
title: "About me"
excerpt: "About me"
author_profile: true
redirect_from:
  - /about/
---

I study [number theory](/publications/).
`

const aboutDraft = `---
permalink: /
title: "About me (draft)"
excerpt: "About me"
author_profile: true
---

Draft bio.
`

const publicationsPage = `---
title: "Publications"
permalink: /publications/
---

Preprints.
`

func writeSite(t *testing.T, withDraft bool) (string, string) {
	t.Helper()
	t.Setenv("HOMEPAGE_INDEX_ENABLED", "false")
	t.Setenv("HOMEPAGE_SITE_BASE_URL", "https://jane.example.edu")
	t.Setenv("HOMEPAGE_GENERATOR_WORKERS", "1")

	root := t.TempDir()
	files := map[string]string{
		"_pages/about.md":        aboutPage,
		"_pages/publications.md": publicationsPage,
	}
	if withDraft {
		files["_drafts/about-2.md"] = aboutDraft
	}
	for name, body := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return root, filepath.Join(t.TempDir(), "public")
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"--log-level", "error"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{fmt.Errorf("validate: %w", sitecmd.ErrSiteInvalid), exitInvalid},
		{errors.New("boom"), exitFailure},
	}
	for _, tc := range cases {
		if got := exitCode(tc.err); got != tc.want {
			t.Fatalf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestBuildCommandWritesSite(t *testing.T) {
	root, out := writeSite(t, false)

	code, stdout, stderr := runCLI(t, "--content-dir", root, "--output-dir", out, "build")
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d (stderr: %s)", code, stderr)
	}
	if !strings.Contains(stdout, "pages: 2 built") {
		t.Fatalf("expected build summary, got %q", stdout)
	}
	index, err := os.ReadFile(filepath.Join(out, "index.html"))
	if err != nil {
		t.Fatalf("read index.html: %v", err)
	}
	if !strings.Contains(string(index), "number theory") {
		t.Fatalf("expected rendered body, got %s", index)
	}
	if _, err := os.Stat(filepath.Join(out, "publications", "index.html")); err != nil {
		t.Fatalf("expected publications page: %v", err)
	}
}

func TestBuildCommandDryRunWritesNothing(t *testing.T) {
	root, out := writeSite(t, false)

	code, stdout, stderr := runCLI(t, "--content-dir", root, "--output-dir", out, "build", "--dry-run")
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d (stderr: %s)", code, stderr)
	}
	if !strings.Contains(stdout, "dry run:") {
		t.Fatalf("expected dry run listing, got %q", stdout)
	}
	if _, err := os.Stat(filepath.Join(out, "index.html")); err == nil {
		t.Fatalf("expected dry run to leave the output untouched")
	}
}

func TestCleanCommandEmptiesOutput(t *testing.T) {
	root, out := writeSite(t, false)

	if code, _, stderr := runCLI(t, "--content-dir", root, "--output-dir", out, "build"); code != exitOK {
		t.Fatalf("build failed with %d: %s", code, stderr)
	}
	code, stdout, stderr := runCLI(t, "--content-dir", root, "--output-dir", out, "clean")
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d (stderr: %s)", code, stderr)
	}
	if !strings.Contains(stdout, "removed") {
		t.Fatalf("expected clean message, got %q", stdout)
	}
	if _, err := os.Stat(filepath.Join(out, "index.html")); err == nil {
		t.Fatalf("expected index.html to be removed")
	}
}

func TestValidateCommandReportsDuplicates(t *testing.T) {
	root, out := writeSite(t, true)

	code, stdout, _ := runCLI(t, "--content-dir", root, "--output-dir", out, "validate", "--drafts")
	if code != exitInvalid {
		t.Fatalf("expected exit %d, got %d (stdout: %s)", exitInvalid, code, stdout)
	}
	if !strings.Contains(stdout, "[permalink.duplicate]") {
		t.Fatalf("expected duplicate permalink issue, got %q", stdout)
	}
	if !strings.Contains(stdout, "document(s) checked") {
		t.Fatalf("expected summary line, got %q", stdout)
	}
}

func TestValidateCommandJSON(t *testing.T) {
	root, out := writeSite(t, true)

	code, stdout, stderr := runCLI(t, "--content-dir", root, "--output-dir", out, "validate", "--format", "json")
	if code != exitOK {
		t.Fatalf("expected exit 0 without drafts, got %d (stderr: %s)", code, stderr)
	}
	var payload struct {
		Documents int `json:"documents"`
		Errors    int `json:"errors"`
	}
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		t.Fatalf("decode report: %v (%s)", err, stdout)
	}
	if payload.Documents != 2 || payload.Errors != 0 {
		t.Fatalf("unexpected report: %+v", payload)
	}
}

func TestValidateCommandRejectsUnknownFormat(t *testing.T) {
	root, out := writeSite(t, false)

	code, _, stderr := runCLI(t, "--content-dir", root, "--output-dir", out, "validate", "--format", "xml")
	if code != exitFailure {
		t.Fatalf("expected exit %d, got %d", exitFailure, code)
	}
	if !strings.Contains(stderr, "unsupported format") {
		t.Fatalf("expected format error, got %q", stderr)
	}
}

func TestBuildCommandPassesFlagsToMessage(t *testing.T) {
	root, out := writeSite(t, false)

	original := dispatch
	t.Cleanup(func() { dispatch = original })

	var captured sitecmd.BuildSiteCommand
	dispatch = func(_ context.Context, msg any) error {
		cmd, ok := msg.(sitecmd.BuildSiteCommand)
		if !ok {
			return fmt.Errorf("unexpected message %T", msg)
		}
		captured = cmd
		return nil
	}

	code, _, stderr := runCLI(t, "--content-dir", root, "--output-dir", out, "build", "--force", "--drafts", "--policy", "newest")
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d (stderr: %s)", code, stderr)
	}
	if !captured.Force || !captured.Drafts || captured.Policy != site.PolicyNewest {
		t.Fatalf("unexpected message: %+v", captured)
	}
}

func TestBuildCommandRejectsUnknownPolicy(t *testing.T) {
	root, out := writeSite(t, false)

	code, _, _ := runCLI(t, "--content-dir", root, "--output-dir", out, "build", "--policy", "latest")
	if code != exitFailure {
		t.Fatalf("expected exit %d, got %d", exitFailure, code)
	}
}

func TestMissingConfigFileFails(t *testing.T) {
	code, _, stderr := runCLI(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "build")
	if code != exitFailure {
		t.Fatalf("expected exit %d, got %d", exitFailure, code)
	}
	if !strings.Contains(stderr, "config file not found") {
		t.Fatalf("expected config error, got %q", stderr)
	}
}

func TestDebouncerCollapsesBursts(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{}, 4)
	d := newDebouncer(20*time.Millisecond, func() {
		calls.Add(1)
		done <- struct{}{}
	})
	defer d.Stop()

	for i := 0; i < 5; i++ {
		d.Trigger()
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced function was not called")
	}
	time.Sleep(60 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 call, got %d", got)
	}
}

func TestDebouncerStopCancelsPendingCall(t *testing.T) {
	var calls atomic.Int32
	d := newDebouncer(20*time.Millisecond, func() { calls.Add(1) })

	d.Trigger()
	d.Stop()
	d.Trigger()
	time.Sleep(60 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Fatalf("expected no calls after Stop, got %d", got)
	}
}

func TestWatchFilterSkip(t *testing.T) {
	root := t.TempDir()
	output := filepath.Join(root, "_site")
	filter := newWatchFilter(root, []string{"node_modules", "vendor/"}, output)

	cases := []struct {
		path string
		want bool
	}{
		{root, false},
		{filepath.Join(root, "_pages"), false},
		{filepath.Join(root, "_posts", "2024"), false},
		{filepath.Join(root, ".git"), true},
		{filepath.Join(root, "node_modules"), true},
		{filepath.Join(root, "vendor"), true},
		{filepath.Join(root, "_site"), true},
	}
	for _, tc := range cases {
		if got := filter.skip(tc.path); got != tc.want {
			t.Fatalf("skip(%s) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestPreviewAppServesOutput(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>About me</h1>"), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "publications"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "publications", "index.html"), []byte("<h1>Publications</h1>"), 0o644); err != nil {
		t.Fatalf("write publications: %v", err)
	}

	app := newPreviewApp(dir)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 || !strings.Contains(string(body), "About me") {
		t.Fatalf("unexpected response %d: %s", resp.StatusCode, body)
	}
	if got := resp.Header.Get("Cache-Control"); !strings.Contains(got, "no-cache") {
		t.Fatalf("expected no-cache header, got %q", got)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/publications/", nil))
	if err != nil {
		t.Fatalf("GET /publications/: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	if resp.StatusCode != 200 || !strings.Contains(string(body), "Publications") {
		t.Fatalf("unexpected response %d: %s", resp.StatusCode, body)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/missing.html", nil))
	if err != nil {
		t.Fatalf("GET /missing.html: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
