package di

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-homepage/internal/logging/gologger"
	"github.com/goliatone/go-homepage/internal/runtimeconfig"
)

func TestConfigureLoggerProviderUsesGoLoggerAdapter(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Index.Enabled = false
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"

	container, err := NewContainer(context.Background(), cfg, WithSiteFS(fstest.MapFS{}))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	provider, ok := container.loggerProvider.(*gologger.Provider)
	if !ok {
		t.Fatalf("expected go-logger provider, got %T", container.loggerProvider)
	}

	logger := provider.GetLogger("homepage.test")
	if logger == nil {
		t.Fatal("expected logger from go-logger provider, got nil")
	}
}

func TestContentExcludesAddsNestedOutputDir(t *testing.T) {
	base := t.TempDir()

	got := contentExcludes([]string{".git"}, base, base+"/public/site")
	if len(got) != 2 || got[1] != "public" {
		t.Fatalf("expected public to be excluded, got %v", got)
	}

	got = contentExcludes([]string{"public"}, base, base+"/public")
	if len(got) != 1 {
		t.Fatalf("expected existing exclude to be kept once, got %v", got)
	}

	got = contentExcludes(nil, base+"/content", base+"/dist")
	if len(got) != 0 {
		t.Fatalf("expected sibling output dir to be ignored, got %v", got)
	}
}

func TestProfilesMapping(t *testing.T) {
	c := &Container{Config: runtimeconfig.DefaultConfig()}
	if got := c.profiles(); got != nil {
		t.Fatalf("expected nil profiles to keep validator defaults, got %v", got)
	}

	c.Config.Validation.Profiles = []runtimeconfig.ProfileConfig{{Name: "cv", Permalink: "/cv/", Keys: []string{"title", "permalink"}}}
	got := c.profiles()
	if len(got) != 1 || got[0].Permalink != "/cv/" || len(got[0].Keys) != 2 {
		t.Fatalf("unexpected profiles: %+v", got)
	}

	c.Config.Validation.DisableProfiles = true
	got = c.profiles()
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil profiles when disabled, got %v", got)
	}
}
