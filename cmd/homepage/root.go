package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-homepage/cmd/homepage/internal/bootstrap"
	sitecmd "github.com/goliatone/go-homepage/internal/commands/site"
	"github.com/goliatone/go-homepage/internal/runtimeconfig"
	"github.com/goliatone/go-homepage/internal/site"
)

const (
	exitOK      = 0
	exitInvalid = 1
	exitFailure = 2
)

var moduleBuilder = bootstrap.BuildModule

// dispatch routes a message to the handler subscribed by the bootstrap.
var dispatch = func(ctx context.Context, msg any) error {
	switch m := msg.(type) {
	case sitecmd.ValidateSiteCommand:
		return dispatcher.Dispatch(ctx, m)
	case sitecmd.BuildSiteCommand:
		return dispatcher.Dispatch(ctx, m)
	case sitecmd.CleanSiteCommand:
		return dispatcher.Dispatch(ctx, m)
	case sitecmd.IndexSiteCommand:
		return dispatcher.Dispatch(ctx, m)
	default:
		return fmt.Errorf("homepage: unsupported message %T", msg)
	}
}

type rootOptions struct {
	configFile string
	contentDir string
	outputDir  string
	logLevel   string
	logFormat  string
	stdout     io.Writer
	stderr     io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "homepage:", err)
		return exitCode(err)
	}
	return exitOK
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, sitecmd.ErrSiteInvalid):
		return exitInvalid
	default:
		return exitFailure
	}
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "homepage",
		Short: "Validate, build and preview a markdown academic homepage",
		Long: `homepage reads the markdown corpus of a personal academic site,
checks its front matter and permalinks, and renders it to static HTML.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default is ./homepage.yaml)")
	flags.StringVar(&opts.contentDir, "content-dir", "", "site root holding the markdown corpus")
	flags.StringVar(&opts.outputDir, "output-dir", "", "directory receiving the generated site")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "go-logger format (json, console, pretty)")

	root.AddCommand(
		newValidateCommand(opts),
		newBuildCommand(opts),
		newCleanCommand(opts),
		newIndexCommand(opts),
		newServeCommand(opts),
	)
	return root
}

// openModule builds the services with the flag overrides applied on top of
// the loaded configuration.
func (o *rootOptions) openModule(ctx context.Context, override func(*runtimeconfig.Config)) (*bootstrap.Module, error) {
	return moduleBuilder(ctx, bootstrap.Options{
		ConfigFile: o.configFile,
		Override: func(cfg *runtimeconfig.Config) {
			if dir := strings.TrimSpace(o.contentDir); dir != "" {
				cfg.Content.Dir = dir
			}
			if dir := strings.TrimSpace(o.outputDir); dir != "" {
				cfg.Generator.OutputDir = dir
			}
			if level := strings.TrimSpace(o.logLevel); level != "" {
				cfg.Logging.Level = level
			}
			if format := strings.TrimSpace(o.logFormat); format != "" {
				cfg.Logging.Format = format
			}
			if override != nil {
				override(cfg)
			}
		},
	})
}

func parsePolicyFlag(value string) (site.Policy, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	return site.ParsePolicy(value)
}
