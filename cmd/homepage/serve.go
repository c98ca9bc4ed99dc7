package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"

	sitecmd "github.com/goliatone/go-homepage/internal/commands/site"
	"github.com/goliatone/go-homepage/internal/generator"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var (
		host    string
		port    int
		watch   bool
		noBuild bool
		drafts  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Build the site and preview it locally",
		Long: `serve performs an initial build, then serves the output directory over
HTTP. With --watch the site root is watched and the site is rebuilt after
changes settle.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			module, err := root.openModule(ctx, nil)
			if err != nil {
				return err
			}
			defer module.Close()
			logger := module.Logger

			var buildMu sync.Mutex
			rebuild := func() error {
				buildMu.Lock()
				defer buildMu.Unlock()
				var result *generator.BuildResult
				err := dispatch(ctx, sitecmd.BuildSiteCommand{
					Drafts:         drafts,
					ResultCallback: func(r *generator.BuildResult) { result = r },
				})
				if result != nil {
					printBuildResult(root.stdout, result, module.Config.Generator.OutputDir)
				}
				return err
			}

			if !noBuild {
				if err := rebuild(); err != nil {
					return err
				}
			}

			outputDir, err := filepath.Abs(module.Config.Generator.OutputDir)
			if err != nil {
				return fmt.Errorf("resolve output directory: %w", err)
			}
			app := newPreviewApp(outputDir)

			if watch {
				trigger := newDebouncer(defaultDebounce, func() {
					if err := rebuild(); err != nil {
						logger.Error("serve.rebuild.failed", "error", err)
						return
					}
					logger.Info("serve.rebuild.completed")
				})
				defer trigger.Stop()

				filter := newWatchFilter(module.Config.Content.Dir, module.Config.Content.Exclude, outputDir)
				go func() {
					if err := watchSite(ctx, filter, logger, trigger.Trigger); err != nil {
						logger.Error("serve.watch.failed", "error", err)
					}
				}()
			}

			go func() {
				<-ctx.Done()
				if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
					logger.Warn("serve.shutdown.failed", "error", err)
				}
			}()

			addr := net.JoinHostPort(host, strconv.Itoa(port))
			fmt.Fprintf(root.stdout, "serving %s on http://%s\n", outputDir, addr)
			if err := app.Listen(addr); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "interface to listen on")
	cmd.Flags().IntVarP(&port, "port", "p", 4000, "port to listen on")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "rebuild when the site root changes")
	cmd.Flags().BoolVar(&noBuild, "no-build", false, "serve the existing output without building")
	cmd.Flags().BoolVar(&drafts, "drafts", false, "include files under _drafts")
	return cmd
}

// newPreviewApp serves dir with caching disabled so rebuilt pages show up
// on reload.
func newPreviewApp(dir string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "homepage preview",
		DisableStartupMessage: true,
	})
	app.Use(func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-cache, no-store, must-revalidate")
		c.Set(fiber.HeaderPragma, "no-cache")
		c.Set(fiber.HeaderExpires, "0")
		return c.Next()
	})
	app.Static("/", dir, fiber.Static{
		Index:         "index.html",
		CacheDuration: -1,
	})
	return app
}
