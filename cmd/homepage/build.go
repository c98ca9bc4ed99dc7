package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	sitecmd "github.com/goliatone/go-homepage/internal/commands/site"
	"github.com/goliatone/go-homepage/internal/generator"
)

func newBuildCommand(root *rootOptions) *cobra.Command {
	var (
		force  bool
		dryRun bool
		drafts bool
		policy string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render the site to the output directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			duplicatePolicy, err := parsePolicyFlag(policy)
			if err != nil {
				return err
			}
			module, err := root.openModule(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer module.Close()

			var result *generator.BuildResult
			err = dispatch(cmd.Context(), sitecmd.BuildSiteCommand{
				Force:          force,
				DryRun:         dryRun,
				Drafts:         drafts,
				Policy:         duplicatePolicy,
				ResultCallback: func(r *generator.BuildResult) { result = r },
			})
			if result != nil {
				printBuildResult(root.stdout, result, module.Config.Generator.OutputDir)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "re-render every page, ignoring the build manifest")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute outputs without writing them")
	cmd.Flags().BoolVar(&drafts, "drafts", false, "include files under _drafts")
	cmd.Flags().StringVar(&policy, "policy", "", "duplicate permalink policy (error, newest, first)")
	return cmd
}

func printBuildResult(w io.Writer, result *generator.BuildResult, outputDir string) {
	if result.DryRun {
		fmt.Fprintf(w, "dry run: %d output(s) planned for %s\n", len(result.Outputs), outputDir)
		for _, output := range result.Outputs {
			fmt.Fprintf(w, "  %s\n", output)
		}
	}
	fmt.Fprintf(w, "pages: %d built, %d unchanged, %d removed; redirects: %d; assets: %d copied, %d unchanged; feeds: %d\n",
		result.PagesBuilt,
		result.PagesSkipped,
		result.PagesRemoved,
		result.RedirectsBuilt,
		result.AssetsBuilt,
		result.AssetsSkipped,
		result.FeedsBuilt,
	)
	for _, path := range result.Shadowed {
		fmt.Fprintf(w, "shadowed: %s\n", path)
	}
	for _, path := range result.Unpublished {
		fmt.Fprintf(w, "unpublished: %s\n", path)
	}
	for _, err := range result.Errors {
		fmt.Fprintf(w, "error: %v\n", err)
	}
	fmt.Fprintf(w, "finished in %s\n", result.Duration.Round(time.Millisecond))
}
