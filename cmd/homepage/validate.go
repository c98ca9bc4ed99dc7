package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	sitecmd "github.com/goliatone/go-homepage/internal/commands/site"
	"github.com/goliatone/go-homepage/internal/runtimeconfig"
	sitevalidation "github.com/goliatone/go-homepage/internal/validation"
)

func newValidateCommand(root *rootOptions) *cobra.Command {
	var (
		drafts   bool
		external bool
		policy   string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "validate [directory]",
		Short: "Check front matter, permalinks, key sets and links",
		Long: `validate loads every document, including files whose front matter does
not parse, and reports problems. The command exits with status 1 when the
report contains errors.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return fmt.Errorf("unsupported format %q", format)
			}
			duplicatePolicy, err := parsePolicyFlag(policy)
			if err != nil {
				return err
			}

			module, err := root.openModule(cmd.Context(), func(cfg *runtimeconfig.Config) {
				if external {
					cfg.Validation.ExternalLinks = true
				}
			})
			if err != nil {
				return err
			}
			defer module.Close()

			msg := sitecmd.ValidateSiteCommand{
				Drafts: drafts,
				Policy: duplicatePolicy,
			}
			if len(args) == 1 {
				msg.Directory = args[0]
			}
			if cmd.Flags().Changed("external") {
				msg.ExternalLinks = &external
			}

			var report *sitevalidation.Report
			msg.ResultCallback = func(r *sitevalidation.Report) { report = r }

			runErr := dispatch(cmd.Context(), msg)
			if report != nil {
				if err := printReport(root.stdout, report, format); err != nil {
					return err
				}
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&drafts, "drafts", false, "include files under _drafts")
	cmd.Flags().BoolVar(&external, "external", false, "check external links over the network")
	cmd.Flags().StringVar(&policy, "policy", "", "duplicate permalink policy (error, newest, first)")
	cmd.Flags().StringVar(&format, "format", "text", "report format (text, json)")
	return cmd
}

func printReport(w io.Writer, report *sitevalidation.Report, format string) error {
	if format == "json" {
		payload := struct {
			*sitevalidation.Report
			Errors   int `json:"errors"`
			Warnings int `json:"warnings"`
		}{
			Report:   report,
			Errors:   report.Count(sitevalidation.SeverityError),
			Warnings: report.Count(sitevalidation.SeverityWarning),
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	}

	for _, issue := range report.Issues {
		fmt.Fprintln(w, issue.String())
	}
	errorsCount := report.Count(sitevalidation.SeverityError)
	warnings := report.Count(sitevalidation.SeverityWarning)
	fmt.Fprintf(w, "%d document(s) checked: %s, %s\n",
		report.Documents,
		plural(errorsCount, "error"),
		plural(warnings, "warning"),
	)
	return nil
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
