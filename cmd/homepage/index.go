package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	sitecmd "github.com/goliatone/go-homepage/internal/commands/site"
	"github.com/goliatone/go-homepage/internal/index"
	"github.com/goliatone/go-homepage/internal/runtimeconfig"
)

func newIndexCommand(root *rootOptions) *cobra.Command {
	var (
		drafts bool
		dsn    string
	)

	cmd := &cobra.Command{
		Use:   "index [directory]",
		Short: "Sync the corpus into the SQL index and list shared permalinks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := root.openModule(cmd.Context(), func(cfg *runtimeconfig.Config) {
				cfg.Index.Enabled = true
				if strings.TrimSpace(dsn) != "" {
					cfg.Index.DSN = dsn
				}
			})
			if err != nil {
				return err
			}
			defer module.Close()

			msg := sitecmd.IndexSiteCommand{Drafts: drafts}
			if len(args) == 1 {
				msg.Directory = args[0]
			}
			msg.ResultCallback = func(result index.SyncResult, groups []index.DuplicateGroup) {
				fmt.Fprintf(root.stdout, "index: %d created, %d updated, %d unchanged, %d deleted\n",
					result.Created, result.Updated, result.Unchanged, result.Deleted)
				for _, group := range groups {
					fmt.Fprintf(root.stdout, "%s shared by %s\n", group.Permalink, strings.Join(group.Paths(), ", "))
				}
			}
			return dispatch(cmd.Context(), msg)
		},
	}

	cmd.Flags().BoolVar(&drafts, "drafts", true, "include files under _drafts")
	cmd.Flags().StringVar(&dsn, "dsn", "", "index database (sqlite://path, :memory:, postgres://...)")
	return cmd
}
