package main

import (
	"fmt"

	"github.com/spf13/cobra"

	sitecmd "github.com/goliatone/go-homepage/internal/commands/site"
)

func newCleanCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the generated site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			module, err := root.openModule(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer module.Close()

			if err := dispatch(cmd.Context(), sitecmd.CleanSiteCommand{}); err != nil {
				return err
			}
			fmt.Fprintf(root.stdout, "removed %s\n", module.Config.Generator.OutputDir)
			return nil
		},
	}
}
