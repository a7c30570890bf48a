package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"probecli/pkg/contracts/domain"
)

var noFilter = domain.HeaderFilter{}

func newSectionsCommand(ctx *commandContext) *cobra.Command {
	var filters filterFlags
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "sections <paths...>",
		Short: "List the non-empty sections of the matching files",
		Args:  requirePaths,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := filters.filter()
			if err != nil {
				return err
			}
			b, err := ctx.analyze(cmd.Context(), args)
			if err != nil {
				return err
			}

			sections, err := b.service.Sections(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, sections)
			}
			if len(sections) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sections match")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSections(sections))
			return nil
		},
	}

	addFilterFlags(cmd, &filters)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Write sections as JSON")
	return cmd
}
