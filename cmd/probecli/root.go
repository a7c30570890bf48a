package main

import (
	"github.com/spf13/cobra"

	"probecli/pkg/contracts"
)

func newRootCommand() *cobra.Command {
	var flags globalFlags
	ctx := newCommandContext(&flags)

	rootCmd := &cobra.Command{
		Use:           "probecli",
		Short:         "Analyze acoustic probe .raw/.imp result files",
		Version:       contracts.GetFullVersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&flags.recursive, "recursive", "r", false, "Walk directories recursively")
	rootCmd.PersistentFlags().IntVar(&flags.workers, "workers", -1, "Concurrent file parses (0 = one per CPU)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log progress to stderr")

	rootCmd.AddCommand(newAnalyzeCommand(ctx))
	rootCmd.AddCommand(newSectionsCommand(ctx))
	rootCmd.AddCommand(newSummaryCommand(ctx))
	rootCmd.AddCommand(newHeadersCommand(ctx))
	rootCmd.AddCommand(newExportCommand(ctx))

	return rootCmd
}
