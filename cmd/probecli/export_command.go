package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"probecli/internal/config"
	"probecli/internal/services"
	"probecli/internal/validation"
	"probecli/pkg/contracts/domain"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		filters      filterFlags
		out          string
		section      string
		source       string
		limitEntries []string
	)

	cmd := &cobra.Command{
		Use:   "export <paths...>",
		Short: "Export the analysis to an Excel workbook or CSV",
		Long: "Export writes an .xlsx workbook (summary, headers, errors and one sheet per section)\n" +
			"or a .csv file: section statistics, or one section's series with --section.",
		Args: requirePaths,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := filters.filter()
			if err != nil {
				return err
			}
			limits, err := parseLimits(limitEntries)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			target := out
			if target == "" {
				paths, err := cfg.ResolvePaths("")
				if err != nil {
					return err
				}
				target = paths.ExportPath(config.WorkbookFileName)
			}

			b, err := ctx.analyze(cmd.Context(), args)
			if err != nil {
				return err
			}

			format, err := b.validator.ExportFormat(target)
			if err != nil {
				return err
			}
			if section != "" && format != validation.ExportCSV {
				return errors.New("--section exports need a .csv target")
			}
			if err := b.validator.ValidateOutputDirectory(filepath.Dir(target)); err != nil {
				return err
			}

			f, err := os.Create(target)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", target, err)
			}

			switch {
			case format == validation.ExportXLSX:
				err = b.service.ExportWorkbook(cmd.Context(), f, filter, limits)
			case section != "":
				err = b.service.ExportSectionCSV(cmd.Context(), f, services.SectionQuery{
					Section: section,
					Source:  domain.SeriesSource(source),
					Filter:  filter,
				})
			default:
				err = b.service.ExportSummaryCSV(cmd.Context(), f, filter, limits)
			}
			if closeErr := f.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				_ = os.Remove(target)
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d files to %s\n", len(b.result.Files), target)
			return nil
		},
	}

	addFilterFlags(cmd, &filters)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Target .xlsx or .csv file (default: export dir workbook)")
	cmd.Flags().StringVarP(&section, "section", "s", "", "Export one section's series (csv only)")
	cmd.Flags().StringVar(&source, "source", "", "Series source for --section: index_value or waveform")
	cmd.Flags().StringArrayVar(&limitEntries, "limit", nil, "Spec limits as section:lower:upper (repeatable)")
	return cmd
}
