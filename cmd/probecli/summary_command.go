package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"probecli/internal/dataprocessing"
	"probecli/internal/exporter"
	"probecli/internal/services"
	"probecli/pkg/contracts/domain"
)

func newSummaryCommand(ctx *commandContext) *cobra.Command {
	var (
		filters      filterFlags
		section      string
		source       string
		lower, upper float64
		limitEntries []string
		jsonOut      bool
	)

	cmd := &cobra.Command{
		Use:   "summary <paths...>",
		Short: "Summary statistics per section, with optional spec limits",
		Args:  requirePaths,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := filters.filter()
			if err != nil {
				return err
			}
			limits, err := parseLimits(limitEntries)
			if err != nil {
				return err
			}

			var sectionLimits domain.SpecLimits
			if cmd.Flags().Changed("lower") {
				sectionLimits.Lower = &lower
			}
			if cmd.Flags().Changed("upper") {
				sectionLimits.Upper = &upper
			}
			if sectionLimits.HasBoth() && upper < lower {
				return errors.New("--upper must be greater than or equal to --lower")
			}
			if section == "" && (sectionLimits.Lower != nil || sectionLimits.Upper != nil) {
				return errors.New("--lower/--upper need --section; use --limit section:lower:upper otherwise")
			}

			b, err := ctx.analyze(cmd.Context(), args)
			if err != nil {
				return err
			}

			var names []string
			if section != "" {
				names = []string{section}
			} else {
				sections, err := b.service.Sections(cmd.Context(), filter)
				if err != nil {
					return err
				}
				for _, s := range sections {
					names = append(names, s.Name)
				}
			}

			summaries := make([]dataprocessing.SectionSummary, 0, len(names))
			for _, name := range names {
				query := services.SectionQuery{
					Section: name,
					Source:  domain.SeriesSource(source),
					Filter:  filter,
					Limits:  limits[name],
				}
				if name == section {
					query.Limits = sectionLimits
				}
				summary, err := b.service.Summary(cmd.Context(), query)
				if err != nil && !errors.Is(err, services.ErrEmptySeries) {
					return err
				}
				summaries = append(summaries, *summary)
			}

			if jsonOut {
				return writeJSON(cmd, summaries)
			}

			rows := make([][]string, 0, len(summaries))
			for _, s := range summaries {
				rows = append(rows, exporter.SummaryRow(s))
			}
			aligns := make([]columnAlignment, len(exporter.SummaryHeaders))
			for i := 3; i < len(aligns); i++ {
				aligns[i] = alignRight
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable("Summary", exporter.SummaryHeaders, rows, aligns))
			return nil
		},
	}

	addFilterFlags(cmd, &filters)
	cmd.Flags().StringVarP(&section, "section", "s", "", "Section to summarize (default: all)")
	cmd.Flags().StringVar(&source, "source", "", "Series source: index_value or waveform (default by section kind)")
	cmd.Flags().Float64Var(&lower, "lower", 0, "Lower spec limit for --section")
	cmd.Flags().Float64Var(&upper, "upper", 0, "Upper spec limit for --section")
	cmd.Flags().StringArrayVar(&limitEntries, "limit", nil, "Spec limits as section:lower:upper (repeatable)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Write summaries as JSON")
	return cmd
}
