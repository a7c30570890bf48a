package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"probecli/internal/files"
	"probecli/internal/services"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "analyze <paths...>",
		Short: "Parse probe files and report files, sections and errors",
		Args:  requirePaths,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := ctx.analyze(cmd.Context(), args)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, b.result)
			}

			headers, err := b.service.Headers(cmd.Context(), noFilter)
			if err != nil {
				return err
			}
			headerRows := make([][]string, 0, len(headers))
			for _, h := range headers {
				headerRows = append(headerRows, []string{h.FileName, string(h.FileFormat), h.SN, h.Station(), h.ResultStatus})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Batch %s: %d files\n", b.result.BatchID, len(b.result.Files))
			if latest, ok := files.GetLatestFile(b.files); ok {
				fmt.Fprintf(out, "Newest file: %s (%s)\n", latest.Name, latest.ModTime.Format("2006-01-02 15:04:05"))
			}
			fmt.Fprintln(out, renderTable("Files", []string{"File", "Format", "SN", "Station", "Status"}, headerRows, nil))
			fmt.Fprintln(out, renderSections(b.result.Sections))

			if len(b.result.Errors) > 0 {
				errorRows := make([][]string, 0, len(b.result.Errors))
				for _, fe := range b.result.Errors {
					errorRows = append(errorRows, []string{fe.FileName, string(fe.Kind), fe.Message})
				}
				fmt.Fprintln(out, renderTable("Errors", []string{"File", "Kind", "Message"}, errorRows, nil))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Write the analysis result as JSON")
	return cmd
}

func renderSections(sections []services.SectionInfo) string {
	rows := make([][]string, 0, len(sections))
	for _, s := range sections {
		rows = append(rows, []string{s.Name, string(s.Kind), string(s.DefaultSource), strconv.Itoa(s.Files)})
	}
	return renderTable("Sections", []string{"Section", "Kind", "Source", "Files"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight})
}
