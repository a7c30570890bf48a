package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHeadersCommand(ctx *commandContext) *cobra.Command {
	var (
		filters filterFlags
		rawFile string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "headers <paths...>",
		Short: "Show the header fields of each file",
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

			out := cmd.OutOrStdout()
			if rawFile != "" {
				lines, err := b.service.HeaderText(cmd.Context(), rawFile)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, lines)
				}
				for _, line := range lines {
					fmt.Fprintln(out, line)
				}
				return nil
			}

			headers, err := b.service.Headers(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, headers)
			}

			rows := make([][]string, 0, len(headers))
			for _, h := range headers {
				rows = append(rows, []string{
					h.FileName, string(h.FileFormat), h.SN, h.Station(), h.Operator, h.Date, h.Time, h.ResultStatus,
				})
			}
			fmt.Fprintln(out, renderTable("Headers",
				[]string{"File", "Format", "SN", "Station", "Operator", "Date", "Time", "Status"}, rows, nil))
			return nil
		},
	}

	addFilterFlags(cmd, &filters)
	cmd.Flags().StringVar(&rawFile, "raw", "", "Print the raw header lines of one file")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Write headers as JSON")
	return cmd
}
