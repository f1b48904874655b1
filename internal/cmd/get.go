package cmd

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <year> <technology> <parameter>",
		Short: "Show the value, unit and source for one technology parameter",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid year %q: %w", args[0], err)
			}
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			record, err := client.Get(year, args[1], args[2])
			if err != nil {
				return err
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Year", "Technology", "Parameter", "Value", "Unit", "Source"})
			tw.AppendRow(table.Row{year, args[1], args[2], record.Value, record.Unit, record.Source})
			tw.Render()

			if record.FurtherDescription != "" {
				fmt.Fprintln(cmd.OutOrStdout(), record.FurtherDescription)
			}
			return nil
		},
	}
}
