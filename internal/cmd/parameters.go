package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func parametersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parameters <year> <technology>",
		Short: "List the parameters available for a technology in a year",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid year %q: %w", args[0], err)
			}
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			params, err := client.Parameters(year, args[1])
			if err != nil {
				return err
			}
			for _, param := range params {
				fmt.Fprintln(cmd.OutOrStdout(), param)
			}
			return nil
		},
	}
}
