package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func technologiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "technologies <year>",
		Short: "List the technologies available for a year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid year %q: %w", args[0], err)
			}
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			techs, err := client.Technologies(year)
			if err != nil {
				return err
			}
			for _, tech := range techs {
				fmt.Fprintln(cmd.OutOrStdout(), tech)
			}
			return nil
		},
	}
}
