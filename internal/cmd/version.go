package cmd

import (
	"github.com/spf13/cobra"

	"github.com/emlab/techdata/internal/build"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display the binary version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(build.Version)
		},
	}
}
